package loadout

import "context"

// Repository loads loadout definitions, one document per loadout.
type Repository interface {
	LoadAll(ctx context.Context) ([]*ToolLoadout, error)
}
