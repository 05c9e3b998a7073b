package missionctx

import "context"

// Repository defines persistence for context documents, keyed by mission id.
type Repository interface {
	Save(ctx context.Context, mc *MissionContext) error
	Get(ctx context.Context, missionID string) (*MissionContext, error)
	Delete(ctx context.Context, missionID string) error
}
