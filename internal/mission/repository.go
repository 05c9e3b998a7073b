package mission

import "context"

// Repository defines persistence for mission documents. Active and archived
// missions live under distinct prefixes; Archive moves a document from the
// active prefix to the archive prefix.
type Repository interface {
	Create(ctx context.Context, m *Mission) error
	Get(ctx context.Context, id string) (*Mission, error)
	Update(ctx context.Context, m *Mission) error
	ListActive(ctx context.Context) ([]*Mission, error)
	ListArchived(ctx context.Context) ([]*Mission, error)
	GetArchived(ctx context.Context, id string) (*Mission, error)
	Archive(ctx context.Context, m *Mission) error
}
