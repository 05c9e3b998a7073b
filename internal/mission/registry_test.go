package mission

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/missiond/internal/loadout"
	"github.com/opsdeck/missiond/pkg/cerr"
)

// memRepository is an in-memory Repository for registry tests.
type memRepository struct {
	mu       sync.Mutex
	active   map[string]*Mission
	archived map[string]*Mission
}

func newMemRepository() *memRepository {
	return &memRepository{
		active:   make(map[string]*Mission),
		archived: make(map[string]*Mission),
	}
}

func (r *memRepository) Create(_ context.Context, m *Mission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[m.ID] = m.Clone()
	return nil
}

func (r *memRepository) Get(_ context.Context, id string) (*Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.active[id]
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "mission not found", nil)
	}
	return m.Clone(), nil
}

func (r *memRepository) Update(_ context.Context, m *Mission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[m.ID] = m.Clone()
	return nil
}

func (r *memRepository) ListActive(_ context.Context) ([]*Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Mission, 0, len(r.active))
	for _, m := range r.active {
		out = append(out, m.Clone())
	}
	return out, nil
}

func (r *memRepository) ListArchived(_ context.Context) ([]*Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Mission, 0, len(r.archived))
	for _, m := range r.archived {
		out = append(out, m.Clone())
	}
	return out, nil
}

func (r *memRepository) GetArchived(_ context.Context, id string) (*Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.archived[id]
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "mission not found", nil)
	}
	return m.Clone(), nil
}

func (r *memRepository) Archive(_ context.Context, m *Mission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.archived[m.ID] = m.Clone()
	delete(r.active, m.ID)
	return nil
}

type stubLoadoutRepo struct {
	loadouts []*loadout.ToolLoadout
}

func (r *stubLoadoutRepo) LoadAll(context.Context) ([]*loadout.ToolLoadout, error) {
	return r.loadouts, nil
}

func testLoadouts(t *testing.T) *loadout.Registry {
	t.Helper()
	reg := loadout.NewRegistry(&stubLoadoutRepo{loadouts: []*loadout.ToolLoadout{
		{ID: "recon-basic", Name: "Basic Recon", Category: loadout.CategoryAnalysis},
	}})
	require.NoError(t, reg.Load(context.Background()))
	return reg
}

func newTestRegistry(t *testing.T) (*Registry, *memRepository) {
	t.Helper()
	repo := newMemRepository()
	return NewRegistry(repo, testLoadouts(t)), repo
}

func TestRegistry_Create(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)

	m, err := reg.Create(ctx, &CreateSpec{
		Name:        "Audit payment flows",
		Description: "Quarterly audit of the payment service",
		Type:        TypeAudit,
	})
	require.NoError(t, err)

	assert.Regexp(t, `^aud-\d{4}-[0-9a-f]{8}$`, m.ID)
	assert.Equal(t, StatusPlanning, m.Status)
	assert.Equal(t, StageInitialization, m.CurrentStage)
	assert.Equal(t, PriorityMedium, m.Priority)
	assert.Equal(t, "system", m.Metadata.CreatedBy)
	assert.Equal(t, 1, m.Metadata.Version)
	assert.NotNil(t, m.Deliverables)
}

func TestRegistry_CreateValidation(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)

	tests := []struct {
		name string
		spec *CreateSpec
	}{
		{"missing name", &CreateSpec{Description: "d", Type: TypeAudit}},
		{"missing description", &CreateSpec{Name: "n", Type: TypeAudit}},
		{"missing type", &CreateSpec{Name: "n", Description: "d"}},
		{"unknown type", &CreateSpec{Name: "n", Description: "d", Type: Type("HEIST")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Create(ctx, tt.spec)
			assert.True(t, cerr.IsCode(err, cerr.InvalidArgument), "got %v", err)
		})
	}
}

func TestRegistry_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)

	m, err := reg.Create(ctx, &CreateSpec{Name: "n", Description: "d", Type: TypeDevelopment})
	require.NoError(t, err)

	got, err := reg.Get(ctx, m.ID)
	require.NoError(t, err)
	got.Name = "mutated"

	again, err := reg.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "n", again.Name)
}

func TestRegistry_GetUnknown(t *testing.T) {
	reg, _ := newTestRegistry(t)
	_, err := reg.Get(context.Background(), "dev-2026-deadbeef")
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestRegistry_AssignLoadout(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)

	m, err := reg.Create(ctx, &CreateSpec{Name: "n", Description: "d", Type: TypeSecurity})
	require.NoError(t, err)

	require.NoError(t, reg.AssignLoadout(ctx, m.ID, "recon-basic"))

	got, err := reg.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "recon-basic", got.ToolLoadout)
	assert.NotEmpty(t, got.Lifecycle.ActivityLog)
	assert.Equal(t, 2, got.Metadata.Version)
}

func TestRegistry_AssignUnknownLoadout(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)

	m, err := reg.Create(ctx, &CreateSpec{Name: "n", Description: "d", Type: TypeSecurity})
	require.NoError(t, err)

	err = reg.AssignLoadout(ctx, m.ID, "ghost-kit")
	assert.True(t, cerr.IsCode(err, cerr.NotFound))

	got, err := reg.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ToolLoadout, "failed assignment must not touch the record")
}

func TestRegistry_Complete(t *testing.T) {
	ctx := context.Background()
	reg, repo := newTestRegistry(t)

	m, err := reg.Create(ctx, &CreateSpec{Name: "n", Description: "d", Type: TypeTesting})
	require.NoError(t, err)

	archived, err := reg.Complete(ctx, m.ID, map[string]any{"report": "all green"}, "operator-7")
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, archived.Status)
	assert.Equal(t, StageArchival, archived.CurrentStage)
	assert.Equal(t, "all green", archived.Deliverables["report"])

	last := archived.Lifecycle.StatusHistory[len(archived.Lifecycle.StatusHistory)-1]
	assert.Equal(t, StatusCompleted, last.To)
	assert.Equal(t, "operator-7", last.Actor)

	// Gone from the active set, present in the archive.
	_, err = reg.Get(ctx, m.ID)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))

	fromArchive, err := reg.GetArchived(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, fromArchive.Status)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.NotContains(t, repo.active, m.ID)
}

func TestRegistry_MutatePersistFailureKeepsOldRecord(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t)

	m, err := reg.Create(ctx, &CreateSpec{Name: "n", Description: "d", Type: TypeResearch})
	require.NoError(t, err)

	err = reg.Mutate(ctx, m.ID, func(mm *Mission) error {
		mm.Name = "changed"
		return cerr.NewError(cerr.Internal, "persistence failure", nil)
	})
	require.Error(t, err)

	got, err := reg.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "n", got.Name)
}
