package mission

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/opsdeck/missiond/internal/loadout"
	"github.com/opsdeck/missiond/pkg/cerr"
)

// CreateSpec is the caller-provided description of a new mission. Name,
// Description and Type are required.
type CreateSpec struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Type         Type         `json:"type"`
	Priority     Priority     `json:"priority"`
	Objectives   []*Objective `json:"objectives,omitempty"`
	Phases       []*Phase     `json:"phases,omitempty"`
	Requirements []string     `json:"requirements,omitempty"`
	RiskRegister []*Risk      `json:"risk_register,omitempty"`
	CreatedBy    string       `json:"created_by,omitempty"`
}

// Registry owns the canonical mission records and the active-mission set.
// Records in the active map are treated as immutable: every mutation
// clones the record, persists the clone and swaps the map pointer, so
// readers can hold a record without a lock. Mutations on the same mission
// are serialized by the lifecycle controller's per-mission lock.
type Registry struct {
	repo     Repository
	loadouts *loadout.Registry

	mu     sync.RWMutex
	active map[string]*Mission
}

func NewRegistry(repo Repository, loadouts *loadout.Registry) *Registry {
	return &Registry{
		repo:     repo,
		loadouts: loadouts,
		active:   make(map[string]*Mission),
	}
}

// LoadActive warms the active set from storage, e.g. after a restart.
func (r *Registry) LoadActive(ctx context.Context) error {
	missions, err := r.repo.ListActive(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range missions {
		r.active[m.ID] = m
	}
	return nil
}

// Create validates the spec, generates a unique id, stamps metadata and
// persists the new mission in PLANNING / INITIALIZATION with empty
// lifecycle logs.
func (r *Registry) Create(ctx context.Context, spec *CreateSpec) (*Mission, error) {
	if spec.Name == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "mission name is required", nil)
	}
	if spec.Description == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "mission description is required", nil)
	}
	if spec.Type == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "mission type is required", nil)
	}
	if !spec.Type.Valid() {
		return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("unknown mission type %q", spec.Type), nil)
	}

	id, err := NewID(spec.Type)
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "failed to generate mission id", err)
	}

	priority := spec.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	createdBy := spec.CreatedBy
	if createdBy == "" {
		createdBy = "system"
	}

	now := time.Now()
	m := &Mission{
		ID:           id,
		Name:         spec.Name,
		Description:  spec.Description,
		Type:         spec.Type,
		Priority:     priority,
		Status:       StatusPlanning,
		CurrentStage: StageInitialization,
		Objectives:   spec.Objectives,
		Phases:       spec.Phases,
		Requirements: spec.Requirements,
		RiskRegister: spec.RiskRegister,
		Deliverables: map[string]any{},
		Metadata: Metadata{
			CreatedAt:    now,
			CreatedBy:    createdBy,
			LastModified: now,
			ModifiedBy:   createdBy,
			Version:      1,
		},
	}

	if err := r.repo.Create(ctx, m); err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.active[id] = m
	r.mu.Unlock()

	return m.Clone(), nil
}

// Get returns a copy of an active mission.
func (r *Registry) Get(ctx context.Context, id string) (*Mission, error) {
	m, ok := r.live(id)
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "mission not found", nil)
	}
	return m.Clone(), nil
}

// GetArchived returns an archived mission by id.
func (r *Registry) GetArchived(ctx context.Context, id string) (*Mission, error) {
	return r.repo.GetArchived(ctx, id)
}

// ListActive returns copies of all active missions, ordered by id.
func (r *Registry) ListActive(ctx context.Context) ([]*Mission, error) {
	r.mu.RLock()
	out := make([]*Mission, 0, len(r.active))
	for _, m := range r.active {
		out = append(out, m.Clone())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListArchived returns all archived missions from storage.
func (r *Registry) ListArchived(ctx context.Context) ([]*Mission, error) {
	return r.repo.ListArchived(ctx)
}

// ActiveIDs returns the ids of all active missions, sorted.
func (r *Registry) ActiveIDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.active))
	for id := range r.active {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// AssignLoadout records a tool loadout on the mission. An unknown mission
// or loadout id fails without touching the record.
func (r *Registry) AssignLoadout(ctx context.Context, id, loadoutID string) error {
	if _, err := r.loadouts.Get(loadoutID); err != nil {
		return cerr.NewError(cerr.NotFound, fmt.Sprintf("tool loadout %q not found", loadoutID), err)
	}
	return r.Mutate(ctx, id, func(m *Mission) error {
		m.ToolLoadout = loadoutID
		m.Lifecycle.ActivityLog = append(m.Lifecycle.ActivityLog, &ActivityEntry{
			Timestamp: time.Now(),
			Source:    "registry",
			Message:   fmt.Sprintf("tool loadout %s assigned", loadoutID),
			Data:      map[string]any{"loadout_id": loadoutID},
		})
		m.Touch("registry")
		return nil
	})
}

// Complete marks the mission COMPLETED, merges completion data into the
// deliverables and moves the document from the active set to the archive.
// The caller has already validated the status transition.
func (r *Registry) Complete(ctx context.Context, id string, completion map[string]any, actor string) (*Mission, error) {
	m, ok := r.live(id)
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "mission not found", nil)
	}

	next := m.Clone()
	next.Lifecycle.StatusHistory = append(next.Lifecycle.StatusHistory, &StatusChange{
		Timestamp: time.Now(),
		From:      next.Status,
		To:        StatusCompleted,
		Stage:     StageArchival,
		Actor:     actor,
	})
	next.Status = StatusCompleted
	next.CurrentStage = StageArchival
	if next.Deliverables == nil {
		next.Deliverables = map[string]any{}
	}
	for k, v := range completion {
		next.Deliverables[k] = v
	}
	next.Touch(actor)

	if err := r.repo.Archive(ctx, next); err != nil {
		return nil, err
	}

	r.mu.Lock()
	delete(r.active, id)
	r.mu.Unlock()

	return next, nil
}

// Mutate clones the live record, applies fn to the clone, persists it and
// swaps it into the active set. Readers holding the previous record are
// unaffected. The lifecycle controller holds the per-mission lock, so two
// Mutate calls for the same mission never race.
func (r *Registry) Mutate(ctx context.Context, id string, fn func(m *Mission) error) error {
	m, ok := r.live(id)
	if !ok {
		return cerr.NewError(cerr.NotFound, "mission not found", nil)
	}

	next := m.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := r.repo.Update(ctx, next); err != nil {
		return err
	}

	r.mu.Lock()
	r.active[id] = next
	r.mu.Unlock()
	return nil
}

func (r *Registry) live(id string) (*Mission, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.active[id]
	return m, ok
}
