// Package missionctx holds the live execution context for each active
// mission and its durable document form.
package missionctx

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opsdeck/missiond/pkg/cerr"
)

// InitialPhase is the phase a fresh context points at.
const InitialPhase = "INITIALIZATION"

// Store keeps the live context for every active mission, backed by one
// durable document per mission.
//
// The store guards its own map, but does not serialize operations on the
// same mission against each other: callers that mutate (the lifecycle
// controller, the sync worker) hold the per-mission lock so that a mutation
// and a snapshot never interleave.
type Store struct {
	repo Repository

	mu       sync.RWMutex
	contexts map[string]*MissionContext
	dirty    map[string]bool
}

func NewStore(repo Repository) *Store {
	return &Store{
		repo:     repo,
		contexts: make(map[string]*MissionContext),
		dirty:    make(map[string]bool),
	}
}

// Create initializes the context for a new mission with empty maps.
func (s *Store) Create(ctx context.Context, missionID string) (*MissionContext, error) {
	s.mu.Lock()
	if _, ok := s.contexts[missionID]; ok {
		s.mu.Unlock()
		return nil, cerr.NewError(cerr.AlreadyExists, "mission context already exists", nil)
	}
	mc := &MissionContext{
		ID:             uuid.NewString(),
		MissionID:      missionID,
		CurrentPhase:   InitialPhase,
		ExecutionState: map[string]any{},
		ToolStates:     map[string]any{},
		DataContext:    map[string]any{},
		UserContext:    map[string]any{},
		SystemContext:  map[string]any{},
		Timestamp:      time.Now(),
		Version:        1,
	}
	s.contexts[missionID] = mc
	cp := mc.clone()
	s.mu.Unlock()

	if err := s.repo.Save(ctx, cp); err != nil {
		return nil, err
	}
	return cp, nil
}

// Get returns a copy of the mission's context, loading it from the
// repository when it is not cached (e.g. after a restart). The clone is
// taken under the store lock: Update mutates the live maps in place.
func (s *Store) Get(ctx context.Context, missionID string) (*MissionContext, error) {
	mc, err := s.live(ctx, missionID)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	cp := mc.clone()
	s.mu.RUnlock()
	return cp, nil
}

// Update merges the patch into the mission's context, bumps the timestamp
// and version, persists the document and returns the updated copy. Merging
// is shallow per top-level key: keys the patch does not touch survive.
func (s *Store) Update(ctx context.Context, missionID string, patch *Patch) (*MissionContext, error) {
	mc, err := s.live(ctx, missionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	mc.apply(patch)
	ts := time.Now()
	if !ts.After(mc.Timestamp) {
		ts = mc.Timestamp.Add(time.Nanosecond)
	}
	mc.Timestamp = ts
	mc.Version++
	s.dirty[missionID] = true
	snapshot := mc.clone()
	s.mu.Unlock()

	if err := s.repo.Save(ctx, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Staged is a context update that has been computed but not yet made
// visible. The caller commits it once the owning mission record is
// durable, so a failed mission write leaves the context untouched.
type Staged struct {
	context  *MissionContext
	snapshot *Snapshot
}

// Snapshot returns the point-in-time copy of the staged context.
func (st *Staged) Snapshot() *Snapshot {
	return st.snapshot
}

// Stage computes the context as it would look with the patch applied,
// together with its snapshot, without touching the live context or the
// document. Callers hold the per-mission lock between Stage and Commit.
func (s *Store) Stage(ctx context.Context, missionID string, patch *Patch) (*Staged, error) {
	mc, err := s.live(ctx, missionID)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	next := mc.clone()
	s.mu.RUnlock()

	next.apply(patch)
	ts := time.Now()
	if !ts.After(next.Timestamp) {
		ts = next.Timestamp.Add(time.Nanosecond)
	}
	next.Timestamp = ts
	next.Version++
	return &Staged{context: next, snapshot: next.snapshot()}, nil
}

// Commit installs a staged update as the live context, clears the dirty
// flag (the staged snapshot covers every change up to this point) and
// persists the document. The staged context stays live even when the
// document write fails; the returned copy reflects it either way.
func (s *Store) Commit(ctx context.Context, missionID string, st *Staged) (*MissionContext, error) {
	s.mu.Lock()
	s.contexts[missionID] = st.context
	s.dirty[missionID] = false
	cp := st.context.clone()
	s.mu.Unlock()
	return cp, s.repo.Save(ctx, cp)
}

// Snapshot builds an immutable copy of the current context and clears the
// dirty flag. The caller appends it to the owning mission's history.
func (s *Store) Snapshot(ctx context.Context, missionID string) (*Snapshot, error) {
	mc, err := s.live(ctx, missionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	snap := mc.snapshot()
	s.dirty[missionID] = false
	s.mu.Unlock()
	return snap, nil
}

// Dirty reports whether the context changed since the last snapshot.
func (s *Store) Dirty(missionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty[missionID]
}

// Persist writes the mission's current context document.
func (s *Store) Persist(ctx context.Context, missionID string) error {
	mc, err := s.live(ctx, missionID)
	if err != nil {
		return err
	}
	s.mu.RLock()
	cp := mc.clone()
	s.mu.RUnlock()
	return s.repo.Save(ctx, cp)
}

// Remove persists the final state and evicts the context from memory. The
// document itself is kept; archived missions retain their last context.
func (s *Store) Remove(ctx context.Context, missionID string) error {
	if err := s.Persist(ctx, missionID); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.contexts, missionID)
	delete(s.dirty, missionID)
	s.mu.Unlock()
	return nil
}

// IDs returns the mission ids with a cached live context, sorted.
func (s *Store) IDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.contexts))
	for id := range s.contexts {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

func (s *Store) live(ctx context.Context, missionID string) (*MissionContext, error) {
	s.mu.RLock()
	mc, ok := s.contexts[missionID]
	s.mu.RUnlock()
	if ok {
		return mc, nil
	}

	loaded, err := s.repo.Get(ctx, missionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if mc, ok := s.contexts[missionID]; ok {
		return mc, nil
	}
	s.contexts[missionID] = loaded
	return loaded, nil
}
