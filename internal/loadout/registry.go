package loadout

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/opsdeck/missiond/pkg/cerr"
)

// Registry holds all loadout definitions in memory. Load once at startup;
// Reload swaps the whole set atomically.
type Registry struct {
	repo Repository

	mu       sync.RWMutex
	loadouts map[string]*ToolLoadout
}

func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:     repo,
		loadouts: make(map[string]*ToolLoadout),
	}
}

// Load reads all definitions from the repository. Called once at startup
// and again on explicit reload.
func (r *Registry) Load(ctx context.Context) error {
	all, err := r.repo.LoadAll(ctx)
	if err != nil {
		return err
	}
	next := make(map[string]*ToolLoadout, len(all))
	for _, l := range all {
		if _, dup := next[l.ID]; dup {
			return cerr.NewError(cerr.Internal, "persistence failure", fmt.Errorf("duplicate loadout id %q", l.ID))
		}
		next[l.ID] = l
	}
	r.mu.Lock()
	r.loadouts = next
	r.mu.Unlock()
	return nil
}

// Reload is the explicit re-read operation; it is Load under another name
// so call sites read naturally.
func (r *Registry) Reload(ctx context.Context) error {
	return r.Load(ctx)
}

// Get returns a loadout by id.
func (r *Registry) Get(id string) (*ToolLoadout, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.loadouts[id]
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, fmt.Sprintf("tool loadout %q not found", id), nil)
	}
	return l, nil
}

// List returns all loadouts ordered by id, optionally filtered by
// capability tag.
func (r *Registry) List(capability string) []*ToolLoadout {
	r.mu.RLock()
	out := make([]*ToolLoadout, 0, len(r.loadouts))
	for _, l := range r.loadouts {
		if capability != "" && !l.HasCapability(capability) {
			continue
		}
		out = append(out, l)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of loaded loadouts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.loadouts)
}
