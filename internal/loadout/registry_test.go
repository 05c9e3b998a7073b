package loadout

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/missiond/pkg/cerr"
)

type stubRepository struct {
	mu       sync.Mutex
	loadouts []*ToolLoadout
}

func (r *stubRepository) LoadAll(context.Context) ([]*ToolLoadout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadouts, nil
}

func (r *stubRepository) set(loadouts []*ToolLoadout) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadouts = loadouts
}

func sampleLoadouts() []*ToolLoadout {
	return []*ToolLoadout{
		{
			ID:           "recon-basic",
			Name:         "Basic Recon",
			Version:      "1.2.0",
			Category:     CategoryAnalysis,
			Capabilities: []string{"network-scan", "service-discovery"},
			Tools: []ToolDescriptor{
				{Name: "nmap", Version: "7.95"},
			},
		},
		{
			ID:           "build-standard",
			Name:         "Standard Build",
			Version:      "2.0.1",
			Category:     CategoryEngineering,
			Capabilities: []string{"compile", "test"},
		},
	}
}

func TestRegistry_LoadAndGet(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(&stubRepository{loadouts: sampleLoadouts()})
	require.NoError(t, reg.Load(ctx))
	assert.Equal(t, 2, reg.Len())

	l, err := reg.Get("recon-basic")
	require.NoError(t, err)
	assert.Equal(t, "Basic Recon", l.Name)
	assert.True(t, l.HasCapability("network-scan"))
	assert.False(t, l.HasCapability("compile"))

	_, err = reg.Get("missing")
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestRegistry_ListFilterByCapability(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(&stubRepository{loadouts: sampleLoadouts()})
	require.NoError(t, reg.Load(ctx))

	all := reg.List("")
	assert.Len(t, all, 2)
	// Ordered by id.
	assert.Equal(t, "build-standard", all[0].ID)

	scanners := reg.List("network-scan")
	require.Len(t, scanners, 1)
	assert.Equal(t, "recon-basic", scanners[0].ID)

	assert.Empty(t, reg.List("teleport"))
}

func TestRegistry_DuplicateID(t *testing.T) {
	reg := NewRegistry(&stubRepository{loadouts: []*ToolLoadout{
		{ID: "dup"}, {ID: "dup"},
	}})
	assert.Error(t, reg.Load(context.Background()))
}

func TestRegistry_ReloadSwapsDefinitions(t *testing.T) {
	ctx := context.Background()
	repo := &stubRepository{loadouts: sampleLoadouts()}
	reg := NewRegistry(repo)
	require.NoError(t, reg.Load(ctx))

	// A change on disk is invisible until the explicit reload.
	repo.set([]*ToolLoadout{{ID: "recon-basic", Name: "Recon v2", Version: "2.0.0"}})
	l, err := reg.Get("recon-basic")
	require.NoError(t, err)
	assert.Equal(t, "Basic Recon", l.Name)

	require.NoError(t, reg.Reload(ctx))
	l, err = reg.Get("recon-basic")
	require.NoError(t, err)
	assert.Equal(t, "Recon v2", l.Name)
	assert.Equal(t, 1, reg.Len())

	_, err = reg.Get("build-standard")
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}
