package missionctx

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/missiond/pkg/cerr"
)

// memRepository keeps context documents in memory.
type memRepository struct {
	mu   sync.Mutex
	docs map[string]*MissionContext
}

func newMemRepository() *memRepository {
	return &memRepository{docs: make(map[string]*MissionContext)}
}

func (r *memRepository) Save(_ context.Context, mc *MissionContext) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[mc.MissionID] = mc.clone()
	return nil
}

func (r *memRepository) Get(_ context.Context, missionID string) (*MissionContext, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mc, ok := r.docs[missionID]
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "mission context not found", nil)
	}
	return mc.clone(), nil
}

func (r *memRepository) Delete(_ context.Context, missionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, missionID)
	return nil
}

func TestStore_Create(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemRepository())

	mc, err := store.Create(ctx, "dev-2026-00000001")
	require.NoError(t, err)

	assert.NotEmpty(t, mc.ID)
	assert.Equal(t, "dev-2026-00000001", mc.MissionID)
	assert.Equal(t, InitialPhase, mc.CurrentPhase)
	assert.Equal(t, 1, mc.Version)
	assert.NotNil(t, mc.ExecutionState)
	assert.NotNil(t, mc.UserContext)

	_, err = store.Create(ctx, "dev-2026-00000001")
	assert.True(t, cerr.IsCode(err, cerr.AlreadyExists))
}

func TestStore_UpdateMergesPerTopLevelKey(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemRepository())
	_, err := store.Create(ctx, "m1")
	require.NoError(t, err)

	_, err = store.Update(ctx, "m1", &Patch{
		DataContext: map[string]any{"target": "api.example.com", "depth": 2},
	})
	require.NoError(t, err)

	// A later patch touching one key leaves the other intact; nested values
	// are replaced wholesale.
	mc, err := store.Update(ctx, "m1", &Patch{
		DataContext: map[string]any{"depth": map[string]any{"max": 5}},
	})
	require.NoError(t, err)

	assert.Equal(t, "api.example.com", mc.DataContext["target"])
	assert.Equal(t, map[string]any{"max": 5}, mc.DataContext["depth"])
}

func TestStore_UpdateEmptyStringFieldsSurvive(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemRepository())
	_, err := store.Create(ctx, "m1")
	require.NoError(t, err)

	_, err = store.Update(ctx, "m1", &Patch{CurrentTask: "map endpoints"})
	require.NoError(t, err)

	mc, err := store.Update(ctx, "m1", &Patch{CurrentPhase: "EXECUTION"})
	require.NoError(t, err)

	assert.Equal(t, "map endpoints", mc.CurrentTask)
	assert.Equal(t, "EXECUTION", mc.CurrentPhase)
}

func TestStore_UpdateBumpsVersionAndTimestamp(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemRepository())
	created, err := store.Create(ctx, "m1")
	require.NoError(t, err)

	prev := created.Timestamp
	for i := 0; i < 5; i++ {
		mc, err := store.Update(ctx, "m1", &Patch{ExecutionState: map[string]any{"i": i}})
		require.NoError(t, err)
		assert.Equal(t, created.Version+i+1, mc.Version)
		assert.True(t, mc.Timestamp.After(prev), "timestamp must be strictly monotonic")
		prev = mc.Timestamp
	}
}

func TestStore_SnapshotClearsDirty(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemRepository())
	_, err := store.Create(ctx, "m1")
	require.NoError(t, err)

	assert.False(t, store.Dirty("m1"))

	_, err = store.Update(ctx, "m1", &Patch{CurrentTask: "scan"})
	require.NoError(t, err)
	assert.True(t, store.Dirty("m1"))

	snap, err := store.Snapshot(ctx, "m1")
	require.NoError(t, err)
	assert.NotEmpty(t, snap.SnapshotID)
	assert.Equal(t, "scan", snap.CurrentTask)
	assert.False(t, store.Dirty("m1"))
}

func TestStore_SnapshotIsImmutable(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemRepository())
	_, err := store.Create(ctx, "m1")
	require.NoError(t, err)

	_, err = store.Update(ctx, "m1", &Patch{DataContext: map[string]any{"k": "v1"}})
	require.NoError(t, err)

	snap, err := store.Snapshot(ctx, "m1")
	require.NoError(t, err)

	_, err = store.Update(ctx, "m1", &Patch{DataContext: map[string]any{"k": "v2"}})
	require.NoError(t, err)

	assert.Equal(t, "v1", snap.DataContext["k"])
}

func TestStore_RemoveKeepsDocument(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepository()
	store := NewStore(repo)
	_, err := store.Create(ctx, "m1")
	require.NoError(t, err)

	require.NoError(t, store.Remove(ctx, "m1"))
	assert.Empty(t, store.IDs())

	// The document survives eviction; Get reloads it.
	mc, err := store.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", mc.MissionID)
}

func TestStore_GetUnknown(t *testing.T) {
	store := NewStore(newMemRepository())
	_, err := store.Get(context.Background(), "nope")
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestStore_ConcurrentGetAndUpdateSameMission(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemRepository())
	_, err := store.Create(ctx, "m1")
	require.NoError(t, err)

	// Readers must clone under the store lock while writers mutate the
	// same maps in place; the race detector trips here otherwise.
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := store.Update(ctx, "m1", &Patch{ExecutionState: map[string]any{"step": i}})
			assert.NoError(t, err)
		}(i)
		go func() {
			defer wg.Done()
			mc, err := store.Get(ctx, "m1")
			if assert.NoError(t, err) {
				assert.Equal(t, "m1", mc.MissionID)
			}
		}()
	}
	wg.Wait()

	mc, err := store.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 51, mc.Version)
}

func TestStore_ConcurrentUpdatesSameMissionDisjointKeys(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemRepository())
	_, err := store.Create(ctx, "m1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := store.Update(ctx, "m1", &Patch{
				ExecutionState: map[string]any{fmt.Sprintf("exec-%d", i): i},
			})
			assert.NoError(t, err)
		}(i)
		go func(i int) {
			defer wg.Done()
			_, err := store.Update(ctx, "m1", &Patch{
				DataContext: map[string]any{fmt.Sprintf("data-%d", i): i},
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// Every disjoint key survives regardless of interleaving.
	mc, err := store.Get(ctx, "m1")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		assert.Contains(t, mc.ExecutionState, fmt.Sprintf("exec-%d", i))
		assert.Contains(t, mc.DataContext, fmt.Sprintf("data-%d", i))
	}
	assert.Equal(t, 21, mc.Version)
}

func TestStore_StageDoesNotTouchLiveContext(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemRepository())
	_, err := store.Create(ctx, "m1")
	require.NoError(t, err)

	st, err := store.Stage(ctx, "m1", &Patch{
		CurrentTask: "map endpoints",
		DataContext: map[string]any{"scope": "payment-api"},
	})
	require.NoError(t, err)
	assert.Equal(t, "map endpoints", st.Snapshot().CurrentTask)
	assert.Equal(t, 2, st.Snapshot().Version)

	// Until committed, the live context is unchanged.
	mc, err := store.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, mc.CurrentTask)
	assert.Equal(t, 1, mc.Version)
	assert.False(t, store.Dirty("m1"))

	committed, err := store.Commit(ctx, "m1", st)
	require.NoError(t, err)
	assert.Equal(t, "map endpoints", committed.CurrentTask)
	assert.Equal(t, 2, committed.Version)

	mc, err = store.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "payment-api", mc.DataContext["scope"])
	assert.False(t, store.Dirty("m1"))
}

func TestStore_ConcurrentUpdatesDistinctMissions(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemRepository())

	ids := []string{"m1", "m2", "m3", "m4"}
	for _, id := range ids {
		_, err := store.Create(ctx, id)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(id string, i int) {
				defer wg.Done()
				_, err := store.Update(ctx, id, &Patch{ExecutionState: map[string]any{"step": i}})
				assert.NoError(t, err)
			}(id, i)
		}
	}
	wg.Wait()

	for _, id := range ids {
		mc, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 21, mc.Version)
	}
}
