package syncer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/missiond/internal/briefing"
	"github.com/opsdeck/missiond/internal/journal"
	"github.com/opsdeck/missiond/internal/lifecycle"
	"github.com/opsdeck/missiond/internal/loadout"
	"github.com/opsdeck/missiond/internal/mission"
	missionrepo "github.com/opsdeck/missiond/internal/mission/repositoryimpl"
	"github.com/opsdeck/missiond/internal/missionctx"
	ctxrepo "github.com/opsdeck/missiond/internal/missionctx/repositoryimpl"
	"github.com/opsdeck/missiond/pkg/kmutex"
	"github.com/opsdeck/missiond/pkg/storage"
)

// faultStorage fails writes whose path contains the configured substring
// while the fault is armed.
type faultStorage struct {
	storage.Storage
	substr string
	armed  atomic.Bool
}

func (s *faultStorage) Write(ctx context.Context, path string, data []byte) error {
	if s.armed.Load() && strings.Contains(path, s.substr) {
		return fmt.Errorf("injected write failure for %s", path)
	}
	return s.Storage.Write(ctx, path, data)
}

type emptyLoadoutRepo struct{}

func (emptyLoadoutRepo) LoadAll(context.Context) ([]*loadout.ToolLoadout, error) {
	return nil, nil
}

type workerEnv struct {
	worker     *Worker
	controller *lifecycle.Controller
	registry   *mission.Registry
	contexts   *missionctx.Store
	fault      *faultStorage
}

func newWorkerEnv(t *testing.T) *workerEnv {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	fault := &faultStorage{Storage: local}

	loadouts := loadout.NewRegistry(emptyLoadoutRepo{})
	require.NoError(t, loadouts.Load(ctx))

	jrnl, err := journal.New(local, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = jrnl.Close() })

	contexts := missionctx.NewStore(ctxrepo.NewYAMLRepository(fault))
	registry := mission.NewRegistry(missionrepo.NewYAMLRepository(fault), loadouts)
	controller := lifecycle.NewController(registry, contexts, loadouts, jrnl,
		briefing.NewGenerator(), kmutex.New(), logger)

	worker := NewWorker(registry, contexts, controller, 30*time.Second, 60*time.Second, logger)
	return &workerEnv{
		worker:     worker,
		controller: controller,
		registry:   registry,
		contexts:   contexts,
		fault:      fault,
	}
}

func (env *workerEnv) createMission(t *testing.T, name string) *mission.Mission {
	t.Helper()
	m, err := env.controller.Create(context.Background(), &mission.CreateSpec{
		Name:        name,
		Description: "sync worker test mission",
		Type:        mission.TypeMaintenance,
	})
	require.NoError(t, err)
	return m
}

func TestWorker_SyncFlushesAllMissions(t *testing.T) {
	ctx := context.Background()
	env := newWorkerEnv(t)

	env.createMission(t, "m1")
	env.createMission(t, "m2")

	failed := env.worker.Sync(ctx)
	assert.Zero(t, failed)
}

func TestWorker_FailingMissionDoesNotBlockOthers(t *testing.T) {
	ctx := context.Background()
	env := newWorkerEnv(t)

	bad := env.createMission(t, "failing mission")
	good := env.createMission(t, "healthy mission")

	// Fail only the bad mission's context document.
	env.fault.substr = bad.ID
	env.fault.armed.Store(true)

	failed := env.worker.Sync(ctx)
	assert.Equal(t, 1, failed)

	// The healthy mission's context is intact and loadable.
	mc, err := env.contexts.Get(ctx, good.ID)
	require.NoError(t, err)
	assert.Equal(t, good.ID, mc.MissionID)

	// Once the fault clears, a later tick succeeds for everyone.
	env.fault.armed.Store(false)
	assert.Zero(t, env.worker.Sync(ctx))
}

func TestWorker_SnapshotsOnlyDirtyContexts(t *testing.T) {
	ctx := context.Background()
	env := newWorkerEnv(t)
	m := env.createMission(t, "m1")

	// A clean context gains no snapshot across repeated ticks.
	require.Zero(t, env.worker.Sync(ctx))
	require.Zero(t, env.worker.Sync(ctx))
	got, err := env.registry.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Lifecycle.ContextSnapshots)
}

func TestWorker_StartStop(t *testing.T) {
	env := newWorkerEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env.worker.Start(ctx)

	done := make(chan struct{})
	go func() {
		env.worker.Stop()
		env.worker.Stop() // idempotent
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop in time")
	}
}
