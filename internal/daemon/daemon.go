// Package daemon assembles the process: storage, repositories, registries,
// the lifecycle controller, the sync worker and the HTTP server.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/opsdeck/missiond/internal/briefing"
	"github.com/opsdeck/missiond/internal/config"
	"github.com/opsdeck/missiond/internal/journal"
	"github.com/opsdeck/missiond/internal/lifecycle"
	"github.com/opsdeck/missiond/internal/loadout"
	loadoutrepo "github.com/opsdeck/missiond/internal/loadout/repositoryimpl"
	"github.com/opsdeck/missiond/internal/mission"
	missionrepo "github.com/opsdeck/missiond/internal/mission/repositoryimpl"
	"github.com/opsdeck/missiond/internal/missionctx"
	ctxrepo "github.com/opsdeck/missiond/internal/missionctx/repositoryimpl"
	"github.com/opsdeck/missiond/internal/server"
	"github.com/opsdeck/missiond/internal/syncer"
	"github.com/opsdeck/missiond/pkg/clog"
	"github.com/opsdeck/missiond/pkg/kmutex"
	"github.com/opsdeck/missiond/pkg/panicerr"
	"github.com/opsdeck/missiond/pkg/storage"
)

// Daemon is the long-running missiond process.
type Daemon struct {
	env    *config.Env
	logger *slog.Logger

	journal    *journal.Journal
	controller *lifecycle.Controller
	loadouts   *loadout.Registry
	worker     *syncer.Worker
	watcher    *loadout.Watcher
	httpServer *http.Server

	watcherCancel context.CancelFunc
}

// New loads configuration and wires every component. Nothing runs until
// Start.
func New(ctx context.Context) (*Daemon, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}

	logger := clog.New(os.Stderr, env.SlogLevel(), env.LogFormat)
	clog.SetDefault(logger)

	store, err := newStorage(ctx, env)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	loadouts := loadout.NewRegistry(loadoutrepo.NewYAMLRepository(store))
	if err := loadouts.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load tool loadouts: %w", err)
	}
	logger.Info("tool loadouts loaded", "count", loadouts.Len())

	jrnl, err := journal.New(store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to start journal: %w", err)
	}

	contexts := missionctx.NewStore(ctxrepo.NewYAMLRepository(store))
	registry := mission.NewRegistry(missionrepo.NewYAMLRepository(store), loadouts)
	if err := registry.LoadActive(ctx); err != nil {
		return nil, fmt.Errorf("failed to load active missions: %w", err)
	}
	logger.Info("active missions loaded", "count", len(registry.ActiveIDs()))

	controller := lifecycle.NewController(
		registry, contexts, loadouts, jrnl,
		briefing.NewGenerator(), kmutex.New(), logger,
	)

	worker := syncer.NewWorker(
		registry, contexts, controller,
		env.SyncInterval, env.SyncErrorInterval, logger,
	)

	d := &Daemon{
		env:        env,
		logger:     logger,
		journal:    jrnl,
		controller: controller,
		loadouts:   loadouts,
		worker:     worker,
	}

	if env.WatchLoadouts {
		watcher, err := loadout.NewWatcher(env.LoadoutDir, logger)
		if err != nil {
			logger.Warn("loadout watcher disabled", "dir", env.LoadoutDir, "error", err)
		} else {
			d.watcher = watcher
		}
	}

	srv := server.New(controller, loadouts, journal.NewReader(store))
	d.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", env.HTTPHost, env.HTTPPort),
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return d, nil
}

// Start launches the sync worker, the optional loadout watcher and the
// HTTP server, then blocks until ctx is cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	d.worker.Start(ctx)

	if d.watcher != nil {
		watchCtx, cancel := context.WithCancel(ctx)
		d.watcherCancel = cancel
		go func() {
			run := panicerr.SafeContext(d.watcher.Run)
			if err := run(watchCtx); err != nil {
				d.logger.Error("loadout watcher stopped", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		d.logger.Info("http server listening", "addr", d.httpServer.Addr)
		if err := d.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		// The worker and journal still need an orderly stop.
		return errors.Join(fmt.Errorf("http server failed: %w", err), d.shutdown())
	case <-ctx.Done():
		return d.shutdown()
	}
}

func (d *Daemon) shutdown() error {
	d.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var errs []error
	if err := d.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	if d.watcherCancel != nil {
		d.watcherCancel()
	}
	d.worker.Stop()

	// One last flush so a clean stop loses nothing.
	if failed := d.worker.Sync(shutdownCtx); failed > 0 {
		errs = append(errs, fmt.Errorf("final sync left %d missions unflushed", failed))
	}

	if err := d.journal.Close(); err != nil {
		errs = append(errs, fmt.Errorf("journal close: %w", err))
	}

	d.logger.Info("shutdown complete")
	return errors.Join(errs...)
}

func newStorage(ctx context.Context, env *config.Env) (storage.Storage, error) {
	switch env.Type {
	case "local", "":
		return storage.NewLocalStorage(env.BaseDir)
	case "s3":
		if env.S3Bucket == "" {
			return nil, fmt.Errorf("MISSIOND_S3_BUCKET is required for s3 storage")
		}
		return storage.NewS3Storage(ctx, env.S3Bucket, env.S3Prefix, env.S3Region)
	default:
		return nil, fmt.Errorf("unknown storage type %q", env.Type)
	}
}
