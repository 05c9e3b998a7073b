// Package syncer runs the background loop that flushes dirty mission
// contexts to storage and appends periodic context snapshots.
package syncer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/opsdeck/missiond/internal/lifecycle"
	"github.com/opsdeck/missiond/internal/mission"
	"github.com/opsdeck/missiond/internal/missionctx"
	"github.com/opsdeck/missiond/pkg/panicerr"
)

// Worker periodically persists every active mission's context. A failing
// mission is logged and skipped; the others still sync on the same tick.
// After a tick with at least one error the worker backs off to the error
// interval until a clean tick.
type Worker struct {
	registry   *mission.Registry
	contexts   *missionctx.Store
	controller *lifecycle.Controller
	logger     *slog.Logger

	interval      time.Duration
	errorInterval time.Duration

	stop     chan struct{}
	stopOnce sync.Once
	wg       conc.WaitGroup
}

func NewWorker(
	registry *mission.Registry,
	contexts *missionctx.Store,
	controller *lifecycle.Controller,
	interval, errorInterval time.Duration,
	logger *slog.Logger,
) *Worker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if errorInterval <= 0 {
		errorInterval = 60 * time.Second
	}
	return &Worker{
		registry:      registry,
		contexts:      contexts,
		controller:    controller,
		logger:        logger,
		interval:      interval,
		errorInterval: errorInterval,
		stop:          make(chan struct{}),
	}
}

// Start launches the sync loop. It runs until Stop is called or ctx is
// cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Go(func() {
		loop := panicerr.SafeContext(func(ctx context.Context) error {
			w.run(ctx)
			return nil
		})
		if err := loop(ctx); err != nil {
			w.logger.Error("sync worker terminated", "error", err)
		}
	})
}

// Stop signals the loop to exit and waits for the in-flight tick. Safe to
// call more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context) {
	timer := time.NewTimer(w.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-timer.C:
		}

		next := w.interval
		if failed := w.Sync(ctx); failed > 0 {
			next = w.errorInterval
		}
		timer.Reset(next)
	}
}

// Sync flushes every active mission's context once and returns the number
// of missions that failed. Each mission syncs under its own lock so a slow
// or failing one never blocks the rest.
func (w *Worker) Sync(ctx context.Context) int {
	failed := 0
	for _, id := range w.registry.ActiveIDs() {
		if err := w.syncOne(ctx, id); err != nil {
			failed++
			w.logger.Error("context sync failed", "mission_id", id, "error", err)
		}
	}
	if failed > 0 {
		w.logger.Warn("sync tick finished with errors", "failed", failed)
	}
	return failed
}

func (w *Worker) syncOne(ctx context.Context, id string) error {
	if err := w.controller.SnapshotContext(ctx, id); err != nil {
		return err
	}
	return w.controller.Locks().Do(id, func() error {
		return w.contexts.Persist(ctx, id)
	})
}
