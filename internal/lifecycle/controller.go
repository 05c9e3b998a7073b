// Package lifecycle implements the mission status state machine and the
// caller-facing operations that orchestrate the registry, the context
// store, the journal channels and the briefing generator.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/opsdeck/missiond/internal/journal"
	"github.com/opsdeck/missiond/internal/loadout"
	"github.com/opsdeck/missiond/internal/mission"
	"github.com/opsdeck/missiond/internal/missionctx"
	"github.com/opsdeck/missiond/pkg/cerr"
	"github.com/opsdeck/missiond/pkg/kmutex"
)

const source = "lifecycle"

// Controller is the single mutation path for missions. Every mutating
// operation on a mission id runs under that mission's lock; operations on
// different missions proceed independently.
type Controller struct {
	registry *mission.Registry
	contexts *missionctx.Store
	loadouts *loadout.Registry
	journal  *journal.Journal
	gen      Generator
	locks    *kmutex.KMutex
	logger   *slog.Logger
}

func NewController(
	registry *mission.Registry,
	contexts *missionctx.Store,
	loadouts *loadout.Registry,
	jrnl *journal.Journal,
	gen Generator,
	locks *kmutex.KMutex,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		registry: registry,
		contexts: contexts,
		loadouts: loadouts,
		journal:  jrnl,
		gen:      gen,
		locks:    locks,
		logger:   logger,
	}
}

// Locks exposes the per-mission lock set, shared with the sync worker.
func (c *Controller) Locks() *kmutex.KMutex {
	return c.locks
}

// Create validates and registers a new mission together with its initial
// context.
func (c *Controller) Create(ctx context.Context, spec *mission.CreateSpec) (*mission.Mission, error) {
	m, err := c.registry.Create(ctx, spec)
	if err != nil {
		return nil, err
	}

	err = c.locks.Do(m.ID, func() error {
		_, err := c.contexts.Create(ctx, m.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.logActivity(ctx, journal.LevelInfo, "mission created", map[string]any{
		"mission_id": m.ID,
		"name":       m.Name,
		"type":       string(m.Type),
	})
	return m, nil
}

// Get returns a copy of an active mission.
func (c *Controller) Get(ctx context.Context, id string) (*mission.Mission, error) {
	return c.registry.Get(ctx, id)
}

// GetArchived returns an archived mission.
func (c *Controller) GetArchived(ctx context.Context, id string) (*mission.Mission, error) {
	return c.registry.GetArchived(ctx, id)
}

// ListActive returns all active missions.
func (c *Controller) ListActive(ctx context.Context) ([]*mission.Mission, error) {
	return c.registry.ListActive(ctx)
}

// ListArchived returns all archived missions.
func (c *Controller) ListArchived(ctx context.Context) ([]*mission.Mission, error) {
	return c.registry.ListArchived(ctx)
}

// GetContext returns a copy of the mission's live context.
func (c *Controller) GetContext(ctx context.Context, id string) (*missionctx.MissionContext, error) {
	return c.contexts.Get(ctx, id)
}

// UpdateStatus transitions the mission to newStatus, appending a status
// history entry. Transitions not in the state machine fail with
// FailedPrecondition and leave the mission unchanged. When a context patch
// is given it is merged and snapshotted atomically with the transition.
func (c *Controller) UpdateStatus(ctx context.Context, id string, newStatus mission.Status, stage mission.Stage, patch *missionctx.Patch, actor string) error {
	if actor == "" {
		actor = "system"
	}
	var from mission.Status

	err := c.locks.Do(id, func() error {
		var st *missionctx.Staged
		if err := c.registry.Mutate(ctx, id, func(m *mission.Mission) error {
			if !m.CanTransitionTo(newStatus) {
				return cerr.NewError(cerr.FailedPrecondition,
					fmt.Sprintf("invalid transition %s -> %s", m.Status, newStatus), nil)
			}
			if stage != "" && !mission.PlausibleStage(newStatus, stage) {
				c.logger.Warn("implausible stage for status",
					"mission_id", id, "status", string(newStatus), "stage", string(stage))
			}

			from = m.Status
			m.Lifecycle.StatusHistory = append(m.Lifecycle.StatusHistory, &mission.StatusChange{
				Timestamp: time.Now(),
				From:      m.Status,
				To:        newStatus,
				Stage:     stage,
				Actor:     actor,
			})
			if newStatus == mission.StatusPaused {
				m.PausedFrom = m.Status
			} else if m.Status == mission.StatusPaused {
				m.PausedFrom = ""
			}
			m.Status = newStatus
			if stage != "" {
				m.CurrentStage = stage
			}
			m.Touch(actor)

			if patch != nil {
				var err error
				if st, err = c.stageContext(ctx, id, m, patch); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return err
		}
		c.commitContext(ctx, id, st)
		return nil
	})
	if err != nil {
		return err
	}

	c.logActivity(ctx, journal.LevelInfo, "mission status changed", map[string]any{
		"mission_id": id,
		"from":       string(from),
		"to":         string(newStatus),
		"stage":      string(stage),
		"actor":      actor,
	})
	if patch != nil {
		c.logContextChange(ctx, id, "context merged on status transition")
	}
	return nil
}

// UpdateContext merges a patch into the mission's context outside of a
// status transition and appends the resulting snapshot.
func (c *Controller) UpdateContext(ctx context.Context, id string, patch *missionctx.Patch) (*missionctx.MissionContext, error) {
	var updated *missionctx.MissionContext
	err := c.locks.Do(id, func() error {
		var st *missionctx.Staged
		if err := c.registry.Mutate(ctx, id, func(m *mission.Mission) error {
			var err error
			st, err = c.stageContext(ctx, id, m, patch)
			return err
		}); err != nil {
			return err
		}
		updated = c.commitContext(ctx, id, st)
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.logContextChange(ctx, id, "context updated")
	return updated, nil
}

// AssignLoadout records a tool loadout on the mission and mirrors the
// assignment into the mission's context. An unknown mission or loadout id
// fails without touching either.
func (c *Controller) AssignLoadout(ctx context.Context, id, loadoutID string) error {
	err := c.locks.Do(id, func() error {
		if err := c.registry.AssignLoadout(ctx, id, loadoutID); err != nil {
			return err
		}
		var st *missionctx.Staged
		if err := c.registry.Mutate(ctx, id, func(m *mission.Mission) error {
			var err error
			st, err = c.stageContext(ctx, id, m, &missionctx.Patch{
				AssignedLoadout: loadoutID,
				ToolStates:      map[string]any{"assigned_loadout": loadoutID},
			})
			return err
		}); err != nil {
			return err
		}
		c.commitContext(ctx, id, st)
		return nil
	})
	if err != nil {
		return err
	}

	c.logActivity(ctx, journal.LevelInfo, "tool loadout assigned", map[string]any{
		"mission_id": id,
		"loadout_id": loadoutID,
	})
	return nil
}

// RecordToolUsage appends one tool invocation to the mission's own usage
// log and to the process-wide tool usage channel.
func (c *Controller) RecordToolUsage(ctx context.Context, id, tool, operation string, data map[string]any) error {
	err := c.locks.Do(id, func() error {
		return c.registry.Mutate(ctx, id, func(m *mission.Mission) error {
			m.Lifecycle.ToolUsageLog = append(m.Lifecycle.ToolUsageLog, &mission.ToolUsage{
				Timestamp: time.Now(),
				Tool:      tool,
				Operation: operation,
				Data:      data,
			})
			return nil
		})
	})
	if err != nil {
		return err
	}

	if c.journal != nil {
		if err := c.journal.ToolUsage(ctx, source, fmt.Sprintf("%s: %s", tool, operation), map[string]any{
			"mission_id": id,
			"tool":       tool,
			"operation":  operation,
		}); err != nil {
			c.logger.Error("failed to journal tool usage", "mission_id", id, "error", err)
		}
	}
	return nil
}

// AddLogEntry appends a free-form entry to the mission's activity log and
// the activity channel.
func (c *Controller) AddLogEntry(ctx context.Context, id string, level journal.Level, msg string, data map[string]any) error {
	err := c.locks.Do(id, func() error {
		return c.registry.Mutate(ctx, id, func(m *mission.Mission) error {
			m.Lifecycle.ActivityLog = append(m.Lifecycle.ActivityLog, &mission.ActivityEntry{
				Timestamp: time.Now(),
				Source:    source,
				Message:   msg,
				Data:      data,
			})
			return nil
		})
	})
	if err != nil {
		return err
	}

	merged := map[string]any{"mission_id": id}
	for k, v := range data {
		merged[k] = v
	}
	c.logActivity(ctx, level, msg, merged)
	return nil
}

// Complete moves the mission to COMPLETED and from the active set to the
// archive. Completion is only legal where the state machine permits it.
func (c *Controller) Complete(ctx context.Context, id string, completion map[string]any, actor string) (*mission.Mission, error) {
	if actor == "" {
		actor = "system"
	}
	var archived *mission.Mission

	err := c.locks.Do(id, func() error {
		m, err := c.registry.Get(ctx, id)
		if err != nil {
			return err
		}
		if !m.CanTransitionTo(mission.StatusCompleted) {
			return cerr.NewError(cerr.FailedPrecondition,
				fmt.Sprintf("invalid transition %s -> %s", m.Status, mission.StatusCompleted), nil)
		}

		// Final context snapshot travels with the archived record.
		snap, err := c.contexts.Snapshot(ctx, id)
		if err != nil {
			return err
		}
		if err := c.registry.Mutate(ctx, id, func(m *mission.Mission) error {
			m.Lifecycle.ContextSnapshots = append(m.Lifecycle.ContextSnapshots, snap)
			return nil
		}); err != nil {
			return err
		}

		archived, err = c.registry.Complete(ctx, id, completion, actor)
		if err != nil {
			return err
		}
		return c.contexts.Remove(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	c.logActivity(ctx, journal.LevelInfo, "mission completed", map[string]any{
		"mission_id": id,
		"actor":      actor,
	})
	return archived, nil
}

// SnapshotContext appends a snapshot of the mission's context to its
// history if the context changed since the last snapshot. Used by the
// background sync worker.
func (c *Controller) SnapshotContext(ctx context.Context, id string) error {
	return c.locks.Do(id, func() error {
		if !c.contexts.Dirty(id) {
			return nil
		}
		snap, err := c.contexts.Snapshot(ctx, id)
		if err != nil {
			return err
		}
		return c.registry.Mutate(ctx, id, func(m *mission.Mission) error {
			m.Lifecycle.ContextSnapshots = append(m.Lifecycle.ContextSnapshots, snap)
			return nil
		})
	})
}

// stageContext computes the patched context and appends its snapshot to
// the mission record being mutated. The live context is only touched by
// commitContext once the record is durable, so a failed mission write
// leaves the context exactly as it was. Caller holds the per-mission lock.
func (c *Controller) stageContext(ctx context.Context, id string, m *mission.Mission, patch *missionctx.Patch) (*missionctx.Staged, error) {
	st, err := c.contexts.Stage(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	m.Lifecycle.ContextSnapshots = append(m.Lifecycle.ContextSnapshots, st.Snapshot())
	return st, nil
}

// commitContext installs a staged context update. A failed document write
// is logged, not surfaced: the mission record already carries the
// snapshot and the sync worker re-persists the document on its next tick.
func (c *Controller) commitContext(ctx context.Context, id string, st *missionctx.Staged) *missionctx.MissionContext {
	if st == nil {
		return nil
	}
	mc, err := c.contexts.Commit(ctx, id, st)
	if err != nil {
		c.logger.Warn("context document write deferred to next sync",
			"mission_id", id, "error", err)
	}
	return mc
}

func (c *Controller) logActivity(ctx context.Context, level journal.Level, msg string, data map[string]any) {
	if c.journal == nil {
		return
	}
	if err := c.journal.Activity(ctx, level, source, msg, data); err != nil {
		c.logger.Error("failed to journal activity", "error", err)
	}
}

func (c *Controller) logContextChange(ctx context.Context, id, msg string) {
	if c.journal == nil {
		return
	}
	if err := c.journal.ContextChange(ctx, source, msg, map[string]any{"mission_id": id}); err != nil {
		c.logger.Error("failed to journal context change", "error", err)
	}
}
