package lifecycle

import (
	"context"

	"github.com/opsdeck/missiond/internal/missionctx"
	"github.com/opsdeck/missiond/pkg/cerr"
)

// Briefing renders the briefing artifact for a mission, enriched with the
// resolved tool loadout when one is assigned. Unknown ids fail with a
// typed NotFound rather than an error-shaped string.
func (c *Controller) Briefing(ctx context.Context, id string) (string, error) {
	snap, err := c.buildSnapshot(ctx, id, false)
	if err != nil {
		return "", err
	}
	return c.gen.Generate(KindBriefing, snap), nil
}

// ExecutionPlan renders the execution plan view. With a phase id, the view
// narrows to that phase; an unknown phase id fails with NotFound.
func (c *Controller) ExecutionPlan(ctx context.Context, id, phaseID string) (string, error) {
	snap, err := c.buildSnapshot(ctx, id, true)
	if err != nil {
		return "", err
	}
	if phaseID != "" {
		var selected []*PhaseProgress
		for _, pp := range snap.Progress.Phases {
			if pp.PhaseID == phaseID {
				selected = append(selected, pp)
			}
		}
		if len(selected) == 0 {
			return "", cerr.NewError(cerr.NotFound, "phase not found", nil)
		}
		snap.Progress.Phases = selected
	}
	return c.gen.Generate(KindExecutionPlan, snap), nil
}

// MidMissionDebriefing renders the mid-mission debriefing view.
func (c *Controller) MidMissionDebriefing(ctx context.Context, id string) (string, error) {
	snap, err := c.buildSnapshot(ctx, id, true)
	if err != nil {
		return "", err
	}
	return c.gen.Generate(KindMidMissionDebriefing, snap), nil
}

// Rebriefing merges the supplied context patch, then renders the
// rebriefing view over the updated state.
func (c *Controller) Rebriefing(ctx context.Context, id string, patch *missionctx.Patch) (string, error) {
	if patch != nil {
		if _, err := c.UpdateContext(ctx, id, patch); err != nil {
			return "", err
		}
	}
	snap, err := c.buildSnapshot(ctx, id, true)
	if err != nil {
		return "", err
	}
	return c.gen.Generate(KindRebriefing, snap), nil
}

// StatusUpdate renders the status update view.
func (c *Controller) StatusUpdate(ctx context.Context, id string) (string, error) {
	snap, err := c.buildSnapshot(ctx, id, true)
	if err != nil {
		return "", err
	}
	return c.gen.Generate(KindStatusUpdate, snap), nil
}

// Debriefing renders the final debriefing for an archived mission.
func (c *Controller) Debriefing(ctx context.Context, id string) (string, error) {
	m, err := c.registry.GetArchived(ctx, id)
	if err != nil {
		return "", err
	}
	return c.gen.Generate(KindDebriefing, &Snapshot{
		Mission:  m,
		Progress: computeProgress(m),
	}), nil
}

// buildSnapshot assembles the read-only projection for the generator. The
// mission copy comes from the registry; the context copy from the store.
func (c *Controller) buildSnapshot(ctx context.Context, id string, withProgress bool) (*Snapshot, error) {
	m, err := c.registry.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{Mission: m}
	if m.ToolLoadout != "" {
		if l, err := c.loadouts.Get(m.ToolLoadout); err == nil {
			snap.Loadout = l
		}
	}
	if withProgress {
		snap.Progress = computeProgress(m)
	}
	if mc, err := c.contexts.Get(ctx, id); err == nil {
		snap.Context = mc
	} else if !cerr.IsCode(err, cerr.NotFound) {
		return nil, err
	}
	return snap, nil
}
