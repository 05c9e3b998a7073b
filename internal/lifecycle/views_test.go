package lifecycle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/missiond/internal/mission"
	"github.com/opsdeck/missiond/internal/missionctx"
	"github.com/opsdeck/missiond/pkg/cerr"
)

func TestBriefing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	m := createMission(t, env)

	text, err := env.controller.Briefing(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "briefing:"+m.ID, text)
}

func TestBriefing_UnknownMission(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.controller.Briefing(context.Background(), "aud-2026-deadbeef")
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestExecutionPlan_PhaseFilter(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	m := createMission(t, env)

	text, err := env.controller.ExecutionPlan(ctx, m.ID, "phase-1")
	require.NoError(t, err)
	assert.NotEmpty(t, text)

	_, err = env.controller.ExecutionPlan(ctx, m.ID, "phase-99")
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestRebriefing_MergesPatchFirst(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	m := createMission(t, env)

	_, err := env.controller.Rebriefing(ctx, m.ID, &missionctx.Patch{CurrentTask: "re-scope"})
	require.NoError(t, err)

	mc, err := env.controller.GetContext(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "re-scope", mc.CurrentTask)
}

func TestDebriefing_RequiresArchivedMission(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	m := createMission(t, env)

	// Active missions have no final debriefing yet.
	_, err := env.controller.Debriefing(ctx, m.ID)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))

	advanceTo(t, env, m.ID, mission.StatusBriefing, mission.StatusExecution, mission.StatusDebriefing)
	_, err = env.controller.Complete(ctx, m.ID, nil, "test")
	require.NoError(t, err)

	text, err := env.controller.Debriefing(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "debriefing:"+m.ID, text)
}

func TestStatusUpdate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	m := createMission(t, env)

	text, err := env.controller.StatusUpdate(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "statusUpdate:"+m.ID, text)
}

func TestComputeProgress(t *testing.T) {
	m := &mission.Mission{
		Phases: []*mission.Phase{
			{ID: "p1", Name: "Analysis", Order: 1, Status: mission.WorkCompleted, Tasks: []*mission.Task{
				{Name: "a", Status: mission.WorkCompleted},
			}},
			{ID: "p2", Name: "Implementation", Order: 2, Status: mission.WorkInProgress, Tasks: []*mission.Task{
				{Name: "b", Status: mission.WorkCompleted},
				{Name: "c", Status: mission.WorkInProgress},
			}},
			{ID: "p3", Name: "Validation", Order: 3, Status: mission.WorkPending},
		},
	}

	p := computeProgress(m)
	assert.InDelta(t, 100.0/3, p.OverallPercent, 0.01)
	assert.Equal(t, 3, p.PhasesTotal)
	assert.Equal(t, 1, p.PhasesCompleted)
	require.NotNil(t, p.CurrentPhase)
	assert.Equal(t, "p2", p.CurrentPhase.PhaseID)
	assert.Equal(t, "c", p.CurrentTask)
	assert.Equal(t, 1, p.Phases[1].TasksCompleted)
}

func TestComputeProgress_NoPhases(t *testing.T) {
	p := computeProgress(&mission.Mission{})
	assert.Zero(t, p.OverallPercent)
	assert.Nil(t, p.CurrentPhase)
	assert.Empty(t, p.CurrentTask)
}
