package lifecycle

import (
	"github.com/opsdeck/missiond/internal/loadout"
	"github.com/opsdeck/missiond/internal/mission"
	"github.com/opsdeck/missiond/internal/missionctx"
)

// TemplateKind selects the briefing artifact to render.
type TemplateKind string

const (
	KindBriefing             TemplateKind = "briefing"
	KindExecutionPlan        TemplateKind = "executionPlan"
	KindMidMissionDebriefing TemplateKind = "midMissionDebriefing"
	KindRebriefing           TemplateKind = "rebriefing"
	KindStatusUpdate         TemplateKind = "statusUpdate"
	KindDebriefing           TemplateKind = "debriefing"
)

// Snapshot is the read-only projection handed to the briefing generator.
// Loadout, Progress and Context are optional; generators must render
// missing fields as empty text.
type Snapshot struct {
	Mission  *mission.Mission
	Loadout  *loadout.ToolLoadout
	Progress *Progress
	Context  *missionctx.MissionContext
}

// Generator renders a mission snapshot into human-readable text. It is an
// external collaborator: implementations must be pure (no side effects on
// mission state), tolerate missing snapshot fields and never panic.
type Generator interface {
	Generate(kind TemplateKind, snap *Snapshot) string
}
