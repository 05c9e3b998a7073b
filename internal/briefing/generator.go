// Package briefing renders mission snapshots into the text artifacts the
// lifecycle produces: briefings, execution plans, debriefings, rebriefings
// and status updates. Rendering is pure: it reads the snapshot, writes a
// string and touches nothing else.
package briefing

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/opsdeck/missiond/internal/lifecycle"
)

// Generator is the default lifecycle.Generator, backed by text/template.
// Missing snapshot fields render as empty sections; a template failure
// degrades to a minimal header instead of an error or a panic.
type Generator struct {
	templates map[lifecycle.TemplateKind]*template.Template
}

func NewGenerator() *Generator {
	g := &Generator{templates: make(map[lifecycle.TemplateKind]*template.Template)}
	for kind, text := range templateTexts {
		g.templates[kind] = template.Must(template.New(string(kind)).Funcs(funcs).Parse(text))
	}
	return g
}

// Generate renders the artifact for kind. Unknown kinds and nil snapshots
// render as empty text.
func (g *Generator) Generate(kind lifecycle.TemplateKind, snap *lifecycle.Snapshot) string {
	if snap == nil || snap.Mission == nil {
		return ""
	}
	tmpl, ok := g.templates[kind]
	if !ok {
		return ""
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, snap); err != nil {
		// Data-dependent failure; keep the caller moving with a header.
		return fmt.Sprintf("# %s (%s)\n", snap.Mission.Name, snap.Mission.ID)
	}
	return b.String()
}

var funcs = template.FuncMap{
	"ts": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339)
	},
	"pct": func(v float64) string {
		return fmt.Sprintf("%.0f%%", v)
	},
	"join": strings.Join,
}

var templateTexts = map[lifecycle.TemplateKind]string{
	lifecycle.KindBriefing: `# Mission Briefing: {{ .Mission.Name }}

- ID: {{ .Mission.ID }}
- Type: {{ .Mission.Type }}
- Priority: {{ .Mission.Priority }}
- Status: {{ .Mission.Status }} ({{ .Mission.CurrentStage }})

## Description
{{ .Mission.Description }}

## Objectives
{{ range .Mission.Objectives }}- [{{ .Status }}] {{ .Name }}: {{ .Description }}
{{ else }}(none)
{{ end }}
## Requirements
{{ range .Mission.Requirements }}- {{ . }}
{{ else }}(none)
{{ end }}
## Risk Register
{{ range .Mission.RiskRegister }}- [{{ .Severity }}/{{ .Likelihood }}] {{ .Description }}{{ with .Mitigation }} (mitigation: {{ . }}){{ end }}
{{ else }}(none)
{{ end }}
{{- with .Loadout }}
## Tool Loadout: {{ .Name }} ({{ .ID }})
- Category: {{ .Category }}
- Access: {{ .AccessLevel }} / {{ .Scope }}
- Capabilities: {{ join .Capabilities ", " }}
{{ range .Tools }}- {{ .Name }} {{ .Version }}: {{ .Description }}
{{ end }}
{{- end }}
{{- with .Context }}
## Current Context
- Phase: {{ .CurrentPhase }}
- Task: {{ .CurrentTask }}
- Updated: {{ ts .Timestamp }} (v{{ .Version }})
{{- end }}
`,

	lifecycle.KindExecutionPlan: `# Execution Plan: {{ .Mission.Name }}

- ID: {{ .Mission.ID }}
- Status: {{ .Mission.Status }} ({{ .Mission.CurrentStage }})
{{- with .Progress }}
- Overall progress: {{ pct .OverallPercent }} ({{ .PhasesCompleted }}/{{ .PhasesTotal }} phases)
{{- with .CurrentPhase }}
- Current phase: {{ .Name }}
{{- end }}
{{- with .CurrentTask }}
- Current task: {{ . }}
{{- end }}

## Phases
{{ range .Phases }}### {{ .Order }}. {{ .Name }} [{{ .Status }}]
- Tasks: {{ .TasksCompleted }}/{{ .TasksTotal }} completed ({{ pct .Percent }})
{{ end }}
{{- end }}
`,

	lifecycle.KindMidMissionDebriefing: `# Mid-Mission Debriefing: {{ .Mission.Name }}

- ID: {{ .Mission.ID }}
- Status: {{ .Mission.Status }} ({{ .Mission.CurrentStage }})
{{- with .Progress }}
- Overall progress: {{ pct .OverallPercent }}

## Tool Usage
{{ range $tool, $count := .ToolUsage }}- {{ $tool }}: {{ $count }}
{{ else }}(none)
{{ end }}
## Recent Activity
{{ range .RecentActivity }}- {{ ts .Timestamp }} [{{ .Source }}] {{ .Message }}
{{ else }}(none)
{{ end }}
{{- end }}
## Status History
{{ range .Mission.Lifecycle.StatusHistory }}- {{ ts .Timestamp }} {{ .From }} -> {{ .To }} ({{ .Actor }})
{{ else }}(none)
{{ end }}`,

	lifecycle.KindRebriefing: `# Mission Rebriefing: {{ .Mission.Name }}

- ID: {{ .Mission.ID }}
- Status: {{ .Mission.Status }} ({{ .Mission.CurrentStage }})

## Updated Objectives
{{ range .Mission.Objectives }}- [{{ .Status }}] {{ .Name }} ({{ pct .Completion }})
{{ else }}(none)
{{ end }}
{{- with .Progress }}
## Progress
- Overall: {{ pct .OverallPercent }} ({{ .PhasesCompleted }}/{{ .PhasesTotal }} phases)
{{- with .CurrentTask }}
- Current task: {{ . }}
{{- end }}
{{- end }}
{{- with .Context }}

## Context
- Phase: {{ .CurrentPhase }}
- Task: {{ .CurrentTask }}
- Loadout: {{ .AssignedLoadout }}
- Updated: {{ ts .Timestamp }} (v{{ .Version }})
{{- end }}
`,

	lifecycle.KindStatusUpdate: `# Status Update: {{ .Mission.Name }}

- ID: {{ .Mission.ID }}
- Status: {{ .Mission.Status }} ({{ .Mission.CurrentStage }})
- Priority: {{ .Mission.Priority }}
- Last modified: {{ ts .Mission.Metadata.LastModified }} by {{ .Mission.Metadata.ModifiedBy }}
{{- with .Progress }}
- Overall progress: {{ pct .OverallPercent }}
{{- with .CurrentPhase }}
- Current phase: {{ .Name }} [{{ .Status }}]
{{- end }}
{{- with .CurrentTask }}
- Current task: {{ . }}
{{- end }}
{{- end }}
`,

	lifecycle.KindDebriefing: `# Mission Debriefing: {{ .Mission.Name }}

- ID: {{ .Mission.ID }}
- Type: {{ .Mission.Type }}
- Final status: {{ .Mission.Status }}
- Created: {{ ts .Mission.Metadata.CreatedAt }} by {{ .Mission.Metadata.CreatedBy }}
- Closed: {{ ts .Mission.Metadata.LastModified }} by {{ .Mission.Metadata.ModifiedBy }}

## Objectives
{{ range .Mission.Objectives }}- [{{ .Status }}] {{ .Name }} ({{ pct .Completion }})
{{ else }}(none)
{{ end }}
## Deliverables
{{ range $k, $v := .Mission.Deliverables }}- {{ $k }}: {{ $v }}
{{ else }}(none)
{{ end }}
{{- with .Progress }}
## Tool Usage
{{ range $tool, $count := .ToolUsage }}- {{ $tool }}: {{ $count }}
{{ else }}(none)
{{ end }}
{{- end }}
## Status History
{{ range .Mission.Lifecycle.StatusHistory }}- {{ ts .Timestamp }} {{ .From }} -> {{ .To }} ({{ .Actor }})
{{ else }}(none)
{{ end }}`,
}
