// Package mission defines the canonical mission record and the registry
// that owns the active set.
package mission

import (
	"time"

	"github.com/opsdeck/missiond/internal/missionctx"
)

// Type classifies a mission.
type Type string

const (
	TypeDevelopment   Type = "DEVELOPMENT"
	TypeAudit         Type = "AUDIT"
	TypeTesting       Type = "TESTING"
	TypeDeployment    Type = "DEPLOYMENT"
	TypeMaintenance   Type = "MAINTENANCE"
	TypeResearch      Type = "RESEARCH"
	TypeDocumentation Type = "DOCUMENTATION"
	TypeSecurity      Type = "SECURITY"
	TypeIntegration   Type = "INTEGRATION"
)

// Valid reports whether t is a known mission type.
func (t Type) Valid() bool {
	_, ok := typePrefixes[t]
	return ok
}

// Priority orders missions by urgency.
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
	PriorityOptional Priority = "OPTIONAL"
)

// Stage is an informational substate of the mission lifecycle. Stages are
// not state-machine-validated; implausible stage/status pairs are logged
// but accepted.
type Stage string

const (
	StageInitialization Stage = "INITIALIZATION"
	StageAnalysis       Stage = "ANALYSIS"
	StageImplementation Stage = "IMPLEMENTATION"
	StageTesting        Stage = "TESTING"
	StageValidation     Stage = "VALIDATION"
	StageDeployment     Stage = "DEPLOYMENT"
	StageMonitoring     Stage = "MONITORING"
	StageArchival       Stage = "ARCHIVAL"
)

// WorkStatus tracks objectives, phases and tasks.
type WorkStatus string

const (
	WorkPending    WorkStatus = "PENDING"
	WorkInProgress WorkStatus = "IN_PROGRESS"
	WorkCompleted  WorkStatus = "COMPLETED"
	WorkBlocked    WorkStatus = "BLOCKED"
	WorkSkipped    WorkStatus = "SKIPPED"
	WorkFailed     WorkStatus = "FAILED"
)

// Objective is a stated outcome the mission works toward.
type Objective struct {
	ID              string     `yaml:"id" json:"id"`
	Name            string     `yaml:"name" json:"name"`
	Description     string     `yaml:"description" json:"description"`
	SuccessCriteria []string   `yaml:"success_criteria" json:"success_criteria"`
	Status          WorkStatus `yaml:"status" json:"status"`
	Completion      float64    `yaml:"completion" json:"completion"`
	Dependencies    []string   `yaml:"dependencies" json:"dependencies"`
	Blockers        []string   `yaml:"blockers" json:"blockers"`
}

// Task is the smallest unit of tracked work, owned by a phase.
type Task struct {
	ID                string     `yaml:"id" json:"id"`
	Name              string     `yaml:"name" json:"name"`
	Description       string     `yaml:"description" json:"description"`
	Executor          string     `yaml:"executor" json:"executor"`
	Status            WorkStatus `yaml:"status" json:"status"`
	EstimatedHours    float64    `yaml:"estimated_hours" json:"estimated_hours"`
	ActualHours       float64    `yaml:"actual_hours" json:"actual_hours"`
	Outputs           []string   `yaml:"outputs" json:"outputs"`
	ToolLoadout       string     `yaml:"tool_loadout" json:"tool_loadout"`
	Dependencies      []string   `yaml:"dependencies" json:"dependencies"`
	Blockers          []string   `yaml:"blockers" json:"blockers"`
	ValidationResults []string   `yaml:"validation_results" json:"validation_results"`
}

// Phase is an ordered stage of the execution plan, composed of tasks.
type Phase struct {
	ID                 string        `yaml:"id" json:"id"`
	Name               string        `yaml:"name" json:"name"`
	Order              int           `yaml:"order" json:"order"`
	EstimatedDuration  time.Duration `yaml:"estimated_duration" json:"estimated_duration"`
	DependsOn          []string      `yaml:"depends_on" json:"depends_on"`
	Status             WorkStatus    `yaml:"status" json:"status"`
	Progress           float64       `yaml:"progress" json:"progress"`
	ToolRequirements   []string      `yaml:"tool_requirements" json:"tool_requirements"`
	ValidationCriteria []string      `yaml:"validation_criteria" json:"validation_criteria"`
	Tasks              []*Task       `yaml:"tasks" json:"tasks"`
}

// Risk is one entry in the mission's risk register.
type Risk struct {
	ID          string `yaml:"id" json:"id"`
	Description string `yaml:"description" json:"description"`
	Severity    string `yaml:"severity" json:"severity"`
	Likelihood  string `yaml:"likelihood" json:"likelihood"`
	Mitigation  string `yaml:"mitigation" json:"mitigation"`
	Status      string `yaml:"status" json:"status"`
}

// Metadata is the bookkeeping block stamped on every mission.
type Metadata struct {
	CreatedAt    time.Time `yaml:"created_at" json:"created_at"`
	CreatedBy    string    `yaml:"created_by" json:"created_by"`
	LastModified time.Time `yaml:"last_modified" json:"last_modified"`
	ModifiedBy   string    `yaml:"modified_by" json:"modified_by"`
	Version      int       `yaml:"version" json:"version"`
}

// StatusChange records one status transition.
type StatusChange struct {
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	From      Status    `yaml:"from" json:"from"`
	To        Status    `yaml:"to" json:"to"`
	Stage     Stage     `yaml:"stage,omitempty" json:"stage,omitempty"`
	Actor     string    `yaml:"actor" json:"actor"`
}

// PhaseChange records one phase status transition.
type PhaseChange struct {
	Timestamp time.Time  `yaml:"timestamp" json:"timestamp"`
	PhaseID   string     `yaml:"phase_id" json:"phase_id"`
	From      WorkStatus `yaml:"from" json:"from"`
	To        WorkStatus `yaml:"to" json:"to"`
	Actor     string     `yaml:"actor" json:"actor"`
}

// ToolUsage records one tool invocation tied to the mission.
type ToolUsage struct {
	Timestamp time.Time      `yaml:"timestamp" json:"timestamp"`
	Tool      string         `yaml:"tool" json:"tool"`
	Operation string         `yaml:"operation" json:"operation"`
	Data      map[string]any `yaml:"data,omitempty" json:"data,omitempty"`
}

// ActivityEntry records one lifecycle event in the mission's own log.
type ActivityEntry struct {
	Timestamp time.Time      `yaml:"timestamp" json:"timestamp"`
	Source    string         `yaml:"source" json:"source"`
	Message   string         `yaml:"message" json:"message"`
	Data      map[string]any `yaml:"data,omitempty" json:"data,omitempty"`
}

// Lifecycle holds the mission's append-only history lists.
type Lifecycle struct {
	StatusHistory    []*StatusChange        `yaml:"status_history" json:"status_history"`
	PhaseHistory     []*PhaseChange         `yaml:"phase_history" json:"phase_history"`
	ContextSnapshots []*missionctx.Snapshot `yaml:"context_snapshots" json:"context_snapshots"`
	ToolUsageLog     []*ToolUsage           `yaml:"tool_usage_log" json:"tool_usage_log"`
	ActivityLog      []*ActivityEntry       `yaml:"activity_log" json:"activity_log"`
}

// Mission is a tracked, multi-phase unit of work. Mutations flow through
// the lifecycle controller only; the record itself carries no locking.
type Mission struct {
	ID           string         `yaml:"id" json:"id"`
	Name         string         `yaml:"name" json:"name"`
	Description  string         `yaml:"description" json:"description"`
	Type         Type           `yaml:"type" json:"type"`
	Priority     Priority       `yaml:"priority" json:"priority"`
	Status       Status         `yaml:"status" json:"status"`
	CurrentStage Stage          `yaml:"current_stage" json:"current_stage"`
	Objectives   []*Objective   `yaml:"objectives" json:"objectives"`
	Phases       []*Phase       `yaml:"phases" json:"phases"`
	ToolLoadout  string         `yaml:"tool_loadout,omitempty" json:"tool_loadout,omitempty"`
	Requirements []string       `yaml:"requirements" json:"requirements"`
	RiskRegister []*Risk        `yaml:"risk_register" json:"risk_register"`
	Deliverables map[string]any `yaml:"deliverables" json:"deliverables"`
	Metadata     Metadata       `yaml:"metadata" json:"metadata"`
	Lifecycle    Lifecycle      `yaml:"lifecycle" json:"lifecycle"`
	// PausedFrom remembers the status to resume to after PAUSED.
	PausedFrom Status `yaml:"paused_from,omitempty" json:"paused_from,omitempty"`
}

// Touch stamps a modification on the metadata block.
func (m *Mission) Touch(actor string) {
	m.Metadata.LastModified = time.Now()
	m.Metadata.ModifiedBy = actor
	m.Metadata.Version++
}
