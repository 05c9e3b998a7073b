package mission

// Status is the lifecycle state of a mission. Transitions are validated
// centrally by CanTransitionTo; nothing else in the system changes a
// mission's status.
type Status string

const (
	StatusPlanning   Status = "PLANNING"
	StatusBriefing   Status = "BRIEFING"
	StatusExecution  Status = "EXECUTION"
	StatusRebriefing Status = "REBRIEFING"
	StatusDebriefing Status = "DEBRIEFING"
	StatusCompleted  Status = "COMPLETED"
	StatusPaused     Status = "PAUSED"
	StatusCancelled  Status = "CANCELLED"
	StatusFailed     Status = "FAILED"
)

var statusNames = map[Status]bool{
	StatusPlanning:   true,
	StatusBriefing:   true,
	StatusExecution:  true,
	StatusRebriefing: true,
	StatusDebriefing: true,
	StatusCompleted:  true,
	StatusPaused:     true,
	StatusCancelled:  true,
	StatusFailed:     true,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return statusNames[s]
}

// IsTerminal reports whether s permits no further transitions.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusFailed:
		return true
	default:
		return false
	}
}

// transitions is the forward path of the state machine. PAUSED, CANCELLED
// and FAILED are reachable from every non-terminal state and are handled in
// CanTransitionTo directly; PAUSED resumes only to the status it was
// entered from.
var transitions = map[Status][]Status{
	StatusPlanning:   {StatusBriefing},
	StatusBriefing:   {StatusExecution},
	StatusExecution:  {StatusDebriefing, StatusRebriefing},
	StatusRebriefing: {StatusExecution},
	StatusDebriefing: {StatusCompleted},
}

// CanTransitionTo validates a transition from the mission's current status.
// The receiver is the mission rather than the status because resuming from
// PAUSED depends on the recorded prior status.
func (m *Mission) CanTransitionTo(target Status) bool {
	current := m.Status
	if current.IsTerminal() || !target.Valid() {
		return false
	}
	if current == StatusPaused {
		return target == m.PausedFrom || target == StatusCancelled || target == StatusFailed
	}
	switch target {
	case StatusPaused, StatusCancelled, StatusFailed:
		return true
	}
	for _, next := range transitions[current] {
		if next == target {
			return true
		}
	}
	return false
}

// stagePlausibility lists the stages normally seen in each status. Pairs
// outside the table are accepted but logged by the controller.
var stagePlausibility = map[Status][]Stage{
	StatusPlanning:   {StageInitialization, StageAnalysis},
	StatusBriefing:   {StageInitialization, StageAnalysis},
	StatusExecution:  {StageAnalysis, StageImplementation, StageTesting, StageValidation, StageDeployment, StageMonitoring},
	StatusRebriefing: {StageAnalysis, StageImplementation, StageTesting, StageValidation, StageDeployment, StageMonitoring},
	StatusDebriefing: {StageValidation, StageMonitoring, StageArchival},
	StatusCompleted:  {StageArchival},
}

// PlausibleStage reports whether the stage is one normally seen while in
// the given status.
func PlausibleStage(status Status, stage Stage) bool {
	allowed, ok := stagePlausibility[status]
	if !ok {
		return true
	}
	for _, s := range allowed {
		if s == stage {
			return true
		}
	}
	return false
}
