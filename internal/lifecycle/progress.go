package lifecycle

import "github.com/opsdeck/missiond/internal/mission"

// recentActivityLimit bounds the activity tail included in derived views.
const recentActivityLimit = 10

// PhaseProgress is the per-phase slice of a derived progress view.
type PhaseProgress struct {
	PhaseID        string
	Name           string
	Order          int
	Status         mission.WorkStatus
	TasksTotal     int
	TasksCompleted int
	Percent        float64
}

// Progress is the derived read-only view computed for execution plans,
// debriefings, rebriefings and status updates.
type Progress struct {
	OverallPercent  float64
	PhasesTotal     int
	PhasesCompleted int
	CurrentPhase    *PhaseProgress
	CurrentTask     string
	Phases          []*PhaseProgress
	ToolUsage       map[string]int
	RecentActivity  []*mission.ActivityEntry
}

// computeProgress derives the progress view from a mission record. Overall
// progress is completed phases over total phases; the current phase is the
// one IN_PROGRESS, else the first PENDING phase.
func computeProgress(m *mission.Mission) *Progress {
	p := &Progress{
		PhasesTotal: len(m.Phases),
		ToolUsage:   make(map[string]int),
	}

	for _, phase := range m.Phases {
		pp := &PhaseProgress{
			PhaseID:    phase.ID,
			Name:       phase.Name,
			Order:      phase.Order,
			Status:     phase.Status,
			TasksTotal: len(phase.Tasks),
			Percent:    phase.Progress,
		}
		for _, t := range phase.Tasks {
			if t.Status == mission.WorkCompleted {
				pp.TasksCompleted++
			}
			if t.Status == mission.WorkInProgress && p.CurrentTask == "" {
				p.CurrentTask = t.Name
			}
		}
		if phase.Status == mission.WorkCompleted {
			p.PhasesCompleted++
		}
		p.Phases = append(p.Phases, pp)
	}

	if p.PhasesTotal > 0 {
		p.OverallPercent = float64(p.PhasesCompleted) / float64(p.PhasesTotal) * 100
	}

	p.CurrentPhase = currentPhase(p.Phases)

	for _, u := range m.Lifecycle.ToolUsageLog {
		p.ToolUsage[u.Tool]++
	}

	activity := m.Lifecycle.ActivityLog
	if len(activity) > recentActivityLimit {
		activity = activity[len(activity)-recentActivityLimit:]
	}
	p.RecentActivity = activity

	return p
}

// currentPhase returns the IN_PROGRESS phase, falling back to the first
// PENDING phase.
func currentPhase(phases []*PhaseProgress) *PhaseProgress {
	for _, pp := range phases {
		if pp.Status == mission.WorkInProgress {
			return pp
		}
	}
	for _, pp := range phases {
		if pp.Status == mission.WorkPending {
			return pp
		}
	}
	return nil
}
