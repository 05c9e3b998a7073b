package mission

import "github.com/opsdeck/missiond/internal/missionctx"

// Clone returns a deep copy of the mission. The registry hands out clones
// so that readers never observe a record mid-mutation.
func (m *Mission) Clone() *Mission {
	if m == nil {
		return nil
	}
	cp := *m
	cp.Objectives = cloneObjectives(m.Objectives)
	cp.Phases = clonePhases(m.Phases)
	cp.Requirements = cloneStrings(m.Requirements)
	cp.RiskRegister = cloneRisks(m.RiskRegister)
	cp.Deliverables = cloneAnyMap(m.Deliverables)
	cp.Lifecycle = Lifecycle{
		StatusHistory:    cloneStatusHistory(m.Lifecycle.StatusHistory),
		PhaseHistory:     clonePhaseHistory(m.Lifecycle.PhaseHistory),
		ContextSnapshots: cloneSnapshots(m.Lifecycle.ContextSnapshots),
		ToolUsageLog:     cloneToolUsage(m.Lifecycle.ToolUsageLog),
		ActivityLog:      cloneActivity(m.Lifecycle.ActivityLog),
	}
	return &cp
}

func cloneObjectives(src []*Objective) []*Objective {
	if src == nil {
		return nil
	}
	out := make([]*Objective, len(src))
	for i, o := range src {
		c := *o
		c.SuccessCriteria = cloneStrings(o.SuccessCriteria)
		c.Dependencies = cloneStrings(o.Dependencies)
		c.Blockers = cloneStrings(o.Blockers)
		out[i] = &c
	}
	return out
}

func clonePhases(src []*Phase) []*Phase {
	if src == nil {
		return nil
	}
	out := make([]*Phase, len(src))
	for i, p := range src {
		c := *p
		c.DependsOn = cloneStrings(p.DependsOn)
		c.ToolRequirements = cloneStrings(p.ToolRequirements)
		c.ValidationCriteria = cloneStrings(p.ValidationCriteria)
		c.Tasks = cloneTasks(p.Tasks)
		out[i] = &c
	}
	return out
}

func cloneTasks(src []*Task) []*Task {
	if src == nil {
		return nil
	}
	out := make([]*Task, len(src))
	for i, t := range src {
		c := *t
		c.Outputs = cloneStrings(t.Outputs)
		c.Dependencies = cloneStrings(t.Dependencies)
		c.Blockers = cloneStrings(t.Blockers)
		c.ValidationResults = cloneStrings(t.ValidationResults)
		out[i] = &c
	}
	return out
}

func cloneRisks(src []*Risk) []*Risk {
	if src == nil {
		return nil
	}
	out := make([]*Risk, len(src))
	for i, r := range src {
		c := *r
		out[i] = &c
	}
	return out
}

func cloneStatusHistory(src []*StatusChange) []*StatusChange {
	if src == nil {
		return nil
	}
	out := make([]*StatusChange, len(src))
	for i, h := range src {
		c := *h
		out[i] = &c
	}
	return out
}

func clonePhaseHistory(src []*PhaseChange) []*PhaseChange {
	if src == nil {
		return nil
	}
	out := make([]*PhaseChange, len(src))
	for i, h := range src {
		c := *h
		out[i] = &c
	}
	return out
}

func cloneSnapshots(src []*missionctx.Snapshot) []*missionctx.Snapshot {
	if src == nil {
		return nil
	}
	// Snapshots are immutable once appended; sharing them is safe.
	out := make([]*missionctx.Snapshot, len(src))
	copy(out, src)
	return out
}

func cloneToolUsage(src []*ToolUsage) []*ToolUsage {
	if src == nil {
		return nil
	}
	out := make([]*ToolUsage, len(src))
	for i, u := range src {
		c := *u
		c.Data = cloneAnyMap(u.Data)
		out[i] = &c
	}
	return out
}

func cloneActivity(src []*ActivityEntry) []*ActivityEntry {
	if src == nil {
		return nil
	}
	out := make([]*ActivityEntry, len(src))
	for i, e := range src {
		c := *e
		c.Data = cloneAnyMap(e.Data)
		out[i] = &c
	}
	return out
}

func cloneStrings(src []string) []string {
	if src == nil {
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

func cloneAnyMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
