package missionctx

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// MissionContext is the live working state for one active mission. There is
// exactly one per active mission. The three residual maps are open extension
// points; well-known keys used by the controller itself (assigned loadout,
// current task) are promoted to typed fields.
type MissionContext struct {
	ID              string         `yaml:"id" json:"id"`
	MissionID       string         `yaml:"mission_id" json:"mission_id"`
	CurrentPhase    string         `yaml:"current_phase" json:"current_phase"`
	CurrentTask     string         `yaml:"current_task" json:"current_task"`
	AssignedLoadout string         `yaml:"assigned_loadout" json:"assigned_loadout"`
	ExecutionState  map[string]any `yaml:"execution_state" json:"execution_state"`
	ToolStates      map[string]any `yaml:"tool_states" json:"tool_states"`
	DataContext     map[string]any `yaml:"data_context" json:"data_context"`
	UserContext     map[string]any `yaml:"user_context" json:"user_context"`
	SystemContext   map[string]any `yaml:"system_context" json:"system_context"`
	Timestamp       time.Time      `yaml:"timestamp" json:"timestamp"`
	Version         int            `yaml:"version" json:"version"`
}

// Patch is a partial update merged into a context. Maps merge shallowly per
// top-level key (last write wins per key, untouched keys survive). Empty
// string fields leave the current value in place.
type Patch struct {
	CurrentPhase    string         `json:"current_phase,omitempty"`
	CurrentTask     string         `json:"current_task,omitempty"`
	AssignedLoadout string         `json:"assigned_loadout,omitempty"`
	ExecutionState  map[string]any `json:"execution_state,omitempty"`
	ToolStates      map[string]any `json:"tool_states,omitempty"`
	DataContext     map[string]any `json:"data_context,omitempty"`
	UserContext     map[string]any `json:"user_context,omitempty"`
	SystemContext   map[string]any `json:"system_context,omitempty"`
}

// Snapshot is an immutable point-in-time copy of a context, appended to the
// owning mission's lifecycle history.
type Snapshot struct {
	SnapshotID      string         `yaml:"snapshot_id" json:"snapshot_id"`
	ContextID       string         `yaml:"context_id" json:"context_id"`
	MissionID       string         `yaml:"mission_id" json:"mission_id"`
	CurrentPhase    string         `yaml:"current_phase" json:"current_phase"`
	CurrentTask     string         `yaml:"current_task" json:"current_task"`
	AssignedLoadout string         `yaml:"assigned_loadout" json:"assigned_loadout"`
	ExecutionState  map[string]any `yaml:"execution_state" json:"execution_state"`
	ToolStates      map[string]any `yaml:"tool_states" json:"tool_states"`
	DataContext     map[string]any `yaml:"data_context" json:"data_context"`
	Timestamp       time.Time      `yaml:"timestamp" json:"timestamp"`
	Version         int            `yaml:"version" json:"version"`
}

func (c *MissionContext) apply(patch *Patch) {
	if patch == nil {
		return
	}
	if patch.CurrentPhase != "" {
		c.CurrentPhase = patch.CurrentPhase
	}
	if patch.CurrentTask != "" {
		c.CurrentTask = patch.CurrentTask
	}
	if patch.AssignedLoadout != "" {
		c.AssignedLoadout = patch.AssignedLoadout
	}
	c.ExecutionState = mergeTopLevel(c.ExecutionState, patch.ExecutionState)
	c.ToolStates = mergeTopLevel(c.ToolStates, patch.ToolStates)
	c.DataContext = mergeTopLevel(c.DataContext, patch.DataContext)
	c.UserContext = mergeTopLevel(c.UserContext, patch.UserContext)
	c.SystemContext = mergeTopLevel(c.SystemContext, patch.SystemContext)
}

// mergeTopLevel overwrites per top-level key only; nested structures are
// replaced wholesale, not merged.
func mergeTopLevel(dst, src map[string]any) map[string]any {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// snapshot builds an immutable copy of the context.
func (c *MissionContext) snapshot() *Snapshot {
	return &Snapshot{
		SnapshotID:      ulid.Make().String(),
		ContextID:       c.ID,
		MissionID:       c.MissionID,
		CurrentPhase:    c.CurrentPhase,
		CurrentTask:     c.CurrentTask,
		AssignedLoadout: c.AssignedLoadout,
		ExecutionState:  copyMap(c.ExecutionState),
		ToolStates:      copyMap(c.ToolStates),
		DataContext:     copyMap(c.DataContext),
		Timestamp:       c.Timestamp,
		Version:         c.Version,
	}
}

func (c *MissionContext) clone() *MissionContext {
	cp := *c
	cp.ExecutionState = copyMap(c.ExecutionState)
	cp.ToolStates = copyMap(c.ToolStates)
	cp.DataContext = copyMap(c.DataContext)
	cp.UserContext = copyMap(c.UserContext)
	cp.SystemContext = copyMap(c.SystemContext)
	return &cp
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
