package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/opsdeck/missiond/internal/journal"
	"github.com/opsdeck/missiond/internal/loadout"
	"github.com/opsdeck/missiond/internal/mission"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	idColor     = color.New(color.FgYellow)
	dimColor    = color.New(color.Faint)
)

func statusColor(s mission.Status) *color.Color {
	switch s {
	case mission.StatusExecution:
		return color.New(color.FgGreen)
	case mission.StatusPaused:
		return color.New(color.FgYellow)
	case mission.StatusFailed, mission.StatusCancelled:
		return color.New(color.FgRed)
	case mission.StatusCompleted:
		return color.New(color.FgBlue)
	default:
		return color.New(color.FgWhite)
	}
}

func printMission(m *mission.Mission) {
	headerColor.Printf("%s", m.Name)
	fmt.Printf(" (%s)\n", idColor.Sprint(m.ID))
	fmt.Printf("  Status:   %s (%s)\n", statusColor(m.Status).Sprint(m.Status), m.CurrentStage)
	fmt.Printf("  Type:     %s\n", m.Type)
	fmt.Printf("  Priority: %s\n", m.Priority)
	if m.ToolLoadout != "" {
		fmt.Printf("  Loadout:  %s\n", m.ToolLoadout)
	}
	dimColor.Printf("  Modified %s by %s (v%d)\n",
		m.Metadata.LastModified.Format(time.RFC3339), m.Metadata.ModifiedBy, m.Metadata.Version)
}

func printMissionList(missions []*mission.Mission) {
	if len(missions) == 0 {
		fmt.Println("No missions found")
		return
	}
	for _, m := range missions {
		fmt.Printf("%s  %-12s %-10s %s\n",
			idColor.Sprint(m.ID),
			statusColor(m.Status).Sprint(m.Status),
			m.Priority,
			m.Name,
		)
	}
}

func printLoadouts(loadouts []*loadout.ToolLoadout) {
	if len(loadouts) == 0 {
		fmt.Println("No loadouts found")
		return
	}
	for _, l := range loadouts {
		fmt.Printf("%s  %s (%s, %d tools)\n",
			idColor.Sprint(l.ID), l.Name, l.Category, len(l.Tools))
	}
}

func printJournal(entries []*journal.Entry) {
	for _, e := range entries {
		level := e.Level
		c := dimColor
		switch level {
		case journal.LevelWarn:
			c = color.New(color.FgYellow)
		case journal.LevelError:
			c = color.New(color.FgRed)
		}
		fmt.Printf("%s %s [%s] %s\n",
			dimColor.Sprint(e.Timestamp.Format(time.RFC3339)),
			c.Sprint(level),
			e.Source,
			e.Message,
		)
	}
}
