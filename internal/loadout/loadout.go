// Package loadout defines tool loadouts: named, versioned capability
// bundles assignable to missions. Definitions are loaded once at startup
// and are read-only at runtime; picking up changed definitions requires an
// explicit reload.
package loadout

import "time"

// Category classifies the kind of executor a loadout's tools belong to.
type Category string

const (
	CategoryEngineering   Category = "ENGINEERING"
	CategoryAnalysis      Category = "ANALYSIS"
	CategoryOperations    Category = "OPERATIONS"
	CategoryResearch      Category = "RESEARCH"
	CategoryCommunication Category = "COMMUNICATION"
)

// ToolDescriptor describes one tool inside a loadout.
type ToolDescriptor struct {
	Name        string `yaml:"name" json:"name"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description" json:"description"`
}

// ToolLoadout is a named, versioned capability bundle. Missions reference
// loadouts by id only and never mutate them.
type ToolLoadout struct {
	ID                 string            `yaml:"id" json:"id"`
	Name               string            `yaml:"name" json:"name"`
	Version            string            `yaml:"version" json:"version"`
	Description        string            `yaml:"description" json:"description"`
	Category           Category          `yaml:"category" json:"category"`
	Tools              []ToolDescriptor  `yaml:"tools" json:"tools"`
	Capabilities       []string          `yaml:"capabilities" json:"capabilities"`
	AccessLevel        string            `yaml:"access_level" json:"access_level"`
	Scope              string            `yaml:"scope" json:"scope"`
	Configuration      map[string]string `yaml:"configuration" json:"configuration"`
	Dependencies       []string          `yaml:"dependencies" json:"dependencies"`
	EstimatedSetupTime time.Duration     `yaml:"estimated_setup_time" json:"estimated_setup_time"`
	ValidationRequired bool              `yaml:"validation_required" json:"validation_required"`
}

// HasCapability reports whether the loadout carries the capability tag.
func (l *ToolLoadout) HasCapability(capability string) bool {
	for _, c := range l.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}
