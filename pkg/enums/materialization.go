package enums

import "fmt"

// Materialization describes how a unit's output is persisted.
type Materialization string

const (
	MaterializationView  Materialization = "view"
	MaterializationTable Materialization = "table"
)

var validMaterializations = []Materialization{
	MaterializationView,
	MaterializationTable,
}

// IsValid reports whether the value matches a known materialization.
func (m Materialization) IsValid() bool {
	for _, candidate := range validMaterializations {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMaterialization converts the raw string to Materialization.
func ParseMaterialization(value string) (Materialization, error) {
	for _, candidate := range validMaterializations {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid materialization %q", value)
}

// Layer names the pipeline stage a unit belongs to.
type Layer string

const (
	LayerStaging      Layer = "staging"
	LayerIntermediate Layer = "intermediate"
	LayerMart         Layer = "mart"
)

var validLayers = []Layer{
	LayerStaging,
	LayerIntermediate,
	LayerMart,
}

// IsValid reports whether the value matches a known layer.
func (l Layer) IsValid() bool {
	for _, candidate := range validLayers {
		if candidate == l {
			return true
		}
	}
	return false
}
