// Package schema resolves the logical columns the pipeline needs against
// the physical headers a Tend export actually carries. Accepted spellings
// are data, not code: the built-in table can be replaced from a YAML file
// when a new export version renames a column.
package schema

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"garden31/tend-sync/internal/pipeerror"
)

// Logical column names used by the transformer.
const (
	ColTaskID      = "task_id"
	ColTaskType    = "task_type"
	ColStartDate   = "start_date"
	ColPlanting    = "planting"
	ColSeedsNeeded = "seeds_needed"
	ColLocation    = "location"
	ColSpacing     = "spacing"
)

// Column declares one logical column and the physical spellings it accepts,
// in preference order. Optional columns resolve to "always absent" when no
// spelling matches; required columns make resolution fail.
type Column struct {
	Name     string   `yaml:"name"`
	Variants []string `yaml:"variants"`
	Optional bool     `yaml:"optional"`
}

// Mapping is the ordered set of logical columns for one export format.
type Mapping struct {
	Columns []Column `yaml:"columns"`
}

// Default returns the mapping for current Tend exports.
func Default() Mapping {
	return Mapping{Columns: []Column{
		{Name: ColTaskID, Variants: []string{"Task Id", "Task ID", "TaskId"}},
		{Name: ColTaskType, Variants: []string{"Task Type", "TaskType"}},
		{Name: ColStartDate, Variants: []string{"Start Date", "StartDate", "Date"}},
		{Name: ColPlanting, Variants: []string{"Planting", "Crop"}},
		{Name: ColSeedsNeeded, Variants: []string{"Seeds Needed", "Seeds needed", "Quantity"}},
		{Name: ColLocation, Variants: []string{"Location", "Bed"}},
		{Name: ColSpacing, Variants: []string{"In-row Spacing", "In-Row Spacing", "In Row Spacing", "Spacing"}, Optional: true},
	}}
}

// LoadFile reads a mapping override from a YAML file.
func LoadFile(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Mapping{}, fmt.Errorf("error reading schema file: %w", err)
	}
	var m Mapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Mapping{}, fmt.Errorf("error parsing schema file %s: %w", path, err)
	}
	if len(m.Columns) == 0 {
		return Mapping{}, fmt.Errorf("schema file %s declares no columns", path)
	}
	return m, nil
}

// Resolved maps logical column names to the physical header that matched.
// Unmatched optional columns have no entry.
type Resolved struct {
	physical map[string]string
}

// Resolve matches every logical column against headers, case-insensitively,
// trying variants in order. All missing required columns are collected into
// a single SchemaError so one run reports the full drift.
func (m Mapping) Resolve(headers []string) (Resolved, error) {
	byFold := make(map[string]string, len(headers))
	for _, h := range headers {
		byFold[strings.ToLower(strings.TrimSpace(h))] = h
	}

	resolved := Resolved{physical: make(map[string]string, len(m.Columns))}
	var missing []string
	for _, col := range m.Columns {
		found := false
		for _, v := range col.Variants {
			if phys, ok := byFold[strings.ToLower(v)]; ok {
				resolved.physical[col.Name] = phys
				found = true
				break
			}
		}
		if !found && !col.Optional {
			missing = append(missing, col.Name)
		}
	}
	if len(missing) > 0 {
		return Resolved{}, &pipeerror.SchemaError{Missing: missing, Available: headers}
	}
	return resolved, nil
}

// Get returns the raw value of the logical column in row, and whether the
// column resolved at all.
func (r Resolved) Get(row map[string]string, logical string) (string, bool) {
	phys, ok := r.physical[logical]
	if !ok {
		return "", false
	}
	return row[phys], true
}
