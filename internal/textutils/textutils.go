// Package textutils provides the value-level string coercions used when
// normalizing export rows.
package textutils

import "strings"

// PlantingSeparator splits the composite Planting column, e.g.
// "Beans (Common) - Dragon's Tongue - Seedlings / Plugs".
const PlantingSeparator = " - "

// CleanNumeric trims a raw numeric cell and strips thousands separators.
// The result stays a string so the exact textual representation reaches the
// store untouched. Empty input coerces to nil.
func CleanNumeric(s string) *string {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return nil
	}
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	return &cleaned
}

// SplitPlanting splits the composite Planting value into plant name and
// variety. Empty parts are dropped after trimming; anything past the second
// part (growth stage etc.) is ignored.
func SplitPlanting(s string) (name, variety *string) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, nil
	}
	var parts []string
	for _, p := range strings.Split(trimmed, PlantingSeparator) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) >= 1 {
		name = &parts[0]
	}
	if len(parts) >= 2 {
		variety = &parts[1]
	}
	return name, variety
}
