package agent

import (
	"codepilot/internal/tools"
)

const temperatureStep = 0.1

// tuneTemperature nudges the base temperature for one round based on
// what the previous round's tools did. Read-heavy rounds get a warmer
// temperature, edit-heavy rounds a cooler one. The adjustment is always
// computed from the base, so it never compounds across rounds.
func tuneTemperature(base float64, categories []tools.Category) float64 {
	var reads, edits int
	for _, c := range categories {
		switch c {
		case tools.CategoryRead, tools.CategorySearch:
			reads++
		case tools.CategoryEdit:
			edits++
		}
	}

	temp := base
	switch {
	case reads > edits:
		temp = base + temperatureStep
	case edits > reads:
		temp = base - temperatureStep
	}
	if temp < 0 {
		temp = 0
	}
	if temp > 1 {
		temp = 1
	}
	return temp
}
