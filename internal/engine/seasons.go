// Economic phases: the slow boom and bust cycle that colors every
// investment's growth.
package engine

import "fmt"

// Economic phases.
const (
	PhaseExpansion   = 0
	PhasePeak        = 1
	PhaseContraction = 2
	PhaseTrough      = 3
)

// yearsPerPhase is a quarter of the fifty-year cycle, rounded down.
const yearsPerPhase = 50 / 4

var phaseMultipliers = [4]float64{1.03, 1.01, 0.98, 0.99}

// PhaseFor returns the economic phase of a calendar year.
func PhaseFor(year uint64) uint {
	return uint(year/yearsPerPhase) % 4
}

// PhaseMultiplier is the growth multiplier of a phase, 1.0 when unknown.
func PhaseMultiplier(phase uint) float64 {
	if phase < uint(len(phaseMultipliers)) {
		return phaseMultipliers[phase]
	}
	return 1.0
}

// PhaseName returns a human-readable phase name.
func PhaseName(phase uint) string {
	switch phase {
	case PhaseExpansion:
		return "Expansion"
	case PhasePeak:
		return "Peak"
	case PhaseContraction:
		return "Contraction"
	case PhaseTrough:
		return "Trough"
	default:
		return "Unknown"
	}
}

// YearLabel renders a year for logs and reports.
func YearLabel(year uint64) string {
	return fmt.Sprintf("Year %d (%s, era %d)", year, PhaseName(PhaseFor(year)), year/YearsPerEra+1)
}
