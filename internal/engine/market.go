// Market pricing: the world's read on how investments grow.
package engine

import (
	"github.com/copyleft-games/lichs-portfolio/internal/economy"
)

var _ economy.Market = (*Simulation)(nil)

// GrowthRate is the base rate scaled by the current economic phase.
func (s *Simulation) GrowthRate() float64 {
	return s.baseGrowth * PhaseMultiplier(s.phase)
}

// InvestmentModifier folds every active event's effect on inv.
func (s *Simulation) InvestmentModifier(inv *economy.Investment) float64 {
	mod := 1.0
	for _, e := range s.active {
		mod *= e.InvestmentModifier(inv)
	}
	return max(0, mod)
}
