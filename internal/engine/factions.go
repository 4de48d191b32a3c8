// Kingdom politics: the yearly kingdom step, war targeting, and
// symmetric relations between realms.
package engine

import (
	"log/slog"

	"github.com/copyleft-games/lichs-portfolio/internal/exposure"
	"github.com/copyleft-games/lichs-portfolio/internal/social"
)

const (
	warEndChance        = 0.15
	crusadeExposure     = 15
	collapseDevastation = 0.5
)

// processKingdoms ticks every standing kingdom in insertion order, then
// rolls its collapse, war and crusade.
func (s *Simulation) processKingdoms() {
	for _, k := range s.kingdoms {
		if k.Collapsed {
			continue
		}
		k.Tick(s.src)
		if k.RollCollapse(s.src) {
			s.devastate(k, collapseDevastation)
			continue
		}

		if k.AtWar() {
			s.rollWarEnd(k)
		} else if target := s.warTarget(k); target != nil && k.RollWar(s.src, target.ID) {
			target.EnterWar(k.ID)
		}

		if k.RollCrusade(s.src, s.exposureDetected()) {
			s.AddExposure(crusadeExposure)
		}
	}
}

// exposureDetected is true once the player draws open suspicion.
func (s *Simulation) exposureDetected() bool {
	return s.exposure != nil && s.exposure.Level() >= exposure.Suspicion
}

// warTarget picks the weakest standing kingdom k could attack: not
// itself, not allied, not already fighting. Ties go to the earliest.
func (s *Simulation) warTarget(k *social.Kingdom) *social.Kingdom {
	var best *social.Kingdom
	for _, o := range s.kingdoms {
		if o == k || o.Collapsed || o.AtWar() || k.Relation(o.ID) == social.Alliance {
			continue
		}
		if best == nil || o.Military < best.Military {
			best = o
		}
	}
	return best
}

// rollWarEnd may close k's war. The stronger army wins; a collapsed enemy
// always loses.
func (s *Simulation) rollWarEnd(k *social.Kingdom) {
	if !s.src.Chance(warEndChance) {
		return
	}
	enemy := s.Kingdom(k.AtWarWith)
	victory := enemy == nil || enemy.Collapsed || k.Military >= enemy.Military
	if err := k.EndWar(victory); err != nil {
		slog.Debug("war end refused", "kingdom", k.ID, "err", err)
		return
	}
	if enemy != nil && enemy.AtWarWith == k.ID {
		enemy.EndWar(!victory)
	}
}

func (s *Simulation) devastate(k *social.Kingdom, severity float64) {
	for _, id := range k.Regions {
		if r := s.Region(id); r != nil {
			r.Devastate(severity)
		}
	}
}

// SetRelation sets a symmetric relation between two kingdoms.
func (s *Simulation) SetRelation(a, b string, rel social.Relation) {
	ka, kb := s.Kingdom(a), s.Kingdom(b)
	if ka == nil || kb == nil || ka == kb {
		return
	}
	ka.SetRelation(b, rel)
	kb.SetRelation(a, rel)
}
