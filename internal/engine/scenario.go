package engine

import (
	"fmt"
	"log/slog"

	"github.com/copyleft-games/lichs-portfolio/internal/rivals"
	"github.com/copyleft-games/lichs-portfolio/internal/social"
	"github.com/copyleft-games/lichs-portfolio/internal/world"
)

// Scenario sizes a freshly seeded world.
type Scenario struct {
	Kingdoms    int   // Capped at the number of kingdom presets
	Regions     int   // Generated on a hex spiral
	Competitors int   // Capped at the number of rival presets
	Seed        int64 // Region generation seed
}

// DefaultScenario is the standard new-game world.
func DefaultScenario() Scenario {
	return Scenario{Kingdoms: 4, Regions: 12, Competitors: 3, Seed: 847}
}

// startingRelations pair kingdom presets by index.
var startingRelations = []struct {
	a, b int
	rel  social.Relation
}{
	{0, 2, social.Alliance},
	{0, 1, social.Rivalry},
	{1, 3, social.Rivalry},
}

// Seed populates an empty world: generated regions dealt round-robin to
// the preset kingdoms, their starting relations, and the rival roster.
func (s *Simulation) Seed(sc Scenario) error {
	for _, r := range world.Generate(world.GenConfig{Regions: sc.Regions, Seed: sc.Seed}) {
		if err := s.AddRegion(r); err != nil {
			return err
		}
	}

	kingdoms := social.SeedKingdoms()
	n := min(max(sc.Kingdoms, 0), len(kingdoms))
	for i, p := range kingdoms[:n] {
		if err := s.AddKingdom(p.Build(fmt.Sprintf("kingdom-%d", i+1))); err != nil {
			return err
		}
	}
	if n > 0 {
		for i, r := range s.regions {
			if err := s.AssignRegion(s.kingdoms[i%n].ID, r.ID); err != nil {
				return err
			}
		}
	}
	for _, sr := range startingRelations {
		if sr.a < n && sr.b < n {
			s.SetRelation(s.kingdoms[sr.a].ID, s.kingdoms[sr.b].ID, sr.rel)
		}
	}

	rivalPresets := rivals.SeedCompetitors()
	for i, p := range rivalPresets[:min(max(sc.Competitors, 0), len(rivalPresets))] {
		if err := s.AddCompetitor(p.Build(fmt.Sprintf("rival-%d", i+1))); err != nil {
			return err
		}
	}

	slog.Info("world seeded", "year", s.year, "kingdoms", len(s.kingdoms),
		"regions", len(s.regions), "competitors", len(s.competitors))
	return nil
}
