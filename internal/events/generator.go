package events

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/copyleft-games/lichs-portfolio/internal/entropy"
	"github.com/copyleft-games/lichs-portfolio/internal/save"
)

// Default roll chances for the three cadences.
const (
	DefaultYearlyChance = 0.3
	DefaultDecadeChance = 0.7
	DefaultEraChance    = 0.9
)

// Scope lists the world's current participants so generated events can
// name whom they affect.
type Scope interface {
	// KingdomIDs lists standing kingdoms a political event may strike.
	KingdomIDs() []string
	// AgentIDs lists roster agents a personal event may befall.
	AgentIDs() []string
}

// Generator rolls world events at yearly, decade and era cadence.
type Generator struct {
	rng     entropy.Source
	clock   func() time.Time
	yearly  float64
	decade  float64
	era     float64
	counter uint64
}

// NewGenerator returns a generator drawing from rng with default chances.
func NewGenerator(rng entropy.Source) *Generator {
	return &Generator{
		rng:    rng,
		clock:  time.Now,
		yearly: DefaultYearlyChance,
		decade: DefaultDecadeChance,
		era:    DefaultEraChance,
	}
}

// SetSource replaces the draw source.
func (g *Generator) SetSource(rng entropy.Source) { g.rng = rng }

// SetClock replaces the wall clock used in event ids.
func (g *Generator) SetClock(clock func() time.Time) { g.clock = clock }

func clampChance(p float64) float64 { return min(1, max(0, p)) }

// SetChances sets the three cadence chances, each clamped to [0, 1].
func (g *Generator) SetChances(yearly, decade, era float64) {
	g.yearly = clampChance(yearly)
	g.decade = clampChance(decade)
	g.era = clampChance(era)
}

func (g *Generator) Chances() (yearly, decade, era float64) {
	return g.yearly, g.decade, g.era
}

// Count is the number of events created so far.
func (g *Generator) Count() uint64 { return g.counter }

// Generate runs the yearly pipeline, then the decade and era pipelines
// when year falls on their boundaries, returning events in creation
// order. scope may be nil.
func (g *Generator) Generate(year uint64, scope Scope) []*Event {
	out := g.Yearly(scope)
	if year%10 == 0 {
		out = append(out, g.Decade(scope)...)
	}
	if year%100 == 0 {
		out = append(out, g.Era(scope)...)
	}
	return out
}

// Yearly rolls at most one Minor or Moderate event.
func (g *Generator) Yearly(scope Scope) []*Event {
	if !g.rng.Chance(g.yearly) {
		return nil
	}
	k := Kind(g.rng.IntRange(0, 4))
	sev := Moderate
	if g.rng.Chance(0.75) {
		sev = Minor
	}
	return []*Event{g.Create(k, sev, scope)}
}

// Decade rolls one event, sometimes two, of Moderate or Major severity.
func (g *Generator) Decade(scope Scope) []*Event {
	if !g.rng.Chance(g.decade) {
		return nil
	}
	n := 1
	if g.rng.Chance(0.3) {
		n = 2
	}
	out := make([]*Event, 0, n)
	for range n {
		sev := Major
		if g.rng.Chance(0.6) {
			sev = Moderate
		}
		k := Kind(g.rng.IntRange(0, 4))
		out = append(out, g.Create(k, sev, scope))
	}
	return out
}

// Era rolls one of three world-shaping patterns.
func (g *Generator) Era(scope Scope) []*Event {
	if !g.rng.Chance(g.era) {
		return nil
	}
	sev := Catastrophic
	if g.rng.Chance(0.7) {
		sev = Major
	}
	switch g.rng.IntRange(0, 3) {
	case 0:
		// Upheaval drags the markets down with it.
		return []*Event{g.Create(Political, sev, scope), g.Create(Economic, Moderate, scope)}
	case 1:
		return []*Event{g.Create(Magical, sev, scope)}
	default:
		return []*Event{g.Create(Economic, sev, scope)}
	}
}

// Create instantiates a random catalog event of kind k at severity sev.
// Generated events are instant; callers that want one to linger set its
// duration before it occurs.
func (g *Generator) Create(k Kind, sev Severity, scope Scope) *Event {
	if k > Personal {
		k = Personal
	}
	t := catalog[k][tier(sev)][g.rng.IntRange(0, templatesPerTier)]
	g.counter++
	id := fmt.Sprintf("%s-%d-%d", idPrefixes[k], g.clock().UnixMicro(), g.counter)
	e := New(id, t.name, t.description, sev, cloneEffect(t.effect))

	if scope != nil {
		switch x := e.Effect.(type) {
		case *PoliticalEffect:
			if ids := scope.KingdomIDs(); len(ids) > 0 {
				e.KingdomID = ids[g.rng.IntRange(0, len(ids))]
			}
		case *PersonalEffect:
			if ids := scope.AgentIDs(); len(ids) > 0 {
				x.TargetAgentID = ids[g.rng.IntRange(0, len(ids))]
			}
		}
	}
	slog.Debug("event created", "id", e.ID, "kind", k, "severity", sev, "name", e.Name)
	return e
}

func (g *Generator) SaveID() string { return "event-generator" }

func (g *Generator) Save(c *save.Context) error {
	c.WriteDouble("yearly-chance", g.yearly)
	c.WriteDouble("decade-chance", g.decade)
	c.WriteDouble("era-chance", g.era)
	c.WriteUint("event-counter", g.counter)
	return nil
}

func (g *Generator) Load(c *save.Context) error {
	g.SetChances(
		c.ReadDouble("yearly-chance", DefaultYearlyChance),
		c.ReadDouble("decade-chance", DefaultDecadeChance),
		c.ReadDouble("era-chance", DefaultEraChance),
	)
	g.counter = c.ReadUint("event-counter", 0)
	return nil
}
