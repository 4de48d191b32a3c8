// Package engine runs the mortal world year by year: kingdoms drift and
// fight, rival immortals scheme, and events strike at yearly, decade and
// era cadence.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/copyleft-games/lichs-portfolio/internal/entropy"
	"github.com/copyleft-games/lichs-portfolio/internal/events"
	"github.com/copyleft-games/lichs-portfolio/internal/exposure"
	"github.com/copyleft-games/lichs-portfolio/internal/notice"
	"github.com/copyleft-games/lichs-portfolio/internal/rivals"
	"github.com/copyleft-games/lichs-portfolio/internal/save"
	"github.com/copyleft-games/lichs-portfolio/internal/social"
	"github.com/copyleft-games/lichs-portfolio/internal/world"
)

var (
	ErrDuplicateKingdom    = errors.New("duplicate kingdom id")
	ErrDuplicateRegion     = errors.New("duplicate region id")
	ErrDuplicateCompetitor = errors.New("duplicate competitor id")
	ErrUnknownCompetitor   = errors.New("unknown competitor")
	ErrUnknownRegion       = errors.New("unknown region")
)

// DefaultStartingYear is the calendar year a new world begins in.
const DefaultStartingYear = 847

// Roster is the agent roster events may strike.
type Roster interface {
	AgentIDs() []string
	Remove(id string) bool
}

// Simulation holds the mortal world and advances it.
type Simulation struct {
	year       uint64
	phase      uint
	baseGrowth float64

	kingdoms    []*social.Kingdom
	regions     []*world.Region
	competitors []*rivals.Competitor
	active      []*events.Event

	rng       *entropy.Rng
	src       entropy.Source
	generator *events.Generator
	exposure  *exposure.Gauge
	roster    Roster
	sink      notice.Sink

	// Hooks observe the year cadence. They must not mutate the simulation.
	Hooks Hooks
}

var (
	_ events.Target    = (*Simulation)(nil)
	_ events.Scope     = (*Simulation)(nil)
	_ rivals.Territory = (*Simulation)(nil)
)

// New returns an empty world at the default starting year. A nil rng is
// seeded from the clock.
func New(rng *entropy.Rng) *Simulation {
	if rng == nil {
		rng = entropy.NewFromClock()
	}
	s := &Simulation{
		rng:       rng,
		src:       rng,
		generator: events.NewGenerator(rng),
		sink:      notice.Discard,
	}
	s.Reset(DefaultStartingYear)
	return s
}

// Rng is the simulation's persisted generator.
func (s *Simulation) Rng() *entropy.Rng { return s.rng }

// Source is what the simulation currently draws from.
func (s *Simulation) Source() entropy.Source { return s.src }

// SetSource replaces the draw source for the world and its generator.
// The persisted Rng is untouched.
func (s *Simulation) SetSource(src entropy.Source) {
	if src == nil {
		src = s.rng
	}
	s.src = src
	s.generator.SetSource(src)
}

func (s *Simulation) Generator() *events.Generator { return s.generator }

// AttachExposure connects the gauge that magical events, crusades and
// competitor threat read and write.
func (s *Simulation) AttachExposure(g *exposure.Gauge) { s.exposure = g }

// AttachRoster connects the agents personal events may strike.
func (s *Simulation) AttachRoster(r Roster) { s.roster = r }

// SetSink routes every world notice, including those of owned entities.
func (s *Simulation) SetSink(sink notice.Sink) {
	s.sink = notice.Or(sink)
	for _, k := range s.kingdoms {
		k.SetSink(s.sink)
	}
	for _, r := range s.regions {
		r.SetSink(s.sink)
	}
	for _, c := range s.competitors {
		c.SetSink(s.sink)
	}
	for _, e := range s.active {
		e.SetSink(s.sink)
	}
}

func (s *Simulation) notify(n notice.Notice) { s.sink.Notify(n) }

// stampYear tells a year-stamping sink what year it is.
func (s *Simulation) stampYear() {
	if l, ok := s.sink.(interface{ SetYear(uint64) }); ok {
		l.SetYear(s.year)
	}
}

func (s *Simulation) CurrentYear() uint64 { return s.year }

// SetCurrentYear moves the calendar, recomputing the economic phase.
func (s *Simulation) SetCurrentYear(year uint64) {
	s.year = year
	s.phase = PhaseFor(year)
	s.stampYear()
}

func (s *Simulation) Phase() uint { return s.phase }

func (s *Simulation) BaseGrowthRate() float64 { return s.baseGrowth }

func (s *Simulation) SetBaseGrowthRate(r float64) { s.baseGrowth = max(0, r) }

// Reset empties the world and moves it to startingYear. The generator
// keeps its counter so event ids stay unique within a run.
func (s *Simulation) Reset(startingYear uint64) {
	slog.Debug("resetting world", "year", startingYear)
	s.kingdoms = nil
	s.regions = nil
	s.competitors = nil
	s.active = nil
	s.baseGrowth = 1.0
	s.SetCurrentYear(startingYear)
}

// Kingdoms returns the kingdoms in insertion order.
func (s *Simulation) Kingdoms() []*social.Kingdom { return slices.Clone(s.kingdoms) }

func (s *Simulation) Kingdom(id string) *social.Kingdom {
	for _, k := range s.kingdoms {
		if k.ID == id {
			return k
		}
	}
	return nil
}

func (s *Simulation) AddKingdom(k *social.Kingdom) error {
	if s.Kingdom(k.ID) != nil {
		return fmt.Errorf("add kingdom %s: %w", k.ID, ErrDuplicateKingdom)
	}
	k.SetSink(s.sink)
	s.kingdoms = append(s.kingdoms, k)
	return nil
}

func (s *Simulation) RemoveKingdom(id string) bool {
	i := slices.IndexFunc(s.kingdoms, func(k *social.Kingdom) bool { return k.ID == id })
	if i < 0 {
		return false
	}
	s.kingdoms = slices.Delete(s.kingdoms, i, i+1)
	for _, r := range s.regions {
		if r.OwnerID == id {
			r.OwnerID = ""
		}
	}
	return true
}

// Regions returns the regions in insertion order.
func (s *Simulation) Regions() []*world.Region { return slices.Clone(s.regions) }

func (s *Simulation) Region(id string) *world.Region {
	for _, r := range s.regions {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (s *Simulation) AddRegion(r *world.Region) error {
	if s.Region(r.ID) != nil {
		return fmt.Errorf("add region %s: %w", r.ID, ErrDuplicateRegion)
	}
	r.SetSink(s.sink)
	s.regions = append(s.regions, r)
	return nil
}

func (s *Simulation) RemoveRegion(id string) bool {
	i := slices.IndexFunc(s.regions, func(r *world.Region) bool { return r.ID == id })
	if i < 0 {
		return false
	}
	s.regions = slices.Delete(s.regions, i, i+1)
	for _, k := range s.kingdoms {
		k.RemoveRegion(id)
	}
	return true
}

// AssignRegion hands a region to a kingdom, taking it from any previous
// owner.
func (s *Simulation) AssignRegion(kingdomID, regionID string) error {
	r := s.Region(regionID)
	if r == nil {
		return fmt.Errorf("assign %s: %w", regionID, ErrUnknownRegion)
	}
	k := s.Kingdom(kingdomID)
	if k == nil {
		return fmt.Errorf("assign %s to %s: %w", regionID, kingdomID, social.ErrUnknownKingdom)
	}
	if prev := s.Kingdom(r.OwnerID); prev != nil {
		prev.RemoveRegion(regionID)
	}
	k.AddRegion(regionID)
	r.OwnerID = kingdomID
	return nil
}

// Competitors returns the rivals in insertion order.
func (s *Simulation) Competitors() []*rivals.Competitor { return slices.Clone(s.competitors) }

func (s *Simulation) Competitor(id string) *rivals.Competitor {
	for _, c := range s.competitors {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *Simulation) AddCompetitor(c *rivals.Competitor) error {
	if s.Competitor(c.ID) != nil {
		return fmt.Errorf("add competitor %s: %w", c.ID, ErrDuplicateCompetitor)
	}
	c.SetSink(s.sink)
	s.competitors = append(s.competitors, c)
	return nil
}

func (s *Simulation) RemoveCompetitor(id string) error {
	i := slices.IndexFunc(s.competitors, func(c *rivals.Competitor) bool { return c.ID == id })
	if i < 0 {
		return fmt.Errorf("remove competitor %s: %w", id, ErrUnknownCompetitor)
	}
	s.competitors = slices.Delete(s.competitors, i, i+1)
	return nil
}

// ActiveEvents returns events still running, oldest first.
func (s *Simulation) ActiveEvents() []*events.Event { return slices.Clone(s.active) }

// Event looks up an active event by id.
func (s *Simulation) Event(id string) *events.Event {
	for _, e := range s.active {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// KingdomIDs lists standing kingdoms.
func (s *Simulation) KingdomIDs() []string {
	var ids []string
	for _, k := range s.kingdoms {
		if !k.Collapsed {
			ids = append(ids, k.ID)
		}
	}
	return ids
}

// AgentIDs lists the attached roster, if any.
func (s *Simulation) AgentIDs() []string {
	if s.roster == nil {
		return nil
	}
	return s.roster.AgentIDs()
}

// AdjustStability routes an event's stability impact to a standing kingdom.
func (s *Simulation) AdjustStability(kingdomID string, delta int) bool {
	k := s.Kingdom(kingdomID)
	if k == nil || k.Collapsed {
		return false
	}
	k.AdjustStability(delta)
	return true
}

// BeginWar has the kingdom declare war on the target picked by warTarget.
func (s *Simulation) BeginWar(kingdomID string) bool {
	k := s.Kingdom(kingdomID)
	if k == nil || k.Collapsed || k.AtWar() {
		return false
	}
	target := s.warTarget(k)
	if target == nil {
		return false
	}
	if err := k.DeclareWar(target.ID); err != nil {
		slog.Debug("event war refused", "kingdom", k.ID, "err", err)
		return false
	}
	target.EnterWar(k.ID)
	return true
}

func (s *Simulation) AddExposure(delta int) {
	if s.exposure != nil {
		s.exposure.Add(delta)
	}
}

func (s *Simulation) HasAgent(agentID string) bool {
	return slices.Contains(s.AgentIDs(), agentID)
}

func (s *Simulation) RemoveAgent(agentID string) bool {
	if s.roster == nil {
		return false
	}
	return s.roster.Remove(agentID)
}

// ExpansionCandidates lists regions no active competitor holds. Regions
// bordering c's territory come back alone when there are any.
func (s *Simulation) ExpansionCandidates(c *rivals.Competitor) []string {
	held := make(map[string]bool)
	for _, o := range s.competitors {
		if !o.Active {
			continue
		}
		for _, id := range o.Territory {
			held[id] = true
		}
	}
	var free, border []string
	for _, r := range s.regions {
		if held[r.ID] {
			continue
		}
		free = append(free, r.ID)
		if s.borders(c, r) {
			border = append(border, r.ID)
		}
	}
	if len(border) > 0 {
		return border
	}
	return free
}

func (s *Simulation) borders(c *rivals.Competitor, r *world.Region) bool {
	for _, id := range c.Territory {
		if own := s.Region(id); own != nil && world.Adjacent(own.Coord, r.Coord) {
			return true
		}
	}
	return false
}

func (s *Simulation) SaveID() string { return "world-simulation" }

func (s *Simulation) Save(c *save.Context) error {
	c.WriteUint("current-year", s.year)
	c.WriteUint("economic-phase", uint64(s.phase))
	c.WriteDouble("base-growth-rate", s.baseGrowth)
	if err := save.WriteSection(c, s.rng.SaveID(), s.rng); err != nil {
		return err
	}
	if err := save.WriteSection(c, s.generator.SaveID(), s.generator); err != nil {
		return err
	}
	if err := save.WriteList(c, "regions", len(s.regions), func(i int) error {
		return s.regions[i].Save(c)
	}); err != nil {
		return err
	}
	if err := save.WriteList(c, "kingdoms", len(s.kingdoms), func(i int) error {
		return s.kingdoms[i].Save(c)
	}); err != nil {
		return err
	}
	if err := save.WriteList(c, "competitors", len(s.competitors), func(i int) error {
		return s.competitors[i].Save(c)
	}); err != nil {
		return err
	}
	return save.WriteList(c, "active-events", len(s.active), func(i int) error {
		return s.active[i].Save(c)
	})
}

func (s *Simulation) Load(c *save.Context) error {
	s.Reset(c.ReadUint("current-year", DefaultStartingYear))
	s.phase = uint(min(c.ReadUint("economic-phase", uint64(s.phase)), 3))
	s.baseGrowth = max(0, c.ReadDouble("base-growth-rate", 1.0))

	if c.HasSection(s.rng.SaveID()) {
		if err := save.ReadSection(c, s.rng.SaveID(), s.rng); err != nil {
			return err
		}
	}
	if c.HasSection(s.generator.SaveID()) {
		if err := save.ReadSection(c, s.generator.SaveID(), s.generator); err != nil {
			return err
		}
	}
	s.SetSource(s.rng)

	err := save.ReadList(c, "regions", func(int) error {
		r := &world.Region{}
		if err := r.Load(c); err != nil {
			return err
		}
		return s.AddRegion(r)
	})
	if err != nil {
		return err
	}
	err = save.ReadList(c, "kingdoms", func(int) error {
		k := &social.Kingdom{}
		if err := k.Load(c); err != nil {
			return err
		}
		return s.AddKingdom(k)
	})
	if err != nil {
		return err
	}
	err = save.ReadList(c, "competitors", func(int) error {
		rc := &rivals.Competitor{}
		if err := rc.Load(c); err != nil {
			return err
		}
		return s.AddCompetitor(rc)
	})
	if err != nil {
		return err
	}
	err = save.ReadList(c, "active-events", func(int) error {
		e, err := events.Read(c)
		if err != nil {
			return err
		}
		e.SetSink(s.sink)
		s.active = append(s.active, e)
		return nil
	})
	if err != nil {
		return err
	}
	slog.Debug("world loaded", "year", s.year, "kingdoms", len(s.kingdoms),
		"regions", len(s.regions), "competitors", len(s.competitors), "active_events", len(s.active))
	return nil
}
