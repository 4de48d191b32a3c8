package engine

import (
	"log/slog"
	"slices"
	"strconv"

	"github.com/copyleft-games/lichs-portfolio/internal/events"
	"github.com/copyleft-games/lichs-portfolio/internal/notice"
)

// Cadence boundaries, in years.
const (
	YearsPerDecade = 10
	YearsPerEra    = 100
)

// Hooks are called at the end of each advanced year, after every notice
// for that year has been raised.
type Hooks struct {
	OnYear   func(year uint64, produced []*events.Event) // Every year
	OnDecade func(year uint64)                           // Every 10 years
	OnEra    func(year uint64)                           // Every 100 years
}

// AdvanceYear runs one year of world history and returns the events it
// produced, in creation order.
func (s *Simulation) AdvanceYear() []*events.Event {
	s.SetCurrentYear(s.year + 1)

	s.processActiveEvents()
	s.processKingdoms()
	s.processCompetitors()

	produced := s.generator.Generate(s.year, s)
	for _, e := range produced {
		s.occur(e)
	}

	s.notify(notice.Notice{Kind: notice.YearAdvanced, Subject: "world", To: strconv.FormatUint(s.year, 10)})
	s.runHooks(produced)
	return produced
}

// AdvanceYears runs n years and returns their events in chronological
// order. Zero years changes nothing.
func (s *Simulation) AdvanceYears(n uint64) []*events.Event {
	var all []*events.Event
	for range n {
		all = append(all, s.AdvanceYear()...)
	}
	slog.Debug("world advanced", "years", n, "year", s.year, "events", len(all))
	return all
}

// processActiveEvents ticks lasting events, dropping the ones that end.
func (s *Simulation) processActiveEvents() {
	for _, e := range slices.Clone(s.active) {
		if e.TickYear() || !e.Active {
			s.active = slices.DeleteFunc(s.active, func(x *events.Event) bool { return x == e })
		}
	}
}

func (s *Simulation) processCompetitors() {
	var threat uint
	if s.exposure != nil {
		threat = s.exposure.Value()
	}
	for _, c := range s.competitors {
		c.SetPlayerThreat(threat)
		c.Tick(s.src, s)
	}
}

// occur applies a freshly generated event to the world.
func (s *Simulation) occur(e *events.Event) {
	e.SetSink(s.sink)
	e.Occur(s.year, s)
	for _, c := range s.competitors {
		c.ReactToEvent(e)
	}
	if !e.Instant() {
		s.active = append(s.active, e)
	}
	slog.Debug("event occurred", "year", s.year, "event", e.ID, "kind", e.Kind(), "severity", e.Severity)
	s.notify(notice.Notice{Kind: notice.EventOccurred, Subject: e.ID, Detail: e.Name})
}

func (s *Simulation) runHooks(produced []*events.Event) {
	if s.Hooks.OnYear != nil {
		s.Hooks.OnYear(s.year, produced)
	}
	if s.year%YearsPerDecade == 0 && s.Hooks.OnDecade != nil {
		s.Hooks.OnDecade(s.year)
	}
	if s.year%YearsPerEra == 0 && s.Hooks.OnEra != nil {
		s.Hooks.OnEra(s.year)
	}
}
