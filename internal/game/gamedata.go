// Package game ties the world, the portfolio, the agents and the
// exposure gauge into one run, and advances them together through
// slumber.
package game

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/copyleft-games/lichs-portfolio/internal/agents"
	"github.com/copyleft-games/lichs-portfolio/internal/economy"
	"github.com/copyleft-games/lichs-portfolio/internal/engine"
	"github.com/copyleft-games/lichs-portfolio/internal/entropy"
	"github.com/copyleft-games/lichs-portfolio/internal/events"
	"github.com/copyleft-games/lichs-portfolio/internal/exposure"
	"github.com/copyleft-games/lichs-portfolio/internal/notice"
	"github.com/copyleft-games/lichs-portfolio/internal/save"
)

var (
	ErrRosterFull     = errors.New("agent roster is full")
	ErrFamiliesLocked = errors.New("family agents are not unlocked")
)

// Setup sizes the world and roster of a freshly started run.
type Setup struct {
	Scenario engine.Scenario
	Agents   int
}

// DefaultSetup is the standard new-game layout.
func DefaultSetup() Setup {
	return Setup{Scenario: engine.DefaultScenario(), Agents: 3}
}

// GameData is one player's game: the run in progress plus what carries
// over between runs.
type GameData struct {
	runID      uuid.UUID
	totalYears uint64

	log        *notice.Log
	exposure   *exposure.Gauge
	portfolio  *economy.Holdings
	agents     *agents.Manager
	world      *engine.Simulation
	phylactery *Phylactery
	ledger     *Ledger
	history    *History

	// Events still waiting on a player choice.
	pending []*events.Event

	observer func(notice.Notice)
}

// New returns an empty game at the default starting year. A nil rng is
// seeded from the clock.
func New(rng *entropy.Rng) *GameData {
	world := engine.New(rng)
	g := &GameData{
		runID:      uuid.New(),
		log:        notice.NewLog(),
		exposure:   exposure.New(),
		portfolio:  economy.NewHoldings(economy.DefaultStartingGold),
		agents:     agents.NewManager(world.Source()),
		world:      world,
		phylactery: NewPhylactery(),
		ledger:     NewLedger(),
		history:    &History{},
	}
	g.wire()
	return g
}

// wire routes every subsystem through the shared log and connects the
// cross-references the world needs.
func (g *GameData) wire() {
	g.log.Observe(g.observe)
	g.log.SetYear(g.world.CurrentYear())
	g.exposure.SetSink(g.log)
	g.world.SetSink(g.log)
	g.world.AttachExposure(g.exposure)
	g.world.AttachRoster(g.agents)
	g.agents.SetSink(g.log)
	g.portfolio.SetMarket(g.world)
}

// observe feeds the ledger from notices, then the caller's observer.
func (g *GameData) observe(n notice.Notice) {
	switch n.Kind {
	case notice.KingdomCollapsed:
		g.ledger.Discover("collapse:"+n.Detail, LedgerEconomic, n.Year)
	case notice.CrusadeLaunched:
		g.ledger.Discover("crusade", LedgerHidden, n.Year)
	case notice.CompetitorDiscovered:
		g.ledger.Discover("competitor:"+n.Subject, LedgerCompetitor, n.Year)
	case notice.NewTraitEmerged:
		g.ledger.Discover("trait:"+n.Detail, LedgerAgent, n.Year)
	}
	if g.observer != nil {
		g.observer(n)
	}
}

// Observe registers a synchronous notice handler. It must not call back
// into the game's mutators.
func (g *GameData) Observe(fn func(notice.Notice)) { g.observer = fn }

// SetSource swaps the draw source of the world and the roster.
func (g *GameData) SetSource(src entropy.Source) {
	g.world.SetSource(src)
	g.agents.SetSource(g.world.Source())
}

func (g *GameData) RunID() uuid.UUID               { return g.runID }
func (g *GameData) TotalYearsPlayed() uint64       { return g.totalYears }
func (g *GameData) CurrentYear() uint64            { return g.world.CurrentYear() }
func (g *GameData) Log() *notice.Log               { return g.log }
func (g *GameData) Exposure() *exposure.Gauge      { return g.exposure }
func (g *GameData) Portfolio() *economy.Holdings   { return g.portfolio }
func (g *GameData) Agents() *agents.Manager        { return g.agents }
func (g *GameData) World() *engine.Simulation      { return g.world }
func (g *GameData) Phylactery() *Phylactery        { return g.phylactery }
func (g *GameData) Ledger() *Ledger                { return g.ledger }
func (g *GameData) History() *History              { return g.history }
func (g *GameData) PendingEvents() []*events.Event { return slices.Clone(g.pending) }

// Slumber advances everything by years and returns the world events in
// the order they occurred. Zero years does nothing.
func (g *GameData) Slumber(years uint64) []*events.Event {
	if years == 0 {
		return nil
	}
	slog.Debug("entering slumber", "years", years, "year", g.world.CurrentYear())

	g.totalYears += years
	produced := g.world.AdvanceYears(years)
	g.agents.AdvanceYears(uint(years))
	g.exposure.ApplyDecay(years)
	g.portfolio.ApplySlumber(years)
	g.history.Record(Snapshot{
		Year:            g.world.CurrentYear(),
		TotalValue:      g.portfolio.TotalValue(),
		Gold:            g.portfolio.Gold(),
		InvestmentValue: g.portfolio.InvestmentValue(),
	})

	for _, e := range produced {
		if len(e.Choices()) > 0 {
			g.pending = append(g.pending, e)
		}
	}
	return produced
}

// ResolveEvent answers a pending event. Gold is checked before anything
// changes; the choice's exposure and agent effects follow.
func (g *GameData) ResolveEvent(eventID, choiceID string) (events.Choice, error) {
	i := slices.IndexFunc(g.pending, func(e *events.Event) bool { return e.ID == eventID })
	if i < 0 {
		return events.Choice{}, fmt.Errorf("resolve %s: %w", eventID, events.ErrUnknownEvent)
	}
	e := g.pending[i]

	offered := e.Choices()
	if j := slices.IndexFunc(offered, func(c events.Choice) bool { return c.ID == choiceID }); j >= 0 {
		if cost := offered[j].GoldCost; cost > 0 && !g.portfolio.CanAfford(cost) {
			return events.Choice{}, fmt.Errorf("%s on %s: %w", choiceID, eventID, economy.ErrInsufficientGold)
		}
	}
	choice, err := e.Resolve(choiceID)
	if err != nil {
		return events.Choice{}, err
	}

	if choice.RequiresGold() {
		if err := g.portfolio.SubtractGold(choice.GoldCost); err != nil {
			return choice, err
		}
	}
	if choice.ExposureDelta != 0 {
		g.exposure.Add(choice.ExposureDelta)
	}
	if p, ok := e.Effect.(*events.PersonalEffect); ok && choice.RemovesAgent && p.TargetAgentID != "" {
		g.agents.Remove(p.TargetAgentID)
	}

	g.pending = slices.Delete(g.pending, i, i+1)
	g.log.Notify(notice.Notice{Kind: notice.EventResolved, Subject: e.ID, Detail: choice.Label})
	return choice, nil
}

// Populate seeds the world and recruits the starting roster, capped by
// the phylactery's agent limit.
func (g *GameData) Populate(s Setup) error {
	if err := g.world.Seed(s.Scenario); err != nil {
		return fmt.Errorf("seed world: %w", err)
	}
	for range min(max(s.Agents, 0), g.phylactery.MaxAgents()) {
		if _, err := g.RecruitAgent(); err != nil {
			return err
		}
	}
	return nil
}

// RecruitAgent adds a random individual to the roster.
func (g *GameData) RecruitAgent() (*agents.Individual, error) {
	if g.agents.Count() >= g.phylactery.MaxAgents() {
		return nil, fmt.Errorf("recruit: %w", ErrRosterFull)
	}
	a := agents.Recruit(g.world.Source())
	if err := g.agents.Add(a); err != nil {
		return nil, err
	}
	return a, nil
}

// FoundFamily adds a first-generation family. An empty name is drawn at
// random.
func (g *GameData) FoundFamily(name string) (*agents.Family, error) {
	if !g.phylactery.FamilyAgents() {
		return nil, fmt.Errorf("found family: %w", ErrFamiliesLocked)
	}
	if g.agents.Count() >= g.phylactery.MaxAgents() {
		return nil, fmt.Errorf("found family: %w", ErrRosterFull)
	}
	src := g.world.Source()
	if name == "" {
		name = agents.FamilyName(src)
	}
	id := fmt.Sprintf("family-%08x", src.IntRange(0, 1<<31-1))
	f := agents.Founding(src, id, name, g.world.CurrentYear())
	if err := g.agents.Add(f); err != nil {
		return nil, err
	}
	return f, nil
}

// StartNewGame wipes the game back to a fresh start, upgrades and ledger
// included. Earned phylactery points are refunded, not lost.
func (g *GameData) StartNewGame() {
	slog.Debug("starting new game")
	g.totalYears = 0
	g.runID = uuid.New()
	g.portfolio.Reset(economy.DefaultStartingGold)
	g.agents.Reset()
	g.phylactery.ResetUpgrades()
	g.ledger.Clear()
	g.world.Reset(engine.DefaultStartingYear)
	g.history.Clear()
	g.exposure.Reset()
	g.pending = nil
	g.log.SetYear(g.world.CurrentYear())
}

// PrestigePoints is floor(log10(total) - 3) for totals above 1000.
func PrestigePoints(total float64) uint64 {
	if total <= 1000 {
		return 0
	}
	var points uint64
	for threshold := 1e4; total >= threshold; threshold *= 10 {
		points++
	}
	return points
}

// Prestige converts the portfolio into phylactery points and starts a
// new run. The phylactery, the ledger and the years played carry over.
func (g *GameData) Prestige() uint64 {
	points := PrestigePoints(g.portfolio.TotalValue())
	g.phylactery.AddPoints(points)

	g.runID = uuid.New()
	g.portfolio.Reset(economy.DefaultStartingGold * g.phylactery.StartingGoldBonus())
	g.agents.Reset()
	g.world.Reset(engine.DefaultStartingYear)
	g.history.Clear()
	g.exposure.Reset()
	g.pending = nil
	g.log.SetYear(g.world.CurrentYear())

	slog.Debug("prestige complete", "points", points, "phylactery", g.phylactery.Points())
	return points
}

func (g *GameData) SaveID() string { return "game-data" }

func (g *GameData) Save(c *save.Context) error {
	c.WriteUint("total-years-played", g.totalYears)
	c.WriteString("run-id", g.runID.String())
	for _, s := range g.sections() {
		if err := save.WriteSection(c, s.SaveID(), s); err != nil {
			return err
		}
	}
	return save.WriteList(c, "pending-events", len(g.pending), func(i int) error {
		return g.pending[i].Save(c)
	})
}

func (g *GameData) sections() []save.Saveable {
	return []save.Saveable{
		g.exposure, g.portfolio, g.agents, g.phylactery, g.ledger, g.world, g.history,
	}
}

// Load replaces the whole game with the saved one. On error the game is
// left partially loaded and must be discarded.
func (g *GameData) Load(c *save.Context) error {
	g.totalYears = c.ReadUint("total-years-played", 0)
	id, err := uuid.Parse(c.ReadString("run-id", ""))
	if err != nil {
		slog.Warn("save has no valid run id, assigning a new one", "err", err)
		id = uuid.New()
	}
	g.runID = id

	optional := map[string]bool{g.ledger.SaveID(): true, g.history.SaveID(): true, g.phylactery.SaveID(): true}
	for _, s := range g.sections() {
		if optional[s.SaveID()] && !c.HasSection(s.SaveID()) {
			continue
		}
		if err := save.ReadSection(c, s.SaveID(), s); err != nil {
			return err
		}
	}

	g.pending = nil
	err = save.ReadList(c, "pending-events", func(int) error {
		e, err := events.Read(c)
		if err != nil {
			return err
		}
		g.pending = append(g.pending, e)
		return nil
	})
	if err != nil {
		return err
	}

	g.agents.SetSource(g.world.Source())
	g.wire()
	for _, e := range g.pending {
		e.SetSink(g.log)
	}
	slog.Debug("game loaded", "run", g.runID, "year", g.world.CurrentYear(), "agents", g.agents.Count())
	return nil
}
