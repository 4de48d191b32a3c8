package game

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/copyleft-games/lichs-portfolio/internal/agents"
	"github.com/copyleft-games/lichs-portfolio/internal/economy"
	"github.com/copyleft-games/lichs-portfolio/internal/engine"
	"github.com/copyleft-games/lichs-portfolio/internal/entropy"
	"github.com/copyleft-games/lichs-portfolio/internal/events"
	"github.com/copyleft-games/lichs-portfolio/internal/exposure"
	"github.com/copyleft-games/lichs-portfolio/internal/notice"
	"github.com/copyleft-games/lichs-portfolio/internal/rivals"
	"github.com/copyleft-games/lichs-portfolio/internal/save"
	"github.com/copyleft-games/lichs-portfolio/internal/social"
)

func newTestGame(seed uint64) *GameData {
	g := New(entropy.New(seed))
	g.World().Generator().SetClock(func() time.Time { return time.Unix(1700000000, 0) })
	return g
}

func marshal(t *testing.T, name string, s save.Saveable) []byte {
	t.Helper()
	c := save.NewContext()
	if err := save.WriteSection(c, name, s); err != nil {
		t.Fatal(err)
	}
	data, err := save.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestSlumberEmptyWorld(t *testing.T) {
	g := newTestGame(1)
	produced := g.Slumber(1)

	if g.CurrentYear() != 848 {
		t.Errorf("year = %d, want 848", g.CurrentYear())
	}
	if g.TotalYearsPlayed() != 1 {
		t.Errorf("total years = %d, want 1", g.TotalYearsPlayed())
	}
	if uint64(len(produced)) != g.World().Generator().Count() {
		t.Errorf("returned %d events, generator rolled %d", len(produced), g.World().Generator().Count())
	}
	if g.Exposure().Value() != 0 || g.Exposure().DecayRate() != exposure.DefaultDecayRate {
		t.Errorf("exposure = %d decay %d", g.Exposure().Value(), g.Exposure().DecayRate())
	}
	snap, ok := g.History().Latest()
	if !ok || snap.Year != 848 || snap.TotalValue != economy.DefaultStartingGold {
		t.Errorf("history snapshot = %+v, %v", snap, ok)
	}
}

func TestSlumberZeroYears(t *testing.T) {
	g := newTestGame(1)
	before := marshal(t, "game", g)
	if got := g.Slumber(0); got != nil {
		t.Errorf("zero slumber returned %d events", len(got))
	}
	if !bytes.Equal(before, marshal(t, "game", g)) {
		t.Error("zero slumber changed state")
	}
}

func TestCollapseEntersLedger(t *testing.T) {
	g := newTestGame(1)
	k := social.NewKingdom("kingdom-1", "Arel")
	k.Stability = 5
	if err := g.World().AddKingdom(k); err != nil {
		t.Fatal(err)
	}
	g.SetSource(entropy.NewScripted([]float64{0.01}, []int{0, 0, 0, 0, 0}))
	g.Slumber(1)

	if !k.Collapsed {
		t.Fatal("kingdom did not collapse")
	}
	found := g.Ledger().InCategory(LedgerEconomic)
	if len(found) != 1 || found[0].ID != "collapse:Arel" || found[0].Year != 848 {
		t.Errorf("ledger = %+v", found)
	}
}

func TestObserverSeesNotices(t *testing.T) {
	g := newTestGame(1)
	var seen int
	g.Observe(func(n notice.Notice) { seen++ })
	g.Exposure().Add(30)
	if seen != 1 {
		t.Errorf("observer saw %d notices, want 1", seen)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	g := newTestGame(5)
	for i, p := range social.SeedKingdoms()[:2] {
		if err := g.World().AddKingdom(p.Build("kingdom-" + string(rune('1'+i)))); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.World().AddCompetitor(rivals.SeedCompetitors()[0].Build("rival-1")); err != nil {
		t.Fatal(err)
	}
	g.Phylactery().AddPoints(4)
	if err := g.Phylactery().Purchase("additional-agents-1"); err != nil {
		t.Fatal(err)
	}
	for range 3 {
		if _, err := g.RecruitAgent(); err != nil {
			t.Fatal(err)
		}
	}
	core := g.Agents().Agents()[0].Base()
	core.Loyalty, core.Competence = 60, 40
	first := core.ID
	if _, err := g.Agents().RecruitSuccessor(first); err != nil {
		t.Fatal(err)
	}
	g.Exposure().SetValue(30)
	g.Ledger().Discover("crusade", LedgerHidden, 847)

	data := marshal(t, g.SaveID(), g)
	c, err := save.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	loaded := newTestGame(77)
	if err := save.ReadSection(c, loaded.SaveID(), loaded); err != nil {
		t.Fatal(err)
	}

	if loaded.CurrentYear() != g.CurrentYear() || loaded.RunID() != g.RunID() {
		t.Errorf("year/run = %d/%s, want %d/%s", loaded.CurrentYear(), loaded.RunID(), g.CurrentYear(), g.RunID())
	}
	if len(loaded.World().Kingdoms()) != 2 || len(loaded.World().Competitors()) != 1 {
		t.Errorf("kingdoms=%d competitors=%d", len(loaded.World().Kingdoms()), len(loaded.World().Competitors()))
	}
	if got, want := loaded.Agents().AgentIDs(), g.Agents().AgentIDs(); len(got) != 3 || got[0] != want[0] {
		t.Errorf("agents = %v, want %v", got, want)
	}
	holder, ok := loaded.Agents().Agent(first).(*agents.Individual)
	if !ok || holder.Successor == nil {
		t.Error("successor lost on load")
	}
	if loaded.Exposure().Value() != 30 {
		t.Errorf("exposure = %d, want 30", loaded.Exposure().Value())
	}
	if !loaded.Phylactery().Has("additional-agents-1") || loaded.Phylactery().Points() != 3 {
		t.Error("phylactery not restored")
	}
	if !loaded.Ledger().Has("crusade") {
		t.Error("ledger not restored")
	}
	if !bytes.Equal(marshal(t, loaded.SaveID(), loaded), data) {
		t.Error("reloaded game saves differently")
	}
}

func TestLoadRequiresSections(t *testing.T) {
	g := newTestGame(1)
	c := save.NewContext()
	c.BeginSection(g.SaveID())
	c.WriteUint("total-years-played", 3)
	c.EndSection()

	err := save.ReadSection(c, g.SaveID(), newTestGame(2))
	if !save.IsMissing(err) {
		t.Errorf("err = %v, want missing section", err)
	}
}

func TestPrestigePoints(t *testing.T) {
	tests := []struct {
		total float64
		want  uint64
	}{
		{500, 0}, {1000, 0}, {9999, 0}, {10000, 1}, {999999, 2}, {1_000_000, 3}, {2.5e9, 6},
	}
	for _, tt := range tests {
		if got := PrestigePoints(tt.total); got != tt.want {
			t.Errorf("PrestigePoints(%v) = %d, want %d", tt.total, got, tt.want)
		}
	}
}

func TestPrestige(t *testing.T) {
	g := newTestGame(3)
	g.Ledger().Discover("crusade", LedgerHidden, 850)
	g.Slumber(10)
	g.Portfolio().SetGold(1_000_000)
	if _, err := g.RecruitAgent(); err != nil {
		t.Fatal(err)
	}

	if got := g.Prestige(); got != 3 {
		t.Fatalf("prestige earned %d, want 3", got)
	}
	if g.CurrentYear() != engine.DefaultStartingYear {
		t.Errorf("year = %d, want %d", g.CurrentYear(), engine.DefaultStartingYear)
	}
	if g.Phylactery().Points() != 3 || !g.Ledger().Has("crusade") {
		t.Error("phylactery or ledger not retained")
	}
	if g.Portfolio().Gold() != economy.DefaultStartingGold || g.Agents().Count() != 0 || g.History().Len() != 0 {
		t.Error("run state not reset")
	}
	if g.TotalYearsPlayed() != 10 {
		t.Errorf("total years = %d, want 10", g.TotalYearsPlayed())
	}

	g.Portfolio().SetGold(500)
	if got := g.Prestige(); got != 0 {
		t.Errorf("prestige at 500 gold earned %d", got)
	}
}

func TestStartNewGame(t *testing.T) {
	g := newTestGame(4)
	if err := g.Populate(DefaultSetup()); err != nil {
		t.Fatal(err)
	}
	g.Phylactery().AddPoints(2)
	if err := g.Phylactery().Purchase("extended-slumber-1"); err != nil {
		t.Fatal(err)
	}
	g.Slumber(25)
	g.Ledger().Discover("crusade", LedgerHidden, 850)

	g.StartNewGame()
	once := marshal(t, "world", g.World())
	g.StartNewGame()
	if !bytes.Equal(once, marshal(t, "world", g.World())) {
		t.Error("second reset differs from the first")
	}

	if g.CurrentYear() != 847 || g.TotalYearsPlayed() != 0 {
		t.Errorf("year=%d total=%d", g.CurrentYear(), g.TotalYearsPlayed())
	}
	if g.Agents().Count() != 0 || len(g.World().Kingdoms()) != 0 || g.Ledger().Count() != 0 {
		t.Error("run state not cleared")
	}
	if g.Phylactery().Points() != 2 || len(g.Phylactery().Owned()) != 0 {
		t.Errorf("phylactery points=%d owned=%v, want refund", g.Phylactery().Points(), g.Phylactery().Owned())
	}
	if g.Exposure().Value() != 0 || g.Portfolio().Gold() != economy.DefaultStartingGold {
		t.Error("exposure or portfolio not reset")
	}
}

func TestPopulateAndRosterLimits(t *testing.T) {
	g := newTestGame(6)
	setup := DefaultSetup()
	setup.Agents = 10
	if err := g.Populate(setup); err != nil {
		t.Fatal(err)
	}
	if g.Agents().Count() != BaseMaxAgents {
		t.Errorf("roster = %d, want %d", g.Agents().Count(), BaseMaxAgents)
	}
	if len(g.World().Kingdoms()) != 4 || len(g.World().Regions()) != 12 || len(g.World().Competitors()) != 3 {
		t.Error("world not seeded")
	}
	if _, err := g.RecruitAgent(); !errors.Is(err, ErrRosterFull) {
		t.Errorf("recruit past limit err = %v", err)
	}
	if _, err := g.FoundFamily(""); !errors.Is(err, ErrFamiliesLocked) {
		t.Errorf("locked family err = %v", err)
	}

	g.Phylactery().AddPoints(4)
	for _, id := range []string{"family-legacy", "additional-agents-1"} {
		if err := g.Phylactery().Purchase(id); err != nil {
			t.Fatal(err)
		}
	}
	f, err := g.FoundFamily("Vandar")
	if err != nil {
		t.Fatal(err)
	}
	if f.Generation != 1 || f.FamilyName != "Vandar" || f.FoundingYear != 847 {
		t.Errorf("family = %+v", f)
	}
}

func TestResolveBetrayal(t *testing.T) {
	g := newTestGame(1)
	traitor := agents.NewIndividual("agent-1", "Daria Dunmore")
	if err := g.Agents().Add(traitor); err != nil {
		t.Fatal(err)
	}
	e := events.New("pers-1", "Betrayal", "", events.Moderate,
		&events.PersonalEffect{TargetAgentID: "agent-1", Betrayal: true})
	g.pending = append(g.pending, e)

	if _, err := g.ResolveEvent("pers-1", "turn"); !errors.Is(err, economy.ErrInsufficientGold) {
		t.Fatalf("turn without gold err = %v", err)
	}
	if e.Resolved || len(g.PendingEvents()) != 1 {
		t.Fatal("failed resolution changed the event")
	}
	if _, err := g.ResolveEvent("pers-1", "bribe"); !errors.Is(err, events.ErrNoChoice) {
		t.Errorf("unknown choice err = %v", err)
	}

	choice, err := g.ResolveEvent("pers-1", "punish")
	if err != nil {
		t.Fatal(err)
	}
	if !choice.RemovesAgent || g.Agents().Agent("agent-1") != nil {
		t.Error("punished agent still on the roster")
	}
	if _, err := g.ResolveEvent("pers-1", "punish"); !errors.Is(err, events.ErrUnknownEvent) {
		t.Errorf("resolving twice err = %v", err)
	}
}

func TestResolveRaiseDead(t *testing.T) {
	g := newTestGame(1)
	g.Portfolio().SetGold(60000)
	e := events.New("pers-2", "Untimely Death", "", events.Minor,
		&events.PersonalEffect{TargetAgentID: "agent-9", Death: true})
	g.pending = append(g.pending, e)

	if _, err := g.ResolveEvent("pers-2", "raise"); err != nil {
		t.Fatal(err)
	}
	if g.Portfolio().Gold() != 10000 {
		t.Errorf("gold = %v, want 10000", g.Portfolio().Gold())
	}
	if g.Exposure().Value() != 20 {
		t.Errorf("exposure = %d, want 20", g.Exposure().Value())
	}
}

func TestDeterministicGames(t *testing.T) {
	run := func() ([]string, []byte) {
		g := newTestGame(9)
		if err := g.Populate(DefaultSetup()); err != nil {
			t.Fatal(err)
		}
		var names []string
		for _, e := range g.Slumber(120) {
			names = append(names, e.Name)
		}
		return names, marshal(t, "world", g.World())
	}
	n1, w1 := run()
	n2, w2 := run()
	if len(n1) != len(n2) || !bytes.Equal(w1, w2) {
		t.Fatal("same seed produced different games")
	}
	for i := range n1 {
		if n1[i] != n2[i] {
			t.Fatalf("event %d: %q vs %q", i, n1[i], n2[i])
		}
	}
}

func TestPhylacteryUpgrades(t *testing.T) {
	p := NewPhylactery()
	if err := p.Purchase("nonsense"); !errors.Is(err, ErrUnknownUpgrade) {
		t.Errorf("unknown err = %v", err)
	}
	if err := p.Purchase("extended-slumber-1"); !errors.Is(err, ErrInsufficientPoints) {
		t.Errorf("unaffordable err = %v", err)
	}
	p.AddPoints(20)
	if err := p.Purchase("extended-slumber-2"); !errors.Is(err, ErrUpgradeLocked) {
		t.Errorf("locked err = %v", err)
	}
	for _, id := range []string{"extended-slumber-1", "extended-slumber-2", "extended-slumber-3"} {
		if err := p.Purchase(id); err != nil {
			t.Fatalf("%s: %v", id, err)
		}
	}
	if err := p.Purchase("extended-slumber-1"); !errors.Is(err, ErrUpgradeOwned) {
		t.Errorf("owned err = %v", err)
	}
	if p.MaxSlumberYears() != 500 || p.Level() != 2 || p.Points() != 8 {
		t.Errorf("slumber=%d level=%d points=%d", p.MaxSlumberYears(), p.Level(), p.Points())
	}

	c := save.NewContext()
	if err := p.Save(c); err != nil {
		t.Fatal(err)
	}
	save.WriteStrings(c, "upgrades", []string{"extended-slumber-1", "retired-upgrade"})
	q := NewPhylactery()
	if err := q.Load(c); err != nil {
		t.Fatal(err)
	}
	if got := q.Owned(); len(got) != 1 || got[0] != "extended-slumber-1" {
		t.Errorf("loaded upgrades = %v", got)
	}

	p.ResetUpgrades()
	if p.Points() != 20 || len(p.Owned()) != 0 {
		t.Errorf("refund: points=%d owned=%v", p.Points(), p.Owned())
	}
}

func TestLedgerDiscoverOnce(t *testing.T) {
	l := NewLedger()
	if !l.Discover("competitor:rival-1", LedgerCompetitor, 900) {
		t.Fatal("first discovery rejected")
	}
	if l.Discover("competitor:rival-1", LedgerHidden, 901) || l.Count() != 1 {
		t.Error("duplicate discovery recorded")
	}
	if l.Discover("", LedgerHidden, 901) {
		t.Error("empty id recorded")
	}

	c := save.NewContext()
	if err := l.Save(c); err != nil {
		t.Fatal(err)
	}
	m := NewLedger()
	if err := m.Load(c); err != nil {
		t.Fatal(err)
	}
	if got := m.Entries(); len(got) != 1 || got[0].Category != LedgerCompetitor || got[0].Year != 900 {
		t.Errorf("loaded = %+v", got)
	}
}
