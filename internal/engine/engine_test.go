package engine

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/copyleft-games/lichs-portfolio/internal/economy"
	"github.com/copyleft-games/lichs-portfolio/internal/entropy"
	"github.com/copyleft-games/lichs-portfolio/internal/events"
	"github.com/copyleft-games/lichs-portfolio/internal/exposure"
	"github.com/copyleft-games/lichs-portfolio/internal/notice"
	"github.com/copyleft-games/lichs-portfolio/internal/rivals"
	"github.com/copyleft-games/lichs-portfolio/internal/save"
	"github.com/copyleft-games/lichs-portfolio/internal/social"
	"github.com/copyleft-games/lichs-portfolio/internal/world"
)

var fixedClock = func() time.Time { return time.Unix(1700000000, 0) }

func newTestSim(seed uint64) *Simulation {
	s := New(entropy.New(seed))
	s.Generator().SetClock(fixedClock)
	return s
}

// quiet returns a source that never passes a roll once its queues drain.
func quiet(floats []float64, ints []int) *entropy.Scripted {
	return entropy.NewScripted(floats, ints)
}

func TestEmptyWorldAdvance(t *testing.T) {
	s := newTestSim(1)
	s.SetSource(quiet(nil, nil))

	produced := s.AdvanceYear()
	if s.CurrentYear() != 848 {
		t.Fatalf("year = %d, want 848", s.CurrentYear())
	}
	if len(produced) != 0 || len(s.ActiveEvents()) != 0 {
		t.Errorf("quiet year produced %d events", len(produced))
	}
}

func TestAdvanceZeroYears(t *testing.T) {
	s := newTestSim(1)
	if err := s.Seed(DefaultScenario()); err != nil {
		t.Fatal(err)
	}
	before := snapshot(t, s)
	if got := s.AdvanceYears(0); len(got) != 0 {
		t.Errorf("zero years produced %d events", len(got))
	}
	if !bytes.Equal(before, snapshot(t, s)) {
		t.Error("state changed after advancing zero years")
	}
}

func TestKingdomCollapse(t *testing.T) {
	s := newTestSim(1)
	log := notice.NewLog()
	s.SetSink(log)

	k := social.NewKingdom("kingdom-1", "Arel")
	k.Stability = 5
	if err := s.AddKingdom(k); err != nil {
		t.Fatal(err)
	}
	r := world.NewRegion("region-01", "Greywater", world.Inland)
	r.Population = 1000
	if err := s.AddRegion(r); err != nil {
		t.Fatal(err)
	}
	if err := s.AssignRegion(k.ID, r.ID); err != nil {
		t.Fatal(err)
	}

	// Five zero drifts keep stability at 5; 0.01 passes the 0.125 collapse roll.
	s.SetSource(quiet([]float64{0.01}, []int{0, 0, 0, 0, 0}))
	s.AdvanceYear()

	if !k.Collapsed {
		t.Fatal("kingdom did not collapse")
	}
	if r.Population >= 1000 {
		t.Errorf("region population = %d, want devastation", r.Population)
	}
	if log.Count(notice.KingdomCollapsed) != 1 {
		t.Errorf("collapse notices = %d", log.Count(notice.KingdomCollapsed))
	}
	if ids := s.KingdomIDs(); len(ids) != 0 {
		t.Errorf("collapsed kingdom still standing: %v", ids)
	}

	dynasty := k.DynastyYears
	s.SetSource(quiet(nil, nil))
	s.AdvanceYears(5)
	if k.DynastyYears != dynasty {
		t.Error("collapsed kingdom kept ticking")
	}
}

func TestWarDeclaredAndMirrored(t *testing.T) {
	s := newTestSim(1)
	a := social.NewKingdom("kingdom-1", "Vhorsk")
	a.Military = 80
	b := social.NewKingdom("kingdom-2", "Arel")
	b.Military = 40
	for _, k := range []*social.Kingdom{a, b} {
		if err := s.AddKingdom(k); err != nil {
			t.Fatal(err)
		}
	}

	// a: five drifts then a passing war roll. b then rolls a failing war end.
	s.SetSource(quiet([]float64{0}, []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0}))
	s.AdvanceYear()

	if a.AtWarWith != b.ID || b.AtWarWith != a.ID {
		t.Fatalf("war not mirrored: a=%q b=%q", a.AtWarWith, b.AtWarWith)
	}
	if a.Relation(b.ID) != social.War || b.Relation(a.ID) != social.War {
		t.Error("relations not set to War")
	}
}

func TestWarEnds(t *testing.T) {
	s := newTestSim(1)
	a := social.NewKingdom("kingdom-1", "Vhorsk")
	a.Military = 70
	b := social.NewKingdom("kingdom-2", "Arel")
	b.Military = 40
	for _, k := range []*social.Kingdom{a, b} {
		if err := s.AddKingdom(k); err != nil {
			t.Fatal(err)
		}
	}
	if !s.BeginWar(a.ID) {
		t.Fatal("BeginWar refused")
	}
	bMilitary := b.Military

	s.SetSource(quiet([]float64{0.1}, []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0}))
	s.AdvanceYear()

	if a.AtWar() || b.AtWar() {
		t.Fatalf("war still running: a=%q b=%q", a.AtWarWith, b.AtWarWith)
	}
	if a.Relation(b.ID) != social.Rivalry || b.Relation(a.ID) != social.Rivalry {
		t.Error("former enemies should be rivals")
	}
	if b.Military >= bMilitary {
		t.Errorf("loser military = %d, want below %d", b.Military, bMilitary)
	}
}

func TestWarTargetSkipsAlliesAndBelligerents(t *testing.T) {
	s := newTestSim(1)
	for i, m := range []int{80, 20, 30, 40} {
		k := social.NewKingdom("kingdom-"+string(rune('1'+i)), "K")
		k.Military = m
		if err := s.AddKingdom(k); err != nil {
			t.Fatal(err)
		}
	}
	s.SetRelation("kingdom-1", "kingdom-2", social.Alliance)
	s.Kingdom("kingdom-3").AtWarWith = "elsewhere"

	got := s.warTarget(s.Kingdom("kingdom-1"))
	if got == nil || got.ID != "kingdom-4" {
		t.Fatalf("target = %v, want kingdom-4", got)
	}
	if s.Kingdom("kingdom-2").Relation("kingdom-1") != social.Alliance {
		t.Error("SetRelation is not symmetric")
	}

	s.Kingdom("kingdom-4").Collapse()
	if got := s.warTarget(s.Kingdom("kingdom-1")); got != nil {
		t.Errorf("target = %s, want none", got.ID)
	}
	if s.BeginWar("kingdom-1") {
		t.Error("BeginWar succeeded without a target")
	}
	if s.BeginWar("missing") {
		t.Error("BeginWar succeeded for unknown kingdom")
	}
}

func TestCrusadeRaisesExposure(t *testing.T) {
	s := newTestSim(1)
	g := exposure.New()
	g.SetValue(60)
	s.AttachExposure(g)

	k := social.NewKingdom("kingdom-1", "Holy See of Caldris")
	k.Tolerance = 10
	if err := s.AddKingdom(k); err != nil {
		t.Fatal(err)
	}

	s.SetSource(quiet([]float64{0}, []int{0, 0, 0, 0, 0}))
	s.AdvanceYear()

	if g.Value() != 75 {
		t.Errorf("exposure = %d, want 75", g.Value())
	}
}

type roster struct{ ids []string }

func (r *roster) AgentIDs() []string { return r.ids }
func (r *roster) Remove(id string) bool {
	for i, x := range r.ids {
		if x == id {
			r.ids = append(r.ids[:i], r.ids[i+1:]...)
			return true
		}
	}
	return false
}

func TestPersonalEventsSkipRemovedAgents(t *testing.T) {
	s := newTestSim(1)
	g := exposure.New()
	s.AttachExposure(g)
	r := &roster{ids: []string{"agent-1", "agent-2"}}
	s.AttachRoster(r)

	// Both picked agent-1 when the year's events were generated.
	s.occur(events.New("pers-1", "Assassination", "", events.Major,
		&events.PersonalEffect{TargetAgentID: "agent-1", Death: true}))
	s.occur(events.New("pers-2", "Betrayal", "", events.Moderate,
		&events.PersonalEffect{TargetAgentID: "agent-1", Betrayal: true}))
	if len(r.ids) != 1 || r.ids[0] != "agent-2" {
		t.Fatalf("roster = %v", r.ids)
	}
	if g.Value() != 0 {
		t.Errorf("exposure = %d, dead agent betrayed the lich", g.Value())
	}

	s.occur(events.New("pers-3", "Betrayal", "", events.Moderate,
		&events.PersonalEffect{TargetAgentID: "agent-2", Betrayal: true}))
	if g.Value() != uint(events.BetrayalExposure) {
		t.Errorf("exposure = %d, want %d", g.Value(), events.BetrayalExposure)
	}
}

func TestNoCrusadeWhileHidden(t *testing.T) {
	s := newTestSim(1)
	g := exposure.New()
	g.SetValue(10)
	s.AttachExposure(g)
	k := social.NewKingdom("kingdom-1", "Holy See of Caldris")
	k.Tolerance = 0
	if err := s.AddKingdom(k); err != nil {
		t.Fatal(err)
	}

	src := quiet([]float64{0}, []int{0, 0, 0, 0, 0})
	s.SetSource(src)
	s.AdvanceYear()

	if g.Value() != 10 {
		t.Errorf("exposure = %d, want 10", g.Value())
	}
}

func TestPhaseAndGrowth(t *testing.T) {
	tests := []struct {
		year   uint64
		phase  uint
		growth float64
	}{
		{0, PhaseExpansion, 1.03},
		{12, PhasePeak, 1.01},
		{24, PhaseContraction, 0.98},
		{47, PhaseTrough, 0.99},
		{48, PhaseExpansion, 1.03},
	}
	s := newTestSim(1)
	for _, tt := range tests {
		s.SetCurrentYear(tt.year)
		if s.Phase() != tt.phase {
			t.Errorf("year %d: phase = %d, want %d", tt.year, s.Phase(), tt.phase)
		}
		if math.Abs(s.GrowthRate()-tt.growth) > 1e-12 {
			t.Errorf("year %d: growth = %v, want %v", tt.year, s.GrowthRate(), tt.growth)
		}
	}

	s.SetBaseGrowthRate(2)
	s.SetCurrentYear(12)
	if math.Abs(s.GrowthRate()-2.02) > 1e-12 {
		t.Errorf("scaled growth = %v", s.GrowthRate())
	}
	if PhaseMultiplier(9) != 1.0 || PhaseName(9) != "Unknown" {
		t.Error("unknown phase should be neutral")
	}
}

func TestMarketModifierFromActiveEvents(t *testing.T) {
	s := newTestSim(1)
	boom := events.New("econ-1", "Spice Boom", "", events.Moderate,
		&events.EconomicEffect{MarketModifier: 1.5, Class: economy.Trade})
	boom.SetDuration(3)
	s.occur(boom)

	caravan := economy.NewInvestment("inv-1", "Caravan", economy.Trade, economy.Low, 847, 100)
	land := economy.NewInvestment("inv-2", "Manor", economy.Property, economy.Low, 847, 100)
	if got := s.InvestmentModifier(caravan); got != 1.5 {
		t.Errorf("trade modifier = %v, want 1.5", got)
	}
	if got := s.InvestmentModifier(land); got != 1.0 {
		t.Errorf("property modifier = %v, want 1.0", got)
	}
	if s.Event("econ-1") == nil {
		t.Fatal("lasting event not active")
	}

	s.SetSource(quiet(nil, nil))
	s.AdvanceYears(3)
	if len(s.ActiveEvents()) != 0 {
		t.Errorf("event still active after its duration")
	}
	if got := s.InvestmentModifier(caravan); got != 1.0 {
		t.Errorf("modifier after expiry = %v", got)
	}
}

func TestExpansionCandidates(t *testing.T) {
	s := newTestSim(1)
	coords := world.Spiral(7)
	for i, c := range coords {
		r := world.NewRegion("region-"+string(rune('a'+i)), "R", world.Inland)
		r.Coord = c
		if err := s.AddRegion(r); err != nil {
			t.Fatal(err)
		}
	}
	c := rivals.New("rival-1", "Drakorath", rivals.Dragon)
	other := rivals.New("rival-2", "Azhrael", rivals.Demon)
	for _, x := range []*rivals.Competitor{c, other} {
		if err := s.AddCompetitor(x); err != nil {
			t.Fatal(err)
		}
	}

	if got := s.ExpansionCandidates(c); len(got) != 7 {
		t.Fatalf("empty territory: %d candidates, want 7", len(got))
	}

	other.AddTerritory("region-a")
	c.AddTerritory("region-b")
	got := s.ExpansionCandidates(c)
	for _, id := range got {
		if id == "region-a" {
			t.Error("region held by another rival offered")
		}
		r := s.Region(id)
		if !world.Adjacent(r.Coord, s.Region("region-b").Coord) {
			t.Errorf("%s does not border held territory", id)
		}
	}
	if len(got) == 0 {
		t.Error("no bordering candidates")
	}

	other.Destroy()
	for _, id := range s.ExpansionCandidates(other) {
		if id == "region-b" {
			t.Error("region held by an active rival offered")
		}
	}
}

func TestDuplicateIDs(t *testing.T) {
	s := newTestSim(1)
	if err := s.AddKingdom(social.NewKingdom("k", "A")); err != nil {
		t.Fatal(err)
	}
	if err := s.AddKingdom(social.NewKingdom("k", "B")); !errors.Is(err, ErrDuplicateKingdom) {
		t.Errorf("duplicate kingdom err = %v", err)
	}
	if err := s.AddRegion(world.NewRegion("r", "R", world.Coastal)); err != nil {
		t.Fatal(err)
	}
	if err := s.AddRegion(world.NewRegion("r", "R", world.Coastal)); !errors.Is(err, ErrDuplicateRegion) {
		t.Errorf("duplicate region err = %v", err)
	}
	if err := s.AddCompetitor(rivals.New("c", "C", rivals.Fae)); err != nil {
		t.Fatal(err)
	}
	if err := s.AddCompetitor(rivals.New("c", "C", rivals.Fae)); !errors.Is(err, ErrDuplicateCompetitor) {
		t.Errorf("duplicate competitor err = %v", err)
	}
	if err := s.RemoveCompetitor("nobody"); !errors.Is(err, ErrUnknownCompetitor) {
		t.Errorf("remove unknown err = %v", err)
	}
	if err := s.AssignRegion("k", "nowhere"); !errors.Is(err, ErrUnknownRegion) {
		t.Errorf("assign unknown region err = %v", err)
	}
	if err := s.AssignRegion("nobody", "r"); !errors.Is(err, social.ErrUnknownKingdom) {
		t.Errorf("assign to unknown kingdom err = %v", err)
	}

	if err := s.AssignRegion("k", "r"); err != nil {
		t.Fatal(err)
	}
	s.RemoveKingdom("k")
	if s.Region("r").HasOwner() {
		t.Error("region kept the removed kingdom as owner")
	}
}

func TestSeedScenario(t *testing.T) {
	s := newTestSim(1)
	if err := s.Seed(DefaultScenario()); err != nil {
		t.Fatal(err)
	}
	if len(s.Kingdoms()) != 4 || len(s.Regions()) != 12 || len(s.Competitors()) != 3 {
		t.Fatalf("seeded %d kingdoms, %d regions, %d competitors",
			len(s.Kingdoms()), len(s.Regions()), len(s.Competitors()))
	}
	for _, r := range s.Regions() {
		k := s.Kingdom(r.OwnerID)
		if k == nil || !k.OwnsRegion(r.ID) {
			t.Errorf("region %s owner %q not consistent", r.ID, r.OwnerID)
		}
	}
	arel, league := s.Kingdom("kingdom-1"), s.Kingdom("kingdom-3")
	if arel.Relation(league.ID) != social.Alliance || league.Relation(arel.ID) != social.Alliance {
		t.Error("starting alliance not symmetric")
	}

	small := newTestSim(1)
	if err := small.Seed(Scenario{Kingdoms: 99, Regions: 1, Competitors: -1}); err != nil {
		t.Fatal(err)
	}
	if len(small.Kingdoms()) != len(social.SeedKingdoms()) || len(small.Competitors()) != 0 {
		t.Error("scenario sizes not capped")
	}
}

func TestDeterministicHistory(t *testing.T) {
	run := func() []byte {
		s := newTestSim(42)
		if err := s.Seed(DefaultScenario()); err != nil {
			t.Fatal(err)
		}
		s.AdvanceYears(150)
		return snapshot(t, s)
	}
	if !bytes.Equal(run(), run()) {
		t.Error("same seed produced different histories")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	src := newTestSim(7)
	if err := src.Seed(DefaultScenario()); err != nil {
		t.Fatal(err)
	}
	src.AdvanceYears(60)
	plague := events.New("magi-1", "Blood Moon", "", events.Major, &events.MagicalEffect{ExposureImpact: 20})
	plague.SetDuration(5)
	src.occur(plague)
	data := snapshot(t, src)

	c, err := save.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	dst := newTestSim(99)
	if err := save.ReadSection(c, dst.SaveID(), dst); err != nil {
		t.Fatal(err)
	}
	if dst.CurrentYear() != src.CurrentYear() || dst.Phase() != src.Phase() {
		t.Fatalf("year/phase = %d/%d, want %d/%d", dst.CurrentYear(), dst.Phase(), src.CurrentYear(), src.Phase())
	}
	if len(src.ActiveEvents()) == 0 || len(dst.ActiveEvents()) != len(src.ActiveEvents()) {
		t.Errorf("active events = %d, want %d", len(dst.ActiveEvents()), len(src.ActiveEvents()))
	}
	if !bytes.Equal(snapshot(t, dst), data) {
		t.Error("reloaded world saves differently")
	}

	src.AdvanceYears(40)
	dst.AdvanceYears(40)
	if !bytes.Equal(snapshot(t, src), snapshot(t, dst)) {
		t.Error("reloaded world diverged from the original")
	}
}

func TestHooksCadence(t *testing.T) {
	s := newTestSim(1)
	s.SetCurrentYear(895)
	s.SetSource(quiet(nil, nil))
	var years, decades, eras int
	s.Hooks = Hooks{
		OnYear:   func(uint64, []*events.Event) { years++ },
		OnDecade: func(uint64) { decades++ },
		OnEra:    func(uint64) { eras++ },
	}
	s.AdvanceYears(15)
	if years != 15 || decades != 2 || eras != 1 {
		t.Errorf("hooks ran %d/%d/%d, want 15/2/1", years, decades, eras)
	}
}

func snapshot(t *testing.T, s *Simulation) []byte {
	t.Helper()
	c := save.NewContext()
	if err := save.WriteSection(c, s.SaveID(), s); err != nil {
		t.Fatal(err)
	}
	data, err := save.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
