package rivals

import (
	"errors"
	"testing"

	"github.com/copyleft-games/lichs-portfolio/internal/entropy"
	"github.com/copyleft-games/lichs-portfolio/internal/events"
	"github.com/copyleft-games/lichs-portfolio/internal/notice"
	"github.com/copyleft-games/lichs-portfolio/internal/save"
)

type regions []string

func (r regions) ExpansionCandidates(*Competitor) []string { return append([]string(nil), r...) }

func TestTickExpands(t *testing.T) {
	c := New("c1", "Drakorath", Dragon)
	log := notice.NewLog()
	c.SetSink(log)
	// desire (50+50)/2 = 50; roll 49 expands, picks candidate 1, power +2
	c.Tick(entropy.NewScripted(nil, []int{49, 1, 2}), regions{"r1", "r2"})
	if len(c.Territory) != 1 || c.Territory[0] != "r2" {
		t.Fatalf("territory = %v", c.Territory)
	}
	if c.Power != 52 {
		t.Errorf("power = %d", c.Power)
	}
	if log.Count(notice.TerritoryExpanded) != 1 {
		t.Error("expansion notice missing")
	}
	if b := c.Board(); b[BoardTerritoryCount] != 0 || b[BoardPower] != 50 {
		t.Errorf("board = %v", b)
	}

	// desire now (50+52)/2 - 5 = 46; roll 46 stays home
	c.Tick(entropy.NewScripted(nil, []int{46, 0}), regions{"r1"})
	if len(c.Territory) != 1 {
		t.Errorf("expanded on a failed roll: %v", c.Territory)
	}
}

func TestExpandWithoutRoom(t *testing.T) {
	c := New("c1", "Azhrael", Demon)
	c.AddTerritory("r1")
	if c.ExpandTerritory(entropy.New(1), regions{"r1"}) {
		t.Error("expanded into held territory")
	}
	if c.ExpandTerritory(entropy.New(1), nil) {
		t.Error("expanded without a world")
	}
}

func TestTickClamps(t *testing.T) {
	c := New("c1", "Azhrael", Demon)
	rng := entropy.New(5)
	world := regions{"r1", "r2", "r3", "r4"}
	for i := 0; i < 400; i++ {
		c.SetPlayerThreat(uint(i % 101))
		c.Tick(rng, world)
		c.ReactToEvent(events.New("e", "x", "", events.Catastrophic, &events.MagicalEffect{}))
		for _, v := range []int{c.Power, c.Aggression, c.Greed, c.Cunning} {
			if v < minTrait || v > maxTrait {
				t.Fatalf("tick %d: trait %d out of range", i, v)
			}
		}
		seen := make(map[string]bool)
		for _, r := range c.Territory {
			if seen[r] {
				t.Fatalf("duplicate territory %s", r)
			}
			seen[r] = true
		}
	}
}

func TestInactiveSkipsTick(t *testing.T) {
	c := New("c1", "Sevrine", Vampire)
	c.Destroy()
	c.Destroy()
	rng := entropy.NewScripted(nil, []int{0, 0, 2})
	c.Tick(rng, regions{"r1"})
	if _, ints := rng.Pending(); ints != 3 {
		t.Error("inactive competitor drew from the rng")
	}
	c.ReactToEvent(events.New("e", "x", "", events.Major, &events.PoliticalEffect{}))
	if c.Power != 50 {
		t.Error("inactive competitor reacted")
	}
}

func TestStanceEvaluation(t *testing.T) {
	tests := []struct {
		name                       string
		aggression, greed, cunning int
		threat                     uint
		want                       Stance
	}{
		{"hostile", 70, 50, 50, 40, Hostile},                 // 70+20
		{"wary", 50, 50, 50, 40, Wary},                       // 50+20
		{"measured", 50, 50, 65, 40, Neutral},                // 70-20
		{"greedy partner", 30, 80, 50, 40, Friendly},         // 30+20-10
		{"greedy rival", 65, 80, 50, 60, Hostile},            // 65+30+10
		{"too low keeps stance", 10, 50, 65, 0, Unknown},     // 10-20
		{"boundary 80 is wary", 60, 50, 50, 40, Wary},        // 60+20
		{"boundary 20 keeps stance", 40, 50, 65, 0, Unknown}, // 40-20
	}
	for _, tt := range tests {
		c := New("c", "C", Lich)
		c.Aggression, c.Greed, c.Cunning = tt.aggression, tt.greed, tt.cunning
		c.SetPlayerThreat(tt.threat)
		c.EvaluateStance()
		if c.Stance != tt.want {
			t.Errorf("%s: stance = %v (hostility %d), want %v", tt.name, c.Stance, c.Hostility(), tt.want)
		}
	}
}

func TestAllianceIsSticky(t *testing.T) {
	c := New("c", "C", Fae)
	log := notice.NewLog()
	c.SetSink(log)
	c.ProposeAlliance()
	c.AcceptAlliance()
	c.Aggression = 100
	c.SetPlayerThreat(100)
	c.EvaluateStance()
	if c.Stance != Allied {
		t.Errorf("stance = %v", c.Stance)
	}
	c.DeclareConflict()
	if c.Stance != Hostile {
		t.Errorf("after conflict stance = %v", c.Stance)
	}
	if log.Count(notice.AllianceProposed) != 1 || log.Count(notice.ConflictDeclared) != 1 ||
		log.Count(notice.StanceChanged) != 2 {
		t.Errorf("notices: %v", log.Entries())
	}
}

func TestReactToEvent(t *testing.T) {
	ev := func(k events.Kind, s events.Severity) *events.Event {
		var eff events.Effect
		switch k {
		case events.Political:
			eff = &events.PoliticalEffect{}
		case events.Magical:
			eff = &events.MagicalEffect{}
		default:
			eff = &events.EconomicEffect{}
		}
		return events.New("e", "x", "", s, eff)
	}
	tests := []struct {
		kind  Kind
		event *events.Event
		trait func(*Competitor) int
		want  int
	}{
		{Dragon, ev(events.Political, events.Major), func(c *Competitor) int { return c.Aggression }, 60},
		{Dragon, ev(events.Political, events.Moderate), func(c *Competitor) int { return c.Aggression }, 50},
		{Vampire, ev(events.Political, events.Moderate), func(c *Competitor) int { return c.Power }, 55},
		{Lich, ev(events.Magical, events.Minor), func(c *Competitor) int { return c.Cunning }, 55},
		{Fae, ev(events.Magical, events.Moderate), func(c *Competitor) int { return c.Greed }, 50},
		{Fae, ev(events.Magical, events.Major), func(c *Competitor) int { return c.Greed }, 60},
		{Demon, ev(events.Economic, events.Catastrophic), func(c *Competitor) int { return c.Aggression }, 65},
		{Demon, ev(events.Economic, events.Major), func(c *Competitor) int { return c.Aggression }, 50},
	}
	for _, tt := range tests {
		c := New("c", "C", tt.kind)
		c.ReactToEvent(tt.event)
		if got := tt.trait(c); got != tt.want {
			t.Errorf("%v on %v: trait = %d, want %d", tt.kind, tt.event, got, tt.want)
		}
	}
}

func TestDiscoverOnce(t *testing.T) {
	c := New("c", "C", Lich)
	log := notice.NewLog()
	c.SetSink(log)
	c.Discover()
	c.Discover()
	if !c.Known || log.Count(notice.CompetitorDiscovered) != 1 {
		t.Errorf("known=%v notices=%d", c.Known, log.Count(notice.CompetitorDiscovered))
	}
}

func TestTerritory(t *testing.T) {
	c := New("c", "C", Dragon)
	if !c.AddTerritory("r1") || c.AddTerritory("r1") {
		t.Error("add territory")
	}
	if !c.RemoveTerritory("r1") || c.RemoveTerritory("r1") {
		t.Error("remove territory")
	}
}

func TestCompetitorSaveLoad(t *testing.T) {
	c := SeedCompetitors()[2].Build("rival-lich")
	c.Discover()
	c.SetStance(Wary)
	c.SetPlayerThreat(44)
	c.AddTerritory("region-03")
	c.AddTerritory("region-07")

	ctx := save.NewContext()
	if err := save.WriteSection(ctx, "competitor", c); err != nil {
		t.Fatal(err)
	}
	back := &Competitor{}
	if err := save.ReadSection(ctx, "competitor", back); err != nil {
		t.Fatal(err)
	}
	if back.ID != c.ID || back.Kind != Lich || back.Stance != Wary || back.Cunning != 82 ||
		!back.Known || !back.Active || back.PlayerThreat != 44 || len(back.Territory) != 2 {
		t.Errorf("loaded %+v", back)
	}

	bad := save.NewContext()
	bad.WriteInt("competitor-type", 9)
	if err := (&Competitor{}).Load(bad); !errors.Is(err, save.ErrUnknownType) {
		t.Errorf("bad type: %v", err)
	}
}
