package rivals

import (
	"maps"

	"github.com/copyleft-games/lichs-portfolio/internal/entropy"
)

// Blackboard keys.
const (
	BoardPower          = "power-level"
	BoardAggression     = "aggression"
	BoardGreed          = "greed"
	BoardCunning        = "cunning"
	BoardStance         = "stance"
	BoardTerritoryCount = "territory-count"
	BoardPlayerThreat   = "player-threat"
	BoardKnown          = "is-known"
)

// Blackboard is the competitor's working memory for decisions. Flags are
// stored as 0 or 1.
type Blackboard map[string]int

func (b Blackboard) Flag(key string) bool { return b[key] != 0 }

func (c *Competitor) syncBoard() {
	if c.board == nil {
		c.board = make(Blackboard)
	}
	c.board[BoardPower] = c.Power
	c.board[BoardAggression] = c.Aggression
	c.board[BoardGreed] = c.Greed
	c.board[BoardCunning] = c.Cunning
	c.board[BoardStance] = int(c.Stance)
	c.board[BoardTerritoryCount] = len(c.Territory)
	c.board[BoardPlayerThreat] = int(c.PlayerThreat)
	c.board[BoardKnown] = 0
	if c.Known {
		c.board[BoardKnown] = 1
	}
}

// Board returns a copy of the blackboard as of the last tick.
func (c *Competitor) Board() Blackboard { return maps.Clone(c.board) }

// Intent is what a competitor decided to attempt this year.
type Intent struct {
	Expand     bool
	Reevaluate bool
}

// Decide reads the blackboard and picks this year's intentions. The
// expansion roll always draws, so the stream advances the same way
// whatever is decided.
func Decide(b Blackboard, rng entropy.Source) Intent {
	desire := (b[BoardGreed]+b[BoardPower])/2 - b[BoardTerritoryCount]*5
	return Intent{
		Expand:     rng.IntRange(0, 100) < desire,
		Reevaluate: b[BoardCunning] > 50 && b[BoardPlayerThreat] > 30,
	}
}

// Preset is a starting personality for a competitor.
type Preset struct {
	Name       string
	Kind       Kind
	Power      int
	Aggression int
	Greed      int
	Cunning    int
}

// Build returns a competitor with the preset's personality.
func (p Preset) Build(id string) *Competitor {
	c := New(id, p.Name, p.Kind)
	c.SetPower(p.Power)
	c.SetAggression(p.Aggression)
	c.SetGreed(p.Greed)
	c.SetCunning(p.Cunning)
	return c
}

var presets = []Preset{
	{Name: "Drakorath", Kind: Dragon, Power: 72, Aggression: 68, Greed: 80, Cunning: 40},
	{Name: "Countess Sevrine", Kind: Vampire, Power: 55, Aggression: 45, Greed: 60, Cunning: 70},
	{Name: "The Hollow Magister", Kind: Lich, Power: 60, Aggression: 35, Greed: 55, Cunning: 82},
	{Name: "The Thorn Queen", Kind: Fae, Power: 48, Aggression: 40, Greed: 66, Cunning: 75},
	{Name: "Azhrael", Kind: Demon, Power: 66, Aggression: 80, Greed: 72, Cunning: 52},
}

// SeedCompetitors returns the standard rival roster.
func SeedCompetitors() []Preset { return append([]Preset(nil), presets...) }
