// Package agents provides the player's mortal servants: individual
// agents who age, die and hand their work to a successor, and families
// whose heads come and go while the bloodline endures.
package agents

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/copyleft-games/lichs-portfolio/internal/entropy"
	"github.com/copyleft-games/lichs-portfolio/internal/notice"
	"github.com/copyleft-games/lichs-portfolio/internal/save"
)

// Type discriminates agent variants on the wire.
type Type uint8

const (
	TypeIndividual Type = 0
	TypeFamily     Type = 1
	TypeCult       Type = 2 // reserved
	TypeBound      Type = 3 // reserved
)

var typeNames = [...]string{"Individual", "Family", "Cult", "Bound"}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Type(" + strconv.Itoa(int(t)) + ")"
}

// CoverStatus is how well an agent's ties to the player stay hidden.
type CoverStatus uint8

const (
	Secure CoverStatus = iota
	Suspicious
	Compromised
	Exposed
)

var coverNames = [...]string{"Secure", "Suspicious", "Compromised", "Exposed"}

func (s CoverStatus) String() string {
	if int(s) < len(coverNames) {
		return coverNames[s]
	}
	return "CoverStatus(" + strconv.Itoa(int(s)) + ")"
}

// KnowledgeLevel is how much the agent knows about whom they serve.
type KnowledgeLevel uint8

const (
	KnowsNothing KnowledgeLevel = iota
	KnowsSuspicious
	KnowsAware
	KnowsFull
)

var knowledgeNames = [...]string{"None", "Suspicious", "Aware", "Full"}

func (k KnowledgeLevel) String() string {
	if int(k) < len(knowledgeNames) {
		return knowledgeNames[k]
	}
	return "KnowledgeLevel(" + strconv.Itoa(int(k)) + ")"
}

// Aging switches the optional yearly loyalty rolls.
type Aging struct {
	Erosion  bool // knowing agents slowly lose loyalty
	Betrayal bool // disloyal agents may turn
}

// DefaultAging enables both rolls.
var DefaultAging = Aging{Erosion: true, Betrayal: true}

// Agent is the capability set shared by every variant.
type Agent interface {
	save.Saveable
	Base() *Core
	Type() Type
	Alive() bool
	// YearPassed ages the agent one year.
	YearPassed(rng entropy.Source, aging Aging)
	CanRecruit() bool
	SetSink(s notice.Sink)
}

const (
	defaultAge        = 25
	defaultMaxAge     = 70
	defaultLoyalty    = 50
	defaultCompetence = 50
	maxStat           = 100
)

func clampStat(v int) int { return min(maxStat, max(0, v)) }

// Core holds the state every agent carries.
type Core struct {
	ID          string
	Name        string
	Age         uint
	MaxAge      uint
	Loyalty     int
	Competence  int
	Cover       CoverStatus
	Knowledge   KnowledgeLevel
	Traits      []*Trait
	Investments []string

	sink notice.Sink
}

func newCore(id, name string) Core {
	return Core{
		ID:         id,
		Name:       name,
		Age:        defaultAge,
		MaxAge:     defaultMaxAge,
		Loyalty:    defaultLoyalty,
		Competence: defaultCompetence,
		sink:       notice.Discard,
	}
}

func (c *Core) Base() *Core { return c }

func (c *Core) SetSink(s notice.Sink) { c.sink = notice.Or(s) }

func (c *Core) notify(kind notice.Kind, detail, from, to string) {
	notice.Or(c.sink).Notify(notice.Notice{Kind: kind, Subject: c.ID, Detail: detail, From: from, To: to})
}

// Alive reports whether the agent is still short of their final year.
func (c *Core) Alive() bool { return c.Age < c.MaxAge }

// YearsRemaining is zero for the dead.
func (c *Core) YearsRemaining() uint {
	if !c.Alive() {
		return 0
	}
	return c.MaxAge - c.Age
}

func (c *Core) SetLoyalty(v int)    { c.Loyalty = clampStat(v) }
func (c *Core) SetCompetence(v int) { c.Competence = clampStat(v) }

// SetCover changes cover status. Exposure is final.
func (c *Core) SetCover(s CoverStatus) { c.Cover = min(s, Exposed) }

func (c *Core) SetKnowledge(k KnowledgeLevel) { c.Knowledge = min(k, KnowsFull) }

// ageOneYear advances age and runs the loyalty rolls. It reports true on
// the year the agent reaches their maximum age, before any roll.
func (c *Core) ageOneYear(rng entropy.Source, aging Aging) bool {
	c.Age++
	if c.Age >= c.MaxAge {
		slog.Debug("agent reached end of life", "agent", c.ID, "age", c.Age)
		return true
	}
	if aging.Erosion {
		c.erodeLoyalty(rng)
	}
	if aging.Betrayal && c.RollBetrayal(rng) {
		c.betray()
	}
	return false
}

// Agents who know what they serve lose faith a little at a time.
func (c *Core) erodeLoyalty(rng entropy.Source) {
	var chance int
	switch c.Knowledge {
	case KnowsSuspicious:
		chance = 10
	case KnowsAware:
		chance = 20
	case KnowsFull:
		chance = 30
	default:
		return
	}
	if rng.IntRange(0, 100) < chance {
		c.SetLoyalty(c.Loyalty - 1)
	}
}

// BetrayalChance is the yearly percent chance the agent turns.
func (c *Core) BetrayalChance() int {
	divisor := [...]int{10, 5, 2, 1}[min(c.Knowledge, KnowsFull)]
	return min(25, max(0, (maxStat-c.Loyalty)/divisor))
}

// RollBetrayal draws once against BetrayalChance.
func (c *Core) RollBetrayal(rng entropy.Source) bool {
	return rng.IntRange(0, 100) < c.BetrayalChance()
}

func (c *Core) betray() {
	old := c.Cover
	c.SetCover(c.Cover + 1)
	slog.Warn("agent betrayed the player", "agent", c.ID, "knowledge", c.Knowledge)
	c.notify(notice.AgentBetrayed, c.Name, old.String(), c.Cover.String())
}

// IncomeModifier scales the income of the agent's assigned investments.
func (c *Core) IncomeModifier() float64 {
	mod := 0.5 + float64(c.Competence)/100
	for _, t := range c.Traits {
		mod *= t.IncomeModifier
	}
	return mod
}

// ExposureContribution is what the agent adds to the player's exposure.
func (c *Core) ExposureContribution() uint {
	var base uint
	switch c.Cover {
	case Suspicious:
		base = 2
	case Compromised:
		base = 5
	case Exposed:
		base = 10
	}
	switch c.Knowledge {
	case KnowsSuspicious:
		return base * 3 / 2
	case KnowsAware:
		return base * 2
	case KnowsFull:
		return base * 3
	}
	return base
}

// CanRecruit reports whether the agent is fit to bring someone in.
func (c *Core) CanRecruit() bool {
	return c.Loyalty >= 50 && c.Competence >= 30 && c.Cover != Exposed
}

func (c *Core) HasTrait(id string) bool { return hasTraitID(c.Traits, id) }

// AddTrait gives the agent a trait unless it is already held or the
// agent is full.
func (c *Core) AddTrait(t *Trait) bool {
	if t == nil || len(c.Traits) >= MaxTraits || c.HasTrait(t.ID) {
		return false
	}
	c.Traits = append(c.Traits, t)
	return true
}

func (c *Core) RemoveTrait(id string) bool {
	i := slices.IndexFunc(c.Traits, func(t *Trait) bool { return t.ID == id })
	if i < 0 {
		return false
	}
	c.Traits = slices.Delete(c.Traits, i, i+1)
	return true
}

// AssignInvestment puts the agent in charge of an investment.
func (c *Core) AssignInvestment(id string) bool {
	if id == "" || slices.Contains(c.Investments, id) {
		return false
	}
	c.Investments = append(c.Investments, id)
	return true
}

func (c *Core) UnassignInvestment(id string) bool {
	i := slices.Index(c.Investments, id)
	if i < 0 {
		return false
	}
	c.Investments = slices.Delete(c.Investments, i, i+1)
	return true
}

func (c *Core) String() string {
	return fmt.Sprintf("%s (age %d/%d, loyalty %d, competence %d, %s)",
		c.Name, c.Age, c.MaxAge, c.Loyalty, c.Competence, c.Cover)
}

func (c *Core) saveCore(ctx *save.Context, typ Type) error {
	ctx.WriteInt("agent-type", int64(typ))
	ctx.WriteString("id", c.ID)
	ctx.WriteString("name", c.Name)
	ctx.WriteUint("age", uint64(c.Age))
	ctx.WriteUint("max-age", uint64(c.MaxAge))
	ctx.WriteInt("loyalty", int64(c.Loyalty))
	ctx.WriteInt("competence", int64(c.Competence))
	ctx.WriteInt("cover-status", int64(c.Cover))
	ctx.WriteInt("knowledge-level", int64(c.Knowledge))
	save.WriteStrings(ctx, "investments", c.Investments)
	return saveTraits(ctx, "traits", c.Traits)
}

func (c *Core) loadCore(ctx *save.Context) error {
	c.ID = ctx.ReadString("id", "")
	c.Name = ctx.ReadString("name", "")
	c.Age = uint(ctx.ReadUint("age", defaultAge))
	c.MaxAge = uint(ctx.ReadUint("max-age", defaultMaxAge))
	c.Loyalty = clampStat(int(ctx.ReadInt("loyalty", defaultLoyalty)))
	c.Competence = clampStat(int(ctx.ReadInt("competence", defaultCompetence)))
	c.Cover = CoverStatus(min(max(ctx.ReadInt("cover-status", 0), 0), int64(Exposed)))
	c.Knowledge = KnowledgeLevel(min(max(ctx.ReadInt("knowledge-level", 0), 0), int64(KnowsFull)))
	investments, err := save.ReadStrings(ctx, "investments")
	if err != nil {
		return err
	}
	c.Investments = investments
	traits, err := loadTraits(ctx, "traits")
	if err != nil {
		return err
	}
	if len(traits) > MaxTraits {
		traits = traits[:MaxTraits]
	}
	c.Traits = traits
	if c.sink == nil {
		c.sink = notice.Discard
	}
	return nil
}

func (c *Core) SaveID() string { return c.ID }

// Read constructs the variant named by the current section's agent-type
// and loads it.
func Read(ctx *save.Context) (Agent, error) {
	var a Agent
	switch typ := ctx.ReadInt("agent-type", -1); typ {
	case int64(TypeIndividual):
		a = &Individual{}
	case int64(TypeFamily):
		a = &Family{}
	default:
		return nil, save.UnknownType("agent-type", strconv.FormatInt(typ, 10))
	}
	if err := a.Load(ctx); err != nil {
		return nil, err
	}
	return a, nil
}
