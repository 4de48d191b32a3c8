// Package rivals models the other immortals competing with the player
// for the mortal world: their personalities, territory, and shifting
// stance toward the player.
package rivals

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/copyleft-games/lichs-portfolio/internal/entropy"
	"github.com/copyleft-games/lichs-portfolio/internal/events"
	"github.com/copyleft-games/lichs-portfolio/internal/notice"
	"github.com/copyleft-games/lichs-portfolio/internal/save"
)

// Kind is the competitor's nature. Values are stable wire constants.
type Kind uint8

const (
	Dragon Kind = iota
	Vampire
	Lich
	Fae
	Demon
)

var kindNames = [...]string{"Dragon", "Vampire", "Lich", "Fae", "Demon"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Stance is a competitor's attitude toward the player. Values are stable
// wire constants.
type Stance uint8

const (
	Unknown Stance = iota
	Friendly
	Neutral
	Wary
	Hostile
	Allied
)

var stanceNames = [...]string{"Unknown", "Friendly", "Neutral", "Wary", "Hostile", "Allied"}

func (s Stance) String() string {
	if int(s) < len(stanceNames) {
		return stanceNames[s]
	}
	return "Stance(" + strconv.Itoa(int(s)) + ")"
}

// Territory supplies regions a competitor could claim.
type Territory interface {
	// ExpansionCandidates returns a fresh list of unclaimed region ids,
	// best first.
	ExpansionCandidates(c *Competitor) []string
}

const (
	defaultTrait = 50
	minTrait     = 0
	maxTrait     = 100
)

func clampTrait(v int) int { return min(maxTrait, max(minTrait, v)) }

// Competitor is a rival immortal.
type Competitor struct {
	ID           string
	Name         string
	Kind         Kind
	Stance       Stance
	Power        int
	Aggression   int
	Greed        int
	Cunning      int
	Active       bool
	Known        bool
	PlayerThreat uint
	Territory    []string

	board Blackboard
	sink  notice.Sink
}

// New returns an active, undiscovered competitor with middling traits.
func New(id, name string, kind Kind) *Competitor {
	return &Competitor{
		ID:         id,
		Name:       name,
		Kind:       kind,
		Power:      defaultTrait,
		Aggression: defaultTrait,
		Greed:      defaultTrait,
		Cunning:    defaultTrait,
		Active:     true,
		board:      make(Blackboard),
		sink:       notice.Discard,
	}
}

func (c *Competitor) SetSink(s notice.Sink) { c.sink = notice.Or(s) }

func (c *Competitor) notify(kind notice.Kind, detail, from, to string) {
	c.sink.Notify(notice.Notice{Kind: kind, Subject: c.ID, Detail: detail, From: from, To: to})
}

func (c *Competitor) SetPower(v int)      { c.Power = clampTrait(v) }
func (c *Competitor) SetAggression(v int) { c.Aggression = clampTrait(v) }
func (c *Competitor) SetGreed(v int)      { c.Greed = clampTrait(v) }
func (c *Competitor) SetCunning(v int)    { c.Cunning = clampTrait(v) }

// SetPlayerThreat records how threatening the player looks, 0..100.
func (c *Competitor) SetPlayerThreat(v uint) { c.PlayerThreat = min(v, maxTrait) }

// SetStance changes the stance, announcing real changes.
func (c *Competitor) SetStance(s Stance) {
	if s == c.Stance {
		return
	}
	old := c.Stance
	c.Stance = s
	c.notify(notice.StanceChanged, "", old.String(), s.String())
}

// Tick runs one year of the competitor's ambitions. Inactive competitors
// do nothing.
func (c *Competitor) Tick(rng entropy.Source, world Territory) {
	if !c.Active {
		return
	}
	c.syncBoard()
	intent := Decide(c.board, rng)
	if intent.Expand {
		c.ExpandTerritory(rng, world)
	}
	if intent.Reevaluate {
		c.EvaluateStance()
	}
	c.SetPower(c.Power + rng.IntRange(-2, 3))
}

// ExpandTerritory claims one region the world offers. It reports false
// when there is nothing to take.
func (c *Competitor) ExpandTerritory(rng entropy.Source, world Territory) bool {
	if world == nil {
		return false
	}
	candidates := slices.DeleteFunc(world.ExpansionCandidates(c), c.HasTerritory)
	if len(candidates) == 0 {
		slog.Debug("no room to expand", "competitor", c.ID)
		return false
	}
	return c.AddTerritory(candidates[rng.IntRange(0, len(candidates))])
}

// Hostility scores the competitor's ill will toward the player.
func (c *Competitor) Hostility() int {
	threat := int(c.PlayerThreat)
	h := c.Aggression + threat/2
	if c.Cunning > 60 {
		h -= 20
	}
	if c.Greed > 70 {
		if threat > 50 {
			h += 10
		} else {
			h -= 10
		}
	}
	return h
}

// EvaluateStance maps hostility onto a stance. Low scores keep the
// current stance, and an alliance is never broken here.
func (c *Competitor) EvaluateStance() {
	if c.Stance == Allied {
		return
	}
	next := c.Stance
	switch h := c.Hostility(); {
	case h > 80:
		next = Hostile
	case h > 60:
		next = Wary
	case h > 40:
		next = Neutral
	case h > 20:
		next = Friendly
	}
	c.SetStance(next)
}

// ReactToEvent nudges personality according to the competitor's nature.
func (c *Competitor) ReactToEvent(e *events.Event) {
	if !c.Active || e == nil {
		return
	}
	kind, sev := e.Kind(), e.Severity
	switch c.Kind {
	case Dragon:
		if kind == events.Political && sev >= events.Major {
			c.SetAggression(c.Aggression + 10)
		}
	case Vampire:
		if kind == events.Political && sev >= events.Moderate {
			c.SetPower(c.Power + 5)
		}
	case Lich:
		if kind == events.Magical {
			c.SetCunning(c.Cunning + 5)
		}
	case Fae:
		if kind == events.Magical && sev >= events.Major {
			c.SetGreed(c.Greed + 10)
		}
	case Demon:
		if sev >= events.Catastrophic {
			c.SetAggression(c.Aggression + 15)
		}
	}
}

func (c *Competitor) HasTerritory(regionID string) bool {
	return slices.Contains(c.Territory, regionID)
}

// AddTerritory claims regionID, reporting false if already held.
func (c *Competitor) AddTerritory(regionID string) bool {
	if regionID == "" || c.HasTerritory(regionID) {
		return false
	}
	c.Territory = append(c.Territory, regionID)
	c.notify(notice.TerritoryExpanded, regionID, "", "")
	return true
}

func (c *Competitor) RemoveTerritory(regionID string) bool {
	i := slices.Index(c.Territory, regionID)
	if i < 0 {
		return false
	}
	c.Territory = slices.Delete(c.Territory, i, i+1)
	c.notify(notice.TerritoryLost, regionID, "", "")
	return true
}

// Discover reveals the competitor to the player, once.
func (c *Competitor) Discover() {
	if c.Known {
		return
	}
	c.Known = true
	c.notify(notice.CompetitorDiscovered, c.Name, "", "")
}

// Destroy removes the competitor from play, once.
func (c *Competitor) Destroy() {
	if !c.Active {
		return
	}
	c.Active = false
	c.notify(notice.CompetitorDestroyed, c.Name, "", "")
}

func (c *Competitor) ProposeAlliance() {
	c.notify(notice.AllianceProposed, c.Name, "", "")
}

// AcceptAlliance seals a proposed alliance.
func (c *Competitor) AcceptAlliance() { c.SetStance(Allied) }

func (c *Competitor) DeclareConflict() {
	c.SetStance(Hostile)
	c.notify(notice.ConflictDeclared, c.Name, "", "")
}

func (c *Competitor) String() string {
	return fmt.Sprintf("%s the %s (%s, power %d)", c.Name, c.Kind, c.Stance, c.Power)
}

func (c *Competitor) SaveID() string { return c.ID }

func (c *Competitor) Save(ctx *save.Context) error {
	ctx.WriteString("id", c.ID)
	ctx.WriteString("name", c.Name)
	ctx.WriteInt("competitor-type", int64(c.Kind))
	ctx.WriteInt("stance", int64(c.Stance))
	ctx.WriteInt("power-level", int64(c.Power))
	ctx.WriteInt("aggression", int64(c.Aggression))
	ctx.WriteInt("greed", int64(c.Greed))
	ctx.WriteInt("cunning", int64(c.Cunning))
	ctx.WriteBool("is-active", c.Active)
	ctx.WriteBool("is-known", c.Known)
	ctx.WriteUint("player-threat-level", uint64(c.PlayerThreat))
	save.WriteStrings(ctx, "territory", c.Territory)
	return nil
}

func (c *Competitor) Load(ctx *save.Context) error {
	c.ID = ctx.ReadString("id", "")
	c.Name = ctx.ReadString("name", "")
	kind := ctx.ReadInt("competitor-type", 0)
	if kind < 0 || kind > int64(Demon) {
		return save.UnknownType("competitor-type", strconv.FormatInt(kind, 10))
	}
	c.Kind = Kind(kind)
	c.Stance = Stance(min(max(ctx.ReadInt("stance", 0), 0), int64(Allied)))
	c.Power = clampTrait(int(ctx.ReadInt("power-level", defaultTrait)))
	c.Aggression = clampTrait(int(ctx.ReadInt("aggression", defaultTrait)))
	c.Greed = clampTrait(int(ctx.ReadInt("greed", defaultTrait)))
	c.Cunning = clampTrait(int(ctx.ReadInt("cunning", defaultTrait)))
	c.Active = ctx.ReadBool("is-active", true)
	c.Known = ctx.ReadBool("is-known", false)
	c.PlayerThreat = min(uint(ctx.ReadUint("player-threat-level", 0)), maxTrait)
	territory, err := save.ReadStrings(ctx, "territory")
	if err != nil {
		return err
	}
	c.Territory = territory
	c.board = make(Blackboard)
	if c.sink == nil {
		c.sink = notice.Discard
	}
	return nil
}
