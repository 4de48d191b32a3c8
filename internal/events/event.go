// Package events models world events: what happened, how long it lasts,
// what it does to kingdoms, exposure and agents, and how it moves
// investment prices while it stays active.
package events

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/copyleft-games/lichs-portfolio/internal/economy"
	"github.com/copyleft-games/lichs-portfolio/internal/notice"
	"github.com/copyleft-games/lichs-portfolio/internal/save"
)

var (
	ErrNoChoice     = errors.New("no such choice")
	ErrUnknownEvent = errors.New("unknown event")
)

// Kind is the event category. Values are stable wire constants.
type Kind uint8

const (
	Economic Kind = iota
	Political
	Magical
	Personal
)

var kindNames = [...]string{"Economic", "Political", "Magical", "Personal"}

// typeNames are the save discriminators written as type-name.
var typeNames = [...]string{"economic", "political", "magical", "personal"}

var idPrefixes = [...]string{"econ", "poli", "magi", "pers"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Severity grades an event. Values are stable wire constants.
type Severity uint8

const (
	Minor Severity = iota
	Moderate
	Major
	Catastrophic
)

var severityNames = [...]string{"Minor", "Moderate", "Major", "Catastrophic"}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "Severity(" + strconv.Itoa(int(s)) + ")"
}

// Effect is the kind-specific part of an event. The set of
// implementations is closed to this package.
type Effect interface {
	Kind() Kind
	apply(e *Event, t Target)
	modifier(inv *economy.Investment) float64
	narrative(e *Event) string
	save(c *save.Context)
	load(c *save.Context)
}

// Target receives the side effects of a freshly occurred event. The world
// simulation implements it.
type Target interface {
	// AdjustStability adds delta to a kingdom's stability.
	AdjustStability(kingdomID string, delta int) bool
	// BeginWar puts a kingdom at war with a target of the simulation's choosing.
	BeginWar(kingdomID string) bool
	AddExposure(delta int)
	// HasAgent reports whether the agent is still on the roster.
	HasAgent(agentID string) bool
	RemoveAgent(agentID string) bool
}

// Event is one occurrence in the world. Duration zero means instant:
// effects apply once and the event never enters the active list.
type Event struct {
	ID          string
	Name        string
	Description string
	Severity    Severity
	Year        uint64
	RegionID    string
	KingdomID   string
	Duration    uint
	Remaining   uint
	Active      bool
	Resolved    bool
	Effect      Effect

	sink notice.Sink
}

// New builds an inactive event around effect.
func New(id, name, description string, sev Severity, effect Effect) *Event {
	return &Event{
		ID:          id,
		Name:        name,
		Description: description,
		Severity:    sev,
		Effect:      effect,
		sink:        notice.Discard,
	}
}

func (e *Event) SetSink(s notice.Sink) { e.sink = notice.Or(s) }

func (e *Event) Kind() Kind { return e.Effect.Kind() }

// SetDuration sets the lifetime in years and restarts the countdown.
func (e *Event) SetDuration(years uint) {
	e.Duration = years
	e.Remaining = years
}

// Instant reports whether the event has no lifetime.
func (e *Event) Instant() bool { return e.Duration == 0 }

// Occur stamps the event into year and applies its effects to t.
func (e *Event) Occur(year uint64, t Target) {
	e.Year = year
	e.Active = true
	e.Effect.apply(e, t)
}

// TickYear counts one year off an active event. It reports true when
// the event has just run out.
func (e *Event) TickYear() bool {
	if e.Instant() || !e.Active {
		return false
	}
	if e.Remaining > 0 {
		e.Remaining--
	}
	if e.Remaining > 0 {
		return false
	}
	e.Active = false
	e.sink.Notify(notice.Notice{Kind: notice.EventResolved, Subject: e.ID, Detail: e.Name})
	return true
}

// InvestmentModifier is the price multiplier this event applies to inv.
// It is never negative.
func (e *Event) InvestmentModifier(inv *economy.Investment) float64 {
	if inv == nil {
		return 1.0
	}
	return max(0, e.Effect.modifier(inv))
}

// Narrative renders the event as display text.
func (e *Event) Narrative() string {
	name := e.Name
	if name == "" {
		name = e.Kind().String() + " Event"
	}
	return name + "\n\n" + e.Description + "\n\n" + e.Effect.narrative(e)
}

func (e *Event) String() string {
	return fmt.Sprintf("%s %s %q (%s)", e.Severity, e.Kind(), e.Name, e.ID)
}

func (e *Event) SaveID() string { return e.ID }

func (e *Event) Save(c *save.Context) error {
	c.WriteString("type-name", typeNames[e.Kind()])
	c.WriteString("id", e.ID)
	c.WriteString("name", e.Name)
	c.WriteString("description", e.Description)
	c.WriteInt("event-type", int64(e.Kind()))
	c.WriteInt("severity", int64(e.Severity))
	c.WriteUint("year-occurred", e.Year)
	c.WriteString("affects-region-id", e.RegionID)
	c.WriteString("affects-kingdom-id", e.KingdomID)
	c.WriteUint("duration-years", uint64(e.Duration))
	c.WriteUint("years-remaining", uint64(e.Remaining))
	c.WriteBool("is-active", e.Active)
	c.WriteBool("is-resolved", e.Resolved)
	e.Effect.save(c)
	return nil
}

// Load fills e from the current section. The effect variant must
// already match the section's type-name; use Read to construct one.
func (e *Event) Load(c *save.Context) error {
	e.ID = c.ReadString("id", "")
	e.Name = c.ReadString("name", "")
	e.Description = c.ReadString("description", "")
	e.Severity = Severity(max(0, min(c.ReadInt("severity", 0), int64(Catastrophic))))
	e.Year = c.ReadUint("year-occurred", 0)
	e.RegionID = c.ReadString("affects-region-id", "")
	e.KingdomID = c.ReadString("affects-kingdom-id", "")
	e.Duration = uint(c.ReadUint("duration-years", 0))
	e.Remaining = uint(c.ReadUint("years-remaining", 0))
	e.Active = c.ReadBool("is-active", false)
	e.Resolved = c.ReadBool("is-resolved", false)
	e.Effect.load(c)
	if e.sink == nil {
		e.sink = notice.Discard
	}
	return nil
}

// Read constructs an event of the variant named by the section's
// type-name and loads it.
func Read(c *save.Context) (*Event, error) {
	tn := c.ReadString("type-name", "")
	var eff Effect
	switch tn {
	case "economic":
		eff = &EconomicEffect{MarketModifier: 1.0, Class: economy.AnyClass}
	case "political":
		eff = &PoliticalEffect{}
	case "magical":
		eff = &MagicalEffect{}
	case "personal":
		eff = &PersonalEffect{}
	default:
		return nil, save.UnknownType("type-name", tn)
	}
	e := &Event{Effect: eff, sink: notice.Discard}
	if err := e.Load(c); err != nil {
		return nil, err
	}
	return e, nil
}

// EconomicEffect moves market prices for one asset class, or for every
// class when Class is AnyClass.
type EconomicEffect struct {
	MarketModifier float64
	Class          economy.AssetClass
}

func (*EconomicEffect) Kind() Kind { return Economic }

// apply has nothing to push: pricing reads the modifier while the event
// stays active.
func (x *EconomicEffect) apply(e *Event, _ Target) {
	slog.Debug("economic event", "id", e.ID, "modifier", x.MarketModifier, "class", x.Class)
}

func (x *EconomicEffect) modifier(inv *economy.Investment) float64 {
	if inv.Class.Matches(x.Class) {
		return x.MarketModifier
	}
	return 1.0
}

func (x *EconomicEffect) narrative(*Event) string {
	var impact string
	switch {
	case x.MarketModifier > 1.2:
		impact = "Markets surge with opportunity"
	case x.MarketModifier > 1.0:
		impact = "Markets show modest gains"
	case x.MarketModifier > 0.8:
		impact = "Markets experience minor turbulence"
	default:
		impact = "Markets plunge into crisis"
	}
	return fmt.Sprintf("%s (%.0f%% modifier)", impact, x.MarketModifier*100)
}

func (x *EconomicEffect) save(c *save.Context) {
	c.WriteDouble("market-modifier", x.MarketModifier)
	c.WriteInt("affected-asset-class", int64(x.Class))
}

func (x *EconomicEffect) load(c *save.Context) {
	x.MarketModifier = max(0, c.ReadDouble("market-modifier", 1.0))
	x.Class = economy.AssetClass(c.ReadInt("affected-asset-class", int64(economy.AnyClass)))
}

// PoliticalEffect shakes a kingdom's stability and may start a war.
type PoliticalEffect struct {
	StabilityImpact int
	CausesWar       bool
}

func (*PoliticalEffect) Kind() Kind { return Political }

func (x *PoliticalEffect) apply(e *Event, t Target) {
	if e.KingdomID == "" {
		return
	}
	t.AdjustStability(e.KingdomID, x.StabilityImpact)
	if x.CausesWar {
		t.BeginWar(e.KingdomID)
	}
}

func (x *PoliticalEffect) modifier(inv *economy.Investment) float64 {
	switch {
	case x.CausesWar:
		return 0.5
	case x.StabilityImpact < -20:
		switch inv.Class {
		case economy.Trade, economy.Property:
			return 0.7
		case economy.Political:
			return 1.3
		}
	case x.StabilityImpact > 20:
		if inv.Class == economy.Trade {
			return 1.2
		}
	}
	return 1.0
}

func (x *PoliticalEffect) narrative(*Event) string {
	switch {
	case x.CausesWar:
		return "The drums of war thunder across the land"
	case x.StabilityImpact < -30:
		return "The foundations of power crumble"
	case x.StabilityImpact < -10:
		return "Unrest spreads through the populace"
	case x.StabilityImpact > 30:
		return "A new era of peace dawns"
	case x.StabilityImpact > 10:
		return "Order is restored to the realm"
	}
	return "The political landscape shifts subtly"
}

func (x *PoliticalEffect) save(c *save.Context) {
	c.WriteInt("stability-impact", int64(x.StabilityImpact))
	c.WriteBool("causes-war", x.CausesWar)
}

func (x *PoliticalEffect) load(c *save.Context) {
	x.StabilityImpact = int(c.ReadInt("stability-impact", 0))
	x.CausesWar = c.ReadBool("causes-war", false)
}

// MagicalEffect shifts the player's exposure and the fortunes of magical
// and dark investments.
type MagicalEffect struct {
	ExposureImpact int
	AffectsDark    bool
}

func (*MagicalEffect) Kind() Kind { return Magical }

func (x *MagicalEffect) apply(_ *Event, t Target) {
	if x.ExposureImpact != 0 {
		t.AddExposure(x.ExposureImpact)
	}
}

func (x *MagicalEffect) modifier(inv *economy.Investment) float64 {
	switch {
	case inv.Class == economy.Dark && x.AffectsDark:
		if x.ExposureImpact > 0 {
			return 0.6
		}
		if x.ExposureImpact < 0 {
			return 1.4
		}
	case inv.Class == economy.Magical:
		if x.ExposureImpact > 20 {
			return 0.8
		}
		if x.ExposureImpact < -20 {
			return 1.3
		}
	}
	return 1.0
}

func (x *MagicalEffect) narrative(*Event) string {
	var s string
	switch {
	case x.ExposureImpact > 30:
		s = "The veil between worlds grows thin and mortals sense dark powers"
	case x.ExposureImpact > 10:
		s = "Whispers of sorcery spread through the land"
	case x.ExposureImpact < -30:
		s = "A shroud of forgetfulness descends upon the realm"
	case x.ExposureImpact < -10:
		s = "The mundane world remains blissfully ignorant"
	default:
		s = "The currents of magic shift imperceptibly"
	}
	if x.AffectsDark {
		s += "\n\nYour dark investments tremble..."
	}
	return s
}

func (x *MagicalEffect) save(c *save.Context) {
	c.WriteInt("exposure-impact", int64(x.ExposureImpact))
	c.WriteBool("affects-dark-investments", x.AffectsDark)
}

func (x *MagicalEffect) load(c *save.Context) {
	x.ExposureImpact = int(c.ReadInt("exposure-impact", 0))
	x.AffectsDark = c.ReadBool("affects-dark-investments", false)
}

// BetrayalExposure is the exposure a betrayal costs when it occurs.
const BetrayalExposure = 10

// PersonalEffect befalls one of the player's agents.
type PersonalEffect struct {
	TargetAgentID string
	Betrayal      bool
	Death         bool
}

func (*PersonalEffect) Kind() Kind { return Personal }

func (x *PersonalEffect) apply(e *Event, t Target) {
	if x.TargetAgentID == "" {
		return
	}
	// An earlier event this year may already have taken the agent.
	if !t.HasAgent(x.TargetAgentID) {
		slog.Debug("personal event lost its target", "id", e.ID, "agent", x.TargetAgentID)
		return
	}
	if x.Death {
		t.RemoveAgent(x.TargetAgentID)
	}
	if x.Betrayal {
		t.AddExposure(BetrayalExposure)
	}
}

func (*PersonalEffect) modifier(*economy.Investment) float64 { return 1.0 }

func (x *PersonalEffect) narrative(*Event) string {
	var s string
	switch {
	case x.Death && x.Betrayal:
		s = "Treachery and death intertwine, a fitting end for the disloyal"
	case x.Death:
		s = "The mortal coil releases another servant"
	case x.Betrayal:
		s = "Trust, once broken, demands response"
	default:
		s = "The affairs of mortals demand attention"
	}
	if x.TargetAgentID != "" {
		s += "\n\n[Involves: " + x.TargetAgentID + "]"
	}
	return s
}

func (x *PersonalEffect) save(c *save.Context) {
	if x.TargetAgentID != "" {
		c.WriteString("target-agent-id", x.TargetAgentID)
	}
	c.WriteBool("is-betrayal", x.Betrayal)
	c.WriteBool("is-death", x.Death)
}

func (x *PersonalEffect) load(c *save.Context) {
	x.TargetAgentID = c.ReadString("target-agent-id", "")
	x.Betrayal = c.ReadBool("is-betrayal", false)
	x.Death = c.ReadBool("is-death", false)
}
