// Package social models the mortal kingdoms: their political attributes,
// diplomacy, and the yearly drift that can end in war, crusade or collapse.
package social

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strconv"

	"github.com/copyleft-games/lichs-portfolio/internal/entropy"
	"github.com/copyleft-games/lichs-portfolio/internal/notice"
	"github.com/copyleft-games/lichs-portfolio/internal/save"
)

var (
	ErrCollapsed      = errors.New("kingdom has collapsed")
	ErrAlreadyAtWar   = errors.New("kingdom is already at war")
	ErrNotAtWar       = errors.New("kingdom is not at war")
	ErrUnknownKingdom = errors.New("unknown kingdom")
)

const (
	DefaultAttribute = 50
	MinAttribute     = 0
	MaxAttribute     = 100

	collapseThreshold  = 10
	collapseBaseChance = 0.05

	warMilitaryThreshold = 60
	warBaseChance        = 0.02

	crusadeToleranceThreshold = 30
	crusadeBaseChance         = 0.01

	yearlyDrift = 2
)

// Relation is a kingdom's diplomatic stance toward another.
type Relation uint8

const (
	Neutral  Relation = iota
	Alliance          // Never attacked
	Rivalry           // Triple war chance
	War               // Current enemy
)

var relationNames = [...]string{"Neutral", "Alliance", "Rivalry", "War"}

func (r Relation) String() string {
	if int(r) < len(relationNames) {
		return relationNames[r]
	}
	return "Relation(" + strconv.Itoa(int(r)) + ")"
}

// Kingdom is a mortal realm with five 0..100 attributes.
type Kingdom struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	Stability  int `json:"stability"`
	Prosperity int `json:"prosperity"`
	Military   int `json:"military"`
	Culture    int `json:"culture"`
	Tolerance  int `json:"tolerance"` // Low tolerance breeds crusades

	RulerName    string `json:"ruler_name"`
	DynastyYears uint64 `json:"dynasty_years"`
	Collapsed    bool   `json:"collapsed"`
	AtWarWith    string `json:"at_war_with,omitempty"`

	Regions   []string            `json:"regions"`
	Relations map[string]Relation `json:"relations"`

	sink notice.Sink
}

// NewKingdom returns a kingdom with every attribute at the default.
func NewKingdom(id, name string) *Kingdom {
	return &Kingdom{
		ID:         id,
		Name:       name,
		Stability:  DefaultAttribute,
		Prosperity: DefaultAttribute,
		Military:   DefaultAttribute,
		Culture:    DefaultAttribute,
		Tolerance:  DefaultAttribute,
		Relations:  make(map[string]Relation),
		sink:       notice.Discard,
	}
}

func (k *Kingdom) SetSink(s notice.Sink) { k.sink = notice.Or(s) }

// AtWar reports whether the kingdom has an active war.
func (k *Kingdom) AtWar() bool { return k.AtWarWith != "" }

func clampAttr(v int) int {
	return max(MinAttribute, min(MaxAttribute, v))
}

func (k *Kingdom) SetStability(v int)  { k.Stability = clampAttr(v) }
func (k *Kingdom) SetProsperity(v int) { k.Prosperity = clampAttr(v) }
func (k *Kingdom) SetMilitary(v int)   { k.Military = clampAttr(v) }
func (k *Kingdom) SetCulture(v int)    { k.Culture = clampAttr(v) }
func (k *Kingdom) SetTolerance(v int)  { k.Tolerance = clampAttr(v) }

// AdjustStability adds delta to stability, clamped.
func (k *Kingdom) AdjustStability(delta int) { k.SetStability(k.Stability + delta) }

// Tick applies one year of attribute drift. Collapsed kingdoms do not tick.
// Each attribute is clamped before the next one reads it.
func (k *Kingdom) Tick(rng entropy.Source) {
	if k.Collapsed {
		return
	}
	k.DynastyYears++

	drift := rng.IntRange(-yearlyDrift, yearlyDrift+1)
	if k.Prosperity > 60 {
		drift++
	}
	if k.Prosperity < 40 {
		drift--
	}
	if k.AtWar() {
		drift -= 2
	}
	k.SetStability(k.Stability + drift)

	drift = rng.IntRange(-yearlyDrift, yearlyDrift+1)
	if k.Stability > 60 {
		drift++
	}
	if k.Stability < 40 {
		drift--
	}
	if k.AtWar() {
		drift--
	}
	k.SetProsperity(k.Prosperity + drift)

	drift = rng.IntRange(-yearlyDrift/2, yearlyDrift/2+1)
	if k.AtWar() {
		drift += 2
	}
	k.SetMilitary(k.Military + drift)

	k.SetCulture(k.Culture + rng.IntRange(-1, 2))
	k.SetTolerance(k.Tolerance + rng.IntRange(-1, 2))
}

// CollapseChance is the yearly collapse probability, zero above the threshold.
func (k *Kingdom) CollapseChance() float64 {
	if k.Collapsed || k.Stability > collapseThreshold {
		return 0
	}
	return collapseBaseChance + float64(collapseThreshold-k.Stability)/collapseThreshold*0.15
}

// RollCollapse collapses the kingdom on a successful draw. No draw is
// taken above the stability threshold.
func (k *Kingdom) RollCollapse(rng entropy.Source) bool {
	chance := k.CollapseChance()
	if chance == 0 {
		return false
	}
	if rng.Float64() < chance {
		k.Collapse()
		return true
	}
	return false
}

// WarChance is the probability of declaring war on target this year.
func (k *Kingdom) WarChance(targetID string) float64 {
	if k.Collapsed || k.AtWar() || targetID == "" || targetID == k.ID || k.Military < warMilitaryThreshold {
		return 0
	}
	rel := k.Relation(targetID)
	if rel == Alliance {
		return 0
	}
	chance := warBaseChance
	if rel == Rivalry {
		chance *= 3
	}
	return chance + float64(k.Military-warMilitaryThreshold)/100*0.05
}

// RollWar may declare war on targetID.
func (k *Kingdom) RollWar(rng entropy.Source, targetID string) bool {
	chance := k.WarChance(targetID)
	if chance == 0 {
		return false
	}
	if rng.Float64() < chance {
		k.startWar(targetID)
		return true
	}
	return false
}

// DeclareWar starts a war without a roll.
func (k *Kingdom) DeclareWar(targetID string) error {
	switch {
	case k.Collapsed:
		return fmt.Errorf("%s: %w", k.ID, ErrCollapsed)
	case k.AtWar():
		return fmt.Errorf("%s at war with %s: %w", k.ID, k.AtWarWith, ErrAlreadyAtWar)
	case targetID == "" || targetID == k.ID:
		return fmt.Errorf("war target %q: %w", targetID, ErrUnknownKingdom)
	}
	k.startWar(targetID)
	return nil
}

func (k *Kingdom) startWar(targetID string) {
	k.AtWarWith = targetID
	k.SetRelation(targetID, War)
	slog.Debug("war declared", "kingdom", k.ID, "target", targetID)
	k.sink.Notify(notice.Notice{Kind: notice.WarDeclared, Subject: k.ID, To: targetID})
}

// EnterWar records a war declared on this kingdom by attackerID. It does
// not raise a notice; the attacker already did.
func (k *Kingdom) EnterWar(attackerID string) bool {
	if k.Collapsed || k.AtWar() {
		return false
	}
	k.AtWarWith = attackerID
	k.SetRelation(attackerID, War)
	return true
}

// CrusadeChance is the probability of a crusade against the undead.
func (k *Kingdom) CrusadeChance(exposureDetected bool) float64 {
	if k.Collapsed || !exposureDetected || k.Tolerance > crusadeToleranceThreshold {
		return 0
	}
	chance := crusadeBaseChance + float64(crusadeToleranceThreshold-k.Tolerance)/crusadeToleranceThreshold*0.10
	if k.Culture > 70 {
		chance *= 1.5
	}
	return chance
}

// RollCrusade may launch a crusade when exposure has been detected.
func (k *Kingdom) RollCrusade(rng entropy.Source, exposureDetected bool) bool {
	chance := k.CrusadeChance(exposureDetected)
	if chance == 0 {
		return false
	}
	if rng.Float64() < chance {
		slog.Debug("crusade launched", "kingdom", k.ID)
		k.sink.Notify(notice.Notice{Kind: notice.CrusadeLaunched, Subject: k.ID})
		return true
	}
	return false
}

// EndWar closes the current war. The former enemy becomes a rival.
func (k *Kingdom) EndWar(victory bool) error {
	if !k.AtWar() {
		return fmt.Errorf("%s: %w", k.ID, ErrNotAtWar)
	}
	enemy := k.AtWarWith
	k.AtWarWith = ""
	if victory {
		k.SetStability(k.Stability + 10)
		k.SetProsperity(k.Prosperity + 5)
	} else {
		k.SetStability(k.Stability - 15)
		k.SetProsperity(k.Prosperity - 10)
		k.SetMilitary(k.Military - 10)
	}
	k.SetRelation(enemy, Rivalry)

	outcome := "defeat"
	if victory {
		outcome = "victory"
	}
	slog.Debug("war ended", "kingdom", k.ID, "enemy", enemy, "outcome", outcome)
	k.sink.Notify(notice.Notice{Kind: notice.WarEnded, Subject: k.ID, To: enemy, Detail: outcome})
	return nil
}

// Collapse ends the kingdom. Repeated calls have no effect.
func (k *Kingdom) Collapse() {
	if k.Collapsed {
		return
	}
	k.Collapsed = true
	k.Stability = 0
	slog.Debug("kingdom collapsed", "kingdom", k.ID)
	k.sink.Notify(notice.Notice{Kind: notice.KingdomCollapsed, Subject: k.ID, Detail: k.Name})
}

// AddRegion claims a region. Duplicates are ignored.
func (k *Kingdom) AddRegion(regionID string) {
	if regionID == "" || slices.Contains(k.Regions, regionID) {
		return
	}
	k.Regions = append(k.Regions, regionID)
}

// RemoveRegion releases a region and reports whether it was held.
func (k *Kingdom) RemoveRegion(regionID string) bool {
	i := slices.Index(k.Regions, regionID)
	if i < 0 {
		return false
	}
	k.Regions = slices.Delete(k.Regions, i, i+1)
	return true
}

func (k *Kingdom) OwnsRegion(regionID string) bool {
	return slices.Contains(k.Regions, regionID)
}

// Relation returns the stance toward another kingdom, Neutral by default.
func (k *Kingdom) Relation(kingdomID string) Relation {
	return k.Relations[kingdomID]
}

func (k *Kingdom) SetRelation(kingdomID string, rel Relation) {
	if k.Relations == nil {
		k.Relations = make(map[string]Relation)
	}
	if rel == Neutral {
		delete(k.Relations, kingdomID)
		return
	}
	k.Relations[kingdomID] = rel
}

func (k *Kingdom) SaveID() string { return "kingdom" }

func (k *Kingdom) Save(c *save.Context) error {
	c.WriteString("id", k.ID)
	c.WriteString("name", k.Name)
	c.WriteInt("stability", int64(k.Stability))
	c.WriteInt("prosperity", int64(k.Prosperity))
	c.WriteInt("military", int64(k.Military))
	c.WriteInt("culture", int64(k.Culture))
	c.WriteInt("tolerance", int64(k.Tolerance))
	c.WriteString("ruler-name", k.RulerName)
	c.WriteUint("dynasty-years", k.DynastyYears)
	c.WriteBool("is-collapsed", k.Collapsed)
	c.WriteString("at-war-with-id", k.AtWarWith)
	save.WriteStrings(c, "regions", k.Regions)

	ids := make([]string, 0, len(k.Relations))
	for id := range k.Relations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return save.WriteList(c, "relations", len(ids), func(i int) error {
		c.WriteString("kingdom-id", ids[i])
		c.WriteUint("relation", uint64(k.Relations[ids[i]]))
		return nil
	})
}

func (k *Kingdom) Load(c *save.Context) error {
	k.ID = c.ReadString("id", "")
	if k.ID == "" {
		return errors.New("kingdom without id")
	}
	k.Name = c.ReadString("name", k.ID)
	k.Stability = clampAttr(int(c.ReadInt("stability", DefaultAttribute)))
	k.Prosperity = clampAttr(int(c.ReadInt("prosperity", DefaultAttribute)))
	k.Military = clampAttr(int(c.ReadInt("military", DefaultAttribute)))
	k.Culture = clampAttr(int(c.ReadInt("culture", DefaultAttribute)))
	k.Tolerance = clampAttr(int(c.ReadInt("tolerance", DefaultAttribute)))
	k.RulerName = c.ReadString("ruler-name", "")
	k.DynastyYears = c.ReadUint("dynasty-years", 0)
	k.Collapsed = c.ReadBool("is-collapsed", false)
	k.AtWarWith = c.ReadString("at-war-with-id", "")
	regions, err := save.ReadStrings(c, "regions")
	if err != nil {
		return err
	}
	k.Regions = regions

	k.Relations = make(map[string]Relation)
	err = save.ReadList(c, "relations", func(int) error {
		id := c.ReadString("kingdom-id", "")
		rel := c.ReadUint("relation", 0)
		if id == "" || rel > uint64(War) {
			return nil
		}
		k.SetRelation(id, Relation(rel))
		return nil
	})
	if err != nil {
		return err
	}
	if k.sink == nil {
		k.sink = notice.Discard
	}
	return nil
}

// KingdomPreset describes a starting kingdom.
type KingdomPreset struct {
	Name       string
	Ruler      string
	Stability  int
	Prosperity int
	Military   int
	Culture    int
	Tolerance  int
}

// SeedKingdoms returns the standard starting realms.
func SeedKingdoms() []KingdomPreset {
	return []KingdomPreset{
		{Name: "Arel", Ruler: "Queen Isolde", Stability: 62, Prosperity: 58, Military: 45, Culture: 55, Tolerance: 50},
		{Name: "Vhorsk", Ruler: "Warlord Brannoch", Stability: 48, Prosperity: 40, Military: 68, Culture: 35, Tolerance: 30},
		{Name: "The Saltmarch League", Ruler: "Doge Marrin", Stability: 55, Prosperity: 70, Military: 40, Culture: 60, Tolerance: 65},
		{Name: "Holy See of Caldris", Ruler: "Hierarch Ostellan", Stability: 66, Prosperity: 52, Military: 55, Culture: 78, Tolerance: 22},
	}
}

// Build returns a kingdom from the preset.
func (p KingdomPreset) Build(id string) *Kingdom {
	k := NewKingdom(id, p.Name)
	k.RulerName = p.Ruler
	k.SetStability(p.Stability)
	k.SetProsperity(p.Prosperity)
	k.SetMilitary(p.Military)
	k.SetCulture(p.Culture)
	k.SetTolerance(p.Tolerance)
	return k
}
