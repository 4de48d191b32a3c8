package game

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/copyleft-games/lichs-portfolio/internal/save"
)

var (
	ErrUnknownUpgrade     = errors.New("unknown upgrade")
	ErrUpgradeOwned       = errors.New("upgrade already owned")
	ErrUpgradeLocked      = errors.New("upgrade prerequisites not met")
	ErrInsufficientPoints = errors.New("not enough phylactery points")
)

// Base limits before any upgrade.
const (
	BaseMaxSlumberYears = 100
	BaseMaxAgents       = 3
)

// Upgrade is a permanent improvement bought with phylactery points.
type Upgrade struct {
	ID          string
	Name        string
	Description string
	Cost        uint64
	Requires    []string
}

var upgrades = []Upgrade{
	{ID: "extended-slumber-1", Name: "Extended Slumber I", Description: "Increase max slumber to 150 years", Cost: 1},
	{ID: "extended-slumber-2", Name: "Extended Slumber II", Description: "Increase max slumber to 250 years", Cost: 3,
		Requires: []string{"extended-slumber-1"}},
	{ID: "extended-slumber-3", Name: "Extended Slumber III", Description: "Increase max slumber to 500 years", Cost: 8,
		Requires: []string{"extended-slumber-2"}},
	{ID: "additional-agents-1", Name: "Expanded Network I", Description: "+2 agent slots (5 total)", Cost: 1},
	{ID: "additional-agents-2", Name: "Expanded Network II", Description: "+3 agent slots (8 total)", Cost: 4,
		Requires: []string{"additional-agents-1"}},
	{ID: "additional-agents-3", Name: "Vast Network", Description: "+4 agent slots (12 total)", Cost: 10,
		Requires: []string{"additional-agents-2"}},
	{ID: "family-legacy", Name: "Family Legacy", Description: "Unlock family agents with bloodline traits", Cost: 3},
}

// Upgrades lists every upgrade on offer.
func Upgrades() []Upgrade { return slices.Clone(upgrades) }

func upgradeByID(id string) (Upgrade, bool) {
	i := slices.IndexFunc(upgrades, func(u Upgrade) bool { return u.ID == id })
	if i < 0 {
		return Upgrade{}, false
	}
	return upgrades[i], true
}

// Phylactery is the lich's persistent store of power. It survives
// prestige.
type Phylactery struct {
	points uint64
	earned uint64
	owned  []string
}

func NewPhylactery() *Phylactery { return &Phylactery{} }

func (p *Phylactery) Points() uint64 { return p.points }

func (p *Phylactery) TotalEarned() uint64 { return p.earned }

func (p *Phylactery) AddPoints(n uint64) {
	if n == 0 {
		return
	}
	p.points += n
	p.earned += n
	slog.Debug("phylactery points added", "added", n, "points", p.points)
}

// Level rises by one for every three upgrades owned.
func (p *Phylactery) Level() uint { return 1 + uint(len(p.owned))/3 }

func (p *Phylactery) Has(id string) bool { return slices.Contains(p.owned, id) }

// Owned returns purchased upgrade ids in purchase order.
func (p *Phylactery) Owned() []string { return slices.Clone(p.owned) }

// CanPurchase reports why an upgrade cannot be bought, or nil.
func (p *Phylactery) CanPurchase(id string) error {
	u, ok := upgradeByID(id)
	switch {
	case !ok:
		return fmt.Errorf("%s: %w", id, ErrUnknownUpgrade)
	case p.Has(id):
		return fmt.Errorf("%s: %w", id, ErrUpgradeOwned)
	case p.points < u.Cost:
		return fmt.Errorf("%s costs %d, have %d: %w", id, u.Cost, p.points, ErrInsufficientPoints)
	}
	for _, req := range u.Requires {
		if !p.Has(req) {
			return fmt.Errorf("%s needs %s: %w", id, req, ErrUpgradeLocked)
		}
	}
	return nil
}

func (p *Phylactery) Purchase(id string) error {
	if err := p.CanPurchase(id); err != nil {
		return err
	}
	u, _ := upgradeByID(id)
	p.points -= u.Cost
	p.owned = append(p.owned, id)
	slog.Debug("upgrade purchased", "upgrade", id, "cost", u.Cost, "points", p.points)
	return nil
}

// MaxSlumberYears is the longest single slumber allowed.
func (p *Phylactery) MaxSlumberYears() uint64 {
	switch {
	case p.Has("extended-slumber-3"):
		return 500
	case p.Has("extended-slumber-2"):
		return 250
	case p.Has("extended-slumber-1"):
		return 150
	}
	return BaseMaxSlumberYears
}

// MaxAgents is the roster size recruitment may reach.
func (p *Phylactery) MaxAgents() int {
	switch {
	case p.Has("additional-agents-3"):
		return 12
	case p.Has("additional-agents-2"):
		return 8
	case p.Has("additional-agents-1"):
		return 5
	}
	return BaseMaxAgents
}

func (p *Phylactery) FamilyAgents() bool { return p.Has("family-legacy") }

// StartingGoldBonus scales the purse of a new run.
func (p *Phylactery) StartingGoldBonus() float64 { return 1.0 }

// ResetUpgrades drops every upgrade and refunds all points earned.
func (p *Phylactery) ResetUpgrades() {
	p.owned = nil
	p.points = p.earned
}

// Reset empties the phylactery entirely.
func (p *Phylactery) Reset() {
	p.owned = nil
	p.points = 0
	p.earned = 0
}

func (p *Phylactery) SaveID() string { return "phylactery" }

func (p *Phylactery) Save(c *save.Context) error {
	c.WriteUint("points", p.points)
	c.WriteUint("total-points-earned", p.earned)
	save.WriteStrings(c, "upgrades", p.owned)
	return nil
}

func (p *Phylactery) Load(c *save.Context) error {
	p.points = c.ReadUint("points", 0)
	p.earned = max(c.ReadUint("total-points-earned", 0), p.points)
	ids, err := save.ReadStrings(c, "upgrades")
	if err != nil {
		return err
	}
	p.owned = nil
	for _, id := range ids {
		if _, ok := upgradeByID(id); !ok {
			slog.Warn("dropping unknown upgrade", "upgrade", id)
			continue
		}
		if !p.Has(id) {
			p.owned = append(p.owned, id)
		}
	}
	return nil
}
