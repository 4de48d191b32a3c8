package agents

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/copyleft-games/lichs-portfolio/internal/entropy"
	"github.com/copyleft-games/lichs-portfolio/internal/save"
)

// MaxTraits bounds the traits one agent (or family head) carries.
const MaxTraits = 4

// inheritanceCap keeps late generations from inheriting with certainty.
const inheritanceCap = 0.95

// Trait is a heritable quirk that shapes an agent's output and loyalty.
type Trait struct {
	ID                string
	Name              string
	Description       string
	InheritanceChance float64
	IncomeModifier    float64
	LoyaltyModifier   int
	DiscoveryModifier float64
	Conflicts         []string
}

// NewTrait returns a neutral trait with an even inheritance chance.
func NewTrait(id, name, description string) *Trait {
	return &Trait{
		ID:                id,
		Name:              name,
		Description:       description,
		InheritanceChance: 0.5,
		IncomeModifier:    1.0,
		DiscoveryModifier: 1.0,
	}
}

// RollInheritance draws once and reports whether the trait passes to the
// given generation. Later generations inherit more readily.
func (t *Trait) RollInheritance(rng entropy.Source, generation uint) bool {
	chance := min(t.InheritanceChance+float64(generation)*0.02, inheritanceCap)
	return rng.Float64() < chance
}

// ConflictsWith reports whether the two traits exclude each other. The
// relation is symmetric.
func (t *Trait) ConflictsWith(other *Trait) bool {
	if other == nil || t.ID == other.ID {
		return false
	}
	return slices.Contains(t.Conflicts, other.ID) || slices.Contains(other.Conflicts, t.ID)
}

// Clone returns an independent copy.
func (t *Trait) Clone() *Trait {
	c := *t
	c.Conflicts = slices.Clone(t.Conflicts)
	return &c
}

func (t *Trait) String() string { return t.Name }

func (t *Trait) SaveID() string { return t.ID }

func (t *Trait) Save(c *save.Context) error {
	c.WriteString("id", t.ID)
	c.WriteString("name", t.Name)
	c.WriteString("description", t.Description)
	c.WriteDouble("inheritance-chance", t.InheritanceChance)
	c.WriteDouble("income-modifier", t.IncomeModifier)
	c.WriteInt("loyalty-modifier", int64(t.LoyaltyModifier))
	c.WriteDouble("discovery-modifier", t.DiscoveryModifier)
	c.WriteUint("conflict-count", uint64(len(t.Conflicts)))
	for i, id := range t.Conflicts {
		c.WriteString("conflict-"+strconv.Itoa(i), id)
	}
	return nil
}

func (t *Trait) Load(c *save.Context) error {
	t.ID = c.ReadString("id", "")
	t.Name = c.ReadString("name", "")
	t.Description = c.ReadString("description", "")
	t.InheritanceChance = min(1, max(0, c.ReadDouble("inheritance-chance", 0.5)))
	t.IncomeModifier = c.ReadDouble("income-modifier", 1.0)
	t.LoyaltyModifier = int(c.ReadInt("loyalty-modifier", 0))
	t.DiscoveryModifier = c.ReadDouble("discovery-modifier", 1.0)
	n := c.ReadUint("conflict-count", 0)
	t.Conflicts = nil
	for i := uint64(0); i < n; i++ {
		key := "conflict-" + strconv.FormatUint(i, 10)
		if !c.Has(key) {
			return fmt.Errorf("%w: trait %s has %d conflicts but no %s", save.ErrInvalidDocument, t.ID, n, key)
		}
		if id := c.ReadString(key, ""); id != "" {
			t.Conflicts = append(t.Conflicts, id)
		}
	}
	return nil
}

// saveTraits writes traits as a list of full sections.
func saveTraits(c *save.Context, name string, traits []*Trait) error {
	return save.WriteList(c, name, len(traits), func(i int) error {
		return traits[i].Save(c)
	})
}

func loadTraits(c *save.Context, name string) ([]*Trait, error) {
	var out []*Trait
	err := save.ReadList(c, name, func(int) error {
		t := &Trait{}
		if err := t.Load(c); err != nil {
			return err
		}
		out = append(out, t)
		return nil
	})
	return out, err
}

// Trait templates drawn on when a bloodline sprouts something new.
var traitTemplates = []Trait{
	{ID: "shrewd", Name: "Shrewd", Description: "Natural business acumen",
		InheritanceChance: 0.6, IncomeModifier: 1.15, DiscoveryModifier: 1.0},
	{ID: "loyal", Name: "Devoted", Description: "Exceptional loyalty",
		InheritanceChance: 0.5, IncomeModifier: 1.0, LoyaltyModifier: 15, DiscoveryModifier: 0.8,
		Conflicts: []string{"greedy"}},
	{ID: "cunning", Name: "Cunning", Description: "Skilled at deception",
		InheritanceChance: 0.4, IncomeModifier: 1.1, LoyaltyModifier: -5, DiscoveryModifier: 0.7},
	{ID: "ambitious", Name: "Ambitious", Description: "Driven to succeed",
		InheritanceChance: 0.5, IncomeModifier: 1.2, LoyaltyModifier: -10, DiscoveryModifier: 1.1,
		Conflicts: []string{"cautious"}},
	{ID: "cautious", Name: "Cautious", Description: "Avoids unnecessary risks",
		InheritanceChance: 0.6, IncomeModifier: 0.95, LoyaltyModifier: 5, DiscoveryModifier: 0.6,
		Conflicts: []string{"ambitious"}},
	{ID: "charismatic", Name: "Charismatic", Description: "Natural leader",
		InheritanceChance: 0.4, IncomeModifier: 1.1, LoyaltyModifier: 5, DiscoveryModifier: 1.0},
	{ID: "secretive", Name: "Secretive", Description: "Keeps secrets well",
		InheritanceChance: 0.5, IncomeModifier: 1.0, DiscoveryModifier: 0.5},
	{ID: "greedy", Name: "Greedy", Description: "Motivated by wealth",
		InheritanceChance: 0.4, IncomeModifier: 1.25, LoyaltyModifier: -15, DiscoveryModifier: 1.2,
		Conflicts: []string{"loyal"}},
}

// TraitByID returns a fresh copy of a template trait, or nil.
func TraitByID(id string) *Trait {
	for i := range traitTemplates {
		if traitTemplates[i].ID == id {
			return traitTemplates[i].Clone()
		}
	}
	return nil
}

// TraitIDs lists the template ids in draw order.
func TraitIDs() []string {
	ids := make([]string, len(traitTemplates))
	for i := range traitTemplates {
		ids[i] = traitTemplates[i].ID
	}
	return ids
}

func randomTrait(rng entropy.Source) *Trait {
	return traitTemplates[rng.IntRange(0, len(traitTemplates))].Clone()
}

func hasTraitID(traits []*Trait, id string) bool {
	return slices.ContainsFunc(traits, func(t *Trait) bool { return t.ID == id })
}

func conflictsAny(traits []*Trait, t *Trait) bool {
	return slices.ContainsFunc(traits, t.ConflictsWith)
}
