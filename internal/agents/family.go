package agents

import (
	"log/slog"
	"slices"
	"strconv"

	"github.com/copyleft-games/lichs-portfolio/internal/entropy"
	"github.com/copyleft-games/lichs-portfolio/internal/notice"
	"github.com/copyleft-games/lichs-portfolio/internal/save"
)

// DefaultFoundingYear is the calendar year a new game begins.
const DefaultFoundingYear = 847

const emergenceAttempts = 5

// Family is a dynasty in the player's service. The embedded Core is the
// current head; when the head dies the next generation takes over.
type Family struct {
	Core
	FamilyName   string
	Generation   uint
	FoundingYear uint64
	Bloodline    []*Trait
}

// NewFamily returns a first-generation family.
func NewFamily(id, familyName string, foundingYear uint64) *Family {
	f := &Family{
		Core:         newCore(id, familyName),
		FamilyName:   familyName,
		Generation:   1,
		FoundingYear: foundingYear,
	}
	return f
}

func (f *Family) Type() Type { return TypeFamily }

// Alive is always true: a family outlives its heads.
func (f *Family) Alive() bool { return true }

// HeadAlive reports whether the current head is short of their final year.
func (f *Family) HeadAlive() bool { return f.Core.Alive() }

// YearPassed ages the head, passing leadership on when they die.
func (f *Family) YearPassed(rng entropy.Source, aging Aging) {
	if died := f.ageOneYear(rng, aging); died {
		f.AdvanceGeneration(rng)
	}
}

// AddBloodlineTrait adds a trait to the heritable pool.
func (f *Family) AddBloodlineTrait(t *Trait) bool {
	if t == nil || hasTraitID(f.Bloodline, t.ID) {
		return false
	}
	f.Bloodline = append(f.Bloodline, t)
	return true
}

func (f *Family) RemoveBloodlineTrait(id string) bool {
	i := slices.IndexFunc(f.Bloodline, func(t *Trait) bool { return t.ID == id })
	if i < 0 {
		return false
	}
	f.Bloodline = slices.Delete(f.Bloodline, i, i+1)
	return true
}

// AdvanceGeneration installs a new head: inherited traits, fresh age,
// a new name and slightly shaken loyalty.
func (f *Family) AdvanceGeneration(rng entropy.Source) {
	f.Generation++

	inherited := f.rollInheritance(rng)
	for _, t := range f.Traits {
		if hasTraitID(f.Bloodline, t.ID) {
			continue
		}
		if rng.IntRange(0, 100) < 50 {
			f.Bloodline = append(f.Bloodline, t)
			if len(inherited) < MaxTraits && !conflictsAny(inherited, t) {
				inherited = append(inherited, t)
			}
		}
	}
	f.Traits = nil
	for _, t := range inherited {
		f.AddTrait(t.Clone())
	}

	if t := f.rollNewTrait(rng); t != nil {
		f.Bloodline = append(f.Bloodline, t)
		f.AddTrait(t.Clone())
		f.notify(notice.NewTraitEmerged, t.ID, "", "")
	}

	f.Age = uint(rng.IntRange(18, 25))
	f.MaxAge = uint(rng.IntRange(60, 85))
	f.Name = headName(f.FamilyName, f.Generation, rng)
	f.SetLoyalty(f.Loyalty - rng.IntRange(0, 10))

	slog.Debug("family generation advanced", "family", f.ID, "generation", f.Generation, "head", f.Name)
	f.notify(notice.GenerationAdvanced, f.Name, "", strconv.FormatUint(uint64(f.Generation), 10))
}

// rollInheritance draws once per bloodline trait, keeping those that pass
// and fit alongside the ones already chosen.
func (f *Family) rollInheritance(rng entropy.Source) []*Trait {
	var out []*Trait
	for _, t := range f.Bloodline {
		if !t.RollInheritance(rng, f.Generation) {
			continue
		}
		if len(out) < MaxTraits && !conflictsAny(out, t) {
			out = append(out, t)
		}
	}
	return out
}

// EmergenceChance is the chance a new trait surfaces this generation.
func (f *Family) EmergenceChance() float64 {
	return min(0.15, 0.05+float64(f.Generation)*0.01)
}

func (f *Family) rollNewTrait(rng entropy.Source) *Trait {
	if rng.Float64() >= f.EmergenceChance() {
		return nil
	}
	for range emergenceAttempts {
		t := randomTrait(rng)
		if hasTraitID(f.Bloodline, t.ID) || conflictsAny(f.Bloodline, t) {
			continue
		}
		return t
	}
	return nil
}

func (f *Family) Save(c *save.Context) error {
	if err := f.saveCore(c, TypeFamily); err != nil {
		return err
	}
	c.WriteString("family-name", f.FamilyName)
	c.WriteUint("generation", uint64(f.Generation))
	c.WriteUint("founding-year", f.FoundingYear)
	return saveTraits(c, "bloodline-traits", f.Bloodline)
}

func (f *Family) Load(c *save.Context) error {
	if err := f.loadCore(c); err != nil {
		return err
	}
	f.FamilyName = c.ReadString("family-name", "")
	f.Generation = uint(max(1, c.ReadUint("generation", 1)))
	f.FoundingYear = c.ReadUint("founding-year", DefaultFoundingYear)
	bloodline, err := loadTraits(c, "bloodline-traits")
	if err != nil {
		return err
	}
	f.Bloodline = bloodline
	return nil
}
