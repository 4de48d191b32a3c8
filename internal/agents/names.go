package agents

import (
	"fmt"

	"github.com/copyleft-games/lichs-portfolio/internal/entropy"
)

// PersonName draws a given name and a surname.
func PersonName(rng entropy.Source) string {
	firsts := givenNames[0]
	if rng.IntRange(0, 2) == 1 {
		firsts = givenNames[1]
	}
	first := firsts[rng.IntRange(0, len(firsts))]
	return first + " " + FamilyName(rng)
}

// FamilyName draws a surname.
func FamilyName(rng entropy.Source) string {
	return surnames[rng.IntRange(0, len(surnames))]
}

// headName names a family's new head.
func headName(family string, generation uint, rng entropy.Source) string {
	rank := "Junior"
	if rng.IntRange(0, 2) != 0 {
		rank = "Senior"
	}
	return fmt.Sprintf("%s %s (Gen %d)", family, rank, generation)
}

// Recruit creates a fresh individual with randomized starting stats.
func Recruit(rng entropy.Source) *Individual {
	ind := NewIndividual("", "")
	ind.Age = uint(rng.IntRange(18, 30))
	ind.MaxAge = uint(rng.IntRange(60, 85))
	ind.Loyalty = rng.IntRange(40, 70)
	ind.Competence = rng.IntRange(20, 50)
	ind.Name = PersonName(rng)
	ind.ID = fmt.Sprintf("agent-%08x", rng.IntRange(0, 1<<31-1))
	return ind
}

// Founding creates a family of the given name in its first generation.
func Founding(rng entropy.Source, id, family string, year uint64) *Family {
	f := NewFamily(id, family, year)
	f.Age = uint(rng.IntRange(25, 45))
	f.MaxAge = uint(rng.IntRange(60, 85))
	f.Name = headName(family, f.Generation, rng)
	if t := randomTrait(rng); f.AddBloodlineTrait(t) {
		f.AddTrait(t.Clone())
	}
	return f
}

var givenNames = [2][]string{
	{
		"Aldric", "Bram", "Cedric", "Doran", "Erik", "Finn", "Gareth",
		"Halvard", "Ivan", "Jasper", "Kael", "Leif", "Magnus", "Nils",
		"Oswin", "Per", "Quinn", "Rowan", "Stellan", "Theron", "Ulric",
		"Varen", "Wren", "Yorick", "Zander", "Arlen", "Beric", "Cade",
	},
	{
		"Astrid", "Brenna", "Calla", "Daria", "Elara", "Freya", "Greta",
		"Helene", "Iris", "Juno", "Kira", "Lena", "Mira", "Nessa",
		"Olwen", "Petra", "Runa", "Senna", "Thea", "Una", "Vera",
		"Willa", "Yara", "Zara", "Ava", "Birgit", "Cora", "Dagny",
	},
}

var surnames = []string{
	"Voss", "Thornwood", "Blackwood", "Ashford", "Ironhand", "Dunmore",
	"Greenvale", "Stormcrow", "Frostborn", "Hearthstone", "Millward",
	"Vandar", "Ravenmoor", "Silverdale", "Wolfsbane", "Stoneheart",
	"Deepwell", "Brightwater", "Redforge", "Windholm", "Marshwood",
	"Goldhaven", "Nightingale", "Riverstone", "Embercroft", "Holloway",
	"Dawnridge", "Farrow", "Caldwell", "Mercer", "Ward", "Cross",
}
