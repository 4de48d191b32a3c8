// Region generation using layered simplex noise. Each region samples
// elevation, rainfall and warmth at its hex position, which pick its
// geography, population and resource modifier.
package world

import (
	"fmt"
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/copyleft-games/lichs-portfolio/internal/entropy"
)

// GenConfig holds region generation parameters.
type GenConfig struct {
	Regions int   // Number of regions to place
	Seed    int64 // Noise and naming seed
}

// DefaultGenConfig returns the standard scenario size.
func DefaultGenConfig() GenConfig {
	return GenConfig{Regions: 12, Seed: 847}
}

// Generate places cfg.Regions regions on a hex spiral. The result is
// fully determined by the seed.
func Generate(cfg GenConfig) []*Region {
	coords := Spiral(cfg.Regions)
	if len(coords) == 0 {
		return nil
	}

	elevNoise := opensimplex.NewNormalized(cfg.Seed)
	rainNoise := opensimplex.NewNormalized(cfg.Seed + 1)
	warmNoise := opensimplex.NewNormalized(cfg.Seed + 2)
	rng := entropy.New(uint64(cfg.Seed)).Child("region-names")

	outer := coords[len(coords)-1].Ring()
	names := generateNames(rng, len(coords))
	regions := make([]*Region, 0, len(coords))

	for i, coord := range coords {
		// Hex axial to cartesian: x = q + r/2, y = r * sqrt(3)/2.
		x := float64(coord.Q) + float64(coord.R)*0.5
		y := float64(coord.R) * math.Sqrt(3.0) / 2.0

		elev := octaveNoise(elevNoise, x, y, 4, 0.35, 0.5)
		rain := octaveNoise(rainNoise, x, y, 3, 0.30, 0.5)
		warm := octaveNoise(warmNoise, x, y, 3, 0.25, 0.5)

		geo := deriveGeography(elev, rain, warm, coord.Ring() == outer && outer > 0)
		r := NewRegion(fmt.Sprintf("region-%02d", i+1), names[i], geo)
		r.Coord = coord
		r.Population = regionPopulation(geo, elev, rain)
		r.ResourceModifier = math.Round((0.8+elev*0.4)*geo.ResourceBonus()*100) / 100
		regions = append(regions, r)
	}

	connectTradeRoutes(regions)
	return regions
}

// deriveGeography picks a geography from environmental samples. Only the
// outer ring borders the sea.
func deriveGeography(elev, rain, warm float64, rim bool) Geography {
	switch {
	case elev > 0.68:
		return Mountain
	case rim && elev < 0.5:
		return Coastal
	case rain < 0.3 && warm > 0.55:
		return Desert
	case rain > 0.65 && elev < 0.45:
		return Swamp
	case rain > 0.5:
		return Forest
	default:
		return Inland
	}
}

// regionPopulation favors low, wet land and trade coasts.
func regionPopulation(geo Geography, elev, rain float64) uint64 {
	base := float64(DefaultPopulation) * (0.6 + (1.0-elev)*0.5 + rain*0.3)
	switch geo {
	case Coastal:
		base *= 1.3
	case Mountain, Desert:
		base *= 0.6
	case Swamp:
		base *= 0.5
	}
	return uint64(math.Round(base))
}

// connectTradeRoutes links each coastal or inland region to its
// neighbors of the same kinds.
func connectTradeRoutes(regions []*Region) {
	byCoord := make(map[HexCoord]*Region, len(regions))
	for _, r := range regions {
		byCoord[r.Coord] = r
	}
	for _, r := range regions {
		if r.Geography != Coastal && r.Geography != Inland {
			continue
		}
		for _, nc := range r.Coord.Neighbors() {
			n, ok := byCoord[nc]
			if !ok || (n.Geography != Coastal && n.Geography != Inland) {
				continue
			}
			r.AddTradeRoute(n.ID)
		}
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// generateNames produces distinct region names from two syllable lists.
func generateNames(rng *entropy.Rng, count int) []string {
	heads := []string{
		"Vael", "Mor", "Ash", "Khar", "Sel", "Duin", "Thal", "Or",
		"Bryn", "Cal", "Ves", "Nar", "Ul", "Grim", "Ely", "Sor",
	}
	tails := []string{
		"mark", "moor", "reach", "fen", "wold", "march", "vale", "hold",
		"shire", "downs", "mere", "crag", "wick", "heath", "strand", "gard",
	}

	used := make(map[string]bool)
	names := make([]string, 0, count)
	for len(names) < count {
		name := heads[rng.IntRange(0, len(heads))] + tails[rng.IntRange(0, len(tails))]
		if used[name] {
			if len(used) >= len(heads)*len(tails) {
				name = fmt.Sprintf("%s %d", name, len(names)+1)
			} else {
				continue
			}
		}
		used[name] = true
		names = append(names, name)
	}
	return names
}
