// Package entropy provides the seeded random stream behind every
// probabilistic decision in the simulation. A stream is fully described
// by its seed and current state, so saving both makes runs reproducible.
package entropy

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/copyleft-games/lichs-portfolio/internal/save"
)

// Source is the draw interface simulation code depends on.
type Source interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// IntRange returns a value in [lo, hi). hi <= lo yields lo.
	IntRange(lo, hi int) int
	// Chance reports whether a draw falls below p.
	Chance(p float64) bool
}

// Rng is a SplitMix64 stream.
type Rng struct {
	seed  uint64
	state uint64
}

// New returns a stream seeded with seed.
func New(seed uint64) *Rng {
	return &Rng{seed: seed, state: seed}
}

// NewFromClock seeds from the wall clock for unseeded runs.
func NewFromClock() *Rng {
	return New(uint64(time.Now().UnixNano()))
}

// SeedFromString hashes arbitrary text into a seed.
func SeedFromString(s string) uint64 {
	h := sha256.Sum256([]byte(s))
	return binary.LittleEndian.Uint64(h[:8])
}

// Derive returns a child seed for label using HMAC-SHA256 keyed on base.
func Derive(base uint64, label string) uint64 {
	key := make([]byte, 8)
	binary.LittleEndian.PutUint64(key, base)
	m := hmac.New(sha256.New, key)
	_, _ = m.Write([]byte(label))
	sum := m.Sum(nil)
	return binary.LittleEndian.Uint64(sum[:8])
}

// Seed returns the seed the stream started from.
func (r *Rng) Seed() uint64 { return r.seed }

// Reseed restarts the stream from seed.
func (r *Rng) Reseed(seed uint64) {
	r.seed = seed
	r.state = seed
}

// Uint64 advances the stream.
func (r *Rng) Uint64() uint64 {
	r.state += 0x9E3779B97F4A7C15
	z := r.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func (r *Rng) Float64() float64 {
	return float64(r.Uint64()>>11) / (1 << 53)
}

func (r *Rng) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + int(r.Uint64()%uint64(hi-lo))
}

func (r *Rng) Chance(p float64) bool {
	return r.Float64() < p
}

// Child returns an independent stream derived from this stream's seed and
// label. Drawing from the child does not advance the parent.
func (r *Rng) Child(label string) *Rng {
	return New(Derive(r.seed, label))
}

func (r *Rng) SaveID() string { return "rng" }

func (r *Rng) Save(c *save.Context) error {
	c.WriteUint("seed", r.seed)
	c.WriteUint("state", r.state)
	return nil
}

func (r *Rng) Load(c *save.Context) error {
	r.seed = c.ReadUint("seed", r.seed)
	r.state = c.ReadUint("state", r.seed)
	return nil
}
