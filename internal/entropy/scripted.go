package entropy

// Scripted replays queued draws so tests can force exact outcomes.
// Float64 pops Floats and IntRange pops Ints; Chance consumes a float.
// An exhausted float queue returns Fallback (a zero value means every
// Chance succeeds); an exhausted int queue returns lo.
type Scripted struct {
	Floats   []float64
	Ints     []int
	Fallback float64
}

// NewScripted returns a source whose exhausted float draws never pass a
// Chance below 1.
func NewScripted(floats []float64, ints []int) *Scripted {
	return &Scripted{Floats: floats, Ints: ints, Fallback: 0.999999}
}

func (s *Scripted) Float64() float64 {
	if len(s.Floats) == 0 {
		return s.Fallback
	}
	v := s.Floats[0]
	s.Floats = s.Floats[1:]
	return v
}

// IntRange clamps the queued value into [lo, hi).
func (s *Scripted) IntRange(lo, hi int) int {
	if len(s.Ints) == 0 || hi <= lo {
		return lo
	}
	v := s.Ints[0]
	s.Ints = s.Ints[1:]
	if v < lo {
		return lo
	}
	if v >= hi {
		return hi - 1
	}
	return v
}

func (s *Scripted) Chance(p float64) bool {
	return s.Float64() < p
}

// Pending reports how many queued draws remain.
func (s *Scripted) Pending() (floats, ints int) {
	return len(s.Floats), len(s.Ints)
}
