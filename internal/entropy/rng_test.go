package entropy

import (
	"testing"

	"github.com/copyleft-games/lichs-portfolio/internal/save"
)

func TestSameSeedSameStream(t *testing.T) {
	a, b := New(847), New(847)
	for i := 0; i < 100; i++ {
		if x, y := a.Uint64(), b.Uint64(); x != y {
			t.Fatalf("draw %d: %d != %d", i, x, y)
		}
	}
}

func TestFloatAndRangeBounds(t *testing.T) {
	r := New(1)
	for i := 0; i < 10000; i++ {
		f := r.Float64()
		if f < 0 || f >= 1 {
			t.Fatalf("Float64 = %v out of [0,1)", f)
		}
		n := r.IntRange(-2, 3)
		if n < -2 || n > 2 {
			t.Fatalf("IntRange(-2,3) = %d", n)
		}
	}
	if got := r.IntRange(5, 5); got != 5 {
		t.Errorf("empty range = %d, want lo", got)
	}
}

func TestChildIsIndependent(t *testing.T) {
	r := New(42)
	c1 := r.Child("events")
	before := r.state
	c1.Uint64()
	if r.state != before {
		t.Error("child draw advanced parent")
	}
	if r.Child("events").Uint64() != New(Derive(42, "events")).Uint64() {
		t.Error("child not derived from seed and label")
	}
	if r.Child("a").Seed() == r.Child("b").Seed() {
		t.Error("different labels produced the same seed")
	}
}

func TestSaveRestoresPosition(t *testing.T) {
	r := New(99)
	for i := 0; i < 17; i++ {
		r.Uint64()
	}
	c := save.NewContext()
	if err := save.WriteSection(c, "rng", r); err != nil {
		t.Fatal(err)
	}
	restored := New(0)
	if err := save.ReadSection(c, "rng", restored); err != nil {
		t.Fatal(err)
	}
	if restored.Seed() != 99 {
		t.Errorf("seed = %d", restored.Seed())
	}
	for i := 0; i < 10; i++ {
		if r.Uint64() != restored.Uint64() {
			t.Fatalf("draw %d diverged after restore", i)
		}
	}
}

func TestScripted(t *testing.T) {
	s := NewScripted([]float64{0.1, 0.5}, []int{7, -9})
	if !s.Chance(0.3) {
		t.Error("0.1 < 0.3 should pass")
	}
	if s.Chance(0.5) {
		t.Error("0.5 < 0.5 should fail")
	}
	if s.Chance(0.99) {
		t.Error("exhausted queue should fail chances below 1")
	}
	if got := s.IntRange(0, 5); got != 4 {
		t.Errorf("clamped high = %d, want 4", got)
	}
	if got := s.IntRange(-2, 3); got != -2 {
		t.Errorf("clamped low = %d, want -2", got)
	}
	if got := s.IntRange(10, 20); got != 10 {
		t.Errorf("exhausted ints = %d, want lo", got)
	}
	var _ Source = s
	var _ Source = New(1)
}
