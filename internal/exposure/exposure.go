// Package exposure tracks how visible the player's undead nature is to
// the mortal world: a 0..100 gauge with five threshold levels.
package exposure

import (
	"log/slog"
	"strconv"

	"github.com/copyleft-games/lichs-portfolio/internal/notice"
	"github.com/copyleft-games/lichs-portfolio/internal/save"
)

const (
	Max              = 100
	DefaultDecayRate = 5
)

// Level classifies the gauge value.
type Level uint8

const (
	Hidden    Level = iota // < 25
	Scrutiny               // < 50
	Suspicion              // < 75
	Hunt                   // < 100
	Crusade                // 100
)

var levelNames = [...]string{"Hidden", "Scrutiny", "Suspicion", "Hunt", "Crusade"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "Level(" + strconv.Itoa(int(l)) + ")"
}

// LevelFor classifies a gauge value.
func LevelFor(v uint) Level {
	switch {
	case v < 25:
		return Hidden
	case v < 50:
		return Scrutiny
	case v < 75:
		return Suspicion
	case v < 100:
		return Hunt
	default:
		return Crusade
	}
}

// Gauge is the exposure state. The zero value is not ready; use New.
type Gauge struct {
	value     uint
	decayRate uint
	sink      notice.Sink
}

// New returns an empty gauge with the default decay rate.
func New() *Gauge {
	return &Gauge{decayRate: DefaultDecayRate, sink: notice.Discard}
}

// SetSink routes threshold notices to s. nil discards them.
func (g *Gauge) SetSink(s notice.Sink) { g.sink = notice.Or(s) }

func (g *Gauge) Value() uint     { return g.value }
func (g *Gauge) DecayRate() uint { return g.decayRate }
func (g *Gauge) Level() Level    { return LevelFor(g.value) }

func (g *Gauge) SetDecayRate(rate uint) { g.decayRate = rate }

// SetValue clamps v into 0..100. Setting the current value is a no-op.
func (g *Gauge) SetValue(v int) {
	g.set(clamp(v))
}

// Add shifts the value by delta, clamped.
func (g *Gauge) Add(delta int) {
	g.set(clamp(int(g.value) + delta))
}

// ApplyDecay lowers the value by decay rate per year.
func (g *Gauge) ApplyDecay(years uint64) {
	if years == 0 || g.value == 0 || g.decayRate == 0 {
		return
	}
	drop := uint64(g.decayRate) * years
	if drop >= uint64(g.value) {
		g.set(0)
		return
	}
	g.set(g.value - uint(drop))
}

// Reset returns the gauge to zero with the default decay rate.
func (g *Gauge) Reset() {
	g.decayRate = DefaultDecayRate
	g.set(0)
}

func (g *Gauge) set(v uint) {
	if v == g.value {
		return
	}
	before := g.Level()
	g.value = v
	after := g.Level()
	if before != after {
		slog.Debug("exposure threshold crossed", "from", before, "to", after, "value", v)
		g.sink.Notify(notice.Notice{
			Kind:    notice.ThresholdCrossed,
			Subject: "exposure",
			From:    before.String(),
			To:      after.String(),
			Detail:  strconv.FormatUint(uint64(v), 10),
		})
	}
}

func clamp(v int) uint {
	if v < 0 {
		return 0
	}
	if v > Max {
		return Max
	}
	return uint(v)
}

func (g *Gauge) SaveID() string { return "exposure" }

func (g *Gauge) Save(c *save.Context) error {
	c.WriteUint("value", uint64(g.value))
	c.WriteUint("decay-rate", uint64(g.decayRate))
	return nil
}

// Load restores the gauge without raising notices.
func (g *Gauge) Load(c *save.Context) error {
	v := c.ReadUint("value", 0)
	if v > Max {
		v = Max
	}
	g.value = uint(v)
	g.decayRate = uint(c.ReadUint("decay-rate", DefaultDecayRate))
	return nil
}
