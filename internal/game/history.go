package game

import (
	"slices"

	"github.com/copyleft-games/lichs-portfolio/internal/save"
)

// Snapshot is the portfolio's worth at the end of a slumber.
type Snapshot struct {
	Year            uint64
	TotalValue      float64
	Gold            float64
	InvestmentValue float64
}

// History is the per-run record of portfolio snapshots.
type History struct {
	snapshots []Snapshot
}

func (h *History) Record(s Snapshot) { h.snapshots = append(h.snapshots, s) }

func (h *History) Snapshots() []Snapshot { return slices.Clone(h.snapshots) }

func (h *History) Len() int { return len(h.snapshots) }

// Latest returns the most recent snapshot, if any.
func (h *History) Latest() (Snapshot, bool) {
	if len(h.snapshots) == 0 {
		return Snapshot{}, false
	}
	return h.snapshots[len(h.snapshots)-1], true
}

func (h *History) Clear() { h.snapshots = nil }

func (h *History) SaveID() string { return "portfolio-history" }

func (h *History) Save(c *save.Context) error {
	return save.WriteList(c, "snapshots", len(h.snapshots), func(i int) error {
		s := h.snapshots[i]
		c.WriteUint("year", s.Year)
		c.WriteDouble("total-value", s.TotalValue)
		c.WriteDouble("gold", s.Gold)
		c.WriteDouble("investment-value", s.InvestmentValue)
		return nil
	})
}

func (h *History) Load(c *save.Context) error {
	h.snapshots = nil
	return save.ReadList(c, "snapshots", func(int) error {
		h.Record(Snapshot{
			Year:            c.ReadUint("year", 0),
			TotalValue:      c.ReadDouble("total-value", 0),
			Gold:            c.ReadDouble("gold", 0),
			InvestmentValue: c.ReadDouble("investment-value", 0),
		})
		return nil
	})
}
