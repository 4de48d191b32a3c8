package game

import (
	"log/slog"
	"slices"
	"strconv"

	"github.com/copyleft-games/lichs-portfolio/internal/save"
)

// Category groups ledger discoveries.
type Category uint8

const (
	LedgerEconomic   Category = iota // Market patterns and collapses
	LedgerAgent                      // Bloodline secrets
	LedgerCompetitor                 // Rival immortals
	LedgerHidden                     // Hidden mechanics
)

var categoryNames = [...]string{"Economic", "Agent", "Competitor", "Hidden"}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "Category(" + strconv.Itoa(int(c)) + ")"
}

// Discovery is one ledger entry.
type Discovery struct {
	ID       string
	Category Category
	Year     uint64
}

// Ledger records what the lich has learned across every run.
type Ledger struct {
	entries []Discovery
}

func NewLedger() *Ledger { return &Ledger{} }

// Discover records id once. It reports whether the entry is new.
func (l *Ledger) Discover(id string, cat Category, year uint64) bool {
	if id == "" || l.Has(id) {
		return false
	}
	l.entries = append(l.entries, Discovery{ID: id, Category: cat, Year: year})
	slog.Debug("ledger discovery", "entry", id, "category", cat, "year", year)
	return true
}

func (l *Ledger) Has(id string) bool {
	return slices.ContainsFunc(l.entries, func(d Discovery) bool { return d.ID == id })
}

func (l *Ledger) Count() int { return len(l.entries) }

// Entries returns discoveries in the order they were made.
func (l *Ledger) Entries() []Discovery { return slices.Clone(l.entries) }

func (l *Ledger) InCategory(cat Category) []Discovery {
	var out []Discovery
	for _, d := range l.entries {
		if d.Category == cat {
			out = append(out, d)
		}
	}
	return out
}

func (l *Ledger) Clear() { l.entries = nil }

func (l *Ledger) SaveID() string { return "ledger" }

func (l *Ledger) Save(c *save.Context) error {
	return save.WriteList(c, "discoveries", len(l.entries), func(i int) error {
		d := l.entries[i]
		c.WriteString("id", d.ID)
		c.WriteInt("category", int64(d.Category))
		c.WriteUint("year", d.Year)
		return nil
	})
}

func (l *Ledger) Load(c *save.Context) error {
	l.entries = nil
	return save.ReadList(c, "discoveries", func(int) error {
		cat := c.ReadInt("category", 0)
		if cat < 0 || cat > int64(LedgerHidden) {
			return save.UnknownType("category", strconv.FormatInt(cat, 10))
		}
		l.Discover(c.ReadString("id", ""), Category(cat), c.ReadUint("year", 0))
		return nil
	})
}
