// Package persistence stores games on disk: numbered YAML save slots
// managed by SaveManager, and a SQLite catalog indexing those slots and
// chronicling world events across runs.
package persistence

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/copyleft-games/lichs-portfolio/internal/game"
	"github.com/copyleft-games/lichs-portfolio/internal/save"
)

// SaveVersion is the save format this build writes and the newest it reads.
const SaveVersion = 1

// Slot layout.
const (
	MaxSlots      = 10
	QuickSlot     = 0
	slotPrefix    = "save"
	slotExt       = ".yaml"
	autosaveStem  = "autosave"
	gameSectionID = "game-data"
)

var (
	ErrSlotNotFound  = errors.New("save slot not found")
	ErrInvalidSlot   = errors.New("save slot out of range")
	ErrSaveDirectory = errors.New("save directory unavailable")
)

// documentSchema checks the header and the type of the game section. A
// missing game section is reported by the loader as a missing section.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["save-version", "save-timestamp"],
  "properties": {
    "save-version": {"type": "integer", "minimum": 0},
    "save-timestamp": {"type": "integer"},
    "game-data": {
      "type": "object",
      "properties": {
        "total-years-played": {"type": "integer", "minimum": 0},
        "run-id": {"type": "string"},
        "world-simulation": {"type": "object"}
      }
    }
  }
}`

// SlotInfo describes a save file without loading it into a game.
type SlotInfo struct {
	Slot       int
	Path       string
	RunID      string
	Year       uint64
	TotalYears uint64
	SavedAt    time.Time
	Version    uint64
}

// SaveManager reads and writes games in a save directory.
type SaveManager struct {
	dir       string
	compress  bool
	validator *save.Validator
	catalog   *Catalog
	now       func() time.Time
}

// NewSaveManager returns a manager rooted at dir. With compress set, new
// saves are written zstd-compressed; either form is read.
func NewSaveManager(dir string, compress bool) (*SaveManager, error) {
	v, err := save.NewValidator("save-document", documentSchema)
	if err != nil {
		return nil, err
	}
	return &SaveManager{dir: dir, compress: compress, validator: v, now: time.Now}, nil
}

// AttachCatalog indexes every later save and delete in c.
func (m *SaveManager) AttachCatalog(c *Catalog) { m.catalog = c }

// SetClock replaces the timestamp source for saves.
func (m *SaveManager) SetClock(now func() time.Time) { m.now = now }

func (m *SaveManager) Dir() string { return m.dir }

// EnsureDirectory creates the save directory if it is missing.
func (m *SaveManager) EnsureDirectory() error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSaveDirectory, m.dir, err)
	}
	return nil
}

func (m *SaveManager) fileName(stem string) string {
	name := stem + slotExt
	if m.compress {
		name += save.CompressedExt
	}
	return filepath.Join(m.dir, name)
}

// SlotPath is where the next save to slot is written.
func (m *SaveManager) SlotPath(slot int) string {
	return m.fileName(slotPrefix + strconv.Itoa(slot))
}

func (m *SaveManager) AutosavePath() string { return m.fileName(autosaveStem) }

// existing returns the file holding stem in either encoding, preferring
// the configured one.
func (m *SaveManager) existing(stem string) (string, bool) {
	plain := filepath.Join(m.dir, stem+slotExt)
	candidates := []string{plain, plain + save.CompressedExt}
	if m.compress {
		candidates[0], candidates[1] = candidates[1], candidates[0]
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

func checkSlot(slot int) error {
	if slot < 0 || slot >= MaxSlots {
		return fmt.Errorf("slot %d: %w", slot, ErrInvalidSlot)
	}
	return nil
}

// NewDocument builds the complete save document for g.
func NewDocument(g *game.GameData, at time.Time) (*save.Context, error) {
	c := save.NewContext()
	c.WriteHeader(SaveVersion, at)
	if err := save.WriteSection(c, gameSectionID, g); err != nil {
		return nil, err
	}
	return c, c.Err()
}

// Restore checks c and loads it into g. On error g must be discarded.
func (m *SaveManager) Restore(c *save.Context, g *game.GameData) error {
	if err := m.validator.Validate(c); err != nil {
		return err
	}
	if err := c.CheckVersion(SaveVersion); err != nil {
		slog.Warn("unsupported save version", "version", c.Version(), "max", SaveVersion)
		return err
	}
	if v := c.Version(); v < SaveVersion {
		slog.Info("loading older save format", "version", v, "current", SaveVersion)
	}
	return save.ReadSection(c, gameSectionID, g)
}

// Validate checks a save file without loading it.
func (m *SaveManager) Validate(path string) error {
	c, err := save.ReadFile(path)
	if err != nil {
		return err
	}
	if err := m.validator.Validate(c); err != nil {
		return err
	}
	if err := c.CheckVersion(SaveVersion); err != nil {
		return err
	}
	if !c.HasSection(gameSectionID) {
		return save.MissingSection(gameSectionID)
	}
	return nil
}

func (m *SaveManager) saveToFile(g *game.GameData, path string) error {
	if err := m.EnsureDirectory(); err != nil {
		return err
	}
	c, err := NewDocument(g, m.now())
	if err != nil {
		return fmt.Errorf("encode game: %w", err)
	}
	if err := save.WriteFile(path, c); err != nil {
		slog.Warn("save failed", "path", path, "err", err)
		return fmt.Errorf("write %s: %w", path, err)
	}
	slog.Info("game saved", "path", path, "year", g.CurrentYear())
	return nil
}

func (m *SaveManager) loadFromFile(g *game.GameData, path string) error {
	c, err := save.ReadFile(path)
	if err != nil {
		slog.Warn("load failed", "path", path, "err", err)
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := m.Restore(c, g); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	slog.Info("game loaded", "path", path, "year", g.CurrentYear())
	return nil
}

// SaveGame writes g to slot, replacing any previous save there.
func (m *SaveManager) SaveGame(g *game.GameData, slot int) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	stem := slotPrefix + strconv.Itoa(slot)
	stale, hadStale := m.existing(stem)
	path := m.SlotPath(slot)
	if err := m.saveToFile(g, path); err != nil {
		return err
	}
	if hadStale && stale != path {
		if err := os.Remove(stale); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("could not remove stale save", "path", stale, "err", err)
		}
	}
	return m.index(slot, path)
}

func (m *SaveManager) Quicksave(g *game.GameData) error { return m.SaveGame(g, QuickSlot) }

// Autosave writes g to the autosave file, outside the numbered slots.
func (m *SaveManager) Autosave(g *game.GameData) error {
	return m.saveToFile(g, m.AutosavePath())
}

// LoadGame replaces g with the game in slot.
func (m *SaveManager) LoadGame(g *game.GameData, slot int) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	path, ok := m.existing(slotPrefix + strconv.Itoa(slot))
	if !ok {
		return fmt.Errorf("slot %d: %w", slot, ErrSlotNotFound)
	}
	return m.loadFromFile(g, path)
}

func (m *SaveManager) Quickload(g *game.GameData) error { return m.LoadGame(g, QuickSlot) }

func (m *SaveManager) LoadAutosave(g *game.GameData) error {
	path, ok := m.existing(autosaveStem)
	if !ok {
		return fmt.Errorf("autosave: %w", ErrSlotNotFound)
	}
	return m.loadFromFile(g, path)
}

func (m *SaveManager) SlotExists(slot int) bool {
	if checkSlot(slot) != nil {
		return false
	}
	_, ok := m.existing(slotPrefix + strconv.Itoa(slot))
	return ok
}

func (m *SaveManager) AutosaveExists() bool {
	_, ok := m.existing(autosaveStem)
	return ok
}

// SlotInfo reads a slot's header and year without loading the game. It
// reports false when the slot is empty or unreadable.
func (m *SaveManager) SlotInfo(slot int) (SlotInfo, bool) {
	if checkSlot(slot) != nil {
		return SlotInfo{}, false
	}
	path, ok := m.existing(slotPrefix + strconv.Itoa(slot))
	if !ok {
		return SlotInfo{}, false
	}
	info, err := readInfo(path)
	if err != nil {
		slog.Debug("failed to read slot info", "slot", slot, "err", err)
		return SlotInfo{}, false
	}
	info.Slot = slot
	return info, true
}

func readInfo(path string) (SlotInfo, error) {
	c, err := save.ReadFile(path)
	if err != nil {
		return SlotInfo{}, err
	}
	info := SlotInfo{Path: path, SavedAt: c.Timestamp(), Version: c.Version(), Slot: -1}
	if c.EnterSection(gameSectionID) {
		info.TotalYears = c.ReadUint("total-years-played", 0)
		info.RunID = c.ReadString("run-id", "")
		if c.EnterSection("world-simulation") {
			info.Year = c.ReadUint("current-year", 0)
			c.LeaveSection()
		}
		c.LeaveSection()
	}
	return info, nil
}

// Slots lists every occupied slot in slot order.
func (m *SaveManager) Slots() []SlotInfo {
	var out []SlotInfo
	for slot := range MaxSlots {
		if info, ok := m.SlotInfo(slot); ok {
			out = append(out, info)
		}
	}
	return out
}

// DeleteSlot removes a slot. Deleting an empty slot succeeds.
func (m *SaveManager) DeleteSlot(slot int) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	stem := slotPrefix + strconv.Itoa(slot)
	for {
		path, ok := m.existing(stem)
		if !ok {
			break
		}
		if err := os.Remove(path); err != nil {
			slog.Warn("failed to delete slot", "slot", slot, "err", err)
			return fmt.Errorf("delete slot %d: %w", slot, err)
		}
	}
	if m.catalog != nil {
		if err := m.catalog.ForgetSlot(slot); err != nil {
			return err
		}
	}
	slog.Info("deleted save slot", "slot", slot)
	return nil
}

func (m *SaveManager) index(slot int, path string) error {
	if m.catalog == nil {
		return nil
	}
	info, err := readInfo(path)
	if err != nil {
		return err
	}
	info.Slot = slot
	return m.catalog.RecordSlot(info)
}
