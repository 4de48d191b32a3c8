package persistence

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/copyleft-games/lichs-portfolio/internal/events"
)

// Catalog is a SQLite index of save slots plus a chronicle of world
// events shared by every run.
type Catalog struct {
	conn *sqlx.DB
}

// SlotRow is one indexed save slot.
type SlotRow struct {
	Slot       int    `db:"slot"`
	Path       string `db:"path"`
	RunID      string `db:"run_id"`
	Year       uint64 `db:"year"`
	TotalYears uint64 `db:"total_years"`
	SavedAt    int64  `db:"saved_at"`
}

func (r SlotRow) SavedTime() time.Time { return time.Unix(r.SavedAt, 0) }

// ChronicleEntry is one world event recorded against a run.
type ChronicleEntry struct {
	RunID    string `db:"run_id"`
	Year     uint64 `db:"year"`
	EventID  string `db:"event_id"`
	Kind     string `db:"kind"`
	Severity string `db:"severity"`
	Name     string `db:"name"`
}

// OpenCatalog opens or creates a catalog database at path.
func OpenCatalog(path string) (*Catalog, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	c := &Catalog{conn: conn}
	if err := c.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return c, nil
}

func (c *Catalog) Close() error {
	return c.conn.Close()
}

func (c *Catalog) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS slots (
		slot INTEGER PRIMARY KEY,
		path TEXT NOT NULL,
		run_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		total_years INTEGER NOT NULL,
		saved_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chronicle (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		event_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		severity TEXT NOT NULL,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_chronicle_run ON chronicle(run_id, year);
	`
	_, err := c.conn.Exec(schema)
	return err
}

// RecordSlot indexes a freshly written slot, replacing the old row.
func (c *Catalog) RecordSlot(info SlotInfo) error {
	_, err := c.conn.Exec(
		`INSERT OR REPLACE INTO slots (slot, path, run_id, year, total_years, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		info.Slot, info.Path, info.RunID, info.Year, info.TotalYears, info.SavedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("record slot %d: %w", info.Slot, err)
	}
	return nil
}

func (c *Catalog) ForgetSlot(slot int) error {
	if _, err := c.conn.Exec("DELETE FROM slots WHERE slot = ?", slot); err != nil {
		return fmt.Errorf("forget slot %d: %w", slot, err)
	}
	return nil
}

// Slots returns indexed slots in slot order.
func (c *Catalog) Slots() ([]SlotRow, error) {
	var rows []SlotRow
	err := c.conn.Select(&rows,
		"SELECT slot, path, run_id, year, total_years, saved_at FROM slots ORDER BY slot")
	return rows, err
}

// AppendChronicle records events for a run in the order given.
func (c *Catalog) AppendChronicle(runID string, evs []*events.Event) error {
	if len(evs) == 0 {
		return nil
	}

	tx, err := c.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO chronicle
		(run_id, year, event_id, kind, severity, name) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range evs {
		if _, err := stmt.Exec(runID, e.Year, e.ID, e.Kind().String(), e.Severity.String(), e.Name); err != nil {
			return fmt.Errorf("insert event %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// Chronicle returns the most recent entries for a run, newest first. An
// empty run id spans every run.
func (c *Catalog) Chronicle(runID string, limit int) ([]ChronicleEntry, error) {
	var out []ChronicleEntry
	var err error
	if runID == "" {
		err = c.conn.Select(&out,
			`SELECT run_id, year, event_id, kind, severity, name FROM chronicle
			ORDER BY id DESC LIMIT ?`, limit)
	} else {
		err = c.conn.Select(&out,
			`SELECT run_id, year, event_id, kind, severity, name FROM chronicle
			WHERE run_id = ? ORDER BY id DESC LIMIT ?`, runID, limit)
	}
	return out, err
}

// ChronicleCount returns how many events a run has recorded.
func (c *Catalog) ChronicleCount(runID string) (int, error) {
	var n int
	err := c.conn.Get(&n, "SELECT COUNT(*) FROM chronicle WHERE run_id = ?", runID)
	return n, err
}

// SaveMeta stores a key-value pair.
func (c *Catalog) SaveMeta(key, value string) error {
	_, err := c.conn.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)", key, value)
	return err
}

// GetMeta retrieves a metadata value.
func (c *Catalog) GetMeta(key string) (string, error) {
	var value string
	err := c.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	return value, err
}

// RecordSlumber chronicles one slumber's events and remembers the year
// reached by the run.
func (c *Catalog) RecordSlumber(runID string, year uint64, evs []*events.Event) error {
	slog.Info("recording slumber", "run", runID, "year", year, "events", len(evs))
	if err := c.AppendChronicle(runID, evs); err != nil {
		return fmt.Errorf("append chronicle: %w", err)
	}
	if err := c.SaveMeta("last_year:"+runID, fmt.Sprintf("%d", year)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	return nil
}
