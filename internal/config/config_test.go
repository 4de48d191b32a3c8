package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeTuning(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StartingYear != 847 || cfg.StartingGold != 1000 || cfg.SaveDir != "data/saves" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Events.YearlyChance != 0.3 || cfg.Events.DecadeChance != 0.7 || cfg.Events.EraChance != 0.9 {
		t.Errorf("event chances = %+v", cfg.Events)
	}
	if cfg.Scenario.Kingdoms != 4 || cfg.Scenario.Regions != 12 || cfg.Scenario.Agents != 3 {
		t.Errorf("scenario = %+v", cfg.Scenario)
	}
}

func TestTuningFileKeepsUnsetDefaults(t *testing.T) {
	path := writeTuning(t, `
seed: 42
starting_gold: 2500
events:
  yearly_chance: 0.5
scenario:
  kingdoms: 2
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Seed != 42 || cfg.StartingGold != 2500 || cfg.Events.YearlyChance != 0.5 || cfg.Scenario.Kingdoms != 2 {
		t.Errorf("tuned = %+v", cfg)
	}
	if cfg.Events.EraChance != 0.9 || cfg.Scenario.Regions != 12 {
		t.Error("unset keys lost their defaults")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	path := writeTuning(t, "seed: 42\nsave_dir: from-file\n")
	t.Setenv("LICHS_TUNING", path)
	t.Setenv("LICHS_SEED", "7")
	t.Setenv("LICHS_COMPRESS_SAVES", "true")
	t.Setenv("LICHS_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Seed != 7 || cfg.SaveDir != "from-file" || !cfg.CompressSaves {
		t.Errorf("cfg = %+v", cfg)
	}
	if lvl, _ := cfg.Level(); lvl != slog.LevelDebug {
		t.Errorf("level = %v", lvl)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"chance above one", func(c *Config) { c.Events.DecadeChance = 1.5 }},
		{"negative chance", func(c *Config) { c.Events.YearlyChance = -0.1 }},
		{"empty save dir", func(c *Config) { c.SaveDir = "" }},
		{"negative gold", func(c *Config) { c.StartingGold = -1 }},
		{"negative kingdoms", func(c *Config) { c.Scenario.Kingdoms = -1 }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		cfg := Default()
		tt.mod(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
			t.Errorf("%s: err = %v", tt.name, err)
		}
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestBadTuningFile(t *testing.T) {
	if _, err := Load(writeTuning(t, "seed: [1, 2")); err == nil {
		t.Error("malformed yaml accepted")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err = %v", err)
	}
}

func TestNewGame(t *testing.T) {
	cfg := Default()
	cfg.Seed = 3
	cfg.StartingYear = 900
	cfg.StartingGold = 5000
	cfg.Exposure.DecayRate = 2
	cfg.Scenario.Agents = 1

	g, err := cfg.NewGame()
	if err != nil {
		t.Fatal(err)
	}
	if g.CurrentYear() != 900 || g.Portfolio().Gold() != 5000 || g.Exposure().DecayRate() != 2 {
		t.Errorf("year=%d gold=%v decay=%d", g.CurrentYear(), g.Portfolio().Gold(), g.Exposure().DecayRate())
	}
	if g.Agents().Count() != 1 || len(g.World().Kingdoms()) != 4 {
		t.Error("scenario not applied")
	}
	if y, _, _ := g.World().Generator().Chances(); y != cfg.Events.YearlyChance {
		t.Errorf("yearly chance = %v", y)
	}
}
