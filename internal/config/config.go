// Package config loads run settings from an optional YAML tuning file,
// then applies LICHS_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/copyleft-games/lichs-portfolio/internal/economy"
	"github.com/copyleft-games/lichs-portfolio/internal/engine"
	"github.com/copyleft-games/lichs-portfolio/internal/entropy"
	"github.com/copyleft-games/lichs-portfolio/internal/events"
	"github.com/copyleft-games/lichs-portfolio/internal/exposure"
	"github.com/copyleft-games/lichs-portfolio/internal/game"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Seed          uint64  `yaml:"seed" env:"LICHS_SEED"` // 0 seeds from the clock
	StartingYear  uint64  `yaml:"starting_year"`
	StartingGold  float64 `yaml:"starting_gold"`
	SaveDir       string  `yaml:"save_dir" env:"LICHS_SAVE_DIR"`
	Database      string  `yaml:"database" env:"LICHS_DATABASE"`
	CompressSaves bool    `yaml:"compress_saves" env:"LICHS_COMPRESS_SAVES"`
	LogLevel      string  `yaml:"log_level" env:"LICHS_LOG_LEVEL"`

	Events   EventTuning    `yaml:"events"`
	Exposure ExposureTuning `yaml:"exposure"`
	Scenario ScenarioTuning `yaml:"scenario"`
}

type EventTuning struct {
	YearlyChance float64 `yaml:"yearly_chance"`
	DecadeChance float64 `yaml:"decade_chance"`
	EraChance    float64 `yaml:"era_chance"`
}

type ExposureTuning struct {
	DecayRate uint `yaml:"decay_rate"`
}

type ScenarioTuning struct {
	Kingdoms    int   `yaml:"kingdoms"`
	Regions     int   `yaml:"regions"`
	Competitors int   `yaml:"competitors"`
	Agents      int   `yaml:"agents"`
	MapSeed     int64 `yaml:"map_seed"`
}

func Default() Config {
	sc := engine.DefaultScenario()
	return Config{
		StartingYear: engine.DefaultStartingYear,
		StartingGold: economy.DefaultStartingGold,
		SaveDir:      "data/saves",
		Database:     "data/chronicle.db",
		LogLevel:     "info",
		Events: EventTuning{
			YearlyChance: events.DefaultYearlyChance,
			DecadeChance: events.DefaultDecadeChance,
			EraChance:    events.DefaultEraChance,
		},
		Exposure: ExposureTuning{DecayRate: exposure.DefaultDecayRate},
		Scenario: ScenarioTuning{
			Kingdoms:    sc.Kingdoms,
			Regions:     sc.Regions,
			Competitors: sc.Competitors,
			Agents:      game.DefaultSetup().Agents,
			MapSeed:     sc.Seed,
		},
	}
}

type tuningPath struct {
	Path string `env:"LICHS_TUNING"`
}

// Load builds the config from defaults, the tuning file at path (or
// LICHS_TUNING when path is empty) and the environment, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		var tp tuningPath
		if err := env.Parse(&tp); err != nil {
			return cfg, fmt.Errorf("parse env: %w", err)
		}
		path = tp.Path
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	for name, p := range map[string]float64{
		"events.yearly_chance": c.Events.YearlyChance,
		"events.decade_chance": c.Events.DecadeChance,
		"events.era_chance":    c.Events.EraChance,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("%w: %s %v outside [0, 1]", ErrInvalid, name, p)
		}
	}
	switch {
	case c.SaveDir == "":
		return fmt.Errorf("%w: save_dir is empty", ErrInvalid)
	case c.StartingGold < 0:
		return fmt.Errorf("%w: starting_gold %v is negative", ErrInvalid, c.StartingGold)
	case c.Scenario.Kingdoms < 0 || c.Scenario.Regions < 0 || c.Scenario.Competitors < 0 || c.Scenario.Agents < 0:
		return fmt.Errorf("%w: scenario counts must not be negative", ErrInvalid)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel as a slog level name.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log_level: %v", ErrInvalid, err)
	}
	return lvl, nil
}

// Rng returns the run's random source.
func (c Config) Rng() *entropy.Rng {
	if c.Seed == 0 {
		return entropy.NewFromClock()
	}
	return entropy.New(c.Seed)
}

func (c Config) Setup() game.Setup {
	return game.Setup{
		Scenario: engine.Scenario{
			Kingdoms:    c.Scenario.Kingdoms,
			Regions:     c.Scenario.Regions,
			Competitors: c.Scenario.Competitors,
			Seed:        c.Scenario.MapSeed,
		},
		Agents: c.Scenario.Agents,
	}
}

// NewGame starts a game tuned by c and populated with its scenario.
func (c Config) NewGame() (*game.GameData, error) {
	g := game.New(c.Rng())
	c.Tune(g)
	g.World().Reset(c.StartingYear)
	g.Portfolio().Reset(c.StartingGold)
	if err := g.Populate(c.Setup()); err != nil {
		return nil, err
	}
	return g, nil
}

// Tune applies the event and exposure settings to an existing game.
func (c Config) Tune(g *game.GameData) {
	g.World().Generator().SetChances(c.Events.YearlyChance, c.Events.DecadeChance, c.Events.EraChance)
	g.Exposure().SetDecayRate(c.Exposure.DecayRate)
}
