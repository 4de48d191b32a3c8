// Command lichsim runs a Lich's Portfolio game from the terminal: it
// starts or loads a game, slumbers for the requested years, prints what
// happened and saves the result.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/copyleft-games/lichs-portfolio/internal/config"
	"github.com/copyleft-games/lichs-portfolio/internal/events"
	"github.com/copyleft-games/lichs-portfolio/internal/game"
	"github.com/copyleft-games/lichs-portfolio/internal/notice"
	"github.com/copyleft-games/lichs-portfolio/internal/persistence"
)

func main() {
	tuning := flag.String("tuning", "", "YAML tuning file (default $LICHS_TUNING)")
	loadSlot := flag.Int("load", -1, "save slot to load; -1 starts a new game")
	saveSlot := flag.Int("save", persistence.QuickSlot, "save slot to write afterwards; -1 skips saving")
	years := flag.Uint64("years", 25, "years to slumber")
	resolve := flag.String("resolve", "", "answer pending events: event-id=choice-id[,event-id=choice-id]")
	prestige := flag.Bool("prestige", false, "trade the portfolio for phylactery points after slumbering")
	flag.Parse()

	cfg, err := config.Load(*tuning)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// ── Storage ───────────────────────────────────────────────────────
	saves, err := persistence.NewSaveManager(cfg.SaveDir, cfg.CompressSaves)
	if err != nil {
		slog.Error("failed to create save manager", "error", err)
		os.Exit(1)
	}
	if err := saves.EnsureDirectory(); err != nil {
		slog.Error("save directory unavailable", "error", err)
		os.Exit(1)
	}
	os.MkdirAll(filepath.Dir(cfg.Database), 0755)
	catalog, err := persistence.OpenCatalog(cfg.Database)
	if err != nil {
		slog.Error("failed to open catalog", "error", err)
		os.Exit(1)
	}
	defer catalog.Close()
	saves.AttachCatalog(catalog)

	// ── Load or Start ─────────────────────────────────────────────────
	var g *game.GameData
	if *loadSlot >= 0 {
		g = game.New(cfg.Rng())
		if err := saves.LoadGame(g, *loadSlot); err != nil {
			slog.Error("failed to load game", "slot", *loadSlot, "error", err)
			os.Exit(1)
		}
		cfg.Tune(g)
	} else {
		g, err = cfg.NewGame()
		if err != nil {
			slog.Error("failed to start game", "error", err)
			os.Exit(1)
		}
		slog.Info("new game", "run", g.RunID(), "year", g.CurrentYear(), "agents", g.Agents().Count())
	}

	g.Observe(logNotice)
	g.World().Hooks.OnDecade = func(year uint64) {
		slog.Debug("decade turns", "year", year, "phase", g.World().Phase())
	}
	g.World().Hooks.OnEra = func(year uint64) {
		slog.Info("a new era begins", "year", year)
	}

	if *resolve != "" {
		resolvePending(g, *resolve)
	}

	// ── Slumber ───────────────────────────────────────────────────────
	n := *years
	if limit := g.Phylactery().MaxSlumberYears(); n > limit {
		slog.Warn("slumber capped by phylactery", "requested", n, "max", limit)
		n = limit
	}
	from := g.CurrentYear()
	produced := g.Slumber(n)
	if err := catalog.RecordSlumber(g.RunID().String(), g.CurrentYear(), produced); err != nil {
		slog.Error("chronicle write failed", "error", err)
	}

	fmt.Printf("\nThe lich slumbered %d years, from %d to %d.\n\n", n, from, g.CurrentYear())
	for _, e := range produced {
		printEvent(e)
	}
	printSummary(g)
	printPending(g)

	if *prestige {
		points := g.Prestige()
		fmt.Printf("\nPrestige: %d phylactery %s earned (%d held).\n",
			points, plural(points, "point", "points"), g.Phylactery().Points())
	}

	// ── Save ──────────────────────────────────────────────────────────
	if *saveSlot >= 0 {
		if err := saves.SaveGame(g, *saveSlot); err != nil {
			slog.Error("save failed", "slot", *saveSlot, "error", err)
			os.Exit(1)
		}
	}
	if err := saves.Autosave(g); err != nil {
		slog.Error("autosave failed", "error", err)
	}
}

// logNotice surfaces the notices a player would want to hear about.
func logNotice(n notice.Notice) {
	switch n.Kind {
	case notice.ThresholdCrossed:
		slog.Warn("exposure threshold crossed", "from", n.From, "to", n.To, "value", n.Detail)
	case notice.KingdomCollapsed, notice.WarDeclared, notice.WarEnded, notice.CrusadeLaunched,
		notice.CompetitorDiscovered, notice.CompetitorDestroyed:
		slog.Info(string(n.Kind), "year", n.Year, "subject", n.Subject, "detail", n.Detail)
	case notice.AgentDied, notice.AgentBetrayed, notice.SuccessionCompleted, notice.GenerationAdvanced:
		slog.Info(string(n.Kind), "year", n.Year, "agent", n.Subject, "detail", n.Detail)
	default:
		slog.Debug(string(n.Kind), "year", n.Year, "subject", n.Subject)
	}
}

func resolvePending(g *game.GameData, spec string) {
	for _, pair := range strings.Split(spec, ",") {
		eventID, choiceID, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			slog.Warn("ignoring malformed answer", "answer", pair)
			continue
		}
		choice, err := g.ResolveEvent(eventID, choiceID)
		if err != nil {
			slog.Error("could not resolve event", "event", eventID, "choice", choiceID, "error", err)
			continue
		}
		fmt.Printf("%s: %s\n", eventID, choice.Consequence)
	}
}

func printEvent(e *events.Event) {
	fmt.Printf("  %d  %-9s %-12s %s\n", e.Year, e.Kind(), e.Severity, e.Name)
	if e.Description != "" {
		fmt.Printf("        %s\n", e.Description)
	}
}

func printSummary(g *game.GameData) {
	p := g.Portfolio()
	fmt.Printf("\nPortfolio: %s gold (%s in hand, %s invested)\n",
		humanize.Commaf(p.TotalValue()), humanize.Commaf(p.Gold()), humanize.Commaf(p.InvestmentValue()))
	fmt.Printf("Exposure:  %d (%s)\n", g.Exposure().Value(), g.Exposure().Level())

	alive := 0
	for _, k := range g.World().Kingdoms() {
		if !k.Collapsed {
			alive++
		}
	}
	fmt.Printf("World:     %d of %d kingdoms stand, %d rivals, %d agents\n",
		alive, len(g.World().Kingdoms()), len(g.World().Competitors()), g.Agents().Count())
	fmt.Printf("Run:       %s year of slumber across all runs, %s\n",
		humanize.Ordinal(int(g.TotalYearsPlayed())), g.RunID())
}

func printPending(g *game.GameData) {
	pending := g.PendingEvents()
	if len(pending) == 0 {
		return
	}
	fmt.Printf("\n%d %s await your answer:\n", len(pending), plural(uint64(len(pending)), "event", "events"))
	for _, e := range pending {
		fmt.Printf("  %s  %s\n", e.ID, e.Name)
		for _, c := range e.Choices() {
			cost := ""
			if c.RequiresGold() {
				cost = fmt.Sprintf(" [%s gold]", humanize.Commaf(c.GoldCost))
			}
			fmt.Printf("      %s=%s  %s%s\n", e.ID, c.ID, c.Label, cost)
		}
	}
}

func plural(n uint64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
