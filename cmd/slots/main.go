// Command slots inspects Lich's Portfolio save slots and the event
// chronicle without starting a game.
//
//	slots list
//	slots info <slot>
//	slots validate <slot|path>
//	slots delete <slot>
//	slots chronicle [run-id] [limit]
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/copyleft-games/lichs-portfolio/internal/config"
	"github.com/copyleft-games/lichs-portfolio/internal/persistence"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	saves, err := persistence.NewSaveManager(cfg.SaveDir, cfg.CompressSaves)
	if err != nil {
		slog.Error("failed to create save manager", "error", err)
		os.Exit(1)
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "list":
		err = list(saves)
	case "info":
		err = info(saves, args)
	case "validate":
		err = validate(saves, args)
	case "delete":
		err = remove(saves, cfg.Database, args)
	case "chronicle":
		err = chronicle(cfg.Database, args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		slog.Error(os.Args[1]+" failed", "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: slots list | info <slot> | validate <slot|path> | delete <slot> | chronicle [run-id] [limit]")
}

func slotArg(args []string) (int, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("missing slot number")
	}
	slot, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("slot %q: %w", args[0], err)
	}
	return slot, nil
}

func list(saves *persistence.SaveManager) error {
	slots := saves.Slots()
	if len(slots) == 0 {
		fmt.Printf("No saves in %s\n", saves.Dir())
		return nil
	}
	for _, s := range slots {
		label := strconv.Itoa(s.Slot)
		if s.Slot == persistence.QuickSlot {
			label += " (quick)"
		}
		fmt.Printf("%-10s year %-6d %6s years slumbered  saved %s\n",
			label, s.Year, humanize.Comma(int64(s.TotalYears)), humanize.Time(s.SavedAt))
	}
	if saves.AutosaveExists() {
		fmt.Println("autosave present")
	}
	return nil
}

func info(saves *persistence.SaveManager, args []string) error {
	slot, err := slotArg(args)
	if err != nil {
		return err
	}
	s, ok := saves.SlotInfo(slot)
	if !ok {
		return fmt.Errorf("slot %d: %w", slot, persistence.ErrSlotNotFound)
	}
	size := "?"
	if st, err := os.Stat(s.Path); err == nil {
		size = humanize.Bytes(uint64(st.Size()))
	}
	fmt.Printf("slot      %d\n", s.Slot)
	fmt.Printf("path      %s (%s)\n", s.Path, size)
	fmt.Printf("version   %d (current %d)\n", s.Version, persistence.SaveVersion)
	fmt.Printf("run       %s\n", s.RunID)
	fmt.Printf("year      %d\n", s.Year)
	fmt.Printf("slumbered %s years\n", humanize.Comma(int64(s.TotalYears)))
	fmt.Printf("saved     %s (%s)\n", s.SavedAt.Format("2006-01-02 15:04:05"), humanize.Time(s.SavedAt))
	return nil
}

func validate(saves *persistence.SaveManager, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("missing slot or path")
	}
	path := args[0]
	if slot, err := strconv.Atoi(args[0]); err == nil {
		s, ok := saves.SlotInfo(slot)
		if !ok {
			return fmt.Errorf("slot %d: %w", slot, persistence.ErrSlotNotFound)
		}
		path = s.Path
	}
	if err := saves.Validate(path); err != nil {
		return err
	}
	fmt.Printf("%s: ok\n", filepath.Base(path))
	return nil
}

func remove(saves *persistence.SaveManager, dbPath string, args []string) error {
	slot, err := slotArg(args)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dbPath); err == nil {
		catalog, err := persistence.OpenCatalog(dbPath)
		if err != nil {
			return err
		}
		defer catalog.Close()
		saves.AttachCatalog(catalog)
	}
	return saves.DeleteSlot(slot)
}

func chronicle(dbPath string, args []string) error {
	runID := ""
	limit := 20
	if len(args) > 0 {
		runID = args[0]
	}
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("limit %q: %w", args[1], err)
		}
		limit = n
	}

	catalog, err := persistence.OpenCatalog(dbPath)
	if err != nil {
		return err
	}
	defer catalog.Close()

	entries, err := catalog.Chronicle(runID, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("The chronicle is empty.")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%d  %-9s %-12s %-40s %s\n", e.Year, e.Kind, e.Severity, e.Name, e.RunID)
	}
	return nil
}
