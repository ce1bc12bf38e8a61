package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pixeval/pixterm/internal/adapter"
	"github.com/pixeval/pixterm/internal/catalog"
	"github.com/pixeval/pixterm/internal/domain"
	"github.com/pixeval/pixterm/internal/store"
	"github.com/pixeval/pixterm/internal/thumbnail"
	"github.com/pixeval/pixterm/internal/tui"
	"github.com/pixeval/pixterm/internal/tui/components"
	"github.com/pixeval/pixterm/internal/tui/styles"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var (
		showVersion bool
		rescan      bool
		clearCache  bool
	)
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&rescan, "rescan", false, "scan the library before browsing")
	flag.BoolVar(&clearCache, "clear-cache", false, "remove the catalog database and cached thumbnails")
	flag.Parse()

	if showVersion {
		fmt.Printf("pixterm %s\n", Version)
		return
	}

	if clearCache {
		if err := adapter.ClearCache(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("✓ Cache cleared")
		return
	}

	if err := run(rescan); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(rescan bool) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("pixterm needs an interactive terminal")
	}

	// Load configuration
	cfg, err := adapter.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger, closer, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	} else {
		defer closer.Close()
	}
	slog.SetDefault(logger)

	logger.Info("starting pixterm", "version", Version)

	if !cfg.IsConfigured() {
		if err := runSetupFlow(cfg); err != nil {
			return err
		}
		rescan = true
	}

	if cfg.Library.Dir, err = adapter.ExpandHome(cfg.Library.Dir); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := styles.ApplyTheme(cfg.UI.Theme); err != nil {
		logger.Warn("falling back to the default theme", "error", err)
	}

	// Preload rows follow config file edits while the program runs
	var preloadRows atomic.Int64
	preloadRows.Store(int64(cfg.Grid.PreloadRows))
	if adapter.WatchConfig(logger, func(c *adapter.Config) {
		preloadRows.Store(int64(c.Grid.PreloadRows))
	}) {
		logger.Debug("watching config file for changes")
	}

	db, err := store.NewCatalogStore(adapter.GetCachePath())
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer db.Close()

	cache, err := thumbnail.NewCache(cfg.Thumbnails.CacheItems, db, logger)
	if err != nil {
		return err
	}
	renderer := thumbnail.NewTermRenderer(cfg.Thumbnails.Protocol, cfg.Thumbnails.Dither)
	loader := thumbnail.NewLoader(cache, renderer, cfg.Thumbnails.Workers, logger)

	model := tui.NewModel(tui.Options{
		Catalog:    catalog.NewService(db, cfg.Library.Dir, logger),
		Opener:     adapter.NewOpener(cfg.Viewer.Command, cfg.Viewer.Args, logger),
		Loader:     loader,
		Thumbnails: cache,
		Gallery:    components.GalleryOptions{
			// Read on every viewport event so a reloaded value applies to the next one
			PreloadRows: func() int { return int(preloadRows.Load()) },
			PageSize:    cfg.Grid.PageSize,
			CellSize:    domain.ThumbnailCellSize(cfg.Direction()),
			RetryFailed: cfg.Thumbnails.RetryFailed,
			Animations:  cfg.Grid.Animations,
		},
		ShowSidebar: cfg.UI.ShowSidebar,
		Rescan:      rescan,
		Logger:      logger,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI", "library", cfg.Library.Dir)

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// runSetupFlow asks for the library directory on first run and saves it
func runSetupFlow(cfg *adapter.Config) error {
	fmt.Println()
	fmt.Println("Welcome to pixterm!")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("Enter the directory holding your downloaded works (e.g., ~/Pictures/pixiv): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		dir := strings.TrimSpace(input)
		if dir == "" {
			fmt.Println("Directory cannot be empty. Please try again.")
			continue
		}

		expanded, err := adapter.ExpandHome(dir)
		if err != nil {
			return err
		}
		cfg.Library.Dir = expanded
		if err := cfg.Validate(); err != nil {
			fmt.Printf("✗ %v\n", err)
			fmt.Println()
			continue
		}
		break
	}

	if err := adapter.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("✓ Configuration saved!")
	fmt.Println()
	return nil
}
