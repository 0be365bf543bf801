package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mmcdole/shelf/internal/adapter"
	"github.com/mmcdole/shelf/internal/catalog"
	"github.com/mmcdole/shelf/internal/connectivity"
	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/remote"
	"github.com/mmcdole/shelf/internal/search"
	"github.com/mmcdole/shelf/internal/store"
	"github.com/mmcdole/shelf/internal/tui"
	"github.com/mmcdole/shelf/internal/tui/styles"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

type options struct {
	configFile string
	headless   bool
	initConfig bool
	reset      bool
}

func main() {
	var showVersion bool
	var opts options
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.StringVar(&opts.configFile, "config", "", "config file (default: search ~/.config/shelf and .)")
	flag.BoolVar(&opts.headless, "sync", false, "sync once, print the catalog and exit")
	flag.BoolVar(&opts.initConfig, "init", false, "write a default config file and exit")
	flag.BoolVar(&opts.reset, "reset", false, "delete the local cache and pending changes, then exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("shelf %s\n", Version)
		return
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.initConfig {
		path, err := adapter.SaveConfig(adapter.DefaultConfig(), adapter.DefaultConfigPath())
		if err != nil {
			return err
		}
		fmt.Printf("✓ Wrote %s\n", path)
		return nil
	}

	cfg, err := adapter.LoadConfig(opts.configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if opts.reset {
		if err := adapter.ClearData(cfg.Storage.Dir); err != nil {
			return err
		}
		fmt.Println("✓ Local data cleared")
		return nil
	}

	logger, logFile, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	} else {
		defer logFile.Close()
	}
	slog.SetDefault(logger)
	logger.Info("starting shelf", "version", Version, "server", cfg.Server.URL)

	db, err := store.Open(cfg.Storage.Dir, cfg.Server.URL, logger)
	if err != nil {
		return fmt.Errorf("failed to open local store: %w", err)
	}
	defer db.Close()
	if !db.Persistent() {
		logger.Warn("no storage.dir configured, changes will not survive restart")
	}

	client := remote.NewClient(cfg.Server.URL, cfg.Remote.Timeout, logger)
	prober := connectivity.NewProber(client, cfg.Connectivity.Interval, cfg.Connectivity.ProbeAttempts, logger)
	coord := catalog.New(client, db.ReadCache(), db.PendingLog(), prober, logger,
		catalog.WithDrainConcurrency(cfg.Sync.DrainConcurrency),
		catalog.WithSearch(search.NewService(logger)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.headless || !term.IsTerminal(int(os.Stdin.Fd())) {
		return runHeadless(ctx, coord, prober, logger)
	}
	return runTUI(ctx, coord, prober, logger)
}

// runHeadless syncs once and prints the catalog
func runHeadless(ctx context.Context, coord *catalog.Coordinator, prober *connectivity.Prober, logger *slog.Logger) error {
	online := prober.Probe(ctx)
	coord.Initialize(ctx)
	coord.Wait()

	printCatalog(coord.ListAll(), coord.Pending())
	if !online {
		fmt.Fprintln(os.Stderr, catalog.MsgWorkingOffline)
	}
	if n := len(coord.Pending()); n > 0 {
		logger.Info("changes still pending", "count", n)
		return fmt.Errorf("%d change(s) not yet synced: %w", n, domain.ErrServerOffline)
	}
	return nil
}

func printCatalog(books []domain.Book, pending []domain.PendingMutation) {
	states := make(map[string]domain.LifecycleState, len(pending))
	for _, p := range pending {
		states[p.ID] = p.State
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.DimStyle).
		Headers("TITLE", "AUTHOR", "ISBN", "PRICE", "SYNC")
	for _, b := range books {
		sync := "ok"
		if s, ok := states[b.ID]; ok {
			sync = string(s)
		}
		t.Row(b.Title, b.Author, b.ISBN, b.FormattedPrice(), sync)
	}
	fmt.Println(t.Render())
}

// runTUI runs the interactive program with connectivity monitoring
func runTUI(ctx context.Context, coord *catalog.Coordinator, prober *connectivity.Prober, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		coord.Wait()
	}()

	prober.Probe(ctx)
	coord.Start(ctx)
	go prober.Run(ctx)
	coord.Initialize(ctx)

	model := tui.NewModel(coord)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	logger.Info("starting TUI")
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}
