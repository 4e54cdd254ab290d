package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rgonzalo/straddlebot/config"
	"github.com/rgonzalo/straddlebot/internal/adapters/ledgerfile"
	"github.com/rgonzalo/straddlebot/internal/adapters/notify"
	"github.com/rgonzalo/straddlebot/internal/adapters/paper"
	"github.com/rgonzalo/straddlebot/internal/adapters/storage"
	"github.com/rgonzalo/straddlebot/internal/adapters/terminal"
	"github.com/rgonzalo/straddlebot/internal/engine"
	"github.com/rgonzalo/straddlebot/internal/ports"
	"github.com/rgonzalo/straddlebot/internal/predict"
)

const momentumWindow = 10

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one poll iteration and exit")
	dryRun := flag.Bool("dry-run", false, "simulate fills at the live quote, place no real orders")
	report := flag.Bool("report", false, "print the profit report and exit, no trading")
	verbose := flag.Bool("verbose", false, "set log level to debug and print skip reasons")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	ledgers := ledgerfile.New(cfg.Storage.LedgerPath)

	store, err := storage.NewSQLiteStore(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open cycle history", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	if *report {
		runReport(ledgers, store, *verbose)
		return
	}

	slog.Info("straddlebot starting",
		"config", *configPath,
		"instrument", cfg.Engine.Instrument,
		"terminal", cfg.Terminal.BaseURL,
		"interval", cfg.CheckInterval(),
		"once", *once,
		"dry_run", *dryRun,
	)

	client := terminal.NewClient(cfg.Terminal.BaseURL)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := checkTerminal(ctx, client, cfg.Engine.Instrument); err != nil {
		slog.Error("terminal check failed", "err", err, "base_url", cfg.Terminal.BaseURL)
		os.Exit(1)
	}

	var gateway ports.OrderGateway = client
	if *dryRun {
		slog.Info("dry-run mode: orders are simulated against live quotes")
		gateway = paper.NewGateway(client)
	}

	e := engine.New(
		engineConfig(cfg),
		client,
		gateway,
		ledgers,
		store,
		notify.NewConsole(*verbose),
		predict.NewMomentum(momentumWindow),
	)

	if *once {
		err = e.RunOnce(ctx)
	} else {
		err = e.Run(ctx)
	}
	if err != nil {
		slog.Error("engine exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("straddlebot stopped cleanly")
}

// checkTerminal verifies the bridge is reachable and quotes the
// configured instrument before any order can be placed.
func checkTerminal(ctx context.Context, client *terminal.Client, instrument string) error {
	if err := client.Ping(ctx); err != nil {
		return err
	}
	_, err := client.GetSnapshot(ctx, instrument)
	if errors.Is(err, ports.ErrNoPrice) {
		// Quotes can be momentarily empty (market closed); the engine
		// skips those polls itself.
		slog.Warn("no price for instrument yet, continuing", "instrument", instrument)
		return nil
	}
	return err
}

func runReport(ledgers *ledgerfile.Store, store *storage.SQLiteStore, verbose bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ledger, err := ledgers.Load(ctx)
	if err != nil {
		slog.Error("failed to load ledger", "err", err)
		os.Exit(1)
	}
	stats, err := store.GetStats(ctx)
	if err != nil {
		slog.Error("failed to load cycle history", "err", err)
		os.Exit(1)
	}

	notify.NewConsole(verbose).PrintReport(ledger, stats)
}

func engineConfig(cfg *config.Config) engine.Config {
	return engine.Config{
		Instrument:        cfg.Engine.Instrument,
		MinMovement:       cfg.Engine.MinMovement,
		LotSize:           cfg.Engine.LotSize,
		LotMultiplier:     cfg.Engine.LotMultiplier,
		MinProfitPerTrade: cfg.Engine.MinProfitPerTrade,
		MaxSpread:         cfg.Engine.MaxSpread,
		ProfitRatio:       cfg.Engine.ProfitRatio,
		Wait:              time.Duration(cfg.Engine.WaitSeconds) * time.Second,
		WaitMin:           time.Duration(cfg.Engine.WaitMinSeconds) * time.Second,
		WaitMax:           time.Duration(cfg.Engine.WaitMaxSeconds) * time.Second,
		CheckInterval:     cfg.CheckInterval(),
		LegDelay:          cfg.LegDelay(),
		CloseRetries:      cfg.Engine.CloseRetries,
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
