package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/kujibot/config"
	"github.com/alejandrodnm/kujibot/internal/adapters/gateway"
	"github.com/alejandrodnm/kujibot/internal/adapters/notify"
	"github.com/alejandrodnm/kujibot/internal/adapters/storage"
	"github.com/alejandrodnm/kujibot/internal/adapters/tracking"
	"github.com/alejandrodnm/kujibot/internal/application/connector"
	"github.com/alejandrodnm/kujibot/internal/application/monitor"
	"github.com/alejandrodnm/kujibot/internal/domain"
	"github.com/alejandrodnm/kujibot/internal/ports"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one status cycle and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	interval := flag.Duration("interval", 30*time.Second, "status cycle interval")
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

	slog.Info("kujibot adapter starting",
		"config", *configPath,
		"gateway", cfg.Gateway.BaseURL,
		"chain", cfg.Connector.Chain,
		"network", cfg.Connector.Network,
		"pairs", cfg.Connector.TradingPairs,
	)

	client := gateway.NewClient(cfg.Gateway.BaseURL, cfg.RequestTimeout())

	journal, err := storage.NewJournal(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open journal", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer journal.Close()

	console := notify.NewConsole()
	events := fanout{console, journal}
	tracker := tracking.NewMemoryTracker()

	conn := connector.New(client, tracker, events, connector.Config{
		Venue: ports.VenueRef{
			Chain:     cfg.Connector.Chain,
			Network:   cfg.Connector.Network,
			Connector: cfg.Connector.Connector,
		},
		OwnerAddress:           cfg.Connector.WalletAddress,
		TradingPairs:           cfg.Connector.TradingPairs,
		MarketsRefreshInterval: cfg.MarketsRefreshInterval(),
		Retry: connector.RetryConfig{
			Attempts: cfg.Retry.Attempts,
			Timeout:  time.Duration(cfg.Retry.TimeoutSeconds) * time.Second,
			Delay:    time.Duration(cfg.Retry.DelaySeconds) * time.Second,
		},
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := conn.Start(ctx); err != nil {
		slog.Error("connector failed to start", "err", err)
		os.Exit(1)
	}
	defer conn.Stop()

	console.PrintMarkets(conn.Markets().Snapshot())

	// Sin streaming de eventos, los cambios de estado salen por polling
	mon := monitor.New(monitor.Config{}, conn, tracker)
	go mon.Run(ctx)

	runCycle(ctx, conn, console)
	if *once {
		return
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("kujibot adapter stopped cleanly")
			return
		case <-ticker.C:
			runCycle(ctx, conn, console)
		}
	}
}

// runCycle es el ciclo del harness: health check + balances. Las operaciones
// de órdenes las dispara el engine, no este loop.
func runCycle(ctx context.Context, conn *connector.Connector, console *notify.Console) {
	status, err := conn.CheckNetworkStatus(ctx)
	if err != nil {
		return // cancelación
	}
	if status != domain.NetworkConnected {
		slog.Warn("gateway not reachable, skipping cycle")
		return
	}

	balances, err := conn.GetBalances(ctx)
	if err != nil {
		slog.Warn("failed to fetch balances", "err", err)
		return
	}
	console.PrintBalances(balances)
}

// fanout reparte cada evento a todos los publishers registrados.
type fanout []ports.EventPublisher

func (f fanout) PublishOrderUpdate(ctx context.Context, u domain.OrderUpdate) error {
	for _, p := range f {
		if err := p.PublishOrderUpdate(ctx, u); err != nil {
			return err
		}
	}
	return nil
}

func (f fanout) PublishTradeUpdate(ctx context.Context, u domain.TradeUpdate) error {
	for _, p := range f {
		if err := p.PublishTradeUpdate(ctx, u); err != nil {
			return err
		}
	}
	return nil
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
