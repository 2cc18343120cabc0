package connector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/kujibot/internal/domain"
	"github.com/alejandrodnm/kujibot/internal/ports"
)

// Config holds the adapter's identity at the venue and its retry policy.
type Config struct {
	Venue        ports.VenueRef
	OwnerAddress string

	// TradingPairs is the configured market subset. Empty = all markets
	// for the venue triple.
	TradingPairs []string

	// MarketsRefreshInterval is the background refresh period (default 8h).
	MarketsRefreshInterval time.Duration

	Retry RetryConfig
}

// Connector adapts the engine's exchange-agnostic order-lifecycle contract to
// the gateway's venue-specific operations. It owns the market registry, the
// per-category operation locks, and all order state transitions.
type Connector struct {
	gateway  ports.Gateway
	tracker  ports.OrderTracker
	events   ports.EventPublisher
	registry *MarketRegistry
	cfg      Config

	// Un mutex por categoría de operación mutante: llamadas concurrentes de
	// la misma categoría se serializan FIFO, categorías distintas avanzan en
	// paralelo. Ningún lock se mantiene más allá del request que protege.
	placeMu       sync.Mutex
	batchPlaceMu  sync.Mutex
	cancelMu      sync.Mutex
	batchCancelMu sync.Mutex
	cancelAllMu   sync.Mutex
	settleMu      sync.Mutex

	balancesMu   sync.Mutex
	lastBalances ports.BalancesResponse

	lifecycleMu sync.Mutex
	stopRefresh context.CancelFunc
	refreshDone chan struct{}
}

// New creates a Connector. The gateway, tracker and event publisher are
// injected per instance — no hay cliente global compartido.
func New(gateway ports.Gateway, tracker ports.OrderTracker, events ports.EventPublisher, cfg Config) *Connector {
	return &Connector{
		gateway:  gateway,
		tracker:  tracker,
		events:   events,
		cfg:      cfg,
		registry: NewMarketRegistry(gateway, cfg.Venue, cfg.TradingPairs, cfg.MarketsRefreshInterval, cfg.Retry),
	}
}

// Capabilities describes what the engine can expect from this adapter.
func (c *Connector) Capabilities() domain.Capabilities {
	return domain.Capabilities{
		SupportedOrderTypes:        []domain.OrderType{domain.OrderTypeLimit},
		RealTimeBalanceUpdate:      false,
		EventsAreStreamed:          false,
		IsCancelRequestSynchronous: true,
	}
}

// Markets exposes the registry for read-only market resolution.
func (c *Connector) Markets() *MarketRegistry {
	return c.registry
}

// Start performs the initial synchronous market refresh and schedules the
// background periodic refresh. Fails if the first refresh fails — the
// adapter is useless without market identities.
func (c *Connector) Start(ctx context.Context) error {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	if c.stopRefresh != nil {
		return fmt.Errorf("connector.Start: already started")
	}

	if err := c.registry.Refresh(ctx); err != nil {
		return fmt.Errorf("connector.Start: initial market refresh: %w", err)
	}

	refreshCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.stopRefresh = cancel
	c.refreshDone = done

	go func() {
		defer close(done)
		c.registry.runRefreshLoop(refreshCtx)
	}()

	slog.Info("connector: started",
		"chain", c.cfg.Venue.Chain,
		"network", c.cfg.Venue.Network,
		"connector", c.cfg.Venue.Connector,
		"markets", c.registry.Snapshot().Len(),
	)
	return nil
}

// Stop cancels the background refresh and waits for it to exit. Determinista:
// al volver no queda ningún timer huérfano.
func (c *Connector) Stop() {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	if c.stopRefresh == nil {
		return
	}
	c.stopRefresh()
	<-c.refreshDone
	c.stopRefresh = nil
	c.refreshDone = nil

	slog.Info("connector: stopped")
}

// publishOrderUpdate emits an order update without letting a sink failure
// break the calling operation.
func (c *Connector) publishOrderUpdate(ctx context.Context, update domain.OrderUpdate) {
	if c.events == nil {
		return
	}
	if err := c.events.PublishOrderUpdate(ctx, update); err != nil {
		slog.Warn("connector: publish order update failed",
			"client_order_id", update.ClientOrderID, "err", err)
	}
}

// publishTradeUpdate emits a trade update, same policy as order updates.
func (c *Connector) publishTradeUpdate(ctx context.Context, update domain.TradeUpdate) {
	if c.events == nil {
		return
	}
	if err := c.events.PublishTradeUpdate(ctx, update); err != nil {
		slog.Warn("connector: publish trade update failed",
			"client_order_id", update.ClientOrderID, "err", err)
	}
}
