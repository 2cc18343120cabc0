package connector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alejandrodnm/kujibot/internal/domain"
	"github.com/alejandrodnm/kujibot/internal/ports"
)

// defaultRefreshInterval es el periodo del refresh de mercados en background.
// Las trading rules y fees cambian muy poco — 8h es suficiente.
const defaultRefreshInterval = 8 * time.Hour

// MarketRegistry fetches, caches and periodically refreshes market metadata
// from the gateway. The cached snapshot is the only shared mutable state of
// the adapter and is replaced wholesale on every refresh: readers either see
// the previous complete generation or the new one, never a mix.
type MarketRegistry struct {
	gateway      ports.Gateway
	venue        ports.VenueRef
	tradingPairs []string // configured subset; empty = fetch all markets
	interval     time.Duration
	retry        RetryConfig

	snapshot atomic.Pointer[domain.MarketSet]

	// refreshMu serializa refreshes concurrentes (on-demand vs background);
	// nunca se mantiene mientras un lector resuelve.
	refreshMu sync.Mutex
}

// NewMarketRegistry creates a registry. interval <= 0 uses the default.
func NewMarketRegistry(gateway ports.Gateway, venue ports.VenueRef, tradingPairs []string, interval time.Duration, retry RetryConfig) *MarketRegistry {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	return &MarketRegistry{
		gateway:      gateway,
		venue:        venue,
		tradingPairs: tradingPairs,
		interval:     interval,
		retry:        retry,
	}
}

// Refresh fetches the configured markets (or all of them) and atomically
// swaps the cached snapshot. On failure the previous snapshot stays valid.
func (r *MarketRegistry) Refresh(ctx context.Context) error {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	req := ports.MarketsRequest{Venue: r.venue, TradingPairs: r.tradingPairs}
	markets, err := runWithRetry(ctx, r.retry, "GetMarkets", func(ctx context.Context) ([]domain.Market, error) {
		return r.gateway.GetMarkets(ctx, req)
	})
	if err != nil {
		return fmt.Errorf("connector.MarketRegistry: refresh: %w", err)
	}

	next := domain.NewMarketSet(markets)
	r.snapshot.Store(next)

	slog.Debug("connector: market snapshot refreshed",
		"markets", next.Len(), "configured_pairs", len(r.tradingPairs))
	return nil
}

// Resolve returns the market for a trading pair. If the registry has never
// been populated it performs an on-demand refresh first. Fails with
// *domain.MarketNotFoundError if the pair is absent after refreshing.
func (r *MarketRegistry) Resolve(ctx context.Context, tradingPair string) (domain.Market, error) {
	set := r.snapshot.Load()
	if set == nil {
		if err := r.Refresh(ctx); err != nil {
			return domain.Market{}, err
		}
		set = r.snapshot.Load()
	}

	if m, ok := set.Resolve(tradingPair); ok {
		return m, nil
	}
	return domain.Market{}, &domain.MarketNotFoundError{TradingPair: tradingPair}
}

// IsInitialized reports whether at least one refresh has completed.
func (r *MarketRegistry) IsInitialized() bool {
	set := r.snapshot.Load()
	return set != nil && set.Len() > 0
}

// Snapshot returns the current market set, or nil before the first refresh.
func (r *MarketRegistry) Snapshot() *domain.MarketSet {
	return r.snapshot.Load()
}

// runRefreshLoop refreshes on a fixed interval until ctx is cancelled.
// La cancelación solo corta entre ciclos: un refresh en curso termina de
// construir (o descartar) su snapshot completo, nunca deja estado roto.
func (r *MarketRegistry) runRefreshLoop(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				slog.Warn("connector: background market refresh failed", "err", err)
			}
		}
	}
}
