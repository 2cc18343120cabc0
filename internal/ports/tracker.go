package ports

import (
	"context"

	"github.com/alejandrodnm/kujibot/internal/domain"
)

// OrderTracker is the engine-owned registry of in-flight orders. The adapter
// only reads from it — lo usa el poller para resolver exchange order ids que
// todavía no conoce.
type OrderTracker interface {
	// FetchTrackedOrder returns the tracked order for the client order id,
	// or nil if the engine is not tracking it.
	FetchTrackedOrder(clientOrderID string) *domain.InFlightOrder
}

// EventPublisher is the sink the adapter emits state changes into. The
// engine's order tracker consumes these; the adapter never blocks an order
// operation on a publish failure.
type EventPublisher interface {
	PublishOrderUpdate(ctx context.Context, update domain.OrderUpdate) error
	PublishTradeUpdate(ctx context.Context, update domain.TradeUpdate) error
}
