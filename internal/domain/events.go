package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderUpdate is emitted when the poller observes a state change at the venue,
// and by batch operations when they transition orders locally. It is the only
// path by which state changes become visible outside the adapter.
type OrderUpdate struct {
	ClientOrderID   string
	ExchangeOrderID string
	TradingPair     string
	NewState        OrderState
	TransactionHash string // settlement hash of the transition, when known
	Timestamp       time.Time
}

// TradeUpdate is one synthesized fill for an order that reached FILLED.
type TradeUpdate struct {
	TradeID         string
	ClientOrderID   string
	ExchangeOrderID string
	TradingPair     string
	FillPrice       decimal.Decimal
	FillBaseAmount  decimal.Decimal
	FillQuoteAmount decimal.Decimal
	Fee             decimal.Decimal
	FeeAsset        string
	IsTaker         bool
	Timestamp       time.Time
}
