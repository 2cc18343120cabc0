package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookLevel is one price level of an order book.
type BookLevel struct {
	Price  decimal.Decimal
	Amount decimal.Decimal
}

// OrderBook is a point-in-time snapshot of one market's book.
// Bids ordenados de mayor a menor, asks de menor a mayor.
type OrderBook struct {
	MarketID string
	Bids     []BookLevel
	Asks     []BookLevel
}

// BestBid returns the highest bid price, or zero if the side is empty.
func (b OrderBook) BestBid() decimal.Decimal {
	if len(b.Bids) == 0 {
		return decimal.Zero
	}
	return b.Bids[0].Price
}

// BestAsk returns the lowest ask price, or zero if the side is empty.
func (b OrderBook) BestAsk() decimal.Decimal {
	if len(b.Asks) == 0 {
		return decimal.Zero
	}
	return b.Asks[0].Price
}

// Ticker is the venue's last traded price for one market.
type Ticker struct {
	MarketID  string
	Price     decimal.Decimal
	Timestamp time.Time
}
