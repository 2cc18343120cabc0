package domain

import (
	"errors"
	"fmt"
)

// Sentinels que el core clasifica con errors.Is. El adapter de transporte es
// el único sitio que inspecciona el texto del error del venue — aquí ya todo
// es tipado.
var (
	// ErrOrderNotFound means the venue has no record of the referenced order.
	// During cancellation it is a success signal (idempotent cancel); during
	// status polling it flags a stale reference for the engine to handle.
	ErrOrderNotFound = errors.New("order not found at venue")

	// ErrInvalidTransactionHash means the gateway accepted a mutation but
	// returned no usable settlement proof. Always fatal, never retried.
	ErrInvalidTransactionHash = errors.New("missing or malformed settlement transaction hash")

	// ErrUnknownOrderStatus means the venue reported a status outside the
	// translation table.
	ErrUnknownOrderStatus = errors.New("unknown venue order status")
)

// MarketNotFoundError means a trading pair could not be resolved even after
// a refresh attempt.
type MarketNotFoundError struct {
	TradingPair string
}

func (e *MarketNotFoundError) Error() string {
	return fmt.Sprintf("market not found for trading pair %q", e.TradingPair)
}

// TransportError wraps a network or HTTP-level failure talking to the gateway.
type TransportError struct {
	Op  string // gateway operation, e.g. "PlaceOrder"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("gateway transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// PlacementError carries the client order id and attempted parameters so that
// operators can correlate logs with the venue explorer.
type PlacementError struct {
	ClientOrderID string
	TradingPair   string
	Err           error
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("placement failed for order %s on %s: %v", e.ClientOrderID, e.TradingPair, e.Err)
}

func (e *PlacementError) Unwrap() error { return e.Err }

// RetriesExhaustedError is the terminal failure after bounded retry,
// carrying the last underlying error.
type RetriesExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("exhausted %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetriesExhaustedError) Unwrap() error { return e.Last }
