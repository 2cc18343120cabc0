package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderSide is the direction of an order.
type OrderSide string

const (
	SideBuy  OrderSide = "BUY"
	SideSell OrderSide = "SELL"
)

// OrderType is the venue order type vocabulary. The adapter only submits
// limit orders; the rest exist because the venue reports them.
type OrderType string

const (
	OrderTypeLimit    OrderType = "LIMIT"
	OrderTypeMarket   OrderType = "MARKET"
	OrderTypeIOC      OrderType = "IOC"
	OrderTypePostOnly OrderType = "POST_ONLY"
)

// OrderState is the engine-facing order state machine.
// PENDING_CREATE → OPEN → {PARTIALLY_FILLED → FILLED} | PENDING_CANCEL → CANCELED
type OrderState string

const (
	StatePendingCreate   OrderState = "PENDING_CREATE"
	StateOpen            OrderState = "OPEN"
	StatePartiallyFilled OrderState = "PARTIALLY_FILLED"
	StateFilled          OrderState = "FILLED"
	StatePendingCancel   OrderState = "PENDING_CANCEL"
	StateCanceled        OrderState = "CANCELED"
)

// VenueOrderStatus is the raw status vocabulary the gateway reports.
type VenueOrderStatus string

const (
	VenueStatusOpen                VenueOrderStatus = "OPEN"
	VenueStatusCancelled           VenueOrderStatus = "CANCELLED"
	VenueStatusPartiallyFilled     VenueOrderStatus = "PARTIALLY_FILLED"
	VenueStatusFilled              VenueOrderStatus = "FILLED"
	VenueStatusCreationPending     VenueOrderStatus = "CREATION_PENDING"
	VenueStatusCancellationPending VenueOrderStatus = "CANCELLATION_PENDING"
)

// ToOrderState translates a venue status into the engine state machine.
// La tabla es total: un status desconocido es un error duro, nunca un
// default silencioso.
func (s VenueOrderStatus) ToOrderState() (OrderState, error) {
	switch s {
	case VenueStatusOpen:
		return StateOpen, nil
	case VenueStatusCancelled:
		return StateCanceled, nil
	case VenueStatusPartiallyFilled:
		return StatePartiallyFilled, nil
	case VenueStatusFilled:
		return StateFilled, nil
	case VenueStatusCreationPending:
		return StatePendingCreate, nil
	case VenueStatusCancellationPending:
		return StatePendingCancel, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOrderStatus, string(s))
	}
}

// InFlightOrder is the adapter's view of one logical order.
// ClientOrderID is assigned before the first network call and immutable
// afterwards; ExchangeOrderID only after a successful placement.
// State transitions are owned by the lifecycle coordinator and the poller.
type InFlightOrder struct {
	ClientOrderID   string
	ExchangeOrderID string
	TradingPair     string
	Side            OrderSide
	Type            OrderType
	Price           decimal.Decimal
	Amount          decimal.Decimal
	State           OrderState

	// Salt is the idempotency component of ClientOrderID. Assigned once per
	// logical order so that a retried placement reuses the same identifier.
	Salt string

	CreationTxHash string
	CancelTxHash   string
	CreatedAt      time.Time
}

// IsTerminal reports whether the order reached a final state.
func (o *InFlightOrder) IsTerminal() bool {
	return o.State == StateFilled || o.State == StateCanceled
}

// PlaceResult is the outcome of one order inside a placement submission.
// In a batch all entries share the settlement transaction hash.
type PlaceResult struct {
	ClientOrderID   string
	ExchangeOrderID string
	TransactionHash string
}

// CancelStatus tags the outcome of a cancellation. Modelado como resultado
// tipado en vez de matchear substrings del error del venue.
type CancelStatus int

const (
	CancelStatusCancelled CancelStatus = iota
	CancelStatusAlreadyCancelled
)

// CancelResult is the outcome of one order inside a cancellation submission.
type CancelResult struct {
	ClientOrderID   string
	Status          CancelStatus
	TransactionHash string
}

// Capabilities is the descriptor the engine reads before driving the adapter.
type Capabilities struct {
	SupportedOrderTypes        []OrderType
	RealTimeBalanceUpdate      bool
	EventsAreStreamed          bool
	IsCancelRequestSynchronous bool
}

// NetworkStatus is the result of a gateway health check.
type NetworkStatus string

const (
	NetworkConnected    NetworkStatus = "CONNECTED"
	NetworkNotConnected NetworkStatus = "NOT_CONNECTED"
)
