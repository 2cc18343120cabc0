package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/kujibot/internal/domain"
)

// VenueRef identifies the (chain, network, connector) triple every gateway
// request is keyed by.
type VenueRef struct {
	Chain     string
	Network   string
	Connector string
}

// MarketsRequest fetches market metadata. Empty TradingPairs means all
// markets for the venue.
type MarketsRequest struct {
	Venue        VenueRef
	TradingPairs []string
}

// OrderBookRequest fetches the book snapshot for one market.
type OrderBookRequest struct {
	Venue    VenueRef
	MarketID string
}

// TickerRequest fetches the last traded price for one market.
type TickerRequest struct {
	Venue    VenueRef
	MarketID string
}

// BalancesRequest fetches all token balances for the owner address.
type BalancesRequest struct {
	Venue        VenueRef
	OwnerAddress string
}

// BalancesResponse maps token symbol → raw balance breakdown.
type BalancesResponse struct {
	Tokens map[string]domain.TokenBalance
}

// OrderPayload is one order inside a placement request.
type OrderPayload struct {
	ClientOrderID string
	MarketID      string
	Side          domain.OrderSide
	Type          domain.OrderType
	Price         decimal.Decimal
	Amount        decimal.Decimal
}

// PlaceOrderRequest submits a single order.
type PlaceOrderRequest struct {
	Venue        VenueRef
	OwnerAddress string
	Order        OrderPayload
}

// PlaceOrderResponse is the gateway's acknowledgement of one placement.
type PlaceOrderResponse struct {
	ExchangeOrderID         string
	CreationTransactionHash string
}

// PlaceOrdersRequest submits a batch as one gateway call and one settlement
// transaction.
type PlaceOrdersRequest struct {
	Venue        VenueRef
	OwnerAddress string
	Orders       []OrderPayload
}

// PlaceOrdersResponse carries the venue ids aligned with the request order
// and the single settlement hash shared by the whole batch.
type PlaceOrdersResponse struct {
	ExchangeOrderIDs        []string
	CreationTransactionHash string
}

// CancelOrderRequest cancels a single order by exchange order id.
type CancelOrderRequest struct {
	Venue           VenueRef
	OwnerAddress    string
	MarketID        string
	ExchangeOrderID string
}

// CancelOrderResponse is the gateway's acknowledgement of one cancellation.
type CancelOrderResponse struct {
	CancellationTransactionHash string
}

// CancelOrdersRequest cancels a batch as one settlement transaction.
type CancelOrdersRequest struct {
	Venue            VenueRef
	OwnerAddress     string
	MarketID         string
	ExchangeOrderIDs []string
}

// CancelOrdersResponse carries the shared cancellation hash for the batch.
type CancelOrdersResponse struct {
	CancellationTransactionHash string
}

// CancelAllOrdersRequest cancels every open order on one market.
type CancelAllOrdersRequest struct {
	Venue        VenueRef
	OwnerAddress string
	MarketID     string
}

// GetOrderRequest fetches one order record, optionally filtered by status.
type GetOrderRequest struct {
	Venue           VenueRef
	OwnerAddress    string
	MarketID        string
	ExchangeOrderID string
	Status          domain.VenueOrderStatus // empty = any status
}

// OrderRecord is the venue's current view of one order.
type OrderRecord struct {
	ExchangeOrderID      string
	MarketID             string
	Status               domain.VenueOrderStatus
	Price                decimal.Decimal
	Amount               decimal.Decimal
	FilledAmount         decimal.Decimal
	CreationTxHash       string
	CancellationTxHash   string
	TimestampMillis      int64
}

// SettleFundsRequest withdraws settled funds from one market back to the
// owner address.
type SettleFundsRequest struct {
	Venue        VenueRef
	OwnerAddress string
	MarketID     string
}

// SettleFundsResponse carries the settlement hash of the withdraw.
type SettleFundsResponse struct {
	TransactionHash string
}

// Gateway is the typed boundary with the external gateway service. Cada
// operación devuelve structs decodificados en el transporte — el core nunca
// inspecciona maps sin tipar.
//
// Errors: implementations wrap network/HTTP failures in *domain.TransportError
// and classify the venue's "order not found" responses as
// domain.ErrOrderNotFound. The core only uses errors.Is/As.
type Gateway interface {
	// Ping checks the gateway is reachable.
	Ping(ctx context.Context) error

	// GetMarkets returns market metadata, already decoded to domain entities.
	GetMarkets(ctx context.Context, req MarketsRequest) ([]domain.Market, error)

	// GetOrderBook returns the current book snapshot for one market.
	GetOrderBook(ctx context.Context, req OrderBookRequest) (domain.OrderBook, error)

	// GetTicker returns the last traded price for one market.
	GetTicker(ctx context.Context, req TickerRequest) (domain.Ticker, error)

	// GetBalances returns the raw balance breakdown for every token the
	// owner address holds.
	GetBalances(ctx context.Context, req BalancesRequest) (BalancesResponse, error)

	// PlaceOrder submits one order.
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (PlaceOrderResponse, error)

	// PlaceOrders submits a batch of orders as one transaction.
	PlaceOrders(ctx context.Context, req PlaceOrdersRequest) (PlaceOrdersResponse, error)

	// CancelOrder cancels one order.
	CancelOrder(ctx context.Context, req CancelOrderRequest) (CancelOrderResponse, error)

	// CancelOrders cancels a batch of orders as one transaction.
	CancelOrders(ctx context.Context, req CancelOrdersRequest) (CancelOrdersResponse, error)

	// CancelAllOrders cancels every open order on one market.
	CancelAllOrders(ctx context.Context, req CancelAllOrdersRequest) (CancelOrdersResponse, error)

	// GetOrder fetches the venue's current record of one order.
	GetOrder(ctx context.Context, req GetOrderRequest) (OrderRecord, error)

	// SettleMarketFunds withdraws settled funds from one market.
	SettleMarketFunds(ctx context.Context, req SettleFundsRequest) (SettleFundsResponse, error)
}
