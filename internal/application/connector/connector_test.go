package connector_test

// Helpers compartidos: un fake del gateway con func fields por operación,
// un tracker en memoria y un publisher que acumula eventos.

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/kujibot/internal/application/connector"
	"github.com/alejandrodnm/kujibot/internal/domain"
	"github.com/alejandrodnm/kujibot/internal/ports"
)

const (
	testMarketID = "kujira193dzcmy7lwuj4eda3zpwwt9ejal00xva0vawcvhgsyyp5cfh6jyq66wfrf"
	testPair     = "KUJI-USK"
	testOwner    = "kujira1yrensec9gzl7y3t3duz44efzgwj2qv6gwayrn7"
	testTxHash   = "AAAABBBBCCCCDDDDEEEEFFFF0000111122223333444455556666777788889999"
)

var testVenue = ports.VenueRef{Chain: "kujira", Network: "mainnet", Connector: "kujira"}

type fakeGateway struct {
	pingFn          func(ctx context.Context) error
	getMarketsFn    func(ctx context.Context, req ports.MarketsRequest) ([]domain.Market, error)
	getOrderBookFn  func(ctx context.Context, req ports.OrderBookRequest) (domain.OrderBook, error)
	getTickerFn     func(ctx context.Context, req ports.TickerRequest) (domain.Ticker, error)
	getBalancesFn   func(ctx context.Context, req ports.BalancesRequest) (ports.BalancesResponse, error)
	placeOrderFn    func(ctx context.Context, req ports.PlaceOrderRequest) (ports.PlaceOrderResponse, error)
	placeOrdersFn   func(ctx context.Context, req ports.PlaceOrdersRequest) (ports.PlaceOrdersResponse, error)
	cancelOrderFn   func(ctx context.Context, req ports.CancelOrderRequest) (ports.CancelOrderResponse, error)
	cancelOrdersFn  func(ctx context.Context, req ports.CancelOrdersRequest) (ports.CancelOrdersResponse, error)
	cancelAllFn     func(ctx context.Context, req ports.CancelAllOrdersRequest) (ports.CancelOrdersResponse, error)
	getOrderFn      func(ctx context.Context, req ports.GetOrderRequest) (ports.OrderRecord, error)
	settleFundsFn   func(ctx context.Context, req ports.SettleFundsRequest) (ports.SettleFundsResponse, error)
}

func (g *fakeGateway) Ping(ctx context.Context) error {
	if g.pingFn != nil {
		return g.pingFn(ctx)
	}
	return nil
}

func (g *fakeGateway) GetMarkets(ctx context.Context, req ports.MarketsRequest) ([]domain.Market, error) {
	if g.getMarketsFn != nil {
		return g.getMarketsFn(ctx, req)
	}
	return []domain.Market{testMarket()}, nil
}

func (g *fakeGateway) GetOrderBook(ctx context.Context, req ports.OrderBookRequest) (domain.OrderBook, error) {
	if g.getOrderBookFn != nil {
		return g.getOrderBookFn(ctx, req)
	}
	return domain.OrderBook{MarketID: req.MarketID}, nil
}

func (g *fakeGateway) GetTicker(ctx context.Context, req ports.TickerRequest) (domain.Ticker, error) {
	if g.getTickerFn != nil {
		return g.getTickerFn(ctx, req)
	}
	return domain.Ticker{MarketID: req.MarketID}, nil
}

func (g *fakeGateway) GetBalances(ctx context.Context, req ports.BalancesRequest) (ports.BalancesResponse, error) {
	if g.getBalancesFn != nil {
		return g.getBalancesFn(ctx, req)
	}
	return ports.BalancesResponse{}, nil
}

func (g *fakeGateway) PlaceOrder(ctx context.Context, req ports.PlaceOrderRequest) (ports.PlaceOrderResponse, error) {
	if g.placeOrderFn != nil {
		return g.placeOrderFn(ctx, req)
	}
	return ports.PlaceOrderResponse{ExchangeOrderID: "1", CreationTransactionHash: testTxHash}, nil
}

func (g *fakeGateway) PlaceOrders(ctx context.Context, req ports.PlaceOrdersRequest) (ports.PlaceOrdersResponse, error) {
	if g.placeOrdersFn != nil {
		return g.placeOrdersFn(ctx, req)
	}
	ids := make([]string, len(req.Orders))
	for i := range ids {
		ids[i] = "1"
	}
	return ports.PlaceOrdersResponse{ExchangeOrderIDs: ids, CreationTransactionHash: testTxHash}, nil
}

func (g *fakeGateway) CancelOrder(ctx context.Context, req ports.CancelOrderRequest) (ports.CancelOrderResponse, error) {
	if g.cancelOrderFn != nil {
		return g.cancelOrderFn(ctx, req)
	}
	return ports.CancelOrderResponse{CancellationTransactionHash: testTxHash}, nil
}

func (g *fakeGateway) CancelOrders(ctx context.Context, req ports.CancelOrdersRequest) (ports.CancelOrdersResponse, error) {
	if g.cancelOrdersFn != nil {
		return g.cancelOrdersFn(ctx, req)
	}
	return ports.CancelOrdersResponse{CancellationTransactionHash: testTxHash}, nil
}

func (g *fakeGateway) CancelAllOrders(ctx context.Context, req ports.CancelAllOrdersRequest) (ports.CancelOrdersResponse, error) {
	if g.cancelAllFn != nil {
		return g.cancelAllFn(ctx, req)
	}
	return ports.CancelOrdersResponse{CancellationTransactionHash: testTxHash}, nil
}

func (g *fakeGateway) GetOrder(ctx context.Context, req ports.GetOrderRequest) (ports.OrderRecord, error) {
	if g.getOrderFn != nil {
		return g.getOrderFn(ctx, req)
	}
	return ports.OrderRecord{ExchangeOrderID: req.ExchangeOrderID, Status: domain.VenueStatusOpen}, nil
}

func (g *fakeGateway) SettleMarketFunds(ctx context.Context, req ports.SettleFundsRequest) (ports.SettleFundsResponse, error) {
	if g.settleFundsFn != nil {
		return g.settleFundsFn(ctx, req)
	}
	return ports.SettleFundsResponse{TransactionHash: testTxHash}, nil
}

// testMarket devuelve el mercado KUJI-USK con los valores del venue real.
func testMarket() domain.Market {
	return domain.Market{
		ID:          testMarketID,
		Name:        "KUJI/USK",
		TradingPair: testPair,
		BaseToken:   domain.TokenInfo{ID: "ukuji", Name: "KUJI", Symbol: "KUJI", Decimals: 6},
		QuoteToken: domain.TokenInfo{
			ID: "factory/kujira1qk00h5atutpsv900x202pxx42npjr9thg58dnqpa72f2p7m2luase444a7/uusk",
			Name: "USK", Symbol: "USK", Decimals: 6,
		},
		MinOrderSize:            decimal.RequireFromString("0.001"),
		MinPriceIncrement:       decimal.RequireFromString("0.001"),
		MinBaseAmountIncrement:  decimal.RequireFromString("0.001"),
		MinQuoteAmountIncrement: decimal.RequireFromString("0.001"),
		MakerFee:                decimal.RequireFromString("0.075"),
		TakerFee:                decimal.RequireFromString("0.15"),
		ServiceProviderFee:      decimal.Zero,
	}
}

// capturePublisher acumula los eventos publicados, thread-safe.
type capturePublisher struct {
	mu           sync.Mutex
	orderUpdates []domain.OrderUpdate
	tradeUpdates []domain.TradeUpdate
}

func (p *capturePublisher) PublishOrderUpdate(_ context.Context, u domain.OrderUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orderUpdates = append(p.orderUpdates, u)
	return nil
}

func (p *capturePublisher) PublishTradeUpdate(_ context.Context, u domain.TradeUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tradeUpdates = append(p.tradeUpdates, u)
	return nil
}

func (p *capturePublisher) OrderUpdates() []domain.OrderUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.OrderUpdate(nil), p.orderUpdates...)
}

func (p *capturePublisher) TradeUpdates() []domain.TradeUpdate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.TradeUpdate(nil), p.tradeUpdates...)
}

// mapTracker es un ports.OrderTracker mínimo para tests.
type mapTracker struct {
	mu     sync.Mutex
	orders map[string]*domain.InFlightOrder
}

func newMapTracker() *mapTracker {
	return &mapTracker{orders: make(map[string]*domain.InFlightOrder)}
}

func (t *mapTracker) track(o *domain.InFlightOrder) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.orders[o.ClientOrderID] = o
}

func (t *mapTracker) FetchTrackedOrder(clientOrderID string) *domain.InFlightOrder {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.orders[clientOrderID]
}

// newTestConnector arma un connector con retry corto para no alargar tests.
func newTestConnector(gw ports.Gateway, tracker ports.OrderTracker, events ports.EventPublisher) *connector.Connector {
	return connector.New(gw, tracker, events, connector.Config{
		Venue:        testVenue,
		OwnerAddress: testOwner,
		TradingPairs: []string{testPair},
		Retry: connector.RetryConfig{
			Attempts: 2,
			Timeout:  time.Second,
			Delay:    time.Millisecond,
		},
	})
}

// buyOrder devuelve la orden del escenario de ejemplo: KUJI-USK BUY
// 0.24777 @ 0.616.
func buyOrder() *domain.InFlightOrder {
	return &domain.InFlightOrder{
		TradingPair: testPair,
		Side:        domain.SideBuy,
		Type:        domain.OrderTypeLimit,
		Price:       decimal.RequireFromString("0.616"),
		Amount:      decimal.RequireFromString("0.24777"),
		State:       domain.StatePendingCreate,
	}
}
