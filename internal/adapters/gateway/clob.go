package gateway

// clob.go — implementación de ports.Gateway sobre el gateway service HTTP.
//
// Cada operación es un request/response tipado: el DTO se decodifica aquí,
// una sola vez, y hacia arriba solo viajan domain entities y structs del
// port. Los paths se montan bajo el nombre del connector del VenueRef
// (p.ej. /kujira/markets).

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/alejandrodnm/kujibot/internal/domain"
	"github.com/alejandrodnm/kujibot/internal/ports"
)

// Ping checks the gateway is reachable. GET / responde 200 con metadata que
// no necesitamos decodificar.
func (c *Client) Ping(ctx context.Context) error {
	return c.get(ctx, "Ping", "/", nil, nil)
}

// GetMarkets fetches market metadata for the venue triple. An empty
// TradingPairs list fetches every market on the chain/network/connector.
func (c *Client) GetMarkets(ctx context.Context, req ports.MarketsRequest) ([]domain.Market, error) {
	query := venueQuery(req.Venue)
	if len(req.TradingPairs) > 0 {
		query.Set("names", strings.Join(req.TradingPairs, ","))
	}

	var resp marketsResponse
	if err := c.get(ctx, "GetMarkets", connectorPath(req.Venue, "/markets"), query, &resp); err != nil {
		return nil, err
	}

	markets, err := mapMarkets(resp.Markets)
	if err != nil {
		return nil, fmt.Errorf("gateway.GetMarkets: %w", err)
	}
	return markets, nil
}

// GetOrderBook fetches the book snapshot for one market.
func (c *Client) GetOrderBook(ctx context.Context, req ports.OrderBookRequest) (domain.OrderBook, error) {
	query := venueQuery(req.Venue)
	query.Set("marketId", req.MarketID)

	var resp orderBookResponseDTO
	if err := c.get(ctx, "GetOrderBook", connectorPath(req.Venue, "/orderBook"), query, &resp); err != nil {
		return domain.OrderBook{}, err
	}
	return mapOrderBook(resp), nil
}

// GetTicker fetches the last traded price for one market.
func (c *Client) GetTicker(ctx context.Context, req ports.TickerRequest) (domain.Ticker, error) {
	query := venueQuery(req.Venue)
	query.Set("marketId", req.MarketID)

	var resp tickerResponseDTO
	if err := c.get(ctx, "GetTicker", connectorPath(req.Venue, "/ticker"), query, &resp); err != nil {
		return domain.Ticker{}, err
	}

	ticker, err := mapTicker(resp)
	if err != nil {
		return domain.Ticker{}, fmt.Errorf("gateway.GetTicker: %w", err)
	}
	return ticker, nil
}

// GetBalances fetches all token balances for the owner address.
func (c *Client) GetBalances(ctx context.Context, req ports.BalancesRequest) (ports.BalancesResponse, error) {
	query := venueQuery(req.Venue)
	query.Set("ownerAddress", req.OwnerAddress)

	var resp balancesResponseDTO
	if err := c.get(ctx, "GetBalances", connectorPath(req.Venue, "/balances"), query, &resp); err != nil {
		return ports.BalancesResponse{}, err
	}

	balances, err := mapBalances(resp)
	if err != nil {
		return ports.BalancesResponse{}, fmt.Errorf("gateway.GetBalances: %w", err)
	}
	return balances, nil
}

// PlaceOrder submits one order as one transaction.
func (c *Client) PlaceOrder(ctx context.Context, req ports.PlaceOrderRequest) (ports.PlaceOrderResponse, error) {
	body := placeOrderRequestDTO{
		Chain:        req.Venue.Chain,
		Network:      req.Venue.Network,
		Connector:    req.Venue.Connector,
		OwnerAddress: req.OwnerAddress,
		Order:        mapPayload(req.Order),
	}

	var resp placeOrderResponseDTO
	if err := c.post(ctx, "PlaceOrder", connectorPath(req.Venue, "/order"), body, &resp); err != nil {
		return ports.PlaceOrderResponse{}, err
	}

	return ports.PlaceOrderResponse{
		ExchangeOrderID:         resp.ID,
		CreationTransactionHash: resp.Hashes.Creation,
	}, nil
}

// PlaceOrders submits a batch in one transaction.
func (c *Client) PlaceOrders(ctx context.Context, req ports.PlaceOrdersRequest) (ports.PlaceOrdersResponse, error) {
	body := placeOrdersRequestDTO{
		Chain:        req.Venue.Chain,
		Network:      req.Venue.Network,
		Connector:    req.Venue.Connector,
		OwnerAddress: req.OwnerAddress,
	}
	for _, p := range req.Orders {
		body.Orders = append(body.Orders, mapPayload(p))
	}

	var resp placeOrdersResponseDTO
	if err := c.post(ctx, "PlaceOrders", connectorPath(req.Venue, "/orders"), body, &resp); err != nil {
		return ports.PlaceOrdersResponse{}, err
	}

	return ports.PlaceOrdersResponse{
		ExchangeOrderIDs:        resp.IDs,
		CreationTransactionHash: resp.Hashes.Creation,
	}, nil
}

// CancelOrder cancels one order by exchange order id.
func (c *Client) CancelOrder(ctx context.Context, req ports.CancelOrderRequest) (ports.CancelOrderResponse, error) {
	body := cancelOrderRequestDTO{
		Chain:        req.Venue.Chain,
		Network:      req.Venue.Network,
		Connector:    req.Venue.Connector,
		OwnerAddress: req.OwnerAddress,
		MarketID:     req.MarketID,
		OrderID:      req.ExchangeOrderID,
	}

	var resp cancelResponseDTO
	if err := c.delete(ctx, "CancelOrder", connectorPath(req.Venue, "/order"), body, &resp); err != nil {
		return ports.CancelOrderResponse{}, err
	}
	return ports.CancelOrderResponse{CancellationTransactionHash: resp.Hashes.Cancellation}, nil
}

// CancelOrders cancels a batch in one transaction.
func (c *Client) CancelOrders(ctx context.Context, req ports.CancelOrdersRequest) (ports.CancelOrdersResponse, error) {
	body := cancelOrdersRequestDTO{
		Chain:        req.Venue.Chain,
		Network:      req.Venue.Network,
		Connector:    req.Venue.Connector,
		OwnerAddress: req.OwnerAddress,
		MarketID:     req.MarketID,
		OrderIDs:     req.ExchangeOrderIDs,
	}

	var resp cancelResponseDTO
	if err := c.delete(ctx, "CancelOrders", connectorPath(req.Venue, "/orders"), body, &resp); err != nil {
		return ports.CancelOrdersResponse{}, err
	}
	return ports.CancelOrdersResponse{CancellationTransactionHash: resp.Hashes.Cancellation}, nil
}

// CancelAllOrders cancels every open order on one market.
func (c *Client) CancelAllOrders(ctx context.Context, req ports.CancelAllOrdersRequest) (ports.CancelOrdersResponse, error) {
	body := cancelAllRequestDTO{
		Chain:        req.Venue.Chain,
		Network:      req.Venue.Network,
		Connector:    req.Venue.Connector,
		OwnerAddress: req.OwnerAddress,
		MarketID:     req.MarketID,
	}

	var resp cancelResponseDTO
	if err := c.delete(ctx, "CancelAllOrders", connectorPath(req.Venue, "/orders/all"), body, &resp); err != nil {
		return ports.CancelOrdersResponse{}, err
	}
	return ports.CancelOrdersResponse{CancellationTransactionHash: resp.Hashes.Cancellation}, nil
}

// GetOrder fetches the venue's current record of one order. The optional
// status filter se pasa al gateway — con filtro, una orden en otro estado
// responde not found (clasificado como domain.ErrOrderNotFound).
func (c *Client) GetOrder(ctx context.Context, req ports.GetOrderRequest) (ports.OrderRecord, error) {
	query := venueQuery(req.Venue)
	query.Set("ownerAddress", req.OwnerAddress)
	query.Set("orderId", req.ExchangeOrderID)
	if req.MarketID != "" {
		query.Set("marketId", req.MarketID)
	}
	if req.Status != "" {
		query.Set("status", string(req.Status))
	}

	var resp orderResponseDTO
	if err := c.get(ctx, "GetOrder", connectorPath(req.Venue, "/order"), query, &resp); err != nil {
		return ports.OrderRecord{}, err
	}

	rec, err := mapOrderRecord(resp)
	if err != nil {
		return ports.OrderRecord{}, fmt.Errorf("gateway.GetOrder: %w", err)
	}
	return rec, nil
}

// SettleMarketFunds withdraws settled funds from one market.
func (c *Client) SettleMarketFunds(ctx context.Context, req ports.SettleFundsRequest) (ports.SettleFundsResponse, error) {
	body := settleRequestDTO{
		Chain:        req.Venue.Chain,
		Network:      req.Venue.Network,
		Connector:    req.Venue.Connector,
		OwnerAddress: req.OwnerAddress,
		MarketID:     req.MarketID,
	}

	var resp settleResponseDTO
	if err := c.post(ctx, "SettleMarketFunds", connectorPath(req.Venue, "/market/withdraw"), body, &resp); err != nil {
		return ports.SettleFundsResponse{}, err
	}
	return ports.SettleFundsResponse{TransactionHash: resp.Hash}, nil
}

// connectorPath monta un path bajo el nombre del connector.
func connectorPath(venue ports.VenueRef, path string) string {
	return "/" + venue.Connector + path
}

// venueQuery builds the query params every read operation carries.
func venueQuery(venue ports.VenueRef) url.Values {
	q := url.Values{}
	q.Set("chain", venue.Chain)
	q.Set("network", venue.Network)
	q.Set("connector", venue.Connector)
	return q
}
