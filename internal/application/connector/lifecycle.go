package connector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/alejandrodnm/kujibot/internal/domain"
	"github.com/alejandrodnm/kujibot/internal/ports"
)

// Los hashes de settlement de Kujira son 64 hex chars. Un hash malformado
// vale lo mismo que uno ausente: no hay prueba de inclusión on-chain.
var txHashPattern = regexp.MustCompile(`^[0-9A-Fa-f]{64}$`)

func validTransactionHash(hash string) bool {
	return txHashPattern.MatchString(hash)
}

// PlaceOrder assigns the order's client id, submits it as one transaction and
// validates the settlement proof. On success the order transitions to OPEN
// with its exchange order id and creation hash set.
//
// It publishes nothing: el order tracker del engine es dueño de los eventos
// para placements individuales.
func (c *Connector) PlaceOrder(ctx context.Context, order *domain.InFlightOrder) (domain.PlaceResult, error) {
	ensureClientOrderID(order)
	order.State = domain.StatePendingCreate
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	market, err := c.registry.Resolve(ctx, order.TradingPair)
	if err != nil {
		return domain.PlaceResult{}, &domain.PlacementError{
			ClientOrderID: order.ClientOrderID, TradingPair: order.TradingPair, Err: err,
		}
	}

	c.placeMu.Lock()
	defer c.placeMu.Unlock()

	req := ports.PlaceOrderRequest{
		Venue:        c.cfg.Venue,
		OwnerAddress: c.cfg.OwnerAddress,
		Order:        orderPayload(order, market),
	}
	resp, err := runWithRetry(ctx, c.cfg.Retry, "PlaceOrder", func(ctx context.Context) (ports.PlaceOrderResponse, error) {
		return c.gateway.PlaceOrder(ctx, req)
	})
	if err != nil {
		return domain.PlaceResult{}, &domain.PlacementError{
			ClientOrderID: order.ClientOrderID, TradingPair: order.TradingPair, Err: err,
		}
	}

	// HTTP-level success sin hash de settlement es un fallo, no un éxito
	// degradado.
	if !validTransactionHash(resp.CreationTransactionHash) {
		return domain.PlaceResult{}, &domain.PlacementError{
			ClientOrderID: order.ClientOrderID,
			TradingPair:   order.TradingPair,
			Err:           fmt.Errorf("%w: %q", domain.ErrInvalidTransactionHash, resp.CreationTransactionHash),
		}
	}

	order.ExchangeOrderID = resp.ExchangeOrderID
	order.CreationTxHash = resp.CreationTransactionHash
	order.State = domain.StateOpen

	slog.Info("connector: order placed",
		"client_order_id", order.ClientOrderID,
		"exchange_order_id", order.ExchangeOrderID,
		"pair", order.TradingPair,
		"tx", order.CreationTxHash,
	)

	return domain.PlaceResult{
		ClientOrderID:   order.ClientOrderID,
		ExchangeOrderID: order.ExchangeOrderID,
		TransactionHash: order.CreationTxHash,
	}, nil
}

// BatchPlaceOrders submits every order as ONE gateway request settled by one
// transaction. Ids are assigned to every order before the network call so a
// failure still has deterministic ids for diagnostics. There is no partial
// success: an empty batch hash fails the whole submission.
func (c *Connector) BatchPlaceOrders(ctx context.Context, orders []*domain.InFlightOrder) ([]domain.PlaceResult, error) {
	if len(orders) == 0 {
		return nil, nil
	}

	// Primera pasada: identidad para TODAS las órdenes antes de cualquier
	// resolución o llamada de red, así un fallo parcial deja ids
	// deterministas para diagnóstico en todo el batch.
	for _, order := range orders {
		ensureClientOrderID(order)
		order.State = domain.StatePendingCreate
		if order.CreatedAt.IsZero() {
			order.CreatedAt = time.Now().UTC()
		}
	}

	payloads := make([]ports.OrderPayload, 0, len(orders))
	for _, order := range orders {
		market, err := c.registry.Resolve(ctx, order.TradingPair)
		if err != nil {
			return nil, &domain.PlacementError{
				ClientOrderID: order.ClientOrderID, TradingPair: order.TradingPair, Err: err,
			}
		}
		payloads = append(payloads, orderPayload(order, market))
	}

	c.batchPlaceMu.Lock()
	defer c.batchPlaceMu.Unlock()

	req := ports.PlaceOrdersRequest{
		Venue:        c.cfg.Venue,
		OwnerAddress: c.cfg.OwnerAddress,
		Orders:       payloads,
	}
	resp, err := runWithRetry(ctx, c.cfg.Retry, "PlaceOrders", func(ctx context.Context) (ports.PlaceOrdersResponse, error) {
		return c.gateway.PlaceOrders(ctx, req)
	})
	if err != nil {
		return nil, fmt.Errorf("connector.BatchPlaceOrders: %d orders: %w", len(orders), err)
	}

	if !validTransactionHash(resp.CreationTransactionHash) {
		return nil, fmt.Errorf("connector.BatchPlaceOrders: %d orders: %w: %q",
			len(orders), domain.ErrInvalidTransactionHash, resp.CreationTransactionHash)
	}

	now := time.Now().UTC()
	results := make([]domain.PlaceResult, 0, len(orders))
	for i, order := range orders {
		if i < len(resp.ExchangeOrderIDs) {
			order.ExchangeOrderID = resp.ExchangeOrderIDs[i]
		}
		order.CreationTxHash = resp.CreationTransactionHash
		order.State = domain.StateOpen

		results = append(results, domain.PlaceResult{
			ClientOrderID:   order.ClientOrderID,
			ExchangeOrderID: order.ExchangeOrderID,
			TransactionHash: resp.CreationTransactionHash,
		})

		// Las variantes batch sí publican: el engine no recibe el retorno
		// por orden individual.
		c.publishOrderUpdate(ctx, domain.OrderUpdate{
			ClientOrderID:   order.ClientOrderID,
			ExchangeOrderID: order.ExchangeOrderID,
			TradingPair:     order.TradingPair,
			NewState:        domain.StateOpen,
			TransactionHash: resp.CreationTransactionHash,
			Timestamp:       now,
		})
	}

	slog.Info("connector: batch placed",
		"orders", len(orders), "tx", resp.CreationTransactionHash)
	return results, nil
}

// CancelOrder cancels one order. A venue-reported "order not found" is the
// venue telling us the cancel already happened — se trata como éxito
// idempotente, no como fallo.
func (c *Connector) CancelOrder(ctx context.Context, order *domain.InFlightOrder) (domain.CancelResult, error) {
	market, err := c.registry.Resolve(ctx, order.TradingPair)
	if err != nil {
		return domain.CancelResult{}, fmt.Errorf("connector.CancelOrder: %s: %w", order.ClientOrderID, err)
	}

	c.cancelMu.Lock()
	defer c.cancelMu.Unlock()

	req := ports.CancelOrderRequest{
		Venue:           c.cfg.Venue,
		OwnerAddress:    c.cfg.OwnerAddress,
		MarketID:        market.ID,
		ExchangeOrderID: order.ExchangeOrderID,
	}
	resp, err := runWithRetry(ctx, c.cfg.Retry, "CancelOrder", func(ctx context.Context) (ports.CancelOrderResponse, error) {
		return c.gateway.CancelOrder(ctx, req)
	})
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			order.State = domain.StateCanceled
			slog.Info("connector: order already cancelled at venue",
				"client_order_id", order.ClientOrderID,
				"exchange_order_id", order.ExchangeOrderID)
			return domain.CancelResult{
				ClientOrderID: order.ClientOrderID,
				Status:        domain.CancelStatusAlreadyCancelled,
			}, nil
		}
		return domain.CancelResult{}, fmt.Errorf("connector.CancelOrder: %s: %w", order.ClientOrderID, err)
	}

	if !validTransactionHash(resp.CancellationTransactionHash) {
		return domain.CancelResult{}, fmt.Errorf("connector.CancelOrder: %s: %w: %q",
			order.ClientOrderID, domain.ErrInvalidTransactionHash, resp.CancellationTransactionHash)
	}

	order.CancelTxHash = resp.CancellationTransactionHash
	order.State = domain.StatePendingCancel

	return domain.CancelResult{
		ClientOrderID:   order.ClientOrderID,
		Status:          domain.CancelStatusCancelled,
		TransactionHash: resp.CancellationTransactionHash,
	}, nil
}

// BatchCancelOrders cancels a batch as one settlement transaction, mirroring
// BatchPlaceOrders: one shared hash, no partial success, publishes one order
// update per entry.
func (c *Connector) BatchCancelOrders(ctx context.Context, orders []*domain.InFlightOrder) ([]domain.CancelResult, error) {
	if len(orders) == 0 {
		return nil, nil
	}

	// Todas las órdenes del batch van al mismo market en el gateway de
	// Kujira; resolvemos con la primera.
	market, err := c.registry.Resolve(ctx, orders[0].TradingPair)
	if err != nil {
		return nil, fmt.Errorf("connector.BatchCancelOrders: %w", err)
	}

	exchangeIDs := make([]string, 0, len(orders))
	for _, order := range orders {
		exchangeIDs = append(exchangeIDs, order.ExchangeOrderID)
	}

	c.batchCancelMu.Lock()
	defer c.batchCancelMu.Unlock()

	req := ports.CancelOrdersRequest{
		Venue:            c.cfg.Venue,
		OwnerAddress:     c.cfg.OwnerAddress,
		MarketID:         market.ID,
		ExchangeOrderIDs: exchangeIDs,
	}
	resp, err := runWithRetry(ctx, c.cfg.Retry, "CancelOrders", func(ctx context.Context) (ports.CancelOrdersResponse, error) {
		return c.gateway.CancelOrders(ctx, req)
	})
	if err != nil {
		return nil, fmt.Errorf("connector.BatchCancelOrders: %d orders: %w", len(orders), err)
	}

	if !validTransactionHash(resp.CancellationTransactionHash) {
		return nil, fmt.Errorf("connector.BatchCancelOrders: %d orders: %w: %q",
			len(orders), domain.ErrInvalidTransactionHash, resp.CancellationTransactionHash)
	}

	now := time.Now().UTC()
	results := make([]domain.CancelResult, 0, len(orders))
	for _, order := range orders {
		order.CancelTxHash = resp.CancellationTransactionHash
		order.State = domain.StatePendingCancel

		results = append(results, domain.CancelResult{
			ClientOrderID:   order.ClientOrderID,
			Status:          domain.CancelStatusCancelled,
			TransactionHash: resp.CancellationTransactionHash,
		})

		c.publishOrderUpdate(ctx, domain.OrderUpdate{
			ClientOrderID:   order.ClientOrderID,
			ExchangeOrderID: order.ExchangeOrderID,
			TradingPair:     order.TradingPair,
			NewState:        domain.StatePendingCancel,
			TransactionHash: resp.CancellationTransactionHash,
			Timestamp:       now,
		})
	}

	return results, nil
}

// CancelAllOrdersForMarket cancels every open order on the market in one
// transaction. Fire-and-forget: devuelve solo el hash validado.
func (c *Connector) CancelAllOrdersForMarket(ctx context.Context, tradingPair string) (string, error) {
	market, err := c.registry.Resolve(ctx, tradingPair)
	if err != nil {
		return "", fmt.Errorf("connector.CancelAllOrdersForMarket: %w", err)
	}

	c.cancelAllMu.Lock()
	defer c.cancelAllMu.Unlock()

	req := ports.CancelAllOrdersRequest{
		Venue:        c.cfg.Venue,
		OwnerAddress: c.cfg.OwnerAddress,
		MarketID:     market.ID,
	}
	resp, err := runWithRetry(ctx, c.cfg.Retry, "CancelAllOrders", func(ctx context.Context) (ports.CancelOrdersResponse, error) {
		return c.gateway.CancelAllOrders(ctx, req)
	})
	if err != nil {
		return "", fmt.Errorf("connector.CancelAllOrdersForMarket: %s: %w", tradingPair, err)
	}

	if !validTransactionHash(resp.CancellationTransactionHash) {
		return "", fmt.Errorf("connector.CancelAllOrdersForMarket: %s: %w: %q",
			tradingPair, domain.ErrInvalidTransactionHash, resp.CancellationTransactionHash)
	}

	slog.Info("connector: cancelled all orders",
		"pair", tradingPair, "tx", resp.CancellationTransactionHash)
	return resp.CancellationTransactionHash, nil
}

// SettleMarketFunds withdraws settled funds from the market back to the
// owner address, guarded by its own lock category.
func (c *Connector) SettleMarketFunds(ctx context.Context, tradingPair string) (string, error) {
	market, err := c.registry.Resolve(ctx, tradingPair)
	if err != nil {
		return "", fmt.Errorf("connector.SettleMarketFunds: %w", err)
	}

	c.settleMu.Lock()
	defer c.settleMu.Unlock()

	req := ports.SettleFundsRequest{
		Venue:        c.cfg.Venue,
		OwnerAddress: c.cfg.OwnerAddress,
		MarketID:     market.ID,
	}
	resp, err := runWithRetry(ctx, c.cfg.Retry, "SettleMarketFunds", func(ctx context.Context) (ports.SettleFundsResponse, error) {
		return c.gateway.SettleMarketFunds(ctx, req)
	})
	if err != nil {
		return "", fmt.Errorf("connector.SettleMarketFunds: %s: %w", tradingPair, err)
	}

	if !validTransactionHash(resp.TransactionHash) {
		return "", fmt.Errorf("connector.SettleMarketFunds: %s: %w: %q",
			tradingPair, domain.ErrInvalidTransactionHash, resp.TransactionHash)
	}

	return resp.TransactionHash, nil
}

// orderPayload builds the transport payload for one order. El market se
// re-resuelve en cada operación — nunca se cachea más allá de una llamada.
func orderPayload(order *domain.InFlightOrder, market domain.Market) ports.OrderPayload {
	return ports.OrderPayload{
		ClientOrderID: order.ClientOrderID,
		MarketID:      market.ID,
		Side:          order.Side,
		Type:          order.Type,
		Price:         order.Price,
		Amount:        order.Amount,
	}
}
