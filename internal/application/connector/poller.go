package connector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/kujibot/internal/domain"
	"github.com/alejandrodnm/kujibot/internal/ports"
)

// exchangeIDPollTick es el tick del wait por exchange order id. El id lo
// asigna la respuesta de placement, así que normalmente ya está; el loop solo
// cubre la ventana entre submit y ack.
const exchangeIDPollTick = 50 * time.Millisecond

// GetOrderStatusUpdate fetches the venue's current record of the order,
// translates its status and, if it differs from the order's last known state,
// publishes an OrderUpdate on the shared event channel. Este es el único
// camino por el que los cambios de estado salen del adapter.
func (c *Connector) GetOrderStatusUpdate(ctx context.Context, order *domain.InFlightOrder) (domain.OrderUpdate, error) {
	exchangeID, err := c.waitExchangeOrderID(ctx, order)
	if err != nil {
		return domain.OrderUpdate{}, fmt.Errorf("connector.GetOrderStatusUpdate: %s: %w", order.ClientOrderID, err)
	}

	rec, err := c.fetchOrderRecord(ctx, order, exchangeID, "")
	if err != nil {
		return domain.OrderUpdate{}, fmt.Errorf("connector.GetOrderStatusUpdate: %s: %w", order.ClientOrderID, err)
	}

	newState, err := rec.Status.ToOrderState()
	if err != nil {
		return domain.OrderUpdate{}, fmt.Errorf("connector.GetOrderStatusUpdate: %s: %w", order.ClientOrderID, err)
	}

	update := domain.OrderUpdate{
		ClientOrderID:   order.ClientOrderID,
		ExchangeOrderID: exchangeID,
		TradingPair:     order.TradingPair,
		NewState:        newState,
		TransactionHash: transitionHash(rec, newState),
		Timestamp:       time.Now().UTC(),
	}

	if newState != order.State {
		order.State = newState
		c.publishOrderUpdate(ctx, update)
	}

	return update, nil
}

// GetAllOrderFills queries the order filtered by FILLED status and, if the
// venue reports it filled, synthesizes one taker trade with the fee computed
// from the market's taker rate. Orders not yet FILLED yield an empty list.
//
// Modelo simplificado heredado del venue: un trade por orden, siempre taker,
// sin agregación de fills parciales entre polls. El trade id es determinista
// para que polls repetidos no dupliquen eventos aguas abajo.
func (c *Connector) GetAllOrderFills(ctx context.Context, order *domain.InFlightOrder) ([]domain.TradeUpdate, error) {
	exchangeID, err := c.waitExchangeOrderID(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("connector.GetAllOrderFills: %s: %w", order.ClientOrderID, err)
	}

	rec, err := c.fetchOrderRecord(ctx, order, exchangeID, domain.VenueStatusFilled)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			// No hay registro con status FILLED: la orden sigue viva
			return []domain.TradeUpdate{}, nil
		}
		return nil, fmt.Errorf("connector.GetAllOrderFills: %s: %w", order.ClientOrderID, err)
	}

	if rec.Status != domain.VenueStatusFilled {
		return []domain.TradeUpdate{}, nil
	}

	market, err := c.registry.Resolve(ctx, order.TradingPair)
	if err != nil {
		return nil, fmt.Errorf("connector.GetAllOrderFills: %s: %w", order.ClientOrderID, err)
	}

	quoteAmount := rec.Price.Mul(rec.Amount)
	fee := quoteAmount.Mul(market.TakerFee)

	trade := domain.TradeUpdate{
		TradeID:         exchangeID + "-fill",
		ClientOrderID:   order.ClientOrderID,
		ExchangeOrderID: exchangeID,
		TradingPair:     order.TradingPair,
		FillPrice:       rec.Price,
		FillBaseAmount:  rec.Amount,
		FillQuoteAmount: quoteAmount,
		Fee:             fee,
		FeeAsset:        market.QuoteToken.Symbol,
		IsTaker:         true,
		Timestamp:       time.Now().UTC(),
	}

	c.publishTradeUpdate(ctx, trade)
	return []domain.TradeUpdate{trade}, nil
}

// IsOrderNotFoundDuringStatusUpdate classifies a status-poll error as a
// stale-reference condition. Clasificador puro: el engine decide la política.
func (c *Connector) IsOrderNotFoundDuringStatusUpdate(err error) bool {
	return errors.Is(err, domain.ErrOrderNotFound)
}

// IsOrderNotFoundDuringCancellation classifies a cancellation error the same
// way. With this adapter it only triggers on transport-level lookups — the
// coordinator already converts the venue's not-found into AlreadyCancelled.
func (c *Connector) IsOrderNotFoundDuringCancellation(err error) bool {
	return errors.Is(err, domain.ErrOrderNotFound)
}

// waitExchangeOrderID resolves the exchange order id, polling the engine's
// tracker until it is known or ctx expires. Go analog of awaiting the
// original's exchange-order-id future.
func (c *Connector) waitExchangeOrderID(ctx context.Context, order *domain.InFlightOrder) (string, error) {
	if order.ExchangeOrderID != "" {
		return order.ExchangeOrderID, nil
	}

	ticker := time.NewTicker(exchangeIDPollTick)
	defer ticker.Stop()

	for {
		if c.tracker != nil {
			if tracked := c.tracker.FetchTrackedOrder(order.ClientOrderID); tracked != nil && tracked.ExchangeOrderID != "" {
				order.ExchangeOrderID = tracked.ExchangeOrderID
				return tracked.ExchangeOrderID, nil
			}
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("waiting for exchange order id: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// fetchOrderRecord reads one order record from the gateway with retry.
func (c *Connector) fetchOrderRecord(ctx context.Context, order *domain.InFlightOrder, exchangeID string, status domain.VenueOrderStatus) (ports.OrderRecord, error) {
	marketID := ""
	if market, err := c.registry.Resolve(ctx, order.TradingPair); err == nil {
		marketID = market.ID
	}

	req := ports.GetOrderRequest{
		Venue:           c.cfg.Venue,
		OwnerAddress:    c.cfg.OwnerAddress,
		MarketID:        marketID,
		ExchangeOrderID: exchangeID,
		Status:          status,
	}
	return runWithRetry(ctx, c.cfg.Retry, "GetOrder", func(ctx context.Context) (ports.OrderRecord, error) {
		return c.gateway.GetOrder(ctx, req)
	})
}

// transitionHash picks the settlement hash relevant to the observed state.
func transitionHash(rec ports.OrderRecord, state domain.OrderState) string {
	if state == domain.StateCanceled || state == domain.StatePendingCancel {
		return rec.CancellationTxHash
	}
	return rec.CreationTxHash
}
