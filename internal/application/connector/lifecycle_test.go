package connector_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/kujibot/internal/domain"
	"github.com/alejandrodnm/kujibot/internal/ports"
)

func TestPlaceOrderSuccess(t *testing.T) {
	var captured ports.PlaceOrderRequest
	gw := &fakeGateway{
		placeOrderFn: func(_ context.Context, req ports.PlaceOrderRequest) (ports.PlaceOrderResponse, error) {
			captured = req
			return ports.PlaceOrderResponse{ExchangeOrderID: "727", CreationTransactionHash: testTxHash}, nil
		},
	}
	conn := newTestConnector(gw, newMapTracker(), &capturePublisher{})

	order := buyOrder()
	res, err := conn.PlaceOrder(context.Background(), order)
	require.NoError(t, err)

	assert.Equal(t, "727", res.ExchangeOrderID)
	assert.Equal(t, testTxHash, res.TransactionHash)
	assert.Equal(t, order.ClientOrderID, res.ClientOrderID)

	assert.Equal(t, domain.StateOpen, order.State)
	assert.Equal(t, "727", order.ExchangeOrderID)
	assert.Equal(t, testTxHash, order.CreationTxHash)

	// El payload va contra el market id del venue, no contra el trading pair
	assert.Equal(t, testMarketID, captured.Order.MarketID)
	assert.Equal(t, testOwner, captured.OwnerAddress)
	assert.Equal(t, order.ClientOrderID, captured.Order.ClientOrderID)
}

// Un placement individual no publica nada: los eventos de placements sueltos
// son del tracker del engine.
func TestPlaceOrderPublishesNothing(t *testing.T) {
	events := &capturePublisher{}
	conn := newTestConnector(&fakeGateway{}, newMapTracker(), events)

	_, err := conn.PlaceOrder(context.Background(), buyOrder())
	require.NoError(t, err)

	assert.Empty(t, events.OrderUpdates())
	assert.Empty(t, events.TradeUpdates())
}

func TestPlaceOrderMissingHashFails(t *testing.T) {
	for name, hash := range map[string]string{
		"empty":     "",
		"short":     "ABC123",
		"non-hex":   "ZZZZBBBBCCCCDDDDEEEEFFFF0000111122223333444455556666777788889999",
		"truncated": testTxHash[:63],
	} {
		t.Run(name, func(t *testing.T) {
			gw := &fakeGateway{
				placeOrderFn: func(context.Context, ports.PlaceOrderRequest) (ports.PlaceOrderResponse, error) {
					return ports.PlaceOrderResponse{ExchangeOrderID: "727", CreationTransactionHash: hash}, nil
				},
			}
			conn := newTestConnector(gw, newMapTracker(), &capturePublisher{})

			order := buyOrder()
			_, err := conn.PlaceOrder(context.Background(), order)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidTransactionHash)

			var placement *domain.PlacementError
			require.ErrorAs(t, err, &placement)
			assert.Equal(t, order.ClientOrderID, placement.ClientOrderID)

			assert.NotEqual(t, domain.StateOpen, order.State)
		})
	}
}

// El client order id se asigna antes de la primera llamada de red y sobrevive
// los reintentos: el venue ve siempre el mismo id.
func TestPlaceOrderIdentitySurvivesRetries(t *testing.T) {
	var mu sync.Mutex
	var seenIDs []string
	calls := 0
	gw := &fakeGateway{
		placeOrderFn: func(_ context.Context, req ports.PlaceOrderRequest) (ports.PlaceOrderResponse, error) {
			mu.Lock()
			seenIDs = append(seenIDs, req.Order.ClientOrderID)
			calls++
			n := calls
			mu.Unlock()
			if n == 1 {
				return ports.PlaceOrderResponse{}, errors.New("transient")
			}
			return ports.PlaceOrderResponse{ExchangeOrderID: "727", CreationTransactionHash: testTxHash}, nil
		},
	}
	conn := newTestConnector(gw, newMapTracker(), &capturePublisher{})

	res, err := conn.PlaceOrder(context.Background(), buyOrder())
	require.NoError(t, err)

	require.Len(t, seenIDs, 2)
	assert.Equal(t, seenIDs[0], seenIDs[1])
	assert.Equal(t, seenIDs[0], res.ClientOrderID)
}

func TestPlaceOrderGatewayFailureWrapsPlacementError(t *testing.T) {
	boom := errors.New("gateway down")
	gw := &fakeGateway{
		placeOrderFn: func(context.Context, ports.PlaceOrderRequest) (ports.PlaceOrderResponse, error) {
			return ports.PlaceOrderResponse{}, boom
		},
	}
	conn := newTestConnector(gw, newMapTracker(), &capturePublisher{})

	_, err := conn.PlaceOrder(context.Background(), buyOrder())
	require.Error(t, err)

	var placement *domain.PlacementError
	require.ErrorAs(t, err, &placement)
	assert.ErrorIs(t, err, boom)
}

func TestBatchPlaceOrdersSharesOneHash(t *testing.T) {
	var captured ports.PlaceOrdersRequest
	gw := &fakeGateway{
		placeOrdersFn: func(_ context.Context, req ports.PlaceOrdersRequest) (ports.PlaceOrdersResponse, error) {
			captured = req
			return ports.PlaceOrdersResponse{
				ExchangeOrderIDs:        []string{"1", "2", "3"},
				CreationTransactionHash: testTxHash,
			}, nil
		},
	}
	events := &capturePublisher{}
	conn := newTestConnector(gw, newMapTracker(), events)

	orders := []*domain.InFlightOrder{buyOrder(), buyOrder(), buyOrder()}
	results, err := conn.BatchPlaceOrders(context.Background(), orders)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Un solo request para todo el batch
	assert.Len(t, captured.Orders, 3)

	for i, res := range results {
		assert.Equal(t, testTxHash, res.TransactionHash, "every result shares the batch hash")
		assert.Equal(t, orders[i].ClientOrderID, res.ClientOrderID)
		assert.Equal(t, domain.StateOpen, orders[i].State)
	}
	assert.Equal(t, "2", results[1].ExchangeOrderID)

	// Las variantes batch sí publican, una actualización por orden
	updates := events.OrderUpdates()
	require.Len(t, updates, 3)
	for _, u := range updates {
		assert.Equal(t, domain.StateOpen, u.NewState)
		assert.Equal(t, testTxHash, u.TransactionHash)
	}
}

func TestBatchPlaceOrdersEmptyHashFailsWholeBatch(t *testing.T) {
	gw := &fakeGateway{
		placeOrdersFn: func(context.Context, ports.PlaceOrdersRequest) (ports.PlaceOrdersResponse, error) {
			return ports.PlaceOrdersResponse{ExchangeOrderIDs: []string{"1", "2"}}, nil
		},
	}
	events := &capturePublisher{}
	conn := newTestConnector(gw, newMapTracker(), events)

	orders := []*domain.InFlightOrder{buyOrder(), buyOrder()}
	_, err := conn.BatchPlaceOrders(context.Background(), orders)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidTransactionHash)

	// Sin éxito parcial: ninguna orden pasa a OPEN y no se publica nada
	for _, order := range orders {
		assert.Equal(t, domain.StatePendingCreate, order.State)
		// El id sí queda asignado para diagnóstico
		assert.NotEmpty(t, order.ClientOrderID)
	}
	assert.Empty(t, events.OrderUpdates())
}

// Si la resolución de un mercado falla a mitad del batch, TODAS las órdenes
// tienen que haber recibido ya su id — incluidas las posteriores a la que
// falló.
func TestBatchPlaceOrdersAssignsAllIDsBeforeResolving(t *testing.T) {
	conn := newTestConnector(&fakeGateway{}, newMapTracker(), &capturePublisher{})

	unknown := buyOrder()
	unknown.TradingPair = "DEMO-USK" // no está en el snapshot de mercados
	trailing := buyOrder()

	_, err := conn.BatchPlaceOrders(context.Background(), []*domain.InFlightOrder{buyOrder(), unknown, trailing})
	require.Error(t, err)

	var notFound *domain.MarketNotFoundError
	require.ErrorAs(t, err, &notFound)

	assert.NotEmpty(t, unknown.ClientOrderID)
	assert.NotEmpty(t, trailing.ClientOrderID, "orders after the failing one must still carry ids")
}

func TestBatchPlaceOrdersEmptyInput(t *testing.T) {
	conn := newTestConnector(&fakeGateway{}, newMapTracker(), &capturePublisher{})

	results, err := conn.BatchPlaceOrders(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCancelOrderSuccess(t *testing.T) {
	var captured ports.CancelOrderRequest
	gw := &fakeGateway{
		cancelOrderFn: func(_ context.Context, req ports.CancelOrderRequest) (ports.CancelOrderResponse, error) {
			captured = req
			return ports.CancelOrderResponse{CancellationTransactionHash: testTxHash}, nil
		},
	}
	conn := newTestConnector(gw, newMapTracker(), &capturePublisher{})

	order := buyOrder()
	order.ClientOrderID = "client-1"
	order.ExchangeOrderID = "727"
	order.State = domain.StateOpen

	res, err := conn.CancelOrder(context.Background(), order)
	require.NoError(t, err)

	assert.Equal(t, domain.CancelStatusCancelled, res.Status)
	assert.Equal(t, testTxHash, res.TransactionHash)
	assert.Equal(t, domain.StatePendingCancel, order.State)
	assert.Equal(t, testTxHash, order.CancelTxHash)
	assert.Equal(t, "727", captured.ExchangeOrderID)
	assert.Equal(t, testMarketID, captured.MarketID)
}

// "Order not found" del venue en una cancelación significa que la orden ya no
// existe en el book: éxito idempotente, nunca error.
func TestCancelOrderAlreadyCancelled(t *testing.T) {
	gw := &fakeGateway{
		cancelOrderFn: func(context.Context, ports.CancelOrderRequest) (ports.CancelOrderResponse, error) {
			return ports.CancelOrderResponse{}, domain.ErrOrderNotFound
		},
	}
	conn := newTestConnector(gw, newMapTracker(), &capturePublisher{})

	order := buyOrder()
	order.ClientOrderID = "client-1"
	order.ExchangeOrderID = "727"
	order.State = domain.StateOpen

	res, err := conn.CancelOrder(context.Background(), order)
	require.NoError(t, err)

	assert.Equal(t, domain.CancelStatusAlreadyCancelled, res.Status)
	assert.Empty(t, res.TransactionHash)
	assert.Equal(t, domain.StateCanceled, order.State)
}

func TestCancelOrderEmptyHashFails(t *testing.T) {
	gw := &fakeGateway{
		cancelOrderFn: func(context.Context, ports.CancelOrderRequest) (ports.CancelOrderResponse, error) {
			return ports.CancelOrderResponse{}, nil
		},
	}
	conn := newTestConnector(gw, newMapTracker(), &capturePublisher{})

	order := buyOrder()
	order.ExchangeOrderID = "727"

	_, err := conn.CancelOrder(context.Background(), order)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidTransactionHash)
}

func TestBatchCancelOrdersSharesOneHash(t *testing.T) {
	var captured ports.CancelOrdersRequest
	gw := &fakeGateway{
		cancelOrdersFn: func(_ context.Context, req ports.CancelOrdersRequest) (ports.CancelOrdersResponse, error) {
			captured = req
			return ports.CancelOrdersResponse{CancellationTransactionHash: testTxHash}, nil
		},
	}
	events := &capturePublisher{}
	conn := newTestConnector(gw, newMapTracker(), events)

	first := buyOrder()
	first.ClientOrderID = "client-1"
	first.ExchangeOrderID = "1"
	second := buyOrder()
	second.ClientOrderID = "client-2"
	second.ExchangeOrderID = "2"

	results, err := conn.BatchCancelOrders(context.Background(), []*domain.InFlightOrder{first, second})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, []string{"1", "2"}, captured.ExchangeOrderIDs)
	for _, res := range results {
		assert.Equal(t, domain.CancelStatusCancelled, res.Status)
		assert.Equal(t, testTxHash, res.TransactionHash)
	}
	assert.Equal(t, domain.StatePendingCancel, first.State)
	assert.Equal(t, domain.StatePendingCancel, second.State)

	updates := events.OrderUpdates()
	require.Len(t, updates, 2)
	assert.Equal(t, domain.StatePendingCancel, updates[0].NewState)
}

func TestCancelAllOrdersForMarket(t *testing.T) {
	var captured ports.CancelAllOrdersRequest
	gw := &fakeGateway{
		cancelAllFn: func(_ context.Context, req ports.CancelAllOrdersRequest) (ports.CancelOrdersResponse, error) {
			captured = req
			return ports.CancelOrdersResponse{CancellationTransactionHash: testTxHash}, nil
		},
	}
	conn := newTestConnector(gw, newMapTracker(), &capturePublisher{})

	hash, err := conn.CancelAllOrdersForMarket(context.Background(), testPair)
	require.NoError(t, err)
	assert.Equal(t, testTxHash, hash)
	assert.Equal(t, testMarketID, captured.MarketID)
}

func TestSettleMarketFunds(t *testing.T) {
	conn := newTestConnector(&fakeGateway{}, newMapTracker(), &capturePublisher{})

	hash, err := conn.SettleMarketFunds(context.Background(), testPair)
	require.NoError(t, err)
	assert.Equal(t, testTxHash, hash)
}

func TestSettleMarketFundsEmptyHashFails(t *testing.T) {
	gw := &fakeGateway{
		settleFundsFn: func(context.Context, ports.SettleFundsRequest) (ports.SettleFundsResponse, error) {
			return ports.SettleFundsResponse{}, nil
		},
	}
	conn := newTestConnector(gw, newMapTracker(), &capturePublisher{})

	_, err := conn.SettleMarketFunds(context.Background(), testPair)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidTransactionHash)
}

// Placements concurrentes de la misma categoría deben serializarse: nunca hay
// dos requests de place en vuelo a la vez.
func TestPlaceOrdersSerializedPerCategory(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	gw := &fakeGateway{
		placeOrderFn: func(context.Context, ports.PlaceOrderRequest) (ports.PlaceOrderResponse, error) {
			n := inFlight.Add(1)
			for {
				cur := maxInFlight.Load()
				if n <= cur || maxInFlight.CompareAndSwap(cur, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			return ports.PlaceOrderResponse{ExchangeOrderID: "1", CreationTransactionHash: testTxHash}, nil
		},
	}
	conn := newTestConnector(gw, newMapTracker(), &capturePublisher{})

	// Poblar la caché de mercados antes para no mezclar el refresh en la medición
	_, err := conn.Markets().Resolve(context.Background(), testPair)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := conn.PlaceOrder(context.Background(), buyOrder())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInFlight.Load(), "place requests must never overlap")
}

// Categorías distintas no comparten lock: un settle lento no frena un place.
func TestDistinctCategoriesRunInParallel(t *testing.T) {
	settleStarted := make(chan struct{})
	releaseSettle := make(chan struct{})
	gw := &fakeGateway{
		settleFundsFn: func(context.Context, ports.SettleFundsRequest) (ports.SettleFundsResponse, error) {
			close(settleStarted)
			<-releaseSettle
			return ports.SettleFundsResponse{TransactionHash: testTxHash}, nil
		},
	}
	conn := newTestConnector(gw, newMapTracker(), &capturePublisher{})

	_, err := conn.Markets().Resolve(context.Background(), testPair)
	require.NoError(t, err)

	settleDone := make(chan struct{})
	go func() {
		defer close(settleDone)
		_, err := conn.SettleMarketFunds(context.Background(), testPair)
		assert.NoError(t, err)
	}()

	<-settleStarted

	// Con el settle bloqueado, el place debe completarse igual
	placed := make(chan struct{})
	go func() {
		defer close(placed)
		_, err := conn.PlaceOrder(context.Background(), buyOrder())
		assert.NoError(t, err)
	}()

	select {
	case <-placed:
	case <-time.After(2 * time.Second):
		t.Fatal("place blocked behind an unrelated settle operation")
	}

	close(releaseSettle)
	<-settleDone
}
