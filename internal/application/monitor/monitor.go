package monitor

// monitor.go — loop de polling de estado de órdenes.
//
// El gateway no streamea eventos (EventsAreStreamed=false), así que los cambios
// de estado y los fills hay que sacarlos por polling. El monitor recorre las
// órdenes vivas en cada ciclo y las consulta en paralelo con un worker pool;
// las transiciones y trades salen por el event publisher del connector, este
// loop solo orquesta.

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alejandrodnm/kujibot/internal/domain"
)

const (
	defaultPollInterval = 5 * time.Second

	// defaultPollTimeout acota el poll de UNA orden. El poller espera el
	// exchange order id contra el tracker hasta que su contexto muera; sin
	// este límite una orden PENDING_CREATE cuyo id nunca llega dejaría a su
	// worker colgado y el wg.Wait() pararía el polling de todas las demás.
	defaultPollTimeout = 15 * time.Second
)

// StatusPoller es la porción del connector que el monitor consume.
type StatusPoller interface {
	GetOrderStatusUpdate(ctx context.Context, order *domain.InFlightOrder) (domain.OrderUpdate, error)
	GetAllOrderFills(ctx context.Context, order *domain.InFlightOrder) ([]domain.TradeUpdate, error)
	IsOrderNotFoundDuringStatusUpdate(err error) bool
}

// OrderLister enumera las órdenes vivas que hay que vigilar.
type OrderLister interface {
	OpenOrders() []*domain.InFlightOrder
}

// Config contiene la configuración del monitor.
type Config struct {
	PollInterval time.Duration
	PollTimeout  time.Duration // límite por orden dentro de un ciclo
	Workers      int           // goroutines para polling paralelo (0 = NumCPU*2)
}

// Monitor drives the polling loop over the tracked in-flight orders.
type Monitor struct {
	cfg    Config
	poller StatusPoller
	orders OrderLister
}

// New crea un Monitor con las dependencias inyectadas.
func New(cfg Config, poller StatusPoller, orders OrderLister) *Monitor {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = defaultPollTimeout
	}
	return &Monitor{cfg: cfg, poller: poller, orders: orders}
}

// Run ejecuta el loop de polling hasta que el contexto se cancele.
func (m *Monitor) Run(ctx context.Context) {
	slog.Info("monitor starting",
		"interval", m.cfg.PollInterval,
		"workers", m.cfg.Workers,
	)

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("monitor stopped")
			return
		case <-ticker.C:
			m.RunOnce(ctx)
		}
	}
}

// RunOnce ejecuta exactamente un ciclo de polling sobre las órdenes vivas.
func (m *Monitor) RunOnce(ctx context.Context) {
	orders := m.orders.OpenOrders()
	if len(orders) == 0 {
		return
	}

	start := time.Now()
	transitions, fills := m.pollConcurrent(ctx, orders)

	slog.Debug("monitor cycle complete",
		"orders", len(orders),
		"transitions", transitions,
		"fills", fills,
		"duration", time.Since(start).Round(time.Millisecond),
	)
}

// pollConcurrent consulta estado y fills de cada orden usando un worker pool.
// El rate limiter del transporte ya acota el ritmo contra el gateway; los
// workers solo acotan las goroutines en vuelo.
func (m *Monitor) pollConcurrent(ctx context.Context, orders []*domain.InFlightOrder) (transitions, fills int64) {
	workers := m.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}
	if workers > len(orders) {
		workers = len(orders)
	}

	workCh := make(chan *domain.InFlightOrder, len(orders))

	var transitionCount, fillCount atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for order := range workCh {
				// Cada orden con su propio deadline: una orden atascada
				// agota su timeout y el worker sigue con la siguiente.
				orderCtx, cancel := context.WithTimeout(ctx, m.cfg.PollTimeout)
				if m.pollOne(orderCtx, order) {
					transitionCount.Add(1)
				}
				trades, err := m.poller.GetAllOrderFills(orderCtx, order)
				cancel()
				if err != nil {
					slog.Debug("monitor: fills poll failed",
						"client_order_id", order.ClientOrderID, "err", err)
					continue
				}
				fillCount.Add(int64(len(trades)))
			}
		}()
	}

	for _, order := range orders {
		workCh <- order
	}
	close(workCh)
	wg.Wait()

	return transitionCount.Load(), fillCount.Load()
}

// pollOne consulta el estado de una orden y reporta si hubo transición.
func (m *Monitor) pollOne(ctx context.Context, order *domain.InFlightOrder) bool {
	before := order.State
	update, err := m.poller.GetOrderStatusUpdate(ctx, order)
	if err != nil {
		if m.poller.IsOrderNotFoundDuringStatusUpdate(err) {
			// Referencia vieja: el engine la retirará en su propio ciclo
			slog.Debug("monitor: order no longer at venue",
				"client_order_id", order.ClientOrderID)
			return false
		}
		slog.Debug("monitor: status poll failed",
			"client_order_id", order.ClientOrderID, "err", err)
		return false
	}
	return update.NewState != before
}
