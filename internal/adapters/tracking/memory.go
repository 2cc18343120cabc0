package tracking

import (
	"sync"

	"github.com/alejandrodnm/kujibot/internal/domain"
)

// MemoryTracker es una implementación en memoria de ports.OrderTracker.
// El engine real tiene su propio tracker; este sirve para el harness y
// para tests.
type MemoryTracker struct {
	mu     sync.RWMutex
	orders map[string]*domain.InFlightOrder
}

// NewMemoryTracker creates an empty tracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{orders: make(map[string]*domain.InFlightOrder)}
}

// Track registers an order under its client order id.
func (t *MemoryTracker) Track(order *domain.InFlightOrder) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.orders[order.ClientOrderID] = order
}

// FetchTrackedOrder returns the tracked order or nil.
func (t *MemoryTracker) FetchTrackedOrder(clientOrderID string) *domain.InFlightOrder {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.orders[clientOrderID]
}

// OpenOrders returns every tracked order not yet in a terminal state.
func (t *MemoryTracker) OpenOrders() []*domain.InFlightOrder {
	t.mu.RLock()
	defer t.mu.RUnlock()
	orders := make([]*domain.InFlightOrder, 0, len(t.orders))
	for _, o := range t.orders {
		if !o.IsTerminal() {
			orders = append(orders, o)
		}
	}
	return orders
}

// Untrack removes an order once the engine confirmed its terminal state.
func (t *MemoryTracker) Untrack(clientOrderID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.orders, clientOrderID)
}

// TrackedCount returns the number of in-flight orders.
func (t *MemoryTracker) TrackedCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.orders)
}
