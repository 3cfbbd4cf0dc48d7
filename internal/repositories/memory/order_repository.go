package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domain "github.com/sabaishop/api/internal/domain"
	"github.com/sabaishop/api/internal/repositories"
)

// OrderRepository is a mutex-guarded in-memory order store.
type OrderRepository struct {
	mu     sync.Mutex
	orders map[string]domain.Order
}

// NewOrderRepository constructs an empty order repository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]domain.Order)}
}

// Save upserts the order under its ID.
func (r *OrderRepository) Save(_ context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

// Get returns the stored order or a not-found repository error.
func (r *OrderRepository) Get(_ context.Context, orderID string) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return domain.Order{}, &notFoundError{kind: "order", id: orderID}
	}
	return cloneOrder(order), nil
}

// List returns all orders sorted by display number.
func (r *OrderRepository) List(_ context.Context) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		out = append(out, cloneOrder(order))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// ListActiveExpiredBefore returns active orders whose expiry precedes the instant.
func (r *OrderRepository) ListActiveExpiredBefore(_ context.Context, before time.Time) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Order
	for _, order := range r.orders {
		if order.Status == domain.OrderStatusActive && order.ExpiresAt.Before(before) {
			out = append(out, cloneOrder(order))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// UpdateStatus applies the compare-and-set transition under the lock, so
// concurrent attempts on the same order see exactly one success.
func (r *OrderRepository) UpdateStatus(_ context.Context, orderID string, expected, next domain.OrderStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok {
		return &notFoundError{kind: "order", id: orderID}
	}
	if order.Status != expected {
		return repositories.ErrStatusConflict
	}

	order.Status = next
	if next == domain.OrderStatusCancelled {
		cancelledAt := at.UTC()
		order.CancelledAt = &cancelledAt
	}
	r.orders[orderID] = order
	return nil
}

func cloneOrder(order domain.Order) domain.Order {
	lines := make([]domain.OrderLine, len(order.Lines))
	copy(lines, order.Lines)
	order.Lines = lines
	if order.CancelledAt != nil {
		cancelledAt := *order.CancelledAt
		order.CancelledAt = &cancelledAt
	}
	return order
}
