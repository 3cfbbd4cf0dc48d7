// Package memory holds mutex-guarded in-memory repository implementations.
// They carry the same conditional-update semantics as the Firestore backend
// and serve tests and explicitly configured degraded deployments.
package memory

import (
	"context"
	"fmt"

	"github.com/sabaishop/api/internal/repositories"
)

// Registry bundles the in-memory repositories behind the repositories.Registry contract.
type Registry struct {
	products *ProductRepository
	orders   *OrderRepository
	counters *CounterRepository
}

// NewRegistry constructs an empty in-memory registry. The order-number
// counter is seeded to match the Firestore registry's numbering.
func NewRegistry() *Registry {
	return &Registry{
		products: NewProductRepository(),
		orders:   NewOrderRepository(),
		counters: NewCounterRepository(map[string]int64{"orderNumber": 1000}),
	}
}

// Products returns the catalog repository.
func (r *Registry) Products() repositories.ProductRepository { return r.products }

// Orders returns the order repository.
func (r *Registry) Orders() repositories.OrderRepository { return r.orders }

// Counters returns the counter repository.
func (r *Registry) Counters() repositories.CounterRepository { return r.counters }

// Close is a no-op for the in-memory registry.
func (r *Registry) Close(context.Context) error { return nil }

// notFoundError satisfies repositories.RepositoryError for missing records.
type notFoundError struct {
	kind string
	id   string
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("memory: %s %s not found", e.kind, e.id)
}

func (e *notFoundError) IsNotFound() bool    { return true }
func (e *notFoundError) IsConflict() bool    { return false }
func (e *notFoundError) IsUnavailable() bool { return false }
