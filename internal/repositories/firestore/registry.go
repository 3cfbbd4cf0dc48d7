package firestore

import (
	"context"
	"fmt"

	pfirestore "github.com/sabaishop/api/internal/platform/firestore"
	"github.com/sabaishop/api/internal/repositories"
)

// OrderNumberCounter names the counter that issues display order numbers.
const OrderNumberCounter = "orderNumber"

// orderNumberSeed keeps the first issued order number above 1000, matching
// the numbering customers already know from printed invoices.
const orderNumberSeed = 1000

// Registry bundles the Firestore repositories behind the repositories.Registry contract.
type Registry struct {
	provider *pfirestore.Provider
	products *ProductRepository
	orders   *OrderRepository
	counters *CounterRepository
}

// NewRegistry wires all Firestore repositories on a shared provider.
func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	products, err := NewProductRepository(provider)
	if err != nil {
		return nil, fmt.Errorf("build product repository: %w", err)
	}
	orders, err := NewOrderRepository(provider)
	if err != nil {
		return nil, fmt.Errorf("build order repository: %w", err)
	}
	counters, err := NewCounterRepository(provider, map[string]int64{
		OrderNumberCounter: orderNumberSeed,
	})
	if err != nil {
		return nil, fmt.Errorf("build counter repository: %w", err)
	}
	return &Registry{
		provider: provider,
		products: products,
		orders:   orders,
		counters: counters,
	}, nil
}

// Products returns the catalog repository.
func (r *Registry) Products() repositories.ProductRepository { return r.products }

// Orders returns the order repository.
func (r *Registry) Orders() repositories.OrderRepository { return r.orders }

// Counters returns the counter repository.
func (r *Registry) Counters() repositories.CounterRepository { return r.counters }

// Close releases the shared Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}
