package memory

import (
	"context"
	"sort"
	"sync"

	domain "github.com/sabaishop/api/internal/domain"
)

// ProductRepository is a mutex-guarded in-memory catalog store.
type ProductRepository struct {
	mu       sync.Mutex
	products map[string]domain.Product
}

// NewProductRepository constructs an empty product repository.
func NewProductRepository() *ProductRepository {
	return &ProductRepository{products: make(map[string]domain.Product)}
}

// ListProducts returns the catalog ordered by creation time.
func (r *ProductRepository) ListProducts(_ context.Context) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Product, 0, len(r.products))
	for _, product := range r.products {
		out = append(out, product)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// GetProduct returns the product or a not-found repository error.
func (r *ProductRepository) GetProduct(_ context.Context, productID string) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[productID]
	if !ok {
		return domain.Product{}, &notFoundError{kind: "product", id: productID}
	}
	return product, nil
}

// CreateProduct stores a new catalog entry.
func (r *ProductRepository) CreateProduct(_ context.Context, product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = product
	return nil
}

// DeleteProduct removes the catalog entry or reports not found.
func (r *ProductRepository) DeleteProduct(_ context.Context, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[productID]; !ok {
		return &notFoundError{kind: "product", id: productID}
	}
	delete(r.products, productID)
	return nil
}
