package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/sabaishop/api/internal/domain"
	pfirestore "github.com/sabaishop/api/internal/platform/firestore"
)

const productsCollection = "products"

type productDocument struct {
	Name      string    `firestore:"name"`
	UnitPrice int64     `firestore:"unitPrice"`
	Size      string    `firestore:"size"`
	Weight    int64     `firestore:"weight"`
	CreatedAt time.Time `firestore:"createdAt"`
}

// ProductRepository implements repositories.ProductRepository on Firestore.
type ProductRepository struct {
	products *pfirestore.BaseRepository[productDocument]
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	return &ProductRepository{
		products: pfirestore.NewBaseRepository[productDocument](provider, productsCollection),
	}, nil
}

// ListProducts returns the catalog ordered by creation time.
func (r *ProductRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	docs, err := r.products.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("createdAt", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		out = append(out, decodeProduct(doc.ID, doc.Data))
	}
	return out, nil
}

// GetProduct loads a single catalog entry by ID.
func (r *ProductRepository) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	doc, err := r.products.Get(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	return decodeProduct(doc.ID, doc.Data), nil
}

// CreateProduct stores a new catalog entry under its ID.
func (r *ProductRepository) CreateProduct(ctx context.Context, product domain.Product) error {
	return r.products.Set(ctx, product.ID, productDocument{
		Name:      product.Name,
		UnitPrice: product.UnitPrice,
		Size:      product.Size,
		Weight:    product.Weight,
		CreatedAt: product.CreatedAt.UTC(),
	})
}

// DeleteProduct removes the catalog entry. Orders keep their snapshots.
// Deleting an unknown product reports not found rather than succeeding
// silently.
func (r *ProductRepository) DeleteProduct(ctx context.Context, productID string) error {
	if _, err := r.products.Get(ctx, productID); err != nil {
		return err
	}
	return r.products.Delete(ctx, productID)
}

func decodeProduct(id string, doc productDocument) domain.Product {
	return domain.Product{
		ID:        id,
		Name:      doc.Name,
		UnitPrice: doc.UnitPrice,
		Size:      doc.Size,
		Weight:    doc.Weight,
		CreatedAt: doc.CreatedAt,
	}
}
