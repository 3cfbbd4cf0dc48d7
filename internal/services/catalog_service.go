package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/sabaishop/api/internal/domain"
	"github.com/sabaishop/api/internal/repositories"
)

const productIDPrefix = "prd_"

var (
	// ErrCatalogInvalidInput signals the caller provided invalid product data.
	ErrCatalogInvalidInput = errors.New("catalog: invalid input")
	// ErrProductNotFound indicates the product could not be located.
	ErrProductNotFound = errors.New("catalog: product not found")
)

// CatalogServiceDeps bundles collaborators required to construct the catalog service.
type CatalogServiceDeps struct {
	Products    repositories.ProductRepository
	Clock       func() time.Time
	IDGenerator func() string
}

type catalogService struct {
	products repositories.ProductRepository
	clock    func() time.Time
	newID    func() string
}

// NewCatalogService wires dependencies into a concrete CatalogService implementation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, errors.New("catalog service: product repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}
	return &catalogService{
		products: deps.Products,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: idGen,
	}, nil
}

func (s *catalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (domain.Product, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return domain.Product{}, fmt.Errorf("%w: product name is required", ErrCatalogInvalidInput)
	}
	if cmd.UnitPrice < 0 {
		return domain.Product{}, fmt.Errorf("%w: unit price must not be negative", ErrCatalogInvalidInput)
	}
	if cmd.Weight < 0 {
		return domain.Product{}, fmt.Errorf("%w: weight must not be negative", ErrCatalogInvalidInput)
	}

	product := domain.Product{
		ID:        productIDPrefix + s.newID(),
		Name:      name,
		UnitPrice: cmd.UnitPrice,
		Size:      strings.TrimSpace(cmd.Size),
		Weight:    cmd.Weight,
		CreatedAt: s.clock(),
	}
	if err := s.products.CreateProduct(ctx, product); err != nil {
		return domain.Product{}, fmt.Errorf("persist product %s: %w", product.ID, err)
	}
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, productID string) error {
	id := strings.TrimSpace(productID)
	if id == "" {
		return fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	if err := s.products.DeleteProduct(ctx, id); err != nil {
		if repositories.IsNotFound(err) {
			return fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	return nil
}
