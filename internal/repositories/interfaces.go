// Package repositories defines the persistence contracts consumed by the
// service layer. Implementations live in sibling packages (firestore, memory)
// and are selected by configuration, never by silent runtime fallback.
package repositories

import (
	"context"
	"errors"
	"time"

	domain "github.com/sabaishop/api/internal/domain"
)

// Registry exposes every repository the service layer can consume.
type Registry interface {
	Products() ProductRepository
	Orders() OrderRepository
	Counters() CounterRepository
	Close(ctx context.Context) error
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// ErrStatusConflict reports a failed conditional status update: the stored
// status no longer matched the expected one at the moment of the write.
var ErrStatusConflict = errors.New("repositories: order status conflict")

// ProductRepository persists the merchant catalog.
type ProductRepository interface {
	// ListProducts returns the full catalog in a stable order. Callers use a
	// single invocation as the catalog snapshot for one request.
	ListProducts(ctx context.Context) ([]domain.Product, error)
	// GetProduct returns the product or an error with IsNotFound.
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) error
	// DeleteProduct removes a catalog entry. Existing orders keep their
	// snapshots and are unaffected.
	DeleteProduct(ctx context.Context, productID string) error
}

// OrderRepository persists orders. Orders are never deleted; they are
// retained as historical records.
type OrderRepository interface {
	Save(ctx context.Context, order domain.Order) error
	// Get returns the stored order or an error with IsNotFound.
	Get(ctx context.Context, orderID string) (domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	// ListActiveExpiredBefore returns active orders whose expiry precedes the
	// given instant, for the periodic sweep.
	ListActiveExpiredBefore(ctx context.Context, before time.Time) ([]domain.Order, error)
	// UpdateStatus applies a compare-and-set status transition: the write
	// succeeds only if the stored status equals expected at the moment of the
	// update, otherwise ErrStatusConflict is returned. Concurrent attempts on
	// the same order therefore see exactly one success. The at timestamp is
	// recorded as the cancellation time when next is cancelled.
	UpdateStatus(ctx context.Context, orderID string, expected, next domain.OrderStatus, at time.Time) error
}

// CounterRepository issues monotonically increasing values for human-facing
// order numbers.
type CounterRepository interface {
	// Next atomically increments the named counter and returns the new value.
	Next(ctx context.Context, counterID string) (int64, error)
}

// IsNotFound reports whether err categorises as a missing record.
func IsNotFound(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

// IsConflict reports whether err categorises as a conflicting update.
func IsConflict(err error) bool {
	if errors.Is(err, ErrStatusConflict) {
		return true
	}
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsConflict()
}

// IsUnavailable reports whether err categorises as a transient backend outage.
func IsUnavailable(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsUnavailable()
}
