// Package services hosts the application services orchestrating the order
// lifecycle, the merchant catalog, and the expiry sweep. Concrete
// collaborators (repositories, notifier, event publisher) are injected via
// per-service dependency structs.
package services

import (
	"context"
	"time"

	domain "github.com/sabaishop/api/internal/domain"
	"github.com/sabaishop/api/internal/invoice"
)

// PlaceOrderCommand carries the input for creating an order.
type PlaceOrderCommand struct {
	ChannelID   string
	Lines       []domain.RequestedLine
	ShippingFee int64
}

// CreateProductCommand carries the input for registering a catalog entry.
type CreateProductCommand struct {
	Name      string
	UnitPrice int64
	Size      string
	Weight    int64
}

// OrderService exposes the order lifecycle operations.
type OrderService interface {
	// PlaceOrder validates the request, resolves prices against a catalog
	// snapshot, persists the new active order, and pushes the invoice to the
	// customer. When the push fails after a successful persist the returned
	// error wraps ErrNotificationFailed and the order is still returned.
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (domain.Order, error)
	// CancelOrder transitions an active order to cancelled and pushes the
	// cancellation notice. Concurrent cancellations see exactly one success.
	CancelOrder(ctx context.Context, orderID string) (domain.Order, error)
	// GetOrder loads an order, deriving expiry against the current clock
	// without persisting the derived status.
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
	// ListOrders returns all orders with derived statuses.
	ListOrders(ctx context.Context) ([]domain.Order, error)
	// SweepExpired marks active orders past their expiry as expired and
	// returns how many orders were transitioned.
	SweepExpired(ctx context.Context) (int, error)
}

// CatalogService exposes merchant catalog management.
type CatalogService interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, cmd CreateProductCommand) (domain.Product, error)
	// DeleteProduct removes a catalog entry; existing orders keep their
	// snapshots and are unaffected.
	DeleteProduct(ctx context.Context, productID string) error
}

// Notifier pushes rendered documents to a customer on the messaging channel.
type Notifier interface {
	Push(ctx context.Context, channelID string, document invoice.Document) error
}

// InvoiceRenderer turns orders into displayable documents.
type InvoiceRenderer interface {
	Render(order domain.Order) invoice.Document
	RenderCancellation(orderNumber int64) invoice.Document
}

// OrderEvent captures metadata for emitted order lifecycle events.
type OrderEvent struct {
	Type        string
	OrderID     string
	OrderNumber int64
	Status      domain.OrderStatus
	OccurredAt  time.Time
}

// OrderEventPublisher publishes order lifecycle events for downstream
// consumers. Publishing is advisory; failures never fail the operation.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}
