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

const (
	orderEventCreated   = "order.created"
	orderEventCancelled = "order.cancelled"
	orderEventExpired   = "order.expired"

	orderIDPrefix = "ord_"

	orderNumberCounter = "orderNumber"
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderInvalidState indicates an invalid status transition was attempted.
	ErrOrderInvalidState = errors.New("order: invalid status transition")
	// ErrNotificationFailed indicates the customer push failed after the
	// state change was already persisted. The state change stands.
	ErrNotificationFailed = errors.New("order: notification failed")
)

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders      repositories.OrderRepository
	Products    repositories.ProductRepository
	Counters    repositories.CounterRepository
	Renderer    InvoiceRenderer
	Notifier    Notifier
	Events      OrderEventPublisher
	Clock       func() time.Time
	IDGenerator func() string
	Validity    time.Duration
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders   repositories.OrderRepository
	products repositories.ProductRepository
	counters repositories.CounterRepository
	renderer InvoiceRenderer
	notifier Notifier
	events   OrderEventPublisher
	clock    func() time.Time
	newID    func() string
	validity time.Duration
	logger   func(context.Context, string, map[string]any)
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("order service: product repository is required")
	}
	if deps.Counters == nil {
		return nil, errors.New("order service: counter repository is required")
	}
	if deps.Renderer == nil {
		return nil, errors.New("order service: invoice renderer is required")
	}
	if deps.Notifier == nil {
		return nil, errors.New("order service: notifier is required")
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
	validity := deps.Validity
	if validity <= 0 {
		validity = domain.DefaultValidity
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders:   deps.Orders,
		products: deps.Products,
		counters: deps.Counters,
		renderer: deps.Renderer,
		notifier: deps.Notifier,
		events:   deps.Events,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:    idGen,
		validity: validity,
		logger:   logger,
	}, nil
}

func (s *orderService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (domain.Order, error) {
	channelID := strings.TrimSpace(cmd.ChannelID)
	if channelID == "" {
		return domain.Order{}, fmt.Errorf("%w: customer channel id is required", ErrOrderInvalidInput)
	}
	if len(cmd.Lines) == 0 {
		return domain.Order{}, fmt.Errorf("%w: at least one line is required", ErrOrderInvalidInput)
	}
	if cmd.ShippingFee < 0 {
		return domain.Order{}, fmt.Errorf("%w: shipping fee must not be negative", ErrOrderInvalidInput)
	}

	// One catalog read serves as the consistent snapshot for this request.
	catalog, err := s.products.ListProducts(ctx)
	if err != nil {
		return domain.Order{}, fmt.Errorf("load catalog snapshot: %w", err)
	}
	lines, err := domain.PriceLines(catalog, cmd.Lines)
	if err != nil {
		return domain.Order{}, err
	}

	number, err := s.counters.Next(ctx, orderNumberCounter)
	if err != nil {
		return domain.Order{}, fmt.Errorf("issue order number: %w", err)
	}

	order, err := domain.NewOrder(orderIDPrefix+s.newID(), number, channelID, lines, cmd.ShippingFee, s.clock(), s.validity)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%w: %v", ErrOrderInvalidInput, err)
	}

	if err := s.orders.Save(ctx, order); err != nil {
		return domain.Order{}, fmt.Errorf("persist order %s: %w", order.ID, err)
	}

	s.publishEvent(ctx, OrderEvent{
		Type:        orderEventCreated,
		OrderID:     order.ID,
		OrderNumber: order.Number,
		Status:      order.Status,
		OccurredAt:  order.CreatedAt,
	})

	if err := s.notifier.Push(ctx, order.ChannelID, s.renderer.Render(order)); err != nil {
		s.logger(ctx, "order.notification_failed", map[string]any{
			"order_id": order.ID,
			"error":    err.Error(),
		})
		return order, fmt.Errorf("%w: order %s: %v", ErrNotificationFailed, order.ID, err)
	}

	return order, nil
}

func (s *orderService) CancelOrder(ctx context.Context, orderID string) (domain.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	now := s.clock()

	// Cancellation is judged against the observed status, so an order past
	// its expiry reads as expired and is no longer cancellable.
	observed := domain.WithEffectiveStatus(order, now)
	cancelled, err := domain.Cancel(observed, now)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%w: %v", ErrOrderInvalidState, err)
	}

	// The conditional update makes exactly one concurrent cancel win.
	if err := s.orders.UpdateStatus(ctx, orderID, domain.OrderStatusActive, domain.OrderStatusCancelled, now); err != nil {
		if repositories.IsConflict(err) {
			return domain.Order{}, fmt.Errorf("%w: order %s is no longer active", ErrOrderInvalidState, orderID)
		}
		return domain.Order{}, fmt.Errorf("update order %s status: %w", orderID, err)
	}

	s.publishEvent(ctx, OrderEvent{
		Type:        orderEventCancelled,
		OrderID:     cancelled.ID,
		OrderNumber: cancelled.Number,
		Status:      cancelled.Status,
		OccurredAt:  now,
	})

	if err := s.notifier.Push(ctx, cancelled.ChannelID, s.renderer.RenderCancellation(cancelled.Number)); err != nil {
		s.logger(ctx, "order.notification_failed", map[string]any{
			"order_id": cancelled.ID,
			"error":    err.Error(),
		})
		return cancelled, fmt.Errorf("%w: order %s: %v", ErrNotificationFailed, cancelled.ID, err)
	}

	return cancelled, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	// Read-time expiry is derivation only; persisting it is the sweep's job.
	return domain.WithEffectiveStatus(order, s.clock()), nil
}

func (s *orderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	now := s.clock()
	for i := range orders {
		orders[i] = domain.WithEffectiveStatus(orders[i], now)
	}
	return orders, nil
}

func (s *orderService) SweepExpired(ctx context.Context) (int, error) {
	now := s.clock()
	expired, err := s.orders.ListActiveExpiredBefore(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list expired orders: %w", err)
	}

	transitioned := 0
	for _, order := range expired {
		err := s.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusActive, domain.OrderStatusExpired, now)
		switch {
		case err == nil:
			transitioned++
			s.publishEvent(ctx, OrderEvent{
				Type:        orderEventExpired,
				OrderID:     order.ID,
				OrderNumber: order.Number,
				Status:      domain.OrderStatusExpired,
				OccurredAt:  now,
			})
		case repositories.IsConflict(err):
			// Another path already moved the order out of active.
		default:
			s.logger(ctx, "order.sweep_update_failed", map[string]any{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}
	return transitioned, nil
}

func (s *orderService) load(ctx context.Context, orderID string) (domain.Order, error) {
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
		}
		return domain.Order{}, fmt.Errorf("load order %s: %w", id, err)
	}
	return order, nil
}

func (s *orderService) publishEvent(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order.event_publish_failed", map[string]any{
			"event_type": event.Type,
			"order_id":   event.OrderID,
			"error":      err.Error(),
		})
	}
}
