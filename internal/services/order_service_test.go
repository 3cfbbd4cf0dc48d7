package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "github.com/sabaishop/api/internal/domain"
	"github.com/sabaishop/api/internal/invoice"
	"github.com/sabaishop/api/internal/repositories"
)

type stubOrderRepo struct {
	saveFn         func(context.Context, domain.Order) error
	getFn          func(context.Context, string) (domain.Order, error)
	listFn         func(context.Context) ([]domain.Order, error)
	listExpiredFn  func(context.Context, time.Time) ([]domain.Order, error)
	updateStatusFn func(context.Context, string, domain.OrderStatus, domain.OrderStatus, time.Time) error
}

func (s *stubOrderRepo) Save(ctx context.Context, order domain.Order) error {
	if s.saveFn != nil {
		return s.saveFn(ctx, order)
	}
	return nil
}

func (s *stubOrderRepo) Get(ctx context.Context, orderID string) (domain.Order, error) {
	if s.getFn != nil {
		return s.getFn(ctx, orderID)
	}
	return domain.Order{}, errors.New("not implemented")
}

func (s *stubOrderRepo) List(ctx context.Context) ([]domain.Order, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubOrderRepo) ListActiveExpiredBefore(ctx context.Context, before time.Time) ([]domain.Order, error) {
	if s.listExpiredFn != nil {
		return s.listExpiredFn(ctx, before)
	}
	return nil, nil
}

func (s *stubOrderRepo) UpdateStatus(ctx context.Context, orderID string, expected, next domain.OrderStatus, at time.Time) error {
	if s.updateStatusFn != nil {
		return s.updateStatusFn(ctx, orderID, expected, next, at)
	}
	return nil
}

type stubProductRepo struct {
	listFn   func(context.Context) ([]domain.Product, error)
	getFn    func(context.Context, string) (domain.Product, error)
	createFn func(context.Context, domain.Product) error
	deleteFn func(context.Context, string) error
}

func (s *stubProductRepo) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubProductRepo) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	if s.getFn != nil {
		return s.getFn(ctx, productID)
	}
	return domain.Product{}, errors.New("not implemented")
}

func (s *stubProductRepo) CreateProduct(ctx context.Context, product domain.Product) error {
	if s.createFn != nil {
		return s.createFn(ctx, product)
	}
	return nil
}

func (s *stubProductRepo) DeleteProduct(ctx context.Context, productID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, productID)
	}
	return nil
}

type stubCounterRepo struct {
	nextFn func(context.Context, string) (int64, error)
}

func (s *stubCounterRepo) Next(ctx context.Context, counterID string) (int64, error) {
	if s.nextFn != nil {
		return s.nextFn(ctx, counterID)
	}
	return 1001, nil
}

type stubNotifier struct {
	pushFn func(context.Context, string, invoice.Document) error
	pushed []invoice.Document
}

func (s *stubNotifier) Push(ctx context.Context, channelID string, document invoice.Document) error {
	s.pushed = append(s.pushed, document)
	if s.pushFn != nil {
		return s.pushFn(ctx, channelID, document)
	}
	return nil
}

type stubPublisher struct {
	events []OrderEvent
	err    error
}

func (s *stubPublisher) PublishOrderEvent(ctx context.Context, event OrderEvent) error {
	s.events = append(s.events, event)
	return s.err
}

type conflictErr struct{}

func (conflictErr) Error() string       { return "conflict" }
func (conflictErr) IsNotFound() bool    { return false }
func (conflictErr) IsConflict() bool    { return true }
func (conflictErr) IsUnavailable() bool { return false }

type notFoundErr struct{}

func (notFoundErr) Error() string       { return "not found" }
func (notFoundErr) IsNotFound() bool    { return true }
func (notFoundErr) IsConflict() bool    { return false }
func (notFoundErr) IsUnavailable() bool { return false }

var testCatalog = []domain.Product{
	{ID: "prd_tea", Name: "ชาเขียว", UnitPrice: 120},
	{ID: "prd_rice", Name: "ข้าวหอมมะลิ", UnitPrice: 499},
}

func newTestOrderService(t *testing.T, deps OrderServiceDeps) OrderService {
	t.Helper()
	if deps.Orders == nil {
		deps.Orders = &stubOrderRepo{}
	}
	if deps.Products == nil {
		deps.Products = &stubProductRepo{listFn: func(context.Context) ([]domain.Product, error) {
			return testCatalog, nil
		}}
	}
	if deps.Counters == nil {
		deps.Counters = &stubCounterRepo{}
	}
	if deps.Renderer == nil {
		deps.Renderer = invoice.NewRenderer("https://pay.example.com/checkout")
	}
	if deps.Notifier == nil {
		deps.Notifier = &stubNotifier{}
	}
	svc, err := NewOrderService(deps)
	if err != nil {
		t.Fatalf("NewOrderService: %v", err)
	}
	return svc
}

func TestPlaceOrderPersistsAndNotifies(t *testing.T) {
	now := time.Date(2026, time.January, 2, 7, 30, 0, 0, time.UTC)
	var saved domain.Order
	notifier := &stubNotifier{}
	publisher := &stubPublisher{}

	svc := newTestOrderService(t, OrderServiceDeps{
		Orders: &stubOrderRepo{saveFn: func(_ context.Context, order domain.Order) error {
			saved = order
			return nil
		}},
		Counters: &stubCounterRepo{nextFn: func(context.Context, string) (int64, error) {
			return 1001, nil
		}},
		Notifier:    notifier,
		Events:      publisher,
		Clock:       func() time.Time { return now },
		IDGenerator: func() string { return "01TESTULID" },
	})

	order, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{
		ChannelID: "U1234567890",
		Lines: []domain.RequestedLine{
			{ProductID: "prd_tea", Quantity: 2},
			{ProductID: "prd_rice", Quantity: 1},
		},
		ShippingFee: 50,
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	if order.ID != "ord_01TESTULID" {
		t.Fatalf("unexpected order id %q", order.ID)
	}
	if order.Number != 1001 {
		t.Fatalf("unexpected order number %d", order.Number)
	}
	if order.Total != 2*120+499+50 {
		t.Fatalf("unexpected total %d", order.Total)
	}
	if order.Status != domain.OrderStatusActive {
		t.Fatalf("unexpected status %s", order.Status)
	}
	if !order.ExpiresAt.Equal(now.Add(24 * time.Hour)) {
		t.Fatalf("unexpected expiry %s", order.ExpiresAt)
	}
	if saved.ID != order.ID {
		t.Fatalf("order was not persisted before returning")
	}
	if len(notifier.pushed) != 1 {
		t.Fatalf("expected one invoice push, got %d", len(notifier.pushed))
	}
	if len(publisher.events) != 1 || publisher.events[0].Type != orderEventCreated {
		t.Fatalf("expected one created event, got %+v", publisher.events)
	}
}

func TestPlaceOrderRejectsInvalidInput(t *testing.T) {
	svc := newTestOrderService(t, OrderServiceDeps{})

	cases := map[string]PlaceOrderCommand{
		"missing channel": {
			Lines: []domain.RequestedLine{{ProductID: "prd_tea", Quantity: 1}},
		},
		"no lines": {
			ChannelID: "U1",
		},
		"negative shipping": {
			ChannelID:   "U1",
			Lines:       []domain.RequestedLine{{ProductID: "prd_tea", Quantity: 1}},
			ShippingFee: -1,
		},
	}

	for name, cmd := range cases {
		if _, err := svc.PlaceOrder(context.Background(), cmd); !errors.Is(err, ErrOrderInvalidInput) {
			t.Fatalf("%s: expected ErrOrderInvalidInput, got %v", name, err)
		}
	}
}

func TestPlaceOrderRejectsUnknownProduct(t *testing.T) {
	var counterCalls int
	svc := newTestOrderService(t, OrderServiceDeps{
		Counters: &stubCounterRepo{nextFn: func(context.Context, string) (int64, error) {
			counterCalls++
			return 1001, nil
		}},
	})

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{
		ChannelID: "U1",
		Lines:     []domain.RequestedLine{{ProductID: "prd_missing", Quantity: 1}},
	})
	if !errors.Is(err, domain.ErrUnknownProduct) {
		t.Fatalf("expected ErrUnknownProduct, got %v", err)
	}
	if counterCalls != 0 {
		t.Fatalf("counter must not be consumed for a rejected order")
	}
}

func TestPlaceOrderNotificationFailureKeepsOrder(t *testing.T) {
	saved := false
	svc := newTestOrderService(t, OrderServiceDeps{
		Orders: &stubOrderRepo{saveFn: func(context.Context, domain.Order) error {
			saved = true
			return nil
		}},
		Notifier: &stubNotifier{pushFn: func(context.Context, string, invoice.Document) error {
			return errors.New("push endpoint returned 500")
		}},
	})

	order, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{
		ChannelID: "U1",
		Lines:     []domain.RequestedLine{{ProductID: "prd_tea", Quantity: 1}},
	})
	if !errors.Is(err, ErrNotificationFailed) {
		t.Fatalf("expected ErrNotificationFailed, got %v", err)
	}
	if !saved {
		t.Fatalf("order must stay persisted despite the failed push")
	}
	if order.ID == "" {
		t.Fatalf("the created order must still be returned")
	}
	if !strings.Contains(err.Error(), order.ID) {
		t.Fatalf("error %q does not identify order %s", err, order.ID)
	}
}

func TestPlaceOrderEventFailureDoesNotFail(t *testing.T) {
	svc := newTestOrderService(t, OrderServiceDeps{
		Events: &stubPublisher{err: errors.New("topic unavailable")},
	})

	if _, err := svc.PlaceOrder(context.Background(), PlaceOrderCommand{
		ChannelID: "U1",
		Lines:     []domain.RequestedLine{{ProductID: "prd_tea", Quantity: 1}},
	}); err != nil {
		t.Fatalf("event publish failures must not fail the order: %v", err)
	}
}

func TestCancelOrderTransitionsAndNotifies(t *testing.T) {
	now := time.Date(2026, time.January, 2, 8, 0, 0, 0, time.UTC)
	stored := domain.Order{
		ID:        "ord_A",
		Number:    1002,
		ChannelID: "U1",
		Lines:     []domain.OrderLine{{ProductID: "prd_tea", Name: "ชาเขียว", UnitPrice: 120, Quantity: 1}},
		Total:     120,
		Status:    domain.OrderStatusActive,
		CreatedAt: now.Add(-time.Hour),
		ExpiresAt: now.Add(23 * time.Hour),
	}

	var gotExpected, gotNext domain.OrderStatus
	notifier := &stubNotifier{}
	publisher := &stubPublisher{}
	svc := newTestOrderService(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			getFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
			updateStatusFn: func(_ context.Context, _ string, expected, next domain.OrderStatus, _ time.Time) error {
				gotExpected, gotNext = expected, next
				return nil
			},
		},
		Notifier: notifier,
		Events:   publisher,
		Clock:    func() time.Time { return now },
	})

	cancelled, err := svc.CancelOrder(context.Background(), "ord_A")
	if err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if cancelled.Status != domain.OrderStatusCancelled {
		t.Fatalf("unexpected status %s", cancelled.Status)
	}
	if cancelled.CancelledAt == nil || !cancelled.CancelledAt.Equal(now) {
		t.Fatalf("unexpected cancellation time %v", cancelled.CancelledAt)
	}
	if gotExpected != domain.OrderStatusActive || gotNext != domain.OrderStatusCancelled {
		t.Fatalf("unexpected conditional update %s -> %s", gotExpected, gotNext)
	}
	if len(notifier.pushed) != 1 {
		t.Fatalf("expected one cancellation push, got %d", len(notifier.pushed))
	}
	if len(publisher.events) != 1 || publisher.events[0].Type != orderEventCancelled {
		t.Fatalf("expected one cancelled event, got %+v", publisher.events)
	}
}

func TestCancelOrderRejectsTerminalStatuses(t *testing.T) {
	now := time.Date(2026, time.January, 2, 8, 0, 0, 0, time.UTC)
	for _, status := range []domain.OrderStatus{domain.OrderStatusPaid, domain.OrderStatusCancelled, domain.OrderStatusExpired} {
		stored := domain.Order{
			ID:        "ord_A",
			ChannelID: "U1",
			Status:    status,
			ExpiresAt: now.Add(time.Hour),
		}
		svc := newTestOrderService(t, OrderServiceDeps{
			Orders: &stubOrderRepo{getFn: func(context.Context, string) (domain.Order, error) {
				return stored, nil
			}},
			Clock: func() time.Time { return now },
		})
		if _, err := svc.CancelOrder(context.Background(), "ord_A"); !errors.Is(err, ErrOrderInvalidState) {
			t.Fatalf("status %s: expected ErrOrderInvalidState, got %v", status, err)
		}
	}
}

func TestCancelOrderRejectsLapsedActiveOrder(t *testing.T) {
	now := time.Date(2026, time.January, 2, 8, 0, 0, 0, time.UTC)
	stored := domain.Order{
		ID:        "ord_A",
		ChannelID: "U1",
		Status:    domain.OrderStatusActive,
		ExpiresAt: now.Add(-time.Minute),
	}
	updated := false
	svc := newTestOrderService(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			getFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
			updateStatusFn: func(context.Context, string, domain.OrderStatus, domain.OrderStatus, time.Time) error {
				updated = true
				return nil
			},
		},
		Clock: func() time.Time { return now },
	})

	if _, err := svc.CancelOrder(context.Background(), "ord_A"); !errors.Is(err, ErrOrderInvalidState) {
		t.Fatalf("expected ErrOrderInvalidState for a lapsed order, got %v", err)
	}
	if updated {
		t.Fatalf("no conditional update may run for a lapsed order")
	}
}

func TestCancelOrderConflictLosesRace(t *testing.T) {
	now := time.Date(2026, time.January, 2, 8, 0, 0, 0, time.UTC)
	stored := domain.Order{
		ID:        "ord_A",
		ChannelID: "U1",
		Status:    domain.OrderStatusActive,
		ExpiresAt: now.Add(time.Hour),
	}
	notifier := &stubNotifier{}
	svc := newTestOrderService(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			getFn: func(context.Context, string) (domain.Order, error) { return stored, nil },
			updateStatusFn: func(context.Context, string, domain.OrderStatus, domain.OrderStatus, time.Time) error {
				return repositories.ErrStatusConflict
			},
		},
		Notifier: notifier,
		Clock:    func() time.Time { return now },
	})

	if _, err := svc.CancelOrder(context.Background(), "ord_A"); !errors.Is(err, ErrOrderInvalidState) {
		t.Fatalf("expected ErrOrderInvalidState on conflict, got %v", err)
	}
	if len(notifier.pushed) != 0 {
		t.Fatalf("the losing cancellation must not push a notice")
	}
}

func TestCancelOrderNotFound(t *testing.T) {
	svc := newTestOrderService(t, OrderServiceDeps{
		Orders: &stubOrderRepo{getFn: func(context.Context, string) (domain.Order, error) {
			return domain.Order{}, notFoundErr{}
		}},
	})
	if _, err := svc.CancelOrder(context.Background(), "ord_missing"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestGetOrderDerivesExpiry(t *testing.T) {
	now := time.Date(2026, time.January, 3, 8, 0, 0, 0, time.UTC)
	stored := domain.Order{
		ID:        "ord_A",
		ChannelID: "U1",
		Status:    domain.OrderStatusActive,
		ExpiresAt: now.Add(-time.Minute),
	}
	svc := newTestOrderService(t, OrderServiceDeps{
		Orders: &stubOrderRepo{getFn: func(context.Context, string) (domain.Order, error) {
			return stored, nil
		}},
		Clock: func() time.Time { return now },
	})

	order, err := svc.GetOrder(context.Background(), "ord_A")
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if order.Status != domain.OrderStatusExpired {
		t.Fatalf("expected derived expired status, got %s", order.Status)
	}
}

func TestListOrdersDerivesEachStatus(t *testing.T) {
	now := time.Date(2026, time.January, 3, 8, 0, 0, 0, time.UTC)
	svc := newTestOrderService(t, OrderServiceDeps{
		Orders: &stubOrderRepo{listFn: func(context.Context) ([]domain.Order, error) {
			return []domain.Order{
				{ID: "ord_live", Status: domain.OrderStatusActive, ExpiresAt: now.Add(time.Hour)},
				{ID: "ord_lapsed", Status: domain.OrderStatusActive, ExpiresAt: now.Add(-time.Hour)},
				{ID: "ord_paid", Status: domain.OrderStatusPaid, ExpiresAt: now.Add(-time.Hour)},
			}, nil
		}},
		Clock: func() time.Time { return now },
	})

	orders, err := svc.ListOrders(context.Background())
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	want := []domain.OrderStatus{domain.OrderStatusActive, domain.OrderStatusExpired, domain.OrderStatusPaid}
	for i, status := range want {
		if orders[i].Status != status {
			t.Fatalf("order %s: expected %s, got %s", orders[i].ID, status, orders[i].Status)
		}
	}
}

func TestSweepExpiredSkipsConflicts(t *testing.T) {
	now := time.Date(2026, time.January, 3, 8, 0, 0, 0, time.UTC)
	publisher := &stubPublisher{}
	svc := newTestOrderService(t, OrderServiceDeps{
		Orders: &stubOrderRepo{
			listExpiredFn: func(_ context.Context, before time.Time) ([]domain.Order, error) {
				if !before.Equal(now) {
					t.Fatalf("unexpected sweep cutoff %s", before)
				}
				return []domain.Order{
					{ID: "ord_a", Status: domain.OrderStatusActive},
					{ID: "ord_b", Status: domain.OrderStatusActive},
					{ID: "ord_c", Status: domain.OrderStatusActive},
				}, nil
			},
			updateStatusFn: func(_ context.Context, orderID string, _, next domain.OrderStatus, _ time.Time) error {
				if next != domain.OrderStatusExpired {
					t.Fatalf("unexpected target status %s", next)
				}
				if orderID == "ord_b" {
					return conflictErr{}
				}
				return nil
			},
		},
		Events: publisher,
		Clock:  func() time.Time { return now },
	})

	transitioned, err := svc.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("SweepExpired: %v", err)
	}
	if transitioned != 2 {
		t.Fatalf("expected 2 transitions, got %d", transitioned)
	}
	if len(publisher.events) != 2 {
		t.Fatalf("expected 2 expired events, got %d", len(publisher.events))
	}
	for _, event := range publisher.events {
		if event.Type != orderEventExpired {
			t.Fatalf("unexpected event type %s", event.Type)
		}
	}
}
