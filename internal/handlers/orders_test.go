package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	domain "github.com/sabaishop/api/internal/domain"
	"github.com/sabaishop/api/internal/services"
)

type stubOrderService struct {
	placeFn  func(context.Context, services.PlaceOrderCommand) (domain.Order, error)
	cancelFn func(context.Context, string) (domain.Order, error)
	getFn    func(context.Context, string) (domain.Order, error)
	listFn   func(context.Context) ([]domain.Order, error)
	sweepFn  func(context.Context) (int, error)
}

func (s *stubOrderService) PlaceOrder(ctx context.Context, cmd services.PlaceOrderCommand) (domain.Order, error) {
	if s.placeFn != nil {
		return s.placeFn(ctx, cmd)
	}
	return domain.Order{}, nil
}

func (s *stubOrderService) CancelOrder(ctx context.Context, orderID string) (domain.Order, error) {
	if s.cancelFn != nil {
		return s.cancelFn(ctx, orderID)
	}
	return domain.Order{}, nil
}

func (s *stubOrderService) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	if s.getFn != nil {
		return s.getFn(ctx, orderID)
	}
	return domain.Order{}, nil
}

func (s *stubOrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubOrderService) SweepExpired(ctx context.Context) (int, error) {
	if s.sweepFn != nil {
		return s.sweepFn(ctx)
	}
	return 0, nil
}

func sampleOrder() domain.Order {
	created := time.Date(2026, time.January, 2, 7, 30, 0, 0, time.UTC)
	return domain.Order{
		ID:        "ord_01TESTULID",
		Number:    1001,
		ChannelID: "U1234567890",
		Lines: []domain.OrderLine{
			{ProductID: "prd_tea", Name: "ชาเขียว", UnitPrice: 120, Quantity: 2},
		},
		ShippingFee: 50,
		Total:       290,
		Status:      domain.OrderStatusActive,
		CreatedAt:   created,
		ExpiresAt:   created.Add(24 * time.Hour),
	}
}

func newOrderRouter(orders services.OrderService) http.Handler {
	return NewRouter(WithOrderRoutes(NewOrderHandlers(orders).Routes))
}

func TestCreateOrderReturnsCreated(t *testing.T) {
	var gotCmd services.PlaceOrderCommand
	router := newOrderRouter(&stubOrderService{
		placeFn: func(_ context.Context, cmd services.PlaceOrderCommand) (domain.Order, error) {
			gotCmd = cmd
			return sampleOrder(), nil
		},
	})

	body := `{"customerLineId":"U1234567890","products":[{"productId":"prd_tea","quantity":2}],"shipping":50}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotCmd.ChannelID != "U1234567890" || len(gotCmd.Lines) != 1 || gotCmd.Lines[0].Quantity != 2 || gotCmd.ShippingFee != 50 {
		t.Fatalf("unexpected command %+v", gotCmd)
	}

	var payload orderPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.ID != "ord_01TESTULID" || payload.Number != 1001 || payload.Total != 290 {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload.Status != "active" {
		t.Fatalf("unexpected status %q", payload.Status)
	}
}

func TestCreateOrderRejectsMalformedBody(t *testing.T) {
	router := newOrderRouter(&stubOrderService{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader("{not json")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateOrderMapsDomainErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid input", services.ErrOrderInvalidInput, http.StatusBadRequest},
		{"unknown product", domain.ErrUnknownProduct, http.StatusBadRequest},
		{"invalid quantity", domain.ErrInvalidQuantity, http.StatusBadRequest},
	}
	for _, tc := range cases {
		router := newOrderRouter(&stubOrderService{
			placeFn: func(context.Context, services.PlaceOrderCommand) (domain.Order, error) {
				return domain.Order{}, tc.err
			},
		})
		rec := httptest.NewRecorder()
		body := `{"customerLineId":"U1","products":[{"productId":"prd_x","quantity":1}]}`
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body)))
		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.status, rec.Code)
		}
	}
}

func TestCreateOrderNotificationFailureReturnsBadGateway(t *testing.T) {
	order := sampleOrder()
	router := newOrderRouter(&stubOrderService{
		placeFn: func(context.Context, services.PlaceOrderCommand) (domain.Order, error) {
			return order, services.ErrNotificationFailed
		},
	})

	rec := httptest.NewRecorder()
	body := `{"customerLineId":"U1","products":[{"productId":"prd_tea","quantity":1}]}`
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body)))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["order_id"] != order.ID {
		t.Fatalf("response must identify the persisted order, got %v", payload)
	}
}

func TestGetOrderNotFound(t *testing.T) {
	router := newOrderRouter(&stubOrderService{
		getFn: func(context.Context, string) (domain.Order, error) {
			return domain.Order{}, services.ErrOrderNotFound
		},
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/ord_missing", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCancelOrderConflict(t *testing.T) {
	router := newOrderRouter(&stubOrderService{
		cancelFn: func(context.Context, string) (domain.Order, error) {
			return domain.Order{}, services.ErrOrderInvalidState
		},
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/orders/ord_A/cancel", nil))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestCancelOrderReturnsCancelledOrder(t *testing.T) {
	order := sampleOrder()
	cancelledAt := order.CreatedAt.Add(time.Hour)
	order.Status = domain.OrderStatusCancelled
	order.CancelledAt = &cancelledAt

	router := newOrderRouter(&stubOrderService{
		cancelFn: func(_ context.Context, orderID string) (domain.Order, error) {
			if orderID != order.ID {
				t.Fatalf("unexpected order id %q", orderID)
			}
			return order, nil
		},
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/orders/"+order.ID+"/cancel", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload orderPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Status != "cancelled" || payload.CancelledAt == nil {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestListOrders(t *testing.T) {
	router := newOrderRouter(&stubOrderService{
		listFn: func(context.Context) ([]domain.Order, error) {
			return []domain.Order{sampleOrder()}, nil
		},
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload []orderPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload) != 1 || payload[0].CustomerLineID != "U1234567890" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}
