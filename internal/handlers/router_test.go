package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	domain "github.com/sabaishop/api/internal/domain"
)

func TestRouterUnknownRoute(t *testing.T) {
	router := NewRouter()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["error"] != errorNotFoundCode {
		t.Fatalf("unexpected error code %v", payload["error"])
	}
}

func TestRouterUnconfiguredGroupReportsNotImplemented(t *testing.T) {
	router := NewRouter()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders", nil))

	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", rec.Code)
	}
}

func TestHealthReportsCounts(t *testing.T) {
	orders := &stubOrderService{
		listFn: func(context.Context) ([]domain.Order, error) {
			return []domain.Order{sampleOrder()}, nil
		},
	}
	catalog := &stubCatalogService{
		listFn: func(context.Context) ([]domain.Product, error) {
			return []domain.Product{{ID: "prd_tea"}, {ID: "prd_rice"}}, nil
		},
	}
	router := NewRouter(WithHealthHandlers(NewHealthHandlers(orders, catalog)))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["status"] != "OK" {
		t.Fatalf("unexpected status %v", payload["status"])
	}
	if payload["orders"] != float64(1) || payload["products"] != float64(2) {
		t.Fatalf("unexpected counts %v", payload)
	}
}
