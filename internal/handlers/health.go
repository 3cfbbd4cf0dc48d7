package handlers

import (
	"net/http"
	"time"

	"github.com/sabaishop/api/internal/services"
)

// HealthHandlers reports service status with basic catalog and order counts.
type HealthHandlers struct {
	orders  services.OrderService
	catalog services.CatalogService
	now     func() time.Time
}

// NewHealthHandlers constructs a new HealthHandlers instance. Both services
// are optional; counts are omitted when their service is absent or failing.
func NewHealthHandlers(orders services.OrderService, catalog services.CatalogService) *HealthHandlers {
	return &HealthHandlers{
		orders:  orders,
		catalog: catalog,
		now:     time.Now,
	}
}

// Health responds with the status payload for monitoring.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload := map[string]any{
		"status":    "OK",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	}

	if h.orders != nil {
		if orders, err := h.orders.ListOrders(ctx); err == nil {
			payload["orders"] = len(orders)
		}
	}
	if h.catalog != nil {
		if products, err := h.catalog.ListProducts(ctx); err == nil {
			payload["products"] = len(products)
		}
	}

	writeJSON(w, http.StatusOK, payload)
}
