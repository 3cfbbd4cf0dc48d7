package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/sabaishop/api/internal/domain"
	"github.com/sabaishop/api/internal/platform/httpx"
	"github.com/sabaishop/api/internal/repositories"
	"github.com/sabaishop/api/internal/services"
)

const maxOrderBodySize = 64 * 1024

type orderLinePayload struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

type orderPayload struct {
	ID             string             `json:"id"`
	Number         int64              `json:"number"`
	CustomerLineID string             `json:"customerLineId"`
	Products       []orderLinePayload `json:"products"`
	Shipping       int64              `json:"shipping"`
	Total          int64              `json:"total"`
	Status         string             `json:"status"`
	CreatedAt      time.Time          `json:"createdAt"`
	ExpiresAt      time.Time          `json:"expiresAt"`
	CancelledAt    *time.Time         `json:"cancelledAt,omitempty"`
}

type createOrderRequest struct {
	CustomerLineID string                   `json:"customerLineId"`
	Products       []createOrderLineRequest `json:"products"`
	Shipping       int64                    `json:"shipping"`
}

type createOrderLineRequest struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

// OrderHandlers exposes the order lifecycle endpoints.
type OrderHandlers struct {
	orders services.OrderService
}

// NewOrderHandlers constructs a new OrderHandlers instance.
func NewOrderHandlers(orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{orders: orders}
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listOrders)
	r.Post("/", h.createOrder)
	r.Get("/{orderID}", h.getOrder)
	r.Patch("/{orderID}/cancel", h.cancelOrder)
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	orders, err := h.orders.ListOrders(ctx)
	if err != nil {
		writeOrderError(w, r, err)
		return
	}

	payload := make([]orderPayload, 0, len(orders))
	for _, order := range orders {
		payload = append(payload, toOrderPayload(order))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req createOrderRequest
	if err := decodeJSONBody(r, maxOrderBodySize, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	lines := make([]domain.RequestedLine, 0, len(req.Products))
	for _, line := range req.Products {
		lines = append(lines, domain.RequestedLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}

	order, err := h.orders.PlaceOrder(ctx, services.PlaceOrderCommand{
		ChannelID:   req.CustomerLineID,
		Lines:       lines,
		ShippingFee: req.Shipping,
	})
	if err != nil {
		// The order is persisted before notification, so a failed push still
		// carries the created order in the response detail.
		if errors.Is(err, services.ErrNotificationFailed) {
			httpx.WriteError(ctx, w, httpx.NewError("notification_failed", "order created but customer notification failed", http.StatusBadGateway).
				WithDetails(map[string]any{"order_id": order.ID}))
			return
		}
		writeOrderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderPayload(order))
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	order, err := h.orders.GetOrder(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		writeOrderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderPayload(order))
}

func (h *OrderHandlers) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	order, err := h.orders.CancelOrder(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		if errors.Is(err, services.ErrNotificationFailed) {
			httpx.WriteError(ctx, w, httpx.NewError("notification_failed", "order cancelled but customer notification failed", http.StatusBadGateway).
				WithDetails(map[string]any{"order_id": order.ID}))
			return
		}
		writeOrderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderPayload(order))
}

func writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrUnknownProduct):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrOrderInvalidState):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_order_state", err.Error(), http.StatusConflict))
	case repositories.IsUnavailable(err):
		httpx.WriteError(ctx, w, httpx.NewError("storage_unavailable", "storage temporarily unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "internal server error", http.StatusInternalServerError))
	}
}

func toOrderPayload(order domain.Order) orderPayload {
	lines := make([]orderLinePayload, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, orderLinePayload{
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}
	return orderPayload{
		ID:             order.ID,
		Number:         order.Number,
		CustomerLineID: order.ChannelID,
		Products:       lines,
		Shipping:       order.ShippingFee,
		Total:          order.Total,
		Status:         string(order.Status),
		CreatedAt:      order.CreatedAt,
		ExpiresAt:      order.ExpiresAt,
		CancelledAt:    order.CancelledAt,
	}
}
