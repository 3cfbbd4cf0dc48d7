package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultValidity is the payment window granted to a newly created order.
const DefaultValidity = 24 * time.Hour

var (
	// ErrEmptyOrder signals an order creation attempt without any lines.
	ErrEmptyOrder = errors.New("order: must contain at least one line")
	// ErrMissingChannel signals an order creation attempt without a recipient channel.
	ErrMissingChannel = errors.New("order: customer channel id is required")
	// ErrInvalidTransition signals a lifecycle rule violation, such as
	// cancelling an order that is no longer active.
	ErrInvalidTransition = errors.New("order: invalid status transition")
)

// orderTransitions lists the admissible next statuses per current status.
// paid is reachable only through an external payment confirmation.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusActive:    {OrderStatusPaid, OrderStatusCancelled, OrderStatusExpired},
	OrderStatusPaid:      {},
	OrderStatusCancelled: {},
	OrderStatusExpired:   {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NewOrder assembles a freshly created order in the active state. The total
// is derived from the already-priced lines, and the expiry is pinned to the
// creation instant plus the validity window.
func NewOrder(id string, number int64, channelID string, lines []OrderLine, shippingFee int64, now time.Time, validity time.Duration) (Order, error) {
	if strings.TrimSpace(channelID) == "" {
		return Order{}, ErrMissingChannel
	}
	if len(lines) == 0 {
		return Order{}, ErrEmptyOrder
	}
	if validity <= 0 {
		validity = DefaultValidity
	}
	now = now.UTC()
	return Order{
		ID:          id,
		Number:      number,
		ChannelID:   channelID,
		Lines:       lines,
		ShippingFee: shippingFee,
		Total:       Total(lines, shippingFee),
		Status:      OrderStatusActive,
		CreatedAt:   now,
		ExpiresAt:   now.Add(validity),
	}, nil
}

// Cancel applies the cancellation transition. Only active orders may be
// cancelled; cancellation is not idempotent, so repeating it on an already
// cancelled (or otherwise terminal) order returns ErrInvalidTransition.
func Cancel(order Order, now time.Time) (Order, error) {
	if !CanTransition(order.Status, OrderStatusCancelled) {
		return Order{}, fmt.Errorf("%w: cannot cancel order in status %s", ErrInvalidTransition, order.Status)
	}
	cancelledAt := now.UTC()
	order.Status = OrderStatusCancelled
	order.CancelledAt = &cancelledAt
	return order, nil
}

// IsExpired reports whether an active order has passed its validity window.
func IsExpired(order Order, now time.Time) bool {
	return order.Status == OrderStatusActive && now.After(order.ExpiresAt)
}

// EffectiveStatus derives the status an order should be observed in at the
// given instant. Active orders past their expiry read as expired; applying
// the derivation to an already expired order is a no-op, which keeps the
// read path and the periodic sweep safe to race.
func EffectiveStatus(order Order, now time.Time) OrderStatus {
	if IsExpired(order, now) {
		return OrderStatusExpired
	}
	return order.Status
}

// WithEffectiveStatus returns a copy of the order carrying its derived
// status. The stored record is left untouched; persisting the expiry is the
// sweep's job.
func WithEffectiveStatus(order Order, now time.Time) Order {
	order.Status = EffectiveStatus(order, now)
	return order
}
