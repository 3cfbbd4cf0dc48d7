package domain

import (
	"time"
)

// Product is a merchant-registered catalog entry. Orders snapshot the name
// and unit price at creation time, so later edits or deletion of a product
// never affect existing orders.
type Product struct {
	ID        string
	Name      string
	UnitPrice int64
	Size      string
	Weight    int64
	CreatedAt time.Time
}

// OrderLine is a priced line item embedded in an order. Name and UnitPrice
// are snapshots taken from the catalog when the order was placed.
type OrderLine struct {
	ProductID string
	Name      string
	UnitPrice int64
	Quantity  int64
}

// OrderStatus enumerates valid lifecycle states for orders.
type OrderStatus string

const (
	// OrderStatusActive indicates the order awaits payment and has not expired.
	OrderStatusActive OrderStatus = "active"
	// OrderStatusPaid indicates payment was confirmed. Reserved for a future
	// payment-confirmation integration; no code path produces it today.
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusCancelled indicates the merchant cancelled the order.
	OrderStatusCancelled OrderStatus = "cancelled"
	// OrderStatusExpired indicates the order passed its validity window unpaid.
	OrderStatusExpired OrderStatus = "expired"
)

// IsTerminal reports whether the status admits no further transitions.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusPaid, OrderStatusCancelled, OrderStatusExpired:
		return true
	}
	return false
}

// Order is the invoice-bearing aggregate. Lines is never empty; Total always
// equals the line subtotal plus ShippingFee; ExpiresAt is CreatedAt plus the
// configured validity window.
type Order struct {
	ID          string
	Number      int64
	ChannelID   string
	Lines       []OrderLine
	ShippingFee int64
	Total       int64
	Status      OrderStatus
	CreatedAt   time.Time
	ExpiresAt   time.Time
	CancelledAt *time.Time
}

// Customer carries messaging-channel metadata about a buyer. It is notifier
// target data only and takes no part in the order lifecycle.
type Customer struct {
	ChannelID    string
	DisplayName  string
	LastSeenAt   time.Time
	MessageCount int64
}
