package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuantity signals a requested line quantity of zero or less.
	ErrInvalidQuantity = errors.New("pricing: invalid quantity")
	// ErrUnknownProduct signals a product reference missing from the catalog snapshot.
	ErrUnknownProduct = errors.New("pricing: unknown product")
)

// RequestedLine is an unpriced product reference as submitted by the caller.
type RequestedLine struct {
	ProductID string
	Quantity  int64
}

// LineTotal computes the monetary value of a single line. All arithmetic is
// integer; monetary values are whole currency units.
func LineTotal(line OrderLine) int64 {
	return line.UnitPrice * line.Quantity
}

// Subtotal sums the line totals of the given lines.
func Subtotal(lines []OrderLine) int64 {
	var sum int64
	for _, line := range lines {
		sum += LineTotal(line)
	}
	return sum
}

// Total computes the order total: line subtotal plus shipping fee.
func Total(lines []OrderLine, shippingFee int64) int64 {
	return Subtotal(lines) + shippingFee
}

// PriceLines resolves requested lines against a catalog snapshot, snapshotting
// the product name and unit price onto each resulting OrderLine. The first
// unresolvable product or non-positive quantity aborts the whole computation;
// no partial result is ever returned.
func PriceLines(catalog []Product, requested []RequestedLine) ([]OrderLine, error) {
	byID := make(map[string]Product, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}

	lines := make([]OrderLine, 0, len(requested))
	for _, req := range requested {
		if req.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %s requested with quantity %d", ErrInvalidQuantity, req.ProductID, req.Quantity)
		}
		product, ok := byID[req.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, req.ProductID)
		}
		lines = append(lines, OrderLine{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.UnitPrice,
			Quantity:  req.Quantity,
		})
	}
	return lines, nil
}
