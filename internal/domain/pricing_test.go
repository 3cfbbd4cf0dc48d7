package domain

import (
	"errors"
	"testing"
)

func testCatalog() []Product {
	return []Product{
		{ID: "prd_01", Name: "เสื้อยืดคอกลม", UnitPrice: 299},
		{ID: "prd_02", Name: "กางเกงยีนส์", UnitPrice: 590},
	}
}

func TestPriceLinesSnapshotsCatalogValues(t *testing.T) {
	lines, err := PriceLines(testCatalog(), []RequestedLine{
		{ProductID: "prd_01", Quantity: 2},
		{ProductID: "prd_02", Quantity: 1},
	})
	if err != nil {
		t.Fatalf("PriceLines returned error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Name != "เสื้อยืดคอกลม" || lines[0].UnitPrice != 299 || lines[0].Quantity != 2 {
		t.Fatalf("unexpected first line: %+v", lines[0])
	}
	if got := Total(lines, 50); got != 299*2+590+50 {
		t.Fatalf("expected total %d, got %d", 299*2+590+50, got)
	}
}

func TestPriceLinesUnknownProductShortCircuits(t *testing.T) {
	lines, err := PriceLines(testCatalog(), []RequestedLine{
		{ProductID: "prd_01", Quantity: 1},
		{ProductID: "prd_99", Quantity: 1},
	})
	if !errors.Is(err, ErrUnknownProduct) {
		t.Fatalf("expected ErrUnknownProduct, got %v", err)
	}
	if lines != nil {
		t.Fatalf("expected no partial result, got %+v", lines)
	}
}

func TestPriceLinesRejectsNonPositiveQuantity(t *testing.T) {
	for _, qty := range []int64{0, -1} {
		_, err := PriceLines(testCatalog(), []RequestedLine{{ProductID: "prd_01", Quantity: qty}})
		if !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("quantity %d: expected ErrInvalidQuantity, got %v", qty, err)
		}
	}
}

func TestTotalUsesIntegerArithmetic(t *testing.T) {
	lines := []OrderLine{
		{ProductID: "prd_01", UnitPrice: 299, Quantity: 2},
		{ProductID: "prd_02", UnitPrice: 590, Quantity: 1},
	}
	if got := Subtotal(lines); got != 1188 {
		t.Fatalf("expected subtotal 1188, got %d", got)
	}
	if got := Total(lines, 50); got != 1238 {
		t.Fatalf("expected total 1238, got %d", got)
	}
	if got := Total(lines, 0); got != 1188 {
		t.Fatalf("expected total 1188 with free shipping, got %d", got)
	}
}
