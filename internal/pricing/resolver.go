// Package pricing computes payable order totals. All math is integer math
// on minor currency units so the same order always prices to the same
// amount, which the payment flow relies on for idempotency keys and
// amount-mismatch checks.
package pricing

import "github.com/Domenick1991/vaxbooking/internal/domain"

// ComputeTotal sums every line item of the order.
func ComputeTotal(order *domain.Order) int64 {
	var total int64
	for _, it := range order.LineItems {
		total += LineTotal(it)
	}
	return total
}

// LineTotal prices one line item. Combo discounts truncate toward zero,
// never round up.
func LineTotal(it domain.LineItem) int64 {
	base := it.UnitPrice * int64(it.Quantity)
	if it.Kind != domain.LineItemCombo {
		return base
	}
	saleOff := it.SaleOff
	if saleOff < 0 {
		saleOff = 0
	}
	if saleOff > 100 {
		saleOff = 100
	}
	return base * int64(100-saleOff) / 100
}
