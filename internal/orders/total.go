package orders

import (
	"github.com/safar/marketplace-orders/internal/models"
	"github.com/shopspring/decimal"
)

// ComputeTotal sums unit price times quantity over items.
func ComputeTotal(items []models.OrderLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// ReconcileTotal picks the stored order total. A non-negative client total is
// trusted as-is so promotion-adjusted totals survive; anything else falls back
// to the computed total. The two are not cross-checked.
func ReconcileTotal(computed decimal.Decimal, client *decimal.Decimal) decimal.Decimal {
	if client != nil && !client.IsNegative() {
		return *client
	}
	return computed
}
