package orders

import "github.com/vetrina-erp/vetrina-erp/internal/pricing"

// Totals is the order-level reconciliation snapshot consumed by the
// receivables, payables and commission views. It is always recomputed from
// current item and tranche state; nothing here is cached or stored.
type Totals struct {
	RevenueEstimated float64 `json:"total_revenue_estimated"`
	CostEstimated    float64 `json:"total_cost_estimated"`
	CostReal         float64 `json:"total_cost_real"`
	Received         float64 `json:"total_received"`
	EstimatedBalance float64 `json:"estimated_balance"`
	RealBalance      float64 `json:"real_balance"`
}

// Aggregate rolls the order's items and tranches up into Totals. Only
// confirmed tranches count as received. Balances may be negative; a negative
// real balance is a displayable state, never clamped.
func Aggregate(o Order) Totals {
	var t Totals
	for _, item := range o.Items {
		t.RevenueEstimated += pricing.SalePrice(item)
		t.CostEstimated += pricing.EstimatedCostTotal(item)
		t.CostReal += pricing.RealCostTotal(item)
	}
	if o.EntryConfirmed {
		t.Received += o.EntryAmount
	}
	if o.RemainingConfirmed {
		t.Received += o.RemainingAmount
	}
	t.EstimatedBalance = t.Received - t.CostEstimated
	t.RealBalance = t.Received - t.CostReal
	return t
}
