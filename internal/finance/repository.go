package finance

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vetrina-erp/vetrina-erp/internal/orders"
	"github.com/vetrina-erp/vetrina-erp/internal/pricing"
)

// Repository loads order state for the finance read models.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListSettlementOrders loads every non-cancelled order with its items in two
// queries, stitched in memory. Budgets never settle and are excluded.
func (r *Repository) ListSettlementOrders(ctx context.Context) ([]orders.Order, error) {
	headerQuery := `
		SELECT id, number, kind, status, client_id, salesperson_id, commission_percent,
			order_date, delivery_deadline,
			entry_amount, entry_confirmed, entry_date,
			remaining_amount, remaining_confirmed, remaining_date,
			source_budget_id, notes, created_by, created_at, updated_at
		FROM orders
		WHERE kind = 'ORDER' AND status <> 'CANCELLED'
		ORDER BY order_date DESC, id DESC`

	rows, err := r.pool.Query(ctx, headerQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []orders.Order
	index := make(map[int64]int)
	for rows.Next() {
		var o orders.Order
		err := rows.Scan(
			&o.ID, &o.Number, &o.Kind, &o.Status, &o.ClientID, &o.SalespersonID, &o.CommissionPercent,
			&o.OrderDate, &o.DeliveryDeadline,
			&o.EntryAmount, &o.EntryConfirmed, &o.EntryDate,
			&o.RemainingAmount, &o.RemainingConfirmed, &o.RemainingDate,
			&o.SourceBudgetID, &o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		index[o.ID] = len(out)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}

	itemQuery := `
		SELECT i.id, i.order_id, i.product_id, i.product_name, i.supplier_id, i.quantity, i.unit_price,
			i.customization_cost, i.layout_cost, i.supplier_transport, i.client_transport, i.extra_expense,
			i.real_unit_price, i.real_customization_cost, i.real_layout_cost,
			i.real_supplier_transport, i.real_client_transport, i.real_extra_expense,
			i.unit_price_paid, i.customization_paid, i.layout_paid,
			i.supplier_transport_paid, i.client_transport_paid, i.extra_expense_paid,
			i.calculation_factor, i.agency_fee_percent, i.tax_percent, i.contingency_percent, i.margin_percent,
			i.is_approved, i.line_order, i.created_at, i.updated_at
		FROM order_items i
		JOIN orders o ON o.id = i.order_id
		WHERE o.kind = 'ORDER' AND o.status <> 'CANCELLED'
		ORDER BY i.order_id, i.line_order, i.id`

	itemRows, err := r.pool.Query(ctx, itemQuery)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var it pricing.LineItem
		err := itemRows.Scan(
			&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.SupplierID, &it.Quantity, &it.UnitPrice,
			&it.CustomizationCost, &it.LayoutCost, &it.SupplierTransport, &it.ClientTransport, &it.ExtraExpense,
			&it.RealUnitPrice, &it.RealCustomizationCost, &it.RealLayoutCost,
			&it.RealSupplierTransport, &it.RealClientTransport, &it.RealExtraExpense,
			&it.UnitPricePaid, &it.CustomizationPaid, &it.LayoutPaid,
			&it.SupplierTransportPaid, &it.ClientTransportPaid, &it.ExtraExpensePaid,
			&it.Factor, &it.AgencyFeePercent, &it.TaxPercent, &it.ContingencyPercent, &it.MarginPercent,
			&it.IsApproved, &it.LineOrder, &it.CreatedAt, &it.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if pos, ok := index[it.OrderID]; ok {
			out[pos].Items = append(out[pos].Items, it)
		}
	}
	return out, itemRows.Err()
}
