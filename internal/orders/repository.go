package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vetrina-erp/vetrina-erp/internal/platform/db"
	"github.com/vetrina-erp/vetrina-erp/internal/pricing"
)

// Repository provides PostgreSQL backed persistence for budgets and orders.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const orderColumns = `
	id, number, kind, status, client_id, salesperson_id, commission_percent,
	order_date, delivery_deadline,
	entry_amount, entry_confirmed, entry_date,
	remaining_amount, remaining_confirmed, remaining_date,
	source_budget_id, notes, created_by, created_at, updated_at`

const itemColumns = `
	id, order_id, product_id, product_name, supplier_id, quantity, unit_price,
	customization_cost, layout_cost, supplier_transport, client_transport, extra_expense,
	real_unit_price, real_customization_cost, real_layout_cost,
	real_supplier_transport, real_client_transport, real_extra_expense,
	unit_price_paid, customization_paid, layout_paid,
	supplier_transport_paid, client_transport_paid, extra_expense_paid,
	calculation_factor, agency_fee_percent, tax_percent, contingency_percent, margin_percent,
	is_approved, line_order, created_at, updated_at`

// CreateOrder inserts the header and its items in one transaction.
func (r *Repository) CreateOrder(ctx context.Context, o Order) (*Order, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			INSERT INTO orders (
				number, kind, status, client_id, salesperson_id, commission_percent,
				order_date, delivery_deadline,
				entry_amount, entry_date, remaining_amount, remaining_date,
				source_budget_id, notes, created_by, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
			RETURNING id, created_at, updated_at`

		err := tx.QueryRow(ctx, query,
			o.Number, string(o.Kind), string(o.Status), o.ClientID, o.SalespersonID, o.CommissionPercent,
			o.OrderDate, o.DeliveryDeadline,
			o.EntryAmount, o.EntryDate, o.RemainingAmount, o.RemainingDate,
			o.SourceBudgetID, o.Notes, o.CreatedBy,
		).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return mapUniqueViolation(err)
		}

		for i := range o.Items {
			o.Items[i].OrderID = o.ID
			if err := insertItemTx(ctx, tx, &o.Items[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetOrder loads a document with its items ordered by line position.
func (r *Repository) GetOrder(ctx context.Context, id int64) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	items, err := r.listItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

// GetOrderByNumber loads a document by its business number within a kind.
func (r *Repository) GetOrderByNumber(ctx context.Context, kind DocumentKind, number string) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE kind = $1 AND number = $2`

	o, err := scanOrder(r.pool.QueryRow(ctx, query, string(kind), number))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := r.listItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

// ListOrders returns a filtered page of headers plus the total match count.
// Items are not loaded; list views only need header data.
func (r *Repository) ListOrders(ctx context.Context, req ListOrdersRequest) ([]Order, int, error) {
	var conditions []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if req.Kind != "" {
		conditions = append(conditions, "kind = "+arg(string(req.Kind)))
	}
	if req.Status != "" {
		conditions = append(conditions, "status = "+arg(string(req.Status)))
	}
	if req.ClientID != 0 {
		conditions = append(conditions, "client_id = "+arg(req.ClientID))
	}
	if req.Search != "" {
		conditions = append(conditions, "number ILIKE "+arg("%"+req.Search+"%"))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM orders"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + orderColumns + ` FROM orders` + where +
		" ORDER BY order_date DESC, id DESC LIMIT " + arg(limit) + " OFFSET " + arg(req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *o)
	}
	return out, total, rows.Err()
}

// UpdateHeader persists header-level fields. Confirmation flags and status are
// deliberately excluded; they move through their own statements.
func (r *Repository) UpdateHeader(ctx context.Context, o Order) error {
	query := `
		UPDATE orders SET
			client_id = $2, salesperson_id = $3, commission_percent = $4,
			order_date = $5, delivery_deadline = $6,
			entry_amount = $7, entry_date = $8,
			remaining_amount = $9, remaining_date = $10,
			notes = $11, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		o.ID, o.ClientID, o.SalespersonID, o.CommissionPercent,
		o.OrderDate, o.DeliveryDeadline,
		o.EntryAmount, o.EntryDate,
		o.RemainingAmount, o.RemainingDate,
		o.Notes,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus moves a document to a new lifecycle state.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertItem appends one line item.
func (r *Repository) InsertItem(ctx context.Context, item pricing.LineItem) (*pricing.LineItem, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return insertItemTx(ctx, tx, &item)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func insertItemTx(ctx context.Context, tx pgx.Tx, item *pricing.LineItem) error {
	query := `
		INSERT INTO order_items (
			order_id, product_id, product_name, supplier_id, quantity, unit_price,
			customization_cost, layout_cost, supplier_transport, client_transport, extra_expense,
			real_unit_price, real_customization_cost, real_layout_cost,
			real_supplier_transport, real_client_transport, real_extra_expense,
			calculation_factor, agency_fee_percent, tax_percent, contingency_percent, margin_percent,
			is_approved, line_order, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23, $24, NOW(), NOW()
		)
		RETURNING id, created_at, updated_at`

	return tx.QueryRow(ctx, query,
		item.OrderID, item.ProductID, item.ProductName, item.SupplierID, item.Quantity, item.UnitPrice,
		item.CustomizationCost, item.LayoutCost, item.SupplierTransport, item.ClientTransport, item.ExtraExpense,
		item.RealUnitPrice, item.RealCustomizationCost, item.RealLayoutCost,
		item.RealSupplierTransport, item.RealClientTransport, item.RealExtraExpense,
		item.Factor, item.AgencyFeePercent, item.TaxPercent, item.ContingencyPercent, item.MarginPercent,
		item.IsApproved, item.LineOrder,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
}

// UpdateItem persists a full line item row.
func (r *Repository) UpdateItem(ctx context.Context, item pricing.LineItem) error {
	query := `
		UPDATE order_items SET
			product_id = $2, product_name = $3, supplier_id = $4, quantity = $5, unit_price = $6,
			customization_cost = $7, layout_cost = $8, supplier_transport = $9,
			client_transport = $10, extra_expense = $11,
			real_unit_price = $12, real_customization_cost = $13, real_layout_cost = $14,
			real_supplier_transport = $15, real_client_transport = $16, real_extra_expense = $17,
			calculation_factor = $18, agency_fee_percent = $19, tax_percent = $20,
			contingency_percent = $21, margin_percent = $22,
			is_approved = $23, line_order = $24, updated_at = NOW()
		WHERE id = $1 AND order_id = $25`

	tag, err := r.pool.Exec(ctx, query,
		item.ID, item.ProductID, item.ProductName, item.SupplierID, item.Quantity, item.UnitPrice,
		item.CustomizationCost, item.LayoutCost, item.SupplierTransport,
		item.ClientTransport, item.ExtraExpense,
		item.RealUnitPrice, item.RealCustomizationCost, item.RealLayoutCost,
		item.RealSupplierTransport, item.RealClientTransport, item.RealExtraExpense,
		item.Factor, item.AgencyFeePercent, item.TaxPercent,
		item.ContingencyPercent, item.MarginPercent,
		item.IsApproved, item.LineOrder, item.OrderID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteItem removes a line item.
func (r *Repository) DeleteItem(ctx context.Context, orderID, itemID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM order_items WHERE id = $1 AND order_id = $2`,
		itemID, orderID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateItemFactor stores a back-solved calculation factor.
func (r *Repository) UpdateItemFactor(ctx context.Context, itemID int64, factor float64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE order_items SET calculation_factor = $2, updated_at = NOW() WHERE id = $1`,
		itemID, factor,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GenerateNumber produces the next sequential document number for a kind.
func (r *Repository) GenerateNumber(ctx context.Context, kind DocumentKind) (string, error) {
	var number string
	err := r.pool.QueryRow(ctx, "SELECT generate_document_number($1)", string(kind)).Scan(&number)
	return number, err
}

func (r *Repository) listItems(ctx context.Context, orderID int64) ([]pricing.LineItem, error) {
	query := `SELECT ` + itemColumns + ` FROM order_items WHERE order_id = $1 ORDER BY line_order, id`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []pricing.LineItem
	for rows.Next() {
		var it pricing.LineItem
		err := rows.Scan(
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
		items = append(items, it)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID, &o.Number, &o.Kind, &o.Status, &o.ClientID, &o.SalespersonID, &o.CommissionPercent,
		&o.OrderDate, &o.DeliveryDeadline,
		&o.EntryAmount, &o.EntryConfirmed, &o.EntryDate,
		&o.RemainingAmount, &o.RemainingConfirmed, &o.RemainingDate,
		&o.SourceBudgetID, &o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyExists
	}
	return err
}
