package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vetrina-erp/vetrina-erp/internal/platform/db"
	"github.com/vetrina-erp/vetrina-erp/internal/pricing"
)

// Repository provides PostgreSQL backed persistence for the confirmation ledger.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func paidColumn(f pricing.CostField) (string, error) {
	switch f {
	case pricing.FieldUnitPrice:
		return "unit_price_paid", nil
	case pricing.FieldCustomization:
		return "customization_paid", nil
	case pricing.FieldLayout:
		return "layout_paid", nil
	case pricing.FieldSupplierTransport:
		return "supplier_transport_paid", nil
	case pricing.FieldClientTransport:
		return "client_transport_paid", nil
	case pricing.FieldExtraExpense:
		return "extra_expense_paid", nil
	}
	return "", ErrUnknownField
}

// GetItem loads the settlement-relevant slice of a line item.
func (r *Repository) GetItem(ctx context.Context, itemID int64) (*pricing.LineItem, error) {
	query := `
		SELECT id, order_id, quantity, unit_price,
			customization_cost, layout_cost, supplier_transport, client_transport, extra_expense,
			calculation_factor, agency_fee_percent, tax_percent,
			real_unit_price, real_customization_cost, real_layout_cost,
			real_supplier_transport, real_client_transport, real_extra_expense,
			unit_price_paid, customization_paid, layout_paid,
			supplier_transport_paid, client_transport_paid, extra_expense_paid
		FROM order_items
		WHERE id = $1`

	var it pricing.LineItem
	err := r.pool.QueryRow(ctx, query, itemID).Scan(
		&it.ID, &it.OrderID, &it.Quantity, &it.UnitPrice,
		&it.CustomizationCost, &it.LayoutCost, &it.SupplierTransport, &it.ClientTransport, &it.ExtraExpense,
		&it.Factor, &it.AgencyFeePercent, &it.TaxPercent,
		&it.RealUnitPrice, &it.RealCustomizationCost, &it.RealLayoutCost,
		&it.RealSupplierTransport, &it.RealClientTransport, &it.RealExtraExpense,
		&it.UnitPricePaid, &it.CustomizationPaid, &it.LayoutPaid,
		&it.SupplierTransportPaid, &it.ClientTransportPaid, &it.ExtraExpensePaid,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// GetTrancheState loads the confirmation state of one receivable installment.
func (r *Repository) GetTrancheState(ctx context.Context, orderID int64, tranche Tranche) (*TrancheState, error) {
	var query string
	switch tranche {
	case TrancheEntry:
		query = `SELECT entry_amount, entry_confirmed, entry_date FROM orders WHERE id = $1`
	case TrancheRemaining:
		query = `SELECT remaining_amount, remaining_confirmed, remaining_date FROM orders WHERE id = $1`
	default:
		return nil, ErrUnknownTranche
	}

	var state TrancheState
	err := r.pool.QueryRow(ctx, query, orderID).Scan(&state.Amount, &state.Confirmed, &state.DueDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// ConfirmItemField flips the paid flag and appends the log entry in one transaction.
func (r *Repository) ConfirmItemField(ctx context.Context, itemID int64, field pricing.CostField, entry Entry) (*Entry, error) {
	column, err := paidColumn(field)
	if err != nil {
		return nil, err
	}

	err = db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			fmt.Sprintf(`UPDATE order_items SET %s = TRUE, updated_at = NOW() WHERE id = $1 AND %s = FALSE`, column, column),
			itemID,
		)
		if err != nil {
			return fmt.Errorf("set paid flag: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrAlreadyConfirmed
		}
		return r.insertEntry(ctx, tx, &entry)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ConfirmTranche flips the tranche flag and appends the log entry in one transaction.
func (r *Repository) ConfirmTranche(ctx context.Context, orderID int64, tranche Tranche, entry Entry) (*Entry, error) {
	var column string
	switch tranche {
	case TrancheEntry:
		column = "entry_confirmed"
	case TrancheRemaining:
		column = "remaining_confirmed"
	default:
		return nil, ErrUnknownTranche
	}

	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			fmt.Sprintf(`UPDATE orders SET %s = TRUE, updated_at = NOW() WHERE id = $1 AND %s = FALSE`, column, column),
			orderID,
		)
		if err != nil {
			return fmt.Errorf("set tranche flag: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrAlreadyConfirmed
		}
		return r.insertEntry(ctx, tx, &entry)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// AppendEntry records an informational entry outside any flag transition.
func (r *Repository) AppendEntry(ctx context.Context, entry Entry) (*Entry, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return r.insertEntry(ctx, tx, &entry)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *Repository) insertEntry(ctx context.Context, tx pgx.Tx, entry *Entry) error {
	query := `
		INSERT INTO order_logs (order_id, item_id, kind, field, tranche, amount, actor_id, message, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, NOW())
		RETURNING id, created_at`

	err := tx.QueryRow(ctx, query,
		entry.OrderID,
		entry.ItemID,
		string(entry.Kind),
		string(entry.Field),
		string(entry.Tranche),
		entry.Amount,
		entry.ActorID,
		entry.Message,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert log entry: %w", err)
	}
	return nil
}

// ListEntries returns log entries newest first within the given window.
func (r *Repository) ListEntries(ctx context.Context, params ListParams) ([]Entry, error) {
	query := `
		SELECT id, order_id, item_id, kind, COALESCE(field, ''), COALESCE(tranche, ''),
			amount, actor_id, message, created_at
		FROM order_logs
		WHERE ($1 = 0 OR order_id = $1)
		  AND ($2 = 0 OR item_id = $2)
		  AND ($3 = '' OR kind = $3)
		  AND ($4 = 0 OR actor_id = $4)
		  AND ($5::timestamptz IS NULL OR created_at >= $5)
		  AND ($6::timestamptz IS NULL OR created_at <= $6)
		ORDER BY created_at DESC, id DESC
		LIMIT $7 OFFSET $8`

	limit := params.LimitRows
	if limit <= 0 {
		limit = 21
	}

	var from, to any
	if !params.From.IsZero() {
		from = params.From
	}
	if !params.To.IsZero() {
		to = params.To
	}

	rows, err := r.pool.Query(ctx, query,
		params.OrderID, params.ItemID, string(params.Kind), params.ActorID,
		from, to, limit, params.OffsetRows,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var field, tranche string
		if err := rows.Scan(&e.ID, &e.OrderID, &e.ItemID, &e.Kind, &field, &tranche,
			&e.Amount, &e.ActorID, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Field = pricing.CostField(field)
		e.Tranche = Tranche(tranche)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
