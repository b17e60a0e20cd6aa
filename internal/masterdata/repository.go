package masterdata

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for partners and products.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListPartners returns a filtered page of partners of one kind plus the total count.
func (r *Repository) ListPartners(ctx context.Context, kind PartnerKind, filters ListFilters) ([]Partner, int, error) {
	conditions := []string{"kind = $1"}
	args := []any{string(kind)}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.Search != "" {
		conditions = append(conditions, "(name ILIKE "+arg("%"+filters.Search+"%")+" OR document ILIKE "+fmt.Sprintf("$%d", len(args))+")")
	}
	if filters.IsActive != nil {
		conditions = append(conditions, "is_active = "+arg(*filters.IsActive))
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM partners"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, kind, name, document, email, phone, city, notes, is_active, created_at, updated_at
		FROM partners` + where + ` ORDER BY name LIMIT ` + arg(limit) + ` OFFSET ` + arg(filters.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Partner
	for rows.Next() {
		var p Partner
		if err := rows.Scan(&p.ID, &p.Kind, &p.Name, &p.Document, &p.Email, &p.Phone,
			&p.City, &p.Notes, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// GetPartner loads one partner.
func (r *Repository) GetPartner(ctx context.Context, id int64) (*Partner, error) {
	query := `
		SELECT id, kind, name, document, email, phone, city, notes, is_active, created_at, updated_at
		FROM partners WHERE id = $1`

	var p Partner
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Kind, &p.Name, &p.Document,
		&p.Email, &p.Phone, &p.City, &p.Notes, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePartner inserts a partner.
func (r *Repository) CreatePartner(ctx context.Context, p Partner) (*Partner, error) {
	query := `
		INSERT INTO partners (kind, name, document, email, phone, city, notes, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		string(p.Kind), p.Name, p.Document, p.Email, p.Phone, p.City, p.Notes, p.IsActive,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapDuplicate(err)
	}
	return &p, nil
}

// UpdatePartner persists a partner row. Kind is not part of the update.
func (r *Repository) UpdatePartner(ctx context.Context, p Partner) error {
	query := `
		UPDATE partners
		SET name = $2, document = $3, email = $4, phone = $5, city = $6, notes = $7,
			is_active = $8, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		p.ID, p.Name, p.Document, p.Email, p.Phone, p.City, p.Notes, p.IsActive,
	)
	if err != nil {
		return mapDuplicate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListProducts returns a filtered page of catalog entries plus the total count.
func (r *Repository) ListProducts(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	var conditions []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.Search != "" {
		conditions = append(conditions, "(name ILIKE "+arg("%"+filters.Search+"%")+" OR sku ILIKE "+fmt.Sprintf("$%d", len(args))+")")
	}
	if filters.IsActive != nil {
		conditions = append(conditions, "is_active = "+arg(*filters.IsActive))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM products"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, name, sku, description, reference_price, supplier_id, is_active, created_at, updated_at
		FROM products` + where + ` ORDER BY name LIMIT ` + arg(limit) + ` OFFSET ` + arg(filters.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.SKU, &p.Description, &p.ReferencePrice,
			&p.SupplierID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// GetProduct loads one catalog entry.
func (r *Repository) GetProduct(ctx context.Context, id int64) (*Product, error) {
	query := `
		SELECT id, name, sku, description, reference_price, supplier_id, is_active, created_at, updated_at
		FROM products WHERE id = $1`

	var p Product
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.SKU, &p.Description,
		&p.ReferencePrice, &p.SupplierID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct inserts a catalog entry.
func (r *Repository) CreateProduct(ctx context.Context, p Product) (*Product, error) {
	query := `
		INSERT INTO products (name, sku, description, reference_price, supplier_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		p.Name, p.SKU, p.Description, p.ReferencePrice, p.SupplierID, p.IsActive,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapDuplicate(err)
	}
	return &p, nil
}

// UpdateProduct persists a catalog row.
func (r *Repository) UpdateProduct(ctx context.Context, p Product) error {
	query := `
		UPDATE products
		SET name = $2, sku = $3, description = $4, reference_price = $5, supplier_id = $6,
			is_active = $7, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		p.ID, p.Name, p.SKU, p.Description, p.ReferencePrice, p.SupplierID, p.IsActive,
	)
	if err != nil {
		return mapDuplicate(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func mapDuplicate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}
