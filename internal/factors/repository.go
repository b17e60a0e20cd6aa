package factors

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for markup presets.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns presets ordered by name.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]Preset, error) {
	query := `
		SELECT id, name, tax_percent, contingency_percent, margin_percent, is_active, created_at, updated_at
		FROM calculation_factors
		WHERE ($1 = FALSE OR is_active)
		ORDER BY name`

	rows, err := r.pool.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Preset
	for rows.Next() {
		var p Preset
		if err := rows.Scan(&p.ID, &p.Name, &p.TaxPercent, &p.ContingencyPercent,
			&p.MarginPercent, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Get loads one preset.
func (r *Repository) Get(ctx context.Context, id int64) (*Preset, error) {
	query := `
		SELECT id, name, tax_percent, contingency_percent, margin_percent, is_active, created_at, updated_at
		FROM calculation_factors
		WHERE id = $1`

	var p Preset
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.TaxPercent,
		&p.ContingencyPercent, &p.MarginPercent, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a preset.
func (r *Repository) Create(ctx context.Context, p Preset) (*Preset, error) {
	query := `
		INSERT INTO calculation_factors (name, tax_percent, contingency_percent, margin_percent, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		p.Name, p.TaxPercent, p.ContingencyPercent, p.MarginPercent, p.IsActive,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapDuplicateName(err)
	}
	return &p, nil
}

// Update persists a preset row.
func (r *Repository) Update(ctx context.Context, p Preset) error {
	query := `
		UPDATE calculation_factors
		SET name = $2, tax_percent = $3, contingency_percent = $4, margin_percent = $5,
			is_active = $6, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query,
		p.ID, p.Name, p.TaxPercent, p.ContingencyPercent, p.MarginPercent, p.IsActive,
	)
	if err != nil {
		return mapDuplicateName(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func mapDuplicateName(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateName
	}
	return err
}
