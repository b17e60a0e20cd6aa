package masterdata

import "time"

// PartnerKind separates the two sides of the business relationship.
type PartnerKind string

const (
	PartnerClient   PartnerKind = "CLIENT"
	PartnerSupplier PartnerKind = "SUPPLIER"
)

// Partner is a client or supplier record.
type Partner struct {
	ID        int64       `json:"id" db:"id"`
	Kind      PartnerKind `json:"kind" db:"kind"`
	Name      string      `json:"name" db:"name"`
	Document  *string     `json:"document,omitempty" db:"document"`
	Email     *string     `json:"email,omitempty" db:"email"`
	Phone     *string     `json:"phone,omitempty" db:"phone"`
	City      *string     `json:"city,omitempty" db:"city"`
	Notes     *string     `json:"notes,omitempty" db:"notes"`
	IsActive  bool        `json:"is_active" db:"is_active"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}

// Product is a catalog entry. The reference price seeds new line items; the
// item keeps its own copy afterwards.
type Product struct {
	ID             int64     `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	SKU            *string   `json:"sku,omitempty" db:"sku"`
	Description    *string   `json:"description,omitempty" db:"description"`
	ReferencePrice float64   `json:"reference_price" db:"reference_price"`
	SupplierID     *int64    `json:"supplier_id,omitempty" db:"supplier_id"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// CreatePartnerRequest creates a client or supplier.
type CreatePartnerRequest struct {
	Kind     PartnerKind `json:"kind" validate:"required,oneof=CLIENT SUPPLIER"`
	Name     string      `json:"name" validate:"required,max=200"`
	Document *string     `json:"document,omitempty" validate:"omitempty,max=20"`
	Email    *string     `json:"email,omitempty" validate:"omitempty,email"`
	Phone    *string     `json:"phone,omitempty" validate:"omitempty,max=20"`
	City     *string     `json:"city,omitempty" validate:"omitempty,max=100"`
	Notes    *string     `json:"notes,omitempty"`
}

// UpdatePartnerRequest updates a client or supplier.
type UpdatePartnerRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Document *string `json:"document,omitempty" validate:"omitempty,max=20"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=20"`
	City     *string `json:"city,omitempty" validate:"omitempty,max=100"`
	Notes    *string `json:"notes,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// CreateProductRequest creates a catalog entry.
type CreateProductRequest struct {
	Name           string  `json:"name" validate:"required,max=200"`
	SKU            *string `json:"sku,omitempty" validate:"omitempty,max=50"`
	Description    *string `json:"description,omitempty"`
	ReferencePrice float64 `json:"reference_price" validate:"gte=0"`
	SupplierID     *int64  `json:"supplier_id,omitempty" validate:"omitempty,gt=0"`
}

// UpdateProductRequest updates a catalog entry.
type UpdateProductRequest struct {
	Name           *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	SKU            *string  `json:"sku,omitempty" validate:"omitempty,max=50"`
	Description    *string  `json:"description,omitempty"`
	ReferencePrice *float64 `json:"reference_price,omitempty" validate:"omitempty,gte=0"`
	SupplierID     *int64   `json:"supplier_id,omitempty" validate:"omitempty,gt=0"`
	IsActive       *bool    `json:"is_active,omitempty"`
}

// ListFilters narrows list queries.
type ListFilters struct {
	Search   string `json:"search,omitempty"`
	IsActive *bool  `json:"is_active,omitempty"`
	Limit    int    `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int    `json:"offset" validate:"gte=0"`
}
