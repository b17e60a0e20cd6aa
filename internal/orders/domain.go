package orders

import (
	"time"

	"github.com/vetrina-erp/vetrina-erp/internal/pricing"
)

// DocumentKind separates budgets from confirmed orders. Both share the same
// shape; a budget is the pre-acceptance form of an order.
type DocumentKind string

const (
	KindBudget DocumentKind = "BUDGET"
	KindOrder  DocumentKind = "ORDER"
)

// Status enumerates document lifecycle states. Budgets move
// DRAFT -> SENT -> ACCEPTED | REJECTED; accepting forks an ORDER which moves
// OPEN -> IN_PRODUCTION -> COMPLETED, or CANCELLED.
type Status string

const (
	StatusDraft        Status = "DRAFT"
	StatusSent         Status = "SENT"
	StatusAccepted     Status = "ACCEPTED"
	StatusRejected     Status = "REJECTED"
	StatusOpen         Status = "OPEN"
	StatusInProduction Status = "IN_PRODUCTION"
	StatusCompleted    Status = "COMPLETED"
	StatusCancelled    Status = "CANCELLED"
)

// Order is an order or budget header owning an ordered list of line items.
type Order struct {
	ID                int64        `json:"id" db:"id"`
	Number            string       `json:"number" db:"number"`
	Kind              DocumentKind `json:"kind" db:"kind"`
	Status            Status       `json:"status" db:"status"`
	ClientID          int64        `json:"client_id" db:"client_id"`
	SalespersonID     int64        `json:"salesperson_id" db:"salesperson_id"`
	CommissionPercent float64      `json:"commission_percent" db:"commission_percent"`
	OrderDate         time.Time    `json:"order_date" db:"order_date"`
	DeliveryDeadline  *time.Time   `json:"delivery_deadline,omitempty" db:"delivery_deadline"`

	EntryAmount        float64    `json:"entry_amount" db:"entry_amount"`
	EntryConfirmed     bool       `json:"entry_confirmed" db:"entry_confirmed"`
	EntryDate          *time.Time `json:"entry_date,omitempty" db:"entry_date"`
	RemainingAmount    float64    `json:"remaining_amount" db:"remaining_amount"`
	RemainingConfirmed bool       `json:"remaining_confirmed" db:"remaining_confirmed"`
	RemainingDate      *time.Time `json:"remaining_date,omitempty" db:"remaining_date"`

	SourceBudgetID *int64  `json:"source_budget_id,omitempty" db:"source_budget_id"`
	Notes          *string `json:"notes,omitempty" db:"notes"`
	CreatedBy      int64   `json:"created_by" db:"created_by"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	Items []pricing.LineItem `json:"items,omitempty" db:"-"`
}

// Editable reports whether the document still accepts header and item edits.
// Accepted/rejected budgets and completed/cancelled orders are frozen.
func (o *Order) Editable() bool {
	switch o.Status {
	case StatusAccepted, StatusRejected, StatusCompleted, StatusCancelled:
		return false
	}
	return true
}

// ============================================================================
// REQUESTS
// ============================================================================

// CreateLineItemRequest carries the form values of one new line item.
type CreateLineItemRequest struct {
	ProductID         *int64  `json:"product_id,omitempty"`
	ProductName       string  `json:"product_name" validate:"required,max=200"`
	SupplierID        *int64  `json:"supplier_id,omitempty"`
	Quantity          int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice         float64 `json:"unit_price" validate:"gte=0"`
	CustomizationCost float64 `json:"customization_cost" validate:"gte=0"`
	LayoutCost        float64 `json:"layout_cost" validate:"gte=0"`
	SupplierTransport float64 `json:"supplier_transport" validate:"gte=0"`
	ClientTransport   float64 `json:"client_transport" validate:"gte=0"`
	ExtraExpense      float64 `json:"extra_expense" validate:"gte=0"`
	Factor            float64 `json:"calculation_factor"`
	AgencyFeePercent  float64 `json:"agency_fee_percent" validate:"gte=0,lte=100"`
	TaxPercent        float64 `json:"tax_percent" validate:"gte=0,lte=100"`
	ContingencyPercent float64 `json:"contingency_percent" validate:"gte=0,lte=100"`
	MarginPercent     float64 `json:"margin_percent" validate:"gte=0,lte=100"`
	LineOrder         int     `json:"line_order" validate:"gte=0"`
}

// CreateOrderRequest creates a budget or an order with its initial items.
type CreateOrderRequest struct {
	Number            string                  `json:"number" validate:"required,max=50"`
	Kind              DocumentKind            `json:"kind" validate:"required,oneof=BUDGET ORDER"`
	ClientID          int64                   `json:"client_id" validate:"required,gt=0"`
	SalespersonID     int64                   `json:"salesperson_id" validate:"required,gt=0"`
	CommissionPercent float64                 `json:"commission_percent" validate:"gte=0,lte=100"`
	OrderDate         time.Time               `json:"order_date" validate:"required"`
	DeliveryDeadline  *time.Time              `json:"delivery_deadline,omitempty"`
	EntryAmount       float64                 `json:"entry_amount" validate:"gte=0"`
	EntryDate         *time.Time              `json:"entry_date,omitempty"`
	RemainingAmount   float64                 `json:"remaining_amount" validate:"gte=0"`
	RemainingDate     *time.Time              `json:"remaining_date,omitempty"`
	Notes             *string                 `json:"notes,omitempty"`
	Lines             []CreateLineItemRequest `json:"lines" validate:"omitempty,dive"`
}

// UpdateOrderRequest updates header fields of an editable document.
// Confirmation flags are deliberately absent: they only move through the ledger.
type UpdateOrderRequest struct {
	ClientID          *int64     `json:"client_id,omitempty" validate:"omitempty,gt=0"`
	SalespersonID     *int64     `json:"salesperson_id,omitempty" validate:"omitempty,gt=0"`
	CommissionPercent *float64   `json:"commission_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	OrderDate         *time.Time `json:"order_date,omitempty"`
	DeliveryDeadline  *time.Time `json:"delivery_deadline,omitempty"`
	EntryAmount       *float64   `json:"entry_amount,omitempty" validate:"omitempty,gte=0"`
	EntryDate         *time.Time `json:"entry_date,omitempty"`
	RemainingAmount   *float64   `json:"remaining_amount,omitempty" validate:"omitempty,gte=0"`
	RemainingDate     *time.Time `json:"remaining_date,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
}

// UpdateItemRequest mutates one line item field-by-field. Real values are
// nullable overrides; a confirmed field's real value can no longer change.
type UpdateItemRequest struct {
	ProductID         *int64   `json:"product_id,omitempty"`
	ProductName       *string  `json:"product_name,omitempty" validate:"omitempty,max=200"`
	SupplierID        *int64   `json:"supplier_id,omitempty"`
	Quantity          *int     `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	UnitPrice         *float64 `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
	CustomizationCost *float64 `json:"customization_cost,omitempty" validate:"omitempty,gte=0"`
	LayoutCost        *float64 `json:"layout_cost,omitempty" validate:"omitempty,gte=0"`
	SupplierTransport *float64 `json:"supplier_transport,omitempty" validate:"omitempty,gte=0"`
	ClientTransport   *float64 `json:"client_transport,omitempty" validate:"omitempty,gte=0"`
	ExtraExpense      *float64 `json:"extra_expense,omitempty" validate:"omitempty,gte=0"`
	Factor            *float64 `json:"calculation_factor,omitempty"`
	AgencyFeePercent  *float64 `json:"agency_fee_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	TaxPercent        *float64 `json:"tax_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	ContingencyPercent *float64 `json:"contingency_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	MarginPercent     *float64 `json:"margin_percent,omitempty" validate:"omitempty,gte=0,lte=100"`

	RealUnitPrice         *float64 `json:"real_unit_price,omitempty" validate:"omitempty,gte=0"`
	RealCustomizationCost *float64 `json:"real_customization_cost,omitempty" validate:"omitempty,gte=0"`
	RealLayoutCost        *float64 `json:"real_layout_cost,omitempty" validate:"omitempty,gte=0"`
	RealSupplierTransport *float64 `json:"real_supplier_transport,omitempty" validate:"omitempty,gte=0"`
	RealClientTransport   *float64 `json:"real_client_transport,omitempty" validate:"omitempty,gte=0"`
	RealExtraExpense      *float64 `json:"real_extra_expense,omitempty" validate:"omitempty,gte=0"`

	IsApproved *bool `json:"is_approved,omitempty"`
	LineOrder  *int  `json:"line_order,omitempty" validate:"omitempty,gte=0"`
}

// PriceAdjustmentMode selects how a manual price override is interpreted.
type PriceAdjustmentMode string

const (
	AdjustUnit  PriceAdjustmentMode = "unit"
	AdjustTotal PriceAdjustmentMode = "total"
)

// ManualPriceRequest back-solves the factor from a desired sale price. The
// justification is a business audit requirement, not a nicety.
type ManualPriceRequest struct {
	Mode          PriceAdjustmentMode `json:"mode" validate:"required,oneof=unit total"`
	Value         float64             `json:"value" validate:"required"`
	Justification string              `json:"justification" validate:"required"`
}

// ListOrdersRequest filters the document list.
type ListOrdersRequest struct {
	Kind     DocumentKind `json:"kind,omitempty" validate:"omitempty,oneof=BUDGET ORDER"`
	Status   Status       `json:"status,omitempty"`
	ClientID int64        `json:"client_id,omitempty" validate:"gte=0"`
	Search   string       `json:"search,omitempty"`
	Limit    int          `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int          `json:"offset" validate:"gte=0"`
}
