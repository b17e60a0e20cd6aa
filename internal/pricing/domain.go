package pricing

import "time"

// DefaultFactor is applied to newly created line items.
const DefaultFactor = 1.35

// CostField identifies one of the six cost categories of a line item.
type CostField string

const (
	FieldUnitPrice         CostField = "unit_price"
	FieldCustomization     CostField = "customization"
	FieldLayout            CostField = "layout"
	FieldSupplierTransport CostField = "supplier_transport"
	FieldClientTransport   CostField = "client_transport"
	FieldExtraExpense      CostField = "extra_expense"
)

// CostFields lists every cost category in display order.
var CostFields = []CostField{
	FieldUnitPrice,
	FieldCustomization,
	FieldLayout,
	FieldSupplierTransport,
	FieldClientTransport,
	FieldExtraExpense,
}

// Valid reports whether f names a known cost category.
func (f CostField) Valid() bool {
	switch f {
	case FieldUnitPrice, FieldCustomization, FieldLayout,
		FieldSupplierTransport, FieldClientTransport, FieldExtraExpense:
		return true
	}
	return false
}

// LineItem is one product line within an order or budget. Estimated values are
// always present; real values are explicit nullable overrides. A nil override
// means the estimated value stands in for settlement purposes.
type LineItem struct {
	ID          int64   `json:"id" db:"id"`
	OrderID     int64   `json:"order_id" db:"order_id"`
	ProductID   *int64  `json:"product_id,omitempty" db:"product_id"`
	ProductName string  `json:"product_name" db:"product_name"`
	SupplierID  *int64  `json:"supplier_id,omitempty" db:"supplier_id"`
	Quantity    int     `json:"quantity" db:"quantity"`
	UnitPrice   float64 `json:"unit_price" db:"unit_price"`

	CustomizationCost float64 `json:"customization_cost" db:"customization_cost"`
	LayoutCost        float64 `json:"layout_cost" db:"layout_cost"`
	SupplierTransport float64 `json:"supplier_transport" db:"supplier_transport"`
	ClientTransport   float64 `json:"client_transport" db:"client_transport"`
	ExtraExpense      float64 `json:"extra_expense" db:"extra_expense"`

	Factor             float64 `json:"calculation_factor" db:"calculation_factor"`
	AgencyFeePercent   float64 `json:"agency_fee_percent" db:"agency_fee_percent"`
	TaxPercent         float64 `json:"tax_percent" db:"tax_percent"`
	ContingencyPercent float64 `json:"contingency_percent" db:"contingency_percent"`
	MarginPercent      float64 `json:"margin_percent" db:"margin_percent"`

	RealUnitPrice         *float64 `json:"real_unit_price,omitempty" db:"real_unit_price"`
	RealCustomizationCost *float64 `json:"real_customization_cost,omitempty" db:"real_customization_cost"`
	RealLayoutCost        *float64 `json:"real_layout_cost,omitempty" db:"real_layout_cost"`
	RealSupplierTransport *float64 `json:"real_supplier_transport,omitempty" db:"real_supplier_transport"`
	RealClientTransport   *float64 `json:"real_client_transport,omitempty" db:"real_client_transport"`
	RealExtraExpense      *float64 `json:"real_extra_expense,omitempty" db:"real_extra_expense"`

	UnitPricePaid         bool `json:"unit_price_paid" db:"unit_price_paid"`
	CustomizationPaid     bool `json:"customization_paid" db:"customization_paid"`
	LayoutPaid            bool `json:"layout_paid" db:"layout_paid"`
	SupplierTransportPaid bool `json:"supplier_transport_paid" db:"supplier_transport_paid"`
	ClientTransportPaid   bool `json:"client_transport_paid" db:"client_transport_paid"`
	ExtraExpensePaid      bool `json:"extra_expense_paid" db:"extra_expense_paid"`

	IsApproved bool `json:"is_approved" db:"is_approved"`
	LineOrder  int  `json:"line_order" db:"line_order"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewLineItem returns an item with the defaults a fresh form row carries.
func NewLineItem() LineItem {
	return LineItem{Quantity: 1, Factor: DefaultFactor}
}

// RealValue returns the real override for the given cost field, nil when unset.
func (it *LineItem) RealValue(f CostField) *float64 {
	switch f {
	case FieldUnitPrice:
		return it.RealUnitPrice
	case FieldCustomization:
		return it.RealCustomizationCost
	case FieldLayout:
		return it.RealLayoutCost
	case FieldSupplierTransport:
		return it.RealSupplierTransport
	case FieldClientTransport:
		return it.RealClientTransport
	case FieldExtraExpense:
		return it.RealExtraExpense
	}
	return nil
}

// SetRealValue stores the real override for the given cost field.
func (it *LineItem) SetRealValue(f CostField, v *float64) {
	switch f {
	case FieldUnitPrice:
		it.RealUnitPrice = v
	case FieldCustomization:
		it.RealCustomizationCost = v
	case FieldLayout:
		it.RealLayoutCost = v
	case FieldSupplierTransport:
		it.RealSupplierTransport = v
	case FieldClientTransport:
		it.RealClientTransport = v
	case FieldExtraExpense:
		it.RealExtraExpense = v
	}
}

// EstimatedValue returns the estimated value for the given cost field.
// For FieldUnitPrice this is the per-unit price, not the line amount.
func (it *LineItem) EstimatedValue(f CostField) float64 {
	switch f {
	case FieldUnitPrice:
		return it.UnitPrice
	case FieldCustomization:
		return it.CustomizationCost
	case FieldLayout:
		return it.LayoutCost
	case FieldSupplierTransport:
		return it.SupplierTransport
	case FieldClientTransport:
		return it.ClientTransport
	case FieldExtraExpense:
		return it.ExtraExpense
	}
	return 0
}

// EffectiveValue returns the real override when set, otherwise the estimate.
func (it *LineItem) EffectiveValue(f CostField) float64 {
	if v := it.RealValue(f); v != nil {
		return *v
	}
	return it.EstimatedValue(f)
}

// FieldAmount returns the settlement amount of a cost field: the effective
// value, multiplied by quantity for the unit-price field.
func (it *LineItem) FieldAmount(f CostField) float64 {
	v := it.EffectiveValue(f)
	if f == FieldUnitPrice {
		return float64(it.Quantity) * v
	}
	return v
}

// Paid reports whether the cost field's real payment has been confirmed.
func (it *LineItem) Paid(f CostField) bool {
	switch f {
	case FieldUnitPrice:
		return it.UnitPricePaid
	case FieldCustomization:
		return it.CustomizationPaid
	case FieldLayout:
		return it.LayoutPaid
	case FieldSupplierTransport:
		return it.SupplierTransportPaid
	case FieldClientTransport:
		return it.ClientTransportPaid
	case FieldExtraExpense:
		return it.ExtraExpensePaid
	}
	return false
}

// SetPaid marks the cost field's real payment as confirmed. Confirmation is
// one-way: there is no exposed path back to unconfirmed.
func (it *LineItem) SetPaid(f CostField) {
	switch f {
	case FieldUnitPrice:
		it.UnitPricePaid = true
	case FieldCustomization:
		it.CustomizationPaid = true
	case FieldLayout:
		it.LayoutPaid = true
	case FieldSupplierTransport:
		it.SupplierTransportPaid = true
	case FieldClientTransport:
		it.ClientTransportPaid = true
	case FieldExtraExpense:
		it.ExtraExpensePaid = true
	}
}
