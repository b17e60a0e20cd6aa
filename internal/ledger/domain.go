package ledger

import (
	"time"

	"github.com/vetrina-erp/vetrina-erp/internal/pricing"
)

// Tranche names one of the two receivable installments of an order.
type Tranche string

const (
	TrancheEntry     Tranche = "entry"
	TrancheRemaining Tranche = "remaining"
)

// Valid reports whether t names a known tranche.
func (t Tranche) Valid() bool {
	return t == TrancheEntry || t == TrancheRemaining
}

// EntryKind classifies ledger log entries.
type EntryKind string

const (
	KindCostPayment     EntryKind = "COST_PAYMENT"
	KindTrancheReceipt  EntryKind = "TRANCHE_RECEIPT"
	KindPriceAdjustment EntryKind = "PRICE_ADJUSTMENT"
	KindFieldChange     EntryKind = "FIELD_CHANGE"
)

// Entry is one immutable row of the confirmation log: who confirmed what
// amount, when, against which order, item and field or tranche.
type Entry struct {
	ID        int64             `json:"id" db:"id"`
	OrderID   int64             `json:"order_id" db:"order_id"`
	ItemID    *int64            `json:"item_id,omitempty" db:"item_id"`
	Kind      EntryKind         `json:"kind" db:"kind"`
	Field     pricing.CostField `json:"field,omitempty" db:"field"`
	Tranche   Tranche           `json:"tranche,omitempty" db:"tranche"`
	Amount    float64           `json:"amount" db:"amount"`
	ActorID   int64             `json:"actor_id" db:"actor_id"`
	Message   string            `json:"message" db:"message"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
}

// TrancheState is the confirmation state of one receivable installment.
type TrancheState struct {
	Amount    float64
	Confirmed bool
	DueDate   *time.Time
}
