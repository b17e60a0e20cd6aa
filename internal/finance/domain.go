package finance

import (
	"time"

	"github.com/vetrina-erp/vetrina-erp/internal/ledger"
	"github.com/vetrina-erp/vetrina-erp/internal/pricing"
)

// ReceivableStatus enumerates tranche collection states.
type ReceivableStatus string

const (
	ReceivableStatusPending  ReceivableStatus = "PENDING"
	ReceivableStatusReceived ReceivableStatus = "RECEIVED"
)

// Receivable is one expected installment of an order.
type Receivable struct {
	OrderID     int64            `json:"order_id"`
	OrderNumber string           `json:"order_number"`
	ClientID    int64            `json:"client_id"`
	Tranche     ledger.Tranche   `json:"tranche"`
	Amount      float64          `json:"amount"`
	Status      ReceivableStatus `json:"status"`
	DueDate     *time.Time       `json:"due_date,omitempty"`
}

// AgingBucket summarises pending receivables by days overdue.
type AgingBucket struct {
	Current   float64 `json:"current"`
	Bucket30  float64 `json:"bucket_30"`
	Bucket60  float64 `json:"bucket_60"`
	Bucket90  float64 `json:"bucket_90"`
	Bucket120 float64 `json:"bucket_120"`
}

// Payable is one settlement-relevant cost line of an order item. The amount is
// the effective value, so an unset real override shows the estimate it will be
// settled against.
type Payable struct {
	OrderID     int64             `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	ItemID      int64             `json:"item_id"`
	ProductName string            `json:"product_name"`
	SupplierID  *int64            `json:"supplier_id,omitempty"`
	Field       pricing.CostField `json:"field"`
	Amount      float64           `json:"amount"`
	Paid        bool              `json:"paid"`
	HasReal     bool              `json:"has_real_value"`
}

// Commission is the salesperson payout accrued by confirmed tranches of one order.
type Commission struct {
	OrderID       int64   `json:"order_id"`
	OrderNumber   string  `json:"order_number"`
	SalespersonID int64   `json:"salesperson_id"`
	Percent       float64 `json:"commission_percent"`
	BaseAmount    float64 `json:"base_amount"`
	Amount        float64 `json:"amount"`
}

// CommissionSummary groups commissions per salesperson.
type CommissionSummary struct {
	SalespersonID int64        `json:"salesperson_id"`
	Total         float64      `json:"total"`
	Orders        []Commission `json:"orders"`
}

// Summary is the dashboard snapshot across all open orders.
type Summary struct {
	PendingReceivables float64 `json:"pending_receivables"`
	ReceivedTotal      float64 `json:"received_total"`
	OpenPayables       float64 `json:"open_payables"`
	SettledPayables    float64 `json:"settled_payables"`
	AccruedCommissions float64 `json:"accrued_commissions"`
	OrdersInProgress   int     `json:"orders_in_progress"`
}
