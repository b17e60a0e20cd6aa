// Package ledger records one-way payment and receipt confirmations.
//
// Confirming a cost field or a receivable tranche flips its boolean flag and
// appends an immutable log entry in a single transaction, so a crash can never
// leave a confirmed-but-unlogged state. The transition has no exposed reverse
// path; flags stay plain booleans in storage so an admin-reversal tool could be
// added later without a schema change.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vetrina-erp/vetrina-erp/internal/money"
	"github.com/vetrina-erp/vetrina-erp/internal/pricing"
)

var (
	// ErrNotFound indicates the referenced order or item does not exist.
	ErrNotFound = errors.New("ledger: not found")
	// ErrUnknownField rejects confirmation of a field outside the six cost categories.
	ErrUnknownField = errors.New("ledger: unknown cost field")
	// ErrUnknownTranche rejects a tranche name other than entry/remaining.
	ErrUnknownTranche = errors.New("ledger: unknown tranche")
	// ErrRealValueNotSet rejects confirming a payment whose real value was never recorded.
	ErrRealValueNotSet = errors.New("ledger: real value not set for field")
	// ErrAlreadyConfirmed rejects re-confirming a confirmed field or tranche.
	ErrAlreadyConfirmed = errors.New("ledger: already confirmed")
	// ErrFieldLocked rejects mutating a real value after its payment was confirmed.
	ErrFieldLocked = errors.New("ledger: field locked by confirmed payment")
)

// RepositoryPort defines the persistence contract for the confirmation ledger.
// ConfirmItemField and ConfirmTranche must write the flag and the log entry
// atomically.
type RepositoryPort interface {
	GetItem(ctx context.Context, itemID int64) (*pricing.LineItem, error)
	GetTrancheState(ctx context.Context, orderID int64, tranche Tranche) (*TrancheState, error)
	ConfirmItemField(ctx context.Context, itemID int64, field pricing.CostField, entry Entry) (*Entry, error)
	ConfirmTranche(ctx context.Context, orderID int64, tranche Tranche, entry Entry) (*Entry, error)
	AppendEntry(ctx context.Context, entry Entry) (*Entry, error)
	ListEntries(ctx context.Context, params ListParams) ([]Entry, error)
}

// Service coordinates confirmation preconditions and logging.
type Service struct {
	repo RepositoryPort
}

// NewService builds a ledger service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ConfirmItemFieldInput identifies the cost payment being confirmed.
type ConfirmItemFieldInput struct {
	OrderID int64
	ItemID  int64
	Field   pricing.CostField
	ActorID int64
}

// ConfirmItemField marks one cost field of an item as paid. The field's real
// value must already be recorded; confirmation cannot be repeated or undone.
func (s *Service) ConfirmItemField(ctx context.Context, input ConfirmItemFieldInput) (*Entry, error) {
	if !input.Field.Valid() {
		return nil, ErrUnknownField
	}
	item, err := s.repo.GetItem(ctx, input.ItemID)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if item == nil || item.OrderID != input.OrderID {
		return nil, ErrNotFound
	}
	if item.RealValue(input.Field) == nil {
		return nil, ErrRealValueNotSet
	}
	if item.Paid(input.Field) {
		return nil, ErrAlreadyConfirmed
	}

	amount := item.FieldAmount(input.Field)
	entry := Entry{
		OrderID: input.OrderID,
		ItemID:  &input.ItemID,
		Kind:    KindCostPayment,
		Field:   input.Field,
		Amount:  amount,
		ActorID: input.ActorID,
		Message: fmt.Sprintf("payment confirmed: %s %s", input.Field, money.Format(amount)),
	}
	return s.repo.ConfirmItemField(ctx, input.ItemID, input.Field, entry)
}

// ConfirmTrancheInput identifies the receivable installment being confirmed.
type ConfirmTrancheInput struct {
	OrderID int64
	Tranche Tranche
	ActorID int64
}

// ConfirmTranche marks a receivable installment as received. Only confirmed
// tranches count toward the order's received total and commission base.
func (s *Service) ConfirmTranche(ctx context.Context, input ConfirmTrancheInput) (*Entry, error) {
	if !input.Tranche.Valid() {
		return nil, ErrUnknownTranche
	}
	state, err := s.repo.GetTrancheState(ctx, input.OrderID, input.Tranche)
	if err != nil {
		return nil, fmt.Errorf("get tranche state: %w", err)
	}
	if state == nil {
		return nil, ErrNotFound
	}
	if state.Confirmed {
		return nil, ErrAlreadyConfirmed
	}

	entry := Entry{
		OrderID: input.OrderID,
		Kind:    KindTrancheReceipt,
		Tranche: input.Tranche,
		Amount:  state.Amount,
		ActorID: input.ActorID,
		Message: fmt.Sprintf("receipt confirmed: %s tranche %s", input.Tranche, money.Format(state.Amount)),
	}
	return s.repo.ConfirmTranche(ctx, input.OrderID, input.Tranche, entry)
}

// Append records an informational entry (manual price adjustments, field
// changes). It carries no flag transition and therefore no precondition.
func (s *Service) Append(ctx context.Context, entry Entry) (*Entry, error) {
	if entry.OrderID == 0 {
		return nil, ErrNotFound
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return s.repo.AppendEntry(ctx, entry)
}

// GuardRealValueMutation returns ErrFieldLocked when the field's payment has
// been confirmed. Callers mutating real values must consult it first.
func GuardRealValueMutation(item *pricing.LineItem, field pricing.CostField) error {
	if !field.Valid() {
		return ErrUnknownField
	}
	if item.Paid(field) {
		return ErrFieldLocked
	}
	return nil
}
