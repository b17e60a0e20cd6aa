package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/vetrina-erp/vetrina-erp/internal/finance"
	"github.com/vetrina-erp/vetrina-erp/internal/orders"
	"github.com/vetrina-erp/vetrina-erp/internal/pricing"
)

type stubFinanceRepo struct {
	orders []orders.Order
}

func (r *stubFinanceRepo) ListSettlementOrders(ctx context.Context) ([]orders.Order, error) {
	return r.orders, nil
}

func newTaskHandlers() *FinanceTasks {
	repo := &stubFinanceRepo{orders: []orders.Order{{
		ID:               1,
		Number:           "PED-0100",
		Kind:             orders.KindOrder,
		Status:           orders.StatusOpen,
		EntryAmount:     30,
		RemainingAmount: 70,
		Items: []pricing.LineItem{{
			ID: 1, OrderID: 1, Quantity: 10, UnitPrice: 5, Factor: pricing.DefaultFactor,
		}},
	}}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := finance.NewService(repo, nil, logger)
	return NewFinanceTasks(svc, logger)
}

func TestHandleSnapshotRefresh(t *testing.T) {
	handlers := newTaskHandlers()

	task, err := NewSnapshotRefreshTask(SnapshotRefreshPayload{Reason: "test"})
	require.NoError(t, err)
	require.NoError(t, handlers.HandleSnapshotRefresh(context.Background(), task))
}

func TestHandleSnapshotRefreshBadPayload(t *testing.T) {
	handlers := newTaskHandlers()

	task := asynq.NewTask(TaskFinanceSnapshotRefresh, []byte("{"))
	require.ErrorIs(t, handlers.HandleSnapshotRefresh(context.Background(), task), asynq.SkipRetry)
}

func TestHandleReceivablesDigest(t *testing.T) {
	handlers := newTaskHandlers()

	task, err := NewReceivablesDigestTask(ReceivablesDigestPayload{AsOf: time.Now().UTC()})
	require.NoError(t, err)
	require.NoError(t, handlers.HandleReceivablesDigest(context.Background(), task))
}
