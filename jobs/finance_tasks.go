package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/vetrina-erp/vetrina-erp/internal/finance"
)

// FinanceTasks bundles the handlers that operate on the finance read models.
type FinanceTasks struct {
	finance *finance.Service
	logger  *slog.Logger
}

// NewFinanceTasks constructs the finance task handlers.
func NewFinanceTasks(svc *finance.Service, logger *slog.Logger) *FinanceTasks {
	return &FinanceTasks{finance: svc, logger: logger}
}

// HandleSnapshotRefresh processes TaskFinanceSnapshotRefresh tasks.
func (f *FinanceTasks) HandleSnapshotRefresh(ctx context.Context, t *asynq.Task) error {
	var payload SnapshotRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	summary, err := f.finance.RefreshOverview(ctx)
	if err != nil {
		f.logger.Error("finance snapshot refresh", slog.Any("error", err))
		return err
	}
	f.logger.Info("finance snapshot refreshed",
		slog.String("reason", payload.Reason),
		slog.Float64("pending_receivables", summary.PendingReceivables),
		slog.Float64("accrued_commissions", summary.AccruedCommissions),
	)
	return nil
}

// HandleReceivablesDigest processes TaskReceivablesDigest tasks.
func (f *FinanceTasks) HandleReceivablesDigest(ctx context.Context, t *asynq.Task) error {
	var payload ReceivablesDigestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	asOf := payload.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	var (
		receivables []finance.Receivable
		aging       finance.AgingBucket
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		receivables, err = f.finance.Receivables(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		aging, err = f.finance.Aging(gctx, asOf)
		return err
	})
	if err := g.Wait(); err != nil {
		f.logger.Error("receivables digest", slog.Any("error", err))
		return err
	}

	pending := 0
	var pendingTotal float64
	for _, r := range receivables {
		if r.Status == finance.ReceivableStatusPending {
			pending++
			pendingTotal += r.Amount
		}
	}
	f.logger.Info("receivables digest",
		slog.Time("as_of", asOf),
		slog.Int("pending_count", pending),
		slog.Float64("pending_total", pendingTotal),
		slog.Float64("aging_current", aging.Current),
		slog.Float64("aging_30", aging.Bucket30),
		slog.Float64("aging_60", aging.Bucket60),
		slog.Float64("aging_90", aging.Bucket90),
		slog.Float64("aging_120", aging.Bucket120),
	)
	return nil
}
