package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vetrina-erp/vetrina-erp/internal/ledger"
	"github.com/vetrina-erp/vetrina-erp/internal/money"
	"github.com/vetrina-erp/vetrina-erp/internal/orders"
	"github.com/vetrina-erp/vetrina-erp/internal/pricing"
)

// summaryCacheKey holds the dashboard snapshot refreshed by the worker.
const summaryCacheKey = "finance:summary"

const summaryCacheTTL = 15 * time.Minute

// RepositoryPort defines data access for finance read models.
type RepositoryPort interface {
	// ListSettlementOrders returns every non-cancelled order with its items.
	ListSettlementOrders(ctx context.Context) ([]orders.Order, error)
}

// Service derives receivables, payables and commission views from order state.
// Nothing here is written back; the ledger and orders services own all writes.
type Service struct {
	repo   RepositoryPort
	cache  *redis.Client
	logger *slog.Logger
}

// NewService builds Service instance. The cache client is optional; without it
// every summary read recomputes from the database.
func NewService(repo RepositoryPort, cache *redis.Client, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// Receivables lists every tranche of every settlement order, pending first.
func (s *Service) Receivables(ctx context.Context) ([]Receivable, error) {
	all, err := s.repo.ListSettlementOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	var out []Receivable
	for _, o := range all {
		out = append(out,
			trancheReceivable(o, ledger.TrancheEntry, o.EntryAmount, o.EntryConfirmed, o.EntryDate),
			trancheReceivable(o, ledger.TrancheRemaining, o.RemainingAmount, o.RemainingConfirmed, o.RemainingDate),
		)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Status != out[j].Status {
			return out[i].Status == ReceivableStatusPending
		}
		return out[i].OrderID < out[j].OrderID
	})
	return out, nil
}

func trancheReceivable(o orders.Order, tranche ledger.Tranche, amount float64, confirmed bool, due *time.Time) Receivable {
	status := ReceivableStatusPending
	if confirmed {
		status = ReceivableStatusReceived
	}
	return Receivable{
		OrderID:     o.ID,
		OrderNumber: o.Number,
		ClientID:    o.ClientID,
		Tranche:     tranche,
		Amount:      amount,
		Status:      status,
		DueDate:     due,
	}
}

// Aging buckets pending receivables by days overdue as of the given date.
// Tranches without a due date count as current.
func (s *Service) Aging(ctx context.Context, asOf time.Time) (AgingBucket, error) {
	receivables, err := s.Receivables(ctx)
	if err != nil {
		return AgingBucket{}, err
	}
	if asOf.IsZero() {
		asOf = time.Now()
	}

	var bucket AgingBucket
	for _, rec := range receivables {
		if rec.Status != ReceivableStatusPending {
			continue
		}
		if rec.DueDate == nil {
			bucket.Current += rec.Amount
			continue
		}
		days := int(asOf.Sub(*rec.DueDate).Hours() / 24)
		switch {
		case days <= 0:
			bucket.Current += rec.Amount
		case days <= 30:
			bucket.Bucket30 += rec.Amount
		case days <= 60:
			bucket.Bucket60 += rec.Amount
		case days <= 90:
			bucket.Bucket90 += rec.Amount
		default:
			bucket.Bucket120 += rec.Amount
		}
	}
	return bucket, nil
}

// Payables lists cost lines that carry a real value or a confirmed payment.
// Lines still running on estimates alone are not yet payables.
func (s *Service) Payables(ctx context.Context) ([]Payable, error) {
	all, err := s.repo.ListSettlementOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	var out []Payable
	for _, o := range all {
		for _, item := range o.Items {
			for _, field := range pricing.CostFields {
				hasReal := item.RealValue(field) != nil
				paid := item.Paid(field)
				if !hasReal && !paid {
					continue
				}
				out = append(out, Payable{
					OrderID:     o.ID,
					OrderNumber: o.Number,
					ItemID:      item.ID,
					ProductName: item.ProductName,
					SupplierID:  item.SupplierID,
					Field:       field,
					Amount:      item.FieldAmount(field),
					Paid:        paid,
					HasReal:     hasReal,
				})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Paid != out[j].Paid {
			return !out[i].Paid
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out, nil
}

// Commissions accrues payouts per salesperson. Only confirmed tranches earn
// commission; the base is the confirmed amount, not the order total.
func (s *Service) Commissions(ctx context.Context) ([]CommissionSummary, error) {
	all, err := s.repo.ListSettlementOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	perSalesperson := make(map[int64]*CommissionSummary)
	for _, o := range all {
		if o.CommissionPercent <= 0 {
			continue
		}
		var base float64
		if o.EntryConfirmed {
			base += o.EntryAmount
		}
		if o.RemainingConfirmed {
			base += o.RemainingAmount
		}
		if base == 0 {
			continue
		}

		summary, ok := perSalesperson[o.SalespersonID]
		if !ok {
			summary = &CommissionSummary{SalespersonID: o.SalespersonID}
			perSalesperson[o.SalespersonID] = summary
		}
		c := Commission{
			OrderID:       o.ID,
			OrderNumber:   o.Number,
			SalespersonID: o.SalespersonID,
			Percent:       o.CommissionPercent,
			BaseAmount:    base,
			Amount:        money.Round2(base * o.CommissionPercent / 100),
		}
		summary.Orders = append(summary.Orders, c)
		summary.Total = money.Round2(summary.Total + c.Amount)
	}

	out := make([]CommissionSummary, 0, len(perSalesperson))
	for _, summary := range perSalesperson {
		out = append(out, *summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SalespersonID < out[j].SalespersonID })
	return out, nil
}

// Overview returns the dashboard snapshot, served from cache when fresh.
func (s *Service) Overview(ctx context.Context) (Summary, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, summaryCacheKey).Bytes()
		if err == nil {
			var cached Summary
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}
	return s.RefreshOverview(ctx)
}

// RefreshOverview recomputes the dashboard snapshot and rewrites the cache.
// The worker calls this on a schedule so interactive reads stay cheap.
func (s *Service) RefreshOverview(ctx context.Context) (Summary, error) {
	all, err := s.repo.ListSettlementOrders(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("load orders: %w", err)
	}

	var summary Summary
	for _, o := range all {
		if o.Status == orders.StatusOpen || o.Status == orders.StatusInProduction {
			summary.OrdersInProgress++
		}
		if o.EntryConfirmed {
			summary.ReceivedTotal += o.EntryAmount
		} else {
			summary.PendingReceivables += o.EntryAmount
		}
		if o.RemainingConfirmed {
			summary.ReceivedTotal += o.RemainingAmount
		} else {
			summary.PendingReceivables += o.RemainingAmount
		}
		if o.CommissionPercent > 0 {
			var base float64
			if o.EntryConfirmed {
				base += o.EntryAmount
			}
			if o.RemainingConfirmed {
				base += o.RemainingAmount
			}
			summary.AccruedCommissions += base * o.CommissionPercent / 100
		}
		for _, item := range o.Items {
			for _, field := range pricing.CostFields {
				hasReal := item.RealValue(field) != nil
				paid := item.Paid(field)
				if !hasReal && !paid {
					continue
				}
				if paid {
					summary.SettledPayables += item.FieldAmount(field)
				} else {
					summary.OpenPayables += item.FieldAmount(field)
				}
			}
		}
	}
	summary.PendingReceivables = money.Round2(summary.PendingReceivables)
	summary.ReceivedTotal = money.Round2(summary.ReceivedTotal)
	summary.OpenPayables = money.Round2(summary.OpenPayables)
	summary.SettledPayables = money.Round2(summary.SettledPayables)
	summary.AccruedCommissions = money.Round2(summary.AccruedCommissions)

	if s.cache != nil {
		raw, err := json.Marshal(summary)
		if err == nil {
			if err := s.cache.Set(ctx, summaryCacheKey, raw, summaryCacheTTL).Err(); err != nil && s.logger != nil {
				s.logger.Warn("cache finance summary", slog.Any("error", err))
			}
		}
	}
	return summary, nil
}
