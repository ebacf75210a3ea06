package reports

import (
	"context"
	"fmt"
	"time"

	"coldstore/internal/core/apperror"
	"coldstore/internal/core/tx"
	"coldstore/internal/core/types"
	"coldstore/internal/domain/ledger"
	"coldstore/internal/domain/posting"
	"coldstore/internal/domain/rates"
)

// BalanceSource is the grouped register the reports read.
type BalanceSource interface {
	Balances(ctx context.Context, filter ledger.BalanceFilter) ([]ledger.ReceiptBatchBalance, error)
	DailyMovements(ctx context.Context, filter ledger.DailyFilter) ([]ledger.DailyMovement, error)
}

// DraftCounter counts documents awaiting submission.
type DraftCounter interface {
	CountDrafts(ctx context.Context) (int64, error)
}

// Service provides report generation operations.
type Service struct {
	txManager  tx.ReadOnlyManager
	balances   BalanceSource
	receipts   DraftCounter
	dispatches DraftCounter
	audit      posting.AuditReader
	now        func() time.Time
}

// NewService creates a new reports service.
func NewService(
	txManager tx.ReadOnlyManager,
	balances BalanceSource,
	receipts, dispatches DraftCounter,
	audit posting.AuditReader,
) *Service {
	return &Service{
		txManager:  txManager,
		balances:   balances,
		receipts:   receipts,
		dispatches: dispatches,
		audit:      audit,
		now:        time.Now,
	}
}

// StockLedger lists per receipt and batch the bags received, dispatched and
// still in store, oldest receipt first, with a running balance.
func (s *Service) StockLedger(ctx context.Context, filter StockLedgerFilter) (*StockLedger, error) {
	asOf := s.now().UTC()
	if filter.AsOf != nil {
		asOf = *filter.AsOf
	}

	rows, err := s.balances.Balances(ctx, ledger.BalanceFilter{
		Customer:  filter.Customer,
		Warehouse: filter.Warehouse,
		BatchLike: filter.BatchNo,
		ItemGroup: filter.ItemGroup,
		GoodsItem: filter.GoodsItem,
		DateFrom:  filter.FromDate,
		DateTo:    filter.ToDate,
	})
	if err != nil {
		return nil, fmt.Errorf("get stock ledger: %w", err)
	}

	report := &StockLedger{AsOf: asOf, Rows: make([]StockLedgerRow, 0, len(rows))}
	var cumulative types.Bags
	for _, r := range rows {
		if r.Balance == 0 && !filter.ShowZeroBalance {
			continue
		}
		cumulative += r.Balance

		report.Rows = append(report.Rows, StockLedgerRow{
			ReceiptDate:       r.ReceiptDate,
			ReceiptID:         r.ReceiptID,
			Customer:          r.Customer,
			GoodsItem:         r.GoodsItem,
			ItemGroup:         r.ItemGroup,
			BatchNo:           r.BatchNo,
			Warehouse:         r.Warehouse,
			DaysInStore:       rates.DaysBetween(r.ReceiptDate, asOf) - 1,
			In:                r.In,
			Out:               r.Out,
			Balance:           r.Balance,
			CumulativeBalance: cumulative,
		})
		report.Totals.In += r.In
		report.Totals.Out += r.Out
		report.Totals.Balance += r.Balance
	}

	return report, nil
}

// BatchOptions lists the batches of a customer that still hold bags, labelled
// for the dispatch row picker. Without a customer nothing is offered.
func (s *Service) BatchOptions(ctx context.Context, q BatchQuery) ([]BatchOption, error) {
	if q.Customer == "" {
		return []BatchOption{}, nil
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Limit > 500 {
		q.Limit = 500
	}

	rows, err := s.balances.Balances(ctx, ledger.BalanceFilter{
		ReceiptID: q.ReceiptID,
		Customer:  q.Customer,
		Warehouse: q.Warehouse,
		BatchLike: q.Search,
		ItemGroup: q.ItemGroup,
		GoodsItem: q.GoodsItem,
	})
	if err != nil {
		return nil, fmt.Errorf("get batch options: %w", err)
	}

	var order []string
	available := make(map[string]types.Bags)
	for _, r := range rows {
		if _, ok := available[r.BatchNo]; !ok {
			order = append(order, r.BatchNo)
		}
		available[r.BatchNo] += r.Balance
	}

	options := make([]BatchOption, 0, len(order))
	for _, batchNo := range order {
		if available[batchNo] <= 0 {
			continue
		}
		options = append(options, BatchOption{
			BatchNo:   batchNo,
			Available: available[batchNo],
			Label:     fmt.Sprintf("%s | Avl: %d", batchNo, available[batchNo]),
		})
	}

	start := min(max(q.Offset, 0), len(options))
	end := min(start+q.Limit, len(options))
	return options[start:end], nil
}

// Pending returns the draft counts shown in the notification feed.
// Both counts come from one snapshot.
func (s *Service) Pending(ctx context.Context) (PendingCounts, error) {
	var counts PendingCounts
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		receipts, err := s.receipts.CountDrafts(ctx)
		if err != nil {
			return fmt.Errorf("count draft receipts: %w", err)
		}
		dispatches, err := s.dispatches.CountDrafts(ctx)
		if err != nil {
			return fmt.Errorf("count draft dispatches: %w", err)
		}
		counts = PendingCounts{
			Receipts:   receipts,
			Dispatches: dispatches,
			Total:      receipts + dispatches,
		}
		return nil
	})
	if err != nil {
		return PendingCounts{}, err
	}
	return counts, nil
}

// AuditTrail lists posting events, newest first.
func (s *Service) AuditTrail(ctx context.Context, filter posting.AuditFilter) ([]posting.AuditEntry, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 500 {
		filter.Limit = 500
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, apperror.NewValidation("from must not be after to")
	}

	entries, err := s.audit.Entries(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get audit trail: %w", err)
	}
	return entries, nil
}
