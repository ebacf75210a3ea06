package ledger

import (
	"context"
	"fmt"
	"sort"

	"coldstore/internal/core/apperror"
	"coldstore/internal/core/entity"
	"coldstore/internal/core/id"
	"coldstore/internal/core/types"
	"coldstore/pkg/logger"
)

// Service provides business operations for the batch register.
// Transactions are managed by the caller (posting engine).
type Service struct {
	repo Repository
}

// NewService creates a new ledger service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ReceiptBalance returns submitted bags of batchNo on the receipt minus the
// bags drawn by non-cancelled dispatches, ignoring movements of exclude.
// The receipt must exist and be submitted.
func (s *Service) ReceiptBalance(ctx context.Context, receiptID id.ID, batchNo string, exclude *id.ID) (types.Bags, error) {
	if _, err := s.SubmittedReceipt(ctx, receiptID); err != nil {
		return 0, err
	}

	balance, err := s.repo.SumBalance(ctx, BalanceFilter{
		ReceiptID:       &receiptID,
		BatchNo:         batchNo,
		ExcludeRecorder: exclude,
	})
	if err != nil {
		return 0, fmt.Errorf("sum receipt balance: %w", err)
	}
	return balance, nil
}

// AggregateBalance sums ReceiptBalance over every submitted receipt of the
// customer and warehouse holding the batch.
func (s *Service) AggregateBalance(ctx context.Context, key entity.BatchKey, exclude *id.ID) (types.Bags, error) {
	balance, err := s.repo.SumBalance(ctx, BalanceFilter{
		Customer:        key.Customer,
		Warehouse:       key.Warehouse,
		BatchNo:         key.BatchNo,
		ExcludeRecorder: exclude,
	})
	if err != nil {
		return 0, fmt.Errorf("sum aggregate balance: %w", err)
	}
	return balance, nil
}

// ReceiptBalances lists per-receipt balances of a key, oldest receipt first.
func (s *Service) ReceiptBalances(ctx context.Context, key entity.BatchKey, exclude *id.ID) ([]ReceiptBatchBalance, error) {
	rows, err := s.repo.Balances(ctx, BalanceFilter{
		Customer:        key.Customer,
		Warehouse:       key.Warehouse,
		BatchNo:         key.BatchNo,
		ExcludeRecorder: exclude,
	})
	if err != nil {
		return nil, fmt.Errorf("receipt balances: %w", err)
	}
	return rows, nil
}

// Balances exposes the grouped register for reports and pickers.
func (s *Service) Balances(ctx context.Context, filter BalanceFilter) ([]ReceiptBatchBalance, error) {
	return s.repo.Balances(ctx, filter)
}

// DailyMovements exposes the per-day register totals for stock-level reports.
func (s *Service) DailyMovements(ctx context.Context, filter DailyFilter) ([]DailyMovement, error) {
	return s.repo.DailyMovements(ctx, filter)
}

// AllocateFIFO splits a draw of bags across the key's receipts, oldest first.
func (s *Service) AllocateFIFO(ctx context.Context, key entity.BatchKey, bags types.Bags, exclude *id.ID) ([]Allocation, error) {
	if !bags.IsPositive() {
		return nil, apperror.NewInvalidQuantity(bags.Int64())
	}

	rows, err := s.ReceiptBalances(ctx, key, exclude)
	if err != nil {
		return nil, err
	}

	var (
		allocations []Allocation
		remaining   = bags
		available   types.Bags
	)
	for _, row := range rows {
		if row.Balance <= 0 {
			continue
		}
		available += row.Balance
		if remaining == 0 {
			continue
		}
		take := types.Min(row.Balance, remaining)
		allocations = append(allocations, Allocation{ReceiptID: row.ReceiptID, Bags: take})
		remaining -= take
	}

	if remaining > 0 {
		return nil, apperror.NewInsufficientBalance(key.BatchNo, bags.Int64(), available.Int64())
	}
	return allocations, nil
}

// SubmittedReceipt returns the receipt header if it exists and is submitted.
func (s *Service) SubmittedReceipt(ctx context.Context, receiptID id.ID) (entity.ReceiptRef, error) {
	ref, err := s.repo.GetReceiptRef(ctx, receiptID)
	if err != nil {
		return ref, err
	}
	if ref.Status != entity.StatusSubmitted {
		return ref, apperror.NewNotFound("Receipt", receiptID.String()).
			WithDetail("status", string(ref.Status))
	}
	return ref, nil
}

// ReceiptRef returns the receipt header in any status.
func (s *Service) ReceiptRef(ctx context.Context, receiptID id.ID) (entity.ReceiptRef, error) {
	return s.repo.GetReceiptRef(ctx, receiptID)
}

// Record writes movements of a posted document.
// This is called during posting within a transaction.
func (s *Service) Record(ctx context.Context, movements []entity.BatchMovement) error {
	if len(movements) == 0 {
		return nil
	}

	for i, m := range movements {
		if !m.Bags.IsPositive() {
			return apperror.NewValidation(fmt.Sprintf("movement %d: bags must be positive", i))
		}
		if id.IsNil(m.RecorderID) || id.IsNil(m.ReceiptID) {
			return apperror.NewValidation(fmt.Sprintf("movement %d: recorder and receipt are required", i))
		}
		if m.BatchNo == "" {
			return apperror.NewValidation(fmt.Sprintf("movement %d: batch is required", i))
		}
	}

	if err := s.repo.CreateMovements(ctx, movements); err != nil {
		return fmt.Errorf("create movements: %w", err)
	}

	logger.Info(ctx, "recorded batch movements",
		"count", len(movements),
		"recorder_id", movements[0].RecorderID,
	)
	return nil
}

// Reverse removes the movements of a document (used during cancel).
func (s *Service) Reverse(ctx context.Context, recorderID id.ID) error {
	if err := s.repo.DeleteMovementsByRecorder(ctx, recorderID); err != nil {
		return fmt.Errorf("delete movements: %w", err)
	}

	logger.Info(ctx, "reversed batch movements", "recorder_id", recorderID)
	return nil
}

// Movements returns the movements a document recorded.
func (s *Service) Movements(ctx context.Context, recorderID id.ID) ([]entity.BatchMovement, error) {
	return s.repo.GetMovementsByRecorder(ctx, recorderID)
}

// Lock serializes commits on the given keys for the rest of the transaction.
// Keys are deduplicated and taken in sorted order so concurrent posters
// never deadlock on each other.
func (s *Service) Lock(ctx context.Context, keys []entity.BatchKey) error {
	if len(keys) == 0 {
		return nil
	}
	return s.repo.LockBatches(ctx, SortKeys(keys))
}

// SortKeys returns the distinct keys in lock order.
func SortKeys(keys []entity.BatchKey) []entity.BatchKey {
	seen := make(map[entity.BatchKey]struct{}, len(keys))
	out := make([]entity.BatchKey, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
