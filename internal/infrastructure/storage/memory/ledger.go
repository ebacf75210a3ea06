package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"coldstore/internal/core/apperror"
	"coldstore/internal/core/entity"
	"coldstore/internal/core/id"
	"coldstore/internal/core/types"
	"coldstore/internal/domain/ledger"
)

var _ ledger.Repository = (*Store)(nil)

// CreateMovements implements ledger.Repository.
func (s *Store) CreateMovements(ctx context.Context, movements []entity.BatchMovement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lineIDs := make(map[id.ID]struct{}, len(movements))
	for _, m := range movements {
		s.movements = append(s.movements, m)
		lineIDs[m.LineID] = struct{}{}
	}

	onRollback(ctx, func() {
		s.movements = removeMovements(s.movements, func(m entity.BatchMovement) bool {
			_, ok := lineIDs[m.LineID]
			return ok
		})
	})
	return nil
}

// DeleteMovementsByRecorder implements ledger.Repository.
func (s *Store) DeleteMovementsByRecorder(ctx context.Context, recorderID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []entity.BatchMovement
	s.movements = removeMovements(s.movements, func(m entity.BatchMovement) bool {
		if m.RecorderID == recorderID {
			removed = append(removed, m)
			return true
		}
		return false
	})

	onRollback(ctx, func() { s.movements = append(s.movements, removed...) })
	return nil
}

func removeMovements(in []entity.BatchMovement, drop func(entity.BatchMovement) bool) []entity.BatchMovement {
	out := in[:0]
	for _, m := range in {
		if !drop(m) {
			out = append(out, m)
		}
	}
	return out
}

// GetMovementsByRecorder implements ledger.Repository.
func (s *Store) GetMovementsByRecorder(_ context.Context, recorderID id.ID) ([]entity.BatchMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []entity.BatchMovement
	for _, m := range s.movements {
		if m.RecorderID == recorderID {
			out = append(out, m)
		}
	}
	return out, nil
}

// SumBalance implements ledger.Repository.
func (s *Store) SumBalance(_ context.Context, filter ledger.BalanceFilter) (types.Bags, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum types.Bags
	for _, m := range s.movements {
		if s.matchMovement(m, filter) {
			sum += m.SignedBags()
		}
	}
	return sum, nil
}

type balanceKey struct {
	receiptID id.ID
	batchNo   string
}

// Balances implements ledger.Repository.
func (s *Store) Balances(_ context.Context, filter ledger.BalanceFilter) ([]ledger.ReceiptBatchBalance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make(map[balanceKey]*ledger.ReceiptBatchBalance)
	for _, m := range s.movements {
		if !s.matchMovement(m, filter) {
			continue
		}
		k := balanceKey{receiptID: m.ReceiptID, batchNo: m.BatchNo}
		row, ok := groups[k]
		if !ok {
			row = &ledger.ReceiptBatchBalance{
				ReceiptID:   m.ReceiptID,
				ReceiptDate: s.receiptDate(m.ReceiptID),
				Customer:    m.Customer,
				Warehouse:   m.Warehouse,
				BatchNo:     m.BatchNo,
			}
			groups[k] = row
		}
		if m.RecordType == entity.RecordTypeReceipt {
			row.In += m.Bags
			if row.GoodsItem == "" {
				row.GoodsItem = m.GoodsItem
				row.ItemGroup = m.ItemGroup
			}
		} else {
			row.Out += m.Bags
		}
		row.Balance = row.In - row.Out
	}

	out := make([]ledger.ReceiptBatchBalance, 0, len(groups))
	for _, row := range groups {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.ReceiptDate.Equal(b.ReceiptDate) {
			return a.ReceiptDate.Before(b.ReceiptDate)
		}
		if a.ReceiptID != b.ReceiptID {
			return a.ReceiptID.String() < b.ReceiptID.String()
		}
		return a.BatchNo < b.BatchNo
	})
	return out, nil
}

type dailyKey struct {
	day       time.Time
	itemGroup string
}

// DailyMovements implements ledger.Repository.
func (s *Store) DailyMovements(_ context.Context, f ledger.DailyFilter) ([]ledger.DailyMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	last := truncateDay(f.To)
	groups := make(map[dailyKey]*ledger.DailyMovement)
	for _, m := range s.movements {
		if f.Customer != "" && m.Customer != f.Customer ||
			f.Warehouse != "" && m.Warehouse != f.Warehouse ||
			f.ItemGroup != "" && m.ItemGroup != f.ItemGroup {
			continue
		}
		day := truncateDay(m.Period)
		if !f.To.IsZero() && day.After(last) {
			continue
		}
		k := dailyKey{day: day, itemGroup: m.ItemGroup}
		row, ok := groups[k]
		if !ok {
			row = &ledger.DailyMovement{Date: day, ItemGroup: m.ItemGroup}
			groups[k] = row
		}
		if m.RecordType == entity.RecordTypeReceipt {
			row.In += m.Bags
		} else {
			row.Out += m.Bags
		}
	}

	out := make([]ledger.DailyMovement, 0, len(groups))
	for _, row := range groups {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ItemGroup < out[j].ItemGroup
	})
	return out, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// matchMovement applies a balance filter. Must be called with s.mu held.
func (s *Store) matchMovement(m entity.BatchMovement, f ledger.BalanceFilter) bool {
	if f.ReceiptID != nil && m.ReceiptID != *f.ReceiptID {
		return false
	}
	if f.ExcludeRecorder != nil && m.RecorderID == *f.ExcludeRecorder {
		return false
	}
	if f.Customer != "" && m.Customer != f.Customer {
		return false
	}
	if f.Warehouse != "" && m.Warehouse != f.Warehouse {
		return false
	}
	if f.BatchNo != "" && m.BatchNo != f.BatchNo {
		return false
	}
	if f.BatchLike != "" && !strings.Contains(strings.ToLower(m.BatchNo), strings.ToLower(f.BatchLike)) {
		return false
	}
	if f.ItemGroup != "" && m.ItemGroup != f.ItemGroup {
		return false
	}
	if f.GoodsItem != "" && m.GoodsItem != f.GoodsItem {
		return false
	}
	if f.DateFrom != nil || f.DateTo != nil {
		date := s.receiptDate(m.ReceiptID)
		if f.DateFrom != nil && date.Before(*f.DateFrom) {
			return false
		}
		if f.DateTo != nil && date.After(*f.DateTo) {
			return false
		}
	}
	return true
}

func (s *Store) receiptDate(receiptID id.ID) time.Time {
	if r, ok := s.receipts.rows[receiptID]; ok {
		return r.Date
	}
	return time.Time{}
}

// GetReceiptRef implements ledger.Repository.
func (s *Store) GetReceiptRef(_ context.Context, receiptID id.ID) (entity.ReceiptRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.receipts.rows[receiptID]
	if !ok {
		return entity.ReceiptRef{}, apperror.NewNotFound("Receipt", receiptID.String())
	}
	return entity.ReceiptRef{
		ID:        r.ID,
		Customer:  r.Customer,
		Warehouse: r.Warehouse,
		Date:      r.Date,
		Status:    r.Status,
	}, nil
}
