package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"coldstore/internal/core/apperror"
	"coldstore/internal/core/types"
	"coldstore/internal/domain/ledger"
	"coldstore/internal/domain/rates"
)

// maxStockLevelDays caps the series length.
const maxStockLevelDays = 731

// ageBuckets are upper bounds in days, inclusive. The last bucket is open.
var ageBuckets = []struct {
	upTo  int
	label string
}{
	{7, "0-7 days"},
	{30, "8-30 days"},
	{60, "31-60 days"},
	{90, "61-90 days"},
	{-1, "90+ days"},
}

func ageBucket(days int) string {
	for _, b := range ageBuckets {
		if b.upTo < 0 || days <= b.upTo {
			return b.label
		}
	}
	return ageBuckets[len(ageBuckets)-1].label
}

func ageStatus(days, threshold int) AgeStatus {
	switch {
	case days > threshold:
		return AgeOverdue
	case days*5 > threshold*4:
		return AgeWarning
	}
	return AgeFresh
}

// Aging lists the stock still in store with its age, oldest first, and
// totals the bags per age bucket.
func (s *Service) Aging(ctx context.Context, filter AgingFilter) (*Aging, error) {
	asOf := s.now().UTC()
	if filter.AsOf != nil {
		asOf = *filter.AsOf
	}
	threshold := filter.ThresholdDays
	if threshold <= 0 {
		threshold = DefaultAgingThreshold
	}

	rows, err := s.balances.Balances(ctx, ledger.BalanceFilter{
		Customer:  filter.Customer,
		Warehouse: filter.Warehouse,
		GoodsItem: filter.GoodsItem,
	})
	if err != nil {
		return nil, fmt.Errorf("get aging: %w", err)
	}

	report := &Aging{
		AsOf:          asOf,
		ThresholdDays: threshold,
		Rows:          make([]AgingRow, 0, len(rows)),
		Buckets:       make([]AgingBucket, len(ageBuckets)),
	}
	bucketIndex := make(map[string]int, len(ageBuckets))
	for i, b := range ageBuckets {
		report.Buckets[i].Label = b.label
		bucketIndex[b.label] = i
	}

	for _, r := range rows {
		if r.Balance <= 0 && !filter.ShowZeroBalance {
			continue
		}
		age := rates.DaysBetween(r.ReceiptDate, asOf) - 1
		if age < filter.MinAgeDays || (filter.MaxAgeDays > 0 && age > filter.MaxAgeDays) {
			continue
		}

		bucket := ageBucket(age)
		report.Rows = append(report.Rows, AgingRow{
			Customer:    r.Customer,
			ReceiptID:   r.ReceiptID,
			ReceiptDate: r.ReceiptDate,
			GoodsItem:   r.GoodsItem,
			ItemGroup:   r.ItemGroup,
			BatchNo:     r.BatchNo,
			Warehouse:   r.Warehouse,
			Balance:     r.Balance,
			AgeDays:     age,
			Bucket:      bucket,
			Status:      ageStatus(age, threshold),
		})
		report.Buckets[bucketIndex[bucket]].Balance += r.Balance
	}

	sort.SliceStable(report.Rows, func(i, j int) bool {
		return report.Rows[i].AgeDays > report.Rows[j].AgeDays
	})
	return report, nil
}

// StockLevels replays the register into the closing stock of every day in
// the range, per item group, starting from the opening balance before From.
func (s *Service) StockLevels(ctx context.Context, filter StockLevelFilter) (*StockLevels, error) {
	to := startOfDay(s.now())
	if filter.To != nil {
		to = startOfDay(*filter.To)
	}
	from := to.AddDate(0, -1, 0)
	if filter.From != nil {
		from = startOfDay(*filter.From)
	}
	if from.After(to) {
		return nil, apperror.NewValidation("from must not be after to")
	}
	if n := rates.DaysBetween(from, to); n > maxStockLevelDays {
		return nil, apperror.NewValidation(fmt.Sprintf("range of %d days exceeds %d", n, maxStockLevelDays))
	}

	movements, err := s.balances.DailyMovements(ctx, ledger.DailyFilter{
		Customer:  filter.Customer,
		Warehouse: filter.Warehouse,
		To:        to,
	})
	if err != nil {
		return nil, fmt.Errorf("get stock levels: %w", err)
	}

	balance := make(map[string]types.Bags)
	byDay := make(map[time.Time][]ledger.DailyMovement)
	for _, m := range movements {
		group := m.ItemGroup
		if group == "" {
			group = UnspecifiedGroup
		}
		if _, ok := balance[group]; !ok {
			balance[group] = 0
		}
		m.ItemGroup = group

		d := startOfDay(m.Date)
		if d.Before(from) {
			balance[group] += m.In - m.Out
			continue
		}
		byDay[d] = append(byDay[d], m)
	}

	groups := make([]string, 0, len(balance))
	for g := range balance {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	report := &StockLevels{
		From:       from,
		To:         to,
		ItemGroups: groups,
		Opening:    copyBags(balance),
		Days:       make([]StockLevelDay, 0, rates.DaysBetween(from, to)),
	}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		for _, m := range byDay[d] {
			balance[m.ItemGroup] += m.In - m.Out
		}
		level := StockLevelDay{Date: d, Groups: copyBags(balance)}
		for _, b := range balance {
			level.Total += b
		}
		report.Days = append(report.Days, level)
	}
	return report, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func copyBags(in map[string]types.Bags) map[string]types.Bags {
	out := make(map[string]types.Bags, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
