package rates

import (
	"context"
	"fmt"
	"time"

	"coldstore/internal/core/types"
	"coldstore/pkg/logger"
)

// Resolve picks the rule for key among rules as of at.
//
// A rule matches when item group and billing type are equal, its goods item
// is empty or equal to the key's, and at lies inside its validity window.
// The highest priority wins; ties go to the earlier rule. No match yields
// zero rates, which is not an error.
func Resolve(rules []Rule, key Key, at time.Time) Rates {
	best := -1
	for i := range rules {
		r := &rules[i]
		if r.ItemGroup != key.ItemGroup || r.BillingType != key.BillingType {
			continue
		}
		if r.GoodsItem != "" && r.GoodsItem != key.GoodsItem {
			continue
		}
		if !r.activeAt(at) {
			continue
		}
		if best < 0 || r.Priority > rules[best].Priority {
			best = i
		}
	}

	if best < 0 {
		return Rates{Rate: types.Zero(), LoadingRate: types.Zero()}
	}
	rule := rules[best]
	return Rates{Rate: rule.Rate, LoadingRate: rule.LoadingRate, Rule: &rule}
}

// RuleSource provides a snapshot of the rate card.
type RuleSource interface {
	Rules(ctx context.Context) ([]Rule, error)
}

// Service resolves rates against a RuleSource.
type Service struct {
	source RuleSource
	now    func() time.Time
}

// NewService creates a rate service.
func NewService(source RuleSource) *Service {
	return &Service{source: source, now: time.Now}
}

// Rate resolves key as of today.
func (s *Service) Rate(ctx context.Context, key Key) (Rates, error) {
	return s.RateAt(ctx, key, s.now())
}

// RateAt resolves key as of at.
func (s *Service) RateAt(ctx context.Context, key Key, at time.Time) (Rates, error) {
	if key.ItemGroup == "" || key.BillingType == "" {
		return Rates{Rate: types.Zero(), LoadingRate: types.Zero()}, nil
	}

	rules, err := s.source.Rules(ctx)
	if err != nil {
		return Rates{}, fmt.Errorf("load rate rules: %w", err)
	}

	res := Resolve(rules, key, at)
	if !res.Matched() {
		logger.Debug(ctx, "no rate rule matched",
			"item_group", key.ItemGroup,
			"billing_type", key.BillingType,
			"goods_item", key.GoodsItem,
		)
	}
	return res, nil
}

// StaticSource serves a fixed rule set.
type StaticSource []Rule

// Rules implements RuleSource.
func (s StaticSource) Rules(context.Context) ([]Rule, error) {
	return s, nil
}

// BillingUnits converts days in store to billable units.
// Daily bills per day, Monthly per started 30-day month, Seasonal once.
// Less than one day counts as one.
func BillingUnits(bt BillingType, days int) int {
	if days < 1 {
		days = 1
	}
	switch bt {
	case BillingMonthly:
		return (days + 29) / 30
	case BillingSeasonal:
		return 1
	default:
		return days
	}
}

// DaysBetween counts calendar days from..to, inclusive of the start day.
func DaysBetween(from, to time.Time) int {
	f := from.UTC().Truncate(24 * time.Hour)
	t := to.UTC().Truncate(24 * time.Hour)
	return int(t.Sub(f).Hours()/24) + 1
}
