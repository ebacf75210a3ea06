// Package rates resolves storage and loading rates from the rate card.
package rates

import (
	"fmt"
	"time"

	"coldstore/internal/core/apperror"
	"coldstore/internal/core/types"
)

// BillingType is a rate-table dimension.
type BillingType string

const (
	BillingDaily    BillingType = "Daily"
	BillingMonthly  BillingType = "Monthly"
	BillingSeasonal BillingType = "Seasonal"
)

// IsValid reports whether b is a known billing type.
func (b BillingType) IsValid() bool {
	switch b {
	case BillingDaily, BillingMonthly, BillingSeasonal:
		return true
	}
	return false
}

// Rule maps (item group, billing type, optional goods item) to rates.
// Rules are administrative data, read-only to the resolver.
type Rule struct {
	ItemGroup   string      `db:"item_group" json:"itemGroup" yaml:"item_group"`
	BillingType BillingType `db:"billing_type" json:"billingType" yaml:"billing_type"`

	// GoodsItem narrows the rule to one item; empty matches any item of the group.
	GoodsItem string `db:"goods_item" json:"goodsItem,omitempty" yaml:"goods_item,omitempty"`

	Rate        types.Money `db:"rate" json:"rate" yaml:"rate"`
	LoadingRate types.Money `db:"loading_rate" json:"loadingRate" yaml:"loading_rate"`

	// Priority decides between several matching rules; higher wins.
	Priority int `db:"priority" json:"priority" yaml:"priority"`

	ValidFrom *time.Time `db:"valid_from" json:"validFrom,omitempty" yaml:"valid_from,omitempty"`
	ValidTo   *time.Time `db:"valid_to" json:"validTo,omitempty" yaml:"valid_to,omitempty"`
}

// Validate checks rule invariants.
func (r Rule) Validate() error {
	if r.ItemGroup == "" {
		return apperror.NewValidation("rate rule: item group is required")
	}
	if !r.BillingType.IsValid() {
		return apperror.NewValidation(fmt.Sprintf("rate rule: unknown billing type %q", r.BillingType))
	}
	if r.Rate.IsNegative() || r.LoadingRate.IsNegative() {
		return apperror.NewValidation("rate rule: rates must not be negative").
			WithDetail("item_group", r.ItemGroup)
	}
	if r.ValidFrom != nil && r.ValidTo != nil && r.ValidTo.Before(*r.ValidFrom) {
		return apperror.NewValidation("rate rule: valid_to must not precede valid_from").
			WithDetail("item_group", r.ItemGroup)
	}
	return nil
}

// activeAt reports whether at lies inside the validity window (dates inclusive).
func (r Rule) activeAt(at time.Time) bool {
	day := at.UTC().Truncate(24 * time.Hour)
	if r.ValidFrom != nil && day.Before(r.ValidFrom.UTC().Truncate(24*time.Hour)) {
		return false
	}
	if r.ValidTo != nil && day.After(r.ValidTo.UTC().Truncate(24*time.Hour)) {
		return false
	}
	return true
}

// Key is a rate lookup.
type Key struct {
	ItemGroup   string      `json:"itemGroup"`
	BillingType BillingType `json:"billingType"`
	GoodsItem   string      `json:"goodsItem,omitempty"`
}

// Rates is a resolved lookup. Rule is nil when nothing matched.
type Rates struct {
	Rate        types.Money `json:"rate"`
	LoadingRate types.Money `json:"loadingRate"`
	Rule        *Rule       `json:"rule,omitempty"`
}

// Matched reports whether a rule was found.
func (r Rates) Matched() bool {
	return r.Rule != nil
}
