package dto

import (
	"coldstore/internal/core/types"
	"coldstore/internal/domain/rates"
)

// RateRequest is the query of GET /rates.
type RateRequest struct {
	ItemGroup   string `form:"itemGroup" binding:"required"`
	BillingType string `form:"billingType" binding:"required"`
	GoodsItem   string `form:"goodsItem"`

	// Date resolves the card as of a day; defaults to today.
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

// Key converts the query to a rate key.
func (r RateRequest) Key() rates.Key {
	return rates.Key{
		ItemGroup:   r.ItemGroup,
		BillingType: rates.BillingType(r.BillingType),
		GoodsItem:   r.GoodsItem,
	}
}

// RateResponse is a resolved rate. Unmatched lookups return zero rates.
type RateResponse struct {
	ItemGroup   string      `json:"itemGroup"`
	BillingType string      `json:"billingType"`
	GoodsItem   string      `json:"goodsItem,omitempty"`
	Rate        types.Money `json:"rate"`
	LoadingRate types.Money `json:"loadingRate"`
	Matched     bool        `json:"matched"`
	Rule        *rates.Rule `json:"rule,omitempty"`
}

// FromRates converts a resolved lookup.
func FromRates(key rates.Key, res rates.Rates) RateResponse {
	return RateResponse{
		ItemGroup:   key.ItemGroup,
		BillingType: string(key.BillingType),
		GoodsItem:   key.GoodsItem,
		Rate:        res.Rate,
		LoadingRate: res.LoadingRate,
		Matched:     res.Matched(),
		Rule:        res.Rule,
	}
}
