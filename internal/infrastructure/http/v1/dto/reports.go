package dto

import (
	"time"

	"coldstore/internal/domain/posting"
	"coldstore/internal/domain/reports"
)

// StockLedgerRequest is the query of GET /reports/stock-ledger.
type StockLedgerRequest struct {
	Customer        string `form:"customer"`
	Warehouse       string `form:"warehouse"`
	BatchNo         string `form:"batch"`
	ItemGroup       string `form:"itemGroup"`
	GoodsItem       string `form:"goodsItem"`
	FromDate        string `form:"fromDate" binding:"omitempty,datetime=2006-01-02"`
	ToDate          string `form:"toDate" binding:"omitempty,datetime=2006-01-02"`
	AsOf            string `form:"asOf" binding:"omitempty,datetime=2006-01-02"`
	ShowZeroBalance bool   `form:"showZero"`

	// Format selects json (default) or xlsx.
	Format string `form:"format" binding:"omitempty,oneof=json xlsx"`
}

// ToFilter converts the query to a report filter.
func (r StockLedgerRequest) ToFilter() (reports.StockLedgerFilter, error) {
	filter := reports.StockLedgerFilter{
		Customer:        r.Customer,
		Warehouse:       r.Warehouse,
		BatchNo:         r.BatchNo,
		ItemGroup:       r.ItemGroup,
		GoodsItem:       r.GoodsItem,
		ShowZeroBalance: r.ShowZeroBalance,
	}

	var err error
	if filter.FromDate, err = ParseDate("fromDate", r.FromDate); err != nil {
		return filter, err
	}
	if filter.ToDate, err = ParseDate("toDate", r.ToDate); err != nil {
		return filter, err
	}
	if filter.AsOf, err = ParseDate("asOf", r.AsOf); err != nil {
		return filter, err
	}
	return filter, nil
}

// BatchOptionsRequest is the query of GET /reports/batches.
type BatchOptionsRequest struct {
	Customer  string `form:"customer"`
	Warehouse string `form:"warehouse"`
	ReceiptID string `form:"receipt"`
	GoodsItem string `form:"goodsItem"`
	ItemGroup string `form:"itemGroup"`
	Search    string `form:"search"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset    int    `form:"offset" binding:"omitempty,min=0"`
}

// ToQuery converts the request to a batch query.
func (r BatchOptionsRequest) ToQuery() (reports.BatchQuery, error) {
	receiptID, err := ParseOptionalID("receipt", r.ReceiptID)
	if err != nil {
		return reports.BatchQuery{}, err
	}
	return reports.BatchQuery{
		Customer:  r.Customer,
		Warehouse: r.Warehouse,
		ReceiptID: receiptID,
		GoodsItem: r.GoodsItem,
		ItemGroup: r.ItemGroup,
		Search:    r.Search,
		Limit:     r.Limit,
		Offset:    r.Offset,
	}, nil
}

// AgingRequest is the query of GET /reports/aging.
type AgingRequest struct {
	Customer        string `form:"customer"`
	Warehouse       string `form:"warehouse"`
	GoodsItem       string `form:"goodsItem"`
	ThresholdDays   int    `form:"thresholdDays" binding:"omitempty,min=1"`
	MinAgeDays      int    `form:"minAge" binding:"omitempty,min=0"`
	MaxAgeDays      int    `form:"maxAge" binding:"omitempty,min=0"`
	AsOf            string `form:"asOf" binding:"omitempty,datetime=2006-01-02"`
	ShowZeroBalance bool   `form:"showZero"`
}

// ToFilter converts the query to an aging filter.
func (r AgingRequest) ToFilter() (reports.AgingFilter, error) {
	asOf, err := ParseDate("asOf", r.AsOf)
	if err != nil {
		return reports.AgingFilter{}, err
	}
	return reports.AgingFilter{
		Customer:        r.Customer,
		Warehouse:       r.Warehouse,
		GoodsItem:       r.GoodsItem,
		ThresholdDays:   r.ThresholdDays,
		MinAgeDays:      r.MinAgeDays,
		MaxAgeDays:      r.MaxAgeDays,
		ShowZeroBalance: r.ShowZeroBalance,
		AsOf:            asOf,
	}, nil
}

// StockLevelsRequest is the query of GET /reports/stock-levels.
type StockLevelsRequest struct {
	Customer  string `form:"customer"`
	Warehouse string `form:"warehouse"`
	FromDate  string `form:"fromDate" binding:"omitempty,datetime=2006-01-02"`
	ToDate    string `form:"toDate" binding:"omitempty,datetime=2006-01-02"`
}

// ToFilter converts the query to a stock level filter.
func (r StockLevelsRequest) ToFilter() (reports.StockLevelFilter, error) {
	filter := reports.StockLevelFilter{Customer: r.Customer, Warehouse: r.Warehouse}

	var err error
	if filter.From, err = ParseDate("fromDate", r.FromDate); err != nil {
		return filter, err
	}
	if filter.To, err = ParseDate("toDate", r.ToDate); err != nil {
		return filter, err
	}
	return filter, nil
}

// AuditTrailRequest is the query of GET /reports/audit-trail.
type AuditTrailRequest struct {
	DocumentType string `form:"documentType" binding:"omitempty,oneof=Receipt Dispatch"`
	DocumentID   string `form:"document"`
	Operator     string `form:"operator"`
	FromDate     string `form:"fromDate" binding:"omitempty,datetime=2006-01-02"`
	ToDate       string `form:"toDate" binding:"omitempty,datetime=2006-01-02"`
	Limit        int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// ToFilter converts the query to an audit filter. ToDate covers the whole day.
func (r AuditTrailRequest) ToFilter() (posting.AuditFilter, error) {
	filter := posting.AuditFilter{
		DocumentType: r.DocumentType,
		Operator:     r.Operator,
		Limit:        r.Limit,
	}

	var err error
	if filter.DocumentID, err = ParseOptionalID("document", r.DocumentID); err != nil {
		return filter, err
	}
	if filter.From, err = ParseDate("fromDate", r.FromDate); err != nil {
		return filter, err
	}
	if filter.To, err = ParseDate("toDate", r.ToDate); err != nil {
		return filter, err
	}
	if filter.To != nil {
		end := filter.To.Add(24*time.Hour - time.Nanosecond)
		filter.To = &end
	}
	return filter, nil
}
