// Package reports provides read-only views over the batch register.
package reports

import (
	"time"

	"coldstore/internal/core/id"
	"coldstore/internal/core/types"
)

// --- Customer Stock Ledger ---

// StockLedgerFilter defines the stock ledger selection. Empty fields are not filtered.
type StockLedgerFilter struct {
	Customer  string
	Warehouse string

	// BatchNo matches by substring
	BatchNo   string
	ItemGroup string
	GoodsItem string

	// Receipt date range
	FromDate *time.Time
	ToDate   *time.Time

	// ShowZeroBalance keeps fully dispatched rows
	ShowZeroBalance bool

	// AsOf is the day days-in-store is counted to (defaults to today)
	AsOf *time.Time
}

// StockLedgerRow is the position of one batch on one receipt.
type StockLedgerRow struct {
	ReceiptDate       time.Time  `json:"receiptDate"`
	ReceiptID         id.ID      `json:"receiptId"`
	Customer          string     `json:"customer"`
	GoodsItem         string     `json:"goodsItem"`
	ItemGroup         string     `json:"itemGroup"`
	BatchNo           string     `json:"batchNo"`
	Warehouse         string     `json:"warehouse"`
	DaysInStore       int        `json:"daysInStore"`
	In                types.Bags `json:"in"`
	Out               types.Bags `json:"out"`
	Balance           types.Bags `json:"balance"`
	CumulativeBalance types.Bags `json:"cumulativeBalance"`
}

// StockLedgerTotals sums the listed rows.
type StockLedgerTotals struct {
	In      types.Bags `json:"in"`
	Out     types.Bags `json:"out"`
	Balance types.Bags `json:"balance"`
}

// StockLedger is the full customer stock ledger report.
type StockLedger struct {
	AsOf   time.Time         `json:"asOf"`
	Rows   []StockLedgerRow  `json:"rows"`
	Totals StockLedgerTotals `json:"totals"`
}

// --- Batch picker ---

// BatchQuery selects the batches offered to a dispatch row.
type BatchQuery struct {
	Customer  string
	Warehouse string
	ReceiptID *id.ID
	GoodsItem string
	ItemGroup string

	// Search matches batch numbers by substring
	Search string

	Limit  int
	Offset int
}

// BatchOption is one selectable batch with its available bags.
type BatchOption struct {
	BatchNo   string     `json:"batchNo"`
	Available types.Bags `json:"available"`
	Label     string     `json:"label"`
}

// --- Notification feed ---

// PendingCounts is the number of documents awaiting submission.
type PendingCounts struct {
	Receipts   int64 `json:"receipts"`
	Dispatches int64 `json:"dispatches"`
	Total      int64 `json:"total"`
}

// --- Inventory aging ---

// AgeStatus flags a position against the aging threshold.
type AgeStatus string

const (
	AgeFresh   AgeStatus = "Fresh"
	AgeWarning AgeStatus = "Warning"
	AgeOverdue AgeStatus = "Overdue"
)

// DefaultAgingThreshold is the age in days past which stock is overdue.
const DefaultAgingThreshold = 30

// AgingFilter selects the positions of the aging report.
type AgingFilter struct {
	Customer  string
	Warehouse string
	GoodsItem string

	// ThresholdDays marks older stock overdue; above 80% of it is a warning.
	ThresholdDays int

	MinAgeDays int
	// MaxAgeDays of zero means no upper bound.
	MaxAgeDays int

	ShowZeroBalance bool

	// AsOf is the day ages are counted to (defaults to today)
	AsOf *time.Time
}

// AgingRow is one receipt batch with its age.
type AgingRow struct {
	Customer    string     `json:"customer"`
	ReceiptID   id.ID      `json:"receiptId"`
	ReceiptDate time.Time  `json:"receiptDate"`
	GoodsItem   string     `json:"goodsItem"`
	ItemGroup   string     `json:"itemGroup"`
	BatchNo     string     `json:"batchNo"`
	Warehouse   string     `json:"warehouse"`
	Balance     types.Bags `json:"balance"`
	AgeDays     int        `json:"ageDays"`
	Bucket      string     `json:"bucket"`
	Status      AgeStatus  `json:"status"`
}

// AgingBucket totals the bags of one age bucket.
type AgingBucket struct {
	Label   string     `json:"label"`
	Balance types.Bags `json:"balance"`
}

// Aging is the inventory aging report, oldest stock first.
type Aging struct {
	AsOf          time.Time     `json:"asOf"`
	ThresholdDays int           `json:"thresholdDays"`
	Rows          []AgingRow    `json:"rows"`
	Buckets       []AgingBucket `json:"buckets"`
}

// --- Stock levels ---

// UnspecifiedGroup labels movements without an item group.
const UnspecifiedGroup = "Unspecified"

// StockLevelFilter selects the in-store series. To defaults to today and
// From to one month before To.
type StockLevelFilter struct {
	Customer  string
	Warehouse string
	From      *time.Time
	To        *time.Time
}

// StockLevelDay is the closing stock of one day.
type StockLevelDay struct {
	Date   time.Time             `json:"date"`
	Groups map[string]types.Bags `json:"groups"`
	Total  types.Bags            `json:"total"`
}

// StockLevels is the bags in store per item group, day by day.
type StockLevels struct {
	From       time.Time             `json:"from"`
	To         time.Time             `json:"to"`
	ItemGroups []string              `json:"itemGroups"`
	Opening    map[string]types.Bags `json:"opening"`
	Days       []StockLevelDay       `json:"days"`
}
