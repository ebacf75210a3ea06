// Package ledger provides the batch register: the authoritative record of bags
// received and dispatched, and the balance queries derived from it.
package ledger

import (
	"context"
	"time"

	"coldstore/internal/core/entity"
	"coldstore/internal/core/id"
	"coldstore/internal/core/types"
)

// Repository defines operations for the batch register.
type Repository interface {
	// Movement operations

	// CreateMovements batch inserts movements (used during posting)
	CreateMovements(ctx context.Context, movements []entity.BatchMovement) error

	// DeleteMovementsByRecorder removes all movements of a document (cancel)
	DeleteMovementsByRecorder(ctx context.Context, recorderID id.ID) error

	// GetMovementsByRecorder retrieves all movements for a document
	GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.BatchMovement, error)

	// Balance operations

	// SumBalance returns the signed sum of bags matching the filter.
	SumBalance(ctx context.Context, filter BalanceFilter) (types.Bags, error)

	// Balances groups matching movements per (receipt, batch), oldest receipt first.
	Balances(ctx context.Context, filter BalanceFilter) ([]ReceiptBatchBalance, error)

	// DailyMovements sums bags in and out per business day and item group,
	// oldest day first.
	DailyMovements(ctx context.Context, filter DailyFilter) ([]DailyMovement, error)

	// GetReceiptRef returns the receipt header or a NOT_FOUND AppError.
	GetReceiptRef(ctx context.Context, receiptID id.ID) (entity.ReceiptRef, error)

	// LockBatches serializes commits per key until the current transaction ends.
	// Keys arrive sorted and deduplicated.
	LockBatches(ctx context.Context, keys []entity.BatchKey) error
}

// BalanceFilter selects register rows. Empty fields are not filtered.
type BalanceFilter struct {
	ReceiptID *id.ID
	Customer  string
	Warehouse string
	BatchNo   string

	// BatchLike matches batch numbers by substring (reports).
	BatchLike string
	ItemGroup string
	GoodsItem string

	// ExcludeRecorder ignores movements written by this document.
	ExcludeRecorder *id.ID

	// DateFrom/DateTo bound the receipt date.
	DateFrom *time.Time
	DateTo   *time.Time
}

// DailyFilter selects movements by business date. Empty fields are not filtered.
type DailyFilter struct {
	Customer  string
	Warehouse string
	ItemGroup string

	// To is the last business day included. Zero means no bound.
	To time.Time
}

// DailyMovement is what moved for one item group on one business day.
type DailyMovement struct {
	Date      time.Time  `db:"day" json:"date"`
	ItemGroup string     `db:"item_group" json:"itemGroup"`
	In        types.Bags `db:"bags_in" json:"in"`
	Out       types.Bags `db:"bags_out" json:"out"`
}

// ReceiptBatchBalance is the balance of one batch on one receipt.
type ReceiptBatchBalance struct {
	ReceiptID   id.ID      `db:"receipt_id" json:"receiptId"`
	ReceiptDate time.Time  `db:"receipt_date" json:"receiptDate"`
	Customer    string     `db:"customer" json:"customer"`
	Warehouse   string     `db:"warehouse" json:"warehouse"`
	BatchNo     string     `db:"batch_no" json:"batchNo"`
	GoodsItem   string     `db:"goods_item" json:"goodsItem"`
	ItemGroup   string     `db:"item_group" json:"itemGroup"`
	In          types.Bags `db:"bags_in" json:"in"`
	Out         types.Bags `db:"bags_out" json:"out"`
	Balance     types.Bags `db:"balance" json:"balance"`
}

// Allocation is the share of a draw taken from one receipt.
type Allocation struct {
	ReceiptID id.ID      `json:"receiptId"`
	Bags      types.Bags `json:"bags"`
}
