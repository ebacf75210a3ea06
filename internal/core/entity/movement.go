package entity

import (
	"time"

	"coldstore/internal/core/id"
	"coldstore/internal/core/types"
)

// RecordType defines movement direction in the batch register.
type RecordType string

const (
	// RecordTypeReceipt increases balance
	RecordTypeReceipt RecordType = "receipt"
	// RecordTypeExpense decreases balance
	RecordTypeExpense RecordType = "expense"
)

// BatchMovement is one row of the batch accumulation register.
// Movements are immutable: they are never updated, only deleted with their recorder.
type BatchMovement struct {
	// LineID is unique identifier for this movement line (UUIDv7)
	LineID id.ID `db:"line_id" json:"lineId"`

	// RecorderID is the document that created this movement
	RecorderID id.ID `db:"recorder_id" json:"recorderId"`

	// RecorderType is the document type ("Receipt", "Dispatch")
	RecorderType string `db:"recorder_type" json:"recorderType"`

	RecordType RecordType `db:"record_type" json:"recordType"`

	// Period is the business date of the recorder
	Period time.Time `db:"period" json:"period"`

	// Dimensions. ReceiptID is the receipt the bags belong to; for expense
	// movements Customer and Warehouse are copied from that receipt.
	ReceiptID id.ID  `db:"receipt_id" json:"receiptId"`
	Customer  string `db:"customer" json:"customer"`
	Warehouse string `db:"warehouse" json:"warehouse"`
	BatchNo   string `db:"batch_no" json:"batchNo"`
	GoodsItem string `db:"goods_item" json:"goodsItem,omitempty"`
	ItemGroup string `db:"item_group" json:"itemGroup,omitempty"`

	// Resource
	Bags types.Bags `db:"bags" json:"bags"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewBatchMovement creates a movement with generated LineID.
func NewBatchMovement(recorderID id.ID, recorderType string, period time.Time, recordType RecordType) BatchMovement {
	return BatchMovement{
		LineID:       id.New(),
		RecorderID:   recorderID,
		RecorderType: recorderType,
		RecordType:   recordType,
		Period:       period,
		CreatedAt:    time.Now().UTC(),
	}
}

// SignedBags returns bags with sign based on record type.
// Receipt = positive, Expense = negative.
func (m *BatchMovement) SignedBags() types.Bags {
	if m.RecordType == RecordTypeExpense {
		return m.Bags.Neg()
	}
	return m.Bags
}

// BatchKey identifies an aggregate balance: one batch of one customer in one warehouse.
// It is also the unit of commit serialization.
type BatchKey struct {
	Customer  string `db:"customer" json:"customer"`
	Warehouse string `db:"warehouse" json:"warehouse"`
	BatchNo   string `db:"batch_no" json:"batchNo"`
}

// String renders the key for advisory locks and logs.
func (k BatchKey) String() string {
	return k.Customer + "\x1f" + k.Warehouse + "\x1f" + k.BatchNo
}

// Less orders keys so locks are always taken in the same order.
func (k BatchKey) Less(o BatchKey) bool {
	if k.Customer != o.Customer {
		return k.Customer < o.Customer
	}
	if k.Warehouse != o.Warehouse {
		return k.Warehouse < o.Warehouse
	}
	return k.BatchNo < o.BatchNo
}

// ReceiptRef is the ledger's view of a receipt header.
type ReceiptRef struct {
	ID        id.ID     `db:"id" json:"id"`
	Customer  string    `db:"customer" json:"customer"`
	Warehouse string    `db:"warehouse" json:"warehouse"`
	Date      time.Time `db:"date" json:"date"`
	Status    Status    `db:"status" json:"status"`
}
