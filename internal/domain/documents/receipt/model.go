// Package receipt provides the Receipt document: bags of a batch taken into
// storage for a customer in a warehouse.
package receipt

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"coldstore/internal/core/apperror"
	"coldstore/internal/core/entity"
	"coldstore/internal/core/id"
	"coldstore/internal/core/types"
	"coldstore/internal/domain/balance"
	"coldstore/internal/domain/posting"
)

// DocumentType is the recorder type written on register rows.
const DocumentType = "Receipt"

// NetBagGroup is the item group counted as half a bag for transfer loading.
const NetBagGroup = "Net Bag"

// Type distinguishes fresh intake from transfers.
type Type string

const (
	TypeNew Type = "new"
	// TypeCustomerTransfer moves bags from another customer's receipt.
	TypeCustomerTransfer Type = "customer_transfer"
	// TypeWarehouseTransfer moves the customer's own bags from another warehouse.
	TypeWarehouseTransfer Type = "warehouse_transfer"
)

// IsValid reports whether t is a known receipt type.
func (t Type) IsValid() bool {
	switch t {
	case TypeNew, TypeCustomerTransfer, TypeWarehouseTransfer:
		return true
	}
	return false
}

// Receipt represents goods received into a warehouse on behalf of a customer.
type Receipt struct {
	entity.Document

	ReceiptType Type   `db:"receipt_type" json:"receiptType"`
	Customer    string `db:"customer" json:"customer"`
	Warehouse   string `db:"warehouse" json:"warehouse"`

	// Customer transfer
	SourceReceipt *id.ID `db:"source_receipt" json:"sourceReceipt,omitempty"`
	FromCustomer  string `db:"from_customer" json:"fromCustomer,omitempty"`

	// Warehouse transfer
	FromWarehouse string `db:"from_warehouse" json:"fromWarehouse,omitempty"`

	// Vehicle and driver metadata
	VehicleNo   string `db:"vehicle_no" json:"vehicleNo,omitempty"`
	DriverName  string `db:"driver_name" json:"driverName,omitempty"`
	DriverPhone string `db:"driver_phone" json:"driverPhone,omitempty"`

	TotalBags             types.Bags  `db:"total_bags" json:"totalBags"`
	TransferLoadingAmount types.Money `db:"transfer_loading_amount" json:"transferLoadingAmount"`

	// Table part: received batches
	Lines []Line `db:"-" json:"lines"`
}

// Line is one received batch.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	GoodsItem string     `db:"goods_item" json:"goodsItem"`
	ItemGroup string     `db:"item_group" json:"itemGroup"`
	BatchNo   string     `db:"batch_no" json:"batchNo"`
	Bags      types.Bags `db:"bags" json:"bags"`
}

// NewReceipt creates a new draft receipt.
func NewReceipt(receiptType Type, customer, warehouse string) *Receipt {
	return &Receipt{
		Document:    entity.NewDocument(),
		ReceiptType: receiptType,
		Customer:    customer,
		Warehouse:   warehouse,
		Lines:       make([]Line, 0),
	}
}

// AddLine appends a received batch and recalculates totals.
func (r *Receipt) AddLine(goodsItem, itemGroup, batchNo string, bags types.Bags) {
	r.Lines = append(r.Lines, Line{
		LineID:    id.New(),
		LineNo:    len(r.Lines) + 1,
		GoodsItem: goodsItem,
		ItemGroup: itemGroup,
		BatchNo:   batchNo,
		Bags:      bags,
	})
	r.RecalculateTotals()
}

// Renumber assigns line numbers and ids in slice order.
func (r *Receipt) Renumber() {
	for i := range r.Lines {
		r.Lines[i].LineNo = i + 1
		if id.IsNil(r.Lines[i].LineID) {
			r.Lines[i].LineID = id.New()
		}
	}
	r.RecalculateTotals()
}

// RecalculateTotals sums bags over lines.
func (r *Receipt) RecalculateTotals() {
	r.TotalBags = 0
	for _, line := range r.Lines {
		r.TotalBags += line.Bags
	}
}

// BagsByBatch sums line bags per batch, in first-seen order.
func (r *Receipt) BagsByBatch() ([]string, map[string]types.Bags) {
	var order []string
	sums := make(map[string]types.Bags)
	for _, line := range r.Lines {
		if _, ok := sums[line.BatchNo]; !ok {
			order = append(order, line.BatchNo)
		}
		sums[line.BatchNo] += line.Bags
	}
	return order, sums
}

// EquatedBags counts Net Bag rows as half a bag.
func (r *Receipt) EquatedBags() decimal.Decimal {
	half := decimal.NewFromFloat(0.5)
	total := decimal.Zero
	for _, line := range r.Lines {
		bags := line.Bags.Decimal()
		if line.ItemGroup == NetBagGroup {
			bags = bags.Mul(half)
		}
		total = total.Add(bags)
	}
	return total
}

// IsIntraWarehouse reports whether a warehouse transfer stays in one warehouse.
func (r *Receipt) IsIntraWarehouse() bool {
	return r.FromWarehouse == r.Warehouse
}

// Validate implements entity.Validatable.
func (r *Receipt) Validate(ctx context.Context) error {
	return r.ValidateAt(ctx, time.Now())
}

// ValidateAt checks invariants with now as the current time.
func (r *Receipt) ValidateAt(ctx context.Context, now time.Time) error {
	if err := r.Document.Validate(ctx); err != nil {
		return err
	}

	if !r.ReceiptType.IsValid() {
		return apperror.NewValidation(fmt.Sprintf("unknown receipt type %q", r.ReceiptType)).
			WithDetail("field", "receiptType")
	}

	if r.Customer == "" {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customer")
	}

	if r.Warehouse == "" {
		return apperror.NewValidation("warehouse is required").
			WithDetail("field", "warehouse")
	}

	if r.IsFutureDated(now) {
		return apperror.NewValidation("Receipt Date cannot be in the future").
			WithDetail("field", "date")
	}

	if len(r.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range r.Lines {
		row := i + 1
		if !line.Bags.IsPositive() {
			return apperror.NewRowValidation(row, "Number of Bags must be greater than 0")
		}
		if line.BatchNo == "" {
			return apperror.NewRowValidation(row, "Batch is mandatory")
		}
	}

	switch r.ReceiptType {
	case TypeCustomerTransfer:
		if r.SourceReceipt == nil || id.IsNil(*r.SourceReceipt) {
			return apperror.NewValidation("Source Receipt is mandatory for Customer Transfer.").
				WithDetail("field", "sourceReceipt")
		}
		if r.FromCustomer == "" {
			return apperror.NewValidation("From Customer is mandatory for Customer Transfer.").
				WithDetail("field", "fromCustomer")
		}
	case TypeWarehouseTransfer:
		if r.FromWarehouse == "" {
			return apperror.NewValidation("From Warehouse is mandatory for Warehouse Transfer.").
				WithDetail("field", "fromWarehouse")
		}
	}

	return nil
}

// --- Postable interface implementation ---

func (r *Receipt) GetDocumentType() string { return DocumentType }

// BalanceChecks draws transfer rows from their source; fresh intake draws nothing.
func (r *Receipt) BalanceChecks() []posting.LineCheck {
	var scope balance.Scope
	switch r.ReceiptType {
	case TypeCustomerTransfer:
		if r.SourceReceipt == nil {
			return nil
		}
		scope = balance.ReceiptScope{ReceiptID: *r.SourceReceipt}
	case TypeWarehouseTransfer:
		scope = balance.AggregateScope{Customer: r.Customer, Warehouse: r.FromWarehouse}
	default:
		return nil
	}

	checks := make([]posting.LineCheck, 0, len(r.Lines))
	for i, line := range r.Lines {
		checks = append(checks, posting.LineCheck{
			Row:      i + 1,
			Scope:    scope,
			BatchNo:  line.BatchNo,
			Quantity: line.Bags,
		})
	}
	return checks
}

// GenerateMovements creates RECEIPT movements (increases stock) per line.
func (r *Receipt) GenerateMovements(ctx context.Context, _ posting.ReceiptLookup) ([]entity.BatchMovement, error) {
	movements := make([]entity.BatchMovement, 0, len(r.Lines))
	for _, line := range r.Lines {
		m := entity.NewBatchMovement(r.ID, DocumentType, r.Date, entity.RecordTypeReceipt)
		m.ReceiptID = r.ID
		m.Customer = r.Customer
		m.Warehouse = r.Warehouse
		m.BatchNo = line.BatchNo
		m.GoodsItem = line.GoodsItem
		m.ItemGroup = line.ItemGroup
		m.Bags = line.Bags
		movements = append(movements, m)
	}
	return movements, nil
}

var _ posting.Postable = (*Receipt)(nil)
