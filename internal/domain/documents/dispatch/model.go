// Package dispatch provides the Dispatch document: bags leaving storage
// against one or more receipts.
package dispatch

import (
	"context"
	"fmt"

	"coldstore/internal/core/apperror"
	"coldstore/internal/core/entity"
	"coldstore/internal/core/id"
	"coldstore/internal/core/types"
	"coldstore/internal/domain/balance"
	"coldstore/internal/domain/posting"
	"coldstore/internal/domain/rates"
)

// DocumentType is the recorder type written on register rows.
const DocumentType = "Dispatch"

// Source tells how the dispatch came to be.
type Source string

const (
	SourceManual Source = "manual"
	// SourceTransfer dispatches are written by a transfer receipt.
	SourceTransfer Source = "transfer"
)

// Dispatch represents goods leaving storage.
type Dispatch struct {
	entity.Document

	Customer string `db:"customer" json:"customer"`

	// Warehouse is the header default copied into new rows.
	Warehouse string `db:"warehouse" json:"warehouse,omitempty"`

	BillingType   rates.BillingType `db:"billing_type" json:"billingType"`
	GSTApplicable bool              `db:"gst_applicable" json:"gstApplicable"`
	GSTRate       types.Money       `db:"gst_rate" json:"gstRate"`

	Source Source `db:"source" json:"source"`

	// OriginReceipt is the transfer receipt that wrote this dispatch.
	OriginReceipt *id.ID `db:"origin_receipt" json:"originReceipt,omitempty"`

	VehicleNo  string `db:"vehicle_no" json:"vehicleNo,omitempty"`
	DriverName string `db:"driver_name" json:"driverName,omitempty"`

	// Totals (calculated from lines)
	TotalBags          types.Bags  `db:"total_bags" json:"totalBags"`
	TotalAmount        types.Money `db:"total_amount" json:"totalAmount"`
	TotalLoadingAmount types.Money `db:"total_loading_amount" json:"totalLoadingAmount"`
	TotalGSTAmount     types.Money `db:"total_gst_amount" json:"totalGstAmount"`
	GrandTotal         types.Money `db:"grand_total" json:"grandTotal"`

	// Table part: dispatched batches
	Lines []Line `db:"-" json:"lines"`
}

// Line is one dispatched batch drawn from a linked receipt.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	LinkedReceipt id.ID  `db:"linked_receipt" json:"linkedReceipt"`
	Warehouse     string `db:"warehouse" json:"warehouse"`
	BatchNo       string `db:"batch_no" json:"batchNo"`
	GoodsItem     string `db:"goods_item" json:"goodsItem"`
	ItemGroup     string `db:"item_group" json:"itemGroup"`

	Bags          types.Bags  `db:"bags" json:"bags"`
	Rate          types.Money `db:"rate" json:"rate"`
	Amount        types.Money `db:"amount" json:"amount"`
	LoadingRate   types.Money `db:"loading_rate" json:"loadingRate"`
	LoadingAmount types.Money `db:"loading_amount" json:"loadingAmount"`
}

// NewDispatch creates a new draft dispatch.
func NewDispatch(customer string, billingType rates.BillingType) *Dispatch {
	return &Dispatch{
		Document:    entity.NewDocument(),
		Customer:    customer,
		BillingType: billingType,
		Source:      SourceManual,
		Lines:       make([]Line, 0),
	}
}

// AddLine appends a row drawing bags of a batch from a receipt.
func (d *Dispatch) AddLine(linkedReceipt id.ID, warehouse, batchNo, goodsItem, itemGroup string, bags types.Bags) {
	if warehouse == "" {
		warehouse = d.Warehouse
	}
	d.Lines = append(d.Lines, Line{
		LineID:        id.New(),
		LineNo:        len(d.Lines) + 1,
		LinkedReceipt: linkedReceipt,
		Warehouse:     warehouse,
		BatchNo:       batchNo,
		GoodsItem:     goodsItem,
		ItemGroup:     itemGroup,
		Bags:          bags,
	})
}

// Renumber assigns line numbers and ids in slice order.
func (d *Dispatch) Renumber() {
	for i := range d.Lines {
		d.Lines[i].LineNo = i + 1
		if id.IsNil(d.Lines[i].LineID) {
			d.Lines[i].LineID = id.New()
		}
	}
}

// Validate implements entity.Validatable.
func (d *Dispatch) Validate(ctx context.Context) error {
	if err := d.Document.Validate(ctx); err != nil {
		return err
	}

	if d.Customer == "" {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customer")
	}

	if !d.BillingType.IsValid() {
		return apperror.NewValidation("billing type must be Daily, Monthly or Seasonal").
			WithDetail("field", "billingType")
	}

	if d.GSTRate.IsNegative() {
		return apperror.NewValidation("GST rate must not be negative").
			WithDetail("field", "gstRate")
	}

	if len(d.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range d.Lines {
		row := i + 1
		if id.IsNil(line.LinkedReceipt) {
			return apperror.NewRowValidation(row, "Please select a Linked Receipt")
		}
		if line.Warehouse == "" {
			return apperror.NewRowValidation(row, "Please select a Warehouse")
		}
		if line.BatchNo == "" {
			return apperror.NewRowValidation(row, "Please select a Batch")
		}
		if !line.Bags.IsPositive() {
			return apperror.NewRowValidation(row, "Number of Bags must be greater than 0")
		}
	}

	return nil
}

// RateLookup resolves rates for billing.
type RateLookup interface {
	Rate(ctx context.Context, key rates.Key) (rates.Rates, error)
}

// CalculateBilling fills missing row rates from the rate card and recomputes
// amounts, GST and totals. Rows carrying a rate keep it.
func (d *Dispatch) CalculateBilling(ctx context.Context, lookup RateLookup) error {
	for i := range d.Lines {
		line := &d.Lines[i]
		if line.Rate.IsZero() || line.LoadingRate.IsZero() {
			found, err := lookup.Rate(ctx, rates.Key{
				ItemGroup:   line.ItemGroup,
				BillingType: d.BillingType,
				GoodsItem:   line.GoodsItem,
			})
			if err != nil {
				return fmt.Errorf("row %d: resolve rate: %w", i+1, err)
			}
			if line.Rate.IsZero() {
				line.Rate = found.Rate
			}
			if line.LoadingRate.IsZero() {
				line.LoadingRate = found.LoadingRate
			}
		}
	}
	d.RecalculateTotals()
	return nil
}

// RecalculateTotals recomputes row amounts and document totals from rates.
func (d *Dispatch) RecalculateTotals() {
	d.TotalBags = 0
	d.TotalAmount = types.Zero()
	d.TotalLoadingAmount = types.Zero()

	for i := range d.Lines {
		line := &d.Lines[i]
		bags := line.Bags
		line.Amount = types.Amount(line.Rate, &bags)
		line.LoadingAmount = types.Amount(line.LoadingRate, &bags)

		d.TotalBags += line.Bags
		d.TotalAmount = d.TotalAmount.Add(line.Amount)
		d.TotalLoadingAmount = d.TotalLoadingAmount.Add(line.LoadingAmount)
	}

	d.TotalGSTAmount = types.Zero()
	if d.GSTApplicable {
		d.TotalGSTAmount = types.Percent(d.TotalAmount.Add(d.TotalLoadingAmount), d.GSTRate)
	}
	d.GrandTotal = d.TotalAmount.Add(d.TotalLoadingAmount).Add(d.TotalGSTAmount)
}

// --- Postable interface implementation ---

func (d *Dispatch) GetDocumentType() string { return DocumentType }

// BalanceChecks draws every row from its linked receipt, ignoring this
// dispatch's own prior movements.
func (d *Dispatch) BalanceChecks() []posting.LineCheck {
	checks := make([]posting.LineCheck, 0, len(d.Lines))
	self := d.ID
	for i, line := range d.Lines {
		checks = append(checks, posting.LineCheck{
			Row:               i + 1,
			Scope:             balance.ReceiptScope{ReceiptID: line.LinkedReceipt},
			BatchNo:           line.BatchNo,
			Quantity:          line.Bags,
			ExcludeDispatchID: &self,
		})
	}
	return checks
}

// GenerateMovements creates EXPENSE movements against each linked receipt,
// carrying that receipt's customer and warehouse.
func (d *Dispatch) GenerateMovements(ctx context.Context, receipts posting.ReceiptLookup) ([]entity.BatchMovement, error) {
	movements := make([]entity.BatchMovement, 0, len(d.Lines))

	for i, line := range d.Lines {
		row := i + 1
		ref, err := receipts.SubmittedReceipt(ctx, line.LinkedReceipt)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil, apperror.NewRowValidation(row,
					fmt.Sprintf("Linked Receipt %s is not submitted", line.LinkedReceipt)).WithCause(err)
			}
			return nil, err
		}
		if ref.Customer != d.Customer {
			return nil, apperror.NewRowValidation(row,
				fmt.Sprintf("Linked Receipt %s belongs to customer %s", line.LinkedReceipt, ref.Customer))
		}
		if ref.Warehouse != line.Warehouse {
			return nil, apperror.NewRowValidation(row,
				fmt.Sprintf("Linked Receipt %s is in warehouse %s, not %s", line.LinkedReceipt, ref.Warehouse, line.Warehouse))
		}

		m := entity.NewBatchMovement(d.ID, DocumentType, d.Date, entity.RecordTypeExpense)
		m.ReceiptID = ref.ID
		m.Customer = ref.Customer
		m.Warehouse = ref.Warehouse
		m.BatchNo = line.BatchNo
		m.GoodsItem = line.GoodsItem
		m.ItemGroup = line.ItemGroup
		m.Bags = line.Bags
		movements = append(movements, m)
	}

	return movements, nil
}

var _ posting.Postable = (*Dispatch)(nil)
