package entry

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"coldstore/internal/core/apperror"
	"coldstore/internal/core/id"
	"coldstore/internal/core/types"
	"coldstore/internal/domain/balance"
	"coldstore/internal/domain/rates"
	"coldstore/pkg/logger"
)

// Checker validates a proposed quantity.
type Checker interface {
	Check(ctx context.Context, req balance.Request) (balance.Result, error)
}

// RateLookup resolves row rates.
type RateLookup interface {
	Rate(ctx context.Context, key rates.Key) (rates.Rates, error)
}

// Context is the header state of the document being edited.
type Context struct {
	// DocumentID is set once the document is saved; its own movements are
	// excluded from balance checks.
	DocumentID    *id.ID            `json:"documentId,omitempty"`
	Customer      string            `json:"customer"`
	Warehouse     string            `json:"warehouse"`
	LinkedReceipt *id.ID            `json:"linkedReceipt,omitempty"`
	BillingType   rates.BillingType `json:"billingType"`
}

// Row is the editable state of one line. A nil Bags means unset.
type Row struct {
	Index         int         `json:"index"`
	LinkedReceipt *id.ID      `json:"linkedReceipt,omitempty"`
	Warehouse     string      `json:"warehouse,omitempty"`
	GoodsItem     string      `json:"goodsItem"`
	ItemGroup     string      `json:"itemGroup"`
	BatchNo       string      `json:"batchNo"`
	Bags          *types.Bags `json:"bags"`
	Rate          types.Money `json:"rate"`
	Amount        types.Money `json:"amount"`
}

// Change is one field edit. Value is the raw input.
type Change struct {
	Field Field  `json:"field" binding:"required"`
	Value string `json:"value"`
}

// NoticeLevel tells the form how to present a notice.
type NoticeLevel string

const (
	NoticeNone    NoticeLevel = ""
	NoticeWarning NoticeLevel = "warning"
)

// Notice is the message the form shows after an edit.
type Notice struct {
	Level   NoticeLevel `json:"level,omitempty"`
	Message string      `json:"message,omitempty"`

	// Available is set when a quantity was rejected.
	Available *types.Bags `json:"available,omitempty"`

	// Cleared lists the fields reset by the cascade.
	Cleared []Field `json:"cleared,omitempty"`

	// Provisional marks a quantity accepted without a balance check.
	Provisional bool `json:"provisional,omitempty"`
}

// Editor applies field changes to rows.
type Editor struct {
	graph   FieldGraph
	checker Checker
	rates   RateLookup
}

// NewEditor creates an editor over the given form graph.
func NewEditor(graph FieldGraph, checker Checker, rates RateLookup) *Editor {
	return &Editor{graph: graph, checker: checker, rates: rates}
}

// Apply sets change on row, clears its dependents and re-derives quantity,
// rate and amount. A rejected or invalid quantity is reset to unset and
// reported in the notice; the ledger is never written. A billing type edit
// made from a row updates the returned header as well.
func (e *Editor) Apply(ctx context.Context, doc Context, row Row, change Change) (Context, Row, Notice, error) {
	var notice Notice

	switch change.Field {
	case FieldGoodsItem:
		row.GoodsItem = change.Value
	case FieldItemGroup:
		row.ItemGroup = change.Value
	case FieldBatchNo:
		row.BatchNo = change.Value
	case FieldRate:
		rate, err := types.NewMoneyFromString(strings.TrimSpace(change.Value))
		if err != nil {
			return doc, row, notice, apperror.NewValidation("rate must be a number").
				WithDetail("field", string(FieldRate)).WithCause(err)
		}
		row.Rate = rate
	case FieldBillingType:
		bt, err := parseBillingType(change.Value)
		if err != nil {
			return doc, row, notice, err
		}
		doc.BillingType = bt
	case FieldBags:
	default:
		return doc, row, notice, apperror.NewValidation(fmt.Sprintf("field %q is not editable on a row", change.Field)).
			WithDetail("field", string(change.Field))
	}

	notice.Cleared = e.graph.Cascade(change.Field)
	row = clearFields(row, notice.Cleared)

	switch change.Field {
	case FieldGoodsItem, FieldItemGroup, FieldBillingType:
		var err error
		if row, err = e.reprice(ctx, doc, row); err != nil {
			return doc, row, notice, err
		}
	case FieldBags:
		var err error
		row, notice, err = e.applyBags(ctx, doc, row, change.Value, notice)
		if err != nil {
			return doc, row, notice, err
		}
	}

	row.Amount = types.Amount(row.Rate, row.Bags)
	return doc, row, notice, nil
}

// reprice resolves the row rate for the header billing type and recomputes
// the amount.
func (e *Editor) reprice(ctx context.Context, doc Context, row Row) (Row, error) {
	found, err := e.rates.Rate(ctx, rates.Key{
		ItemGroup:   row.ItemGroup,
		BillingType: doc.BillingType,
		GoodsItem:   row.GoodsItem,
	})
	if err != nil {
		return row, err
	}
	row.Rate = found.Rate
	row.Amount = types.Amount(row.Rate, row.Bags)
	return row, nil
}

func parseBillingType(value string) (rates.BillingType, error) {
	bt := rates.BillingType(strings.TrimSpace(value))
	if bt != "" && !bt.IsValid() {
		return bt, apperror.NewValidation(fmt.Sprintf("unknown billing type %q", value)).
			WithDetail("field", string(FieldBillingType))
	}
	return bt, nil
}

func (e *Editor) applyBags(ctx context.Context, doc Context, row Row, value string, notice Notice) (Row, Notice, error) {
	bags, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || bags <= 0 {
		row.Bags = nil
		notice.Level = NoticeWarning
		notice.Message = apperror.NewInvalidQuantity(bags).Message
		return row, notice, nil
	}

	qty := types.Bags(bags)
	res, err := e.checker.Check(ctx, balance.Request{
		Scope:             rowScope(doc, row),
		BatchNo:           row.BatchNo,
		Quantity:          qty,
		ExcludeDispatchID: doc.DocumentID,
	})
	if err != nil {
		return row, notice, err
	}

	switch res.Verdict {
	case balance.Rejected:
		available := res.Available
		row.Bags = nil
		notice.Level = NoticeWarning
		notice.Message = fmt.Sprintf("Row %d: Insufficient balance. Available: %d", row.Index, available)
		notice.Available = &available
		logger.Debug(ctx, "entry quantity rejected", "row", row.Index, "requested", qty, "available", available)
	case balance.Provisional:
		row.Bags = &qty
		notice.Provisional = true
	default:
		row.Bags = &qty
	}
	return row, notice, nil
}

// rowScope picks where a row draws from: its own linked receipt, the header
// receipt, or the customer and warehouse aggregate.
func rowScope(doc Context, row Row) balance.Scope {
	if row.LinkedReceipt != nil && !id.IsNil(*row.LinkedReceipt) {
		return balance.ReceiptScope{ReceiptID: *row.LinkedReceipt}
	}
	if doc.LinkedReceipt != nil && !id.IsNil(*doc.LinkedReceipt) {
		return balance.ReceiptScope{ReceiptID: *doc.LinkedReceipt}
	}
	warehouse := row.Warehouse
	if warehouse == "" {
		warehouse = doc.Warehouse
	}
	if doc.Customer != "" && warehouse != "" {
		return balance.AggregateScope{Customer: doc.Customer, Warehouse: warehouse}
	}
	return balance.Unscoped{}
}

func clearFields(row Row, fields []Field) Row {
	for _, f := range fields {
		switch f {
		case FieldGoodsItem:
			row.GoodsItem = ""
		case FieldItemGroup:
			row.ItemGroup = ""
		case FieldBatchNo:
			row.BatchNo = ""
		case FieldBags:
			row.Bags = nil
		case FieldLinkedReceipt:
			row.LinkedReceipt = nil
		case FieldWarehouse:
			row.Warehouse = ""
		}
	}
	return row
}

// ApplyHeader sets a header field on doc and brings rows in line with it.
// When items is among the cleared dependents the rows are dropped; a billing
// type change re-resolves the rate and amount of every row.
func (e *Editor) ApplyHeader(ctx context.Context, doc Context, rows []Row, change Change) (Context, []Row, Notice, error) {
	switch change.Field {
	case FieldCustomer:
		doc.Customer = change.Value
	case FieldWarehouse:
		doc.Warehouse = change.Value
	case FieldBillingType:
		bt, err := parseBillingType(change.Value)
		if err != nil {
			return doc, rows, Notice{}, err
		}
		doc.BillingType = bt
	case FieldLinkedReceipt:
		receiptID, err := id.ParseOptional(change.Value)
		if err != nil {
			return doc, rows, Notice{}, apperror.NewValidation("invalid receipt id").
				WithDetail("field", string(FieldLinkedReceipt)).WithCause(err)
		}
		doc.LinkedReceipt = receiptID
	default:
		return doc, rows, Notice{}, apperror.NewValidation(fmt.Sprintf("field %q is not a header field", change.Field)).
			WithDetail("field", string(change.Field))
	}

	cleared := e.graph.Cascade(change.Field)
	for _, f := range cleared {
		switch f {
		case FieldWarehouse:
			doc.Warehouse = ""
		case FieldLinkedReceipt:
			doc.LinkedReceipt = nil
		}
	}
	notice := Notice{Cleared: cleared}

	if Contains(cleared, FieldItems) {
		return doc, nil, notice, nil
	}

	if change.Field == FieldBillingType {
		out := make([]Row, len(rows))
		for i, row := range rows {
			repriced, err := e.reprice(ctx, doc, row)
			if err != nil {
				return doc, rows, notice, err
			}
			out[i] = repriced
		}
		rows = out
	}
	return doc, rows, notice, nil
}
