package dto

import (
	"coldstore/internal/core/id"
	"coldstore/internal/core/types"
	"coldstore/internal/domain/balance"
	"coldstore/internal/domain/ledger"
)

// ReceiptBalanceRequest is the query of GET /balance/receipt/:id.
type ReceiptBalanceRequest struct {
	BatchNo string `form:"batch" binding:"required"`

	// Exclude is a dispatch whose movements are ignored.
	Exclude string `form:"exclude"`
}

// AggregateBalanceRequest is the query of GET /balance/aggregate.
type AggregateBalanceRequest struct {
	Customer  string `form:"customer" binding:"required"`
	Warehouse string `form:"warehouse" binding:"required"`
	BatchNo   string `form:"batch" binding:"required"`
	Exclude   string `form:"exclude"`
}

// BalanceResponse is the bags available in a scope.
type BalanceResponse struct {
	Scope     string     `json:"scope"`
	ReceiptID *id.ID     `json:"receiptId,omitempty"`
	Customer  string     `json:"customer,omitempty"`
	Warehouse string     `json:"warehouse,omitempty"`
	BatchNo   string     `json:"batchNo"`
	Balance   types.Bags `json:"balance"`

	// Receipts breaks an aggregate balance down per receipt, oldest first.
	Receipts []ledger.ReceiptBatchBalance `json:"receipts,omitempty"`
}

// CheckRequest is a proposed draw. A receipt id selects the receipt scope;
// customer and warehouse select the aggregate scope; neither is unscoped.
type CheckRequest struct {
	ReceiptID         string `json:"receiptId,omitempty"`
	Customer          string `json:"customer,omitempty"`
	Warehouse         string `json:"warehouse,omitempty"`
	BatchNo           string `json:"batchNo"`
	Bags              int64  `json:"bags"`
	ExcludeDispatchID string `json:"excludeDispatchId,omitempty"`
	Reserved          int64  `json:"reserved,omitempty" binding:"min=0"`
}

// ToRequest converts the body to a balance request.
func (r *CheckRequest) ToRequest() (balance.Request, error) {
	receiptID, err := ParseOptionalID("receiptId", r.ReceiptID)
	if err != nil {
		return balance.Request{}, err
	}
	exclude, err := ParseOptionalID("excludeDispatchId", r.ExcludeDispatchID)
	if err != nil {
		return balance.Request{}, err
	}

	var scope balance.Scope = balance.Unscoped{}
	switch {
	case receiptID != nil:
		scope = balance.ReceiptScope{ReceiptID: *receiptID}
	case r.Customer != "" && r.Warehouse != "":
		scope = balance.AggregateScope{Customer: r.Customer, Warehouse: r.Warehouse}
	}

	return balance.Request{
		Scope:             scope,
		BatchNo:           r.BatchNo,
		Quantity:          types.Bags(r.Bags),
		ExcludeDispatchID: exclude,
		Reserved:          types.Bags(r.Reserved),
	}, nil
}

// CheckResponse is the verdict of a proposed draw.
type CheckResponse struct {
	Scope     string      `json:"scope"`
	Verdict   string      `json:"verdict"`
	Available *types.Bags `json:"available,omitempty"`
}

// FromCheck converts a balance result. Provisional results carry no balance.
func FromCheck(scope balance.Scope, res balance.Result) CheckResponse {
	out := CheckResponse{
		Scope:   balance.ScopeName(scope),
		Verdict: string(res.Verdict),
	}
	if res.Verdict != balance.Provisional {
		available := res.Available
		out.Available = &available
	}
	return out
}
