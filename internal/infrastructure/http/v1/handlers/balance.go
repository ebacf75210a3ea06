package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"coldstore/internal/core/entity"
	"coldstore/internal/core/tx"
	"coldstore/internal/core/types"
	"coldstore/internal/domain/balance"
	"coldstore/internal/domain/ledger"
	"coldstore/internal/infrastructure/http/v1/dto"
)

// BalanceHandler serves balance lookups and quantity checks.
type BalanceHandler struct {
	*BaseHandler
	txManager tx.ReadOnlyManager
	ledger    *ledger.Service
	resolver  *balance.Resolver
}

// NewBalanceHandler creates a new balance handler.
func NewBalanceHandler(base *BaseHandler, txManager tx.ReadOnlyManager, ledgerService *ledger.Service, resolver *balance.Resolver) *BalanceHandler {
	return &BalanceHandler{
		BaseHandler: base,
		txManager:   txManager,
		ledger:      ledgerService,
		resolver:    resolver,
	}
}

// Receipt handles GET /balance/receipt/:id
func (h *BalanceHandler) Receipt(c *gin.Context) {
	receiptID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.ReceiptBalanceRequest
	if !h.BindQuery(c, &req) {
		return
	}
	exclude, err := dto.ParseOptionalID("exclude", req.Exclude)
	if err != nil {
		h.Error(c, err)
		return
	}

	bags, err := h.ledger.ReceiptBalance(c.Request.Context(), receiptID, req.BatchNo, exclude)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.BalanceResponse{
		Scope:     balance.ScopeName(balance.ReceiptScope{ReceiptID: receiptID}),
		ReceiptID: &receiptID,
		BatchNo:   req.BatchNo,
		Balance:   bags,
	})
}

// Aggregate handles GET /balance/aggregate
// The total and the per-receipt breakdown are read from one snapshot.
func (h *BalanceHandler) Aggregate(c *gin.Context) {
	var req dto.AggregateBalanceRequest
	if !h.BindQuery(c, &req) {
		return
	}
	exclude, err := dto.ParseOptionalID("exclude", req.Exclude)
	if err != nil {
		h.Error(c, err)
		return
	}

	key := entity.BatchKey{Customer: req.Customer, Warehouse: req.Warehouse, BatchNo: req.BatchNo}
	var (
		bags       types.Bags
		perReceipt []ledger.ReceiptBatchBalance
	)
	err = h.txManager.ReadOnly(c.Request.Context(), func(ctx context.Context) error {
		var err error
		if bags, err = h.ledger.AggregateBalance(ctx, key, exclude); err != nil {
			return err
		}
		perReceipt, err = h.ledger.ReceiptBalances(ctx, key, exclude)
		return err
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.BalanceResponse{
		Scope:     balance.ScopeName(balance.AggregateScope{}),
		Customer:  req.Customer,
		Warehouse: req.Warehouse,
		BatchNo:   req.BatchNo,
		Balance:   bags,
		Receipts:  perReceipt,
	})
}

// Check handles POST /balance/check
// A rejected quantity is a 200 with the rejected verdict, not an error.
func (h *BalanceHandler) Check(c *gin.Context) {
	var req dto.CheckRequest
	if !h.BindJSON(c, &req) {
		return
	}

	balanceReq, err := req.ToRequest()
	if err != nil {
		h.Error(c, err)
		return
	}

	res, err := h.resolver.Check(c.Request.Context(), balanceReq)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromCheck(balanceReq.Scope, res))
}
