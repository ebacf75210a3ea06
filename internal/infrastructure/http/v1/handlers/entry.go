package handlers

import (
	"github.com/gin-gonic/gin"

	"coldstore/internal/domain/entry"
	"coldstore/internal/infrastructure/http/v1/dto"
)

// EntryHandler applies form edits for the data-entry screens. Nothing it
// does is persisted.
type EntryHandler struct {
	*BaseHandler
	dispatch *entry.Editor
	receipt  *entry.Editor
}

// NewEntryHandler creates a new entry handler.
func NewEntryHandler(base *BaseHandler, dispatchEditor, receiptEditor *entry.Editor) *EntryHandler {
	return &EntryHandler{
		BaseHandler: base,
		dispatch:    dispatchEditor,
		receipt:     receiptEditor,
	}
}

// DispatchRow handles POST /entry/dispatch-row
func (h *EntryHandler) DispatchRow(c *gin.Context) {
	h.applyRow(c, h.dispatch)
}

// ReceiptRow handles POST /entry/receipt-row
func (h *EntryHandler) ReceiptRow(c *gin.Context) {
	h.applyRow(c, h.receipt)
}

// DispatchHeader handles POST /entry/dispatch-header
func (h *EntryHandler) DispatchHeader(c *gin.Context) {
	var req dto.HeaderChangeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, rows, notice, err := h.dispatch.ApplyHeader(c.Request.Context(), req.Document, req.Rows, req.Change)
	if err != nil {
		h.Error(c, err)
		return
	}
	if rows == nil {
		rows = []entry.Row{}
	}

	h.OK(c, dto.HeaderChangeResponse{Document: doc, Rows: rows, Notice: notice})
}

func (h *EntryHandler) applyRow(c *gin.Context, editor *entry.Editor) {
	var req dto.RowChangeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, row, notice, err := editor.Apply(c.Request.Context(), req.Document, req.Row, req.Change)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.RowChangeResponse{Document: doc, Row: row, Notice: notice})
}
