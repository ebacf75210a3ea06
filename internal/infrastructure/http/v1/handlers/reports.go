package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"coldstore/internal/domain/reports"
	"coldstore/internal/infrastructure/http/v1/dto"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// StockLedger handles GET /reports/stock-ledger
func (h *ReportsHandler) StockLedger(c *gin.Context) {
	var req dto.StockLedgerRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	report, err := h.service.StockLedger(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	if req.Format != "xlsx" {
		h.OK(c, report)
		return
	}

	var buf bytes.Buffer
	if err := reports.WriteStockLedgerXLSX(&buf, report); err != nil {
		h.Error(c, err)
		return
	}
	filename := fmt.Sprintf("stock-ledger-%s.xlsx", report.AsOf.Format(dto.DateLayout))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Batches handles GET /reports/batches
func (h *ReportsHandler) Batches(c *gin.Context) {
	var req dto.BatchOptionsRequest
	if !h.BindQuery(c, &req) {
		return
	}

	query, err := req.ToQuery()
	if err != nil {
		h.Error(c, err)
		return
	}

	options, err := h.service.BatchOptions(c.Request.Context(), query)
	if err != nil {
		h.Error(c, err)
		return
	}
	if options == nil {
		options = []reports.BatchOption{}
	}

	h.OK(c, gin.H{"items": options})
}

// Pending handles GET /reports/pending
func (h *ReportsHandler) Pending(c *gin.Context) {
	counts, err := h.service.Pending(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, counts)
}

// Aging handles GET /reports/aging
func (h *ReportsHandler) Aging(c *gin.Context) {
	var req dto.AgingRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	report, err := h.service.Aging(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, report)
}

// StockLevels handles GET /reports/stock-levels
func (h *ReportsHandler) StockLevels(c *gin.Context) {
	var req dto.StockLevelsRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	report, err := h.service.StockLevels(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, report)
}

// AuditTrail handles GET /reports/audit-trail
func (h *ReportsHandler) AuditTrail(c *gin.Context) {
	var req dto.AuditTrailRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	entries, err := h.service.AuditTrail(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": entries})
}
