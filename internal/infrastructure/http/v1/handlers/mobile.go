package handlers

import (
	"github.com/gin-gonic/gin"

	"coldstore/internal/domain/mobile"
	"coldstore/internal/infrastructure/http/v1/dto"
)

// MobileHandler accepts receipts from the handheld intake page.
type MobileHandler struct {
	*BaseHandler
	service *mobile.Service
}

// NewMobileHandler creates a new mobile handler.
func NewMobileHandler(base *BaseHandler, service *mobile.Service) *MobileHandler {
	return &MobileHandler{BaseHandler: base, service: service}
}

// SubmitReceipt handles POST /mobile/receipts
func (h *MobileHandler) SubmitReceipt(c *gin.Context) {
	var payload mobile.Payload
	if !h.BindJSON(c, &payload) {
		return
	}

	doc, err := h.service.SubmitReceipt(c.Request.Context(), payload)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, dto.FromReceipt(doc))
}
