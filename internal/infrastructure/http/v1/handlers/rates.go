package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"coldstore/internal/domain/rates"
	"coldstore/internal/infrastructure/http/v1/dto"
)

// RatesHandler resolves storage and loading rates.
type RatesHandler struct {
	*BaseHandler
	service *rates.Service
}

// NewRatesHandler creates a new rates handler.
func NewRatesHandler(base *BaseHandler, service *rates.Service) *RatesHandler {
	return &RatesHandler{BaseHandler: base, service: service}
}

// Get handles GET /rates
func (h *RatesHandler) Get(c *gin.Context) {
	var req dto.RateRequest
	if !h.BindQuery(c, &req) {
		return
	}

	at, err := dto.ParseDate("date", req.Date)
	if err != nil {
		h.Error(c, err)
		return
	}
	if at == nil {
		now := time.Now()
		at = &now
	}

	key := req.Key()
	res, err := h.service.RateAt(c.Request.Context(), key, *at)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromRates(key, res))
}
