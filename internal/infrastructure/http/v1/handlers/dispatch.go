package handlers

import (
	"github.com/gin-gonic/gin"

	"coldstore/internal/core/id"
	"coldstore/internal/domain/documents/dispatch"
	"coldstore/internal/infrastructure/http/v1/dto"
)

// DispatchHandler handles HTTP requests for Dispatch documents.
type DispatchHandler struct {
	*BaseDocumentHandler[*dispatch.Dispatch, dto.CreateDispatchRequest, dto.UpdateDispatchRequest]
	service *dispatch.Service
}

// NewDispatchHandler creates a new dispatch handler.
func NewDispatchHandler(base *BaseHandler, service *dispatch.Service) *DispatchHandler {
	cfg := BaseDocumentHandlerConfig[*dispatch.Dispatch, dto.CreateDispatchRequest, dto.UpdateDispatchRequest]{
		Service:    service,
		EntityName: "dispatch",
		MapCreateDTO: func(req dto.CreateDispatchRequest) (*dispatch.Dispatch, error) {
			return req.ToEntity()
		},
		ApplyUpdateDTO: func(req dto.UpdateDispatchRequest, existing *dispatch.Dispatch) error {
			if req.Version > 0 {
				existing.Version = req.Version
			}
			return req.ApplyTo(existing)
		},
		MapToDTO: func(doc *dispatch.Dispatch) any {
			return dto.FromDispatch(doc)
		},
		DocumentID: func(doc *dispatch.Dispatch) id.ID {
			return doc.ID
		},
		SubmitImmediately: func(req dto.CreateDispatchRequest) bool {
			return req.Submit
		},
	}

	return &DispatchHandler{
		BaseDocumentHandler: NewBaseDocumentHandler(base, cfg),
		service:             service,
	}
}

// Invoice handles GET /dispatches/:id/invoice
func (h *DispatchHandler) Invoice(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	invoice, err := h.service.Invoice(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, invoice)
}
