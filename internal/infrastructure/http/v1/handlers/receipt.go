package handlers

import (
	"coldstore/internal/core/id"
	"coldstore/internal/domain/documents/receipt"
	"coldstore/internal/infrastructure/http/v1/dto"
)

// ReceiptHandler handles HTTP requests for Receipt documents.
type ReceiptHandler struct {
	*BaseDocumentHandler[*receipt.Receipt, dto.CreateReceiptRequest, dto.UpdateReceiptRequest]
}

// NewReceiptHandler creates a new receipt handler.
func NewReceiptHandler(base *BaseHandler, service *receipt.Service) *ReceiptHandler {
	cfg := BaseDocumentHandlerConfig[*receipt.Receipt, dto.CreateReceiptRequest, dto.UpdateReceiptRequest]{
		Service:    service,
		EntityName: "receipt",
		MapCreateDTO: func(req dto.CreateReceiptRequest) (*receipt.Receipt, error) {
			return req.ToEntity()
		},
		ApplyUpdateDTO: func(req dto.UpdateReceiptRequest, existing *receipt.Receipt) error {
			if req.Version > 0 {
				existing.Version = req.Version
			}
			return req.ApplyTo(existing)
		},
		MapToDTO: func(doc *receipt.Receipt) any {
			return dto.FromReceipt(doc)
		},
		DocumentID: func(doc *receipt.Receipt) id.ID {
			return doc.ID
		},
		SubmitImmediately: func(req dto.CreateReceiptRequest) bool {
			return req.Submit
		},
	}

	return &ReceiptHandler{
		BaseDocumentHandler: NewBaseDocumentHandler(base, cfg),
	}
}
