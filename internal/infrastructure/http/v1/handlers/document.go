package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"coldstore/internal/core/id"
	"coldstore/internal/domain"
	"coldstore/internal/infrastructure/http/v1/dto"
	"coldstore/pkg/logger"
)

// DocumentService defines the interface that services must implement for BaseDocumentHandler.
type DocumentService[T any] interface {
	GetByID(ctx context.Context, id id.ID) (T, error)
	Create(ctx context.Context, doc T) error
	Update(ctx context.Context, doc T) error
	Delete(ctx context.Context, id id.ID) error
	Submit(ctx context.Context, id id.ID) (T, error)
	Cancel(ctx context.Context, id id.ID) (T, error)
	Validate(ctx context.Context, id id.ID) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error)
}

// BaseDocumentHandler provides generic HTTP handlers for receipts and dispatches.
type BaseDocumentHandler[T any, CreateDTO any, UpdateDTO any] struct {
	*BaseHandler
	service    DocumentService[T]
	entityName string

	mapCreateDTO      func(req CreateDTO) (T, error)
	applyUpdateDTO    func(req UpdateDTO, existing T) error
	mapToDTO          func(doc T) any
	documentID        func(doc T) id.ID
	submitImmediately func(req CreateDTO) bool
}

// BaseDocumentHandlerConfig configures the document handler.
type BaseDocumentHandlerConfig[T any, CreateDTO any, UpdateDTO any] struct {
	Service           DocumentService[T]
	EntityName        string
	MapCreateDTO      func(req CreateDTO) (T, error)
	ApplyUpdateDTO    func(req UpdateDTO, existing T) error
	MapToDTO          func(doc T) any
	DocumentID        func(doc T) id.ID
	SubmitImmediately func(req CreateDTO) bool
}

// NewBaseDocumentHandler creates a new base document handler.
func NewBaseDocumentHandler[T any, CreateDTO any, UpdateDTO any](
	base *BaseHandler,
	cfg BaseDocumentHandlerConfig[T, CreateDTO, UpdateDTO],
) *BaseDocumentHandler[T, CreateDTO, UpdateDTO] {
	return &BaseDocumentHandler[T, CreateDTO, UpdateDTO]{
		BaseHandler:       base,
		service:           cfg.Service,
		entityName:        cfg.EntityName,
		mapCreateDTO:      cfg.MapCreateDTO,
		applyUpdateDTO:    cfg.ApplyUpdateDTO,
		mapToDTO:          cfg.MapToDTO,
		documentID:        cfg.DocumentID,
		submitImmediately: cfg.SubmitImmediately,
	}
}

// List handles GET /{entity}
func (h *BaseDocumentHandler[T, CreateDTO, UpdateDTO]) List(c *gin.Context) {
	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}

	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, h.mapToDTO))
}

// Get handles GET /{entity}/:id
func (h *BaseDocumentHandler[T, CreateDTO, UpdateDTO]) Get(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, h.mapToDTO(doc))
}

// Create handles POST /{entity}
// With the submit flag set the saved draft is submitted right away; a failed
// submit leaves the draft in place.
func (h *BaseDocumentHandler[T, CreateDTO, UpdateDTO]) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req CreateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.mapCreateDTO(req)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(ctx, doc); err != nil {
		h.Error(c, err)
		return
	}

	if h.submitImmediately != nil && h.submitImmediately(req) {
		submitted, err := h.service.Submit(ctx, h.documentID(doc))
		if err != nil {
			logger.Warn(ctx, "submit after create failed",
				"entity", h.entityName,
				"id", h.documentID(doc),
				"error", err,
			)
			h.Error(c, err)
			return
		}
		doc = submitted
	}

	h.Created(c, h.mapToDTO(doc))
}

// Update handles PUT /{entity}/:id
func (h *BaseDocumentHandler[T, CreateDTO, UpdateDTO]) Update(c *gin.Context) {
	ctx := c.Request.Context()

	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req UpdateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.GetByID(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.applyUpdateDTO(req, doc); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Update(ctx, doc); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, h.mapToDTO(doc))
}

// Delete handles DELETE /{entity}/:id
func (h *BaseDocumentHandler[T, CreateDTO, UpdateDTO]) Delete(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// Submit handles POST /{entity}/:id/submit
func (h *BaseDocumentHandler[T, CreateDTO, UpdateDTO]) Submit(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.Submit(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, h.mapToDTO(doc))
}

// Cancel handles POST /{entity}/:id/cancel
func (h *BaseDocumentHandler[T, CreateDTO, UpdateDTO]) Cancel(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.Cancel(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, h.mapToDTO(doc))
}

// Validate handles POST /{entity}/:id/validate
// It runs the submit-time balance checks without posting anything.
func (h *BaseDocumentHandler[T, CreateDTO, UpdateDTO]) Validate(c *gin.Context) {
	docID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Validate(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"id": docID, "valid": true})
}
