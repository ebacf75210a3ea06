// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
)

// DocumentRouteHandler defines the interface for document handlers.
// Receipts and dispatches both implement it.
type DocumentRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	Submit(c *gin.Context)
	Cancel(c *gin.Context)
	Validate(c *gin.Context)
}

// DocumentInvoiceHandler is an optional interface for documents that bill.
type DocumentInvoiceHandler interface {
	Invoice(c *gin.Context)
}

// RegisterDocumentRoutes registers standard CRUD and lifecycle routes for a document.
// If the handler also implements DocumentInvoiceHandler, the invoice route is registered too.
func RegisterDocumentRoutes(group *gin.RouterGroup, handler DocumentRouteHandler) {
	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", handler.Update)
	group.DELETE("/:id", handler.Delete)
	group.POST("/:id/submit", handler.Submit)
	group.POST("/:id/cancel", handler.Cancel)
	group.POST("/:id/validate", handler.Validate)

	if invoiceHandler, ok := handler.(DocumentInvoiceHandler); ok {
		group.GET("/:id/invoice", invoiceHandler.Invoice)
	}
}
