// Package domain provides core business logic interfaces and types.
package domain

import (
	"context"
	"time"

	"coldstore/internal/core/entity"
	"coldstore/internal/core/id"
)

// --- Filter & Pagination ---

// ListFilter contains common filtering options for document list operations.
type ListFilter struct {
	// Search matches the document number
	Search string

	Customer  string
	Warehouse string
	Status    *entity.Status
	DateFrom  *time.Time
	DateTo    *time.Time

	// OrderBy specifies sorting (e.g., "date", "-created_at")
	OrderBy string

	// Pagination
	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "-date",
	}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// --- Repository Interfaces ---

// DocumentRepository defines header and line persistence shared by receipts and dispatches.
type DocumentRepository[T any, L any] interface {
	Create(ctx context.Context, doc T) error
	GetByID(ctx context.Context, docID id.ID) (T, error)

	// GetForUpdate retrieves the header with a row lock.
	GetForUpdate(ctx context.Context, docID id.ID) (T, error)

	// Update modifies the header with optimistic locking on version.
	Update(ctx context.Context, doc T) error

	// Delete removes a draft document and its lines.
	Delete(ctx context.Context, docID id.ID) error

	GetLines(ctx context.Context, docID id.ID) ([]L, error)
	SaveLines(ctx context.Context, docID id.ID, lines []L) error

	List(ctx context.Context, filter ListFilter) (ListResult[T], error)

	// CountByStatus returns how many documents are in the given status.
	CountByStatus(ctx context.Context, status entity.Status) (int64, error)
}
