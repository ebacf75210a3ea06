package dispatch

import (
	"context"

	"coldstore/internal/core/id"
	"coldstore/internal/domain"
)

// Repository defines operations for dispatch documents.
type Repository interface {
	domain.DocumentRepository[*Dispatch, Line]

	// ActiveByReceipt returns non-cancelled dispatches with a row linked to the receipt.
	ActiveByReceipt(ctx context.Context, receiptID id.ID) ([]*Dispatch, error)

	// GetByOrigin returns the transfer dispatch written by a receipt, if any.
	GetByOrigin(ctx context.Context, receiptID id.ID) (*Dispatch, error)
}
