package entity

import (
	"context"
	"time"

	"coldstore/internal/core/apperror"
	"coldstore/internal/core/id"
)

// Status is the document lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusCancelled Status = "cancelled"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusCancelled:
		return true
	}
	return false
}

// Document is the base type for receipts and dispatches.
type Document struct {
	BaseDocument

	// Number is supplied by the caller; the ID is the identity.
	Number string `db:"number" json:"number,omitempty"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	Status Status `db:"status" json:"status"`

	// Remarks is an optional user comment
	Remarks string `db:"remarks" json:"remarks,omitempty"`
}

// NewDocument creates a new draft Document with generated ID.
func NewDocument() Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC(),
		Status:       StatusDraft,
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}

// CanModify checks if document can be modified.
// Only drafts are editable; submitted documents are immutable.
func (d *Document) CanModify() error {
	switch d.Status {
	case StatusSubmitted:
		return apperror.NewBusinessRule(
			apperror.CodeDocumentSubmitted,
			"Cannot modify submitted document. Cancel it first.",
		).WithDetail("document_id", d.ID.String())
	case StatusCancelled:
		return apperror.NewBusinessRule(
			apperror.CodeDocumentCancelled,
			"Cannot modify cancelled document.",
		).WithDetail("document_id", d.ID.String())
	}
	return nil
}

// CanSubmit checks the document is still a draft.
func (d *Document) CanSubmit() error {
	return d.CanModify()
}

// CanCancel checks the document is submitted.
func (d *Document) CanCancel() error {
	if d.Status != StatusSubmitted {
		return apperror.NewBusinessRule(
			apperror.CodeBusinessRule,
			"Only submitted documents can be cancelled.",
		).WithDetail("document_id", d.ID.String()).
			WithDetail("status", string(d.Status))
	}
	return nil
}

// MarkSubmitted moves the document to submitted.
func (d *Document) MarkSubmitted() {
	d.Status = StatusSubmitted
	d.Touch()
}

// MarkCancelled moves the document to cancelled. The record is retained.
func (d *Document) MarkCancelled() {
	d.Status = StatusCancelled
	d.Touch()
}

// IsFutureDated checks if document date is after today.
func (d *Document) IsFutureDated(now time.Time) bool {
	today := now.UTC().Truncate(24 * time.Hour)
	return d.Date.UTC().Truncate(24 * time.Hour).After(today)
}

// GetID returns the document ID (Postable interface).
func (d *Document) GetID() id.ID {
	return d.ID
}

// GetStatus returns the lifecycle state (Postable interface).
func (d *Document) GetStatus() Status {
	return d.Status
}
