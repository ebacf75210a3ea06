package posting

import (
	"context"
	"time"

	"coldstore/internal/core/id"
)

// AuditAction is the posting operation recorded in the audit trail.
type AuditAction string

const (
	AuditActionSubmit AuditAction = "submit"
	AuditActionCancel AuditAction = "cancel"
)

// AuditEntry is one posting event.
type AuditEntry struct {
	ID           id.ID       `json:"id"`
	DocumentType string      `json:"documentType"`
	DocumentID   id.ID       `json:"documentId"`
	Action       AuditAction `json:"action"`
	Operator     string      `json:"operator"`
	RequestID    string      `json:"requestId,omitempty"`
	Payload      any         `json:"payload,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// AuditLog records posting events inside the posting transaction.
type AuditLog interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// AuditFilter selects audit entries. Empty fields are not filtered.
type AuditFilter struct {
	DocumentType string
	DocumentID   *id.ID
	Operator     string

	// From/To bound CreatedAt, inclusive.
	From *time.Time
	To   *time.Time

	Limit int
}

// AuditReader reads the trail back, newest entry first.
type AuditReader interface {
	Entries(ctx context.Context, filter AuditFilter) ([]AuditEntry, error)
}
