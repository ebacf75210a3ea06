// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"strings"
	"time"

	"coldstore/internal/core/apperror"
	"coldstore/internal/core/entity"
	"coldstore/internal/core/id"
	"coldstore/internal/domain"
)

// DateLayout is the wire format of business dates.
const DateLayout = "2006-01-02"

// --- List ---

// ListRequest contains the document list query.
type ListRequest struct {
	Search    string `form:"search"`
	Customer  string `form:"customer"`
	Warehouse string `form:"warehouse"`
	Status    string `form:"status"`
	DateFrom  string `form:"dateFrom" binding:"omitempty,datetime=2006-01-02"`
	DateTo    string `form:"dateTo" binding:"omitempty,datetime=2006-01-02"`
	OrderBy   string `form:"orderBy"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset    int    `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the query to a list filter.
func (r ListRequest) ToFilter() (domain.ListFilter, error) {
	filter := domain.DefaultListFilter()
	filter.Search = r.Search
	filter.Customer = r.Customer
	filter.Warehouse = r.Warehouse
	if r.OrderBy != "" {
		filter.OrderBy = r.OrderBy
	}
	if r.Limit > 0 {
		filter.Limit = r.Limit
	}
	filter.Offset = r.Offset

	if r.Status != "" {
		status := entity.Status(r.Status)
		if !status.IsValid() {
			return filter, apperror.NewValidation("unknown status").WithDetail("status", r.Status)
		}
		filter.Status = &status
	}

	var err error
	if filter.DateFrom, err = ParseDate("dateFrom", r.DateFrom); err != nil {
		return filter, err
	}
	if filter.DateTo, err = ParseDate("dateTo", r.DateTo); err != nil {
		return filter, err
	}
	return filter, nil
}

// ListResponse wraps list results with pagination.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// NewListResponse maps a list result.
func NewListResponse[S, T any](res domain.ListResult[S], fn func(S) T) ListResponse[T] {
	items := make([]T, 0, len(res.Items))
	for _, item := range res.Items {
		items = append(items, fn(item))
	}
	return ListResponse[T]{
		Items:      items,
		TotalCount: res.TotalCount,
		Limit:      res.Limit,
		Offset:     res.Offset,
	}
}

// --- Base DTOs ---

// DocumentResponse contains the fields shared by receipts and dispatches.
type DocumentResponse struct {
	ID        string    `json:"id"`
	Number    string    `json:"number,omitempty"`
	Date      string    `json:"date"`
	Status    string    `json:"status"`
	Remarks   string    `json:"remarks,omitempty"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
}

// FromDocument creates DocumentResponse from entity.Document.
func FromDocument(d entity.Document) DocumentResponse {
	return DocumentResponse{
		ID:        d.ID.String(),
		Number:    d.Number,
		Date:      d.Date.Format(DateLayout),
		Status:    string(d.Status),
		Remarks:   d.Remarks,
		Version:   d.Version,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		CreatedBy: d.CreatedBy,
		UpdatedBy: d.UpdatedBy,
	}
}

// DocumentRequest contains the header fields shared by receipts and dispatches.
type DocumentRequest struct {
	Number  string `json:"number,omitempty"`
	Date    string `json:"date,omitempty" binding:"omitempty,datetime=2006-01-02"`
	Remarks string `json:"remarks,omitempty"`
}

// applyTo copies the header onto d. An empty number or date keeps the
// existing one.
func (r DocumentRequest) applyTo(d *entity.Document) error {
	if r.Number != "" {
		d.Number = r.Number
	}
	d.Remarks = r.Remarks
	date, err := ParseDate("date", r.Date)
	if err != nil {
		return err
	}
	if date != nil {
		d.Date = *date
	}
	return nil
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// --- Parsing helpers ---

// ParseDate parses an optional YYYY-MM-DD value.
func ParseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return nil, apperror.NewValidation(field + " must be a date in format YYYY-MM-DD").
			WithDetail("field", field).WithCause(err)
	}
	return &t, nil
}

// ParseID parses a required document id.
func ParseID(field, value string) (id.ID, error) {
	parsed, err := id.Parse(strings.TrimSpace(value))
	if err != nil {
		return id.ID{}, apperror.NewValidation("invalid " + field).
			WithDetail("field", field).WithCause(err)
	}
	return parsed, nil
}

// ParseOptionalID parses an optional document id.
func ParseOptionalID(field, value string) (*id.ID, error) {
	parsed, err := id.ParseOptional(strings.TrimSpace(value))
	if err != nil {
		return nil, apperror.NewValidation("invalid " + field).
			WithDetail("field", field).WithCause(err)
	}
	return parsed, nil
}
