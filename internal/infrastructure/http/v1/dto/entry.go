package dto

import "coldstore/internal/domain/entry"

// RowChangeRequest is one field edit on a document row.
type RowChangeRequest struct {
	Document entry.Context `json:"document"`
	Row      entry.Row     `json:"row"`
	Change   entry.Change  `json:"change" binding:"required"`
}

// RowChangeResponse is the header and row after the edit and the notice to show.
type RowChangeResponse struct {
	Document entry.Context `json:"document"`
	Row      entry.Row     `json:"row"`
	Notice   entry.Notice  `json:"notice"`
}

// HeaderChangeRequest is one field edit on a document header.
type HeaderChangeRequest struct {
	Document entry.Context `json:"document"`
	Rows     []entry.Row   `json:"rows"`
	Change   entry.Change  `json:"change" binding:"required"`
}

// HeaderChangeResponse is the header and rows after the edit.
type HeaderChangeResponse struct {
	Document entry.Context `json:"document"`
	Rows     []entry.Row   `json:"rows"`
	Notice   entry.Notice  `json:"notice"`
}
