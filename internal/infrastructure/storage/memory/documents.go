package memory

import (
	"context"
	"sort"

	"coldstore/internal/core/apperror"
	"coldstore/internal/core/entity"
	"coldstore/internal/core/id"
	"coldstore/internal/domain/documents/dispatch"
	"coldstore/internal/domain/documents/receipt"
)

func newReceiptTable(s *Store) *docTable[*receipt.Receipt, receipt.Line] {
	return newDocTable[*receipt.Receipt, receipt.Line](s, "Receipt",
		func(r *receipt.Receipt) *entity.Document { return &r.Document },
		func(r *receipt.Receipt) *receipt.Receipt {
			c := *r
			c.Lines = nil
			if r.SourceReceipt != nil {
				src := *r.SourceReceipt
				c.SourceReceipt = &src
			}
			return &c
		},
		func(r *receipt.Receipt) (string, string) { return r.Customer, r.Warehouse },
	)
}

func newDispatchTable(s *Store) *docTable[*dispatch.Dispatch, dispatch.Line] {
	return newDocTable[*dispatch.Dispatch, dispatch.Line](s, "Dispatch",
		func(d *dispatch.Dispatch) *entity.Document { return &d.Document },
		func(d *dispatch.Dispatch) *dispatch.Dispatch {
			c := *d
			c.Lines = nil
			if d.OriginReceipt != nil {
				origin := *d.OriginReceipt
				c.OriginReceipt = &origin
			}
			return &c
		},
		func(d *dispatch.Dispatch) (string, string) { return d.Customer, d.Warehouse },
	)
}

// ReceiptRepo implements receipt.Repository.
type ReceiptRepo struct {
	*docTable[*receipt.Receipt, receipt.Line]
}

// Receipts returns the receipt repository of the store.
func (s *Store) Receipts() *ReceiptRepo {
	return &ReceiptRepo{docTable: s.receipts}
}

var _ receipt.Repository = (*ReceiptRepo)(nil)

// DispatchRepo implements dispatch.Repository.
type DispatchRepo struct {
	*docTable[*dispatch.Dispatch, dispatch.Line]
}

// Dispatches returns the dispatch repository of the store.
func (s *Store) Dispatches() *DispatchRepo {
	return &DispatchRepo{docTable: s.dispatches}
}

var _ dispatch.Repository = (*DispatchRepo)(nil)

// ActiveByReceipt implements dispatch.Repository.
func (r *DispatchRepo) ActiveByReceipt(_ context.Context, receiptID id.ID) ([]*dispatch.Dispatch, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*dispatch.Dispatch
	for docID, row := range r.rows {
		if row.Status == entity.StatusCancelled {
			continue
		}
		for _, line := range r.lines[docID] {
			if line.LinkedReceipt == receiptID {
				out = append(out, r.clone(row))
				break
			}
		}
	}
	sortByCreated(out)
	return out, nil
}

// GetByOrigin implements dispatch.Repository.
func (r *DispatchRepo) GetByOrigin(_ context.Context, receiptID id.ID) (*dispatch.Dispatch, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var found *dispatch.Dispatch
	for _, row := range r.rows {
		if row.OriginReceipt == nil || *row.OriginReceipt != receiptID {
			continue
		}
		if found == nil || row.CreatedAt.After(found.CreatedAt) {
			found = row
		}
	}
	if found == nil {
		return nil, apperror.NewNotFound("Dispatch", receiptID.String()).
			WithDetail("origin_receipt", receiptID.String())
	}
	return r.clone(found), nil
}

func sortByCreated(docs []*dispatch.Dispatch) {
	sort.Slice(docs, func(i, j int) bool { return docs[i].CreatedAt.Before(docs[j].CreatedAt) })
}
