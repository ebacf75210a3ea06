package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"coldstore/internal/core/apperror"
	"coldstore/internal/core/entity"
	"coldstore/internal/core/id"
	"coldstore/internal/domain/documents/dispatch"
	"coldstore/internal/infrastructure/storage/postgres"
)

const (
	dispatchTable      = "cs_dispatches"
	dispatchLinesTable = "cs_dispatch_lines"
)

// DispatchRepo implements dispatch.Repository.
type DispatchRepo struct {
	*BaseDocumentRepo[*dispatch.Dispatch, dispatch.Line]
}

// NewDispatchRepo creates a new dispatch repository.
func NewDispatchRepo(txManager *postgres.TxManager) *DispatchRepo {
	return &DispatchRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*dispatch.Dispatch, dispatch.Line](
			txManager,
			"Dispatch",
			dispatchTable,
			dispatchLinesTable,
			func() *dispatch.Dispatch { return &dispatch.Dispatch{} },
			func(d *dispatch.Dispatch) *entity.Document { return &d.Document },
		),
	}
}

var _ dispatch.Repository = (*DispatchRepo)(nil)

// ActiveByReceipt implements dispatch.Repository.
func (r *DispatchRepo) ActiveByReceipt(ctx context.Context, receiptID id.ID) ([]*dispatch.Dispatch, error) {
	sql, args, err := r.activeByReceiptQuery(receiptID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []*dispatch.Dispatch
	if err := pgxscan.Select(ctx, r.querier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select active dispatches: %w", err)
	}
	return out, nil
}

func (r *DispatchRepo) activeByReceiptQuery(receiptID id.ID) squirrel.SelectBuilder {
	linked := r.Builder().
		Select("1").
		From(dispatchLinesTable + " l").
		Where("l.document_id = " + dispatchTable + ".id").
		Where(squirrel.Eq{"l.linked_receipt": receiptID})

	return r.baseSelect().
		Where(squirrel.NotEq{"status": entity.StatusCancelled}).
		Where(squirrel.Expr("EXISTS (?)", linked)).
		OrderBy("created_at", "id")
}

// GetByOrigin implements dispatch.Repository.
func (r *DispatchRepo) GetByOrigin(ctx context.Context, receiptID id.ID) (*dispatch.Dispatch, error) {
	sql, args, err := r.baseSelect().
		Where(squirrel.Eq{"origin_receipt": receiptID}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	doc := &dispatch.Dispatch{}
	if err := pgxscan.Get(ctx, r.querier(ctx), doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("Dispatch", receiptID.String()).
				WithDetail("origin_receipt", receiptID.String())
		}
		return nil, fmt.Errorf("get dispatch by origin: %w", err)
	}
	return doc, nil
}
