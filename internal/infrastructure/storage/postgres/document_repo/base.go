// Package document_repo provides PostgreSQL implementations for document repositories.
package document_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"coldstore/internal/core/apperror"
	appctx "coldstore/internal/core/context"
	"coldstore/internal/core/entity"
	"coldstore/internal/core/id"
	"coldstore/internal/domain"
	"coldstore/internal/infrastructure/storage/postgres"
)

// BaseDocumentRepo provides header and line persistence shared by receipts
// and dispatches. T is a pointer to the header struct, L the line struct.
type BaseDocumentRepo[T any, L any] struct {
	txManager  *postgres.TxManager
	entityName string

	tableName  string
	selectCols []string

	linesTable string
	lineCols   []string

	newFn func() T
	docFn func(T) *entity.Document
}

// NewBaseDocumentRepo creates a new base document repository.
func NewBaseDocumentRepo[T any, L any](
	txManager *postgres.TxManager,
	entityName string,
	tableName string,
	linesTable string,
	newFn func() T,
	docFn func(T) *entity.Document,
) *BaseDocumentRepo[T, L] {
	return &BaseDocumentRepo[T, L]{
		txManager:  txManager,
		entityName: entityName,
		tableName:  tableName,
		selectCols: postgres.ExtractDBColumns[T](),
		linesTable: linesTable,
		lineCols:   postgres.ExtractDBColumns[L](),
		newFn:      newFn,
		docFn:      docFn,
	}
}

// Builder returns a new squirrel builder.
func (r *BaseDocumentRepo[T, L]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseDocumentRepo[T, L]) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// Create inserts a new document header.
func (r *BaseDocumentRepo[T, L]) Create(ctx context.Context, doc T) error {
	d := r.docFn(doc)
	if d.CreatedBy == "" {
		d.CreatedBy = appctx.GetOperatorName(ctx)
	}
	d.UpdatedBy = d.CreatedBy

	sql, args, err := r.buildInsert(doc)
	if err != nil {
		return err
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}
	return nil
}

func (r *BaseDocumentRepo[T, L]) buildInsert(doc T) (string, []any, error) {
	data := postgres.StructToMap(doc)
	if len(data) == 0 {
		return "", nil, fmt.Errorf("no db tags found in entity")
	}

	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := r.Builder().Insert(r.tableName).SetMap(filtered).ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build insert: %w", err)
	}
	return sql, args, nil
}

// Update writes the header with optimistic locking and bumps doc's version.
func (r *BaseDocumentRepo[T, L]) Update(ctx context.Context, doc T) error {
	d := r.docFn(doc)
	d.Touch()
	d.UpdatedBy = appctx.GetOperatorName(ctx)

	sql, args, err := r.buildUpdate(doc)
	if err != nil {
		return err
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.entityName, d.ID.String())
	}

	d.Version++
	return nil
}

func (r *BaseDocumentRepo[T, L]) buildUpdate(doc T) (string, []any, error) {
	d := r.docFn(doc)
	data := postgres.StructToMap(doc)

	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		switch col {
		case "id", "created_at", "created_by", "version":
			continue
		}
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}

	sql, args, err := r.Builder().
		Update(r.tableName).
		SetMap(filtered).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": d.ID}).
		Where(squirrel.Eq{"version": d.Version}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build update: %w", err)
	}
	return sql, args, nil
}

// Delete removes a document; its lines go with it (ON DELETE CASCADE).
func (r *BaseDocumentRepo[T, L]) Delete(ctx context.Context, docID id.ID) error {
	sql, args, err := r.Builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"id": docID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.entityName, docID.String())
	}
	return nil
}

// baseSelect creates a SELECT builder.
func (r *BaseDocumentRepo[T, L]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName)
}

// GetByID retrieves a document header by ID.
func (r *BaseDocumentRepo[T, L]) GetByID(ctx context.Context, docID id.ID) (T, error) {
	return r.getOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": docID}), docID)
}

// GetForUpdate retrieves the header with a row lock.
func (r *BaseDocumentRepo[T, L]) GetForUpdate(ctx context.Context, docID id.ID) (T, error) {
	return r.getOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": docID}).Suffix("FOR UPDATE"), docID)
}

func (r *BaseDocumentRepo[T, L]) getOne(ctx context.Context, q squirrel.SelectBuilder, docID id.ID) (T, error) {
	doc := r.newFn()

	sql, args, err := q.ToSql()
	if err != nil {
		return doc, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.querier(ctx), doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return doc, apperror.NewNotFound(r.entityName, docID.String())
		}
		return doc, fmt.Errorf("get %s: %w", r.tableName, err)
	}
	return doc, nil
}

// GetLines returns the document's lines in row order.
func (r *BaseDocumentRepo[T, L]) GetLines(ctx context.Context, docID id.ID) ([]L, error) {
	sql, args, err := r.Builder().
		Select(r.lineCols...).
		From(r.linesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	lines := make([]L, 0)
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", r.linesTable, err)
	}
	return lines, nil
}

// SaveLines replaces the document's lines.
func (r *BaseDocumentRepo[T, L]) SaveLines(ctx context.Context, docID id.ID, lines []L) error {
	delSQL, delArgs, err := r.Builder().
		Delete(r.linesTable).
		Where(squirrel.Eq{"document_id": docID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete lines: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, delSQL, delArgs...); err != nil {
		return fmt.Errorf("delete %s: %w", r.linesTable, err)
	}

	if len(lines) == 0 {
		return nil
	}

	columns, rows := r.lineRows(docID, lines)

	// Fast path: COPY when inside a transaction.
	if r.txManager.GetTx(ctx) != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		if _, err := inserter.CopyFromSlice(ctx, r.linesTable, columns, rows); err != nil {
			return fmt.Errorf("copy %s: %w", r.linesTable, err)
		}
		return nil
	}

	q := r.Builder().Insert(r.linesTable).Columns(columns...)
	for _, row := range rows {
		q = q.Values(row...)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.linesTable, err)
	}
	return nil
}

// lineRows lays out lines for COPY: document_id first, then the line columns.
func (r *BaseDocumentRepo[T, L]) lineRows(docID id.ID, lines []L) ([]string, [][]any) {
	columns := append([]string{"document_id"}, r.lineCols...)
	rows := make([][]any, 0, len(lines))
	for i := range lines {
		data := postgres.StructToMap(&lines[i])
		row := make([]any, 0, len(columns))
		row = append(row, docID)
		for _, col := range r.lineCols {
			row = append(row, data[col])
		}
		rows = append(rows, row)
	}
	return columns, rows
}

// List retrieves document headers with filtering and pagination.
func (r *BaseDocumentRepo[T, L]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Items:  make([]T, 0),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	countSQL, countArgs, listSQL, listArgs, err := r.buildList(filter)
	if err != nil {
		return result, err
	}

	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, listSQL, listArgs...); err != nil {
		return result, fmt.Errorf("list: %w", err)
	}
	return result, nil
}

func (r *BaseDocumentRepo[T, L]) buildList(filter domain.ListFilter) (countSQL string, countArgs []any, listSQL string, listArgs []any, err error) {
	q := r.applyFilter(r.baseSelect(), filter)

	countSQL, countArgs, err = r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return "", nil, "", nil, fmt.Errorf("build count: %w", err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return "", nil, "", nil, err
	}
	q = q.OrderBy(orderBy, "id")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	listSQL, listArgs, err = q.ToSql()
	if err != nil {
		return "", nil, "", nil, fmt.Errorf("build query: %w", err)
	}
	return countSQL, countArgs, listSQL, listArgs, nil
}

func (r *BaseDocumentRepo[T, L]) applyFilter(q squirrel.SelectBuilder, filter domain.ListFilter) squirrel.SelectBuilder {
	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"number": "%" + filter.Search + "%"})
	}
	if filter.Customer != "" {
		q = q.Where(squirrel.Eq{"customer": filter.Customer})
	}
	if filter.Warehouse != "" {
		q = q.Where(squirrel.Eq{"warehouse": filter.Warehouse})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}
	return q
}

func (r *BaseDocumentRepo[T, L]) parseOrderBy(orderBy string) (string, error) {
	if strings.TrimSpace(orderBy) == "" {
		return "date DESC", nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	switch field {
	case "date", "number", "created_at", "updated_at":
		return field + " " + direction, nil
	}
	return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
}

// CountByStatus counts headers in the given status.
func (r *BaseDocumentRepo[T, L]) CountByStatus(ctx context.Context, status entity.Status) (int64, error) {
	sql, args, err := r.Builder().
		Select("COUNT(*)").
		From(r.tableName).
		Where(squirrel.Eq{"status": status}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var n int64
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", r.tableName, err)
	}
	return n, nil
}
