// Package register_repo provides the PostgreSQL batch register.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"coldstore/internal/core/apperror"
	"coldstore/internal/core/entity"
	"coldstore/internal/core/id"
	"coldstore/internal/core/types"
	"coldstore/internal/domain/ledger"
	"coldstore/internal/infrastructure/storage/postgres"
)

const (
	movementsTable = "cs_batch_movements"
	receiptsTable  = "cs_receipts"

	// signedBags turns register rows into a balance contribution.
	signedBags = "CASE WHEN m.record_type = 'receipt' THEN m.bags ELSE -m.bags END"

	// dayExpr is the business day of a movement.
	dayExpr = "(m.period AT TIME ZONE 'UTC')::date"
)

var movementColumns = []string{
	"line_id", "recorder_id", "recorder_type", "record_type", "period",
	"receipt_id", "customer", "warehouse", "batch_no", "goods_item", "item_group",
	"bags", "created_at",
}

// BatchRepo implements ledger.Repository.
type BatchRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewBatchRepo creates a new batch register repository.
func NewBatchRepo(txManager *postgres.TxManager) *BatchRepo {
	return &BatchRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var _ ledger.Repository = (*BatchRepo)(nil)

func movementRow(m entity.BatchMovement) []any {
	return []any{
		m.LineID, m.RecorderID, m.RecorderType, m.RecordType, m.Period,
		m.ReceiptID, m.Customer, m.Warehouse, m.BatchNo, m.GoodsItem, m.ItemGroup,
		m.Bags, m.CreatedAt,
	}
}

// CreateMovements batch inserts movements.
func (r *BatchRepo) CreateMovements(ctx context.Context, movements []entity.BatchMovement) error {
	if len(movements) == 0 {
		return nil
	}

	// Fast path: COPY when inside a transaction.
	if tx := r.txManager.GetTx(ctx); tx != nil {
		rows := make([][]any, 0, len(movements))
		for _, m := range movements {
			rows = append(rows, movementRow(m))
		}
		inserter := postgres.NewBatchInserter(r.txManager)
		if _, err := inserter.CopyFromSlice(ctx, movementsTable, movementColumns, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	// Fallback: plain INSERT outside a transaction.
	q := r.builder.Insert(movementsTable).Columns(movementColumns...)
	for _, m := range movements {
		q = q.Values(movementRow(m)...)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}
	return nil
}

// DeleteMovementsByRecorder removes all movements of a document.
func (r *BatchRepo) DeleteMovementsByRecorder(ctx context.Context, recorderID id.ID) error {
	sql, args, err := r.builder.Delete(movementsTable).
		Where(squirrel.Eq{"recorder_id": recorderID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete movements: %w", err)
	}
	return nil
}

// GetMovementsByRecorder retrieves movements for a document.
func (r *BatchRepo) GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.BatchMovement, error) {
	sql, args, err := r.builder.Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"recorder_id": recorderID}).
		OrderBy("created_at", "line_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.BatchMovement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}
	return movements, nil
}

// SumBalance returns the signed sum of bags matching the filter.
func (r *BatchRepo) SumBalance(ctx context.Context, filter ledger.BalanceFilter) (types.Bags, error) {
	sql, args, err := r.sumQuery(filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var balance int64
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&balance); err != nil {
		return 0, fmt.Errorf("sum balance: %w", err)
	}
	return types.Bags(balance), nil
}

func (r *BatchRepo) sumQuery(filter ledger.BalanceFilter) squirrel.SelectBuilder {
	q := r.builder.Select("COALESCE(SUM(" + signedBags + "), 0)").
		From(movementsTable + " m")
	if filter.DateFrom != nil || filter.DateTo != nil {
		q = q.Join(receiptsTable + " r ON r.id = m.receipt_id")
	}
	return applyFilter(q, filter)
}

// Balances groups matching movements per (receipt, batch), oldest receipt first.
func (r *BatchRepo) Balances(ctx context.Context, filter ledger.BalanceFilter) ([]ledger.ReceiptBatchBalance, error) {
	sql, args, err := r.balancesQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows := make([]ledger.ReceiptBatchBalance, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select balances: %w", err)
	}
	return rows, nil
}

func (r *BatchRepo) balancesQuery(filter ledger.BalanceFilter) squirrel.SelectBuilder {
	q := r.builder.Select(
		"m.receipt_id",
		"r.date AS receipt_date",
		"m.customer",
		"m.warehouse",
		"m.batch_no",
		"COALESCE(MAX(CASE WHEN m.record_type = 'receipt' THEN m.goods_item END), '') AS goods_item",
		"COALESCE(MAX(CASE WHEN m.record_type = 'receipt' THEN m.item_group END), '') AS item_group",
		"COALESCE(SUM(CASE WHEN m.record_type = 'receipt' THEN m.bags ELSE 0 END), 0) AS bags_in",
		"COALESCE(SUM(CASE WHEN m.record_type = 'expense' THEN m.bags ELSE 0 END), 0) AS bags_out",
		"COALESCE(SUM("+signedBags+"), 0) AS balance",
	).
		From(movementsTable + " m").
		Join(receiptsTable + " r ON r.id = m.receipt_id")

	return applyFilter(q, filter).
		GroupBy("m.receipt_id", "r.date", "m.customer", "m.warehouse", "m.batch_no").
		OrderBy("r.date", "m.receipt_id", "m.batch_no")
}

// DailyMovements sums bags in and out per business day and item group.
func (r *BatchRepo) DailyMovements(ctx context.Context, filter ledger.DailyFilter) ([]ledger.DailyMovement, error) {
	sql, args, err := r.dailyQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows := make([]ledger.DailyMovement, 0)
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select daily movements: %w", err)
	}
	return rows, nil
}

func (r *BatchRepo) dailyQuery(f ledger.DailyFilter) squirrel.SelectBuilder {
	q := r.builder.Select(
		dayExpr+" AS day",
		"m.item_group",
		"COALESCE(SUM(CASE WHEN m.record_type = 'receipt' THEN m.bags ELSE 0 END), 0) AS bags_in",
		"COALESCE(SUM(CASE WHEN m.record_type = 'expense' THEN m.bags ELSE 0 END), 0) AS bags_out",
	).From(movementsTable + " m")

	if f.Customer != "" {
		q = q.Where(squirrel.Eq{"m.customer": f.Customer})
	}
	if f.Warehouse != "" {
		q = q.Where(squirrel.Eq{"m.warehouse": f.Warehouse})
	}
	if f.ItemGroup != "" {
		q = q.Where(squirrel.Eq{"m.item_group": f.ItemGroup})
	}
	if !f.To.IsZero() {
		q = q.Where(squirrel.LtOrEq{dayExpr: f.To.UTC().Format("2006-01-02")})
	}
	return q.GroupBy(dayExpr, "m.item_group").OrderBy("day", "m.item_group")
}

// applyFilter adds the balance filter. Date bounds need the receipts join.
func applyFilter(q squirrel.SelectBuilder, f ledger.BalanceFilter) squirrel.SelectBuilder {
	if f.ReceiptID != nil {
		q = q.Where(squirrel.Eq{"m.receipt_id": *f.ReceiptID})
	}
	if f.ExcludeRecorder != nil {
		q = q.Where(squirrel.NotEq{"m.recorder_id": *f.ExcludeRecorder})
	}
	if f.Customer != "" {
		q = q.Where(squirrel.Eq{"m.customer": f.Customer})
	}
	if f.Warehouse != "" {
		q = q.Where(squirrel.Eq{"m.warehouse": f.Warehouse})
	}
	if f.BatchNo != "" {
		q = q.Where(squirrel.Eq{"m.batch_no": f.BatchNo})
	}
	if f.BatchLike != "" {
		q = q.Where(squirrel.ILike{"m.batch_no": "%" + f.BatchLike + "%"})
	}
	if f.ItemGroup != "" {
		q = q.Where(squirrel.Eq{"m.item_group": f.ItemGroup})
	}
	if f.GoodsItem != "" {
		q = q.Where(squirrel.Eq{"m.goods_item": f.GoodsItem})
	}
	if f.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"r.date": *f.DateFrom})
	}
	if f.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"r.date": *f.DateTo})
	}
	return q
}

// GetReceiptRef returns the receipt header or a NOT_FOUND AppError.
func (r *BatchRepo) GetReceiptRef(ctx context.Context, receiptID id.ID) (entity.ReceiptRef, error) {
	var ref entity.ReceiptRef

	sql, args, err := r.builder.Select("id", "customer", "warehouse", "date", "status").
		From(receiptsTable).
		Where(squirrel.Eq{"id": receiptID}).
		ToSql()
	if err != nil {
		return ref, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &ref, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return ref, apperror.NewNotFound("Receipt", receiptID.String())
		}
		return ref, fmt.Errorf("get receipt ref: %w", err)
	}
	return ref, nil
}

// LockBatches takes a transaction-scoped advisory lock per key, in the given
// order, in one round-trip.
func (r *BatchRepo) LockBatches(ctx context.Context, keys []entity.BatchKey) error {
	if len(keys) == 0 {
		return nil
	}

	queries := make([]postgres.BatchQuery, 0, len(keys))
	for _, k := range keys {
		queries = append(queries, lockQuery(k))
	}

	if err := postgres.NewBatchExecutor(r.txManager).ExecuteBatch(ctx, queries); err != nil {
		return fmt.Errorf("lock batches: %w", err)
	}
	return nil
}

func lockQuery(k entity.BatchKey) postgres.BatchQuery {
	return postgres.BatchQuery{
		SQL:  "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))",
		Args: []any{k.String()},
	}
}
