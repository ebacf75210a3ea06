package register_repo

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coldstore/internal/core/entity"
	"coldstore/internal/core/id"
	"coldstore/internal/domain/ledger"
)

func TestSumQuery(t *testing.T) {
	repo := NewBatchRepo(nil)
	receiptID := id.New()
	exclude := id.New()

	sql, args, err := repo.sumQuery(ledger.BalanceFilter{
		ReceiptID:       &receiptID,
		BatchNo:         "B1",
		ExcludeRecorder: &exclude,
	}).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT COALESCE(SUM(CASE WHEN m.record_type = 'receipt' THEN m.bags ELSE -m.bags END), 0) "+
			"FROM cs_batch_movements m "+
			"WHERE m.receipt_id = $1 AND m.recorder_id <> $2 AND m.batch_no = $3",
		sql)
	assert.Equal(t, []any{receiptID.String(), exclude.String(), "B1"}, args)
}

func TestSumQuery_DateJoinsReceipts(t *testing.T) {
	repo := NewBatchRepo(nil)
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	sql, args, err := repo.sumQuery(ledger.BalanceFilter{Customer: "C1", DateFrom: &from}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "JOIN cs_receipts r ON r.id = m.receipt_id")
	assert.Contains(t, sql, "m.customer = $1 AND r.date >= $2")
	assert.Equal(t, []any{"C1", from}, args)
}

func TestBalancesQuery(t *testing.T) {
	repo := NewBatchRepo(nil)

	sql, args, err := repo.balancesQuery(ledger.BalanceFilter{
		Customer:  "C1",
		Warehouse: "W1",
		BatchLike: "b1",
		ItemGroup: "Net Bag",
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "AS bags_in")
	assert.Contains(t, sql, "AS balance")
	assert.Contains(t, sql, "WHERE m.customer = $1 AND m.warehouse = $2 AND m.batch_no ILIKE $3 AND m.item_group = $4")
	assert.Contains(t, sql, "GROUP BY m.receipt_id, r.date, m.customer, m.warehouse, m.batch_no")
	assert.True(t, strings.HasSuffix(sql, "ORDER BY r.date, m.receipt_id, m.batch_no"))
	assert.Equal(t, []any{"C1", "W1", "%b1%", "Net Bag"}, args)
}

func TestLockQuery(t *testing.T) {
	k := entity.BatchKey{Customer: "C1", Warehouse: "W1", BatchNo: "B1"}
	q := lockQuery(k)

	assert.Equal(t, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", q.SQL)
	assert.Equal(t, []any{"C1\x1fW1\x1fB1"}, q.Args)
}

func TestMovementRowMatchesColumns(t *testing.T) {
	m := entity.NewBatchMovement(id.New(), "Receipt", time.Now(), entity.RecordTypeReceipt)
	assert.Len(t, movementRow(m), len(movementColumns))
}

func TestDailyQuery(t *testing.T) {
	repo := NewBatchRepo(nil)

	sql, args, err := repo.dailyQuery(ledger.DailyFilter{
		Warehouse: "W1",
		To:        time.Date(2026, 1, 31, 18, 0, 0, 0, time.UTC),
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "(m.period AT TIME ZONE 'UTC')::date AS day")
	assert.Contains(t, sql, "WHERE m.warehouse = $1 AND (m.period AT TIME ZONE 'UTC')::date <= $2")
	assert.True(t, strings.HasSuffix(sql, "GROUP BY (m.period AT TIME ZONE 'UTC')::date, m.item_group ORDER BY day, m.item_group"), sql)
	assert.Equal(t, []any{"W1", "2026-01-31"}, args)
}
