package reports

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"coldstore/internal/core/id"
	"coldstore/internal/domain/ledger"
	"coldstore/internal/domain/posting"
)

type fakeBalances struct {
	rows      []ledger.ReceiptBatchBalance
	filter    ledger.BalanceFilter
	movements []ledger.DailyMovement
	daily     ledger.DailyFilter
}

func (f *fakeBalances) Balances(_ context.Context, filter ledger.BalanceFilter) ([]ledger.ReceiptBatchBalance, error) {
	f.filter = filter
	return f.rows, nil
}

func (f *fakeBalances) DailyMovements(_ context.Context, filter ledger.DailyFilter) ([]ledger.DailyMovement, error) {
	f.daily = filter
	return f.movements, nil
}

// fakeTx runs fn inline and counts read-only snapshots.
type fakeTx struct {
	readOnly int
}

func (f *fakeTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeTx) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	f.readOnly++
	return fn(ctx)
}

type fakeAudit struct {
	entries []posting.AuditEntry
	filter  posting.AuditFilter
}

func (f *fakeAudit) Entries(_ context.Context, filter posting.AuditFilter) ([]posting.AuditEntry, error) {
	f.filter = filter
	return f.entries, nil
}

func newTestService(balances BalanceSource, receipts, dispatches DraftCounter) *Service {
	return NewService(&fakeTx{}, balances, receipts, dispatches, &fakeAudit{})
}

type fakeCounter struct {
	n   int64
	err error
}

func (f fakeCounter) CountDrafts(context.Context) (int64, error) { return f.n, f.err }

func day(d int) time.Time {
	return time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC)
}

func ledgerRows() []ledger.ReceiptBatchBalance {
	r1, r2, r3 := id.New(), id.New(), id.New()
	return []ledger.ReceiptBatchBalance{
		{ReceiptID: r1, ReceiptDate: day(1), Customer: "C1", Warehouse: "W1", BatchNo: "B1", In: 40, Out: 15, Balance: 25},
		{ReceiptID: r2, ReceiptDate: day(3), Customer: "C1", Warehouse: "W1", BatchNo: "B2", In: 10, Out: 10, Balance: 0},
		{ReceiptID: r3, ReceiptDate: day(5), Customer: "C1", Warehouse: "W1", BatchNo: "B1", In: 5, Out: 0, Balance: 5},
	}
}

func TestService_StockLedger(t *testing.T) {
	balances := &fakeBalances{rows: ledgerRows()}
	svc := newTestService(balances, fakeCounter{}, fakeCounter{})
	asOf := day(11)

	report, err := svc.StockLedger(context.Background(), StockLedgerFilter{Customer: "C1", BatchNo: "B", AsOf: &asOf})
	require.NoError(t, err)

	assert.Equal(t, "C1", balances.filter.Customer)
	assert.Equal(t, "B", balances.filter.BatchLike)

	require.Len(t, report.Rows, 2, "zero balances are hidden")
	assert.Equal(t, 10, report.Rows[0].DaysInStore)
	assert.EqualValues(t, 25, report.Rows[0].CumulativeBalance)
	assert.EqualValues(t, 30, report.Rows[1].CumulativeBalance)
	assert.EqualValues(t, 45, report.Totals.In)
	assert.EqualValues(t, 15, report.Totals.Out)
	assert.EqualValues(t, 30, report.Totals.Balance)
}

func TestService_StockLedgerShowZero(t *testing.T) {
	svc := newTestService(&fakeBalances{rows: ledgerRows()}, fakeCounter{}, fakeCounter{})
	asOf := day(11)

	report, err := svc.StockLedger(context.Background(), StockLedgerFilter{ShowZeroBalance: true, AsOf: &asOf})
	require.NoError(t, err)
	require.Len(t, report.Rows, 3)
	assert.EqualValues(t, 25, report.Rows[1].CumulativeBalance)
	assert.EqualValues(t, 55, report.Totals.In)
}

func TestService_BatchOptions(t *testing.T) {
	svc := newTestService(&fakeBalances{rows: ledgerRows()}, fakeCounter{}, fakeCounter{})

	options, err := svc.BatchOptions(context.Background(), BatchQuery{Customer: "C1", Warehouse: "W1"})
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, "B1", options[0].BatchNo)
	assert.EqualValues(t, 30, options[0].Available)
	assert.Equal(t, "B1 | Avl: 30", options[0].Label)

	none, err := svc.BatchOptions(context.Background(), BatchQuery{Warehouse: "W1"})
	require.NoError(t, err)
	assert.Empty(t, none, "no customer, no options")
}

func TestService_Pending(t *testing.T) {
	txm := &fakeTx{}
	svc := NewService(txm, &fakeBalances{}, fakeCounter{n: 2}, fakeCounter{n: 3}, &fakeAudit{})

	counts, err := svc.Pending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PendingCounts{Receipts: 2, Dispatches: 3, Total: 5}, counts)
	assert.Equal(t, 1, txm.readOnly, "both counts share one snapshot")

	svc = newTestService(&fakeBalances{}, fakeCounter{err: errors.New("db down")}, fakeCounter{})
	_, err = svc.Pending(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestWriteStockLedgerXLSX(t *testing.T) {
	svc := newTestService(&fakeBalances{rows: ledgerRows()}, fakeCounter{}, fakeCounter{})
	asOf := day(11)
	report, err := svc.StockLedger(context.Background(), StockLedgerFilter{AsOf: &asOf})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteStockLedgerXLSX(&buf, report))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(stockLedgerSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4, "header, two rows, totals")
	assert.Equal(t, "Receipt Date", rows[0][0])
	assert.Equal(t, "2026-01-01", rows[1][0])
	assert.Equal(t, "25", rows[1][10])
	assert.Equal(t, "Total", rows[3][5])
	assert.Equal(t, "30", rows[3][10])
}
