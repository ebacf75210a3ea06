package dispatch_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coldstore/internal/app"
	"coldstore/internal/core/apperror"
	"coldstore/internal/core/entity"
	"coldstore/internal/core/id"
	"coldstore/internal/core/types"
	"coldstore/internal/domain/documents/dispatch"
	"coldstore/internal/domain/documents/receipt"
	"coldstore/internal/domain/rates"
	"coldstore/internal/infrastructure/storage/memory"
)

type fixture struct {
	svc   *app.Services
	store *memory.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.New()
	store.SetRules([]rates.Rule{
		{ItemGroup: "Jute Bag", BillingType: rates.BillingDaily, Rate: types.MustMoney("2"), LoadingRate: types.MustMoney("1.5")},
	})
	return fixture{svc: app.New(app.MemoryStorage(store), app.Options{}), store: store}
}

func day(d int) time.Time {
	return time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC)
}

func (f fixture) receipt(t *testing.T, bags types.Bags) *receipt.Receipt {
	t.Helper()
	ctx := context.Background()
	r := receipt.NewReceipt(receipt.TypeNew, "C1", "W1")
	r.Date = day(1)
	r.AddLine("Potato", "Jute Bag", "B1", bags)
	require.NoError(t, f.svc.Receipts.Create(ctx, r))
	r, err := f.svc.Receipts.Submit(ctx, r.ID)
	require.NoError(t, err)
	return r
}

func (f fixture) draft(t *testing.T, receiptID id.ID, bags ...types.Bags) *dispatch.Dispatch {
	t.Helper()
	d := dispatch.NewDispatch("C1", rates.BillingDaily)
	d.Date = day(11)
	for _, b := range bags {
		d.AddLine(receiptID, "W1", "B1", "Potato", "Jute Bag", b)
	}
	require.NoError(t, f.svc.Dispatches.Create(context.Background(), d))
	return d
}

func (f fixture) balance(t *testing.T, receiptID id.ID) types.Bags {
	t.Helper()
	bags, err := f.svc.Ledger.ReceiptBalance(context.Background(), receiptID, "B1", nil)
	require.NoError(t, err)
	return bags
}

func TestService_SubmitWithinBalance(t *testing.T) {
	f := newFixture(t)
	r := f.receipt(t, 40)
	d := f.draft(t, r.ID, 15)

	submitted, err := f.svc.Dispatches.Submit(context.Background(), d.ID)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusSubmitted, submitted.Status)
	assert.Equal(t, "30", submitted.TotalAmount.String())
	assert.EqualValues(t, 25, f.balance(t, r.ID))
}

func TestService_SubmitOverdrawRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := f.receipt(t, 40)

	first := f.draft(t, r.ID, 15)
	_, err := f.svc.Dispatches.Submit(ctx, first.ID)
	require.NoError(t, err)

	second := f.draft(t, r.ID, 30)
	_, err = f.svc.Dispatches.Submit(ctx, second.ID)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, "Row 1: Insufficient balance for Batch B1. Available: 25, Requested: 30", appErr.Message)
	assert.EqualValues(t, 25, f.balance(t, r.ID))

	stored, err := f.svc.Dispatches.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDraft, stored.Status)
}

func TestService_RowsShareTheBalance(t *testing.T) {
	f := newFixture(t)
	r := f.receipt(t, 25)
	d := f.draft(t, r.ID, 20, 10)

	_, err := f.svc.Dispatches.Submit(context.Background(), d.ID)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 2, appErr.Detail("row"))
	assert.EqualValues(t, 5, appErr.Detail("available"))
	assert.EqualValues(t, 25, f.balance(t, r.ID))
}

func TestService_ValidateExcludesOwnMovements(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := f.receipt(t, 40)
	d := f.draft(t, r.ID, 40)

	_, err := f.svc.Dispatches.Submit(ctx, d.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, f.balance(t, r.ID))

	assert.NoError(t, f.svc.Dispatches.Validate(ctx, d.ID), "a submitted dispatch still validates against its own draw")
}

func TestService_CancelRestoresBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := f.receipt(t, 40)
	d := f.draft(t, r.ID, 15)

	_, err := f.svc.Dispatches.Submit(ctx, d.ID)
	require.NoError(t, err)

	cancelled, err := f.svc.Dispatches.Cancel(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, cancelled.Status)
	assert.EqualValues(t, 40, f.balance(t, r.ID))

	_, err = f.svc.Dispatches.Cancel(ctx, d.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))

	entries := f.store.AuditEntries()
	require.NotEmpty(t, entries)
	assert.Equal(t, d.ID, entries[len(entries)-1].DocumentID)
}

func TestService_LinkedReceiptMustMatchCustomer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := f.receipt(t, 40)

	d := dispatch.NewDispatch("C2", rates.BillingDaily)
	d.Date = day(11)
	d.AddLine(r.ID, "W1", "B1", "Potato", "Jute Bag", 5)
	require.NoError(t, f.svc.Dispatches.Create(ctx, d))

	_, err := f.svc.Dispatches.Submit(ctx, d.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "belongs to customer C1")
	assert.EqualValues(t, 40, f.balance(t, r.ID))
}

func TestService_Invoice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := f.receipt(t, 40)
	d := f.draft(t, r.ID, 4)

	_, err := f.svc.Dispatches.Invoice(ctx, d.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule), "drafts are not invoiced")

	_, err = f.svc.Dispatches.Submit(ctx, d.ID)
	require.NoError(t, err)

	inv, err := f.svc.Dispatches.Invoice(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, inv.Days)
	assert.Equal(t, "86", inv.GrandTotal.String())
}

func TestService_ConcurrentSubmitsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := f.receipt(t, 40)

	const workers = 8
	drafts := make([]*dispatch.Dispatch, workers)
	for i := range drafts {
		drafts[i] = f.draft(t, r.ID, 10)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for _, d := range drafts {
		wg.Add(1)
		go func(docID id.ID) {
			defer wg.Done()
			if _, err := f.svc.Dispatches.Submit(ctx, docID); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(d.ID)
	}
	wg.Wait()

	assert.Equal(t, 4, succeeded)
	assert.EqualValues(t, 0, f.balance(t, r.ID))
}

func TestService_ErrorNamesFirstFailingRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	submitted := f.receipt(t, 100)

	pending := receipt.NewReceipt(receipt.TypeNew, "C1", "W1")
	pending.Date = day(2)
	pending.AddLine("Potato", "Jute Bag", "B1", 50)
	require.NoError(t, f.svc.Receipts.Create(ctx, pending))

	d := dispatch.NewDispatch("C1", rates.BillingDaily)
	d.Date = day(11)
	d.AddLine(submitted.ID, "W1", "B1", "Potato", "Jute Bag", 120)
	d.AddLine(pending.ID, "W1", "B1", "Potato", "Jute Bag", 5)
	require.NoError(t, f.svc.Dispatches.Create(ctx, d))

	_, err := f.svc.Dispatches.Submit(ctx, d.ID)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, 1, appErr.Detail("row"))
	assert.True(t, strings.HasPrefix(appErr.Message, "Row 1: Insufficient balance"), appErr.Message)
	assert.EqualValues(t, 100, f.balance(t, submitted.ID))
}
