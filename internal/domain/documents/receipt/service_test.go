package receipt_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coldstore/internal/app"
	"coldstore/internal/core/apperror"
	"coldstore/internal/core/entity"
	"coldstore/internal/core/id"
	"coldstore/internal/core/types"
	"coldstore/internal/domain"
	"coldstore/internal/domain/documents/dispatch"
	"coldstore/internal/domain/documents/receipt"
	"coldstore/internal/domain/rates"
	"coldstore/internal/infrastructure/storage/memory"
)

func newServices(t *testing.T) *app.Services {
	t.Helper()
	return app.New(app.MemoryStorage(memory.New()), app.Options{
		TransferRates: receipt.TransferRates{
			Intra: types.MustMoney("1.00"),
			Inter: types.MustMoney("2.50"),
		},
	})
}

func day(d int) time.Time {
	return time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC)
}

func submitReceipt(t *testing.T, svc *app.Services, customer, warehouse string, date time.Time, batch string, bags types.Bags) *receipt.Receipt {
	t.Helper()
	ctx := context.Background()

	r := receipt.NewReceipt(receipt.TypeNew, customer, warehouse)
	r.Date = date
	r.AddLine("Potato", "Jute Bag", batch, bags)
	require.NoError(t, svc.Receipts.Create(ctx, r))

	submitted, err := svc.Receipts.Submit(ctx, r.ID)
	require.NoError(t, err)
	return submitted
}

func aggregate(t *testing.T, svc *app.Services, customer, warehouse, batch string) types.Bags {
	t.Helper()
	bags, err := svc.Ledger.AggregateBalance(context.Background(),
		entity.BatchKey{Customer: customer, Warehouse: warehouse, BatchNo: batch}, nil)
	require.NoError(t, err)
	return bags
}

func TestService_SubmitRecordsBags(t *testing.T) {
	svc := newServices(t)
	r := submitReceipt(t, svc, "C1", "W1", day(5), "B1", 40)

	assert.Equal(t, entity.StatusSubmitted, r.Status)
	assert.Equal(t, 2, r.Version)
	assert.EqualValues(t, 40, aggregate(t, svc, "C1", "W1", "B1"))

	bags, err := svc.Ledger.ReceiptBalance(context.Background(), r.ID, "B1", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 40, bags)
}

func TestService_SubmitTwiceFails(t *testing.T) {
	svc := newServices(t)
	r := submitReceipt(t, svc, "C1", "W1", day(5), "B1", 40)

	_, err := svc.Receipts.Submit(context.Background(), r.ID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeDocumentSubmitted))
	assert.EqualValues(t, 40, aggregate(t, svc, "C1", "W1", "B1"))
}

func TestService_UpdateSubmittedRefused(t *testing.T) {
	ctx := context.Background()
	svc := newServices(t)
	r := submitReceipt(t, svc, "C1", "W1", day(5), "B1", 40)

	r.Lines[0].Bags = 10
	err := svc.Receipts.Update(ctx, r)
	assert.True(t, apperror.HasCode(err, apperror.CodeDocumentSubmitted))
}

func TestService_UpdateStaleVersion(t *testing.T) {
	ctx := context.Background()
	svc := newServices(t)

	r := receipt.NewReceipt(receipt.TypeNew, "C1", "W1")
	r.Date = day(5)
	r.AddLine("Potato", "Jute Bag", "B1", 40)
	require.NoError(t, svc.Receipts.Create(ctx, r))

	first, err := svc.Receipts.GetByID(ctx, r.ID)
	require.NoError(t, err)
	second, err := svc.Receipts.GetByID(ctx, r.ID)
	require.NoError(t, err)

	first.Remarks = "first"
	require.NoError(t, svc.Receipts.Update(ctx, first))

	second.Remarks = "second"
	err = svc.Receipts.Update(ctx, second)
	assert.True(t, apperror.HasCode(err, apperror.CodeConcurrentModification))
}

func newCustomerTransfer(source *receipt.Receipt, toCustomer string, bags types.Bags) *receipt.Receipt {
	r := receipt.NewReceipt(receipt.TypeCustomerTransfer, toCustomer, source.Warehouse)
	r.Date = day(20)
	r.SourceReceipt = &source.ID
	r.FromCustomer = source.Customer
	r.AddLine("Potato", "Jute Bag", "B1", bags)
	return r
}

func TestService_CustomerTransfer(t *testing.T) {
	ctx := context.Background()
	svc := newServices(t)
	source := submitReceipt(t, svc, "C1", "W1", day(5), "B1", 40)

	transfer := newCustomerTransfer(source, "C2", 15)
	require.NoError(t, svc.Receipts.Create(ctx, transfer))
	_, err := svc.Receipts.Submit(ctx, transfer.ID)
	require.NoError(t, err)

	assert.EqualValues(t, 25, aggregate(t, svc, "C1", "W1", "B1"))
	assert.EqualValues(t, 15, aggregate(t, svc, "C2", "W1", "B1"))

	active, err := svc.Dispatches.ActiveByReceipt(ctx, source.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	d := active[0]
	assert.Equal(t, dispatch.SourceTransfer, d.Source)
	assert.Equal(t, "C1", d.Customer)
	require.NotNil(t, d.OriginReceipt)
	assert.Equal(t, transfer.ID, *d.OriginReceipt)

	t.Run("source cannot be cancelled while the transfer draws on it", func(t *testing.T) {
		_, err := svc.Receipts.Cancel(ctx, source.ID)
		require.Error(t, err)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
		assert.Contains(t, appErr.Message, "Please cancel the Dispatch first.")
	})

	t.Run("cancelling the transfer returns the bags", func(t *testing.T) {
		_, err := svc.Receipts.Cancel(ctx, transfer.ID)
		require.NoError(t, err)

		assert.EqualValues(t, 40, aggregate(t, svc, "C1", "W1", "B1"))
		assert.EqualValues(t, 0, aggregate(t, svc, "C2", "W1", "B1"))

		cancelled, err := svc.Dispatches.GetByID(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCancelled, cancelled.Status)
	})
}

func TestService_CustomerTransferInsufficient(t *testing.T) {
	ctx := context.Background()
	svc := newServices(t)
	source := submitReceipt(t, svc, "C1", "W1", day(5), "B1", 40)

	transfer := newCustomerTransfer(source, "C2", 50)
	require.NoError(t, svc.Receipts.Create(ctx, transfer))

	_, err := svc.Receipts.Submit(ctx, transfer.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, 1, appErr.Detail("row"))
	assert.EqualValues(t, 40, appErr.Detail("available"))

	stored, err := svc.Receipts.GetByID(ctx, transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDraft, stored.Status)

	all, err := svc.Dispatches.List(ctx, domain.DefaultListFilter())
	require.NoError(t, err)
	assert.Zero(t, all.TotalCount)
	assert.EqualValues(t, 0, aggregate(t, svc, "C2", "W1", "B1"))
}

func TestService_CustomerTransferWrongSource(t *testing.T) {
	ctx := context.Background()
	svc := newServices(t)
	source := submitReceipt(t, svc, "C1", "W1", day(5), "B1", 40)

	transfer := newCustomerTransfer(source, "C2", 5)
	transfer.FromCustomer = "C9"
	require.NoError(t, svc.Receipts.Create(ctx, transfer))

	_, err := svc.Receipts.Submit(ctx, transfer.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
}

func TestService_WarehouseTransferAllocatesOldestFirst(t *testing.T) {
	ctx := context.Background()
	svc := newServices(t)
	r1 := submitReceipt(t, svc, "C1", "W1", day(2), "B1", 10)
	r2 := submitReceipt(t, svc, "C1", "W1", day(3), "B1", 20)

	transfer := receipt.NewReceipt(receipt.TypeWarehouseTransfer, "C1", "W2")
	transfer.Date = day(10)
	transfer.FromWarehouse = "W1"
	transfer.AddLine("Potato", "Jute Bag", "B1", 25)
	require.NoError(t, svc.Receipts.Create(ctx, transfer))

	submitted, err := svc.Receipts.Submit(ctx, transfer.ID)
	require.NoError(t, err)
	assert.Equal(t, "62.5", submitted.TransferLoadingAmount.String())

	assert.EqualValues(t, 5, aggregate(t, svc, "C1", "W1", "B1"))
	assert.EqualValues(t, 25, aggregate(t, svc, "C1", "W2", "B1"))

	b1, err := svc.Ledger.ReceiptBalance(ctx, r1.ID, "B1", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 0, b1)
	b2, err := svc.Ledger.ReceiptBalance(ctx, r2.ID, "B1", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 5, b2)

	_, err = svc.Receipts.Cancel(ctx, transfer.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 30, aggregate(t, svc, "C1", "W1", "B1"))
	assert.EqualValues(t, 0, aggregate(t, svc, "C1", "W2", "B1"))
}

func TestService_WarehouseTransferInsufficient(t *testing.T) {
	ctx := context.Background()
	svc := newServices(t)
	submitReceipt(t, svc, "C1", "W1", day(2), "B1", 10)

	transfer := receipt.NewReceipt(receipt.TypeWarehouseTransfer, "C1", "W2")
	transfer.Date = day(10)
	transfer.FromWarehouse = "W1"
	transfer.AddLine("Potato", "Jute Bag", "B1", 6)
	transfer.AddLine("Potato", "Jute Bag", "B1", 6)
	require.NoError(t, svc.Receipts.Create(ctx, transfer))

	_, err := svc.Receipts.Submit(ctx, transfer.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 2, appErr.Detail("row"))
	assert.EqualValues(t, 10, aggregate(t, svc, "C1", "W1", "B1"))
}

func TestService_CancelRefusedByDraftDispatch(t *testing.T) {
	ctx := context.Background()
	svc := newServices(t)
	r := submitReceipt(t, svc, "C1", "W1", day(5), "B1", 40)

	d := dispatch.NewDispatch("C1", rates.BillingDaily)
	d.Date = day(9)
	d.AddLine(r.ID, "W1", "B1", "Potato", "Jute Bag", 10)
	require.NoError(t, svc.Dispatches.Create(ctx, d))

	_, err := svc.Receipts.Cancel(ctx, r.ID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
	assert.EqualValues(t, 40, aggregate(t, svc, "C1", "W1", "B1"))

	require.NoError(t, svc.Dispatches.Delete(ctx, d.ID))

	cancelled, err := svc.Receipts.Cancel(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, cancelled.Status)
	assert.EqualValues(t, 0, aggregate(t, svc, "C1", "W1", "B1"))

	_, err = svc.Ledger.ReceiptBalance(ctx, r.ID, "B1", nil)
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_DeleteDraftOnly(t *testing.T) {
	ctx := context.Background()
	svc := newServices(t)
	r := submitReceipt(t, svc, "C1", "W1", day(5), "B1", 40)

	err := svc.Receipts.Delete(ctx, r.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeDocumentSubmitted))

	_, err = svc.Receipts.GetByID(ctx, id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_CountDrafts(t *testing.T) {
	ctx := context.Background()
	svc := newServices(t)
	submitReceipt(t, svc, "C1", "W1", day(5), "B1", 40)

	draft := receipt.NewReceipt(receipt.TypeNew, "C1", "W1")
	draft.Date = day(6)
	draft.AddLine("Potato", "Jute Bag", "B2", 4)
	require.NoError(t, svc.Receipts.Create(ctx, draft))

	n, err := svc.Receipts.CountDrafts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
