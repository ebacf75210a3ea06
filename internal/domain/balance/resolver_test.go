package balance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coldstore/internal/core/apperror"
	"coldstore/internal/core/entity"
	"coldstore/internal/core/id"
	"coldstore/internal/core/types"
)

// fakeLedger keeps receipts and dispatch draws in maps.
type fakeLedger struct {
	receipts map[id.ID]entity.ReceiptRef
	received map[id.ID]map[string]types.Bags
	draws    []draw
	calls    int
}

type draw struct {
	dispatch id.ID
	receipt  id.ID
	batch    string
	bags     types.Bags
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		receipts: map[id.ID]entity.ReceiptRef{},
		received: map[id.ID]map[string]types.Bags{},
	}
}

func (f *fakeLedger) addReceipt(customer, warehouse, batch string, bags types.Bags) id.ID {
	rid := id.New()
	f.receipts[rid] = entity.ReceiptRef{ID: rid, Customer: customer, Warehouse: warehouse, Status: entity.StatusSubmitted}
	f.received[rid] = map[string]types.Bags{batch: bags}
	return rid
}

func (f *fakeLedger) ReceiptBalance(_ context.Context, receiptID id.ID, batchNo string, exclude *id.ID) (types.Bags, error) {
	f.calls++
	ref, ok := f.receipts[receiptID]
	if !ok || ref.Status != entity.StatusSubmitted {
		return 0, apperror.NewNotFound("Receipt", receiptID.String())
	}
	bal := f.received[receiptID][batchNo]
	for _, d := range f.draws {
		if d.receipt != receiptID || d.batch != batchNo {
			continue
		}
		if exclude != nil && *exclude == d.dispatch {
			continue
		}
		bal -= d.bags
	}
	return bal, nil
}

func (f *fakeLedger) AggregateBalance(ctx context.Context, key entity.BatchKey, exclude *id.ID) (types.Bags, error) {
	var total types.Bags
	for rid, ref := range f.receipts {
		if ref.Customer != key.Customer || ref.Warehouse != key.Warehouse || ref.Status != entity.StatusSubmitted {
			continue
		}
		bal, err := f.ReceiptBalance(ctx, rid, key.BatchNo, exclude)
		if err != nil {
			return 0, err
		}
		total += bal
	}
	return total, nil
}

type countingObserver map[Verdict]int

func (c countingObserver) ObserveBalanceCheck(_ string, v Verdict) { c[v]++ }

func TestCheck_ReceiptScenarios(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	receiptA := ledger.addReceipt("Acme", "WH-1", "B1", 100)
	obs := countingObserver{}
	r := NewResolver(ledger, obs)

	// Fresh receipt: the full balance fits.
	res, err := r.Check(ctx, Request{Scope: ReceiptScope{ReceiptID: receiptA}, BatchNo: "B1", Quantity: 100})
	require.NoError(t, err)
	assert.Equal(t, Accepted, res.Verdict)
	assert.Equal(t, types.Bags(100), res.Available)

	// Over-request is rejected with the available balance.
	res, err = r.Check(ctx, Request{Scope: ReceiptScope{ReceiptID: receiptA}, BatchNo: "B1", Quantity: 120})
	require.NoError(t, err)
	assert.Equal(t, Rejected, res.Verdict)
	assert.Equal(t, types.Bags(100), res.Available)
	assert.False(t, res.IsAccepted())

	// 40 fits.
	res, err = r.Check(ctx, Request{Scope: ReceiptScope{ReceiptID: receiptA}, BatchNo: "B1", Quantity: 40})
	require.NoError(t, err)
	assert.Equal(t, Accepted, res.Verdict)
	dispatch1 := id.New()
	ledger.draws = append(ledger.draws, draw{dispatch: dispatch1, receipt: receiptA, batch: "B1", bags: 40})

	// A second dispatch of 70 sees 60.
	res, err = r.Check(ctx, Request{Scope: ReceiptScope{ReceiptID: receiptA}, BatchNo: "B1", Quantity: 70})
	require.NoError(t, err)
	assert.Equal(t, Rejected, res.Verdict)
	assert.Equal(t, types.Bags(60), res.Available)

	// Re-validating dispatch1 does not count its own 40 twice.
	res, err = r.Check(ctx, Request{
		Scope:             ReceiptScope{ReceiptID: receiptA},
		BatchNo:           "B1",
		Quantity:          40,
		ExcludeDispatchID: &dispatch1,
	})
	require.NoError(t, err)
	assert.Equal(t, Accepted, res.Verdict)
	assert.Equal(t, types.Bags(100), res.Available)

	assert.Equal(t, 2, obs[Rejected])
	assert.Equal(t, 3, obs[Accepted])
}

func TestCheck_InvalidQuantity(t *testing.T) {
	ledger := newFakeLedger()
	receiptA := ledger.addReceipt("Acme", "WH-1", "B1", 100)
	r := NewResolver(ledger, nil)

	for _, qty := range []types.Bags{0, -1, -50} {
		_, err := r.Check(context.Background(), Request{Scope: ReceiptScope{ReceiptID: receiptA}, BatchNo: "B1", Quantity: qty})
		require.Error(t, err)
		assert.True(t, apperror.IsInvalidQuantity(err), "qty %d", qty)
	}
	assert.Zero(t, ledger.calls, "invalid quantity must not query the ledger")
}

func TestCheck_Provisional(t *testing.T) {
	ledger := newFakeLedger()
	r := NewResolver(ledger, nil)

	tests := []struct {
		name  string
		scope Scope
		batch string
	}{
		{"unscoped", Unscoped{}, "B1"},
		{"nil scope", nil, "B1"},
		{"missing batch", ReceiptScope{ReceiptID: id.New()}, ""},
		{"nil receipt", ReceiptScope{}, "B1"},
		{"missing warehouse", AggregateScope{Customer: "Acme"}, "B1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Check(context.Background(), Request{Scope: tt.scope, BatchNo: tt.batch, Quantity: 10})
			require.NoError(t, err)
			assert.Equal(t, Provisional, res.Verdict)
			assert.True(t, res.IsAccepted())
		})
	}
	assert.Zero(t, ledger.calls)
}

func TestCheck_ReceiptNotFound(t *testing.T) {
	ledger := newFakeLedger()
	draft := id.New()
	ledger.receipts[draft] = entity.ReceiptRef{ID: draft, Status: entity.StatusDraft}
	r := NewResolver(ledger, nil)

	for _, rid := range []id.ID{id.New(), draft} {
		_, err := r.Check(context.Background(), Request{Scope: ReceiptScope{ReceiptID: rid}, BatchNo: "B1", Quantity: 1})
		assert.True(t, apperror.IsNotFound(err))
	}
}

func TestCheck_AggregateAndReserved(t *testing.T) {
	ledger := newFakeLedger()
	ledger.addReceipt("Acme", "WH-1", "B1", 30)
	ledger.addReceipt("Acme", "WH-1", "B1", 20)
	ledger.addReceipt("Acme", "WH-2", "B1", 500)
	ledger.addReceipt("Other", "WH-1", "B1", 500)
	r := NewResolver(ledger, nil)
	scope := AggregateScope{Customer: "Acme", Warehouse: "WH-1"}

	res, err := r.Check(context.Background(), Request{Scope: scope, BatchNo: "B1", Quantity: 50})
	require.NoError(t, err)
	assert.Equal(t, Accepted, res.Verdict)
	assert.Equal(t, types.Bags(50), res.Available)

	res, err = r.Check(context.Background(), Request{Scope: scope, BatchNo: "B1", Quantity: 15, Reserved: 40})
	require.NoError(t, err)
	assert.Equal(t, Rejected, res.Verdict)
	assert.Equal(t, types.Bags(10), res.Available)
}

func TestCheck_RejectDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	ledger := newFakeLedger()
	receiptA := ledger.addReceipt("Acme", "WH-1", "B1", 100)
	r := NewResolver(ledger, nil)

	before, err := ledger.ReceiptBalance(ctx, receiptA, "B1", nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		res, err := r.Check(ctx, Request{Scope: ReceiptScope{ReceiptID: receiptA}, BatchNo: "B1", Quantity: 1000})
		require.NoError(t, err)
		assert.Equal(t, Rejected, res.Verdict)
	}

	after, err := ledger.ReceiptBalance(ctx, receiptA, "B1", nil)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Empty(t, ledger.draws)
}
