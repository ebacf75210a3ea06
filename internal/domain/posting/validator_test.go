package posting

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coldstore/internal/core/apperror"
	"coldstore/internal/core/id"
	"coldstore/internal/core/types"
	"coldstore/internal/domain/balance"
)

// stubChecker answers from a fixed balance per receipt and honours Reserved.
type stubChecker struct {
	balances map[id.ID]types.Bags
	requests []balance.Request
}

func (s *stubChecker) Check(_ context.Context, req balance.Request) (balance.Result, error) {
	s.requests = append(s.requests, req)
	if !req.Quantity.IsPositive() {
		return balance.Result{}, apperror.NewInvalidQuantity(req.Quantity.Int64())
	}
	sc, ok := req.Scope.(balance.ReceiptScope)
	if !ok || req.BatchNo == "" {
		return balance.Result{Verdict: balance.Provisional}, nil
	}
	bal, ok := s.balances[sc.ReceiptID]
	if !ok {
		return balance.Result{}, apperror.NewNotFound("Receipt", sc.ReceiptID.String())
	}
	avail := bal - req.Reserved
	if req.Quantity > avail {
		return balance.Result{Verdict: balance.Rejected, Available: avail}, nil
	}
	return balance.Result{Verdict: balance.Accepted, Available: avail}, nil
}

func rowOf(t *testing.T, err error) int {
	t.Helper()
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	row, ok := appErr.Detail("row").(int)
	require.True(t, ok)
	return row
}

func TestValidate_SecondRowNegative(t *testing.T) {
	receiptA := id.New()
	checker := &stubChecker{balances: map[id.ID]types.Bags{receiptA: 100}}
	v := NewValidator(checker)

	err := v.Validate(context.Background(), []LineCheck{
		{Scope: balance.ReceiptScope{ReceiptID: receiptA}, BatchNo: "B1", Quantity: 10},
		{Scope: balance.ReceiptScope{ReceiptID: receiptA}, BatchNo: "B1", Quantity: -1},
	})
	require.Error(t, err)
	assert.Equal(t, 2, rowOf(t, err))
	assert.Contains(t, err.Error(), "Row 2")
}

func TestValidate_ReservesEarlierRows(t *testing.T) {
	receiptA := id.New()
	checker := &stubChecker{balances: map[id.ID]types.Bags{receiptA: 100}}
	v := NewValidator(checker)

	err := v.Validate(context.Background(), []LineCheck{
		{Scope: balance.ReceiptScope{ReceiptID: receiptA}, BatchNo: "B1", Quantity: 60},
		{Scope: balance.ReceiptScope{ReceiptID: receiptA}, BatchNo: "B2", Quantity: 60},
		{Scope: balance.ReceiptScope{ReceiptID: receiptA}, BatchNo: "B1", Quantity: 50},
	})
	require.Error(t, err)
	assert.Equal(t, 3, rowOf(t, err))

	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, int64(40), appErr.Detail("available"))
	assert.Equal(t, types.Bags(0), checker.requests[1].Reserved, "other batch is not reserved")
	assert.Equal(t, types.Bags(60), checker.requests[2].Reserved)
}

func TestValidate_AllRowsPass(t *testing.T) {
	receiptA := id.New()
	checker := &stubChecker{balances: map[id.ID]types.Bags{receiptA: 100}}
	v := NewValidator(checker)

	err := v.Validate(context.Background(), []LineCheck{
		{Scope: balance.ReceiptScope{ReceiptID: receiptA}, BatchNo: "B1", Quantity: 60},
		{Scope: balance.ReceiptScope{ReceiptID: receiptA}, BatchNo: "B1", Quantity: 40},
	})
	assert.NoError(t, err)
}

func TestValidate_FailureKinds(t *testing.T) {
	receiptA := id.New()
	tests := []struct {
		name string
		line LineCheck
	}{
		{"zero quantity", LineCheck{Scope: balance.ReceiptScope{ReceiptID: receiptA}, BatchNo: "B1"}},
		{"unknown receipt", LineCheck{Scope: balance.ReceiptScope{ReceiptID: id.New()}, BatchNo: "B1", Quantity: 1}},
		{"no scope at submit", LineCheck{Scope: balance.Unscoped{}, BatchNo: "B1", Quantity: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(&stubChecker{balances: map[id.ID]types.Bags{receiptA: 100}})
			err := v.Validate(context.Background(), []LineCheck{tt.line})
			require.Error(t, err)
			assert.Equal(t, 1, rowOf(t, err))
		})
	}
}

type failingChecker struct{ err error }

func (f failingChecker) Check(context.Context, balance.Request) (balance.Result, error) {
	return balance.Result{}, f.err
}

func TestValidate_InfrastructureErrorsPassThrough(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"database", &apperror.AppError{Code: apperror.CodeDatabase, Message: "connection reset", Err: assert.AnError}},
		{"internal", apperror.NewInternal(assert.AnError)},
		{"concurrent modification", apperror.NewConcurrentModification("batch", "40001")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(failingChecker{err: tt.err})
			err := v.Validate(context.Background(), []LineCheck{
				{Scope: balance.ReceiptScope{ReceiptID: id.New()}, BatchNo: "B1", Quantity: 1},
			})
			assert.Same(t, tt.err, err)
			assert.False(t, apperror.HasCode(err, apperror.CodeValidation))
		})
	}
}
