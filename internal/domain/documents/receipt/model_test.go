package receipt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coldstore/internal/core/apperror"
	"coldstore/internal/core/entity"
	"coldstore/internal/core/id"
	"coldstore/internal/domain/balance"
)

func validReceipt() *Receipt {
	r := NewReceipt(TypeNew, "C1", "W1")
	r.Date = time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	r.AddLine("Potato", "Jute Bag", "B1", 40)
	return r
}

func TestReceipt_Validate(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	source := id.New()

	tests := []struct {
		name    string
		mutate  func(r *Receipt)
		wantMsg string
	}{
		{
			name:   "valid",
			mutate: func(r *Receipt) {},
		},
		{
			name:    "future date",
			mutate:  func(r *Receipt) { r.Date = now.AddDate(0, 0, 1) },
			wantMsg: "Receipt Date cannot be in the future",
		},
		{
			name:    "zero bags",
			mutate:  func(r *Receipt) { r.AddLine("Potato", "Jute Bag", "B2", 0) },
			wantMsg: "Row 2: Number of Bags must be greater than 0",
		},
		{
			name:    "missing batch",
			mutate:  func(r *Receipt) { r.Lines[0].BatchNo = "" },
			wantMsg: "Row 1: Batch is mandatory",
		},
		{
			name:    "customer transfer without source",
			mutate:  func(r *Receipt) { r.ReceiptType = TypeCustomerTransfer; r.FromCustomer = "C0" },
			wantMsg: "Source Receipt is mandatory for Customer Transfer.",
		},
		{
			name: "customer transfer without from customer",
			mutate: func(r *Receipt) {
				r.ReceiptType = TypeCustomerTransfer
				r.SourceReceipt = &source
			},
			wantMsg: "From Customer is mandatory for Customer Transfer.",
		},
		{
			name:    "warehouse transfer without from warehouse",
			mutate:  func(r *Receipt) { r.ReceiptType = TypeWarehouseTransfer },
			wantMsg: "From Warehouse is mandatory for Warehouse Transfer.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validReceipt()
			tt.mutate(r)

			err := r.ValidateAt(context.Background(), now)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Equal(t, tt.wantMsg, appErr.Message)
		})
	}
}

func TestReceipt_EquatedBags(t *testing.T) {
	r := NewReceipt(TypeWarehouseTransfer, "C1", "W2")
	r.AddLine("Potato", "Jute Bag", "B1", 10)
	r.AddLine("Onion", NetBagGroup, "B2", 5)

	assert.Equal(t, "12.5", r.EquatedBags().String())
	assert.EqualValues(t, 15, r.TotalBags)
}

func TestReceipt_BalanceChecks(t *testing.T) {
	source := id.New()

	t.Run("new receipt draws nothing", func(t *testing.T) {
		assert.Empty(t, validReceipt().BalanceChecks())
	})

	t.Run("customer transfer draws from the source receipt", func(t *testing.T) {
		r := validReceipt()
		r.ReceiptType = TypeCustomerTransfer
		r.SourceReceipt = &source

		checks := r.BalanceChecks()
		require.Len(t, checks, 1)
		assert.Equal(t, balance.ReceiptScope{ReceiptID: source}, checks[0].Scope)
		assert.Equal(t, 1, checks[0].Row)
		assert.EqualValues(t, 40, checks[0].Quantity)
	})

	t.Run("warehouse transfer draws from the aggregate", func(t *testing.T) {
		r := validReceipt()
		r.ReceiptType = TypeWarehouseTransfer
		r.FromWarehouse = "W0"

		checks := r.BalanceChecks()
		require.Len(t, checks, 1)
		assert.Equal(t, balance.AggregateScope{Customer: "C1", Warehouse: "W0"}, checks[0].Scope)
	})
}

func TestReceipt_GenerateMovements(t *testing.T) {
	r := validReceipt()
	r.AddLine("Onion", "Net Bag", "B2", 5)

	movements, err := r.GenerateMovements(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, movements, 2)

	for _, m := range movements {
		assert.Equal(t, r.ID, m.RecorderID)
		assert.Equal(t, r.ID, m.ReceiptID)
		assert.Equal(t, entity.RecordTypeReceipt, m.RecordType)
		assert.Equal(t, "C1", m.Customer)
		assert.Equal(t, "W1", m.Warehouse)
	}
	assert.Equal(t, "B2", movements[1].BatchNo)
	assert.EqualValues(t, 5, movements[1].SignedBags())
}

func TestReceipt_BagsByBatch(t *testing.T) {
	r := NewReceipt(TypeWarehouseTransfer, "C1", "W2")
	r.AddLine("Potato", "Jute Bag", "B2", 3)
	r.AddLine("Potato", "Jute Bag", "B1", 4)
	r.AddLine("Potato", "Jute Bag", "B2", 5)

	order, sums := r.BagsByBatch()
	assert.Equal(t, []string{"B2", "B1"}, order)
	assert.EqualValues(t, 8, sums["B2"])
	assert.EqualValues(t, 4, sums["B1"])
}
