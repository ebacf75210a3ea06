package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coldstore/internal/core/apperror"
	"coldstore/internal/core/id"
	"coldstore/internal/core/types"
	"coldstore/internal/domain/balance"
	"coldstore/internal/domain/rates"
)

func day(d int) time.Time {
	return time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestDispatch_ValidateRows(t *testing.T) {
	receiptID := id.New()

	tests := []struct {
		name    string
		line    Line
		wantMsg string
	}{
		{
			name:    "missing linked receipt",
			line:    Line{Warehouse: "W1", BatchNo: "B1", Bags: 1},
			wantMsg: "Row 2: Please select a Linked Receipt",
		},
		{
			name:    "missing warehouse",
			line:    Line{LinkedReceipt: receiptID, BatchNo: "B1", Bags: 1},
			wantMsg: "Row 2: Please select a Warehouse",
		},
		{
			name:    "missing batch",
			line:    Line{LinkedReceipt: receiptID, Warehouse: "W1", Bags: 1},
			wantMsg: "Row 2: Please select a Batch",
		},
		{
			name:    "negative bags",
			line:    Line{LinkedReceipt: receiptID, Warehouse: "W1", BatchNo: "B1", Bags: -3},
			wantMsg: "Row 2: Number of Bags must be greater than 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDispatch("C1", rates.BillingDaily)
			d.AddLine(receiptID, "W1", "B1", "Potato", "Jute Bag", 5)
			d.Lines = append(d.Lines, tt.line)

			err := d.Validate(context.Background())
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, appErr.Message)
			assert.Equal(t, 2, appErr.Detail("row"))
		})
	}
}

func TestDispatch_ValidateHeader(t *testing.T) {
	d := NewDispatch("C1", "Weekly")
	d.AddLine(id.New(), "W1", "B1", "Potato", "Jute Bag", 5)
	assert.True(t, apperror.HasCode(d.Validate(context.Background()), apperror.CodeValidation))

	d = NewDispatch("C1", rates.BillingDaily)
	assert.Error(t, d.Validate(context.Background()), "a dispatch needs rows")
}

func TestDispatch_AddLineUsesHeaderWarehouse(t *testing.T) {
	d := NewDispatch("C1", rates.BillingDaily)
	d.Warehouse = "W7"
	d.AddLine(id.New(), "", "B1", "Potato", "Jute Bag", 5)

	assert.Equal(t, "W7", d.Lines[0].Warehouse)
}

func TestDispatch_CalculateBilling(t *testing.T) {
	source := rates.StaticSource{
		{ItemGroup: "Jute Bag", BillingType: rates.BillingDaily, Rate: types.MustMoney("2"), LoadingRate: types.MustMoney("1.5")},
	}

	d := NewDispatch("C1", rates.BillingDaily)
	d.GSTApplicable = true
	d.GSTRate = types.MustMoney("18")
	d.AddLine(id.New(), "W1", "B1", "Potato", "Jute Bag", 4)
	d.AddLine(id.New(), "W1", "B2", "Potato", "Jute Bag", 10)
	d.Lines[1].Rate = types.MustMoney("3")

	require.NoError(t, d.CalculateBilling(context.Background(), rates.NewService(source)))

	assert.Equal(t, "2", d.Lines[0].Rate.String())
	assert.Equal(t, "8", d.Lines[0].Amount.String())
	assert.Equal(t, "3", d.Lines[1].Rate.String(), "a row rate is kept")
	assert.Equal(t, "30", d.Lines[1].Amount.String())
	assert.Equal(t, "1.5", d.Lines[1].LoadingRate.String())

	assert.EqualValues(t, 14, d.TotalBags)
	assert.Equal(t, "38", d.TotalAmount.String())
	assert.Equal(t, "21", d.TotalLoadingAmount.String())
	assert.Equal(t, "10.62", d.TotalGSTAmount.String())
	assert.Equal(t, "69.62", d.GrandTotal.String())
}

func TestDispatch_BalanceChecksExcludeSelf(t *testing.T) {
	receiptID := id.New()
	d := NewDispatch("C1", rates.BillingDaily)
	d.AddLine(receiptID, "W1", "B1", "Potato", "Jute Bag", 4)

	checks := d.BalanceChecks()
	require.Len(t, checks, 1)
	assert.Equal(t, balance.ReceiptScope{ReceiptID: receiptID}, checks[0].Scope)
	require.NotNil(t, checks[0].ExcludeDispatchID)
	assert.Equal(t, d.ID, *checks[0].ExcludeDispatchID)
}

func TestDispatch_BuildInvoice(t *testing.T) {
	d := NewDispatch("C1", rates.BillingDaily)
	d.Date = day(11)
	d.GSTApplicable = true
	d.GSTRate = types.MustMoney("18")
	d.AddLine(id.New(), "W1", "B1", "Potato", "Jute Bag", 4)
	d.Lines[0].Rate = types.MustMoney("2")
	d.Lines[0].LoadingRate = types.MustMoney("1.5")

	inv := d.BuildInvoice(day(1))

	assert.Equal(t, 10, inv.Days)
	assert.Equal(t, 10, inv.Units)
	require.Len(t, inv.Lines, 2)
	assert.Equal(t, "Storage Charges (Daily) for 4 bags (Batch B1) for 10 days", inv.Lines[0].Description)
	assert.EqualValues(t, 40, inv.Lines[0].Qty)
	assert.Equal(t, "80", inv.Lines[0].Amount.String())
	assert.Equal(t, "6", inv.Lines[1].Amount.String())
	assert.Equal(t, "86", inv.NetTotal.String())
	assert.Equal(t, "15.48", inv.GSTAmount.String())
	assert.Equal(t, "101.48", inv.GrandTotal.String())
}

func TestDispatch_BuildInvoiceMonthly(t *testing.T) {
	d := NewDispatch("C1", rates.BillingMonthly)
	d.Date = day(1).AddDate(0, 0, 41)
	d.AddLine(id.New(), "W1", "B1", "Potato", "Jute Bag", 3)
	d.Lines[0].Rate = types.MustMoney("10")

	inv := d.BuildInvoice(day(1))

	assert.Equal(t, 41, inv.Days)
	assert.Equal(t, 2, inv.Units)
	require.Len(t, inv.Lines, 1)
	assert.Equal(t, "60", inv.Lines[0].Amount.String())
	assert.True(t, inv.GSTAmount.IsZero())
}

func TestDispatch_BuildInvoiceSameDay(t *testing.T) {
	d := NewDispatch("C1", rates.BillingDaily)
	d.Date = day(5)
	d.AddLine(id.New(), "W1", "B1", "Potato", "Jute Bag", 3)
	d.Lines[0].Rate = types.MustMoney("1")

	inv := d.BuildInvoice(day(5))
	assert.Equal(t, 1, inv.Days)
	assert.Equal(t, "3", inv.GrandTotal.String())
}
