package mobile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coldstore/internal/core/apperror"
	appctx "coldstore/internal/core/context"
	"coldstore/internal/core/entity"
	"coldstore/internal/core/id"
	"coldstore/internal/domain/documents/receipt"
)

type fakeReceipts struct {
	created   []*receipt.Receipt
	submitted []id.ID
}

func (f *fakeReceipts) Create(_ context.Context, doc *receipt.Receipt) error {
	f.created = append(f.created, doc)
	return nil
}

func (f *fakeReceipts) Submit(_ context.Context, docID id.ID) (*receipt.Receipt, error) {
	f.submitted = append(f.submitted, docID)
	for _, doc := range f.created {
		if doc.ID == docID {
			doc.MarkSubmitted()
			return doc, nil
		}
	}
	return nil, apperror.NewNotFound("Receipt", docID.String())
}

func validPayload() Payload {
	return Payload{
		Customer:  "C1",
		Warehouse: "W1",
		VehicleNo: "MH12AB1234",
		Items: []Item{
			{ItemCode: "Potato", ItemGroup: "Jute Bag", Batch: "B1", Qty: 40},
			{ItemCode: "Onion", ItemGroup: "Net Bag", Batch: "B2", Qty: 12},
		},
	}
}

func TestPayload_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Payload)
		wantMsg string
		wantRow any
	}{
		{name: "valid", mutate: func(p *Payload) {}},
		{
			name:    "missing customer",
			mutate:  func(p *Payload) { p.Customer = "" },
			wantMsg: "customer is required",
		},
		{
			name:    "no items",
			mutate:  func(p *Payload) { p.Items = nil },
			wantMsg: "At least one item line is required",
		},
		{
			name:    "zero quantity",
			mutate:  func(p *Payload) { p.Items[1].Qty = 0 },
			wantMsg: "Row 2: Number of Bags must be greater than 0",
			wantRow: 2,
		},
		{
			name:    "missing batch",
			mutate:  func(p *Payload) { p.Items[0].Batch = "" },
			wantMsg: "Row 1: batch is required",
			wantRow: 1,
		},
		{
			name:    "bad date",
			mutate:  func(p *Payload) { p.Date = "16/10/2026" },
			wantMsg: "date must be a date in format YYYY-MM-DD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayload()
			tt.mutate(&p)

			err := p.Validate()
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Equal(t, tt.wantMsg, appErr.Message)
			if tt.wantRow != nil {
				assert.Equal(t, tt.wantRow, appErr.Detail("row"))
			}
		})
	}
}

func TestService_SubmitReceiptDraft(t *testing.T) {
	receipts := &fakeReceipts{}
	svc := NewService(receipts)
	svc.now = func() time.Time { return time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC) }

	ctx := appctx.WithOperator(context.Background(), &appctx.Operator{Name: "gate", Device: "scanner-2"})
	doc, err := svc.SubmitReceipt(ctx, validPayload())
	require.NoError(t, err)

	require.Len(t, receipts.created, 1)
	assert.Empty(t, receipts.submitted)
	assert.Equal(t, entity.StatusDraft, doc.Status)
	assert.Equal(t, receipt.TypeNew, doc.ReceiptType)
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), doc.Date)
	assert.Equal(t, "MH12AB1234", doc.VehicleNo)
	assert.Equal(t, "Mobile entry (scanner-2)", doc.Remarks)
	require.Len(t, doc.Lines, 2)
	assert.Equal(t, "Onion", doc.Lines[1].GoodsItem)
	assert.EqualValues(t, 52, doc.TotalBags)
}

func TestService_SubmitReceiptSubmits(t *testing.T) {
	receipts := &fakeReceipts{}
	svc := NewService(receipts)

	p := validPayload()
	p.Submit = true
	p.Date = "2026-01-15"

	doc, err := svc.SubmitReceipt(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSubmitted, doc.Status)
	assert.Equal(t, []id.ID{doc.ID}, receipts.submitted)
	assert.Equal(t, 15, doc.Date.Day())
}

func TestService_SubmitReceiptRejectsBadRows(t *testing.T) {
	receipts := &fakeReceipts{}
	svc := NewService(receipts)

	p := validPayload()
	p.Items[0].Qty = -5

	_, err := svc.SubmitReceipt(context.Background(), p)
	require.Error(t, err)
	assert.Empty(t, receipts.created, "nothing is stored when a row is invalid")
}
