package mobile

import (
	"context"
	"time"

	"coldstore/internal/core/apperror"
	appctx "coldstore/internal/core/context"
	"coldstore/internal/core/id"
	"coldstore/internal/core/types"
	"coldstore/internal/domain/documents/receipt"
	"coldstore/pkg/logger"
)

// Receipts is the receipt service as used by mobile entry.
type Receipts interface {
	Create(ctx context.Context, doc *receipt.Receipt) error
	Submit(ctx context.Context, docID id.ID) (*receipt.Receipt, error)
}

// Service handles mobile receipt submissions.
type Service struct {
	receipts Receipts
	now      func() time.Time
}

// NewService creates a mobile entry service.
func NewService(receipts Receipts) *Service {
	return &Service{receipts: receipts, now: time.Now}
}

// SubmitReceipt validates the payload and stores one new receipt built from
// it. The receipt stays a draft unless the payload asks to submit it.
func (s *Service) SubmitReceipt(ctx context.Context, p Payload) (*receipt.Receipt, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	date, err := p.ReceiptDate(s.now())
	if err != nil {
		return nil, apperror.NewValidation("date must be a date in format YYYY-MM-DD").
			WithDetail("field", "date").WithCause(err)
	}

	doc := receipt.NewReceipt(receipt.TypeNew, p.Customer, p.Warehouse)
	doc.Date = date
	doc.VehicleNo = p.VehicleNo
	doc.DriverName = p.DriverName
	doc.DriverPhone = p.DriverPhone
	doc.Remarks = "Mobile entry"
	if op := appctx.GetOperator(ctx); op != nil && op.Device != "" {
		doc.Remarks = "Mobile entry (" + op.Device + ")"
	}
	for _, item := range p.Items {
		doc.AddLine(item.ItemCode, item.ItemGroup, item.Batch, types.Bags(item.Qty))
	}

	if err := s.receipts.Create(ctx, doc); err != nil {
		return nil, err
	}
	logger.Info(ctx, "mobile receipt created", "id", doc.ID, "customer", doc.Customer, "lines", len(doc.Lines))

	if !p.Submit {
		return doc, nil
	}
	return s.receipts.Submit(ctx, doc.ID)
}
