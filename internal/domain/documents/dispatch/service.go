package dispatch

import (
	"context"
	"fmt"

	"coldstore/internal/core/apperror"
	"coldstore/internal/core/entity"
	"coldstore/internal/core/id"
	"coldstore/internal/core/tx"
	"coldstore/internal/domain"
	"coldstore/internal/domain/posting"
	"coldstore/pkg/logger"
)

// ReceiptLookup resolves receipt headers for invoices.
type ReceiptLookup interface {
	ReceiptRef(ctx context.Context, receiptID id.ID) (entity.ReceiptRef, error)
}

// Service provides business operations for dispatch documents.
type Service struct {
	repo          Repository
	postingEngine *posting.Engine
	rates         RateLookup
	receipts      ReceiptLookup
	txManager     tx.Manager
}

// NewService creates a new dispatch service.
func NewService(
	repo Repository,
	postingEngine *posting.Engine,
	rates RateLookup,
	receipts ReceiptLookup,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:          repo,
		postingEngine: postingEngine,
		rates:         rates,
		receipts:      receipts,
		txManager:     txManager,
	}
}

// Create stores a new draft dispatch with billing calculated.
func (s *Service) Create(ctx context.Context, doc *Dispatch) error {
	doc.Status = entity.StatusDraft
	if doc.Source == "" {
		doc.Source = SourceManual
	}
	doc.Renumber()

	if err := doc.Validate(ctx); err != nil {
		return err
	}
	if err := doc.CalculateBilling(ctx, s.rates); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.insert(ctx, doc)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "dispatch created", "id", doc.ID, "customer", doc.Customer, "bags", doc.TotalBags)
	return nil
}

func (s *Service) insert(ctx context.Context, doc *Dispatch) error {
	if err := s.repo.Create(ctx, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
		return fmt.Errorf("save lines: %w", err)
	}
	return nil
}

// GetByID retrieves a dispatch with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Dispatch, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// Update replaces a draft dispatch's header and lines.
func (s *Service) Update(ctx context.Context, doc *Dispatch) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetForUpdate(ctx, doc.ID)
		if err != nil {
			return err
		}
		if err := current.CanModify(); err != nil {
			return err
		}

		if doc.Version == 0 {
			doc.Version = current.Version
		}
		doc.Status = current.Status
		doc.Source = current.Source
		doc.OriginReceipt = current.OriginReceipt
		doc.CreatedAt = current.CreatedAt
		doc.Renumber()

		if err := doc.Validate(ctx); err != nil {
			return err
		}
		if err := doc.CalculateBilling(ctx, s.rates); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
}

// Delete removes a draft dispatch.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if err := doc.CanModify(); err != nil {
			return err
		}
		return s.repo.Delete(ctx, docID)
	})
}

// Submit validates every row against its linked receipt and records the
// dispatch in the ledger atomically.
func (s *Service) Submit(ctx context.Context, docID id.ID) (*Dispatch, error) {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}
	if err := doc.CalculateBilling(ctx, s.rates); err != nil {
		return nil, err
	}

	err = s.postingEngine.Submit(ctx, doc, func(ctx context.Context) error {
		doc.MarkSubmitted()
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		return s.repo.SaveLines(ctx, doc.ID, doc.Lines)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// SubmitNew stores and submits a dispatch in the caller's transaction.
// Transfer receipts use it to write their companion dispatch.
func (s *Service) SubmitNew(ctx context.Context, doc *Dispatch) error {
	doc.Renumber()
	if err := doc.Validate(ctx); err != nil {
		return err
	}
	doc.RecalculateTotals()

	return s.postingEngine.Submit(ctx, doc, func(ctx context.Context) error {
		doc.MarkSubmitted()
		return s.insert(ctx, doc)
	})
}

// Cancel reverses the dispatch's movements and keeps the record as cancelled.
func (s *Service) Cancel(ctx context.Context, docID id.ID) (*Dispatch, error) {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	err = s.postingEngine.Cancel(ctx, doc, nil, func(ctx context.Context) error {
		doc.MarkCancelled()
		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Validate runs the submit-time checks on a stored dispatch without submitting.
func (s *Service) Validate(ctx context.Context, docID id.ID) error {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	if err := doc.Validate(ctx); err != nil {
		return err
	}
	return s.postingEngine.Validate(ctx, doc)
}

// Invoice builds the billable summary of a submitted dispatch. Storage is
// billed from the first row's receipt date.
func (s *Service) Invoice(ctx context.Context, docID id.ID) (Invoice, error) {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return Invoice{}, err
	}
	if doc.Status != entity.StatusSubmitted {
		return Invoice{}, apperror.NewBusinessRule(apperror.CodeBusinessRule, "Only submitted dispatches can be invoiced.").
			WithDetail("document_id", doc.ID.String())
	}

	receiptDate := doc.Date
	if len(doc.Lines) > 0 {
		ref, err := s.receipts.ReceiptRef(ctx, doc.Lines[0].LinkedReceipt)
		if err != nil {
			return Invoice{}, err
		}
		receiptDate = ref.Date
	}
	return doc.BuildInvoice(receiptDate), nil
}

// ActiveByReceipt lists non-cancelled dispatches drawing on a receipt.
func (s *Service) ActiveByReceipt(ctx context.Context, receiptID id.ID) ([]*Dispatch, error) {
	return s.repo.ActiveByReceipt(ctx, receiptID)
}

// CancelByOrigin cancels the transfer dispatch written by a receipt, if any.
func (s *Service) CancelByOrigin(ctx context.Context, receiptID id.ID) error {
	doc, err := s.repo.GetByOrigin(ctx, receiptID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if doc.Status != entity.StatusSubmitted {
		return nil
	}
	_, err = s.Cancel(ctx, doc.ID)
	return err
}

// List retrieves dispatches with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Dispatch], error) {
	return s.repo.List(ctx, filter)
}

// CountDrafts returns the number of dispatches awaiting submission.
func (s *Service) CountDrafts(ctx context.Context) (int64, error) {
	return s.repo.CountByStatus(ctx, entity.StatusDraft)
}
