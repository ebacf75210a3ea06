package receipt

import (
	"context"
	"fmt"
	"strings"

	"coldstore/internal/core/apperror"
	"coldstore/internal/core/entity"
	"coldstore/internal/core/id"
	"coldstore/internal/core/tx"
	"coldstore/internal/core/types"
	"coldstore/internal/domain"
	"coldstore/internal/domain/documents/dispatch"
	"coldstore/internal/domain/ledger"
	"coldstore/internal/domain/posting"
	"coldstore/internal/domain/rates"
	"coldstore/pkg/logger"
)

// Ledger is the read side of the batch register used by transfers.
type Ledger interface {
	ReceiptRef(ctx context.Context, receiptID id.ID) (entity.ReceiptRef, error)
	AllocateFIFO(ctx context.Context, key entity.BatchKey, bags types.Bags, exclude *id.ID) ([]ledger.Allocation, error)
}

// Dispatches writes and inspects the dispatches tied to receipts.
type Dispatches interface {
	SubmitNew(ctx context.Context, doc *dispatch.Dispatch) error
	ActiveByReceipt(ctx context.Context, receiptID id.ID) ([]*dispatch.Dispatch, error)
	CancelByOrigin(ctx context.Context, receiptID id.ID) error
}

// TransferRates are the loading charges per equated bag of a warehouse transfer.
type TransferRates struct {
	Intra types.Money
	Inter types.Money
}

// Service provides business operations for receipt documents.
type Service struct {
	repo          Repository
	postingEngine *posting.Engine
	ledger        Ledger
	dispatches    Dispatches
	transferRates TransferRates
	txManager     tx.Manager
}

// NewService creates a new receipt service.
func NewService(
	repo Repository,
	postingEngine *posting.Engine,
	ledger Ledger,
	dispatches Dispatches,
	transferRates TransferRates,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:          repo,
		postingEngine: postingEngine,
		ledger:        ledger,
		dispatches:    dispatches,
		transferRates: transferRates,
		txManager:     txManager,
	}
}

// Create stores a new draft receipt.
func (s *Service) Create(ctx context.Context, doc *Receipt) error {
	doc.Status = entity.StatusDraft
	if doc.ReceiptType == "" {
		doc.ReceiptType = TypeNew
	}
	doc.Renumber()

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "receipt created", "id", doc.ID, "customer", doc.Customer, "bags", doc.TotalBags)
	return nil
}

// GetByID retrieves a receipt with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Receipt, error) {
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

// Update replaces a draft receipt's header and lines.
func (s *Service) Update(ctx context.Context, doc *Receipt) error {
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
		doc.CreatedAt = current.CreatedAt
		if doc.ReceiptType == "" {
			doc.ReceiptType = current.ReceiptType
		}
		doc.Renumber()

		if err := doc.Validate(ctx); err != nil {
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

// Delete removes a draft receipt.
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

// Submit records the receipt in the ledger. Transfer receipts draw their bags
// from the source and write the companion transfer dispatch in the same
// transaction.
func (s *Service) Submit(ctx context.Context, docID id.ID) (*Receipt, error) {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}
	if doc.ReceiptType == TypeCustomerTransfer {
		if err := s.checkTransferSource(ctx, doc); err != nil {
			return nil, err
		}
	}

	err = s.postingEngine.Submit(ctx, doc, func(ctx context.Context) error {
		if doc.ReceiptType == TypeWarehouseTransfer {
			doc.TransferLoadingAmount = s.transferLoading(doc)
		}
		doc.MarkSubmitted()
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}

		switch doc.ReceiptType {
		case TypeCustomerTransfer:
			return s.dispatches.SubmitNew(ctx, s.customerTransferDispatch(doc))
		case TypeWarehouseTransfer:
			d, err := s.warehouseTransferDispatch(ctx, doc)
			if err != nil {
				return err
			}
			return s.dispatches.SubmitNew(ctx, d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// checkTransferSource enforces that a customer transfer draws from a receipt
// of the transferring customer in the same warehouse.
func (s *Service) checkTransferSource(ctx context.Context, doc *Receipt) error {
	source, err := s.ledger.ReceiptRef(ctx, *doc.SourceReceipt)
	if err != nil {
		return err
	}
	if source.Status != entity.StatusSubmitted {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "Source Receipt must be submitted.").
			WithDetail("source_receipt", source.ID.String())
	}
	if source.Customer != doc.FromCustomer {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule,
			fmt.Sprintf("Source Receipt belongs to %s, not %s.", source.Customer, doc.FromCustomer)).
			WithDetail("source_receipt", source.ID.String())
	}
	if source.Warehouse != doc.Warehouse {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"Customer Transfer must stay in the source receipt's warehouse.").
			WithDetail("source_receipt", source.ID.String()).
			WithDetail("warehouse", source.Warehouse)
	}
	return nil
}

func (s *Service) customerTransferDispatch(doc *Receipt) *dispatch.Dispatch {
	d := dispatch.NewDispatch(doc.FromCustomer, rates.BillingDaily)
	d.Source = dispatch.SourceTransfer
	d.OriginReceipt = &doc.ID
	d.Date = doc.Date
	d.Warehouse = doc.Warehouse
	d.Remarks = fmt.Sprintf("Auto-generated Transfer to %s via Receipt %s", doc.Customer, doc.displayName())

	for _, line := range doc.Lines {
		d.AddLine(*doc.SourceReceipt, doc.Warehouse, line.BatchNo, line.GoodsItem, line.ItemGroup, line.Bags)
	}
	return d
}

// warehouseTransferDispatch allocates each batch's draw over the customer's
// receipts in the source warehouse, oldest first.
func (s *Service) warehouseTransferDispatch(ctx context.Context, doc *Receipt) (*dispatch.Dispatch, error) {
	d := dispatch.NewDispatch(doc.Customer, rates.BillingDaily)
	d.Source = dispatch.SourceTransfer
	d.OriginReceipt = &doc.ID
	d.Date = doc.Date
	d.Warehouse = doc.FromWarehouse
	d.Remarks = fmt.Sprintf("Auto-generated Transfer to %s via Receipt %s", doc.Warehouse, doc.displayName())

	order, sums := doc.BagsByBatch()
	for _, batchNo := range order {
		key := entity.BatchKey{Customer: doc.Customer, Warehouse: doc.FromWarehouse, BatchNo: batchNo}
		allocations, err := s.ledger.AllocateFIFO(ctx, key, sums[batchNo], nil)
		if err != nil {
			return nil, err
		}
		goodsItem, itemGroup := doc.itemOf(batchNo)
		for _, a := range allocations {
			d.AddLine(a.ReceiptID, doc.FromWarehouse, batchNo, goodsItem, itemGroup, a.Bags)
		}
	}
	return d, nil
}

func (s *Service) transferLoading(doc *Receipt) types.Money {
	rate := s.transferRates.Inter
	if doc.IsIntraWarehouse() {
		rate = s.transferRates.Intra
	}
	return rate.Mul(doc.EquatedBags()).Round(2)
}

func (r *Receipt) itemOf(batchNo string) (string, string) {
	for _, line := range r.Lines {
		if line.BatchNo == batchNo {
			return line.GoodsItem, line.ItemGroup
		}
	}
	return "", ""
}

func (r *Receipt) displayName() string {
	if strings.TrimSpace(r.Number) != "" {
		return r.Number
	}
	return r.ID.String()
}

// Cancel reverses the receipt. It is refused while any non-cancelled
// dispatch still draws on it; the transfer dispatch it wrote is cancelled
// with it.
func (s *Service) Cancel(ctx context.Context, docID id.ID) (*Receipt, error) {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	guard := func(ctx context.Context) error {
		active, err := s.dispatches.ActiveByReceipt(ctx, doc.ID)
		if err != nil {
			return fmt.Errorf("linked dispatches: %w", err)
		}
		if len(active) > 0 {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule,
				fmt.Sprintf("Cannot cancel Receipt because linked Dispatch %s exists. Please cancel the Dispatch first.", dispatchName(active[0]))).
				WithDetail("dispatch_id", active[0].ID.String())
		}
		return nil
	}

	err = s.postingEngine.Cancel(ctx, doc, guard, func(ctx context.Context) error {
		doc.MarkCancelled()
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		return s.dispatches.CancelByOrigin(ctx, doc.ID)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func dispatchName(d *dispatch.Dispatch) string {
	if d.Number != "" {
		return d.Number
	}
	return d.ID.String()
}

// Validate runs the submit-time checks on a stored receipt without submitting.
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

// List retrieves receipts with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Receipt], error) {
	return s.repo.List(ctx, filter)
}

// CountDrafts returns the number of receipts awaiting submission.
func (s *Service) CountDrafts(ctx context.Context) (int64, error) {
	return s.repo.CountByStatus(ctx, entity.StatusDraft)
}
