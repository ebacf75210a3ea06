package posting

import (
	"context"
	"fmt"
	"time"

	"coldstore/internal/core/apperror"
	appctx "coldstore/internal/core/context"
	"coldstore/internal/core/entity"
	"coldstore/internal/core/id"
	"coldstore/internal/core/tx"
	"coldstore/internal/domain/balance"
	"coldstore/pkg/logger"
)

// Postable is a document that can be submitted into the ledger.
type Postable interface {
	GetID() id.ID
	GetStatus() entity.Status
	GetDocumentType() string

	// BalanceChecks lists the rows that draw stock, in row order.
	BalanceChecks() []LineCheck

	// GenerateMovements builds the register rows written on submit.
	GenerateMovements(ctx context.Context, receipts ReceiptLookup) ([]entity.BatchMovement, error)
}

// ReceiptLookup resolves receipt headers for lock keys and movement dimensions.
type ReceiptLookup interface {
	SubmittedReceipt(ctx context.Context, receiptID id.ID) (entity.ReceiptRef, error)
}

// Ledger is the write side of the batch register used by the engine.
type Ledger interface {
	ReceiptLookup
	Lock(ctx context.Context, keys []entity.BatchKey) error
	Record(ctx context.Context, movements []entity.BatchMovement) error
	Reverse(ctx context.Context, recorderID id.ID) error
	Movements(ctx context.Context, recorderID id.ID) ([]entity.BatchMovement, error)
}

// Engine makes validate-and-commit atomic.
//
// Within one transaction it locks every batch key the document touches,
// re-runs the validator against the locked balances, saves the document and
// writes its movements. A concurrent poster of the same batch waits on the
// lock and then sees the committed movements.
type Engine struct {
	txManager tx.Manager
	ledger    Ledger
	validator *Validator
	audit     AuditLog
}

// NewEngine creates a posting engine. audit may be nil.
func NewEngine(txManager tx.Manager, ledger Ledger, validator *Validator, audit AuditLog) *Engine {
	return &Engine{
		txManager: txManager,
		ledger:    ledger,
		validator: validator,
		audit:     audit,
	}
}

// Submit posts doc. save persists the document state (status, totals) and may
// write companion documents; it runs after validation inside the transaction.
func (e *Engine) Submit(ctx context.Context, doc Postable, save func(ctx context.Context) error) error {
	if doc.GetStatus() != entity.StatusDraft {
		return apperror.NewBusinessRule(apperror.CodeDocumentSubmitted, "Only draft documents can be submitted.").
			WithDetail("document_id", doc.GetID().String()).
			WithDetail("status", string(doc.GetStatus()))
	}

	return e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		checks := doc.BalanceChecks()

		keys, err := e.checkKeys(ctx, checks)
		if err != nil {
			return err
		}
		if err := e.ledger.Lock(ctx, keys); err != nil {
			return fmt.Errorf("lock batches: %w", err)
		}

		// Rows are judged in order before movements are built, so the
		// error names the first failing row.
		if err := e.validator.Validate(ctx, checks); err != nil {
			return err
		}

		movements, err := doc.GenerateMovements(ctx, e.ledger)
		if err != nil {
			return fmt.Errorf("generate movements: %w", err)
		}
		// Locks are reentrant; only keys not covered by the checks are new.
		moved := make([]entity.BatchKey, 0, len(movements))
		for _, m := range movements {
			moved = append(moved, entity.BatchKey{Customer: m.Customer, Warehouse: m.Warehouse, BatchNo: m.BatchNo})
		}
		if err := e.ledger.Lock(ctx, moved); err != nil {
			return fmt.Errorf("lock batches: %w", err)
		}

		if err := save(ctx); err != nil {
			return err
		}

		if err := e.ledger.Record(ctx, movements); err != nil {
			return err
		}

		if err := e.recordAudit(ctx, doc, AuditActionSubmit, len(movements)); err != nil {
			return err
		}

		logger.Info(ctx, "document submitted",
			"document_type", doc.GetDocumentType(),
			"document_id", doc.GetID(),
			"movements", len(movements),
		)
		return nil
	})
}

// Cancel removes the movements of a submitted doc and saves its cancelled state.
// guard runs under the batch locks before anything is written.
func (e *Engine) Cancel(ctx context.Context, doc Postable, guard, save func(ctx context.Context) error) error {
	if doc.GetStatus() != entity.StatusSubmitted {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "Only submitted documents can be cancelled.").
			WithDetail("document_id", doc.GetID().String()).
			WithDetail("status", string(doc.GetStatus()))
	}

	return e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		movements, err := e.ledger.Movements(ctx, doc.GetID())
		if err != nil {
			return fmt.Errorf("load movements: %w", err)
		}

		keys := make([]entity.BatchKey, 0, len(movements))
		for _, m := range movements {
			keys = append(keys, entity.BatchKey{Customer: m.Customer, Warehouse: m.Warehouse, BatchNo: m.BatchNo})
		}
		if err := e.ledger.Lock(ctx, keys); err != nil {
			return fmt.Errorf("lock batches: %w", err)
		}

		if guard != nil {
			if err := guard(ctx); err != nil {
				return err
			}
		}

		if err := e.ledger.Reverse(ctx, doc.GetID()); err != nil {
			return err
		}
		if err := save(ctx); err != nil {
			return err
		}

		if err := e.recordAudit(ctx, doc, AuditActionCancel, len(movements)); err != nil {
			return err
		}

		logger.Info(ctx, "document cancelled",
			"document_type", doc.GetDocumentType(),
			"document_id", doc.GetID(),
		)
		return nil
	})
}

// Validate runs the submit-time checks without writing anything.
func (e *Engine) Validate(ctx context.Context, doc Postable) error {
	return e.validator.Validate(ctx, doc.BalanceChecks())
}

// checkKeys resolves the lock key of every resolvable balance check.
func (e *Engine) checkKeys(ctx context.Context, checks []LineCheck) ([]entity.BatchKey, error) {
	keys := make([]entity.BatchKey, 0, len(checks))
	for _, c := range checks {
		if c.BatchNo == "" {
			continue
		}
		switch sc := c.Scope.(type) {
		case balance.ReceiptScope:
			if id.IsNil(sc.ReceiptID) {
				continue
			}
			ref, err := e.ledger.SubmittedReceipt(ctx, sc.ReceiptID)
			if err != nil {
				if apperror.IsNotFound(err) {
					// The validator reports this against the row.
					continue
				}
				return nil, err
			}
			keys = append(keys, entity.BatchKey{Customer: ref.Customer, Warehouse: ref.Warehouse, BatchNo: c.BatchNo})
		case balance.AggregateScope:
			keys = append(keys, entity.BatchKey{Customer: sc.Customer, Warehouse: sc.Warehouse, BatchNo: c.BatchNo})
		}
	}
	return keys, nil
}

func (e *Engine) recordAudit(ctx context.Context, doc Postable, action AuditAction, movements int) error {
	if e.audit == nil {
		return nil
	}
	err := e.audit.Record(ctx, AuditEntry{
		ID:           id.New(),
		DocumentType: doc.GetDocumentType(),
		DocumentID:   doc.GetID(),
		Action:       action,
		Operator:     appctx.GetOperatorName(ctx),
		Payload:      map[string]any{"document": doc, "movements": movements},
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("record audit: %w", err)
	}
	return nil
}
