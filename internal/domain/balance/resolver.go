package balance

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"coldstore/internal/core/apperror"
	"coldstore/internal/core/entity"
	"coldstore/internal/core/id"
	"coldstore/internal/core/types"
	"coldstore/pkg/logger"
)

var tracer = otel.Tracer("coldstore/balance")

// Verdict is the outcome of a balance check.
type Verdict string

const (
	// Accepted: the quantity fits the available balance.
	Accepted Verdict = "accepted"
	// Rejected: the quantity exceeds the balance. Not an error.
	Rejected Verdict = "rejected"
	// Provisional: no scope could be resolved, the check is deferred to submit.
	Provisional Verdict = "provisional"
)

// Request is a proposed draw.
type Request struct {
	Scope    Scope
	BatchNo  string
	Quantity types.Bags

	// ExcludeDispatchID ignores the movements of a dispatch being re-validated.
	ExcludeDispatchID *id.ID

	// Reserved is the number of bags already claimed from the same scope by
	// earlier rows of the same document.
	Reserved types.Bags
}

// Result carries the verdict and, unless provisional, the available bags.
type Result struct {
	Verdict   Verdict    `json:"verdict"`
	Available types.Bags `json:"available"`
}

// IsAccepted reports whether the draw may proceed (accepted or provisional).
func (r Result) IsAccepted() bool {
	return r.Verdict != Rejected
}

// Ledger is the read side of the batch register the resolver consumes.
type Ledger interface {
	ReceiptBalance(ctx context.Context, receiptID id.ID, batchNo string, exclude *id.ID) (types.Bags, error)
	AggregateBalance(ctx context.Context, key entity.BatchKey, exclude *id.ID) (types.Bags, error)
}

// Observer is notified of every completed check.
type Observer interface {
	ObserveBalanceCheck(scope string, verdict Verdict)
}

type nopObserver struct{}

func (nopObserver) ObserveBalanceCheck(string, Verdict) {}

// Resolver validates proposed quantities against the ledger.
// It never writes to the ledger.
type Resolver struct {
	ledger   Ledger
	observer Observer
}

// NewResolver creates a resolver. observer may be nil.
func NewResolver(ledger Ledger, observer Observer) *Resolver {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Resolver{ledger: ledger, observer: observer}
}

// Check validates req.
//
// A quantity <= 0 fails with INVALID_QUANTITY. An unresolvable scope yields
// Provisional. A missing or unsubmitted receipt fails with NOT_FOUND.
// Otherwise the verdict is Accepted or Rejected with the available bags.
func (r *Resolver) Check(ctx context.Context, req Request) (Result, error) {
	scope := ScopeName(req.Scope)
	ctx, span := tracer.Start(ctx, "balance.Check",
		trace.WithAttributes(
			attribute.String("balance.scope", scope),
			attribute.String("balance.batch_no", req.BatchNo),
			attribute.Int64("balance.quantity", req.Quantity.Int64()),
		))
	defer span.End()

	if !req.Quantity.IsPositive() {
		span.SetStatus(codes.Error, "invalid quantity")
		return Result{}, apperror.NewInvalidQuantity(req.Quantity.Int64())
	}

	if !resolvable(req.Scope, req.BatchNo) {
		r.observer.ObserveBalanceCheck(scope, Provisional)
		return Result{Verdict: Provisional}, nil
	}

	balance, err := r.scopeBalance(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "balance query failed")
		return Result{}, err
	}

	available := balance - req.Reserved
	if available < 0 {
		available = 0
	}

	result := Result{Verdict: Accepted, Available: available}
	if req.Quantity > available {
		result.Verdict = Rejected
		logger.Debug(ctx, "balance check rejected",
			"scope", scope,
			"batch_no", req.BatchNo,
			"requested", req.Quantity,
			"available", available,
		)
	}

	span.SetAttributes(
		attribute.String("balance.verdict", string(result.Verdict)),
		attribute.Int64("balance.available", available.Int64()),
	)
	r.observer.ObserveBalanceCheck(scope, result.Verdict)
	return result, nil
}

func (r *Resolver) scopeBalance(ctx context.Context, req Request) (types.Bags, error) {
	switch sc := req.Scope.(type) {
	case ReceiptScope:
		return r.ledger.ReceiptBalance(ctx, sc.ReceiptID, req.BatchNo, req.ExcludeDispatchID)
	case AggregateScope:
		return r.ledger.AggregateBalance(ctx, entity.BatchKey{
			Customer:  sc.Customer,
			Warehouse: sc.Warehouse,
			BatchNo:   req.BatchNo,
		}, req.ExcludeDispatchID)
	}
	return 0, apperror.NewValidation("unsupported balance scope")
}
