// Package posting gates and commits documents that move bags through the ledger.
package posting

import (
	"context"
	"fmt"

	"coldstore/internal/core/apperror"
	"coldstore/internal/core/id"
	"coldstore/internal/core/types"
	"coldstore/internal/domain/balance"
)

// LineCheck is one row of a document that draws stock.
type LineCheck struct {
	// Row is the 1-indexed row position shown to the operator.
	Row      int
	Scope    balance.Scope
	BatchNo  string
	Quantity types.Bags

	// ExcludeDispatchID is set when re-validating a dispatch's own rows.
	ExcludeDispatchID *id.ID
}

// Checker is the balance resolver as seen by the validator.
type Checker interface {
	Check(ctx context.Context, req balance.Request) (balance.Result, error)
}

// Validator is the submit-time gate. A document passes only if every row does.
type Validator struct {
	checker Checker
}

// NewValidator creates a validator.
func NewValidator(checker Checker) *Validator {
	return &Validator{checker: checker}
}

// Validate checks every row in order and fails on the first bad one with a
// VALIDATION_ERROR naming that row. Bags claimed by earlier rows are reserved
// against later rows drawing from the same scope and batch.
func (v *Validator) Validate(ctx context.Context, lines []LineCheck) error {
	reserved := make(map[string]types.Bags, len(lines))

	for i, line := range lines {
		row := line.Row
		if row == 0 {
			row = i + 1
		}

		if !line.Quantity.IsPositive() {
			return apperror.NewRowValidation(row, "Number of Bags must be greater than 0").
				WithDetail("quantity", line.Quantity.Int64())
		}

		key := reserveKey(line.Scope, line.BatchNo)
		res, err := v.checker.Check(ctx, balance.Request{
			Scope:             line.Scope,
			BatchNo:           line.BatchNo,
			Quantity:          line.Quantity,
			ExcludeDispatchID: line.ExcludeDispatchID,
			Reserved:          reserved[key],
		})
		if err != nil {
			if apperror.IsNotFound(err) || apperror.IsInvalidQuantity(err) {
				appErr, _ := apperror.AsAppError(err)
				return apperror.NewRowValidation(row, appErr.Message).WithCause(err)
			}
			return err
		}

		switch res.Verdict {
		case balance.Provisional:
			return apperror.NewRowValidation(row, "Batch and source receipt or warehouse are required")
		case balance.Rejected:
			return apperror.NewRowValidation(row,
				fmt.Sprintf("Insufficient balance for Batch %s. Available: %d, Requested: %d",
					line.BatchNo, res.Available, line.Quantity)).
				WithDetail("available", res.Available.Int64()).
				WithDetail("requested", line.Quantity.Int64()).
				WithDetail("batch_no", line.BatchNo)
		}

		reserved[key] += line.Quantity
	}

	return nil
}

func reserveKey(s balance.Scope, batchNo string) string {
	switch sc := s.(type) {
	case balance.ReceiptScope:
		return "r|" + sc.ReceiptID.String() + "|" + batchNo
	case balance.AggregateScope:
		return "a|" + sc.Customer + "|" + sc.Warehouse + "|" + batchNo
	}
	return "u|" + batchNo
}
