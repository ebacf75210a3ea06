package context

import "context"

// Operator identifies who is entering data (clerk, gate operator, mobile device).
// It is informational only and feeds audit entries; it is not an authorization principal.
type Operator struct {
	Name   string
	Device string
}

type operatorKey struct{}

// WithOperator adds Operator to context.
func WithOperator(ctx context.Context, op *Operator) context.Context {
	return context.WithValue(ctx, operatorKey{}, op)
}

// GetOperator returns Operator from context.
func GetOperator(ctx context.Context) *Operator {
	if v, ok := ctx.Value(operatorKey{}).(*Operator); ok {
		return v
	}
	return nil
}

// GetOperatorName returns the operator name or "system".
func GetOperatorName(ctx context.Context) string {
	if op := GetOperator(ctx); op != nil && op.Name != "" {
		return op.Name
	}
	return "system"
}
