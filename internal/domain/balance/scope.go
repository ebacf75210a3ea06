// Package balance resolves how many bags are available for a proposed draw.
package balance

import (
	"coldstore/internal/core/id"
)

// Scope is the balance-query context of a draw.
// It is one of ReceiptScope, AggregateScope or Unscoped.
type Scope interface {
	scopeName() string
}

// ReceiptScope draws against a single receipt.
type ReceiptScope struct {
	ReceiptID id.ID
}

// AggregateScope draws against every receipt of a customer in a warehouse.
type AggregateScope struct {
	Customer  string
	Warehouse string
}

// Unscoped means the entry does not yet know where it draws from.
type Unscoped struct{}

func (ReceiptScope) scopeName() string   { return "receipt" }
func (AggregateScope) scopeName() string { return "aggregate" }
func (Unscoped) scopeName() string       { return "unscoped" }

// ScopeName returns a stable label for logs and metrics.
func ScopeName(s Scope) string {
	if s == nil {
		return Unscoped{}.scopeName()
	}
	return s.scopeName()
}

// resolvable reports whether the scope and batch identify a balance.
func resolvable(s Scope, batchNo string) bool {
	if batchNo == "" {
		return false
	}
	switch sc := s.(type) {
	case ReceiptScope:
		return !id.IsNil(sc.ReceiptID)
	case AggregateScope:
		return sc.Customer != "" && sc.Warehouse != ""
	}
	return false
}
