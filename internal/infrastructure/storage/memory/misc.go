package memory

import (
	"context"
	"sort"

	appctx "coldstore/internal/core/context"
	"coldstore/internal/domain/posting"
	"coldstore/internal/domain/rates"
)

var (
	_ rates.RuleSource = (*Store)(nil)
	_ posting.AuditLog    = (*Store)(nil)
	_ posting.AuditReader = (*Store)(nil)
)

// SetRules replaces the rate card.
func (s *Store) SetRules(rules []rates.Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append([]rates.Rule(nil), rules...)
}

// Rules implements rates.RuleSource.
func (s *Store) Rules(context.Context) ([]rates.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]rates.Rule(nil), s.rules...), nil
}

// Record implements posting.AuditLog.
func (s *Store) Record(ctx context.Context, entry posting.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.RequestID == "" {
		entry.RequestID = appctx.RequestID(ctx)
	}
	s.audit = append(s.audit, entry)
	onRollback(ctx, func() {
		for i := range s.audit {
			if s.audit[i].ID == entry.ID {
				s.audit = append(s.audit[:i], s.audit[i+1:]...)
				return
			}
		}
	})
	return nil
}

// AuditEntries returns a copy of the audit trail.
func (s *Store) AuditEntries() []posting.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]posting.AuditEntry(nil), s.audit...)
}

// Entries implements posting.AuditReader.
func (s *Store) Entries(_ context.Context, f posting.AuditFilter) ([]posting.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]posting.AuditEntry, 0, len(s.audit))
	for _, e := range s.audit {
		switch {
		case f.DocumentType != "" && e.DocumentType != f.DocumentType,
			f.DocumentID != nil && e.DocumentID != *f.DocumentID,
			f.Operator != "" && e.Operator != f.Operator,
			f.From != nil && e.CreatedAt.Before(*f.From),
			f.To != nil && e.CreatedAt.After(*f.To):
			continue
		}
		out = append(out, e)
	}

	// Entries are appended in commit order; equal timestamps keep it reversed.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
