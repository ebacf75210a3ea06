package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"coldstore/internal/core/apperror"
	appctx "coldstore/internal/core/context"
	"coldstore/internal/core/entity"
	"coldstore/internal/core/id"
	"coldstore/internal/domain"
)

// docTable is the generic header and line storage shared by receipts and
// dispatches. All access happens under store.mu.
type docTable[T any, L any] struct {
	store  *Store
	entity string
	rows   map[id.ID]T
	lines  map[id.ID][]L

	doc   func(T) *entity.Document
	clone func(T) T
	dims  func(T) (customer, warehouse string)
}

func newDocTable[T any, L any](
	store *Store,
	entityName string,
	doc func(T) *entity.Document,
	clone func(T) T,
	dims func(T) (string, string),
) *docTable[T, L] {
	return &docTable[T, L]{
		store:  store,
		entity: entityName,
		rows:   make(map[id.ID]T),
		lines:  make(map[id.ID][]L),
		doc:    doc,
		clone:  clone,
		dims:   dims,
	}
}

// Create inserts a new header.
func (t *docTable[T, L]) Create(ctx context.Context, doc T) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	d := t.doc(doc)
	if _, ok := t.rows[d.ID]; ok {
		return apperror.NewBusinessRule(apperror.CodeConflict, fmt.Sprintf("%s already exists", t.entity)).
			WithDetail("id", d.ID.String())
	}
	if d.CreatedBy == "" {
		d.CreatedBy = appctx.GetOperatorName(ctx)
	}
	d.UpdatedBy = d.CreatedBy

	docID := d.ID
	t.rows[docID] = t.clone(doc)
	onRollback(ctx, func() { delete(t.rows, docID) })
	return nil
}

// GetByID returns a copy of the header.
func (t *docTable[T, L]) GetByID(_ context.Context, docID id.ID) (T, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	return t.get(docID)
}

func (t *docTable[T, L]) get(docID id.ID) (T, error) {
	row, ok := t.rows[docID]
	if !ok {
		var zero T
		return zero, apperror.NewNotFound(t.entity, docID.String())
	}
	return t.clone(row), nil
}

// GetForUpdate returns a copy of the header. Writers are serialized by the
// batch locks and the version check in Update.
func (t *docTable[T, L]) GetForUpdate(ctx context.Context, docID id.ID) (T, error) {
	return t.GetByID(ctx, docID)
}

// Update replaces the header if its version is unchanged and bumps the version.
func (t *docTable[T, L]) Update(ctx context.Context, doc T) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	d := t.doc(doc)
	prev, ok := t.rows[d.ID]
	if !ok {
		return apperror.NewNotFound(t.entity, d.ID.String())
	}
	if t.doc(prev).Version != d.Version {
		return apperror.NewConcurrentModification(t.entity, d.ID.String())
	}

	d.Touch()
	d.UpdatedBy = appctx.GetOperatorName(ctx)
	d.Version++

	docID := d.ID
	t.rows[docID] = t.clone(doc)
	onRollback(ctx, func() { t.rows[docID] = prev })
	return nil
}

// Delete removes the header and its lines.
func (t *docTable[T, L]) Delete(ctx context.Context, docID id.ID) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	prev, ok := t.rows[docID]
	if !ok {
		return apperror.NewNotFound(t.entity, docID.String())
	}
	prevLines, hadLines := t.lines[docID]

	delete(t.rows, docID)
	delete(t.lines, docID)
	onRollback(ctx, func() {
		t.rows[docID] = prev
		if hadLines {
			t.lines[docID] = prevLines
		}
	})
	return nil
}

// GetLines returns a copy of the document's lines.
func (t *docTable[T, L]) GetLines(_ context.Context, docID id.ID) ([]L, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	out := make([]L, len(t.lines[docID]))
	copy(out, t.lines[docID])
	return out, nil
}

// SaveLines replaces the document's lines.
func (t *docTable[T, L]) SaveLines(ctx context.Context, docID id.ID, lines []L) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	prev, had := t.lines[docID]
	stored := make([]L, len(lines))
	copy(stored, lines)
	t.lines[docID] = stored

	onRollback(ctx, func() {
		if had {
			t.lines[docID] = prev
		} else {
			delete(t.lines, docID)
		}
	})
	return nil
}

// List filters, orders and pages headers.
func (t *docTable[T, L]) List(_ context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	matched := make([]T, 0, len(t.rows))
	for _, row := range t.rows {
		if t.matches(row, filter) {
			matched = append(matched, t.clone(row))
		}
	}

	field, desc := parseOrder(filter.OrderBy)
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := t.doc(matched[i]), t.doc(matched[j])
		c := compareDocs(a, b, field)
		if c == 0 {
			c = strings.Compare(a.ID.String(), b.ID.String())
		}
		if desc {
			return c > 0
		}
		return c < 0
	})

	total := int64(len(matched))
	start := min(max(filter.Offset, 0), len(matched))
	end := len(matched)
	if filter.Limit > 0 && start+filter.Limit < end {
		end = start + filter.Limit
	}

	return domain.ListResult[T]{
		Items:      matched[start:end],
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

func (t *docTable[T, L]) matches(row T, f domain.ListFilter) bool {
	d := t.doc(row)
	customer, warehouse := t.dims(row)

	if f.Search != "" && !strings.Contains(strings.ToLower(d.Number), strings.ToLower(f.Search)) {
		return false
	}
	if f.Customer != "" && customer != f.Customer {
		return false
	}
	if f.Warehouse != "" && warehouse != f.Warehouse {
		return false
	}
	if f.Status != nil && d.Status != *f.Status {
		return false
	}
	if f.DateFrom != nil && d.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && d.Date.After(*f.DateTo) {
		return false
	}
	return true
}

// CountByStatus counts headers in the given status.
func (t *docTable[T, L]) CountByStatus(_ context.Context, status entity.Status) (int64, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	var n int64
	for _, row := range t.rows {
		if t.doc(row).Status == status {
			n++
		}
	}
	return n, nil
}

func parseOrder(orderBy string) (string, bool) {
	if orderBy == "" {
		return "date", true
	}
	if strings.HasPrefix(orderBy, "-") {
		return orderBy[1:], true
	}
	return orderBy, false
}

func compareDocs(a, b *entity.Document, field string) int {
	switch field {
	case "number":
		return strings.Compare(a.Number, b.Number)
	case "created_at":
		return compareTime(a.CreatedAt, b.CreatedAt)
	default:
		return compareTime(a.Date, b.Date)
	}
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
