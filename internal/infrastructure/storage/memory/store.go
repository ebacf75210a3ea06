// Package memory provides an in-process implementation of the storage
// interfaces. Writes are applied immediately and undone if the enclosing
// transaction fails; batch locks are held until the transaction ends.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"coldstore/internal/core/entity"
	"coldstore/internal/core/tx"
	"coldstore/internal/domain/documents/dispatch"
	"coldstore/internal/domain/documents/receipt"
	"coldstore/internal/domain/posting"
	"coldstore/internal/domain/rates"
	"coldstore/pkg/logger"
)

// ErrNoTransaction is returned by operations that need a transaction in context.
var ErrNoTransaction = errors.New("memory: no transaction in context")

var (
	_ tx.Manager         = (*Store)(nil)
	_ tx.ReadOnlyManager = (*Store)(nil)
)

// Store holds every table of the service in memory.
type Store struct {
	mu sync.RWMutex

	receipts   *docTable[*receipt.Receipt, receipt.Line]
	dispatches *docTable[*dispatch.Dispatch, dispatch.Line]
	movements  []entity.BatchMovement
	rules      []rates.Rule
	audit      []posting.AuditEntry

	lockMu sync.Mutex
	locks  map[entity.BatchKey]chan struct{}
}

// New creates an empty store.
func New() *Store {
	s := &Store{
		locks: make(map[entity.BatchKey]chan struct{}),
	}
	s.receipts = newReceiptTable(s)
	s.dispatches = newDispatchTable(s)
	return s
}

type txKey struct{}

// txn is the state of one transaction.
type txn struct {
	undo []func()
	held []chan struct{}
	keys map[entity.BatchKey]struct{}
}

func txFromContext(ctx context.Context) *txn {
	if t, ok := ctx.Value(txKey{}).(*txn); ok {
		return t
	}
	return nil
}

// RunInTransaction executes fn within a transaction.
// If a transaction already exists in ctx, it will be reused.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	t := &txn{keys: make(map[entity.BatchKey]struct{})}
	txCtx := context.WithValue(ctx, txKey{}, t)

	defer func() {
		if r := recover(); r != nil {
			s.rollback(t)
			s.release(t)
			panic(r)
		}
		if err != nil {
			s.rollback(t)
			logger.Debug(ctx, "memory transaction rolled back", "undo", len(t.undo), "error", err)
		}
		s.release(t)
	}()

	return fn(txCtx)
}

// ReadOnly executes fn; reads never need undo.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.RunInTransaction(ctx, fn)
}

func (s *Store) rollback(t *txn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (s *Store) release(t *txn) {
	for _, ch := range t.held {
		<-ch
	}
	t.held = nil
}

// onRollback registers an undo step. Must be called with s.mu held.
func onRollback(ctx context.Context, undo func()) {
	if t := txFromContext(ctx); t != nil {
		t.undo = append(t.undo, undo)
	}
}

// LockBatches implements ledger.Repository. Locks are reentrant within a
// transaction and released when it ends.
func (s *Store) LockBatches(ctx context.Context, keys []entity.BatchKey) error {
	t := txFromContext(ctx)
	if t == nil {
		return fmt.Errorf("lock batches: %w", ErrNoTransaction)
	}

	for _, key := range keys {
		if _, ok := t.keys[key]; ok {
			continue
		}

		s.lockMu.Lock()
		ch, ok := s.locks[key]
		if !ok {
			ch = make(chan struct{}, 1)
			s.locks[key] = ch
		}
		s.lockMu.Unlock()

		select {
		case ch <- struct{}{}:
		case <-ctx.Done():
			return fmt.Errorf("lock batch %s: %w", key.BatchNo, ctx.Err())
		}
		t.held = append(t.held, ch)
		t.keys[key] = struct{}{}
	}
	return nil
}
