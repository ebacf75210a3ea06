// Package app wires the domain services over a storage backend.
package app

import (
	"coldstore/internal/core/tx"
	"coldstore/internal/domain/balance"
	"coldstore/internal/domain/documents/dispatch"
	"coldstore/internal/domain/documents/receipt"
	"coldstore/internal/domain/entry"
	"coldstore/internal/domain/ledger"
	"coldstore/internal/domain/mobile"
	"coldstore/internal/domain/posting"
	"coldstore/internal/domain/rates"
	"coldstore/internal/domain/reports"
	"coldstore/internal/infrastructure/storage/memory"
)

// Storage is the set of repositories a backend provides.
type Storage struct {
	TxManager  tx.ReadOnlyManager
	Ledger     ledger.Repository
	Receipts   receipt.Repository
	Dispatches dispatch.Repository
	Rules      rates.RuleSource
	Audit      posting.AuditLog
	AuditTrail posting.AuditReader
}

// MemoryStorage exposes an in-memory store as a Storage.
func MemoryStorage(s *memory.Store) Storage {
	return Storage{
		TxManager:  s,
		Ledger:     s,
		Receipts:   s.Receipts(),
		Dispatches: s.Dispatches(),
		Rules:      s,
		Audit:      s,
		AuditTrail: s,
	}
}

// Options tune the services.
type Options struct {
	TransferRates receipt.TransferRates

	// Observer receives balance check verdicts; nil disables it.
	Observer balance.Observer
}

// Services holds every domain service of the ledger.
type Services struct {
	TxManager  tx.ReadOnlyManager
	Ledger     *ledger.Service
	Balance    *balance.Resolver
	Rates      *rates.Service
	Engine     *posting.Engine
	Receipts   *receipt.Service
	Dispatches *dispatch.Service

	DispatchEntry *entry.Editor
	ReceiptEntry  *entry.Editor
	Mobile        *mobile.Service
	Reports       *reports.Service
}

// New builds the services over storage.
func New(storage Storage, opts Options) *Services {
	ledgerService := ledger.NewService(storage.Ledger)
	resolver := balance.NewResolver(ledgerService, opts.Observer)
	rateService := rates.NewService(storage.Rules)
	engine := posting.NewEngine(storage.TxManager, ledgerService, posting.NewValidator(resolver), storage.Audit)

	dispatchService := dispatch.NewService(storage.Dispatches, engine, rateService, ledgerService, storage.TxManager)
	receiptService := receipt.NewService(storage.Receipts, engine, ledgerService, dispatchService, opts.TransferRates, storage.TxManager)

	return &Services{
		TxManager:  storage.TxManager,
		Ledger:     ledgerService,
		Balance:    resolver,
		Rates:      rateService,
		Engine:     engine,
		Receipts:   receiptService,
		Dispatches: dispatchService,

		DispatchEntry: entry.NewEditor(entry.DispatchGraph(), resolver, rateService),
		ReceiptEntry:  entry.NewEditor(entry.ReceiptGraph(), resolver, rateService),
		Mobile:        mobile.NewService(receiptService),
		Reports:       reports.NewService(storage.TxManager, ledgerService, receiptService, dispatchService, storage.AuditTrail),
	}
}
