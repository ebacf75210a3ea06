package app

import (
	"time"

	"coldstore/internal/infrastructure/storage/postgres"
	"coldstore/internal/infrastructure/storage/postgres/document_repo"
	"coldstore/internal/infrastructure/storage/postgres/rate_repo"
	"coldstore/internal/infrastructure/storage/postgres/register_repo"
)

// PostgresRepos keeps the concrete postgres repositories next to the Storage
// view, for startup tasks such as seeding the rate card.
type PostgresRepos struct {
	TxManager *postgres.TxManager
	Rules     *rate_repo.RuleRepo
	Audit     *postgres.AuditLog
}

// PostgresStorage builds a Storage over a connection pool.
func PostgresStorage(pool *postgres.Pool, statementTimeout time.Duration) (Storage, *PostgresRepos, error) {
	txManager := postgres.NewTxManager(pool, statementTimeout)

	audit, err := postgres.NewAuditLog(txManager, 0)
	if err != nil {
		return Storage{}, nil, err
	}

	repos := &PostgresRepos{
		TxManager: txManager,
		Rules:     rate_repo.NewRuleRepo(txManager),
		Audit:     audit,
	}

	return Storage{
		TxManager:  txManager,
		Ledger:     register_repo.NewBatchRepo(txManager),
		Receipts:   document_repo.NewReceiptRepo(txManager),
		Dispatches: document_repo.NewDispatchRepo(txManager),
		Rules:      repos.Rules,
		Audit:      audit,
		AuditTrail: audit,
	}, repos, nil
}
