package document_repo

import (
	"coldstore/internal/core/entity"
	"coldstore/internal/domain/documents/receipt"
	"coldstore/internal/infrastructure/storage/postgres"
)

const (
	receiptTable      = "cs_receipts"
	receiptLinesTable = "cs_receipt_lines"
)

// ReceiptRepo implements receipt.Repository.
type ReceiptRepo struct {
	*BaseDocumentRepo[*receipt.Receipt, receipt.Line]
}

// NewReceiptRepo creates a new receipt repository.
func NewReceiptRepo(txManager *postgres.TxManager) *ReceiptRepo {
	return &ReceiptRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*receipt.Receipt, receipt.Line](
			txManager,
			"Receipt",
			receiptTable,
			receiptLinesTable,
			func() *receipt.Receipt { return &receipt.Receipt{} },
			func(r *receipt.Receipt) *entity.Document { return &r.Document },
		),
	}
}

var _ receipt.Repository = (*ReceiptRepo)(nil)
