package receipt

import (
	"coldstore/internal/domain"
)

// Repository defines operations for receipt documents.
type Repository interface {
	domain.DocumentRepository[*Receipt, Line]
}
