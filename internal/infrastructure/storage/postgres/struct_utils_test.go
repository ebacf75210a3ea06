package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"coldstore/internal/core/id"
	"coldstore/internal/core/types"
	"coldstore/internal/domain/documents/dispatch"
	"coldstore/internal/domain/documents/receipt"
	"coldstore/internal/domain/rates"
)

func TestExtractDBColumns_Receipt(t *testing.T) {
	cols := ExtractDBColumns[receipt.Receipt]()

	for _, expected := range []string{
		"id", "version", "created_at", "updated_by", "number", "date", "status",
		"receipt_type", "customer", "source_receipt", "transfer_loading_amount",
	} {
		assert.Contains(t, cols, expected)
	}
	assert.NotContains(t, cols, "lines")
	assert.NotContains(t, cols, "-")
}

func TestExtractDBColumns_Pointer(t *testing.T) {
	assert.Equal(t, ExtractDBColumns[dispatch.Line](), ExtractDBColumns[*dispatch.Line]())
}

func TestStructToMap_Dispatch(t *testing.T) {
	origin := id.New()
	d := dispatch.NewDispatch("C1", rates.BillingMonthly)
	d.Version = 3
	d.OriginReceipt = &origin
	d.GSTRate = types.MustMoney("18")
	d.AddLine(id.New(), "W1", "B1", "Potato", "Jute Bag", 4)

	m := StructToMap(d)

	assert.Equal(t, d.ID, m["id"])
	assert.Equal(t, 3, m["version"])
	assert.Equal(t, "C1", m["customer"])
	assert.Equal(t, rates.BillingMonthly, m["billing_type"])
	assert.Equal(t, &origin, m["origin_receipt"])
	assert.NotContains(t, m, "lines")
	assert.Nil(t, StructToMap(42))
}
