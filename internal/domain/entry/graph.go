// Package entry applies field changes made while a document is being edited:
// dependent fields are cleared, quantities are checked against the ledger and
// rates are re-resolved.
package entry

// Field names an editable document or row field.
type Field string

const (
	FieldCustomer      Field = "customer"
	FieldWarehouse     Field = "warehouse"
	FieldLinkedReceipt Field = "linked_receipt"
	FieldBillingType   Field = "billing_type"
	FieldItems         Field = "items"

	FieldReceiptType   Field = "receipt_type"
	FieldSourceReceipt Field = "source_receipt"
	FieldFromCustomer  Field = "from_customer"
	FieldFromWarehouse Field = "from_warehouse"

	FieldGoodsItem Field = "goods_item"
	FieldItemGroup Field = "item_group"
	FieldBatchNo   Field = "batch_no"
	FieldBags      Field = "bags"
	FieldRate      Field = "rate"
)

// FieldGraph maps a field to the fields that become invalid when it changes.
type FieldGraph map[Field][]Field

// DispatchGraph is the dependency graph of the dispatch form.
func DispatchGraph() FieldGraph {
	return FieldGraph{
		FieldCustomer:      {FieldWarehouse},
		FieldWarehouse:     {FieldLinkedReceipt, FieldItems},
		FieldLinkedReceipt: {FieldItems},
		FieldGoodsItem:     {FieldItemGroup, FieldBatchNo},
		FieldItemGroup:     {FieldBatchNo},
	}
}

// ReceiptGraph is the dependency graph of the receipt form.
func ReceiptGraph() FieldGraph {
	return FieldGraph{
		FieldReceiptType:   {FieldSourceReceipt, FieldFromCustomer, FieldFromWarehouse},
		FieldFromCustomer:  {FieldSourceReceipt},
		FieldSourceReceipt: {FieldItems},
		FieldFromWarehouse: {FieldItems},
		FieldGoodsItem:     {FieldItemGroup, FieldBatchNo},
		FieldItemGroup:     {FieldBatchNo},
	}
}

// Cascade returns every field transitively dependent on field, breadth
// first, without duplicates and without field itself.
func (g FieldGraph) Cascade(field Field) []Field {
	var out []Field
	seen := map[Field]bool{field: true}
	queue := []Field{field}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, dep := range g[current] {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			out = append(out, dep)
			queue = append(queue, dep)
		}
	}
	return out
}

// Contains reports whether fields holds f.
func Contains(fields []Field, f Field) bool {
	for _, x := range fields {
		if x == f {
			return true
		}
	}
	return false
}
