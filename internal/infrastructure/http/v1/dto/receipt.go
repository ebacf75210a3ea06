package dto

import (
	"coldstore/internal/core/id"
	"coldstore/internal/core/types"
	"coldstore/internal/domain/documents/receipt"
)

// --- Request DTOs ---

// ReceiptLineRequest is one received batch.
type ReceiptLineRequest struct {
	GoodsItem string `json:"goodsItem"`
	ItemGroup string `json:"itemGroup"`
	BatchNo   string `json:"batchNo"`
	Bags      int64  `json:"bags"`
}

// ReceiptRequest carries the editable fields of a receipt.
// Row checks happen in the domain so errors name the failing row.
type ReceiptRequest struct {
	DocumentRequest
	ReceiptType   string               `json:"receiptType"`
	Customer      string               `json:"customer" binding:"required"`
	Warehouse     string               `json:"warehouse" binding:"required"`
	SourceReceipt string               `json:"sourceReceipt,omitempty"`
	FromCustomer  string               `json:"fromCustomer,omitempty"`
	FromWarehouse string               `json:"fromWarehouse,omitempty"`
	VehicleNo     string               `json:"vehicleNo,omitempty" binding:"max=32"`
	DriverName    string               `json:"driverName,omitempty" binding:"max=140"`
	DriverPhone   string               `json:"driverPhone,omitempty" binding:"max=20"`
	Lines         []ReceiptLineRequest `json:"lines"`
}

// CreateReceiptRequest represents a request to create a receipt.
type CreateReceiptRequest struct {
	ReceiptRequest

	// Submit posts the receipt right after saving it.
	Submit bool `json:"submit,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateReceiptRequest) ToEntity() (*receipt.Receipt, error) {
	doc := receipt.NewReceipt(receipt.TypeNew, r.Customer, r.Warehouse)
	if err := r.ApplyTo(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateReceiptRequest replaces a draft receipt. Version enables the
// optimistic lock; zero skips the check.
type UpdateReceiptRequest struct {
	ReceiptRequest
	Version int `json:"version" binding:"omitempty,min=1"`
}

// ApplyTo overwrites the header and lines of doc.
func (r *ReceiptRequest) ApplyTo(doc *receipt.Receipt) error {
	if err := r.DocumentRequest.applyTo(&doc.Document); err != nil {
		return err
	}

	sourceReceipt, err := ParseOptionalID("sourceReceipt", r.SourceReceipt)
	if err != nil {
		return err
	}

	doc.ReceiptType = receipt.TypeNew
	if r.ReceiptType != "" {
		doc.ReceiptType = receipt.Type(r.ReceiptType)
	}
	doc.Customer = r.Customer
	doc.Warehouse = r.Warehouse
	doc.SourceReceipt = sourceReceipt
	doc.FromCustomer = r.FromCustomer
	doc.FromWarehouse = r.FromWarehouse
	doc.VehicleNo = r.VehicleNo
	doc.DriverName = r.DriverName
	doc.DriverPhone = r.DriverPhone

	doc.Lines = make([]receipt.Line, 0, len(r.Lines))
	for _, line := range r.Lines {
		doc.AddLine(line.GoodsItem, line.ItemGroup, line.BatchNo, types.Bags(line.Bags))
	}
	return nil
}

// --- Response DTOs ---

// ReceiptResponse represents a receipt in API responses.
type ReceiptResponse struct {
	DocumentResponse
	ReceiptType           string                `json:"receiptType"`
	Customer              string                `json:"customer"`
	Warehouse             string                `json:"warehouse"`
	SourceReceipt         *id.ID                `json:"sourceReceipt,omitempty"`
	FromCustomer          string                `json:"fromCustomer,omitempty"`
	FromWarehouse         string                `json:"fromWarehouse,omitempty"`
	VehicleNo             string                `json:"vehicleNo,omitempty"`
	DriverName            string                `json:"driverName,omitempty"`
	DriverPhone           string                `json:"driverPhone,omitempty"`
	TotalBags             types.Bags            `json:"totalBags"`
	TransferLoadingAmount types.Money           `json:"transferLoadingAmount"`
	Lines                 []ReceiptLineResponse `json:"lines"`
}

// ReceiptLineResponse represents a receipt line.
type ReceiptLineResponse struct {
	LineID    string     `json:"lineId"`
	LineNo    int        `json:"lineNo"`
	GoodsItem string     `json:"goodsItem"`
	ItemGroup string     `json:"itemGroup"`
	BatchNo   string     `json:"batchNo"`
	Bags      types.Bags `json:"bags"`
}

// FromReceipt converts domain entity to response DTO.
func FromReceipt(doc *receipt.Receipt) ReceiptResponse {
	lines := make([]ReceiptLineResponse, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		lines = append(lines, ReceiptLineResponse{
			LineID:    line.LineID.String(),
			LineNo:    line.LineNo,
			GoodsItem: line.GoodsItem,
			ItemGroup: line.ItemGroup,
			BatchNo:   line.BatchNo,
			Bags:      line.Bags,
		})
	}

	return ReceiptResponse{
		DocumentResponse:      FromDocument(doc.Document),
		ReceiptType:           string(doc.ReceiptType),
		Customer:              doc.Customer,
		Warehouse:             doc.Warehouse,
		SourceReceipt:         doc.SourceReceipt,
		FromCustomer:          doc.FromCustomer,
		FromWarehouse:         doc.FromWarehouse,
		VehicleNo:             doc.VehicleNo,
		DriverName:            doc.DriverName,
		DriverPhone:           doc.DriverPhone,
		TotalBags:             doc.TotalBags,
		TransferLoadingAmount: doc.TransferLoadingAmount,
		Lines:                 lines,
	}
}
