package dto

import (
	"coldstore/internal/core/apperror"
	"coldstore/internal/core/id"
	"coldstore/internal/core/types"
	"coldstore/internal/domain/documents/dispatch"
	"coldstore/internal/domain/rates"
)

// --- Request DTOs ---

// DispatchLineRequest is one dispatched batch. Zero rates are filled from
// the rate card.
type DispatchLineRequest struct {
	LinkedReceipt string      `json:"linkedReceipt"`
	Warehouse     string      `json:"warehouse,omitempty"`
	BatchNo       string      `json:"batchNo"`
	GoodsItem     string      `json:"goodsItem,omitempty"`
	ItemGroup     string      `json:"itemGroup,omitempty"`
	Bags          int64       `json:"bags"`
	Rate          types.Money `json:"rate"`
	LoadingRate   types.Money `json:"loadingRate"`
}

// DispatchRequest carries the editable fields of a dispatch.
type DispatchRequest struct {
	DocumentRequest
	Customer      string                `json:"customer" binding:"required"`
	Warehouse     string                `json:"warehouse,omitempty"`
	BillingType   string                `json:"billingType" binding:"required"`
	GSTApplicable bool                  `json:"gstApplicable"`
	GSTRate       types.Money           `json:"gstRate"`
	VehicleNo     string                `json:"vehicleNo,omitempty" binding:"max=32"`
	DriverName    string                `json:"driverName,omitempty" binding:"max=140"`
	Lines         []DispatchLineRequest `json:"lines"`
}

// CreateDispatchRequest represents a request to create a dispatch.
type CreateDispatchRequest struct {
	DispatchRequest
	Submit bool `json:"submit,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateDispatchRequest) ToEntity() (*dispatch.Dispatch, error) {
	doc := dispatch.NewDispatch(r.Customer, rates.BillingType(r.BillingType))
	if err := r.ApplyTo(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateDispatchRequest replaces a draft dispatch.
type UpdateDispatchRequest struct {
	DispatchRequest
	Version int `json:"version" binding:"omitempty,min=1"`
}

// ApplyTo overwrites the header and lines of doc.
func (r *DispatchRequest) ApplyTo(doc *dispatch.Dispatch) error {
	if err := r.DocumentRequest.applyTo(&doc.Document); err != nil {
		return err
	}

	doc.Customer = r.Customer
	doc.Warehouse = r.Warehouse
	doc.BillingType = rates.BillingType(r.BillingType)
	doc.GSTApplicable = r.GSTApplicable
	doc.GSTRate = r.GSTRate
	doc.VehicleNo = r.VehicleNo
	doc.DriverName = r.DriverName

	doc.Lines = make([]dispatch.Line, 0, len(r.Lines))
	for i, line := range r.Lines {
		var linked id.ID
		if line.LinkedReceipt != "" {
			parsed, err := id.Parse(line.LinkedReceipt)
			if err != nil {
				return apperror.NewRowValidation(i+1, "Invalid Linked Receipt").WithCause(err)
			}
			linked = parsed
		}
		doc.AddLine(linked, line.Warehouse, line.BatchNo, line.GoodsItem, line.ItemGroup, types.Bags(line.Bags))
		doc.Lines[i].Rate = line.Rate
		doc.Lines[i].LoadingRate = line.LoadingRate
	}
	return nil
}

// --- Response DTOs ---

// DispatchResponse represents a dispatch in API responses.
type DispatchResponse struct {
	DocumentResponse
	Customer           string                 `json:"customer"`
	Warehouse          string                 `json:"warehouse,omitempty"`
	BillingType        string                 `json:"billingType"`
	GSTApplicable      bool                   `json:"gstApplicable"`
	GSTRate            types.Money            `json:"gstRate"`
	Source             string                 `json:"source"`
	OriginReceipt      *id.ID                 `json:"originReceipt,omitempty"`
	VehicleNo          string                 `json:"vehicleNo,omitempty"`
	DriverName         string                 `json:"driverName,omitempty"`
	TotalBags          types.Bags             `json:"totalBags"`
	TotalAmount        types.Money            `json:"totalAmount"`
	TotalLoadingAmount types.Money            `json:"totalLoadingAmount"`
	TotalGSTAmount     types.Money            `json:"totalGstAmount"`
	GrandTotal         types.Money            `json:"grandTotal"`
	Lines              []DispatchLineResponse `json:"lines"`
}

// DispatchLineResponse represents a dispatch line.
type DispatchLineResponse struct {
	LineID        string      `json:"lineId"`
	LineNo        int         `json:"lineNo"`
	LinkedReceipt string      `json:"linkedReceipt"`
	Warehouse     string      `json:"warehouse"`
	BatchNo       string      `json:"batchNo"`
	GoodsItem     string      `json:"goodsItem"`
	ItemGroup     string      `json:"itemGroup"`
	Bags          types.Bags  `json:"bags"`
	Rate          types.Money `json:"rate"`
	Amount        types.Money `json:"amount"`
	LoadingRate   types.Money `json:"loadingRate"`
	LoadingAmount types.Money `json:"loadingAmount"`
}

// FromDispatch converts domain entity to response DTO.
func FromDispatch(doc *dispatch.Dispatch) DispatchResponse {
	lines := make([]DispatchLineResponse, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		lines = append(lines, DispatchLineResponse{
			LineID:        line.LineID.String(),
			LineNo:        line.LineNo,
			LinkedReceipt: line.LinkedReceipt.String(),
			Warehouse:     line.Warehouse,
			BatchNo:       line.BatchNo,
			GoodsItem:     line.GoodsItem,
			ItemGroup:     line.ItemGroup,
			Bags:          line.Bags,
			Rate:          line.Rate,
			Amount:        line.Amount,
			LoadingRate:   line.LoadingRate,
			LoadingAmount: line.LoadingAmount,
		})
	}

	return DispatchResponse{
		DocumentResponse:   FromDocument(doc.Document),
		Customer:           doc.Customer,
		Warehouse:          doc.Warehouse,
		BillingType:        string(doc.BillingType),
		GSTApplicable:      doc.GSTApplicable,
		GSTRate:            doc.GSTRate,
		Source:             string(doc.Source),
		OriginReceipt:      doc.OriginReceipt,
		VehicleNo:          doc.VehicleNo,
		DriverName:         doc.DriverName,
		TotalBags:          doc.TotalBags,
		TotalAmount:        doc.TotalAmount,
		TotalLoadingAmount: doc.TotalLoadingAmount,
		TotalGSTAmount:     doc.TotalGSTAmount,
		GrandTotal:         doc.GrandTotal,
		Lines:              lines,
	}
}
