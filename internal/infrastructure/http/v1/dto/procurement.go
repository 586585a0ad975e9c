package dto

import (
	"time"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/id"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/types"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/procurement"
)

// CreateGRNItemRequest is one received line.
type CreateGRNItemRequest struct {
	POItemID         string         `json:"poItemId" binding:"required"`
	ReceivedQuantity types.Quantity `json:"receivedQuantity"`
	AcceptedQuantity types.Quantity `json:"acceptedQuantity"`
	RejectedQuantity types.Quantity `json:"rejectedQuantity"`
	BatchNumber      string         `json:"batchNumber"`
	SerialNumber     string         `json:"serialNumber"`
	InspectionNotes  string         `json:"inspectionNotes"`
}

// CreateGRNRequest records a delivery against a purchase order.
type CreateGRNRequest struct {
	PurchaseOrderID string                 `json:"purchaseOrderId" binding:"required"`
	WarehouseID     string                 `json:"warehouseId" binding:"required"`
	LocationID      string                 `json:"locationId"`
	ReceivedDate    *time.Time             `json:"receivedDate"`
	Remarks         string                 `json:"remarks"`
	Items           []CreateGRNItemRequest `json:"items" binding:"required"`
}

// ToCreateGRNInput converts the request to the service input.
func (r *CreateGRNRequest) ToCreateGRNInput() (procurement.CreateGRNInput, error) {
	poID, err := id.Parse(r.PurchaseOrderID)
	if err != nil {
		return procurement.CreateGRNInput{}, err
	}
	warehouseID, err := id.Parse(r.WarehouseID)
	if err != nil {
		return procurement.CreateGRNInput{}, err
	}
	in := procurement.CreateGRNInput{
		PurchaseOrderID: poID,
		WarehouseID:     warehouseID,
		Remarks:         r.Remarks,
	}
	if r.LocationID != "" {
		in.LocationID, err = id.Parse(r.LocationID)
		if err != nil {
			return procurement.CreateGRNInput{}, err
		}
	}
	if r.ReceivedDate != nil {
		in.ReceivedDate = *r.ReceivedDate
	}
	for _, ir := range r.Items {
		poItemID, err := id.Parse(ir.POItemID)
		if err != nil {
			return procurement.CreateGRNInput{}, err
		}
		in.Items = append(in.Items, procurement.CreateGRNItemInput{
			POItemID:         poItemID,
			ReceivedQuantity: ir.ReceivedQuantity,
			AcceptedQuantity: ir.AcceptedQuantity,
			RejectedQuantity: ir.RejectedQuantity,
			BatchNumber:      ir.BatchNumber,
			SerialNumber:     ir.SerialNumber,
			InspectionNotes:  ir.InspectionNotes,
		})
	}
	return in, nil
}

// InspectionRequest resolves quantity on a pending GRN line.
type InspectionRequest struct {
	GRNItemID      string         `json:"grnItemId" binding:"required"`
	AcceptQuantity types.Quantity `json:"acceptQuantity"`
	RejectQuantity types.Quantity `json:"rejectQuantity"`
	Hold           bool           `json:"hold"`
	Notes          string         `json:"notes"`
}

// GRNItemResponse is one GRN line.
type GRNItemResponse struct {
	ID               string `json:"id"`
	POItemID         string `json:"poItemId"`
	ItemID           string `json:"itemId"`
	OrderedQuantity  string `json:"orderedQuantity"`
	ReceivedQuantity string `json:"receivedQuantity"`
	AcceptedQuantity string `json:"acceptedQuantity"`
	RejectedQuantity string `json:"rejectedQuantity"`
	UnitPrice        string `json:"unitPrice"`
	BatchNumber      string `json:"batchNumber,omitempty"`
	SerialNumber     string `json:"serialNumber,omitempty"`
	Status           string `json:"status"`
	InspectionNotes  string `json:"inspectionNotes,omitempty"`
}

// GRNResponse is a goods received note with its lines.
type GRNResponse struct {
	ID              string            `json:"id"`
	Number          string            `json:"number"`
	PurchaseOrderID string            `json:"purchaseOrderId"`
	WarehouseID     string            `json:"warehouseId"`
	LocationID      string            `json:"locationId,omitempty"`
	Status          string            `json:"status"`
	ReceivedDate    string            `json:"receivedDate"`
	ReceivedBy      string            `json:"receivedBy"`
	InspectedBy     string            `json:"inspectedBy,omitempty"`
	Remarks         string            `json:"remarks,omitempty"`
	Items           []GRNItemResponse `json:"items"`
}

// FromGRN converts a goods received note.
func FromGRN(grn *procurement.GoodsReceivedNote) GRNResponse {
	resp := GRNResponse{
		ID:              grn.ID.String(),
		Number:          grn.Number,
		PurchaseOrderID: grn.PurchaseOrderID.String(),
		WarehouseID:     grn.WarehouseID.String(),
		Status:          string(grn.Status),
		ReceivedDate:    grn.ReceivedDate.Format(time.RFC3339),
		ReceivedBy:      grn.ReceivedBy,
		InspectedBy:     grn.InspectedBy,
		Remarks:         grn.Remarks,
		Items:           make([]GRNItemResponse, len(grn.Items)),
	}
	if !id.IsNil(grn.LocationID) {
		resp.LocationID = grn.LocationID.String()
	}
	for i := range grn.Items {
		line := &grn.Items[i]
		resp.Items[i] = GRNItemResponse{
			ID:               line.ID.String(),
			POItemID:         line.PurchaseOrderItemID.String(),
			ItemID:           line.ItemID.String(),
			OrderedQuantity:  line.OrderedQuantity.String(),
			ReceivedQuantity: line.ReceivedQuantity.String(),
			AcceptedQuantity: line.AcceptedQuantity.String(),
			RejectedQuantity: line.RejectedQuantity.String(),
			UnitPrice:        line.UnitPrice.String(),
			BatchNumber:      line.BatchNumber,
			SerialNumber:     line.SerialNumber,
			Status:           string(line.Status),
			InspectionNotes:  line.InspectionNotes,
		}
	}
	return resp
}

// PurchaseOrderItemResponse is one PO line with its receiving counters.
type PurchaseOrderItemResponse struct {
	ID               string `json:"id"`
	ItemID           string `json:"itemId"`
	OrderedQuantity  string `json:"orderedQuantity"`
	UnitPrice        string `json:"unitPrice"`
	ReceivedQuantity string `json:"receivedQuantity"`
	AcceptedQuantity string `json:"acceptedQuantity"`
	RejectedQuantity string `json:"rejectedQuantity"`
}

// PurchaseOrderResponse is a purchase order with its lines.
type PurchaseOrderResponse struct {
	ID           string                      `json:"id"`
	Number       string                      `json:"number"`
	SupplierName string                      `json:"supplierName"`
	Status       string                      `json:"status"`
	Currency     string                      `json:"currency"`
	Date         string                      `json:"date"`
	Remarks      string                      `json:"remarks,omitempty"`
	Items        []PurchaseOrderItemResponse `json:"items"`
}

// FromPurchaseOrder converts a purchase order.
func FromPurchaseOrder(po *procurement.PurchaseOrder) PurchaseOrderResponse {
	resp := PurchaseOrderResponse{
		ID:           po.ID.String(),
		Number:       po.Number,
		SupplierName: po.SupplierName,
		Status:       string(po.Status),
		Currency:     po.Currency,
		Date:         po.Date.Format(time.RFC3339),
		Remarks:      po.Remarks,
		Items:        make([]PurchaseOrderItemResponse, len(po.Items)),
	}
	for i := range po.Items {
		line := &po.Items[i]
		resp.Items[i] = PurchaseOrderItemResponse{
			ID:               line.ID.String(),
			ItemID:           line.ItemID.String(),
			OrderedQuantity:  line.OrderedQuantity.String(),
			UnitPrice:        line.UnitPrice.String(),
			ReceivedQuantity: line.ReceivedQuantity.String(),
			AcceptedQuantity: line.AcceptedQuantity.String(),
			RejectedQuantity: line.RejectedQuantity.String(),
		}
	}
	return resp
}
