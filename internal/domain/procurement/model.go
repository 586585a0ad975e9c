// Package procurement holds purchase orders and goods received notes, and
// the receiving reconciliation that posts accepted goods into stock.
package procurement

import (
	"context"
	"time"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/apperror"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/entity"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/id"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/types"
)

// POStatus is the purchase order lifecycle state. Approval itself happens
// upstream; orders enter this engine already approved or sent.
type POStatus string

const (
	POStatusDraft             POStatus = "draft"
	POStatusApproved          POStatus = "approved"
	POStatusSent              POStatus = "sent"
	POStatusPartiallyReceived POStatus = "partially_received"
	POStatusReceived          POStatus = "received"
	POStatusCancelled         POStatus = "cancelled"
)

// CanReceive reports whether goods may be received against the order.
func (s POStatus) CanReceive() bool {
	switch s {
	case POStatusApproved, POStatusSent, POStatusPartiallyReceived:
		return true
	}
	return false
}

// PurchaseOrder is the upstream demand document GRNs reconcile against.
type PurchaseOrder struct {
	entity.Document

	SupplierName string   `db:"supplier_name" json:"supplierName"`
	Status       POStatus `db:"status" json:"status"`
	Currency     string   `db:"currency" json:"currency"`

	Items []PurchaseOrderItem `db:"-" json:"items"`
}

// PurchaseOrderItem is one ordered line. The received/accepted/rejected
// counters accumulate across all GRNs posted against the line.
type PurchaseOrderItem struct {
	ID              id.ID          `db:"id" json:"id"`
	PurchaseOrderID id.ID          `db:"purchase_order_id" json:"purchaseOrderId"`
	ItemID          id.ID          `db:"item_id" json:"itemId"`
	OrderedQuantity types.Quantity `db:"ordered_quantity" json:"orderedQuantity"`
	UnitPrice       types.Money    `db:"unit_price" json:"unitPrice"`

	ReceivedQuantity types.Quantity `db:"received_quantity" json:"receivedQuantity"`
	AcceptedQuantity types.Quantity `db:"accepted_quantity" json:"acceptedQuantity"`
	RejectedQuantity types.Quantity `db:"rejected_quantity" json:"rejectedQuantity"`
}

// FindItem returns the PO line with the given id, or nil.
func (po *PurchaseOrder) FindItem(poItemID id.ID) *PurchaseOrderItem {
	for i := range po.Items {
		if po.Items[i].ID == poItemID {
			return &po.Items[i]
		}
	}
	return nil
}

// RecomputeStatus rolls the line counters up into the order status.
// Received when every line is fully received, partially received when any
// line has receipts, otherwise the status stays as it was.
func (po *PurchaseOrder) RecomputeStatus() {
	if len(po.Items) == 0 {
		return
	}
	allComplete := true
	anyReceived := false
	for i := range po.Items {
		if po.Items[i].ReceivedQuantity > 0 {
			anyReceived = true
		}
		if po.Items[i].ReceivedQuantity < po.Items[i].OrderedQuantity {
			allComplete = false
		}
	}
	switch {
	case allComplete:
		po.Status = POStatusReceived
	case anyReceived:
		po.Status = POStatusPartiallyReceived
	}
}

// GRNStatus is the goods received note lifecycle state.
type GRNStatus string

const (
	GRNStatusDraft             GRNStatus = "draft"
	GRNStatusReceived          GRNStatus = "received"
	GRNStatusQualityCheck      GRNStatus = "quality_check"
	GRNStatusAccepted          GRNStatus = "accepted"
	GRNStatusPartiallyAccepted GRNStatus = "partially_accepted"
	GRNStatusRejected          GRNStatus = "rejected"
)

// GRNItemStatus is the inspection state of one GRN line.
type GRNItemStatus string

const (
	GRNItemPending  GRNItemStatus = "pending"
	GRNItemAccepted GRNItemStatus = "accepted"
	GRNItemRejected GRNItemStatus = "rejected"
	GRNItemHold     GRNItemStatus = "hold"
)

// GoodsReceivedNote records one physical delivery against a purchase order.
type GoodsReceivedNote struct {
	entity.Document

	PurchaseOrderID id.ID     `db:"purchase_order_id" json:"purchaseOrderId"`
	WarehouseID     id.ID     `db:"warehouse_id" json:"warehouseId"`
	LocationID      id.ID     `db:"location_id" json:"locationId,omitempty"`
	Status          GRNStatus `db:"status" json:"status"`
	ReceivedDate    time.Time `db:"received_date" json:"receivedDate"`
	ReceivedBy      string    `db:"received_by" json:"receivedBy"`
	InspectedBy     string    `db:"inspected_by" json:"inspectedBy,omitempty"`

	Items []GRNItem `db:"-" json:"items"`
}

// GRNItem is one received line. Quantities reconcile against the PO line;
// the inspection status mutates only during quality check.
type GRNItem struct {
	ID                  id.ID          `db:"id" json:"id"`
	GRNID               id.ID          `db:"grn_id" json:"grnId"`
	PurchaseOrderItemID id.ID          `db:"purchase_order_item_id" json:"purchaseOrderItemId"`
	ItemID              id.ID          `db:"item_id" json:"itemId"`
	OrderedQuantity     types.Quantity `db:"ordered_quantity" json:"orderedQuantity"`
	ReceivedQuantity    types.Quantity `db:"received_quantity" json:"receivedQuantity"`
	AcceptedQuantity    types.Quantity `db:"accepted_quantity" json:"acceptedQuantity"`
	RejectedQuantity    types.Quantity `db:"rejected_quantity" json:"rejectedQuantity"`
	UnitPrice           types.Money    `db:"unit_price" json:"unitPrice"`
	BatchNumber         string         `db:"batch_number" json:"batchNumber,omitempty"`
	SerialNumber        string         `db:"serial_number" json:"serialNumber,omitempty"`
	Status              GRNItemStatus  `db:"status" json:"status"`
	InspectionNotes     string         `db:"inspection_notes" json:"inspectionNotes,omitempty"`
}

// PendingQuantity is the part of the line not yet accepted or rejected.
func (gi *GRNItem) PendingQuantity() types.Quantity {
	return gi.ReceivedQuantity - gi.AcceptedQuantity - gi.RejectedQuantity
}

// Validate checks the quantity arithmetic of a line.
func (gi *GRNItem) Validate(ctx context.Context) error {
	if !gi.ReceivedQuantity.IsPositive() {
		return apperror.NewValidation("received quantity must be positive").
			WithDetail("po_item_id", gi.PurchaseOrderItemID.String())
	}
	if gi.AcceptedQuantity.IsNegative() || gi.RejectedQuantity.IsNegative() {
		return apperror.NewValidation("accepted and rejected quantities must not be negative").
			WithDetail("po_item_id", gi.PurchaseOrderItemID.String())
	}
	if gi.AcceptedQuantity+gi.RejectedQuantity > gi.ReceivedQuantity {
		return apperror.NewValidation("accepted plus rejected exceeds received quantity").
			WithDetail("po_item_id", gi.PurchaseOrderItemID.String())
	}
	return nil
}

// FindItem returns the GRN line with the given id, or nil.
func (g *GoodsReceivedNote) FindItem(grnItemID id.ID) *GRNItem {
	for i := range g.Items {
		if g.Items[i].ID == grnItemID {
			return &g.Items[i]
		}
	}
	return nil
}

// RecomputeStatus rolls the line inspection outcomes up into the GRN
// status. Quantities decide, not line counts: a line half accepted and
// half rejected makes the note partially accepted.
func (g *GoodsReceivedNote) RecomputeStatus() {
	var accepted, rejected, pending types.Quantity
	var hold bool
	for i := range g.Items {
		accepted += g.Items[i].AcceptedQuantity
		rejected += g.Items[i].RejectedQuantity
		pending += g.Items[i].PendingQuantity()
		if g.Items[i].Status == GRNItemHold {
			hold = true
		}
	}
	switch {
	case hold || pending > 0:
		g.Status = GRNStatusQualityCheck
	case accepted > 0 && rejected > 0:
		g.Status = GRNStatusPartiallyAccepted
	case rejected > 0:
		g.Status = GRNStatusRejected
	case accepted > 0:
		g.Status = GRNStatusAccepted
	default:
		g.Status = GRNStatusReceived
	}
}
