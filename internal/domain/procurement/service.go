package procurement

import (
	"context"
	"fmt"
	"time"

	"github.com/L-Y-21/twist-erp-sub001/internal/core/apperror"
	appctx "github.com/L-Y-21/twist-erp-sub001/internal/core/context"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/entity"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/id"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/numerator"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/tx"
	"github.com/L-Y-21/twist-erp-sub001/internal/core/types"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/catalogs/warehouse"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/ledger"
	"github.com/L-Y-21/twist-erp-sub001/internal/domain/posting"
	"github.com/L-Y-21/twist-erp-sub001/pkg/logger"
)

// PrefixGRN numbers goods received notes.
const PrefixGRN = "GRN"

// StockPoster is the slice of the posting service receiving needs.
// Implementations must join the ambient transaction so a failed GRN
// reverts any stock already posted.
type StockPoster interface {
	CreateAdjustment(ctx context.Context, in posting.AdjustmentInput) ([]ledger.StockTransaction, error)
}

// Service reconciles deliveries against purchase orders and drives the
// resulting stock receipts.
type Service struct {
	purchaseOrders PurchaseOrderRepository
	grns           GRNRepository
	warehouses     warehouse.Repository
	poster         StockPoster
	numerator      numerator.Generator
	txManager      tx.Manager
}

// NewService creates a receiving service.
func NewService(
	purchaseOrders PurchaseOrderRepository,
	grns GRNRepository,
	warehouses warehouse.Repository,
	poster StockPoster,
	gen numerator.Generator,
	txManager tx.Manager,
) *Service {
	return &Service{
		purchaseOrders: purchaseOrders,
		grns:           grns,
		warehouses:     warehouses,
		poster:         poster,
		numerator:      gen,
		txManager:      txManager,
	}
}

// CreateGRNItemInput is one received line of a delivery.
type CreateGRNItemInput struct {
	POItemID         id.ID
	ReceivedQuantity types.Quantity
	AcceptedQuantity types.Quantity
	RejectedQuantity types.Quantity
	BatchNumber      string
	SerialNumber     string
	InspectionNotes  string
}

// CreateGRNInput describes a physical delivery against a purchase order.
type CreateGRNInput struct {
	PurchaseOrderID id.ID
	WarehouseID     id.ID
	LocationID      id.ID
	ReceivedDate    time.Time
	Remarks         string
	Actor           string
	Items           []CreateGRNItemInput
}

// CreateGRN records a delivery: it reconciles each line against the order,
// bumps the order's cumulative counters, posts accepted quantities into
// stock at the order's unit price and rolls the order status up. The whole
// operation is atomic; a failure on any line reverts everything including
// stock already posted for earlier lines.
func (s *Service) CreateGRN(ctx context.Context, in CreateGRNInput) (*GoodsReceivedNote, error) {
	if len(in.Items) == 0 {
		return nil, apperror.NewValidation("at least one line is required").
			WithDetail("field", "items")
	}
	if in.ReceivedDate.IsZero() {
		in.ReceivedDate = time.Now().UTC()
	}
	actor := in.Actor
	if actor == "" {
		actor = appctx.ActorID(ctx)
	}

	wh, err := s.warehouses.GetByID(ctx, in.WarehouseID)
	if err != nil {
		return nil, err
	}
	if !wh.CanAcceptStock() {
		return nil, apperror.NewInvalidState("warehouse cannot accept stock").
			WithDetail("warehouse_id", wh.ID.String())
	}
	if !id.IsNil(in.LocationID) {
		loc, err := s.warehouses.GetLocation(ctx, in.LocationID)
		if err != nil {
			return nil, err
		}
		if loc.WarehouseID != in.WarehouseID {
			return nil, apperror.NewValidation("location does not belong to the receiving warehouse").
				WithDetail("location_id", loc.ID.String())
		}
	}

	var created *GoodsReceivedNote

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Lock the order and its lines so concurrent deliveries bump the
		// cumulative counters one after the other.
		po, err := s.purchaseOrders.GetByIDForUpdate(ctx, in.PurchaseOrderID)
		if err != nil {
			return err
		}
		if !po.Status.CanReceive() {
			return apperror.NewInvalidState("purchase order cannot be received in current status").
				WithDetail("po_id", po.ID.String()).
				WithDetail("status", string(po.Status))
		}

		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(PrefixGRN), nil, in.ReceivedDate)
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}

		grn := &GoodsReceivedNote{
			PurchaseOrderID: po.ID,
			WarehouseID:     in.WarehouseID,
			LocationID:      in.LocationID,
			ReceivedDate:    in.ReceivedDate,
			ReceivedBy:      actor,
		}
		grn.Document = entity.NewDocument()
		grn.Number = number
		grn.Date = in.ReceivedDate
		grn.Remarks = in.Remarks
		grn.CreatedBy = actor
		grn.UpdatedBy = actor

		for i, lineIn := range in.Items {
			poLine := po.FindItem(lineIn.POItemID)
			if poLine == nil {
				return apperror.NewValidation("line does not belong to the purchase order").
					WithDetail("line", i+1).
					WithDetail("po_item_id", lineIn.POItemID.String())
			}

			line := GRNItem{
				ID:                  id.New(),
				GRNID:               grn.ID,
				PurchaseOrderItemID: poLine.ID,
				ItemID:              poLine.ItemID,
				OrderedQuantity:     poLine.OrderedQuantity,
				ReceivedQuantity:    lineIn.ReceivedQuantity,
				AcceptedQuantity:    lineIn.AcceptedQuantity,
				RejectedQuantity:    lineIn.RejectedQuantity,
				UnitPrice:           poLine.UnitPrice,
				BatchNumber:         lineIn.BatchNumber,
				SerialNumber:        lineIn.SerialNumber,
				InspectionNotes:     lineIn.InspectionNotes,
			}
			line.Status = initialItemStatus(&line)
			if err := line.Validate(ctx); err != nil {
				return err
			}

			poLine.ReceivedQuantity += line.ReceivedQuantity
			poLine.AcceptedQuantity += line.AcceptedQuantity
			poLine.RejectedQuantity += line.RejectedQuantity

			grn.Items = append(grn.Items, line)
		}

		grn.RecomputeStatus()

		if err := s.grns.Create(ctx, grn); err != nil {
			return fmt.Errorf("create grn: %w", err)
		}

		// Accepted goods enter stock through the posting service, at the
		// order's unit price. This is the only path a GRN affects stock.
		if err := s.postAcceptedLines(ctx, grn, actor, grn.Items); err != nil {
			return err
		}

		po.RecomputeStatus()
		if err := s.purchaseOrders.Save(ctx, po); err != nil {
			return fmt.Errorf("save purchase order: %w", err)
		}

		created = grn
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "grn created",
		"number", created.Number,
		"po_id", in.PurchaseOrderID,
		"lines", len(created.Items),
		"status", created.Status,
		"actor", actor,
	)

	return created, nil
}

// GetGRN returns a note with its lines.
func (s *Service) GetGRN(ctx context.Context, grnID id.ID) (*GoodsReceivedNote, error) {
	return s.grns.GetByID(ctx, grnID)
}

// GetPurchaseOrder returns an order with its lines.
func (s *Service) GetPurchaseOrder(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	return s.purchaseOrders.GetByID(ctx, poID)
}

// InspectionInput resolves part of a GRN line after quality check.
type InspectionInput struct {
	GRNID          id.ID
	GRNItemID      id.ID
	AcceptQuantity types.Quantity
	RejectQuantity types.Quantity
	Hold           bool
	Notes          string
	Actor          string
}

// UpdateInspection accepts, rejects or holds quantity on a pending line
// after the GRN was created. Late acceptance drives the same stock receipt
// path as acceptance at creation, in the same atomic unit of work.
func (s *Service) UpdateInspection(ctx context.Context, in InspectionInput) (*GoodsReceivedNote, error) {
	if in.AcceptQuantity.IsNegative() || in.RejectQuantity.IsNegative() {
		return nil, apperror.NewValidation("accept and reject quantities must not be negative")
	}
	if !in.Hold && in.AcceptQuantity.IsZero() && in.RejectQuantity.IsZero() {
		return nil, apperror.NewValidation("nothing to inspect")
	}
	actor := in.Actor
	if actor == "" {
		actor = appctx.ActorID(ctx)
	}

	var updated *GoodsReceivedNote

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		grn, err := s.grns.GetByID(ctx, in.GRNID)
		if err != nil {
			return err
		}
		line := grn.FindItem(in.GRNItemID)
		if line == nil {
			return apperror.NewNotFound("grn item", in.GRNItemID.String())
		}
		if line.Status != GRNItemPending && line.Status != GRNItemHold {
			return apperror.NewInvalidState("line is already resolved").
				WithDetail("grn_item_id", line.ID.String()).
				WithDetail("status", string(line.Status))
		}
		if in.AcceptQuantity+in.RejectQuantity > line.PendingQuantity() {
			return apperror.NewValidation("inspected quantity exceeds pending quantity").
				WithDetail("pending", line.PendingQuantity().String())
		}

		line.AcceptedQuantity += in.AcceptQuantity
		line.RejectedQuantity += in.RejectQuantity
		if in.Notes != "" {
			line.InspectionNotes = in.Notes
		}
		switch {
		case in.Hold:
			line.Status = GRNItemHold
		case line.PendingQuantity() > 0:
			line.Status = GRNItemPending
		case line.AcceptedQuantity > 0:
			line.Status = GRNItemAccepted
		default:
			line.Status = GRNItemRejected
		}

		po, err := s.purchaseOrders.GetByIDForUpdate(ctx, grn.PurchaseOrderID)
		if err != nil {
			return err
		}
		poLine := po.FindItem(line.PurchaseOrderItemID)
		if poLine == nil {
			return apperror.NewInternal(fmt.Errorf("grn line %s references missing po line %s", line.ID, line.PurchaseOrderItemID))
		}
		poLine.AcceptedQuantity += in.AcceptQuantity
		poLine.RejectedQuantity += in.RejectQuantity

		if in.AcceptQuantity.IsPositive() {
			if err := s.postAcceptedLines(ctx, grn, actor, []GRNItem{{
				ItemID:           line.ItemID,
				AcceptedQuantity: in.AcceptQuantity,
				UnitPrice:        line.UnitPrice,
				BatchNumber:      line.BatchNumber,
				SerialNumber:     line.SerialNumber,
			}}); err != nil {
				return err
			}
		}

		grn.InspectedBy = actor
		grn.RecomputeStatus()
		if err := s.grns.Save(ctx, grn); err != nil {
			return fmt.Errorf("save grn: %w", err)
		}
		if err := s.purchaseOrders.Save(ctx, po); err != nil {
			return fmt.Errorf("save purchase order: %w", err)
		}

		updated = grn
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "grn inspection updated",
		"number", updated.Number,
		"status", updated.Status,
		"actor", actor,
	)

	return updated, nil
}

// postAcceptedLines converts accepted GRN quantities into one stock
// adjustment with reason purchase.
func (s *Service) postAcceptedLines(ctx context.Context, grn *GoodsReceivedNote, actor string, lines []GRNItem) error {
	adj := posting.AdjustmentInput{
		Date:      grn.ReceivedDate,
		Reason:    ledger.ReasonPurchase,
		Reference: grn.Number,
		Actor:     actor,
	}
	for i := range lines {
		if !lines[i].AcceptedQuantity.IsPositive() {
			continue
		}
		adj.Lines = append(adj.Lines, posting.AdjustmentLine{
			ItemID:       lines[i].ItemID,
			WarehouseID:  grn.WarehouseID,
			LocationID:   grn.LocationID,
			BatchNumber:  lines[i].BatchNumber,
			SerialNumber: lines[i].SerialNumber,
			Quantity:     lines[i].AcceptedQuantity,
			UnitCost:     lines[i].UnitPrice,
			Remarks:      fmt.Sprintf("GRN %s", grn.Number),
		})
	}
	if len(adj.Lines) == 0 {
		return nil
	}
	if _, err := s.poster.CreateAdjustment(ctx, adj); err != nil {
		return fmt.Errorf("post stock receipt: %w", err)
	}
	return nil
}

func initialItemStatus(line *GRNItem) GRNItemStatus {
	switch {
	case line.PendingQuantity() > 0:
		return GRNItemPending
	case line.AcceptedQuantity > 0:
		return GRNItemAccepted
	default:
		return GRNItemRejected
	}
}
