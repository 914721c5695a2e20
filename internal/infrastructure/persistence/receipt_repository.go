package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	appreceiving "github.com/backoffice/receiving/internal/application/receiving"
	"github.com/backoffice/receiving/internal/domain/receiving"
	"github.com/backoffice/receiving/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormReceiptRepository persists receipt batches and maintains the per-line
// receipt state that later submissions read as PriorReceiptState.
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

// PriorStates returns the receipt state per order line for a purchase order.
// Lines never received before are absent from the map.
func (r *GormReceiptRepository) PriorStates(ctx context.Context, orderID uuid.UUID) (map[uuid.UUID]*receiving.PriorReceiptState, error) {
	lineIDs := r.db.Model(&receiving.OrderLine{}).
		Select("id").
		Where("purchase_order_id = ?", orderID)

	var states []receiving.PriorReceiptState
	if err := r.db.WithContext(ctx).
		Where("order_line_id IN (?)", lineIDs).
		Find(&states).Error; err != nil {
		return nil, err
	}

	result := make(map[uuid.UUID]*receiving.PriorReceiptState, len(states))
	for i := range states {
		result[states[i].OrderLineID] = &states[i]
	}
	return result, nil
}

// CreateBatch records a receipt batch and rolls each line's receipt state
// forward. Idempotent on SubmissionID: a repeated call returns the existing
// receipt without touching the states again.
func (r *GormReceiptRepository) CreateBatch(ctx context.Context, sub appreceiving.ReceiptSubmission) (uuid.UUID, error) {
	var receiptID uuid.UUID

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing GoodsReceiptModel
		err := tx.Where("submission_id = ?", sub.SubmissionID).First(&existing).Error
		if err == nil {
			receiptID = existing.ID
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		receipt := GoodsReceiptModel{
			ID:              uuid.New(),
			SubmissionID:    sub.SubmissionID,
			BranchID:        sub.BranchID,
			PurchaseOrderID: sub.PurchaseOrderID,
			CreatedBy:       sub.CreatedBy,
			CreatedAt:       time.Now(),
		}
		if err := tx.Create(&receipt).Error; err != nil {
			return fmt.Errorf("create receipt: %w", err)
		}

		for _, line := range sub.Lines {
			model := GoodsReceiptLineModel{
				ID:           uuid.New(),
				ReceiptID:    receipt.ID,
				OrderLineID:  line.OrderLineID,
				IngredientID: line.IngredientID,
				Unit:         line.Unit,
				AcceptedQty:  line.AcceptedQty,
				DamageQty:    line.DamageQty,
				LotNumber:    line.LotNumber,
				MfgDate:      line.MfgDate,
				ExpDate:      line.ExpDate,
				Status:       line.Status.String(),
				Note:         line.Note,
				ClosesLine:   line.ClosesLine,
			}
			if err := tx.Create(&model).Error; err != nil {
				return fmt.Errorf("create receipt line: %w", err)
			}
			if err := advanceLineState(tx, line); err != nil {
				return fmt.Errorf("advance line state: %w", err)
			}
		}

		receiptID = receipt.ID
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return receiptID, nil
}

// FindBySubmission returns the receipt ID created for a submission
func (r *GormReceiptRepository) FindBySubmission(ctx context.Context, submissionID uuid.UUID) (uuid.UUID, error) {
	var receipt GoodsReceiptModel
	err := r.db.WithContext(ctx).Where("submission_id = ?", submissionID).First(&receipt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, shared.ErrNotFound
		}
		return uuid.Nil, err
	}
	return receipt.ID, nil
}

// OrderStatus assembles the per-line and order-level receiving view
func (r *GormReceiptRepository) OrderStatus(ctx context.Context, branchID, orderID uuid.UUID) (*appreceiving.OrderReceivingStatus, error) {
	var order PurchaseOrderModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND branch_id = ?", orderID, branchID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	var lines []receiving.OrderLine
	if err := r.db.WithContext(ctx).
		Where("purchase_order_id = ?", orderID).
		Find(&lines).Error; err != nil {
		return nil, err
	}

	states, err := r.PriorStates(ctx, orderID)
	if err != nil {
		return nil, err
	}

	status := &appreceiving.OrderReceivingStatus{
		PurchaseOrderID: orderID,
		Status:          receiving.PurchaseOrderStatus(order.Status),
		Lines:           make([]appreceiving.LineReceivingStatus, 0, len(lines)),
	}
	for _, line := range lines {
		lineStatus := appreceiving.LineReceivingStatus{
			OrderLineID:    line.ID,
			IngredientName: line.IngredientName,
			OrderedQty:     line.OrderedQty,
			OrderedUnit:    line.OrderedUnit,
			RemainingQty:   line.OrderedQty,
		}
		if state, ok := states[line.ID]; ok {
			lineStatus.ReceivedQtySoFar = state.ReceivedQtySoFar
			lineStatus.RemainingQty = state.RemainingQty
			lineStatus.Closed = !state.CanReceiveMore
			lineStatus.LastStatus = state.LastResolutionStatus
		}
		status.Lines = append(status.Lines, lineStatus)
	}
	return status, nil
}

// advanceLineState rolls a line's receipt state forward for one receipt line.
// An OVER_ADJUSTED resolution re-bases the ordered quantity to what was
// received, so nothing remains outstanding afterwards.
func advanceLineState(tx *gorm.DB, line receiving.ReceiptLine) error {
	state, err := loadOrSeedState(tx, line.OrderLineID)
	if err != nil {
		return err
	}

	state.ReceivedQtySoFar = state.ReceivedQtySoFar.Add(line.AcceptedQty)
	if line.Status == receiving.LineStatusOverAdjusted {
		state.RemainingQty = decimal.Zero
	} else {
		state.RemainingQty = decimal.Max(decimal.Zero, state.RemainingQty.Sub(line.AcceptedQty))
	}
	if line.ClosesLine {
		state.CanReceiveMore = false
	}
	state.LastResolutionStatus = line.Status

	return tx.Save(state).Error
}

// closeLineState marks an order line as no longer receivable, used when a
// full supplier return closes a line without a receipt record.
func closeLineState(tx *gorm.DB, orderLineID uuid.UUID) error {
	state, err := loadOrSeedState(tx, orderLineID)
	if err != nil {
		return err
	}
	state.CanReceiveMore = false
	state.LastResolutionStatus = receiving.LineStatusReturn
	return tx.Save(state).Error
}

// loadOrSeedState loads a line's receipt state, seeding a fresh one from the
// order line when this is the first receipt against it.
func loadOrSeedState(tx *gorm.DB, orderLineID uuid.UUID) (*receiving.PriorReceiptState, error) {
	var state receiving.PriorReceiptState
	err := tx.Where("order_line_id = ?", orderLineID).First(&state).Error
	if err == nil {
		return &state, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var orderLine receiving.OrderLine
	if err := tx.First(&orderLine, "id = ?", orderLineID).Error; err != nil {
		return nil, fmt.Errorf("load order line %s: %w", orderLineID, err)
	}
	return &receiving.PriorReceiptState{
		OrderLineID:      orderLineID,
		ReceivedQtySoFar: decimal.Zero,
		RemainingQty:     orderLine.OrderedQty,
		CanReceiveMore:   true,
	}, nil
}

// Ensure GormReceiptRepository implements the receiving ports
var (
	_ appreceiving.ReceiptGateway        = (*GormReceiptRepository)(nil)
	_ appreceiving.ReceiptStatusProvider = (*GormReceiptRepository)(nil)
)
