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
	"gorm.io/gorm"
)

// GormReturnRepository persists return-goods batches and drives the return
// order lifecycle (PENDING -> APPROVED -> PROCESSED).
type GormReturnRepository struct {
	db *gorm.DB
}

// NewGormReturnRepository creates a new GormReturnRepository
func NewGormReturnRepository(db *gorm.DB) *GormReturnRepository {
	return &GormReturnRepository{db: db}
}

// CreateBatch records a return-goods batch. Idempotent on SubmissionID.
// Lines returned in full close their order line's receipt state here, since
// no receipt record exists for them.
func (r *GormReturnRepository) CreateBatch(ctx context.Context, sub appreceiving.ReturnSubmission) (uuid.UUID, error) {
	var returnID uuid.UUID

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing ReturnOrderModel
		err := tx.Where("submission_id = ?", sub.SubmissionID).First(&existing).Error
		if err == nil {
			returnID = existing.ID
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		order := ReturnOrderModel{
			ID:              uuid.New(),
			SubmissionID:    sub.SubmissionID,
			BranchID:        sub.BranchID,
			PurchaseOrderID: sub.PurchaseOrderID,
			Status:          ReturnStatusPending,
			CreatedBy:       sub.CreatedBy,
			CreatedAt:       time.Now(),
			UpdatedAt:       time.Now(),
		}
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("create return order: %w", err)
		}

		for _, line := range sub.Lines {
			model := ReturnOrderLineModel{
				ID:            uuid.New(),
				ReturnOrderID: order.ID,
				OrderLineID:   line.OrderLineID,
				IngredientID:  line.IngredientID,
				Unit:          line.Unit,
				ReturnQty:     line.ReturnQty,
				UnitPrice:     line.UnitPrice,
				Reason:        line.Reason,
			}
			if err := tx.Create(&model).Error; err != nil {
				return fmt.Errorf("create return line: %w", err)
			}
			if line.Reason == receiving.ReturnReasonReturned {
				if err := closeLineState(tx, line.OrderLineID); err != nil {
					return fmt.Errorf("close line state: %w", err)
				}
			}
		}

		returnID = order.ID
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return returnID, nil
}

// FindBySubmission returns the return ID created for a submission
func (r *GormReturnRepository) FindBySubmission(ctx context.Context, submissionID uuid.UUID) (uuid.UUID, error) {
	var order ReturnOrderModel
	err := r.db.WithContext(ctx).Where("submission_id = ?", submissionID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, shared.ErrNotFound
		}
		return uuid.Nil, err
	}
	return order.ID, nil
}

// Approve moves a pending return order to APPROVED. Approving an already
// approved or processed order is a no-op so saga retries stay idempotent.
func (r *GormReturnRepository) Approve(ctx context.Context, returnID uuid.UUID) error {
	return r.transition(ctx, returnID, ReturnStatusPending, ReturnStatusApproved)
}

// Process executes an approved return order, deducting the returned stock
func (r *GormReturnRepository) Process(ctx context.Context, returnID uuid.UUID) error {
	return r.transition(ctx, returnID, ReturnStatusApproved, ReturnStatusProcessed)
}

func (r *GormReturnRepository) transition(ctx context.Context, returnID uuid.UUID, from, to string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order ReturnOrderModel
		if err := tx.First(&order, "id = ?", returnID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if order.Status != from {
			// Already moved past the source state: treat as done.
			if order.Status == to || order.Status == ReturnStatusProcessed {
				return nil
			}
			return shared.NewDomainError("INVALID_RETURN_STATE",
				fmt.Sprintf("Return order is %s, expected %s", order.Status, from))
		}

		order.Status = to
		order.UpdatedAt = time.Now()
		return tx.Save(&order).Error
	})
}

// Ensure GormReturnRepository implements ReturnGateway
var _ appreceiving.ReturnGateway = (*GormReturnRepository)(nil)
