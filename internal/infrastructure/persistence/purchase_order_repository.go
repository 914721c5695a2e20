package persistence

import (
	"context"
	"errors"
	"time"

	appreceiving "github.com/backoffice/receiving/internal/application/receiving"
	"github.com/backoffice/receiving/internal/domain/receiving"
	"github.com/backoffice/receiving/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPurchaseOrderRepository exposes the receiving-relevant slice of
// purchase orders: their lines and their receiving status.
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// FindLines returns every line of the purchase order
func (r *GormPurchaseOrderRepository) FindLines(ctx context.Context, branchID, orderID uuid.UUID) ([]receiving.OrderLine, error) {
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
	return lines, nil
}

// UpdateStatus sets the order's receiving status
func (r *GormPurchaseOrderRepository) UpdateStatus(ctx context.Context, branchID, orderID uuid.UUID, status receiving.PurchaseOrderStatus) error {
	result := r.db.WithContext(ctx).
		Model(&PurchaseOrderModel{}).
		Where("id = ? AND branch_id = ?", orderID, branchID).
		Updates(map[string]interface{}{
			"status":     status.String(),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormPurchaseOrderRepository implements PurchaseOrderGateway
var _ appreceiving.PurchaseOrderGateway = (*GormPurchaseOrderRepository)(nil)
