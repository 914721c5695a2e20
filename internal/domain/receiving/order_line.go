package receiving

import (
	"github.com/backoffice/receiving/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLine represents a single purchase-order line. Lines are immutable once
// the purchase order is approved; receiving never mutates them except through
// the OVER_ADJUSTED re-basing recorded by receipt history.
type OrderLine struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;index"`
	IngredientID    uuid.UUID       `gorm:"type:uuid;not null"`
	IngredientName  string          `gorm:"type:varchar(200);not null"`
	OrderedQty      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	OrderedUnit     string          `gorm:"type:varchar(20);not null"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (OrderLine) TableName() string {
	return "purchase_order_lines"
}

// NewOrderLine creates a new purchase-order line
func NewOrderLine(purchaseOrderID, ingredientID uuid.UUID, ingredientName, orderedUnit string, orderedQty, unitPrice decimal.Decimal) (*OrderLine, error) {
	if purchaseOrderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Purchase order ID cannot be empty")
	}
	if ingredientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INGREDIENT", "Ingredient ID cannot be empty")
	}
	if ingredientName == "" {
		return nil, shared.NewDomainError("INVALID_INGREDIENT_NAME", "Ingredient name cannot be empty")
	}
	if orderedUnit == "" {
		return nil, shared.NewDomainError("INVALID_UNIT", "Ordered unit cannot be empty")
	}
	if orderedQty.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Ordered quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	return &OrderLine{
		ID:              uuid.New(),
		PurchaseOrderID: purchaseOrderID,
		IngredientID:    ingredientID,
		IngredientName:  ingredientName,
		OrderedQty:      orderedQty,
		OrderedUnit:     orderedUnit,
		UnitPrice:       unitPrice,
	}, nil
}

// PriorReceiptState captures what earlier submissions already received against
// an order line. It is owned by receipt history and is read-only input to the
// current batch. An absent state means the line has never been received.
type PriorReceiptState struct {
	OrderLineID      uuid.UUID       `gorm:"type:uuid;primary_key"`
	ReceivedQtySoFar decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	// RemainingQty is orderedQty - receivedQtySoFar, re-based when a prior
	// OVER_ADJUSTED resolution rewrote the ordered quantity.
	RemainingQty         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CanReceiveMore       bool            `gorm:"not null;default:true"`
	LastResolutionStatus LineStatus      `gorm:"type:varchar(20)"`
}

// TableName returns the table name for GORM
func (PriorReceiptState) TableName() string {
	return "receipt_line_states"
}

// TargetQty returns the quantity still expected for a line: the remaining
// quantity when a prior partial receipt exists, otherwise the full ordered
// quantity.
func TargetQty(line OrderLine, prior *PriorReceiptState) decimal.Decimal {
	if prior != nil {
		return prior.RemainingQty
	}
	return line.OrderedQty
}
