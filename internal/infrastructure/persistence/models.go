package persistence

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderModel is the receiving-relevant slice of a purchase order
type PurchaseOrderModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	BranchID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Status    string    `gorm:"type:varchar(30);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// GoodsReceiptModel is one committed receipt batch
type GoodsReceiptModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key"`
	SubmissionID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	BranchID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	PurchaseOrderID uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy       *uuid.UUID `gorm:"type:uuid"`
	CreatedAt       time.Time
}

// TableName returns the table name for GORM
func (GoodsReceiptModel) TableName() string {
	return "goods_receipts"
}

// GoodsReceiptLineModel is one line of a committed receipt batch.
// Quantities are stored in the ordered unit; DamageQty keeps the unit the
// goods were received in.
type GoodsReceiptLineModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	ReceiptID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderLineID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	IngredientID uuid.UUID       `gorm:"type:uuid;not null"`
	Unit         string          `gorm:"type:varchar(20);not null"`
	AcceptedQty  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DamageQty    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LotNumber    string          `gorm:"type:varchar(50)"`
	MfgDate      *time.Time
	ExpDate      *time.Time
	Status       string `gorm:"type:varchar(20);not null"`
	Note         string `gorm:"type:varchar(500)"`
	ClosesLine   bool   `gorm:"not null"`
	CreatedAt    time.Time
}

// TableName returns the table name for GORM
func (GoodsReceiptLineModel) TableName() string {
	return "goods_receipt_lines"
}

// Return order lifecycle statuses
const (
	ReturnStatusPending   = "PENDING"
	ReturnStatusApproved  = "APPROVED"
	ReturnStatusProcessed = "PROCESSED"
)

// ReturnOrderModel is one return-goods batch sent back to the supplier
type ReturnOrderModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key"`
	SubmissionID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	BranchID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	PurchaseOrderID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Status          string     `gorm:"type:varchar(20);not null;default:'PENDING'"`
	CreatedBy       *uuid.UUID `gorm:"type:uuid"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName returns the table name for GORM
func (ReturnOrderModel) TableName() string {
	return "return_orders"
}

// ReturnOrderLineModel is one line of a return-goods batch
type ReturnOrderLineModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	ReturnOrderID uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderLineID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	IngredientID  uuid.UUID       `gorm:"type:uuid;not null"`
	Unit          string          `gorm:"type:varchar(20);not null"`
	ReturnQty     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Reason        string          `gorm:"type:varchar(100);not null"`
	CreatedAt     time.Time
}

// TableName returns the table name for GORM
func (ReturnOrderLineModel) TableName() string {
	return "return_order_lines"
}
