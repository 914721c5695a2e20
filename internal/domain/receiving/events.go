package receiving

import (
	"github.com/backoffice/receiving/internal/domain/shared"
	"github.com/google/uuid"
)

// Event type constants
const (
	EventTypeGoodsReceiptSubmitted      = "receiving.goods_receipt_submitted"
	EventTypeReturnOrderCreated         = "receiving.return_order_created"
	EventTypePurchaseOrderStatusChanged = "receiving.purchase_order_status_changed"
)

// GoodsReceiptSubmittedEvent is published after a receipt batch is persisted
type GoodsReceiptSubmittedEvent struct {
	shared.BaseDomainEvent
	PurchaseOrderID uuid.UUID `json:"purchase_order_id"`
	ReceiptID       uuid.UUID `json:"receipt_id"`
	LineCount       int       `json:"line_count"`
	ReturnLineCount int       `json:"return_line_count"`
}

// NewGoodsReceiptSubmittedEvent creates a new GoodsReceiptSubmittedEvent
func NewGoodsReceiptSubmittedEvent(branchID, purchaseOrderID, receiptID uuid.UUID, batch *SubmissionBatch) *GoodsReceiptSubmittedEvent {
	return &GoodsReceiptSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGoodsReceiptSubmitted, "GoodsReceipt", receiptID, branchID),
		PurchaseOrderID: purchaseOrderID,
		ReceiptID:       receiptID,
		LineCount:       len(batch.Receipts),
		ReturnLineCount: len(batch.Returns),
	}
}

// ReturnOrderCreatedEvent is published after a return-goods batch is persisted
type ReturnOrderCreatedEvent struct {
	shared.BaseDomainEvent
	PurchaseOrderID uuid.UUID `json:"purchase_order_id"`
	ReturnID        uuid.UUID `json:"return_id"`
	LineCount       int       `json:"line_count"`
}

// NewReturnOrderCreatedEvent creates a new ReturnOrderCreatedEvent
func NewReturnOrderCreatedEvent(branchID, purchaseOrderID, returnID uuid.UUID, lineCount int) *ReturnOrderCreatedEvent {
	return &ReturnOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnOrderCreated, "ReturnOrder", returnID, branchID),
		PurchaseOrderID: purchaseOrderID,
		ReturnID:        returnID,
		LineCount:       lineCount,
	}
}

// PurchaseOrderStatusChangedEvent is published when receiving recomputes the
// purchase order's overall status
type PurchaseOrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	PurchaseOrderID uuid.UUID           `json:"purchase_order_id"`
	NewStatus       PurchaseOrderStatus `json:"new_status"`
}

// NewPurchaseOrderStatusChangedEvent creates a new PurchaseOrderStatusChangedEvent
func NewPurchaseOrderStatusChangedEvent(branchID, purchaseOrderID uuid.UUID, status PurchaseOrderStatus) *PurchaseOrderStatusChangedEvent {
	return &PurchaseOrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderStatusChanged, "PurchaseOrder", purchaseOrderID, branchID),
		PurchaseOrderID: purchaseOrderID,
		NewStatus:       status,
	}
}
