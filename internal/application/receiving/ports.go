package receiving

import (
	"context"

	"github.com/backoffice/receiving/internal/domain/receiving"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// The reconciliation flow touches three backend surfaces: the receipt store,
// the return-goods store and the purchase order itself. Each is isolated
// behind a narrow gateway so the whole submission can later move into a
// single transaction without touching the domain logic.

// ReceiptSubmission is the receipt batch handed to the receipt gateway
type ReceiptSubmission struct {
	SubmissionID    uuid.UUID
	BranchID        uuid.UUID
	PurchaseOrderID uuid.UUID
	CreatedBy       *uuid.UUID
	Lines           []receiving.ReceiptLine
}

// ReturnSubmission is the return-goods batch handed to the return gateway
type ReturnSubmission struct {
	SubmissionID    uuid.UUID
	BranchID        uuid.UUID
	PurchaseOrderID uuid.UUID
	CreatedBy       *uuid.UUID
	Lines           []receiving.ReturnLine
}

// ReceiptGateway persists receipt batches and answers what earlier
// submissions already received.
type ReceiptGateway interface {
	// PriorStates returns the receipt state per order line for the given
	// purchase order. Lines never received before are absent from the map.
	PriorStates(ctx context.Context, orderID uuid.UUID) (map[uuid.UUID]*receiving.PriorReceiptState, error)

	// CreateBatch records a receipt batch and returns the receipt ID.
	// Idempotent on SubmissionID: a repeated call returns the existing ID.
	CreateBatch(ctx context.Context, sub ReceiptSubmission) (uuid.UUID, error)

	// FindBySubmission returns the receipt ID created for a submission.
	// Returns shared.ErrNotFound when the submission never completed step one.
	FindBySubmission(ctx context.Context, submissionID uuid.UUID) (uuid.UUID, error)
}

// ReturnGateway manages the return-goods side of a submission
type ReturnGateway interface {
	// CreateBatch records a return-goods batch and returns the return ID.
	// Idempotent on SubmissionID.
	CreateBatch(ctx context.Context, sub ReturnSubmission) (uuid.UUID, error)

	// FindBySubmission returns the return ID created for a submission
	FindBySubmission(ctx context.Context, submissionID uuid.UUID) (uuid.UUID, error)

	// Approve moves the return order to its approved state
	Approve(ctx context.Context, returnID uuid.UUID) error

	// Process executes the approved return, deducting returned stock
	Process(ctx context.Context, returnID uuid.UUID) error
}

// PurchaseOrderGateway exposes the slice of the purchase order that
// receiving needs: its lines and its receiving status.
type PurchaseOrderGateway interface {
	// FindLines returns every line of the purchase order.
	// Returns shared.ErrNotFound when the order does not exist for the branch.
	FindLines(ctx context.Context, branchID, orderID uuid.UUID) ([]receiving.OrderLine, error)

	// UpdateStatus sets the order's receiving status
	UpdateStatus(ctx context.Context, branchID, orderID uuid.UUID, status receiving.PurchaseOrderStatus) error
}

// LineReceivingStatus is the per-line view served by the status query
type LineReceivingStatus struct {
	OrderLineID      uuid.UUID            `json:"order_line_id"`
	IngredientName   string               `json:"ingredient_name"`
	OrderedQty       decimal.Decimal      `json:"ordered_qty"`
	OrderedUnit      string               `json:"ordered_unit"`
	ReceivedQtySoFar decimal.Decimal      `json:"received_qty_so_far"`
	RemainingQty     decimal.Decimal      `json:"remaining_qty"`
	Closed           bool                 `json:"closed"`
	LastStatus       receiving.LineStatus `json:"last_status,omitempty"`
}

// OrderReceivingStatus is the order-level view served by the status query
type OrderReceivingStatus struct {
	PurchaseOrderID uuid.UUID                     `json:"purchase_order_id"`
	Status          receiving.PurchaseOrderStatus `json:"status"`
	Lines           []LineReceivingStatus         `json:"lines"`
}

// ReceiptStatusProvider answers the receiving-status query for an order
type ReceiptStatusProvider interface {
	OrderStatus(ctx context.Context, branchID, orderID uuid.UUID) (*OrderReceivingStatus, error)
}
