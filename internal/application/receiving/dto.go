package receiving

import (
	"time"

	"github.com/backoffice/receiving/internal/domain/receiving"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiptLineRequest describes what arrived for one order line
type ReceiptLineRequest struct {
	OrderLineID  uuid.UUID        `json:"order_line_id" binding:"required"`
	ReceivedQty  decimal.Decimal  `json:"received_qty" binding:"required"`
	ReceivedUnit string           `json:"received_unit" binding:"required"`
	DamageQty    decimal.Decimal  `json:"damage_qty"`
	GoodQty      *decimal.Decimal `json:"good_qty"`
	Notes        string           `json:"notes"`
	LotNumber    string           `json:"lot_number"`
	MfgDate      *time.Time       `json:"mfg_date"`
	ExpDate      *time.Time       `json:"exp_date"`
	Disposition  *string          `json:"disposition" binding:"omitempty,disposition"`
}

// toInput converts the request into a domain receipt input
func (r ReceiptLineRequest) toInput() receiving.ReceiptInput {
	input := receiving.ReceiptInput{
		OrderLineID:  r.OrderLineID,
		ReceivedQty:  r.ReceivedQty,
		ReceivedUnit: r.ReceivedUnit,
		DamageQty:    r.DamageQty,
		GoodQty:      r.GoodQty,
		Notes:        r.Notes,
		LotNumber:    r.LotNumber,
		MfgDate:      r.MfgDate,
		ExpDate:      r.ExpDate,
	}
	if r.Disposition != nil {
		d := receiving.Disposition(*r.Disposition)
		input.Disposition = &d
	}
	return input
}

// SubmitReceiptRequest is the full submission payload for a purchase order
type SubmitReceiptRequest struct {
	Lines      []ReceiptLineRequest `json:"lines" binding:"required,min=1,dive"`
	OperatorID *uuid.UUID           `json:"operator_id"`
	// SubmissionID keys the saga's idempotency guards. Clients retrying a
	// partially failed submission must reuse the same ID.
	SubmissionID uuid.UUID `json:"submission_id" binding:"required"`
}

// PreviewLineResponse is the classification of one line before submission
type PreviewLineResponse struct {
	OrderLineID         uuid.UUID                `json:"order_line_id"`
	IngredientName      string                   `json:"ingredient_name"`
	TargetQty           decimal.Decimal          `json:"target_qty"`
	OrderedUnit         string                   `json:"ordered_unit"`
	ConvertedQty        *decimal.Decimal         `json:"converted_qty,omitempty"`
	ConversionError     string                   `json:"conversion_error,omitempty"`
	Baseline            receiving.BaselineStatus `json:"baseline"`
	RequiresDisposition bool                     `json:"requires_disposition"`
}

// PreviewResponse is the classification preview for a whole submission
type PreviewResponse struct {
	PurchaseOrderID uuid.UUID             `json:"purchase_order_id"`
	Lines           []PreviewLineResponse `json:"lines"`
}

// LineOutcomeResponse reports the terminal resolution of one line
type LineOutcomeResponse struct {
	OrderLineID uuid.UUID            `json:"order_line_id"`
	Status      receiving.LineStatus `json:"status"`
	AcceptedQty decimal.Decimal      `json:"accepted_qty"`
	ReturnQty   decimal.Decimal      `json:"return_qty"`
	ClosesLine  bool                 `json:"closes_line"`
}

// SubmitReceiptResponse reports a committed submission
type SubmitReceiptResponse struct {
	ReceiptID       uuid.UUID                     `json:"receipt_id"`
	ReturnID        *uuid.UUID                    `json:"return_id,omitempty"`
	OrderStatus     receiving.PurchaseOrderStatus `json:"order_status"`
	CompletedSteps  []string                      `json:"completed_steps"`
	Lines           []LineOutcomeResponse         `json:"lines"`
	PurchaseOrderID uuid.UUID                     `json:"purchase_order_id"`
}

func toOutcomeResponses(outcomes []receiving.LineOutcome) []LineOutcomeResponse {
	responses := make([]LineOutcomeResponse, 0, len(outcomes))
	for _, o := range outcomes {
		responses = append(responses, LineOutcomeResponse{
			OrderLineID: o.OrderLineID,
			Status:      o.Status,
			AcceptedQty: o.AcceptedQty,
			ReturnQty:   o.ReturnQty,
			ClosesLine:  o.ClosesLine,
		})
	}
	return responses
}
