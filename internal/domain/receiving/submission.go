package receiving

import (
	"fmt"
	"strings"
	"time"

	"github.com/backoffice/receiving/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceiptLine is one record of the receipt batch handed to the receipt store.
// Quantities are always stored in the ordered unit, never the as-received
// unit; only the damage quantity keeps the received unit.
type ReceiptLine struct {
	OrderLineID  uuid.UUID
	IngredientID uuid.UUID
	Unit         string
	AcceptedQty  decimal.Decimal
	DamageQty    decimal.Decimal
	LotNumber    string
	MfgDate      *time.Time
	ExpDate      *time.Time
	Status       LineStatus
	Note         string
	ClosesLine   bool
}

// ReturnLine is one record of the return-goods batch sent back to the supplier
type ReturnLine struct {
	OrderLineID  uuid.UUID
	IngredientID uuid.UUID
	Unit         string
	ReturnQty    decimal.Decimal
	UnitPrice    decimal.Decimal
	Reason       string
}

// SubmissionBatch is the assembled result of a build: the receipt batch, the
// (possibly empty) return batch, and the per-line outcomes that produced
// them, including the derived purchase-order status.
type SubmissionBatch struct {
	Receipts []ReceiptLine
	Returns  []ReturnLine
	Outcomes []LineOutcome
	Status   PurchaseOrderStatus
}

// HasReturns returns true when the batch produced return-goods lines
func (b *SubmissionBatch) HasReturns() bool {
	return len(b.Returns) > 0
}

// LineError ties a validation error to the order line that caused it
type LineError struct {
	OrderLineID uuid.UUID           `json:"order_line_id"`
	Err         *shared.DomainError `json:"error"`
}

// ValidationErrors collects every per-line and batch-level problem found
// during a build, so the operator can fix everything in a single pass.
type ValidationErrors struct {
	Lines []LineError           `json:"lines,omitempty"`
	Batch []*shared.DomainError `json:"batch,omitempty"`
}

// Error implements the error interface
func (e *ValidationErrors) Error() string {
	parts := make([]string, 0, len(e.Lines)+len(e.Batch))
	for _, be := range e.Batch {
		parts = append(parts, be.Message)
	}
	for _, le := range e.Lines {
		parts = append(parts, fmt.Sprintf("line %s: %s", le.OrderLineID, le.Err.Message))
	}
	return strings.Join(parts, "; ")
}

// HasErrors returns true when any problem was recorded
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Lines) > 0 || len(e.Batch) > 0
}

func (e *ValidationErrors) addLine(lineID uuid.UUID, err *shared.DomainError) {
	e.Lines = append(e.Lines, LineError{OrderLineID: lineID, Err: err})
}

func (e *ValidationErrors) addBatch(err *shared.DomainError) {
	e.Batch = append(e.Batch, err)
}

// BuildEntry is one reconciled line entering the submission builder.
// Outcome is nil when resolution failed; ResolveErr then carries the reason.
type BuildEntry struct {
	Line       OrderLine
	Prior      *PriorReceiptState
	Input      ReceiptInput
	Baseline   BaselineStatus
	Outcome    *LineOutcome
	ResolveErr *shared.DomainError
}

// SubmissionBuilder assembles resolved lines into a receipt batch and a
// return-goods batch, enforcing every pre-submission invariant. All problems
// are collected and reported together rather than failing on the first one.
type SubmissionBuilder struct {
	aggregator *StatusAggregator
	lots       *LotNumberGenerator
}

// NewSubmissionBuilder creates a new submission builder
func NewSubmissionBuilder(lots *LotNumberGenerator) *SubmissionBuilder {
	return &SubmissionBuilder{
		aggregator: NewStatusAggregator(),
		lots:       lots,
	}
}

// Build validates and assembles a submission batch.
// allLines is the complete set of order lines on the purchase order (needed
// for status aggregation); priorClosed holds the line IDs already closed by
// earlier submissions. The whole batch is rejected, with every problem
// reported, when any invariant fails; there is no partial commit.
func (b *SubmissionBuilder) Build(allLines []OrderLine, priorClosed map[uuid.UUID]bool, entries []BuildEntry) (*SubmissionBatch, error) {
	errs := &ValidationErrors{}
	batch := &SubmissionBatch{
		Receipts: make([]ReceiptLine, 0, len(entries)),
		Returns:  make([]ReturnLine, 0),
		Outcomes: make([]LineOutcome, 0, len(entries)),
	}

	for _, entry := range entries {
		// Lines already closed by an earlier submission are dropped silently.
		if entry.Prior != nil && !entry.Prior.CanReceiveMore {
			continue
		}

		if entry.ResolveErr != nil {
			errs.addLine(entry.Line.ID, entry.ResolveErr)
			continue
		}
		if entry.Outcome == nil {
			if entry.Baseline == BaselineBlocked {
				errs.addLine(entry.Line.ID, shared.ErrConversionUnavailable)
			} else if entry.Baseline.RequiresDisposition() {
				errs.addLine(entry.Line.ID, shared.ErrMissingDisposition)
			} else {
				errs.addLine(entry.Line.ID, shared.NewDomainError("UNRESOLVED_LINE", "Line has no resolution outcome"))
			}
			continue
		}

		outcome := *entry.Outcome

		// A blocked line may only pass through as a supplier return.
		if entry.Baseline == BaselineBlocked && outcome.Status != LineStatusReturn {
			errs.addLine(entry.Line.ID, shared.ErrConversionUnavailable)
			continue
		}
		if outcome.Status.RequiresNotes() && entry.Input.Notes == "" {
			errs.addLine(entry.Line.ID, shared.ErrMissingNotes)
			continue
		}

		batch.Outcomes = append(batch.Outcomes, outcome)

		if outcome.Status == LineStatusReturn {
			// A zero-quantity receipt line is invalid: the full quantity
			// goes to the return batch instead.
			batch.Returns = append(batch.Returns, ReturnLine{
				OrderLineID:  entry.Line.ID,
				IngredientID: entry.Line.IngredientID,
				Unit:         entry.Line.OrderedUnit,
				ReturnQty:    outcome.ReturnQty,
				UnitPrice:    entry.Line.UnitPrice,
				Reason:       ReturnReasonReturned,
			})
			continue
		}

		lotNumber := entry.Input.LotNumber
		if lotNumber == "" && b.lots != nil {
			lotNumber = b.lots.Next()
		}

		batch.Receipts = append(batch.Receipts, ReceiptLine{
			OrderLineID:  entry.Line.ID,
			IngredientID: entry.Line.IngredientID,
			Unit:         entry.Line.OrderedUnit,
			AcceptedQty:  outcome.AcceptedQty,
			DamageQty:    entry.Input.DamageQty,
			LotNumber:    lotNumber,
			MfgDate:      entry.Input.MfgDate,
			ExpDate:      entry.Input.ExpDate,
			Status:       outcome.Status,
			Note:         composeNote(entry.Line, entry.Prior, entry.Input, outcome),
			ClosesLine:   outcome.ClosesLine,
		})

		if outcome.HasReturn() {
			batch.Returns = append(batch.Returns, ReturnLine{
				OrderLineID:  entry.Line.ID,
				IngredientID: entry.Line.IngredientID,
				Unit:         entry.Line.OrderedUnit,
				ReturnQty:    outcome.ReturnQty,
				UnitPrice:    entry.Line.UnitPrice,
				Reason:       outcome.ReturnReason,
			})
		}
	}

	// The receipt store cannot record an empty batch, so a submission that
	// filters down to zero receipt lines is rejected outright.
	if len(batch.Receipts) == 0 && !errs.HasErrors() {
		errs.addBatch(shared.ErrNothingToSubmit)
	}
	if errs.HasErrors() {
		return nil, errs
	}

	batch.Status = b.aggregator.Aggregate(allLines, batch.Outcomes, priorClosed)
	return batch, nil
}

// composeNote builds the human-readable receipt note from the outcome
func composeNote(line OrderLine, prior *PriorReceiptState, input ReceiptInput, outcome LineOutcome) string {
	target := TargetQty(line, prior)

	switch outcome.Status {
	case LineStatusOK:
		return fmt.Sprintf("OK: received %s of %s ordered", outcome.AcceptedQty, target)
	case LineStatusShortAccepted:
		return fmt.Sprintf("SHORT ACCEPTED: received %s of %s ordered", outcome.AcceptedQty, target)
	case LineStatusShortPending:
		return fmt.Sprintf("SHORT PENDING: received %s of %s ordered, remainder expected in a follow-up delivery", outcome.AcceptedQty, target)
	case LineStatusOverAccepted:
		return fmt.Sprintf("OVER ACCEPTED: received %s of %s ordered", outcome.AcceptedQty, target)
	case LineStatusOverAdjusted:
		return fmt.Sprintf("OVER ADJUSTED: ordered quantity re-based to %s", outcome.AcceptedQty)
	case LineStatusOverReturn:
		return fmt.Sprintf("OVER RETURN: accepted %s of %s ordered, %s returned as excess", outcome.AcceptedQty, target, outcome.ReturnQty)
	case LineStatusDamageAccepted:
		return fmt.Sprintf("DAMAGE ACCEPTED: received %s including %s damaged", outcome.AcceptedQty, input.DamageQty)
	case LineStatusDamageReturn:
		return fmt.Sprintf("DAMAGE RETURN: accepted %s, returned %s damaged", outcome.AcceptedQty, outcome.ReturnQty)
	case LineStatusDamagePartial:
		return fmt.Sprintf("DAMAGE PARTIAL: accepted %s good units, returned %s damaged, line remains open", outcome.AcceptedQty, outcome.ReturnQty)
	default:
		return string(outcome.Status)
	}
}
