package receiving

import (
	"github.com/backoffice/receiving/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineStatus is the terminal resolution status of a receipt line
type LineStatus string

const (
	LineStatusOK             LineStatus = "OK"
	LineStatusShortAccepted  LineStatus = "SHORT_ACCEPTED"
	LineStatusShortPending   LineStatus = "SHORT_PENDING"
	LineStatusOverAccepted   LineStatus = "OVER_ACCEPTED"
	LineStatusOverAdjusted   LineStatus = "OVER_ADJUSTED"
	LineStatusOverReturn     LineStatus = "OVER_RETURN"
	LineStatusDamageAccepted LineStatus = "DAMAGE_ACCEPTED"
	LineStatusDamageReturn   LineStatus = "DAMAGE_RETURN"
	LineStatusDamagePartial  LineStatus = "DAMAGE_PARTIAL"
	LineStatusReturn         LineStatus = "RETURN"
)

// IsValid checks if the status is a known LineStatus
func (s LineStatus) IsValid() bool {
	switch s {
	case LineStatusOK, LineStatusShortAccepted, LineStatusShortPending,
		LineStatusOverAccepted, LineStatusOverAdjusted, LineStatusOverReturn,
		LineStatusDamageAccepted, LineStatusDamageReturn, LineStatusDamagePartial,
		LineStatusReturn:
		return true
	}
	return false
}

// String returns the string representation of LineStatus
func (s LineStatus) String() string {
	return string(s)
}

// RequiresNotes returns true when the status must carry operator justification
func (s LineStatus) RequiresNotes() bool {
	switch s {
	case LineStatusOverAdjusted, LineStatusOverReturn, LineStatusDamageAccepted,
		LineStatusDamageReturn, LineStatusDamagePartial, LineStatusReturn:
		return true
	}
	return false
}

// Return reason strings, keyed to the status that produced the return line
const (
	ReturnReasonExcess   = "excess over ordered quantity"
	ReturnReasonDamaged  = "damaged items"
	ReturnReasonReturned = "item returned to supplier"
)

// LineOutcome is the resolved accounting outcome for one receipt line. It is
// a pure computation with no independent persistence.
type LineOutcome struct {
	OrderLineID uuid.UUID
	Status      LineStatus
	// AcceptedQty is posted into inventory, always in the ordered unit
	AcceptedQty decimal.Decimal
	// ReturnQty goes back to the supplier, in the ordered unit
	ReturnQty    decimal.Decimal
	ReturnReason string
	// ClosesLine is true when no further receiving is expected for the line
	ClosesLine bool
	// AdjustedOrderedQty is set for OVER_ADJUSTED: the ordered quantity is
	// retroactively re-based to the received quantity.
	AdjustedOrderedQty *decimal.Decimal
}

// HasReturn returns true when the outcome produces a return-goods line
func (o LineOutcome) HasReturn() bool {
	return o.ReturnQty.GreaterThan(decimal.Zero)
}

// ResolutionEngine applies an operator-chosen disposition to a classified
// line, producing the terminal status, the inventory quantity and any
// supplier return. Pure and stateless.
type ResolutionEngine struct{}

// NewResolutionEngine creates a new resolution engine
func NewResolutionEngine() *ResolutionEngine {
	return &ResolutionEngine{}
}

// Resolve turns a classified line into its terminal outcome.
// receivedInOrderedUnits is the physically received quantity converted to the
// ordered unit; it is zero and unused for BLOCKED lines being returned.
// Returns a DomainError when the disposition is absent, mismatched for the
// baseline, or lacks required notes.
func (e *ResolutionEngine) Resolve(line OrderLine, prior *PriorReceiptState, input ReceiptInput, baseline BaselineStatus, receivedInOrderedUnits decimal.Decimal) (LineOutcome, error) {
	if err := input.Validate(); err != nil {
		return LineOutcome{}, err
	}

	target := TargetQty(line, prior)

	// OK is auto-terminal, no operator decision involved.
	if baseline == BaselineOK {
		return LineOutcome{
			OrderLineID: line.ID,
			Status:      LineStatusOK,
			AcceptedQty: receivedInOrderedUnits,
			ReturnQty:   decimal.Zero,
			ClosesLine:  true,
		}, nil
	}

	if input.Disposition == nil {
		return LineOutcome{}, shared.ErrMissingDisposition
	}
	disposition := *input.Disposition

	// A blocked line has no usable converted quantity; returning the goods
	// is the only disposition that does not depend on conversion.
	if baseline == BaselineBlocked && disposition != DispositionReturnItem {
		return LineOutcome{}, shared.ErrConversionUnavailable
	}

	var outcome LineOutcome
	switch disposition {
	case DispositionReturnItem:
		// Blocked lines have no converted quantity; the raw received
		// quantity is returned as recorded.
		returnQty := receivedInOrderedUnits
		if baseline == BaselineBlocked {
			returnQty = input.ReceivedQty
		}
		outcome = LineOutcome{
			OrderLineID:  line.ID,
			Status:       LineStatusReturn,
			AcceptedQty:  decimal.Zero,
			ReturnQty:    returnQty,
			ReturnReason: ReturnReasonReturned,
			ClosesLine:   true,
		}

	case DispositionAcceptShort:
		if baseline != BaselineShort {
			return LineOutcome{}, invalidDisposition(disposition, baseline)
		}
		outcome = LineOutcome{
			OrderLineID: line.ID,
			Status:      LineStatusShortAccepted,
			AcceptedQty: receivedInOrderedUnits,
			ReturnQty:   decimal.Zero,
			ClosesLine:  true,
		}

	case DispositionFollowUp:
		if baseline != BaselineShort {
			return LineOutcome{}, invalidDisposition(disposition, baseline)
		}
		outcome = LineOutcome{
			OrderLineID: line.ID,
			Status:      LineStatusShortPending,
			AcceptedQty: receivedInOrderedUnits,
			ReturnQty:   decimal.Zero,
			ClosesLine:  false,
		}

	case DispositionAcceptOver:
		if baseline != BaselineOver {
			return LineOutcome{}, invalidDisposition(disposition, baseline)
		}
		outcome = LineOutcome{
			OrderLineID: line.ID,
			Status:      LineStatusOverAccepted,
			AcceptedQty: receivedInOrderedUnits,
			ReturnQty:   decimal.Zero,
			ClosesLine:  true,
		}

	case DispositionAdjustOrder:
		if baseline != BaselineOver {
			return LineOutcome{}, invalidDisposition(disposition, baseline)
		}
		adjusted := receivedInOrderedUnits
		outcome = LineOutcome{
			OrderLineID:        line.ID,
			Status:             LineStatusOverAdjusted,
			AcceptedQty:        receivedInOrderedUnits,
			ReturnQty:          decimal.Zero,
			ClosesLine:         true,
			AdjustedOrderedQty: &adjusted,
		}

	case DispositionReturnExcess:
		if baseline != BaselineOver {
			return LineOutcome{}, invalidDisposition(disposition, baseline)
		}
		// Damage is kept in the as-received unit and subtracted directly,
		// preserving the original system's accounting.
		good := receivedInOrderedUnits.Sub(input.DamageQty)
		outcome = LineOutcome{
			OrderLineID:  line.ID,
			Status:       LineStatusOverReturn,
			AcceptedQty:  decimal.Min(target, good),
			ReturnQty:    decimal.Max(decimal.Zero, good.Sub(target)),
			ReturnReason: ReturnReasonExcess,
			ClosesLine:   true,
		}

	case DispositionAcceptDamage:
		if baseline != BaselineDamage {
			return LineOutcome{}, invalidDisposition(disposition, baseline)
		}
		outcome = LineOutcome{
			OrderLineID: line.ID,
			Status:      LineStatusDamageAccepted,
			AcceptedQty: receivedInOrderedUnits,
			ReturnQty:   decimal.Zero,
			ClosesLine:  true,
		}

	case DispositionReturnDamage:
		if baseline != BaselineDamage {
			return LineOutcome{}, invalidDisposition(disposition, baseline)
		}
		outcome = LineOutcome{
			OrderLineID:  line.ID,
			Status:       LineStatusDamageReturn,
			AcceptedQty:  receivedInOrderedUnits.Sub(input.DamageQty),
			ReturnQty:    input.DamageQty,
			ReturnReason: ReturnReasonDamaged,
			ClosesLine:   true,
		}

	case DispositionTakeGoodParts:
		if baseline != BaselineDamage {
			return LineOutcome{}, invalidDisposition(disposition, baseline)
		}
		if input.GoodQty == nil {
			return LineOutcome{}, shared.NewDomainError("MISSING_GOOD_QUANTITY", "Take-good-parts requires the operator-supplied good quantity")
		}
		if input.GoodQty.IsNegative() || input.GoodQty.GreaterThan(line.OrderedQty) {
			return LineOutcome{}, shared.NewDomainError("INVALID_GOOD_QUANTITY", "Good quantity must be between 0 and the ordered quantity")
		}
		outcome = LineOutcome{
			OrderLineID:  line.ID,
			Status:       LineStatusDamagePartial,
			AcceptedQty:  *input.GoodQty,
			ReturnQty:    input.DamageQty,
			ReturnReason: ReturnReasonDamaged,
			ClosesLine:   false,
		}

	default:
		return LineOutcome{}, shared.NewDomainError("INVALID_DISPOSITION", "Unknown disposition: "+disposition.String())
	}

	if outcome.Status.RequiresNotes() && input.Notes == "" {
		return LineOutcome{}, shared.ErrMissingNotes
	}

	return outcome, nil
}

func invalidDisposition(d Disposition, baseline BaselineStatus) *shared.DomainError {
	return shared.NewDomainError("INVALID_DISPOSITION",
		"Disposition "+d.String()+" is not applicable to a "+baseline.String()+" line")
}
