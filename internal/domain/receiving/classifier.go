package receiving

import (
	"github.com/shopspring/decimal"
)

// Epsilon is the tolerance applied to all received-vs-target comparisons to
// avoid false variances from floating-point rounding in upstream systems.
var Epsilon = decimal.NewFromFloat(1e-6)

// BaselineStatus is the variance classification of a line before the operator
// picks a disposition.
type BaselineStatus string

const (
	BaselineOK     BaselineStatus = "OK"     // received matches target within tolerance
	BaselineShort  BaselineStatus = "SHORT"  // received below target
	BaselineOver   BaselineStatus = "OVER"   // received above target
	BaselineDamage BaselineStatus = "DAMAGE" // damaged units present, overrides quantity comparison
	// BaselineBlocked means the received unit could not be converted to the
	// ordered unit. A blocked line can only be returned, or re-evaluated
	// after a conversion rule is created.
	BaselineBlocked BaselineStatus = "BLOCKED"
)

// IsValid checks if the status is a known BaselineStatus
func (s BaselineStatus) IsValid() bool {
	switch s {
	case BaselineOK, BaselineShort, BaselineOver, BaselineDamage, BaselineBlocked:
		return true
	}
	return false
}

// String returns the string representation of BaselineStatus
func (s BaselineStatus) String() string {
	return string(s)
}

// RequiresDisposition returns true when the operator must pick a disposition
// before the line can be submitted. OK is auto-terminal.
func (s BaselineStatus) RequiresDisposition() bool {
	return s != BaselineOK
}

// Classifier computes the baseline variance classification of a receipt line.
// It is a pure domain service with no state.
type Classifier struct{}

// NewClassifier creates a new line classifier
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify compares the received quantity (already converted to ordered
// units) against the target quantity. Damage takes priority over the
// quantity comparison: damaged goods always require an explicit operator
// decision, even when the totals line up.
func (c *Classifier) Classify(target, receivedInOrderedUnits, damageQty decimal.Decimal) BaselineStatus {
	if damageQty.GreaterThan(decimal.Zero) {
		return BaselineDamage
	}

	diff := receivedInOrderedUnits.Sub(target)
	switch {
	case diff.Abs().LessThanOrEqual(Epsilon):
		return BaselineOK
	case diff.IsNegative():
		return BaselineShort
	default:
		return BaselineOver
	}
}

// ClassifyLine classifies a receipt input against its order line, taking the
// prior receipt state into account for the target quantity. When converted is
// nil the received unit could not be resolved and the line is BLOCKED.
func (c *Classifier) ClassifyLine(line OrderLine, prior *PriorReceiptState, input ReceiptInput, converted *decimal.Decimal) BaselineStatus {
	if converted == nil {
		return BaselineBlocked
	}
	return c.Classify(TargetQty(line, prior), *converted, input.DamageQty)
}
