package receiving

import (
	"time"

	"github.com/backoffice/receiving/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Disposition is the operator's explicit choice of how to resolve a variance
// into a terminal status. Every non-OK baseline requires exactly one.
type Disposition string

const (
	DispositionAcceptShort   Disposition = "ACCEPT_SHORT"    // SHORT -> SHORT_ACCEPTED
	DispositionFollowUp      Disposition = "FOLLOW_UP"       // SHORT -> SHORT_PENDING
	DispositionAcceptOver    Disposition = "ACCEPT_OVER"     // OVER -> OVER_ACCEPTED
	DispositionAdjustOrder   Disposition = "ADJUST_ORDER"    // OVER -> OVER_ADJUSTED
	DispositionReturnExcess  Disposition = "RETURN_EXCESS"   // OVER -> OVER_RETURN
	DispositionAcceptDamage  Disposition = "ACCEPT_DAMAGE"   // DAMAGE -> DAMAGE_ACCEPTED
	DispositionReturnDamage  Disposition = "RETURN_DAMAGE"   // DAMAGE -> DAMAGE_RETURN
	DispositionTakeGoodParts Disposition = "TAKE_GOOD_PARTS" // DAMAGE -> DAMAGE_PARTIAL
	DispositionReturnItem    Disposition = "RETURN_ITEM"     // any -> RETURN
)

// IsValid checks if the disposition is a known value
func (d Disposition) IsValid() bool {
	switch d {
	case DispositionAcceptShort, DispositionFollowUp, DispositionAcceptOver,
		DispositionAdjustOrder, DispositionReturnExcess, DispositionAcceptDamage,
		DispositionReturnDamage, DispositionTakeGoodParts, DispositionReturnItem:
		return true
	}
	return false
}

// String returns the string representation of Disposition
func (d Disposition) String() string {
	return string(d)
}

// ReceiptInput describes what physically arrived for one order line in one
// submission attempt. It is created per attempt and discarded after the batch
// is committed or rejected.
type ReceiptInput struct {
	OrderLineID  uuid.UUID
	ReceivedQty  decimal.Decimal
	ReceivedUnit string
	// DamageQty is recorded in the unit the goods were received in and is
	// never unit-converted (matching the behavior of the original system).
	DamageQty decimal.Decimal
	// GoodQty is the operator-supplied good quantity for TAKE_GOOD_PARTS
	GoodQty     *decimal.Decimal
	Notes       string
	LotNumber   string
	MfgDate     *time.Time
	ExpDate     *time.Time
	Disposition *Disposition // absent until the operator resolves a variance
}

// Validate checks the structural invariants of a receipt input
func (in ReceiptInput) Validate() error {
	if in.OrderLineID == uuid.Nil {
		return shared.NewDomainError("INVALID_ORDER_LINE", "Order line ID cannot be empty")
	}
	if in.ReceivedQty.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Received quantity cannot be negative")
	}
	if in.ReceivedUnit == "" {
		return shared.NewDomainError("INVALID_UNIT", "Received unit cannot be empty")
	}
	if in.DamageQty.IsNegative() {
		return shared.NewDomainError("INVALID_DAMAGE", "Damage quantity cannot be negative")
	}
	if in.DamageQty.GreaterThan(in.ReceivedQty) {
		return shared.NewDomainError("INVALID_DAMAGE", "Damage quantity cannot exceed received quantity")
	}
	if in.Disposition != nil && !in.Disposition.IsValid() {
		return shared.NewDomainError("INVALID_DISPOSITION", "Unknown disposition: "+in.Disposition.String())
	}
	if in.ExpDate != nil && in.MfgDate != nil && in.ExpDate.Before(*in.MfgDate) {
		return shared.NewDomainError("INVALID_DATES", "Expiry date cannot be before manufacturing date")
	}
	return nil
}

// HasDamage returns true when any damaged units were recorded
func (in ReceiptInput) HasDamage() bool {
	return in.DamageQty.GreaterThan(decimal.Zero)
}
