package conversion

import (
	"context"
	"errors"
	"fmt"

	"github.com/backoffice/receiving/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Result represents the outcome of a unit conversion attempt
type Result struct {
	// CanConvert is true when a conversion rule was found (or none was needed)
	CanConvert bool
	// ConvertedQty is the quantity expressed in the target unit
	ConvertedQty decimal.Decimal
	// RuleID identifies the rule that was applied, if any
	RuleID *uuid.UUID
	// ErrorMessage explains why conversion failed when CanConvert is false
	ErrorMessage string
}

// Resolver converts received quantities into a purchase-order line's ordered
// unit. Rules are looked up branch-first with a global fallback; no automatic
// unit inference is attempted.
type Resolver struct {
	rules RuleRepository
}

// NewResolver creates a new unit conversion resolver
func NewResolver(rules RuleRepository) *Resolver {
	return &Resolver{rules: rules}
}

// Resolve converts qty of the given ingredient from fromUnit into toUnit.
// When fromUnit equals toUnit the quantity is returned as-is without a lookup.
// When no rule exists the result carries CanConvert=false and the caller may
// create a branch-scoped rule and retry.
func (r *Resolver) Resolve(ctx context.Context, branchID, ingredientID uuid.UUID, fromUnit, toUnit string, qty decimal.Decimal) (Result, error) {
	if qty.IsNegative() {
		return Result{}, shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	if fromUnit == "" || toUnit == "" {
		return Result{}, shared.NewDomainError("INVALID_UNIT", "Unit codes cannot be empty")
	}

	if fromUnit == toUnit {
		return Result{CanConvert: true, ConvertedQty: qty}, nil
	}

	rule, err := r.rules.FindForBranch(ctx, branchID, ingredientID, fromUnit, toUnit)
	if errors.Is(err, shared.ErrNotFound) {
		rule, err = r.rules.FindGlobal(ctx, ingredientID, fromUnit, toUnit)
	}
	if errors.Is(err, shared.ErrNotFound) {
		return Result{
			CanConvert:   false,
			ErrorMessage: fmt.Sprintf("no conversion rule from %s to %s for ingredient %s", fromUnit, toUnit, ingredientID),
		}, nil
	}
	if err != nil {
		return Result{}, err
	}

	ruleID := rule.ID
	return Result{
		CanConvert:   true,
		ConvertedQty: rule.Apply(qty),
		RuleID:       &ruleID,
	}, nil
}
