package conversion

import (
	"github.com/backoffice/receiving/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RuleScope determines where a conversion rule applies
type RuleScope string

const (
	RuleScopeBranch RuleScope = "BRANCH" // Applies only to the owning branch
	RuleScopeGlobal RuleScope = "GLOBAL" // Fallback when no branch rule exists
)

// IsValid checks if the scope is a valid RuleScope
func (s RuleScope) IsValid() bool {
	switch s {
	case RuleScopeBranch, RuleScopeGlobal:
		return true
	}
	return false
}

// String returns the string representation of RuleScope
func (s RuleScope) String() string {
	return string(s)
}

// Rule defines how to convert a quantity of an ingredient from one unit of
// measure to another: convertedQty = qty * Factor.
type Rule struct {
	shared.BranchAggregateRoot
	IngredientID uuid.UUID       `gorm:"type:uuid;not null;index:idx_conversion_rule_lookup,priority:1"`
	FromUnit     string          `gorm:"type:varchar(20);not null;index:idx_conversion_rule_lookup,priority:2"`
	ToUnit       string          `gorm:"type:varchar(20);not null;index:idx_conversion_rule_lookup,priority:3"`
	Factor       decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	Scope        RuleScope       `gorm:"type:varchar(10);not null;default:'BRANCH'"`
	Description  string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Rule) TableName() string {
	return "unit_conversion_rules"
}

// NewRule creates a new conversion rule
func NewRule(branchID, ingredientID uuid.UUID, fromUnit, toUnit string, factor decimal.Decimal, scope RuleScope, description string) (*Rule, error) {
	if ingredientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INGREDIENT", "Ingredient ID cannot be empty")
	}
	if fromUnit == "" || toUnit == "" {
		return nil, shared.NewDomainError("INVALID_UNIT", "Unit codes cannot be empty")
	}
	if fromUnit == toUnit {
		return nil, shared.NewDomainError("INVALID_UNIT", "Source and target units must differ")
	}
	if factor.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_CONVERSION_FACTOR", "Conversion factor must be positive")
	}
	if !scope.IsValid() {
		return nil, shared.NewDomainError("INVALID_SCOPE", "Scope must be BRANCH or GLOBAL")
	}
	if scope == RuleScopeBranch && branchID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BRANCH", "Branch-scoped rule requires a branch ID")
	}

	return &Rule{
		BranchAggregateRoot: shared.NewBranchAggregateRoot(branchID),
		IngredientID:        ingredientID,
		FromUnit:            fromUnit,
		ToUnit:              toUnit,
		Factor:              factor,
		Scope:               scope,
		Description:         description,
	}, nil
}

// Apply converts a quantity using this rule
func (r *Rule) Apply(qty decimal.Decimal) decimal.Decimal {
	return qty.Mul(r.Factor).Round(4)
}
