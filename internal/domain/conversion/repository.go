package conversion

import (
	"context"

	"github.com/google/uuid"
)

// RuleRepository provides access to persisted conversion rules
type RuleRepository interface {
	// Save persists a conversion rule
	Save(ctx context.Context, rule *Rule) error

	// FindByID retrieves a rule by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Rule, error)

	// FindForBranch looks up a branch-scoped rule for the given ingredient
	// and unit pair. Returns shared.ErrNotFound when no rule exists.
	FindForBranch(ctx context.Context, branchID, ingredientID uuid.UUID, fromUnit, toUnit string) (*Rule, error)

	// FindGlobal looks up a global rule for the given ingredient and unit
	// pair. Returns shared.ErrNotFound when no rule exists.
	FindGlobal(ctx context.Context, ingredientID uuid.UUID, fromUnit, toUnit string) (*Rule, error)

	// ListByIngredient returns all rules for an ingredient visible to a branch
	ListByIngredient(ctx context.Context, branchID, ingredientID uuid.UUID) ([]*Rule, error)
}
