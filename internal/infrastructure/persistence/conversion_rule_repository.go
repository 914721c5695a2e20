package persistence

import (
	"context"
	"errors"

	"github.com/backoffice/receiving/internal/domain/conversion"
	"github.com/backoffice/receiving/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormRuleRepository implements conversion.RuleRepository using GORM
type GormRuleRepository struct {
	db *gorm.DB
}

// NewGormRuleRepository creates a new GormRuleRepository
func NewGormRuleRepository(db *gorm.DB) *GormRuleRepository {
	return &GormRuleRepository{db: db}
}

// Save persists a conversion rule
func (r *GormRuleRepository) Save(ctx context.Context, rule *conversion.Rule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}

// FindByID retrieves a rule by its ID
func (r *GormRuleRepository) FindByID(ctx context.Context, id uuid.UUID) (*conversion.Rule, error) {
	var rule conversion.Rule
	if err := r.db.WithContext(ctx).First(&rule, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rule, nil
}

// FindForBranch looks up a branch-scoped rule for the given ingredient and
// unit pair. The newest rule wins when duplicates exist.
func (r *GormRuleRepository) FindForBranch(ctx context.Context, branchID, ingredientID uuid.UUID, fromUnit, toUnit string) (*conversion.Rule, error) {
	var rule conversion.Rule
	err := r.db.WithContext(ctx).
		Where("branch_id = ? AND ingredient_id = ? AND from_unit = ? AND to_unit = ? AND scope = ?",
			branchID, ingredientID, fromUnit, toUnit, conversion.RuleScopeBranch).
		Order("created_at DESC").
		First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rule, nil
}

// FindGlobal looks up a global rule for the given ingredient and unit pair
func (r *GormRuleRepository) FindGlobal(ctx context.Context, ingredientID uuid.UUID, fromUnit, toUnit string) (*conversion.Rule, error) {
	var rule conversion.Rule
	err := r.db.WithContext(ctx).
		Where("ingredient_id = ? AND from_unit = ? AND to_unit = ? AND scope = ?",
			ingredientID, fromUnit, toUnit, conversion.RuleScopeGlobal).
		Order("created_at DESC").
		First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rule, nil
}

// ListByIngredient returns all rules for an ingredient visible to a branch:
// its own rules plus the global fallbacks.
func (r *GormRuleRepository) ListByIngredient(ctx context.Context, branchID, ingredientID uuid.UUID) ([]*conversion.Rule, error) {
	var rules []*conversion.Rule
	err := r.db.WithContext(ctx).
		Where("ingredient_id = ? AND (branch_id = ? OR scope = ?)",
			ingredientID, branchID, conversion.RuleScopeGlobal).
		Order("created_at DESC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// Ensure GormRuleRepository implements RuleRepository
var _ conversion.RuleRepository = (*GormRuleRepository)(nil)
