package conversion

import (
	"context"

	"github.com/backoffice/receiving/internal/domain/conversion"
	"github.com/backoffice/receiving/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateRuleRequest creates a conversion rule, typically to unblock a receipt
// line whose received unit could not be converted.
type CreateRuleRequest struct {
	IngredientID uuid.UUID       `json:"ingredient_id" binding:"required"`
	FromUnit     string          `json:"from_unit" binding:"required"`
	ToUnit       string          `json:"to_unit" binding:"required"`
	Factor       decimal.Decimal `json:"factor" binding:"required"`
	Scope        string          `json:"scope" binding:"omitempty,oneof=BRANCH GLOBAL"`
	Description  string          `json:"description"`
	OperatorID   *uuid.UUID      `json:"operator_id"`
}

// RuleResponse represents a conversion rule in API responses
type RuleResponse struct {
	ID           uuid.UUID       `json:"id"`
	BranchID     uuid.UUID       `json:"branch_id"`
	IngredientID uuid.UUID       `json:"ingredient_id"`
	FromUnit     string          `json:"from_unit"`
	ToUnit       string          `json:"to_unit"`
	Factor       decimal.Decimal `json:"factor"`
	Scope        string          `json:"scope"`
	Description  string          `json:"description"`
}

func toRuleResponse(rule *conversion.Rule) *RuleResponse {
	return &RuleResponse{
		ID:           rule.ID,
		BranchID:     rule.BranchID,
		IngredientID: rule.IngredientID,
		FromUnit:     rule.FromUnit,
		ToUnit:       rule.ToUnit,
		Factor:       rule.Factor,
		Scope:        rule.Scope.String(),
		Description:  rule.Description,
	}
}

// RuleService manages unit conversion rules
type RuleService struct {
	rules    conversion.RuleRepository
	resolver *conversion.Resolver
	logger   *zap.Logger
}

// NewRuleService creates a new conversion rule service
func NewRuleService(rules conversion.RuleRepository, logger *zap.Logger) *RuleService {
	return &RuleService{
		rules:    rules,
		resolver: conversion.NewResolver(rules),
		logger:   logger,
	}
}

// CreateRule creates and persists a conversion rule. New rules default to
// branch scope; the next classification attempt picks them up immediately.
func (s *RuleService) CreateRule(ctx context.Context, branchID uuid.UUID, req CreateRuleRequest) (*RuleResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "conversion", "create_rule",
		telemetry.WithAttribute("ingredient_id", req.IngredientID.String()),
		telemetry.WithAttribute("from_unit", req.FromUnit),
		telemetry.WithAttribute("to_unit", req.ToUnit))
	defer span.End()

	scope := conversion.RuleScopeBranch
	if req.Scope != "" {
		scope = conversion.RuleScope(req.Scope)
	}

	rule, err := conversion.NewRule(branchID, req.IngredientID, req.FromUnit, req.ToUnit, req.Factor, scope, req.Description)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if req.OperatorID != nil {
		rule.SetCreatedBy(*req.OperatorID)
	}

	if err := s.rules.Save(ctx, rule); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("conversion rule created",
		zap.String("rule_id", rule.ID.String()),
		zap.String("ingredient_id", rule.IngredientID.String()),
		zap.String("from_unit", rule.FromUnit),
		zap.String("to_unit", rule.ToUnit),
		zap.String("scope", rule.Scope.String()),
	)
	return toRuleResponse(rule), nil
}

// Resolve converts a quantity between units using the stored rules
func (s *RuleService) Resolve(ctx context.Context, branchID, ingredientID uuid.UUID, fromUnit, toUnit string, qty decimal.Decimal) (conversion.Result, error) {
	return s.resolver.Resolve(ctx, branchID, ingredientID, fromUnit, toUnit, qty)
}

// ListRules returns every rule for an ingredient visible to the branch
func (s *RuleService) ListRules(ctx context.Context, branchID, ingredientID uuid.UUID) ([]*RuleResponse, error) {
	rules, err := s.rules.ListByIngredient(ctx, branchID, ingredientID)
	if err != nil {
		return nil, err
	}
	responses := make([]*RuleResponse, 0, len(rules))
	for _, rule := range rules {
		responses = append(responses, toRuleResponse(rule))
	}
	return responses, nil
}
