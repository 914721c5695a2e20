package handler

import (
	"errors"

	appconversion "github.com/backoffice/receiving/internal/application/conversion"
	"github.com/backoffice/receiving/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ConversionHandler handles unit conversion rule endpoints
type ConversionHandler struct {
	BaseHandler
	service *appconversion.RuleService
}

// NewConversionHandler creates a new ConversionHandler
func NewConversionHandler(service *appconversion.RuleService) *ConversionHandler {
	return &ConversionHandler{service: service}
}

// RegisterRoutes registers conversion rule routes
func (h *ConversionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	conversions := rg.Group("/conversions")
	{
		conversions.POST("", h.Create)
		conversions.GET("", h.List)
	}
}

// Create creates a conversion rule so a blocked receipt line can be retried.
// POST /api/v1/conversions
func (h *ConversionHandler) Create(c *gin.Context) {
	branchID, err := getBranchID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing "+BranchIDHeader+" header")
		return
	}

	var req appconversion.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	rule, err := h.service.CreateRule(c.Request.Context(), branchID, req)
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			h.ErrorWithCode(c, domainErr.Code, domainErr.Message)
			return
		}
		h.Internal(c, "Internal server error")
		return
	}
	h.Created(c, rule)
}

// List returns the conversion rules for an ingredient visible to the branch.
// GET /api/v1/conversions?ingredient_id=...
func (h *ConversionHandler) List(c *gin.Context) {
	branchID, err := getBranchID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing "+BranchIDHeader+" header")
		return
	}
	ingredientID, err := uuid.Parse(c.Query("ingredient_id"))
	if err != nil {
		h.BadRequest(c, "Invalid or missing ingredient_id")
		return
	}

	rules, err := h.service.ListRules(c.Request.Context(), branchID, ingredientID)
	if err != nil {
		h.Internal(c, "Internal server error")
		return
	}
	h.Success(c, rules)
}
