package handler

import (
	"errors"
	"net/http"

	appreceiving "github.com/backoffice/receiving/internal/application/receiving"
	"github.com/backoffice/receiving/internal/domain/receiving"
	"github.com/backoffice/receiving/internal/domain/shared"
	"github.com/backoffice/receiving/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReceivingHandler handles goods-receipt reconciliation endpoints
type ReceivingHandler struct {
	BaseHandler
	service *appreceiving.ReconciliationService
}

// NewReceivingHandler creates a new ReceivingHandler
func NewReceivingHandler(service *appreceiving.ReconciliationService) *ReceivingHandler {
	return &ReceivingHandler{service: service}
}

// RegisterRoutes registers receiving routes
func (h *ReceivingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	routes := rg.Group("/receiving")
	{
		routes.POST("/:orderID/preview", h.Preview)
		routes.POST("/:orderID/submit", h.Submit)
		routes.GET("/:orderID/status", h.Status)
	}
}

// PreviewRequest is the payload for the classification preview endpoint
type PreviewRequest struct {
	Lines []appreceiving.ReceiptLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// Preview classifies what arrived against what was ordered without
// committing anything.
// POST /api/v1/receiving/:orderID/preview
func (h *ReceivingHandler) Preview(c *gin.Context) {
	branchID, err := getBranchID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing "+BranchIDHeader+" header")
		return
	}
	orderID, err := uuid.Parse(c.Param("orderID"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID")
		return
	}

	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	response, err := h.service.Preview(c.Request.Context(), branchID, orderID, req.Lines)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.Success(c, response)
}

// Submit reconciles and commits a receipt submission.
// POST /api/v1/receiving/:orderID/submit
func (h *ReceivingHandler) Submit(c *gin.Context) {
	branchID, err := getBranchID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing "+BranchIDHeader+" header")
		return
	}
	orderID, err := uuid.Parse(c.Param("orderID"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID")
		return
	}

	var req appreceiving.SubmitReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	response, err := h.service.Submit(c.Request.Context(), branchID, orderID, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.Created(c, response)
}

// Status returns the receiving status of a purchase order.
// GET /api/v1/receiving/:orderID/status
func (h *ReceivingHandler) Status(c *gin.Context) {
	branchID, err := getBranchID(c)
	if err != nil {
		h.BadRequest(c, "Invalid or missing "+BranchIDHeader+" header")
		return
	}
	orderID, err := uuid.Parse(c.Param("orderID"))
	if err != nil {
		h.BadRequest(c, "Invalid purchase order ID")
		return
	}

	status, err := h.service.Status(c.Request.Context(), branchID, orderID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.Success(c, status)
}

// handleError maps reconciliation errors onto HTTP responses
func (h *ReceivingHandler) handleError(c *gin.Context, err error) {
	// Whole-batch rejection: every per-line problem reported together.
	var validationErrs *receiving.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusUnprocessableEntity, dto.NewErrorResponseWithDetails(
			dto.ErrCodeValidation, "Submission rejected", validationErrs))
		return
	}

	// The receipt batch committed but a later step failed; the caller must
	// reconcile manually and may retry with the same submission ID.
	if failure, ok := appreceiving.IsPartialFailure(err); ok {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithDetails(
			dto.ErrCodeSagaPartialFailure, failure.Error(), gin.H{
				"submission_id":   failure.SubmissionID,
				"failed_step":     failure.Failed,
				"completed_steps": failure.Completed,
				"receipt_id":      failure.ReceiptID,
				"return_id":       failure.ReturnID,
			}))
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.ErrorWithCode(c, domainErr.Code, domainErr.Message)
		return
	}

	h.Internal(c, "Internal server error")
}
