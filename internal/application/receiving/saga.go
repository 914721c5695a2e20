package receiving

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/backoffice/receiving/internal/domain/receiving"
	"github.com/backoffice/receiving/internal/domain/shared"
	"github.com/backoffice/receiving/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// SagaStep identifies one step of the submission saga
type SagaStep string

const (
	StepCreateReceipt     SagaStep = "create_receipt"
	StepCreateReturn      SagaStep = "create_return"
	StepApproveReturn     SagaStep = "approve_return"
	StepProcessReturn     SagaStep = "process_return"
	StepUpdateOrderStatus SagaStep = "update_order_status"
)

// SagaResult reports a fully completed submission
type SagaResult struct {
	ReceiptID uuid.UUID
	ReturnID  *uuid.UUID
	Completed []SagaStep
}

// PartialSagaFailure is returned when the receipt batch was committed but a
// later step failed. There is no automatic rollback: the error carries what
// completed so the failure can be reconciled manually, and a retry with the
// same submission ID skips the completed steps.
type PartialSagaFailure struct {
	SubmissionID uuid.UUID
	Failed       SagaStep
	Completed    []SagaStep
	ReceiptID    uuid.UUID
	ReturnID     *uuid.UUID
	Err          error
}

// Error implements the error interface
func (e *PartialSagaFailure) Error() string {
	completed := make([]string, 0, len(e.Completed))
	for _, s := range e.Completed {
		completed = append(completed, string(s))
	}
	return fmt.Sprintf("submission %s failed at step %s (completed: %s): %v",
		e.SubmissionID, e.Failed, strings.Join(completed, ", "), e.Err)
}

// Unwrap returns the underlying step error
func (e *PartialSagaFailure) Unwrap() error {
	return e.Err
}

// SubmissionSaga commits a built submission batch against the backend in five
// fixed-order steps: create the receipt batch, create the return batch when
// the submission produced returns, approve and process that return, and
// finally update the purchase order status. Steps are never parallelized;
// each is guarded by an idempotency key so a retried submission only runs the
// steps that have not completed yet.
type SubmissionSaga struct {
	receipts    ReceiptGateway
	returns     ReturnGateway
	orders      PurchaseOrderGateway
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
	logger      *zap.Logger
}

// NewSubmissionSaga creates a new submission saga
func NewSubmissionSaga(
	receipts ReceiptGateway,
	returns ReturnGateway,
	orders PurchaseOrderGateway,
	idempotency shared.IdempotencyStore,
	logger *zap.Logger,
) *SubmissionSaga {
	return &SubmissionSaga{
		receipts:    receipts,
		returns:     returns,
		orders:      orders,
		idempotency: idempotency,
		idemConfig:  shared.DefaultIdempotencyConfig(),
		logger:      logger,
	}
}

// SetIdempotencyConfig overrides the idempotency settings for saga steps
func (s *SubmissionSaga) SetIdempotencyConfig(cfg shared.IdempotencyConfig) {
	s.idemConfig = cfg
}

// Execute runs the saga for a built batch. A failure in the first step aborts
// cleanly with no side effects; any later failure returns a
// PartialSagaFailure describing what already committed.
func (s *SubmissionSaga) Execute(ctx context.Context, branchID, orderID, submissionID uuid.UUID, operatorID *uuid.UUID, batch *receiving.SubmissionBatch) (*SagaResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "receiving.saga.execute",
		telemetry.WithAttribute("purchase_order_id", orderID.String()),
		telemetry.WithAttribute("submission_id", submissionID.String()),
	)
	defer span.End()

	result := &SagaResult{}

	// Step 1: the receipt batch. Nothing has committed yet, so a failure
	// here is a clean abort.
	skipped, err := s.runStep(ctx, submissionID, StepCreateReceipt, func(ctx context.Context) error {
		receiptID, err := s.receipts.CreateBatch(ctx, ReceiptSubmission{
			SubmissionID:    submissionID,
			BranchID:        branchID,
			PurchaseOrderID: orderID,
			CreatedBy:       operatorID,
			Lines:           batch.Receipts,
		})
		if err != nil {
			return err
		}
		result.ReceiptID = receiptID
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("create receipt batch: %w", err)
	}
	if skipped {
		receiptID, err := s.receipts.FindBySubmission(ctx, submissionID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("recover receipt from earlier attempt: %w", err)
		}
		result.ReceiptID = receiptID
	}
	result.Completed = append(result.Completed, StepCreateReceipt)

	// Steps 2-4 only exist when the batch produced supplier returns.
	if batch.HasReturns() {
		skipped, err = s.runStep(ctx, submissionID, StepCreateReturn, func(ctx context.Context) error {
			returnID, err := s.returns.CreateBatch(ctx, ReturnSubmission{
				SubmissionID:    submissionID,
				BranchID:        branchID,
				PurchaseOrderID: orderID,
				CreatedBy:       operatorID,
				Lines:           batch.Returns,
			})
			if err != nil {
				return err
			}
			result.ReturnID = &returnID
			return nil
		})
		if err != nil {
			return nil, s.partialFailure(span, submissionID, StepCreateReturn, result, err)
		}
		if skipped {
			returnID, err := s.returns.FindBySubmission(ctx, submissionID)
			if err != nil {
				return nil, s.partialFailure(span, submissionID, StepCreateReturn, result, err)
			}
			result.ReturnID = &returnID
		}
		result.Completed = append(result.Completed, StepCreateReturn)

		if _, err = s.runStep(ctx, submissionID, StepApproveReturn, func(ctx context.Context) error {
			return s.returns.Approve(ctx, *result.ReturnID)
		}); err != nil {
			return nil, s.partialFailure(span, submissionID, StepApproveReturn, result, err)
		}
		result.Completed = append(result.Completed, StepApproveReturn)

		if _, err = s.runStep(ctx, submissionID, StepProcessReturn, func(ctx context.Context) error {
			return s.returns.Process(ctx, *result.ReturnID)
		}); err != nil {
			return nil, s.partialFailure(span, submissionID, StepProcessReturn, result, err)
		}
		result.Completed = append(result.Completed, StepProcessReturn)
	}

	// Step 5: roll the aggregated status up to the purchase order.
	if _, err = s.runStep(ctx, submissionID, StepUpdateOrderStatus, func(ctx context.Context) error {
		return s.orders.UpdateStatus(ctx, branchID, orderID, batch.Status)
	}); err != nil {
		return nil, s.partialFailure(span, submissionID, StepUpdateOrderStatus, result, err)
	}
	result.Completed = append(result.Completed, StepUpdateOrderStatus)

	s.logger.Info("submission saga completed",
		zap.String("submission_id", submissionID.String()),
		zap.String("purchase_order_id", orderID.String()),
		zap.String("receipt_id", result.ReceiptID.String()),
		zap.Int("steps", len(result.Completed)),
	)
	return result, nil
}

// runStep executes one saga step under its idempotency guard. It returns
// skipped=true when an earlier attempt already completed the step.
func (s *SubmissionSaga) runStep(ctx context.Context, submissionID uuid.UUID, step SagaStep, fn func(context.Context) error) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "receiving.saga."+string(step))
	defer span.End()

	key := stepKey(submissionID, step)
	if s.idempotency != nil {
		processed, err := s.idempotency.IsProcessed(ctx, key)
		if err != nil {
			// The guard is advisory. When it cannot be read the step runs
			// again and the gateway's own idempotency takes over.
			s.logger.Warn("idempotency check failed, running step anyway",
				zap.String("key", key), zap.Error(err))
		} else if processed {
			s.logger.Info("skipping already completed saga step",
				zap.String("submission_id", submissionID.String()),
				zap.String("step", string(step)))
			return true, nil
		}
	}

	if err := fn(ctx); err != nil {
		telemetry.RecordError(span, err)
		return false, err
	}

	if s.idempotency != nil {
		if _, err := s.idempotency.MarkProcessed(ctx, key, s.idemConfig.TTL); err != nil {
			s.logger.Warn("failed to mark saga step processed",
				zap.String("key", key), zap.Error(err))
		}
	}
	return false, nil
}

func (s *SubmissionSaga) partialFailure(span trace.Span, submissionID uuid.UUID, step SagaStep, result *SagaResult, err error) error {
	failure := &PartialSagaFailure{
		SubmissionID: submissionID,
		Failed:       step,
		Completed:    result.Completed,
		ReceiptID:    result.ReceiptID,
		ReturnID:     result.ReturnID,
		Err:          err,
	}
	telemetry.RecordError(span, failure)
	s.logger.Error("submission saga partially failed",
		zap.String("submission_id", submissionID.String()),
		zap.String("failed_step", string(step)),
		zap.Error(err),
	)
	return failure
}

// IsPartialFailure reports whether err is a partial saga failure and returns it
func IsPartialFailure(err error) (*PartialSagaFailure, bool) {
	var failure *PartialSagaFailure
	if errors.As(err, &failure) {
		return failure, true
	}
	return nil, false
}

func stepKey(submissionID uuid.UUID, step SagaStep) string {
	return fmt.Sprintf("receiving:saga:%s:%s", submissionID, step)
}
