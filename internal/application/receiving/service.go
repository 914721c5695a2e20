package receiving

import (
	"context"
	"errors"
	"fmt"

	"github.com/backoffice/receiving/internal/domain/conversion"
	"github.com/backoffice/receiving/internal/domain/receiving"
	"github.com/backoffice/receiving/internal/domain/shared"
	"github.com/backoffice/receiving/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReconciliationService drives the goods-receipt reconciliation flow: it
// classifies what arrived against what was ordered, applies operator
// dispositions, assembles the submission batch and commits it through the
// submission saga.
type ReconciliationService struct {
	orders         PurchaseOrderGateway
	receipts       ReceiptGateway
	status         ReceiptStatusProvider
	resolver       *conversion.Resolver
	classifier     *receiving.Classifier
	engine         *receiving.ResolutionEngine
	builder        *receiving.SubmissionBuilder
	saga           *SubmissionSaga
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(
	orders PurchaseOrderGateway,
	receipts ReceiptGateway,
	status ReceiptStatusProvider,
	resolver *conversion.Resolver,
	saga *SubmissionSaga,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		orders:     orders,
		receipts:   receipts,
		status:     status,
		resolver:   resolver,
		classifier: receiving.NewClassifier(),
		engine:     receiving.NewResolutionEngine(),
		builder:    receiving.NewSubmissionBuilder(receiving.NewLotNumberGenerator()),
		saga:       saga,
		logger:     logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ReconciliationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Preview classifies a submission without committing anything, so the
// operator sees which lines need a disposition before submitting.
func (s *ReconciliationService) Preview(ctx context.Context, branchID, orderID uuid.UUID, requests []ReceiptLineRequest) (*PreviewResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "receiving", "preview",
		telemetry.WithAttribute("purchase_order_id", orderID.String()))
	defer span.End()

	lines, priors, err := s.loadOrder(ctx, branchID, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	response := &PreviewResponse{PurchaseOrderID: orderID, Lines: make([]PreviewLineResponse, 0, len(requests))}
	for _, req := range requests {
		line, ok := lines[req.OrderLineID]
		if !ok {
			return nil, unknownLineError(req.OrderLineID)
		}
		prior := priors[req.OrderLineID]
		if prior != nil && !prior.CanReceiveMore {
			continue
		}

		input := req.toInput()
		converted, result, err := s.convert(ctx, branchID, line, input)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}

		baseline := s.classifier.ClassifyLine(line, prior, input, converted)
		preview := PreviewLineResponse{
			OrderLineID:         line.ID,
			IngredientName:      line.IngredientName,
			TargetQty:           receiving.TargetQty(line, prior),
			OrderedUnit:         line.OrderedUnit,
			ConvertedQty:        converted,
			Baseline:            baseline,
			RequiresDisposition: baseline.RequiresDisposition(),
		}
		if result != nil && !result.CanConvert {
			preview.ConversionError = result.ErrorMessage
		}
		response.Lines = append(response.Lines, preview)
	}
	return response, nil
}

// Submit reconciles and commits a receipt submission for a purchase order.
// All per-line problems are collected into a single ValidationErrors; a
// partial backend failure after the receipt batch committed surfaces as a
// PartialSagaFailure for manual reconciliation.
func (s *ReconciliationService) Submit(ctx context.Context, branchID, orderID uuid.UUID, req SubmitReceiptRequest) (*SubmitReceiptResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "receiving", "submit",
		telemetry.WithAttribute("purchase_order_id", orderID.String()),
		telemetry.WithAttribute("submission_id", req.SubmissionID.String()),
		telemetry.WithAttribute("line_count", len(req.Lines)))
	defer span.End()

	lineIndex, priors, err := s.loadOrder(ctx, branchID, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	allLines := make([]receiving.OrderLine, 0, len(lineIndex))
	for _, line := range lineIndex {
		allLines = append(allLines, line)
	}
	priorClosed := make(map[uuid.UUID]bool, len(priors))
	for id, prior := range priors {
		if !prior.CanReceiveMore {
			priorClosed[id] = true
		}
	}

	entries := make([]receiving.BuildEntry, 0, len(req.Lines))
	for _, lineReq := range req.Lines {
		line, ok := lineIndex[lineReq.OrderLineID]
		if !ok {
			return nil, unknownLineError(lineReq.OrderLineID)
		}
		entry, err := s.reconcileLine(ctx, branchID, line, priors[line.ID], lineReq.toInput())
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		entries = append(entries, entry)
	}

	batch, err := s.builder.Build(allLines, priorClosed, entries)
	if err != nil {
		return nil, err
	}

	sagaResult, err := s.saga.Execute(ctx, branchID, orderID, req.SubmissionID, req.OperatorID, batch)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(branchID, orderID, sagaResult, batch)

	completed := make([]string, 0, len(sagaResult.Completed))
	for _, step := range sagaResult.Completed {
		completed = append(completed, string(step))
	}
	return &SubmitReceiptResponse{
		ReceiptID:       sagaResult.ReceiptID,
		ReturnID:        sagaResult.ReturnID,
		OrderStatus:     batch.Status,
		CompletedSteps:  completed,
		Lines:           toOutcomeResponses(batch.Outcomes),
		PurchaseOrderID: orderID,
	}, nil
}

// Status returns the per-line and order-level receiving status
func (s *ReconciliationService) Status(ctx context.Context, branchID, orderID uuid.UUID) (*OrderReceivingStatus, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "receiving", "status",
		telemetry.WithAttribute("purchase_order_id", orderID.String()))
	defer span.End()

	status, err := s.status.OrderStatus(ctx, branchID, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return status, nil
}

// reconcileLine runs one line through conversion, classification and
// resolution. Domain errors are folded into the entry so the builder can
// report every problem in a single pass; infrastructure errors abort.
func (s *ReconciliationService) reconcileLine(ctx context.Context, branchID uuid.UUID, line receiving.OrderLine, prior *receiving.PriorReceiptState, input receiving.ReceiptInput) (receiving.BuildEntry, error) {
	entry := receiving.BuildEntry{Line: line, Prior: prior, Input: input}

	if err := input.Validate(); err != nil {
		entry.ResolveErr = asDomainError(err)
		return entry, nil
	}

	converted, _, err := s.convert(ctx, branchID, line, input)
	if err != nil {
		return receiving.BuildEntry{}, err
	}

	entry.Baseline = s.classifier.ClassifyLine(line, prior, input, converted)

	// Resolution needs either the auto-terminal OK baseline or an operator
	// decision; without one the builder reports the missing disposition.
	if entry.Baseline != receiving.BaselineOK && input.Disposition == nil {
		return entry, nil
	}

	convertedQty := decimal.Zero
	if converted != nil {
		convertedQty = *converted
	}
	outcome, err := s.engine.Resolve(line, prior, input, entry.Baseline, convertedQty)
	if err != nil {
		if domainErr := asDomainError(err); domainErr != nil {
			entry.ResolveErr = domainErr
			return entry, nil
		}
		return receiving.BuildEntry{}, err
	}
	entry.Outcome = &outcome
	return entry, nil
}

// convert resolves the received quantity into the line's ordered unit.
// A nil converted quantity means no conversion rule exists.
func (s *ReconciliationService) convert(ctx context.Context, branchID uuid.UUID, line receiving.OrderLine, input receiving.ReceiptInput) (*decimal.Decimal, *conversion.Result, error) {
	result, err := s.resolver.Resolve(ctx, branchID, line.IngredientID, input.ReceivedUnit, line.OrderedUnit, input.ReceivedQty)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve unit conversion for line %s: %w", line.ID, err)
	}
	if !result.CanConvert {
		return nil, &result, nil
	}
	converted := result.ConvertedQty
	return &converted, &result, nil
}

func (s *ReconciliationService) publishEvents(branchID, orderID uuid.UUID, sagaResult *SagaResult, batch *receiving.SubmissionBatch) {
	if s.eventPublisher == nil {
		return
	}

	events := []shared.DomainEvent{
		receiving.NewGoodsReceiptSubmittedEvent(branchID, orderID, sagaResult.ReceiptID, batch),
		receiving.NewPurchaseOrderStatusChangedEvent(branchID, orderID, batch.Status),
	}
	if sagaResult.ReturnID != nil {
		events = append(events, receiving.NewReturnOrderCreatedEvent(branchID, orderID, *sagaResult.ReturnID, len(batch.Returns)))
	}
	for _, event := range events {
		if err := s.eventPublisher.Publish(event); err != nil {
			s.logger.Warn("failed to publish domain event",
				zap.String("event_type", event.EventType()), zap.Error(err))
		}
	}
}

// loadOrder fetches the order lines and their prior receipt states
func (s *ReconciliationService) loadOrder(ctx context.Context, branchID, orderID uuid.UUID) (map[uuid.UUID]receiving.OrderLine, map[uuid.UUID]*receiving.PriorReceiptState, error) {
	lines, err := s.orders.FindLines(ctx, branchID, orderID)
	if err != nil {
		return nil, nil, err
	}
	if len(lines) == 0 {
		return nil, nil, shared.ErrNotFound
	}

	priors, err := s.receipts.PriorStates(ctx, orderID)
	if err != nil {
		return nil, nil, fmt.Errorf("load prior receipt states: %w", err)
	}

	index := make(map[uuid.UUID]receiving.OrderLine, len(lines))
	for _, line := range lines {
		index[line.ID] = line
	}
	return index, priors, nil
}

func unknownLineError(lineID uuid.UUID) error {
	return &receiving.ValidationErrors{
		Lines: []receiving.LineError{{
			OrderLineID: lineID,
			Err:         shared.NewDomainError("UNKNOWN_ORDER_LINE", "Order line does not belong to this purchase order"),
		}},
	}
}

func asDomainError(err error) *shared.DomainError {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}
