package receiving

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/backoffice/receiving/internal/domain/receiving"
	"github.com/backoffice/receiving/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ============================================
// Test Fakes
// ============================================

type fakeReceiptGateway struct {
	receiptID   uuid.UUID
	priors      map[uuid.UUID]*receiving.PriorReceiptState
	createErr   error
	createCalls int
	created     []ReceiptSubmission
}

func (f *fakeReceiptGateway) PriorStates(ctx context.Context, orderID uuid.UUID) (map[uuid.UUID]*receiving.PriorReceiptState, error) {
	if f.priors == nil {
		return map[uuid.UUID]*receiving.PriorReceiptState{}, nil
	}
	return f.priors, nil
}

func (f *fakeReceiptGateway) CreateBatch(ctx context.Context, sub ReceiptSubmission) (uuid.UUID, error) {
	f.createCalls++
	if f.createErr != nil {
		return uuid.Nil, f.createErr
	}
	f.created = append(f.created, sub)
	return f.receiptID, nil
}

func (f *fakeReceiptGateway) FindBySubmission(ctx context.Context, submissionID uuid.UUID) (uuid.UUID, error) {
	if f.receiptID == uuid.Nil {
		return uuid.Nil, shared.ErrNotFound
	}
	return f.receiptID, nil
}

type fakeReturnGateway struct {
	returnID     uuid.UUID
	createErr    error
	approveErr   error
	processErr   error
	createCalls  int
	approveCalls int
	processCalls int
}

func (f *fakeReturnGateway) CreateBatch(ctx context.Context, sub ReturnSubmission) (uuid.UUID, error) {
	f.createCalls++
	if f.createErr != nil {
		return uuid.Nil, f.createErr
	}
	return f.returnID, nil
}

func (f *fakeReturnGateway) FindBySubmission(ctx context.Context, submissionID uuid.UUID) (uuid.UUID, error) {
	if f.returnID == uuid.Nil {
		return uuid.Nil, shared.ErrNotFound
	}
	return f.returnID, nil
}

func (f *fakeReturnGateway) Approve(ctx context.Context, returnID uuid.UUID) error {
	f.approveCalls++
	return f.approveErr
}

func (f *fakeReturnGateway) Process(ctx context.Context, returnID uuid.UUID) error {
	f.processCalls++
	return f.processErr
}

type fakePurchaseOrderGateway struct {
	lines        []receiving.OrderLine
	findErr      error
	updateErr    error
	updateCalls  int
	lastStatus   receiving.PurchaseOrderStatus
	lastStatusMu sync.Mutex
}

func (f *fakePurchaseOrderGateway) FindLines(ctx context.Context, branchID, orderID uuid.UUID) ([]receiving.OrderLine, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.lines, nil
}

func (f *fakePurchaseOrderGateway) UpdateStatus(ctx context.Context, branchID, orderID uuid.UUID, status receiving.PurchaseOrderStatus) error {
	f.lastStatusMu.Lock()
	defer f.lastStatusMu.Unlock()
	f.updateCalls++
	if f.updateErr != nil {
		return f.updateErr
	}
	f.lastStatus = status
	return nil
}

// fakeIdempotencyStore is a map-backed store with injectable failures
type fakeIdempotencyStore struct {
	mu        sync.Mutex
	processed map[string]bool
	checkErr  error
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{processed: make(map[string]bool)}
}

func (f *fakeIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.processed[key] {
		return false, nil
	}
	f.processed[key] = true
	return true, nil
}

func (f *fakeIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.checkErr != nil {
		return false, f.checkErr
	}
	return f.processed[key], nil
}

func (f *fakeIdempotencyStore) Close() error { return nil }

func receiptOnlyBatch(lineID uuid.UUID) *receiving.SubmissionBatch {
	return &receiving.SubmissionBatch{
		Receipts: []receiving.ReceiptLine{{
			OrderLineID: lineID,
			Unit:        "kg",
			AcceptedQty: decimal.NewFromInt(100),
			DamageQty:   decimal.Zero,
			Status:      receiving.LineStatusOK,
			ClosesLine:  true,
		}},
		Status: receiving.PurchaseOrderStatusReceived,
	}
}

func batchWithReturns(lineID uuid.UUID) *receiving.SubmissionBatch {
	batch := receiptOnlyBatch(lineID)
	batch.Returns = []receiving.ReturnLine{{
		OrderLineID: lineID,
		Unit:        "kg",
		ReturnQty:   decimal.NewFromInt(20),
		UnitPrice:   decimal.NewFromFloat(2.5),
		Reason:      receiving.ReturnReasonDamaged,
	}}
	return batch
}

// ============================================
// Submission Saga Tests
// ============================================

func TestSubmissionSaga_Execute_ReceiptOnly(t *testing.T) {
	receipts := &fakeReceiptGateway{receiptID: uuid.New()}
	returns := &fakeReturnGateway{returnID: uuid.New()}
	orders := &fakePurchaseOrderGateway{}
	saga := NewSubmissionSaga(receipts, returns, orders, newFakeIdempotencyStore(), zap.NewNop())

	submissionID := uuid.New()
	result, err := saga.Execute(context.Background(), uuid.New(), uuid.New(), submissionID, nil, receiptOnlyBatch(uuid.New()))
	require.NoError(t, err)

	assert.Equal(t, receipts.receiptID, result.ReceiptID)
	assert.Nil(t, result.ReturnID)
	assert.Equal(t, []SagaStep{StepCreateReceipt, StepUpdateOrderStatus}, result.Completed)
	assert.Equal(t, 1, receipts.createCalls)
	assert.Equal(t, 0, returns.createCalls, "no return batch means no return steps")
	assert.Equal(t, receiving.PurchaseOrderStatusReceived, orders.lastStatus)
}

func TestSubmissionSaga_Execute_WithReturns(t *testing.T) {
	receipts := &fakeReceiptGateway{receiptID: uuid.New()}
	returns := &fakeReturnGateway{returnID: uuid.New()}
	orders := &fakePurchaseOrderGateway{}
	saga := NewSubmissionSaga(receipts, returns, orders, newFakeIdempotencyStore(), zap.NewNop())

	result, err := saga.Execute(context.Background(), uuid.New(), uuid.New(), uuid.New(), nil, batchWithReturns(uuid.New()))
	require.NoError(t, err)

	require.NotNil(t, result.ReturnID)
	assert.Equal(t, returns.returnID, *result.ReturnID)
	assert.Equal(t, []SagaStep{
		StepCreateReceipt, StepCreateReturn, StepApproveReturn, StepProcessReturn, StepUpdateOrderStatus,
	}, result.Completed)
	assert.Equal(t, 1, returns.approveCalls)
	assert.Equal(t, 1, returns.processCalls)
}

func TestSubmissionSaga_Execute_FirstStepFailureIsCleanAbort(t *testing.T) {
	receipts := &fakeReceiptGateway{createErr: errors.New("db down")}
	returns := &fakeReturnGateway{}
	orders := &fakePurchaseOrderGateway{}
	saga := NewSubmissionSaga(receipts, returns, orders, newFakeIdempotencyStore(), zap.NewNop())

	_, err := saga.Execute(context.Background(), uuid.New(), uuid.New(), uuid.New(), nil, receiptOnlyBatch(uuid.New()))
	require.Error(t, err)

	// Nothing committed, so the failure must not be a partial failure.
	_, isPartial := IsPartialFailure(err)
	assert.False(t, isPartial)
	assert.Equal(t, 0, returns.createCalls)
	assert.Equal(t, 0, orders.updateCalls)
}

func TestSubmissionSaga_Execute_LateFailureIsPartial(t *testing.T) {
	receipts := &fakeReceiptGateway{receiptID: uuid.New()}
	returns := &fakeReturnGateway{returnID: uuid.New()}
	orders := &fakePurchaseOrderGateway{updateErr: errors.New("order service unavailable")}
	saga := NewSubmissionSaga(receipts, returns, orders, newFakeIdempotencyStore(), zap.NewNop())

	submissionID := uuid.New()
	_, err := saga.Execute(context.Background(), uuid.New(), uuid.New(), submissionID, nil, batchWithReturns(uuid.New()))
	require.Error(t, err)

	failure, ok := IsPartialFailure(err)
	require.True(t, ok)
	assert.Equal(t, submissionID, failure.SubmissionID)
	assert.Equal(t, StepUpdateOrderStatus, failure.Failed)
	assert.Equal(t, []SagaStep{
		StepCreateReceipt, StepCreateReturn, StepApproveReturn, StepProcessReturn,
	}, failure.Completed)
	assert.Equal(t, receipts.receiptID, failure.ReceiptID)
	require.NotNil(t, failure.ReturnID)
	assert.Equal(t, returns.returnID, *failure.ReturnID)
}

func TestSubmissionSaga_Execute_ApproveFailureIsPartial(t *testing.T) {
	receipts := &fakeReceiptGateway{receiptID: uuid.New()}
	returns := &fakeReturnGateway{returnID: uuid.New(), approveErr: errors.New("approval rejected")}
	orders := &fakePurchaseOrderGateway{}
	saga := NewSubmissionSaga(receipts, returns, orders, newFakeIdempotencyStore(), zap.NewNop())

	_, err := saga.Execute(context.Background(), uuid.New(), uuid.New(), uuid.New(), nil, batchWithReturns(uuid.New()))
	require.Error(t, err)

	failure, ok := IsPartialFailure(err)
	require.True(t, ok)
	assert.Equal(t, StepApproveReturn, failure.Failed)
	assert.Equal(t, []SagaStep{StepCreateReceipt, StepCreateReturn}, failure.Completed)
	assert.Equal(t, 0, returns.processCalls, "process must not run after approve failed")
	assert.Equal(t, 0, orders.updateCalls)
}

func TestSubmissionSaga_Execute_RetrySkipsCompletedSteps(t *testing.T) {
	receipts := &fakeReceiptGateway{receiptID: uuid.New()}
	returns := &fakeReturnGateway{returnID: uuid.New()}
	orders := &fakePurchaseOrderGateway{updateErr: errors.New("transient")}
	store := newFakeIdempotencyStore()
	saga := NewSubmissionSaga(receipts, returns, orders, store, zap.NewNop())

	submissionID := uuid.New()
	batch := batchWithReturns(uuid.New())

	// First attempt fails at the last step.
	_, err := saga.Execute(context.Background(), uuid.New(), uuid.New(), submissionID, nil, batch)
	_, ok := IsPartialFailure(err)
	require.True(t, ok)

	// Retry with the same submission ID only runs the failed step.
	orders.updateErr = nil
	result, err := saga.Execute(context.Background(), uuid.New(), uuid.New(), submissionID, nil, batch)
	require.NoError(t, err)

	assert.Equal(t, 1, receipts.createCalls, "completed step must not run again")
	assert.Equal(t, 1, returns.createCalls)
	assert.Equal(t, 1, returns.approveCalls)
	assert.Equal(t, 1, returns.processCalls)

	// The retry recovers the IDs the first attempt created.
	assert.Equal(t, receipts.receiptID, result.ReceiptID)
	require.NotNil(t, result.ReturnID)
	assert.Equal(t, returns.returnID, *result.ReturnID)
	assert.Len(t, result.Completed, 5)
}

func TestSubmissionSaga_Execute_IdempotencyCheckFailureIsAdvisory(t *testing.T) {
	receipts := &fakeReceiptGateway{receiptID: uuid.New()}
	returns := &fakeReturnGateway{}
	orders := &fakePurchaseOrderGateway{}
	store := newFakeIdempotencyStore()
	store.checkErr = errors.New("redis timeout")
	saga := NewSubmissionSaga(receipts, returns, orders, store, zap.NewNop())

	// Steps run even when the guard cannot be read; the gateways' own
	// submission-ID idempotency prevents duplicates.
	result, err := saga.Execute(context.Background(), uuid.New(), uuid.New(), uuid.New(), nil, receiptOnlyBatch(uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, 1, receipts.createCalls)
	assert.Equal(t, receipts.receiptID, result.ReceiptID)
}

func TestPartialSagaFailure_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	failure := &PartialSagaFailure{
		SubmissionID: uuid.New(),
		Failed:       StepCreateReturn,
		Completed:    []SagaStep{StepCreateReceipt},
		Err:          cause,
	}

	assert.ErrorIs(t, failure, cause)
	assert.Contains(t, failure.Error(), "create_return")
	assert.Contains(t, failure.Error(), "create_receipt")
}
