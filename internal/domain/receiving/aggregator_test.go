package receiving

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// ============================================
// StatusAggregator Tests
// ============================================

func outcomeFor(line OrderLine, status LineStatus, closes bool) LineOutcome {
	return LineOutcome{
		OrderLineID: line.ID,
		Status:      status,
		AcceptedQty: line.OrderedQty,
		ReturnQty:   decimal.Zero,
		ClosesLine:  closes,
	}
}

func TestStatusAggregator_AllLinesClosed(t *testing.T) {
	agg := NewStatusAggregator()
	line1 := createTestOrderLine(t, 100)
	line2 := createTestOrderLine(t, 50)

	outcomes := []LineOutcome{
		outcomeFor(line1, LineStatusOK, true),
		outcomeFor(line2, LineStatusShortAccepted, true),
	}

	got := agg.Aggregate([]OrderLine{line1, line2}, outcomes, nil)
	assert.Equal(t, PurchaseOrderStatusReceived, got)
}

func TestStatusAggregator_PriorClosuresCount(t *testing.T) {
	agg := NewStatusAggregator()
	line1 := createTestOrderLine(t, 100)
	line2 := createTestOrderLine(t, 50)

	// line1 was closed by an earlier submission; this batch only touches line2.
	outcomes := []LineOutcome{outcomeFor(line2, LineStatusOK, true)}
	prior := map[uuid.UUID]bool{line1.ID: true}

	got := agg.Aggregate([]OrderLine{line1, line2}, outcomes, prior)
	assert.Equal(t, PurchaseOrderStatusReceived, got)
}

func TestStatusAggregator_ShortPendingOverridesOK(t *testing.T) {
	agg := NewStatusAggregator()
	line1 := createTestOrderLine(t, 100)
	line2 := createTestOrderLine(t, 50)
	line3 := createTestOrderLine(t, 30)

	outcomes := []LineOutcome{
		outcomeFor(line1, LineStatusOK, true),
		outcomeFor(line2, LineStatusOK, true),
		outcomeFor(line3, LineStatusShortPending, false),
	}

	got := agg.Aggregate([]OrderLine{line1, line2, line3}, outcomes, nil)
	assert.Equal(t, PurchaseOrderStatusPartiallyReceived, got)
}

func TestStatusAggregator_ReturnWithOpenLines(t *testing.T) {
	agg := NewStatusAggregator()
	line1 := createTestOrderLine(t, 100)
	line2 := createTestOrderLine(t, 50)

	// line1 is returned (closed), line2 was not part of this batch and stays open.
	outcomes := []LineOutcome{outcomeFor(line1, LineStatusReturn, true)}

	got := agg.Aggregate([]OrderLine{line1, line2}, outcomes, nil)
	assert.Equal(t, PurchaseOrderStatusPartiallyReceived, got)
}

func TestStatusAggregator_AllReturnedIsReceived(t *testing.T) {
	agg := NewStatusAggregator()
	line := createTestOrderLine(t, 100)

	// Every line closed, even as a return: nothing further is expected.
	outcomes := []LineOutcome{outcomeFor(line, LineStatusReturn, true)}

	got := agg.Aggregate([]OrderLine{line}, outcomes, nil)
	assert.Equal(t, PurchaseOrderStatusReceived, got)
}

func TestStatusAggregator_DamagePartialStaysOpen(t *testing.T) {
	agg := NewStatusAggregator()
	line1 := createTestOrderLine(t, 100)
	line2 := createTestOrderLine(t, 50)

	outcomes := []LineOutcome{
		outcomeFor(line1, LineStatusOK, true),
		outcomeFor(line2, LineStatusDamagePartial, false),
	}

	got := agg.Aggregate([]OrderLine{line1, line2}, outcomes, nil)
	assert.Equal(t, PurchaseOrderStatusPartiallyReceived, got)
}

func TestStatusAggregator_AcceptedVariancesClose(t *testing.T) {
	agg := NewStatusAggregator()
	line1 := createTestOrderLine(t, 100)
	line2 := createTestOrderLine(t, 50)
	line3 := createTestOrderLine(t, 30)

	outcomes := []LineOutcome{
		outcomeFor(line1, LineStatusShortAccepted, true),
		outcomeFor(line2, LineStatusOverAdjusted, true),
		outcomeFor(line3, LineStatusDamageAccepted, true),
	}

	got := agg.Aggregate([]OrderLine{line1, line2, line3}, outcomes, nil)
	assert.Equal(t, PurchaseOrderStatusReceived, got)
}

func TestStatusAggregator_UntouchedLineMeansPartial(t *testing.T) {
	agg := NewStatusAggregator()
	line1 := createTestOrderLine(t, 100)
	line2 := createTestOrderLine(t, 50)

	outcomes := []LineOutcome{outcomeFor(line1, LineStatusOK, true)}

	got := agg.Aggregate([]OrderLine{line1, line2}, outcomes, nil)
	assert.Equal(t, PurchaseOrderStatusPartiallyReceived, got)
}
