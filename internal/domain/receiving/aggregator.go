package receiving

import (
	"github.com/google/uuid"
)

// PurchaseOrderStatus is the purchase-order-level receiving status
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusReceived          PurchaseOrderStatus = "RECEIVED"
	PurchaseOrderStatusPartiallyReceived PurchaseOrderStatus = "PARTIALLY_RECEIVED"
)

// IsValid checks if the status is a known PurchaseOrderStatus
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case PurchaseOrderStatusReceived, PurchaseOrderStatusPartiallyReceived:
		return true
	}
	return false
}

// String returns the string representation of PurchaseOrderStatus
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// StatusAggregator rolls the line-closure outcomes of a batch, together with
// prior receipts, up into the purchase order's new overall status.
type StatusAggregator struct{}

// NewStatusAggregator creates a new status aggregator
func NewStatusAggregator() *StatusAggregator {
	return &StatusAggregator{}
}

// Aggregate combines the batch outcomes with the previously closed lines.
// The rules are evaluated in strict priority order; the first match wins.
func (a *StatusAggregator) Aggregate(allLines []OrderLine, outcomes []LineOutcome, priorClosed map[uuid.UUID]bool) PurchaseOrderStatus {
	closed := make(map[uuid.UUID]bool, len(priorClosed)+len(outcomes))
	for id, isClosed := range priorClosed {
		if isClosed {
			closed[id] = true
		}
	}
	resolved := make(map[uuid.UUID]bool, len(outcomes))
	for _, o := range outcomes {
		resolved[o.OrderLineID] = true
		if o.ClosesLine {
			closed[o.OrderLineID] = true
		}
	}

	// 1. Every order line closed (prior receipts plus this batch).
	allClosed := true
	for _, line := range allLines {
		if !closed[line.ID] {
			allClosed = false
			break
		}
	}
	if len(allLines) > 0 && allClosed {
		return PurchaseOrderStatusReceived
	}

	// 2. An explicit follow-up overrides everything below.
	for _, o := range outcomes {
		if o.Status == LineStatusShortPending {
			return PurchaseOrderStatusPartiallyReceived
		}
	}

	// 3. Any supplier return leaves the order partially received.
	for _, o := range outcomes {
		if o.Status == LineStatusReturn {
			return PurchaseOrderStatusPartiallyReceived
		}
	}

	// 4. All lines accounted for with no unresolved damage.
	allAccounted := true
	unresolvedDamage := false
	for _, line := range allLines {
		if !closed[line.ID] && !resolved[line.ID] {
			allAccounted = false
			break
		}
	}
	for _, o := range outcomes {
		if o.Status == LineStatusDamagePartial {
			unresolvedDamage = true
			break
		}
	}
	if allAccounted && !unresolvedDamage {
		return PurchaseOrderStatusReceived
	}

	// 5. Shortages and damages that were explicitly accepted close the order.
	if allAccounted && acceptedVariancesOnly(outcomes) {
		return PurchaseOrderStatusReceived
	}

	// 6. Default: something is still expected.
	return PurchaseOrderStatusPartiallyReceived
}

// acceptedVariancesOnly reports whether every variance in the batch was
// explicitly accepted by the operator.
func acceptedVariancesOnly(outcomes []LineOutcome) bool {
	for _, o := range outcomes {
		switch o.Status {
		case LineStatusOK, LineStatusShortAccepted, LineStatusOverAccepted,
			LineStatusOverAdjusted, LineStatusDamageAccepted:
			// accepted
		default:
			return false
		}
	}
	return len(outcomes) > 0
}
