package receiving

import (
	"testing"

	"github.com/backoffice/receiving/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================
// ResolutionEngine Tests
// ============================================

func TestResolutionEngine_OKIsAutoTerminal(t *testing.T) {
	engine := NewResolutionEngine()
	line := createTestOrderLine(t, 100)
	input := ReceiptInput{OrderLineID: line.ID, ReceivedQty: decimal.NewFromInt(100), ReceivedUnit: "kg"}

	outcome, err := engine.Resolve(line, nil, input, BaselineOK, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, LineStatusOK, outcome.Status)
	assert.True(t, outcome.AcceptedQty.Equal(decimal.NewFromInt(100)))
	assert.True(t, outcome.ReturnQty.IsZero())
	assert.True(t, outcome.ClosesLine)
}

func TestResolutionEngine_MissingDisposition(t *testing.T) {
	engine := NewResolutionEngine()
	line := createTestOrderLine(t, 100)
	input := ReceiptInput{OrderLineID: line.ID, ReceivedQty: decimal.NewFromInt(80), ReceivedUnit: "kg"}

	_, err := engine.Resolve(line, nil, input, BaselineShort, decimal.NewFromInt(80))
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrMissingDisposition)
}

func TestResolutionEngine_DispositionTable(t *testing.T) {
	tests := []struct {
		name         string
		baseline     BaselineStatus
		disposition  Disposition
		received     float64
		damage       float64
		goodQty      *decimal.Decimal
		notes        string
		wantStatus   LineStatus
		wantAccepted float64
		wantReturn   float64
		wantCloses   bool
		wantReason   string
	}{
		{
			name: "short accepted", baseline: BaselineShort, disposition: DispositionAcceptShort,
			received: 80, wantStatus: LineStatusShortAccepted, wantAccepted: 80, wantReturn: 0, wantCloses: true,
		},
		{
			name: "short follow-up leaves line open", baseline: BaselineShort, disposition: DispositionFollowUp,
			received: 80, wantStatus: LineStatusShortPending, wantAccepted: 80, wantReturn: 0, wantCloses: false,
		},
		{
			name: "over accepted in full", baseline: BaselineOver, disposition: DispositionAcceptOver,
			received: 120, wantStatus: LineStatusOverAccepted, wantAccepted: 120, wantReturn: 0, wantCloses: true,
		},
		{
			name: "over adjusts order", baseline: BaselineOver, disposition: DispositionAdjustOrder,
			received: 120, notes: "supplier confirmed new quantity",
			wantStatus: LineStatusOverAdjusted, wantAccepted: 120, wantReturn: 0, wantCloses: true,
		},
		{
			name: "over returns excess", baseline: BaselineOver, disposition: DispositionReturnExcess,
			received: 120, notes: "no storage for excess",
			wantStatus: LineStatusOverReturn, wantAccepted: 100, wantReturn: 20, wantCloses: true,
			wantReason: ReturnReasonExcess,
		},
		{
			name: "damage accepted in full", baseline: BaselineDamage, disposition: DispositionAcceptDamage,
			received: 100, damage: 10, notes: "usable for stock",
			wantStatus: LineStatusDamageAccepted, wantAccepted: 100, wantReturn: 0, wantCloses: true,
		},
		{
			name: "damage returned", baseline: BaselineDamage, disposition: DispositionReturnDamage,
			received: 100, damage: 10, notes: "crushed cartons",
			wantStatus: LineStatusDamageReturn, wantAccepted: 90, wantReturn: 10, wantCloses: true,
			wantReason: ReturnReasonDamaged,
		},
		{
			name: "take good parts leaves line open", baseline: BaselineDamage, disposition: DispositionTakeGoodParts,
			received: 100, damage: 10, goodQty: decimalPtr(90), notes: "salvaged good units",
			wantStatus: LineStatusDamagePartial, wantAccepted: 90, wantReturn: 10, wantCloses: false,
			wantReason: ReturnReasonDamaged,
		},
		{
			name: "return item from short", baseline: BaselineShort, disposition: DispositionReturnItem,
			received: 80, notes: "wrong product delivered",
			wantStatus: LineStatusReturn, wantAccepted: 0, wantReturn: 80, wantCloses: true,
			wantReason: ReturnReasonReturned,
		},
		{
			name: "return item from damage", baseline: BaselineDamage, disposition: DispositionReturnItem,
			received: 100, damage: 100, notes: "entire delivery spoiled",
			wantStatus: LineStatusReturn, wantAccepted: 0, wantReturn: 100, wantCloses: true,
			wantReason: ReturnReasonReturned,
		},
	}

	engine := NewResolutionEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := createTestOrderLine(t, 100)
			input := ReceiptInput{
				OrderLineID:  line.ID,
				ReceivedQty:  decimal.NewFromFloat(tt.received),
				ReceivedUnit: "kg",
				DamageQty:    decimal.NewFromFloat(tt.damage),
				GoodQty:      tt.goodQty,
				Notes:        tt.notes,
				Disposition:  dispositionPtr(tt.disposition),
			}

			outcome, err := engine.Resolve(line, nil, input, tt.baseline, decimal.NewFromFloat(tt.received))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, outcome.Status)
			assert.True(t, outcome.AcceptedQty.Equal(decimal.NewFromFloat(tt.wantAccepted)), "accepted: got %s want %v", outcome.AcceptedQty, tt.wantAccepted)
			assert.True(t, outcome.ReturnQty.Equal(decimal.NewFromFloat(tt.wantReturn)), "return: got %s want %v", outcome.ReturnQty, tt.wantReturn)
			assert.Equal(t, tt.wantCloses, outcome.ClosesLine)
			assert.Equal(t, tt.wantReason, outcome.ReturnReason)

			// Conservation: accepted + returned never exceeds what arrived
			assert.True(t, outcome.AcceptedQty.Add(outcome.ReturnQty).LessThanOrEqual(decimal.NewFromFloat(tt.received)),
				"conservation violated: %s + %s > %v", outcome.AcceptedQty, outcome.ReturnQty, tt.received)
		})
	}
}

func TestResolutionEngine_OverReturnUsesRemainingTarget(t *testing.T) {
	engine := NewResolutionEngine()
	line := createTestOrderLine(t, 100)
	// 20 kg remain after a prior partial receipt; 50 arrive now.
	prior := createPriorState(line.ID, 20, true, LineStatusShortPending)
	input := ReceiptInput{
		OrderLineID:  line.ID,
		ReceivedQty:  decimal.NewFromInt(50),
		ReceivedUnit: "kg",
		Notes:        "supplier overshipped the backorder",
		Disposition:  dispositionPtr(DispositionReturnExcess),
	}

	outcome, err := engine.Resolve(line, prior, input, BaselineOver, decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.True(t, outcome.AcceptedQty.Equal(decimal.NewFromInt(20)), "got %s", outcome.AcceptedQty)
	assert.True(t, outcome.ReturnQty.Equal(decimal.NewFromInt(30)), "got %s", outcome.ReturnQty)
}

func TestResolutionEngine_AdjustOrderRebasesOrderedQty(t *testing.T) {
	engine := NewResolutionEngine()
	line := createTestOrderLine(t, 100)
	input := ReceiptInput{
		OrderLineID:  line.ID,
		ReceivedQty:  decimal.NewFromInt(120),
		ReceivedUnit: "kg",
		Notes:        "order corrected after the fact",
		Disposition:  dispositionPtr(DispositionAdjustOrder),
	}

	outcome, err := engine.Resolve(line, nil, input, BaselineOver, decimal.NewFromInt(120))
	require.NoError(t, err)
	require.NotNil(t, outcome.AdjustedOrderedQty)
	assert.True(t, outcome.AdjustedOrderedQty.Equal(decimal.NewFromInt(120)))
}

func TestResolutionEngine_NotesRequired(t *testing.T) {
	engine := NewResolutionEngine()

	tests := []struct {
		name        string
		baseline    BaselineStatus
		disposition Disposition
		damage      float64
		goodQty     *decimal.Decimal
	}{
		{"adjust order", BaselineOver, DispositionAdjustOrder, 0, nil},
		{"return excess", BaselineOver, DispositionReturnExcess, 0, nil},
		{"accept damage", BaselineDamage, DispositionAcceptDamage, 10, nil},
		{"return damage", BaselineDamage, DispositionReturnDamage, 10, nil},
		{"take good parts", BaselineDamage, DispositionTakeGoodParts, 10, decimalPtr(90)},
		{"return item", BaselineShort, DispositionReturnItem, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := createTestOrderLine(t, 100)
			input := ReceiptInput{
				OrderLineID:  line.ID,
				ReceivedQty:  decimal.NewFromInt(120),
				ReceivedUnit: "kg",
				DamageQty:    decimal.NewFromFloat(tt.damage),
				GoodQty:      tt.goodQty,
				Disposition:  dispositionPtr(tt.disposition),
			}

			_, err := engine.Resolve(line, nil, input, tt.baseline, decimal.NewFromInt(120))
			require.Error(t, err)
			assert.ErrorIs(t, err, shared.ErrMissingNotes)
		})
	}
}

func TestResolutionEngine_MismatchedDisposition(t *testing.T) {
	engine := NewResolutionEngine()

	tests := []struct {
		name        string
		baseline    BaselineStatus
		disposition Disposition
	}{
		{"accept short on over", BaselineOver, DispositionAcceptShort},
		{"follow-up on damage", BaselineDamage, DispositionFollowUp},
		{"accept over on short", BaselineShort, DispositionAcceptOver},
		{"return excess on damage", BaselineDamage, DispositionReturnExcess},
		{"accept damage on short", BaselineShort, DispositionAcceptDamage},
		{"take good parts on over", BaselineOver, DispositionTakeGoodParts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := createTestOrderLine(t, 100)
			input := ReceiptInput{
				OrderLineID:  line.ID,
				ReceivedQty:  decimal.NewFromInt(100),
				ReceivedUnit: "kg",
				DamageQty:    decimal.NewFromInt(1),
				Notes:        "notes present",
				Disposition:  dispositionPtr(tt.disposition),
			}

			_, err := engine.Resolve(line, nil, input, tt.baseline, decimal.NewFromInt(100))
			require.Error(t, err)
			var domainErr *shared.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, "INVALID_DISPOSITION", domainErr.Code)
		})
	}
}

func TestResolutionEngine_BlockedLineOnlyReturnable(t *testing.T) {
	engine := NewResolutionEngine()
	line := createTestOrderLine(t, 100)

	input := ReceiptInput{
		OrderLineID:  line.ID,
		ReceivedQty:  decimal.NewFromInt(10),
		ReceivedUnit: "crate",
		Notes:        "unit unknown, sending back",
		Disposition:  dispositionPtr(DispositionAcceptShort),
	}
	_, err := engine.Resolve(line, nil, input, BaselineBlocked, decimal.Zero)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrConversionUnavailable)

	input.Disposition = dispositionPtr(DispositionReturnItem)
	outcome, err := engine.Resolve(line, nil, input, BaselineBlocked, decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, LineStatusReturn, outcome.Status)
	// Returned in the raw received quantity since no conversion exists
	assert.True(t, outcome.ReturnQty.Equal(decimal.NewFromInt(10)))
}

func TestResolutionEngine_GoodQtyBounds(t *testing.T) {
	engine := NewResolutionEngine()
	line := createTestOrderLine(t, 100)

	base := ReceiptInput{
		OrderLineID:  line.ID,
		ReceivedQty:  decimal.NewFromInt(100),
		ReceivedUnit: "kg",
		DamageQty:    decimal.NewFromInt(10),
		Notes:        "salvage",
		Disposition:  dispositionPtr(DispositionTakeGoodParts),
	}

	t.Run("missing good quantity", func(t *testing.T) {
		input := base
		_, err := engine.Resolve(line, nil, input, BaselineDamage, decimal.NewFromInt(100))
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "MISSING_GOOD_QUANTITY", domainErr.Code)
	})

	t.Run("good quantity above ordered", func(t *testing.T) {
		input := base
		input.GoodQty = decimalPtr(150)
		_, err := engine.Resolve(line, nil, input, BaselineDamage, decimal.NewFromInt(100))
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_GOOD_QUANTITY", domainErr.Code)
	})

	t.Run("zero good quantity allowed", func(t *testing.T) {
		input := base
		input.GoodQty = decimalPtr(0)
		outcome, err := engine.Resolve(line, nil, input, BaselineDamage, decimal.NewFromInt(100))
		require.NoError(t, err)
		assert.True(t, outcome.AcceptedQty.IsZero())
	})
}

func TestReceiptInput_Validate(t *testing.T) {
	line := createTestOrderLine(t, 100)

	t.Run("damage cannot exceed received", func(t *testing.T) {
		input := ReceiptInput{
			OrderLineID:  line.ID,
			ReceivedQty:  decimal.NewFromInt(10),
			ReceivedUnit: "kg",
			DamageQty:    decimal.NewFromInt(11),
		}
		err := input.Validate()
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_DAMAGE", domainErr.Code)
	})

	t.Run("damage equal to received is valid", func(t *testing.T) {
		input := ReceiptInput{
			OrderLineID:  line.ID,
			ReceivedQty:  decimal.NewFromInt(10),
			ReceivedUnit: "kg",
			DamageQty:    decimal.NewFromInt(10),
		}
		assert.NoError(t, input.Validate())
	})

	t.Run("unknown disposition rejected", func(t *testing.T) {
		bad := Disposition("SHRUG")
		input := ReceiptInput{
			OrderLineID:  line.ID,
			ReceivedQty:  decimal.NewFromInt(10),
			ReceivedUnit: "kg",
			Disposition:  &bad,
		}
		err := input.Validate()
		require.Error(t, err)
	})
}
