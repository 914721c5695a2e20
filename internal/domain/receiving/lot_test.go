package receiving

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// ============================================
// LotNumberGenerator Tests
// ============================================

func TestLotNumberGenerator_Format(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	gen := NewLotNumberGeneratorWithClock(func() time.Time { return fixed })

	assert.Equal(t, "LOT-20260102-150405-001", gen.Next())
	assert.Equal(t, "LOT-20260102-150405-002", gen.Next())
	assert.Equal(t, "LOT-20260102-150405-003", gen.Next())
}

func TestLotNumberGenerator_SequenceResetsEachSecond(t *testing.T) {
	now := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	gen := NewLotNumberGeneratorWithClock(func() time.Time { return now })

	assert.Equal(t, "LOT-20260102-150405-001", gen.Next())
	now = now.Add(time.Second)
	assert.Equal(t, "LOT-20260102-150406-001", gen.Next())
}

func TestLotNumberGenerator_WallClock(t *testing.T) {
	gen := NewLotNumberGenerator()
	pattern := regexp.MustCompile(`^LOT-\d{8}-\d{6}-\d{3}$`)
	assert.Regexp(t, pattern, gen.Next())
}
