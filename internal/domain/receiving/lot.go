package receiving

import (
	"fmt"
	"sync"
	"time"
)

// LotNumberGenerator produces lot numbers in the format
// LOT-{YYYYMMDD}-{HHMMSS}-{3-digit sequence}, e.g. LOT-20240115-143022-001.
// The sequence restarts at 001 every second and is safe for concurrent use.
type LotNumberGenerator struct {
	mu       sync.Mutex
	now      func() time.Time
	lastTick string
	sequence int
}

// NewLotNumberGenerator creates a new lot number generator
func NewLotNumberGenerator() *LotNumberGenerator {
	return &LotNumberGenerator{now: time.Now}
}

// NewLotNumberGeneratorWithClock creates a generator with a custom clock.
// Used in tests to pin the timestamp.
func NewLotNumberGeneratorWithClock(now func() time.Time) *LotNumberGenerator {
	return &LotNumberGenerator{now: now}
}

// Next returns the next lot number
func (g *LotNumberGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := g.now()
	tick := t.Format("20060102-150405")
	if tick != g.lastTick {
		g.lastTick = tick
		g.sequence = 0
	}
	g.sequence++

	return fmt.Sprintf("LOT-%s-%03d", tick, g.sequence)
}
