package metric

import (
	"time"

	"github.com/orbitmetrics/client/internal/errors"
	"github.com/orbitmetrics/client/internal/reading"
	"go.uber.org/atomic"
)

// CumulativeCounter tracks a running total that is never reset on emit.
type CumulativeCounter struct {
	base
	total atomic.Uint64
}

func NewCumulativeCounter(name, unit, description string, ownTags map[string]string) *CumulativeCounter {
	return &CumulativeCounter{base: newBase(name, unit, description, ownTags)}
}

// Increment adds n (must be non-negative) to the running total.
func (c *CumulativeCounter) Increment(n uint64) error {
	if c.NotAttached() {
		return errors.ErrNotAttached
	}
	c.total.Add(n)
	return nil
}

func (c *CumulativeCounter) PrimitiveKind() PrimitiveKind { return CumulativeCounterKind }
func (c *CumulativeCounter) ReadingKind() reading.Kind    { return reading.CumulativeCounter }
func (c *CumulativeCounter) Suffixes() []string           { return oneEmptySuffix }
func (c *CumulativeCounter) Metadata(map[string]string) []reading.Metadata {
	return rateMetadata(c.name, c.unit, c.description, reading.CumulativeCounter)
}

// Emit reads the running total without resetting it; a zero total emits no
// reading.
func (c *CumulativeCounter) Emit(batch reading.Batch, defaultTags map[string]string, now time.Time) {
	v := c.total.Load()
	if v == 0 {
		return
	}
	emit(batch, c, "", float64(v), defaultTags, now)
}

func (c *CumulativeCounter) Detach() { c.detach() }
