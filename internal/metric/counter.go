package metric

import (
	"time"

	"github.com/orbitmetrics/client/internal/errors"
	"github.com/orbitmetrics/client/internal/reading"
	"go.uber.org/atomic"
)

// Counter counts events since the last emit and resets to zero on each
// emit. Increment is lock-free.
type Counter struct {
	base
	delta atomic.Uint64
}

// NewCounter constructs a Counter that accepts updates immediately, whether
// or not it is ever registered with a Source; only Detach makes later
// updates fail with ErrNotAttached.
func NewCounter(name, unit, description string, ownTags map[string]string) *Counter {
	return &Counter{base: newBase(name, unit, description, ownTags)}
}

// Increment adds n (default 1 when n == 0 is passed as the zero value by
// convenience wrappers) to the counter. n must be non-negative.
func (c *Counter) Increment(n uint64) error {
	if c.NotAttached() {
		return errors.ErrNotAttached
	}
	if n == 0 {
		n = 1
	}
	c.delta.Add(n)
	return nil
}

func (c *Counter) PrimitiveKind() PrimitiveKind  { return CounterKind }
func (c *Counter) ReadingKind() reading.Kind     { return reading.Counter }
func (c *Counter) Suffixes() []string            { return oneEmptySuffix }
func (c *Counter) Metadata(map[string]string) []reading.Metadata {
	return rateMetadata(c.name, c.unit, c.description, reading.Counter)
}

// Emit reads-and-resets the delta; a zero delta emits no reading.
func (c *Counter) Emit(batch reading.Batch, defaultTags map[string]string, now time.Time) {
	v := c.delta.Swap(0)
	if v == 0 {
		return
	}
	emit(batch, c, "", float64(v), defaultTags, now)
}

func (c *Counter) Detach() { c.detach() }
