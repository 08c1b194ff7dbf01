package metric

import (
	"time"

	"github.com/orbitmetrics/client/internal/reading"
)

// SnapshotCounterFunc is invoked on every emit; a nil or zero result yields
// no reading.
type SnapshotCounterFunc func() *int64

// SnapshotCounter has no update operation of its own: it samples a
// user-supplied callback at emit time.
type SnapshotCounter struct {
	base
	fn SnapshotCounterFunc
}

func NewSnapshotCounter(name, unit, description string, ownTags map[string]string, fn SnapshotCounterFunc) *SnapshotCounter {
	return &SnapshotCounter{base: newBase(name, unit, description, ownTags), fn: fn}
}

func (c *SnapshotCounter) PrimitiveKind() PrimitiveKind { return SnapshotCounterKind }
func (c *SnapshotCounter) ReadingKind() reading.Kind    { return reading.Counter }
func (c *SnapshotCounter) Suffixes() []string           { return oneEmptySuffix }
func (c *SnapshotCounter) Metadata(map[string]string) []reading.Metadata {
	return rateMetadata(c.name, c.unit, c.description, reading.Counter)
}

func (c *SnapshotCounter) Emit(batch reading.Batch, defaultTags map[string]string, now time.Time) {
	v := c.fn()
	if v == nil || *v == 0 {
		return
	}
	emit(batch, c, "", float64(*v), defaultTags, now)
}

func (c *SnapshotCounter) Detach() { c.detach() }
