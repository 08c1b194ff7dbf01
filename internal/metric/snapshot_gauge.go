package metric

import (
	"math"
	"time"

	"github.com/orbitmetrics/client/internal/reading"
)

// SnapshotGaugeFunc is invoked on every emit; a nil or NaN result yields no
// reading.
type SnapshotGaugeFunc func() *float64

// SnapshotGauge has no update operation of its own: it samples a
// user-supplied callback at emit time.
type SnapshotGauge struct {
	base
	fn SnapshotGaugeFunc
}

func NewSnapshotGauge(name, unit, description string, ownTags map[string]string, fn SnapshotGaugeFunc) *SnapshotGauge {
	return &SnapshotGauge{base: newBase(name, unit, description, ownTags), fn: fn}
}

func (g *SnapshotGauge) PrimitiveKind() PrimitiveKind { return SnapshotGaugeKind }
func (g *SnapshotGauge) ReadingKind() reading.Kind     { return reading.Gauge }
func (g *SnapshotGauge) Suffixes() []string            { return oneEmptySuffix }
func (g *SnapshotGauge) Metadata(map[string]string) []reading.Metadata {
	return rateMetadata(g.name, g.unit, g.description, reading.Gauge)
}

func (g *SnapshotGauge) Emit(batch reading.Batch, defaultTags map[string]string, now time.Time) {
	v := g.fn()
	if v == nil || math.IsNaN(*v) {
		return
	}
	emit(batch, g, "", *v, defaultTags, now)
}

func (g *SnapshotGauge) Detach() { g.detach() }
