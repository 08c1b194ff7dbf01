package metric

import (
	"math"
	"time"

	"github.com/orbitmetrics/client/internal/errors"
	"github.com/orbitmetrics/client/internal/reading"
	"go.uber.org/atomic"
)

// SamplingGauge holds the last recorded value and emits it on every tick
// until superseded, never resetting. Recording NaN suppresses emission
// until a non-NaN value is recorded again.
type SamplingGauge struct {
	base
	last atomic.Float64
}

func NewSamplingGauge(name, unit, description string, ownTags map[string]string) *SamplingGauge {
	g := &SamplingGauge{base: newBase(name, unit, description, ownTags)}
	g.last.Store(math.NaN())
	return g
}

// Record stores v as the gauge's current value.
func (g *SamplingGauge) Record(v float64) error {
	if g.NotAttached() {
		return errors.ErrNotAttached
	}
	g.last.Store(v)
	return nil
}

func (g *SamplingGauge) PrimitiveKind() PrimitiveKind { return SamplingGaugeKind }
func (g *SamplingGauge) ReadingKind() reading.Kind     { return reading.Gauge }
func (g *SamplingGauge) Suffixes() []string            { return oneEmptySuffix }
func (g *SamplingGauge) Metadata(map[string]string) []reading.Metadata {
	return rateMetadata(g.name, g.unit, g.description, reading.Gauge)
}

// Emit emits the last recorded value, or nothing if it is NaN (including
// the unrecorded initial state).
func (g *SamplingGauge) Emit(batch reading.Batch, defaultTags map[string]string, now time.Time) {
	v := g.last.Load()
	if math.IsNaN(v) {
		return
	}
	emit(batch, g, "", v, defaultTags, now)
}

func (g *SamplingGauge) Detach() { g.detach() }
