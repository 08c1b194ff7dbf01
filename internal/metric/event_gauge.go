package metric

import (
	"sync"
	"time"

	"github.com/orbitmetrics/client/internal/errors"
	"github.com/orbitmetrics/client/internal/reading"
)

type eventSample struct {
	value float64
	at    time.Time
}

// EventGauge accumulates one sample per Record call and emits every
// accumulated sample, in arrival order, clearing the sample list on emit.
type EventGauge struct {
	base
	mu      sync.Mutex
	samples []eventSample
}

func NewEventGauge(name, unit, description string, ownTags map[string]string) *EventGauge {
	return &EventGauge{base: newBase(name, unit, description, ownTags)}
}

// Record appends a sample. If t is omitted, the sample's timestamp is
// assigned at emit time (shared with the rest of that tick).
func (g *EventGauge) Record(v float64, t ...time.Time) error {
	if g.NotAttached() {
		return errors.ErrNotAttached
	}
	var at time.Time
	if len(t) > 0 {
		at = t[0]
	}
	g.mu.Lock()
	g.samples = append(g.samples, eventSample{value: v, at: at})
	g.mu.Unlock()
	return nil
}

func (g *EventGauge) PrimitiveKind() PrimitiveKind { return EventGaugeKind }
func (g *EventGauge) ReadingKind() reading.Kind     { return reading.Gauge }
func (g *EventGauge) Suffixes() []string            { return oneEmptySuffix }
func (g *EventGauge) Metadata(map[string]string) []reading.Metadata {
	return rateMetadata(g.name, g.unit, g.description, reading.Gauge)
}

// Emit detaches the current sample list and emits one reading per sample,
// in arrival order.
func (g *EventGauge) Emit(batch reading.Batch, defaultTags map[string]string, now time.Time) {
	g.mu.Lock()
	samples := g.samples
	g.samples = nil
	g.mu.Unlock()

	for _, s := range samples {
		at := s.at
		if at.IsZero() {
			at = now
		}
		batch.AddReading(reading.Reading{
			Name:      g.name,
			Kind:      reading.Gauge,
			Value:     s.value,
			Tags:      reading.MergeTags(defaultTags, g.ownTags),
			Timestamp: at,
		})
	}
}

func (g *EventGauge) Detach() { g.detach() }
