package metric

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/orbitmetrics/client/internal/aggregate"
	"github.com/orbitmetrics/client/internal/errors"
	"github.com/orbitmetrics/client/internal/reading"
)

// AggregateGauge records a stream of values and, on each emit, reports the
// configured aggregator functions (average, percentiles, ...) computed over
// the samples recorded since the previous emit.
type AggregateGauge struct {
	base
	engine   *aggregate.Engine
	suffixes []string
}

// NewAggregateGauge constructs an AggregateGauge from aggregator specs.
// Suffixes must be unique within the metric; ErrDuplicateSuffix otherwise.
func NewAggregateGauge(name, unit, description string, ownTags map[string]string, specs []aggregate.Spec) (*AggregateGauge, error) {
	seen := make(map[string]struct{}, len(specs))
	suffixes := make([]string, 0, len(specs))
	for _, s := range specs {
		suf := s.Suffix()
		if _, ok := seen[suf]; ok {
			return nil, fmt.Errorf("%w: suffix %q configured twice", ErrDuplicateSuffix, suf)
		}
		seen[suf] = struct{}{}
		suffixes = append(suffixes, suf)
	}
	return &AggregateGauge{
		base:     newBase(name, unit, description, ownTags),
		engine:   aggregate.NewEngine(specs),
		suffixes: suffixes,
	}, nil
}

// ErrDuplicateSuffix is returned by NewAggregateGauge when two aggregator
// specs resolve to the same suffix.
var ErrDuplicateSuffix = stderrors.New("duplicate aggregator suffix")

// Record feeds one observation into every configured aggregator.
func (g *AggregateGauge) Record(v float64) error {
	if g.NotAttached() {
		return errors.ErrNotAttached
	}
	g.engine.Record(v)
	return nil
}

func (g *AggregateGauge) PrimitiveKind() PrimitiveKind { return AggregateGaugeKind }
func (g *AggregateGauge) ReadingKind() reading.Kind    { return reading.Gauge }
func (g *AggregateGauge) Suffixes() []string           { return g.suffixes }

func (g *AggregateGauge) Metadata(map[string]string) []reading.Metadata {
	facts := make([]reading.Metadata, 0, len(g.engine.Specs())*2)
	for _, s := range g.engine.Specs() {
		name := g.name + s.Suffix()
		facts = append(facts, reading.Metadata{Metric: name, Kind: reading.MetadataRate, Value: reading.Gauge.String()})
		facts = append(facts, reading.Metadata{Metric: name, Kind: reading.MetadataDesc, Value: s.DescriptiveSuffix()})
	}
	return facts
}

// Emit computes the atomic read-and-reset over the aggregate engine and
// emits one reading per configured aggregator, sharing now as their
// timestamp.
func (g *AggregateGauge) Emit(batch reading.Batch, defaultTags map[string]string, now time.Time) {
	for _, r := range g.engine.Emit() {
		emit(batch, g, r.Spec.Suffix(), r.Value, defaultTags, now)
	}
}

func (g *AggregateGauge) Detach() { g.detach() }
