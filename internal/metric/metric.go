// Package metric implements the seven metric primitives named in §4.2:
// Counter, CumulativeCounter, SamplingGauge, EventGauge, SnapshotGauge,
// SnapshotCounter, and AggregateGauge. Each primitive exposes a
// type-specific update operation to application code and an internal Emit
// used by the collector's snapshot loop.
package metric

import (
	"time"

	"github.com/orbitmetrics/client/internal/reading"
)

// PrimitiveKind distinguishes the seven metric primitives for duplicate
// registration checks: two metrics with the same name are only the "same"
// metric if they also share a PrimitiveKind and Unit.
type PrimitiveKind string

const (
	CounterKind           PrimitiveKind = "Counter"
	CumulativeCounterKind PrimitiveKind = "CumulativeCounter"
	SamplingGaugeKind     PrimitiveKind = "SamplingGauge"
	EventGaugeKind        PrimitiveKind = "EventGauge"
	SnapshotGaugeKind     PrimitiveKind = "SnapshotGauge"
	SnapshotCounterKind   PrimitiveKind = "SnapshotCounter"
	AggregateGaugeKind    PrimitiveKind = "AggregateGauge"
)

// Metric is the interface the registry (internal/source) and tagged
// families (internal/tagged) use to drive emission, independent of which of
// the seven primitives is underneath. Application code instead holds the
// concrete pointer type returned by the source's Add* methods, so it calls
// the type-specific update method (Increment, Record, ...) directly.
type Metric interface {
	// Name is the metric's own name, excluding any suffix.
	Name() string
	// Unit is the metric's declared unit, or "" if none.
	Unit() string
	// Description is the metric's declared description, or "" if none.
	Description() string
	// PrimitiveKind identifies which of the seven primitives this is.
	PrimitiveKind() PrimitiveKind
	// ReadingKind is the wire-visible kind used on emitted readings.
	ReadingKind() reading.Kind
	// Suffixes lists the name suffixes this metric emits per tick. Scalar
	// metrics return one empty-string suffix; AggregateGauge returns one
	// suffix per configured aggregator.
	Suffixes() []string
	// OwnTags returns the metric's own fixed tag set (e.g. a tagged
	// family child's bound tag values), distinct from default tags.
	OwnTags() map[string]string
	// Emit samples the metric's current state into batch, merging
	// defaultTags with OwnTags() (metric's own keys win) for every
	// reading produced. now is shared by every reading of this tick.
	Emit(batch reading.Batch, defaultTags map[string]string, now time.Time)
	// NotAttached reports whether Detach has been called on this handle.
	// A metric constructed but never registered with a source is not
	// reported as detached.
	NotAttached() bool
	// Metadata returns the descriptive facts (rate/desc/unit) this metric
	// contributes, one set per suffix.
	Metadata(defaultTags map[string]string) []reading.Metadata
}

// emit is a small helper shared by every primitive: it merges defaultTags
// with the metric's own tags and appends one reading with name+suffix.
func emit(batch reading.Batch, m Metric, suffix string, value float64, defaultTags map[string]string, now time.Time) {
	batch.AddReading(reading.Reading{
		Name:      m.Name() + suffix,
		Kind:      m.ReadingKind(),
		Value:     value,
		Tags:      reading.MergeTags(defaultTags, m.OwnTags()),
		Timestamp: now,
	})
}

// FamilyMetadata builds the metadata facts a tagged family contributes,
// independent of whether any child has been constructed yet: every child of
// a family shares name, unit, description, and reading kind, so the family
// can describe itself without consulting Get.
func FamilyMetadata(name, unit, description string, readingKind reading.Kind, suffixes []string) []reading.Metadata {
	facts := make([]reading.Metadata, 0, len(suffixes))
	for _, suf := range suffixes {
		facts = append(facts, rateMetadata(name+suf, unit, description, readingKind)...)
	}
	return facts
}

// rateMetadata builds the "rate" metadata fact every metric suffix
// contributes (naming the wire-visible Kind it emits as), plus description
// and unit facts when present, per §4.1's suffix contract.
func rateMetadata(name, unit, description string, rateKind reading.Kind) []reading.Metadata {
	facts := []reading.Metadata{{Metric: name, Kind: reading.MetadataRate, Value: rateKind.String()}}
	if description != "" {
		facts = append(facts, reading.Metadata{Metric: name, Kind: reading.MetadataDesc, Value: description})
	}
	if unit != "" {
		facts = append(facts, reading.Metadata{Metric: name, Kind: reading.MetadataUnit, Value: unit})
	}
	return facts
}
