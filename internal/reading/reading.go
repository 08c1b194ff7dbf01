// Package reading defines the immutable value types produced by a metric at
// snapshot time: one Reading per sample, one Metadata per descriptive fact.
package reading

import (
	"sort"
	"time"
)

// Kind identifies the wire-visible metric type. Encoders dispatch on this
// value rather than through virtual calls, since the seven primitive
// kinds in internal/metric are not arranged in an inheritance hierarchy.
type Kind int

const (
	Counter Kind = iota
	CumulativeCounter
	Gauge
)

func (k Kind) String() string {
	switch k {
	case Counter:
		return "Counter"
	case CumulativeCounter:
		return "CumulativeCounter"
	case Gauge:
		return "Gauge"
	default:
		return "Unknown"
	}
}

// Tag is one name/value pair attached to a Reading or Metadata fact.
type Tag struct {
	Name  string
	Value string
}

// Tags is a reading's tag set, always kept ordered by Name.
type Tags []Tag

// MergeTags computes transform(base) ⊕ transform(override): the union of
// two already-transformed tag maps, with override's keys winning on
// collision, returned ordered by tag name. This is the §4.1 tag resolution
// rule applied to a single reading.
func MergeTags(base, override map[string]string) Tags {
	merged := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return NewTags(merged)
}

// NewTags builds a Tags value from a plain map, ordered by name.
func NewTags(m map[string]string) Tags {
	if len(m) == 0 {
		return nil
	}
	t := make(Tags, 0, len(m))
	for k, v := range m {
		t = append(t, Tag{Name: k, Value: v})
	}
	sort.Slice(t, func(i, j int) bool { return t[i].Name < t[j].Name })
	return t
}

// Reading is an immutable sample emitted by a metric at one timestamp.
type Reading struct {
	Name      string
	Kind      Kind
	Value     float64
	Tags      Tags
	Timestamp time.Time
}

// MetadataKind enumerates the facts a metric can describe about itself.
type MetadataKind string

const (
	MetadataRate MetadataKind = "rate"
	MetadataDesc MetadataKind = "desc"
	MetadataUnit MetadataKind = "unit"
)

// Metadata is an immutable fact about a metric: its rate kind, description,
// or unit, sent to sinks that support it.
type Metadata struct {
	Metric string
	Kind   MetadataKind
	Tags   Tags
	Value  string
}

// Batch accepts readings produced during one snapshot tick. Concrete
// implementations live in internal/handler (one buffer per payload type)
// and internal/collector (a fan-out batch across every endpoint).
type Batch interface {
	AddReading(r Reading)
}

// MetadataSink accepts metadata facts gathered from every source.
type MetadataSink interface {
	AddMetadata(m Metadata)
}
