package source

import (
	"sync"
	"time"

	"github.com/orbitmetrics/client/internal/aggregate"
	"github.com/orbitmetrics/client/internal/errors"
	"github.com/orbitmetrics/client/internal/metric"
	"github.com/orbitmetrics/client/internal/reading"
	"github.com/orbitmetrics/client/internal/tagged"
)

// registration records enough of a prior AddScalar call to answer whether a
// repeat registration is byte-identical.
type registration struct {
	m    metric.Metric
	kind metric.PrimitiveKind
	unit string
}

// Source is the metric registry (§4.1): application code registers scalar
// metrics and tagged families through it, and the collector drains it once
// per snapshot tick via WriteReadings/GetMetadata.
type Source struct {
	opts *Options

	mu       sync.Mutex
	byName   map[string]*registration
	suffixes map[string]string // fully-qualified name (name+suffix) -> owning metric name
	families map[string]*tagged.Family

	onRegistered func()
}

// New constructs an empty Source. onRegistered, if non-nil, is invoked
// synchronously, while the source's registry lock is held, after every
// registration that adds a new metric or family (a repeat registration that
// returns an existing handle does not invoke it) — the collector
// uses it to set the edge-triggered "metadata changed" flag that gates an
// out-of-cycle metadata flush.
func New(opts *Options, onRegistered func()) *Source {
	if opts == nil {
		opts = NewOptions()
	}
	return &Source{
		opts:         opts,
		byName:       make(map[string]*registration),
		suffixes:     make(map[string]string),
		families:     make(map[string]*tagged.Family),
		onRegistered: onRegistered,
	}
}

// Options returns the source's name/tag transform-and-validate pipeline and
// default-tag snapshot, shared with the collector for tag resolution.
func (s *Source) Options() *Options { return s.opts }

func (s *Source) notify() {
	if s.onRegistered != nil {
		s.onRegistered()
	}
}

// checkSuffixes verifies that name+suf for every suf in suffixes is either
// unclaimed or already claimed by owner (the byte-identical-registration
// case), without mutating the registry. Call under s.mu.
func (s *Source) checkSuffixes(owner string, suffixes []string) error {
	for _, suf := range suffixes {
		full := owner + suf
		if existing, ok := s.suffixes[full]; ok && existing != owner {
			return errors.ErrDuplicate
		}
	}
	return nil
}

func (s *Source) claimSuffixes(owner string, suffixes []string) {
	for _, suf := range suffixes {
		s.suffixes[owner+suf] = owner
	}
}

// addScalar is the shared path for every typed AddX convenience method: it
// validates/transforms name, checks for a byte-identical existing
// registration, and otherwise performs the two-pass check-then-insert
// suffix-collision check before claiming the metric's name.
func (s *Source) addScalar(name string, kind metric.PrimitiveKind, unit string, build func() metric.Metric) (metric.Metric, error) {
	name = s.opts.TransformMetricName(name)
	if !s.opts.ValidateMetricName(name) {
		return nil, errors.ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byName[name]; ok {
		if existing.kind == kind && existing.unit == unit {
			return existing.m, nil
		}
		return nil, errors.ErrDuplicate
	}

	m := build()
	if err := s.checkSuffixes(name, m.Suffixes()); err != nil {
		return nil, err
	}
	s.claimSuffixes(name, m.Suffixes())
	s.byName[name] = &registration{m: m, kind: kind, unit: unit}

	s.notify()
	return m, nil
}

// AddCounter registers (or returns the existing) Counter named name.
func (s *Source) AddCounter(name, unit, description string) (*metric.Counter, error) {
	m, err := s.addScalar(name, metric.CounterKind, unit, func() metric.Metric {
		return metric.NewCounter(name, unit, description, nil)
	})
	if err != nil {
		return nil, err
	}
	return m.(*metric.Counter), nil
}

// AddCumulativeCounter registers (or returns the existing) CumulativeCounter
// named name.
func (s *Source) AddCumulativeCounter(name, unit, description string) (*metric.CumulativeCounter, error) {
	m, err := s.addScalar(name, metric.CumulativeCounterKind, unit, func() metric.Metric {
		return metric.NewCumulativeCounter(name, unit, description, nil)
	})
	if err != nil {
		return nil, err
	}
	return m.(*metric.CumulativeCounter), nil
}

// AddSamplingGauge registers (or returns the existing) SamplingGauge named
// name.
func (s *Source) AddSamplingGauge(name, unit, description string) (*metric.SamplingGauge, error) {
	m, err := s.addScalar(name, metric.SamplingGaugeKind, unit, func() metric.Metric {
		return metric.NewSamplingGauge(name, unit, description, nil)
	})
	if err != nil {
		return nil, err
	}
	return m.(*metric.SamplingGauge), nil
}

// AddEventGauge registers (or returns the existing) EventGauge named name.
func (s *Source) AddEventGauge(name, unit, description string) (*metric.EventGauge, error) {
	m, err := s.addScalar(name, metric.EventGaugeKind, unit, func() metric.Metric {
		return metric.NewEventGauge(name, unit, description, nil)
	})
	if err != nil {
		return nil, err
	}
	return m.(*metric.EventGauge), nil
}

// AddSnapshotGauge registers a SnapshotGauge sampling fn on every emit.
func (s *Source) AddSnapshotGauge(name, unit, description string, fn metric.SnapshotGaugeFunc) (*metric.SnapshotGauge, error) {
	m, err := s.addScalar(name, metric.SnapshotGaugeKind, unit, func() metric.Metric {
		return metric.NewSnapshotGauge(name, unit, description, nil, fn)
	})
	if err != nil {
		return nil, err
	}
	return m.(*metric.SnapshotGauge), nil
}

// AddSnapshotCounter registers a SnapshotCounter sampling fn on every emit.
func (s *Source) AddSnapshotCounter(name, unit, description string, fn metric.SnapshotCounterFunc) (*metric.SnapshotCounter, error) {
	m, err := s.addScalar(name, metric.SnapshotCounterKind, unit, func() metric.Metric {
		return metric.NewSnapshotCounter(name, unit, description, nil, fn)
	})
	if err != nil {
		return nil, err
	}
	return m.(*metric.SnapshotCounter), nil
}

// AddAggregateGauge registers an AggregateGauge configured with specs. specs
// are validated (suffix uniqueness) before any registry state is touched,
// so a rejected configuration never consumes a duplicate-registration slot.
func (s *Source) AddAggregateGauge(name, unit, description string, specs []aggregate.Spec) (*metric.AggregateGauge, error) {
	g, err := metric.NewAggregateGauge(name, unit, description, nil, specs)
	if err != nil {
		return nil, err
	}
	m, err := s.addScalar(name, metric.AggregateGaugeKind, unit, func() metric.Metric {
		return g
	})
	if err != nil {
		return nil, err
	}
	return m.(*metric.AggregateGauge), nil
}

// AddTagged registers a tagged family of kind over 1 to 5 tag dimensions.
// build constructs one child given its resolved own-tags; it is invoked
// lazily by the family, not by AddTagged itself.
func (s *Source) AddTagged(name, unit, description string, tagNames []string, readingKind reading.Kind, suffixes []string, build tagged.Factory) (*tagged.Family, error) {
	if len(tagNames) < 1 || len(tagNames) > 5 {
		return nil, errors.ErrInvalidTagName
	}
	name = s.opts.TransformMetricName(name)
	if !s.opts.ValidateMetricName(name) {
		return nil, errors.ErrInvalidName
	}

	descriptors := make([]tagged.Descriptor, len(tagNames))
	for i, tn := range tagNames {
		tn = s.opts.TransformTagName(tn)
		if !s.opts.ValidateTagName(tn) {
			return nil, errors.ErrInvalidTagName
		}
		descriptors[i] = tagged.Descriptor{Name: tn}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.families[name]; ok {
		return existing, nil
	}
	if err := s.checkSuffixes(name, suffixes); err != nil {
		return nil, err
	}
	s.claimSuffixes(name, suffixes)

	f := tagged.New(name, unit, description, descriptors, readingKind, suffixes,
		s.opts.TransformTagValue, s.opts.ValidateTagValue, build)
	s.families[name] = f

	s.notify()
	return f, nil
}

// WriteReadings invokes every registered metric's and family's Emit into
// batch. Ordering across metrics is unspecified.
func (s *Source) WriteReadings(batch reading.Batch, now time.Time) {
	s.mu.Lock()
	regs := make([]*registration, 0, len(s.byName))
	for _, r := range s.byName {
		regs = append(regs, r)
	}
	families := make([]*tagged.Family, 0, len(s.families))
	for _, f := range s.families {
		families = append(families, f)
	}
	defaultTags := s.opts.DefaultTags()
	s.mu.Unlock()

	for _, r := range regs {
		r.m.Emit(batch, defaultTags, now)
	}
	for _, f := range families {
		f.Emit(batch, defaultTags, now)
	}
}

// GetMetadata returns every metadata fact known to this source.
func (s *Source) GetMetadata() []reading.Metadata {
	s.mu.Lock()
	regs := make([]*registration, 0, len(s.byName))
	for _, r := range s.byName {
		regs = append(regs, r)
	}
	families := make([]*tagged.Family, 0, len(s.families))
	for _, f := range s.families {
		families = append(families, f)
	}
	defaultTags := s.opts.DefaultTags()
	s.mu.Unlock()

	var facts []reading.Metadata
	for _, r := range regs {
		facts = append(facts, r.m.Metadata(defaultTags)...)
	}
	for _, f := range families {
		facts = append(facts, f.Metadata()...)
	}
	return facts
}
