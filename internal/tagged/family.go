// Package tagged implements the Tagged Metric Factory (§4.4): a family of
// metric instances keyed by a tuple of tag values, lazily constructed on
// first use and shared thereafter.
package tagged

import (
	"sync"
	"time"

	"github.com/orbitmetrics/client/internal/errors"
	"github.com/orbitmetrics/client/internal/metric"
	"github.com/orbitmetrics/client/internal/reading"
)

// Descriptor names one tag dimension of a family (e.g. "method", "status").
type Descriptor struct {
	Name string
}

// Transformer and Validator mirror internal/source's name/value pipeline;
// a Family applies them to each tag value passed to Get.
type Transformer func(string) string
type Validator func(string) bool

// Factory constructs one child metric bound to a resolved tag set. Families
// are agnostic to which of the seven primitives they hold; Source supplies
// the factory matching the tagged metric's configured kind.
type Factory func(ownTags map[string]string) metric.Metric

// Family is a lazily-populated, tag-keyed set of sibling metric instances
// sharing a name, unit, and description. Children are never removed: a
// family's lifetime is its source's lifetime.
type Family struct {
	name        string
	unit        string
	description string
	descriptors []Descriptor
	readingKind reading.Kind
	suffixes    []string

	transformValue Transformer
	validateValue  Validator

	factory Factory

	mu       sync.RWMutex
	children map[string]metric.Metric
}

// key joins a resolved value tuple into a map key. Values are joined with a
// separator that cannot appear in a single transformed value in practice;
// collisions are acceptable only in the sense that they'd alias two
// differently-intended tuples onto the same child, which the caller avoids
// by keeping tag values free of the separator.
const keySep = "\x1f"

func joinKey(values []string) string {
	out := values[0]
	for _, v := range values[1:] {
		out += keySep + v
	}
	return out
}

// New constructs a Family for a tag descriptor tuple of 1 to 5 dimensions.
// readingKind and suffixes describe the wire shape every child will share,
// so the family can answer Metadata before any child is constructed.
func New(name, unit, description string, descriptors []Descriptor, readingKind reading.Kind, suffixes []string, transformValue Transformer, validateValue Validator, factory Factory) *Family {
	return &Family{
		name:           name,
		unit:           unit,
		description:    description,
		descriptors:    descriptors,
		readingKind:    readingKind,
		suffixes:       suffixes,
		transformValue: transformValue,
		validateValue:  validateValue,
		factory:        factory,
		children:       make(map[string]metric.Metric),
	}
}

// Name, Unit, Description expose the family's shared identity.
func (f *Family) Name() string        { return f.name }
func (f *Family) Unit() string        { return f.unit }
func (f *Family) Description() string { return f.description }

// Get resolves a value tuple to a child metric, transforming and validating
// each value first. len(values) must equal len(descriptors). On success the
// returned metric is shared with every other caller passing the same
// (transformed) tuple.
func (f *Family) Get(values ...string) (metric.Metric, error) {
	if len(values) != len(f.descriptors) {
		return nil, errors.ErrInvalidTagValue
	}

	resolved := make([]string, len(values))
	ownTags := make(map[string]string, len(values))
	for i, v := range values {
		tv := f.transformValue(v)
		if !f.validateValue(tv) {
			return nil, errors.ErrInvalidTagValue
		}
		resolved[i] = tv
		ownTags[f.descriptors[i].Name] = tv
	}
	key := joinKey(resolved)

	f.mu.RLock()
	child, ok := f.children[key]
	f.mu.RUnlock()
	if ok {
		return child, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if child, ok := f.children[key]; ok {
		return child, nil
	}
	child = f.factory(ownTags)
	f.children[key] = child
	return child, nil
}

// Children returns a snapshot of the currently constructed children, in
// arbitrary order.
func (f *Family) Children() []metric.Metric {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]metric.Metric, 0, len(f.children))
	for _, c := range f.children {
		out = append(out, c)
	}
	return out
}

// Emit delegates to every constructed child's Emit, in arbitrary order.
func (f *Family) Emit(batch reading.Batch, defaultTags map[string]string, now time.Time) {
	for _, c := range f.Children() {
		c.Emit(batch, defaultTags, now)
	}
}

// Metadata returns the descriptive facts for this family, independent of
// which (or how many) children have been constructed so far: every child
// shares name, unit, description, and reading kind.
func (f *Family) Metadata() []reading.Metadata {
	return metric.FamilyMetadata(f.name, f.unit, f.description, f.readingKind, f.suffixes)
}
