// Package source implements the metric registry (§4.1): Source Options
// (name/tag transformers and validators, the default-tag write-through
// snapshot) and the Metric Source itself (registration, suffix-collision
// detection, the readings and metadata iterators).
package source

import (
	"go.uber.org/atomic"
)

// Transformer maps a name or value to its wire form. Transformers are pure
// functions applied before validation.
type Transformer func(string) string

// Validator reports whether a (already-transformed) name or value is
// acceptable.
type Validator func(string) bool

func identity(s string) string { return s }
func nonEmpty(s string) bool   { return s != "" }

// Options bundles the name/tag transform-and-validate pipeline plus the
// default tag map every reading from this source carries.
type Options struct {
	metricNameTransformer Transformer
	tagNameTransformer    Transformer
	tagValueTransformer   Transformer
	metricNameValidator   Validator
	tagNameValidator      Validator
	tagValueValidator     Validator

	defaultTags atomic.Pointer[map[string]string]
}

// Option configures an Options value at construction.
type Option func(*Options)

// WithMetricNameTransformer overrides the metric-name transform function.
func WithMetricNameTransformer(fn Transformer) Option {
	return func(o *Options) { o.metricNameTransformer = fn }
}

// WithTagNameTransformer overrides the tag-name transform function.
func WithTagNameTransformer(fn Transformer) Option {
	return func(o *Options) { o.tagNameTransformer = fn }
}

// WithTagValueTransformer overrides the tag-value transform function.
func WithTagValueTransformer(fn Transformer) Option {
	return func(o *Options) { o.tagValueTransformer = fn }
}

// WithMetricNameValidator overrides the metric-name validator.
func WithMetricNameValidator(fn Validator) Option {
	return func(o *Options) { o.metricNameValidator = fn }
}

// WithTagNameValidator overrides the tag-name validator.
func WithTagNameValidator(fn Validator) Option {
	return func(o *Options) { o.tagNameValidator = fn }
}

// WithTagValueValidator overrides the tag-value validator.
func WithTagValueValidator(fn Validator) Option {
	return func(o *Options) { o.tagValueValidator = fn }
}

// WithDefaultTags seeds the initial default-tag snapshot. Each name/value
// pair is transformed (but not validated) before being stored, matching the
// transform-then-merge contract used for every reading.
func WithDefaultTags(tags map[string]string) Option {
	return func(o *Options) {
		for k, v := range tags {
			o.SetDefaultTag(k, v)
		}
	}
}

// NewOptions builds an Options value with permissive defaults (identity
// transforms, non-empty validators) overridden by opts.
func NewOptions(opts ...Option) *Options {
	o := &Options{
		metricNameTransformer: identity,
		tagNameTransformer:    identity,
		tagValueTransformer:   identity,
		metricNameValidator:   nonEmpty,
		tagNameValidator:      nonEmpty,
		tagValueValidator:     nonEmpty,
	}
	empty := map[string]string{}
	o.defaultTags.Store(&empty)
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// TransformMetricName applies the configured metric-name transform.
func (o *Options) TransformMetricName(name string) string { return o.metricNameTransformer(name) }

// ValidateMetricName reports whether an already-transformed name is valid.
func (o *Options) ValidateMetricName(name string) bool { return o.metricNameValidator(name) }

// TransformTagName applies the configured tag-name transform.
func (o *Options) TransformTagName(name string) string { return o.tagNameTransformer(name) }

// ValidateTagName reports whether an already-transformed tag name is valid.
func (o *Options) ValidateTagName(name string) bool { return o.tagNameValidator(name) }

// TransformTagValue applies the configured tag-value transform.
func (o *Options) TransformTagValue(value string) string { return o.tagValueTransformer(value) }

// ValidateTagValue reports whether an already-transformed tag value is valid.
func (o *Options) ValidateTagValue(value string) bool { return o.tagValueValidator(value) }

// DefaultTags returns the current default-tag snapshot. The returned map
// must not be mutated by the caller; it is shared with concurrent readers.
func (o *Options) DefaultTags() map[string]string {
	return *o.defaultTags.Load()
}

// SetDefaultTag transforms name and value, then atomically publishes a new
// snapshot of the default-tag map with that pair set. Concurrent readers
// of DefaultTags always observe either the old or the new snapshot in its
// entirety, never a partial update.
func (o *Options) SetDefaultTag(name, value string) {
	name = o.TransformTagName(name)
	value = o.TransformTagValue(value)
	for {
		old := o.defaultTags.Load()
		next := make(map[string]string, len(*old)+1)
		for k, v := range *old {
			next[k] = v
		}
		next[name] = value
		if o.defaultTags.CompareAndSwap(old, &next) {
			return
		}
	}
}

// RemoveDefaultTag atomically publishes a new snapshot with name removed.
func (o *Options) RemoveDefaultTag(name string) {
	name = o.TransformTagName(name)
	for {
		old := o.defaultTags.Load()
		if _, ok := (*old)[name]; !ok {
			return
		}
		next := make(map[string]string, len(*old))
		for k, v := range *old {
			if k != name {
				next[k] = v
			}
		}
		if o.defaultTags.CompareAndSwap(old, &next) {
			return
		}
	}
}
