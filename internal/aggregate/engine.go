// Package aggregate implements the online statistics engine behind
// AggregateGauge (§4.3): count/sum/min/max/last accumulation plus a
// nearest-rank percentile computed over the samples recorded in one
// reporting window, with an atomic read-and-reset on every emit.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// Kind enumerates the aggregator functions a gauge can be configured with.
type Kind string

const (
	Average    Kind = "avg"
	Median     Kind = "median"
	Max        Kind = "max"
	Min        Kind = "min"
	Last       Kind = "last"
	Count      Kind = "count"
	Percentile Kind = "percentile"
)

// Spec configures one aggregator. Percentile is only meaningful when
// Kind == Percentile, and must be in [0,1]. SuffixOverride/Description
// default from Kind (and Percentile, for Kind == Percentile) when left empty.
type Spec struct {
	Kind           Kind
	Percentile     float64
	SuffixOverride string
	Description    string
}

// Suffix returns the configured or derived name suffix for this aggregator.
func (s Spec) Suffix() string {
	if s.SuffixOverride != "" {
		return s.SuffixOverride
	}
	switch s.Kind {
	case Average:
		return "_avg"
	case Median:
		return "_median"
	case Max:
		return "_max"
	case Min:
		return "_min"
	case Last:
		return "_last"
	case Count:
		return "_count"
	case Percentile:
		return fmt.Sprintf("_%d", int(math.Round(s.Percentile*100)))
	default:
		return ""
	}
}

// DescriptiveSuffix returns a human-readable description for the metadata
// fact this aggregator contributes, e.g. "(95th percentile)".
func (s Spec) DescriptiveSuffix() string {
	if s.Description != "" {
		return s.Description
	}
	switch s.Kind {
	case Average:
		return "(average)"
	case Median:
		return "(median)"
	case Max:
		return "(maximum)"
	case Min:
		return "(minimum)"
	case Last:
		return "(last)"
	case Count:
		return "(count)"
	case Percentile:
		return fmt.Sprintf("(%dth percentile)", int(math.Round(s.Percentile*100)))
	default:
		return ""
	}
}

func (s Spec) needsSamples() bool {
	return s.Kind == Percentile || s.Kind == Median
}

// NearestRank returns sorted[round(p*(len-1))] for p in [0,1], the
// nearest-rank percentile over an already-sorted ascending sample set.
// Ties (a fractional index of exactly .5) round to even, not away from
// zero, matching the reference scenario's median over an even-length
// sample set. Returns 0 for an empty sample set.
func NearestRank(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.RoundToEven(p * float64(len(sorted)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Result is one aggregator's computed value for one emit.
type Result struct {
	Spec  Spec
	Value float64
}

// Engine accumulates Record calls under one mutex and computes the
// configured aggregators on Emit, per §4.3's state-transition table.
type Engine struct {
	specs        []Spec
	needsSamples bool

	mu      sync.Mutex
	count   uint64
	sum     float64
	last    float64
	min     float64
	max     float64
	samples []float64
}

// NewEngine configures an Engine with specs. Suffixes across specs must be
// unique; the caller (AggregateGauge construction) is responsible for that
// check since it also needs to validate against sibling metrics.
func NewEngine(specs []Spec) *Engine {
	e := &Engine{specs: specs}
	for _, s := range specs {
		if s.needsSamples() {
			e.needsSamples = true
		}
	}
	e.reset()
	return e
}

func (e *Engine) reset() {
	e.count = 0
	e.sum = 0
	e.last = 0
	e.min = math.Inf(1)
	e.max = math.Inf(-1)
	e.samples = nil
}

// Specs returns the configured aggregator specs, in construction order.
func (e *Engine) Specs() []Spec { return e.specs }

// Record applies one observation to every configured accumulator.
func (e *Engine) Record(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.count++
	e.sum += v
	e.last = v
	if v < e.min {
		e.min = v
	}
	if v > e.max {
		e.max = v
	}
	if e.needsSamples {
		e.samples = append(e.samples, v)
	}
}

// Emit performs the atomic read-and-reset described in §4.3 and returns one
// Result per configured aggregator. If no samples were recorded since the
// previous emit, it returns only the Count result (valued 0), per the
// "emit zero" resolution in §9's open questions.
func (e *Engine) Emit() []Result {
	e.mu.Lock()
	count := e.count
	sum := e.sum
	last := e.last
	min := e.min
	max := e.max
	samples := e.samples
	e.reset()
	e.mu.Unlock()

	if count == 0 {
		for _, s := range e.specs {
			if s.Kind == Count {
				return []Result{{Spec: s, Value: 0}}
			}
		}
		return nil
	}

	sort.Float64s(samples)

	results := make([]Result, 0, len(e.specs))
	for _, s := range e.specs {
		var v float64
		switch s.Kind {
		case Average:
			v = sum / float64(count)
		case Median:
			v = NearestRank(samples, 0.5)
		case Max:
			v = max
		case Min:
			v = min
		case Last:
			v = last
		case Count:
			v = float64(count)
		case Percentile:
			v = NearestRank(samples, s.Percentile)
		}
		results = append(results, Result{Spec: s, Value: v})
	}
	return results
}
