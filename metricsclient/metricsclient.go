// Package metricsclient is the public entry point for the in-process
// metrics client: a Source registers metric primitives, a Collector drives
// registered sources' readings and metadata to one or more endpoints on
// independent periodic loops. Application code should depend on this
// package rather than on internal/..., whose exported identifiers Go's
// visibility rules keep unreachable from outside this module anyway.
package metricsclient

import (
	"github.com/orbitmetrics/client/internal/aggregate"
	"github.com/orbitmetrics/client/internal/collector"
	"github.com/orbitmetrics/client/internal/config"
	clienterrors "github.com/orbitmetrics/client/internal/errors"
	"github.com/orbitmetrics/client/internal/handler"
	"github.com/orbitmetrics/client/internal/handler/opentsdb"
	"github.com/orbitmetrics/client/internal/handler/signalfx"
	"github.com/orbitmetrics/client/internal/handler/statsd"
	"github.com/orbitmetrics/client/internal/metric"
	"github.com/orbitmetrics/client/internal/source"
	"github.com/orbitmetrics/client/internal/tagged"
)

// Metric primitives (§4.2). Application code holds the concrete pointer
// type returned by a Source's Add* method and calls its update method
// directly (Increment, Record, ...).
type (
	Counter           = metric.Counter
	CumulativeCounter = metric.CumulativeCounter
	SamplingGauge     = metric.SamplingGauge
	EventGauge        = metric.EventGauge
	SnapshotGauge     = metric.SnapshotGauge
	SnapshotCounter   = metric.SnapshotCounter
	AggregateGauge    = metric.AggregateGauge

	SnapshotGaugeFunc   = metric.SnapshotGaugeFunc
	SnapshotCounterFunc = metric.SnapshotCounterFunc
)

// Source Options (§4.1): per-source name/tag transforms, validators, and
// default tags.
type (
	Options = source.Options
	Option  = source.Option
)

var (
	WithMetricNameTransformer = source.WithMetricNameTransformer
	WithTagNameTransformer    = source.WithTagNameTransformer
	WithTagValueTransformer   = source.WithTagValueTransformer
	WithMetricNameValidator   = source.WithMetricNameValidator
	WithTagNameValidator      = source.WithTagNameValidator
	WithTagValueValidator     = source.WithTagValueValidator
	WithDefaultTags           = source.WithDefaultTags
	NewOptions                = source.NewOptions
)

// Source is the metric registry (§4.1, §4.4): application code registers
// scalar and tagged metrics against it, and a Collector periodically reads
// its readings and metadata.
type Source = source.Source

// NewSource constructs a Source. onRegistered, when non-nil, is called
// synchronously, under the registry lock, on each registration that adds a
// new metric or family (not on a repeat registration); pass a Collector's
// OnSourceRegistered to force an out-of-cycle metadata flush on the next
// snapshot tick.
func NewSource(opts *Options, onRegistered func()) *Source {
	return source.New(opts, onRegistered)
}

// Family is a tagged metric family (§4.4): one declaration, many
// lazily-constructed children keyed by a tuple of tag values.
type Family = tagged.Family

// AggregatorKind and AggregatorSpec configure an AggregateGauge's online
// statistics (§4.3).
type (
	AggregatorKind = aggregate.Kind
	AggregatorSpec = aggregate.Spec
)

const (
	Average    = aggregate.Average
	Median     = aggregate.Median
	Max        = aggregate.Max
	Min        = aggregate.Min
	Last       = aggregate.Last
	Count      = aggregate.Count
	Percentile = aggregate.Percentile
)

// Collector owns a set of endpoints and drives every attached Source's
// readings and metadata to them on two independent periodic loops (§4.6).
type (
	Collector              = collector.Collector
	CollectorOptions       = collector.Options
	Endpoint               = collector.Endpoint
	AfterSerializationInfo = collector.AfterSerializationInfo
)

// NewCollector constructs a Collector with no sources attached; use
// AddSource (on the returned Collector) once sources exist, since a
// Source's onRegistered callback generally needs the Collector to already
// exist.
func NewCollector(opts CollectorOptions, endpoints []Endpoint) *Collector {
	return collector.New(opts, endpoints)
}

// Config is the environment/YAML-backed configuration layer (§ ambient
// stack): METRICS_SNAPSHOT_INTERVAL and friends, loaded via NewConfig and
// mapped onto CollectorOptions with OptionsFromConfig.
type Config = config.Config

var (
	NewConfig         = config.NewConfig
	OptionsFromConfig = collector.OptionsFromConfig
)

// Buffered Handler (§4.5): pairs an Encoder with per-payload-type
// buffering, chunking, retry, and drop-oldest overflow.
type (
	Handler       = handler.Handler
	Encoder       = handler.Encoder
	AfterSendInfo = handler.AfterSendInfo
)

// NewHandler wraps encoder in a Handler that seals payloads at
// maxPayloadSize bytes and drops the oldest pending payload when sealing a
// new one would leave more than maxPayloadCount of a given type queued.
func NewHandler(encoder Encoder, maxPayloadSize, maxPayloadCount int) *Handler {
	return handler.New(encoder, maxPayloadSize, maxPayloadCount)
}

// Endpoint encoders (§6.1): concrete wire formats for the three supported
// sinks.
func NewOpenTSDBEncoder(baseURL string) *opentsdb.Encoder { return opentsdb.New(baseURL) }
func NewStatsDEncoder(addr string) *statsd.Encoder        { return statsd.New(addr) }
func NewSignalFxEncoder(baseURL, token string) *signalfx.Encoder {
	return signalfx.New(baseURL, token)
}

// Errors raised synchronously by registration and update calls.
var (
	ErrInvalidName     = clienterrors.ErrInvalidName
	ErrInvalidTagName  = clienterrors.ErrInvalidTagName
	ErrInvalidTagValue = clienterrors.ErrInvalidTagValue
	ErrDuplicate       = clienterrors.ErrDuplicate
	ErrNotAttached     = clienterrors.ErrNotAttached
	ErrInvalidState    = clienterrors.ErrInvalidState
)

// Errors routed to a Collector's exception handler instead of returned.
type (
	PostFailure    = clienterrors.PostFailure
	QueueFull      = clienterrors.QueueFull
	EncoderFailure = clienterrors.EncoderFailure
)
