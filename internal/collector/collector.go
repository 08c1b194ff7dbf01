// Package collector implements the Collector (§4.6): it owns the endpoints
// and runs the two independent background loops (snapshot and flush) that
// drive every registered source's readings and metadata to every endpoint.
package collector

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/orbitmetrics/client/internal/config"
	"github.com/orbitmetrics/client/internal/errors"
	"github.com/orbitmetrics/client/internal/handler"
	"github.com/orbitmetrics/client/internal/log"
	"github.com/orbitmetrics/client/internal/reading"
	"github.com/orbitmetrics/client/internal/source"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// metadataFlushInterval is the upper bound on how long metadata can go
// unflushed even with no new registrations, per §4.6 step 6.
const metadataFlushInterval = 24 * time.Hour

// AfterSerializationInfo is passed to the AfterSerialization hook once per
// snapshot tick.
type AfterSerializationInfo struct {
	MetricsWritten int
	Duration       time.Duration
	StartTime      time.Time
}

// Endpoint pairs a handler with the identity the collector uses to log and
// report errors about it.
type Endpoint struct {
	Name    string
	Handler *handler.Handler
}

// Options configures a Collector. Zero-value durations fall back to their
// documented defaults.
type Options struct {
	SnapshotInterval time.Duration
	FlushInterval    time.Duration
	RetryInterval    time.Duration
	RetryCount       int
	ThrowOnPostFail  bool
	ThrowOnQueueFull bool

	BeforeSerialization func()
	AfterSerialization  func(AfterSerializationInfo)
	AfterSend           func(handler.AfterSendInfo, error)
	ExceptionHandler    func(error)
}

// OptionsFromConfig seeds an Options from a loaded config.Config, the
// environment/YAML-backed configuration layer (METRICS_SNAPSHOT_INTERVAL
// and friends). Hooks (BeforeSerialization, AfterSend, ...) aren't
// configuration and must be set on the returned Options afterward.
func OptionsFromConfig(c *config.Config) Options {
	return Options{
		SnapshotInterval: time.Duration(c.GetSnapshotInterval()) * time.Second,
		FlushInterval:    time.Duration(c.GetFlushInterval()) * time.Second,
		RetryInterval:    time.Duration(c.GetRetryInterval()) * time.Second,
		RetryCount:       c.GetRetryCount(),
		ThrowOnPostFail:  c.GetThrowOnPostFail(),
		ThrowOnQueueFull: c.GetThrowOnQueueFull(),
	}
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.SnapshotInterval <= 0 {
		out.SnapshotInterval = 30 * time.Second
	}
	if out.FlushInterval <= 0 {
		out.FlushInterval = time.Second
	}
	if out.RetryInterval <= 0 {
		out.RetryInterval = 5 * time.Second
	}
	if out.RetryCount <= 0 {
		out.RetryCount = 3
	}
	return out
}

// Collector owns a set of sources and endpoints and drives readings and
// metadata between them on two independent periodic loops.
type Collector struct {
	id        uuid.UUID
	opts      Options
	sources   []*source.Source
	endpoints []Endpoint

	hasNewMetadata        atomic.Bool
	lastMetadataFlushTime time.Time
	mu                    sync.Mutex // guards lastMetadataFlushTime

	cancel  context.CancelFunc
	group   *errgroup.Group
	stopped bool
	started bool
}

// New constructs a Collector over endpoints (in registration order — flush
// drains endpoints in this order) with no sources attached yet. Use
// AddSource to attach sources; since a Source is constructed with its
// registration callback up front, a Collector generally exists before the
// Sources that report to it.
func New(opts Options, endpoints []Endpoint) *Collector {
	return &Collector{
		id:        uuid.New(),
		opts:      opts.withDefaults(),
		endpoints: endpoints,
	}
}

// ID identifies this collector instance, e.g. for inclusion in diagnostic
// event payloads.
func (c *Collector) ID() uuid.UUID { return c.id }

// AddSource attaches src to this collector's snapshot and metadata passes.
// Pass c.OnSourceRegistered as src's onRegistered callback so a new
// registration forces an out-of-cycle metadata flush on the next tick.
func (c *Collector) AddSource(src *source.Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources = append(c.sources, src)
}

// OnSourceRegistered is the callback a Source's onRegistered hook should
// invoke, setting the edge-triggered flag that forces an out-of-cycle
// metadata flush on the next snapshot tick.
func (c *Collector) OnSourceRegistered() { c.hasNewMetadata.Store(true) }

// Start begins the snapshot and flush loops. It is safe to call only once;
// a subsequent Start without an intervening Stop has no effect beyond the
// first call's.
func (c *Collector) Start(ctx context.Context) {
	if c.started {
		return
	}
	c.started = true

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	group, gctx := errgroup.WithContext(ctx)
	c.group = group

	group.Go(func() error {
		c.snapshotLoop(gctx)
		return nil
	})
	group.Go(func() error {
		c.flushLoop(gctx)
		return nil
	})
}

// Stop cancels both loops, disposes every endpoint (draining its active
// buffer and sending any remaining payload once, without retry), and
// returns once both loops have exited. Calling Stop without a prior Start
// fails with ErrInvalidState.
func (c *Collector) Stop(ctx context.Context) error {
	if !c.started || c.stopped {
		return errors.ErrInvalidState
	}
	c.stopped = true

	c.cancel()
	_ = c.group.Wait()

	var err error
	for _, ep := range c.endpoints {
		if disposeErr := ep.Handler.Dispose(ctx); disposeErr != nil {
			err = multierr.Append(err, disposeErr)
		}
	}
	return err
}

func (c *Collector) snapshotLoop(ctx context.Context) {
	ticker := time.NewTicker(c.opts.SnapshotInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.snapshotOnce(ctx)
		}
	}
}

func (c *Collector) snapshotOnce(ctx context.Context) {
	start := time.Now()
	c.safeCall(c.opts.BeforeSerialization)

	now := time.Now()
	batches := make([]*handler.Batch, len(c.endpoints))
	for i, ep := range c.endpoints {
		batches[i] = ep.Handler.BeginBatch(c.dispatchException)
	}
	fanout := &fanOutBatch{batches: batches}

	sources := c.sourcesSnapshot()

	metricsWritten := 0
	countingBatch := &countingBatch{inner: fanout, count: &metricsWritten}
	for _, src := range sources {
		src.WriteReadings(countingBatch, now)
	}
	for _, b := range batches {
		b.Close()
	}

	if c.hasNewMetadata.Swap(false) || c.metadataDue(now) {
		var facts []reading.Metadata
		for _, src := range sources {
			facts = append(facts, src.GetMetadata()...)
		}
		for _, ep := range c.endpoints {
			ep.Handler.SerializeMetadata(facts, c.dispatchException)
		}
		c.mu.Lock()
		c.lastMetadataFlushTime = now
		c.mu.Unlock()
	}

	if c.opts.AfterSerialization != nil {
		info := AfterSerializationInfo{MetricsWritten: metricsWritten, Duration: time.Since(start), StartTime: start}
		c.safeCall(func() { c.opts.AfterSerialization(info) })
	}
}

func (c *Collector) sourcesSnapshot() []*source.Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*source.Source, len(c.sources))
	copy(out, c.sources)
	return out
}

func (c *Collector) metadataDue(now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastMetadataFlushTime.IsZero() || now.Sub(c.lastMetadataFlushTime) >= metadataFlushInterval
}

func (c *Collector) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(c.opts.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.flushOnce(ctx)
		}
	}
}

func (c *Collector) flushOnce(ctx context.Context) {
	var afterSend handler.AfterSendFunc
	if c.opts.AfterSend != nil {
		afterSend = func(info handler.AfterSendInfo, err error) {
			c.safeCall(func() { c.opts.AfterSend(info, err) })
		}
	}
	for _, ep := range c.endpoints {
		select {
		case <-ctx.Done():
			return
		default:
		}
		ep.Handler.FlushAsync(ctx, c.opts.RetryInterval, c.opts.RetryCount, afterSend, c.dispatchException)
	}
}

// dispatchException routes a background error through the user-supplied
// handler, gated by throwOnPostFail / throwOnQueueFull.
func (c *Collector) dispatchException(err error) {
	switch err.(type) {
	case *errors.PostFailure:
		if !c.opts.ThrowOnPostFail {
			return
		}
	case *errors.QueueFull:
		if !c.opts.ThrowOnQueueFull {
			return
		}
	}
	if c.opts.ExceptionHandler != nil {
		c.safeCall(func() { c.opts.ExceptionHandler(err) })
	} else {
		log.Warningf("metrics collector %s: %v", c.id, err)
	}
}

// safeCall invokes fn, recovering and logging a panic rather than letting a
// failing listener crash a background loop.
func (c *Collector) safeCall(fn func()) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("metrics collector %s: listener panic: %v", c.id, r)
		}
	}()
	fn()
}

// fanOutBatch fans AddReading out to every endpoint's batch, per §4.6 step
// 4 ("compositeBatch fans out to every endpoint's batch").
type fanOutBatch struct {
	batches []*handler.Batch
}

func (f *fanOutBatch) AddReading(r reading.Reading) {
	for _, b := range f.batches {
		b.AddReading(r)
	}
}

// countingBatch wraps a Batch to count distinct readings produced in one
// tick, for AfterSerializationInfo.MetricsWritten.
type countingBatch struct {
	inner reading.Batch
	count *int
}

func (c *countingBatch) AddReading(r reading.Reading) {
	*c.count++
	c.inner.AddReading(r)
}
