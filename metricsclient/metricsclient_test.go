package metricsclient_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/orbitmetrics/client/internal/handler"
	"github.com/orbitmetrics/client/internal/reading"
	mc "github.com/orbitmetrics/client/metricsclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturingEncoder is a minimal Encoder that joins every sent payload into
// one string, for assertions, without needing a real network sink.
type capturingEncoder struct {
	mu  sync.Mutex
	out string
}

func (e *capturingEncoder) SerializeMetric(w io.Writer, r reading.Reading) error {
	_, err := fmt.Fprintf(w, "%s=%v;", r.Name, r.Value)
	return err
}

func (e *capturingEncoder) SerializeMetadata(w io.Writer, m reading.Metadata) error {
	_, err := fmt.Fprintf(w, "%s:%s;", m.Metric, m.Kind)
	return err
}

func (e *capturingEncoder) PrepareSequence(buf []byte, _ handler.PayloadType) []byte { return buf }

func (e *capturingEncoder) SendAsync(_ context.Context, _ handler.PayloadType, buf []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.out += string(buf)
	return nil
}

func (e *capturingEncoder) sent() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.out
}

// TestEndToEndCounterThroughCollector exercises the whole public surface
// together: a Source registers a Counter, a Collector drains it through a
// Handler to a fake endpoint on its own snapshot/flush loops.
func TestEndToEndCounterThroughCollector(t *testing.T) {
	enc := &capturingEncoder{}
	h := mc.NewHandler(enc, 1<<20, 10)

	c := mc.NewCollector(mc.CollectorOptions{
		SnapshotInterval: 10 * time.Millisecond,
		FlushInterval:    10 * time.Millisecond,
	}, []mc.Endpoint{{Name: "test", Handler: h}})

	src := mc.NewSource(mc.NewOptions(), c.OnSourceRegistered)
	c.AddSource(src)

	requests, err := src.AddCounter("requests", "", "total requests")
	require.NoError(t, err)
	require.NoError(t, requests.Increment(1))

	c.Start(context.Background())
	defer func() { _ = c.Stop(context.Background()) }()

	require.Eventually(t, func() bool {
		return len(enc.sent()) > 0
	}, time.Second, 5*time.Millisecond)

	assert.Contains(t, enc.sent(), "requests=1")
}

func TestAggregatorSpecConstantsRoundTrip(t *testing.T) {
	spec := mc.AggregatorSpec{Kind: mc.Percentile, Percentile: 0.95}
	assert.Equal(t, mc.Percentile, spec.Kind)
}

func TestSentinelErrorsAreReexported(t *testing.T) {
	assert.NotNil(t, mc.ErrInvalidName)
	assert.NotNil(t, mc.ErrDuplicate)
	assert.NotNil(t, mc.ErrInvalidState)
}

func TestOpenTSDBEncoderConstructorReturnsConcreteEncoder(t *testing.T) {
	e := mc.NewOpenTSDBEncoder("")
	require.NotNil(t, e)
}
