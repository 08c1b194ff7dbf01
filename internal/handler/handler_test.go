package handler

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"testing"

	"github.com/orbitmetrics/client/internal/reading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEncoder is a minimal line-oriented encoder for handler tests: one
// line per reading/metadata fact, trailer trimming is a no-op, and sends
// are recorded (or made to fail) under test control.
type fakeEncoder struct {
	mu        sync.Mutex
	sent      [][]byte
	failN     int // number of leading SendAsync calls that fail
	retriable bool
}

func (e *fakeEncoder) SerializeMetric(w io.Writer, r reading.Reading) error {
	_, err := fmt.Fprintf(w, "%s=%v\n", r.Name, r.Value)
	return err
}

func (e *fakeEncoder) SerializeMetadata(w io.Writer, m reading.Metadata) error {
	_, err := fmt.Fprintf(w, "%s:%s=%s\n", m.Metric, m.Kind, m.Value)
	return err
}

func (e *fakeEncoder) PrepareSequence(buf []byte, _ PayloadType) []byte { return buf }

func (e *fakeEncoder) SendAsync(_ context.Context, _ PayloadType, buf []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failN > 0 {
		e.failN--
		return &TransportError{Retriable: e.retriable, Cause: fmt.Errorf("boom")}
	}
	cp := make([]byte, len(buf))
	copy(cp, buf)
	e.sent = append(e.sent, cp)
	return nil
}

func (e *fakeEncoder) sentCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sent)
}

func TestBatchSealsOnMaxSize(t *testing.T) {
	enc := &fakeEncoder{}
	h := New(enc, 10, 10)
	b := h.BeginBatch(nil)
	b.AddReading(reading.Reading{Name: "abcdefghijklmnop", Value: 1})
	b.Close()

	assert.Equal(t, 1, h.readings.pendingLen())
}

func TestFlushSendsSealedPayloadsInOrder(t *testing.T) {
	enc := &fakeEncoder{}
	h := New(enc, 1<<20, 10)
	b := h.BeginBatch(nil)
	b.AddReading(reading.Reading{Name: "a", Value: 1})
	b.Close()
	b2 := h.BeginBatch(nil)
	b2.AddReading(reading.Reading{Name: "b", Value: 2})
	b2.Close()

	require.Equal(t, 2, h.readings.pendingLen())

	var afterSendMu sync.Mutex
	afterSendCount := 0
	h.FlushAsync(context.Background(), time.Millisecond, 3, func(info AfterSendInfo, err error) {
		afterSendMu.Lock()
		afterSendCount++
		afterSendMu.Unlock()
	}, nil)

	assert.Equal(t, 0, h.readings.pendingLen())
	require.Equal(t, 2, enc.sentCount())
	assert.Contains(t, string(enc.sent[0]), "a=1")
	assert.Contains(t, string(enc.sent[1]), "b=2")
}

func TestFlushRetriesRetriableFailureThenSucceeds(t *testing.T) {
	enc := &fakeEncoder{failN: 2, retriable: true}
	h := New(enc, 1<<20, 10)
	b := h.BeginBatch(nil)
	b.AddReading(reading.Reading{Name: "a", Value: 1})
	b.Close()

	h.FlushAsync(context.Background(), time.Millisecond, 5, nil, nil)

	assert.Equal(t, 0, h.readings.pendingLen())
	assert.Equal(t, 1, enc.sentCount())
}

func TestFlushFatalFailureDropsPayloadWithoutRetry(t *testing.T) {
	enc := &fakeEncoder{failN: 1, retriable: false}
	h := New(enc, 1<<20, 10)
	b := h.BeginBatch(nil)
	b.AddReading(reading.Reading{Name: "a", Value: 1})
	b.Close()

	var exceptions []error
	h.FlushAsync(context.Background(), time.Millisecond, 5, nil, func(err error) {
		exceptions = append(exceptions, err)
	})

	require.Len(t, exceptions, 1)
	assert.Equal(t, 0, enc.sentCount())
	// A fatal failure drops the payload instead of re-enqueuing it.
	assert.Equal(t, 0, h.readings.pendingLen())
}

func TestOverflowDropsOldestPayload(t *testing.T) {
	enc := &fakeEncoder{}
	h := New(enc, 1, 1) // seal on every write; keep at most one pending

	var exceptions []error
	b := h.BeginBatch(func(err error) { exceptions = append(exceptions, err) })
	b.AddReading(reading.Reading{Name: "a", Value: 1})
	b.AddReading(reading.Reading{Name: "b", Value: 2})
	b.Close()

	require.NotEmpty(t, exceptions)
	assert.Equal(t, 1, h.readings.pendingLen())
}
