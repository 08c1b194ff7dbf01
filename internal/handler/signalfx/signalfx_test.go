package signalfx

import (
	"bytes"
	"context"
	"testing"

	"github.com/orbitmetrics/client/internal/handler"
	"github.com/orbitmetrics/client/internal/reading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeMetricAndPrepareSequence(t *testing.T) {
	e := New("", "")
	var buf bytes.Buffer
	require.NoError(t, e.SerializeMetric(&buf, reading.Reading{Name: "requests", Value: 3, Kind: reading.Counter}))
	seq := e.PrepareSequence(buf.Bytes(), handler.PayloadReadings)
	assert.True(t, bytes.HasPrefix(seq, []byte("[")))
	assert.True(t, bytes.HasSuffix(seq, []byte("]")))
	assert.Contains(t, string(seq), `"metricType":"counter"`)
}

func TestSerializeMetadataDropped(t *testing.T) {
	e := New("", "")
	var buf bytes.Buffer
	require.NoError(t, e.SerializeMetadata(&buf, reading.Metadata{Metric: "x"}))
	assert.Empty(t, buf.Bytes())
}

func TestSendAsyncWithEmptyBaseURLDiscardsSilently(t *testing.T) {
	e := New("", "")
	err := e.SendAsync(context.Background(), handler.PayloadReadings, []byte("[]"))
	assert.NoError(t, err)
}

func TestSendAsyncMetadataAlwaysNoop(t *testing.T) {
	e := New("http://example.invalid", "tok")
	err := e.SendAsync(context.Background(), handler.PayloadMetadata, []byte("ignored"))
	assert.NoError(t, err)
}
