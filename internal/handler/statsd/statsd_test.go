package statsd

import (
	"bytes"
	"context"
	"testing"

	"github.com/orbitmetrics/client/internal/handler"
	"github.com/orbitmetrics/client/internal/reading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeMetricFormatsFixedPointWithTags(t *testing.T) {
	e := New("")
	var buf bytes.Buffer
	require.NoError(t, e.SerializeMetric(&buf, reading.Reading{
		Name:  "requests",
		Value: 3,
		Kind:  reading.Counter,
		Tags:  reading.Tags{{Name: "host", Value: "a"}, {Name: "env", Value: "prod"}},
	}))
	assert.Equal(t, "requests:3.00000|c|#host:a,env:prod\n", buf.String())
}

func TestSerializeMetricGaugeType(t *testing.T) {
	e := New("")
	var buf bytes.Buffer
	require.NoError(t, e.SerializeMetric(&buf, reading.Reading{Name: "cpu", Value: 1.5, Kind: reading.Gauge}))
	assert.Equal(t, "cpu:1.50000|g\n", buf.String())
}

func TestSerializeMetadataIsNoop(t *testing.T) {
	e := New("")
	var buf bytes.Buffer
	require.NoError(t, e.SerializeMetadata(&buf, reading.Metadata{Metric: "x", Kind: reading.MetadataDesc, Value: "d"}))
	assert.Empty(t, buf.Bytes())
}

func TestSendAsyncWithEmptyAddrDiscardsSilently(t *testing.T) {
	e := New("")
	err := e.SendAsync(context.Background(), handler.PayloadReadings, []byte("x:1|c\n"))
	assert.NoError(t, err)
}

func TestSendAsyncDropsMetadataPayloadType(t *testing.T) {
	e := New("127.0.0.1:0")
	err := e.SendAsync(context.Background(), handler.PayloadMetadata, []byte("ignored"))
	assert.NoError(t, err)
}
