package opentsdb

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/orbitmetrics/client/internal/handler"
	"github.com/orbitmetrics/client/internal/reading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeMetricAndPrepareSequence(t *testing.T) {
	e := New("")
	var buf bytes.Buffer
	now := time.UnixMilli(1700000000000)

	require.NoError(t, e.SerializeMetric(&buf, reading.Reading{
		Name: "requests", Value: 3, Tags: reading.Tags{{Name: "host", Value: "a"}}, Timestamp: now,
	}))
	require.NoError(t, e.SerializeMetric(&buf, reading.Reading{Name: "errors", Value: 1, Timestamp: now}))

	seq := e.PrepareSequence(buf.Bytes(), handler.PayloadReadings)
	assert.True(t, bytes.HasPrefix(seq, []byte("[")))
	assert.True(t, bytes.HasSuffix(seq, []byte("]")))
	assert.Contains(t, string(seq), `"metric":"requests"`)
	assert.Contains(t, string(seq), `"metric":"errors"`)
	assert.NotContains(t, string(seq), ",]")
}

func TestSendAsyncWithEmptyBaseURLDiscardsSilently(t *testing.T) {
	e := New("")
	err := e.SendAsync(context.Background(), handler.PayloadReadings, []byte("[]"))
	assert.NoError(t, err)
}
