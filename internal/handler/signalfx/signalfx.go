// Package signalfx implements the SignalFx HTTP encoder (§6.1): one POST
// per sealed payload, JSON-encoded; metadata is dropped, matching §6.1's
// "metadata dropped" contract for this sink.
package signalfx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/orbitmetrics/client/internal/handler"
	"github.com/orbitmetrics/client/internal/reading"
)

// datapoint is the wire shape of one SignalFx-style reading, encoded as
// plain JSON (the real SignalFx ingest API is protobuf; no protobuf
// dependency is available in this build, so this sink emits an
// equivalent JSON body instead).
type datapoint struct {
	Metric     string            `json:"metric"`
	Value      float64           `json:"value"`
	Dimensions map[string]string `json:"dimensions,omitempty"`
	Timestamp  int64             `json:"timestamp"`
	MetricType string            `json:"metricType"`
}

func metricType(k reading.Kind) string {
	switch k {
	case reading.Counter:
		return "counter"
	case reading.CumulativeCounter:
		return "cumulative_counter"
	default:
		return "gauge"
	}
}

// Encoder posts JSON datapoint arrays to a SignalFx-compatible ingest
// endpoint. A nil or empty BaseURL discards every payload silently.
type Encoder struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// New constructs an Encoder targeting baseURL, authenticated with token.
func New(baseURL, token string) *Encoder {
	return &Encoder{BaseURL: baseURL, Token: token, Client: http.DefaultClient}
}

var _ handler.Encoder = (*Encoder)(nil)

func dimensionsOf(t reading.Tags) map[string]string {
	if len(t) == 0 {
		return nil
	}
	m := make(map[string]string, len(t))
	for _, tag := range t {
		m[tag.Name] = tag.Value
	}
	return m
}

// SerializeMetric writes one comma-separated JSON datapoint object.
func (e *Encoder) SerializeMetric(w io.Writer, r reading.Reading) error {
	b, err := json.Marshal(datapoint{
		Metric:     r.Name,
		Value:      r.Value,
		Dimensions: dimensionsOf(r.Tags),
		Timestamp:  r.Timestamp.UnixMilli(),
		MetricType: metricType(r.Kind),
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s,", b)
	return err
}

// SerializeMetadata is a no-op: this sink drops metadata.
func (e *Encoder) SerializeMetadata(io.Writer, reading.Metadata) error { return nil }

// PrepareSequence trims the trailing comma and wraps the sequence in a
// JSON array.
func (e *Encoder) PrepareSequence(buf []byte, _ handler.PayloadType) []byte {
	buf = bytes.TrimSuffix(buf, []byte(","))
	out := make([]byte, 0, len(buf)+2)
	out = append(out, '[')
	out = append(out, buf...)
	out = append(out, ']')
	return out
}

// SendAsync posts buf as the request body. Metadata payloads are dropped
// without a request, matching this sink's "metadata dropped" contract.
func (e *Encoder) SendAsync(ctx context.Context, payloadType handler.PayloadType, buf []byte) error {
	if e.BaseURL == "" || payloadType == handler.PayloadMetadata {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+"/v2/datapoint", bytes.NewReader(buf))
	if err != nil {
		return &handler.TransportError{Retriable: false, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if e.Token != "" {
		req.Header.Set("X-SF-Token", e.Token)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return &handler.TransportError{Retriable: true, Cause: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 500:
		return &handler.TransportError{Retriable: true, Cause: fmt.Errorf("signalfx: server error %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		return &handler.TransportError{Retriable: false, Cause: fmt.Errorf("signalfx: client error %d", resp.StatusCode)}
	}
	return nil
}
