// Package opentsdb implements the OpenTSDB-style JSON HTTP encoder (§6.1):
// gzip-compressed JSON arrays of point objects posted to {baseURL}/api/put,
// with metadata posted uncompressed to {baseURL}/api/metadata/put.
package opentsdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/klauspost/compress/gzip"
	"github.com/orbitmetrics/client/internal/handler"
	"github.com/orbitmetrics/client/internal/reading"
)

// point is the wire shape of one OpenTSDB-style reading.
type point struct {
	Metric    string            `json:"metric"`
	Value     float64           `json:"value"`
	Tags      map[string]string `json:"tags"`
	Timestamp int64             `json:"timestamp"`
}

// metadataFact is the wire shape of one metadata POST body.
type metadataFact struct {
	Metric string            `json:"metric"`
	Kind   string            `json:"kind"`
	Tags   map[string]string `json:"tags,omitempty"`
	Value  string            `json:"value"`
}

// Encoder posts to an OpenTSDB-compatible HTTP endpoint. A nil or empty
// BaseURL discards every payload silently.
type Encoder struct {
	BaseURL string
	Client  *http.Client
}

// New constructs an Encoder targeting baseURL using http.DefaultClient. An
// empty baseURL is valid and causes SendAsync to discard data.
func New(baseURL string) *Encoder {
	return &Encoder{BaseURL: baseURL, Client: http.DefaultClient}
}

var _ handler.Encoder = (*Encoder)(nil)

func tagsOf(t reading.Tags) map[string]string {
	if len(t) == 0 {
		return nil
	}
	m := make(map[string]string, len(t))
	for _, tag := range t {
		m[tag.Name] = tag.Value
	}
	return m
}

// SerializeMetric writes one comma-separated JSON point object. The caller
// (payloadBuffer) is responsible for wrapping the accumulated sequence in
// array brackets via PrepareSequence.
func (e *Encoder) SerializeMetric(w io.Writer, r reading.Reading) error {
	b, err := json.Marshal(point{
		Metric:    r.Name,
		Value:     r.Value,
		Tags:      tagsOf(r.Tags),
		Timestamp: r.Timestamp.UnixMilli(),
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s,", b)
	return err
}

// SerializeMetadata writes one comma-separated JSON metadata object.
func (e *Encoder) SerializeMetadata(w io.Writer, m reading.Metadata) error {
	b, err := json.Marshal(metadataFact{
		Metric: m.Metric,
		Kind:   string(m.Kind),
		Tags:   tagsOf(m.Tags),
		Value:  m.Value,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s,", b)
	return err
}

// PrepareSequence trims the trailing comma left by the last serialized
// element and wraps the sequence in a JSON array.
func (e *Encoder) PrepareSequence(buf []byte, _ handler.PayloadType) []byte {
	buf = bytes.TrimSuffix(buf, []byte(","))
	out := make([]byte, 0, len(buf)+2)
	out = append(out, '[')
	out = append(out, buf...)
	out = append(out, ']')
	return out
}

// SendAsync posts buf to /api/put (gzip-compressed) for readings, or to
// /api/metadata/put (uncompressed) for metadata. A 4xx response is fatal; a
// 5xx or transport-level failure is retriable.
func (e *Encoder) SendAsync(ctx context.Context, payloadType handler.PayloadType, buf []byte) error {
	if e.BaseURL == "" {
		return nil
	}

	path := "/api/put"
	body := io.Reader(bytes.NewReader(buf))
	var gzipped bytes.Buffer
	contentEncoding := ""
	if payloadType == handler.PayloadReadings {
		gw := gzip.NewWriter(&gzipped)
		if _, err := gw.Write(buf); err != nil {
			return &handler.TransportError{Retriable: false, Cause: err}
		}
		if err := gw.Close(); err != nil {
			return &handler.TransportError{Retriable: false, Cause: err}
		}
		body = &gzipped
		contentEncoding = "gzip"
	} else {
		path = "/api/metadata/put"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+path, body)
	if err != nil {
		return &handler.TransportError{Retriable: false, Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if contentEncoding != "" {
		req.Header.Set("Content-Encoding", contentEncoding)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return &handler.TransportError{Retriable: true, Cause: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 500:
		return &handler.TransportError{Retriable: true, Cause: fmt.Errorf("opentsdb: server error %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		return &handler.TransportError{Retriable: false, Cause: fmt.Errorf("opentsdb: client error %d", resp.StatusCode)}
	}
	return nil
}
