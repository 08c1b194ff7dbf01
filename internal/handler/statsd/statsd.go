// Package statsd implements the StatsD/DogStatsD UDP text encoder (§6.1):
// one line per reading, metadata silently dropped (the format has no
// representation for it).
package statsd

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/orbitmetrics/client/internal/handler"
	"github.com/orbitmetrics/client/internal/reading"
)

// Encoder writes DogStatsD-style UDP lines to a remote host:port. A nil or
// empty Addr discards every payload silently.
type Encoder struct {
	Addr string

	conn net.Conn
}

// New constructs an Encoder targeting addr ("host:port"). An empty addr is
// valid and causes SendAsync to discard data.
func New(addr string) *Encoder {
	return &Encoder{Addr: addr}
}

var _ handler.Encoder = (*Encoder)(nil)

// statsdType returns "c" for counters and "g" for every gauge-shaped
// reading kind, per the DogStatsD wire vocabulary.
func statsdType(k reading.Kind) string {
	if k == reading.Counter || k == reading.CumulativeCounter {
		return "c"
	}
	return "g"
}

// SerializeMetric writes one line: name:value|{c|g}|#tag1:val1,...
// name is the reading's Name as given (an aggregate gauge's suffix such as
// "_avg" is already part of it). Value is formatted fixed-point with 5
// decimal digits.
func (e *Encoder) SerializeMetric(w io.Writer, r reading.Reading) error {
	var sb strings.Builder
	sb.WriteString(r.Name)
	sb.WriteByte(':')
	sb.WriteString(strconv.FormatFloat(r.Value, 'f', 5, 64))
	sb.WriteByte('|')
	sb.WriteString(statsdType(r.Kind))
	if len(r.Tags) > 0 {
		sb.WriteString("|#")
		for i, t := range r.Tags {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(t.Name)
			sb.WriteByte(':')
			sb.WriteString(t.Value)
		}
	}
	sb.WriteByte('\n')
	_, err := io.WriteString(w, sb.String())
	return err
}

// SerializeMetadata is a no-op: StatsD has no metadata wire representation.
func (e *Encoder) SerializeMetadata(io.Writer, reading.Metadata) error { return nil }

// PrepareSequence returns buf unchanged; each line is already
// self-delimited with a trailing newline.
func (e *Encoder) PrepareSequence(buf []byte, _ handler.PayloadType) []byte { return buf }

// SendAsync writes buf as a single UDP datagram. DogStatsD receivers expect
// one or more newline-separated metric lines per datagram.
func (e *Encoder) SendAsync(_ context.Context, payloadType handler.PayloadType, buf []byte) error {
	if e.Addr == "" || payloadType == handler.PayloadMetadata {
		return nil
	}
	if e.conn == nil {
		conn, err := net.Dial("udp", e.Addr)
		if err != nil {
			return &handler.TransportError{Retriable: true, Cause: err}
		}
		e.conn = conn
	}
	if _, err := e.conn.Write(buf); err != nil {
		return &handler.TransportError{Retriable: true, Cause: fmt.Errorf("statsd: write: %w", err)}
	}
	return nil
}
