// Package handler implements the Buffered Handler (§4.5): a per-payload-type
// buffer that decouples fast, lock-held serialization from slow network
// I/O, plus the encoder contract concrete wire-format sinks satisfy.
package handler

import (
	"context"
	"io"

	"github.com/orbitmetrics/client/internal/reading"
)

// PayloadType distinguishes the buffer families a handler maintains.
// Readings and metadata are always serialized into separate buffers so a
// format with no metadata representation (StatsD) can simply leave that
// buffer empty.
type PayloadType string

const (
	PayloadReadings PayloadType = "readings"
	PayloadMetadata PayloadType = "metadata"
)

// TransportError is returned by Encoder.SendAsync. Retriable distinguishes
// a transient failure (network error, 5xx) that should be retried from a
// fatal one (4xx) that drops the payload.
type TransportError struct {
	Retriable bool
	Cause     error
}

func (e *TransportError) Error() string { return e.Cause.Error() }
func (e *TransportError) Unwrap() error { return e.Cause }

// Encoder is the contract a concrete wire format (OpenTSDB, StatsD,
// SignalFx, ...) implements to plug into a Handler.
type Encoder interface {
	// SerializeMetric writes one reading's wire representation to w.
	SerializeMetric(w io.Writer, r reading.Reading) error
	// SerializeMetadata writes one metadata fact's wire representation to w.
	// Formats with no metadata representation (StatsD) may no-op.
	SerializeMetadata(w io.Writer, m reading.Metadata) error
	// PrepareSequence adjusts a sealed buffer's bytes before it becomes a
	// pending payload, e.g. trimming a trailing separator or closing a JSON
	// array. payloadType distinguishes the readings and metadata buffers,
	// which may need different trailer handling.
	PrepareSequence(buf []byte, payloadType PayloadType) []byte
	// SendAsync delivers one sealed payload to the remote sink. A nil
	// baseURL configuration must discard data silently rather than error.
	SendAsync(ctx context.Context, payloadType PayloadType, buf []byte) error
}
