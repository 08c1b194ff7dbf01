package handler

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/orbitmetrics/client/internal/errors"
	"github.com/orbitmetrics/client/internal/log"
	"github.com/orbitmetrics/client/internal/reading"
)

// AfterSendInfo is passed to the AfterSend hook once per payload sent.
type AfterSendInfo struct {
	PayloadType PayloadType
	BytesSent   int
}

// AfterSendFunc observes a successful or failed send attempt. It runs on a
// goroutine separate from the flush loop so listener latency cannot stall
// draining.
type AfterSendFunc func(info AfterSendInfo, err error)

// ExceptionFunc receives background errors (PostFailure, QueueFull,
// EncoderFailure) per the collector's throwOnPostFail/throwOnQueueFull gate.
type ExceptionFunc func(err error)

// Handler buffers readings and metadata for one endpoint and drains them to
// a concrete Encoder, decoupling serialization from network I/O.
type Handler struct {
	encoder Encoder

	readings *payloadBuffer
	metadata *payloadBuffer
}

// New constructs a Handler over encoder with the given seal/overflow
// thresholds.
func New(encoder Encoder, maxPayloadSize, maxPayloadCount int) *Handler {
	return &Handler{
		encoder:  encoder,
		readings: newPayloadBuffer(PayloadReadings, encoder, maxPayloadSize, maxPayloadCount),
		metadata: newPayloadBuffer(PayloadMetadata, encoder, maxPayloadSize, maxPayloadCount),
	}
}

// Batch accepts readings for one snapshot tick into the readings buffer.
// Batch implements reading.Batch.
type Batch struct {
	h          *Handler
	onOverflow ExceptionFunc
}

var _ reading.Batch = (*Batch)(nil)

// AddReading serializes r and appends it to the active readings buffer,
// sealing (and possibly dropping the oldest pending payload) as needed.
func (b *Batch) AddReading(r reading.Reading) {
	var buf bufWriter
	if err := b.h.encoder.SerializeMetric(&buf, r); err != nil {
		if b.onOverflow != nil {
			b.onOverflow(&errors.EncoderFailure{MetricName: r.Name, Cause: err})
		}
		return
	}
	if overflow := b.h.readings.Write(buf.Bytes()); overflow != nil && b.onOverflow != nil {
		b.onOverflow(overflow)
	}
}

// Close seals whatever remains in the active readings buffer into a
// pending payload.
func (b *Batch) Close() {
	if overflow := b.h.readings.sealActive(); overflow != nil && b.onOverflow != nil {
		b.onOverflow(overflow)
	}
}

// BeginBatch returns a Batch that accepts readings for one snapshot tick.
// onOverflow, if non-nil, is invoked synchronously for any EncoderFailure
// or QueueFull raised while appending.
func (h *Handler) BeginBatch(onOverflow ExceptionFunc) *Batch {
	return &Batch{h: h, onOverflow: onOverflow}
}

// SerializeMetadata writes every fact in facts into the metadata buffer.
func (h *Handler) SerializeMetadata(facts []reading.Metadata, onOverflow ExceptionFunc) {
	for _, m := range facts {
		var buf bufWriter
		if err := h.encoder.SerializeMetadata(&buf, m); err != nil {
			if onOverflow != nil {
				onOverflow(&errors.EncoderFailure{MetricName: m.Metric, Cause: err})
			}
			continue
		}
		if overflow := h.metadata.Write(buf.Bytes()); overflow != nil && onOverflow != nil {
			onOverflow(overflow)
		}
	}
	if overflow := h.metadata.sealActive(); overflow != nil && onOverflow != nil {
		onOverflow(overflow)
	}
}

// FlushAsync drains every pending payload across both buffer types, in
// readings-then-metadata stable order, making at most retryCount send
// attempts per payload with retryInterval between attempts. A payload that
// still fails is re-enqueued at the head if the failure was retriable and
// dropped if it was fatal. onAfterSend is dispatched on its own goroutine
// per payload; onException receives PostFailure events for the collector's
// exception policy.
func (h *Handler) FlushAsync(ctx context.Context, retryInterval time.Duration, retryCount int, onAfterSend AfterSendFunc, onException ExceptionFunc) {
	for _, buf := range []*payloadBuffer{h.readings, h.metadata} {
		h.drain(ctx, buf, retryInterval, retryCount, onAfterSend, onException)
	}
}

func (h *Handler) drain(ctx context.Context, buf *payloadBuffer, retryInterval time.Duration, retryCount int, onAfterSend AfterSendFunc, onException ExceptionFunc) {
	for {
		payload := buf.popPending()
		if payload == nil {
			return
		}

		_, err := backoff.Retry(ctx, func() (struct{}, error) {
			sendErr := h.encoder.SendAsync(ctx, buf.payloadType, payload)
			if sendErr == nil {
				return struct{}{}, nil
			}
			var te *TransportError
			if asTransportError(sendErr, &te) && !te.Retriable {
				return struct{}{}, backoff.Permanent(sendErr)
			}
			return struct{}{}, sendErr
		}, backoff.WithBackOff(backoff.NewConstantBackOff(retryInterval)), backoff.WithMaxTries(uint(retryCount)))

		info := AfterSendInfo{PayloadType: buf.payloadType, BytesSent: len(payload)}
		if err != nil {
			log.Debugf("send failed for payload type %s: %v", buf.payloadType, err)
			retriable := true
			var te *TransportError
			if asTransportError(err, &te) {
				retriable = te.Retriable
			}
			if onException != nil {
				onException(&errors.PostFailure{PayloadType: string(buf.payloadType), Retriable: retriable, Cause: err})
			}
			if retriable {
				buf.pushFront(payload)
			}
			if onAfterSend != nil {
				go onAfterSend(info, err)
			}
			return
		}
		if onAfterSend != nil {
			go onAfterSend(info, nil)
		}
	}
}

func asTransportError(err error, target **TransportError) bool {
	te, ok := err.(*TransportError)
	if ok {
		*target = te
	}
	return ok
}

// Dispose seals any remaining active buffers and sends pending payloads
// once, with no retry, per the collector's shutdown contract.
func (h *Handler) Dispose(ctx context.Context) error {
	h.readings.sealActive()
	h.metadata.sealActive()

	var firstErr error
	for _, buf := range []*payloadBuffer{h.readings, h.metadata} {
		for {
			payload := buf.popPending()
			if payload == nil {
				break
			}
			if err := h.encoder.SendAsync(ctx, buf.payloadType, payload); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// bufWriter is a minimal io.Writer accumulating bytes for one serialized
// record before it's appended to a payloadBuffer.
type bufWriter struct {
	data []byte
}

func (w *bufWriter) Write(p []byte) (int, error) {
	w.data = append(w.data, p...)
	return len(p), nil
}

func (w *bufWriter) Bytes() []byte { return w.data }
