package handler

import (
	"bytes"
	"sync"

	"github.com/orbitmetrics/client/internal/errors"
)

// payloadBuffer holds one payload type's active buffer and pending-payload
// queue, per §4.5's buffer lifecycle. Accumulating writes go straight to
// active; crossing maxPayloadSize seals active into a pending payload via
// PrepareSequence. Draining pops pending in FIFO order; overflow drops the
// oldest pending payload.
type payloadBuffer struct {
	payloadType PayloadType
	encoder     Encoder
	maxSize     int
	maxCount    int

	mu      sync.Mutex
	active  bytes.Buffer
	pending [][]byte
}

func newPayloadBuffer(payloadType PayloadType, encoder Encoder, maxSize, maxCount int) *payloadBuffer {
	return &payloadBuffer{payloadType: payloadType, encoder: encoder, maxSize: maxSize, maxCount: maxCount}
}

// enqueue appends buf to pending, dropping the oldest payload (and raising
// QueueFull) if that would exceed maxCount. Call under b.mu.
func (b *payloadBuffer) enqueue(buf []byte) *errors.QueueFull {
	var overflow *errors.QueueFull
	b.pending = append(b.pending, buf)
	if b.maxCount > 0 && len(b.pending) > b.maxCount {
		dropped := b.pending[0]
		b.pending = b.pending[1:]
		overflow = &errors.QueueFull{PayloadType: string(b.payloadType), MetricsCount: len(dropped)}
	}
	return overflow
}

// writeLocked appends data to active under b.mu, sealing into pending if
// the threshold is crossed. Returns a QueueFull event if sealing caused an
// overflow drop.
func (b *payloadBuffer) writeLocked(data []byte) *errors.QueueFull {
	b.active.Write(data)
	if b.maxSize > 0 && b.active.Len() >= b.maxSize {
		buf := b.encoder.PrepareSequence(b.active.Bytes(), b.payloadType)
		cp := make([]byte, len(buf))
		copy(cp, buf)
		b.active.Reset()
		return b.enqueue(cp)
	}
	return nil
}

// Write appends pre-serialized bytes to the active buffer, sealing and
// enqueuing (with drop-oldest overflow) as needed.
func (b *payloadBuffer) Write(data []byte) *errors.QueueFull {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writeLocked(data)
}

// sealActive forces whatever remains in active into a pending payload, used
// when closing a batch or disposing a handler at shutdown.
func (b *payloadBuffer) sealActive() *errors.QueueFull {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active.Len() == 0 {
		return nil
	}
	buf := b.encoder.PrepareSequence(b.active.Bytes(), b.payloadType)
	cp := make([]byte, len(buf))
	copy(cp, buf)
	b.active.Reset()
	return b.enqueue(cp)
}

// popPending removes and returns the oldest pending payload, or nil if
// empty.
func (b *payloadBuffer) popPending() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return nil
	}
	buf := b.pending[0]
	b.pending = b.pending[1:]
	return buf
}

// pushFront re-enqueues buf at the head of pending, used to retry a failed
// send without losing FIFO order relative to payloads sealed earlier.
func (b *payloadBuffer) pushFront(buf []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append([][]byte{buf}, b.pending...)
}

func (b *payloadBuffer) pendingLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
