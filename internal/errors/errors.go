// Package errors defines the error kinds raised by the metrics client, per
// the error handling design: registration and update errors are returned
// synchronously to the caller; PostFailure, QueueFull, and EncoderFailure
// are routed to a collector's exception handler instead.
package errors

import "fmt"

// Sentinel errors raised synchronously on the calling goroutine.
var (
	// ErrInvalidName is raised when a metric name fails validation after
	// transformation.
	ErrInvalidName = fmt.Errorf("invalid metric name")
	// ErrInvalidTagName is raised when a tag name fails validation.
	ErrInvalidTagName = fmt.Errorf("invalid tag name")
	// ErrInvalidTagValue is raised when a tag value fails validation.
	ErrInvalidTagValue = fmt.Errorf("invalid tag value")
	// ErrDuplicate is raised when a metric's full key is already bound to a
	// different kind or unit.
	ErrDuplicate = fmt.Errorf("duplicate metric registration")
	// ErrNotAttached is raised when an update targets a metric handle that
	// has been detached. A metric that was constructed but never registered
	// with a source is not detected and accepts updates.
	ErrNotAttached = fmt.Errorf("metric not attached to a source")
	// ErrInvalidState is raised by Collector.Stop when called without a
	// prior Start.
	ErrInvalidState = fmt.Errorf("invalid collector state")
)

// PostFailure is raised by a transport when a send to the remote sink
// fails. Retriable is true for transport/5xx failures that should be
// retried; false (e.g. 4xx) indicates the payload was dropped.
type PostFailure struct {
	PayloadType string
	Retriable   bool
	Cause       error
}

func (e *PostFailure) Error() string {
	return fmt.Sprintf("post failure (type=%s retriable=%t): %v", e.PayloadType, e.Retriable, e.Cause)
}

func (e *PostFailure) Unwrap() error { return e.Cause }

// QueueFull is raised when a handler's pending-payload queue overflows and
// the oldest payload was dropped to make room for a newer one.
type QueueFull struct {
	PayloadType  string
	MetricsCount int
}

func (e *QueueFull) Error() string {
	return fmt.Sprintf("queue full (type=%s dropped=%d)", e.PayloadType, e.MetricsCount)
}

// EncoderFailure is raised when an encoder refuses to serialize a reading,
// e.g. an unsupported metric type for that sink. The batch continues with
// the remaining readings.
type EncoderFailure struct {
	MetricName string
	Cause      error
}

func (e *EncoderFailure) Error() string {
	return fmt.Sprintf("encoder failure for metric %q: %v", e.MetricName, e.Cause)
}

func (e *EncoderFailure) Unwrap() error { return e.Cause }
