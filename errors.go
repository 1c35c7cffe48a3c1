package desmod

import (
	"errors"
	"fmt"
)

// InvalidArgumentError reports a synchronously-rejected bad argument: a
// negative delay, a non-positive or too-large amount, an empty condition,
// and similar. No state is changed before this is returned.
type InvalidArgumentError struct {
	Message string
	Cause   error
}

func (e *InvalidArgumentError) Error() string {
	if e.Message == "" {
		return "desmod: invalid argument"
	}
	return "desmod: invalid argument: " + e.Message
}

// Unwrap returns the underlying cause for use with errors.Is and errors.As.
func (e *InvalidArgumentError) Unwrap() error { return e.Cause }

// InvalidStateError reports a synchronously-rejected illegal operation:
// double-triggering an Event, adding a callback to a processed Event, a
// cross-Environment Event, a coroutine yielding a non-Event, or peeking an
// empty container.
type InvalidStateError struct {
	Message string
	Cause   error
}

func (e *InvalidStateError) Error() string {
	if e.Message == "" {
		return "desmod: invalid state"
	}
	return "desmod: invalid state: " + e.Message
}

// Unwrap returns the underlying cause for use with errors.Is and errors.As.
func (e *InvalidStateError) Unwrap() error { return e.Cause }

// OverflowError reports a hard-capped Pool or Queue put that would exceed
// capacity. It is raised from the operation that attempted the put; the
// offending amount is never applied, so the container is left in a
// consistent state.
type OverflowError struct {
	Container string
	Amount    float64
	Capacity  float64
}

func (e *OverflowError) Error() string {
	name := e.Container
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("desmod: overflow: %s: amount %g exceeds remaining capacity (capacity %g)", name, e.Amount, e.Capacity)
}

// UserFailure is the error the kernel builds when a ProcessFunc panics, or
// when Event.Fail is given a nil cause. Non-nil causes passed to Event.Fail
// or returned from a ProcessFunc propagate as they are, not wrapped in a
// UserFailure. The Event field, when set, names the Event whose failure
// originated the chain; the kernel's own UserFailures leave it nil.
type UserFailure struct {
	Cause   error
	Event   *Event
	Message string
}

func (e *UserFailure) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return "desmod: user failure: " + e.Cause.Error()
	}
	return "desmod: user failure"
}

// Unwrap returns the originating cause for use with errors.Is and errors.As.
func (e *UserFailure) Unwrap() error { return e.Cause }

// InterruptError is a distinguished UserFailure delivered by
// Process.Interrupt. Coroutines can use errors.As to detect an interrupt
// specifically and choose to recover from it, as opposed to any other
// failure delivered through the event graph.
type InterruptError struct {
	Cause error
}

func (e *InterruptError) Error() string {
	if e.Cause == nil {
		return "desmod: interrupted"
	}
	return "desmod: interrupted: " + e.Cause.Error()
}

// Unwrap returns the interrupt's cause for use with errors.Is and errors.As.
func (e *InterruptError) Unwrap() error { return e.Cause }

// Is reports whether target is also an *InterruptError, regardless of the
// wrapped cause. This mirrors the teacher package's AggregateError.Is shape.
func (e *InterruptError) Is(target error) bool {
	var ie *InterruptError
	return errors.As(target, &ie)
}

// WrapError wraps an error with a message, producing a result that
// satisfies errors.Is(result, cause).
func WrapError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}
