// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package desmod implements a deterministic, single-threaded discrete-event
// simulation kernel: a virtual-time clock and event queue, the Event/Process
// coroutine model that synchronizes on it, and the Resource, Store, Queue,
// and Pool primitives built on top.
//
// # Architecture
//
// An [Environment] owns the virtual clock and a min-heap of scheduled
// (time, priority, sequence) entries. [Event] is the base synchronization
// primitive: pending, then triggered with either a success value or a
// failure cause, at which point its registered callbacks fire in
// registration order during a single [Environment.Step]. [Process] drives a
// [ProcessFunc] coroutine (realized as a goroutine rendezvousing on
// unbuffered channels, so at most one goroutine ever runs at a time) that
// suspends by yielding an [Event] and resumes with its outcome.
//
// [Resource] and [Store] add waiter queues around capacity-bounded
// allocation. [Queue] and [Pool] extend that shape with threshold events
// (WhenAny, WhenFull, WhenEmpty, WhenAtLeast, WhenAtMost) and priority
// variants: a priority Queue dequeues items by a caller-supplied ordering
// (its put/get waiters stay FIFO), and a priority Pool serves its waiters
// with strict (priority, insertion-order) discipline.
//
// # Determinism
//
// Given identical construction order and identical values returned by
// [Environment.Rand], the fire order of every event is fully determined by
// (time, priority, insertion sequence). No primitive in this package uses a
// mutex: the scheduler never runs two callbacks concurrently, so none is
// needed (see [Environment.Run]).
//
// # Logging
//
// Environments carry a structured logger
// (github.com/joeycumines/logiface, backed by
// github.com/joeycumines/stumpy) that traces scheduler steps and
// process/container lifecycle events at Debug/Informational level. See
// [WithLogger] and [WithLogWriter].
//
// # Error types
//
// [InvalidArgumentError] and [InvalidStateError] are returned synchronously
// by the operation that produced the bad input. [OverflowError] is returned
// by a hard-capped Pool/Queue put that would exceed capacity. [UserFailure]
// is built for a panicking [ProcessFunc] or an [Event.Fail] given a nil
// cause; other causes propagate unwrapped. [InterruptError] is a
// distinguished [UserFailure] delivered by [Process.Interrupt]. All
// implement [error]; all but [OverflowError], which carries no cause, also
// implement Unwrap, for use with errors.Is/errors.As.
package desmod
