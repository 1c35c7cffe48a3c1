package desmod

import (
	"container/heap"
	"math/rand"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Priority orders entries scheduled for the same virtual time. Urgent
// entries fire before Normal ones; both preserve insertion order among
// themselves via the Environment's sequence counter.
type Priority int

const (
	// Urgent fires before Normal entries scheduled for the same time.
	Urgent Priority = iota
	// Normal is the default scheduling priority.
	Normal
)

// queueEntry is one scheduled (time, priority, sequence, event) tuple, the
// unit the Environment's event heap orders. Grounded on the teacher
// package's timer struct/timerHeap in loop.go, generalized from
// time.Time/real wall-clock delay to a virtual float64 time and an explicit
// Priority tier.
type queueEntry struct {
	time     float64
	priority Priority
	seq      uint64
	event    *Event
}

type eventHeap []*queueEntry

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(*queueEntry)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

// Environment is the simulation kernel: it owns the virtual clock, the
// event heap, and the insertion-sequence and process-id counters that make
// scheduling deterministic. Exactly one Environment should ever own a given
// Event or primitive; see package doc for the single-threaded model.
type Environment struct {
	now       float64
	queue     eventHeap
	seq       uint64
	pidSeq    uint64
	unhandled []error
	log       *logiface.Logger[*stumpy.Event]
	rand      *rand.Rand
	name      string
}

// NewEnvironment constructs an Environment with now == 0.
func NewEnvironment(opts ...EnvOption) *Environment {
	o := resolveEnvOptions(opts)
	env := &Environment{
		log:  o.logger,
		rand: newRand(o.seed),
		name: o.name,
	}
	heap.Init(&env.queue)
	return env
}

// Now returns the current virtual time.
func (env *Environment) Now() float64 { return env.now }

// Name returns the label given to this Environment via WithName, or "".
func (env *Environment) Name() string { return env.name }

// Rand returns the Environment's deterministic random source, seeded via
// WithSeed at construction (default seed 0). Model code should draw all
// randomness through this source to keep runs reproducible, per the
// determinism contract in the package doc.
func (env *Environment) Rand() *rand.Rand { return env.rand }

// withName tags a log entry with this Environment's name, if one was given
// via WithName. Every log call site in this package routes through it so a
// host process running several Environments can tell their log lines apart.
func (env *Environment) withName(b *logiface.Builder[*stumpy.Event]) *logiface.Builder[*stumpy.Event] {
	if env.name == "" {
		return b
	}
	return b.Str("env", env.name)
}

func (env *Environment) nextSeq() uint64 {
	env.seq++
	return env.seq
}

func (env *Environment) nextPID() uint64 {
	env.pidSeq++
	return env.pidSeq
}

func (env *Environment) newEvent() *Event { return newEvent(env) }

// Event returns a new, pending Event owned by this Environment.
func (env *Environment) Event() *Event { return env.newEvent() }

// Schedule inserts event into the event heap at now+delay with the given
// priority, and marks it triggered. It returns an InvalidArgumentError if
// delay is negative, or an InvalidStateError if event is already triggered.
// Event.Succeed/Event.Fail call this with delay 0 and Normal priority; it is
// exported so primitives and tests can schedule at an explicit future time
// (e.g. Timeout).
func (env *Environment) Schedule(event *Event, priority Priority, delay float64) error {
	if delay < 0 {
		return &InvalidArgumentError{Message: "Schedule: delay must be non-negative"}
	}
	if event.triggered {
		return &InvalidStateError{Message: "Schedule: event already triggered"}
	}
	if event.env != env {
		return &InvalidStateError{Message: "Schedule: event belongs to a different Environment"}
	}
	event.triggered = true
	heap.Push(&env.queue, &queueEntry{
		time:     env.now + delay,
		priority: priority,
		seq:      env.nextSeq(),
		event:    event,
	})
	return nil
}

// Peek returns the virtual time of the next scheduled entry, and false if
// the event queue is empty.
func (env *Environment) Peek() (float64, bool) {
	if len(env.queue) == 0 {
		return 0, false
	}
	return env.queue[0].time, true
}

// Step pops the least (time, priority, seq) entry, advances now to its
// time, and synchronously invokes every callback registered on its event,
// in registration order. It returns false if the queue was empty.
func (env *Environment) Step() (bool, error) {
	if len(env.queue) == 0 {
		return false, nil
	}
	entry := heap.Pop(&env.queue).(*queueEntry)
	if entry.time < env.now {
		return false, &InvalidStateError{Message: "Step: scheduler corruption, time moved backward"}
	}
	env.now = entry.time

	ev := entry.event
	cbs := ev.callbacks
	ev.callbacks = nil
	ev.processed = true

	if logEv := env.log.Debug(); logEv.Enabled() {
		env.withName(logEv).Float64("now", env.now).Int("priority", int(entry.priority)).
			Int("queue_depth", len(env.queue)).Log("desmod: step")
	}

	for _, cb := range cbs {
		cb(ev)
	}

	if ev.triggered && !ev.ok && len(cbs) == 0 {
		env.unhandled = append(env.unhandled, ev.cause)
		if logEv := env.log.Info(); logEv.Enabled() {
			env.withName(logEv).Err(ev.cause).Log("desmod: unobserved failure")
		}
	}

	return true, nil
}

// Run drives the Environment until the stop condition named by until is
// met. until may be:
//   - nil, meaning run until the event queue drains;
//   - a time value (float64, float32, int, int32, int64, uint, uint32 or
//     uint64; other types are an InvalidArgumentError), interpreted as an absolute
//     virtual time (not a delay) at which an internal stop Timeout fires —
//     so repeated calls with increasing until values resume a paused
//     Environment rather than re-basing from whatever now has become;
//   - an *Event, used directly as the stop condition.
//
// Run returns the stop event's value on success, or an error: the raw cause
// of an unhandled process/event failure, an InvalidStateError if the queue
// drained before an until Event ever fired, or an InvalidArgumentError if a
// numeric until precedes the current time.
func (env *Environment) Run(until any) (any, error) {
	var stop *Event
	switch u := until.(type) {
	case nil:
		stop = nil
	case *Event:
		if u.env != env {
			return nil, &InvalidStateError{Message: "Run: until event belongs to a different Environment"}
		}
		stop = u
	default:
		at, err := toFloat64(u)
		if err != nil {
			return nil, &InvalidArgumentError{Message: "Run: until must be nil, a numeric time, or an *Event", Cause: err}
		}
		if at < env.now {
			return nil, &InvalidArgumentError{Message: "Run: until must not precede the current time"}
		}
		stop, err = env.Timeout(at-env.now, nil)
		if err != nil {
			return nil, err
		}
	}

	for {
		if stop != nil && stop.processed {
			break
		}
		if len(env.queue) == 0 {
			if stop != nil {
				return nil, &InvalidStateError{Message: "Run: event queue emptied before the until event fired"}
			}
			return nil, nil
		}
		if _, err := env.Step(); err != nil {
			return nil, err
		}
		if len(env.unhandled) > 0 {
			cause := env.unhandled[0]
			env.unhandled = env.unhandled[1:]
			return nil, cause
		}
	}

	if stop == nil {
		return nil, nil
	}
	if !stop.ok {
		return nil, stop.cause
	}
	return stop.value, nil
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, &InvalidArgumentError{Message: "value is not a numeric time"}
	}
}
