package desmod

import "math"

type poolWaiter struct {
	ev       *Event
	amount   float64
	priority float64
	seq      uint64
}

type poolWaiterList interface {
	push(*poolWaiter)
	peek() (*poolWaiter, bool)
	pop() (*poolWaiter, bool)
	len() int
}

type fifoPoolWaiters struct{ items []*poolWaiter }

func (w *fifoPoolWaiters) push(p *poolWaiter) { w.items = append(w.items, p) }

func (w *fifoPoolWaiters) peek() (*poolWaiter, bool) {
	if len(w.items) == 0 {
		return nil, false
	}
	return w.items[0], true
}

func (w *fifoPoolWaiters) pop() (*poolWaiter, bool) {
	p, ok := w.peek()
	if ok {
		w.items = w.items[1:]
	}
	return p, ok
}

func (w *fifoPoolWaiters) len() int { return len(w.items) }

type heapPoolWaiters struct{ h *priorityHeap[*poolWaiter] }

func newHeapPoolWaiters() *heapPoolWaiters {
	return &heapPoolWaiters{h: newPriorityHeap(func(a, b *poolWaiter) bool {
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		return a.seq < b.seq
	})}
}

func (w *heapPoolWaiters) push(p *poolWaiter) { w.h.push(p) }

func (w *heapPoolWaiters) peek() (*poolWaiter, bool) { return w.h.top() }

func (w *heapPoolWaiters) pop() (*poolWaiter, bool) {
	p, ok := w.peek()
	if ok {
		w.h.pop()
	}
	return p, ok
}

func (w *heapPoolWaiters) len() int { return w.h.Len() }

// PoolHook observes a Pool's state change synchronously, after the
// mutation, within the same step. It MUST NOT mutate the pool.
type PoolHook func(p *Pool, amount float64)

// Pool is a numeric level container bounded by [0, capacity]. Put and Get
// move an amount in or out; both block (or, under a hard cap, Put fails
// outright) when the requested amount does not currently fit. Grounded on
// desmod's pool.py Pool/PriorityPool.
type Pool struct {
	env        *Environment
	capacity   float64
	hardCap    bool
	level      float64
	priority   bool
	putWaiters poolWaiterList
	getWaiters poolWaiterList
	atLeast    *priorityHeap[*sizeWaiterF]
	atMost     *priorityHeap[*sizeWaiterF]
	seq        uint64
	onPut      PoolHook
	onGet      PoolHook
}

type sizeWaiterF struct {
	n  float64
	ev *Event
}

// NewPool creates a plain, FIFO-ordered Pool with the given capacity. Pass
// UnboundedCapacity (or math.Inf(1)) for no upper bound.
func NewPool(env *Environment, capacity float64, hardCap bool) *Pool {
	return newPool(env, capacity, hardCap, false)
}

// NewPriorityPool creates a Pool whose put/get waiters are served by
// (priority, insertion order) rather than plain FIFO, with strict
// precedence: a lower-priority waiter is never fulfilled ahead of a
// higher-priority one even if it would fit and the higher-priority one does
// not.
func NewPriorityPool(env *Environment, capacity float64, hardCap bool) *Pool {
	return newPool(env, capacity, hardCap, true)
}

func newPool(env *Environment, capacity float64, hardCap bool, priority bool) *Pool {
	p := &Pool{env: env, capacity: capacity, hardCap: hardCap, priority: priority}
	if priority {
		p.putWaiters = newHeapPoolWaiters()
		p.getWaiters = newHeapPoolWaiters()
	} else {
		p.putWaiters = &fifoPoolWaiters{}
		p.getWaiters = &fifoPoolWaiters{}
	}
	p.atLeast = newPriorityHeap(func(a, b *sizeWaiterF) bool { return a.n < b.n })
	p.atMost = newPriorityHeap(func(a, b *sizeWaiterF) bool { return a.n > b.n })
	return p
}

// SetOnPut installs a hook invoked after every successful Put. Passing nil
// detaches it.
func (p *Pool) SetOnPut(hook PoolHook) { p.onPut = hook }

// SetOnGet installs a hook invoked after every successful Get. Passing nil
// detaches it.
func (p *Pool) SetOnGet(hook PoolHook) { p.onGet = hook }

// Level returns the current amount held.
func (p *Pool) Level() float64 { return p.level }

// Capacity returns the pool's capacity.
func (p *Pool) Capacity() float64 { return p.capacity }

// Remaining returns Capacity - Level.
func (p *Pool) Remaining() float64 { return p.capacity - p.level }

// IsFull reports whether Level has reached Capacity.
func (p *Pool) IsFull() bool { return p.level >= p.capacity }

// IsEmpty reports whether Level is zero.
func (p *Pool) IsEmpty() bool { return p.level <= 0 }

func (p *Pool) nextSeq() uint64 {
	p.seq++
	return p.seq
}

// Put returns an Event that succeeds with amount once that much room is
// available, blocking (queueing) until then. amount must be in (0,
// capacity]; violating that is an InvalidArgumentError, returned
// synchronously with no state change. Under a hard cap, a Put that cannot
// be satisfied immediately fails synchronously with an *OverflowError
// instead of queueing, and the pool is left unmodified.
func (p *Pool) Put(amount float64) (*Event, error) { return p.put(amount, 0) }

// PutPriority is Put with an explicit priority, meaningful on a
// PriorityPool.
func (p *Pool) PutPriority(amount float64, priority float64) (*Event, error) {
	return p.put(amount, priority)
}

func (p *Pool) put(amount float64, priority float64) (*Event, error) {
	if amount <= 0 || amount > p.capacity {
		return nil, &InvalidArgumentError{Message: "Put: amount must be in (0, capacity]"}
	}
	if p.hardCap && amount > p.Remaining() {
		if logEv := p.env.log.Info(); logEv.Enabled() {
			p.env.withName(logEv).Float64("amount", amount).Float64("capacity", p.capacity).
				Log("desmod: pool overflow")
		}
		return nil, &OverflowError{Container: "Pool", Amount: amount, Capacity: p.capacity}
	}
	ev := p.env.newEvent()
	// Waking pending gets is cross-triggered one scheduler step after this
	// specific put succeeds, via a callback on its own Event, mirroring
	// desmod's pool.py (_trigger_get attached per-event rather than called
	// inline). The put side's own fulfillment cycle runs synchronously
	// below, immediately.
	_ = ev.AddCallback(func(*Event) { p.triggerGet() })
	w := &poolWaiter{ev: ev, amount: amount, priority: priority, seq: p.nextSeq()}
	p.putWaiters.push(w)
	p.triggerPut()
	return ev, nil
}

// Get returns an Event that succeeds with amount once that much is
// available, blocking (queueing) until then. amount must be in (0,
// capacity]; violating that is an InvalidArgumentError.
func (p *Pool) Get(amount float64) (*Event, error) { return p.get(amount, 0) }

// GetPriority is Get with an explicit priority, meaningful on a
// PriorityPool.
func (p *Pool) GetPriority(amount float64, priority float64) (*Event, error) {
	return p.get(amount, priority)
}

func (p *Pool) get(amount float64, priority float64) (*Event, error) {
	if amount <= 0 || amount > p.capacity {
		return nil, &InvalidArgumentError{Message: "Get: amount must be in (0, capacity]"}
	}
	ev := p.env.newEvent()
	_ = ev.AddCallback(func(*Event) { p.triggerPut() })
	w := &poolWaiter{ev: ev, amount: amount, priority: priority, seq: p.nextSeq()}
	p.getWaiters.push(w)
	p.triggerGet()
	return ev, nil
}

// CancelPut withdraws a still-pending Put request.
func (p *Pool) CancelPut(ev *Event) error { return cancelPoolWaiter(p.putWaiters, ev, "Put") }

// CancelGet withdraws a still-pending Get request.
func (p *Pool) CancelGet(ev *Event) error { return cancelPoolWaiter(p.getWaiters, ev, "Get") }

func cancelPoolWaiter(list poolWaiterList, ev *Event, op string) error {
	if ev.triggered {
		return &InvalidStateError{Message: op + ": request has already been fulfilled"}
	}
	switch l := list.(type) {
	case *fifoPoolWaiters:
		for i, w := range l.items {
			if w.ev == ev {
				l.items = append(l.items[:i], l.items[i+1:]...)
				return nil
			}
		}
	case *heapPoolWaiters:
		if l.h.removeWhere(func(w *poolWaiter) bool { return w.ev == ev }) {
			return nil
		}
	}
	return &InvalidStateError{Message: op + ": request not found in the wait queue"}
}

// triggerPut scans put waiters from the head, fulfilling every one whose
// amount currently fits, and stops at the first that does not: waiter order
// (FIFO for a plain Pool, (priority, insertion order) for a PriorityPool)
// is strict, so a waiter is never promoted ahead of one stuck in front of
// it even if it would itself fit.
func (p *Pool) triggerPut() {
	for {
		w, ok := p.putWaiters.peek()
		if !ok {
			return
		}
		if w.amount > p.Remaining() {
			return
		}
		p.putWaiters.pop()
		p.level += w.amount
		_ = w.ev.Succeed(w.amount)
		if p.onPut != nil {
			p.onPut(p, w.amount)
		}
		p.fireThresholds()
	}
}

func (p *Pool) triggerGet() {
	for {
		w, ok := p.getWaiters.peek()
		if !ok {
			return
		}
		if w.amount > p.level {
			return
		}
		p.getWaiters.pop()
		p.level -= w.amount
		_ = w.ev.Succeed(w.amount)
		if p.onGet != nil {
			p.onGet(p, w.amount)
		}
		p.fireThresholds()
	}
}

func (p *Pool) fireThresholds() {
	for {
		top, ok := p.atLeast.top()
		if !ok || top.n > p.level {
			break
		}
		w := p.atLeast.pop()
		_ = w.ev.Succeed(p.level)
	}
	for {
		top, ok := p.atMost.top()
		if !ok || top.n < p.level {
			break
		}
		w := p.atMost.pop()
		_ = w.ev.Succeed(p.level)
	}
}

// WhenAtLeast returns an Event that succeeds, with the current level as its
// value, the first moment level ≥ n.
func (p *Pool) WhenAtLeast(n float64) *Event {
	ev := p.env.newEvent()
	if p.level >= n {
		_ = ev.Succeed(p.level)
		return ev
	}
	p.atLeast.push(&sizeWaiterF{n: n, ev: ev})
	return ev
}

// WhenAtMost returns an Event that succeeds, with the current level as its
// value, the first moment level ≤ n.
func (p *Pool) WhenAtMost(n float64) *Event {
	ev := p.env.newEvent()
	if p.level <= n {
		_ = ev.Succeed(p.level)
		return ev
	}
	p.atMost.push(&sizeWaiterF{n: n, ev: ev})
	return ev
}

// epsilon is the default threshold used by WhenAny: the smallest
// representable positive float64, suited to a continuous Pool. Integer
// pools may pass an explicit eps of 1 instead. WhenNotFull does not use it;
// its default eps is 0.5.
const epsilon = math.SmallestNonzeroFloat64

// WhenAny is WhenAtLeast(eps); if no eps is given it defaults to the
// smallest positive float64, appropriate for a continuous Pool. Discrete
// (integer-amount) pools should call WhenAtLeast(1) directly, or pass
// eps=1.
func (p *Pool) WhenAny(eps ...float64) *Event {
	e := epsilon
	if len(eps) > 0 {
		e = eps[0]
	}
	return p.WhenAtLeast(e)
}

// WhenFull is WhenAtLeast(Capacity).
func (p *Pool) WhenFull() *Event { return p.WhenAtLeast(p.capacity) }

// WhenNotFull is WhenAtMost(Capacity - eps); eps defaults to 0.5, suitable
// for integer-amount pools. Real-valued pools should pass an explicit eps.
func (p *Pool) WhenNotFull(eps ...float64) *Event {
	e := 0.5
	if len(eps) > 0 {
		e = eps[0]
	}
	return p.WhenAtMost(p.capacity - e)
}

// WhenEmpty is WhenAtMost(0).
func (p *Pool) WhenEmpty() *Event { return p.WhenAtMost(0) }
