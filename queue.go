package desmod

// PriorityItem wraps a payload with an explicit priority for use in a
// PriorityQueue/PriorityStore whose items have no natural ordering. Lower
// Priority sorts first.
type PriorityItem struct {
	Priority float64
	Payload  any
}

// ComparePriorityItem is the less function for PriorityItem values, for use
// with NewPriorityQueue/NewPriorityStore.
func ComparePriorityItem(a, b any) bool {
	return a.(PriorityItem).Priority < b.(PriorityItem).Priority
}

// QueueHook observes a Queue's state change synchronously, after the
// mutation, within the same step. It MUST NOT mutate the queue.
type QueueHook func(q *Queue, item any)

type sizeWaiter struct {
	n  int
	ev *Event
}

// Queue is a Store augmented with size/capacity introspection, an optional
// hard cap, and threshold events fired the instant size crosses a bound.
// Grounded on desmod's queue.py Queue/PriorityQueue, with on_put/on_get
// observer hooks per the same module.
type Queue struct {
	env        *Environment
	capacity   int
	hardCap    bool
	items      itemContainer
	putWaiters []*storeWaiter
	getWaiters []*Event
	atLeast    *priorityHeap[*sizeWaiter]
	atMost     *priorityHeap[*sizeWaiter]
	onPut      QueueHook
	onGet      QueueHook
}

// NewQueue creates a FIFO Queue. If hardCap is true, Put fails synchronously
// with an *OverflowError instead of blocking once the queue is full.
func NewQueue(env *Environment, capacity int, hardCap bool) *Queue {
	return newQueue(env, capacity, hardCap, &fifoItems{})
}

// NewPriorityQueue creates a Queue whose items are always dequeued in
// ascending order by less, rather than insertion order.
func NewPriorityQueue(env *Environment, capacity int, hardCap bool, less func(a, b any) bool) *Queue {
	return newQueue(env, capacity, hardCap, &heapItems{h: newPriorityHeap(less)})
}

func newQueue(env *Environment, capacity int, hardCap bool, items itemContainer) *Queue {
	return &Queue{
		env:      env,
		capacity: capacity,
		hardCap:  hardCap,
		items:    items,
		atLeast:  newPriorityHeap(func(a, b *sizeWaiter) bool { return a.n < b.n }),
		atMost:   newPriorityHeap(func(a, b *sizeWaiter) bool { return a.n > b.n }),
	}
}

// SetOnPut installs a hook invoked after every successful Put. Passing nil
// detaches it.
func (q *Queue) SetOnPut(hook QueueHook) { q.onPut = hook }

// SetOnGet installs a hook invoked after every successful Get. Passing nil
// detaches it.
func (q *Queue) SetOnGet(hook QueueHook) { q.onGet = hook }

// Capacity returns the queue's item capacity.
func (q *Queue) Capacity() int { return q.capacity }

// Size returns the current item count.
func (q *Queue) Size() int { return q.items.len() }

// Remaining returns Capacity - Size.
func (q *Queue) Remaining() int { return q.capacity - q.items.len() }

// IsFull reports whether the queue is at capacity.
func (q *Queue) IsFull() bool { return q.items.len() >= q.capacity }

// IsEmpty reports whether the queue holds no items.
func (q *Queue) IsEmpty() bool { return q.items.len() == 0 }

// Peek returns the item that the next Get would return, without removing
// it. It returns an InvalidStateError if the queue is empty.
func (q *Queue) Peek() (any, error) {
	switch c := q.items.(type) {
	case *fifoItems:
		if len(c.items) == 0 {
			return nil, &InvalidStateError{Message: "Peek: queue is empty"}
		}
		return c.items[0], nil
	case *heapItems:
		v, ok := c.h.top()
		if !ok {
			return nil, &InvalidStateError{Message: "Peek: queue is empty"}
		}
		return v, nil
	}
	return nil, &InvalidStateError{Message: "Peek: queue is empty"}
}

// Put returns an Event that succeeds with item once the queue has room for
// it. If the queue is hard-capped and already full, Put instead returns a
// nil Event and an *OverflowError, synchronously, leaving the queue
// unmodified.
func (q *Queue) Put(item any) (*Event, error) {
	if q.hardCap && q.items.len() >= q.capacity {
		if logEv := q.env.log.Info(); logEv.Enabled() {
			q.env.withName(logEv).Int("capacity", q.capacity).Log("desmod: queue overflow")
		}
		return nil, &OverflowError{Container: "Queue", Amount: 1, Capacity: float64(q.capacity)}
	}
	ev := q.env.newEvent()
	_ = ev.AddCallback(func(*Event) { q.triggerGet() })
	if q.items.len() < q.capacity {
		q.items.push(item)
		_ = ev.Succeed(item)
		if q.onPut != nil {
			q.onPut(q, item)
		}
		q.fireThresholds()
	} else {
		q.putWaiters = append(q.putWaiters, &storeWaiter{ev: ev, item: item})
	}
	return ev, nil
}

// Get returns an Event that succeeds with the next item once one is
// available.
//
// A get that frees room for this queue's blocked puts, or a put that
// supplies an item to its blocked gets, is cross-triggered from a callback
// attached to the put/get Event itself, so the wake-up happens one scheduler step after the triggering
// mutation — mirroring desmod's queue.py _trigger_put/_trigger_get, which
// run as Event callbacks rather than being called inline.
func (q *Queue) Get() *Event {
	ev := q.env.newEvent()
	_ = ev.AddCallback(func(*Event) { q.triggerPut() })
	if q.items.len() > 0 {
		item, _ := q.items.pop()
		_ = ev.Succeed(item)
		if q.onGet != nil {
			q.onGet(q, item)
		}
		q.fireThresholds()
	} else {
		q.getWaiters = append(q.getWaiters, ev)
	}
	return ev
}

// CancelPut withdraws a still-pending Put request.
func (q *Queue) CancelPut(ev *Event) error {
	if ev.triggered {
		return &InvalidStateError{Message: "CancelPut: put has already been fulfilled"}
	}
	for i, w := range q.putWaiters {
		if w.ev == ev {
			q.putWaiters = append(q.putWaiters[:i], q.putWaiters[i+1:]...)
			return nil
		}
	}
	return &InvalidStateError{Message: "CancelPut: put not found in the wait queue"}
}

// CancelGet withdraws a still-pending Get request.
func (q *Queue) CancelGet(ev *Event) error {
	if ev.triggered {
		return &InvalidStateError{Message: "CancelGet: get has already been fulfilled"}
	}
	for i, w := range q.getWaiters {
		if w == ev {
			q.getWaiters = append(q.getWaiters[:i], q.getWaiters[i+1:]...)
			return nil
		}
	}
	return &InvalidStateError{Message: "CancelGet: get not found in the wait queue"}
}

func (q *Queue) triggerGet() {
	for len(q.getWaiters) > 0 && q.items.len() > 0 {
		ev := q.getWaiters[0]
		q.getWaiters = q.getWaiters[1:]
		item, _ := q.items.pop()
		_ = ev.Succeed(item)
		if q.onGet != nil {
			q.onGet(q, item)
		}
		q.fireThresholds()
	}
}

func (q *Queue) triggerPut() {
	for len(q.putWaiters) > 0 && q.items.len() < q.capacity {
		w := q.putWaiters[0]
		q.putWaiters = q.putWaiters[1:]
		q.items.push(w.item)
		_ = w.ev.Succeed(w.item)
		if q.onPut != nil {
			q.onPut(q, w.item)
		}
		q.fireThresholds()
	}
}

func (q *Queue) fireThresholds() {
	size := q.items.len()
	for {
		top, ok := q.atLeast.top()
		if !ok || top.n > size {
			break
		}
		w := q.atLeast.pop()
		_ = w.ev.Succeed(size)
	}
	for {
		top, ok := q.atMost.top()
		if !ok || top.n < size {
			break
		}
		w := q.atMost.pop()
		_ = w.ev.Succeed(size)
	}
}

// WhenAtLeast returns an Event that succeeds, with the current size as its
// value, the first moment size ≥ n.
func (q *Queue) WhenAtLeast(n int) *Event {
	ev := q.env.newEvent()
	if q.items.len() >= n {
		_ = ev.Succeed(q.items.len())
		return ev
	}
	q.atLeast.push(&sizeWaiter{n: n, ev: ev})
	return ev
}

// WhenAtMost returns an Event that succeeds, with the current size as its
// value, the first moment size ≤ n.
func (q *Queue) WhenAtMost(n int) *Event {
	ev := q.env.newEvent()
	if q.items.len() <= n {
		_ = ev.Succeed(q.items.len())
		return ev
	}
	q.atMost.push(&sizeWaiter{n: n, ev: ev})
	return ev
}

// WhenAny is WhenAtLeast(1): it fires the first moment the queue is
// non-empty.
func (q *Queue) WhenAny() *Event { return q.WhenAtLeast(1) }

// WhenFull is WhenAtLeast(Capacity).
func (q *Queue) WhenFull() *Event { return q.WhenAtLeast(q.capacity) }

// WhenNotFull is WhenAtMost(Capacity - 1).
func (q *Queue) WhenNotFull() *Event { return q.WhenAtMost(q.capacity - 1) }

// WhenEmpty is WhenAtMost(0).
func (q *Queue) WhenEmpty() *Event { return q.WhenAtMost(0) }
