package desmod

import "math"

type storeWaiter struct {
	ev   *Event
	item any
}

type itemContainer interface {
	len() int
	push(item any)
	pop() (any, bool)
}

type fifoItems struct{ items []any }

func (c *fifoItems) len() int { return len(c.items) }

func (c *fifoItems) push(item any) { c.items = append(c.items, item) }

func (c *fifoItems) pop() (any, bool) {
	if len(c.items) == 0 {
		return nil, false
	}
	item := c.items[0]
	c.items = c.items[1:]
	return item, true
}

type heapItems struct{ h *priorityHeap[any] }

func (c *heapItems) len() int { return c.h.Len() }

func (c *heapItems) push(item any) { c.h.push(item) }

func (c *heapItems) pop() (any, bool) {
	if c.h.Len() == 0 {
		return nil, false
	}
	return c.h.pop(), true
}

// Store is a FIFO (or, for PriorityStore, intrinsically ordered) item
// container of bounded or unbounded capacity. A put is satisfied
// immediately if there is room, or queued until a get makes room; a get is
// satisfied immediately if an item is present, or queued until a put
// supplies one. Grounded on the container/store half of desmod's
// store.py/resource.py, realized with Event-based waiters rather than
// generator-based request objects.
type Store struct {
	env        *Environment
	capacity   float64
	items      itemContainer
	putWaiters []*storeWaiter
	getWaiters []*Event
}

// NewStore creates a FIFO Store. Pass math.Inf(1) for an unbounded store.
func NewStore(env *Environment, capacity float64) *Store {
	return &Store{env: env, capacity: capacity, items: &fifoItems{}}
}

// NewPriorityStore creates a Store whose items are always returned from Get
// in ascending order by less, rather than insertion order. less must
// implement a strict weak ordering over whatever item type the store will
// hold; wrap heterogeneous items in a PriorityItem and use
// ComparePriorityItem if there is no natural ordering.
func NewPriorityStore(env *Environment, capacity float64, less func(a, b any) bool) *Store {
	return &Store{env: env, capacity: capacity, items: &heapItems{h: newPriorityHeap(less)}}
}

// Capacity returns the store's item capacity, or +Inf if unbounded.
func (s *Store) Capacity() float64 { return s.capacity }

// Size returns the current item count.
func (s *Store) Size() int { return s.items.len() }

// IsFull reports whether the store is at capacity.
func (s *Store) IsFull() bool { return float64(s.items.len()) >= s.capacity }

// IsEmpty reports whether the store holds no items.
func (s *Store) IsEmpty() bool { return s.items.len() == 0 }

// Put returns an Event that succeeds with item once the store has room for
// it, enqueueing item as its own waiter payload if it does not yet.
func (s *Store) Put(item any) *Event {
	ev := s.env.newEvent()
	_ = ev.AddCallback(func(*Event) { s.triggerGet() })
	if float64(s.items.len()) < s.capacity {
		s.items.push(item)
		_ = ev.Succeed(item)
	} else {
		s.putWaiters = append(s.putWaiters, &storeWaiter{ev: ev, item: item})
	}
	return ev
}

// Get returns an Event that succeeds with the next item (head of a FIFO
// Store, minimum of a PriorityStore) once one is available. Cross-triggering
// a blocked Put/Get on the opposite side happens one scheduler step after
// the triggering mutation, via a callback attached to the Put/Get Event
// itself — see Queue.Get's doc comment for the rationale.
func (s *Store) Get() *Event {
	ev := s.env.newEvent()
	_ = ev.AddCallback(func(*Event) { s.triggerPut() })
	if s.items.len() > 0 {
		item, _ := s.items.pop()
		_ = ev.Succeed(item)
	} else {
		s.getWaiters = append(s.getWaiters, ev)
	}
	return ev
}

// CancelPut withdraws a still-pending Put request.
func (s *Store) CancelPut(ev *Event) error {
	if ev.triggered {
		return &InvalidStateError{Message: "CancelPut: put has already been fulfilled"}
	}
	for i, w := range s.putWaiters {
		if w.ev == ev {
			s.putWaiters = append(s.putWaiters[:i], s.putWaiters[i+1:]...)
			return nil
		}
	}
	return &InvalidStateError{Message: "CancelPut: put not found in the wait queue"}
}

// CancelGet withdraws a still-pending Get request.
func (s *Store) CancelGet(ev *Event) error {
	if ev.triggered {
		return &InvalidStateError{Message: "CancelGet: get has already been fulfilled"}
	}
	for i, w := range s.getWaiters {
		if w == ev {
			s.getWaiters = append(s.getWaiters[:i], s.getWaiters[i+1:]...)
			return nil
		}
	}
	return &InvalidStateError{Message: "CancelGet: get not found in the wait queue"}
}

func (s *Store) triggerGet() {
	for len(s.getWaiters) > 0 && s.items.len() > 0 {
		ev := s.getWaiters[0]
		s.getWaiters = s.getWaiters[1:]
		item, _ := s.items.pop()
		_ = ev.Succeed(item)
	}
}

func (s *Store) triggerPut() {
	for len(s.putWaiters) > 0 && float64(s.items.len()) < s.capacity {
		w := s.putWaiters[0]
		s.putWaiters = s.putWaiters[1:]
		s.items.push(w.item)
		_ = w.ev.Succeed(w.item)
	}
}

// UnboundedCapacity is a convenience for NewStore(env, UnboundedCapacity)
// and the Queue/Pool constructors that accept a capacity.
var UnboundedCapacity = math.Inf(1)
