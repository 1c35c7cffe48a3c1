package desmod

// resourceReq is the payload carried by a Resource request Event: it is
// both the waiter record queued while pending and the value the request
// Event succeeds with once a slot is granted, so a ResourceGuard built from
// that value can find the request Event to pass to Release.
type resourceReq struct {
	ev       *Event
	priority int
	seq      uint64
}

type resourceWaiters interface {
	push(*resourceReq)
	pop() (*resourceReq, bool)
	remove(ev *Event) bool
	len() int
}

type fifoResourceWaiters struct{ items []*resourceReq }

func (w *fifoResourceWaiters) push(r *resourceReq) { w.items = append(w.items, r) }

func (w *fifoResourceWaiters) pop() (*resourceReq, bool) {
	if len(w.items) == 0 {
		return nil, false
	}
	r := w.items[0]
	w.items = w.items[1:]
	return r, true
}

func (w *fifoResourceWaiters) remove(ev *Event) bool {
	for i, r := range w.items {
		if r.ev == ev {
			w.items = append(w.items[:i], w.items[i+1:]...)
			return true
		}
	}
	return false
}

func (w *fifoResourceWaiters) len() int { return len(w.items) }

type heapResourceWaiters struct{ h *priorityHeap[*resourceReq] }

func newHeapResourceWaiters() *heapResourceWaiters {
	return &heapResourceWaiters{h: newPriorityHeap(func(a, b *resourceReq) bool {
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		return a.seq < b.seq
	})}
}

func (w *heapResourceWaiters) push(r *resourceReq) { w.h.push(r) }

func (w *heapResourceWaiters) pop() (*resourceReq, bool) {
	if w.h.Len() == 0 {
		return nil, false
	}
	return w.h.pop(), true
}

func (w *heapResourceWaiters) remove(ev *Event) bool {
	return w.h.removeWhere(func(r *resourceReq) bool { return r.ev == ev })
}

func (w *heapResourceWaiters) len() int { return w.h.Len() }

// Resource is a capacity-bounded pool of anonymous, interchangeable slots.
// Requests that cannot be granted immediately queue in FIFO order (or, for
// a PriorityResource, by (priority, insertion order)); Release hands the
// freed slot to the next waiter the queue's discipline allows.
//
// Grounded on desmod's resource.py Resource/PriorityResource, realized with
// the teacher package's callback-list Event rather than a SimPy-style
// generator-based request context manager.
type Resource struct {
	env      *Environment
	capacity int
	users    []*resourceReq
	waiters  resourceWaiters
	seq      uint64
}

// NewResource creates a plain, FIFO-ordered Resource with the given
// capacity (must be ≥ 1).
func NewResource(env *Environment, capacity int) *Resource {
	return &Resource{env: env, capacity: capacity, waiters: &fifoResourceWaiters{}}
}

// NewPriorityResource creates a Resource whose queued requests are granted
// by (priority, insertion order) rather than plain FIFO. Lower priority
// values are served first.
func NewPriorityResource(env *Environment, capacity int) *Resource {
	return &Resource{env: env, capacity: capacity, waiters: newHeapResourceWaiters()}
}

// Capacity returns the resource's total slot count.
func (r *Resource) Capacity() int { return r.capacity }

// Users returns the count of slots currently granted.
func (r *Resource) Users() int { return len(r.users) }

// Queued returns the count of requests currently waiting for a slot.
func (r *Resource) Queued() int { return r.waiters.len() }

func (r *Resource) nextSeq() uint64 {
	r.seq++
	return r.seq
}

// Request returns an Event that succeeds, with the granted *resourceReq as
// its value, once a slot is available. Use RequestPriority on a
// PriorityResource to jump the queue.
func (r *Resource) Request() *Event { return r.request(0) }

// RequestPriority is Request with an explicit priority; it has no special
// effect on a plain Resource (its FIFO waiter list ignores priority, so
// ordering stays FIFO).
func (r *Resource) RequestPriority(priority int) *Event { return r.request(priority) }

func (r *Resource) request(priority int) *Event {
	ev := r.env.newEvent()
	req := &resourceReq{ev: ev, priority: priority, seq: r.nextSeq()}
	if len(r.users) < r.capacity {
		r.users = append(r.users, req)
		_ = ev.Succeed(req)
	} else {
		r.waiters.push(req)
	}
	return ev
}

// Release returns the slot granted by ev (as returned from Request) to the
// resource, and grants it to the next eligible waiter, if any. It returns
// an InvalidStateError if ev is not a currently-held request of this
// Resource.
func (r *Resource) Release(ev *Event) error {
	for i, u := range r.users {
		if u.ev == ev {
			r.users = append(r.users[:i], r.users[i+1:]...)
			r.triggerQueue()
			return nil
		}
	}
	return &InvalidStateError{Message: "Release: event is not a held request of this Resource"}
}

// CancelRequest withdraws a still-pending (not yet granted) request. It
// returns an InvalidStateError if ev has already fired (granted, or not a
// request of this Resource at all). Use this, never Release, for a request
// that was abandoned before it was ever satisfied — the two are
// deliberately distinct operations.
func (r *Resource) CancelRequest(ev *Event) error {
	if ev.triggered {
		return &InvalidStateError{Message: "CancelRequest: request has already been granted or failed"}
	}
	if !r.waiters.remove(ev) {
		return &InvalidStateError{Message: "CancelRequest: request not found in the wait queue"}
	}
	return nil
}

func (r *Resource) triggerQueue() {
	for len(r.users) < r.capacity {
		req, ok := r.waiters.pop()
		if !ok {
			return
		}
		r.users = append(r.users, req)
		_ = req.ev.Succeed(req)
	}
}

// ResourceGuard is returned by Acquire; Release must be called exactly
// once, on every exit path (including one triggered by a failure thrown
// into the acquiring coroutine), to guarantee the slot is returned.
type ResourceGuard struct {
	resource *Resource
	req      *resourceReq
	released bool
}

// Release returns the held slot. Calling it more than once is a no-op.
func (g *ResourceGuard) Release() error {
	if g.released {
		return nil
	}
	g.released = true
	return g.resource.Release(g.req.ev)
}

// Acquire is the scoped-acquisition idiom: it yields until a slot is
// granted and returns a ResourceGuard, or, if the wait is interrupted
// first, cancels the now-abandoned request (or releases its slot, if it was
// granted before the interrupt was delivered) and returns the interrupt's
// error. Callers MUST defer guard.Release() immediately upon success to
// guarantee release on every exit path.
func (r *Resource) Acquire(p *Proc) (*ResourceGuard, error) {
	return r.acquire(p, r.Request())
}

// AcquirePriority is Acquire using RequestPriority.
func (r *Resource) AcquirePriority(p *Proc, priority int) (*ResourceGuard, error) {
	return r.acquire(p, r.RequestPriority(priority))
}

func (r *Resource) acquire(p *Proc, ev *Event) (*ResourceGuard, error) {
	value, err := p.Yield(ev)
	if err != nil {
		if ev.triggered {
			// Granted before the failure reached this coroutine: hand the
			// slot back rather than leaving it held with no guard.
			_ = r.Release(ev)
		} else {
			_ = r.CancelRequest(ev)
		}
		return nil, err
	}
	return &ResourceGuard{resource: r, req: value.(*resourceReq)}, nil
}
