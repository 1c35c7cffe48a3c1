package desmod

// Timeout returns a new Event that succeeds with value after delay units of
// virtual time. Apart from calling Schedule directly with a positive delay,
// it is the kernel's only source of forward time progress; every other wait (Condition, Resource, Store, Queue, Pool) ultimately
// resolves through events fired by a Timeout or by user code calling
// Succeed/Fail directly.
//
// Timeout returns an *InvalidArgumentError, synchronously and with no state
// change, if delay is negative — the same synchronous-rejection contract
// every other constructor in this package follows (Schedule, AllOf/AnyOf,
// Queue.Put, Pool.Put/Get).
func (env *Environment) Timeout(delay float64, value any) (*Event, error) {
	if delay < 0 {
		return nil, &InvalidArgumentError{Message: "Timeout: delay must be non-negative"}
	}
	ev := env.newEvent()
	ev.ok = true
	ev.value = value
	if err := env.Schedule(ev, Normal, delay); err != nil {
		return nil, err
	}
	return ev, nil
}
