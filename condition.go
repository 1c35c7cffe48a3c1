package desmod

// AllOf is a method-call convenience for the package-level AllOf function,
// matching the Environment.all_of surface named in the external interface.
func (env *Environment) AllOf(events ...*Event) (*Event, error) { return AllOf(env, events...) }

// AnyOf is a method-call convenience for the package-level AnyOf function,
// matching the Environment.any_of surface named in the external interface.
func (env *Environment) AnyOf(events ...*Event) (*Event, error) { return AnyOf(env, events...) }

// ConditionValue is the success value of an AllOf/AnyOf Event: the subset of
// the input events that had already fired (successfully or not) at the
// moment the condition itself fired, in the order they were given.
type ConditionValue struct {
	Events []*Event
}

// AllOf returns an Event that succeeds once every event in events has fired
// successfully, with its value the slice of all of them (in input order).
// It fails as soon as any one of events fails, with that event's cause,
// without waiting for the rest. Passing zero events is an
// InvalidArgumentError.
//
// Grounded on the teacher package's Promise.All (promise.go): same
// first-rejection-wins semantics, generalized from real-time Promises to
// virtual-time Events.
func AllOf(env *Environment, events ...*Event) (*Event, error) {
	if len(events) == 0 {
		return nil, &InvalidArgumentError{Message: "AllOf: at least one event is required"}
	}
	out := env.newEvent()
	remaining := len(events)
	for _, ev := range events {
		ev := ev
		if err := ev.AddCallback(func(fired *Event) {
			if out.triggered {
				return
			}
			if !fired.ok {
				_ = out.Fail(fired.cause)
				return
			}
			remaining--
			if remaining == 0 {
				_ = out.Succeed(ConditionValue{Events: events})
			}
		}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// AnyOf returns an Event that succeeds as soon as any one event in events
// fires successfully, with its value the ConditionValue listing every event
// that had already fired by that point. It fails only if every event in
// events fails, with the cause of the last one to fail. Passing zero events
// is an InvalidArgumentError.
//
// Grounded on the teacher package's Promise.Race/Any (promise.go).
func AnyOf(env *Environment, events ...*Event) (*Event, error) {
	if len(events) == 0 {
		return nil, &InvalidArgumentError{Message: "AnyOf: at least one event is required"}
	}
	out := env.newEvent()
	remaining := len(events)
	var fired []*Event
	for _, ev := range events {
		if err := ev.AddCallback(func(fired0 *Event) {
			if out.triggered {
				return
			}
			fired = append(fired, fired0)
			if fired0.ok {
				inOrder := make([]*Event, 0, len(fired))
				for _, e := range events {
					for _, f := range fired {
						if e == f {
							inOrder = append(inOrder, e)
							break
						}
					}
				}
				_ = out.Succeed(ConditionValue{Events: inOrder})
				return
			}
			remaining--
			if remaining == 0 {
				_ = out.Fail(fired0.cause)
			}
		}); err != nil {
			return nil, err
		}
	}
	return out, nil
}
