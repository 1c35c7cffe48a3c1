package desmod

import "fmt"

// ProcessFunc is a simulation coroutine body. It runs on its own goroutine,
// but the kernel guarantees that goroutine and the scheduler goroutine never
// execute concurrently: every handoff crosses an unbuffered channel, so at
// any instant exactly one of them is actually running. Model code therefore
// never needs a mutex to protect state it shares only with itself and the
// kernel.
//
// fn must make progress only by calling methods on p (chiefly p.Yield); it
// must not block on anything else, spawn goroutines that touch Environment
// state, or retain p past its own return.
type ProcessFunc func(p *Proc) (any, error)

type procResult struct {
	value any
	err   error
}

// Proc is the handle a running ProcessFunc uses to yield control back to the
// kernel. It is the coroutine-local counterpart to the caller-visible
// *Process.
type Proc struct {
	env    *Environment
	self   *Process
	resume chan *Event
	yield  chan *Event
	result procResult
}

// Env returns the Environment driving this process.
func (p *Proc) Env() *Environment { return p.env }

// Self returns the Process handle for the running coroutine, e.g. so it can
// read its own PID for logging.
func (p *Proc) Self() *Process { return p.self }

// Yield suspends the calling coroutine until target fires, then returns its
// value (on success) or its cause (on failure, as an error). It is the sole
// blocking operation available to a ProcessFunc; every other wait (Timeout,
// Condition, Resource, Store, Queue, Pool) is built by constructing an
// *Event and yielding on it.
//
// The coroutine does not wait on target directly: a private guard event is
// interposed so that Process.Interrupt can deliver an *InterruptError to
// this coroutine alone, without disturbing target or any other waiter
// sharing it.
func (p *Proc) Yield(target *Event) (any, error) {
	guard := p.env.newEvent()
	if err := target.AddCallback(func(fired *Event) {
		if guard.triggered {
			return
		}
		_ = guard.Trigger(fired)
	}); err != nil {
		return nil, err
	}
	p.self.waiting = guard
	p.yield <- guard
	fired := <-p.resume
	p.self.waiting = nil
	if fired.ok {
		return fired.value, nil
	}
	return nil, fired.cause
}

// Wait is a convenience for Yield(p.Env().Timeout(delay, nil)).
func (p *Proc) Wait(delay float64) (any, error) {
	ev, err := p.env.Timeout(delay, nil)
	if err != nil {
		return nil, err
	}
	return p.Yield(ev)
}

// Process is the caller-visible handle returned by Environment.Process. Its
// body begins running on the next scheduler step, not synchronously inside
// the call that created it, mirroring the activation semantics of a
// Timeout(0, nil)-scheduled init event.
type Process struct {
	env     *Environment
	pid     uint64
	name    string
	proc    *Proc
	exit    *Event
	waiting *Event
}

// PID returns the process's unique, monotonically assigned identifier.
func (p *Process) PID() uint64 { return p.pid }

// Name returns the label given at creation, or "" if none was given.
func (p *Process) Name() string { return p.name }

// Exit returns the Event that fires when this process's body returns or
// panics: OK with the returned value, or failed with the returned error
// (wrapped, if a panic, in a *UserFailure carrying the recovered value).
func (p *Process) Exit() *Event { return p.exit }

// Interrupt delivers an *InterruptError wrapping cause to the process,
// waking it from whatever single Event it is currently waiting on via
// Proc.Yield. It returns an InvalidStateError if the process is not
// currently waiting (it has not started, has already exited, or is running
// synchronously between yields).
func (p *Process) Interrupt(cause error) error {
	if p.waiting == nil || p.waiting.triggered {
		return &InvalidStateError{Message: "Interrupt: process is not currently waiting on an event"}
	}
	return p.waiting.Fail(&InterruptError{Cause: cause})
}

// Process creates and activates a new coroutine running fn. The returned
// Process's body does not run until the Environment's next step.
func (env *Environment) Process(fn ProcessFunc) *Process {
	return env.namedProcess("", fn)
}

// NamedProcess is Process, additionally labelling the Process for logging
// and panic diagnostics.
func (env *Environment) NamedProcess(name string, fn ProcessFunc) *Process {
	return env.namedProcess(name, fn)
}

func (env *Environment) namedProcess(name string, fn ProcessFunc) *Process {
	p := &Process{
		env:  env,
		pid:  env.nextPID(),
		name: name,
		exit: env.newEvent(),
	}
	p.proc = &Proc{
		env:    env,
		self:   p,
		resume: make(chan *Event),
		yield:  make(chan *Event),
	}

	if logEv := env.log.Info(); logEv.Enabled() {
		env.withName(logEv).Uint64("pid", p.pid).Str("name", p.name).Log("desmod: process spawned")
	}

	go p.run(fn)

	init := env.newEvent()
	init.ok = true
	if err := env.Schedule(init, Normal, 0); err != nil {
		panic(err)
	}
	if err := init.AddCallback(func(*Event) { p.pump(init) }); err != nil {
		panic(err)
	}
	return p
}

// run is the body of the goroutine backing a Process. It blocks on the
// initial resume handshake before touching anything fn might share with the
// kernel, so the goroutine does no work until the scheduler activates it on
// the first step — eliminating the data race that would otherwise exist
// between `go p.run(fn)` returning and the Environment actually running.
func (p *Process) run(fn ProcessFunc) {
	defer func() {
		if r := recover(); r != nil {
			p.finish(procResult{err: panicToError(p.env.name, p.name, r)})
		}
	}()
	<-p.proc.resume
	value, err := fn(p.proc)
	p.finish(procResult{value: value, err: err})
}

func (p *Process) finish(res procResult) {
	p.proc.result = res
	p.proc.yield <- nil
}

// pump hands control to the process goroutine (or lets it run for the first
// time) and blocks until it either yields again or finishes. Every send
// here rendezvous with a matching receive on the other side of an
// unbuffered channel, so at no point are both goroutines actually running:
// control passes atomically from kernel to coroutine and back.
func (p *Process) pump(resumeEvent *Event) {
	p.proc.resume <- resumeEvent
	next := <-p.proc.yield
	if next == nil {
		res := p.proc.result
		if res.err != nil {
			if logEv := p.env.log.Info(); logEv.Enabled() {
				p.env.withName(logEv).Uint64("pid", p.pid).Str("name", p.name).Err(res.err).
					Log("desmod: process failed")
			}
			_ = p.exit.Fail(res.err)
		} else {
			if logEv := p.env.log.Info(); logEv.Enabled() {
				p.env.withName(logEv).Uint64("pid", p.pid).Str("name", p.name).
					Log("desmod: process succeeded")
			}
			_ = p.exit.Succeed(res.value)
		}
		return
	}
	if err := next.AddCallback(func(fired *Event) { p.pump(fired) }); err != nil {
		p.pump(next)
	}
}

func panicToError(envName, procName string, r any) error {
	prefix := "desmod"
	if envName != "" {
		prefix = fmt.Sprintf("desmod[%s]", envName)
	}
	if err, ok := r.(error); ok {
		return &UserFailure{Message: fmt.Sprintf("%s: process %q panicked", prefix, procName), Cause: err}
	}
	return &UserFailure{Message: fmt.Sprintf("%s: process %q panicked: %v", prefix, procName, r)}
}
