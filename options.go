package desmod

import (
	"io"
	"math/rand"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// envOptions holds configuration resolved by the EnvOption functions
// supplied to NewEnvironment.
type envOptions struct {
	logger *logiface.Logger[*stumpy.Event]
	writer io.Writer
	level  logiface.Level
	seed   int64
	name   string
}

// EnvOption configures an [Environment] at construction. Options are
// applied in order, following the teacher package's JSOption pattern.
type EnvOption func(*envOptions)

func resolveEnvOptions(opts []EnvOption) *envOptions {
	o := &envOptions{level: logiface.LevelInformational}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.logger == nil {
		w := o.writer
		if w == nil {
			w = io.Discard
		}
		o.logger = newStumpyLogger(w, o.level)
	}
	return o
}

// WithLogger attaches a pre-configured logiface logger to the Environment.
// Use this to share one logger (and one writer/level configuration) across
// several Environments, or to integrate with a host application's existing
// logiface setup. It takes precedence over WithLogWriter/WithLogLevel.
func WithLogger(logger *logiface.Logger[*stumpy.Event]) EnvOption {
	return func(o *envOptions) {
		o.logger = logger
	}
}

// WithLogWriter is a convenience over WithLogger: it builds a
// stumpy-backed logiface logger writing to w, at the level set by
// WithLogLevel (LevelInformational by default).
func WithLogWriter(w io.Writer) EnvOption {
	return func(o *envOptions) {
		o.writer = w
	}
}

// WithLogLevel sets the minimum level logged by the Environment's default
// (WithLogWriter-built, or discard) logger. It has no effect once
// WithLogger supplies an already-built logger.
func WithLogLevel(level logiface.Level) EnvOption {
	return func(o *envOptions) {
		o.level = level
	}
}

// WithSeed seeds the Environment's deterministic random source, returned by
// [Environment.Rand]. The default seed is 0.
func WithSeed(seed int64) EnvOption {
	return func(o *envOptions) {
		o.seed = seed
	}
}

// WithName labels the Environment for log lines and panic messages. Useful
// once a test binary or host process constructs more than one Environment.
func WithName(name string) EnvOption {
	return func(o *envOptions) {
		o.name = name
	}
}

func newStumpyLogger(w io.Writer, level logiface.Level) *logiface.Logger[*stumpy.Event] {
	return logiface.New[*stumpy.Event](
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		logiface.WithLevel[*stumpy.Event](level),
	)
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
