package desmod

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventSucceedSchedulesAtCurrentTime(t *testing.T) {
	env := NewEnvironment()
	ev := env.Event()
	require.NoError(t, ev.Succeed(42))
	assert.True(t, ev.Triggered())
	assert.False(t, ev.Processed())

	value, err := env.Run(ev)
	require.NoError(t, err)
	assert.Equal(t, 42, value)
	assert.Equal(t, float64(0), env.Now())
}

func TestEventDoubleTriggerIsInvalidState(t *testing.T) {
	env := NewEnvironment()
	ev := env.Event()
	require.NoError(t, ev.Succeed(1))
	err := ev.Succeed(2)
	var invalidState *InvalidStateError
	require.ErrorAs(t, err, &invalidState)
}

func TestEventAddCallbackAfterProcessedIsInvalidState(t *testing.T) {
	env := NewEnvironment()
	ev := env.Event()
	require.NoError(t, ev.Succeed(nil))
	_, err := env.Run(ev)
	require.NoError(t, err)
	assert.True(t, ev.Processed())

	err = ev.AddCallback(func(*Event) {})
	var invalidState *InvalidStateError
	require.ErrorAs(t, err, &invalidState)
}

func TestEventFailCarriesCause(t *testing.T) {
	env := NewEnvironment()
	ev := env.Event()
	cause := errors.New("boom")
	require.NoError(t, ev.Fail(cause))

	_, err := env.Run(ev)
	require.ErrorIs(t, err, cause)
}

func TestEventTriggerCopiesOutcome(t *testing.T) {
	env := NewEnvironment()
	source := env.Event()
	require.NoError(t, source.Succeed("hi"))

	derived := env.Event()
	source.AddCallback(func(fired *Event) {
		require.NoError(t, derived.Trigger(fired))
	})

	value, err := env.Run(derived)
	require.NoError(t, err)
	assert.Equal(t, "hi", value)
}

func TestEventNilFailCauseIsWrapped(t *testing.T) {
	env := NewEnvironment()
	ev := env.Event()
	require.NoError(t, ev.Fail(nil))
	_, err := env.Run(ev)
	var userFailure *UserFailure
	require.ErrorAs(t, err, &userFailure)
}
