package desmod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentRunUntilTime(t *testing.T) {
	env := NewEnvironment()
	_, err := env.Timeout(3, "ignored")
	require.NoError(t, err)
	_, err = env.Run(10.0)
	require.NoError(t, err)
	assert.Equal(t, float64(10), env.Now())
}

func TestEnvironmentRunEmptyQueueWithoutUntil(t *testing.T) {
	env := NewEnvironment()
	value, err := env.Run(nil)
	require.NoError(t, err)
	assert.Nil(t, value)
	assert.Equal(t, float64(0), env.Now())
}

func TestEnvironmentRunUntilEventNeverFiredIsInvalidState(t *testing.T) {
	env := NewEnvironment()
	stuck := env.Event()
	_, err := env.Run(stuck)
	var invalidState *InvalidStateError
	require.ErrorAs(t, err, &invalidState)
}

func TestEnvironmentScheduleRejectsNegativeDelay(t *testing.T) {
	env := NewEnvironment()
	ev := env.Event()
	err := env.Schedule(ev, Normal, -1)
	var invalidArgument *InvalidArgumentError
	require.ErrorAs(t, err, &invalidArgument)
}

func TestTimeoutRejectsNegativeDelay(t *testing.T) {
	env := NewEnvironment()
	_, err := env.Timeout(-1, nil)
	var invalidArgument *InvalidArgumentError
	require.ErrorAs(t, err, &invalidArgument)
}

func TestEnvironmentUrgentFiresBeforeNormalAtSameTime(t *testing.T) {
	env := NewEnvironment()
	var order []string
	normal := env.Event()
	normal.AddCallback(func(*Event) { order = append(order, "normal") })
	require.NoError(t, env.Schedule(normal, Normal, 0))

	urgent := env.Event()
	urgent.AddCallback(func(*Event) { order = append(order, "urgent") })
	require.NoError(t, env.Schedule(urgent, Urgent, 0))

	_, err := env.Run(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"urgent", "normal"}, order)
}

func TestEnvironmentRandIsDeterministicForSeed(t *testing.T) {
	a := NewEnvironment(WithSeed(7))
	b := NewEnvironment(WithSeed(7))
	assert.Equal(t, a.Rand().Int63(), b.Rand().Int63())
}

func TestEnvironmentUnhandledFailurePropagatesFromRun(t *testing.T) {
	env := NewEnvironment()
	ev := env.Event()
	require.NoError(t, ev.Fail(&InvalidArgumentError{Message: "model bug"}))
	_, err := env.Run(nil)
	require.Error(t, err)
}
