package desmod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceGrantsUpToCapacityImmediately(t *testing.T) {
	env := NewEnvironment()
	r := NewResource(env, 2)

	a := r.Request()
	b := r.Request()
	c := r.Request()

	_, err := env.Run(nil)
	require.NoError(t, err)

	assert.True(t, a.OK())
	assert.True(t, b.OK())
	assert.False(t, c.Triggered(), "third request must queue, not be granted")
	assert.Equal(t, 2, r.Users())
	assert.Equal(t, 1, r.Queued())
}

func TestResourceReleaseGrantsNextQueuedRequest(t *testing.T) {
	env := NewEnvironment()
	r := NewResource(env, 1)

	a := r.Request()
	b := r.Request()
	env.Step()

	require.True(t, a.OK())
	require.NoError(t, r.Release(a))
	env.Step()

	require.True(t, b.OK())
	assert.Equal(t, 1, r.Users())
	assert.Equal(t, 0, r.Queued())
}

func TestPriorityResourceServesHigherPriorityFirst(t *testing.T) {
	env := NewEnvironment()
	r := NewPriorityResource(env, 1)

	held := r.Request()
	_, _ = env.Run(nil)
	require.True(t, held.OK())

	low := r.RequestPriority(10)
	high := r.RequestPriority(0)

	require.NoError(t, r.Release(held))
	_, err := env.Run(nil)
	require.NoError(t, err)

	assert.True(t, high.OK())
	assert.False(t, low.Triggered())
}

func TestResourceCancelRequestRemovesQueuedWaiter(t *testing.T) {
	env := NewEnvironment()
	r := NewResource(env, 1)

	a := r.Request()
	b := r.Request()
	_, _ = env.Run(nil)
	require.True(t, a.OK())
	require.False(t, b.Triggered())

	require.NoError(t, r.CancelRequest(b))
	require.NoError(t, r.Release(a))
	_, err := env.Run(nil)
	require.NoError(t, err)
	assert.False(t, b.Triggered(), "a cancelled request must never fire")
}

func TestResourceCancelAfterGrantIsInvalidState(t *testing.T) {
	env := NewEnvironment()
	r := NewResource(env, 1)
	a := r.Request()
	_, _ = env.Run(nil)
	require.True(t, a.OK())

	err := r.CancelRequest(a)
	var invalidState *InvalidStateError
	require.ErrorAs(t, err, &invalidState)
}

func TestResourceAcquireScopedRelease(t *testing.T) {
	env := NewEnvironment()
	r := NewResource(env, 1)

	var secondAcquiredAt float64 = -1
	env.Process(func(p *Proc) (any, error) {
		guard, err := r.Acquire(p)
		require.NoError(t, err)
		defer guard.Release()
		_, _ = p.Wait(5)
		return nil, nil
	})
	env.Process(func(p *Proc) (any, error) {
		_, _ = p.Wait(3)
		guard, err := r.Acquire(p)
		require.NoError(t, err)
		secondAcquiredAt = p.Env().Now()
		defer guard.Release()
		return nil, nil
	})

	_, err := env.Run(nil)
	require.NoError(t, err)
	assert.Equal(t, float64(5), secondAcquiredAt)
}
