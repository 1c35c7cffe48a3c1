package desmod

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolPutBlocksWhenNotEnoughRoom(t *testing.T) {
	env := NewEnvironment()
	p := NewPool(env, 5, false)

	first, err := p.Put(4)
	require.NoError(t, err)
	second, err := p.Put(2)
	require.NoError(t, err)

	_, err = env.Run(nil)
	require.NoError(t, err)
	assert.True(t, first.OK())
	assert.False(t, second.Triggered(), "second put must block: 4+2 exceeds capacity 5")
	assert.Equal(t, float64(4), p.Level())
}

func TestPoolGetUnblocksAfterEnoughPut(t *testing.T) {
	env := NewEnvironment()
	p := NewPool(env, UnboundedCapacity, false)

	getEv, err := p.Get(3)
	require.NoError(t, err)
	assert.False(t, getEv.Triggered())

	_, err = p.Put(1)
	require.NoError(t, err)
	_, err = p.Put(2)
	require.NoError(t, err)

	_, err = env.Run(nil)
	require.NoError(t, err)
	assert.True(t, getEv.OK())
	assert.Equal(t, float64(3), getEv.Value())
	assert.Equal(t, float64(0), p.Level())
}

func TestPoolPutRejectsOutOfRangeAmount(t *testing.T) {
	env := NewEnvironment()
	p := NewPool(env, 5, false)

	_, err := p.Put(0)
	var invalidArgument *InvalidArgumentError
	require.ErrorAs(t, err, &invalidArgument)

	_, err = p.Put(6)
	require.ErrorAs(t, err, &invalidArgument)
}

func TestPoolHardCapOverflowLeavesLevelUnchanged(t *testing.T) {
	env := NewEnvironment()
	p := NewPool(env, 5, true)

	_, err := p.Put(1)
	require.NoError(t, err)
	_, err = p.Put(3)
	require.NoError(t, err)

	_, err = p.Put(2)
	var overflow *OverflowError
	require.ErrorAs(t, err, &overflow)
	assert.Equal(t, float64(4), p.Level())
	assert.Equal(t, float64(1), p.Remaining())
}

func TestPriorityPoolStrictPrecedence(t *testing.T) {
	env := NewEnvironment()
	p := NewPriorityPool(env, UnboundedCapacity, false)

	big, err := p.GetPriority(5, 0)
	require.NoError(t, err)
	small, err := p.GetPriority(1, 1)
	require.NoError(t, err)

	_, err = p.Put(3)
	require.NoError(t, err)
	_, err = env.Run(nil)
	require.NoError(t, err)

	assert.False(t, big.Triggered())
	assert.False(t, small.Triggered(), "lower priority waiter must not fulfill ahead of the stuck higher priority head")
}

func TestPoolThresholdEvents(t *testing.T) {
	env := NewEnvironment()
	p := NewPool(env, 2, false)

	empty := p.WhenEmpty()
	any := p.WhenAny(1)
	full := p.WhenFull()

	_, err := env.Run(nil)
	require.NoError(t, err)
	assert.True(t, empty.OK())
	assert.False(t, any.Triggered())
	assert.False(t, full.Triggered())

	_, _ = p.Put(1)
	_, err = env.Run(nil)
	require.NoError(t, err)
	assert.True(t, any.OK())
	assert.False(t, full.Triggered())

	_, _ = p.Put(1)
	_, err = env.Run(nil)
	require.NoError(t, err)
	assert.True(t, full.OK())
}

func TestPoolWhenAnyDefaultEpsilonIsSmallestPositiveFloat(t *testing.T) {
	env := NewEnvironment()
	p := NewPool(env, UnboundedCapacity, false)
	any := p.WhenAny()
	_, _ = p.Put(math.SmallestNonzeroFloat64)
	_, err := env.Run(nil)
	require.NoError(t, err)
	assert.True(t, any.OK())
}
