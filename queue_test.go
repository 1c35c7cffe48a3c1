package desmod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFOWithCapacity(t *testing.T) {
	env := NewEnvironment()
	q := NewQueue(env, 2, false)

	var sizesAfterOp []int
	var gotValues []any

	putAt := func(delay float64, item any) {
		timeout, err := env.Timeout(delay, nil)
		require.NoError(t, err)
		_ = timeout.AddCallback(func(*Event) {
			_, err := q.Put(item)
			require.NoError(t, err)
			sizesAfterOp = append(sizesAfterOp, q.Size())
		})
	}
	getAt := func(delay float64) {
		timeout, err := env.Timeout(delay, nil)
		require.NoError(t, err)
		_ = timeout.AddCallback(func(*Event) {
			ev := q.Get()
			gotValues = append(gotValues, ev.Value())
			sizesAfterOp = append(sizesAfterOp, q.Size())
		})
	}

	putAt(0, 1)
	putAt(0, 2)
	putAt(0, 3)
	getAt(1)
	getAt(2)
	getAt(3)

	_, err := env.Run(nil)
	require.NoError(t, err)

	assert.Equal(t, []any{1, 2, 3}, gotValues)
	assert.Equal(t, []int{1, 2, 2, 1, 1, 0}, sizesAfterOp)
}

func TestPriorityQueueReturnsItemsInAscendingOrder(t *testing.T) {
	env := NewEnvironment()
	q := NewPriorityQueue(env, 3, false, ComparePriorityItem)

	_, err := q.Put(PriorityItem{Priority: 3, Payload: "c"})
	require.NoError(t, err)
	_, err = q.Put(PriorityItem{Priority: 1, Payload: "a"})
	require.NoError(t, err)
	_, err = q.Put(PriorityItem{Priority: 2, Payload: "b"})
	require.NoError(t, err)

	var got []string
	for i := 0; i < 3; i++ {
		ev := q.Get()
		_, err := env.Run(nil)
		require.NoError(t, err)
		got = append(got, ev.Value().(PriorityItem).Payload.(string))
	}
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestQueueHardCapOverflowsSynchronously(t *testing.T) {
	env := NewEnvironment()
	q := NewQueue(env, 1, true)

	_, err := q.Put("a")
	require.NoError(t, err)

	_, err = q.Put("b")
	var overflow *OverflowError
	require.ErrorAs(t, err, &overflow)
	assert.Equal(t, 1, q.Size())
}

func TestQueuePeekEmptyIsInvalidState(t *testing.T) {
	env := NewEnvironment()
	q := NewQueue(env, 1, false)
	_, err := q.Peek()
	var invalidState *InvalidStateError
	require.ErrorAs(t, err, &invalidState)
}

func TestQueueThresholdEvents(t *testing.T) {
	env := NewEnvironment()
	q := NewQueue(env, 5, false)

	empty := q.WhenEmpty()
	any := q.WhenAny()

	_, err := env.Run(nil)
	require.NoError(t, err)
	assert.True(t, empty.OK())
	assert.False(t, any.Triggered())

	_, _ = q.Put("x")
	_, err = env.Run(nil)
	require.NoError(t, err)
	assert.True(t, any.OK())
}

func TestQueueHookInvokedAfterMutation(t *testing.T) {
	env := NewEnvironment()
	q := NewQueue(env, 5, false)
	var seen []any
	q.SetOnPut(func(q *Queue, item any) { seen = append(seen, item) })

	_, _ = q.Put("x")
	_, err := env.Run(nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"x"}, seen)
}
