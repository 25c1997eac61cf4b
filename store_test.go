package chainfsm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSubscribe(t *testing.T) {
	t.Parallel()

	m := New(stateIdle, fetchConfig(), map[string]any{"n": 0}, WithLogger(quietLogger()))

	var calls int
	unsubscribe := m.Store().Subscribe(func() { calls++ })

	m.Context().Set("n", 1)
	m.Flush()
	assert.Equal(t, 1, calls, "context mutations reach store subscribers")

	m.MoveTo(stateLoading, nil)
	m.Flush()
	assert.Equal(t, 2, calls)
	assert.Equal(t, stateLoading, m.Store().State())

	unsubscribe()
	m.MoveTo(stateIdle, nil)
	m.Flush()
	assert.Equal(t, 2, calls)
}

func TestStoreSnapshot(t *testing.T) {
	t.Parallel()

	m := New(stateIdle, fetchConfig(), map[string]any{"items": []any{"a"}},
		WithLogger(quietLogger()), WithHistory(true), WithHistorySize(5))
	m.MoveTo(stateLoading, map[string]any{"q": "x"})

	snap := m.Store().Snapshot()
	assert.Equal(t, stateLoading, snap.State)
	assert.Equal(t, map[string]any{"items": []any{"a"}}, snap.Context)
	assert.True(t, snap.HistoryEnabled)
	assert.Equal(t, 5, snap.HistorySize)
	require.Len(t, snap.History, 1)

	snap.Context["items"].([]any)[0] = "changed"
	snap.History[0].Payload.(map[string]any)["q"] = "changed"
	assert.Equal(t, []any{"a"}, m.Context().Value("items"))
	assert.Equal(t, map[string]any{"q": "x"}, m.History()[0].Payload)
}

func TestResetContext(t *testing.T) {
	t.Parallel()

	initial := map[string]any{
		"count": 0,
		"user":  map[string]any{"name": "ann"},
	}
	m := New(stateIdle, fetchConfig(), initial, WithLogger(quietLogger()), WithHistory(true))

	m.Context().Set("count", 5)
	m.Context().Set("extra", true)
	m.Context().Update(func(data map[string]any) {
		data["user"].(map[string]any)["name"] = "bob"
	})
	m.MoveTo(stateLoading, nil)

	m.ResetContext()
	assert.Equal(t, map[string]any{
		"count": 0,
		"user":  map[string]any{"name": "ann"},
	}, m.Context().Snapshot())
	assert.Equal(t, stateLoading, m.Current())
	assert.Len(t, m.History(), 1)
	assert.Equal(t, map[string]any{"name": "ann"}, initial["user"], "caller's map is never touched")
}

func TestResetContextKeepsListeners(t *testing.T) {
	t.Parallel()

	m := New(stateIdle, nil, map[string]any{"count": 0}, WithLogger(quietLogger()))

	var got [][]Change
	m.OnContextChange(func(c *Context, changes []Change) { got = append(got, changes) })
	var storeCalls int
	m.Store().Subscribe(func() { storeCalls++ })

	m.Context().Set("count", 3)
	m.Flush()
	m.ResetContext()
	m.Flush()

	require.Len(t, got, 2)
	assert.Equal(t, []Change{{Key: "count", Value: 0, PreviousValue: 3}}, got[1])

	m.Context().Set("count", 1)
	m.Flush()
	require.Len(t, got, 3)
	assert.Equal(t, []Change{{Key: "count", Value: 1, PreviousValue: 0}}, got[2])
	assert.GreaterOrEqual(t, storeCalls, 3)
}

func TestResetContextWithoutChanges(t *testing.T) {
	t.Parallel()

	m := New(stateIdle, nil, map[string]any{"count": 0}, WithLogger(quietLogger()))

	var calls int
	m.OnContextChange(func(*Context, []Change) { calls++ })
	m.ResetContext()
	m.Flush()
	assert.Zero(t, calls)
}
