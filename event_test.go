package chainfsm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnAndOnce(t *testing.T) {
	t.Parallel()

	m := New(stateIdle, nil, nil, WithLogger(quietLogger()))

	var h1, h2 int
	m.On("x", NewHandler(func(*Context, any) { h1++ })).
		Once("x", NewHandler(func(*Context, any) { h2++ }))

	m.Fire("x", nil).Fire("x", nil)
	assert.Equal(t, 2, h1)
	assert.Equal(t, 1, h2)
}

func TestOnDeduplicates(t *testing.T) {
	t.Parallel()

	m := New(stateIdle, nil, nil, WithLogger(quietLogger()))

	var calls int
	h := NewHandler(func(*Context, any) { calls++ })
	m.On("x", h).On("x", h)
	m.Fire("x", nil)
	assert.Equal(t, 1, calls)
}

func TestFireOrderAndPayload(t *testing.T) {
	t.Parallel()

	m := New(stateIdle, nil, nil, WithLogger(quietLogger()))

	var order []string
	m.Once("x", NewHandler(func(c *Context, payload any) {
		order = append(order, "once")
	}))
	m.On("x", NewHandler(func(c *Context, payload any) {
		order = append(order, "first")
		require.NotNil(t, c.Event)
		assert.Equal(t, EventID("x"), c.Event.ID)
		assert.Equal(t, 42, payload)
		assert.Equal(t, stateIdle, c.CurrentState())
	}))
	m.On("x", NewHandler(func(*Context, any) { order = append(order, "second") }))

	m.Fire("x", 42)
	assert.Equal(t, []string{"first", "second", "once"}, order)
}

func TestOff(t *testing.T) {
	t.Parallel()

	t.Run("removes a single handler from both sets", func(t *testing.T) {
		t.Parallel()
		m := New(stateIdle, nil, nil, WithLogger(quietLogger()))

		var a, b int
		ha := NewHandler(func(*Context, any) { a++ })
		hb := NewHandler(func(*Context, any) { b++ })
		m.On("x", ha).Once("x", ha).On("x", hb)

		m.Off("x", ha).Fire("x", nil)
		assert.Zero(t, a)
		assert.Equal(t, 1, b)
	})

	t.Run("nil handler clears the event", func(t *testing.T) {
		t.Parallel()
		m := New(stateIdle, nil, nil, WithLogger(quietLogger()))

		var calls int
		h := NewHandler(func(*Context, any) { calls++ })
		m.On("x", h).Once("x", NewHandler(func(*Context, any) { calls++ }))

		m.Off("x", nil).Fire("x", nil)
		assert.Zero(t, calls)
	})

	t.Run("unknown event is a no-op", func(t *testing.T) {
		t.Parallel()
		m := New(stateIdle, nil, nil, WithLogger(quietLogger()))
		assert.NotPanics(t, func() {
			m.Off("missing", NewHandler(func(*Context, any) {})).Off("missing", nil).Fire("missing", nil)
		})
	})
}

func TestOnceIsClearedBeforeItRuns(t *testing.T) {
	t.Parallel()

	m := New(stateIdle, nil, nil, WithLogger(quietLogger()))

	var calls int
	m.Once("x", NewHandler(func(c *Context, _ any) {
		calls++
		c.Fire("x", nil)
	}))

	m.Fire("x", nil)
	assert.Equal(t, 1, calls)
}

func TestRecursiveSelfFire(t *testing.T) {
	t.Parallel()

	m := New(stateIdle, nil, nil, WithLogger(quietLogger()))

	var n int
	var order []string
	m.On("x", NewHandler(func(c *Context, _ any) {
		n++
		order = append(order, "on")
		if n < 3 {
			c.Fire("x", nil)
		}
	}))
	m.Once("x", NewHandler(func(*Context, any) { order = append(order, "once") }))

	m.Fire("x", nil)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"on", "on", "on", "once"}, order)

	m.Fire("x", nil)
	assert.Equal(t, 4, n, "the regular handler stays registered")
	assert.Equal(t, 1, strings.Count(strings.Join(order, ","), "once"))
}

func TestOnceRegisteredDuringFire(t *testing.T) {
	t.Parallel()

	m := New(stateIdle, nil, nil, WithLogger(quietLogger()))

	var late int
	m.On("x", NewHandler(func(c *Context, _ any) {
		if late == 0 {
			c.FSM.Once("x", NewHandler(func(*Context, any) { late++ }))
		}
	}))

	m.Fire("x", nil)
	assert.Equal(t, 1, late, "one-time handlers are read after the regular ones ran")
	m.Fire("x", nil)
	assert.Equal(t, 1, late)
}

func TestEventHandlerDrivesTransitions(t *testing.T) {
	t.Parallel()

	m := New(stateIdle, fetchConfig(), nil, WithLogger(quietLogger()))
	m.On("fetch", NewHandler(func(c *Context, _ any) { c.MoveTo(stateLoading, nil) }))
	m.On("done", NewHandler(func(c *Context, payload any) {
		if payload == nil {
			c.MoveTo(stateError, nil)
			return
		}
		c.Set("result", payload)
		c.MoveTo(stateSuccess, nil)
	}))

	m.Send(Event{ID: "fetch"}).Fire("done", "ok")
	assert.Equal(t, stateSuccess, m.Current())
	assert.Equal(t, "ok", m.Context().Value("result"))
}
