package observable

import (
	"sync"
	"time"
)

// Timer batches tasks: the first Schedule arms a timer, and everything
// scheduled before it fires runs together in one pass.
type Timer struct {
	delay time.Duration

	mu      sync.Mutex
	tasks   []func()
	timer   *time.Timer
	running bool
}

// NewTimer creates a batching scheduler with the given window.
func NewTimer(delay time.Duration) *Timer {
	return &Timer{delay: delay}
}

// Schedule queues a task and arms the timer if it is not already running.
func (t *Timer) Schedule(task func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tasks = append(t.tasks, task)
	if t.timer == nil {
		t.timer = time.AfterFunc(t.delay, t.fire)
	}
}

// Flush cancels the pending timer and runs queued tasks now. If a run is
// already in progress, including when Flush is called from a running task,
// Flush returns immediately and that run drains the rest.
func (t *Timer) Flush() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()

	t.run()
}

// Stop cancels the pending timer and discards queued tasks.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.tasks = nil
}

// Pending reports the number of tasks waiting for the timer.
func (t *Timer) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.tasks)
}

func (t *Timer) fire() {
	t.mu.Lock()
	t.timer = nil
	t.mu.Unlock()

	t.run()
}

func (t *Timer) run() {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	t.running = true
	t.mu.Unlock()

	// a panicking task must not leave the timer marked as running
	drained := false
	defer func() {
		if !drained {
			t.mu.Lock()
			t.running = false
			t.mu.Unlock()
		}
	}()

	for {
		t.mu.Lock()
		tasks := t.tasks
		t.tasks = nil
		if len(tasks) == 0 {
			t.running = false
			drained = true
			t.mu.Unlock()
			return
		}
		t.mu.Unlock()

		for _, task := range tasks {
			task()
		}
	}
}
