package observable

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrLoopStarted is returned by Start on a loop that is already running.
var ErrLoopStarted = errors.New("loop already started")

// Loop runs scheduled tasks one at a time on its own goroutine.
// Tasks scheduled before Start are kept and run once the loop starts.
type Loop struct {
	mu      sync.Mutex
	tasks   []func()
	wake    chan struct{}
	started bool
	done    chan struct{}
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// LoopOption is a functional option for configuring a Loop
type LoopOption func(*Loop)

// WithLoopLogger sets the logger for the loop
func WithLoopLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		l.logger = logger
	}
}

// NewLoop creates a stopped loop.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start begins processing tasks until ctx is cancelled or Stop is called.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started {
		return ErrLoopStarted
	}
	l.started = true
	l.ctx, l.cancel = context.WithCancel(ctx)

	go l.run()
	return nil
}

// Stop shuts the loop down and waits for the running task to finish.
// Tasks still queued are discarded.
func (l *Loop) Stop() error {
	l.mu.Lock()
	if !l.started {
		l.mu.Unlock()
		return nil
	}
	cancel := l.cancel
	l.mu.Unlock()

	cancel()
	<-l.done
	return nil
}

// Schedule queues a task. It never blocks and never drops.
func (l *Loop) Schedule(task func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Flush waits until every task scheduled before the call has run, or until
// ctx is done. Called from a loop task it can only end through ctx, since the
// loop does not run the barrier while that task is still running.
func (l *Loop) Flush(ctx context.Context) error {
	barrier := make(chan struct{})
	l.Schedule(func() { close(barrier) })

	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run processes tasks from the queue
func (l *Loop) run() {
	defer close(l.done)

	for {
		select {
		case <-l.ctx.Done():
			l.logger.Debug("loop stopped", "dropped", l.pending())
			return
		case <-l.wake:
			for l.ctx.Err() == nil {
				task, ok := l.next()
				if !ok {
					break
				}
				task()
			}
		}
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.tasks) == 0 {
		return nil, false
	}
	task := l.tasks[0]
	l.tasks[0] = nil
	l.tasks = l.tasks[1:]
	return task, true
}

func (l *Loop) pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}
