// Package observable provides the reactive building blocks behind a machine's
// context: a subscriber list that delivers deferred change notifications, a
// mutex-guarded record built on it, and deep copies of plain data.
//
// Delivery is never implicit. Every Subject hands its notifications to a
// Scheduler, which decides when they run:
//
//   - Sync runs them inline, inside the mutating call.
//   - Queue holds them until Flush, like a microtask queue.
//   - Loop runs them on a dedicated goroutine.
//   - Timer batches everything scheduled inside a delay window.
//
// Several mutations made before the scheduler runs collapse into a single
// notification per subscriber.
package observable

// Scheduler decides when a deferred notification runs.
type Scheduler interface {
	Schedule(task func())
}

type syncScheduler struct{}

func (syncScheduler) Schedule(task func()) {
	task()
}

// Sync returns a Scheduler that runs every task immediately.
func Sync() Scheduler {
	return syncScheduler{}
}
