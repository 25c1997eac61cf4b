package observable

import (
	"slices"
	"sync"
)

// Subject fans a change notification out to its subscribers through a
// Scheduler. Notifications raised while one is already pending are merged
// into it.
type Subject struct {
	mu        sync.Mutex
	scheduler Scheduler
	subs      []*subscription
	pending   []*subscription
	scheduled bool
}

type subscription struct {
	fn func()
}

// NewSubject creates a Subject. A nil scheduler means Sync.
func NewSubject(scheduler Scheduler) *Subject {
	if scheduler == nil {
		scheduler = Sync()
	}
	return &Subject{scheduler: scheduler}
}

// Scheduler returns the scheduler notifications are delivered through.
func (s *Subject) Scheduler() Scheduler {
	return s.scheduler
}

// Subscribe registers fn to run after every notification. The returned
// function removes the subscription and is safe to call more than once.
// A notification already scheduled when unsubscribe is called still reaches fn.
func (s *Subject) Subscribe(fn func()) (unsubscribe func()) {
	sub := &subscription{fn: fn}

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.subs = slices.DeleteFunc(s.subs, func(x *subscription) bool { return x == sub })
		})
	}
}

// Subscribers reports the number of active subscriptions.
func (s *Subject) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Notify schedules one delivery to the current subscribers unless a delivery
// is already pending.
func (s *Subject) Notify() {
	s.mu.Lock()
	if s.scheduled || len(s.subs) == 0 {
		s.mu.Unlock()
		return
	}
	s.scheduled = true
	s.pending = slices.Clone(s.subs)
	s.mu.Unlock()

	s.scheduler.Schedule(s.deliver)
}

func (s *Subject) deliver() {
	s.mu.Lock()
	subs := s.pending
	s.pending = nil
	s.scheduled = false
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn()
	}
}
