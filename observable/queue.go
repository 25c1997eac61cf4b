package observable

import "sync"

// Queue is a FIFO of deferred tasks. Nothing runs until Flush is called.
type Queue struct {
	mu       sync.Mutex
	tasks    []func()
	flushing bool
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Schedule appends a task to the queue.
func (q *Queue) Schedule(task func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
}

// Flush runs queued tasks in order until the queue is empty, including tasks
// scheduled by the tasks themselves. A Flush called from inside a running task
// returns immediately; the outer Flush drains the rest.
func (q *Queue) Flush() {
	q.mu.Lock()
	if q.flushing {
		q.mu.Unlock()
		return
	}
	q.flushing = true
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.flushing = false
		q.mu.Unlock()
	}()

	for {
		task, ok := q.next()
		if !ok {
			return
		}
		task()
	}
}

// Len reports the number of tasks waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *Queue) next() (func(), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return nil, false
	}
	task := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	return task, true
}
