// Package gate provides a one-shot readiness gate for work submitted before a
// document environment has finished loading.
//
// Items submitted before the ready signal are buffered in submission order.
// SignalReady executes the buffer once, in order, and from then on Submit
// hands items straight to the executor.
//
//	commands := gate.New(func(m *channel.Method) { ch.Execute(m) })
//	commands.Submit(channel.NewMethod("requestFocus"))
//	// ... later, when the page has loaded:
//	commands.SignalReady()
package gate

import "sync"

// Executor runs a single item once the gate is open.
type Executor[T any] func(item T)

// Queue buffers items until the ready signal fires.
//
// Queue is safe for concurrent use. Items submitted while SignalReady is
// draining are appended to the buffer and drained in the same call, so an
// item submitted before SignalReady returns never overtakes an earlier one.
// The executor is never invoked while the internal lock is held, which lets
// an executor submit further items without deadlocking.
type Queue[T any] struct {
	mu       sync.Mutex
	ready    bool
	draining bool
	pending  []T
	exec     Executor[T]
}

// New creates a closed gate that hands items to exec once opened.
func New[T any](exec Executor[T]) *Queue[T] {
	return &Queue[T]{exec: exec}
}

// Submit executes item immediately if the gate is open, otherwise buffers it.
func (q *Queue[T]) Submit(item T) {
	q.mu.Lock()
	if !q.ready {
		q.pending = append(q.pending, item)
		q.mu.Unlock()
		return
	}
	q.mu.Unlock()

	q.exec(item)
}

// SignalReady opens the gate and flushes buffered items in submission order.
// Calls after the first are no-ops.
func (q *Queue[T]) SignalReady() {
	q.mu.Lock()
	if q.ready || q.draining {
		q.mu.Unlock()
		return
	}
	q.draining = true

	for {
		batch := q.pending
		q.pending = nil
		if len(batch) == 0 {
			q.ready = true
			q.draining = false
			q.mu.Unlock()
			return
		}
		q.mu.Unlock()

		for _, item := range batch {
			q.exec(item)
		}

		q.mu.Lock()
	}
}

// IsReady reports whether the ready signal has fired and the buffer drained.
func (q *Queue[T]) IsReady() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ready
}

// Pending returns the number of buffered items.
func (q *Queue[T]) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
