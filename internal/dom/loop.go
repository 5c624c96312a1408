package dom

import (
	"fmt"
	"sync"

	"github.com/dshills/richbridge/internal/channel"
	"github.com/dshills/richbridge/internal/logging"
)

// loop runs every document operation on a single goroutine.
//
// post never blocks, so tasks running on the loop may post further tasks.
// The queue is unbounded for the same reason.
type loop struct {
	mu     sync.Mutex
	cond   *sync.Cond
	tasks  []func()
	closed bool
	done   chan struct{}
	logger *logging.Logger
}

func newLoop(logger *logging.Logger) *loop {
	l := &loop{done: make(chan struct{}), logger: logger}
	l.cond = sync.NewCond(&l.mu)
	go l.run()
	return l
}

func (l *loop) post(fn func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return channel.ErrUnavailable
	}
	l.tasks = append(l.tasks, fn)
	l.cond.Signal()
	return nil
}

func (l *loop) pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

func (l *loop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		for len(l.tasks) == 0 && !l.closed {
			l.cond.Wait()
		}
		if l.closed {
			l.tasks = nil
			l.mu.Unlock()
			return
		}
		fn := l.tasks[0]
		l.tasks[0] = nil
		l.tasks = l.tasks[1:]
		l.mu.Unlock()

		l.exec(fn)
	}
}

func (l *loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("document task panicked: %v", fmt.Sprint(r))
		}
	}()
	fn()
}

// close stops the loop and waits for the running task. Pending tasks are
// discarded. It must not be called from the loop goroutine.
func (l *loop) close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		l.cond.Broadcast()
	}
	l.mu.Unlock()
	<-l.done
}
