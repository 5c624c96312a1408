package status

import "sync"

// Stream is a broadcast of values where every subscriber has a single
// pending slot. Publishing into a full slot replaces the pending value, so a
// slow subscriber sees the latest value and never blocks the publisher.
type Stream[T any] struct {
	mu     sync.Mutex
	subs   map[*Subscriber[T]]struct{}
	closed bool
}

// Subscriber receives values from a Stream.
type Subscriber[T any] struct {
	ch     chan T
	stream *Stream[T]
}

// NewStream creates an empty stream.
func NewStream[T any]() *Stream[T] {
	return &Stream[T]{subs: make(map[*Subscriber[T]]struct{})}
}

// Subscribe registers a new subscriber. Subscribing to a closed stream
// returns a subscriber whose channel is already closed.
func (s *Stream[T]) Subscribe() *Subscriber[T] {
	sub := &Subscriber[T]{ch: make(chan T, 1), stream: s}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(sub.ch)
		return sub
	}
	s.subs[sub] = struct{}{}
	return sub
}

// Publish delivers v to every subscriber, dropping each subscriber's
// undelivered value if there is one.
func (s *Stream[T]) Publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for sub := range s.subs {
		select {
		case sub.ch <- v:
			continue
		default:
		}
		select {
		case <-sub.ch:
		default:
		}
		select {
		case sub.ch <- v:
		default:
		}
	}
}

// Subscribers returns the number of active subscribers.
func (s *Stream[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close closes every subscriber channel. Further publishes are ignored.
func (s *Stream[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for sub := range s.subs {
		close(sub.ch)
	}
	s.subs = nil
}

// C returns the receive channel. It is closed when the subscriber is
// cancelled or the stream is closed.
func (sub *Subscriber[T]) C() <-chan T { return sub.ch }

// Cancel unsubscribes and closes the channel.
func (sub *Subscriber[T]) Cancel() {
	s := sub.stream
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sub]; !ok {
		return
	}
	delete(s.subs, sub)
	close(sub.ch)
}

// Latest is a Stream that remembers its last published value. A new
// subscriber finds that value already pending.
type Latest[T any] struct {
	mu     sync.Mutex
	stream *Stream[T]
	value  T
	set    bool
}

// NewLatest creates a Latest with no value.
func NewLatest[T any]() *Latest[T] {
	return &Latest[T]{stream: NewStream[T]()}
}

// Publish records v and delivers it to every subscriber.
func (l *Latest[T]) Publish(v T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.value, l.set = v, true
	l.stream.Publish(v)
}

// Value returns the last published value and whether there is one.
func (l *Latest[T]) Value() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.set
}

// Subscribe registers a subscriber primed with the last value, if any.
func (l *Latest[T]) Subscribe() *Subscriber[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	sub := l.stream.Subscribe()

	l.stream.mu.Lock()
	closed := l.stream.closed
	l.stream.mu.Unlock()
	if l.set && !closed {
		select {
		case sub.ch <- l.value:
		default:
		}
	}
	return sub
}

// Close closes every subscriber channel.
func (l *Latest[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stream.Close()
}
