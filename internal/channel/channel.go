// Package channel carries calls from the host into the document environment
// and events from the document environment back to the host.
//
// The host side builds a Method (name, arguments, result callbacks) and hands
// it to a Channel. The Channel renders the call into the environment's call
// syntax and submits it as a typed Request, exactly one evaluation per call.
// A result, when the environment produces one, is fanned out to every
// callback registered on the Method.
//
// The reverse direction is a closed set of Event variants delivered to the
// EventHandler attached to the environment.
package channel

import (
	"context"
	"errors"
	"sync"

	"github.com/dshills/richbridge/internal/logging"
	"github.com/dshills/richbridge/internal/script"
)

// Request is a single call submitted to the document environment.
type Request struct {
	// Method is the function name, possibly dotted ("document.execCommand").
	Method string
	// Args are the typed arguments, in order.
	Args []any
	// Script is Method and Args rendered in the environment's call syntax.
	Script string
	// Context is done once the sender has gone away. Environments drop
	// requests whose context is done without invoking their result callback.
	Context context.Context
}

// Cancelled reports whether the sender has gone away.
func (r Request) Cancelled() bool {
	return r.Context != nil && r.Context.Err() != nil
}

// ResultFunc receives the textual result of an evaluation.
type ResultFunc func(result string)

// Environment is the document environment as seen from the host.
//
// Evaluate must not block on the evaluation itself. onResult, when non-nil,
// is invoked later with the evaluation's textual result; it may never be
// invoked if the environment goes away. Evaluate returns ErrUnavailable when
// the environment cannot accept calls.
type Environment interface {
	Evaluate(req Request, onResult ResultFunc) error
	Attach(handler EventHandler)
}

// Method is a pending call with zero or more result callbacks.
type Method struct {
	name string
	args []any

	mu        sync.Mutex
	callbacks []ResultFunc
}

// NewMethod creates a call of name with args.
func NewMethod(name string, args ...any) *Method {
	return &Method{name: name, args: args}
}

// Name returns the method name.
func (m *Method) Name() string { return m.name }

// Args returns the call arguments.
func (m *Method) Args() []any { return m.args }

// OnResult registers a callback for the call's result and returns m.
func (m *Method) OnResult(fn ResultFunc) *Method {
	if fn == nil {
		return m
	}
	m.mu.Lock()
	m.callbacks = append(m.callbacks, fn)
	m.mu.Unlock()
	return m
}

// resultHandler returns a single callback fanning out to every registered
// callback, or nil when none is registered.
func (m *Method) resultHandler() ResultFunc {
	m.mu.Lock()
	callbacks := make([]ResultFunc, len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	if len(callbacks) == 0 {
		return nil
	}
	return func(result string) {
		for _, cb := range callbacks {
			cb(result)
		}
	}
}

// Channel submits Methods to an Environment.
//
// Execute never reports failure to the caller: calls that cannot be rendered
// or that the environment rejects are logged and dropped.
type Channel struct {
	ctx    context.Context
	env    Environment
	logger *logging.Logger
}

// New creates a channel over env whose requests are never cancelled.
func New(env Environment, logger *logging.Logger) *Channel {
	return NewWithContext(context.Background(), env, logger)
}

// NewWithContext creates a channel over env. Every request carries ctx, so
// cancelling it withdraws calls the environment has not run yet.
func NewWithContext(ctx context.Context, env Environment, logger *logging.Logger) *Channel {
	if logger == nil {
		logger = logging.Null()
	}
	return &Channel{ctx: ctx, env: env, logger: logger.WithComponent("channel")}
}

// Execute renders and submits m.
func (c *Channel) Execute(m *Method) {
	src, err := script.Render(m.name, m.args...)
	if err != nil {
		c.logger.Warn("dropping %s: %v", m.name, err)
		return
	}

	if c.ctx.Err() != nil {
		c.logger.Debug("dropping %s: %v", m.name, c.ctx.Err())
		return
	}
	req := Request{Method: m.name, Args: m.args, Script: src, Context: c.ctx}
	if err := c.env.Evaluate(req, m.resultHandler()); err != nil {
		if errors.Is(err, ErrUnavailable) {
			c.logger.Debug("dropping %s: %v", m.name, err)
			return
		}
		c.logger.Warn("dropping %s: %v", m.name, err)
		return
	}
	c.logger.Debug("sent %s", src)
}

// Call is shorthand for Execute(NewMethod(name, args...)).
func (c *Channel) Call(name string, args ...any) {
	c.Execute(NewMethod(name, args...))
}
