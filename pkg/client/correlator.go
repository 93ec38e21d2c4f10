package client

import (
	"sync"
	"time"

	mcperrors "github.com/modelctx/mcp-client-go/pkg/errors"
	"github.com/modelctx/mcp-client-go/pkg/protocol"
)

// callResult is the single terminal event of an awaiter: a response from the
// peer or a locally raised error, never both.
type callResult struct {
	resp *protocol.Response
	err  error
}

// awaiter is a parked continuation waiting for the response correlated with
// its ID. It is resolved exactly once; done is buffered so resolution never
// blocks the resolver.
type awaiter struct {
	id       protocol.RequestID
	method   string
	deadline time.Time
	done     chan callResult
}

// correlator owns the pending-request table and mints request IDs. Every
// mutation happens under one mutex, which is also what serializes racing
// complete/expire/cancel attempts on the same ID: whichever removes the
// awaiter first decides the outcome, later attempts find nothing and no-op.
type correlator struct {
	mu      sync.Mutex
	nextID  int64
	pending map[protocol.RequestID]*awaiter
	closed  bool
	cause   error
}

func newCorrelator() *correlator {
	return &correlator{
		pending: make(map[protocol.RequestID]*awaiter),
	}
}

// register mints the next request ID and parks an awaiter for it. IDs are
// monotonically increasing and never reused within a session.
func (c *correlator) register(method string, deadline time.Time) (*awaiter, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, mcperrors.SessionClosed(c.cause)
	}

	id := protocol.NewRequestID(c.nextID)
	c.nextID++

	aw := &awaiter{
		id:       id,
		method:   method,
		deadline: deadline,
		done:     make(chan callResult, 1),
	}
	c.pending[id] = aw
	return aw, nil
}

// complete resolves the awaiter parked under id with the peer's response.
// It reports false when the ID is unknown, which the dispatcher logs and
// drops: the server may legitimately answer after a cancellation.
func (c *correlator) complete(id protocol.RequestID, resp *protocol.Response) bool {
	aw := c.take(id)
	if aw == nil {
		return false
	}
	aw.done <- callResult{resp: resp}
	return true
}

// fail resolves the awaiter parked under id with a local error.
func (c *correlator) fail(id protocol.RequestID, err error) bool {
	aw := c.take(id)
	if aw == nil {
		return false
	}
	aw.done <- callResult{err: err}
	return true
}

// take removes and returns the awaiter parked under id, or nil when another
// resolution already won.
func (c *correlator) take(id protocol.RequestID) *awaiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	aw, ok := c.pending[id]
	if !ok {
		return nil
	}
	delete(c.pending, id)
	return aw
}

// expire removes every awaiter whose deadline has passed and returns them
// unresolved; the caller resolves each with a timeout error and emits the
// cancellation notification.
func (c *correlator) expire(now time.Time) []*awaiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expired []*awaiter
	for id, aw := range c.pending {
		if now.After(aw.deadline) {
			delete(c.pending, id)
			expired = append(expired, aw)
		}
	}
	return expired
}

// shutdown resolves every remaining awaiter with a session-closed error
// carrying cause and refuses further registrations. Idempotent.
func (c *correlator) shutdown(cause error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.cause = cause
	remaining := make([]*awaiter, 0, len(c.pending))
	for id, aw := range c.pending {
		delete(c.pending, id)
		remaining = append(remaining, aw)
	}
	c.mu.Unlock()

	for _, aw := range remaining {
		aw.done <- callResult{err: mcperrors.SessionClosed(cause)}
	}
}

// pendingCount reports the number of parked awaiters.
func (c *correlator) pendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
