package transport

import (
	"context"
	"encoding/json"
	"sync"

	mcperrors "github.com/modelctx/mcp-client-go/pkg/errors"
	"github.com/modelctx/mcp-client-go/pkg/protocol"
)

// InMemoryTransport is one side of an in-process message pipe. It exists for
// tests and for embedding a server in the same process: messages sent on one
// side are re-encoded through the wire codec and delivered to the other
// side's sink in order, so in-memory sessions observe the same framing
// behavior as networked ones.
type InMemoryTransport struct {
	peer *InMemoryTransport

	mu     sync.Mutex
	sink   MessageSink
	queue  chan protocol.Message
	done   chan struct{}
	closed bool
	once   sync.Once
}

// NewInMemoryPipe creates two connected transports. Envelopes sent on one
// side arrive at the other.
func NewInMemoryPipe() (*InMemoryTransport, *InMemoryTransport) {
	a := newInMemoryTransport()
	b := newInMemoryTransport()
	a.peer, b.peer = b, a
	return a, b
}

func newInMemoryTransport() *InMemoryTransport {
	return &InMemoryTransport{
		queue: make(chan protocol.Message, 64),
		done:  make(chan struct{}),
	}
}

// Connect installs the sink and starts sequential delivery.
func (t *InMemoryTransport) Connect(ctx context.Context, sink MessageSink) error {
	t.mu.Lock()
	t.sink = sink
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-t.done:
				return
			case msg, ok := <-t.queue:
				if !ok {
					return
				}
				sink(msg)
			}
		}
	}()
	return nil
}

// Send round-trips the envelope through JSON and enqueues it at the peer.
func (t *InMemoryTransport) Send(ctx context.Context, msg protocol.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return mcperrors.TransportError("inmem", "marshal", err)
	}

	peer := t.peer
	peer.mu.Lock()
	closed := peer.closed
	peer.mu.Unlock()
	if closed {
		return mcperrors.TransportNotConnected("inmem")
	}

	select {
	case peer.queue <- protocol.DecodeMessage(data):
		return nil
	case <-peer.done:
		return mcperrors.TransportNotConnected("inmem")
	case <-ctx.Done():
		return mcperrors.TransportError("inmem", "send", ctx.Err())
	}
}

// Close stops delivery on this side.
func (t *InMemoryTransport) Close(ctx context.Context) error {
	t.once.Do(func() {
		t.mu.Lock()
		t.closed = true
		t.mu.Unlock()
		close(t.done)
	})
	return nil
}
