// Package transport provides the bidirectional message pipe abstraction the
// session engine runs on, plus the reference bindings: newline-delimited
// JSON over stdio and HTTP POST with a Server-Sent Events return channel.
//
// A Transport carries whole JSON-RPC envelopes. It guarantees that inbound
// delivery through the sink is strictly sequential and that outbound order
// is preserved; everything above that — correlation, dispatch, capability
// negotiation — is the session engine's job.
package transport

import (
	"context"
	"time"

	"github.com/modelctx/mcp-client-go/pkg/protocol"
)

// MessageSink receives inbound envelopes in arrival order. The transport
// calls it from a single goroutine; a sink must not retain the message past
// the call unless it copies it.
type MessageSink func(msg protocol.Message)

// Transport is the contract the session engine consumes.
type Transport interface {
	// Connect establishes the pipe and begins delivering inbound envelopes
	// to sink. It returns once the transport is ready to accept Send calls.
	Connect(ctx context.Context, sink MessageSink) error

	// Send hands an envelope to the wire, preserving call order. A Send
	// failure is terminal for the session.
	Send(ctx context.Context, msg protocol.Message) error

	// Close drains the pipe and releases resources. It is safe to call
	// more than once.
	Close(ctx context.Context) error
}

// ConnectionConfig carries the knobs shared by the network-backed bindings.
type ConnectionConfig struct {
	// ConnectTimeout bounds transport establishment.
	ConnectTimeout time.Duration

	// MaxFrameSize bounds a single inbound frame; zero means the binding's
	// default.
	MaxFrameSize int
}

// DefaultConnectionConfig returns the defaults used when a zero
// ConnectionConfig is supplied.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		ConnectTimeout: 30 * time.Second,
		MaxFrameSize:   4 << 20,
	}
}

func (c ConnectionConfig) withDefaults() ConnectionConfig {
	def := DefaultConnectionConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.MaxFrameSize <= 0 {
		c.MaxFrameSize = def.MaxFrameSize
	}
	return c
}
