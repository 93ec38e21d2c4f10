package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelctx/mcp-client-go/pkg/protocol"
)

func TestInMemoryPipeRoundTrip(t *testing.T) {
	a, b := NewInMemoryPipe()

	received := make(chan protocol.Message, 8)
	require.NoError(t, a.Connect(context.Background(), func(protocol.Message) {}))
	require.NoError(t, b.Connect(context.Background(), func(msg protocol.Message) {
		received <- msg
	}))
	defer a.Close(context.Background())
	defer b.Close(context.Background())

	for i := 0; i < 3; i++ {
		req, err := protocol.NewRequest(protocol.NewRequestID(int64(i)), protocol.MethodPing, nil)
		require.NoError(t, err)
		require.NoError(t, a.Send(context.Background(), req))
	}

	for i := 0; i < 3; i++ {
		msg := waitMessage(t, received)
		req, ok := msg.(*protocol.Request)
		require.True(t, ok, "expected a request, got %T", msg)
		assert.Equal(t, protocol.NewRequestID(int64(i)), req.ID, "delivery must preserve send order")
	}
}

func TestInMemoryPipeSendAfterPeerClosed(t *testing.T) {
	a, b := NewInMemoryPipe()
	require.NoError(t, a.Connect(context.Background(), func(protocol.Message) {}))
	require.NoError(t, b.Close(context.Background()))

	req, err := protocol.NewRequest(protocol.NewRequestID(0), protocol.MethodPing, nil)
	require.NoError(t, err)

	sendErr := a.Send(context.Background(), req)
	assert.Error(t, sendErr)
}

func TestInMemoryPipeSendHonorsContext(t *testing.T) {
	a, b := NewInMemoryPipe()
	// b never connects, so its queue eventually fills.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var sendErr error
	for i := 0; i < 256 && sendErr == nil; i++ {
		req, _ := protocol.NewRequest(protocol.NewRequestID(int64(i)), protocol.MethodPing, nil)
		sendErr = a.Send(ctx, req)
	}
	assert.Error(t, sendErr, "a full unread queue must eventually fail the send")
	_ = b
}
