package client

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcperrors "github.com/modelctx/mcp-client-go/pkg/errors"
	"github.com/modelctx/mcp-client-go/pkg/protocol"
)

func TestCallToolWithProgressRoutesByToken(t *testing.T) {
	c, server := connectedClient(t)

	// The tool emits one progress notification for the carried token, then
	// finishes.
	server.handle(protocol.MethodCallTool, func(req *protocol.Request) protocol.Message {
		var params protocol.CallToolParams
		if err := json.Unmarshal(req.Params, &params); err != nil || params.Meta == nil || params.Meta.ProgressToken == nil {
			resp, _ := protocol.NewErrorResponse(req.ID, protocol.InvalidParams, "missing progress token", nil)
			return resp
		}
		notif, _ := protocol.NewNotification(protocol.MethodNotificationProgress, protocol.ProgressParams{
			ProgressToken: *params.Meta.ProgressToken,
			Progress:      0.5,
			Total:         1,
		})
		_ = server.tr.Send(context.Background(), notif)

		resp, _ := protocol.NewResponse(req.ID, protocol.CallToolResult{
			Content: []protocol.Content{protocol.TextContent("done")},
		})
		return resp
	})

	progress := make(chan protocol.ProgressParams, 4)
	result, err := c.CallToolWithProgress(context.Background(), "slow", nil, func(params protocol.ProgressParams) {
		progress <- params
	})
	require.NoError(t, err)
	require.Len(t, result.Content, 1)

	select {
	case p := <-progress:
		assert.Equal(t, 0.5, p.Progress)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for progress")
	}
}

func TestProgressForUnknownTokenIsIgnored(t *testing.T) {
	c, server := connectedClient(t)

	notif, err := protocol.NewNotification(protocol.MethodNotificationProgress, protocol.ProgressParams{
		ProgressToken: protocol.NewStringRequestID("nobody"),
		Progress:      1,
	})
	require.NoError(t, err)
	require.NoError(t, server.tr.Send(context.Background(), notif))

	// The session keeps working afterwards.
	server.respondWith(protocol.MethodPing, protocol.EmptyResult{})
	assert.NoError(t, c.Ping(context.Background()))
}

func TestComplete(t *testing.T) {
	c, server := connectedClient(t)
	server.respondWith(protocol.MethodComplete, protocol.CompleteResult{
		Completion: protocol.Completion{Values: []string{"alpha", "beta"}, HasMore: false},
	})

	result, err := c.Complete(context.Background(), protocol.CompleteParams{
		Ref:      protocol.CompletionReference{Type: "ref/prompt", Name: "greet"},
		Argument: protocol.CompletionArgument{Name: "name", Value: "al"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, result.Completion.Values)
}

func TestSetLoggingLevelValidation(t *testing.T) {
	c, server := connectedClient(t)

	err := c.SetLoggingLevel(context.Background(), protocol.LoggingLevel("verbose"))
	require.Error(t, err)
	assert.True(t, mcperrors.IsCode(err, mcperrors.CodeInvalidParams))
	assert.Empty(t, server.requestsFor(protocol.MethodSetLoggingLevel))

	server.respondWith(protocol.MethodSetLoggingLevel, protocol.EmptyResult{})
	assert.NoError(t, c.SetLoggingLevel(context.Background(), protocol.LoggingLevelWarning))
}

func TestUnsubscribeStopsRouting(t *testing.T) {
	c, server := connectedClient(t)
	server.respondWith(protocol.MethodSubscribeResource, protocol.EmptyResult{})
	server.respondWith(protocol.MethodUnsubscribeResource, protocol.EmptyResult{})

	updated := make(chan string, 4)
	require.NoError(t, c.SubscribeResource(context.Background(), "file:///w", func(uri string) {
		updated <- uri
	}))
	require.NoError(t, c.UnsubscribeResource(context.Background(), "file:///w"))

	notif, err := protocol.NewNotification(protocol.MethodNotificationResourceUpdated,
		protocol.ResourceUpdatedParams{URI: "file:///w"})
	require.NoError(t, err)
	require.NoError(t, server.tr.Send(context.Background(), notif))

	select {
	case uri := <-updated:
		t.Fatalf("consumer invoked after unsubscribe for %s", uri)
	case <-time.After(200 * time.Millisecond):
	}
}
