package client

import (
	"context"

	"github.com/modelctx/mcp-client-go/pkg/protocol"
)

// SyncClient is a blocking wrapper over the session engine: every operation
// runs under a context bounded by the session's request timeout, so callers
// never park longer than one timeout interval. Exceeding the bound yields
// the same timeout error as correlator expiry, and the in-flight request is
// cancelled toward the server.
type SyncClient struct {
	c *Client
}

// Sync returns the blocking façade for this session.
func (c *Client) Sync() *SyncClient {
	return &SyncClient{c: c}
}

func (s *SyncClient) bounded() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.c.requestTimeout)
}

// Connect establishes the session.
func (s *SyncClient) Connect() error {
	ctx, cancel := s.bounded()
	defer cancel()
	return s.c.Connect(ctx)
}

// Close shuts the session down.
func (s *SyncClient) Close() error {
	return s.c.Close()
}

// Ping checks that the peer is responsive.
func (s *SyncClient) Ping() error {
	ctx, cancel := s.bounded()
	defer cancel()
	return s.c.Ping(ctx)
}

// ListTools fetches one page of the server's tool list.
func (s *SyncClient) ListTools(cursor string) (*protocol.ListToolsResult, error) {
	ctx, cancel := s.bounded()
	defer cancel()
	return s.c.ListTools(ctx, cursor)
}

// ListAllTools drains every page of the tool list.
func (s *SyncClient) ListAllTools() ([]protocol.Tool, error) {
	ctx, cancel := s.bounded()
	defer cancel()
	return s.c.ListAllTools(ctx)
}

// CallTool invokes the named tool.
func (s *SyncClient) CallTool(name string, arguments interface{}) (*protocol.CallToolResult, error) {
	ctx, cancel := s.bounded()
	defer cancel()
	return s.c.CallTool(ctx, name, arguments)
}

// ListResources fetches one page of the server's resource list.
func (s *SyncClient) ListResources(cursor string) (*protocol.ListResourcesResult, error) {
	ctx, cancel := s.bounded()
	defer cancel()
	return s.c.ListResources(ctx, cursor)
}

// ListAllResources drains every page of the resource list.
func (s *SyncClient) ListAllResources() ([]protocol.Resource, error) {
	ctx, cancel := s.bounded()
	defer cancel()
	return s.c.ListAllResources(ctx)
}

// ListResourceTemplates fetches one page of the server's resource templates.
func (s *SyncClient) ListResourceTemplates(cursor string) (*protocol.ListResourceTemplatesResult, error) {
	ctx, cancel := s.bounded()
	defer cancel()
	return s.c.ListResourceTemplates(ctx, cursor)
}

// ReadResource fetches the contents of the resource at uri.
func (s *SyncClient) ReadResource(uri string) (*protocol.ReadResourceResult, error) {
	ctx, cancel := s.bounded()
	defer cancel()
	return s.c.ReadResource(ctx, uri)
}

// SubscribeResource subscribes to updates of the resource at uri.
func (s *SyncClient) SubscribeResource(uri string, consumer ResourceUpdateConsumer) error {
	ctx, cancel := s.bounded()
	defer cancel()
	return s.c.SubscribeResource(ctx, uri, consumer)
}

// UnsubscribeResource drops the subscription for uri.
func (s *SyncClient) UnsubscribeResource(uri string) error {
	ctx, cancel := s.bounded()
	defer cancel()
	return s.c.UnsubscribeResource(ctx, uri)
}

// ListPrompts fetches one page of the server's prompt list.
func (s *SyncClient) ListPrompts(cursor string) (*protocol.ListPromptsResult, error) {
	ctx, cancel := s.bounded()
	defer cancel()
	return s.c.ListPrompts(ctx, cursor)
}

// ListAllPrompts drains every page of the prompt list.
func (s *SyncClient) ListAllPrompts() ([]protocol.Prompt, error) {
	ctx, cancel := s.bounded()
	defer cancel()
	return s.c.ListAllPrompts(ctx)
}

// GetPrompt fetches the named prompt rendered with arguments.
func (s *SyncClient) GetPrompt(name string, arguments map[string]string) (*protocol.GetPromptResult, error) {
	ctx, cancel := s.bounded()
	defer cancel()
	return s.c.GetPrompt(ctx, name, arguments)
}

// SetLoggingLevel asks the server to push log records at level and above.
func (s *SyncClient) SetLoggingLevel(level protocol.LoggingLevel) error {
	ctx, cancel := s.bounded()
	defer cancel()
	return s.c.SetLoggingLevel(ctx, level)
}

// Complete asks the server for argument completion candidates.
func (s *SyncClient) Complete(params protocol.CompleteParams) (*protocol.CompleteResult, error) {
	ctx, cancel := s.bounded()
	defer cancel()
	return s.c.Complete(ctx, params)
}

// Healthy reports whether a ping round-trips within the request timeout.
func (s *SyncClient) Healthy() bool {
	return s.Ping() == nil
}
