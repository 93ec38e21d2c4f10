package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	mcperrors "github.com/modelctx/mcp-client-go/pkg/errors"
	"github.com/modelctx/mcp-client-go/pkg/pagination"
	"github.com/modelctx/mcp-client-go/pkg/protocol"
)

// Ping checks that the peer is responsive. Permitted in any connected state.
func (c *Client) Ping(ctx context.Context) error {
	return c.call(ctx, protocol.MethodPing, nil, nil)
}

// requireInitialized gates operations that need a completed handshake, and
// requireCapability gates on the server's advertised feature groups. Both
// fail synchronously without touching the wire.

func (c *Client) requireInitialized(operation string) error {
	if c.State() != StateInitialized {
		return mcperrors.NotInitialized(operation)
	}
	return nil
}

func (c *Client) requireCapability(operation, capability string, present bool) error {
	if err := c.requireInitialized(operation); err != nil {
		return err
	}
	if !present {
		return mcperrors.CapabilityRequired(capability, operation)
	}
	return nil
}

// Tools

// ListTools fetches one page of the server's tool list.
func (c *Client) ListTools(ctx context.Context, cursor string) (*protocol.ListToolsResult, error) {
	if err := c.requireCapability("tools/list", "tools", c.serverCapabilities.Tools != nil); err != nil {
		return nil, err
	}
	params := protocol.ListToolsParams{PaginatedParams: protocol.PaginatedParams{Cursor: cursor}}
	var result protocol.ListToolsResult
	if err := c.call(ctx, protocol.MethodListTools, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListAllTools drains every page of the tool list.
func (c *Client) ListAllTools(ctx context.Context) ([]protocol.Tool, error) {
	return pagination.Drain(ctx, func(ctx context.Context, cursor string) (pagination.Page[protocol.Tool], error) {
		result, err := c.ListTools(ctx, cursor)
		if err != nil {
			return pagination.Page[protocol.Tool]{}, err
		}
		return pagination.Page[protocol.Tool]{Items: result.Tools, NextCursor: result.NextCursor}, nil
	})
}

// CallTool invokes the named tool. arguments is marshalled into the params
// object; pass nil for an argument-less tool.
func (c *Client) CallTool(ctx context.Context, name string, arguments interface{}) (*protocol.CallToolResult, error) {
	return c.callTool(ctx, name, arguments, nil)
}

// CallToolWithProgress invokes the named tool and routes progress
// notifications for this invocation to consumer. The progress token is
// released when the call returns.
func (c *Client) CallToolWithProgress(ctx context.Context, name string, arguments interface{}, consumer ProgressConsumer) (*protocol.CallToolResult, error) {
	token := protocol.NewStringRequestID(uuid.NewString())

	c.consumersMu.Lock()
	c.progressConsumers[token] = consumer
	c.consumersMu.Unlock()
	defer func() {
		c.consumersMu.Lock()
		delete(c.progressConsumers, token)
		c.consumersMu.Unlock()
	}()

	return c.callTool(ctx, name, arguments, &protocol.RequestMeta{ProgressToken: &token})
}

func (c *Client) callTool(ctx context.Context, name string, arguments interface{}, meta *protocol.RequestMeta) (*protocol.CallToolResult, error) {
	if err := c.requireCapability("tools/call", "tools", c.serverCapabilities.Tools != nil); err != nil {
		return nil, err
	}

	var argsJSON json.RawMessage
	if arguments != nil {
		var err error
		argsJSON, err = json.Marshal(arguments)
		if err != nil {
			return nil, mcperrors.WrapError(err, mcperrors.CodeInvalidParams,
				fmt.Sprintf("failed to marshal arguments for tool %q", name),
				mcperrors.CategoryInternal, mcperrors.SeverityError)
		}
	}

	params := protocol.CallToolParams{Name: name, Arguments: argsJSON, Meta: meta}
	var result protocol.CallToolResult
	if err := c.call(ctx, protocol.MethodCallTool, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Resources

// ListResources fetches one page of the server's resource list.
func (c *Client) ListResources(ctx context.Context, cursor string) (*protocol.ListResourcesResult, error) {
	if err := c.requireCapability("resources/list", "resources", c.serverCapabilities.Resources != nil); err != nil {
		return nil, err
	}
	params := protocol.ListResourcesParams{PaginatedParams: protocol.PaginatedParams{Cursor: cursor}}
	var result protocol.ListResourcesResult
	if err := c.call(ctx, protocol.MethodListResources, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListAllResources drains every page of the resource list.
func (c *Client) ListAllResources(ctx context.Context) ([]protocol.Resource, error) {
	return pagination.Drain(ctx, func(ctx context.Context, cursor string) (pagination.Page[protocol.Resource], error) {
		result, err := c.ListResources(ctx, cursor)
		if err != nil {
			return pagination.Page[protocol.Resource]{}, err
		}
		return pagination.Page[protocol.Resource]{Items: result.Resources, NextCursor: result.NextCursor}, nil
	})
}

// ListResourceTemplates fetches one page of the server's resource templates.
func (c *Client) ListResourceTemplates(ctx context.Context, cursor string) (*protocol.ListResourceTemplatesResult, error) {
	if err := c.requireCapability("resources/templates/list", "resources", c.serverCapabilities.Resources != nil); err != nil {
		return nil, err
	}
	params := protocol.ListResourceTemplatesParams{PaginatedParams: protocol.PaginatedParams{Cursor: cursor}}
	var result protocol.ListResourceTemplatesResult
	if err := c.call(ctx, protocol.MethodListResourceTemplates, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ReadResource fetches the contents of the resource at uri.
func (c *Client) ReadResource(ctx context.Context, uri string) (*protocol.ReadResourceResult, error) {
	if err := c.requireCapability("resources/read", "resources", c.serverCapabilities.Resources != nil); err != nil {
		return nil, err
	}
	var result protocol.ReadResourceResult
	if err := c.call(ctx, protocol.MethodReadResource, protocol.ReadResourceParams{URI: uri}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SubscribeResource subscribes to updates of the resource at uri and routes
// notifications/resources/updated for it to consumer. Requires the server
// to advertise resources.subscribe.
func (c *Client) SubscribeResource(ctx context.Context, uri string, consumer ResourceUpdateConsumer) error {
	subscribable := c.serverCapabilities.Resources != nil && c.serverCapabilities.Resources.Subscribe
	if err := c.requireCapability("resources/subscribe", "resources.subscribe", subscribable); err != nil {
		return err
	}
	if err := c.call(ctx, protocol.MethodSubscribeResource, protocol.SubscribeParams{URI: uri}, nil); err != nil {
		return err
	}
	c.consumersMu.Lock()
	c.subscriptions[uri] = consumer
	c.consumersMu.Unlock()
	return nil
}

// UnsubscribeResource drops the subscription for uri.
func (c *Client) UnsubscribeResource(ctx context.Context, uri string) error {
	subscribable := c.serverCapabilities.Resources != nil && c.serverCapabilities.Resources.Subscribe
	if err := c.requireCapability("resources/unsubscribe", "resources.subscribe", subscribable); err != nil {
		return err
	}
	if err := c.call(ctx, protocol.MethodUnsubscribeResource, protocol.UnsubscribeParams{URI: uri}, nil); err != nil {
		return err
	}
	c.consumersMu.Lock()
	delete(c.subscriptions, uri)
	c.consumersMu.Unlock()
	return nil
}

// Prompts

// ListPrompts fetches one page of the server's prompt list.
func (c *Client) ListPrompts(ctx context.Context, cursor string) (*protocol.ListPromptsResult, error) {
	if err := c.requireCapability("prompts/list", "prompts", c.serverCapabilities.Prompts != nil); err != nil {
		return nil, err
	}
	params := protocol.ListPromptsParams{PaginatedParams: protocol.PaginatedParams{Cursor: cursor}}
	var result protocol.ListPromptsResult
	if err := c.call(ctx, protocol.MethodListPrompts, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListAllPrompts drains every page of the prompt list.
func (c *Client) ListAllPrompts(ctx context.Context) ([]protocol.Prompt, error) {
	return pagination.Drain(ctx, func(ctx context.Context, cursor string) (pagination.Page[protocol.Prompt], error) {
		result, err := c.ListPrompts(ctx, cursor)
		if err != nil {
			return pagination.Page[protocol.Prompt]{}, err
		}
		return pagination.Page[protocol.Prompt]{Items: result.Prompts, NextCursor: result.NextCursor}, nil
	})
}

// GetPrompt fetches the named prompt rendered with arguments.
func (c *Client) GetPrompt(ctx context.Context, name string, arguments map[string]string) (*protocol.GetPromptResult, error) {
	if err := c.requireCapability("prompts/get", "prompts", c.serverCapabilities.Prompts != nil); err != nil {
		return nil, err
	}
	params := protocol.GetPromptParams{Name: name, Arguments: arguments}
	var result protocol.GetPromptResult
	if err := c.call(ctx, protocol.MethodGetPrompt, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Logging

// SetLoggingLevel asks the server to push log records at level and above.
func (c *Client) SetLoggingLevel(ctx context.Context, level protocol.LoggingLevel) error {
	if err := c.requireCapability("logging/setLevel", "logging", c.serverCapabilities.Logging != nil); err != nil {
		return err
	}
	if !level.IsValid() {
		return mcperrors.NewError(mcperrors.CodeInvalidParams,
			fmt.Sprintf("unknown logging level %q", level),
			mcperrors.CategoryPreflight, mcperrors.SeverityError)
	}
	return c.call(ctx, protocol.MethodSetLoggingLevel, protocol.SetLevelParams{Level: level}, nil)
}

// Completion

// Complete asks the server for argument completion candidates.
func (c *Client) Complete(ctx context.Context, params protocol.CompleteParams) (*protocol.CompleteResult, error) {
	if err := c.requireInitialized("completion/complete"); err != nil {
		return nil, err
	}
	var result protocol.CompleteResult
	if err := c.call(ctx, protocol.MethodComplete, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
