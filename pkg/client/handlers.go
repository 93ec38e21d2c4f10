package client

import (
	"context"
	"encoding/json"
	"fmt"

	mcperrors "github.com/modelctx/mcp-client-go/pkg/errors"
	"github.com/modelctx/mcp-client-go/pkg/logging"
	"github.com/modelctx/mcp-client-go/pkg/protocol"
)

// Built-in request handlers (server to client)

func (c *Client) handlePing(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return protocol.EmptyResult{}, nil
}

func (c *Client) handleListRoots(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return protocol.ListRootsResult{Roots: c.listRoots()}, nil
}

func (c *Client) handleCreateMessage(ctx context.Context, params json.RawMessage) (interface{}, error) {
	handler := c.samplingHandler
	if handler == nil {
		return nil, mcperrors.MethodNotSupported(protocol.MethodCreateMessage)
	}

	var req protocol.CreateMessageRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, mcperrors.NewError(mcperrors.CodeInvalidParams,
			fmt.Sprintf("invalid sampling params: %v", err),
			mcperrors.CategoryProtocol, mcperrors.SeverityError)
	}

	result, err := handler(ctx, &req)
	if err != nil {
		return nil, mcperrors.HandlerFailed(protocol.MethodCreateMessage, err)
	}
	return result, nil
}

// Built-in notification handlers

func (c *Client) handleCancelled(ctx context.Context, params json.RawMessage) error {
	var p protocol.CancelledParams
	if err := json.Unmarshal(params, &p); err != nil {
		return fmt.Errorf("invalid cancelled params: %w", err)
	}

	aw := c.correlator.take(p.RequestID)
	if aw == nil {
		// Already resolved; the race loser is a no-op.
		return nil
	}
	aw.done <- callResult{err: mcperrors.RequestCancelled(aw.method, p.Reason)}
	c.logger.Debug("request cancelled by peer",
		logging.String("request_id", p.RequestID.String()),
		logging.String("reason", p.Reason),
	)
	return nil
}

func (c *Client) handleProgress(ctx context.Context, params json.RawMessage) error {
	var p protocol.ProgressParams
	if err := json.Unmarshal(params, &p); err != nil {
		return fmt.Errorf("invalid progress params: %w", err)
	}

	c.consumersMu.Lock()
	consumer := c.progressConsumers[p.ProgressToken]
	c.consumersMu.Unlock()
	if consumer == nil {
		c.logger.Debug("progress for unknown token",
			logging.String("progress_token", p.ProgressToken.String()),
		)
		return nil
	}

	c.eventsWorker.enqueue(func() { consumer(p) })
	return nil
}

func (c *Client) handleLoggingMessage(ctx context.Context, params json.RawMessage) error {
	var p protocol.LoggingMessageParams
	if err := json.Unmarshal(params, &p); err != nil {
		return fmt.Errorf("invalid logging params: %w", err)
	}

	c.consumersMu.Lock()
	consumers := make([]LoggingConsumer, len(c.loggingConsumers))
	copy(consumers, c.loggingConsumers)
	c.consumersMu.Unlock()

	c.eventsWorker.enqueue(func() {
		for _, consumer := range consumers {
			consumer(p)
		}
	})
	return nil
}

func (c *Client) handleResourceUpdated(ctx context.Context, params json.RawMessage) error {
	var p protocol.ResourceUpdatedParams
	if err := json.Unmarshal(params, &p); err != nil {
		return fmt.Errorf("invalid resource update params: %w", err)
	}

	c.consumersMu.Lock()
	consumer := c.subscriptions[p.URI]
	c.consumersMu.Unlock()
	if consumer == nil {
		c.logger.Debug("update for unsubscribed resource",
			logging.String("uri", p.URI),
		)
		return nil
	}

	c.eventsWorker.enqueue(func() { consumer(p.URI) })
	return nil
}

// List-changed refresh: each notification triggers a full drain of the
// corresponding list on that kind's worker, then a fan-out of the
// concatenated result to every registered consumer.

func (c *Client) handleToolsListChanged(ctx context.Context, params json.RawMessage) error {
	c.toolsWorker.enqueue(func() {
		tools, err := c.ListAllTools(context.Background())
		if err != nil {
			c.logger.WithError(err).Warn("tools refresh failed")
			return
		}
		c.consumersMu.Lock()
		consumers := make([]ToolsChangeConsumer, len(c.toolsConsumers))
		copy(consumers, c.toolsConsumers)
		c.consumersMu.Unlock()
		for _, consumer := range consumers {
			consumer(tools)
		}
	})
	return nil
}

func (c *Client) handleResourcesListChanged(ctx context.Context, params json.RawMessage) error {
	c.resourcesWorker.enqueue(func() {
		resources, err := c.ListAllResources(context.Background())
		if err != nil {
			c.logger.WithError(err).Warn("resources refresh failed")
			return
		}
		c.consumersMu.Lock()
		consumers := make([]ResourcesChangeConsumer, len(c.resourcesConsumers))
		copy(consumers, c.resourcesConsumers)
		c.consumersMu.Unlock()
		for _, consumer := range consumers {
			consumer(resources)
		}
	})
	return nil
}

func (c *Client) handlePromptsListChanged(ctx context.Context, params json.RawMessage) error {
	c.promptsWorker.enqueue(func() {
		prompts, err := c.ListAllPrompts(context.Background())
		if err != nil {
			c.logger.WithError(err).Warn("prompts refresh failed")
			return
		}
		c.consumersMu.Lock()
		consumers := make([]PromptsChangeConsumer, len(c.promptsConsumers))
		copy(consumers, c.promptsConsumers)
		c.consumersMu.Unlock()
		for _, consumer := range consumers {
			consumer(prompts)
		}
	})
	return nil
}
