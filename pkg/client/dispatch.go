package client

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.opentelemetry.io/otel/trace"

	mcperrors "github.com/modelctx/mcp-client-go/pkg/errors"
	"github.com/modelctx/mcp-client-go/pkg/logging"
	"github.com/modelctx/mcp-client-go/pkg/observability"
	"github.com/modelctx/mcp-client-go/pkg/protocol"
)

const (
	spanKindClient = trace.SpanKindClient
	spanKindServer = trace.SpanKindServer
)

// dispatch is the transport sink: the single inbound entry point. The
// transport calls it sequentially, so everything here runs on one inbound
// task; anything that could block hands off to a worker.
func (c *Client) dispatch(msg protocol.Message) {
	switch m := msg.(type) {
	case *protocol.Response:
		c.dispatchResponse(m)
	case *protocol.Request:
		c.dispatchRequest(m)
	case *protocol.Notification:
		c.dispatchNotification(m)
	case *protocol.Malformed:
		c.dispatchMalformed(m)
	default:
		c.metrics.RecordDroppedFrame()
		c.logger.Warn("dropping inbound frame of unknown shape")
	}
}

func (c *Client) dispatchResponse(resp *protocol.Response) {
	if !c.correlator.complete(resp.ID, resp) {
		// The server may answer after a cancellation or timeout; the
		// session keeps processing subsequent messages.
		c.metrics.RecordDroppedFrame()
		c.logger.Debug("dropping response for unknown request",
			logging.String("request_id", resp.ID.String()),
		)
	}
}

func (c *Client) dispatchRequest(req *protocol.Request) {
	ctx, span := c.tracing.StartMethodSpan(context.Background(), req.Method, spanKindServer)
	defer span.End()

	handler, ok := c.requestHandlers[req.Method]
	if !ok {
		c.metrics.RecordServerRequest(req.Method, observability.OutcomeError)
		c.respondError(req.ID, mcperrors.MethodNotSupported(req.Method))
		return
	}

	result, err := c.invokeRequestHandler(ctx, handler, req)
	if err != nil {
		c.tracing.RecordError(ctx, err)
		c.metrics.RecordServerRequest(req.Method, observability.OutcomeError)
		c.respondError(req.ID, err)
		return
	}

	resp, err := protocol.NewResponse(req.ID, result)
	if err != nil {
		c.tracing.RecordError(ctx, err)
		c.metrics.RecordServerRequest(req.Method, observability.OutcomeError)
		c.respondError(req.ID, mcperrors.HandlerFailed(req.Method, err))
		return
	}
	c.metrics.RecordServerRequest(req.Method, observability.OutcomeOK)
	c.send(resp)
}

// invokeRequestHandler runs a handler with panic recovery so a faulty
// handler cannot take down the inbound loop.
func (c *Client) invokeRequestHandler(ctx context.Context, handler requestHandler, req *protocol.Request) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("request handler panicked",
				logging.String("method", req.Method),
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())),
			)
			result = nil
			err = mcperrors.HandlerFailed(req.Method, fmt.Errorf("panic: %v", r))
		}
	}()
	return handler(ctx, req.Params)
}

func (c *Client) dispatchNotification(notif *protocol.Notification) {
	c.metrics.RecordNotification(notif.Method, observability.DirectionInbound)

	handler, ok := c.notificationHandlers[notif.Method]
	if !ok {
		c.logger.Debug("no handler for notification",
			logging.String("method", notif.Method),
		)
		return
	}

	// Handler failures are logged and isolated; the loop continues.
	if err := c.invokeNotificationHandler(handler, notif); err != nil {
		c.logger.WithError(err).Warn("notification handler failed",
			logging.String("method", notif.Method),
		)
	}
}

func (c *Client) invokeNotificationHandler(handler notificationHandler, notif *protocol.Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in notification handler for %s: %v", notif.Method, r)
		}
	}()
	return handler(context.Background(), notif.Params)
}

func (c *Client) dispatchMalformed(m *protocol.Malformed) {
	if m.ID.IsValid() {
		resp, err := protocol.NewErrorResponse(m.ID, m.Err.Code, m.Err.Message, nil)
		if err == nil {
			c.send(resp)
			return
		}
	}
	c.metrics.RecordDroppedFrame()
	c.logger.Warn("dropping malformed frame",
		logging.Int("code", int(m.Err.Code)),
		logging.String("detail", m.Err.Message),
	)
}

// respondError writes an error response carrying err's code for the given
// request ID.
func (c *Client) respondError(id protocol.RequestID, err error) {
	code := protocol.ErrorCode(mcperrors.CodeInternalError)
	message := err.Error()
	if mcpErr, ok := mcperrors.AsMCPError(err); ok {
		code = protocol.ErrorCode(mcpErr.Code())
		message = mcpErr.Message()
	}
	resp, respErr := protocol.NewErrorResponse(id, code, message, nil)
	if respErr != nil {
		c.logger.WithError(respErr).Error("failed to encode error response")
		return
	}
	c.send(resp)
}

// send writes a dispatcher-originated envelope. A transport failure here is
// terminal, exactly as for caller-originated traffic.
func (c *Client) send(msg protocol.Message) {
	c.sendMu.Lock()
	err := c.transport.Send(context.Background(), msg)
	c.sendMu.Unlock()
	if err != nil {
		c.logger.WithError(err).Error("outbound write failed, shutting down")
		go c.shutdown(err)
	}
}
