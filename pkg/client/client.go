// Package client implements the MCP session protocol engine: the initialize
// handshake, request/response correlation over a single bidirectional
// transport, dispatch of server-initiated traffic, and the typed client
// operations.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	mcperrors "github.com/modelctx/mcp-client-go/pkg/errors"
	"github.com/modelctx/mcp-client-go/pkg/logging"
	"github.com/modelctx/mcp-client-go/pkg/observability"
	"github.com/modelctx/mcp-client-go/pkg/protocol"
	"github.com/modelctx/mcp-client-go/pkg/transport"
)

// State is the lifecycle phase of a session. Only StateInitialized permits
// user-facing operations other than Ping.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateInitialized
	StateClosing
	StateClosed
)

// String renders the state for logs.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateInitialized:
		return "initialized"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// DefaultRequestTimeout bounds every outbound request unless overridden.
const DefaultRequestTimeout = 20 * time.Second

// expirySweepInterval is how often parked awaiters are checked against
// their deadlines.
const expirySweepInterval = 100 * time.Millisecond

// SamplingHandler answers a server-initiated sampling/createMessage request
// with a model completion.
type SamplingHandler func(ctx context.Context, req *protocol.CreateMessageRequest) (*protocol.CreateMessageResult, error)

// ToolsChangeConsumer receives the full refreshed tool list after a
// tools/list_changed notification.
type ToolsChangeConsumer func(tools []protocol.Tool)

// ResourcesChangeConsumer receives the full refreshed resource list after a
// resources/list_changed notification.
type ResourcesChangeConsumer func(resources []protocol.Resource)

// PromptsChangeConsumer receives the full refreshed prompt list after a
// prompts/list_changed notification.
type PromptsChangeConsumer func(prompts []protocol.Prompt)

// LoggingConsumer receives structured log records pushed by the server.
type LoggingConsumer func(params protocol.LoggingMessageParams)

// ResourceUpdateConsumer is invoked when a subscribed resource changes.
type ResourceUpdateConsumer func(uri string)

// ProgressConsumer receives progress notifications for the request that
// carried its token.
type ProgressConsumer func(params protocol.ProgressParams)

// requestHandler answers a server-initiated request. The returned value is
// marshalled into the response result.
type requestHandler func(ctx context.Context, params json.RawMessage) (interface{}, error)

// notificationHandler consumes a server-initiated notification.
type notificationHandler func(ctx context.Context, params json.RawMessage) error

// Client is the session protocol engine. Create one with New, establish the
// session with Connect, and release it with Close.
type Client struct {
	transport      transport.Transport
	clientInfo     protocol.Implementation
	capabilities   *protocol.ClientCapabilities
	requestTimeout time.Duration
	logger         logging.Logger
	metrics        *observability.Metrics
	tracing        *observability.TracingProvider

	state atomic.Int32

	correlator *correlator

	// sendMu serializes ID allocation with the transport write so outbound
	// order matches issue order.
	sendMu sync.Mutex

	requestHandlers      map[string]requestHandler
	notificationHandlers map[string]notificationHandler

	rootsMu    sync.Mutex
	roots      map[string]protocol.Root
	rootsOrder []string

	samplingHandler SamplingHandler

	consumersMu        sync.Mutex
	toolsConsumers     []ToolsChangeConsumer
	resourcesConsumers []ResourcesChangeConsumer
	promptsConsumers   []PromptsChangeConsumer
	loggingConsumers   []LoggingConsumer
	subscriptions      map[string]ResourceUpdateConsumer
	progressConsumers  map[protocol.ProgressToken]ProgressConsumer

	// one refresh worker per list kind plus one for routed events, so a
	// slow consumer cannot stall correlation and per-kind order holds
	toolsWorker     *worker
	resourcesWorker *worker
	promptsWorker   *worker
	eventsWorker    *worker

	serverInfo         protocol.Implementation
	serverCapabilities protocol.ServerCapabilities
	negotiatedVersion  string

	sweeperStop chan struct{}
	closeOnce   sync.Once
	closeErr    error
}

// Option configures a Client during creation.
type Option func(*Client)

// WithRequestTimeout sets the deadline applied to every outbound request.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.requestTimeout = timeout
		}
	}
}

// WithClientInfo sets the identity advertised during initialize.
func WithClientInfo(info protocol.Implementation) Option {
	return func(c *Client) {
		c.clientInfo = info
	}
}

// WithCapabilities overrides the derived client capabilities.
func WithCapabilities(capabilities protocol.ClientCapabilities) Option {
	return func(c *Client) {
		caps := capabilities
		c.capabilities = &caps
	}
}

// WithRoots seeds the roots map. Roots are keyed by URI; a duplicate URI
// replaces the earlier entry.
func WithRoots(roots ...protocol.Root) Option {
	return func(c *Client) {
		for _, root := range roots {
			c.storeRoot(root)
		}
	}
}

// WithSamplingHandler registers the sampling bridge and thereby enables the
// sampling capability.
func WithSamplingHandler(handler SamplingHandler) Option {
	return func(c *Client) {
		c.samplingHandler = handler
	}
}

// WithToolsChangeConsumer registers a consumer for refreshed tool lists.
// May be given multiple times; every consumer sees every event.
func WithToolsChangeConsumer(consumer ToolsChangeConsumer) Option {
	return func(c *Client) {
		c.toolsConsumers = append(c.toolsConsumers, consumer)
	}
}

// WithResourcesChangeConsumer registers a consumer for refreshed resource lists.
func WithResourcesChangeConsumer(consumer ResourcesChangeConsumer) Option {
	return func(c *Client) {
		c.resourcesConsumers = append(c.resourcesConsumers, consumer)
	}
}

// WithPromptsChangeConsumer registers a consumer for refreshed prompt lists.
func WithPromptsChangeConsumer(consumer PromptsChangeConsumer) Option {
	return func(c *Client) {
		c.promptsConsumers = append(c.promptsConsumers, consumer)
	}
}

// WithLoggingConsumer registers a consumer for server log records.
func WithLoggingConsumer(consumer LoggingConsumer) Option {
	return func(c *Client) {
		c.loggingConsumers = append(c.loggingConsumers, consumer)
	}
}

// WithLogger sets the logger the engine reports through.
func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		c.logger = logger.WithFields(logging.String("component", "session"))
	}
}

// WithMetrics wires Prometheus metrics for session activity.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// WithTracing wires OpenTelemetry spans around request exchanges.
func WithTracing(tracing *observability.TracingProvider) Option {
	return func(c *Client) {
		c.tracing = tracing
	}
}

// New creates a session engine on the given transport. The session stays
// Disconnected until Connect is called.
func New(t transport.Transport, options ...Option) *Client {
	c := &Client{
		transport:         t,
		clientInfo:        protocol.Implementation{Name: "mcp-client-go", Version: "0.1.0"},
		requestTimeout:    DefaultRequestTimeout,
		logger:            logging.NewNop(),
		correlator:        newCorrelator(),
		roots:             make(map[string]protocol.Root),
		subscriptions:     make(map[string]ResourceUpdateConsumer),
		progressConsumers: make(map[protocol.ProgressToken]ProgressConsumer),
		sweeperStop:       make(chan struct{}),
	}
	for _, option := range options {
		option(c)
	}

	c.toolsWorker = newWorker("tools-refresh", c.logger)
	c.resourcesWorker = newWorker("resources-refresh", c.logger)
	c.promptsWorker = newWorker("prompts-refresh", c.logger)
	c.eventsWorker = newWorker("events", c.logger)

	c.requestHandlers = map[string]requestHandler{
		protocol.MethodPing:          c.handlePing,
		protocol.MethodListRoots:     c.handleListRoots,
		protocol.MethodCreateMessage: c.handleCreateMessage,
	}
	c.notificationHandlers = map[string]notificationHandler{
		protocol.MethodNotificationCancelled:            c.handleCancelled,
		protocol.MethodNotificationProgress:             c.handleProgress,
		protocol.MethodNotificationMessage:              c.handleLoggingMessage,
		protocol.MethodNotificationToolsListChanged:     c.handleToolsListChanged,
		protocol.MethodNotificationResourcesListChanged: c.handleResourcesListChanged,
		protocol.MethodNotificationPromptsListChanged:   c.handlePromptsListChanged,
		protocol.MethodNotificationResourceUpdated:      c.handleResourceUpdated,
	}

	return c
}

// State reports the session's lifecycle phase.
func (c *Client) State() State {
	return State(c.state.Load())
}

// ServerInfo returns the peer identity captured during initialize. Zero
// until the session is Initialized.
func (c *Client) ServerInfo() protocol.Implementation {
	return c.serverInfo
}

// ServerCapabilities returns the capabilities captured during initialize.
// Immutable once the session is Initialized.
func (c *Client) ServerCapabilities() protocol.ServerCapabilities {
	return c.serverCapabilities
}

// NegotiatedVersion returns the protocol revision agreed with the server.
func (c *Client) NegotiatedVersion() string {
	return c.negotiatedVersion
}

// Connect establishes the transport, performs the initialize handshake and
// transitions the session to Initialized. On any failure the session is
// torn down and the error returned.
func (c *Client) Connect(ctx context.Context) error {
	if !c.state.CompareAndSwap(int32(StateDisconnected), int32(StateConnecting)) {
		return mcperrors.ProtocolViolation(fmt.Sprintf("connect in state %s", c.State()))
	}

	if err := c.transport.Connect(ctx, c.dispatch); err != nil {
		c.state.Store(int32(StateClosed))
		return err
	}

	go c.sweepExpired()

	if err := c.initialize(ctx); err != nil {
		c.shutdown(err)
		return err
	}

	c.logger.Info("session initialized",
		logging.String("server", c.serverInfo.Name),
		logging.String("server_version", c.serverInfo.Version),
		logging.String("protocol_version", c.negotiatedVersion),
	)
	return nil
}

func (c *Client) initialize(ctx context.Context) error {
	params := protocol.InitializeParams{
		ProtocolVersion: protocol.LatestProtocolVersion,
		Capabilities:    c.effectiveCapabilities(),
		ClientInfo:      c.clientInfo,
	}

	var result protocol.InitializeResult
	if err := c.call(ctx, protocol.MethodInitialize, params, &result); err != nil {
		return err
	}

	if !versionSupported(result.ProtocolVersion) {
		return mcperrors.IncompatibleVersion(result.ProtocolVersion, protocol.SupportedProtocolVersions)
	}

	c.serverInfo = result.ServerInfo
	c.serverCapabilities = result.Capabilities
	c.negotiatedVersion = result.ProtocolVersion

	if err := c.notify(ctx, protocol.MethodNotificationInitialized, protocol.InitializedParams{}); err != nil {
		return err
	}

	// The state store publishes serverInfo and serverCapabilities: readers
	// observe Initialized only after both are written.
	c.state.Store(int32(StateInitialized))
	return nil
}

// effectiveCapabilities returns the explicit override when configured,
// otherwise derives: roots is present iff any root was registered, sampling
// iff a sampling handler was registered.
func (c *Client) effectiveCapabilities() protocol.ClientCapabilities {
	if c.capabilities != nil {
		return *c.capabilities
	}
	var caps protocol.ClientCapabilities
	c.rootsMu.Lock()
	hasRoots := len(c.roots) > 0
	c.rootsMu.Unlock()
	if hasRoots {
		caps.Roots = &protocol.RootsCapability{ListChanged: true}
	}
	if c.samplingHandler != nil {
		caps.Sampling = &protocol.SamplingCapability{}
	}
	return caps
}

func versionSupported(version string) bool {
	for _, v := range protocol.SupportedProtocolVersions {
		if v == version {
			return true
		}
	}
	return false
}

// Close shuts the session down: every pending operation fails with a
// session-closed error, the transport is closed, and the session becomes
// Closed. Safe to call more than once.
func (c *Client) Close() error {
	c.shutdown(nil)
	return c.closeErr
}

// shutdown performs the Closing transition exactly once. cause is nil for
// an orderly close and carries the terminal failure otherwise.
func (c *Client) shutdown(cause error) {
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosing))
		if cause != nil {
			c.logger.WithError(cause).Warn("session shutting down")
		}

		close(c.sweeperStop)
		c.correlator.shutdown(cause)

		c.toolsWorker.stop()
		c.resourcesWorker.stop()
		c.promptsWorker.stop()
		c.eventsWorker.stop()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.closeErr = c.transport.Close(ctx)

		c.state.Store(int32(StateClosed))
		c.logger.Debug("session closed")
	})
}

// sweepExpired resolves awaiters whose deadline passed and emits the
// cancellation notification for each.
func (c *Client) sweepExpired() {
	ticker := time.NewTicker(expirySweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.sweeperStop:
			return
		case now := <-ticker.C:
			for _, aw := range c.correlator.expire(now) {
				timeout := c.requestTimeout.String()
				c.logger.Warn("request timed out",
					logging.String("method", aw.method),
					logging.String("request_id", aw.id.String()),
				)
				aw.done <- callResult{err: mcperrors.RequestTimeout(aw.method, timeout)}
				c.sendCancelled(aw.id, "timeout")
			}
		}
	}
}

// sendCancelled emits notifications/cancelled for id. Best effort: the
// session may already be tearing down.
func (c *Client) sendCancelled(id protocol.RequestID, reason string) {
	params := protocol.CancelledParams{RequestID: id, Reason: reason}
	if err := c.notify(context.Background(), protocol.MethodNotificationCancelled, params); err != nil {
		c.logger.WithError(err).Debug("failed to send cancellation notification")
	}
}

// call issues one correlated request and blocks until a terminal event:
// response, error response, timeout, cancellation or shutdown. out is
// decoded from the result when non-nil.
func (c *Client) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	if err := c.checkState(method); err != nil {
		return err
	}

	start := time.Now()
	ctx, span := c.tracing.StartMethodSpan(ctx, method, spanKindClient)
	defer span.End()

	aw, err := c.issue(ctx, method, params)
	if err != nil {
		c.tracing.RecordError(ctx, err)
		c.observe(method, err, start)
		return err
	}
	c.metrics.RequestStarted()
	defer c.metrics.RequestFinished()

	var result callResult
	select {
	case result = <-aw.done:
	case <-ctx.Done():
		if c.correlator.take(aw.id) != nil {
			var err error
			if ctx.Err() == context.DeadlineExceeded {
				// A caller deadline surfaces exactly like correlator expiry.
				c.sendCancelled(aw.id, "timeout")
				err = mcperrors.RequestTimeout(method, time.Since(start).Round(time.Millisecond).String())
			} else {
				c.sendCancelled(aw.id, "cancelled")
				err = mcperrors.RequestCancelled(method, ctx.Err().Error())
			}
			c.tracing.RecordError(ctx, err)
			c.observe(method, err, start)
			return err
		}
		// Resolution won the race; take its outcome.
		result = <-aw.done
	}

	if result.err != nil {
		c.tracing.RecordError(ctx, result.err)
		c.observe(method, result.err, start)
		return result.err
	}

	resp := result.resp
	if resp.Error != nil {
		err := mcperrors.ApplicationError(int(resp.Error.Code), resp.Error.Message, resp.Error.Data)
		c.tracing.RecordError(ctx, err)
		c.observe(method, err, start)
		return err
	}

	if out != nil {
		if err := json.Unmarshal(resp.Result, out); err != nil {
			err := mcperrors.WrapError(err, mcperrors.CodeInternalError,
				fmt.Sprintf("failed to decode %s result", method),
				mcperrors.CategoryProtocol, mcperrors.SeverityError)
			c.tracing.RecordError(ctx, err)
			c.observe(method, err, start)
			return err
		}
	}

	c.observe(method, nil, start)
	return nil
}

// issue allocates the ID, parks the awaiter and writes the envelope. The
// send lock keeps wire order equal to issue order.
func (c *Client) issue(ctx context.Context, method string, params interface{}) (*awaiter, error) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	aw, err := c.correlator.register(method, time.Now().Add(c.requestTimeout))
	if err != nil {
		return nil, err
	}

	req, err := protocol.NewRequest(aw.id, method, params)
	if err != nil {
		c.correlator.take(aw.id)
		return nil, mcperrors.WrapError(err, mcperrors.CodeInternalError,
			fmt.Sprintf("failed to encode %s request", method),
			mcperrors.CategoryInternal, mcperrors.SeverityError)
	}

	if err := c.transport.Send(ctx, req); err != nil {
		c.correlator.take(aw.id)
		// A send failure is terminal for the session.
		go c.shutdown(err)
		return nil, err
	}

	c.logger.Debug("request sent",
		logging.String("method", method),
		logging.String("request_id", aw.id.String()),
	)
	return aw, nil
}

// notify writes one notification envelope.
func (c *Client) notify(ctx context.Context, method string, params interface{}) error {
	notif, err := protocol.NewNotification(method, params)
	if err != nil {
		return mcperrors.WrapError(err, mcperrors.CodeInternalError,
			fmt.Sprintf("failed to encode %s notification", method),
			mcperrors.CategoryInternal, mcperrors.SeverityError)
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if err := c.transport.Send(ctx, notif); err != nil {
		go c.shutdown(err)
		return err
	}
	c.metrics.RecordNotification(method, observability.DirectionOutbound)
	return nil
}

// checkState enforces the session lifecycle: initialize and ping are the
// only methods allowed before the handshake completed.
func (c *Client) checkState(method string) error {
	switch c.State() {
	case StateInitialized:
		return nil
	case StateConnecting:
		if method == protocol.MethodInitialize || method == protocol.MethodPing {
			return nil
		}
		return mcperrors.NotInitialized(method)
	case StateClosing, StateClosed:
		return mcperrors.SessionClosed(nil)
	default:
		return mcperrors.NotInitialized(method)
	}
}

// observe records metrics for a finished request.
func (c *Client) observe(method string, err error, start time.Time) {
	outcome := observability.OutcomeOK
	if err != nil {
		switch {
		case mcperrors.IsCategory(err, mcperrors.CategoryTimeout):
			outcome = observability.OutcomeTimeout
		case mcperrors.IsCategory(err, mcperrors.CategoryCancelled):
			outcome = observability.OutcomeCancelled
		default:
			outcome = observability.OutcomeError
		}
	}
	c.metrics.ObserveRequest(method, outcome, time.Since(start))
}

// storeRoot inserts or replaces a root, keeping insertion order for
// roots/list. Last write wins on duplicate URIs.
func (c *Client) storeRoot(root protocol.Root) {
	c.rootsMu.Lock()
	defer c.rootsMu.Unlock()
	if _, exists := c.roots[root.URI]; !exists {
		c.rootsOrder = append(c.rootsOrder, root.URI)
	}
	c.roots[root.URI] = root
}

// AddRoot registers a root after construction. Once the session is
// Initialized the server is notified that the roots list changed.
func (c *Client) AddRoot(root protocol.Root) error {
	c.storeRoot(root)
	if c.State() == StateInitialized {
		return c.notify(context.Background(), protocol.MethodNotificationRootsListChanged, nil)
	}
	return nil
}

// RemoveRoot drops the root stored under uri. Removing an unknown URI is a
// no-op. Once Initialized the server is notified.
func (c *Client) RemoveRoot(uri string) error {
	c.rootsMu.Lock()
	_, exists := c.roots[uri]
	if exists {
		delete(c.roots, uri)
		for i, u := range c.rootsOrder {
			if u == uri {
				c.rootsOrder = append(c.rootsOrder[:i], c.rootsOrder[i+1:]...)
				break
			}
		}
	}
	c.rootsMu.Unlock()

	if exists && c.State() == StateInitialized {
		return c.notify(context.Background(), protocol.MethodNotificationRootsListChanged, nil)
	}
	return nil
}

// listRoots snapshots the roots in insertion order.
func (c *Client) listRoots() []protocol.Root {
	c.rootsMu.Lock()
	defer c.rootsMu.Unlock()
	roots := make([]protocol.Root, 0, len(c.rootsOrder))
	for _, uri := range c.rootsOrder {
		roots = append(roots, c.roots[uri])
	}
	return roots
}
