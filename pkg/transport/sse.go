package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/tmaxmax/go-sse"

	mcperrors "github.com/modelctx/mcp-client-go/pkg/errors"
	"github.com/modelctx/mcp-client-go/pkg/logging"
	"github.com/modelctx/mcp-client-go/pkg/protocol"
)

// SSETransport carries envelopes over HTTP: outbound messages are POSTed to
// an endpoint the server announces, inbound messages arrive on a
// text/event-stream connection. The server's first event must be an
// "endpoint" event naming the POST URL; every subsequent "message" event
// carries one JSON-RPC envelope.
type SSETransport struct {
	config     ConnectionConfig
	logger     logging.Logger
	connectURL string
	httpClient *http.Client

	mu         sync.RWMutex
	messageURL string

	done      chan struct{}
	closeOnce sync.Once
	streamCtx context.CancelFunc
}

// SSEOption configures an SSETransport.
type SSEOption func(*SSETransport)

// WithSSELogger sets the logger the transport reports through.
func WithSSELogger(logger logging.Logger) SSEOption {
	return func(t *SSETransport) {
		t.logger = logger.WithFields(logging.String("component", "sse"))
	}
}

// WithSSEHTTPClient overrides the HTTP client used for both directions.
func WithSSEHTTPClient(client *http.Client) SSEOption {
	return func(t *SSETransport) {
		t.httpClient = client
	}
}

// WithSSEConnectionConfig overrides the connection defaults.
func WithSSEConnectionConfig(config ConnectionConfig) SSEOption {
	return func(t *SSETransport) {
		t.config = config.withDefaults()
	}
}

// NewSSETransport creates a transport that opens the event stream at
// connectURL.
func NewSSETransport(connectURL string, options ...SSEOption) *SSETransport {
	t := &SSETransport{
		config:     DefaultConnectionConfig(),
		logger:     logging.NewNop(),
		connectURL: connectURL,
		httpClient: http.DefaultClient,
		done:       make(chan struct{}),
	}
	for _, option := range options {
		option(t)
	}
	return t
}

// Connect opens the event stream, waits for the server's endpoint event and
// starts delivering message events to sink. Establishment is bounded by the
// configured connect timeout.
func (t *SSETransport) Connect(ctx context.Context, sink MessageSink) error {
	if t.config.ConnectTimeout > 0 {
		var cancelConnect context.CancelFunc
		ctx, cancelConnect = context.WithTimeout(ctx, t.config.ConnectTimeout)
		defer cancelConnect()
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	t.streamCtx = cancel

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, t.connectURL, nil)
	if err != nil {
		cancel()
		return mcperrors.ConnectionFailed("sse", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		cancel()
		return mcperrors.ConnectionFailed("sse", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return mcperrors.ConnectionFailed("sse", fmt.Errorf("unexpected status code %d", resp.StatusCode))
	}

	ready := make(chan error, 1)
	go t.readStream(resp, sink, ready)

	select {
	case err := <-ready:
		if err != nil {
			t.Close(ctx)
			return mcperrors.ConnectionFailed("sse", err)
		}
		t.logger.Debug("connected", logging.String("endpoint", t.endpointURL()))
		return nil
	case <-ctx.Done():
		t.Close(context.Background())
		return mcperrors.ConnectionFailed("sse", ctx.Err())
	}
}

func (t *SSETransport) readStream(resp *http.Response, sink MessageSink, ready chan<- error) {
	defer resp.Body.Close()

	var readyOnce sync.Once
	signalReady := func(err error) {
		readyOnce.Do(func() {
			ready <- err
		})
	}

	var config *sse.ReadConfig
	if t.config.MaxFrameSize > 0 {
		config = &sse.ReadConfig{MaxEventSize: t.config.MaxFrameSize}
	}

	for ev, err := range sse.Read(resp.Body, config) {
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				t.logger.WithError(err).Error("event stream terminated")
			}
			signalReady(err)
			return
		}

		select {
		case <-t.done:
			return
		default:
		}

		switch ev.Type {
		case "endpoint":
			u, err := url.Parse(ev.Data)
			if err != nil {
				signalReady(fmt.Errorf("parse endpoint URL: %w", err))
				return
			}
			base, err := url.Parse(t.connectURL)
			if err != nil {
				signalReady(fmt.Errorf("parse connect URL: %w", err))
				return
			}
			t.mu.Lock()
			t.messageURL = base.ResolveReference(u).String()
			t.mu.Unlock()
			signalReady(nil)
		case "message":
			if t.endpointURL() == "" {
				t.logger.Warn("message event before endpoint event, dropping")
				continue
			}
			sink(protocol.DecodeMessage([]byte(ev.Data)))
		default:
			t.logger.Warn("unhandled event type", logging.String("type", ev.Type))
		}
	}
}

// Send POSTs one envelope to the announced endpoint.
func (t *SSETransport) Send(ctx context.Context, msg protocol.Message) error {
	endpoint := t.endpointURL()
	if endpoint == "" {
		return mcperrors.TransportNotConnected("sse")
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return mcperrors.TransportError("sse", "marshal", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return mcperrors.TransportError("sse", "send", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return mcperrors.TransportError("sse", "send", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return mcperrors.TransportError("sse", "send", fmt.Errorf("unexpected status code %d", resp.StatusCode))
	}
	return nil
}

// Close tears down the event stream.
func (t *SSETransport) Close(ctx context.Context) error {
	t.closeOnce.Do(func() {
		close(t.done)
		if t.streamCtx != nil {
			t.streamCtx()
		}
		t.logger.Debug("closed")
	})
	return nil
}

func (t *SSETransport) endpointURL() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.messageURL
}
