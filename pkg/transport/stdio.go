package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"golang.org/x/sync/errgroup"

	mcperrors "github.com/modelctx/mcp-client-go/pkg/errors"
	"github.com/modelctx/mcp-client-go/pkg/logging"
	"github.com/modelctx/mcp-client-go/pkg/protocol"
)

// StdioTransport carries newline-delimited JSON envelopes over an
// io.Reader/io.Writer pair, typically the stdin/stdout of an MCP server
// subprocess. This is the binding the MCP specification recommends for
// command-line servers.
type StdioTransport struct {
	config ConnectionConfig
	logger logging.Logger

	reader io.Reader
	writer io.Writer
	cmd    *exec.Cmd

	writeMu   sync.Mutex
	rawWriter *bufio.Writer

	done      chan struct{}
	closeOnce sync.Once
}

// StdioOption configures a StdioTransport.
type StdioOption func(*StdioTransport)

// WithStdioLogger sets the logger the transport reports through.
func WithStdioLogger(logger logging.Logger) StdioOption {
	return func(t *StdioTransport) {
		t.logger = logger.WithFields(logging.String("component", "stdio"))
	}
}

// WithStdioConnectionConfig overrides the connection defaults.
func WithStdioConnectionConfig(config ConnectionConfig) StdioOption {
	return func(t *StdioTransport) {
		t.config = config.withDefaults()
	}
}

// NewStdioTransport creates a transport over the given streams. The caller
// keeps ownership of the streams' lifetime unless they implement io.Closer,
// in which case Close closes them.
func NewStdioTransport(reader io.Reader, writer io.Writer, options ...StdioOption) *StdioTransport {
	t := &StdioTransport{
		config: DefaultConnectionConfig(),
		logger: logging.NewNop(),
		reader: reader,
		writer: writer,
		done:   make(chan struct{}),
	}
	for _, option := range options {
		option(t)
	}
	return t
}

// NewStdioCommandTransport creates a transport that spawns the given server
// command and pipes envelopes through its stdin/stdout. The subprocess
// inherits stderr so server diagnostics stay visible.
func NewStdioCommandTransport(command string, args []string, options ...StdioOption) *StdioTransport {
	cmd := exec.Command(command, args...)
	cmd.Stderr = os.Stderr
	t := NewStdioTransport(nil, nil, options...)
	t.cmd = cmd
	return t
}

// Connect starts the subprocess when one is configured and begins the read
// loop delivering inbound envelopes to sink.
func (t *StdioTransport) Connect(ctx context.Context, sink MessageSink) error {
	if t.cmd != nil {
		stdin, err := t.cmd.StdinPipe()
		if err != nil {
			return mcperrors.ConnectionFailed("stdio", err)
		}
		stdout, err := t.cmd.StdoutPipe()
		if err != nil {
			return mcperrors.ConnectionFailed("stdio", err)
		}
		if err := t.cmd.Start(); err != nil {
			return mcperrors.ConnectionFailed("stdio", err)
		}
		t.reader = stdout
		t.writer = stdin
	}
	if t.reader == nil || t.writer == nil {
		return mcperrors.ConnectionFailed("stdio", fmt.Errorf("no streams configured"))
	}

	t.writeMu.Lock()
	t.rawWriter = bufio.NewWriter(t.writer)
	t.writeMu.Unlock()

	g, gctx := errgroup.WithContext(ctx)

	scanner := bufio.NewScanner(t.reader)
	scanner.Buffer(make([]byte, 64*1024), t.config.MaxFrameSize)

	scannerDone := make(chan struct{})

	g.Go(func() error {
		defer close(scannerDone)
		for scanner.Scan() {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-t.done:
				return nil
			default:
			}

			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			data := make([]byte, len(line))
			copy(data, line)

			sink(protocol.DecodeMessage(data))
		}
		if err := scanner.Err(); err != nil && err != io.EOF {
			t.logger.WithError(err).Error("read loop terminated")
			return mcperrors.TransportError("stdio", "read", err)
		}
		return nil
	})

	g.Go(func() error {
		select {
		case <-gctx.Done():
			t.closeReader()
			return gctx.Err()
		case <-t.done:
			t.closeReader()
			return nil
		case <-scannerDone:
			return nil
		}
	})

	t.logger.Debug("connected")
	return nil
}

// Send writes one envelope followed by a newline and flushes.
func (t *StdioTransport) Send(ctx context.Context, msg protocol.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return mcperrors.TransportError("stdio", "marshal", err)
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if t.rawWriter == nil {
		return mcperrors.TransportNotConnected("stdio")
	}
	if _, err := t.rawWriter.Write(data); err != nil {
		return mcperrors.TransportError("stdio", "write", err)
	}
	if err := t.rawWriter.WriteByte('\n'); err != nil {
		return mcperrors.TransportError("stdio", "write", err)
	}
	if err := t.rawWriter.Flush(); err != nil {
		return mcperrors.TransportError("stdio", "flush", err)
	}
	return nil
}

// Close stops the read loop, flushes buffered output and reaps the
// subprocess when one was spawned.
func (t *StdioTransport) Close(ctx context.Context) error {
	var closeErr error
	t.closeOnce.Do(func() {
		close(t.done)

		t.writeMu.Lock()
		if t.rawWriter != nil {
			if err := t.rawWriter.Flush(); err != nil {
				closeErr = mcperrors.TransportError("stdio", "flush", err)
			}
			t.rawWriter = nil
		}
		t.writeMu.Unlock()

		t.closeReader()
		if closer, ok := t.writer.(io.Closer); ok {
			_ = closer.Close()
		}
		// The monitor goroutine closes the reader, which unblocks the
		// scanner; both errgroup goroutines then drain on their own.
		if t.cmd != nil {
			if err := t.cmd.Wait(); err != nil && closeErr == nil {
				closeErr = mcperrors.TransportError("stdio", "wait", err)
			}
		}
		t.logger.Debug("closed")
	})
	return closeErr
}

func (t *StdioTransport) closeReader() {
	if closer, ok := t.reader.(io.Closer); ok {
		_ = closer.Close()
	}
}
