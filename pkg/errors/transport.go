package errors

import "fmt"

// TransportError reports a terminal failure of the message pipe. Every
// pending operation fails once this is raised.
func TransportError(transport, operation string, cause error) MCPError {
	return WrapError(
		cause,
		CodeTransportError,
		fmt.Sprintf("%s transport failed during %s", transport, operation),
		CategoryTransport,
		SeverityCritical,
	).WithContext(&Context{Component: transport, Operation: operation})
}

// ConnectionFailed reports that the transport could not be established.
func ConnectionFailed(transport string, cause error) MCPError {
	return WrapError(
		cause,
		CodeConnectionFailed,
		fmt.Sprintf("failed to connect %s transport", transport),
		CategoryTransport,
		SeverityCritical,
	).WithContext(&Context{Component: transport, Operation: "connect"})
}

// TransportNotConnected reports a send on a transport that was never
// connected or already closed.
func TransportNotConnected(transport string) MCPError {
	return NewError(
		CodeTransportError,
		fmt.Sprintf("%s transport is not connected", transport),
		CategoryTransport,
		SeverityError,
	).WithContext(&Context{Component: transport, Operation: "send"})
}
