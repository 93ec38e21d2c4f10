package errors

import (
	"encoding/json"
	"fmt"
)

// CapabilityErrorData contains structured data for capability gating errors
type CapabilityErrorData struct {
	Capability string `json:"capability"`
	Operation  string `json:"operation,omitempty"`
}

// TimeoutErrorData contains structured data for request expiry errors
type TimeoutErrorData struct {
	Method  string `json:"method,omitempty"`
	Timeout string `json:"timeout"`
}

// Session lifecycle

// NotInitialized is raised synchronously when an operation is invoked before
// the initialize handshake completed. No wire traffic occurs.
func NotInitialized(operation string) MCPError {
	return NewError(
		CodeNotInitialized,
		fmt.Sprintf("session not initialized: %s requires a completed handshake", operation),
		CategoryPreflight,
		SeverityError,
	)
}

// SessionClosed resolves awaiters that were still parked when the session
// shut down.
func SessionClosed(cause error) MCPError {
	if cause != nil {
		return WrapError(cause, CodeSessionClosed, "session closed", CategoryCancelled, SeverityWarning)
	}
	return NewError(CodeSessionClosed, "session closed", CategoryCancelled, SeverityWarning)
}

// IncompatibleVersion is raised when the server answers initialize with a
// protocol revision outside the supported set.
func IncompatibleVersion(serverVersion string, supported []string) MCPError {
	return NewError(
		CodeIncompatibleVersion,
		fmt.Sprintf("server speaks protocol revision %q, supported: %v", serverVersion, supported),
		CategoryProtocol,
		SeverityCritical,
	)
}

// Request lifecycle

// RequestTimeout resolves an awaiter whose deadline passed.
func RequestTimeout(method string, timeout string) MCPError {
	return NewError(
		CodeRequestTimeout,
		fmt.Sprintf("request %q timed out after %s", method, timeout),
		CategoryTimeout,
		SeverityError,
	).WithData(&TimeoutErrorData{Method: method, Timeout: timeout})
}

// RequestCancelled resolves an awaiter cancelled by the caller or the peer.
func RequestCancelled(method string, reason string) MCPError {
	msg := fmt.Sprintf("request %q cancelled", method)
	if reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, reason)
	}
	return NewError(CodeRequestCancelled, msg, CategoryCancelled, SeverityInfo)
}

// Capability gating

// CapabilityRequired is raised synchronously when the server did not
// advertise the capability an operation depends on.
func CapabilityRequired(capability, operation string) MCPError {
	return NewError(
		CodeCapabilityRequired,
		fmt.Sprintf("server does not support %s (required by %s)", capability, operation),
		CategoryPreflight,
		SeverityError,
	).WithData(&CapabilityErrorData{Capability: capability, Operation: operation})
}

// Application and handler

// ApplicationError surfaces a server error response verbatim to the caller.
func ApplicationError(code int, message string, data json.RawMessage) MCPError {
	err := NewError(code, message, CategoryApplication, SeverityError)
	if len(data) > 0 {
		err = err.WithData(data)
	}
	return err
}

// HandlerFailed converts a failure inside a server-initiated request handler
// into the error that becomes a -32603 response.
func HandlerFailed(method string, cause error) MCPError {
	return WrapError(
		cause,
		CodeInternalError,
		fmt.Sprintf("handler for %q failed", method),
		CategoryHandler,
		SeverityError,
	)
}

// Protocol

// MethodNotSupported answers a server-initiated request this runtime has no
// handler for.
func MethodNotSupported(method string) MCPError {
	return NewError(
		CodeMethodNotFound,
		fmt.Sprintf("method %q not found", method),
		CategoryProtocol,
		SeverityWarning,
	)
}

// ProtocolViolation reports a malformed or out-of-sequence frame.
func ProtocolViolation(reason string) MCPError {
	return NewError(
		CodeInvalidRequest,
		fmt.Sprintf("protocol violation: %s", reason),
		CategoryProtocol,
		SeverityError,
	)
}
