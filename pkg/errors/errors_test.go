package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestFactoryCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      MCPError
		code     int
		category Category
	}{
		{"not initialized", NotInitialized("tools/list"), CodeNotInitialized, CategoryPreflight},
		{"session closed", SessionClosed(nil), CodeSessionClosed, CategoryCancelled},
		{"incompatible version", IncompatibleVersion("1999-01-01", []string{"2024-11-05"}), CodeIncompatibleVersion, CategoryProtocol},
		{"timeout", RequestTimeout("ping", "1s"), CodeRequestTimeout, CategoryTimeout},
		{"cancelled", RequestCancelled("ping", "caller"), CodeRequestCancelled, CategoryCancelled},
		{"capability", CapabilityRequired("resources.subscribe", "resources/subscribe"), CodeCapabilityRequired, CategoryPreflight},
		{"handler", HandlerFailed("sampling/createMessage", errors.New("boom")), CodeInternalError, CategoryHandler},
		{"method not supported", MethodNotSupported("x/y"), CodeMethodNotFound, CategoryProtocol},
		{"transport", TransportError("stdio", "write", errors.New("pipe")), CodeTransportError, CategoryTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Code(); got != tt.code {
				t.Errorf("Code() = %d, want %d", got, tt.code)
			}
			if got := tt.err.Category(); got != tt.category {
				t.Errorf("Category() = %s, want %s", got, tt.category)
			}
			if tt.err.Error() == "" {
				t.Error("expected a non-empty message")
			}
		})
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("broken pipe")
	err := TransportError("stdio", "write", cause)

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
}

func TestAsMCPErrorThroughWrapping(t *testing.T) {
	inner := RequestTimeout("tools/call", "20s")
	outer := fmt.Errorf("operation failed: %w", inner)

	mcpErr, ok := AsMCPError(outer)
	if !ok {
		t.Fatal("expected AsMCPError to find the MCPError in the chain")
	}
	if mcpErr.Code() != CodeRequestTimeout {
		t.Errorf("Code() = %d, want %d", mcpErr.Code(), CodeRequestTimeout)
	}

	if !IsCode(outer, CodeRequestTimeout) {
		t.Error("IsCode should see through wrapping")
	}
	if !IsCategory(outer, CategoryTimeout) {
		t.Error("IsCategory should see through wrapping")
	}
}

func TestAsMCPErrorPlainError(t *testing.T) {
	if _, ok := AsMCPError(errors.New("plain")); ok {
		t.Error("plain errors are not MCPErrors")
	}
	if _, ok := AsMCPError(nil); ok {
		t.Error("nil is not an MCPError")
	}
}

func TestWithDataCopies(t *testing.T) {
	base := CapabilityRequired("tools", "tools/list")
	modified := base.WithData("extra")

	if base.Data() == modified.Data() {
		t.Error("WithData must not mutate the original")
	}
	if modified.Data() != "extra" {
		t.Errorf("Data() = %v, want extra", modified.Data())
	}
}

func TestCodeRanges(t *testing.T) {
	if !IsStandardJSONRPCCode(CodeMethodNotFound) {
		t.Error("expected -32601 to be a standard code")
	}
	if !IsMCPSpecificCode(CodeRequestTimeout) {
		t.Error("expected -32010 to be MCP-specific")
	}
	if IsMCPSpecificCode(CodeParseError) {
		t.Error("-32700 is not in the implementation-defined range")
	}
}
