package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCapabilitiesWireShape(t *testing.T) {
	t.Run("empty groups stay absent", func(t *testing.T) {
		data, err := json.Marshal(ClientCapabilities{})
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(data))
	})

	t.Run("enabled groups present", func(t *testing.T) {
		caps := ClientCapabilities{
			Roots:    &RootsCapability{ListChanged: true},
			Sampling: &SamplingCapability{},
		}
		data, err := json.Marshal(caps)
		require.NoError(t, err)
		assert.JSONEq(t, `{"roots":{"listChanged":true},"sampling":{}}`, string(data))
	})
}

func TestServerCapabilitiesDecoding(t *testing.T) {
	frame := `{"tools":{"listChanged":true},"resources":{"subscribe":true},"logging":{}}`

	var caps ServerCapabilities
	require.NoError(t, json.Unmarshal([]byte(frame), &caps))

	require.NotNil(t, caps.Tools)
	assert.True(t, caps.Tools.ListChanged)
	require.NotNil(t, caps.Resources)
	assert.True(t, caps.Resources.Subscribe)
	assert.False(t, caps.Resources.ListChanged)
	assert.NotNil(t, caps.Logging)
	assert.Nil(t, caps.Prompts)
}

func TestInitializeParamsEncoding(t *testing.T) {
	params := InitializeParams{
		ProtocolVersion: LatestProtocolVersion,
		Capabilities:    ClientCapabilities{Sampling: &SamplingCapability{}},
		ClientInfo:      Implementation{Name: "host", Version: "2.0"},
	}

	data, err := json.Marshal(params)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"protocolVersion": "2024-11-05",
		"capabilities": {"sampling":{}},
		"clientInfo": {"name":"host","version":"2.0"}
	}`, string(data))
}

func TestSupportedProtocolVersions(t *testing.T) {
	assert.Equal(t, LatestProtocolVersion, SupportedProtocolVersions[0])
	assert.Contains(t, SupportedProtocolVersions, "2024-11-05")
}

func TestLoggingLevelValidity(t *testing.T) {
	for _, level := range []LoggingLevel{
		LoggingLevelDebug, LoggingLevelInfo, LoggingLevelNotice, LoggingLevelWarning,
		LoggingLevelError, LoggingLevelCritical, LoggingLevelAlert, LoggingLevelEmergency,
	} {
		assert.True(t, level.IsValid(), "level %s", level)
	}
	assert.False(t, LoggingLevel("verbose").IsValid())
}

func TestCancelledParamsWireShape(t *testing.T) {
	data, err := json.Marshal(CancelledParams{RequestID: NewRequestID(9), Reason: "timeout"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"requestId":9,"reason":"timeout"}`, string(data))
}

func TestCallToolParamsCarriesProgressToken(t *testing.T) {
	token := NewStringRequestID("tok-1")
	params := CallToolParams{
		Name: "slow",
		Meta: &RequestMeta{ProgressToken: &token},
	}
	data, err := json.Marshal(params)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"slow","_meta":{"progressToken":"tok-1"}}`, string(data))
}
