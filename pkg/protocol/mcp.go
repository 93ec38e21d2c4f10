package protocol

import "encoding/json"

// Protocol revisions this runtime speaks. Initialize advertises
// LatestProtocolVersion; the server's answer must be in SupportedProtocolVersions.
const (
	LatestProtocolVersion = "2024-11-05"

	protocolVersion20241007 = "2024-10-07"
)

// SupportedProtocolVersions lists every revision the runtime accepts,
// newest first.
var SupportedProtocolVersions = []string{
	LatestProtocolVersion,
	protocolVersion20241007,
}

// Client-to-server request methods
const (
	MethodInitialize            = "initialize"
	MethodPing                  = "ping"
	MethodListTools             = "tools/list"
	MethodCallTool              = "tools/call"
	MethodListResources         = "resources/list"
	MethodReadResource          = "resources/read"
	MethodListResourceTemplates = "resources/templates/list"
	MethodSubscribeResource     = "resources/subscribe"
	MethodUnsubscribeResource   = "resources/unsubscribe"
	MethodListPrompts           = "prompts/list"
	MethodGetPrompt             = "prompts/get"
	MethodSetLoggingLevel       = "logging/setLevel"
	MethodComplete              = "completion/complete"
)

// Server-to-client request methods
const (
	MethodListRoots     = "roots/list"
	MethodCreateMessage = "sampling/createMessage"
)

// Notification methods, either direction
const (
	MethodNotificationInitialized          = "notifications/initialized"
	MethodNotificationCancelled            = "notifications/cancelled"
	MethodNotificationProgress             = "notifications/progress"
	MethodNotificationMessage              = "notifications/message"
	MethodNotificationResourcesListChanged = "notifications/resources/list_changed"
	MethodNotificationResourceUpdated      = "notifications/resources/updated"
	MethodNotificationToolsListChanged     = "notifications/tools/list_changed"
	MethodNotificationPromptsListChanged   = "notifications/prompts/list_changed"
	MethodNotificationRootsListChanged     = "notifications/roots/list_changed"
)

// Implementation identifies one endpoint of a session, exchanged verbatim
// during initialize.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ClientCapabilities declares the feature groups this runtime offers the
// server. Groups are present on the wire only when enabled.
type ClientCapabilities struct {
	Roots        *RootsCapability           `json:"roots,omitempty"`
	Sampling     *SamplingCapability        `json:"sampling,omitempty"`
	Experimental map[string]json.RawMessage `json:"experimental,omitempty"`
}

// RootsCapability declares support for the roots feature group.
type RootsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// SamplingCapability declares support for server-initiated sampling. It has
// no options in the current revision.
type SamplingCapability struct{}

// ServerCapabilities is captured from the initialize response and is
// immutable for the lifetime of the session.
type ServerCapabilities struct {
	Tools        *ToolsCapability           `json:"tools,omitempty"`
	Resources    *ResourcesCapability       `json:"resources,omitempty"`
	Prompts      *PromptsCapability         `json:"prompts,omitempty"`
	Logging      *LoggingCapability         `json:"logging,omitempty"`
	Experimental map[string]json.RawMessage `json:"experimental,omitempty"`
}

// ToolsCapability declares the server's tool feature group.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ResourcesCapability declares the server's resource feature group.
type ResourcesCapability struct {
	Subscribe   bool `json:"subscribe,omitempty"`
	ListChanged bool `json:"listChanged,omitempty"`
}

// PromptsCapability declares the server's prompt feature group.
type PromptsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// LoggingCapability declares the server's logging feature group.
type LoggingCapability struct{}

// InitializeParams defines the parameters for the initialize request
type InitializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      Implementation     `json:"clientInfo"`
}

// InitializeResult defines the response for the initialize request
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      Implementation     `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

// InitializedParams is sent as a notification once the client is ready
type InitializedParams struct{}

// EmptyResult is the result shape of operations that return no data. It
// still serializes as an object on the wire.
type EmptyResult struct{}

// CancelledParams defines parameters for the cancelled notification
type CancelledParams struct {
	RequestID RequestID `json:"requestId"`
	Reason    string    `json:"reason,omitempty"`
}

// ProgressToken correlates progress notifications with the request that
// carried it in _meta. String or integer on the wire, like RequestID.
type ProgressToken = RequestID

// ProgressParams defines parameters for the progress notification
type ProgressParams struct {
	ProgressToken ProgressToken `json:"progressToken"`
	Progress      float64       `json:"progress"`
	Total         float64       `json:"total,omitempty"`
	Message       string        `json:"message,omitempty"`
}

// RequestMeta is the _meta object attached to request params.
type RequestMeta struct {
	ProgressToken *ProgressToken `json:"progressToken,omitempty"`
}

// PaginatedParams is embedded by list request params carrying an opaque
// cursor from a previous page.
type PaginatedParams struct {
	Cursor string `json:"cursor,omitempty"`
}

// PaginatedResult is embedded by list results; an empty NextCursor marks
// the final page.
type PaginatedResult struct {
	NextCursor string `json:"nextCursor,omitempty"`
}
