// Package protocol defines the wire types of the Model Context Protocol:
// JSON-RPC 2.0 envelopes, the closed set of MCP method names, and the typed
// payloads exchanged during a session. Envelope params and results travel as
// json.RawMessage so the session engine stays schema-agnostic at the
// transport boundary and decodes at the edges.
package protocol
