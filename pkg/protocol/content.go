package protocol

// Content is one item of a tool result or prompt message. Type selects
// which of the remaining fields are meaningful: "text" carries Text,
// "image" carries Data and MimeType, "resource" carries Resource.
type Content struct {
	Type     string                    `json:"type"`
	Text     string                    `json:"text,omitempty"`
	Data     string                    `json:"data,omitempty"`
	MimeType string                    `json:"mimeType,omitempty"`
	Resource *EmbeddedResourceContents `json:"resource,omitempty"`
}

// Content type discriminators
const (
	ContentTypeText     = "text"
	ContentTypeImage    = "image"
	ContentTypeResource = "resource"
)

// TextContent builds a text content item.
func TextContent(text string) Content {
	return Content{Type: ContentTypeText, Text: text}
}

// EmbeddedResourceContents is resource data inlined into a content item.
type EmbeddedResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}
