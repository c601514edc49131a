package domain

import "encoding/json"

// Role tags one entry of a chat-completions request.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Query is one role-tagged entry in a chat-completions request.
type Query struct {
	Role    Role         `json:"role"`
	Content QueryContent `json:"content"`
}

// QueryContent is either plain text or an ordered list of typed parts.
// It serializes as a bare JSON string in the text case and as an array
// of parts otherwise.
type QueryContent struct {
	Text  string
	Parts []ContentPart
}

func TextContent(text string) QueryContent {
	return QueryContent{Text: text}
}

func PartsContent(parts []ContentPart) QueryContent {
	return QueryContent{Parts: parts}
}

func (c QueryContent) MarshalJSON() ([]byte, error) {
	if c.Parts != nil {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

// ContentPart is one element of a multi-part query content: either a text
// fragment or an image reference.
type ContentPart struct {
	Type     string    `json:"type"` // "text" | "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

func TextPart(text string) ContentPart {
	return ContentPart{Type: "text", Text: text}
}

func ImagePart(url string) ContentPart {
	return ContentPart{Type: "image_url", ImageURL: &ImageURL{URL: url}}
}
