package domain

import "context"

// ConversationSource fetches prior messages from the chat platform.
// Implementations must return messages in ascending timestamp order.
type ConversationSource interface {
	History(ctx context.Context, channelID string, limit int) ([]TriggerMessage, error)
	Replies(ctx context.Context, channelID, threadTS string, limit int) ([]TriggerMessage, error)
}

// Messenger posts and edits platform messages. PostMessage returns the
// timestamp identifying the created message; UpdateMessage must be a no-op
// for empty text so a real message is never overwritten with nothing.
type Messenger interface {
	PostMessage(ctx context.Context, channelID, text, threadTS string) (string, error)
	UpdateMessage(ctx context.Context, channelID, ts, text string) error
}

// FileFetcher downloads an attachment from its authenticated private URL.
type FileFetcher interface {
	FetchFile(ctx context.Context, url string) ([]byte, error)
}
