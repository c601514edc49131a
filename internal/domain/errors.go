package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoContext means context resolution legitimately produced no
	// messages; the user gets a fixed notice instead of a completion.
	ErrNoContext = errors.New("no context resolved")

	// ErrUsageLimit is returned when the completion endpoint answers 429.
	ErrUsageLimit = errors.New("openai usage limit reached")

	// ErrInvalidImage is returned for attachments the completion endpoint
	// rejects, or that fail the mime allow-list before the call.
	ErrInvalidImage = errors.New("invalid image format")

	// ErrTransport marks a read failure on the response stream, distinct
	// from an error status returned by the endpoint itself.
	ErrTransport = errors.New("stream read failed")

	// ErrMissingChannel marks a trigger with no channel to respond into.
	ErrMissingChannel = errors.New("trigger message has no channel")

	// ErrFetch marks a failed history, replies, or file call.
	ErrFetch = errors.New("slack fetch failed")
)

// UpstreamError is a non-specific failure from the completion endpoint.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("openai returned %d: %s", e.Status, e.Body)
}
