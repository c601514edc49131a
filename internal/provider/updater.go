package provider

import (
	"context"
	"time"

	"nekobot/internal/domain"
)

// DefaultEditInterval is the minimum time between live edits of the
// placeholder message, bounding edit-call volume against Slack rate limits.
const DefaultEditInterval = 1000 * time.Millisecond

// Updater performs the throttled live edit of one placeholder message while
// a response streams in. It is not safe for concurrent use; one response
// cycle owns it.
type Updater struct {
	messenger  domain.Messenger
	channelID  string
	ts         string
	interval   time.Duration
	emptyText  string // posted when the stream ends with no content at all
	lastPosted string
	lastUpdate time.Time
}

func NewUpdater(m domain.Messenger, channelID, ts string, interval time.Duration, emptyText string) *Updater {
	if interval <= 0 {
		interval = DefaultEditInterval
	}
	return &Updater{
		messenger: m,
		channelID: channelID,
		ts:        ts,
		interval:  interval,
		emptyText: emptyText,
		// allow the first edit immediately
		lastUpdate: time.Now().Add(-interval),
	}
}

// Push issues an edit with the accumulated text, but only if the text has
// changed since the last posted edit and the interval has elapsed.
func (u *Updater) Push(ctx context.Context, text string) error {
	if text == "" || text == u.lastPosted {
		return nil
	}
	if time.Since(u.lastUpdate) < u.interval {
		return nil
	}
	if err := u.messenger.UpdateMessage(ctx, u.channelID, u.ts, text); err != nil {
		return err
	}
	u.lastUpdate = time.Now()
	u.lastPosted = text
	return nil
}

// Finalize flushes any unposted text once the stream has ended. An empty
// accumulated text posts the fixed empty-response notice instead, so the
// placeholder never stays unedited.
func (u *Updater) Finalize(ctx context.Context, text string) error {
	if text == "" {
		return u.messenger.UpdateMessage(ctx, u.channelID, u.ts, u.emptyText)
	}
	if text == u.lastPosted {
		return nil
	}
	if err := u.messenger.UpdateMessage(ctx, u.channelID, u.ts, text); err != nil {
		return err
	}
	u.lastPosted = text
	return nil
}

// LastPosted returns the text of the most recent successful edit.
func (u *Updater) LastPosted() string {
	return u.lastPosted
}
