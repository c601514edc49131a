package agent

import (
	"context"

	"nekobot/internal/domain"
)

// Limits bounds how much history one completion may pull in.
type Limits struct {
	DefaultPast int
	MaxPast     int
}

// Resolver decides which prior messages form the conversation context for a
// trigger message. An empty result means no response is owed; it is a valid,
// common outcome, not an error.
type Resolver struct {
	source domain.ConversationSource
	botID  string
	limits Limits
}

func NewResolver(source domain.ConversationSource, botID string, limits Limits) *Resolver {
	return &Resolver{source: source, botID: botID, limits: limits}
}

// Resolve picks the context set for trigger, oldest to newest:
//   - limit below 2 needs no history at all;
//   - DMs read the thread or the conversation itself;
//   - unthreaded channel messages reply only when the bot is mentioned;
//   - threaded messages reply when addressed to the bot, or when the bot has
//     already participated in the thread, but never when the message is
//     addressed to someone else.
func (r *Resolver) Resolve(ctx context.Context, trigger domain.TriggerMessage) ([]domain.TriggerMessage, error) {
	limit := trigger.PastLimit(r.limits.DefaultPast, r.limits.MaxPast)
	if limit < 2 {
		return []domain.TriggerMessage{trigger}, nil
	}

	if trigger.IsDirectMessage() {
		if trigger.IsInThread() {
			return r.source.Replies(ctx, trigger.Channel, trigger.ThreadTS, limit)
		}
		return r.source.History(ctx, trigger.Channel, limit)
	}

	if !trigger.IsInThread() {
		if trigger.IsMentionTo(r.botID) {
			return []domain.TriggerMessage{trigger}, nil
		}
		return nil, nil
	}

	if trigger.IsMentionToOther(r.botID) {
		return nil, nil
	}

	replies, err := r.source.Replies(ctx, trigger.Channel, trigger.ThreadTS, limit)
	if err != nil {
		return nil, err
	}
	if trigger.IsMentionTo(r.botID) {
		return replies, nil
	}
	for _, m := range replies {
		if m.IsFrom(r.botID) {
			return replies, nil
		}
	}
	return nil, nil
}
