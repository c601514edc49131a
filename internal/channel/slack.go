package channel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/slack-go/slack"

	"nekobot/internal/domain"
)

// Slack wraps the Slack Web API: posting and editing messages, conversation
// history/replies, and authenticated file downloads. It implements
// domain.Messenger, domain.ConversationSource, and domain.FileFetcher.
type Slack struct {
	client *slack.Client
	token  string
	httpc  *http.Client
	logger *slog.Logger
}

type SlackConfig struct {
	BotToken string
	Logger   *slog.Logger
}

func NewSlack(cfg SlackConfig) *Slack {
	return &Slack{
		client: slack.New(cfg.BotToken),
		token:  cfg.BotToken,
		httpc:  &http.Client{Timeout: 30 * time.Second},
		logger: cfg.Logger,
	}
}

// PostMessage posts text to a channel, threaded when threadTS is non-empty,
// and returns the new message's timestamp.
func (s *Slack) PostMessage(ctx context.Context, channelID, text, threadTS string) (string, error) {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}
	_, ts, err := s.client.PostMessageContext(ctx, channelID, opts...)
	if err != nil {
		return "", fmt.Errorf("chat.postMessage: %w", err)
	}
	return ts, nil
}

// UpdateMessage edits an existing message. Empty text is a no-op: a real
// message is never overwritten with nothing.
func (s *Slack) UpdateMessage(ctx context.Context, channelID, ts, text string) error {
	if text == "" {
		return nil
	}
	_, _, _, err := s.client.UpdateMessageContext(ctx, channelID, ts, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("chat.update: %w", err)
	}
	return nil
}

// History returns up to limit recent messages of a channel in ascending
// timestamp order.
func (s *Slack) History(ctx context.Context, channelID string, limit int) ([]domain.TriggerMessage, error) {
	resp, err := s.client.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: conversations.history: %w", domain.ErrFetch, err)
	}
	msgs := fromSlackMessages(resp.Messages, channelID)
	sortByTS(msgs)
	return msgs, nil
}

// Replies returns up to limit messages of a thread in ascending timestamp
// order.
func (s *Slack) Replies(ctx context.Context, channelID, threadTS string, limit int) ([]domain.TriggerMessage, error) {
	msgs, _, _, err := s.client.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
		ChannelID: channelID,
		Timestamp: threadTS,
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: conversations.replies: %w", domain.ErrFetch, err)
	}
	out := fromSlackMessages(msgs, channelID)
	sortByTS(out)
	return out, nil
}

// FetchFile downloads a private Slack file URL with the bot token.
func (s *Slack) FetchFile(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: new request: %w", domain.ErrFetch, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: get file: %w", domain.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: get file: status %d", domain.ErrFetch, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read file: %w", domain.ErrFetch, err)
	}
	return data, nil
}

func fromSlackMessages(in []slack.Message, channelID string) []domain.TriggerMessage {
	out := make([]domain.TriggerMessage, 0, len(in))
	for _, m := range in {
		out = append(out, domain.TriggerMessage{
			Type:     m.Type,
			SubType:  m.SubType,
			Text:     m.Text,
			User:     m.User,
			Channel:  channelID,
			TS:       m.Timestamp,
			ThreadTS: m.ThreadTimestamp,
			Files:    fromSlackFiles(m.Files),
		})
	}
	return out
}

func fromSlackFiles(in []slack.File) []domain.SharedFile {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.SharedFile, 0, len(in))
	for _, f := range in {
		out = append(out, domain.SharedFile{
			Filetype:   f.Filetype,
			Mimetype:   f.Mimetype,
			URLPrivate: f.URLPrivate,
		})
	}
	return out
}

func sortByTS(msgs []domain.TriggerMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return tsValue(msgs[i].TS) < tsValue(msgs[j].TS)
	})
}

// Slack timestamps are decimal strings like "1627777777.000200"; ordering is
// numeric, not lexical.
func tsValue(ts string) float64 {
	v, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return 0
	}
	return v
}
