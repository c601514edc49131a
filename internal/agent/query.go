package agent

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"nekobot/internal/domain"
)

// BuildQueries converts a resolved context set into chat-completion queries:
// the system prompt first, then the messages in ascending timestamp order,
// tagged assistant for the bot's own and user for everyone else.
func BuildQueries(ctx context.Context, contexts []domain.TriggerMessage, botID, prompt string, files domain.FileFetcher) ([]domain.Query, error) {
	queries := make([]domain.Query, 0, len(contexts)+1)
	queries = append(queries, domain.Query{
		Role:    domain.RoleSystem,
		Content: domain.TextContent(prompt),
	})

	sorted := make([]domain.TriggerMessage, len(contexts))
	copy(sorted, contexts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return numericTS(sorted[i].TS) < numericTS(sorted[j].TS)
	})

	for _, m := range sorted {
		q, err := queryFromMessage(ctx, m, botID, files)
		if err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	return queries, nil
}

func queryFromMessage(ctx context.Context, m domain.TriggerMessage, botID string, files domain.FileFetcher) (domain.Query, error) {
	role := domain.RoleUser
	if m.IsFrom(botID) {
		role = domain.RoleAssistant
	}

	text := m.PureText()
	if len(m.Files) == 0 {
		return domain.Query{Role: role, Content: domain.TextContent(text)}, nil
	}

	// Attachments are independent; download them concurrently and recombine
	// in list order.
	parts := make([]domain.ContentPart, len(m.Files)+1)
	parts[0] = domain.TextPart(text)

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range m.Files {
		i, f := i, f
		g.Go(func() error {
			raw, err := files.FetchFile(gctx, f.URLPrivate)
			if err != nil {
				return err
			}
			parts[i+1] = domain.ImagePart(dataURL(f.Mimetype, raw))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Query{}, fmt.Errorf("attachment for message %s: %w", m.TS, err)
	}

	return domain.Query{Role: role, Content: domain.PartsContent(parts)}, nil
}

func dataURL(mimetype string, raw []byte) string {
	return "data:" + mimetype + ";base64," + base64.StdEncoding.EncodeToString(raw)
}

// ClearOldFiles strips attachments from every message except the one with
// latestTS. Only the newest message's attachments go upstream, so a growing
// thread does not re-send stale binary content on every turn.
func ClearOldFiles(messages []domain.TriggerMessage, latestTS string) []domain.TriggerMessage {
	out := make([]domain.TriggerMessage, len(messages))
	copy(out, messages)
	for i := range out {
		if out[i].TS != latestTS {
			out[i].Files = nil
		}
	}
	return out
}

func numericTS(ts string) float64 {
	v, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return 0
	}
	return v
}
