package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"nekobot/internal/domain"
	"nekobot/internal/provider"
)

// Completer sends the built queries upstream and returns the streamed body.
type Completer interface {
	Stream(ctx context.Context, queries []domain.Query) (io.ReadCloser, error)
}

// Orchestrator runs one full response cycle per inbound event: gate, resolve
// context, post the placeholder, build queries, stream the completion into
// live edits, and make sure the placeholder reaches a final state.
type Orchestrator struct {
	messenger    domain.Messenger
	files        domain.FileFetcher
	completions  Completer
	resolver     *Resolver
	botID        string
	editInterval time.Duration
	logger       *slog.Logger
}

// OrchestratorConfig holds all dependencies for the event cycle.
type OrchestratorConfig struct {
	Messenger    domain.Messenger
	Source       domain.ConversationSource
	Files        domain.FileFetcher
	Completions  Completer
	BotID        string
	Limits       Limits
	EditInterval time.Duration
	Logger       *slog.Logger
}

func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if cfg.EditInterval <= 0 {
		cfg.EditInterval = provider.DefaultEditInterval
	}
	return &Orchestrator{
		messenger:    cfg.Messenger,
		files:        cfg.Files,
		completions:  cfg.Completions,
		resolver:     NewResolver(cfg.Source, cfg.BotID, cfg.Limits),
		botID:        cfg.BotID,
		editInterval: cfg.EditInterval,
		logger:       cfg.Logger,
	}
}

// HandleEvent processes one trigger message to completion. Messages that owe
// no reply are dropped silently; once a placeholder has been posted, every
// terminal state (success or error) is written into it.
func (o *Orchestrator) HandleEvent(ctx context.Context, trigger domain.TriggerMessage) error {
	if !trigger.ReplyRequired(o.botID) {
		o.logger.Debug("no reply required", "ts", trigger.TS, "user", trigger.User, "subtype", trigger.SubType)
		return nil
	}
	if trigger.Channel == "" {
		return fmt.Errorf("%w: ts=%s", domain.ErrMissingChannel, trigger.TS)
	}

	threadTS := trigger.ReplyThreadTS()

	contexts, err := o.resolver.Resolve(ctx, trigger)
	if err != nil {
		return fmt.Errorf("resolve context: %w", err)
	}
	if len(contexts) == 0 {
		if _, err := o.messenger.PostMessage(ctx, trigger.Channel, noContextText, threadTS); err != nil {
			return fmt.Errorf("post no-context notice: %w", err)
		}
		return domain.ErrNoContext
	}

	// The placeholder is posted only after resolution so ignored messages
	// never produce one.
	placeholderTS, err := o.messenger.PostMessage(ctx, trigger.Channel, loadingText, threadTS)
	if err != nil {
		return fmt.Errorf("post placeholder: %w", err)
	}

	o.logger.Info("cycle started",
		"channel", trigger.Channel,
		"ts", trigger.TS,
		"contexts", len(contexts),
		"files", len(trigger.Files),
	)

	for _, f := range trigger.Files {
		if !allowedMime(f.Mimetype) {
			return o.failPlaceholder(ctx, trigger.Channel, placeholderTS,
				fmt.Errorf("%w: %s", domain.ErrInvalidImage, f.Mimetype))
		}
	}

	queries, err := BuildQueries(ctx, ClearOldFiles(contexts, trigger.TS), o.botID, systemPrompt, o.files)
	if err != nil {
		return o.failPlaceholder(ctx, trigger.Channel, placeholderTS, err)
	}
	if len(queries) < 2 {
		// only the system prompt survived; nothing to ask
		return o.failPlaceholder(ctx, trigger.Channel, placeholderTS, domain.ErrNoContext)
	}

	stream, err := o.completions.Stream(ctx, queries)
	if err != nil {
		return o.failPlaceholder(ctx, trigger.Channel, placeholderTS, err)
	}
	defer stream.Close()

	asm := provider.NewAssembler()
	up := provider.NewUpdater(o.messenger, trigger.Channel, placeholderTS, o.editInterval, emptyText)
	if err := provider.StreamToMessage(ctx, stream, asm, up); err != nil {
		if errors.Is(err, domain.ErrTransport) && up.LastPosted() != "" {
			// partial text already stands in the placeholder; leave it
			o.logger.Error("stream aborted with partial text posted", "ts", placeholderTS, "err", err)
			return err
		}
		return o.failPlaceholder(ctx, trigger.Channel, placeholderTS, err)
	}

	o.logger.Info("response delivered", "channel", trigger.Channel, "ts", placeholderTS, "chars", len(asm.Text()))
	return nil
}

// failPlaceholder maps err to its fixed user-facing message, writes it into
// the placeholder, and returns err for the caller to log.
func (o *Orchestrator) failPlaceholder(ctx context.Context, channelID, ts string, err error) error {
	msg := genericErrText
	switch {
	case errors.Is(err, domain.ErrUsageLimit):
		msg = usageLimitText
	case errors.Is(err, domain.ErrInvalidImage):
		msg = invalidImgText
	case errors.Is(err, domain.ErrNoContext):
		msg = noContextText
	}
	if editErr := o.messenger.UpdateMessage(ctx, channelID, ts, msg); editErr != nil {
		o.logger.Error("failed to report terminal state", "ts", ts, "err", editErr)
	}
	return err
}
