package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/slack-go/slack"

	"nekobot/internal/domain"
)

// EventHandler runs one full response cycle for an inbound trigger message.
type EventHandler interface {
	HandleEvent(ctx context.Context, trigger domain.TriggerMessage) error
}

// WebhookConfig configures the Slack Events API endpoint.
type WebhookConfig struct {
	Port          int
	Path          string
	SigningSecret string // empty disables signature verification
	Handler       EventHandler
	Logger        *slog.Logger
}

// Webhook receives Slack Events API callbacks over HTTP, verifies their
// signatures, and dispatches message events to the handler.
type Webhook struct {
	port    int
	path    string
	secret  string
	handler EventHandler
	logger  *slog.Logger
	server  *http.Server
}

// eventEnvelope is the outer Events API payload: either a one-time
// url_verification challenge or an event_callback wrapping the message.
type eventEnvelope struct {
	Type      string                 `json:"type"`
	Challenge string                 `json:"challenge"`
	Event     *domain.TriggerMessage `json:"event"`
}

func NewWebhook(cfg WebhookConfig) *Webhook {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.Path == "" {
		cfg.Path = "/slack/events"
	}
	return &Webhook{
		port:    cfg.Port,
		path:    cfg.Path,
		secret:  cfg.SigningSecret,
		handler: cfg.Handler,
		logger:  cfg.Logger,
	}
}

// Start runs the HTTP server until ctx is cancelled.
func (w *Webhook) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc(w.path, w.handleEvent)

	w.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", w.port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	w.logger.Info("events server starting", "port", w.port, "path", w.path)

	errCh := make(chan error, 1)
	go func() {
		if err := w.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		w.logger.Info("events server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return w.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("events server: %w", err)
	}
}

func (w *Webhook) handleEvent(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(rw, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB max
	if err != nil {
		http.Error(rw, "Bad Request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if w.secret != "" {
		sv, err := slack.NewSecretsVerifier(r.Header, w.secret)
		if err != nil {
			http.Error(rw, "Unauthorized", http.StatusUnauthorized)
			return
		}
		sv.Write(body)
		if err := sv.Ensure(); err != nil {
			w.logger.Warn("signature verification failed", "remote", r.RemoteAddr)
			http.Error(rw, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	// Slack resends events it considers unacknowledged; the original
	// delivery already ran the cycle, so retries are acked and dropped.
	if r.Header.Get("X-Slack-Retry-Num") != "" {
		rw.Write([]byte("OK"))
		return
	}

	var envelope eventEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		w.logger.Warn("undecodable event payload", "err", err)
		http.Error(rw, "Bad Request", http.StatusBadRequest)
		return
	}

	// One-time endpoint registration handshake.
	if envelope.Challenge != "" {
		rw.Header().Set("Content-Type", "text/plain")
		rw.Write([]byte(envelope.Challenge))
		return
	}

	if envelope.Type != "event_callback" || envelope.Event == nil {
		rw.Write([]byte("OK"))
		return
	}

	if err := w.handler.HandleEvent(r.Context(), *envelope.Event); err != nil {
		if errors.Is(err, domain.ErrNoContext) {
			w.logger.Info("no context resolved", "channel", envelope.Event.Channel, "ts", envelope.Event.TS)
		} else {
			w.logger.Error("event handling failed", "channel", envelope.Event.Channel, "ts", envelope.Event.TS, "err", err)
		}
	}
	rw.Write([]byte("OK"))
}
