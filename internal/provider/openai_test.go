package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"nekobot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestClient(url string) *Client {
	return NewClient(ClientConfig{
		APIKey:  "sk-test",
		APIBase: url,
		Model:   "gpt-4o",
		Logger:  testLogger(),
	})
}

func testQueries() []domain.Query {
	return []domain.Query{
		{Role: domain.RoleSystem, Content: domain.TextContent("prompt")},
		{Role: domain.RoleUser, Content: domain.TextContent("hello")},
	}
}

func TestClient_StreamOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("auth header = %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body["stream"] != true {
			t.Error("request must ask for a streamed response")
		}
		if body["model"] != "gpt-4o" {
			t.Errorf("model = %v", body["model"])
		}
		w.Write([]byte(frame("meow") + doneFrame))
	}))
	defer srv.Close()

	stream, err := newTestClient(srv.URL).Stream(context.Background(), testQueries())
	if err != nil {
		t.Fatal(err)
	}
	defer stream.Close()

	raw, err := io.ReadAll(stream)
	if err != nil {
		t.Fatal(err)
	}
	a := NewAssembler()
	a.Feed(raw)
	if a.Text() != "meow" {
		t.Fatalf("reassembled %q", a.Text())
	}
}

func TestClient_UsageLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Stream(context.Background(), testQueries())
	if !errors.Is(err, domain.ErrUsageLimit) {
		t.Fatalf("want ErrUsageLimit, got %v", err)
	}
}

func TestClient_InvalidImageFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"invalid_image_format","message":"unsupported"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Stream(context.Background(), testQueries())
	if !errors.Is(err, domain.ErrInvalidImage) {
		t.Fatalf("want ErrInvalidImage, got %v", err)
	}
}

func TestClient_OtherBadRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"context_length_exceeded"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Stream(context.Background(), testQueries())
	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("want UpstreamError, got %v", err)
	}
	if upstream.Status != http.StatusBadRequest {
		t.Fatalf("status = %d", upstream.Status)
	}
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Stream(context.Background(), testQueries())
	var upstream *domain.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("want UpstreamError, got %v", err)
	}
	if upstream.Body != "boom" {
		t.Fatalf("body = %q", upstream.Body)
	}
}
