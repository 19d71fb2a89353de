package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestGeminiClient(t *testing.T, handler http.HandlerFunc) (*GeminiClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewGeminiClient("test-key", "gemini-2.0-flash")
	if err != nil {
		t.Fatalf("new gemini client: %v", err)
	}
	client.baseURL = srv.URL
	return client, srv
}

func TestGeminiGenerateReply(t *testing.T) {
	var gotBody generateRequest
	client, _ := newTestGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "models/gemini-2.0-flash:generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key in query")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": "Halo!"}}}},
			},
		})
	})

	reply, err := client.GenerateReply(context.Background(), "User: Hi", nil)
	if err != nil {
		t.Fatalf("generate reply: %v", err)
	}
	if reply != "Halo!" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if len(gotBody.Contents) != 1 || len(gotBody.Contents[0].Parts) != 1 {
		t.Fatalf("unexpected request shape: %+v", gotBody)
	}
	if gotBody.Contents[0].Parts[0].Text != "User: Hi" {
		t.Fatalf("unexpected prompt: %q", gotBody.Contents[0].Parts[0].Text)
	}
}

func TestGeminiGenerateReplyAttachesInlinePhoto(t *testing.T) {
	var gotBody generateRequest
	client, _ := newTestGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": "nice photo"}}}},
			},
		})
	})

	photo := &Photo{Data: []byte{0xff, 0xd8, 0xff}, MimeType: "image/png"}
	if _, err := client.GenerateReply(context.Background(), "look", photo); err != nil {
		t.Fatalf("generate reply: %v", err)
	}
	parts := gotBody.Contents[0].Parts
	if len(parts) != 2 {
		t.Fatalf("expected text + inline image parts, got %d", len(parts))
	}
	if parts[1].InlineData == nil || parts[1].InlineData.MimeType != "image/png" {
		t.Fatalf("unexpected inline data: %+v", parts[1])
	}
	if parts[1].InlineData.Data == "" {
		t.Fatalf("expected base64 payload")
	}
}

func TestGeminiGenerateReplyErrorStatus(t *testing.T) {
	client, _ := newTestGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "API key invalid"},
		})
	})
	_, err := client.GenerateReply(context.Background(), "hi", nil)
	if err == nil || !strings.Contains(err.Error(), "API key invalid") {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestGeminiGenerateReplyNoCandidates(t *testing.T) {
	client, _ := newTestGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	})
	_, err := client.GenerateReply(context.Background(), "hi", nil)
	if !errors.Is(err, ErrNoAnswer) {
		t.Fatalf("expected ErrNoAnswer, got %v", err)
	}
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	if _, err := NewGeminiClient("  ", ""); err == nil {
		t.Fatalf("expected error for empty api key")
	}
	client, err := NewGeminiClient("k", "models/gemini-2.0-flash")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.model != "gemini-2.0-flash" {
		t.Fatalf("model prefix not normalized: %q", client.model)
	}
}
