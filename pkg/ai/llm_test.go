package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/johnquangdev/meeting-segmenter/pkg/config"
)

func TestComplete_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST got %s", r.Method)
		}
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected auth header %q", got)
		}
		var payload ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		if payload.Model != "qwen3:14b" || len(payload.Messages) != 1 || payload.Messages[0].Content != "where does it end?" {
			t.Fatalf("unexpected payload %+v", payload)
		}
		if payload.MaxTokens != 500 {
			t.Fatalf("want max_tokens 500 got %d", payload.MaxTokens)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"boundary_index\": 4}"}}]}`))
	}))
	defer ts.Close()

	client := NewChatClient(&config.LLMConfig{BaseURL: ts.URL + "/", APIKey: "test-key", Model: "qwen3:14b", ResponseReserve: 500})
	got, err := client.Complete(context.Background(), "where does it end?")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != `{"boundary_index": 4}` {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestComplete_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	client := NewChatClient(&config.LLMConfig{BaseURL: ts.URL, Model: "m"})
	if _, err := client.Complete(context.Background(), "p"); err == nil {
		t.Fatalf("expected error for 429")
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer ts.Close()

	client := NewChatClient(&config.LLMConfig{BaseURL: ts.URL, Model: "m"})
	if _, err := client.Complete(context.Background(), "p"); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}
