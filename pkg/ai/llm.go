package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/johnquangdev/meeting-segmenter/pkg/config"
)

// ChatClient is a minimal client for OpenAI-compatible chat completion
// endpoints (Groq, Ollama, vLLM, OpenAI).
type ChatClient struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	client      *http.Client
}

// NewChatClient creates a chat client from the LLM section of the config.
// The per-call wall-clock bound is the configured timeout.
func NewChatClient(cfg *config.LLMConfig) *ChatClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &ChatClient{
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.ResponseReserve,
		client:      &http.Client{Timeout: timeout},
	}
}

// Model returns the configured model id
func (g *ChatClient) Model() string {
	return g.model
}

// ChatMessage is a single chat turn
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the shape for chat completion requests
type ChatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []ChatMessage `json:"messages,omitempty"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

// ChatResponse is a minimal response shape
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends a single-shot prompt and returns the raw assistant text.
// The text is untrusted and may contain prose around any JSON.
func (g *ChatClient) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := ChatRequest{
		Model:       g.model,
		Messages:    []ChatMessage{{Role: "user", Content: prompt}},
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	endpoint := g.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("chat completion returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var cr ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decode chat completion: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("empty response from chat completion")
	}
	return cr.Choices[0].Message.Content, nil
}
