package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.aimuz.me/voxlore/internal/apperr"
	"go.aimuz.me/voxlore/internal/types"
)

// compatCompleter implements Completer for OpenAI-compatible chat
// completion endpoints (OpenRouter, Together, Groq, DeepSeek, LM Studio,
// custom).
type compatCompleter struct {
	cfg completerConfig
}

type compatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type compatResponse struct {
	Choices []compatChoice `json:"choices"`
	Usage   compatUsage    `json:"usage"`
}

type compatChoice struct {
	Message compatMessage `json:"message"`
}

type compatMessage struct {
	Content string `json:"content"`
}

type compatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// model maps the short Gemini alias to OpenRouter's namespaced id.
func (c *compatCompleter) model() string {
	m := strings.TrimSpace(c.cfg.model)
	if m == "gemini-3-flash" || m == "gemini-3-flash-preview" {
		if strings.Contains(c.cfg.baseURL, "openrouter.ai") {
			return "google/gemini-3-flash-preview"
		}
		return "gemini-3-flash"
	}
	return m
}

func (c *compatCompleter) Complete(ctx context.Context, messages []Message) (string, types.Usage, error) {
	url := strings.TrimRight(c.cfg.baseURL, "/") + "/chat/completions"

	reqBody := compatRequest{
		Model:       c.model(),
		Messages:    messages,
		MaxTokens:   c.cfg.maxTokens,
		Temperature: c.cfg.temperature,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", types.Usage{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", types.Usage{}, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.cfg.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.apiKey)
	}

	started := time.Now()
	resp, err := c.cfg.http.Do(req)
	if err != nil {
		return "", types.Usage{}, &apperr.Error{Kind: apperr.KindEnhancement, Msg: "Request failed", Err: err}
	}
	defer resp.Body.Close()

	slog.Debug("enhancement request",
		"url", url,
		"status", resp.StatusCode,
		"upstream_request_id", requestID(resp.Header),
		"latency", time.Since(started))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", types.Usage{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", types.Usage{}, apperr.Enhancement("API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var chatResp compatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", types.Usage{}, apperr.Enhancement("Failed to parse response: %v", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", types.Usage{}, apperr.Enhancement("No choices returned")
	}

	usage := types.Usage{
		PromptTokens:     chatResp.Usage.PromptTokens,
		CompletionTokens: chatResp.Usage.CompletionTokens,
		TotalTokens:      chatResp.Usage.TotalTokens,
	}

	return chatResp.Choices[0].Message.Content, usage, nil
}

// requestID returns the first upstream correlation header present.
func requestID(h http.Header) string {
	for _, k := range []string{"x-request-id", "request-id", "x-correlation-id", "trace-id"} {
		if v := strings.TrimSpace(h.Get(k)); v != "" {
			return v
		}
	}
	return "n/a"
}
