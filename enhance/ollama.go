package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.aimuz.me/voxlore/internal/apperr"
	"go.aimuz.me/voxlore/internal/types"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// ollamaCompleter implements Completer for Ollama's native chat API.
type ollamaCompleter struct {
	cfg completerConfig
}

type ollamaRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  *ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Message         Message `json:"message"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
	Error           string  `json:"error,omitempty"`
}

func (c *ollamaCompleter) Complete(ctx context.Context, messages []Message) (string, types.Usage, error) {
	base := strings.TrimRight(c.cfg.baseURL, "/")
	if base == "" {
		base = defaultOllamaBaseURL
	}

	jsonBody, err := json.Marshal(ollamaRequest{
		Model:    c.cfg.model,
		Messages: messages,
		Options: &ollamaOptions{
			Temperature: c.cfg.temperature,
			NumPredict:  c.cfg.maxTokens,
		},
	})
	if err != nil {
		return "", types.Usage{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/api/chat", bytes.NewReader(jsonBody))
	if err != nil {
		return "", types.Usage{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.cfg.http.Do(req)
	if err != nil {
		return "", types.Usage{}, &apperr.Error{Kind: apperr.KindEnhancement, Msg: "Local LLM request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", types.Usage{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", types.Usage{}, apperr.Enhancement("Local LLM error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out ollamaResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", types.Usage{}, apperr.Enhancement("Failed to parse response: %v", err)
	}
	if out.Error != "" {
		return "", types.Usage{}, apperr.Enhancement("Local LLM error: %s", out.Error)
	}

	return out.Message.Content, types.Usage{
		PromptTokens:     out.PromptEvalCount,
		CompletionTokens: out.EvalCount,
		TotalTokens:      out.PromptEvalCount + out.EvalCount,
	}, nil
}
