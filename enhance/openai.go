package enhance

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"go.aimuz.me/voxlore/internal/apperr"
	"go.aimuz.me/voxlore/internal/types"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// openaiCompleter implements Completer with the official OpenAI SDK.
type openaiCompleter struct {
	cfg completerConfig
}

func (c *openaiCompleter) Complete(ctx context.Context, messages []Message) (string, types.Usage, error) {
	base := strings.TrimRight(c.cfg.baseURL, "/")
	if base == "" {
		base = defaultOpenAIBaseURL
	}
	client := openai.NewClient(
		option.WithAPIKey(c.cfg.apiKey),
		option.WithBaseURL(base+"/"),
		option.WithHTTPClient(c.cfg.http),
		option.WithMaxRetries(0),
	)

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case "assistant":
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.cfg.model),
		Messages:    msgs,
		Temperature: openai.Float(c.cfg.temperature),
	}
	if c.cfg.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(c.cfg.maxTokens))
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", types.Usage{}, apperr.Enhancement("API error (%d): %s", apiErr.StatusCode, apiErr.Message)
		}
		return "", types.Usage{}, &apperr.Error{Kind: apperr.KindEnhancement, Msg: "Request failed", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", types.Usage{}, apperr.Enhancement("No choices returned")
	}

	usage := types.Usage{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}
	return resp.Choices[0].Message.Content, usage, nil
}
