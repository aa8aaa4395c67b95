package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pavelanni/examgen/internal/llm/prompts"
	"github.com/pavelanni/examgen/internal/model"
)

// DefaultTemperature is the sampling temperature used for every completion.
const DefaultTemperature = 0.7

// Completer sends one prompt to a chat-completion endpoint and returns the raw text.
type Completer interface {
	Complete(ctx context.Context, p prompts.Prompt) (string, error)
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string, temperature float32) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:         openai.NewClientWithConfig(config),
		model:       modelName,
		temperature: temperature,
	}
}

// Complete makes exactly one call. Failures wrap model.ErrGenerationFailed and
// keep the upstream error so the message reaches the caller.
func (c *Client) Complete(ctx context.Context, p prompts.Prompt) (string, error) {
	slog.Debug("sending completion request", "model", c.model, "prompt", preview(p.User, 100))

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.System},
			{Role: openai.ChatMessageRoleUser, Content: p.User},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrGenerationFailed, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: LLM returned no choices", model.ErrGenerationFailed)
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "raw", preview(raw, 200))
	return raw, nil
}

// Ping checks that the endpoint is reachable and the key is accepted.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func preview(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
