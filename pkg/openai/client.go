// Package openai wraps openai-go chat completions behind a one-call client.
package openai

import (
	"context"
	"strings"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Completer produces a single chat completion.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Client is a chat-completions client for one model.
type Client struct {
	client      sdk.Client
	model       string
	maxTokens   int64
	temperature float64
}

// Option configures a Client.
type Option func(*Client)

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int64) Option {
	return func(c *Client) { c.maxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Client) { c.temperature = t }
}

// NewClient returns a client for model. reqOpts are passed to the SDK
// (base URL, retries, HTTP client).
func NewClient(apiKey, model string, opts []Option, reqOpts ...option.RequestOption) *Client {
	c := &Client{
		client:      sdk.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, reqOpts...)...),
		model:       model,
		maxTokens:   600,
		temperature: 0.4,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Complete sends a system and user message and returns the first choice.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	msgs := make([]sdk.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		msgs = append(msgs, sdk.SystemMessage(system))
	}
	msgs = append(msgs, sdk.UserMessage(user))

	resp, err := c.client.Chat.Completions.New(ctx, sdk.ChatCompletionNewParams{
		Messages:            msgs,
		Model:               sdk.ChatModel(c.model),
		MaxCompletionTokens: sdk.Int(c.maxTokens),
		Temperature:         sdk.Float(c.temperature),
	})
	if err != nil {
		return "", eris.Wrap(err, "openai: chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", eris.New("openai: no choices in response")
	}

	zap.L().Debug("openai: usage",
		zap.String("model", c.model),
		zap.Int64("input_tokens", resp.Usage.PromptTokens),
		zap.Int64("output_tokens", resp.Usage.CompletionTokens),
	)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
