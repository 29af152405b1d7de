package campaign

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/gtm-cli/internal/config"
	"github.com/sells-group/gtm-cli/internal/model"
	"github.com/sells-group/gtm-cli/pkg/anthropic"
)

type mockAnthropic struct {
	mock.Mock
}

func (m *mockAnthropic) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

type fakeCompleter struct {
	system, user string
	out          string
	err          error
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.system, f.user = system, user
	return f.out, f.err
}

func rewriteReq() RewriteRequest {
	return RewriteRequest{
		Company:  "Acme",
		EDPName:  "Sales Enablement Collapse",
		Findings: []string{"No product search functionality"},
		Channel:  model.ChannelLinkedIn,
		Stage:    StageConnect,
		Draft:    "Hi Dana",
	}
}

func TestAnthropicWriter(t *testing.T) {
	t.Parallel()

	client := &mockAnthropic{}
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == "claude-haiku-4-5-20251001" &&
			req.MaxTokens == 600 &&
			req.System == systemPrompt &&
			len(req.Messages) == 1 &&
			*req.Temperature == 0.4
	})).Return(&anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: "Hi Dana, better."}},
	}, nil)

	w := NewAnthropicWriter(client, "claude-haiku-4-5-20251001", 600, 0.4)
	out, err := w.Rewrite(context.Background(), rewriteReq())
	require.NoError(t, err)
	assert.Equal(t, "Hi Dana, better.", out)
	client.AssertExpectations(t)
}

func TestAnthropicWriterError(t *testing.T) {
	t.Parallel()

	client := &mockAnthropic{}
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("overloaded"))

	_, err := NewAnthropicWriter(client, "m", 10, 0).Rewrite(context.Background(), rewriteReq())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "campaign: anthropic rewrite")
}

func TestOpenAIWriter(t *testing.T) {
	t.Parallel()

	c := &fakeCompleter{out: "rewritten"}
	out, err := NewOpenAIWriter(c).Rewrite(context.Background(), rewriteReq())
	require.NoError(t, err)
	assert.Equal(t, "rewritten", out)
	assert.Equal(t, systemPrompt, c.system)
	assert.Contains(t, c.user, "Company: Acme")
	assert.Contains(t, c.user, "- No product search functionality")
	assert.Contains(t, c.user, "LinkedIn message")

	_, err = NewOpenAIWriter(&fakeCompleter{err: errors.New("down")}).Rewrite(context.Background(), rewriteReq())
	assert.Error(t, err)
}

func TestUserPromptEmail(t *testing.T) {
	t.Parallel()

	req := rewriteReq()
	req.Channel = model.ChannelEmail
	req.Findings = nil
	p := userPrompt(req)
	assert.Contains(t, p, "email, under 150 words")
	assert.NotContains(t, p, "Website findings")
}

func TestNewWriterFromConfig(t *testing.T) {
	t.Parallel()

	w, err := NewWriterFromConfig(&config.Config{LLM: config.LLMConfig{Provider: "none"}})
	require.NoError(t, err)
	assert.Nil(t, w)

	_, err = NewWriterFromConfig(&config.Config{LLM: config.LLMConfig{Provider: "anthropic"}})
	assert.Error(t, err)

	w, err = NewWriterFromConfig(&config.Config{
		LLM:       config.LLMConfig{Provider: "anthropic", MaxTokens: 600},
		Anthropic: config.AnthropicConfig{Key: "k", Model: "claude-haiku-4-5-20251001"},
	})
	require.NoError(t, err)
	assert.IsType(t, &AnthropicWriter{}, w)

	w, err = NewWriterFromConfig(&config.Config{
		LLM:    config.LLMConfig{Provider: "openai"},
		OpenAI: config.OpenAIConfig{Key: "k", Model: "gpt-4.1-mini", BaseURL: "http://localhost:1"},
	})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIWriter{}, w)

	_, err = NewWriterFromConfig(&config.Config{LLM: config.LLMConfig{Provider: "cohere"}})
	assert.Error(t, err)
}
