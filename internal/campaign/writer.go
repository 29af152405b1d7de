package campaign

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	openaiopt "github.com/openai/openai-go/option"
	"github.com/rotisserie/eris"

	"github.com/sells-group/gtm-cli/internal/config"
	"github.com/sells-group/gtm-cli/internal/model"
	"github.com/sells-group/gtm-cli/pkg/anthropic"
	"github.com/sells-group/gtm-cli/pkg/openai"
)

// RewriteRequest is everything a writer sees for one message.
type RewriteRequest struct {
	Company  string
	EDPName  string
	Findings []string
	Channel  model.Channel
	Stage    string
	Draft    string
}

// Writer rewrites a template draft into more natural copy.
type Writer interface {
	Rewrite(ctx context.Context, req RewriteRequest) (string, error)
}

const systemPrompt = "You are a B2B copywriter for SuperCat, a product catalog platform for manufacturers and distributors. " +
	"Rewrite the draft so it reads like a person wrote it for this specific company. Keep every concrete fact, " +
	"keep the sign-off, and never invent numbers. Output only the message body with no subject line."

func userPrompt(req RewriteRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\n", req.Company)
	fmt.Fprintf(&b, "Pain category: %s\n", req.EDPName)
	if len(req.Findings) > 0 {
		fmt.Fprintf(&b, "Website findings:\n")
		for _, f := range req.Findings {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	if req.Channel == model.ChannelLinkedIn {
		b.WriteString("Channel: LinkedIn message, under 280 characters.\n")
	} else {
		b.WriteString("Channel: email, under 150 words.\n")
	}
	fmt.Fprintf(&b, "Stage: %s\n\nDraft:\n%s\n", req.Stage, req.Draft)
	return b.String()
}

var subjectLine = regexp.MustCompile(`(?im)^[ \t>*#_]*(subject|subj)[ \t*_]*:.*(\r?\n)?`)

// StripSubjectLines removes any line that looks like an email subject header
// and trims the result.
func StripSubjectLines(s string) string {
	return strings.TrimSpace(subjectLine.ReplaceAllString(s, ""))
}

// AnthropicWriter rewrites copy with Claude.
type AnthropicWriter struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

// NewAnthropicWriter returns a writer using client and model.
func NewAnthropicWriter(client anthropic.Client, model string, maxTokens int64, temperature float64) *AnthropicWriter {
	return &AnthropicWriter{client: client, model: model, maxTokens: maxTokens, temperature: temperature}
}

// Rewrite implements Writer.
func (w *AnthropicWriter) Rewrite(ctx context.Context, req RewriteRequest) (string, error) {
	temp := w.temperature
	resp, err := w.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       w.model,
		MaxTokens:   w.maxTokens,
		System:      systemPrompt,
		Messages:    []anthropic.Message{{Role: "user", Content: userPrompt(req)}},
		Temperature: &temp,
	})
	if err != nil {
		return "", eris.Wrap(err, "campaign: anthropic rewrite")
	}
	resp.Usage.LogCost(w.model, "campaign")
	return resp.Text(), nil
}

// OpenAIWriter rewrites copy with an OpenAI chat model.
type OpenAIWriter struct {
	client openai.Completer
}

// NewOpenAIWriter returns a writer over client.
func NewOpenAIWriter(client openai.Completer) *OpenAIWriter {
	return &OpenAIWriter{client: client}
}

// Rewrite implements Writer.
func (w *OpenAIWriter) Rewrite(ctx context.Context, req RewriteRequest) (string, error) {
	out, err := w.client.Complete(ctx, systemPrompt, userPrompt(req))
	if err != nil {
		return "", eris.Wrap(err, "campaign: openai rewrite")
	}
	return out, nil
}

// NewWriterFromConfig builds the configured writer. Provider "none" (or
// blank) returns nil, meaning template text only.
func NewWriterFromConfig(cfg *config.Config) (Writer, error) {
	switch cfg.LLM.Provider {
	case "", "none":
		return nil, nil
	case "anthropic":
		if cfg.Anthropic.Key == "" {
			return nil, eris.New("campaign: anthropic.key is required")
		}
		return NewAnthropicWriter(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model,
			cfg.LLM.MaxTokens, cfg.LLM.Temperature), nil
	case "openai":
		if cfg.OpenAI.Key == "" {
			return nil, eris.New("campaign: openai.key is required")
		}
		var reqOpts []openaiopt.RequestOption
		if cfg.OpenAI.BaseURL != "" {
			reqOpts = append(reqOpts, openaiopt.WithBaseURL(cfg.OpenAI.BaseURL))
		}
		client := openai.NewClient(cfg.OpenAI.Key, cfg.OpenAI.Model,
			[]openai.Option{openai.WithMaxTokens(cfg.LLM.MaxTokens), openai.WithTemperature(cfg.LLM.Temperature)},
			reqOpts...)
		return NewOpenAIWriter(client), nil
	default:
		return nil, eris.Errorf("campaign: unknown llm provider %q", cfg.LLM.Provider)
	}
}
