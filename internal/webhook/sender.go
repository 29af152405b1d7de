package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/gtm-cli/internal/metrics"
)

// Sender POSTs payloads to one URL. It never retries.
type Sender struct {
	url    string
	client *http.Client
}

// NewSender returns a sender with the given request timeout.
func NewSender(url string, timeout time.Duration) *Sender {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Sender{url: url, client: &http.Client{Timeout: timeout}}
}

// URL returns the target URL.
func (s *Sender) URL() string { return s.url }

// Send delivers v as JSON. 200, 201 and 202 are success.
func (s *Sender) Send(ctx context.Context, v any) error {
	err := s.send(ctx, v)
	metrics.WebhookSends.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		zap.L().Warn("webhook: send failed", zap.String("url", s.url), zap.Error(err))
	}
	return err
}

func (s *Sender) send(ctx context.Context, v any) error {
	if s.url == "" {
		return eris.New("webhook: no url configured")
	}

	body, err := json.Marshal(v)
	if err != nil {
		return eris.Wrap(err, "webhook: marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "webhook: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "webhook: post")
	}
	defer resp.Body.Close() //nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		return nil
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return eris.Errorf("webhook: unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}
}
