package evidence

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/gtm-cli/internal/resilience"
)

// maxBodyBytes caps how much of a page is read. It sits above the heavy-page
// threshold so that check can still fire.
const maxBodyBytes = 4 << 20

// HTTPRenderer fetches raw HTML with net/http. It does not run scripts.
type HTTPRenderer struct {
	client    *http.Client
	userAgent string
}

// NewHTTPRenderer returns a renderer with the given timeout and user agent.
func NewHTTPRenderer(timeout time.Duration, userAgent string) *HTTPRenderer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPRenderer{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: timeout,
				}).DialContext,
				TLSHandshakeTimeout: timeout,
			},
		},
		userAgent: userAgent,
	}
}

func (h *HTTPRenderer) Name() string { return "http" }

// Render fetches url and fails on block pages and 4xx/5xx responses.
// 408, 429 and 5xx come back as resilience.TransientError.
func (h *HTTPRenderer) Render(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "http: create request")
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "http: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "http: read body")
	}

	if blocked, kind := DetectBlock(resp, body); blocked {
		return nil, eris.Errorf("http: blocked (%s)", kind)
	}

	if resp.StatusCode >= 400 {
		err := eris.Errorf("http: status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	if len(body) == 0 {
		return nil, eris.New("http: empty page")
	}

	final := url
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}

	return &Page{
		URL:        url,
		FinalURL:   final,
		StatusCode: resp.StatusCode,
		HTML:       string(body),
		Renderer:   h.Name(),
	}, nil
}
