package evidence

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/gtm-cli/internal/resilience"
	"github.com/sells-group/gtm-cli/pkg/jina"
)

// JinaRenderer renders through the hosted Jina Reader in HTML mode. It is
// used when no local browser is available or the site blocks plain HTTP.
// Repeated API failures (quota, outage) open a breaker so a batch stops
// paying the round trip for every remaining company.
type JinaRenderer struct {
	client  jina.Client
	timeout time.Duration
	breaker *resilience.CircuitBreaker
}

// NewJinaRenderer wraps a Jina client.
func NewJinaRenderer(client jina.Client, timeout time.Duration) *JinaRenderer {
	return &JinaRenderer{
		client:  client,
		timeout: timeout,
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold: 5,
			ResetTimeout:     time.Minute,
			OnStateChange: func(from, to resilience.CircuitState) {
				zap.L().Warn("jina: circuit breaker state change",
					zap.Stringer("from", from),
					zap.Stringer("to", to),
				)
			},
		}),
	}
}

func (j *JinaRenderer) Name() string { return "jina" }

func (j *JinaRenderer) Render(ctx context.Context, url string) (*Page, error) {
	opts := []jina.ReadOption{jina.WithFormat(jina.FormatHTML)}
	if j.timeout > 0 {
		opts = append(opts, jina.WithTimeout(j.timeout))
	}

	resp, err := resilience.ExecuteVal(ctx, j.breaker, func(ctx context.Context) (*jina.ReadResponse, error) {
		return j.client.Read(ctx, url, opts...)
	})
	if err != nil {
		return nil, eris.Wrap(err, "jina: render")
	}

	html := resp.Data.Body()
	if html == "" {
		return nil, eris.Errorf("jina: empty content for %s", url)
	}

	final := resp.Data.URL
	if final == "" {
		final = url
	}
	return &Page{
		URL:        url,
		FinalURL:   final,
		StatusCode: 200,
		HTML:       html,
		Renderer:   j.Name(),
	}, nil
}
