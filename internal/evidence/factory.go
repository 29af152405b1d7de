package evidence

import (
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/gtm-cli/internal/config"
	"github.com/sells-group/gtm-cli/pkg/jina"
)

// NewRendererFromConfig builds the render chain: headless browser (when
// enabled and launchable), plain HTTP, then Jina Reader (when a key is set).
// The returned close func releases the browser.
func NewRendererFromConfig(cfg *config.Config) (Renderer, func() error) {
	var chain []Renderer
	closeFn := func() error { return nil }

	if cfg.Browser.Enabled {
		b, err := NewBrowserRenderer(cfg.Browser.Headless,
			time.Duration(cfg.Browser.TimeoutSecs)*time.Second, cfg.Extractor.UserAgent)
		if err != nil {
			zap.L().Warn("evidence: browser unavailable, falling back to http", zap.Error(err))
		} else {
			chain = append(chain, b)
			closeFn = b.Close
		}
	}

	chain = append(chain, NewHTTPRenderer(
		time.Duration(cfg.Extractor.HTTPTimeoutSecs)*time.Second, cfg.Extractor.UserAgent))

	if cfg.Jina.Key != "" {
		opts := []jina.Option{}
		if cfg.Jina.BaseURL != "" {
			opts = append(opts, jina.WithBaseURL(cfg.Jina.BaseURL))
		}
		chain = append(chain, NewJinaRenderer(jina.NewClient(cfg.Jina.Key, opts...), 20*time.Second))
	}

	return NewChainRenderer(chain...), closeFn
}
