// Package evidence renders a prospect's website and turns what it finds into
// three-valued pain indicators grouped by EDP.
package evidence

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Page is one rendered document.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	HTML       string
	Renderer   string
}

// TLS reports whether the page was finally served over https.
func (p *Page) TLS() bool {
	u := p.FinalURL
	if u == "" {
		u = p.URL
	}
	return strings.HasPrefix(strings.ToLower(u), "https://")
}

// Renderer fetches a URL and returns its HTML after any client-side
// rendering the implementation supports.
type Renderer interface {
	Render(ctx context.Context, url string) (*Page, error)
	Name() string
}

// ChainRenderer tries renderers in order and returns the first success.
type ChainRenderer struct {
	renderers []Renderer
}

// NewChainRenderer builds a chain. Nil renderers are skipped.
func NewChainRenderer(renderers ...Renderer) *ChainRenderer {
	c := &ChainRenderer{}
	for _, r := range renderers {
		if r != nil {
			c.renderers = append(c.renderers, r)
		}
	}
	return c
}

func (c *ChainRenderer) Name() string { return "chain" }

// Render returns the first successful page, or the last error.
func (c *ChainRenderer) Render(ctx context.Context, url string) (*Page, error) {
	var lastErr error
	for _, r := range c.renderers {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "evidence: render cancelled")
		}
		page, err := r.Render(ctx, url)
		if err == nil && page != nil {
			return page, nil
		}
		if err != nil {
			zap.L().Debug("evidence: renderer failed, trying next",
				zap.String("renderer", r.Name()),
				zap.String("url", url),
				zap.Error(err),
			)
			lastErr = err
		}
	}
	if lastErr != nil {
		return nil, eris.Wrap(lastErr, "evidence: all renderers failed")
	}
	return nil, eris.Errorf("evidence: no renderer configured for %s", url)
}
