package evidence

import (
	"context"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// BrowserRenderer renders pages in headless Chromium and waits for the
// network to go idle, so client-rendered catalogs and search boxes exist in
// the returned HTML.
type BrowserRenderer struct {
	pw        *playwright.Playwright
	browser   playwright.Browser
	timeout   time.Duration
	userAgent string

	closeOnce sync.Once
}

// NewBrowserRenderer starts the playwright driver and launches Chromium.
// Call Close when done.
func NewBrowserRenderer(headless bool, timeout time.Duration, userAgent string) (*BrowserRenderer, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, eris.Wrap(err, "browser: start playwright")
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, eris.Wrap(err, "browser: launch chromium")
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BrowserRenderer{pw: pw, browser: browser, timeout: timeout, userAgent: userAgent}, nil
}

func (b *BrowserRenderer) Name() string { return "browser" }

// Render opens url in a fresh browser context. playwright calls are not
// context aware, so ctx is only checked before navigation.
func (b *BrowserRenderer) Render(ctx context.Context, url string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "browser: render cancelled")
	}

	opts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: 1366, Height: 900},
	}
	if b.userAgent != "" {
		opts.UserAgent = playwright.String(b.userAgent)
	}
	bctx, err := b.browser.NewContext(opts)
	if err != nil {
		return nil, eris.Wrap(err, "browser: new context")
	}
	defer func() { _ = bctx.Close() }()

	page, err := bctx.NewPage()
	if err != nil {
		return nil, eris.Wrap(err, "browser: new page")
	}
	defer func() { _ = page.Close() }()

	resp, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(b.timeout.Milliseconds())),
	})
	if err != nil {
		return nil, eris.Wrapf(err, "browser: navigate %s", url)
	}

	status := 200
	if resp != nil {
		status = resp.Status()
	}
	if status >= 400 {
		return nil, eris.Errorf("browser: status %d", status)
	}

	html, err := page.Content()
	if err != nil {
		return nil, eris.Wrap(err, "browser: read content")
	}

	return &Page{
		URL:        url,
		FinalURL:   page.URL(),
		StatusCode: status,
		HTML:       html,
		Renderer:   b.Name(),
	}, nil
}

// Close shuts down Chromium and the driver.
func (b *BrowserRenderer) Close() error {
	var err error
	b.closeOnce.Do(func() {
		if cerr := b.browser.Close(); cerr != nil {
			zap.L().Warn("browser: close chromium", zap.Error(cerr))
		}
		err = b.pw.Stop()
	})
	return eris.Wrap(err, "browser: stop playwright")
}
