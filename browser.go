package readsnap

import (
	"context"

	"github.com/alnah/go-readsnap/internal/browser"
)

// ensureBrowser returns the shared browser, launching it on first use. The
// launch outlives ctx so later calls can reuse it.
func (e *Extractor) ensureBrowser(ctx context.Context) (*browser.Browser, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.browser != nil {
		return e.browser, nil
	}
	if e.rodBrowser != nil {
		e.browser = browser.Wrap(e.rodBrowser, e.cfg.Browser.Stealth, e.log)
		return e.browser, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, err := browser.Launch(context.WithoutCancel(ctx), browser.Config{
		Bin:       e.cfg.Browser.Bin,
		RemoteURL: e.cfg.Browser.RemoteURL,
		NoSandbox: e.cfg.Browser.NoSandbox,
		Stealth:   e.cfg.Browser.Stealth,
	}, e.log)
	if err != nil {
		return nil, err
	}
	e.browser = b
	return b, nil
}

// Open navigates a new browser tab to url. The page is a Scope for the
// entry operations; close it when done.
func (e *Extractor) Open(ctx context.Context, url string) (*Page, error) {
	b, err := e.ensureBrowser(ctx)
	if err != nil {
		return nil, err
	}
	e.log.Debug().Str("stage", "browser").Str("url", url).Msg("opening page")
	return b.Open(ctx, url, e.pageOpts)
}

// Close shuts down a browser launched by the Extractor. A browser passed
// with WithBrowser is left running.
func (e *Extractor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.browser == nil {
		return nil
	}
	err := e.browser.Close()
	e.browser = nil
	return err
}
