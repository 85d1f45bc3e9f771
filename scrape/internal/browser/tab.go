package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/stealth"
)

// ErrLoadTimeout reports a page that never fired its load event within
// the navigation timeout.
var ErrLoadTimeout = errors.New("browser: page load timed out")

// Tab is one ephemeral page. Every scrape opens its own Tab and closes
// it on exit; tabs are never shared or pooled.
type Tab struct {
	Page *rod.Page
	URL  string
}

// OpenTab creates a stealth page, applies resource blocking, and
// navigates to pageURL. Load waiting is bounded by the manager's
// NavTimeout; a page that never completes loading is closed and
// reported as ErrLoadTimeout, it never comes back half-loaded.
func OpenTab(ctx context.Context, mgr *Manager, pageURL string) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	if len(mgr.cfg.ResourceBlocking) > 0 {
		if err := applyResourceBlocking(page, mgr.cfg.ResourceBlocking); err != nil {
			mgr.cfg.Logger.Warn("browser: resource blocking failed", "error", err)
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, mgr.cfg.NavTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: wait load %s: %v: %w", pageURL, err, ErrLoadTimeout)
	}

	return &Tab{Page: page, URL: pageURL}, nil
}

// HTML serialises the full rendered document.
func (t *Tab) HTML(ctx context.Context) (string, error) {
	res, err := t.Page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return "", fmt.Errorf("browser: get DOM: %w", err)
	}
	return res.Value.Str(), nil
}

// ScrollToBottom scrolls the window to the current document end,
// triggering the feed's infinite-scroll loader.
func (t *Tab) ScrollToBottom(ctx context.Context) error {
	_, err := t.Page.Context(ctx).Eval(`() => {
		window.scrollTo(0, document.body.scrollHeight);
		return document.body.scrollHeight;
	}`)
	if err != nil {
		return fmt.Errorf("browser: scroll: %w", err)
	}
	return nil
}

// ExpandToggles clicks every collapsed "see more" toggle currently in
// the document so the next capture sees full post bodies.
func (t *Tab) ExpandToggles(ctx context.Context) error {
	_, err := t.Page.Context(ctx).Eval(`() => {
		const sels = [
			'button.feed-shared-inline-show-more-text__see-more-less-toggle',
			'button.see-more',
			'button[aria-label*="see more" i]',
			'button[aria-label*="ещё" i]',
		];
		let clicked = 0;
		for (const sel of sels) {
			for (const b of document.querySelectorAll(sel)) {
				b.click();
				clicked++;
			}
		}
		return clicked;
	}`)
	if err != nil {
		return fmt.Errorf("browser: expand toggles: %w", err)
	}
	return nil
}

// Reload navigates the tab to its URL again and waits for load. Used
// when the page's scripting context went away mid-scrape.
func (t *Tab) Reload(ctx context.Context) error {
	if err := t.Page.Context(ctx).Navigate(t.URL); err != nil {
		return fmt.Errorf("browser: reload %s: %w", t.URL, err)
	}
	if err := t.Page.Context(ctx).WaitLoad(); err != nil {
		return fmt.Errorf("browser: reload wait: %w", err)
	}
	return nil
}

// EvalString runs js in the page and returns its string result. args
// are passed positionally to the function.
func (t *Tab) EvalString(ctx context.Context, js string, args ...any) (string, error) {
	res, err := t.Page.Context(ctx).Eval(js, args...)
	if err != nil {
		return "", fmt.Errorf("browser: eval: %w", err)
	}
	return res.Value.Str(), nil
}

// Close closes the tab. Safe on a tab whose browser already died.
func (t *Tab) Close() error {
	if t.Page != nil {
		return t.Page.Close()
	}
	return nil
}
