package scrape

import (
	"context"

	"github.com/nvello/feedpilot/scrape/internal/browser"
)

// ErrLoadTimeout marks a navigation failure: the page never finished
// loading, or its feed never rendered. Jobs failing this way are not
// cached; callers fall back to stale cache when one exists.
var ErrLoadTimeout = browser.ErrLoadTimeout

// RodOpener adapts the browser manager to the TabOpener port.
type RodOpener struct {
	Manager *browser.Manager
}

func (o RodOpener) OpenTab(ctx context.Context, url string) (Tab, error) {
	t, err := browser.OpenTab(ctx, o.Manager, url)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// BrowserConfig mirrors the manager knobs the service config exposes.
type BrowserConfig = browser.Config

// NewBrowserManager builds the browser manager. The caller is in
// charge of Start and Close.
func NewBrowserManager(cfg BrowserConfig) *browser.Manager {
	return browser.NewManager(cfg)
}
