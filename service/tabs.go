package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/nvello/feedpilot/feedex"
	"github.com/nvello/feedpilot/scrape"
)

// TabRegistry tracks the long-lived tabs opened by post.open, keyed by
// the URL they were opened at. Newer registrations for the same URL
// replace (and close) the older tab.
type TabRegistry struct {
	mu   sync.Mutex
	tabs []tabEntry
}

type tabEntry struct {
	url string
	tab scrape.Tab
}

// NewTabRegistry creates an empty registry.
func NewTabRegistry() *TabRegistry {
	return &TabRegistry{}
}

// Register adds a tab. An existing tab at the same URL is closed first.
func (r *TabRegistry) Register(url string, tab scrape.Tab) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.tabs {
		if e.url == url {
			e.tab.Close()
			r.tabs = append(r.tabs[:i], r.tabs[i+1:]...)
			break
		}
	}
	r.tabs = append(r.tabs, tabEntry{url: url, tab: tab})
}

// Find returns the tab showing the post with activityID: first a tab
// whose URL carries the id, then the most recently opened one.
func (r *TabRegistry) Find(activityID string) (scrape.Tab, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if activityID != "" {
		for i := len(r.tabs) - 1; i >= 0; i-- {
			if feedex.ActivityID(r.tabs[i].url) == activityID ||
				strings.Contains(r.tabs[i].url, activityID) {
				return r.tabs[i].tab, true
			}
		}
	}
	if n := len(r.tabs); n > 0 {
		return r.tabs[n-1].tab, true
	}
	return nil, false
}

// CloseAll closes every registered tab. Used at shutdown.
func (r *TabRegistry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.tabs {
		e.tab.Close()
	}
	r.tabs = nil
}

// insertDraftJS places text into the comment composer of the post
// carrying the given activity id and fires the input/change events the
// page's own listeners expect.
const insertDraftJS = `(id, text) => {
	let root = document;
	if (id) {
		const c = document.querySelector('[data-urn*="' + id + '"]');
		if (c) root = c;
	}
	const box = root.querySelector('div.comments-comment-box div[contenteditable="true"]')
		|| root.querySelector('div.ql-editor[contenteditable="true"]')
		|| root.querySelector('div[contenteditable="true"]')
		|| root.querySelector('textarea');
	if (!box) return 'no_box';
	box.focus();
	if (box.tagName === 'TEXTAREA') {
		box.value = text;
	} else {
		box.textContent = text;
	}
	box.dispatchEvent(new Event('input', {bubbles: true}));
	box.dispatchEvent(new Event('change', {bubbles: true}));
	return 'ok';
}`

// TabEditor inserts drafts into live pages through the tab registry.
// It satisfies the assist Editor port.
type TabEditor struct {
	Tabs *TabRegistry
}

// Insert writes text into the comment box of the post with activityID.
func (e TabEditor) Insert(ctx context.Context, activityID, text string) error {
	tab, ok := e.Tabs.Find(activityID)
	if !ok {
		return fmt.Errorf("service: no open tab for activity %s", activityID)
	}
	res, err := tab.EvalString(ctx, insertDraftJS, activityID, text)
	if err != nil {
		return fmt.Errorf("service: insert draft: %w", err)
	}
	if res != "ok" {
		return fmt.Errorf("service: insert draft: %s", res)
	}
	return nil
}
