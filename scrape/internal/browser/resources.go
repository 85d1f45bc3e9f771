package browser

import (
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// blockSet holds the resource types a tab refuses to load, keyed by
// the lowercased proto.NetworkResourceType name ("image", "font",
// "media", "stylesheet", ...).
type blockSet map[string]bool

func newBlockSet(types []string) blockSet {
	set := make(blockSet, len(types))
	for _, t := range types {
		set[strings.ToLower(t)] = true
	}
	return set
}

func (s blockSet) blocks(t proto.NetworkResourceType) bool {
	return s[strings.ToLower(string(t))]
}

// applyResourceBlocking fails requests for the configured resource
// types before they hit the network. Scrape tabs need the DOM, not the
// pixels.
func applyResourceBlocking(page *rod.Page, types []string) error {
	set := newBlockSet(types)

	router := page.HijackRequests()
	router.MustAdd("*", func(h *rod.Hijack) {
		if set.blocks(h.Request.Type()) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
	return nil
}
