// Package assist keeps track of "the post the user is commenting on"
// inside a page that re-renders underneath it, and drives the
// generate/insert lifecycle for reply drafts.
package assist

import (
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/nvello/feedpilot/feedex"
)

// DefaultSticky is how long a fresh resolution suppresses re-targeting
// from incidental page churn.
const DefaultSticky = 4 * time.Second

// Resolution is one resolved comment target. The nodes belong to the
// snapshot they were resolved against; a newer snapshot invalidates
// them and Heal re-anchors by ActivityID.
type Resolution struct {
	Container  *html.Node
	CommentBox *html.Node
	ActivityID string

	// DocIndex is the container's position among the snapshot's post
	// containers, the proximity signal healing prefers.
	DocIndex int

	ResolvedAt time.Time
}

// Attached reports whether the resolution's container lives in doc.
func (r Resolution) Attached(doc *html.Node) bool {
	return r.Container != nil && feedex.Contains(doc, r.Container)
}

// commentBoxSelectors locate the composer inside a post container,
// most specific first.
var commentBoxSelectors = []string{
	"div.comments-comment-box div[contenteditable=true]",
	"div.ql-editor[contenteditable=true]",
	"div[contenteditable=true][role=textbox]",
	"div[contenteditable=true]",
	"textarea",
}

// Resolve walks up from an interaction node (a clicked comment control,
// a focused composer) to the nearest plausible post container. A prev
// resolution inside its sticky window wins over the walk when it is
// still attached to doc.
func Resolve(doc, start *html.Node, prev Resolution, now time.Time, sticky time.Duration) Resolution {
	if sticky <= 0 {
		sticky = DefaultSticky
	}
	if prev.Attached(doc) && now.Sub(prev.ResolvedAt) < sticky {
		return prev
	}
	if start == nil {
		return Heal(doc, prev, now)
	}

	var best *html.Node
	bestScore := 0
	for n := start; n != nil; n = n.Parent {
		if s := containerScore(n); s > bestScore {
			best, bestScore = n, s
		}
	}
	if best == nil {
		return Heal(doc, prev, now)
	}
	return newResolution(doc, best, now)
}

// Heal re-locates a target whose container is gone from the latest
// snapshot: first any container carrying the cached activity id,
// preferring the one closest to the previous document position, then
// the most plausible visible comment box.
func Heal(doc *html.Node, prev Resolution, now time.Time) Resolution {
	containers := feedex.Articles(doc)

	if prev.ActivityID != "" {
		best := -1
		bestDist := int(^uint(0) >> 1)
		for i, c := range containers {
			if containerID(c) != prev.ActivityID {
				continue
			}
			dist := i - prev.DocIndex
			if dist < 0 {
				dist = -dist
			}
			if dist < bestDist {
				best, bestDist = i, dist
			}
		}
		if best >= 0 {
			r := newResolution(doc, containers[best], now)
			r.DocIndex = best
			return r
		}
	}

	// Last resort: whichever container currently shows a composer.
	for i, c := range containers {
		if box := feedex.QueryFirst(c, commentBoxSelectors...); box != nil {
			r := newResolution(doc, c, now)
			r.DocIndex = i
			return r
		}
	}
	return Resolution{ResolvedAt: now}
}

func newResolution(doc *html.Node, container *html.Node, now time.Time) Resolution {
	r := Resolution{
		Container:  container,
		CommentBox: feedex.QueryFirst(container, commentBoxSelectors...),
		ActivityID: containerID(container),
		ResolvedAt: now,
	}
	for i, c := range feedex.Articles(doc) {
		if c == container {
			r.DocIndex = i
			break
		}
	}
	return r
}

// containerScore rates how much a node looks like a post container.
// Explicit activity markers dominate, structural hints help, tiny
// fragments are noise.
func containerScore(n *html.Node) int {
	if n.Type != html.ElementNode {
		return 0
	}

	score := 0
	for _, key := range []string{"data-urn", "data-id", "data-activity-urn"} {
		if feedex.ActivityID(feedex.Attr(n, key)) != "" {
			score += 100
			break
		}
	}

	class := feedex.Attr(n, "class")
	switch {
	case containsToken(class, "feed-shared-update-v2"), containsToken(class, "occludable-update"):
		score += 40
	case containsToken(class, "feed-shared-update"):
		score += 30
	}
	if n.Data == "article" || feedex.Attr(n, "role") == "article" {
		score += 40
	}

	if score > 0 && len(feedex.Text(n)) < 20 {
		score -= 25
	}
	return score
}

func containerID(c *html.Node) string {
	for _, key := range []string{"data-urn", "data-id", "data-activity-urn"} {
		if id := feedex.ActivityID(feedex.Attr(c, key)); id != "" {
			return id
		}
	}
	for _, a := range feedex.QueryAll(c, "a[href]") {
		if id := feedex.ActivityID(feedex.Attr(a, "href")); id != "" {
			return id
		}
	}
	return ""
}

func containsToken(class, token string) bool {
	for _, t := range strings.Fields(class) {
		if t == token {
			return true
		}
	}
	return false
}
