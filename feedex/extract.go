package feedex

import (
	"regexp"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

// articleSelectors locates post containers, most specific shape first.
var articleSelectors = []string{
	"div[data-urn]",
	"article",
	"div[role=article]",
	".feed-shared-update-v2",
	".occludable-update",
	"main section",
}

// authorLinkSelectors locates the author link inside a container.
var authorLinkSelectors = []string{
	".update-components-actor__meta a",
	"a.update-components-actor__meta-link",
	"a.update-components-actor__image",
	"a.app-aware-link",
	"a",
}

// actionLabels marks link texts that are controls, not author names.
var actionLabels = []string{
	"follow", "following", "connect", "message", "subscribe",
	"see more", "show more",
	"отслеживать", "подписаться", "установить контакт", "сообщение",
	"ещё", "еще",
}

// bodySelectors locates the post commentary. All matches are collected
// and the longest text wins: collapsed "see more" variants are always
// shorter than the expanded copy.
var bodySelectors = []string{
	".update-components-text",
	".feed-shared-inline-show-more-text",
	".feed-shared-update-v2__description",
	"div[data-test-id=main-feed-activity-card__commentary]",
	".update-components-update-v2__commentary",
	".attributed-text-segment-list__content",
}

var avatarStrongSelectors = []string{
	"img.update-components-actor__avatar-image",
	".update-components-actor__avatar img",
	"img.presence-entity__image",
	"img.EntityPhoto-circle-3",
}

var timeSelectors = []string{
	"time",
	".update-components-actor__sub-description",
	".update-components-actor__sub-description-link",
	"span.feed-shared-actor__sub-description",
}

var activityIDPattern = regexp.MustCompile(`(?:activity|ugcPost|share)[:\-](\d{10,25})|\b(\d{19})\b`)

// ActivityID digs a numeric activity id out of a URL, urn or free text.
// Empty when none is present.
func ActivityID(s string) string {
	m := activityIDPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}

// Articles returns all candidate post containers in document order,
// deduplicated (shapes overlap: a data-urn div often *is* the article).
func Articles(doc *html.Node) []*html.Node {
	seen := make(map[*html.Node]bool)
	var out []*html.Node
	for _, sel := range articleSelectors {
		for _, n := range queryAll(doc, sel) {
			if seen[n] {
				continue
			}
			// Skip candidates overlapping an accepted container in
			// either direction: shared reposts embed a full inner
			// article, and the broad late selectors can match an
			// element wrapping the whole feed.
			overlaps := false
			for _, accepted := range out {
				if containsNode(accepted, n) || containsNode(n, accepted) {
					overlaps = true
					break
				}
			}
			if overlaps {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// FindArticle picks the container matching a target post URL: the one
// whose links or urn attributes carry the URL's activity id. Falls back
// to the first candidate.
func FindArticle(doc *html.Node, targetURL string) *html.Node {
	candidates := Articles(doc)
	if len(candidates) == 0 {
		return nil
	}

	wantID := ActivityID(targetURL)
	if wantID == "" {
		return candidates[0]
	}

	for _, c := range candidates {
		if containerActivityID(c) == wantID {
			return c
		}
		for _, a := range queryAll(c, "a[href]") {
			if ActivityID(attr(a, "href")) == wantID {
				return c
			}
		}
	}
	return candidates[0]
}

// containerActivityID reads an activity id off the container itself or
// its nearest urn-bearing descendants.
func containerActivityID(container *html.Node) string {
	for _, key := range []string{"data-urn", "data-id", "data-activity-urn"} {
		if id := ActivityID(attr(container, key)); id != "" {
			return id
		}
	}
	for _, n := range queryAll(container, "div[data-urn]") {
		if id := ActivityID(attr(n, "data-urn")); id != "" {
			return id
		}
	}
	for _, a := range queryAll(container, "a[href]") {
		if id := ActivityID(attr(a, "href")); id != "" {
			return id
		}
	}
	return ""
}

func extractAuthor(container *html.Node) (name, profileURL string) {
	for _, sel := range authorLinkSelectors {
		for _, a := range queryAll(container, sel) {
			href := attr(a, "href")
			if !strings.Contains(href, "/in/") {
				continue
			}
			text := nodeText(a)
			if isActionLabel(text) {
				continue
			}
			if text == "" {
				// Image-only link: the alt text carries the name.
				if img := queryFirst(a, "img"); img != nil {
					text = strings.TrimSpace(attr(img, "alt"))
				}
			}
			if text == "" {
				continue
			}
			return cleanAuthorName(text), stripURLNoise(href)
		}
	}
	return "", ""
}

// cleanAuthorName drops honour badges and duplicated screen-reader
// copies ("Jane Doe Jane Doe · 3rd+").
func cleanAuthorName(s string) string {
	if idx := strings.IndexAny(s, "·•"); idx >= 0 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)
	words := strings.Fields(s)
	if len(words) >= 2 && len(words)%2 == 0 {
		half := len(words) / 2
		if strings.Join(words[:half], " ") == strings.Join(words[half:], " ") {
			s = strings.Join(words[:half], " ")
		}
	}
	return s
}

func isActionLabel(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false
	}
	for _, label := range actionLabels {
		if t == label || strings.HasPrefix(t, label+" ") {
			return true
		}
	}
	return false
}

// avatar keyword and size heuristics, applied when no strong selector
// matched.
var (
	avatarPositive = []string{"avatar", "profile", "actor", "headshot", "entity-photo", "presence"}
	avatarNegative = []string{"logo", "company", "organization", "org-", "banner", "cover"}
)

func extractAvatar(container *html.Node) string {
	if img := queryFirst(container, avatarStrongSelectors...); img != nil {
		if src := attr(img, "src"); src != "" {
			return src
		}
	}

	best := ""
	bestScore := 0
	for _, img := range queryAll(container, "img") {
		src := attr(img, "src")
		if src == "" || strings.HasPrefix(src, "data:") {
			continue
		}
		score := scoreAvatar(img)
		if score > bestScore {
			bestScore = score
			best = src
		}
	}
	return best
}

func scoreAvatar(img *html.Node) int {
	hints := strings.ToLower(attr(img, "class") + " " + attr(img, "alt") + " " + attr(img, "src"))
	score := 0
	for _, kw := range avatarPositive {
		if strings.Contains(hints, kw) {
			score += 3
		}
	}
	for _, kw := range avatarNegative {
		if strings.Contains(hints, kw) {
			score -= 3
		}
	}

	if w := sizeAttr(img, "width"); w > 0 {
		switch {
		case w >= 80:
			score += 2
		case w < 40:
			score -= 2
		}
	}
	return score
}

func sizeAttr(n *html.Node, key string) int {
	v := strings.TrimSuffix(attr(n, key), "px")
	size, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0
	}
	return size
}

func extractBody(container *html.Node) string {
	longest := ""
	for _, sel := range bodySelectors {
		for _, n := range queryAll(container, sel) {
			if t := nodeText(n); len(t) > len(longest) {
				longest = t
			}
		}
	}
	return strings.TrimSpace(longest)
}

// extractMarkdown renders the richest body candidate as markdown, the
// form handed to the comment agent. Empty on conversion failure; the
// plain text is always available as fallback.
func extractMarkdown(container *html.Node) string {
	var best *html.Node
	bestLen := 0
	for _, sel := range bodySelectors {
		for _, n := range queryAll(container, sel) {
			if l := len(nodeText(n)); l > bestLen {
				bestLen = l
				best = n
			}
		}
	}
	if best == nil {
		return ""
	}
	md, err := htmltomarkdown.ConvertString(renderHTML(best))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(md)
}

func extractPublishedRaw(container *html.Node) string {
	for _, sel := range timeSelectors {
		for _, n := range queryAll(container, sel) {
			if dt := attr(n, "datetime"); dt != "" {
				return dt
			}
			if t := nodeText(n); t != "" && looksLikeStamp(t) {
				return t
			}
		}
	}
	return ""
}

// looksLikeStamp filters sub-description noise: a publish stamp starts
// with a digit ("3d", "2 недели", "2024-01-05").
func looksLikeStamp(t string) bool {
	t = strings.TrimSpace(t)
	return t != "" && t[0] >= '0' && t[0] <= '9'
}

func extractPostURL(container *html.Node) string {
	for _, a := range queryAll(container, "a[href]") {
		href := attr(a, "href")
		if strings.Contains(href, "/feed/update/") || strings.Contains(href, "/posts/") {
			return stripURLNoise(href)
		}
	}
	if id := containerActivityID(container); id != "" {
		return "https://www.linkedin.com/feed/update/urn:li:activity:" + id + "/"
	}
	return ""
}

// stripURLNoise removes query and fragment from a link.
func stripURLNoise(href string) string {
	if idx := strings.IndexAny(href, "?#"); idx >= 0 {
		href = href[:idx]
	}
	return href
}
