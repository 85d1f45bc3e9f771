package feedex

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// metrics carries engagement counters. Nil means the counter was not
// found on the page, which is different from an explicit zero.
type metrics struct {
	reactions *int64
	comments  *int64
	reposts   *int64
	views     *int64
}

// Selector candidates per counter, checked before falling back to
// pattern matching over the social bar text.
var (
	reactionSelectors = []string{
		".social-details-social-counts__reactions-count",
		"span.social-details-social-counts__social-proof-fallback-number",
		"button[aria-label*=reaction]",
	}
	commentSelectors = []string{
		".social-details-social-counts__comments",
		"button[aria-label*=comment]",
	}
	repostSelectors = []string{
		"button[aria-label*=repost]",
	}
	socialBarSelectors = []string{
		".social-details-social-counts",
		".social-details-social-activity",
		".main-feed-activity-card__social-actions",
	}
)

// Bilingual counter patterns, number first or label first.
var (
	reactionPattern = regexp.MustCompile(`(?i)([\d\s.,\x{00A0}\x{202F}]+[km]?|[\d\s.,\x{00A0}\x{202F}]+(?:тыс|млн)\.?)\s*(?:reactions?|likes?|реакци\w*|отметок|нравится)`)
	commentPattern  = regexp.MustCompile(`(?i)([\d\s.,\x{00A0}\x{202F}]+[km]?|[\d\s.,\x{00A0}\x{202F}]+(?:тыс|млн)\.?)\s*(?:comments?|комментар\w*)`)
	repostPattern   = regexp.MustCompile(`(?i)([\d\s.,\x{00A0}\x{202F}]+[km]?|[\d\s.,\x{00A0}\x{202F}]+(?:тыс|млн)\.?)\s*(?:reposts?|shares?|репост\w*|поделились)`)
	viewsPattern    = regexp.MustCompile(`(?i)([\d\s.,\x{00A0}\x{202F}]+[km]?|[\d\s.,\x{00A0}\x{202F}]+(?:тыс|млн)\.?)\s*(?:views?|impressions?|просмотр\w*)`)
)

func extractMetrics(container *html.Node) metrics {
	var m metrics

	m.reactions = countFromSelectors(container, reactionSelectors)
	m.comments = countFromSelectors(container, commentSelectors)
	m.reposts = countFromSelectors(container, repostSelectors)

	// Fill the gaps from the social bar text, then the whole container.
	text := socialBarText(container)
	if m.reactions == nil {
		m.reactions = countFromPattern(reactionPattern, text)
	}
	if m.comments == nil {
		m.comments = countFromPattern(commentPattern, text)
	}
	if m.reposts == nil {
		m.reposts = countFromPattern(repostPattern, text)
	}
	m.views = countFromPattern(viewsPattern, text)

	// Bare leading number next to the reaction icons, no label.
	if m.reactions == nil {
		if n := queryFirst(container, ".social-details-social-counts__reactions"); n != nil {
			if v, ok := ParseCount(firstNumberToken(nodeText(n))); ok {
				m.reactions = &v
			}
		}
	}
	return m
}

func countFromSelectors(container *html.Node, selectors []string) *int64 {
	for _, sel := range selectors {
		for _, n := range queryAll(container, sel) {
			candidates := []string{nodeText(n), attr(n, "aria-label")}
			for _, c := range candidates {
				if tok := firstNumberToken(c); tok != "" {
					if v, ok := ParseCount(tok); ok {
						return &v
					}
				}
			}
		}
	}
	return nil
}

func countFromPattern(re *regexp.Regexp, text string) *int64 {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	if v, ok := ParseCount(strings.TrimSpace(m[1])); ok {
		return &v
	}
	return nil
}

func socialBarText(container *html.Node) string {
	var parts []string
	for _, sel := range socialBarSelectors {
		for _, n := range queryAll(container, sel) {
			parts = append(parts, nodeText(n))
		}
	}
	if len(parts) == 0 {
		return nodeText(container)
	}
	return strings.Join(parts, " ")
}

// firstNumberToken pulls the leading numeric run (with grouping and a
// possible k/m suffix) out of mixed text like "1.2K reactions".
var numberToken = regexp.MustCompile(`(?i)\d[\d\s.,\x{00A0}\x{202F}]*(?:[km]|тыс\.?|млн\.?)?`)

func firstNumberToken(s string) string {
	return strings.TrimSpace(numberToken.FindString(s))
}
