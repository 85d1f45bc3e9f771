// Package feedex extracts structured post data from rendered
// professional-network activity pages. The markup is outside our control
// and changes between locales and front-end releases, so every field is
// located by an ordered list of independent candidate strategies; the
// first (or highest-scoring) hit wins and a miss is a skip, never an
// error.
package feedex

import (
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Post is one extracted activity post. Counts are nil when the page did
// not show them, "unknown" being distinct from zero. A Post is produced
// fresh on every extraction pass and never mutated in place.
type Post struct {
	AuthorName       string     `json:"author_name"`
	AuthorProfileURL string     `json:"author_profile_url"`
	AuthorProfileKey string     `json:"author_profile_key"`
	AuthorAvatarURL  string     `json:"author_avatar_url"`
	Text             string     `json:"text"`
	Markdown         string     `json:"markdown,omitempty"`
	PostURL          string     `json:"post_url"`
	PublishedRaw     string     `json:"published_at_raw"`
	PostedAt         *time.Time `json:"posted_at_iso"`
	Reactions        *int64     `json:"reactions_count"`
	Comments         *int64     `json:"comments_count"`
	Reposts          *int64     `json:"reposts_count"`
	Views            *int64     `json:"views_count"`
}

// ParseDocument sanitizes raw page HTML and parses it into a DOM tree.
// Sanitizing first strips scripts, event handlers and inline frames while
// keeping the structural attributes the extractors key on.
func ParseDocument(raw string) (*html.Node, error) {
	return html.Parse(strings.NewReader(Sanitize(raw)))
}

// PostFromArticle composes the field extractors into a Post. It returns
// nil when the container yielded neither body text nor a post URL;
// callers treat that as "nothing usable here" and move on.
func PostFromArticle(article *html.Node, now time.Time) *Post {
	if article == nil {
		return nil
	}

	p := &Post{}

	p.AuthorName, p.AuthorProfileURL = extractAuthor(article)
	p.AuthorProfileKey = profileKeyFromURL(p.AuthorProfileURL)
	p.AuthorAvatarURL = extractAvatar(article)
	p.Text = extractBody(article)
	p.Markdown = extractMarkdown(article)
	p.PostURL = extractPostURL(article)
	p.PublishedRaw = extractPublishedRaw(article)

	if p.PublishedRaw != "" {
		if ts, ok := ParsePublishedAt(p.PublishedRaw, now); ok {
			p.PostedAt = &ts
		}
	}

	m := extractMetrics(article)
	p.Reactions = m.reactions
	p.Comments = m.comments
	p.Reposts = m.reposts
	p.Views = m.views

	if p.Text == "" && p.PostURL == "" {
		return nil
	}
	return p
}

// profileKeyFromURL derives the canonical "in/<slug>" key from a profile
// link, or "" when the link is not a member profile.
func profileKeyFromURL(profileURL string) string {
	idx := strings.Index(profileURL, "/in/")
	if idx < 0 {
		return ""
	}
	slug := profileURL[idx+len("/in/"):]
	slug = strings.TrimRight(slug, "/")
	if i := strings.IndexAny(slug, "?#/"); i >= 0 {
		slug = slug[:i]
	}
	if slug == "" {
		return ""
	}
	return "in/" + slug
}
