// Package profiles derives canonical profile descriptors from member
// profile URLs.
package profiles

import (
	"net/url"
	"strings"
)

// Descriptor identifies one member profile. Key is the stable form used
// for caching and single-flight grouping; DisplayName is a best-effort
// prettification of the slug, good enough for log lines and placeholders
// until a scrape supplies the real name.
type Descriptor struct {
	Slug              string
	Key               string
	URL               string
	RecentActivityURL string
	DisplayName       string
}

// Parse extracts a Descriptor from a profile URL. The second return is
// false when the URL is not a member profile page; that is a normal
// outcome for feed and company pages, not an error.
func Parse(raw string) (Descriptor, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Descriptor{}, false
	}

	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	slug := ""
	for i, seg := range segs {
		if seg == "in" && i+1 < len(segs) && segs[i+1] != "" {
			slug = segs[i+1]
			break
		}
	}
	if slug == "" {
		return Descriptor{}, false
	}
	slug = strings.ToLower(slug)

	host := u.Host
	if host == "" {
		host = "www.linkedin.com"
	}
	base := "https://" + host + "/in/" + slug + "/"

	return Descriptor{
		Slug:              slug,
		Key:               "in/" + slug,
		URL:               base,
		RecentActivityURL: base + "recent-activity/all/",
		DisplayName:       displayName(slug),
	}, true
}

// displayName turns "jane-doe-123" into "Jane Doe". Trailing numeric
// disambiguators are dropped.
func displayName(slug string) string {
	parts := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_' || r == '.'
	})
	var words []string
	for _, p := range parts {
		if isDigits(p) {
			continue
		}
		words = append(words, capitalize(p))
	}
	return strings.Join(words, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
