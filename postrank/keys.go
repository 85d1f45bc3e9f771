// Package postrank assigns identity keys to extracted posts, dedupes
// captures of the same post across scroll passes, and ranks the
// survivors by engagement and recency.
package postrank

import (
	"net/url"
	"strings"
	"time"

	"github.com/nvello/feedpilot/feedex"
)

const fingerprintLen = 200

// Keys returns the identity keys for a post, strongest first. A post
// with a stable key (activity id or canonical URL) also registers its
// text fingerprints, so a capture made before the URL became visible
// still collapses into the same record. Weak fingerprint keys carry a
// "legacy:" prefix; cross-day false positives on identical text are an
// accepted trade for not re-surfacing the same post twice.
func Keys(p *feedex.Post, now time.Time) []string {
	var keys []string

	if id := activityID(p); id != "" {
		keys = append(keys, "act:"+id)
	}
	if u := NormalizeURL(p.PostURL); u != "" {
		keys = append(keys, "url:"+u)
	}

	if fp := fingerprint(p.Text); fp != "" {
		day := now.UTC().Format("2006-01-02")
		if p.PostedAt != nil {
			day = p.PostedAt.UTC().Format("2006-01-02")
		}
		keys = append(keys, "legacy:"+day+":"+fp, "legacy:any:"+fp)
	}
	return keys
}

func activityID(p *feedex.Post) string {
	if id := feedex.ActivityID(p.PostURL); id != "" {
		return id
	}
	return feedex.ActivityID(p.Text)
}

// NormalizeURL canonicalizes a post URL for identity comparison:
// lowercased scheme and host, query and fragment dropped, trailing
// slash trimmed. Non-http(s) or unparseable input yields "".
func NormalizeURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ""
	}
	if u.Host == "" {
		return ""
	}
	u.Scheme = scheme
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String()
}

// fingerprint collapses post text into a short comparison key:
// lowercased, whitespace runs folded to single spaces, truncated to the
// first fingerprintLen runes.
func fingerprint(text string) string {
	folded := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	if folded == "" {
		return ""
	}
	runes := []rune(folded)
	if len(runes) > fingerprintLen {
		runes = runes[:fingerprintLen]
	}
	return string(runes)
}
