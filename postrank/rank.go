package postrank

import (
	"sort"
	"time"

	"github.com/nvello/feedpilot/feedex"
)

// DefaultWindow is the recency window Best prefers.
const DefaultWindow = 90 * 24 * time.Hour

// Best ranks posts for the "top posts" view: only posts published
// within the window count, unless none qualify, in which case every
// post competes. Order is score descending, recency breaking ties.
// The input slice is not modified.
func Best(posts []*feedex.Post, now time.Time, window time.Duration) []*feedex.Post {
	if window <= 0 {
		window = DefaultWindow
	}
	cutoff := now.Add(-window)

	var recent []*feedex.Post
	for _, p := range posts {
		if p.PostedAt != nil && !p.PostedAt.Before(cutoff) {
			recent = append(recent, p)
		}
	}
	pool := recent
	if len(pool) == 0 {
		pool = append([]*feedex.Post(nil), posts...)
	} else {
		pool = append([]*feedex.Post(nil), pool...)
	}

	sort.SliceStable(pool, func(i, j int) bool {
		si, sj := Score(pool[i]), Score(pool[j])
		if si != sj {
			return si > sj
		}
		return newerThan(pool[i], pool[j])
	})
	return pool
}

// Newest orders posts by publish date descending. Undated posts sort
// after every dated one, highest score first among themselves.
func Newest(posts []*feedex.Post) []*feedex.Post {
	out := append([]*feedex.Post(nil), posts...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.PostedAt != nil && b.PostedAt != nil:
			return a.PostedAt.After(*b.PostedAt)
		case a.PostedAt != nil:
			return true
		case b.PostedAt != nil:
			return false
		default:
			return Score(a) > Score(b)
		}
	})
	return out
}

func newerThan(a, b *feedex.Post) bool {
	switch {
	case a.PostedAt == nil:
		return false
	case b.PostedAt == nil:
		return true
	default:
		return a.PostedAt.After(*b.PostedAt)
	}
}
