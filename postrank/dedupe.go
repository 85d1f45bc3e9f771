package postrank

import (
	"time"

	"github.com/nvello/feedpilot/feedex"
)

// Dedupe collapses repeated captures of the same post. Two captures are
// the same post when any of their identity keys overlap. The richer
// capture wins: higher score first, then the newer publish date. All
// keys of both captures stay registered to the winner, so a chain of
// partially overlapping captures converges on one record.
func Dedupe(posts []*feedex.Post, now time.Time) []*feedex.Post {
	byKey := make(map[string]int)
	var kept []*feedex.Post
	keysOf := make([][]string, 0, len(posts))

	for _, p := range posts {
		if p == nil {
			continue
		}
		keys := Keys(p, now)
		if len(keys) == 0 {
			// Nothing to identify it by; keep as-is.
			kept = append(kept, p)
			keysOf = append(keysOf, nil)
			continue
		}

		slot := -1
		for _, k := range keys {
			if i, ok := byKey[k]; ok {
				slot = i
				break
			}
		}

		if slot < 0 {
			kept = append(kept, p)
			keysOf = append(keysOf, keys)
			slot = len(kept) - 1
		} else {
			if betterCapture(p, kept[slot]) {
				kept[slot] = p
			}
			keysOf[slot] = append(keysOf[slot], keys...)
		}
		for _, k := range keysOf[slot] {
			byKey[k] = slot
		}
	}

	out := make([]*feedex.Post, 0, len(kept))
	out = append(out, kept...)
	return out
}

// betterCapture reports whether a beats b as the representative capture.
func betterCapture(a, b *feedex.Post) bool {
	sa, sb := Score(a), Score(b)
	if sa != sb {
		return sa > sb
	}
	switch {
	case a.PostedAt == nil:
		return false
	case b.PostedAt == nil:
		return true
	default:
		return a.PostedAt.After(*b.PostedAt)
	}
}
