package postrank

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/nvello/feedpilot/feedex"
)

func i64(v int64) *int64 { return &v }

func ts(t time.Time) *time.Time { return &t }

func TestKeysPriorityAndFingerprints(t *testing.T) {
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	p := &feedex.Post{
		PostURL: "https://www.linkedin.com/feed/update/urn:li:activity:7201234567890123456/",
		Text:    "Hello   World, shipping today",
	}
	keys := Keys(p, now)
	if len(keys) != 4 {
		t.Fatalf("got %d keys, want 4: %v", len(keys), keys)
	}
	if keys[0] != "act:7201234567890123456" {
		t.Errorf("strongest key = %q, want activity id key", keys[0])
	}
	if keys[1] != "url:https://www.linkedin.com/feed/update/urn:li:activity:7201234567890123456" {
		t.Errorf("url key = %q", keys[1])
	}
	if keys[2] != "legacy:2026-03-01:hello world, shipping today" {
		t.Errorf("day fingerprint = %q", keys[2])
	}
	if keys[3] != "legacy:any:hello world, shipping today" {
		t.Errorf("day-agnostic fingerprint = %q", keys[3])
	}
}

func TestKeysTextOnly(t *testing.T) {
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	p := &feedex.Post{Text: "No link yet"}
	keys := Keys(p, now)
	if len(keys) != 2 {
		t.Fatalf("got %d keys, want 2: %v", len(keys), keys)
	}
	for _, k := range keys {
		if k[:7] != "legacy:" {
			t.Errorf("text-only key %q lacks legacy prefix", k)
		}
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		raw, want string
	}{
		{"HTTPS://WWW.LinkedIn.com/feed/update/urn:li:activity:720/?utm=x#top", "https://www.linkedin.com/feed/update/urn:li:activity:720"},
		{"https://www.linkedin.com/posts/abc/", "https://www.linkedin.com/posts/abc"},
		{"not a url", ""},
		{"ftp://example.com/x", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.raw); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestScore(t *testing.T) {
	p := &feedex.Post{
		Reactions: i64(10),
		Comments:  i64(4),
		Reposts:   i64(2),
		Views:     i64(1000),
	}
	got, want := Score(p), 46.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Score = %v, want %v", got, want)
	}
	if got := Score(&feedex.Post{}); got != 0 {
		t.Errorf("Score of empty post = %v, want 0", got)
	}
}

func TestDedupeWeakKeyCollapsesIntoStable(t *testing.T) {
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)

	// First capture before the permalink rendered, second with it.
	early := &feedex.Post{Text: "Shipping the new release today", Reactions: i64(3)}
	late := &feedex.Post{
		Text:      "Shipping the new release today",
		PostURL:   "https://www.linkedin.com/feed/update/urn:li:activity:7201234567890123456/",
		Reactions: i64(12),
	}

	got := Dedupe([]*feedex.Post{early, late}, now)
	if len(got) != 1 {
		t.Fatalf("got %d posts, want 1", len(got))
	}
	if got[0] != late {
		t.Error("kept the weaker capture")
	}
}

func TestDedupeKeepsHigherScoreThenNewer(t *testing.T) {
	now := time.Now()
	url := "https://www.linkedin.com/feed/update/urn:li:activity:7201234567890123456/"

	a := &feedex.Post{PostURL: url, Reactions: i64(5)}
	b := &feedex.Post{PostURL: url, Reactions: i64(9)}
	got := Dedupe([]*feedex.Post{a, b}, now)
	if len(got) != 1 || got[0] != b {
		t.Fatalf("higher score should win, got %v", got)
	}

	older := &feedex.Post{PostURL: url, Reactions: i64(5), PostedAt: ts(now.Add(-48 * time.Hour))}
	newer := &feedex.Post{PostURL: url, Reactions: i64(5), PostedAt: ts(now.Add(-24 * time.Hour))}
	got = Dedupe([]*feedex.Post{older, newer}, now)
	if len(got) != 1 || got[0] != newer {
		t.Fatal("equal scores should keep the newer capture")
	}
}

func TestDedupeDistinctPostsSurvive(t *testing.T) {
	now := time.Now()
	var posts []*feedex.Post
	for i := 0; i < 3; i++ {
		posts = append(posts, &feedex.Post{
			PostURL: fmt.Sprintf("https://www.linkedin.com/feed/update/urn:li:activity:720123456789012345%d/", i),
			Text:    fmt.Sprintf("post number %d", i),
		})
	}
	if got := Dedupe(posts, now); len(got) != 3 {
		t.Fatalf("got %d posts, want 3", len(got))
	}
}

func TestBestPrefersWindowThenFallsBack(t *testing.T) {
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	inWindow := &feedex.Post{Text: "recent", PostedAt: ts(now.Add(-10 * 24 * time.Hour)), Reactions: i64(1)}
	outOfWindow := &feedex.Post{Text: "ancient hit", PostedAt: ts(now.Add(-400 * 24 * time.Hour)), Reactions: i64(1000)}

	got := Best([]*feedex.Post{outOfWindow, inWindow}, now, DefaultWindow)
	if len(got) != 1 || got[0] != inWindow {
		t.Fatalf("window should exclude the old post, got %d entries", len(got))
	}

	// Nothing inside the window: everything competes.
	got = Best([]*feedex.Post{outOfWindow}, now, DefaultWindow)
	if len(got) != 1 || got[0] != outOfWindow {
		t.Fatal("empty window should fall back to all posts")
	}
}

func TestBestOrdersByScoreThenRecency(t *testing.T) {
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	low := &feedex.Post{Text: "low", PostedAt: ts(now.Add(-time.Hour)), Reactions: i64(1)}
	high := &feedex.Post{Text: "high", PostedAt: ts(now.Add(-72 * time.Hour)), Reactions: i64(50)}
	tieOld := &feedex.Post{Text: "tie old", PostedAt: ts(now.Add(-48 * time.Hour)), Reactions: i64(10)}
	tieNew := &feedex.Post{Text: "tie new", PostedAt: ts(now.Add(-2 * time.Hour)), Reactions: i64(10)}

	got := Best([]*feedex.Post{low, tieOld, high, tieNew}, now, DefaultWindow)
	wantOrder := []*feedex.Post{high, tieNew, tieOld, low}
	for i, w := range wantOrder {
		if got[i] != w {
			t.Fatalf("position %d = %q, want %q", i, got[i].Text, w.Text)
		}
	}
}

func TestNewestPutsUndatedLast(t *testing.T) {
	now := time.Now()
	dated := &feedex.Post{Text: "dated", PostedAt: ts(now.Add(-time.Hour))}
	older := &feedex.Post{Text: "older", PostedAt: ts(now.Add(-48 * time.Hour))}
	undatedHot := &feedex.Post{Text: "undated hot", Reactions: i64(100)}
	undatedCold := &feedex.Post{Text: "undated cold", Reactions: i64(1)}

	got := Newest([]*feedex.Post{undatedCold, older, undatedHot, dated})
	wantOrder := []*feedex.Post{dated, older, undatedHot, undatedCold}
	for i, w := range wantOrder {
		if got[i] != w {
			t.Fatalf("position %d = %q, want %q", i, got[i].Text, w.Text)
		}
	}
}
