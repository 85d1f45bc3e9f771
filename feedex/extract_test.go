package feedex

import (
	"testing"
	"time"

	"golang.org/x/net/html"
)

const fixturePage = `<html><body><main>
<div class="feed-shared-update-v2" data-urn="urn:li:activity:7201234567890123456">
  <div class="update-components-actor">
    <a class="update-components-actor__meta-link" href="https://www.linkedin.com/in/jane-doe?miniProfileUrn=abc">
      <span class="update-components-actor__title">Jane Doe</span>
    </a>
    <a href="https://www.linkedin.com/in/jane-doe">Follow</a>
    <div class="update-components-actor__avatar"><img src="https://media.example.com/jane.jpg" width="96" alt="Jane Doe"></div>
    <span class="update-components-actor__sub-description">3d • Edited</span>
  </div>
  <div class="update-components-text">Shipping the new release today. Full changelog in the first comment.</div>
  <div class="social-details-social-counts">
    <span class="social-details-social-counts__reactions-count">1,204</span>
    <span class="social-details-social-counts__comments">87 comments</span>
    <button aria-label="5 reposts">5 reposts</button>
  </div>
  <a href="https://www.linkedin.com/feed/update/urn:li:activity:7201234567890123456/?utm_source=share">3d</a>
</div>
<div class="feed-shared-update-v2" data-urn="urn:li:activity:7209999999999999999">
  <div class="update-components-actor">
    <a class="update-components-actor__meta-link" href="https://www.linkedin.com/in/ivan-petrov">
      <span class="update-components-actor__title">Ivan Petrov</span>
    </a>
    <span class="update-components-actor__sub-description">2 недели назад</span>
  </div>
  <div class="update-components-text">Короткая заметка о найме.</div>
  <div class="social-details-social-activity">3 тыс. реакций · 12 комментариев · 480 просмотров</div>
</div>
</main></body></html>`

func mustParse(t *testing.T, raw string) *html.Node {
	t.Helper()
	doc, err := ParseDocument(raw)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	return doc
}

func TestPostFromArticle(t *testing.T) {
	now := time.Date(2026, time.February, 15, 12, 0, 0, 0, time.UTC)
	doc := mustParse(t, fixturePage)

	articles := Articles(doc)
	if len(articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(articles))
	}

	p := PostFromArticle(articles[0], now)
	if p == nil {
		t.Fatal("got nil post")
	}
	if p.AuthorName != "Jane Doe" {
		t.Errorf("author = %q, want %q", p.AuthorName, "Jane Doe")
	}
	if want := "https://www.linkedin.com/in/jane-doe"; p.AuthorProfileURL != want {
		t.Errorf("profile url = %q, want %q", p.AuthorProfileURL, want)
	}
	if want := "in/jane-doe"; p.AuthorProfileKey != want {
		t.Errorf("profile key = %q, want %q", p.AuthorProfileKey, want)
	}
	if want := "https://media.example.com/jane.jpg"; p.AuthorAvatarURL != want {
		t.Errorf("avatar = %q, want %q", p.AuthorAvatarURL, want)
	}
	if want := "Shipping the new release today. Full changelog in the first comment."; p.Text != want {
		t.Errorf("text = %q, want %q", p.Text, want)
	}
	if want := "https://www.linkedin.com/feed/update/urn:li:activity:7201234567890123456/"; p.PostURL != want {
		t.Errorf("post url = %q, want %q", p.PostURL, want)
	}
	if p.PostedAt == nil || !p.PostedAt.Equal(now.Add(-3*24*time.Hour)) {
		t.Errorf("posted at = %v, want 3 days before now", p.PostedAt)
	}

	checkCount(t, "reactions", p.Reactions, 1204)
	checkCount(t, "comments", p.Comments, 87)
	checkCount(t, "reposts", p.Reposts, 5)
	if p.Views != nil {
		t.Errorf("views = %d, want nil", *p.Views)
	}
}

func TestPostFromArticleRussianLocale(t *testing.T) {
	now := time.Date(2026, time.February, 15, 12, 0, 0, 0, time.UTC)
	doc := mustParse(t, fixturePage)

	articles := Articles(doc)
	p := PostFromArticle(articles[1], now)
	if p == nil {
		t.Fatal("got nil post")
	}
	if p.AuthorName != "Ivan Petrov" {
		t.Errorf("author = %q, want %q", p.AuthorName, "Ivan Petrov")
	}
	if p.PostedAt == nil || !p.PostedAt.Equal(now.Add(-14*24*time.Hour)) {
		t.Errorf("posted at = %v, want 2 weeks before now", p.PostedAt)
	}
	checkCount(t, "reactions", p.Reactions, 3000)
	checkCount(t, "comments", p.Comments, 12)
	checkCount(t, "views", p.Views, 480)
	if p.Reposts != nil {
		t.Errorf("reposts = %d, want nil", *p.Reposts)
	}
}

func checkCount(t *testing.T, name string, got *int64, want int64) {
	t.Helper()
	if got == nil {
		t.Errorf("%s = nil, want %d", name, want)
		return
	}
	if *got != want {
		t.Errorf("%s = %d, want %d", name, *got, want)
	}
}

func TestPostFromArticleEmptyContainer(t *testing.T) {
	doc := mustParse(t, `<html><body><article><div class="ad-banner">Sponsored</div></article></body></html>`)
	articles := Articles(doc)
	if len(articles) != 1 {
		t.Fatalf("got %d articles, want 1", len(articles))
	}
	if p := PostFromArticle(articles[0], time.Now()); p != nil {
		t.Fatalf("got %+v, want nil for container with no body or link", p)
	}
}

func TestFindArticleByActivityID(t *testing.T) {
	doc := mustParse(t, fixturePage)

	target := "https://www.linkedin.com/feed/update/urn:li:activity:7209999999999999999/"
	article := FindArticle(doc, target)
	if article == nil {
		t.Fatal("no article found")
	}
	if got := containerActivityID(article); got != "7209999999999999999" {
		t.Errorf("matched article id = %q, want the target's", got)
	}

	// Unknown id falls back to the first container.
	article = FindArticle(doc, "https://www.linkedin.com/feed/update/urn:li:activity:1111111111/")
	if got := containerActivityID(article); got != "7201234567890123456" {
		t.Errorf("fallback article id = %q, want first container's", got)
	}
}

func TestArticlesRejectsWrappingContainer(t *testing.T) {
	// A broad selector can match a section enclosing every post; that
	// wrapper must not become an article of its own.
	page := `<html><body><main><section class="scaffold-finite-scroll">
<div data-urn="urn:li:activity:7201111111111111111">
  <a class="update-components-actor__meta-link" href="https://www.linkedin.com/in/jane-doe">Jane Doe</a>
  <div class="update-components-text">First post body with enough text.</div>
</div>
<div data-urn="urn:li:activity:7202222222222222222">
  <a class="update-components-actor__meta-link" href="https://www.linkedin.com/in/jane-doe">Jane Doe</a>
  <div class="update-components-text">Second post body with enough text.</div>
</div>
</section></main></body></html>`
	doc := mustParse(t, page)

	articles := Articles(doc)
	if len(articles) != 2 {
		t.Fatalf("got %d articles, want the 2 posts only", len(articles))
	}
	for i, a := range articles {
		if got := containerActivityID(a); got == "" {
			t.Errorf("article %d is not a data-urn container", i)
		}
	}
}

func TestActivityID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"urn:li:activity:7201234567890123456", "7201234567890123456"},
		{"https://www.linkedin.com/feed/update/urn:li:activity:7201234567890123456/", "7201234567890123456"},
		{"urn:li:ugcPost:7155555555555555555", "7155555555555555555"},
		{"ember-7209999999999999999-node", "7209999999999999999"},
		{"https://www.linkedin.com/in/jane-doe", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ActivityID(tt.in); got != tt.want {
			t.Errorf("ActivityID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
