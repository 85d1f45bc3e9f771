package scrape

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/nvello/feedpilot/feedex"
	"github.com/nvello/feedpilot/postrank"
	"github.com/nvello/feedpilot/profiles"
)

// run is one scrape job: open a tab at the recent-activity URL, scroll
// until the post cap, a stall, or the load deadline, then rank what was
// collected. The tab is closed on every exit path. Every log line
// carries the job id.
func (s *Service) run(ctx context.Context, jobID string, desc profiles.Descriptor) (Result, error) {
	log := s.cfg.Logger.With("job", jobID, "profile", desc.Key)
	log.Info("scrape: job started")

	tab, err := s.openWithRetry(ctx, desc.RecentActivityURL)
	if err != nil {
		return Result{}, s.errf("open tab for %s: %w", desc.Key, err)
	}
	defer func() {
		if cerr := tab.Close(); cerr != nil {
			log.Warn("scrape: tab close", "error", cerr)
		}
	}()

	posts, authWalled, err := s.collect(ctx, log, tab, desc)
	if err != nil {
		return Result{}, err
	}

	now := time.Now()
	res := Result{
		Person: personFrom(desc, posts),
		Posts:  posts,
		Source: SourceLive,
	}
	switch {
	case authWalled && len(posts) == 0:
		res.Reason = ReasonNotProfilePage
	case len(posts) == 0:
		res.Reason = ReasonNoPosts
	default:
		res.BestPosts = postrank.Best(posts, now, s.cfg.Window)
		res.NewPosts = postrank.Newest(posts)
	}

	log.Info("scrape: done", "posts", len(res.Posts), "reason", res.Reason)
	return res, nil
}

// collect runs the scroll loop. Each pass expands "see more" toggles,
// captures the DOM, extracts and dedupes posts, then scrolls. It stops
// on the post cap, StallLimit consecutive no-growth passes (once
// something was found), or the load deadline while still empty. An
// empty feed only counts as such when the page demonstrably rendered
// the activity shell; a deadline hit on a blank page is a load failure,
// not a post-less profile.
func (s *Service) collect(ctx context.Context, log *slog.Logger, tab Tab, desc profiles.Descriptor) (posts []*feedex.Post, authWalled bool, err error) {
	deadline := time.Now().Add(s.cfg.LoadWait)
	stall := 0
	loaded := false

	for {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		if err := tab.ExpandToggles(ctx); err != nil {
			log.Debug("scrape: expand toggles", "error", err)
		}

		raw, err := s.captureWithRetry(ctx, tab)
		if err != nil {
			return nil, false, s.errf("capture %s: %w", desc.Key, err)
		}
		if isAuthWall(raw) {
			return posts, true, nil
		}
		if !loaded && feedLoaded(raw) {
			loaded = true
		}

		doc, err := feedex.ParseDocument(raw)
		if err != nil {
			return nil, false, s.errf("parse %s: %w", desc.Key, err)
		}

		now := time.Now()
		batch := posts
		for _, article := range feedex.Articles(doc) {
			if p := feedex.PostFromArticle(article, now); p != nil {
				batch = append(batch, p)
			}
		}
		merged := postrank.Dedupe(batch, now)

		if len(merged) > len(posts) {
			stall = 0
		} else {
			stall++
		}
		posts = merged

		if len(posts) >= s.cfg.PostCap {
			posts = posts[:s.cfg.PostCap]
			return posts, false, nil
		}
		if len(posts) > 0 && stall >= s.cfg.StallLimit {
			return posts, false, nil
		}
		if len(posts) == 0 && time.Now().After(deadline) {
			if !loaded {
				return nil, false, s.errf("load %s: feed never rendered: %w", desc.Key, ErrLoadTimeout)
			}
			return nil, false, nil
		}

		if err := tab.ScrollToBottom(ctx); err != nil {
			log.Debug("scrape: scroll", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-time.After(s.cfg.ScrollPause):
		}
	}
}

// openWithRetry retries transient tab-open failures. A load timeout is
// a navigation failure and fails the job straight away.
func (s *Service) openWithRetry(ctx context.Context, url string) (Tab, error) {
	return retry.DoWithData(
		func() (Tab, error) { return s.cfg.Opener.OpenTab(ctx, url) },
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.MaxJitter(250*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return !errors.Is(err, ErrLoadTimeout) }),
		retry.OnRetry(func(n uint, err error) {
			s.cfg.Logger.Debug("scrape: retrying tab open", "attempt", n+1, "url", url, "error", err)
		}),
	)
}

// captureWithRetry reads the DOM and, when the page's scripting context
// disappeared mid-scrape (navigation, process swap), reloads the tab
// and tries again.
func (s *Service) captureWithRetry(ctx context.Context, tab Tab) (string, error) {
	return retry.DoWithData(
		func() (string, error) { return tab.HTML(ctx) },
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(300*time.Millisecond),
		retry.MaxJitter(150*time.Millisecond),
		retry.RetryIf(isDetachedTabError),
		retry.OnRetry(func(n uint, err error) {
			s.cfg.Logger.Debug("scrape: reloading after capture failure", "attempt", n+1, "error", err)
			if rerr := tab.Reload(ctx); rerr != nil {
				s.cfg.Logger.Debug("scrape: reload failed", "error", rerr)
			}
		}),
	)
}

// isDetachedTabError matches the error shapes a page emits when its
// execution context went away under us.
func isDetachedTabError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range []string{
		"context was destroyed",
		"cannot find context",
		"execution context",
		"target closed",
		"session closed",
		"receiving end does not exist",
	} {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

// feedLoaded reports whether a capture shows the activity page shell,
// as opposed to a blank or still-loading document. A legitimately
// post-less profile still renders the shell.
func feedLoaded(raw string) bool {
	lower := strings.ToLower(raw)
	for _, marker := range []string{
		"feed-shared-update",
		"scaffold-finite-scroll",
		"scaffold-layout",
		"feed-container",
		"pv-recent-activity",
	} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// isAuthWall spots the login interstitial that replaces profile pages
// for signed-out sessions.
func isAuthWall(raw string) bool {
	lower := strings.ToLower(raw)
	return strings.Contains(lower, "authwall") ||
		strings.Contains(lower, "join linkedin") && strings.Contains(lower, "sign in") &&
			!strings.Contains(lower, "feed-shared-update")
}

// personFrom fills the Person from scraped posts where possible; a post
// authored by the profile owner carries the rendered name and avatar.
func personFrom(desc profiles.Descriptor, posts []*feedex.Post) Person {
	person := Person{
		Name:       desc.DisplayName,
		Key:        desc.Key,
		ProfileURL: desc.URL,
	}
	for _, p := range posts {
		if p.AuthorProfileKey != desc.Key {
			continue
		}
		if p.AuthorName != "" {
			person.Name = p.AuthorName
		}
		if p.AuthorAvatarURL != "" {
			person.AvatarURL = p.AuthorAvatarURL
		}
		break
	}
	return person
}
