// Package scrape orchestrates profile activity scrapes: one ephemeral
// browser tab per profile, single-flight per profile key, TTL-cached
// results, cooperative cancellation.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nvello/feedpilot/feedex"
	"github.com/nvello/feedpilot/idgen"
	"github.com/nvello/feedpilot/profiles"
)

// Result reasons. Empty Reason means a normal scrape.
const (
	ReasonNotProfilePage = "not_profile_page"
	ReasonNoPosts        = "no_posts_in_period"
	ReasonCancelled      = "cancelled"
)

// Result sources.
const (
	SourceLive       = "live"
	SourceCache      = "cache"
	SourceStaleCache = "stale-cache"
)

// Person is the profile owner as far as the scrape could tell.
type Person struct {
	Name       string `json:"name"`
	Key        string `json:"key"`
	ProfileURL string `json:"profile_url"`
	AvatarURL  string `json:"avatar_url,omitempty"`
}

// Result is one scrape outcome. Posts is the deduped capture set,
// BestPosts and NewPosts are its two orderings.
type Result struct {
	Person    Person         `json:"person"`
	Posts     []*feedex.Post `json:"posts"`
	BestPosts []*feedex.Post `json:"best_posts"`
	NewPosts  []*feedex.Post `json:"new_posts"`
	Reason    string         `json:"reason,omitempty"`
	Source    string         `json:"source"`
}

// Tab is the slice of browser tab behaviour a scrape job needs. The
// production implementation wraps a Rod page; tests script it.
type Tab interface {
	HTML(ctx context.Context) (string, error)
	ScrollToBottom(ctx context.Context) error
	ExpandToggles(ctx context.Context) error
	Reload(ctx context.Context) error
	EvalString(ctx context.Context, js string, args ...any) (string, error)
	Close() error
}

// TabOpener opens a fresh tab at a URL.
type TabOpener interface {
	OpenTab(ctx context.Context, url string) (Tab, error)
}

// Config configures the Service.
type Config struct {
	Opener TabOpener

	// Store caches Results per profile key. Default: in-memory store.
	Store Store

	// CacheTTL is how long a cached Result is served without a fresh
	// scrape. Default: 5m.
	CacheTTL time.Duration

	// LoadWait bounds how long an empty feed is polled before giving
	// up. Default: 25s.
	LoadWait time.Duration

	// ScrollPause is the settle time between scroll passes. Default: 1500ms.
	ScrollPause time.Duration

	// PostCap stops collection once this many distinct posts are held.
	// Default: 40.
	PostCap int

	// StallLimit stops collection after this many consecutive scrolls
	// that grew nothing. Default: 3.
	StallLimit int

	// Window is the recency window for the best-posts ordering.
	// Default: postrank.DefaultWindow.
	Window time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Store == nil {
		c.Store = NewMemoryStore()
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.LoadWait <= 0 {
		c.LoadWait = 25 * time.Second
	}
	if c.ScrollPause <= 0 {
		c.ScrollPause = 1500 * time.Millisecond
	}
	if c.PostCap <= 0 {
		c.PostCap = 40
	}
	if c.StallLimit <= 0 {
		c.StallLimit = 3
	}
	if c.Window <= 0 {
		c.Window = 90 * 24 * time.Hour
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

type flight struct {
	done chan struct{}
	res  Result
	err  error
}

// Service runs scrapes. One in-flight job per profile key; concurrent
// requests for the same profile share the job's outcome.
type Service struct {
	cfg Config

	mu      sync.Mutex
	flights map[string]*flight
	cancels map[string]context.CancelFunc
}

// NewService creates a Service.
func NewService(cfg Config) (*Service, error) {
	cfg.defaults()
	if cfg.Opener == nil {
		return nil, errors.New("scrape: Config.Opener is required")
	}
	return &Service{
		cfg:     cfg,
		flights: make(map[string]*flight),
		cancels: make(map[string]context.CancelFunc),
	}, nil
}

// Scrape returns the activity posts for the profile behind rawURL.
// Cache first, then join or start the single in-flight job for the
// profile key. A caller whose ctx ends while the job runs gets the
// stale cache entry when one exists, otherwise a cancelled Result; the
// job itself keeps running for the remaining waiters.
func (s *Service) Scrape(ctx context.Context, rawURL string) (Result, error) {
	desc, ok := profiles.Parse(rawURL)
	if !ok {
		return Result{Reason: ReasonNotProfilePage, Source: SourceLive}, nil
	}

	if r, at, ok := s.cfg.Store.Get(desc.Key); ok && time.Since(at) < s.cfg.CacheTTL {
		r.Source = SourceCache
		return r, nil
	}

	f := s.joinOrStart(ctx, desc)

	select {
	case <-f.done:
		return f.res, f.err
	case <-ctx.Done():
		return s.fallback(desc.Key), nil
	}
}

// Cancel stops the in-flight job for a profile key, if any. Waiters
// receive the stale cache entry or a cancelled Result.
func (s *Service) Cancel(profileKey string) bool {
	s.mu.Lock()
	cancel, ok := s.cancels[profileKey]
	s.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

func (s *Service) joinOrStart(ctx context.Context, desc profiles.Descriptor) *flight {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.flights[desc.Key]; ok {
		return f
	}

	f := &flight{done: make(chan struct{})}
	s.flights[desc.Key] = f

	// The job outlives any individual caller; only Cancel (or process
	// shutdown via the detached parent) stops it.
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancels[desc.Key] = cancel
	jobID := idgen.ScrapeJob()

	go func() {
		defer cancel()
		res, err := s.run(jobCtx, jobID, desc)
		switch {
		case err != nil && errors.Is(err, context.Canceled):
			res, err = s.fallback(desc.Key), nil
		case err != nil:
			// Navigation failure. Serve yesterday's data when we have
			// it; the failure itself is never cached.
			if r, _, ok := s.cfg.Store.Get(desc.Key); ok {
				s.cfg.Logger.Warn("scrape: job failed, serving stale cache",
					"job", jobID, "profile", desc.Key, "error", err)
				r.Source = SourceStaleCache
				res, err = r, nil
			}
		}
		if err == nil && res.Source == SourceLive && res.Reason != ReasonCancelled {
			s.cfg.Store.Put(desc.Key, res)
		}

		s.mu.Lock()
		delete(s.flights, desc.Key)
		delete(s.cancels, desc.Key)
		s.mu.Unlock()

		f.res, f.err = res, err
		close(f.done)
	}()
	return f
}

// fallback is what an interrupted caller gets: yesterday's data over no
// data.
func (s *Service) fallback(profileKey string) Result {
	if r, _, ok := s.cfg.Store.Get(profileKey); ok {
		r.Source = SourceStaleCache
		return r
	}
	return Result{Reason: ReasonCancelled, Source: SourceLive}
}

func (s *Service) errf(format string, args ...any) error {
	return fmt.Errorf("scrape: "+format, args...)
}
