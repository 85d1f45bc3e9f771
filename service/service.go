// Package service is the ops surface: the message-style request/response
// pairs the UI layer speaks, exposed over chi HTTP routes and as MCP
// tools. Every op returns an envelope with an explicit ok flag and an
// error string on failure.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nvello/feedpilot/assist"
	"github.com/nvello/feedpilot/backend"
	"github.com/nvello/feedpilot/feedex"
	"github.com/nvello/feedpilot/idgen"
	"github.com/nvello/feedpilot/kit"
	"github.com/nvello/feedpilot/profiles"
	"github.com/nvello/feedpilot/scrape"
)

// Scraper is the slice of the scrape orchestrator the ops use.
type Scraper interface {
	Scrape(ctx context.Context, rawURL string) (scrape.Result, error)
	Cancel(profileKey string) bool
}

// CRUD is the slice of the contact API the ops use.
type CRUD interface {
	FindPerson(ctx context.Context, profileKey string) (backend.PersonRecord, bool, error)
	CreatePerson(ctx context.Context, p backend.PersonRecord) (backend.PersonRecord, error)
	CreatePost(ctx context.Context, rec backend.PostRecord) (bool, error)
}

// Config wires a Service.
type Config struct {
	Scraper Scraper
	CRUD    CRUD
	Assist  *assist.Assist
	Opener  scrape.TabOpener // for post.open; nil disables the op
	Tabs    *TabRegistry
	Logger  *slog.Logger

	newRequestID idgen.Generator // test hook
}

func (c *Config) defaults() {
	if c.Tabs == nil {
		c.Tabs = NewTabRegistry()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.newRequestID == nil {
		c.newRequestID = idgen.Request
	}
}

// Service implements the ops.
type Service struct {
	cfg Config
}

// New creates a Service.
func New(cfg Config) (*Service, error) {
	cfg.defaults()
	if cfg.Scraper == nil {
		return nil, errors.New("service: Config.Scraper is required")
	}
	if cfg.CRUD == nil {
		return nil, errors.New("service: Config.CRUD is required")
	}
	if cfg.Assist == nil {
		return nil, errors.New("service: Config.Assist is required")
	}
	return &Service{cfg: cfg}, nil
}

// Tabs returns the registry of long-lived tabs opened by post.open.
func (s *Service) Tabs() *TabRegistry { return s.cfg.Tabs }

// logged is the op middleware both transports run through: one line
// per op with the transport it arrived over, its request id, and how
// long it took.
func (s *Service) logged(next kit.Endpoint) kit.Endpoint {
	return func(ctx context.Context, req any) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		log := s.cfg.Logger.With(
			"transport", kit.GetTransport(ctx),
			"request_id", kit.GetRequestID(ctx),
			"duration", time.Since(start).Round(time.Millisecond),
		)
		if err != nil {
			log.Warn("service: op failed", "error", err)
		} else {
			log.Debug("service: op done")
		}
		return resp, err
	}
}

// --- posts.top ---

type TopPostsRequest struct {
	ProfileURL string `json:"profile_url"`
}

type TopPostsResponse struct {
	Person    scrape.Person  `json:"person"`
	Posts     []*feedex.Post `json:"posts"`
	BestPosts []*feedex.Post `json:"best_posts"`
	NewPosts  []*feedex.Post `json:"new_posts"`
	Reason    string         `json:"reason,omitempty"`
	Source    string         `json:"source"`
}

// TopPosts scrapes (or serves from cache) the profile's activity feed.
func (s *Service) TopPosts(ctx context.Context, req TopPostsRequest) (TopPostsResponse, error) {
	res, err := s.cfg.Scraper.Scrape(ctx, req.ProfileURL)
	if err != nil {
		return TopPostsResponse{}, fmt.Errorf("service: top posts: %w", err)
	}
	return TopPostsResponse{
		Person:    res.Person,
		Posts:     res.Posts,
		BestPosts: res.BestPosts,
		NewPosts:  res.NewPosts,
		Reason:    res.Reason,
		Source:    res.Source,
	}, nil
}

// --- scrape.cancel ---

type CancelScrapeRequest struct {
	ProfileKey string `json:"profile_key"`
}

type CancelScrapeResponse struct {
	Cancelled bool `json:"cancelled"`
}

// CancelScrape requests cooperative cancellation of the in-flight job
// for a profile. Cancelled is false when no job was running.
func (s *Service) CancelScrape(ctx context.Context, req CancelScrapeRequest) (CancelScrapeResponse, error) {
	return CancelScrapeResponse{Cancelled: s.cfg.Scraper.Cancel(req.ProfileKey)}, nil
}

// --- person.check ---

type CheckPersonRequest struct {
	ProfileURL string `json:"profile_url"`
}

type CheckPersonResponse struct {
	Exists bool                  `json:"exists"`
	Person *backend.PersonRecord `json:"person,omitempty"`
}

// CheckPerson reports whether the profile is already tracked.
func (s *Service) CheckPerson(ctx context.Context, req CheckPersonRequest) (CheckPersonResponse, error) {
	desc, ok := profiles.Parse(req.ProfileURL)
	if !ok {
		return CheckPersonResponse{}, fmt.Errorf("service: not a profile URL: %s", req.ProfileURL)
	}
	rec, found, err := s.cfg.CRUD.FindPerson(ctx, desc.Key)
	if err != nil {
		return CheckPersonResponse{}, fmt.Errorf("service: check person: %w", err)
	}
	if !found {
		return CheckPersonResponse{}, nil
	}
	return CheckPersonResponse{Exists: true, Person: &rec}, nil
}

// --- person.add ---

type AddPersonRequest struct {
	ProfileURL string `json:"profile_url"`
}

type AddPersonResponse struct {
	Person       backend.PersonRecord `json:"person"`
	PostsCreated int                  `json:"posts_created"`
	PostsSkipped int                  `json:"posts_skipped"`
}

// AddPerson scrapes the profile, creates (or finds) the person record,
// and stores the captured posts. Duplicate posts count as skipped, not
// failures.
func (s *Service) AddPerson(ctx context.Context, req AddPersonRequest) (AddPersonResponse, error) {
	res, err := s.cfg.Scraper.Scrape(ctx, req.ProfileURL)
	if err != nil {
		return AddPersonResponse{}, fmt.Errorf("service: add person: scrape: %w", err)
	}
	if res.Reason == scrape.ReasonNotProfilePage {
		return AddPersonResponse{}, fmt.Errorf("service: add person: %s is not a profile page", req.ProfileURL)
	}

	person, err := s.cfg.CRUD.CreatePerson(ctx, backend.PersonRecord{
		Name:       res.Person.Name,
		ProfileURL: res.Person.ProfileURL,
		ProfileKey: res.Person.Key,
		AvatarURL:  res.Person.AvatarURL,
	})
	if err != nil {
		return AddPersonResponse{}, fmt.Errorf("service: add person: %w", err)
	}

	out := AddPersonResponse{Person: person}
	for _, p := range res.Posts {
		if p.PostURL == "" && p.Text == "" {
			continue
		}
		created, err := s.cfg.CRUD.CreatePost(ctx, backend.PostRecord{
			PersonID:  person.ID,
			URL:       p.PostURL,
			Text:      p.Text,
			PostedAt:  p.PostedAt,
			Reactions: p.Reactions,
			Comments:  p.Comments,
			Reposts:   p.Reposts,
			Views:     p.Views,
		})
		if err != nil {
			s.cfg.Logger.Warn("service: store post", "url", p.PostURL, "error", err)
			continue
		}
		if created {
			out.PostsCreated++
		} else {
			out.PostsSkipped++
		}
	}
	return out, nil
}

// --- comment.generate ---

type GenerateCommentRequest struct {
	ActivityID string `json:"activity_id"`
	HTML       string `json:"html"` // page snapshot the UI captured
}

type GenerateCommentResponse struct {
	RequestID string           `json:"request_id"`
	Variants  backend.Variants `json:"variants"`
	Active    string           `json:"active"`
	Status    assist.Status    `json:"status"`
}

// GenerateComment targets the post carrying ActivityID inside the
// snapshot and runs one generation, inserting the default variant.
func (s *Service) GenerateComment(ctx context.Context, req GenerateCommentRequest) (GenerateCommentResponse, error) {
	doc, err := feedex.ParseDocument(req.HTML)
	if err != nil {
		return GenerateCommentResponse{}, fmt.Errorf("service: generate: parse snapshot: %w", err)
	}
	article := feedex.FindArticle(doc, activityURL(req.ActivityID))
	if article == nil {
		return GenerateCommentResponse{}, fmt.Errorf("service: generate: no post container for activity %s", req.ActivityID)
	}

	a := s.cfg.Assist
	a.Attach(doc, article)

	reqID := s.cfg.newRequestID()
	start := time.Now()
	err = a.Generate(ctx)
	variants, active := a.Variants()
	resp := GenerateCommentResponse{
		RequestID: reqID,
		Variants:  variants,
		Active:    active,
		Status:    a.Status(),
	}
	if err != nil {
		s.cfg.Logger.Warn("service: generate", "request_id", reqID,
			"elapsed", time.Since(start), "error", err)
		return resp, err
	}
	s.cfg.Logger.Info("service: generate", "request_id", reqID,
		"elapsed", time.Since(start), "active", active)
	return resp, nil
}

// --- comment.variant ---

type SelectVariantRequest struct {
	Variant string `json:"variant"` // short | medium | long
}

type SelectVariantResponse struct {
	Active string        `json:"active"`
	Status assist.Status `json:"status"`
}

// SelectVariant switches the inserted draft to another stored variant
// without re-generating.
func (s *Service) SelectVariant(ctx context.Context, req SelectVariantRequest) (SelectVariantResponse, error) {
	if err := s.cfg.Assist.SelectVariant(ctx, req.Variant); err != nil {
		return SelectVariantResponse{}, err
	}
	_, active := s.cfg.Assist.Variants()
	return SelectVariantResponse{Active: active, Status: s.cfg.Assist.Status()}, nil
}

// --- authors.list / authors.select ---

type ListAuthorsRequest struct {
	Refresh bool `json:"refresh"`
}

type ListAuthorsResponse struct {
	Authors  []backend.Persona `json:"authors"`
	Selected string            `json:"selected"`
}

// ListAuthors returns the available author personas, from the TTL cache
// unless Refresh forces a reload.
func (s *Service) ListAuthors(ctx context.Context, req ListAuthorsRequest) (ListAuthorsResponse, error) {
	authors, err := s.cfg.Assist.Personas(ctx, req.Refresh)
	if err != nil {
		return ListAuthorsResponse{}, err
	}
	return ListAuthorsResponse{Authors: authors, Selected: s.cfg.Assist.SelectedPersona()}, nil
}

type SelectAuthorRequest struct {
	Key string `json:"key"`
}

type SelectAuthorResponse struct {
	Selected string `json:"selected"`
}

// SelectAuthor records the persona used for subsequent generations.
func (s *Service) SelectAuthor(ctx context.Context, req SelectAuthorRequest) (SelectAuthorResponse, error) {
	if req.Key == "" {
		return SelectAuthorResponse{}, errors.New("service: author key is required")
	}
	s.cfg.Assist.SelectPersona(req.Key)
	return SelectAuthorResponse{Selected: req.Key}, nil
}

// --- post.open ---

type OpenPostRequest struct {
	URL string `json:"url"`
}

type OpenPostResponse struct {
	Opened bool `json:"opened"`
}

// OpenPost opens a long-lived tab at the post URL and keeps it in the
// registry so draft insertion can reach it. Unlike scrape tabs it is
// not closed when the op returns.
func (s *Service) OpenPost(ctx context.Context, req OpenPostRequest) (OpenPostResponse, error) {
	if s.cfg.Opener == nil {
		return OpenPostResponse{}, errors.New("service: no browser configured")
	}
	if req.URL == "" {
		return OpenPostResponse{}, errors.New("service: post URL is required")
	}
	tab, err := s.cfg.Opener.OpenTab(ctx, req.URL)
	if err != nil {
		return OpenPostResponse{}, fmt.Errorf("service: open post: %w", err)
	}
	s.cfg.Tabs.Register(req.URL, tab)
	return OpenPostResponse{Opened: true}, nil
}

func activityURL(id string) string {
	return "https://www.linkedin.com/feed/update/urn:li:activity:" + id + "/"
}
