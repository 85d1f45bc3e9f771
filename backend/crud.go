package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// PersonRecord is a tracked contact in the CRUD backend.
type PersonRecord struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ProfileURL string `json:"profile_url"`
	ProfileKey string `json:"profile_key"`
	AvatarURL  string `json:"avatar_url,omitempty"`
}

// PostRecord is a stored post capture.
type PostRecord struct {
	ID        string     `json:"id,omitempty"`
	PersonID  string     `json:"person_id"`
	URL       string     `json:"url"`
	Text      string     `json:"text"`
	PostedAt  *time.Time `json:"posted_at,omitempty"`
	Reactions *int64     `json:"reactions,omitempty"`
	Comments  *int64     `json:"comments,omitempty"`
	Reposts   *int64     `json:"reposts,omitempty"`
	Views     *int64     `json:"views,omitempty"`
	Archived  bool       `json:"archived,omitempty"`
}

// PostFilter narrows ListPosts.
type PostFilter struct {
	PersonID string
	Since    *time.Time
	Archived bool
}

// CRUDClient talks to the contact CRUD API.
type CRUDClient struct {
	client
}

// NewCRUDClient creates a CRUDClient.
func NewCRUDClient(cfg Config) *CRUDClient {
	cfg.defaults()
	return &CRUDClient{client{cfg: cfg}}
}

// ListPeople returns all tracked contacts.
func (c *CRUDClient) ListPeople(ctx context.Context) ([]PersonRecord, error) {
	var out struct {
		People []PersonRecord `json:"people"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/people", nil, &out); err != nil {
		return nil, err
	}
	return out.People, nil
}

// FindPerson returns the contact with the given profile key, or
// ok=false when nobody matches.
func (c *CRUDClient) FindPerson(ctx context.Context, profileKey string) (PersonRecord, bool, error) {
	people, err := c.ListPeople(ctx)
	if err != nil {
		return PersonRecord{}, false, err
	}
	for _, p := range people {
		if p.ProfileKey == profileKey {
			return p, true, nil
		}
	}
	return PersonRecord{}, false, nil
}

// CreatePerson adds a contact. An already-tracked profile comes back as
// the existing record, not an error.
func (c *CRUDClient) CreatePerson(ctx context.Context, p PersonRecord) (PersonRecord, error) {
	var out PersonRecord
	err := c.doJSON(ctx, http.MethodPost, "/people", p, &out)
	if err == nil {
		return out, nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
		existing, ok, ferr := c.FindPerson(ctx, p.ProfileKey)
		if ferr == nil && ok {
			return existing, nil
		}
	}
	return PersonRecord{}, err
}

// ListPosts returns stored posts matching the filter.
func (c *CRUDClient) ListPosts(ctx context.Context, f PostFilter) ([]PostRecord, error) {
	q := url.Values{}
	if f.PersonID != "" {
		q.Set("person_id", f.PersonID)
	}
	if f.Since != nil {
		q.Set("since", f.Since.UTC().Format(time.RFC3339))
	}
	q.Set("archived", strconv.FormatBool(f.Archived))

	var out struct {
		Posts []PostRecord `json:"posts"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/posts?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Posts, nil
}

// CreatePost stores a post capture. A duplicate (server answers 409)
// reports created=false with no error; the capture simply already
// existed.
func (c *CRUDClient) CreatePost(ctx context.Context, rec PostRecord) (created bool, err error) {
	err = c.doJSON(ctx, http.MethodPost, "/posts", rec, nil)
	if err == nil {
		return true, nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
		return false, nil
	}
	return false, err
}
