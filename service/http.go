package service

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nvello/feedpilot/kit"
	"github.com/nvello/feedpilot/shield"
)

// envelope is the wire shape of every op response: the op payload
// fields plus an explicit ok flag, and an error string on failure.
type envelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{OK: true, Data: data})
}

func writeErr(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, envelope{OK: false, Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// handle decodes a JSON body into R, runs the op through the logging
// chain, and writes the envelope. Op failures are 200s with ok=false:
// the transport worked, the op did not.
func handle[R any](s *Service, op func(context.Context, R) (any, error)) http.HandlerFunc {
	ep := kit.Chain(s.logged)(func(ctx context.Context, req any) (any, error) {
		return op(ctx, req.(R))
	})
	return func(w http.ResponseWriter, r *http.Request) {
		var req R
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeErr(w, http.StatusBadRequest, err)
				return
			}
		}
		ctx := r.Context()
		if kit.GetRequestID(ctx) == "" {
			ctx = kit.WithRequestID(ctx, s.cfg.newRequestID())
		}
		resp, err := ep(ctx, req)
		if err != nil {
			writeErr(w, http.StatusOK, err)
			return
		}
		writeOK(w, resp)
	}
}

// Router returns the chi router serving the ops under /api/v1.
func (s *Service) Router() chi.Router {
	r := chi.NewRouter()
	for _, mw := range shield.DefaultStack() {
		r.Use(mw)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/posts/top", handle(s, func(ctx context.Context, req TopPostsRequest) (any, error) {
			return s.TopPosts(ctx, req)
		}))
		r.Post("/scrape/cancel", handle(s, func(ctx context.Context, req CancelScrapeRequest) (any, error) {
			return s.CancelScrape(ctx, req)
		}))
		r.Post("/person/check", handle(s, func(ctx context.Context, req CheckPersonRequest) (any, error) {
			return s.CheckPerson(ctx, req)
		}))
		r.Post("/person/add", handle(s, func(ctx context.Context, req AddPersonRequest) (any, error) {
			return s.AddPerson(ctx, req)
		}))
		r.Post("/comment/generate", handle(s, func(ctx context.Context, req GenerateCommentRequest) (any, error) {
			return s.GenerateComment(ctx, req)
		}))
		r.Post("/comment/variant", handle(s, func(ctx context.Context, req SelectVariantRequest) (any, error) {
			return s.SelectVariant(ctx, req)
		}))
		r.Get("/authors", func(w http.ResponseWriter, r *http.Request) {
			req := ListAuthorsRequest{Refresh: r.URL.Query().Get("refresh") == "true"}
			resp, err := s.ListAuthors(r.Context(), req)
			if err != nil {
				writeErr(w, http.StatusOK, err)
				return
			}
			writeOK(w, resp)
		})
		r.Post("/authors/select", handle(s, func(ctx context.Context, req SelectAuthorRequest) (any, error) {
			return s.SelectAuthor(ctx, req)
		}))
		r.Post("/post/open", handle(s, func(ctx context.Context, req OpenPostRequest) (any, error) {
			return s.OpenPost(ctx, req)
		}))
	})

	return r
}
