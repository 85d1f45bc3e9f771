package service

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvello/feedpilot/kit"
)

// RegisterMCP registers every op as an MCP tool.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	registerTool(srv, s, &mcp.Tool{
		Name:        "feedpilot_top_posts",
		Description: "Scrape a profile's activity feed and return its posts ranked best-first and newest-first.",
		InputSchema: inputSchema(map[string]any{
			"profile_url": map[string]any{"type": "string", "description": "Profile URL (…/in/<slug>/)"},
		}, []string{"profile_url"}),
	}, func(ctx context.Context, req TopPostsRequest) (any, error) {
		return s.TopPosts(ctx, req)
	})

	registerTool(srv, s, &mcp.Tool{
		Name:        "feedpilot_cancel_scrape",
		Description: "Cancel the in-flight scrape for a profile key.",
		InputSchema: inputSchema(map[string]any{
			"profile_key": map[string]any{"type": "string", "description": "Profile key (in/<slug>)"},
		}, []string{"profile_key"}),
	}, func(ctx context.Context, req CancelScrapeRequest) (any, error) {
		return s.CancelScrape(ctx, req)
	})

	registerTool(srv, s, &mcp.Tool{
		Name:        "feedpilot_check_person",
		Description: "Check whether a profile is already tracked in the contact store.",
		InputSchema: inputSchema(map[string]any{
			"profile_url": map[string]any{"type": "string"},
		}, []string{"profile_url"}),
	}, func(ctx context.Context, req CheckPersonRequest) (any, error) {
		return s.CheckPerson(ctx, req)
	})

	registerTool(srv, s, &mcp.Tool{
		Name:        "feedpilot_add_person",
		Description: "Scrape a profile, create the person record, and store the captured posts.",
		InputSchema: inputSchema(map[string]any{
			"profile_url": map[string]any{"type": "string"},
		}, []string{"profile_url"}),
	}, func(ctx context.Context, req AddPersonRequest) (any, error) {
		return s.AddPerson(ctx, req)
	})

	registerTool(srv, s, &mcp.Tool{
		Name:        "feedpilot_generate_comment",
		Description: "Generate reply variants for the post with the given activity id inside a page snapshot and insert the default one.",
		InputSchema: inputSchema(map[string]any{
			"activity_id": map[string]any{"type": "string"},
			"html":        map[string]any{"type": "string", "description": "Captured page HTML"},
		}, []string{"activity_id", "html"}),
	}, func(ctx context.Context, req GenerateCommentRequest) (any, error) {
		return s.GenerateComment(ctx, req)
	})

	registerTool(srv, s, &mcp.Tool{
		Name:        "feedpilot_select_variant",
		Description: "Switch the inserted draft to another generated variant (short, medium, long).",
		InputSchema: inputSchema(map[string]any{
			"variant": map[string]any{"type": "string", "enum": []any{"short", "medium", "long"}},
		}, []string{"variant"}),
	}, func(ctx context.Context, req SelectVariantRequest) (any, error) {
		return s.SelectVariant(ctx, req)
	})

	registerTool(srv, s, &mcp.Tool{
		Name:        "feedpilot_list_authors",
		Description: "List the available author personas and the selected one.",
		InputSchema: inputSchema(map[string]any{
			"refresh": map[string]any{"type": "boolean", "description": "Bypass the persona cache"},
		}, nil),
	}, func(ctx context.Context, req ListAuthorsRequest) (any, error) {
		return s.ListAuthors(ctx, req)
	})

	registerTool(srv, s, &mcp.Tool{
		Name:        "feedpilot_select_author",
		Description: "Select the author persona used for subsequent generations.",
		InputSchema: inputSchema(map[string]any{
			"key": map[string]any{"type": "string"},
		}, []string{"key"}),
	}, func(ctx context.Context, req SelectAuthorRequest) (any, error) {
		return s.SelectAuthor(ctx, req)
	})

	registerTool(srv, s, &mcp.Tool{
		Name:        "feedpilot_open_post",
		Description: "Open a long-lived browser tab at a post URL so drafts can be inserted into it.",
		InputSchema: inputSchema(map[string]any{
			"url": map[string]any{"type": "string"},
		}, []string{"url"}),
	}, func(ctx context.Context, req OpenPostRequest) (any, error) {
		return s.OpenPost(ctx, req)
	})
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func registerTool[R any](srv *mcp.Server, s *Service, tool *mcp.Tool, op func(context.Context, R) (any, error)) {
	requestID := func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			return next(kit.WithRequestID(ctx, s.cfg.newRequestID()), req)
		}
	}
	endpoint := kit.Chain(requestID, s.logged)(func(ctx context.Context, req any) (any, error) {
		return op(ctx, *req.(*R))
	})
	decode := func(req *mcp.CallToolRequest) (any, error) {
		var r R
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
				return nil, err
			}
		}
		return &r, nil
	}
	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
