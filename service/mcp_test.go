package service

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testMCPImpl = &mcp.Implementation{Name: "feedpilot-test", Version: "0.1.0"}

func mcpSession(t *testing.T, f *fixture) *mcp.ClientSession {
	t.Helper()
	srv := mcp.NewServer(testMCPImpl, nil)
	f.svc.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCallTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	if result.IsError {
		var sb strings.Builder
		for _, c := range result.Content {
			if tc, ok := c.(*mcp.TextContent); ok {
				sb.WriteString(tc.Text)
			}
		}
		t.Fatalf("tool %s errored: %s", name, sb.String())
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("tool %s: unexpected content %T", name, result.Content[0])
	}
	return tc.Text
}

func TestMCPCancelScrape(t *testing.T) {
	f := newFixture(t)
	session := mcpSession(t, f)

	out := mcpCallTool(t, session, "feedpilot_cancel_scrape",
		map[string]any{"profile_key": "in/jane-doe"})

	var resp CancelScrapeResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Cancelled {
		t.Error("cancelled = false")
	}
	if len(f.scraper.cancelled) != 1 {
		t.Errorf("scraper saw %v", f.scraper.cancelled)
	}
}

func TestMCPListAuthors(t *testing.T) {
	f := newFixture(t)
	session := mcpSession(t, f)

	out := mcpCallTool(t, session, "feedpilot_list_authors", map[string]any{})

	var resp ListAuthorsResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Authors) != 1 || resp.Authors[0].Key != "warm" {
		t.Errorf("authors = %+v", resp.Authors)
	}
	if resp.Selected != "warm" {
		t.Errorf("selected = %q", resp.Selected)
	}
}

func TestMCPToolErrorIsToolError(t *testing.T) {
	f := newFixture(t)
	session := mcpSession(t, f)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "feedpilot_check_person",
		Arguments: map[string]any{"profile_url": "https://example.com/not-a-profile"},
	})
	if err != nil {
		t.Fatalf("protocol error: %v", err)
	}
	if !result.IsError {
		t.Error("op failure should surface as a tool error")
	}
}

func TestMCPOpLogCarriesTransport(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	f.svc.cfg.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	session := mcpSession(t, f)

	mcpCallTool(t, session, "feedpilot_cancel_scrape", map[string]any{"profile_key": "in/jane-doe"})
	if !strings.Contains(buf.String(), "transport=mcp") {
		t.Errorf("op log lacks the mcp transport:\n%s", buf.String())
	}
}
