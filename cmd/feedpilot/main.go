// feedpilot is the local daemon behind the feed-assistant UI: it
// scrapes profile activity through a headless browser, ranks posts,
// talks to the contact/agent backend, and serves the ops over HTTP and
// optionally MCP stdio.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvello/feedpilot/assist"
	"github.com/nvello/feedpilot/backend"
	"github.com/nvello/feedpilot/prefs"
	"github.com/nvello/feedpilot/scrape"
	"github.com/nvello/feedpilot/service"
)

const version = "0.3.0"

func main() {
	configPath := flag.String("config", os.Getenv("FEEDPILOT_CONFIG"), "path to config.yaml")
	flag.Parse()

	cfg, err := service.LoadConfig(*configPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	applyEnv(cfg)

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Browser.
	var blocking []string
	if cfg.Browser.ResourceBlocking {
		blocking = []string{"image", "font", "media"}
	}
	manager := scrape.NewBrowserManager(scrape.BrowserConfig{
		RemoteURL:        cfg.Browser.Remote,
		RecycleInterval:  cfg.Browser.RecycleInterval,
		ResourceBlocking: blocking,
		Logger:           logger,
	})
	if err := manager.Start(ctx); err != nil {
		logger.Error("browser start", "error", err)
		os.Exit(1)
	}
	defer manager.Close()
	opener := scrape.RodOpener{Manager: manager}

	// Scrape orchestrator.
	scraper, err := scrape.NewService(scrape.Config{
		Opener:   opener,
		CacheTTL: cfg.Scrape.CacheTTL,
		Window:   cfg.Scrape.Window,
		PostCap:  cfg.Scrape.PostCap,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("scrape service", "error", err)
		os.Exit(1)
	}

	// Backend clients.
	beCfg := backend.Config{BaseURL: cfg.Backend.URL, Token: cfg.Backend.Token, Logger: logger}
	crud := backend.NewCRUDClient(beCfg)
	agent := backend.NewAgentClient(beCfg)

	// Preferences.
	store, err := prefs.Open(cfg.PrefsPath)
	if err != nil {
		logger.Error("prefs", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Assist.
	tabs := service.NewTabRegistry()
	defer tabs.CloseAll()
	helper, err := assist.New(assist.Config{
		Agent:  agent,
		Editor: service.TabEditor{Tabs: tabs},
		Prefs:  store,
		Logger: logger,
	})
	if err != nil {
		logger.Error("assist", "error", err)
		os.Exit(1)
	}

	// Ops surface.
	svc, err := service.New(service.Config{
		Scraper: scraper,
		CRUD:    crud,
		Assist:  helper,
		Opener:  opener,
		Tabs:    tabs,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("service", "error", err)
		os.Exit(1)
	}

	if cfg.MCPStdio {
		srv := mcp.NewServer(&mcp.Implementation{Name: "feedpilot", Version: version}, nil)
		svc.RegisterMCP(srv)
		go func() {
			if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
				logger.Error("mcp", "error", err)
			}
		}()
	}

	httpSrv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           svc.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", cfg.Listen, "version", version)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("server stopped")
}

func applyEnv(cfg *service.FileConfig) {
	if v := os.Getenv("FEEDPILOT_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("FEEDPILOT_BACKEND_URL"); v != "" {
		cfg.Backend.URL = v
	}
	if v := os.Getenv("FEEDPILOT_BACKEND_TOKEN"); v != "" {
		cfg.Backend.Token = v
	}
	if v := os.Getenv("FEEDPILOT_BROWSER_REMOTE"); v != "" {
		cfg.Browser.Remote = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
