// Package main is the entry point for the gunmerch service. It loads
// configuration, connects to services, wires the design pipeline to its
// scheduler and operator API, and serves HTTP with graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gunmerch/internal/ai"
	"gunmerch/internal/cache"
	"gunmerch/internal/config"
	"gunmerch/internal/database"
	"gunmerch/internal/designer"
	"gunmerch/internal/handlers"
	"gunmerch/internal/imaging"
	"gunmerch/internal/middleware"
	"gunmerch/internal/observability"
	"gunmerch/internal/pipeline"
	"gunmerch/internal/router"
	"gunmerch/internal/scheduler"
	"gunmerch/internal/storage"
	"gunmerch/internal/store"
	"gunmerch/internal/storefront"
	"gunmerch/internal/trends"
)

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: text in development, JSON otherwise.
	var handler slog.Handler
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler).With("service", cfg.ServiceName))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"storefront", cfg.Storefront,
	)

	ctx := context.Background()

	shutdownTracing, err := observability.Init(ctx, observability.Config{
		Enabled:     cfg.OTelEnabled,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Version:     cfg.Version,
		Endpoint:    cfg.OTelEndpoint,
		Insecure:    cfg.OTelInsecure,
		SampleRatio: cfg.OTelSampleRatio,
	})
	if err != nil {
		slog.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed default settings (no-op for keys that already exist).
	if err := database.Seed(ctx, db); err != nil {
		slog.Error("failed to seed database", "error", err)
		os.Exit(1)
	}

	// Connect to Valkey (trend cache + notifications).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	deps := pipeline.Deps{
		Designs:  store.NewDesignStore(db),
		Trends:   store.NewTrendStore(db),
		Cache:    cache.NewTrendCache(valkeyClient, cache.DefaultTrendTTL),
		Assets:   store.NewAssetStore(db),
		Logs:     store.NewLogStore(db),
		Settings: store.NewSettingStore(db),
		Ledger:   store.NewSalesLedger(db),
		Notifier: cache.NewNotifier(valkeyClient),
	}

	// Connect to S3-compatible object storage (optional: image steps are
	// unavailable without it).
	storageClient, err := storage.New(storage.Options{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		PublicURL: cfg.S3PublicURL,
		Private:   cfg.S3Private,
	})
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient != nil {
		deps.Storage = storageClient
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket, "private", cfg.S3Private)
	} else {
		slog.Warn("s3 storage not configured, image steps disabled")
	}

	// LLM and image providers.
	aiRegistry := ai.NewRegistry(cfg.AIProvider, map[string]ai.ProviderConfig{
		"openai":  {APIKey: cfg.OpenAIKey, Model: cfg.OpenAIModel, ModelImage: cfg.OpenAIImageModel, BaseURL: cfg.OpenAIBaseURL, Timeout: cfg.HTTPTimeout},
		"gemini":  {APIKey: cfg.GeminiKey, Model: cfg.GeminiModel, ModelImage: cfg.GeminiImageModel, BaseURL: cfg.GeminiBaseURL, Timeout: cfg.HTTPTimeout},
		"claude":  {APIKey: cfg.ClaudeKey, Model: cfg.ClaudeModel, BaseURL: cfg.ClaudeBaseURL, Timeout: cfg.HTTPTimeout},
		"mistral": {APIKey: cfg.MistralKey, Model: cfg.MistralModel, BaseURL: cfg.MistralBaseURL, Timeout: cfg.HTTPTimeout},
	}, cfg.ImageProviders)
	slog.Info("ai providers initialized",
		"active", aiRegistry.ActiveName(),
		"available", aiRegistry.Available(),
		"images", aiRegistry.SupportsImageGeneration(),
	)
	deps.Images = aiRegistry
	if m := ai.NewRemoveBG(cfg.RemoveBGKey, cfg.RemoveBGBaseURL, ai.ProviderConfig{Timeout: cfg.HTTPTimeout}); m != nil {
		deps.Matter = m
	}

	// Concept generation falls back to the slogan bank without an LLM.
	if aiRegistry.Configured() {
		deps.Concepts = designer.New(aiRegistry)
	} else {
		slog.Warn("no LLM configured, concepts come from the slogan bank")
		deps.Concepts = designer.New(nil)
	}

	// Trend sources.
	var sources []trends.Source
	if len(cfg.RedditSubreddits) > 0 {
		sources = append(sources, trends.NewRedditSource(trends.RedditConfig{
			ClientID:     cfg.RedditClientID,
			ClientSecret: cfg.RedditClientSecret,
			UserAgent:    cfg.RedditUserAgent,
			Subreddits:   cfg.RedditSubreddits,
			Timeout:      cfg.HTTPTimeout,
		}))
	}
	if len(cfg.NewsFeeds) > 0 {
		sources = append(sources, trends.NewNewsSource(cfg.NewsFeeds, cfg.RedditUserAgent, cfg.HTTPTimeout))
	}
	if cfg.TrendsMock {
		sources = append(sources, trends.NewMockSource())
	}
	deps.Scanner = trends.NewScanner(sources...)

	// Storefronts: the configured backend is primary; the other one, when
	// it has credentials, receives products the primary cannot create.
	printful := newPrintful(cfg)
	shopify := newShopify(cfg)
	if cfg.Storefront == storefront.BackendShopify {
		deps.Storefront, deps.Alternate = shopify, printful
	} else {
		deps.Storefront, deps.Alternate = printful, shopify
	}
	if deps.Storefront == nil {
		slog.Warn("storefront credentials missing, publishing disabled", "storefront", cfg.Storefront)
	}

	// Image processing backend.
	imaging.Startup(0)
	defer imaging.Shutdown()

	svc := pipeline.New(deps)

	// Scheduler for the recurring jobs.
	sched, err := scheduler.New(svc, scheduler.Config{
		Scan:        cfg.ScheduleScan,
		Generate:    cfg.ScheduleGenerate,
		Sales:       cfg.ScheduleSales,
		Maintenance: cfg.ScheduleMaintenance,
	})
	if err != nil {
		slog.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}
	sched.Start()

	// Operator API.
	limiter := middleware.NewRateLimiter(5, 20)
	defer limiter.Stop()

	api := handlers.NewAPI(svc, aiRegistry, sched)
	r := router.New(router.Options{
		TokenHash: cfg.OperatorTokenHash,
		Open:      cfg.IsDev(),
		Limiter:   limiter,
	}, api)

	// WriteTimeout must accommodate image generation and publishing, which
	// chain several third-party calls.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests and jobs up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	sched.Stop(shutdownCtx)
	if err := shutdownTracing(shutdownCtx); err != nil {
		slog.Warn("tracing shutdown failed", "error", err)
	}

	slog.Info("server stopped gracefully")
}

// newPrintful returns the Printful backend, or nil without an API key.
func newPrintful(cfg *config.Config) storefront.Storefront {
	if cfg.PrintfulKey == "" {
		return nil
	}
	return storefront.NewPrintful(storefront.PrintfulConfig{
		APIKey:          cfg.PrintfulKey,
		StoreID:         cfg.PrintfulStoreID,
		BaseURL:         cfg.PrintfulBaseURL,
		TemplateProduct: cfg.PrintfulTemplateProduct,
		Timeout:         cfg.HTTPTimeout,
	})
}

// newShopify returns the Shopify backend, or nil without credentials.
func newShopify(cfg *config.Config) storefront.Storefront {
	if cfg.ShopifyStoreURL == "" || cfg.ShopifyToken == "" {
		return nil
	}
	return storefront.NewShopify(storefront.ShopifyConfig{
		StoreURL:       cfg.ShopifyStoreURL,
		AccessToken:    cfg.ShopifyToken,
		APIVersion:     cfg.ShopifyAPIVersion,
		TemplateHandle: cfg.ShopifyTemplateHandle,
		Timeout:        cfg.HTTPTimeout,
	})
}
