// ABOUTME: Main entry point for the Yana aggregation server
// ABOUTME: Wires storage, cache, browser, pipeline, scheduler and the HTTP API

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yana/api"
	"yana/core/aggregator"
	"yana/core/auth"
	"yana/core/content"
	"yana/core/domain"
	"yana/core/enrich"
	"yana/core/fetch"
	"yana/core/images"
	"yana/core/interfaces"
	"yana/core/scheduler"
	"yana/core/stream"
	"yana/infrastructure/browser/chromedp"
	"yana/infrastructure/cache/memory"
	"yana/infrastructure/cache/redis"
	cachesqlite "yana/infrastructure/cache/sqlite"
	stdhttp "yana/infrastructure/http/standard"
	"yana/infrastructure/icons"
	logruslogger "yana/infrastructure/logger/logrus"
	"yana/infrastructure/storage/sqlite"
	"yana/pkg/config"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logruslogger.NewLogger(cfg.LogLevel)
	logger.Info("starting yana", map[string]interface{}{
		"port":          cfg.Server.Port,
		"cache_type":    cfg.Cache.Type,
		"refresh_timer": cfg.Server.RefreshTimer,
	})

	cache := buildCache(cfg, logger)

	store, err := sqlite.NewStore(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	var browser interfaces.Browser
	if cfg.Browser.Enabled {
		client, err := chromedp.NewClient(chromedp.Config{
			PoolSize: cfg.Browser.PoolSize,
			ExecPath: cfg.Browser.ExecPath,
			Headless: true,
		}, logger)
		if err != nil {
			logger.Warn("browser backend unavailable, browser feeds disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			browser = client
			defer client.Close()
		}
	}

	deps := interfaces.Dependencies{
		Cache:      cache,
		HTTPClient: stdhttp.NewStandardHTTPClient(30 * time.Second),
		Browser:    browser,
		Logger:     logger,
	}

	// Aggregation pipeline
	fetcher := fetch.NewFetcher(deps)
	extractor := images.NewExtractor(fetcher, logger)
	processor := content.NewProcessor(extractor, logger)
	pipeline := enrich.NewPipeline(fetcher, processor, cache, logger)
	registry := aggregator.NewRegistry(fetcher, extractor, logger)

	iconCache, err := icons.NewCache(cfg.Icons.Dir,
		time.Duration(cfg.Icons.TTLDays)*24*time.Hour, logger)
	if err != nil {
		log.Fatalf("Failed to create icon cache: %v", err)
	}
	iconService := aggregator.NewIconService(fetcher, iconCache, logger)

	runner := aggregator.NewRunner(registry, pipeline, store, store, iconService, logger)

	// Read API services
	authSvc := auth.NewService(store, store, logger)
	streamSvc := stream.NewService(store, store, store, logger)

	bootstrapAdmin(store, logger)

	// Background refresh loop
	sched := scheduler.New(runner, store, store, iconCache, logger)
	if err := sched.Start(cfg.Server.RefreshTimer); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	srv := api.NewServer(cfg.Server.Port, authSvc, streamSvc, store, store, logger)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", map[string]interface{}{
				"error": err.Error(),
			})
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	}

	logger.Info("stopped", nil)
}

// buildCache selects the cache backend, falling back to memory when the
// configured backend cannot start.
func buildCache(cfg *config.Config, logger interfaces.Logger) interfaces.Cache {
	switch cfg.Cache.Type {
	case "redis":
		redisCache, err := redis.NewRedisCache(cfg.Cache.Redis)
		if err != nil {
			logger.Error("failed to create redis cache, falling back to memory", map[string]interface{}{
				"error": err.Error(),
			})
			break
		}
		logger.Info("using redis cache", map[string]interface{}{
			"address": cfg.Cache.Redis.Address,
		})
		return redisCache

	case "sqlite":
		sqliteCache, err := cachesqlite.NewSQLiteCache(cfg.Cache.SQLite.Path)
		if err != nil {
			logger.Error("failed to create sqlite cache, falling back to memory", map[string]interface{}{
				"error": err.Error(),
			})
			break
		}
		logger.Info("using sqlite cache", map[string]interface{}{
			"path": cfg.Cache.SQLite.Path,
		})
		return sqliteCache
	}

	logger.Info("using memory cache", nil)
	return memory.NewMemoryCache(
		time.Duration(cfg.Cache.Memory.DefaultExpiration) * time.Second)
}

// bootstrapAdmin creates the initial account from ADMIN_USER / ADMIN_PASSWORD
// when the user does not exist yet. Without it the instance has no login.
func bootstrapAdmin(store *sqlite.Store, logger interfaces.Logger) {
	name := os.Getenv("ADMIN_USER")
	password := os.Getenv("ADMIN_PASSWORD")
	if name == "" || password == "" {
		return
	}

	ctx := context.Background()
	existing, err := store.GetUserByName(ctx, name)
	if err != nil {
		logger.Error("admin bootstrap lookup failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if existing != nil {
		return
	}

	user := &domain.User{
		Name:     name,
		Email:    os.Getenv("ADMIN_EMAIL"),
		Password: auth.HashPassword(password),
	}
	if err := store.CreateUser(ctx, user); err != nil {
		logger.Error("admin bootstrap failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	logger.Info("admin user created", map[string]interface{}{
		"name": name,
	})
}
