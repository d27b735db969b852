package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/honeylavenderwrites/retailytic/internal/analytics"
	"github.com/honeylavenderwrites/retailytic/internal/cache"
	"github.com/honeylavenderwrites/retailytic/internal/config"
	"github.com/honeylavenderwrites/retailytic/internal/httpapi"
	"github.com/honeylavenderwrites/retailytic/internal/rules"
	"github.com/honeylavenderwrites/retailytic/internal/service"
	"github.com/honeylavenderwrites/retailytic/internal/store"
	"github.com/honeylavenderwrites/retailytic/internal/store/memory"
	pgstore "github.com/honeylavenderwrites/retailytic/internal/store/postgres"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		logger.Fatal("invalid security configuration", zap.Error(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ruleset := rules.Default()
	if cfg.RulesPath != "" {
		loaded, err := rules.Load(cfg.RulesPath)
		if err != nil {
			logger.Fatal("load rules file", zap.String("path", cfg.RulesPath), zap.Error(err))
		}
		ruleset = loaded
		logger.Info("rules: file", zap.String("path", cfg.RulesPath))
	} else {
		logger.Info("rules: built-in defaults")
	}

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("postgres unavailable and DATABASE_URL is set; refusing to start with in-memory fallback", zap.Error(err))
		}
		repo = pg
		closers = append(closers, pg.Close)
		logger.Info("repository: postgres")
	} else {
		repo = memory.New(logger)
		logger.Info("repository: in-memory")
	}

	bundleCache := cache.BundleCache(cache.NoopBundleCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisBundleCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, using noop cache", zap.Error(err))
		} else {
			bundleCache = redisCache
			closers = append(closers, redisCache.Close)
			logger.Info("cache: redis")
		}
	} else {
		logger.Info("cache: noop")
	}

	seed := time.Now().UnixNano()
	engine := analytics.New(ruleset, analytics.NewRandomStock(seed), analytics.NewRandomCohorts(seed))
	svc := service.New(repo, bundleCache, time.Duration(cfg.BundleCacheTTLSeconds)*time.Second, ruleset, engine, cfg.TopCustomers, logger)
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, repo)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin, logger)

	// Warm the dashboard so the first GET serves sample data instantly.
	if _, err := svc.Bundle(ctx); err != nil {
		logger.Warn("sample preload failed", zap.Error(err))
	}

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("analytics backend listening", zap.String("addr", cfg.Address()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Error("close error", zap.Error(err))
		}
	}

	logger.Info("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	return nil
}
