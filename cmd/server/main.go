package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"rakhaai/internal/app"
	"rakhaai/internal/config"
	"rakhaai/internal/ratelimit"
	"rakhaai/internal/server"
	"rakhaai/internal/util"
	"rakhaai/pkg/ai"
	"rakhaai/pkg/auth"
	"rakhaai/pkg/storage"
	"rakhaai/pkg/store"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	sessionTTL, err := config.ParseSessionTTL(cfg.SessionTTL)
	if err != nil {
		log.Fatalf("failed to parse session TTL: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	var chatStore store.Store
	if cfg.DatabaseURL != "" {
		gormStore, err := store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			util.Fatal("failed to open database", "err", err)
		}
		chatStore = gormStore
	} else {
		slog.Warn("no databaseURL configured, using in-memory store")
		chatStore = store.NewMemoryStore()
	}

	var revoker store.TokenRevoker
	if cfg.RedisAddr != "" {
		revoker = store.NewRedisTokenRevoker(cfg.RedisAddr, cfg.RedisPassword)
	} else {
		slog.Warn("no redisAddr configured, token revocation is per-instance only")
		revoker = store.NewMemoryTokenRevoker()
	}
	sessions, err := store.NewJWTSessionStore(cfg.SessionSecret, sessionTTL, revoker)
	if err != nil {
		util.Fatal("failed to init sessions", "err", err)
	}

	photos, err := newPhotoStore(cfg)
	if err != nil {
		util.Fatal("failed to init photo storage", "err", err)
	}

	generator, err := newGenerator(cfg)
	if err != nil {
		util.Fatal("failed to init reply generator", "err", err)
	}

	appCore, err := app.New(app.Options{
		Store:        chatStore,
		Sessions:     sessions,
		Photos:       photos,
		Generator:    generator,
		Providers:    oauthProviders(cfg),
		StylePrompt:  cfg.StylePrompt,
		HistoryLimit: cfg.HistoryLimit,
	})
	if err != nil {
		util.Fatal("failed to init app", "err", err)
	}

	var limiter *ratelimit.FixedWindowLimiter
	if cfg.AuthRateLimitPerMinute > 0 {
		limiter, err = ratelimit.NewRedisFixedWindowLimiter(
			cfg.RedisAddr, cfg.RedisPassword, "rakhaai:ratelimit",
			cfg.AuthRateLimitPerMinute, time.Minute,
		)
		if err != nil {
			util.Fatal("failed to init rate limiter", "err", err)
		}
	}

	httpServer := server.New(server.Config{
		App:         appCore,
		AuthLimiter: limiter,
		FrontendURL: cfg.FrontendURL,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
	}
}

func newPhotoStore(cfg config.FileConfig) (storage.PhotoStore, error) {
	switch cfg.PhotoStorage {
	case "minio":
		return storage.NewMinioPhotoStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	case "file":
		return storage.NewFilePhotoStore(cfg.PhotoDir, cfg.PhotoBaseURL)
	default:
		slog.Warn("using in-memory photo storage, uploads do not survive restarts")
		return storage.NewMemoryPhotoStore(), nil
	}
}

func newGenerator(cfg config.FileConfig) (ai.ReplyGenerator, error) {
	if cfg.AIProvider == "openrouter" {
		return ai.NewOpenRouterClient(cfg.OpenRouterAPIKey, cfg.OpenRouterModel, cfg.PublicBaseURL, "Rakha AI")
	}
	return ai.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel)
}

func oauthProviders(cfg config.FileConfig) map[string]*auth.OAuthProvider {
	callback := func(name string) string {
		return cfg.PublicBaseURL + "/api/auth/" + name + "/callback"
	}
	providers := make(map[string]*auth.OAuthProvider)
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		providers["google"] = auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, callback("google"))
	}
	if cfg.GithubClientID != "" && cfg.GithubClientSecret != "" {
		providers["github"] = auth.NewGithubProvider(cfg.GithubClientID, cfg.GithubClientSecret, callback("github"))
	}
	return providers
}
