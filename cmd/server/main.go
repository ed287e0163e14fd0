package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/papersynth/papersynth/internal/application"
	"github.com/papersynth/papersynth/internal/config"
	"github.com/papersynth/papersynth/internal/infrastructure/collab"
	"github.com/papersynth/papersynth/internal/infrastructure/extract"
	"github.com/papersynth/papersynth/internal/infrastructure/gate"
	"github.com/papersynth/papersynth/internal/infrastructure/monitoring"
	"github.com/papersynth/papersynth/internal/infrastructure/ratelimit"
	"github.com/papersynth/papersynth/internal/infrastructure/signing"
	"github.com/papersynth/papersynth/internal/infrastructure/workspace"
	"github.com/papersynth/papersynth/internal/interfaces/http/handlers"
	"github.com/papersynth/papersynth/internal/interfaces/http/router"
	"github.com/papersynth/papersynth/pkg/constants"
	"github.com/papersynth/papersynth/pkg/logger"
)

var version = "dev"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	appLogger, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	ctx := context.Background()

	shutdownTracing, err := monitoring.InitTracing(&cfg.Tracing)
	if err != nil {
		appLogger.Fatal(ctx, "failed to initialize tracing", err)
	}
	defer shutdownTracing(ctx)

	metrics := monitoring.NewMetrics()

	workspaces, err := workspace.NewManager(cfg.Workspace.Root)
	if err != nil {
		appLogger.Fatal(ctx, "failed to prepare workspace root", err)
	}

	sweeper := workspace.NewSweeper(workspaces,
		cfg.Workspace.TTL(), cfg.Workspace.SizeCapBytes(), cfg.Workspace.Interval(),
		appLogger, metrics)
	sweeper.Start()
	defer sweeper.Stop()

	var signer *signing.Signer
	if cfg.Signing.Active() {
		signer, err = signing.NewSigner(cfg.Signing.Key)
		if err != nil {
			appLogger.Fatal(ctx, "failed to create signer", err)
		}
	}

	limiter := newLimiter(cfg, appLogger)

	timeout := cfg.Collab.Timeout()
	summarizer := collab.NewSummarizerClient(cfg.Collab.SummarizerURL, timeout)
	speech := collab.NewSpeechClient(cfg.Collab.SpeechURL, timeout)
	renderer := collab.NewRendererClient(cfg.Collab.RendererURL, timeout)
	visualFactory := func(ctx context.Context) (collab.VisualGenerator, error) {
		client := collab.NewVisualClient(cfg.Collab.VisualURL, timeout)
		if err := client.Ping(ctx); err != nil {
			return nil, err
		}
		return client, nil
	}

	processor := application.NewProcessor(cfg, workspaces,
		extract.NewExtractor(cfg.Upload.MaxPDFPages, cfg.Upload.MaxTextChars),
		summarizer, speech, renderer, visualFactory,
		appLogger, metrics)

	urls := handlers.NewArtifactURLBuilder(signer, cfg.Signing.TTL())
	// Status URLs live shorter: clients poll the endpoint and re-mint.
	statusURLs := handlers.NewArtifactURLBuilder(signer, constants.StatusDownloadTTL)
	pingers := map[string]collab.Pinger{
		"summarizer": summarizer,
		"speech":     speech,
		"renderer":   renderer,
	}

	engine := router.New(cfg, appLogger, metrics, limiter, router.Handlers{
		Health:   handlers.NewHealthHandler(cfg, version, pingers),
		Status:   handlers.NewStatusHandler(workspaces, statusURLs),
		Download: handlers.NewDownloadHandler(workspaces, signer),
		Process:  handlers.NewProcessHandler(processor, gate.New(cfg.Gate.Limit), urls, metrics, cfg.Upload.MaxBytes),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		appLogger.Info(ctx, "server starting", logger.Fields{
			"addr":    srv.Addr,
			"version": version,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal(ctx, "server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(ctx, "graceful shutdown failed", err)
	}
}

// newLimiter picks the rate limiter backend: redis when an address is
// configured, otherwise the in-process pool.
func newLimiter(cfg *config.Config, log logger.Logger) ratelimit.Limiter {
	if cfg.RateLimit.RedisAddr == "" {
		return ratelimit.NewPool(cfg.RateLimit.PerMinute, cfg.RateLimit.IdleTTL())
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RateLimit.RedisAddr,
		Password: cfg.RateLimit.RedisPassword,
		DB:       cfg.RateLimit.RedisDB,
	})
	return ratelimit.NewRedisLimiter(client, cfg.RateLimit.PerMinute, cfg.RateLimit.IdleTTL(), log)
}
