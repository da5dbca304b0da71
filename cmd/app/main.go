// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voice-analytics/internal/config"
	"voice-analytics/internal/domain/ports/repository"
	"voice-analytics/internal/infra/adapters/ai"
	"voice-analytics/internal/infra/adapters/deepgram"
	pg "voice-analytics/internal/infra/db/postgres"
	"voice-analytics/internal/infra/logging"
	"voice-analytics/internal/infra/metrics"
	red "voice-analytics/internal/infra/redis"
	"voice-analytics/internal/infra/sched"
	"voice-analytics/internal/infra/security"
	"voice-analytics/internal/infra/web"
	"voice-analytics/internal/infra/worker"
	"voice-analytics/internal/usecase"
)

// set with -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted PII)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 15*time.Second)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()

	// ---- Audio stash (optionally sealed) ----
	var sealer red.Sealer
	if key := cfg.Security.EncryptionKey; key != "" {
		encSvc, err := security.NewEncryptionService(key)
		if err != nil {
			logger.Fatal().Err(err).Msg("encryption")
		}
		sealer = encSvc
	} else {
		logger.Warn().Msg("security.encryption_key not set; stashed audio is stored in plaintext")
	}
	stash := red.NewAudioStash(redisClient, cfg.Redis.TTL, sealer)

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	var userRepo repository.UserRepository = pg.NewPostgresUserRepo(pool)
	if cfg.Redis.UserCacheTTL > 0 {
		userRepo = pg.NewUserRepoCacheDecorator(userRepo, redisClient, cfg.Redis.UserCacheTTL, logger)
	}
	orgRepo := pg.NewOrganizationRepo(pool)
	requestRepo := pg.NewTranscriptionRequestRepo(pool)

	// ---- Providers ----
	transcriber, err := deepgram.NewAdapter(deepgram.Options{
		APIKey:      cfg.Transcription.APIKey,
		BaseURL:     cfg.Transcription.BaseURL,
		Model:       cfg.Transcription.Model,
		Language:    cfg.Transcription.Language,
		SmartFormat: cfg.Transcription.SmartFormat,
		Timeout:     cfg.Transcription.Timeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("deepgram adapter")
	}
	reviewer, err := ai.NewReviewer(ctx, cfg.Review)
	if err != nil {
		logger.Fatal().Err(err).Msg("review adapter")
	}
	logger.Info().
		Str("transcriber", transcriber.Name()).
		Str("reviewer", reviewer.Name()).
		Str("model", cfg.Review.Model).
		Msg("providers configured")

	// ---- Worker pool ----
	workers := worker.NewPool(cfg.Worker.Workers, cfg.Worker.QueueSize, logger)
	workers.Start(ctx)

	// ---- Use cases ----
	transcriptionUC := usecase.NewTranscriptionUseCase(requestRepo, stash, tm, transcriber, reviewer, workers, logger)
	authUC := usecase.NewAuthUseCase(userRepo, orgRepo, tm, logger)
	orgUC := usecase.NewOrganizationUseCase(orgRepo, userRepo, tm, logger)

	// ---- Reconciler ----
	var reconciler *sched.Reconciler
	if !cfg.Reconciler.Disabled {
		reconciler = sched.NewReconciler(transcriptionUC, red.NewLocker(redisClient),
			cfg.Reconciler.Interval, cfg.Reconciler.StaleAfter, cfg.Reconciler.BatchSize, logger)
		reconciler.Start(ctx)
	}

	// ---- HTTP ----
	srv := web.NewServer(transcriptionUC, authUC, orgUC,
		web.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		web.Options{MaxUploadBytes: cfg.HTTP.MaxUploadBytes, RequestTimeout: cfg.HTTP.RequestTimeout},
		logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
		logger.Info().Msg("shutdown requested")
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	if reconciler != nil {
		reconciler.Stop()
	}
	// in-flight and queued units finish before the stores close
	workers.Stop()
	cancel()
	logger.Info().Msg("bye")
}
