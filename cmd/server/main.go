package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/storage/redis/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"tagratio/internal/cache"
	"tagratio/internal/config"
	"tagratio/internal/db"
	"tagratio/internal/extractor"
	"tagratio/internal/handlers/api"
	"tagratio/internal/indexer"
	"tagratio/internal/jobs"
	applogger "tagratio/internal/logger"
	"tagratio/internal/metrics"
	"tagratio/internal/middleware"
	"tagratio/internal/scorer"
	"tagratio/internal/server"
	"tagratio/internal/store"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()

	logger, err := applogger.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	yamlCfg, err := config.LoadYAMLConfig()
	if err != nil {
		logger.Fatal("failed to load YAML config", zap.Error(err))
	}
	flags, err := yamlCfg.ProfileFlags(cfg.ExtractorProfile)
	if err != nil {
		logger.Fatal("unknown extractor profile", zap.Error(err), zap.Strings("profiles", yamlCfg.ProfileNames()))
	}

	// Store: Postgres when configured, in-memory otherwise
	var (
		base     store.Store
		recorder store.RunRecorder
		pinger   api.Pinger
	)
	if cfg.UsesDatabase() {
		database, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer database.Close()

		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		logger.Info("migrations completed successfully")
		base, recorder, pinger = database, database, database
	} else {
		logger.Warn("DATABASE_URL not set, using the in-memory store")
		mem := store.NewMemory()
		base, recorder = mem, mem
	}

	// Redis backs the ranking cache and the rate limiter
	tagStore := base
	var limiterStorage fiber.Storage
	if cfg.RedisURL != "" {
		redisStorage := redis.New(redis.Config{URL: cfg.RedisURL})
		defer redisStorage.Close()
		tagStore = cache.New(base, redisStorage, cfg.CacheTTL, logger.Named("cache"))
		limiterStorage = redisStorage
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg, base, cfg.ListLimit, logger.Named("metrics"))

	ext, err := extractor.New(cfg.Extractor, cfg.ExifToolPath, cfg.ExtractorTimeout)
	if err != nil {
		logger.Fatal("failed to create extractor", zap.Error(err))
	}

	ix := indexer.New(ext, indexer.Options{
		Flags:  flags,
		Logger: logger.Named("indexer"),
		OnExtractFailure: func(string, error) {
			m.RecordExtractFailure()
		},
	})

	sc, err := scorer.New(tagStore, scorer.Config{
		Threshold:   cfg.ScoreThreshold,
		TopN:        cfg.ScoreTopN,
		TopFraction: cfg.ScoreTopFraction,
	}, logger.Named("scorer"))
	if err != nil {
		logger.Fatal("invalid scoring configuration", zap.Error(err))
	}

	reindexer, err := jobs.NewReindexer(ix, tagStore, recorder, m, jobs.ReindexConfig{
		RealRoot: cfg.RealCorpusDir,
		AIRoot:   cfg.AICorpusDir,
		Mode:     cfg.IndexMode,
		Interval: cfg.ReindexInterval,
	}, logger.Named("reindexer"))
	if err != nil {
		logger.Fatal("invalid index configuration", zap.Error(err))
	}
	if cfg.ReindexInterval > 0 {
		go reindexer.Start(ctx)
	}

	// OIDC guards the operator routes when configured
	var verifier middleware.Verifier
	if cfg.IsAuthEnabled() {
		v, err := middleware.NewOIDCVerifier(ctx, cfg.OIDCIssuer, cfg.OIDCClientID)
		if err != nil {
			logger.Fatal("failed to initialize OIDC verifier", zap.Error(err))
		}
		verifier = v
	} else {
		logger.Warn("OIDC is disabled, operator routes are unauthenticated. Set OIDC_ISSUER and OIDC_CLIENT_ID to enable.")
	}

	srv := server.New(cfg, logger.Named("http"), limiterStorage)
	srv.RegisterRoutes(server.Deps{
		Store:     tagStore,
		Recorder:  recorder,
		Pinger:    pinger,
		Scorer:    sc,
		Extractor: ext,
		Flags:     flags,
		Reindexer: reindexer,
		Metrics:   m,
		Gatherer:  reg,
		Verifier:  verifier,
	})

	// Graceful shutdown
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	cancel()
	if err := srv.Shutdown(); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}
