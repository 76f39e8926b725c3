// Command indexer rebuilds the tag frequency table from the labeled corpora
// in a single batch pass.
//
// Usage:
//
//	indexer -real dataset/real -ai dataset/ai -mode replace -profile grouped
//
// The store is Postgres when DATABASE_URL is set. Without it the pass runs
// against an in-memory store and only prints the resulting ranking. With
// REDIS_URL set, the write invalidates the server's cached rankings.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/storage/redis/v3"
	"go.uber.org/zap"

	"tagratio/internal/cache"
	"tagratio/internal/config"
	"tagratio/internal/db"
	"tagratio/internal/extractor"
	"tagratio/internal/indexer"
	"tagratio/internal/jobs"
	applogger "tagratio/internal/logger"
	"tagratio/internal/store"
)

type options struct {
	realRoot string
	aiRoot   string
	mode     string
	profile  string
	top      int
}

func main() {
	cfg := config.Load()
	opts := parseFlags(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	logger, err := applogger.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(ctx, cfg, opts, logger); err != nil {
		cancel()
		logger.Fatal("index run failed", zap.Error(err))
	}
}

func parseFlags(cfg *config.Config) options {
	opts := options{}
	flag.StringVar(&opts.realRoot, "real", cfg.RealCorpusDir, "directory of real photos")
	flag.StringVar(&opts.aiRoot, "ai", cfg.AICorpusDir, "directory of AI-generated images")
	flag.StringVar(&opts.mode, "mode", cfg.IndexMode, "write mode: replace or merge")
	flag.StringVar(&opts.profile, "profile", cfg.ExtractorProfile, "extractor flag profile")
	flag.IntVar(&opts.top, "top", cfg.ScoreTopN, "number of top-ranked tags to print")
	flag.Parse()
	return opts
}

// cacheStorage is the ranking cache backend shared with the server.
type cacheStorage interface {
	cache.Storage
	Close() error
}

var newCacheStorage = func(url string) cacheStorage {
	return redis.New(redis.Config{URL: url})
}

func run(ctx context.Context, cfg *config.Config, opts options, logger *zap.Logger) error {
	yamlCfg, err := config.LoadYAMLConfig()
	if err != nil {
		return err
	}
	flags, err := yamlCfg.ProfileFlags(opts.profile)
	if err != nil {
		return err
	}

	ext, err := extractor.New(cfg.Extractor, cfg.ExifToolPath, cfg.ExtractorTimeout)
	if err != nil {
		return err
	}

	s, recorder, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	ix := indexer.New(ext, indexer.Options{
		Flags:  flags,
		Logger: logger.Named("indexer"),
	})
	return reindex(ctx, s, recorder, ix, opts, os.Stdout, logger)
}

// openStore opens Postgres when configured, in-memory otherwise. With Redis
// configured the store is wrapped in the same ranking cache the server reads,
// so this run invalidates the server's cached rankings.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, store.RunRecorder, func(), error) {
	var (
		s        store.Store
		recorder store.RunRecorder
		closers  []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.UsesDatabase() {
		database, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		closers = append(closers, database.Close)
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			closeAll()
			return nil, nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		s, recorder = database, database
	} else {
		logger.Warn("DATABASE_URL not set, results are not persisted")
		mem := store.NewMemory()
		s, recorder = mem, mem
	}

	if cfg.RedisURL != "" {
		storage := newCacheStorage(cfg.RedisURL)
		closers = append(closers, func() {
			if err := storage.Close(); err != nil {
				logger.Warn("failed to close cache storage", zap.Error(err))
			}
		})
		s = cache.New(s, storage, cfg.CacheTTL, logger.Named("cache"))
	}

	return s, recorder, closeAll, nil
}

func reindex(ctx context.Context, s store.Store, recorder store.RunRecorder, ix *indexer.Indexer, opts options, out io.Writer, logger *zap.Logger) error {
	reindexer, err := jobs.NewReindexer(ix, s, recorder, nil, jobs.ReindexConfig{
		RealRoot: opts.realRoot,
		AIRoot:   opts.aiRoot,
		Mode:     opts.mode,
	}, logger.Named("reindexer"))
	if err != nil {
		return err
	}

	result, err := reindexer.RunOnce(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "run %s (%s): %d real files, %d ai files, %d extraction failures, %d tags\n",
		result.ID, result.Mode, result.RealFiles, result.AIFiles, result.Failures, result.Tags)

	if opts.top <= 0 || result.Tags == 0 {
		return nil
	}
	records, err := s.ListTagRecords(ctx, opts.top)
	if err != nil {
		return err
	}
	for i, r := range records {
		fmt.Fprintf(out, "%3d. %-40s real=%d ai=%d ratio=%.4f\n", i+1, r.Tag, r.RealFreq, r.AIFreq, r.Ratio)
	}
	return nil
}
