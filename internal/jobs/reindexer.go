package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tagratio/internal/indexer"
	"tagratio/internal/metrics"
	"tagratio/internal/models"
	"tagratio/internal/store"
)

// ErrReindexInProgress is returned when a run is triggered while another is active.
var ErrReindexInProgress = errors.New("reindex already in progress")

// ReindexConfig describes what a run indexes and how it persists the result.
type ReindexConfig struct {
	RealRoot string
	AIRoot   string
	Mode     string        // models.IndexModeReplace or models.IndexModeMerge
	Interval time.Duration // loop interval for Start
}

// Reindexer rebuilds the tag frequency table from the labeled corpora.
type Reindexer struct {
	indexer  *indexer.Indexer
	store    store.Store
	recorder store.RunRecorder // optional
	metrics  *metrics.Metrics  // optional
	cfg      ReindexConfig
	log      *zap.Logger

	mu sync.Mutex
}

// NewReindexer creates a new reindex job.
func NewReindexer(ix *indexer.Indexer, s store.Store, recorder store.RunRecorder, m *metrics.Metrics, cfg ReindexConfig, log *zap.Logger) (*Reindexer, error) {
	if cfg.Mode == "" {
		cfg.Mode = models.IndexModeReplace
	}
	if !models.ValidIndexMode(cfg.Mode) {
		return nil, fmt.Errorf("unknown index mode %q", cfg.Mode)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Reindexer{
		indexer:  ix,
		store:    s,
		recorder: recorder,
		metrics:  m,
		cfg:      cfg,
		log:      log,
	}, nil
}

// Start runs immediately and then on every interval until ctx is done.
// A non-positive interval runs once.
func (r *Reindexer) Start(ctx context.Context) {
	r.log.Info("reindexer started", zap.Duration("interval", r.cfg.Interval), zap.String("mode", r.cfg.Mode))

	r.runLogged(ctx)
	if r.cfg.Interval <= 0 {
		return
	}

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("reindexer stopped")
			return
		case <-ticker.C:
			r.runLogged(ctx)
		}
	}
}

func (r *Reindexer) runLogged(ctx context.Context) {
	if _, err := r.RunOnce(ctx); err != nil && !errors.Is(err, ErrReindexInProgress) {
		r.log.Error("reindex failed", zap.Error(err))
	}
}

// RunOnce indexes both corpora and persists the records with the configured
// mode. Concurrent calls fail fast with ErrReindexInProgress.
func (r *Reindexer) RunOnce(ctx context.Context) (*models.IndexRun, error) {
	if !r.mu.TryLock() {
		return nil, ErrReindexInProgress
	}
	defer r.mu.Unlock()

	run := &models.IndexRun{
		ID:        uuid.New(),
		Mode:      r.cfg.Mode,
		RealRoot:  r.cfg.RealRoot,
		AIRoot:    r.cfg.AIRoot,
		StartedAt: time.Now(),
	}

	err := r.run(ctx, run)
	run.FinishedAt = time.Now()
	r.metrics.RecordIndexRun(run.Mode, err, run.FinishedAt.Sub(run.StartedAt))
	if err != nil {
		return nil, err
	}

	if r.recorder != nil {
		if err := r.recorder.RecordIndexRun(ctx, run); err != nil {
			r.log.Warn("failed to record index run", zap.Stringer("run_id", run.ID), zap.Error(err))
		}
	}

	r.log.Info("reindex completed",
		zap.Stringer("run_id", run.ID),
		zap.String("mode", run.Mode),
		zap.Int("tags", run.Tags),
		zap.Int("failures", run.Failures),
		zap.Duration("elapsed", run.FinishedAt.Sub(run.StartedAt)),
	)
	return run, nil
}

func (r *Reindexer) run(ctx context.Context, run *models.IndexRun) error {
	records, stats, err := r.indexer.Index(ctx, run.RealRoot, run.AIRoot)
	if err != nil {
		return fmt.Errorf("index corpora: %w", err)
	}

	run.RealFiles = stats.RealFiles
	run.AIFiles = stats.AIFiles
	run.Failures = stats.Failures
	run.Tags = len(records)

	switch run.Mode {
	case models.IndexModeMerge:
		err = r.store.MergeTagRecords(ctx, records)
	default:
		err = r.store.ReplaceAllTagRecords(ctx, records)
	}
	if err != nil {
		return fmt.Errorf("persist %s: %w", run.Mode, err)
	}
	return nil
}
