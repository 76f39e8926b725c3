// Package scorer decides whether a tag set looks AI-generated by measuring
// its overlap with the tags most characteristic of real photos.
package scorer

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"tagratio/internal/models"
	"tagratio/internal/store"
)

// Defaults
const (
	DefaultThreshold = 0.3
	DefaultTopN      = 10
)

// ErrInvalidConfig is returned by New for an out-of-range threshold or pool size.
var ErrInvalidConfig = errors.New("invalid scorer config")

// Ranker answers top-N ranking queries. store.Store satisfies it.
type Ranker interface {
	TopTags(ctx context.Context, n int) ([]string, error)
}

// Counter reports the number of ranked tags. store.Store satisfies it.
type Counter interface {
	CountTagRecords(ctx context.Context) (int, error)
}

// Config holds the tunable decision parameters.
type Config struct {
	// Threshold: overlap below it classifies as AI. Must be in (0, 1].
	Threshold float64
	// TopN is the candidate pool size used by Score.
	TopN int
	// TopFraction, when set, sizes the pool used by Score as this share of
	// all ranked tags (at least one) and TopN is ignored. Must be in [0, 1].
	// The Ranker must then also implement Counter.
	TopFraction float64
}

// Scorer scores tag sets against a Ranker.
type Scorer struct {
	ranker Ranker
	cfg    Config
	log    *zap.Logger
}

// New creates a Scorer. Zero config fields take their defaults.
func New(ranker Ranker, cfg Config, log *zap.Logger) (*Scorer, error) {
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.TopN == 0 {
		cfg.TopN = DefaultTopN
	}
	if math.IsNaN(cfg.Threshold) || cfg.Threshold <= 0 || cfg.Threshold > 1 {
		return nil, fmt.Errorf("%w: threshold %v not in (0, 1]", ErrInvalidConfig, cfg.Threshold)
	}
	if cfg.TopN < 0 {
		return nil, fmt.Errorf("%w: top n %d must be positive", ErrInvalidConfig, cfg.TopN)
	}
	if math.IsNaN(cfg.TopFraction) || cfg.TopFraction < 0 || cfg.TopFraction > 1 {
		return nil, fmt.Errorf("%w: top fraction %v not in [0, 1]", ErrInvalidConfig, cfg.TopFraction)
	}
	if cfg.TopFraction > 0 {
		if _, ok := ranker.(Counter); !ok {
			return nil, fmt.Errorf("%w: top fraction needs a ranker that counts tags", ErrInvalidConfig)
		}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scorer{ranker: ranker, cfg: cfg, log: log}, nil
}

// Config returns the effective configuration.
func (s *Scorer) Config() Config {
	return s.cfg
}

// Score scores tags against the configured pool size.
func (s *Scorer) Score(ctx context.Context, tags []string) (models.ScoreResult, error) {
	n, err := s.PoolSize(ctx)
	if err != nil {
		return models.ScoreResult{}, err
	}
	return s.ScoreTopN(ctx, tags, n)
}

// PoolSize returns the pool size Score uses: TopN, or the TopFraction share
// of the ranked tags, at least one.
func (s *Scorer) PoolSize(ctx context.Context) (int, error) {
	if s.cfg.TopFraction == 0 {
		return s.cfg.TopN, nil
	}

	count, err := s.ranker.(Counter).CountTagRecords(ctx)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, store.ErrEmptyStore
	}
	return max(1, int(float64(count)*s.cfg.TopFraction)), nil
}

// ScoreTopN scores tags against the n highest-ranked tags. It returns
// store.ErrEmptyStore when there is nothing to compare against.
func (s *Scorer) ScoreTopN(ctx context.Context, tags []string, n int) (models.ScoreResult, error) {
	if n <= 0 {
		return models.ScoreResult{}, store.ErrInvalidTopN
	}

	top, err := s.ranker.TopTags(ctx, n)
	if err != nil {
		return models.ScoreResult{}, err
	}
	if len(top) == 0 {
		return models.ScoreResult{}, store.ErrEmptyStore
	}

	present := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		present[tag] = struct{}{}
	}

	matched := []string{}
	for _, tag := range top {
		if _, ok := present[tag]; ok {
			matched = append(matched, tag)
		}
	}

	overlap := float64(len(matched)) / float64(len(top))
	result := models.ScoreResult{
		IsAI:      overlap < s.cfg.Threshold,
		Overlap:   overlap,
		Threshold: s.cfg.Threshold,
		TopN:      len(top),
		Matched:   matched,
	}

	s.log.Debug("scored tag set",
		zap.Int("tags", len(present)),
		zap.Int("top_n", len(top)),
		zap.Float64("overlap", overlap),
		zap.Bool("is_ai", result.IsAI),
	)
	return result, nil
}
