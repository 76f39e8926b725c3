package scorer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tagratio/internal/models"
	"tagratio/internal/store"
)

// scenarioStore holds X→(2,0) and Y→(1,1).
func scenarioStore(t *testing.T) *store.Memory {
	t.Helper()
	m := store.NewMemory()
	require.NoError(t, m.MergeTagRecords(context.Background(), map[string]models.TagRecord{
		"X": models.NewTagRecord("X", 2, 0),
		"Y": models.NewTagRecord("Y", 1, 1),
	}))
	return m
}

func newScorer(t *testing.T, r Ranker, cfg Config) *Scorer {
	t.Helper()
	s, err := New(r, cfg, nil)
	require.NoError(t, err)
	return s
}

func TestScore_Scenario(t *testing.T) {
	s := newScorer(t, scenarioStore(t), Config{})
	ctx := context.Background()

	res, err := s.ScoreTopN(ctx, []string{"X"}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Overlap)
	assert.False(t, res.IsAI)
	assert.Equal(t, []string{"X"}, res.Matched)

	res, err = s.ScoreTopN(ctx, []string{"Y"}, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Overlap)
	assert.True(t, res.IsAI)
}

func TestScore_FullOverlap(t *testing.T) {
	m := scenarioStore(t)
	s := newScorer(t, m, Config{})

	for _, n := range []int{1, 2, 10} {
		top, err := m.TopTags(context.Background(), n)
		require.NoError(t, err)

		res, err := s.ScoreTopN(context.Background(), top, n)
		require.NoError(t, err)
		assert.Equal(t, 1.0, res.Overlap, "n=%d", n)
		assert.False(t, res.IsAI, "n=%d", n)
	}
}

func TestScore_EmptyTagSet(t *testing.T) {
	s := newScorer(t, scenarioStore(t), Config{})

	res, err := s.Score(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Overlap)
	assert.True(t, res.IsAI)
	assert.NotNil(t, res.Matched)
}

func TestScore_EmptyStore(t *testing.T) {
	s := newScorer(t, store.NewMemory(), Config{})

	_, err := s.Score(context.Background(), []string{"X"})
	assert.True(t, errors.Is(err, store.ErrEmptyStore))
}

func TestScore_RankerReturnsNothing(t *testing.T) {
	empty := rankerFunc(func(context.Context, int) ([]string, error) { return nil, nil })
	s := newScorer(t, empty, Config{})

	_, err := s.Score(context.Background(), []string{"X"})
	assert.ErrorIs(t, err, store.ErrEmptyStore)
}

func TestScore_InvalidTopN(t *testing.T) {
	s := newScorer(t, scenarioStore(t), Config{})

	_, err := s.ScoreTopN(context.Background(), []string{"X"}, 0)
	assert.ErrorIs(t, err, store.ErrInvalidTopN)
}

func TestScore_PoolSmallerThanN(t *testing.T) {
	s := newScorer(t, scenarioStore(t), Config{TopN: 100})

	res, err := s.Score(context.Background(), []string{"X"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TopN)
	assert.Equal(t, 0.5, res.Overlap)
	assert.False(t, res.IsAI)
}

func TestScore_DuplicateTagsCountOnce(t *testing.T) {
	s := newScorer(t, scenarioStore(t), Config{TopN: 2})

	res, err := s.Score(context.Background(), []string{"X", "X", "X"})
	require.NoError(t, err)
	assert.Equal(t, 0.5, res.Overlap)
}

func TestScore_Threshold(t *testing.T) {
	m := scenarioStore(t)

	tests := []struct {
		name      string
		threshold float64
		wantAI    bool
	}{
		{name: "below default", threshold: 0.3, wantAI: false},
		{name: "equal is not ai", threshold: 0.5, wantAI: false},
		{name: "strict", threshold: 0.75, wantAI: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScorer(t, m, Config{Threshold: tt.threshold, TopN: 2})
			res, err := s.Score(context.Background(), []string{"X"})
			require.NoError(t, err)
			assert.Equal(t, tt.wantAI, res.IsAI)
			assert.Equal(t, tt.threshold, res.Threshold)
		})
	}
}

func TestNew_Config(t *testing.T) {
	s, err := New(store.NewMemory(), Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, Config{Threshold: DefaultThreshold, TopN: DefaultTopN}, s.Config())

	for _, cfg := range []Config{
		{Threshold: -0.1},
		{Threshold: 1.5},
		{Threshold: math.NaN()},
		{TopN: -3},
		{TopFraction: -0.25},
		{TopFraction: 1.25},
		{TopFraction: math.NaN()},
	} {
		_, err := New(store.NewMemory(), cfg, nil)
		assert.ErrorIs(t, err, ErrInvalidConfig, "%+v", cfg)
	}
}

type rankerFunc func(ctx context.Context, n int) ([]string, error)

func (f rankerFunc) TopTags(ctx context.Context, n int) ([]string, error) { return f(ctx, n) }

func TestNew_TopFractionNeedsCounter(t *testing.T) {
	only := rankerFunc(func(context.Context, int) ([]string, error) { return []string{"X"}, nil })
	_, err := New(only, Config{TopFraction: 0.25}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func rankedStore(t *testing.T, n int) *store.Memory {
	t.Helper()
	records := make(map[string]models.TagRecord, n)
	for i := range n {
		tag := fmt.Sprintf("T%02d", i)
		records[tag] = models.NewTagRecord(tag, n-i, 0)
	}
	m := store.NewMemory()
	require.NoError(t, m.MergeTagRecords(context.Background(), records))
	return m
}

func TestScore_TopFraction(t *testing.T) {
	tests := []struct {
		name     string
		tags     int
		fraction float64
		wantPool int
	}{
		{name: "quarter of twenty", tags: 20, fraction: 0.25, wantPool: 5},
		{name: "rounds down", tags: 10, fraction: 0.25, wantPool: 2},
		{name: "at least one", tags: 3, fraction: 0.25, wantPool: 1},
		{name: "whole table", tags: 4, fraction: 1, wantPool: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScorer(t, rankedStore(t, tt.tags), Config{TopN: 100, TopFraction: tt.fraction})
			ctx := context.Background()

			n, err := s.PoolSize(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPool, n)

			res, err := s.Score(ctx, []string{"T00"})
			require.NoError(t, err)
			assert.Equal(t, tt.wantPool, res.TopN)
			assert.Equal(t, 1/float64(tt.wantPool), res.Overlap)
		})
	}
}

func TestScore_TopFractionEmptyStore(t *testing.T) {
	s := newScorer(t, store.NewMemory(), Config{TopFraction: 0.25})

	_, err := s.Score(context.Background(), []string{"X"})
	assert.ErrorIs(t, err, store.ErrEmptyStore)
}
