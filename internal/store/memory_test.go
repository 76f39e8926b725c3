package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tagratio/internal/models"
)

func batch(records ...models.TagRecord) map[string]models.TagRecord {
	m := make(map[string]models.TagRecord, len(records))
	for _, r := range records {
		m[r.Tag] = r
	}
	return m
}

func TestMemory_EmptyStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.TopTags(ctx, 10)
	assert.ErrorIs(t, err, ErrEmptyStore)

	_, err = m.GetTagRecord(ctx, "X")
	assert.ErrorIs(t, err, ErrTagNotFound)

	n, err := m.CountTagRecords(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemory_TopTagsInvalidN(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.MergeTagRecords(context.Background(), batch(models.NewTagRecord("X", 1, 0))))

	for _, n := range []int{0, -1} {
		_, err := m.TopTags(context.Background(), n)
		assert.ErrorIs(t, err, ErrInvalidTopN)
	}
}

func TestMemory_TopTagsOrdering(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.MergeTagRecords(ctx, batch(
		models.NewTagRecord("EXIF:Model", 1, 1),
		models.NewTagRecord("EXIF:Make", 5, 0),
		models.NewTagRecord("EXIF:ISO", 1, 1),
		models.NewTagRecord("XMP:Creator", 0, 4),
	)))

	tags, err := m.TopTags(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"EXIF:Make", "EXIF:ISO", "EXIF:Model"}, tags)

	// n larger than the store is clamped.
	tags, err = m.TopTags(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, tags, 4)

	records, err := m.ListTagRecords(ctx, 0)
	require.NoError(t, err)
	for i := 1; i < len(records); i++ {
		assert.GreaterOrEqual(t, records[i-1].Ratio, records[i].Ratio)
	}
}

func TestMemory_MergeLeavesAbsentTags(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.MergeTagRecords(ctx, batch(
		models.NewTagRecord("X", 2, 0),
		models.NewTagRecord("Y", 1, 1),
	)))
	require.NoError(t, m.MergeTagRecords(ctx, batch(models.NewTagRecord("X", 0, 3))))

	x, err := m.GetTagRecord(ctx, "X")
	require.NoError(t, err)
	assert.Equal(t, 0, x.RealFreq, "merge overwrites recurring tags")
	assert.Equal(t, 3, x.AIFreq)

	_, err = m.GetTagRecord(ctx, "Y")
	assert.NoError(t, err, "merge leaves tags absent from the batch")
}

func TestMemory_ReplaceAll(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.MergeTagRecords(ctx, batch(
		models.NewTagRecord("X", 2, 0),
		models.NewTagRecord("Y", 1, 1),
	)))
	require.NoError(t, m.ReplaceAllTagRecords(ctx, batch(models.NewTagRecord("Z", 1, 0))))

	_, err := m.GetTagRecord(ctx, "Y")
	assert.ErrorIs(t, err, ErrTagNotFound)

	count, err := m.CountTagRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, m.ReplaceAllTagRecords(ctx, nil))
	_, err = m.TopTags(ctx, 1)
	assert.ErrorIs(t, err, ErrEmptyStore)
}

func TestMemory_MergeIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	records := batch(
		models.NewTagRecord("X", 2, 0),
		models.NewTagRecord("Y", 1, 1),
	)
	require.NoError(t, m.MergeTagRecords(ctx, records))
	first, err := m.ListTagRecords(ctx, 0)
	require.NoError(t, err)

	require.NoError(t, m.MergeTagRecords(ctx, records))
	second, err := m.ListTagRecords(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMemory_IndexRuns(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.RecordIndexRun(ctx, &models.IndexRun{Mode: models.IndexModeMerge}))
	require.NoError(t, m.RecordIndexRun(ctx, &models.IndexRun{Mode: models.IndexModeReplace}))

	runs, err := m.ListIndexRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.IndexModeReplace, runs[0].Mode)
}
