package db

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"

	"tagratio/internal/models"
)

const upsertTagRecordQuery = `
	INSERT INTO tag_frequencies (tag, real_freq, ai_freq, diff, ratio, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW())
	ON CONFLICT (tag) DO UPDATE
	SET real_freq = EXCLUDED.real_freq,
	    ai_freq = EXCLUDED.ai_freq,
	    diff = EXCLUDED.diff,
	    ratio = EXCLUDED.ratio,
	    updated_at = NOW()
`

var tagFrequencyColumns = []string{"tag", "real_freq", "ai_freq", "diff", "ratio"}

// MergeTagRecords inserts or replaces every record by tag. Rows for tags
// absent from records are left as they are.
func (d *DB) MergeTagRecords(ctx context.Context, records map[string]models.TagRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, r := range sortedRecords(records) {
		batch.Queue(upsertTagRecordQuery, r.Tag, r.RealFreq, r.AIFreq, r.Diff, r.Ratio)
	}

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to upsert tag record: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ReplaceAllTagRecords deletes every row and bulk-loads records in a single
// transaction, so readers never see a partially written table.
func (d *DB) ReplaceAllTagRecords(ctx context.Context, records map[string]models.TagRecord) error {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM tag_frequencies`); err != nil {
		return fmt.Errorf("failed to clear tag frequencies: %w", err)
	}

	sorted := sortedRecords(records)
	rows := make([][]any, 0, len(sorted))
	for _, r := range sorted {
		rows = append(rows, []any{r.Tag, r.RealFreq, r.AIFreq, r.Diff, r.Ratio})
	}

	if len(rows) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"tag_frequencies"}, tagFrequencyColumns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("failed to copy tag frequencies: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// TopTags returns up to n tag names ordered by descending ratio, ties broken
// by tag name in byte order, matching the in-memory store.
func (d *DB) TopTags(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, ErrInvalidTopN
	}

	rows, err := d.Pool.Query(ctx, `
		SELECT tag FROM tag_frequencies
		ORDER BY ratio DESC, tag COLLATE "C" ASC
		LIMIT $1
	`, n)
	if err != nil {
		return nil, err
	}

	tags, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, ErrEmptyStore
	}
	return tags, nil
}

// GetTagRecord retrieves the record for a single tag.
func (d *DB) GetTagRecord(ctx context.Context, tag string) (*models.TagRecord, error) {
	var r models.TagRecord
	err := d.Pool.QueryRow(ctx, `
		SELECT tag, real_freq, ai_freq, diff, ratio
		FROM tag_frequencies WHERE tag = $1
	`, tag).Scan(&r.Tag, &r.RealFreq, &r.AIFreq, &r.Diff, &r.Ratio)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTagNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListTagRecords returns records in ranked order. A limit <= 0 returns all rows.
func (d *DB) ListTagRecords(ctx context.Context, limit int) ([]models.TagRecord, error) {
	query := `
		SELECT tag, real_freq, ai_freq, diff, ratio
		FROM tag_frequencies
		ORDER BY ratio DESC, tag COLLATE "C" ASC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := d.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.TagRecord
	for rows.Next() {
		var r models.TagRecord
		if err := rows.Scan(&r.Tag, &r.RealFreq, &r.AIFreq, &r.Diff, &r.Ratio); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// CountTagRecords returns the number of stored tags.
func (d *DB) CountTagRecords(ctx context.Context) (int, error) {
	var count int
	err := d.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM tag_frequencies`).Scan(&count)
	return count, err
}

// sortedRecords flattens records in tag order, keyed by the map key.
func sortedRecords(records map[string]models.TagRecord) []models.TagRecord {
	sorted := make([]models.TagRecord, 0, len(records))
	for tag, r := range records {
		r.Tag = tag
		sorted = append(sorted, r)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Tag < sorted[j].Tag })
	return sorted
}
