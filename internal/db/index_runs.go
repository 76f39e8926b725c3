package db

import (
	"context"

	"github.com/google/uuid"

	"tagratio/internal/models"
)

// RecordIndexRun stores an index run, assigning an ID if it has none.
func (d *DB) RecordIndexRun(ctx context.Context, run *models.IndexRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO index_runs (id, mode, real_root, ai_root, real_files, ai_files, failures, tags, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, run.ID, run.Mode, run.RealRoot, run.AIRoot, run.RealFiles, run.AIFiles, run.Failures, run.Tags, run.StartedAt, run.FinishedAt)
	return err
}

// ListIndexRuns returns the most recent index runs first.
func (d *DB) ListIndexRuns(ctx context.Context, limit int) ([]models.IndexRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.Pool.Query(ctx, `
		SELECT id, mode, real_root, ai_root, real_files, ai_files, failures, tags, started_at, finished_at
		FROM index_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.IndexRun
	for rows.Next() {
		var r models.IndexRun
		if err := rows.Scan(&r.ID, &r.Mode, &r.RealRoot, &r.AIRoot, &r.RealFiles, &r.AIFiles,
			&r.Failures, &r.Tags, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
