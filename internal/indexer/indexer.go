// Package indexer builds tag frequency records from a labeled pair of
// corpora: one directory of real photos and one of AI-generated images.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"tagratio/internal/extractor"
	"tagratio/internal/models"
)

// ErrUnreadableRoot is returned when a corpus root is missing, is not a
// directory, or cannot be listed.
var ErrUnreadableRoot = errors.New("unreadable corpus root")

// Stats summarizes an indexing pass.
type Stats struct {
	RealFiles int
	AIFiles   int
	Failures  int
}

// Options configures an Indexer.
type Options struct {
	// Flags are passed to the extractor for every file.
	Flags []string
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// OnExtractFailure is called for every file whose extraction failed.
	OnExtractFailure func(path string, err error)
}

// Indexer walks corpora and counts, per label, the files carrying each tag.
type Indexer struct {
	extractor extractor.Extractor
	opts      Options
	log       *zap.Logger
}

// New creates an indexer around ext.
func New(ext extractor.Extractor, opts Options) *Indexer {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Indexer{extractor: ext, opts: opts, log: log}
}

// Index walks realRoot then aiRoot and returns one record per tag seen in
// either corpus. Per-file extraction failures count as an empty tag set.
func (ix *Indexer) Index(ctx context.Context, realRoot, aiRoot string) (map[string]models.TagRecord, Stats, error) {
	var stats Stats
	resolved := make([]string, 2)
	for i, root := range []string{realRoot, aiRoot} {
		dir, err := resolveRoot(root)
		if err != nil {
			return nil, stats, err
		}
		resolved[i] = dir
	}

	realCounts, realFiles, realFailures, err := ix.countCorpus(ctx, resolved[0])
	if err != nil {
		return nil, stats, err
	}
	aiCounts, aiFiles, aiFailures, err := ix.countCorpus(ctx, resolved[1])
	if err != nil {
		return nil, stats, err
	}

	stats = Stats{
		RealFiles: realFiles,
		AIFiles:   aiFiles,
		Failures:  realFailures + aiFailures,
	}

	records := BuildRecords(realCounts, aiCounts)
	ix.log.Info("indexed corpora",
		zap.String("real_root", realRoot),
		zap.String("ai_root", aiRoot),
		zap.Int("real_files", stats.RealFiles),
		zap.Int("ai_files", stats.AIFiles),
		zap.Int("failures", stats.Failures),
		zap.Int("tags", len(records)),
	)
	return records, stats, nil
}

// BuildRecords merges two per-label file counts into records over the union
// of their tags.
func BuildRecords(realCounts, aiCounts map[string]int) map[string]models.TagRecord {
	records := make(map[string]models.TagRecord, len(realCounts)+len(aiCounts))
	for tag, n := range realCounts {
		records[tag] = models.NewTagRecord(tag, n, aiCounts[tag])
	}
	for tag, n := range aiCounts {
		if _, ok := records[tag]; !ok {
			records[tag] = models.NewTagRecord(tag, 0, n)
		}
	}
	return records
}

// countCorpus counts, for each tag, the number of files under root carrying it.
// root must already be resolved. Symlinks to regular files count as files;
// symlinked directories below root are not descended into.
func (ix *Indexer) countCorpus(ctx context.Context, root string) (map[string]int, int, int, error) {
	counts := make(map[string]int)
	files, failures := 0, 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return fmt.Errorf("%w: %s: %v", ErrUnreadableRoot, root, walkErr)
			}
			ix.log.Warn("skipping unreadable entry", zap.String("path", path), zap.Error(walkErr))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				ix.log.Debug("skipping symlink", zap.String("path", path), zap.Error(err))
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		files++
		meta, err := ix.extractor.Extract(ctx, path, ix.opts.Flags)
		if err != nil {
			failures++
			ix.log.Debug("metadata extraction failed", zap.String("path", path), zap.Error(err))
			if ix.opts.OnExtractFailure != nil {
				ix.opts.OnExtractFailure(path, err)
			}
			return nil
		}
		for tag := range meta {
			counts[tag]++
		}
		return nil
	})
	if err != nil {
		return nil, 0, 0, err
	}

	return counts, files, failures, nil
}

// resolveRoot follows symlinks in root and checks that the result is a
// listable directory. filepath.WalkDir does not follow a symlinked root.
func resolveRoot(root string) (string, error) {
	dir, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnreadableRoot, root, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnreadableRoot, root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrUnreadableRoot, root)
	}
	if _, err := os.ReadDir(dir); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnreadableRoot, root, err)
	}
	return dir, nil
}
