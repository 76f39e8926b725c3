package store

import (
	"context"
	"sort"
	"sync"

	"tagratio/internal/models"
)

// Memory is an in-process Store. It backs the service when no database is
// configured and stands in for Postgres in tests.
type Memory struct {
	mu      sync.RWMutex
	records map[string]models.TagRecord
	runs    []models.IndexRun
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]models.TagRecord)}
}

func (m *Memory) MergeTagRecords(_ context.Context, records map[string]models.TagRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for tag, r := range records {
		r.Tag = tag
		m.records[tag] = r
	}
	return nil
}

func (m *Memory) ReplaceAllTagRecords(_ context.Context, records map[string]models.TagRecord) error {
	fresh := make(map[string]models.TagRecord, len(records))
	for tag, r := range records {
		r.Tag = tag
		fresh[tag] = r
	}

	m.mu.Lock()
	m.records = fresh
	m.mu.Unlock()
	return nil
}

func (m *Memory) TopTags(_ context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, ErrInvalidTopN
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.records) == 0 {
		return nil, ErrEmptyStore
	}

	ranked := m.rankedLocked()
	if n > len(ranked) {
		n = len(ranked)
	}
	tags := make([]string, n)
	for i := range n {
		tags[i] = ranked[i].Tag
	}
	return tags, nil
}

func (m *Memory) GetTagRecord(_ context.Context, tag string) (*models.TagRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[tag]
	if !ok {
		return nil, ErrTagNotFound
	}
	return &r, nil
}

func (m *Memory) ListTagRecords(_ context.Context, limit int) ([]models.TagRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ranked := m.rankedLocked()
	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (m *Memory) CountTagRecords(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

// RecordIndexRun appends run to the in-memory history.
func (m *Memory) RecordIndexRun(_ context.Context, run *models.IndexRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *run)
	return nil
}

// ListIndexRuns returns the most recent runs first.
func (m *Memory) ListIndexRuns(_ context.Context, limit int) ([]models.IndexRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	runs := make([]models.IndexRun, 0, len(m.runs))
	for i := len(m.runs) - 1; i >= 0; i-- {
		runs = append(runs, m.runs[i])
		if limit > 0 && len(runs) == limit {
			break
		}
	}
	return runs, nil
}

func (m *Memory) rankedLocked() []models.TagRecord {
	ranked := make([]models.TagRecord, 0, len(m.records))
	for _, r := range m.records {
		ranked = append(ranked, r)
	}
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].Ranks(ranked[j])
	})
	return ranked
}
