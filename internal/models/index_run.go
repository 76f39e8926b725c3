package models

import (
	"time"

	"github.com/google/uuid"
)

// Index write modes
const (
	IndexModeReplace = "replace"
	IndexModeMerge   = "merge"
)

// IndexRun records one batch pass over both corpora.
type IndexRun struct {
	ID         uuid.UUID `json:"id"`
	Mode       string    `json:"mode"`
	RealRoot   string    `json:"real_root"`
	AIRoot     string    `json:"ai_root"`
	RealFiles  int       `json:"real_files"`
	AIFiles    int       `json:"ai_files"`
	Failures   int       `json:"failures"`
	Tags       int       `json:"tags"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// ValidIndexMode reports whether mode is a known write mode.
func ValidIndexMode(mode string) bool {
	return mode == IndexModeReplace || mode == IndexModeMerge
}
