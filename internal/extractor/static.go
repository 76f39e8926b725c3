package extractor

import (
	"context"
	"fmt"
	"path/filepath"
)

// Static serves canned metadata keyed by file base name. Files without an
// entry fail with ErrNoMetadata.
type Static map[string]Metadata

// Extract returns the canned metadata for path.
func (s Static) Extract(_ context.Context, path string, _ []string) (Metadata, error) {
	meta, ok := s[filepath.Base(path)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNoMetadata)
	}
	return meta, nil
}
