// Package extractor reads the metadata tag mapping of a file. The indexer and
// the scoring API only consume the key set of that mapping.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrNoMetadata is returned when a backend produced no tag mapping.
var ErrNoMetadata = errors.New("no metadata")

// Metadata maps tag names to their extracted values.
type Metadata map[string]any

// Tags returns the sorted key set of m.
func (m Metadata) Tags() []string {
	tags := make([]string, 0, len(m))
	for tag := range m {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Extractor extracts the metadata of the file at path. flags are backend
// format-control options, e.g. exiftool's "-G" or "-EXIF:*".
type Extractor interface {
	Extract(ctx context.Context, path string, flags []string) (Metadata, error)
}

// Func adapts a function to the Extractor interface.
type Func func(ctx context.Context, path string, flags []string) (Metadata, error)

// Extract calls f.
func (f Func) Extract(ctx context.Context, path string, flags []string) (Metadata, error) {
	return f(ctx, path, flags)
}

// New returns the named backend: "exiftool" (default) or "imagemeta".
func New(kind, exiftoolPath string, timeout time.Duration) (Extractor, error) {
	switch kind {
	case "", "exiftool":
		return NewExifTool(exiftoolPath, timeout), nil
	case "imagemeta":
		return NewImagemeta(), nil
	default:
		return nil, fmt.Errorf("unknown extractor %q", kind)
	}
}
