package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strings"
	"time"
)

// DefaultTimeout bounds a single exiftool invocation.
const DefaultTimeout = 30 * time.Second

// sourceFileKey is exiftool bookkeeping, not a metadata tag.
const sourceFileKey = "SourceFile"

// ExifTool runs an exiftool-compatible binary once per file.
type ExifTool struct {
	Path    string        // binary path (default: "exiftool")
	Timeout time.Duration // per-file bound (default: DefaultTimeout)
}

// NewExifTool creates an ExifTool backend.
func NewExifTool(path string, timeout time.Duration) *ExifTool {
	if path == "" {
		path = "exiftool"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ExifTool{Path: path, Timeout: timeout}
}

// Extract runs "<Path> <flags...> <path>" and parses its JSON output.
// JSON output is always requested, so "-j" is added when flags lack it.
func (e *ExifTool) Extract(ctx context.Context, path string, flags []string) (Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	args := make([]string, 0, len(flags)+2)
	if !slices.Contains(flags, "-j") && !slices.Contains(flags, "-json") {
		args = append(args, "-j")
	}
	args = append(args, flags...)
	args = append(args, path)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.Path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("exiftool timed out after %s: %w", e.Timeout, ctx.Err())
		}
		return nil, fmt.Errorf("exiftool failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return ParseJSON(stdout.Bytes())
}

// ParseJSON decodes exiftool's JSON output: an array holding one object per
// file. Only the first object is used.
func ParseJSON(data []byte) (Metadata, error) {
	var objects []Metadata
	if err := json.Unmarshal(data, &objects); err != nil {
		return nil, fmt.Errorf("failed to parse exiftool output: %w", err)
	}
	if len(objects) == 0 || objects[0] == nil {
		return nil, ErrNoMetadata
	}

	meta := objects[0]
	delete(meta, sourceFileKey)
	return meta, nil
}
