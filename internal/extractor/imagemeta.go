package extractor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bep/imagemeta"
)

// imageFormats maps lower-cased file extensions to decoder formats.
var imageFormats = map[string]imagemeta.ImageFormat{
	".jpg":  imagemeta.JPEG,
	".jpeg": imagemeta.JPEG,
	".tif":  imagemeta.TIFF,
	".tiff": imagemeta.TIFF,
	".png":  imagemeta.PNG,
	".webp": imagemeta.WebP,
}

// Imagemeta decodes EXIF, IPTC and XMP tags in-process. Of the exiftool
// flags only "-G" is honored: tag names are then prefixed with their family,
// e.g. "EXIF:Make".
type Imagemeta struct{}

// NewImagemeta creates an in-process extractor.
func NewImagemeta() *Imagemeta {
	return &Imagemeta{}
}

// Extract decodes the metadata of the image at path.
func (Imagemeta) Extract(ctx context.Context, path string, flags []string) (Metadata, error) {
	format, ok := imageFormats[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("%s: unsupported image format: %w", path, ErrNoMetadata)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	grouped := slices.Contains(flags, "-G")
	meta := Metadata{}

	_, err = imagemeta.Decode(imagemeta.Options{
		R:           bytes.NewReader(data),
		ImageFormat: format,
		Sources:     imagemeta.EXIF | imagemeta.IPTC | imagemeta.XMP,
		HandleTag: func(ti imagemeta.TagInfo) error {
			meta[tagKey(ti.Source, ti.Tag, grouped)] = ti.Value
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if len(meta) == 0 {
		return nil, ErrNoMetadata
	}

	return meta, nil
}

// tagKey names a tag the way exiftool does with and without "-G".
func tagKey(source imagemeta.Source, tag string, grouped bool) string {
	if !grouped {
		return tag
	}
	return sourceGroup(source) + ":" + tag
}

func sourceGroup(source imagemeta.Source) string {
	switch source {
	case imagemeta.EXIF:
		return "EXIF"
	case imagemeta.IPTC:
		return "IPTC"
	case imagemeta.XMP:
		return "XMP"
	default:
		return "Other"
	}
}
