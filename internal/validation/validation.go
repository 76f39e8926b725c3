// Package validation checks untrusted input at the HTTP boundary.
package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxTagLength bounds a single tag name.
	MaxTagLength = 256
	// MaxTags bounds the tag set of a single score request.
	MaxTags = 10000
)

// extensionPattern defines the accepted upload extension format, dot included.
var extensionPattern = regexp.MustCompile(`^\.[a-zA-Z0-9]{1,10}$`)

// ValidateTag checks that a tag name is non-empty UTF-8 without control
// characters and at most MaxTagLength bytes.
func ValidateTag(tag string) bool {
	if tag == "" || len(tag) > MaxTagLength || !utf8.ValidString(tag) {
		return false
	}
	return strings.IndexFunc(tag, unicode.IsControl) < 0
}

// ValidateTags checks every tag of a score request.
func ValidateTags(tags []string) (bool, string) {
	if len(tags) > MaxTags {
		return false, fmt.Sprintf("at most %d tags are allowed", MaxTags)
	}
	for _, tag := range tags {
		if !ValidateTag(tag) {
			return false, fmt.Sprintf("invalid tag %q", tag)
		}
	}
	return true, ""
}

// UploadExtension returns the lower-cased extension of an uploaded file name,
// or "" when it is not a plain alphanumeric extension. The result is safe to
// embed in a temporary file name.
func UploadExtension(filename string) string {
	ext := filepath.Ext(filepath.Base(filename))
	if !extensionPattern.MatchString(ext) {
		return ""
	}
	return strings.ToLower(ext)
}
