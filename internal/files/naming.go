package files

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	MaxTypeLen = 15
	MaxDateLen = 10
	hashPrefix = 8

	// CanonicalPrefix starts every canonical file name.
	CanonicalPrefix = "doc_"

	unnamed = "unnamed"
)

// type and date may themselves contain underscores once sanitized
var canonicalPattern = regexp.MustCompile(`^` + CanonicalPrefix + `\d+_.+_.+_[0-9a-fA-F]{8}(\.[^.]+)?$`)

var invalidChars = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_", "/", "_",
	`\`, "_", "|", "_", "?", "_", "*", "_",
)

// SanitizeFilename makes s safe for use as a filename fragment of at most maxLen runes.
func SanitizeFilename(s string, maxLen int) string {
	s = invalidChars.Replace(s)
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "_")
	if maxLen > 0 {
		if r := []rune(s); len(r) > maxLen {
			s = string(r[:maxLen])
		}
	}
	if s == "" {
		return unnamed
	}
	return s
}

// CanonicalName returns doc_{id}_{type}_{date}_{hash8}{ext}.
func CanonicalName(id int64, docType, date, hashHex, ext string) string {
	prefix := hashHex
	if len(prefix) > hashPrefix {
		prefix = prefix[:hashPrefix]
	}
	return fmt.Sprintf("%s%d_%s_%s_%s%s",
		CanonicalPrefix,
		id,
		SanitizeFilename(docType, MaxTypeLen),
		SanitizeFilename(date, MaxDateLen),
		prefix,
		ext,
	)
}

// IsCanonicalName reports whether base has the shape CanonicalName produces. A user
// file that merely starts with the prefix, like doc_scan.pdf, does not.
func IsCanonicalName(base string) bool {
	return canonicalPattern.MatchString(base)
}

// CanonicalPath places the canonical name next to the original file.
func CanonicalPath(original string, id int64, docType, date, hashHex string) string {
	return filepath.Join(filepath.Dir(original), CanonicalName(id, docType, date, hashHex, filepath.Ext(original)))
}
