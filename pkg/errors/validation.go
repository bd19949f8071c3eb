package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxNodeID is the largest node ID accepted from external input.
const MaxNodeID = 1<<31 - 1

// ValidateWebName validates the name of a stored network document.
//
// Names double as cache keys and file names, so the rules are conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidateWebName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "web name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "web name too long (max 128 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "web name contains invalid control characters")
		}
	}
	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidInput, "web name contains invalid characters: %q", pattern)
		}
	}
	return nil
}

// ValidateNodeID rejects negative or oversized node IDs.
func ValidateNodeID(id int) error {
	if id < 0 {
		return New(ErrCodeInvalidNode, "node ID must be non-negative, got %d", id)
	}
	if id > MaxNodeID {
		return New(ErrCodeInvalidNode, "node ID %d exceeds %d", id, MaxNodeID)
	}
	return nil
}

// labelRegex matches species labels: letters, digits, spaces and a little
// punctuation common in taxon names.
var labelRegex = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} .,'()_-]*$`)

// ValidateLabel validates an optional display label. Empty labels are valid.
func ValidateLabel(label string) error {
	if label == "" {
		return nil
	}
	if len(label) > 200 {
		return New(ErrCodeInvalidNode, "label too long (max 200 characters)")
	}
	if !labelRegex.MatchString(label) {
		return New(ErrCodeInvalidNode, "invalid label: %q", label)
	}
	return nil
}
