package errors

import (
	"strings"
	"unicode"
)

// ValidatePageName validates a page name. Page names become file and
// directory names, so they must not be usable for path traversal.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
func ValidatePageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidMetadata, "page name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidMetadata, "page name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidMetadata, "page name contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidMetadata, "page name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateFormat checks that value is one of allowed. kind names the option
// in the error message ("metadata format", "image format").
func ValidateFormat(kind, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unsupported %s %q (want one of %s)", kind, value, strings.Join(allowed, ", "))
}

// ValidateProbability checks that p lies in [0, 1].
func ValidateProbability(name string, p float64) error {
	if p < 0 || p > 1 {
		return New(ErrCodeInvalidConfig, "%s must be within [0, 1], got %g", name, p)
	}
	return nil
}

// ValidateRange checks that lo <= hi.
func ValidateRange(name string, lo, hi int) error {
	if lo > hi {
		return New(ErrCodeInvalidConfig, "%s range is empty: min %d > max %d", name, lo, hi)
	}
	return nil
}

// ValidatePositive checks that v > 0.
func ValidatePositive(name string, v float64) error {
	if v <= 0 {
		return New(ErrCodeInvalidConfig, "%s must be positive, got %g", name, v)
	}
	return nil
}
