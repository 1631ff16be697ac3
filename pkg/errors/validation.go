package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// fieldIDRegex matches catalogue field ids, including dotted paths such as
// "categoryRatings.visual".
var fieldIDRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(\.[A-Za-z][A-Za-z0-9_]*)*$`)

// ValidateFieldID validates a field identifier used in layouts and drops.
//
// The rules are conservative:
//   - No empty ids
//   - Maximum length of 128 characters
//   - Letters, digits and underscores, optionally dotted
func ValidateFieldID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidField, "field id cannot be empty")
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidField, "field id too long (max 128 characters)")
	}
	if !fieldIDRegex.MatchString(id) {
		return New(ErrCodeInvalidField, "invalid field id: %q", id)
	}
	return nil
}

// ValidatePresetName validates a user supplied preset name.
func ValidatePresetName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return New(ErrCodeInvalidPreset, "preset name cannot be empty")
	}
	if len(trimmed) > 80 {
		return New(ErrCodeInvalidPreset, "preset name too long (max 80 characters)")
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPreset, "preset name contains invalid control characters")
		}
	}
	return nil
}

// ValidateRecordID validates a review identifier used as a storage key.
// It rejects anything that could escape the storage directory.
func ValidateRecordID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "review id cannot be empty")
	}
	if len(id) > 128 {
		return New(ErrCodeInvalidInput, "review id too long (max 128 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "review id contains invalid control characters")
		}
	}
	for _, pattern := range []string{"..", "/", "\\", "\x00"} {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "review id contains invalid characters: %q", pattern)
		}
	}
	return nil
}

// ValidatePath validates a relative output path for safety.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateHexColor validates a #RRGGBB color string.
func ValidateHexColor(s string) error {
	if len(s) != 7 || s[0] != '#' {
		return New(ErrCodeInvalidConfig, "invalid color %q (want #RRGGBB)", s)
	}
	for _, r := range s[1:] {
		if !unicode.Is(unicode.ASCII_Hex_Digit, r) {
			return New(ErrCodeInvalidConfig, "invalid color %q (want #RRGGBB)", s)
		}
	}
	return nil
}
