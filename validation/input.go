// Package validation checks user input and catalog entries before they
// reach the stores or get rendered back to a browser.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidInput is wrapped by every input validation failure
var ErrInvalidInput = errors.New("invalid input")

var (
	// Search terms: letters in any script, digits, spaces and safe punctuation
	searchRegex = regexp.MustCompile(`^[\p{L}\p{M}0-9\s\-\.\+'(),/%]+$`)

	// Markup and script injection, checked on every free-text field
	markupPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "data:text/html",
		"onload=", "onerror=", "onclick=", "onmouseover=", "onfocus=", "onblur=",
		"onchange=", "onsubmit=", "eval(", "expression(", "@import", "<iframe",
		"<object", "<embed", "<svg", "<img",
	}

	// Injection patterns only checked on search terms, where prose is not expected
	queryPatterns = []string{
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"update set", "--", "/*", "*/", "xp_", "exec(", "execute(",
		// Command injection patterns
		"; ", "| ", "& ", "`", "$(", "${",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
		// NoSQL injection patterns
		"{$ne:", "{$gt:", "{$where:", "{$or:", "{$regex:", "{$expr:",
	}
)

const (
	maxSearchLength = 50
	maxSearchWords  = 6
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ValidateSearch validates a catalog search term. Callers skip it for an
// empty term, which means "no search".
func ValidateSearch(input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return invalid("search term cannot be empty")
	}

	if utf8.RuneCountInString(input) > maxSearchLength {
		return invalid("search term too long: maximum %d characters", maxSearchLength)
	}

	if len(strings.Fields(input)) > maxSearchWords {
		return invalid("search term too complex: maximum %d words allowed", maxSearchWords)
	}

	lower := strings.ToLower(input)
	for _, pattern := range markupPatterns {
		if strings.Contains(lower, pattern) {
			return invalid("search term contains potentially dangerous content")
		}
	}
	for _, pattern := range queryPatterns {
		if strings.Contains(lower, pattern) {
			return invalid("search term contains potentially dangerous content")
		}
	}

	if !searchRegex.MatchString(input) {
		return invalid("search term contains invalid characters")
	}

	if hasExcessiveRepetition(input) {
		return invalid("search term contains excessive character repetition")
	}

	return nil
}

// ValidateText validates a free-text form field. Empty values pass; callers
// enforce required fields themselves.
func ValidateText(field, input string, maxLength int) error {
	if !utf8.ValidString(input) {
		return invalid("%s is not valid UTF-8", field)
	}

	if utf8.RuneCountInString(input) > maxLength {
		return invalid("%s too long: maximum %d characters", field, maxLength)
	}

	for _, r := range input {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return invalid("%s contains control characters", field)
		}
	}

	lower := strings.ToLower(input)
	for _, pattern := range markupPatterns {
		if strings.Contains(lower, pattern) {
			return invalid("%s contains potentially dangerous content", field)
		}
	}

	return nil
}

// hasExcessiveRepetition reports the same byte repeated more than 10 times in a row
func hasExcessiveRepetition(input string) bool {
	run := 1
	for i := 1; i < len(input); i++ {
		if input[i] == input[i-1] {
			run++
			if run > 10 {
				return true
			}
			continue
		}
		run = 1
	}
	return false
}
