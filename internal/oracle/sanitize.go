// Package oracle implements the client for the external classification
// service that judges whether two free-text transaction descriptions refer
// to the same economic event. The service is untrusted and non-deterministic:
// inputs are sanitized before they are embedded in a request, and answers are
// schema-validated before anything upstream is allowed to see them.
package oracle

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledgermatch/ledgermatch/internal/common"
)

// DefaultMaxInputChars caps each description embedded in a request.
const DefaultMaxInputChars = 1000

// denylist holds instruction-override phrases stripped from transaction
// free text before it reaches the prompt. Matching is case-insensitive.
var denylist = []string{
	"ignore all",
	"ignore previous",
	"disregard previous",
	"new instructions",
	"system override",
	"delete",
	"drop table",
}

var denylistPatterns = compileDenylist()

func compileDenylist() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(denylist))
	for i, phrase := range denylist {
		patterns[i] = regexp.MustCompile("(?i)" + regexp.QuoteMeta(phrase))
	}
	return patterns
}

// Sanitize truncates text to maxChars and strips denylisted phrases.
// Returns ErrEmptyInput when nothing usable remains; a candidate with an
// inert description cannot be escalated.
func Sanitize(text string, maxChars int, logger *slog.Logger) (string, error) {
	if maxChars <= 0 {
		maxChars = DefaultMaxInputChars
	}
	if strings.TrimSpace(text) == "" {
		return "", common.ErrEmptyInput
	}

	// Truncation counts runes, not bytes; accented descriptions must never
	// leave a split multi-byte sequence in the prompt.
	if received := utf8.RuneCountInString(text); received > maxChars {
		logger.Warn("oracle input truncated", "received_chars", received, "max_chars", maxChars)
		text = string([]rune(text)[:maxChars])
	}

	for i, pattern := range denylistPatterns {
		if pattern.MatchString(text) {
			logger.Warn("possible prompt injection stripped", "phrase", denylist[i])
			text = pattern.ReplaceAllString(text, "")
		}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", common.ErrEmptyInput
	}
	return text, nil
}
