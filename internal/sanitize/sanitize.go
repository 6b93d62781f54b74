// Package sanitize strips markup from user-chosen names.
package sanitize

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/dtroode/chatdemo-server/internal/model"
)

// MaxNameLength bounds display and group names, in runes.
const MaxNameLength = 64

var policy = bluemonday.StrictPolicy()

// Markup removes every HTML element from s and returns it as trimmed plain text.
func Markup(s string) string {
	if s == "" {
		return ""
	}
	cleaned := policy.Sanitize(s)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// Name is Markup that rejects results longer than MaxNameLength runes.
func Name(s string) (string, error) {
	s = Markup(s)
	if n := utf8.RuneCountInString(s); n > MaxNameLength {
		return "", fmt.Errorf("%w: name is %d characters, at most %d allowed", model.ErrValidation, n, MaxNameLength)
	}
	return s, nil
}
