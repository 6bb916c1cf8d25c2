package sqlite

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/omadigital23/assistant/store"
)

// placeholder returns a placeholder for SQLite (uses ?)
func placeholder(int) string {
	return "?"
}

// placeholders returns n placeholders for SQLite
func placeholders(n int) string {
	list := []string{}
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}

var missingObjectMarkers = []string{
	"no such table",
	"no such column",
	"no such module",
	"no such function",
}

// wrapSearchError turns a missing-object error into store.ErrIndexMissing and
// wraps anything else with msg.
func wrapSearchError(err error, msg string) error {
	text := err.Error()
	for _, marker := range missingObjectMarkers {
		if strings.Contains(text, marker) {
			return errors.Wrapf(store.ErrIndexMissing, "%s: %s", msg, text)
		}
	}
	return errors.Wrap(err, msg)
}

// escapeLike escapes LIKE special characters to prevent pattern injection.
func escapeLike(word string) string {
	word = strings.ReplaceAll(word, "\\", "\\\\")
	word = strings.ReplaceAll(word, "%", "\\%")
	return strings.ReplaceAll(word, "_", "\\_")
}

// ftsMatchExpr quotes every word so user text cannot inject FTS5 operators.
// Words are OR-ed; bm25 ranks entries matching more of them higher.
func ftsMatchExpr(text string) string {
	terms := []string{}
	for _, word := range strings.Fields(text) {
		word = strings.ReplaceAll(word, `"`, "")
		if word == "" {
			continue
		}
		terms = append(terms, `"`+word+`"`)
	}
	return strings.Join(terms, " OR ")
}
