package postgres

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/omadigital23/assistant/store"
)

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func placeholders(n int) string {
	list := make([]string, 0, n)
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}

// missingObjectCodes are the SQLSTATE codes for an undefined table, column,
// object or function.
var missingObjectCodes = map[pq.ErrorCode]bool{
	"42P01": true,
	"42703": true,
	"42704": true,
	"42883": true,
}

// wrapSearchError turns a missing-object error into store.ErrIndexMissing and
// wraps anything else with msg.
func wrapSearchError(err error, msg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && missingObjectCodes[pqErr.Code] {
		return errors.Wrapf(store.ErrIndexMissing, "%s: %s", msg, pqErr.Message)
	}
	return errors.Wrap(err, msg)
}

// tsQueryExpr builds a to_tsquery expression matching any word of text.
// Operator characters are dropped so user input cannot break the query.
func tsQueryExpr(text string) string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(words, " | ")
}
