package store

import (
	"github.com/pkg/errors"
)

var (
	// ErrIndexMissing is returned when the backing table, column or index a
	// search relies on does not exist. Callers treat it as an empty result.
	ErrIndexMissing = errors.New("search index missing")

	ErrEntryIDRequired      = errors.New("knowledge entry id is required")
	ErrEntryLanguageInvalid = errors.New("knowledge entry language is invalid")
	ErrEntryCategoryInvalid = errors.New("knowledge entry category is invalid")
	ErrEntryContentTooLong  = errors.New("knowledge entry content is too long")
)

// IsIndexMissing reports whether err signals a missing index, table or column.
func IsIndexMissing(err error) bool {
	return errors.Is(err, ErrIndexMissing)
}
