package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// MaxKeyLength is the longest query text kept verbatim in a key.
const MaxKeyLength = 128

// anyLanguage marks a lookup that spans every supported language.
const anyLanguage = "*"

// KeyFor builds the cache key for a normalized query text and language.
// Long texts are replaced by their SHA-256 digest.
func KeyFor(text, language string) string {
	if language == "" {
		language = anyLanguage
	}
	if len(text) > MaxKeyLength {
		sum := sha256.Sum256([]byte(text))
		text = "sha256:" + hex.EncodeToString(sum[:])
	}
	return language + "|" + text
}
