// Package timeout defines centralized timeout constants for answer operations.
package timeout

import "time"

const (
	// RetrievalTimeout bounds the concurrent store fan-out of one question.
	RetrievalTimeout = 3 * time.Second

	// AnswerTimeout bounds a whole answer, generative retries included.
	AnswerTimeout = 25 * time.Second

	// CompletionReserve is the share of AnswerTimeout kept for composing a
	// retrieval-only answer after a generative call timed out.
	CompletionReserve = 500 * time.Millisecond

	// InventoryLoadTimeout bounds one refresh of the local inventory.
	InventoryLoadTimeout = 10 * time.Second

	// ConversationLogTimeout bounds persisting one conversation log.
	ConversationLogTimeout = 5 * time.Second

	// ShutdownTimeout is how long the server waits for in-flight requests.
	ShutdownTimeout = 10 * time.Second

	// MaxTruncateLength is the maximum length for truncating strings in logs.
	MaxTruncateLength = 200
)
