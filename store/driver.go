package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Migrate creates the knowledge and conversation tables when absent.
	Migrate(ctx context.Context) error

	// Knowledge model related methods.
	UpsertKnowledge(ctx context.Context, upsert *KnowledgeEntry) (*KnowledgeEntry, error)
	ListKnowledge(ctx context.Context, find *FindKnowledge) ([]*KnowledgeEntry, error)

	// Search methods return only active entries. A missing index, table or
	// column is reported as ErrIndexMissing.
	SearchFullText(ctx context.Context, search *FullTextSearch) ([]*KnowledgeEntry, error)
	SearchKeywords(ctx context.Context, search *KeywordSearch) ([]*KnowledgeEntry, error)
	SearchCategory(ctx context.Context, search *CategorySearch) ([]*KnowledgeEntry, error)

	// ConversationLog model related methods.
	CreateConversationLog(ctx context.Context, create *ConversationLog) (*ConversationLog, error)
	ListConversationLogs(ctx context.Context, find *FindConversationLog) ([]*ConversationLog, error)
}
