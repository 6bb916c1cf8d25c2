package store

import (
	"context"
	"strings"

	"github.com/omadigital23/assistant/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) UpsertKnowledge(ctx context.Context, upsert *KnowledgeEntry) (*KnowledgeEntry, error) {
	upsert.Keywords = FoldKeywords(upsert.Keywords)
	if err := upsert.Validate(); err != nil {
		return nil, err
	}
	return s.driver.UpsertKnowledge(ctx, upsert)
}

func (s *Store) ListKnowledge(ctx context.Context, find *FindKnowledge) ([]*KnowledgeEntry, error) {
	return s.driver.ListKnowledge(ctx, find)
}

func (s *Store) SearchFullText(ctx context.Context, search *FullTextSearch) ([]*KnowledgeEntry, error) {
	if strings.TrimSpace(search.Text) == "" {
		return []*KnowledgeEntry{}, nil
	}
	return s.driver.SearchFullText(ctx, search)
}

func (s *Store) SearchKeywords(ctx context.Context, search *KeywordSearch) ([]*KnowledgeEntry, error) {
	if len(search.Keywords) == 0 {
		return []*KnowledgeEntry{}, nil
	}
	return s.driver.SearchKeywords(ctx, search)
}

func (s *Store) SearchCategory(ctx context.Context, search *CategorySearch) ([]*KnowledgeEntry, error) {
	return s.driver.SearchCategory(ctx, search)
}

func (s *Store) CreateConversationLog(ctx context.Context, create *ConversationLog) (*ConversationLog, error) {
	return s.driver.CreateConversationLog(ctx, create)
}

func (s *Store) ListConversationLogs(ctx context.Context, find *FindConversationLog) ([]*ConversationLog, error) {
	return s.driver.ListConversationLogs(ctx, find)
}
