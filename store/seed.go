package store

import (
	"context"
	"io"
	"log/slog"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SeedEntry is the on-disk YAML shape of a knowledge entry.
type SeedEntry struct {
	ID       string   `yaml:"id"`
	Title    string   `yaml:"title"`
	Content  string   `yaml:"content"`
	Category string   `yaml:"category"`
	Language string   `yaml:"language"`
	Keywords []string `yaml:"keywords"`
	// Active defaults to true when omitted.
	Active *bool `yaml:"active,omitempty"`
}

type seedFile struct {
	Entries []SeedEntry `yaml:"entries"`
}

// ParseSeed decodes a YAML knowledge file into validated entries.
func ParseSeed(r io.Reader) ([]*KnowledgeEntry, error) {
	var file seedFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return []*KnowledgeEntry{}, nil
		}
		return nil, errors.Wrap(err, "failed to decode seed file")
	}

	entries := make([]*KnowledgeEntry, 0, len(file.Entries))
	for i, se := range file.Entries {
		lang, _ := ParseLanguage(se.Language)
		active := true
		if se.Active != nil {
			active = *se.Active
		}
		entry := &KnowledgeEntry{
			ID:       se.ID,
			Title:    se.Title,
			Content:  se.Content,
			Category: Category(se.Category),
			Language: lang,
			Keywords: FoldKeywords(se.Keywords),
			Active:   active,
		}
		if err := entry.Validate(); err != nil {
			return nil, errors.Wrapf(err, "seed entry %d (%q)", i, se.ID)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Seed upserts every entry of a YAML knowledge file and returns how many were written.
func (s *Store) Seed(ctx context.Context, r io.Reader) (int, error) {
	entries, err := ParseSeed(r)
	if err != nil {
		return 0, err
	}
	for _, entry := range entries {
		if _, err := s.driver.UpsertKnowledge(ctx, entry); err != nil {
			return 0, errors.Wrapf(err, "failed to upsert knowledge entry %s", entry.ID)
		}
	}
	slog.InfoContext(ctx, "knowledge seeded", slog.Int("count", len(entries)))
	return len(entries), nil
}
