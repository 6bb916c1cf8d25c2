package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/omadigital23/assistant/store"
)

const knowledgeColumns = `id, title, content, category, language, keywords, active, created_ts, updated_ts`

func (d *DB) UpsertKnowledge(ctx context.Context, upsert *store.KnowledgeEntry) (*store.KnowledgeEntry, error) {
	now := time.Now().Unix()
	if upsert.CreatedTs == 0 {
		upsert.CreatedTs = now
	}
	upsert.UpdatedTs = now

	upsert.Keywords = store.FoldKeywords(upsert.Keywords)
	args := []any{upsert.ID, upsert.Title, upsert.Content, string(upsert.Category), string(upsert.Language), pq.Array(upsert.Keywords), upsert.Active, upsert.CreatedTs, upsert.UpdatedTs, upsert.SearchText()}
	stmt := `INSERT INTO knowledge_entry (` + knowledgeColumns + `, search_text)
		VALUES (` + placeholders(len(args)) + `)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			category = EXCLUDED.category,
			language = EXCLUDED.language,
			keywords = EXCLUDED.keywords,
			search_text = EXCLUDED.search_text,
			active = EXCLUDED.active,
			updated_ts = EXCLUDED.updated_ts`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "failed to upsert knowledge entry")
	}
	return upsert, nil
}

func (d *DB) ListKnowledge(ctx context.Context, find *store.FindKnowledge) ([]*store.KnowledgeEntry, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.Language != nil {
		where, args = append(where, "language = "+placeholder(len(args)+1)), append(args, string(*find.Language))
	}
	if find.Category != nil {
		where, args = append(where, "category = "+placeholder(len(args)+1)), append(args, string(*find.Category))
	}
	if find.ActiveOnly {
		where = append(where, "active")
	}

	query := `SELECT ` + knowledgeColumns + ` FROM knowledge_entry WHERE ` + strings.Join(where, " AND ") + ` ORDER BY id`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapSearchError(err, "failed to list knowledge entries")
	}
	defer rows.Close()
	return scanKnowledge(rows)
}

// SearchFullText ranks entries with ts_rank over the folded title and content.
// The 'simple' configuration keeps French and English tokens intact; the
// words of search.Text are folded and OR-ed.
func (d *DB) SearchFullText(ctx context.Context, search *store.FullTextSearch) ([]*store.KnowledgeEntry, error) {
	expr := tsQueryExpr(store.Fold(search.Text))
	if expr == "" {
		return []*store.KnowledgeEntry{}, nil
	}
	args := []any{expr}
	where := []string{
		"active",
		"to_tsvector('simple', search_text) @@ to_tsquery('simple', " + placeholder(1) + ")",
	}
	if search.Language != nil {
		where, args = append(where, "language = "+placeholder(len(args)+1)), append(args, string(*search.Language))
	}
	args = append(args, limitOrDefault(search.Limit))

	query := `SELECT ` + knowledgeColumns + `
		FROM knowledge_entry
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY ts_rank(to_tsvector('simple', search_text), to_tsquery('simple', ` + placeholder(1) + `)) DESC, updated_ts DESC
		LIMIT ` + placeholder(len(args))
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapSearchError(err, "failed to full-text search knowledge")
	}
	defer rows.Close()
	return scanKnowledge(rows)
}

// SearchKeywords matches keyword array overlap, ordered by overlap size.
func (d *DB) SearchKeywords(ctx context.Context, search *store.KeywordSearch) ([]*store.KnowledgeEntry, error) {
	keywords := store.FoldKeywords(search.Keywords)
	if len(keywords) == 0 {
		return []*store.KnowledgeEntry{}, nil
	}
	args := []any{pq.Array(keywords)}
	where := []string{"active", "keywords && " + placeholder(1) + "::text[]"}
	if search.Language != nil {
		where, args = append(where, "language = "+placeholder(len(args)+1)), append(args, string(*search.Language))
	}
	args = append(args, limitOrDefault(search.Limit))

	query := `SELECT ` + knowledgeColumns + `
		FROM knowledge_entry
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY cardinality(ARRAY(SELECT unnest(keywords) INTERSECT SELECT unnest(` + placeholder(1) + `::text[]))) DESC, id
		LIMIT ` + placeholder(len(args))
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapSearchError(err, "failed to keyword search knowledge")
	}
	defer rows.Close()
	return scanKnowledge(rows)
}

func (d *DB) SearchCategory(ctx context.Context, search *store.CategorySearch) ([]*store.KnowledgeEntry, error) {
	args := []any{string(search.Category)}
	where := []string{"active", "category = " + placeholder(1)}
	if search.Language != nil {
		where, args = append(where, "language = "+placeholder(len(args)+1)), append(args, string(*search.Language))
	}
	args = append(args, limitOrDefault(search.Limit))

	query := `SELECT ` + knowledgeColumns + `
		FROM knowledge_entry
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY updated_ts DESC, id
		LIMIT ` + placeholder(len(args))
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapSearchError(err, "failed to category search knowledge")
	}
	defer rows.Close()
	return scanKnowledge(rows)
}

func scanKnowledge(rows *sql.Rows) ([]*store.KnowledgeEntry, error) {
	list := make([]*store.KnowledgeEntry, 0)
	for rows.Next() {
		var e store.KnowledgeEntry
		var category, language string
		if err := rows.Scan(&e.ID, &e.Title, &e.Content, &category, &language, pq.Array(&e.Keywords), &e.Active, &e.CreatedTs, &e.UpdatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan knowledge entry")
		}
		e.Category = store.Category(category)
		e.Language = store.Language(language)
		list = append(list, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate knowledge entries")
	}
	return list, nil
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return 10
	}
	return limit
}

// refoldKnowledge rewrites the keywords and search text of rows stored before
// folding was introduced.
func (d *DB) refoldKnowledge(ctx context.Context) (int, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT `+knowledgeColumns+` FROM knowledge_entry WHERE search_text = ''`)
	if err != nil {
		return 0, errors.Wrap(err, "failed to list unfolded knowledge entries")
	}
	entries, err := scanKnowledge(rows)
	rows.Close()
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		stmt := `UPDATE knowledge_entry SET keywords = ` + placeholder(1) + `, search_text = ` + placeholder(2) + ` WHERE id = ` + placeholder(3)
		if _, err := d.db.ExecContext(ctx, stmt, pq.Array(store.FoldKeywords(e.Keywords)), e.SearchText(), e.ID); err != nil {
			return 0, errors.Wrapf(err, "failed to refold knowledge entry %s", e.ID)
		}
	}
	return len(entries), nil
}
