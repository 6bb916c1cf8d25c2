package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/omadigital23/assistant/store"
)

const knowledgeColumns = `k.id, k.title, k.content, k.category, k.language, k.keywords, k.active, k.created_ts, k.updated_ts`

func (d *DB) UpsertKnowledge(ctx context.Context, upsert *store.KnowledgeEntry) (*store.KnowledgeEntry, error) {
	now := time.Now().Unix()
	if upsert.CreatedTs == 0 {
		upsert.CreatedTs = now
	}
	upsert.UpdatedTs = now

	upsert.Keywords = store.FoldKeywords(upsert.Keywords)
	keywords, err := marshalStrings(upsert.Keywords)
	if err != nil {
		return nil, err
	}
	args := []any{upsert.ID, upsert.Title, upsert.Content, string(upsert.Category), string(upsert.Language), keywords, upsert.SearchText(), upsert.Active, upsert.CreatedTs, upsert.UpdatedTs}
	stmt := `INSERT INTO knowledge_entry (id, title, content, category, language, keywords, search_text, active, created_ts, updated_ts)
		VALUES (` + placeholders(len(args)) + `)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			category = excluded.category,
			language = excluded.language,
			keywords = excluded.keywords,
			search_text = excluded.search_text,
			active = excluded.active,
			updated_ts = excluded.updated_ts`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, errors.Wrap(err, "failed to upsert knowledge entry")
	}
	return upsert, nil
}

func (d *DB) ListKnowledge(ctx context.Context, find *store.FindKnowledge) ([]*store.KnowledgeEntry, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.Language != nil {
		where, args = append(where, "k.language = "+placeholder(len(args)+1)), append(args, string(*find.Language))
	}
	if find.Category != nil {
		where, args = append(where, "k.category = "+placeholder(len(args)+1)), append(args, string(*find.Category))
	}
	if find.ActiveOnly {
		where = append(where, "k.active = 1")
	}

	query := `SELECT ` + knowledgeColumns + ` FROM knowledge_entry k WHERE ` + strings.Join(where, " AND ") + ` ORDER BY k.id`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapSearchError(err, "failed to list knowledge entries")
	}
	defer rows.Close()
	return scanKnowledge(rows)
}

// SearchFullText uses FTS5 bm25 ranking when available, LIKE matching otherwise.
func (d *DB) SearchFullText(ctx context.Context, search *store.FullTextSearch) ([]*store.KnowledgeEntry, error) {
	match := ftsMatchExpr(search.Text)
	if match == "" {
		return []*store.KnowledgeEntry{}, nil
	}

	where, args := []string{"k.active = 1", "knowledge_fts MATCH ?"}, []any{match}
	if search.Language != nil {
		where, args = append(where, "k.language = ?"), append(args, string(*search.Language))
	}
	args = append(args, limitOrDefault(search.Limit))

	// bm25() is lower for better matches.
	query := `SELECT ` + knowledgeColumns + `
		FROM knowledge_fts
		JOIN knowledge_entry k ON k.rid = knowledge_fts.rowid
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY bm25(knowledge_fts) ASC, k.updated_ts DESC
		LIMIT ?`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		if store.IsIndexMissing(wrapSearchError(err, "")) {
			return d.searchFullTextFallback(ctx, search)
		}
		return nil, wrapSearchError(err, "failed to full-text search knowledge")
	}
	defer rows.Close()
	return scanKnowledge(rows)
}

// searchFullTextFallback ranks by the number of words found in the folded title and content.
func (d *DB) searchFullTextFallback(ctx context.Context, search *store.FullTextSearch) ([]*store.KnowledgeEntry, error) {
	words := strings.Fields(store.Fold(search.Text))
	if len(words) == 0 {
		return []*store.KnowledgeEntry{}, nil
	}

	hits := make([]string, 0, len(words))
	args := make([]any, 0, len(words)+2)
	for _, word := range words {
		hits = append(hits, `(CASE WHEN k.search_text LIKE ? ESCAPE '\' THEN 1 ELSE 0 END)`)
		args = append(args, "%"+escapeLike(word)+"%")
	}

	where := []string{"k.active = 1"}
	if search.Language != nil {
		where, args = append(where, "k.language = ?"), append(args, string(*search.Language))
	}
	args = append(args, limitOrDefault(search.Limit))

	query := `SELECT * FROM (
			SELECT ` + knowledgeColumns + `, (` + strings.Join(hits, " + ") + `) AS hits
			FROM knowledge_entry k
			WHERE ` + strings.Join(where, " AND ") + `
		) WHERE hits > 0
		ORDER BY hits DESC, updated_ts DESC
		LIMIT ?`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapSearchError(err, "failed to full-text search knowledge fallback")
	}
	defer rows.Close()
	return scanKnowledge(rows, new(int))
}

// SearchKeywords matches entries whose JSON keyword array overlaps the query keywords.
func (d *DB) SearchKeywords(ctx context.Context, search *store.KeywordSearch) ([]*store.KnowledgeEntry, error) {
	keywords := store.FoldKeywords(search.Keywords)
	if len(keywords) == 0 {
		return []*store.KnowledgeEntry{}, nil
	}

	args := make([]any, 0, len(keywords)+2)
	for _, kw := range keywords {
		args = append(args, kw)
	}
	where := []string{"k.active = 1"}
	if search.Language != nil {
		where, args = append(where, "k.language = ?"), append(args, string(*search.Language))
	}
	args = append(args, limitOrDefault(search.Limit))

	query := `SELECT * FROM (
			SELECT ` + knowledgeColumns + `,
				(SELECT COUNT(*) FROM json_each(k.keywords) WHERE json_each.value IN (` + placeholders(len(keywords)) + `)) AS overlap
			FROM knowledge_entry k
			WHERE ` + strings.Join(where, " AND ") + `
		) WHERE overlap > 0
		ORDER BY overlap DESC, id
		LIMIT ?`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapSearchError(err, "failed to keyword search knowledge")
	}
	defer rows.Close()
	return scanKnowledge(rows, new(int))
}

func (d *DB) SearchCategory(ctx context.Context, search *store.CategorySearch) ([]*store.KnowledgeEntry, error) {
	where, args := []string{"k.active = 1", "k.category = ?"}, []any{string(search.Category)}
	if search.Language != nil {
		where, args = append(where, "k.language = ?"), append(args, string(*search.Language))
	}
	args = append(args, limitOrDefault(search.Limit))

	query := `SELECT ` + knowledgeColumns + `
		FROM knowledge_entry k
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY k.updated_ts DESC, k.id
		LIMIT ?`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapSearchError(err, "failed to category search knowledge")
	}
	defer rows.Close()
	return scanKnowledge(rows)
}

// scanKnowledge reads knowledge rows; extra receives any trailing computed columns.
func scanKnowledge(rows *sql.Rows, extra ...any) ([]*store.KnowledgeEntry, error) {
	list := make([]*store.KnowledgeEntry, 0)
	for rows.Next() {
		var e store.KnowledgeEntry
		var category, language, keywords string
		dest := []any{&e.ID, &e.Title, &e.Content, &category, &language, &keywords, &e.Active, &e.CreatedTs, &e.UpdatedTs}
		dest = append(dest, extra...)
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrap(err, "failed to scan knowledge entry")
		}
		e.Category = store.Category(category)
		e.Language = store.Language(language)
		if err := json.Unmarshal([]byte(keywords), &e.Keywords); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal keywords of %s", e.ID)
		}
		list = append(list, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate knowledge entries")
	}
	return list, nil
}

func marshalStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal string list")
	}
	return string(b), nil
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
	rows, err := d.db.QueryContext(ctx, `SELECT `+knowledgeColumns+` FROM knowledge_entry k WHERE k.search_text = ''`)
	if err != nil {
		return 0, errors.Wrap(err, "failed to list unfolded knowledge entries")
	}
	entries, err := scanKnowledge(rows)
	rows.Close()
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		keywords, err := marshalStrings(store.FoldKeywords(e.Keywords))
		if err != nil {
			return 0, err
		}
		if _, err := d.db.ExecContext(ctx, `UPDATE knowledge_entry SET keywords = ?, search_text = ? WHERE id = ?`, keywords, e.SearchText(), e.ID); err != nil {
			return 0, errors.Wrapf(err, "failed to refold knowledge entry %s", e.ID)
		}
	}
	return len(entries), nil
}
