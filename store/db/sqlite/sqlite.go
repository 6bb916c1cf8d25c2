package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
	// Import the pure-Go SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/omadigital23/assistant/internal/profile"
	"github.com/omadigital23/assistant/store"
)

// ============================================================================
// SQLITE SUPPORT (Development / Single Node)
// ============================================================================
// Full-text search uses FTS5 when the module is available and falls back to
// LIKE matching otherwise. Keywords are stored as a JSON array and matched
// with json_each.
// ============================================================================

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	sep := "?"
	if strings.Contains(profile.DSN, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite", profile.DSN+sep+"_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}
	// SQLite serializes writers; a single connection also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	var driver store.Driver = &DB{
		db:      db,
		profile: profile,
	}
	return driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

const baseSchema = `
CREATE TABLE IF NOT EXISTS knowledge_entry (
	rid INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL,
	language TEXT NOT NULL,
	keywords TEXT NOT NULL DEFAULT '[]',
	search_text TEXT NOT NULL DEFAULT '',
	active INTEGER NOT NULL DEFAULT 1,
	created_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now')),
	updated_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_knowledge_entry_category ON knowledge_entry (category, language);

CREATE TABLE IF NOT EXISTS conversation_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	uid TEXT NOT NULL UNIQUE,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	source TEXT NOT NULL,
	confidence REAL NOT NULL DEFAULT 0,
	language TEXT NOT NULL DEFAULT '',
	intent TEXT NOT NULL DEFAULT '',
	document_ids TEXT NOT NULL DEFAULT '[]',
	degraded INTEGER NOT NULL DEFAULT 0,
	error_code TEXT NOT NULL DEFAULT '',
	latency_ms BIGINT NOT NULL DEFAULT 0,
	created_ts BIGINT NOT NULL DEFAULT (strftime('%s', 'now'))
);
`

// ftsSchema mirrors title and content into an external-content FTS5 table.
const ftsSchema = `
CREATE VIRTUAL TABLE IF NOT EXISTS knowledge_fts USING fts5(
	title, content,
	content='knowledge_entry', content_rowid='rid',
	tokenize='unicode61 remove_diacritics 2'
);
CREATE TRIGGER IF NOT EXISTS knowledge_fts_ai AFTER INSERT ON knowledge_entry BEGIN
	INSERT INTO knowledge_fts(rowid, title, content) VALUES (new.rid, new.title, new.content);
END;
CREATE TRIGGER IF NOT EXISTS knowledge_fts_ad AFTER DELETE ON knowledge_entry BEGIN
	INSERT INTO knowledge_fts(knowledge_fts, rowid, title, content) VALUES ('delete', old.rid, old.title, old.content);
END;
CREATE TRIGGER IF NOT EXISTS knowledge_fts_au AFTER UPDATE ON knowledge_entry BEGIN
	INSERT INTO knowledge_fts(knowledge_fts, rowid, title, content) VALUES ('delete', old.rid, old.title, old.content);
	INSERT INTO knowledge_fts(rowid, title, content) VALUES (new.rid, new.title, new.content);
END;
`

// Migrate creates the tables. FTS5 is optional: when it cannot be created the
// full-text search falls back to LIKE.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, baseSchema); err != nil {
		return errors.Wrap(err, "failed to migrate schema")
	}
	// Databases created before search_text existed.
	if _, err := d.db.ExecContext(ctx, `ALTER TABLE knowledge_entry ADD COLUMN search_text TEXT NOT NULL DEFAULT ''`); err != nil &&
		!strings.Contains(err.Error(), "duplicate column") {
		return errors.Wrap(err, "failed to add search_text column")
	}
	n, err := d.refoldKnowledge(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.InfoContext(ctx, "refolded knowledge entries", slog.Int("count", n))
	}
	if _, err := d.db.ExecContext(ctx, ftsSchema); err != nil {
		slog.WarnContext(ctx, "fts5 unavailable, full-text search will use LIKE", slog.String("error", err.Error()))
	}
	return nil
}
