package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/omadigital23/assistant/internal/profile"
	"github.com/omadigital23/assistant/store"
)

// ============================================================================
// POSTGRESQL SUPPORT (Production)
// ============================================================================
// PostgreSQL is the reference store for production use:
// - Full-text search (ts_vector, ts_rank)
// - Keyword overlap on TEXT[] arrays
// - Concurrent writes from the conversation log dispatcher
// ============================================================================

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile == nil {
		return nil, errors.New("profile is nil")
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		slog.Error("failed to open database", slog.String("error", err.Error()))
		return nil, errors.Wrap(err, "failed to open database")
	}

	// Read-heavy workload with short queries.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(2 * time.Hour)
	db.SetConnMaxIdleTime(15 * time.Minute)

	if err := db.Ping(); err != nil {
		slog.Error("failed to ping database", slog.String("error", err.Error()))
		return nil, errors.Wrap(err, "failed to ping database")
	}

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

const schema = `
CREATE TABLE IF NOT EXISTS knowledge_entry (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL,
	language TEXT NOT NULL,
	keywords TEXT[] NOT NULL DEFAULT '{}',
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW()),
	updated_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())
);
-- search_text holds the lowercase, accent-free title and content.
ALTER TABLE knowledge_entry ADD COLUMN IF NOT EXISTS search_text TEXT NOT NULL DEFAULT '';
DROP INDEX IF EXISTS idx_knowledge_entry_fts;
CREATE INDEX IF NOT EXISTS idx_knowledge_entry_search ON knowledge_entry
	USING GIN (to_tsvector('simple', search_text));
CREATE INDEX IF NOT EXISTS idx_knowledge_entry_keywords ON knowledge_entry USING GIN (keywords);
CREATE INDEX IF NOT EXISTS idx_knowledge_entry_category ON knowledge_entry (category, language);

CREATE TABLE IF NOT EXISTS conversation_log (
	id SERIAL PRIMARY KEY,
	uid TEXT NOT NULL UNIQUE,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	source TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	language TEXT NOT NULL DEFAULT '',
	intent TEXT NOT NULL DEFAULT '',
	document_ids TEXT[] NOT NULL DEFAULT '{}',
	degraded BOOLEAN NOT NULL DEFAULT FALSE,
	error_code TEXT NOT NULL DEFAULT '',
	latency_ms BIGINT NOT NULL DEFAULT 0,
	created_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())
);
`

// Migrate creates the tables and indexes used by the assistant.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to migrate schema")
	}
	n, err := d.refoldKnowledge(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.InfoContext(ctx, "refolded knowledge entries", slog.Int("count", n))
	}
	return nil
}
