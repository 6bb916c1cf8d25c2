package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/omadigital23/assistant/store"
)

func (d *DB) CreateConversationLog(ctx context.Context, create *store.ConversationLog) (*store.ConversationLog, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	documentIDs := create.DocumentIDs
	if documentIDs == nil {
		documentIDs = []string{}
	}

	fields := []string{"uid", "question", "answer", "source", "confidence", "language", "intent", "document_ids", "degraded", "error_code", "latency_ms", "created_ts"}
	args := []any{create.UID, create.Question, create.Answer, create.Source, create.Confidence, string(create.Language), create.Intent, pq.Array(documentIDs), create.Degraded, create.ErrorCode, create.LatencyMs, create.CreatedTs}
	stmt := `INSERT INTO conversation_log (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create conversation_log")
	}
	return create, nil
}

func (d *DB) ListConversationLogs(ctx context.Context, find *store.FindConversationLog) ([]*store.ConversationLog, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.Source != nil {
		where, args = append(where, "source = "+placeholder(len(args)+1)), append(args, *find.Source)
	}
	if find.Language != nil {
		where, args = append(where, "language = "+placeholder(len(args)+1)), append(args, string(*find.Language))
	}
	limit := find.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)

	query := `SELECT id, uid, question, answer, source, confidence, language, intent, document_ids, degraded, error_code, latency_ms, created_ts
		FROM conversation_log WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC, id DESC LIMIT ` + placeholder(len(args))
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list conversation_logs")
	}
	defer rows.Close()

	list := make([]*store.ConversationLog, 0)
	for rows.Next() {
		var c store.ConversationLog
		var language string
		if err := rows.Scan(&c.ID, &c.UID, &c.Question, &c.Answer, &c.Source, &c.Confidence, &language, &c.Intent, pq.Array(&c.DocumentIDs), &c.Degraded, &c.ErrorCode, &c.LatencyMs, &c.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan conversation_log")
		}
		c.Language = store.Language(language)
		list = append(list, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate conversation_logs")
	}
	return list, nil
}
