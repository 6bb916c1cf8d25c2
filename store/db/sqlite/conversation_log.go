package sqlite

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/omadigital23/assistant/store"
)

func (d *DB) CreateConversationLog(ctx context.Context, create *store.ConversationLog) (*store.ConversationLog, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	documentIDs, err := marshalStrings(create.DocumentIDs)
	if err != nil {
		return nil, err
	}

	fields := []string{"uid", "question", "answer", "source", "confidence", "language", "intent", "document_ids", "degraded", "error_code", "latency_ms", "created_ts"}
	args := []any{create.UID, create.Question, create.Answer, create.Source, create.Confidence, string(create.Language), create.Intent, documentIDs, create.Degraded, create.ErrorCode, create.LatencyMs, create.CreatedTs}
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
		where, args = append(where, "uid = ?"), append(args, *find.UID)
	}
	if find.Source != nil {
		where, args = append(where, "source = ?"), append(args, *find.Source)
	}
	if find.Language != nil {
		where, args = append(where, "language = ?"), append(args, string(*find.Language))
	}
	limit := find.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)

	query := `SELECT id, uid, question, answer, source, confidence, language, intent, document_ids, degraded, error_code, latency_ms, created_ts
		FROM conversation_log WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC, id DESC LIMIT ?`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list conversation_logs")
	}
	defer rows.Close()

	list := make([]*store.ConversationLog, 0)
	for rows.Next() {
		var c store.ConversationLog
		var language, documentIDs string
		if err := rows.Scan(&c.ID, &c.UID, &c.Question, &c.Answer, &c.Source, &c.Confidence, &language, &c.Intent, &documentIDs, &c.Degraded, &c.ErrorCode, &c.LatencyMs, &c.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan conversation_log")
		}
		c.Language = store.Language(language)
		if err := json.Unmarshal([]byte(documentIDs), &c.DocumentIDs); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal document ids")
		}
		list = append(list, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate conversation_logs")
	}
	return list, nil
}
