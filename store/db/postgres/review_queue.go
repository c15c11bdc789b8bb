package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/kataforge/kataforge/store"
)

func (d *DB) UpsertReviewQueueItem(ctx context.Context, upsert *store.UpsertReviewQueueItem) (*store.ReviewQueueItem, error) {
	item := &store.ReviewQueueItem{
		UserID:    upsert.UserID,
		ProblemID: upsert.ProblemID,
		DueTs:     upsert.DueTs,
		Priority:  upsert.Priority,
	}

	lastQuality := int32(-1)
	if upsert.LastQuality != nil {
		lastQuality = *upsert.LastQuality
	}

	// The (user_id, problem_id) unique constraint makes this an idempotent
	// upsert; last_quality survives a re-enqueue unless explicitly supplied.
	stmt := `INSERT INTO review_queue (user_id, problem_id, due_ts, priority, last_quality)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT(user_id, problem_id) DO UPDATE SET
			due_ts = EXCLUDED.due_ts,
			priority = EXCLUDED.priority,
			last_quality = CASE WHEN $6 THEN EXCLUDED.last_quality ELSE review_queue.last_quality END,
			updated_ts = $7
		RETURNING id, last_quality, created_ts, updated_ts`
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.UserID, upsert.ProblemID, upsert.DueTs, upsert.Priority, lastQuality,
		upsert.LastQuality != nil, time.Now().Unix(),
	).Scan(
		&item.ID,
		&item.LastQuality,
		&item.CreatedTs,
		&item.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to upsert review queue item")
	}

	return item, nil
}

func (d *DB) ListReviewQueueItems(ctx context.Context, find *store.FindReviewQueueItem) ([]*store.ReviewQueueItem, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.UserID; v != nil {
		where, args = append(where, "review_queue.user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ProblemID; v != nil {
		where, args = append(where, "review_queue.problem_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.DueBefore; v != nil {
		where, args = append(where, "review_queue.due_ts <= "+placeholder(len(args)+1)), append(args, *v)
	}

	// Due items are served highest priority first, oldest due date next.
	query := `
		SELECT id, user_id, problem_id, due_ts, priority, last_quality, created_ts, updated_ts
		FROM review_queue
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY review_queue.priority DESC, review_queue.due_ts ASC, review_queue.id ASC`
	if find.Limit != nil {
		query += " LIMIT " + placeholder(len(args)+1)
		args = append(args, *find.Limit)
		if find.Offset != nil {
			query += " OFFSET " + placeholder(len(args)+1)
			args = append(args, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query review queue items")
	}
	defer rows.Close()

	list := make([]*store.ReviewQueueItem, 0)
	for rows.Next() {
		var item store.ReviewQueueItem
		if err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.ProblemID,
			&item.DueTs,
			&item.Priority,
			&item.LastQuality,
			&item.CreatedTs,
			&item.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan review queue item")
		}
		list = append(list, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate review queue items")
	}

	return list, nil
}
