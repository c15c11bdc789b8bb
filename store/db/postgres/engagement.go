package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/kataforge/kataforge/store"
)

func (d *DB) UpsertUserEngagement(ctx context.Context, upsert *store.UpsertUserEngagement) (*store.UserEngagement, error) {
	engagement := &store.UserEngagement{
		UserID:        upsert.UserID,
		CurrentStreak: upsert.CurrentStreak,
		LongestStreak: upsert.LongestStreak,
		LastActiveTs:  upsert.LastActiveTs,
	}

	// XP is owned by AddXP; the upsert never touches it.
	stmt := `INSERT INTO user_engagement (user_id, current_streak, longest_streak, last_active_ts)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT(user_id) DO UPDATE SET
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			last_active_ts = EXCLUDED.last_active_ts,
			updated_ts = $5
		RETURNING xp, updated_ts`
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.UserID, upsert.CurrentStreak, upsert.LongestStreak, upsert.LastActiveTs,
		time.Now().Unix(),
	).Scan(
		&engagement.XP,
		&engagement.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to upsert user engagement")
	}

	return engagement, nil
}

func (d *DB) ListUserEngagements(ctx context.Context, find *store.FindUserEngagement) ([]*store.UserEngagement, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.UserID; v != nil {
		where, args = append(where, "user_engagement.user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.MinCurrentStreak; v != nil {
		where, args = append(where, "user_engagement.current_streak >= "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT user_id, current_streak, longest_streak, last_active_ts, xp, updated_ts
		FROM user_engagement
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY user_engagement.user_id ASC`
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
		return nil, errors.Wrap(err, "failed to query user engagements")
	}
	defer rows.Close()

	list := make([]*store.UserEngagement, 0)
	for rows.Next() {
		var engagement store.UserEngagement
		var lastActiveTs sql.NullInt64
		if err := rows.Scan(
			&engagement.UserID,
			&engagement.CurrentStreak,
			&engagement.LongestStreak,
			&lastActiveTs,
			&engagement.XP,
			&engagement.UpdatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan user engagement")
		}
		if lastActiveTs.Valid {
			engagement.LastActiveTs = &lastActiveTs.Int64
		}
		list = append(list, &engagement)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate user engagements")
	}

	return list, nil
}

func (d *DB) ResetStreak(ctx context.Context, userID int32) (bool, error) {
	// Conditional on a non-zero streak so repeated runs are no-ops.
	result, err := d.db.ExecContext(ctx, `
		UPDATE user_engagement
		SET current_streak = 0, updated_ts = $1
		WHERE user_id = $2 AND current_streak > 0`,
		time.Now().Unix(), userID,
	)
	if err != nil {
		return false, errors.Wrap(err, "failed to reset streak")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to read rows affected")
	}
	return rowsAffected > 0, nil
}

func (d *DB) AddXP(ctx context.Context, userID int32, delta int64) error {
	// Atomic increment against the stored total, never read-then-write.
	result, err := d.db.ExecContext(ctx, `
		UPDATE user_engagement
		SET xp = xp + $1, updated_ts = $2
		WHERE user_id = $3`,
		delta, time.Now().Unix(), userID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to add xp")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read rows affected")
	}
	if rowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
