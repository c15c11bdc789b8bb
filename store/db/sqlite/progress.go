package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/kataforge/kataforge/store"
)

func (d *DB) CreateProgress(ctx context.Context, create *store.Progress) (*store.Progress, error) {
	if create.Status == "" {
		create.Status = store.ProgressNotStarted
	}
	if create.EaseFactor == 0 {
		create.EaseFactor = 2.5
	}
	if create.IntervalDays == 0 {
		create.IntervalDays = 1
	}

	fields := []string{
		"user_id", "problem_id", "status", "ease_factor", "interval_days",
		"repetitions", "next_review_ts", "hints_used", "solution_viewed",
		"attempt_count", "solved_ts",
	}
	args := []any{
		create.UserID, create.ProblemID, create.Status, create.EaseFactor, create.IntervalDays,
		create.Repetitions, create.NextReviewTs, create.HintsUsed, create.SolutionViewed,
		create.AttemptCount, create.SolvedTs,
	}

	stmt := `INSERT INTO progress (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, row_version, created_ts, updated_ts`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.RowVersion,
		&create.CreatedTs,
		&create.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create progress")
	}

	return create, nil
}

func (d *DB) ListProgress(ctx context.Context, find *store.FindProgress) ([]*store.Progress, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.UserID; v != nil {
		where, args = append(where, "progress.user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.ProblemID; v != nil {
		where, args = append(where, "progress.problem_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Status; v != nil {
		where, args = append(where, "progress.status = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT
			id, user_id, problem_id, status, ease_factor, interval_days,
			repetitions, next_review_ts, hints_used, solution_viewed,
			attempt_count, solved_ts, row_version, created_ts, updated_ts
		FROM progress
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY progress.id ASC`
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
		return nil, errors.Wrap(err, "failed to query progress")
	}
	defer rows.Close()

	list := make([]*store.Progress, 0)
	for rows.Next() {
		progress, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, progress)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate progress")
	}

	return list, nil
}

func scanProgress(rows *sql.Rows) (*store.Progress, error) {
	var progress store.Progress
	var nextReviewTs, solvedTs sql.NullInt64
	if err := rows.Scan(
		&progress.ID,
		&progress.UserID,
		&progress.ProblemID,
		&progress.Status,
		&progress.EaseFactor,
		&progress.IntervalDays,
		&progress.Repetitions,
		&nextReviewTs,
		&progress.HintsUsed,
		&progress.SolutionViewed,
		&progress.AttemptCount,
		&solvedTs,
		&progress.RowVersion,
		&progress.CreatedTs,
		&progress.UpdatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to scan progress")
	}
	if nextReviewTs.Valid {
		progress.NextReviewTs = &nextReviewTs.Int64
	}
	if solvedTs.Valid {
		progress.SolvedTs = &solvedTs.Int64
	}
	return &progress, nil
}

func (d *DB) UpdateProgress(ctx context.Context, update *store.UpdateProgress) error {
	set, args := []string{}, []any{}

	if v := update.Status; v != nil {
		set, args = append(set, "status = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.EaseFactor; v != nil {
		set, args = append(set, "ease_factor = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.IntervalDays; v != nil {
		set, args = append(set, "interval_days = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Repetitions; v != nil {
		set, args = append(set, "repetitions = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.NextReviewTs; v != nil {
		set, args = append(set, "next_review_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.HintsUsed; v != nil {
		set, args = append(set, "hints_used = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.SolutionViewed; v != nil {
		set, args = append(set, "solution_viewed = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.AttemptCount; v != nil {
		set, args = append(set, "attempt_count = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.SolvedTs; v != nil {
		set, args = append(set, "solved_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(set) == 0 {
		return nil
	}

	set = append(set, "row_version = row_version + 1")
	set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, time.Now().Unix())

	where := []string{"user_id = " + placeholder(len(args)+1)}
	args = append(args, update.UserID)
	where = append(where, "problem_id = "+placeholder(len(args)+1))
	args = append(args, update.ProblemID)
	if v := update.ExpectedVersion; v != nil {
		where = append(where, "row_version = "+placeholder(len(args)+1))
		args = append(args, *v)
	}

	stmt := `UPDATE progress SET ` + strings.Join(set, ", ") + ` WHERE ` + strings.Join(where, " AND ")
	result, err := d.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return errors.Wrap(err, "failed to update progress")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read rows affected")
	}
	if rowsAffected == 0 {
		if update.ExpectedVersion != nil {
			return store.ErrConflict
		}
		return store.ErrNotFound
	}
	return nil
}

func (d *DB) ApplyReview(ctx context.Context, apply *store.ApplyReview) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	now := time.Now().Unix()

	result, err := tx.ExecContext(ctx, `
		UPDATE progress
		SET ease_factor = ?, interval_days = ?, repetitions = ?, next_review_ts = ?,
			row_version = row_version + 1, updated_ts = ?
		WHERE user_id = ? AND problem_id = ? AND row_version = ?`,
		apply.EaseFactor, apply.IntervalDays, apply.Repetitions, apply.NextReviewTs,
		now, apply.UserID, apply.ProblemID, apply.ExpectedVersion,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update progress")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read rows affected")
	}
	if rowsAffected == 0 {
		return store.ErrConflict
	}

	result, err = tx.ExecContext(ctx, `
		UPDATE review_queue
		SET due_ts = ?, last_quality = ?, updated_ts = ?
		WHERE user_id = ? AND problem_id = ?`,
		apply.NextReviewTs, apply.Quality, now, apply.UserID, apply.ProblemID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update review queue item")
	}
	rowsAffected, err = result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read rows affected")
	}
	if rowsAffected == 0 {
		return store.ErrNotFound
	}

	return errors.Wrap(tx.Commit(), "failed to commit review")
}
