package postgres

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/kataforge/kataforge/store"
)

func (d *DB) CreateAchievement(ctx context.Context, create *store.Achievement) (*store.Achievement, error) {
	fields := []string{"uid", "name", "description", "criteria_kind", "criteria_threshold", "xp_reward"}
	args := []any{
		create.UID, create.Name, create.Description,
		create.Criteria.Kind, create.Criteria.Threshold, create.XPReward,
	}

	stmt := `INSERT INTO achievement (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, created_ts`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.CreatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create achievement")
	}

	return create, nil
}

func (d *DB) ListAchievements(ctx context.Context, find *store.FindAchievement) ([]*store.Achievement, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "achievement.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "achievement.uid = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, uid, name, description, criteria_kind, criteria_threshold, xp_reward, created_ts
		FROM achievement
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY achievement.id ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query achievements")
	}
	defer rows.Close()

	list := make([]*store.Achievement, 0)
	for rows.Next() {
		var achievement store.Achievement
		if err := rows.Scan(
			&achievement.ID,
			&achievement.UID,
			&achievement.Name,
			&achievement.Description,
			&achievement.Criteria.Kind,
			&achievement.Criteria.Threshold,
			&achievement.XPReward,
			&achievement.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan achievement")
		}
		list = append(list, &achievement)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate achievements")
	}

	return list, nil
}

func (d *DB) CreateAchievementUnlock(ctx context.Context, create *store.AchievementUnlock) (bool, error) {
	// Conditional insert: the unique (user_id, achievement_id) constraint is
	// the duplicate guard under concurrent sweeps.
	result, err := d.db.ExecContext(ctx, `
		INSERT INTO achievement_unlock (user_id, achievement_id)
		VALUES ($1, $2)
		ON CONFLICT(user_id, achievement_id) DO NOTHING`,
		create.UserID, create.AchievementID,
	)
	if err != nil {
		return false, errors.Wrap(err, "failed to create achievement unlock")
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to read rows affected")
	}
	return rowsAffected > 0, nil
}

func (d *DB) ListAchievementUnlocks(ctx context.Context, find *store.FindAchievementUnlock) ([]*store.AchievementUnlock, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.UserID; v != nil {
		where, args = append(where, "achievement_unlock.user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.AchievementID; v != nil {
		where, args = append(where, "achievement_unlock.achievement_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, user_id, achievement_id, unlocked_ts
		FROM achievement_unlock
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY achievement_unlock.id ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query achievement unlocks")
	}
	defer rows.Close()

	list := make([]*store.AchievementUnlock, 0)
	for rows.Next() {
		var unlock store.AchievementUnlock
		if err := rows.Scan(
			&unlock.ID,
			&unlock.UserID,
			&unlock.AchievementID,
			&unlock.UnlockedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan achievement unlock")
		}
		list = append(list, &unlock)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate achievement unlocks")
	}

	return list, nil
}

func (d *DB) GetUserMetrics(ctx context.Context, userID int32) (*store.UserMetrics, error) {
	metrics := &store.UserMetrics{UserID: userID}

	err := d.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN problem.difficulty = 'HARD' THEN 1 ELSE 0 END), 0)
		FROM progress
		JOIN problem ON problem.id = progress.problem_id
		WHERE progress.user_id = $1 AND progress.status = 'SOLVED'`,
		userID,
	).Scan(&metrics.ProblemsSolved, &metrics.HardProblemsSolved)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute solve metrics")
	}

	err = d.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(current_streak), 0), COALESCE(MAX(longest_streak), 0)
		FROM user_engagement
		WHERE user_id = $1`,
		userID,
	).Scan(&metrics.CurrentStreak, &metrics.LongestStreak)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute streak metrics")
	}

	return metrics, nil
}
