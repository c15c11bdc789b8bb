package postgres

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/kataforge/kataforge/store"
)

func (d *DB) CreateProblem(ctx context.Context, create *store.Problem) (*store.Problem, error) {
	fields := []string{"uid", "title", "difficulty"}
	args := []any{create.UID, create.Title, create.Difficulty}

	stmt := `INSERT INTO problem (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, created_ts`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.CreatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create problem")
	}

	return create, nil
}

func (d *DB) ListProblems(ctx context.Context, find *store.FindProblem) ([]*store.Problem, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "problem.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "problem.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Difficulty; v != nil {
		where, args = append(where, "problem.difficulty = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT id, uid, title, difficulty, created_ts FROM problem
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY problem.id ASC`
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
		return nil, errors.Wrap(err, "failed to query problems")
	}
	defer rows.Close()

	list := make([]*store.Problem, 0)
	for rows.Next() {
		var problem store.Problem
		if err := rows.Scan(
			&problem.ID,
			&problem.UID,
			&problem.Title,
			&problem.Difficulty,
			&problem.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan problem")
		}
		list = append(list, &problem)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate problems")
	}

	return list, nil
}
