package store

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

const upsertProfile = `-- name: UpsertProfile :exec
INSERT INTO profiles (
id, resume_name, profile, total_score, best_suited_skill)
VALUES ( $1, $2, $3, $4, $5)
ON CONFLICT (id)
DO UPDATE SET
    resume_name = EXCLUDED.resume_name,
    profile = EXCLUDED.profile,
    total_score = EXCLUDED.total_score,
    best_suited_skill = EXCLUDED.best_suited_skill,
    updated_at = CURRENT_TIMESTAMP
`

type UpsertProfileParams struct {
	ID              uuid.UUID
	ResumeName      string
	Profile         json.RawMessage
	TotalScore      int32
	BestSuitedSkill string
}

func (q *Queries) UpsertProfile(ctx context.Context, arg UpsertProfileParams) error {
	_, err := q.db.ExecContext(ctx, upsertProfile,
		arg.ID,
		arg.ResumeName,
		arg.Profile,
		arg.TotalScore,
		arg.BestSuitedSkill,
	)
	return err
}

const getProfile = `-- name: GetProfile :one
SELECT id, resume_name, profile, total_score, best_suited_skill, created_at, updated_at FROM profiles
WHERE id = $1
`

func (q *Queries) GetProfile(ctx context.Context, id uuid.UUID) (Profile, error) {
	row := q.db.QueryRowContext(ctx, getProfile, id)
	var i Profile
	err := row.Scan(
		&i.ID,
		&i.ResumeName,
		&i.Profile,
		&i.TotalScore,
		&i.BestSuitedSkill,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listProfilesBySkill = `-- name: ListProfilesBySkill :many
SELECT id, resume_name, profile, total_score, best_suited_skill, created_at, updated_at FROM profiles
WHERE best_suited_skill = $1
ORDER BY total_score DESC, created_at
`

func (q *Queries) ListProfilesBySkill(ctx context.Context, bestSuitedSkill string) ([]Profile, error) {
	rows, err := q.db.QueryContext(ctx, listProfilesBySkill, bestSuitedSkill)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Profile
	for rows.Next() {
		var i Profile
		if err := rows.Scan(
			&i.ID,
			&i.ResumeName,
			&i.Profile,
			&i.TotalScore,
			&i.BestSuitedSkill,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
