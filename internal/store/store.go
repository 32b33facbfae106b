package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/spigell/cv-screener/internal/candidates"
)

//go:embed schema.sql
var schema string

// Open connects to Postgres and checks the connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate creates the tables when they do not exist.
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// SaveCandidate stores the candidate profile under the candidate ID.
func (q *Queries) SaveCandidate(ctx context.Context, c *candidates.Candidate) error {
	if c == nil || c.Profile == nil {
		return fmt.Errorf("candidate profile is required")
	}

	id, err := uuid.Parse(c.ID)
	if err != nil {
		return fmt.Errorf("candidate id %q: %w", c.ID, err)
	}

	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal candidate: %w", err)
	}

	return q.UpsertProfile(ctx, UpsertProfileParams{
		ID:              id,
		ResumeName:      c.ResumeName,
		Profile:         payload,
		TotalScore:      int32(c.Profile.TotalScore()),
		BestSuitedSkill: c.Profile.BestSuitedSkill,
	})
}
