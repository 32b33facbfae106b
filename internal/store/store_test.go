package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/spigell/cv-screener/internal/analysis"
	"github.com/spigell/cv-screener/internal/candidates"
)

type execCall struct {
	query string
	args  []interface{}
}

type fakeDB struct {
	calls []execCall
	err   error
}

func (f *fakeDB) ExecContext(_ context.Context, query string, args ...interface{}) (sql.Result, error) {
	f.calls = append(f.calls, execCall{query: query, args: args})
	return nil, f.err
}

func (f *fakeDB) PrepareContext(context.Context, string) (*sql.Stmt, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDB) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDB) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	return nil
}

func TestSaveCandidate(t *testing.T) {
	profile, err := analysis.New(nil, nil).Analyze("Java developer with JDBC and Spring Boot.")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	candidate := candidates.New("jane.pdf", profile)

	db := &fakeDB{}
	if err := New(db).SaveCandidate(context.Background(), candidate); err != nil {
		t.Fatalf("save: %v", err)
	}

	if len(db.calls) != 1 {
		t.Fatalf("expected 1 exec, got %d", len(db.calls))
	}
	call := db.calls[0]
	if !strings.Contains(call.query, "INSERT INTO profiles") {
		t.Fatalf("unexpected query: %s", call.query)
	}
	if call.args[0] != uuid.MustParse(candidate.ID) || call.args[1] != "jane.pdf" {
		t.Fatalf("unexpected key args: %v", call.args[:2])
	}
	if call.args[3] != int32(30) || call.args[4] != "Java" {
		t.Fatalf("unexpected score args: %v", call.args[3:])
	}

	var stored candidates.Candidate
	if err := json.Unmarshal(call.args[2].(json.RawMessage), &stored); err != nil {
		t.Fatalf("stored payload is not a candidate: %v", err)
	}
	if stored.Profile.BestSuitedSkill != "Java" || stored.Profile.Education.Get(analysis.LevelUG) != analysis.NotMentioned {
		t.Fatalf("unexpected stored profile: %+v", stored.Profile)
	}
}

func TestSaveCandidateErrors(t *testing.T) {
	q := New(&fakeDB{err: errors.New("connection refused")})

	if err := q.SaveCandidate(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil candidate")
	}
	if err := q.SaveCandidate(context.Background(), &candidates.Candidate{ID: "nope", Profile: &analysis.Profile{}}); err == nil {
		t.Fatalf("expected error for invalid id")
	}
	err := q.SaveCandidate(context.Background(), candidates.New("a.txt", &analysis.Profile{}))
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected database error, got %v", err)
	}
}

func TestMigrate(t *testing.T) {
	db := &fakeDB{}
	if err := Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if len(db.calls) != 1 || !strings.Contains(db.calls[0].query, "CREATE TABLE IF NOT EXISTS profiles") {
		t.Fatalf("unexpected migration calls: %+v", db.calls)
	}
}
