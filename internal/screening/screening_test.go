package screening

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/analysis"
	"github.com/spigell/cv-screener/internal/candidates"
)

type fakeReviewer struct {
	results map[string]*ai.Assessment
	errs    map[string]error
	calls   []string
}

func (f *fakeReviewer) Review(_ context.Context, profile *analysis.Profile, _ string) (*ai.Assessment, error) {
	f.calls = append(f.calls, profile.Email)
	if err := f.errs[profile.Email]; err != nil {
		return nil, err
	}
	return f.results[profile.Email], nil
}

func candidate(id, email string, score int) *candidates.Candidate {
	return &candidates.Candidate{
		ID:         id,
		ResumeName: id + ".pdf",
		Profile: &analysis.Profile{
			Email:           email,
			Scores:          analysis.ScoreBreakdown{Scores: []analysis.SkillScore{{Skill: "Go", Score: score}}, Total: score},
			BestSuitedSkill: "Go",
		},
	}
}

func ids(c *candidates.Candidates) []string {
	out := make([]string, 0, c.Len())
	for _, item := range c.Items {
		out = append(out, item.ID)
	}
	return out
}

func aiConfig() *AIConfig {
	return &AIConfig{
		Enabled:        true,
		JobDescription: "Go backend engineer",
		Gemini:         &GeminiConfig{Model: "gemini-2.5-pro", MaxRetries: 3},
	}
}

func TestMinSkillScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		threshold int
		expect    []string
	}{
		{name: "default threshold", threshold: 0, expect: []string{"b", "c"}},
		{name: "custom threshold", threshold: 40, expect: []string{"c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := &candidates.Candidates{Items: []*candidates.Candidate{
				candidate("a", "a@example.com", 0),
				candidate("b", "b@example.com", 10),
				candidate("c", "c@example.com", 45),
			}}
			filter := NewMinSkillScore()
			if err := filter.Validate(&Config{MinimumSkillScore: tt.threshold}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			_, step, err := filter.Apply(context.Background(), Deps{}, c)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := ids(c); !reflect.DeepEqual(got, tt.expect) {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
			if step.Initial != 3 || step.Left != len(tt.expect) || step.Dropped != 3-len(tt.expect) {
				t.Fatalf("unexpected step: %+v", step)
			}
		})
	}
}

func TestExcludeFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "exclude.json")
	excluded := &candidates.ExcludedCandidates{Items: []*candidates.ExcludedCandidate{
		{ID: "old", Email: "B@Example.com", ExcludedAt: time.Now()},
	}}
	if err := excluded.ToFile(path); err != nil {
		t.Fatalf("write exclude file: %v", err)
	}

	c := &candidates.Candidates{Items: []*candidates.Candidate{
		candidate("a", "a@example.com", 10),
		candidate("b", "b@example.com", 10),
	}}

	filter := NewExcludeFile()
	if err := filter.Validate(&Config{ExcludeFile: path}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, step, err := filter.Apply(context.Background(), Deps{}, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ids(c); !reflect.DeepEqual(got, []string{"a"}) {
		t.Fatalf("expected only a to remain, got %v", got)
	}
	if step.Dropped != 1 {
		t.Fatalf("expected one dropped candidate, got %+v", step)
	}
}

func TestExcludeFileMissingPath(t *testing.T) {
	t.Parallel()

	c := &candidates.Candidates{Items: []*candidates.Candidate{candidate("a", "a@example.com", 10)}}
	filter := NewExcludeFile()
	if err := filter.Validate(&Config{ExcludeFile: filepath.Join(t.TempDir(), "missing.json")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := filter.Apply(context.Background(), Deps{}, c); err != nil {
		t.Fatalf("missing exclude file must be treated as empty, got %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("expected candidate to remain")
	}
}

func TestExcludeFileBroken(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	filter := NewExcludeFile()
	if err := filter.Validate(&Config{ExcludeFile: path}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := filter.Apply(context.Background(), Deps{}, &candidates.Candidates{}); err == nil {
		t.Fatalf("expected error for a broken exclude file")
	}
}

func TestAIReviewValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{name: "missing ai section", cfg: &Config{}, wantErr: true},
		{name: "missing job description", cfg: &Config{AI: &AIConfig{Gemini: &GeminiConfig{Model: "m"}}}, wantErr: true},
		{name: "missing gemini", cfg: &Config{AI: &AIConfig{JobDescription: "job"}}, wantErr: true},
		{name: "blank job description", cfg: &Config{AI: &AIConfig{JobDescription: "  ", Gemini: &GeminiConfig{}}}, wantErr: true},
		{name: "valid", cfg: &Config{AI: aiConfig()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := NewAIReview().Validate(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}

	disabled := NewAIReview()
	disabled.Disable("no key")
	if err := disabled.Validate(&Config{}); err != nil {
		t.Fatalf("disabled filter must not validate its config, got %v", err)
	}
}

func TestAIReviewApply(t *testing.T) {
	t.Parallel()

	reviewer := &fakeReviewer{
		results: map[string]*ai.Assessment{
			"a@example.com": {Fit: true, Score: 0.9, Reason: "strong"},
			"b@example.com": {Fit: false, Score: 0.2, Reason: "weak"},
		},
		errs: map[string]error{"c@example.com": errors.New("quota")},
	}

	c := &candidates.Candidates{Items: []*candidates.Candidate{
		candidate("a", "a@example.com", 30),
		candidate("b", "b@example.com", 30),
		candidate("c", "c@example.com", 30),
	}}

	filter := NewAIReview()
	if err := filter.Validate(&Config{AI: aiConfig()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, step, err := filter.Apply(context.Background(), Deps{Reviewer: reviewer}, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := ids(c); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Fatalf("expected a and c to remain, got %v", got)
	}
	if step.Dropped != 1 || step.Left != 2 {
		t.Fatalf("unexpected step: %+v", step)
	}
	if c.Items[0].AI == nil || !c.Items[0].AI.Fit || c.Items[0].AI.Reason != "strong" {
		t.Fatalf("expected approved assessment, got %+v", c.Items[0].AI)
	}
	if c.Items[1].AI == nil || c.Items[1].AI.Error != "quota" {
		t.Fatalf("expected review error to be recorded, got %+v", c.Items[1].AI)
	}

	collector := filter.(interface {
		Assessments() map[string]*ai.Assessment
	})
	if got := collector.Assessments(); len(got) != 1 || got["a"] == nil {
		t.Fatalf("expected one collected assessment, got %v", got)
	}
}

func TestAIReviewWithoutReviewer(t *testing.T) {
	t.Parallel()

	c := &candidates.Candidates{Items: []*candidates.Candidate{candidate("a", "a@example.com", 30)}}
	filter := NewAIReview()
	if err := filter.Validate(&Config{AI: aiConfig()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, step, err := filter.Apply(context.Background(), Deps{}, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if step.Left != 1 || c.Items[0].AI != nil {
		t.Fatalf("expected candidate untouched, got %+v", step)
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.InfoLevel)
	reviewer := &fakeReviewer{results: map[string]*ai.Assessment{
		"c@example.com": {Fit: true, Score: 0.8},
	}}

	c := &candidates.Candidates{Items: []*candidates.Candidate{
		candidate("a", "a@example.com", 0),
		candidate("c", "c@example.com", 50),
	}}

	steps := Default()
	cfg := &Config{AI: aiConfig()}
	result, assessments, err := Run(context.Background(), cfg, Deps{Logger: zap.New(core), Reviewer: reviewer}, steps, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := ids(result); !reflect.DeepEqual(got, []string{"c"}) {
		t.Fatalf("expected only c to remain, got %v", got)
	}
	if !reflect.DeepEqual(reviewer.calls, []string{"c@example.com"}) {
		t.Fatalf("expected AI review only for candidates left, got %v", reviewer.calls)
	}
	if len(assessments) != 1 || assessments["c"] == nil {
		t.Fatalf("unexpected assessments: %v", assessments)
	}
	if observed.FilterMessage("filter step").Len() != 3 {
		t.Fatalf("expected a log entry per step, got %d", observed.FilterMessage("filter step").Len())
	}
}

func TestRunValidationError(t *testing.T) {
	t.Parallel()

	_, _, err := Run(context.Background(), &Config{}, Deps{}, Default(), &candidates.Candidates{})
	if err == nil {
		t.Fatalf("expected validation error for enabled ai_review without config")
	}
}

func TestDisableByNameAndDescribe(t *testing.T) {
	t.Parallel()

	steps := Default()
	DisableByName(steps, "ai_review", "gemini api key is not set")
	if err := steps[0].Validate(&Config{MinimumSkillScore: 25}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	statuses := Describe(steps)
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	if statuses[0].Name != "min_skill_score" || statuses[0].Details["threshold"] != "25" {
		t.Fatalf("unexpected min score status: %+v", statuses[0])
	}
	if statuses[2].Enabled || statuses[2].Reason != "gemini api key is not set" {
		t.Fatalf("expected ai_review disabled with reason, got %+v", statuses[2])
	}

	_, _, err := Run(context.Background(), &Config{}, Deps{}, steps, &candidates.Candidates{})
	if err != nil {
		t.Fatalf("disabled ai_review must not block the pipeline, got %v", err)
	}
}
