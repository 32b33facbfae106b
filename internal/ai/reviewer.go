package ai

import (
	"context"

	"github.com/spigell/cv-screener/internal/analysis"
)

// Assessment is a reviewer's verdict on how well a candidate fits a job.
type Assessment struct {
	Fit     bool
	Score   float64
	Reason  string
	Message string
	Raw     string
}

// Reviewer judges an analyzed profile against a job description.
type Reviewer interface {
	Review(ctx context.Context, profile *analysis.Profile, jobDescription string) (*Assessment, error)
}
