package screening

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/candidates"
	log "github.com/spigell/cv-screener/internal/logger"
)

type aiReviewFilter struct {
	disabled    bool
	reason      string
	config      *AIConfig
	assessments map[string]*ai.Assessment
}

// NewAIReview creates the AI-based screening step.
func NewAIReview() Filter {
	return &aiReviewFilter{}
}

func (f *aiReviewFilter) Name() string { return "ai_review" }

func (f *aiReviewFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *aiReviewFilter) IsEnabled() bool { return !f.disabled }

func (f *aiReviewFilter) Validate(cfg *Config) error {
	f.config = nil
	if cfg != nil {
		f.config = cfg.AI
	}
	if !f.IsEnabled() {
		return nil
	}
	if cfg == nil || cfg.AI == nil {
		return fmt.Errorf("ai configuration is required when ai filter is enabled")
	}
	if strings.TrimSpace(cfg.AI.JobDescription) == "" {
		return fmt.Errorf("job description is required when ai filter is enabled")
	}
	if cfg.AI.Gemini == nil {
		return fmt.Errorf("gemini configuration is required when ai filter is enabled")
	}
	return nil
}

func (f *aiReviewFilter) Apply(ctx context.Context, deps Deps, c *candidates.Candidates) (*candidates.Candidates, Step, error) {
	initial := c.Len()
	if deps.Reviewer == nil {
		if deps.Logger != nil {
			deps.Logger.Info("ai reviewer is not configured; skipping ai_review filter")
		}
		return c, Step{Initial: initial, Dropped: 0, Left: c.Len()}, nil
	}

	assessments, err := reviewCandidates(ctx, deps.Logger, deps.Reviewer, f.config.JobDescription, c)
	if err != nil {
		return c, Step{}, err
	}

	f.assessments = assessments

	left := c.Len()
	return c, Step{Initial: initial, Dropped: initial - left, Left: left}, nil
}

func (f *aiReviewFilter) Assessments() map[string]*ai.Assessment {
	if f.assessments == nil {
		return map[string]*ai.Assessment{}
	}
	return f.assessments
}

func (f *aiReviewFilter) Status() Status {
	details := map[string]string{}
	if f.config != nil {
		details["minimum_fit_score"] = fmt.Sprintf("%.2f", f.config.MinimumFitScore)
		if f.config.Gemini != nil {
			details["model"] = f.config.Gemini.Model
			details["max_retries"] = strconv.Itoa(f.config.Gemini.MaxRetries)
			details["max_log_length"] = strconv.Itoa(f.config.Gemini.MaxLogLength)
		}
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

func reviewCandidates(ctx context.Context, logger *zap.Logger, reviewer ai.Reviewer, jobDescription string, c *candidates.Candidates) (map[string]*ai.Assessment, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	initial := c.Len()
	approved := make([]*candidates.Candidate, 0, initial)
	assessments := make(map[string]*ai.Assessment)

	for _, candidate := range c.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidateLog := log.WithFields(logger, log.CandidateFields(candidate.ID, candidate.ResumeName)...)

		assessment, err := reviewer.Review(ctx, candidate.Profile, jobDescription)
		if err != nil {
			candidateLog.Warn("AI review failed", zap.Error(err))
			candidate.AI = &candidates.AIAssessment{Error: err.Error()}
			approved = append(approved, candidate)
			continue
		}

		if !assessment.Fit {
			candidateLog.Info("candidate rejected by AI provider",
				zap.Float64("ai_score", assessment.Score),
				zap.String("reason", assessment.Reason),
			)
			continue
		}

		candidateLog.Info("candidate approved by AI", zap.Float64("ai_score", assessment.Score))

		candidate.AI = &candidates.AIAssessment{
			Fit:     assessment.Fit,
			Score:   assessment.Score,
			Reason:  assessment.Reason,
			Message: assessment.Message,
			Raw:     assessment.Raw,
		}
		approved = append(approved, candidate)
		assessments[candidate.ID] = assessment
	}

	c.Items = approved

	if initial != len(approved) {
		logger.Info("AI screening completed",
			zap.Int("initial_candidates", initial),
			zap.Int("approved_candidates", len(approved)),
		)
	}

	return assessments, nil
}
