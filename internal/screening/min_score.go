package screening

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/candidates"
)

// DefaultMinimumSkillScore keeps candidates evidencing at least one skill.
const DefaultMinimumSkillScore = 10

type minSkillScoreFilter struct {
	disabled  bool
	reason    string
	threshold int
}

// NewMinSkillScore creates a filter that removes candidates whose best skill score is under the threshold.
func NewMinSkillScore() Filter {
	return &minSkillScoreFilter{threshold: DefaultMinimumSkillScore}
}

func (f *minSkillScoreFilter) Name() string { return "min_skill_score" }

func (f *minSkillScoreFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *minSkillScoreFilter) IsEnabled() bool { return !f.disabled }

func (f *minSkillScoreFilter) Validate(cfg *Config) error {
	f.threshold = DefaultMinimumSkillScore
	if cfg != nil && cfg.MinimumSkillScore > 0 {
		f.threshold = cfg.MinimumSkillScore
	}
	return nil
}

func (f *minSkillScoreFilter) Apply(_ context.Context, deps Deps, c *candidates.Candidates) (*candidates.Candidates, Step, error) {
	initial := c.Len()
	excluded := c.Keep(func(candidate *candidates.Candidate) bool {
		return candidate.Profile != nil && candidate.Profile.MaxSkillScore() >= f.threshold
	})
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Info("excluding candidates below the minimum skill score",
			zap.Int("threshold", f.threshold),
			zap.Strings("excluded_candidates", excluded),
			zap.Int("candidates_left", c.Len()),
		)
	}

	return c, Step{Initial: initial, Dropped: len(excluded), Left: c.Len()}, nil
}

func (f *minSkillScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"threshold": strconv.Itoa(f.threshold)},
	}
}
