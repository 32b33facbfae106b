package analysis

import (
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/skills"
)

// Analyzer turns document text into a Profile. It holds only the read-only
// baseline catalog and is safe for concurrent use.
type Analyzer struct {
	baseline *skills.Catalog
	logger   *zap.Logger
}

// New creates an analyzer over baseline. A nil baseline means skills.Baseline().
func New(baseline *skills.Catalog, logger *zap.Logger) *Analyzer {
	if baseline == nil {
		baseline = skills.Baseline()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{baseline: baseline, logger: logger}
}

// Catalog returns the effective catalog for one call with extra merged in.
func (a *Analyzer) Catalog(extra ...skills.Entry) (*skills.Catalog, error) {
	catalog, err := a.baseline.Merge(extra...)
	if err != nil {
		return nil, &InputError{Field: "skills", Message: "cannot merge catalog", Cause: err}
	}
	return catalog, nil
}

// Analyze extracts every profile field from text. The extra entries extend
// the catalog for this call only.
func (a *Analyzer) Analyze(text string, extra ...skills.Entry) (*Profile, error) {
	if !utf8.ValidString(text) {
		return nil, &InputError{Field: "text", Message: "not valid UTF-8"}
	}

	catalog, err := a.Catalog(extra...)
	if err != nil {
		return nil, err
	}

	text = normalize(text)

	detection := Detect(text, catalog)
	projects := ExtractProjects(text)
	certs := ExtractCertifications(text)

	scores := Score(catalog, detection, projects, certs, func(c Contribution) {
		a.logger.Debug("score contribution",
			zap.String("skill", c.Skill),
			zap.String("rule", c.Rule),
			zap.Int("points", c.Points),
		)
	})

	profile := &Profile{
		Text:            text,
		Name:            ExtractName(text),
		Email:           ExtractEmail(text),
		Phone:           ExtractPhone(text),
		Institution:     ExtractInstitution(text),
		Skills:          detection.Skills,
		Subskills:       detection.Subskills,
		Projects:        projects,
		Certifications:  certs,
		Education:       ExtractEducation(text),
		Scores:          scores,
		BestSuitedSkill: scores.BestSuited(),
	}

	a.logger.Debug("document analyzed",
		zap.Strings("skills", profile.Skills),
		zap.Int("total_score", scores.Total),
		zap.String("best_suited_skill", profile.BestSuitedSkill),
	)

	return profile, nil
}

// normalize is the identity: decoders already hand over plain text.
func normalize(text string) string {
	return text
}
