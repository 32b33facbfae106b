package analysis

// Profile is the structured result of analyzing one document. Every field is
// populated; absent values carry the package sentinels.
type Profile struct {
	Text            string              `json:"text"`
	Name            string              `json:"name"`
	Email           string              `json:"email"`
	Phone           string              `json:"phone"`
	Institution     string              `json:"institution"`
	Skills          []string            `json:"skills"`
	Subskills       map[string][]string `json:"subskills"`
	Projects        []Project           `json:"projects"`
	Certifications  []string            `json:"certifications"`
	Education       Education           `json:"education"`
	Scores          ScoreBreakdown      `json:"scores"`
	BestSuitedSkill string              `json:"best_suited_skill"`
}

// TotalScore is a shortcut for Scores.Total.
func (p *Profile) TotalScore() int {
	return p.Scores.Total
}

// SkillScore returns the score of skill, or 0 when it was not scored.
func (p *Profile) SkillScore(skill string) int {
	score, _ := p.Scores.Get(skill)
	return score
}

// MaxSkillScore returns the highest per-skill score.
func (p *Profile) MaxSkillScore() int {
	best := 0
	for _, s := range p.Scores.Scores {
		if s.Score > best {
			best = s.Score
		}
	}
	return best
}
