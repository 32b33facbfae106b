package analysis

import (
	"strings"

	"github.com/spigell/cv-screener/internal/skills"
)

const (
	maxScore = 100

	skillPoints         = 10
	subskillPoints      = 10
	projectPoints       = 20
	certificationPoints = 15
)

// SkillScore is the final score of one catalog skill.
type SkillScore struct {
	Skill string `json:"skill"`
	Score int    `json:"score"`
}

// ScoreBreakdown lists per-skill scores in catalog order with the capped total.
type ScoreBreakdown struct {
	Scores []SkillScore `json:"scores"`
	Total  int          `json:"total"`
}

// Map returns the scores keyed by skill name.
func (b ScoreBreakdown) Map() map[string]int {
	m := make(map[string]int, len(b.Scores))
	for _, s := range b.Scores {
		m[s.Skill] = s.Score
	}
	return m
}

// Get returns the score of skill and whether it was scored at all.
func (b ScoreBreakdown) Get(skill string) (int, bool) {
	for _, s := range b.Scores {
		if s.Skill == skill {
			return s.Score, true
		}
	}
	return 0, false
}

// BestSuited returns the skill with the highest score. Ties keep the
// earlier skill, so equal scores report the first skill in catalog order.
func (b ScoreBreakdown) BestSuited() string {
	if len(b.Scores) == 0 {
		return ""
	}
	best := b.Scores[0]
	for _, s := range b.Scores[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	return best.Skill
}

// Contribution is one scoring rule applied to a skill. It is reported through
// the optional observer passed to Score.
type Contribution struct {
	Skill  string
	Rule   string
	Points int
}

// Score rates every catalog skill against the detection, projects and
// certifications of a document.
func Score(catalog *skills.Catalog, detection Detection, projects []Project, certs []string, observe func(Contribution)) ScoreBreakdown {
	if observe == nil {
		observe = func(Contribution) {}
	}

	lowerCerts := make([]string, 0, len(certs))
	for _, c := range certs {
		lowerCerts = append(lowerCerts, strings.ToLower(c))
	}

	breakdown := ScoreBreakdown{Scores: make([]SkillScore, 0, catalog.Len())}
	sum := 0
	for _, skill := range catalog.Names() {
		score := scoreSkill(skill, detection, projects, lowerCerts, observe)
		breakdown.Scores = append(breakdown.Scores, SkillScore{Skill: skill, Score: score})
		sum += score
	}
	breakdown.Total = clamp(sum, 0, maxScore)

	return breakdown
}

func scoreSkill(skill string, detection Detection, projects []Project, lowerCerts []string, observe func(Contribution)) int {
	score := 0
	add := func(rule string, points int) {
		score += points
		observe(Contribution{Skill: skill, Rule: rule, Points: points})
	}

	if detection.Has(skill) {
		add("skill", skillPoints)
	}

	subs := distinct(detection.SubskillsOf(skill))
	for range subs {
		add("subskill", subskillPoints)
	}

	lowerSkill := strings.ToLower(skill)
	lowerSubs := make([]string, 0, len(subs))
	for _, s := range subs {
		lowerSubs = append(lowerSubs, strings.ToLower(s))
	}

	for _, p := range projects {
		if projectMentions(p.searchText(), lowerSkill, lowerSubs) {
			add("project", projectPoints)
		}
	}

	if score > 0 {
		for _, c := range lowerCerts {
			if strings.Contains(c, lowerSkill) {
				add("certification", certificationPoints)
				break
			}
		}
	}

	return clamp(score, 0, maxScore)
}

func projectMentions(text, skill string, subs []string) bool {
	if strings.Contains(text, skill) {
		return true
	}
	for _, s := range subs {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}

func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
