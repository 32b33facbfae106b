package candidates

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spigell/cv-screener/internal/analysis"
)

const (
	CandidateIDField    = "ID"
	CandidateEmailField = "Email"
)

type Candidates struct {
	Items []*Candidate
}

type Candidate struct {
	ID         string            `json:"id"`
	ResumeName string            `json:"resume_name"`
	Profile    *analysis.Profile `json:"profile"`
	AI         *AIAssessment     `json:"ai,omitempty"`
}

// AIAssessment is the outcome of an optional AI review. Error is set when the
// review failed and the candidate was kept unreviewed.
type AIAssessment struct {
	Fit     bool    `json:"fit"`
	Score   float64 `json:"score"`
	Reason  string  `json:"reason,omitempty"`
	Message string  `json:"message,omitempty"`
	Raw     string  `json:"raw,omitempty"`
	Error   string  `json:"error,omitempty"`
}

type ExcludedCandidates struct {
	Items []*ExcludedCandidate
}

type ExcludedCandidate struct {
	ID         string
	Email      string
	Name       string
	ResumeName string
	ExcludedAt time.Time
}

// New wraps profile into a candidate with a fresh ID.
func New(resumeName string, profile *analysis.Profile) *Candidate {
	return &Candidate{
		ID:         uuid.NewString(),
		ResumeName: resumeName,
		Profile:    profile,
	}
}

func (c *Candidates) Add(candidate *Candidate) {
	c.Items = append(c.Items, candidate)
}

func (c *Candidates) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "candidates_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return "", err
	}
	return file.Name(), nil
}

func (c *Candidates) ToExcluded() *ExcludedCandidates {
	excluded := &ExcludedCandidates{}
	for _, candidate := range c.Items {
		name := ""
		if candidate.Profile != nil {
			name = candidate.Profile.Name
		}
		excluded.Items = append(excluded.Items, &ExcludedCandidate{
			ID:         candidate.ID,
			Email:      candidate.GetStringField(CandidateEmailField),
			Name:       name,
			ResumeName: candidate.ResumeName,
			ExcludedAt: time.Now().UTC(),
		})
	}
	return excluded
}

// GetExcludedCandidatesFromFile reads an exclude file. A missing or empty
// file yields an empty list.
func GetExcludedCandidatesFromFile(path string) (*ExcludedCandidates, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ExcludedCandidates{}, nil
		}
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedCandidates{}, nil
	}

	var excluded ExcludedCandidates
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

func (e *ExcludedCandidates) Append(s *ExcludedCandidates) {
	e.Items = append(e.Items, s.Items...)
}

// Emails returns the known e-mail addresses of excluded candidates.
func (e *ExcludedCandidates) Emails() []string {
	emails := make([]string, 0)
	for _, candidate := range e.Items {
		if candidate.Email == "" || candidate.Email == analysis.NotMentioned {
			continue
		}
		emails = append(emails, candidate.Email)
	}
	return emails
}

func (e *ExcludedCandidates) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return err
	}
	return nil
}

func (c *Candidate) GetStringField(name string) string {
	if c.Profile == nil {
		if name == CandidateIDField {
			return c.ID
		}
		return ""
	}

	switch name {
	case CandidateIDField:
		return c.ID
	case CandidateEmailField:
		return strings.ToLower(c.Profile.Email)

	default:
		return ""
	}
}

// ReportBySkill groups candidates by their best-suited skill.
func (c *Candidates) ReportBySkill() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, candidate := range c.Items {
		p := candidate.Profile
		key := fmt.Sprintf("%s (%d)", p.BestSuitedSkill, p.SkillScore(p.BestSuitedSkill))
		entry := map[string]string{
			"name":        p.Name,
			"email":       p.Email,
			"phone":       p.Phone,
			"institution": p.Institution,
			"resume":      candidate.ResumeName,
			"skills":      strings.Join(p.Skills, ", "),
			"total_score": strconv.Itoa(p.TotalScore()),
		}
		if ai := candidate.AI; ai != nil {
			if ai.Error != "" {
				entry["ai_error"] = ai.Error
			} else {
				entry["ai_fit"] = strconv.FormatBool(ai.Fit)
				entry["ai_score"] = strconv.FormatFloat(ai.Score, 'f', -1, 64)
				if ai.Reason != "" {
					entry["ai_reason"] = ai.Reason
				}
				if ai.Message != "" {
					entry["ai_message"] = ai.Message
				}
			}
		}
		report[key] = append(report[key], entry)
	}
	return report
}

func (c *Candidates) Len() int {
	return len(c.Items)
}

func (c *Candidates) FindByID(id string) *Candidate {
	for _, candidate := range c.Items {
		if candidate.ID == id {
			return candidate
		}
	}
	return nil
}

// Exclude removes every candidate whose field matches one of targets and
// returns the removed IDs. Sentinel values never match.
func (c *Candidates) Exclude(name string, targets []string) []string {
	wanted := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		target = strings.TrimSpace(target)
		if name == CandidateEmailField {
			target = strings.ToLower(target)
		}
		if target == "" || strings.EqualFold(target, analysis.NotMentioned) {
			continue
		}
		wanted[target] = struct{}{}
	}

	var excluded []string
	kept := c.Items[:0]
	for _, candidate := range c.Items {
		if _, ok := wanted[candidate.GetStringField(name)]; ok {
			excluded = append(excluded, candidate.ID)
			continue
		}
		kept = append(kept, candidate)
	}
	c.Items = kept
	return excluded
}

// Keep retains the candidates accepted by keep and returns the removed IDs.
func (c *Candidates) Keep(keep func(*Candidate) bool) []string {
	var removed []string
	kept := c.Items[:0]
	for _, candidate := range c.Items {
		if keep(candidate) {
			kept = append(kept, candidate)
			continue
		}
		removed = append(removed, candidate.ID)
	}
	c.Items = kept
	return removed
}
