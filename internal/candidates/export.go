package candidates

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

var csvHeaders = []string{"Name", "Email", "Phone", "Best Suited Skill", "Resume Name"}

// SkillColumns returns every scored skill across candidates in first-seen order.
func (c *Candidates) SkillColumns() []string {
	seen := make(map[string]struct{})
	columns := make([]string, 0)
	for _, candidate := range c.Items {
		if candidate.Profile == nil {
			continue
		}
		for _, s := range candidate.Profile.Scores.Scores {
			if _, ok := seen[s.Skill]; ok {
				continue
			}
			seen[s.Skill] = struct{}{}
			columns = append(columns, s.Skill)
		}
	}
	return columns
}

// WriteCSV writes one row per candidate with a score column per skill.
// Skills a candidate was not scored on are written as 0.
func (c *Candidates) WriteCSV(w io.Writer) error {
	columns := c.SkillColumns()

	writer := csv.NewWriter(w)
	header := append(append([]string{}, csvHeaders...), columns...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, candidate := range c.Items {
		p := candidate.Profile
		if p == nil {
			continue
		}
		row := []string{p.Name, p.Email, p.Phone, p.BestSuitedSkill, candidate.ResumeName}
		for _, skill := range columns {
			row = append(row, strconv.Itoa(p.SkillScore(skill)))
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row for %s: %w", candidate.ID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// ExportCSV writes the candidates to path.
func (c *Candidates) ExportCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := c.WriteCSV(file); err != nil {
		return err
	}
	return file.Close()
}
