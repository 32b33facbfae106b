package analysis

import (
	"regexp"
	"strings"
)

// Project is one "<title> | <skills used> <year>" record.
type Project struct {
	Title      string `json:"title"`
	SkillsUsed string `json:"skills_used"`
	Year       string `json:"year"`
	// Description is never filled by ExtractProjects; collaborators may set it
	// before scoring and it is then matched like the other fields.
	Description string `json:"description,omitempty"`
}

var projectRe = regexp.MustCompile(`([A-Za-z0-9\s\-_]+?)\s*\|\s*(.*?)\s*\b(\d{4})\b`)

// ExtractProjects returns the project records in document order.
func ExtractProjects(text string) []Project {
	projects := make([]Project, 0)
	for _, m := range projectRe.FindAllStringSubmatch(text, -1) {
		projects = append(projects, Project{
			Title:      strings.TrimSpace(m[1]),
			SkillsUsed: strings.TrimSpace(strings.TrimRight(strings.TrimSpace(m[2]), "|")),
			Year:       m[3],
		})
	}
	return projects
}

// searchText is the lowercase text a project is matched against when scoring.
func (p Project) searchText() string {
	parts := []string{p.Title, p.SkillsUsed}
	if p.Description != "" {
		parts = append(parts, p.Description)
	}
	return strings.ToLower(strings.Join(parts, " "))
}
