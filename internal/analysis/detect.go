package analysis

import (
	"strings"

	"github.com/spigell/cv-screener/internal/skills"
)

// Detection holds the skills found in a document.
type Detection struct {
	// Skills are canonical names in catalog order.
	Skills []string `json:"skills"`
	// Subskills has an entry for every catalog skill, found or not.
	Subskills map[string][]string `json:"subskills"`
}

// Has reports whether skill was detected, ignoring case.
func (d Detection) Has(skill string) bool {
	for _, s := range d.Skills {
		if strings.EqualFold(s, skill) {
			return true
		}
	}
	return false
}

// SubskillsOf returns the sub-skills of skill found in the text.
func (d Detection) SubskillsOf(skill string) []string {
	return d.Subskills[skill]
}

// Detect finds top-level skills and, for every catalog skill, its sub-skills.
func Detect(text string, catalog *skills.Catalog) Detection {
	d := Detection{
		Skills:    DetectSkills(text, catalog),
		Subskills: make(map[string][]string, catalog.Len()),
	}
	for _, name := range catalog.Names() {
		d.Subskills[name] = DetectSubskills(text, catalog, name)
	}
	return d
}

// DetectSkills returns the canonical names whose name or alias occurs as a whole word.
// Matching is case-sensitive; each canonical name appears at most once.
func DetectSkills(text string, catalog *skills.Catalog) []string {
	found := make([]string, 0)
	for _, entry := range catalog.Entries() {
		for _, form := range entry.Forms() {
			if containsWord(text, form) {
				found = append(found, entry.Name)
				break
			}
		}
	}
	return found
}

// DetectSubskills returns the sub-skills of skill that literally occur in text.
// A skill missing from the catalog yields an empty result.
func DetectSubskills(text string, catalog *skills.Catalog, skill string) []string {
	found := make([]string, 0)
	for _, sub := range catalog.Subskills(skill) {
		if strings.Contains(text, sub) {
			found = append(found, sub)
		}
	}
	return found
}

// containsWord reports whether form occurs in text with no word character
// directly before or after it.
func containsWord(text, form string) bool {
	if form == "" {
		return false
	}
	for offset := 0; offset <= len(text)-len(form); {
		idx := strings.Index(text[offset:], form)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(form)
		if (start == 0 || !isWordByte(text[start-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		offset = start + 1
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' ||
		('0' <= b && b <= '9') ||
		('a' <= b && b <= 'z') ||
		('A' <= b && b <= 'Z')
}
