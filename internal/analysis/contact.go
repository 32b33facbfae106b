package analysis

import (
	"regexp"
	"strings"
)

const (
	// NotMentioned replaces any value the document does not contain.
	NotMentioned = "Not Mentioned"
	// UnknownName is returned when no name-like run of words is found.
	UnknownName = "Unknown Name"
	// UnknownCollege is returned when no institution is found.
	UnknownCollege = "Unknown College"
)

var (
	emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phoneRe = regexp.MustCompile(`\(?\d{3}\)?[\s-]?\d{3}[\s-]?\d{4}`)

	// Capitalized words ("John Smith") or all-caps words ("JOHN SMITH").
	nameRe = regexp.MustCompile(`\b[A-Z][a-z]+(?: [A-Z][a-z]+)+\b|\b[A-Z]+(?: [A-Z]+)+\b`)
	// An uppercase letter, whitespace, uppercase letter: the last token is a surname fragment.
	nameTailRe = regexp.MustCompile(`[A-Z]\s+[A-Z]`)

	institutionRe = regexp.MustCompile(`(?i)(?:University|College)[\s\S]*?[(,]([\w\s]+?)[),]`)
)

// ExtractEmail returns the first e-mail address or NotMentioned.
func ExtractEmail(text string) string {
	if m := emailRe.FindString(text); m != "" {
		return m
	}
	return NotMentioned
}

// ExtractPhone returns the first 3-3-4 digit phone number or NotMentioned.
func ExtractPhone(text string) string {
	if m := phoneRe.FindString(text); m != "" {
		return m
	}
	return NotMentioned
}

// ExtractName returns the first run of two or more capitalized or all-caps words.
func ExtractName(text string) string {
	full := strings.TrimSpace(nameRe.FindString(text))
	if full == "" {
		return UnknownName
	}

	if nameTailRe.MatchString(full) {
		parts := strings.Split(full, " ")
		return strings.Join(parts[:len(parts)-1], " ")
	}

	return full
}

// ExtractInstitution returns the text enclosed by the first pair of
// parenthesis/comma delimiters after "University" or "College".
func ExtractInstitution(text string) string {
	m := institutionRe.FindStringSubmatch(text)
	if m == nil {
		return UnknownCollege
	}
	if name := strings.TrimSpace(m[1]); name != "" {
		return name
	}
	return UnknownCollege
}
