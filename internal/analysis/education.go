package analysis

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Education levels, in the order they are reported.
const (
	LevelTenth   = "10th"
	LevelTwelfth = "12th"
	LevelUG      = "UG"
	LevelPG      = "PG"
)

// EducationEntry is the score found for one level.
type EducationEntry struct {
	Level string `json:"level"`
	Value string `json:"value"`
}

// Education always holds one entry per level, in level order.
type Education []EducationEntry

// Get returns the value for level, or NotMentioned.
func (e Education) Get(level string) string {
	for _, entry := range e {
		if entry.Level == level {
			return entry.Value
		}
	}
	return NotMentioned
}

// MarshalJSON renders the entries as a level -> value object.
func (e Education) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, entry := range e {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(entry.Level)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(entry.Value)
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		b.Write(value)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// UnmarshalJSON accepts the object produced by MarshalJSON. Levels keep the
// fixed order and missing ones become NotMentioned.
func (e *Education) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Education, 0, len(educationLevels))
	for _, level := range educationLevels {
		value, ok := raw[level.name]
		if !ok {
			value = NotMentioned
		}
		out = append(out, EducationEntry{Level: level.name, Value: value})
	}
	*e = out
	return nil
}

// educationValue is a percentage or a CGPA figure.
const educationValue = `(\b(?:100|\d{1,2}(?:\.\d{1,2})?)%|\b\d\.\d{1,2}\s*CGPA)`

// schoolGap is the text allowed between a school keyword and its value. It
// may not contain characters of another level's keyword, so "10th 12th 90%"
// does not credit 90% to the 10th.
const schoolGap = `[^10th12thUGPG]*?`

type educationLevel struct {
	name    string
	pattern *regexp.Regexp
}

var educationLevels = []educationLevel{
	{name: LevelTenth, pattern: regexp.MustCompile(`(?i)(?:Matric|Senior\s*Secondary|10th)` + schoolGap + educationValue)},
	{name: LevelTwelfth, pattern: regexp.MustCompile(`(?i)(?:Higher\s*Secondary|10\+2|12th)` + schoolGap + educationValue)},
	{name: LevelUG, pattern: regexp.MustCompile(`(?i)\bBachelors?\b[\s\S]*?` + educationValue)},
	{name: LevelPG, pattern: regexp.MustCompile(`(?i)\bMasters?\b[\s\S]*?` + educationValue)},
}

// ExtractEducation finds a percentage or CGPA for each education level. Each
// level is matched on its own, from its keyword to the first value after it.
func ExtractEducation(text string) Education {
	result := make(Education, 0, len(educationLevels))
	for _, level := range educationLevels {
		value := NotMentioned
		if m := level.pattern.FindStringSubmatch(text); m != nil {
			value = strings.TrimSpace(m[1])
		}
		result = append(result, EducationEntry{Level: level.name, Value: value})
	}
	return result
}
