package skills

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalidEntry is returned when a catalog entry cannot be accepted.
var ErrInvalidEntry = errors.New("invalid catalog entry")

// Entry is a recognized top-level skill with its sub-skill vocabulary.
// Aliases are extra surface forms that fold into Name during detection.
type Entry struct {
	Name      string   `mapstructure:"name" json:"name"`
	Subskills []string `mapstructure:"subskills" json:"subskills,omitempty"`
	Aliases   []string `mapstructure:"aliases" json:"aliases,omitempty"`
}

// Forms returns every surface form that detects the entry: the name first, then aliases.
func (e Entry) Forms() []string {
	forms := make([]string, 0, len(e.Aliases)+1)
	forms = append(forms, e.Name)
	for _, alias := range e.Aliases {
		if !slices.Contains(forms, alias) {
			forms = append(forms, alias)
		}
	}
	return forms
}

func (e Entry) clone() Entry {
	return Entry{
		Name:      e.Name,
		Subskills: slices.Clone(e.Subskills),
		Aliases:   slices.Clone(e.Aliases),
	}
}

// Catalog is an ordered, read-only set of skill entries.
// The order is the declaration order and decides best-suited skill ties.
type Catalog struct {
	entries []Entry
}

// baselineEntries is never handed out directly; Baseline copies it.
var baselineEntries = []Entry{
	{
		Name: "Java",
		Subskills: []string{
			"Core Java", "Java 8", "Collections", "JDBC", "SQL", "MYSQL", "Exception Handling",
			"Multithreading", "DSA", "Spring Boot", "REST API", "MVC Framework", "AWS", "Azure",
		},
	},
	{
		Name:    "Node",
		Aliases: []string{"Node.js"},
		Subskills: []string{
			"Express", "REST API", "Socket.io", "JWT Authentication", "JWT", "Joi", "Toaster",
			"fs", "path", "os", "http", "https", "events", "Global vs local packages", "Building",
			"Middleware", "Routing", "Promises", "async/await", "Clustering", "WebSocket", "redis",
			"Caching", "Jest",
		},
	},
	{
		Name: "Python",
		Subskills: []string{
			"Django", "Flask", "ORM", "SQLAlchemy", "REST API", "Pandas", "Numpy", "OOPs",
		},
	},
	{
		Name:    "C/C++",
		Aliases: []string{"C", "C++"},
		Subskills: []string{
			"Memory Management", "Pointers", "Data Structures", "Searching and Sorting Algorithms",
		},
	},
}

// Baseline returns a fresh copy of the built-in catalog.
func Baseline() *Catalog {
	c := &Catalog{entries: make([]Entry, 0, len(baselineEntries))}
	for _, e := range baselineEntries {
		c.entries = append(c.entries, e.clone())
	}
	return c
}

// New validates the entries and builds a catalog keeping their order.
func New(entries ...Entry) (*Catalog, error) {
	c := &Catalog{}
	return c.Merge(entries...)
}

// Merge returns a new catalog made of c followed by extra. An extra entry whose
// name matches an existing skill (case-insensitively) contributes only the
// sub-skills and aliases the skill does not have yet. c is left untouched.
func (c *Catalog) Merge(extra ...Entry) (*Catalog, error) {
	merged := &Catalog{entries: c.Entries()}

	for i, raw := range extra {
		entry, err := sanitize(raw)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}

		idx := merged.index(entry.Name)
		if idx < 0 {
			merged.entries = append(merged.entries, entry)
			continue
		}

		existing := &merged.entries[idx]
		for _, sub := range entry.Subskills {
			if !slices.Contains(existing.Subskills, sub) {
				existing.Subskills = append(existing.Subskills, sub)
			}
		}
		for _, alias := range entry.Aliases {
			if alias != existing.Name && !slices.Contains(existing.Aliases, alias) {
				existing.Aliases = append(existing.Aliases, alias)
			}
		}
	}

	return merged, nil
}

// Len returns the number of skills.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Names returns skill names in catalog order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		names = append(names, e.Name)
	}
	return names
}

// Entries returns a deep copy of the entries in catalog order.
func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	entries := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		entries = append(entries, e.clone())
	}
	return entries
}

// Lookup returns a copy of the entry for name. Name matching is exact.
func (c *Catalog) Lookup(name string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	for _, e := range c.entries {
		if e.Name == name {
			return e.clone(), true
		}
	}
	return Entry{}, false
}

// Subskills returns the sub-skill vocabulary of name, or nil when the skill is unknown.
func (c *Catalog) Subskills(name string) []string {
	entry, ok := c.Lookup(name)
	if !ok {
		return nil
	}
	return entry.Subskills
}

func (c *Catalog) index(name string) int {
	for i, e := range c.entries {
		if strings.EqualFold(e.Name, name) {
			return i
		}
	}
	return -1
}

func sanitize(e Entry) (Entry, error) {
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return Entry{}, fmt.Errorf("%w: skill name is empty", ErrInvalidEntry)
	}

	out := Entry{Name: name}
	for _, sub := range e.Subskills {
		sub = strings.TrimSpace(sub)
		if sub == "" {
			return Entry{}, fmt.Errorf("%w: %s has an empty sub-skill", ErrInvalidEntry, name)
		}
		if !slices.Contains(out.Subskills, sub) {
			out.Subskills = append(out.Subskills, sub)
		}
	}
	for _, alias := range e.Aliases {
		alias = strings.TrimSpace(alias)
		if alias == "" {
			return Entry{}, fmt.Errorf("%w: %s has an empty alias", ErrInvalidEntry, name)
		}
		if alias != name && !slices.Contains(out.Aliases, alias) {
			out.Aliases = append(out.Aliases, alias)
		}
	}
	return out, nil
}
