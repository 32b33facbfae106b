package skills

import (
	"fmt"
	"slices"

	"github.com/mitchellh/mapstructure"
)

// DecodeEntries converts loosely typed input (decoded JSON or YAML) into entries.
// A list of {name, subskills, aliases} objects is accepted, as is a map of
// skill name to sub-skill list; map input carries no order, so its entries are
// sorted by name.
func DecodeEntries(raw any) ([]Entry, error) {
	if raw == nil {
		return nil, nil
	}

	if byName, ok := raw.(map[string]any); ok {
		return decodeByName(byName)
	}

	var entries []Entry
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &entries,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating decoder: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	return entries, nil
}

func decodeByName(byName map[string]any) ([]Entry, error) {
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	slices.Sort(names)

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		var subskills []string
		if err := mapstructure.WeakDecode(byName[name], &subskills); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidEntry, name, err)
		}
		entries = append(entries, Entry{Name: name, Subskills: subskills})
	}

	return entries, nil
}
