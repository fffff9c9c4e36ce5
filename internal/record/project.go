package record

import "strings"

// Project renders the named fields of r joined by OutputDelimiter, in the
// order given. Names are matched case-insensitively; a name that is not a
// record field renders as NoneValue.
func Project(r Record, names []string) string {
	parts := make([]string, len(names))
	for i, name := range names {
		f, ok := ParseField(name)
		if !ok {
			parts[i] = NoneValue
			continue
		}
		parts[i] = f.Format(r)
	}
	return strings.Join(parts, OutputDelimiter)
}

// ProjectAll applies Project to every record.
func ProjectAll(records []Record, names []string) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = Project(r, names)
	}
	return out
}
