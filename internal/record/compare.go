package record

import "slices"

// Comparator orders Records by an ordered list of fields. The first field
// that differs decides; records equal on every field compare equal.
type Comparator struct {
	fields []Field
}

// NewComparator returns a Comparator over fields, in priority order.
func NewComparator(fields []Field) Comparator {
	return Comparator{fields: slices.Clone(fields)}
}

// Fields returns the fields the comparator orders by.
func (c Comparator) Fields() []Field {
	return slices.Clone(c.fields)
}

// Compare returns a negative number when a sorts before b, a positive
// number when after, and zero when they tie on every field.
func (c Comparator) Compare(a, b Record) int {
	for _, f := range c.fields {
		if r := f.Compare(a, b); r != 0 {
			return r
		}
	}
	return 0
}

// Sort stable-sorts records in place. Ties keep their input order.
func (c Comparator) Sort(records []Record) {
	if len(c.fields) == 0 {
		return
	}
	slices.SortStableFunc(records, c.Compare)
}
