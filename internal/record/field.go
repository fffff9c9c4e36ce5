package record

import (
	"cmp"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownField is returned when a field name is not one of the six
// record fields.
var ErrUnknownField = errors.New("unknown field")

// Field identifies one column of a record.
type Field int

// Record fields in raw column order.
const (
	FieldStb Field = iota
	FieldTitle
	FieldProvider
	FieldDate
	FieldRev
	FieldViewTime

	numFields
)

// NumFields is the number of delimited fields in a raw record.
const NumFields = int(numFields)

type fieldSpec struct {
	name    string
	format  func(Record) string
	compare func(a, b Record) int
}

var fieldSpecs = [numFields]fieldSpec{
	FieldStb: {
		name:    "stb",
		format:  func(r Record) string { return r.Stb },
		compare: func(a, b Record) int { return strings.Compare(a.Stb, b.Stb) },
	},
	FieldTitle: {
		name:    "title",
		format:  func(r Record) string { return r.Title },
		compare: func(a, b Record) int { return strings.Compare(a.Title, b.Title) },
	},
	FieldProvider: {
		name:    "provider",
		format:  func(r Record) string { return r.Provider },
		compare: func(a, b Record) int { return strings.Compare(a.Provider, b.Provider) },
	},
	FieldDate: {
		name:    "date",
		format:  func(r Record) string { return r.Date.Format(DateLayout) },
		compare: func(a, b Record) int { return a.Date.Compare(b.Date) },
	},
	FieldRev: {
		name:    "rev",
		format:  func(r Record) string { return strconv.FormatFloat(r.Rev, 'f', 2, 64) },
		compare: func(a, b Record) int { return cmp.Compare(a.Rev, b.Rev) },
	},
	FieldViewTime: {
		name:    "view_time",
		format:  func(r Record) string { return r.ViewTime.String() },
		compare: func(a, b Record) int { return cmp.Compare(a.ViewTime, b.ViewTime) },
	},
}

// Fields returns all record fields in raw column order.
func Fields() []Field {
	fields := make([]Field, 0, NumFields)
	for f := FieldStb; f < numFields; f++ {
		fields = append(fields, f)
	}
	return fields
}

// ParseField resolves a field name case-insensitively.
// Surrounding whitespace is ignored.
func ParseField(name string) (Field, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f := FieldStb; f < numFields; f++ {
		if fieldSpecs[f].name == name {
			return f, true
		}
	}
	return 0, false
}

// ParseFieldList parses a comma-separated list of field names.
// Unlike projection, which tolerates unknown names, a list used for
// ordering must name real fields, so any unknown name is an error.
func ParseFieldList(spec string) ([]Field, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}
	names := strings.Split(spec, ",")
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		f, ok := ParseField(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// String returns the lower-case field name as used on the command line.
func (f Field) String() string {
	if f < 0 || f >= numFields {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldSpecs[f].name
}

// Index returns the column position of the field in a raw line.
func (f Field) Index() int {
	return int(f)
}

// Format renders the field of r in its canonical string form.
func (f Field) Format(r Record) string {
	return fieldSpecs[f].format(r)
}

// Compare orders a and b by this field's natural ordering.
func (f Field) Compare(a, b Record) int {
	return fieldSpecs[f].compare(a, b)
}
