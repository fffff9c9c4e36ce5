package query

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/viewstore/internal/datastore"
	"github.com/roach88/viewstore/internal/record"
)

// ErrInvalidFilter is returned for a filter expression that cannot be parsed.
var ErrInvalidFilter = errors.New("invalid filter")

const (
	pairSeparator  = ","
	valueSeparator = "="
)

// Condition is a raw equality test against one field.
type Condition struct {
	Field record.Field
	Value string
}

// Filter is a parsed filter expression.
//
// Date is a partition glob and never filters line contents. Conditions
// hold the non-date pairs in the order they were given.
type Filter struct {
	Date       string
	Conditions []Condition
}

// ParseFilter parses "field=value,field=value". Field names are matched
// case-insensitively. The last date pair wins. Trailing commas are ignored.
// An empty expression selects every partition with no conditions.
//
// Values are taken verbatim: surrounding spaces are part of the value.
func ParseFilter(expr string) (Filter, error) {
	f := Filter{Date: datastore.MatchAll}
	if strings.TrimSpace(expr) == "" {
		return f, nil
	}

	pairs := strings.Split(expr, pairSeparator)
	for len(pairs) > 0 && pairs[len(pairs)-1] == "" {
		pairs = pairs[:len(pairs)-1]
	}
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, valueSeparator)
		if !ok {
			return Filter{}, fmt.Errorf("%w: %q is not field=value", ErrInvalidFilter, pair)
		}
		field, ok := record.ParseField(name)
		if !ok {
			return Filter{}, fmt.Errorf("%w: %w: %q", ErrInvalidFilter, record.ErrUnknownField, name)
		}
		if field == record.FieldDate {
			if value == "" {
				return Filter{}, fmt.Errorf("%w: empty date", ErrInvalidFilter)
			}
			f.Date = value
			continue
		}
		f.Conditions = append(f.Conditions, Condition{Field: field, Value: value})
	}
	return f, nil
}

// matcher tests raw lines against a filter's conditions. Values compare
// equal when their NFC forms are equal under Unicode case folding.
type matcher struct {
	fields []record.Field
	values []string
	fold   cases.Caser
}

func newMatcher(conds []Condition) *matcher {
	m := &matcher{fold: cases.Fold()}
	for _, c := range conds {
		m.fields = append(m.fields, c.Field)
		m.values = append(m.values, m.key(c.Value))
	}
	return m
}

func (m *matcher) key(s string) string {
	return norm.NFC.String(m.fold.String(s))
}

// match reports whether every condition holds for line.
func (m *matcher) match(line string) bool {
	for i, f := range m.fields {
		if m.key(record.RawField(line, f)) != m.values[i] {
			return false
		}
	}
	return true
}

func (m *matcher) empty() bool {
	return len(m.fields) == 0
}
