package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/viewstore/internal/datastore"
	"github.com/roach88/viewstore/internal/record"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Filter
	}{
		{
			name:  "empty",
			input: "",
			want:  Filter{Date: datastore.MatchAll},
		},
		{
			name:  "date only",
			input: "date=2017-01-01",
			want:  Filter{Date: "2017-01-01"},
		},
		{
			name:  "date and stb",
			input: "date=2017-01-01,stb=STB1",
			want:  Filter{Date: "2017-01-01", Conditions: []Condition{{Field: record.FieldStb, Value: "STB1"}}},
		},
		{
			name:  "case-insensitive names",
			input: "DATE=2017-01-*,Title=The Matrix",
			want:  Filter{Date: "2017-01-*", Conditions: []Condition{{Field: record.FieldTitle, Value: "The Matrix"}}},
		},
		{
			name:  "last date wins",
			input: "date=2017-01-01,date=2017-01-02",
			want:  Filter{Date: "2017-01-02"},
		},
		{
			name:  "conditions keep order",
			input: "provider=hbo,rev=4.00",
			want:  Filter{Date: datastore.MatchAll, Conditions: []Condition{
				{Field: record.FieldProvider, Value: "hbo"},
				{Field: record.FieldRev, Value: "4.00"},
			}},
		},
		{
			name:  "trailing comma",
			input: "date=2017-01-01,stb=STB1,",
			want:  Filter{Date: "2017-01-01", Conditions: []Condition{{Field: record.FieldStb, Value: "STB1"}}},
		},
		{
			name:  "value may contain equals",
			input: "title=a=b",
			want:  Filter{Date: datastore.MatchAll, Conditions: []Condition{{Field: record.FieldTitle, Value: "a=b"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilter(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFilter_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing equals", "stb"},
		{"unknown field", "channel=hbo"},
		{"empty date", "date="},
		{"empty pair", "stb=1,,date=2017-01-01"},
		{"leading comma", ",stb=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFilter(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidFilter)
		})
	}
}

func TestMatcher(t *testing.T) {
	line := "STB1|The Matrix|Warner Bros|2017-01-01|4.00|1:30"

	tests := []struct {
		name  string
		conds []Condition
		want  bool
	}{
		{"exact", []Condition{{record.FieldStb, "STB1"}}, true},
		{"different case", []Condition{{record.FieldTitle, "the MATRIX"}}, true},
		{"mismatch", []Condition{{record.FieldStb, "STB2"}}, false},
		{"all pairs must hold", []Condition{{record.FieldStb, "stb1"}, {record.FieldProvider, "hbo"}}, false},
		{"rev compared as text", []Condition{{record.FieldRev, "4"}}, false},
		{"rev exact text", []Condition{{record.FieldRev, "4.00"}}, true},
		{"view time compared as text", []Condition{{record.FieldViewTime, "01:30"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, newMatcher(tt.conds).match(line))
		})
	}
}

func TestMatcher_UnicodeFolding(t *testing.T) {
	m := newMatcher([]Condition{{record.FieldTitle, "CAFÉ ÖL"}})
	assert.True(t, m.match("s|café öl|p|2017-01-01|1.00|1:00"))
	assert.False(t, m.match("s|cafe ol|p|2017-01-01|1.00|1:00"))
}

func TestMatcher_NormalizationForms(t *testing.T) {
	// "é" precomposed in the filter, decomposed in the stored line.
	m := newMatcher([]Condition{{record.FieldTitle, "Am\u00e9lie"}})
	assert.True(t, m.match("s|Ame\u0301lie|p|2017-01-01|1.00|1:00"))
}
