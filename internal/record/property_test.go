package record

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func TestProperty_RoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("decode(encode(r)) reproduces every field", prop.ForAll(
		func(stb, title string, year, day, cents, minutes int) bool {
			want := Record{
				Stb:      truncate(stb, MaxTextLength),
				Title:    truncate(title, MaxTextLength),
				Provider: "provider",
				Date:     time.Date(year, time.Month(day%12+1), day%28+1, 0, 0, 0, 0, time.UTC),
				Rev:      float64(cents) / 100,
				ViewTime: TimeOfDay(minutes),
			}
			line := Encode(want)
			if Check(line) != nil {
				return false
			}
			got, err := Decode(line)
			if err != nil {
				return false
			}
			return got.Stb == want.Stb &&
				got.Title == want.Title &&
				got.Provider == want.Provider &&
				got.Date.Equal(want.Date) &&
				got.Rev == want.Rev &&
				got.ViewTime == want.ViewTime &&
				Encode(got) == line
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.IntRange(1970, 2099),
		gen.IntRange(0, 400),
		gen.IntRange(0, 10000000),
		gen.IntRange(0, 24*60-1),
	))

	properties.TestingRun(t)
}

func TestProperty_SortedOutputIsOrdered(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("no record is less than its predecessor", prop.ForAll(
		func(cents []int) bool {
			records := make([]Record, len(cents))
			for i, c := range cents {
				records[i] = Record{
					Stb:      string(rune('a' + c%5)),
					Rev:      float64(c%50) / 4,
					ViewTime: TimeOfDay(c % 1440),
				}
			}
			c := NewComparator([]Field{FieldStb, FieldRev, FieldViewTime})
			c.Sort(records)
			for i := 1; i < len(records); i++ {
				if c.Compare(records[i-1], records[i]) > 0 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 100000)),
	))

	properties.TestingRun(t)
}
