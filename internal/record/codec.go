package record

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// Delimiter separates fields in raw lines.
	Delimiter = "|"

	// OutputDelimiter separates fields in projected output.
	OutputDelimiter = ","

	// MaxTextLength bounds stb, title and provider.
	MaxTextLength = 64

	// NoneValue is rendered for unknown fields in a projection.
	NoneValue = "none"
)

var (
	// ErrInvalidRecord marks a raw line that fails validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrMalformedRecord marks a line that cannot be decoded. Lines reach
	// Decode only after validation, so this indicates a corrupted store.
	ErrMalformedRecord = errors.New("malformed record")
)

// Validate reports whether line is a well-formed raw record.
func Validate(line string) bool {
	return Check(line) == nil
}

// Check validates line and returns an error wrapping ErrInvalidRecord that
// names the first rule the line breaks.
//
// The rules are structural (field count, lengths, separator positions) and
// additionally require date, rev and view_time to parse, so that every
// stored line can later be decoded.
func Check(line string) error {
	fields := strings.Split(line, Delimiter)
	if len(fields) != NumFields {
		return fmt.Errorf("%w: expected %d fields, got %d", ErrInvalidRecord, NumFields, len(fields))
	}
	for _, f := range []Field{FieldStb, FieldTitle, FieldProvider} {
		if n := utf8.RuneCountInString(fields[f]); n > MaxTextLength {
			return fmt.Errorf("%w: %s longer than %d characters (%d)", ErrInvalidRecord, f, MaxTextLength, n)
		}
	}
	if err := checkDate(fields[FieldDate]); err != nil {
		return err
	}
	if err := checkRev(fields[FieldRev]); err != nil {
		return err
	}
	return checkViewTime(fields[FieldViewTime])
}

func checkDate(s string) error {
	if len(s) > len(DateLayout) || strings.Index(s, "-") != 4 || strings.LastIndex(s, "-") != 7 {
		return fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidRecord, s)
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return fmt.Errorf("%w: date %q: %v", ErrInvalidRecord, s, err)
	}
	return nil
}

func checkRev(s string) error {
	dot := strings.Index(s, ".")
	if dot < 0 || dot != len(s)-3 || strings.Count(s, ".") != 1 || !isDigits(s[dot+1:]) {
		return fmt.Errorf("%w: rev %q must have exactly 2 decimal places", ErrInvalidRecord, s)
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return fmt.Errorf("%w: rev %q is not a number", ErrInvalidRecord, s)
	}
	return nil
}

func checkViewTime(s string) error {
	if len(s) > 5 || strings.Index(s, ":") != len(s)-3 {
		return fmt.Errorf("%w: view_time %q is not H:mm", ErrInvalidRecord, s)
	}
	if _, err := ParseTimeOfDay(s); err != nil {
		return fmt.Errorf("%w: view_time: %v", ErrInvalidRecord, err)
	}
	return nil
}

// Decode parses a validated raw line into a Record.
func Decode(line string) (Record, error) {
	fields := strings.Split(line, Delimiter)
	if len(fields) != NumFields {
		return Record{}, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedRecord, NumFields, len(fields))
	}

	date, err := time.Parse(DateLayout, fields[FieldDate])
	if err != nil {
		return Record{}, fmt.Errorf("%w: date: %v", ErrMalformedRecord, err)
	}
	rev, err := strconv.ParseFloat(fields[FieldRev], 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: rev: %v", ErrMalformedRecord, err)
	}
	viewTime, err := ParseTimeOfDay(fields[FieldViewTime])
	if err != nil {
		return Record{}, fmt.Errorf("%w: view_time: %v", ErrMalformedRecord, err)
	}

	return Record{
		Stb:      fields[FieldStb],
		Title:    fields[FieldTitle],
		Provider: fields[FieldProvider],
		Date:     date,
		Rev:      rev,
		ViewTime: viewTime,
	}, nil
}

// Encode renders r as a canonical raw line.
func Encode(r Record) string {
	parts := make([]string, NumFields)
	for _, f := range Fields() {
		parts[f] = f.Format(r)
	}
	return strings.Join(parts, Delimiter)
}

// Key returns the dedup key stb|title|date of a raw line.
// Lines with fewer than four fields are their own key.
func Key(line string) string {
	fields := strings.SplitN(line, Delimiter, NumFields)
	if len(fields) <= int(FieldDate) {
		return line
	}
	return fields[FieldStb] + Delimiter + fields[FieldTitle] + Delimiter + fields[FieldDate]
}

// PartitionKey returns the date field of a raw line, which names the
// partition the line belongs to.
func PartitionKey(line string) string {
	return RawField(line, FieldDate)
}

// RawField returns the undecoded value of f in line, or "" if the line is
// too short.
func RawField(line string, f Field) string {
	fields := strings.SplitN(line, Delimiter, NumFields)
	if f.Index() >= len(fields) {
		return ""
	}
	return fields[f.Index()]
}
