package ingest

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAllLines(t *testing.T, lr *lineReader) []sourceLine {
	t.Helper()
	var out []sourceLine
	for {
		l, err := lr.next()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, l)
	}
}

func TestLineReader(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []sourceLine
	}{
		{"empty", "", nil},
		{"no final newline", "a\nb", []sourceLine{{text: "a"}, {text: "b"}}},
		{"crlf", "a\r\nb\r\n", []sourceLine{{text: "a"}, {text: "b"}}},
		{"blank lines", "\n\n", []sourceLine{{text: ""}, {text: ""}}},
		{"at limit", "12345678\nz", []sourceLine{{text: "12345678"}, {text: "z"}}},
		{"over limit", "123456789\nz", []sourceLine{{text: "12345678", tooLong: true}, {text: "z"}}},
		{"over limit at eof", "123456789", []sourceLine{{text: "12345678", tooLong: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := readAllLines(t, newLineReader(strings.NewReader(tt.input), 8))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLineReader_LongerThanBuffer(t *testing.T) {
	// bufio.Reader hands the long line over in several chunks.
	long := strings.Repeat("y", 3*4096+17)
	got := readAllLines(t, newLineReader(strings.NewReader(long+"\nnext\n"), 5000))

	require.Len(t, got, 2)
	assert.True(t, got[0].tooLong)
	assert.Len(t, got[0].text, 5000)
	assert.Equal(t, sourceLine{text: "next"}, got[1])
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short"))

	cut := preview(strings.Repeat("a", previewBytes-1) + "é tail")
	assert.Equal(t, strings.Repeat("a", previewBytes-1)+"...", cut)
}
