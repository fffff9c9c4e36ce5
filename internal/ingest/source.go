package ingest

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// MaxLineBytes bounds one source line. A valid record is a few hundred bytes
// at most, so longer lines are rejected without being held in memory.
const MaxLineBytes = 64 * 1024

// previewBytes is how much of an over-long line a rejection keeps.
const previewBytes = 80

// sourceLine is one line of an import source, without its terminator.
type sourceLine struct {
	text    string
	tooLong bool
}

// lineReader reads source lines of any length. Lines longer than max are
// truncated to max bytes and flagged; the rest of the line is discarded.
type lineReader struct {
	r   *bufio.Reader
	max int
}

func newLineReader(r io.Reader, max int) *lineReader {
	return &lineReader{r: bufio.NewReader(r), max: max}
}

// next returns the next line, or io.EOF once the source is exhausted.
func (lr *lineReader) next() (sourceLine, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, isPrefix, err := lr.r.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && (len(buf) > 0 || tooLong) {
				return sourceLine{text: string(buf), tooLong: tooLong}, nil
			}
			return sourceLine{}, err
		}
		if !tooLong {
			if room := lr.max - len(buf); len(chunk) > room {
				buf = append(buf, chunk[:room]...)
				tooLong = true
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			return sourceLine{text: trimCR(string(buf)), tooLong: tooLong}, nil
		}
	}
}

// preview shortens s for a rejection, dropping any rune cut in half.
func preview(s string) string {
	if len(s) <= previewBytes {
		return s
	}
	return strings.ToValidUTF8(s[:previewBytes], "") + "..."
}
