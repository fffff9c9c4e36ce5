package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// SourceHeader is the header line of an import source file.
const SourceHeader = "STB|TITLE|PROVIDER|DATE|REV|VIEW_TIME"

// WriteSource writes an import source file with the standard header
// followed by lines, and returns its path.
func WriteSource(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "import.psv")
	content := SourceHeader + "\n" + strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}
