package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/viewstore/internal/journal"
	"github.com/roach88/viewstore/internal/testutil"
)

func TestHistory_RequiresJournal(t *testing.T) {
	_, _, err := execute(t, "history")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no journal configured")
}

func TestHistory_AfterImports(t *testing.T) {
	base := t.TempDir()
	dataDir := filepath.Join(base, "datastore")
	journalPath := filepath.Join(base, "journal.db")

	_, _, err := execute(t, "--data-dir", dataDir, "--journal", journalPath, "-i",
		testutil.WriteSource(t, "a|t|p|2017-01-01|1.00|1:00", "broken"))
	require.NoError(t, err)
	_, _, err = execute(t, "--data-dir", dataDir, "--journal", journalPath, "-i",
		testutil.WriteSource(t, "b|t|p|2017-01-02|1.00|1:00"))
	require.NoError(t, err)

	stdout, _, err := execute(t, "history", "--journal", journalPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "RUN")
	assert.Contains(t, stdout, "STATUS")
	assert.Contains(t, stdout, "import.psv")

	stdout, _, err = execute(t, "history", "--journal", journalPath, "--format", "json", "--limit", "0")
	require.NoError(t, err)
	var resp struct {
		Status string        `json:"status"`
		Data   []journal.Run `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Len(t, resp.Data, 2)
	for _, run := range resp.Data {
		assert.Equal(t, journal.StatusOK, run.Status)
	}

	// Find the run that rejected a line and show it in detail.
	var withRejection string
	for _, run := range resp.Data {
		if run.Rejected == 1 {
			withRejection = run.ID
		}
	}
	require.NotEmpty(t, withRejection)

	stdout, _, err = execute(t, "history", "--journal", journalPath, "--run", withRejection)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Run: "+withRejection)
	assert.Contains(t, stdout, "Status: ok")
	assert.Contains(t, stdout, "2017-01-01: 1 imported, 0 retained, 0 replaced (written)")
	assert.Contains(t, stdout, "[3] invalid record: expected 6 fields, got 1")
	assert.Contains(t, stdout, "       broken")
}

func TestHistory_UnknownRun(t *testing.T) {
	journalPath := filepath.Join(t.TempDir(), "journal.db")

	_, _, err := execute(t, "history", "--journal", journalPath, "--run", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, journal.ErrRunNotFound)
}

func TestHistory_Empty(t *testing.T) {
	stdout, _, err := execute(t, "history", "--journal", filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	assert.Equal(t, "No import runs recorded.\n", stdout)
}
