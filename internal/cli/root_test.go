package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/viewstore/internal/testutil"
)

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "viewstore", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"history", "test"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestFlags(t *testing.T) {
	cmd := NewRootCommand()

	for name, short := range map[string]string{"import": "i", "query": "q", "select": "s", "order": "o", "filter": "f"} {
		flag := cmd.Flags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, short, flag.Shorthand, name)
	}

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	dataDir := cmd.PersistentFlags().Lookup("data-dir")
	require.NotNil(t, dataDir)
	assert.Equal(t, "./datastore", dataDir.DefValue)
}

func TestGuidance(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"nothing chosen", []string{}, msgChooseMode},
		{"both chosen", []string{"-i", "x.psv", "-q", "-s", "stb"}, msgImportAndQuery},
		{"query without select", []string{"-q", "-o", "rev"}, msgSelectRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "datastore")
			stdout, _, err := execute(t, append(tt.args, "--data-dir", dir)...)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Empty(t, stdout)

			_, statErr := os.Stat(dir)
			assert.True(t, os.IsNotExist(statErr), "nothing may run")
		})
	}
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "--format", "xml", "-q", "-s", "stb")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestImportThenQuery(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "datastore")
	source := testutil.WriteSource(t,
		"STB1|The Matrix|Warner Bros|2017-01-01|4.00|1:30",
		"STB2|The Hobbit|Warner Bros|2017-01-01|8.00|2:45",
		"STB1|Unbreakable|Buena Vista|2017-01-01|2.50|1:05",
		"STB1|Jaws|Universal|2017-01-02|10.00|2:04",
		"STB1|Broken|Universal|2017-01-02|10.00|2:04|extra",
	)

	stdout, _, err := execute(t, "--data-dir", dir, "-i", source)
	require.NoError(t, err)
	assert.Equal(t, "imported 4 records into 2 partitions (1 rejected, 0 duplicates)\n", stdout)

	stdout, _, err = execute(t, "--data-dir", dir, "-q", "-s", "title,rev", "-o", "rev", "-f", "date=2017-01-01,stb=STB1")
	require.NoError(t, err)
	assert.Equal(t, "Unbreakable,2.50\nThe Matrix,4.00\n", stdout)

	stdout, _, err = execute(t, "--data-dir", dir, "--query", "--select", "date,stb,view_time", "--order", "date,stb")
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"2017-01-01,STB1,01:30",
		"2017-01-01,STB1,01:05",
		"2017-01-01,STB2,02:45",
		"2017-01-02,STB1,02:04",
	}, "\n")+"\n", stdout)
}

func TestImport_VerboseListsRejections(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "datastore")
	source := testutil.WriteSource(t,
		"a|t|p|2017-01-01|1.00|1:00",
		"a|t|p|2017-01-01|1.0|1:00",
	)

	stdout, stderr, err := execute(t, "--data-dir", dir, "-v", "-i", source)
	require.NoError(t, err)
	assert.Contains(t, stdout, "imported 1 records into 1 partitions (1 rejected, 0 duplicates)\n")
	assert.Contains(t, stdout, "rejected line 3: invalid record: rev \"1.0\" must have exactly 2 decimal places\n")
	assert.Contains(t, stderr, "level=WARN msg=\"rejected line\"")
	assert.Contains(t, stderr, "level=DEBUG")
}

func TestImport_SourceNotFound(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.psv")

	stdout, _, err := execute(t, "--data-dir", filepath.Join(t.TempDir(), "ds"), "-i", missing)
	require.Error(t, err)
	assert.Equal(t, "The file "+missing+" does not exist", err.Error())
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Empty(t, stdout)
}

func TestImport_JSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "datastore")
	source := testutil.WriteSource(t, "a|t|p|2017-01-01|1.00|1:00")

	stdout, _, err := execute(t, "--data-dir", dir, "--format", "json", "-i", source)
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Source     string `json:"source"`
			Accepted   int    `json:"accepted"`
			Partitions []struct {
				Key     string `json:"key"`
				Written bool   `json:"written"`
			} `json:"partitions"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, source, resp.Data.Source)
	assert.Equal(t, 1, resp.Data.Accepted)
	require.Len(t, resp.Data.Partitions, 1)
	assert.Equal(t, "2017-01-01", resp.Data.Partitions[0].Key)
	assert.True(t, resp.Data.Partitions[0].Written)
}

func TestQuery_JSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "datastore")
	_, _, err := execute(t, "--data-dir", dir, "-i", testutil.WriteSource(t, "a|t|p|2017-01-01|1.00|1:00"))
	require.NoError(t, err)

	stdout, _, err := execute(t, "--data-dir", dir, "--format", "json", "-q", "-s", "stb,rev")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []any{"a,1.00"}, resp.Data)
}

func TestQuery_InvalidFilter(t *testing.T) {
	_, _, err := execute(t, "--data-dir", filepath.Join(t.TempDir(), "ds"), "-q", "-s", "stb", "-f", "channel=1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid filter")
}

func TestQuery_InvalidOrder(t *testing.T) {
	_, _, err := execute(t, "--data-dir", filepath.Join(t.TempDir(), "ds"), "-q", "-s", "stb", "-o", "channel")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "unknown field")
}

func TestQuery_MalformedDatastore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "datastore")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2017-01-01"), []byte("a|t|p|2017-01-01|x|1:00\n"), 0o644))

	_, _, err := execute(t, "--data-dir", dir, "-q", "-s", "stb")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "partition 2017-01-01 line 1")
}

func TestConfigFile(t *testing.T) {
	base := t.TempDir()
	dataDir := filepath.Join(base, "from-config")
	cfgPath := filepath.Join(base, "viewstore.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("data_dir: "+dataDir+"\nformat: json\n"), 0o644))

	source := testutil.WriteSource(t, "a|t|p|2017-01-01|1.00|1:00")
	stdout, _, err := execute(t, "--config", cfgPath, "-i", source)
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)), stdout)

	_, err = os.Stat(filepath.Join(dataDir, "2017-01-01"))
	assert.NoError(t, err)

	// Flags override the file.
	stdout, _, err = execute(t, "--config", cfgPath, "--format", "text", "-q", "-s", "stb")
	require.NoError(t, err)
	assert.Equal(t, "a\n", stdout)
}

func TestConfigFile_Invalid(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "viewstore.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("datadir: x\n"), 0o644))

	_, _, err := execute(t, "--config", cfgPath, "-q", "-s", "stb")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}
