package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/pqview/internal/cli/config"
	"github.com/leapstack-labs/pqview/internal/decode/decodetest"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	config.ResetConfig()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "show", "inspect", "version", "completion"} {
		assert.Contains(t, names, want)
	}

	for _, flag := range []string{"config", "log-level", "log-format", "decoder", "locale", "output"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestRootCmd_Version(t *testing.T) {
	t.Chdir(t.TempDir())

	stdout, _, err := execute(t, "version")

	require.NoError(t, err)
	assert.Contains(t, stdout, "pqview v"+Version)
}

func TestRootCmd_ShowUsesFlagsOverConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pqview.yaml"), []byte("output: csv\nlog:\n  level: debug\n"), 0600))
	path := decodetest.WriteParquet(t, dir, "people.parquet", decodetest.PeopleQuery)

	stdout, stderr, err := execute(t, "show", path, "-o", "json", "--decoder", "arrow", "--filter-column", "name", "--filter", "bob")
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Bob", rows[0]["name"])
	assert.Contains(t, stderr, "using config file", "log.level from the file applies")
	assert.Contains(t, stderr, "Showing 1 of 4 rows")
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	_, _, err := execute(t, "version", "--decoder", "nope")

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown decoder "nope"`)
}

func TestRootCmd_HelpSkipsConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	stdout, _, err := execute(t, "help")

	require.NoError(t, err)
	assert.Contains(t, stdout, "pqview")
}

func TestCompletionCommand(t *testing.T) {
	stdout, _, err := execute(t, "completion", "bash")

	require.NoError(t, err)
	assert.Contains(t, stdout, "pqview")

	_, _, err = execute(t, "completion", "tcsh")
	assert.Error(t, err)
}
