package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/pqview/internal/cli/config"
	"github.com/leapstack-labs/pqview/internal/decode"
	"github.com/leapstack-labs/pqview/internal/decode/decodetest"
	"github.com/leapstack-labs/pqview/internal/testutil"
)

type result struct {
	stdout string
	stderr string
	err    error
}

// run executes cmd with cfg and a test logger in its context.
func run(t *testing.T, cmd *cobra.Command, cfg *config.Config, args ...string) result {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	ctx := context.WithValue(context.Background(), config.ConfigKey(), cfg)
	ctx = context.WithValue(ctx, config.LoggerKey(), testutil.NewTestLogger(t))
	err := cmd.ExecuteContext(ctx)

	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func outputConfig(format string) *config.Config {
	cfg := config.Default()
	cfg.Output = format
	return cfg
}

func peopleFile(t *testing.T) string {
	t.Helper()
	return decodetest.WriteParquet(t, t.TempDir(), "people.parquet", decodetest.PeopleQuery)
}

func TestNewShowCommand(t *testing.T) {
	cmd := NewShowCommand()

	assert.Equal(t, "show <file.parquet>", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	flags := []string{"filter-column", "filter", "regex", "sort", "desc", "limit"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestShow_Text(t *testing.T) {
	res := run(t, NewShowCommand(), outputConfig("text"), peopleFile(t))
	require.NoError(t, res.err)

	assert.Contains(t, res.stdout, "┌", "light table style")
	assert.Contains(t, strings.ToLower(res.stdout), "name")
	for _, want := range []string{"Bob", "Ann", "cal", "Dee", "likes tea", "NULL"} {
		assert.Contains(t, res.stdout, want)
	}
	assert.Contains(t, res.stdout, "Showing 4 of 4 rows")
}

func TestShow_FilterIsCaseInsensitiveSubstring(t *testing.T) {
	res := run(t, NewShowCommand(), outputConfig("markdown"), peopleFile(t),
		"--filter-column", "name", "--filter", "A")
	require.NoError(t, res.err)

	assert.Contains(t, res.stdout, "| Ann")
	assert.Contains(t, res.stdout, "| cal")
	assert.NotContains(t, res.stdout, "Bob")
	assert.NotContains(t, res.stdout, "Dee")
	assert.Contains(t, res.stdout, "Showing 2 of 4 rows")
}

func TestShow_SortDescendingJSON(t *testing.T) {
	res := run(t, NewShowCommand(), outputConfig("json"), peopleFile(t), "--sort", "age", "--desc")
	require.NoError(t, res.err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &rows))
	require.Len(t, rows, 4)

	var names []string
	for _, r := range rows {
		names = append(names, r["name"].(string))
	}
	assert.Equal(t, []string{"Dee", "Bob", "Ann", "cal"}, names, "ties keep file order")
	assert.Nil(t, rows[0]["note"])
	assert.Contains(t, res.stderr, "Showing 4 of 4 rows", "readout stays off stdout for documents")
}

func TestShow_RegexFilterYAML(t *testing.T) {
	res := run(t, NewShowCommand(), outputConfig("yaml"), peopleFile(t),
		"--filter-column", "note", "--filter", "^likes (tea|coffee)$", "--regex")
	require.NoError(t, res.err)

	var rows []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(res.stdout), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "likes tea", rows[0]["note"])
	assert.Equal(t, "Likes coffee", rows[1]["note"])
}

func TestShow_InvalidRegexShowsUnfilteredRows(t *testing.T) {
	res := run(t, NewShowCommand(), outputConfig("markdown"), peopleFile(t),
		"--filter-column", "name", "--filter", "(", "--regex")
	require.NoError(t, res.err)

	assert.Contains(t, res.stdout, "Showing 4 of 4 rows")
}

func TestShow_LimitAndCSV(t *testing.T) {
	res := run(t, NewShowCommand(), outputConfig("csv"), peopleFile(t), "--limit", "1")
	require.NoError(t, res.err)

	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,name,age,active,note", strings.ToLower(lines[0]))
	assert.Equal(t, "1,Bob,30,true,", lines[1])
	assert.Contains(t, res.stderr, "Showing 4 of 4 rows (first 1 printed)")
}

func TestShow_Errors(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("a,b\n1,2\n"), 0600))
	garbage := filepath.Join(dir, "broken.parquet")
	require.NoError(t, os.WriteFile(garbage, []byte("not a parquet file"), 0600))
	people := peopleFile(t)

	tests := []struct {
		name      string
		args      []string
		errSubstr string
	}{
		{name: "wrong extension", args: []string{csvPath}, errSubstr: "please select a .parquet file"},
		{name: "missing file", args: []string{filepath.Join(dir, "nope.parquet")}, errSubstr: "failed to read"},
		{name: "decode failure", args: []string{garbage}, errSubstr: decode.ErrorPrefix},
		{name: "unknown sort column", args: []string{people, "--sort", "height"}, errSubstr: `unknown column "height"`},
		{name: "unknown filter column", args: []string{people, "--filter-column", "x", "--filter", "y"}, errSubstr: "Available columns"},
		{name: "negative limit", args: []string{people, "--limit", "-1"}, errSubstr: "--limit"},
		{name: "no file", args: nil, errSubstr: "accepts 1 arg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, NewShowCommand(), outputConfig("text"), tt.args...)

			require.Error(t, res.err)
			assert.Contains(t, res.err.Error(), tt.errSubstr)
		})
	}
}

func TestShow_UnsupportedFileTypeIsSentinel(t *testing.T) {
	res := run(t, NewShowCommand(), outputConfig("text"), "notes.txt")

	assert.ErrorIs(t, res.err, decode.ErrUnsupportedFileType)
}

func TestShow_ArrowDecoder(t *testing.T) {
	cfg := outputConfig("json")
	cfg.Decoder = decode.ArrowName

	res := run(t, NewShowCommand(), cfg, peopleFile(t), "--sort", "name")
	require.NoError(t, res.err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &rows))
	require.Len(t, rows, 4)
	assert.Equal(t, "Ann", rows[0]["name"])
	assert.Equal(t, "cal", rows[2]["name"], "collation ignores case")
}

func TestInspect_JSON(t *testing.T) {
	res := run(t, NewInspectCommand(), outputConfig("json"), peopleFile(t))
	require.NoError(t, res.err)

	var info Inspection
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &info))

	assert.Equal(t, "people.parquet", info.File)
	assert.Equal(t, decode.DuckDBName, info.Decoder)
	assert.Equal(t, 4, info.Rows)
	require.Len(t, info.Columns, 5)
	assert.Equal(t, ColumnInfo{Name: "name", NativeType: "VARCHAR", Type: "string"}, info.Columns[1])
	assert.Equal(t, "number", info.Columns[2].Type)
	assert.Equal(t, "boolean", info.Columns[3].Type)
	assert.Equal(t, "null", info.Columns[4].Type, "type comes from the first row")
}

func TestInspect_Table(t *testing.T) {
	res := run(t, NewInspectCommand(), outputConfig("text"), peopleFile(t))
	require.NoError(t, res.err)

	assert.Contains(t, strings.ToLower(res.stdout), "native type")
	assert.Contains(t, res.stdout, "VARCHAR")
	assert.Contains(t, res.stdout, "(4 rows)")
}

func TestServe_StopsWithContext(t *testing.T) {
	cfg := config.Default()
	cfg.UI.Port = 0
	cfg.UI.AutoOpen = false
	cfg.UI.SessionSecret = "test-secret"

	cmd := NewServeCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ctx = context.WithValue(ctx, config.ConfigKey(), cfg)

	require.NoError(t, cmd.ExecuteContext(ctx))
	assert.Contains(t, stdout.String(), "Serving pqview on http://localhost:")
}

func TestNewServeCommand(t *testing.T) {
	cmd := NewServeCommand()

	assert.Equal(t, "serve", cmd.Use)
	assert.Contains(t, cmd.Aliases, "ui")
	assert.NotNil(t, cmd.Flags().Lookup("port"))
	assert.NotNil(t, cmd.Flags().Lookup("no-browser"))
}

func TestResolveFormat(t *testing.T) {
	var buf bytes.Buffer

	assert.Equal(t, "markdown", resolveFormat(&buf, "auto"), "non-TTY falls back to markdown")
	assert.Equal(t, "markdown", resolveFormat(&buf, ""))
	assert.Equal(t, "csv", resolveFormat(&buf, "csv"))
}

func TestPlainValue(t *testing.T) {
	assert.Equal(t, int64(3), plainValue(json.Number("3")))
	assert.Equal(t, 1.5, plainValue(json.Number("1.5")))
	assert.Equal(t, "abc", plainValue([]byte("abc")))
	assert.Equal(t, map[string]any{"a": []any{int64(1)}}, plainValue(map[string]any{"a": []any{json.Number("1")}}))
}
