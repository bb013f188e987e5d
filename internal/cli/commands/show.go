package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/pqview/internal/cli/config"
	"github.com/leapstack-labs/pqview/internal/rowstore"
	"github.com/leapstack-labs/pqview/internal/view"
)

// ShowOptions holds options for the show command.
type ShowOptions struct {
	FilterColumn string
	Filter       string
	Regex        bool
	Sort         string
	Desc         bool
	Limit        int
}

// NewShowCommand creates the show command.
func NewShowCommand() *cobra.Command {
	opts := &ShowOptions{}

	cmd := &cobra.Command{
		Use:   "show <file.parquet>",
		Short: "Print the rows of a parquet file",
		Long: `Decode a parquet file and print its rows, optionally filtered by one column
and sorted by another. Filtering is a case-insensitive substring match unless
--regex is given.`,
		Example: `  # First 50 rows as a table
  pqview show people.parquet

  # Rows whose name contains "ann", oldest first
  pqview show people.parquet --filter-column name --filter ann --sort age --desc

  # Regular expression filter, all rows as JSON
  pqview show people.parquet --filter-column note --filter '^likes' --regex --limit 0 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.FilterColumn, "filter-column", "", "Column to filter on")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "Filter value (substring, or pattern with --regex)")
	cmd.Flags().BoolVar(&opts.Regex, "regex", false, "Treat --filter as a regular expression")
	cmd.Flags().StringVar(&opts.Sort, "sort", "", "Column to sort by")
	cmd.Flags().BoolVar(&opts.Desc, "desc", false, "Sort descending")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "Maximum rows to print (0 for all)")

	return cmd
}

func runShow(cmd *cobra.Command, path string, opts *ShowOptions) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	if opts.Limit < 0 {
		return fmt.Errorf("--limit must not be negative, got %d", opts.Limit)
	}

	store, err := cc.loadStore(cmd.Context(), path)
	if err != nil {
		return err
	}

	filter := view.FilterConfig{Column: opts.FilterColumn, Value: opts.Filter, IsRegex: opts.Regex}
	sort := view.SortConfig{}
	if opts.Sort != "" {
		if !store.HasColumn(opts.Sort) {
			return unknownColumnError(opts.Sort, store)
		}
		sort = view.SortConfig{Column: opts.Sort, Direction: view.Ascending}
		if opts.Desc {
			sort.Direction = view.Descending
		}
	}
	if filter.Column != "" && !store.HasColumn(filter.Column) {
		return unknownColumnError(filter.Column, store)
	}

	rows, err := view.DeriveLocale(store, filter, sort, cc.Cfg.LocaleTag())
	if errors.Is(err, view.ErrInvalidPattern) {
		cc.Logger.Warn("invalid filter pattern, showing unfiltered rows", "pattern", filter.Value, "error", err)
	} else if err != nil {
		return err
	}

	shown := rows
	if opts.Limit > 0 && len(shown) > opts.Limit {
		shown = shown[:opts.Limit]
	}

	out := cmd.OutOrStdout()
	format := resolveFormat(out, cc.Cfg.Output)
	readout := view.Readout(cc.Cfg.LocaleTag(), len(rows), store.TotalRows())

	if isStructured(format) {
		if err := renderDocument(out, format, rowObjects(shown, store.Columns())); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), readout)
		return nil
	}

	if err := renderGrid(out, format, columnNames(store.Columns()), rowValues(shown, store.Columns())); err != nil {
		return err
	}
	readoutTo := out
	if format == config.OutputCSV {
		readoutTo = cmd.ErrOrStderr()
	}
	printReadout(readoutTo, readout, len(shown), len(rows))
	return nil
}

func printReadout(w io.Writer, readout string, printed, matched int) {
	if printed < matched {
		_, _ = fmt.Fprintf(w, "%s (first %d printed)\n", readout, printed)
		return
	}
	_, _ = fmt.Fprintln(w, readout)
}

func unknownColumnError(name string, store *rowstore.Store) error {
	return fmt.Errorf("unknown column %q\nAvailable columns: %v", name, columnNames(store.Columns()))
}

func columnNames(cols []rowstore.Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

func rowValues(rows []rowstore.Row, cols []rowstore.Column) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		values := make([]any, len(cols))
		for j, c := range cols {
			values[j] = r[c.Name]
		}
		out[i] = values
	}
	return out
}

func rowObjects(rows []rowstore.Row, cols []rowstore.Column) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, r := range rows {
		obj := make(map[string]any, len(cols))
		for _, c := range cols {
			obj[c.Name] = plainValue(r[c.Name])
		}
		out[i] = obj
	}
	return out
}
