package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/pqview/internal/decode"
	"github.com/leapstack-labs/pqview/internal/rowstore"
)

// ColumnInfo describes one column of an inspected file.
type ColumnInfo struct {
	Name       string `json:"name" yaml:"name"`
	NativeType string `json:"nativeType" yaml:"native_type"`
	Type       string `json:"type" yaml:"type"`
}

// Inspection is the result of the inspect command.
type Inspection struct {
	File    string       `json:"file" yaml:"file"`
	Decoder string       `json:"decoder" yaml:"decoder"`
	Rows    int          `json:"rows" yaml:"rows"`
	Columns []ColumnInfo `json:"columns" yaml:"columns"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.parquet>",
		Short: "Show the columns and row count of a parquet file",
		Long: `Decode a parquet file and list its columns with the type stored in the file
and the display type pqview infers from the first row.`,
		Example: `  pqview inspect people.parquet
  pqview inspect people.parquet -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}

			info, err := cc.inspect(cmd, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			format := resolveFormat(out, cc.Cfg.Output)
			if isStructured(format) {
				return renderDocument(out, format, info)
			}

			rows := make([][]any, len(info.Columns))
			for i, c := range info.Columns {
				rows[i] = []any{i, c.Name, c.NativeType, c.Type}
			}
			if err := renderGrid(out, format, []string{"#", "Column", "Native type", "Type"}, rows); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "(%d rows)\n", info.Rows)
			return nil
		},
	}
}

func (c *CommandContext) inspect(cmd *cobra.Command, path string) (*Inspection, error) {
	name, data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	recs, err := decode.Read(cmd.Context(), c.Decoder, name, data)
	if err != nil {
		return nil, err
	}

	store := rowstore.New(name, recs.Names(), recs.Rows)
	inferred := make(map[string]string, len(store.Columns()))
	for _, col := range store.Columns() {
		inferred[col.Name] = col.Type
	}

	info := &Inspection{
		File:    name,
		Decoder: c.Decoder.Name(),
		Rows:    store.TotalRows(),
		Columns: make([]ColumnInfo, len(recs.Fields)),
	}
	for i, f := range recs.Fields {
		typ, ok := inferred[f.Name]
		if !ok {
			typ = rowstore.TypeNull
		}
		info.Columns[i] = ColumnInfo{Name: f.Name, NativeType: f.Type, Type: typ}
	}
	return info, nil
}
