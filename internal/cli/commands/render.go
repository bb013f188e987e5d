package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/pqview/internal/cli/config"
	"github.com/leapstack-labs/pqview/internal/rowstore"
)

// resolveFormat turns "auto" into a concrete format: a table on a terminal,
// markdown when piped.
func resolveFormat(w io.Writer, format string) string {
	if format != config.OutputAuto && format != "" {
		return format
	}
	if isTerminal(w) {
		return config.OutputText
	}
	return config.OutputMarkdown
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// isStructured reports whether format encodes a document rather than a grid.
func isStructured(format string) bool {
	return format == config.OutputJSON || format == config.OutputYAML
}

// renderGrid writes header and rows as a table in one of the grid formats.
func renderGrid(w io.Writer, format string, header []string, rows [][]any) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)

	for _, r := range rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = formatValue(v, format)
		}
		t.AppendRow(row)
	}

	switch format {
	case config.OutputText:
		t.Render()
	case config.OutputMarkdown:
		t.RenderMarkdown()
	case config.OutputCSV:
		t.RenderCSV()
	case config.OutputHTML:
		t.RenderHTML()
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
	return nil
}

// renderDocument writes v as JSON or YAML.
func renderDocument(w io.Writer, format string, v any) error {
	switch format {
	case config.OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func formatValue(v any, format string) string {
	if v == nil {
		if format == config.OutputCSV {
			return ""
		}
		return "NULL"
	}
	return rowstore.Display(v)
}

// plainValue converts a decoded value into something both JSON and YAML
// encoders accept unchanged.
func plainValue(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return plainValue(f)
		}
		return x.String()
	case float32:
		return plainValue(float64(x))
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return rowstore.Display(x)
		}
		return x
	case []byte:
		return string(x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = plainValue(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plainValue(e)
		}
		return out
	default:
		return v
	}
}
