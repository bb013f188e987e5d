package decode

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	duckdb "github.com/marcboeker/go-duckdb"

	"github.com/leapstack-labs/pqview/internal/rowstore"
)

// DuckDBName is the registry name of the DuckDB backend.
const DuckDBName = "duckdb"

func init() {
	Register(DuckDBName, func(logger *slog.Logger) Decoder {
		return NewDuckDB(logger)
	})
}

// DuckDB decodes parquet by spilling the bytes to a temporary file and
// reading it with read_parquet in an in-memory database.
type DuckDB struct {
	logger *slog.Logger
}

// NewDuckDB creates a DuckDB decoder.
func NewDuckDB(logger *slog.Logger) *DuckDB {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DuckDB{logger: logger}
}

// Name returns DuckDBName.
func (d *DuckDB) Name() string {
	return DuckDBName
}

// Decode implements Decoder.
func (d *DuckDB) Decode(ctx context.Context, data []byte) (*Records, error) {
	path, cleanup, err := spill(data)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	defer func() { _ = db.Close() }()

	query := fmt.Sprintf("SELECT * FROM read_parquet(%s)", quoteLiteral(path)) //nolint:gosec // path is a quoted literal
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, unwrapDuckDB(err)
	}
	defer func() { _ = rows.Close() }()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types: %w", err)
	}
	fields := make([]Field, len(types))
	for i, ct := range types {
		fields[i] = Field{Name: ct.Name(), Type: ct.DatabaseTypeName()}
	}

	var out []rowstore.Row
	values := make([]any, len(fields))
	ptrs := make([]any, len(fields))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row %d: %w", len(out), err)
		}
		row := make(rowstore.Row, len(fields))
		for i, f := range fields {
			if f.Type == "UUID" {
				row[f.Name] = uuidString(values[i])
				continue
			}
			row[f.Name] = normalizeDuckDB(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, unwrapDuckDB(err)
	}

	d.logger.Debug("decoded parquet",
		slog.String("decoder", DuckDBName),
		slog.Int("columns", len(fields)),
		slog.Int("rows", len(out)))

	return &Records{Fields: fields, Rows: out}, nil
}

// spill writes data to a temporary parquet file and returns its path.
func spill(data []byte) (string, func(), error) {
	f, err := os.CreateTemp("", "pqview-*"+Extension)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	cleanup := func() { _ = os.Remove(f.Name()) }

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to close temp file: %w", err)
	}
	return f.Name(), cleanup, nil
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// unwrapDuckDB strips the driver's error class prefix so the message reads
// like the underlying failure.
func unwrapDuckDB(err error) error {
	msg := err.Error()
	for _, prefix := range []string{"Invalid Input Error: ", "IO Error: ", "Binder Error: "} {
		if rest, ok := strings.CutPrefix(msg, prefix); ok {
			return fmt.Errorf("%s", rest)
		}
	}
	return err
}

// normalizeDuckDB converts driver-specific values into the plain shapes the
// row store works with.
func normalizeDuckDB(v any) any {
	switch x := v.(type) {
	case duckdb.Map:
		m := make(map[string]any, len(x))
		for k, val := range x {
			m[fmt.Sprint(k)] = normalizeDuckDB(val)
		}
		return m
	case map[string]any:
		for k, val := range x {
			x[k] = normalizeDuckDB(val)
		}
		return x
	case []any:
		for i, val := range x {
			x[i] = normalizeDuckDB(val)
		}
		return x
	case duckdb.Decimal:
		return rowstore.Decimal(x.Value, int(x.Scale))
	default:
		return v
	}
}

// uuidString renders the raw 16 bytes the driver returns for UUID columns.
func uuidString(v any) any {
	if b, ok := v.([]byte); ok {
		if id, err := uuid.FromBytes(b); err == nil {
			return id.String()
		}
	}
	return v
}
