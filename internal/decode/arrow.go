package decode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/leapstack-labs/pqview/internal/rowstore"
)

// ArrowName is the registry name of the pure-Go Arrow backend.
const ArrowName = "arrow"

const arrowBatchSize = 1024

func init() {
	Register(ArrowName, func(logger *slog.Logger) Decoder {
		return NewArrow(logger)
	})
}

// Arrow decodes parquet in process through the Arrow parquet reader.
type Arrow struct {
	logger *slog.Logger
	mem    memory.Allocator
}

// NewArrow creates an Arrow decoder using the default allocator.
func NewArrow(logger *slog.Logger) *Arrow {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Arrow{logger: logger, mem: memory.DefaultAllocator}
}

// Name returns ArrowName.
func (a *Arrow) Name() string {
	return ArrowName
}

// Decode implements Decoder.
func (a *Arrow) Decode(ctx context.Context, data []byte) (*Records, error) {
	pf, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = pf.Close() }()

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{BatchSize: arrowBatchSize}, a.mem)
	if err != nil {
		return nil, fmt.Errorf("failed to open arrow reader: %w", err)
	}

	tbl, err := fr.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}
	defer tbl.Release()

	schema := tbl.Schema()
	fields := make([]Field, schema.NumFields())
	for i, f := range schema.Fields() {
		fields[i] = Field{Name: f.Name, Type: f.Type.String()}
	}

	out := make([]rowstore.Row, 0, tbl.NumRows())
	tr := array.NewTableReader(tbl, arrowBatchSize)
	defer tr.Release()

	for tr.Next() {
		rec := tr.Record()
		for r := 0; r < int(rec.NumRows()); r++ {
			row := make(rowstore.Row, len(fields))
			for c, f := range fields {
				v, err := arrowValue(rec.Column(c), r)
				if err != nil {
					return nil, fmt.Errorf("column %q row %d: %w", f.Name, len(out), err)
				}
				row[f.Name] = v
			}
			out = append(out, row)
		}
	}
	if err := tr.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}

	a.logger.Debug("decoded parquet",
		slog.String("decoder", ArrowName),
		slog.Int("columns", len(fields)),
		slog.Int("row_groups", pf.NumRowGroups()),
		slog.Int("rows", len(out)))

	return &Records{Fields: fields, Rows: out}, nil
}

// arrowValue extracts a single cell as a plain Go value. Nested values come
// back from the marshal form as JSON and are decoded into maps and slices.
func arrowValue(col arrow.Array, i int) (any, error) {
	if col.IsNull(i) {
		return nil, nil
	}

	switch a := col.(type) {
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit), nil
	case *array.Date32:
		return a.Value(i).ToTime(), nil
	case *array.Date64:
		return a.Value(i).ToTime(), nil
	case *array.Decimal128:
		scale := a.DataType().(*arrow.Decimal128Type).Scale
		return rowstore.Decimal(a.Value(i).BigInt(), int(scale)), nil
	case *array.Decimal256:
		scale := a.DataType().(*arrow.Decimal256Type).Scale
		return rowstore.Decimal(a.Value(i).BigInt(), int(scale)), nil
	}

	switch v := col.GetOneForMarshal(i).(type) {
	case json.RawMessage:
		dec := json.NewDecoder(bytes.NewReader(v))
		dec.UseNumber()
		var out any
		if err := dec.Decode(&out); err != nil {
			return nil, err
		}
		return out, nil
	default:
		return v, nil
	}
}
