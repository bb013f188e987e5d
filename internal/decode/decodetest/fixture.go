// Package decodetest builds parquet fixtures for tests.
package decodetest

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// PeopleQuery selects a small mixed-type table used across tests.
const PeopleQuery = `
	SELECT * FROM (VALUES
		(1, 'Bob',   30, TRUE,  NULL),
		(2, 'Ann',   25, FALSE, 'likes tea'),
		(3, 'cal',   25, TRUE,  'Likes coffee'),
		(4, 'Dee',  110, FALSE, NULL)
	) AS t(id, name, age, active, note)`

// NumbersQuery selects numeric columns whose text order differs from their
// numeric order, including decimals wider than a float64 can hold.
const NumbersQuery = `
	SELECT * FROM (VALUES
		(1, CAST(10.5 AS DECIMAL(10,2)),  CAST('12345678901234567890123.4567' AS DECIMAL(38,4)), CAST(10 AS BIGINT),  2.5::DOUBLE),
		(2, CAST(9.25 AS DECIMAL(10,2)),  CAST('12345678901234567890123.4566' AS DECIMAL(38,4)), CAST(9 AS BIGINT),   10.0::DOUBLE),
		(3, CAST(100 AS DECIMAL(10,2)),   CAST('-1.0000' AS DECIMAL(38,4)),                      CAST(100 AS BIGINT), -3.5::DOUBLE),
		(4, CAST(-0.05 AS DECIMAL(10,2)), CAST('0.0001' AS DECIMAL(38,4)),                       CAST(-2 AS BIGINT),  0.25::DOUBLE)
	) AS t(id, price, wide, qty, ratio)`

// WriteParquet materializes the result of query as a parquet file named
// name inside dir and returns its path.
func WriteParquet(t testing.TB, dir, name, query string) string {
	t.Helper()

	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	path := filepath.Join(dir, name)
	stmt := fmt.Sprintf("COPY (%s) TO '%s' (FORMAT PARQUET)",
		query, strings.ReplaceAll(path, "'", "''"))
	_, err = db.Exec(stmt)
	require.NoError(t, err, "failed to write parquet fixture")

	return path
}

// Parquet returns the bytes of a parquet file holding the result of query.
func Parquet(t testing.TB, query string) []byte {
	t.Helper()

	path := WriteParquet(t, t.TempDir(), "fixture.parquet", query)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}
