// Package rowstore holds the decoded contents of one loaded file.
//
// A Store is built once per decode and never mutated afterwards. Loading a
// new file produces a new Store; nothing is merged.
package rowstore

// Row maps a column name to its decoded value. A column missing from the map
// is treated exactly like an explicit nil.
type Row map[string]any

// Column describes one column of a Store.
type Column struct {
	Name string `json:"name" yaml:"name"`
	// Type is inferred from the value in the first row only. Later rows are
	// not checked against it.
	Type string `json:"type" yaml:"type"`
}

// Store is an immutable, ordered set of decoded rows plus column metadata.
type Store struct {
	columns []Column
	rows    []Row
	total   int
	source  string
}

// New builds a Store from decoded rows.
//
// fields is the column order reported by the decoder. Column metadata is
// taken from the first row: a name becomes a column when row 0 carries it
// (even as nil) or, for decoders that drop nil keys, when it is listed in
// fields. Duplicate names keep their first position. When rows is empty the
// Store has no columns.
func New(source string, fields []string, rows []Row) *Store {
	s := &Store{
		rows:   rows,
		total:  len(rows),
		source: source,
	}
	if len(rows) == 0 {
		return s
	}

	first := rows[0]
	seen := make(map[string]struct{}, len(fields))
	for _, name := range fields {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		s.columns = append(s.columns, Column{Name: name, Type: TypeOf(first[name])})
	}
	// Keys present in row 0 but unknown to the decoder still get a column.
	// Map order is random, so they are appended in sorted order.
	for _, name := range sortedKeys(first) {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		s.columns = append(s.columns, Column{Name: name, Type: TypeOf(first[name])})
	}
	return s
}

// Columns returns a copy of the column metadata in display order.
func (s *Store) Columns() []Column {
	if s == nil {
		return nil
	}
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Column returns the column at index i.
func (s *Store) Column(i int) (Column, bool) {
	if s == nil || i < 0 || i >= len(s.columns) {
		return Column{}, false
	}
	return s.columns[i], true
}

// HasColumn reports whether name is one of the Store's columns.
func (s *Store) HasColumn(name string) bool {
	if s == nil {
		return false
	}
	for _, c := range s.columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Rows returns the decoded rows in file order. The slice is shared and must
// not be modified.
func (s *Store) Rows() []Row {
	if s == nil {
		return nil
	}
	return s.rows
}

// TotalRows is the decoded row count. It is the denominator of the
// "showing N of M" readout and does not change when filters apply.
func (s *Store) TotalRows() int {
	if s == nil {
		return 0
	}
	return s.total
}

// Source is the name of the file the Store was decoded from.
func (s *Store) Source() string {
	if s == nil {
		return ""
	}
	return s.source
}
