// Package spool implements the chunked extraction pipeline: one
// parameterized query against a date-filtered spool table, consumed in
// bounded-size batches and assembled into a single ordered in-memory
// table.
package spool

// Table is the fully assembled result of one fetch. Rows are stored in
// retrieval order and every row carries one value per column, aligned
// with the Columns slice.
type Table struct {
	Columns []string
	Rows    [][]any
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Empty reports whether the table holds no data rows
func (t *Table) Empty() bool {
	return len(t.Rows) == 0
}

// Slice returns the rows in [offset, offset+limit), clamped to the
// table bounds. The returned slice shares backing storage with the
// table; callers must not mutate it.
func (t *Table) Slice(offset, limit int) [][]any {
	if offset < 0 || offset >= len(t.Rows) {
		return nil
	}
	end := offset + limit
	if end > len(t.Rows) {
		end = len(t.Rows)
	}
	return t.Rows[offset:end]
}
