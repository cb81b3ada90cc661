package spool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "dataspool/internal/errors"
)

// fakeRowSource drives the assembler without a database
type fakeRowSource struct {
	columns  []string
	rows     [][]any
	idx      int
	valueErr error // returned by Values at failAt
	failAt   int
	iterErr  error // returned by Err after the stream ends
}

func newFakeRowSource(columns []string, rows [][]any) *fakeRowSource {
	return &fakeRowSource{columns: columns, rows: rows, failAt: -1}
}

func (s *fakeRowSource) Columns() []string { return s.columns }

func (s *fakeRowSource) Next() bool {
	return s.idx < len(s.rows)
}

func (s *fakeRowSource) Values() ([]any, error) {
	if s.failAt >= 0 && s.idx == s.failAt {
		return nil, s.valueErr
	}
	row := s.rows[s.idx]
	s.idx++
	return row, nil
}

func (s *fakeRowSource) Err() error { return s.iterErr }

// seededRows builds n rows of (id, amount) pairs in insertion order
func seededRows(n int) [][]any {
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = []any{int64(i + 1), float64(i) * 1.5}
	}
	return rows
}

func TestAssemble_BatchGranularity(t *testing.T) {
	// 5 in-range rows with chunk size 2 must arrive in 3 batches of
	// (2, 2, 1), assembled in insertion order.
	src := newFakeRowSource([]string{"id", "amount"}, seededRows(5))

	table, batches, err := assemble(src, 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "amount"}, table.Columns)
	assert.Equal(t, 5, table.Len())
	assert.Equal(t, []int{2, 2, 1}, batches)

	for i, row := range table.Rows {
		assert.Equal(t, int64(i+1), row[0], "row %d out of order", i)
	}
}

func TestAssemble_ChunkSizeDoesNotAffectResult(t *testing.T) {
	rows := seededRows(101)

	small, _, err := assemble(newFakeRowSource([]string{"id", "amount"}, rows), 7)
	require.NoError(t, err)

	large, _, err := assemble(newFakeRowSource([]string{"id", "amount"}, rows), DefaultChunkSize)
	require.NoError(t, err)

	assert.Equal(t, large.Columns, small.Columns)
	assert.Equal(t, large.Rows, small.Rows)
}

func TestAssemble_EmptyResultKeepsSchema(t *testing.T) {
	src := newFakeRowSource([]string{"id", "amount", "created_at"}, nil)

	table, batches, err := assemble(src, 50)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "amount", "created_at"}, table.Columns)
	assert.True(t, table.Empty())
	assert.Empty(t, batches)
}

func TestAssemble_ValueErrorAbortsWhole(t *testing.T) {
	src := newFakeRowSource([]string{"id", "amount"}, seededRows(10))
	src.failAt = 4
	src.valueErr = fmt.Errorf("row decode failed")

	table, _, err := assemble(src, 3)
	require.Error(t, err)
	assert.Nil(t, table, "no partial table on failure")
}

func TestAssemble_DeferredIterationError(t *testing.T) {
	src := newFakeRowSource([]string{"id", "amount"}, seededRows(3))
	src.iterErr = fmt.Errorf("connection reset")

	table, _, err := assemble(src, 2)
	require.Error(t, err)
	assert.Nil(t, table)
}

func TestAssemble_CopiesRowValues(t *testing.T) {
	shared := []any{int64(1), "a"}
	src := newFakeRowSource([]string{"id", "name"}, [][]any{shared})

	table, _, err := assemble(src, 10)
	require.NoError(t, err)

	shared[1] = "mutated"
	assert.Equal(t, "a", table.Rows[0][1])
}

func TestExtractor_Fetch_RejectsBeforeIO(t *testing.T) {
	// The params point nowhere: if validation did not run before the
	// connection attempt these cases would surface a DataAccessError
	// instead of the typed rejection.
	params := Params{
		Host:           "203.0.113.1",
		Port:           1,
		Database:       "none",
		User:           "none",
		Password:       "none",
		ConnectTimeout: time.Second,
	}
	extractor := NewExtractor(TableMap{"Deposit": "data_spool.b2c_collections"}, slog.Default())

	t.Run("unknown selection", func(t *testing.T) {
		_, err := extractor.Fetch(context.Background(), params, Query{
			Selection: "Refunds",
			Start:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			End:       time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		})
		require.Error(t, err)

		var selErr *apperrors.InvalidSelectionError
		assert.True(t, errors.As(err, &selErr))

		var accessErr *apperrors.DataAccessError
		assert.False(t, errors.As(err, &accessErr))
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := extractor.Fetch(context.Background(), params, Query{
			Selection: "Deposit",
			Start:     time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			End:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		})
		require.Error(t, err)

		var rangeErr *apperrors.InvalidRangeError
		assert.True(t, errors.As(err, &rangeErr))

		var accessErr *apperrors.DataAccessError
		assert.False(t, errors.As(err, &accessErr))
	})
}

func TestTable_Slice(t *testing.T) {
	table := &Table{
		Columns: []string{"id"},
		Rows:    seededRows(10),
	}

	assert.Len(t, table.Slice(0, 4), 4)
	assert.Len(t, table.Slice(8, 4), 2, "tail page is clamped")
	assert.Nil(t, table.Slice(10, 4), "offset past the end")
	assert.Nil(t, table.Slice(-1, 4))

	page := table.Slice(4, 2)
	require.Len(t, page, 2)
	assert.Equal(t, int64(5), page[0][0])
	assert.Equal(t, int64(6), page[1][0])
}
