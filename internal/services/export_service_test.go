package services

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataspool/internal/config"
	apperrors "dataspool/internal/errors"
	"dataspool/internal/spool"
)

var (
	testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	testEnd   = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestService wires the service over a fake fetch returning rows
// rows, counting underlying fetch invocations
func newTestService(t *testing.T, rows int) (*ExportService, *int32) {
	t.Helper()

	cfg := config.Default()
	var calls int32

	fetch := func(ctx context.Context, params spool.Params, query spool.Query) (*spool.Table, error) {
		atomic.AddInt32(&calls, 1)
		table := &spool.Table{Columns: []string{"n", "label"}}
		for i := 0; i < rows; i++ {
			table.Rows = append(table.Rows, []any{int64(i + 1), "row"})
		}
		return table, nil
	}

	return NewExportService(&cfg, fetch, discardLogger(), nil, nil), &calls
}

func TestExportService_PreviewPagination(t *testing.T) {
	svc, _ := newTestService(t, 101)

	req := PreviewRequest{
		Selection:   "Deposit",
		Start:       testStart,
		End:         testEnd,
		RowsPerPage: 25,
	}

	t.Run("first page", func(t *testing.T) {
		req.Page = 1
		resp, err := svc.Preview(context.Background(), req)
		require.NoError(t, err)

		assert.Equal(t, 101, resp.TotalRows)
		assert.Equal(t, 5, resp.TotalPages)
		assert.Len(t, resp.Rows, 25)
		assert.Equal(t, []string{"1", "row"}, resp.Rows[0])
	})

	t.Run("last page holds the remainder", func(t *testing.T) {
		req.Page = 5
		resp, err := svc.Preview(context.Background(), req)
		require.NoError(t, err)

		require.Len(t, resp.Rows, 1)
		assert.Equal(t, []string{"101", "row"}, resp.Rows[0])
	})

	t.Run("page past the end is rejected", func(t *testing.T) {
		req.Page = 6
		_, err := svc.Preview(context.Background(), req)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrPageOutOfRange))
	})

	t.Run("page zero is rejected", func(t *testing.T) {
		req.Page = 0
		_, err := svc.Preview(context.Background(), req)
		assert.True(t, errors.Is(err, ErrPageOutOfRange))
	})
}

func TestExportService_PreviewClampsRowsPerPage(t *testing.T) {
	svc, _ := newTestService(t, 50)

	resp, err := svc.Preview(context.Background(), PreviewRequest{
		Selection:   "Deposit",
		Start:       testStart,
		End:         testEnd,
		Page:        1,
		RowsPerPage: 3, // below the configured minimum of 10
	})
	require.NoError(t, err)
	assert.Equal(t, 10, resp.RowsPerPage)
	assert.Len(t, resp.Rows, 10)

	resp, err = svc.Preview(context.Background(), PreviewRequest{
		Selection:   "Deposit",
		Start:       testStart,
		End:         testEnd,
		Page:        1,
		RowsPerPage: 5000, // above the configured maximum of 100
	})
	require.NoError(t, err)
	assert.Equal(t, 100, resp.RowsPerPage)
}

func TestExportService_PreviewEmptyTable(t *testing.T) {
	svc, _ := newTestService(t, 0)

	resp, err := svc.Preview(context.Background(), PreviewRequest{
		Selection:   "Deposit",
		Start:       testStart,
		End:         testEnd,
		Page:        1,
		RowsPerPage: 25,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, resp.TotalRows)
	assert.Equal(t, 1, resp.TotalPages, "an empty table still has one page")
	assert.Empty(t, resp.Rows)
	assert.Equal(t, []string{"n", "label"}, resp.Columns)
}

func TestExportService_FetchMemoized(t *testing.T) {
	svc, calls := newTestService(t, 20)

	req := PreviewRequest{Selection: "Deposit", Start: testStart, End: testEnd, Page: 1, RowsPerPage: 10}
	_, err := svc.Preview(context.Background(), req)
	require.NoError(t, err)

	req.Page = 2
	_, err = svc.Preview(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Export(context.Background(), ExportRequest{
		Selection: "Deposit", Start: testStart, End: testEnd, Format: FormatCSV,
	})
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(calls),
		"repeat requests for the same key reuse the cached table")
}

func TestExportService_ExportFormats(t *testing.T) {
	svc, _ := newTestService(t, 2)

	t.Run("xlsx", func(t *testing.T) {
		buf, err := svc.Export(context.Background(), ExportRequest{
			Selection: "Deposit", Start: testStart, End: testEnd, Format: FormatXLSX,
		})
		require.NoError(t, err)
		assert.Equal(t, "Deposit_2024-01-01_to_2024-01-31.xlsx", buf.Filename)
		assert.NotEmpty(t, buf.Data)
	})

	t.Run("csv", func(t *testing.T) {
		buf, err := svc.Export(context.Background(), ExportRequest{
			Selection: "Deposit", Start: testStart, End: testEnd, Format: FormatCSV,
		})
		require.NoError(t, err)
		assert.Equal(t, "Deposit_2024-01-01_to_2024-01-31.csv.gz", buf.Filename)

		zr, err := gzip.NewReader(bytes.NewReader(buf.Data))
		require.NoError(t, err)
		records, err := csv.NewReader(zr).ReadAll()
		require.NoError(t, err)
		assert.Len(t, records, 3)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := svc.Export(context.Background(), ExportRequest{
			Selection: "Deposit", Start: testStart, End: testEnd, Format: "pdf",
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidFormat))
	})
}

func TestExportService_ExportEmptyTable(t *testing.T) {
	svc, _ := newTestService(t, 0)

	for _, format := range []string{FormatXLSX, FormatCSV} {
		buf, err := svc.Export(context.Background(), ExportRequest{
			Selection: "Deposit", Start: testStart, End: testEnd, Format: format,
		})
		require.NoError(t, err, "empty result still exports as %s", format)
		assert.NotEmpty(t, buf.Data)
	}
}

func TestExportService_FetchErrorPropagates(t *testing.T) {
	cfg := config.Default()
	var calls int32

	failing := func(ctx context.Context, params spool.Params, query spool.Query) (*spool.Table, error) {
		atomic.AddInt32(&calls, 1)
		return nil, apperrors.NewDataAccess("connect", errors.New("refused"))
	}
	svc := NewExportService(&cfg, failing, discardLogger(), nil, nil)

	req := ExportRequest{Selection: "Deposit", Start: testStart, End: testEnd, Format: FormatCSV}

	_, err := svc.Export(context.Background(), req)
	require.Error(t, err)

	var accessErr *apperrors.DataAccessError
	assert.True(t, errors.As(err, &accessErr))

	// Failed fetches are not memoized
	_, err = svc.Export(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		rows, perPage, want int
	}{
		{0, 25, 1},
		{1, 25, 1},
		{25, 25, 1},
		{26, 25, 2},
		{101, 25, 5},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TotalPages(tt.rows, tt.perPage),
			"rows=%d perPage=%d", tt.rows, tt.perPage)
	}
}

func TestExportService_Tables(t *testing.T) {
	svc, _ := newTestService(t, 0)
	tables := svc.Tables(context.Background())
	assert.Len(t, tables, 7)
	assert.Contains(t, tables, "Deposit")
	assert.Contains(t, tables, "Withdrawals")
}
