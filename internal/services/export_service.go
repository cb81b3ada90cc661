// Package services orchestrates the spool pipeline for the transport
// layer: memoized fetches, paged previews, and export serialization.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"dataspool/internal/config"
	"dataspool/internal/exporter"
	"dataspool/internal/metrics"
	"dataspool/internal/spool"
)

// Export format identifiers accepted by Export
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// FetchFunc is the extraction entry point the service drives. It is an
// interface seam so tests can run the full orchestration without a
// database.
type FetchFunc func(ctx context.Context, params spool.Params, query spool.Query) (*spool.Table, error)

// ExportService runs one fetch-and-export cycle at a time per caller:
// validate, fetch through the memoization cache, then paginate or
// serialize. Connection parameters come from configuration at the
// service boundary; the pipeline below never reads ambient state.
type ExportService struct {
	cfg     *config.Config
	fetch   FetchFunc
	cache   *spool.Cache
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *metrics.Metrics
}

// NewExportService creates the service with its collaborators. A nil
// tracer falls back to the global provider; a nil metrics instance
// creates a private one.
func NewExportService(cfg *config.Config, fetch FetchFunc, logger *slog.Logger, tracer trace.Tracer, m *metrics.Metrics) *ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = otel.Tracer("dataspool/services")
	}
	if m == nil {
		m = metrics.New()
	}
	return &ExportService{
		cfg:     cfg,
		fetch:   fetch,
		cache:   spool.NewCache(cfg.Export.CacheTTL),
		logger:  logger.With(slog.String("component", "export_service")),
		tracer:  tracer,
		metrics: m,
	}
}

// Tables returns the friendly selections this deployment serves
func (s *ExportService) Tables(ctx context.Context) []string {
	return spool.TableMap(s.cfg.Tables).Selections()
}

// PreviewRequest asks for one page of a fetch result
type PreviewRequest struct {
	Selection   string
	Start       time.Time
	End         time.Time
	Page        int
	RowsPerPage int
}

// PreviewResponse carries one visible page plus the pagination facts
// the adapter needs to render controls
type PreviewResponse struct {
	Selection   string     `json:"selection"`
	Columns     []string   `json:"columns"`
	Rows        [][]string `json:"rows"`
	TotalRows   int        `json:"total_rows"`
	Page        int        `json:"page"`
	RowsPerPage int        `json:"rows_per_page"`
	TotalPages  int        `json:"total_pages"`
}

// Preview fetches (or reuses) the full table and returns the requested
// 1-based page. Rows per page is clamped to the configured bounds; an
// out-of-range page is rejected, not clamped.
func (s *ExportService) Preview(ctx context.Context, req PreviewRequest) (*PreviewResponse, error) {
	rowsPerPage := s.clampRowsPerPage(req.RowsPerPage)

	table, err := s.fetchCached(ctx, req.Selection, req.Start, req.End)
	if err != nil {
		return nil, err
	}

	totalPages := TotalPages(table.Len(), rowsPerPage)
	if req.Page < 1 || req.Page > totalPages {
		return nil, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, req.Page, totalPages)
	}

	slice := table.Slice((req.Page-1)*rowsPerPage, rowsPerPage)
	rows := make([][]string, len(slice))
	for i, row := range slice {
		record := make([]string, len(row))
		for j, v := range row {
			record[j] = exporter.FormatValue(v)
		}
		rows[i] = record
	}

	return &PreviewResponse{
		Selection:   req.Selection,
		Columns:     table.Columns,
		Rows:        rows,
		TotalRows:   table.Len(),
		Page:        req.Page,
		RowsPerPage: rowsPerPage,
		TotalPages:  totalPages,
	}, nil
}

// ExportRequest asks for a full serialized export of a fetch result
type ExportRequest struct {
	Selection string
	Start     time.Time
	End       time.Time
	Format    string
}

// Export fetches (or reuses) the full table and serializes it into the
// requested format. An empty table yields a valid header-only buffer.
func (s *ExportService) Export(ctx context.Context, req ExportRequest) (*exporter.Buffer, error) {
	if req.Format != FormatXLSX && req.Format != FormatCSV {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, req.Format)
	}

	table, err := s.fetchCached(ctx, req.Selection, req.Start, req.End)
	if err != nil {
		return nil, err
	}

	var buf *exporter.Buffer
	switch req.Format {
	case FormatXLSX:
		buf, err = exporter.ToSpreadsheet(table, req.Selection, req.Start, req.End)
	case FormatCSV:
		buf, err = exporter.ToCompressedCSV(table, req.Selection, req.Start, req.End)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.ExportsTotal.WithLabelValues(req.Format).Inc()
	s.logger.InfoContext(ctx, "export serialized",
		slog.String("selection", req.Selection),
		slog.String("format", req.Format),
		slog.String("filename", buf.Filename),
		slog.Int("rows", table.Len()),
		slog.Int("bytes", len(buf.Data)))

	return buf, nil
}

// fetchCached runs the memoized fetch with tracing and metrics around
// the underlying extraction
func (s *ExportService) fetchCached(ctx context.Context, selection string, start, end time.Time) (*spool.Table, error) {
	query := spool.Query{
		Selection: selection,
		Start:     start,
		End:       end,
		ChunkSize: s.cfg.Export.ChunkSize,
	}

	table, hit, err := s.cache.Fetch(ctx, query, func(ctx context.Context) (*spool.Table, error) {
		ctx, span := s.tracer.Start(ctx, "spool.fetch",
			trace.WithAttributes(
				attribute.String("spool.selection", selection),
				attribute.String("spool.start", start.Format("2006-01-02")),
				attribute.String("spool.end", end.Format("2006-01-02")),
			))
		defer span.End()

		began := time.Now()
		t, err := s.fetch(ctx, s.connParams(), query)
		s.metrics.FetchDuration.Observe(time.Since(began).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "fetch failed")
			s.metrics.FetchesTotal.WithLabelValues(selection, "error").Inc()
			return nil, err
		}
		span.SetAttributes(attribute.Int("spool.rows", t.Len()))
		s.metrics.FetchesTotal.WithLabelValues(selection, "ok").Inc()
		return t, nil
	})
	if err != nil {
		return nil, err
	}

	if hit {
		s.metrics.CacheHits.Inc()
	} else {
		s.metrics.CacheMisses.Inc()
	}
	return table, nil
}

// connParams materializes the connection bundle from configuration
func (s *ExportService) connParams() spool.Params {
	db := s.cfg.Database
	return spool.Params{
		Host:           db.Host,
		Port:           db.Port,
		Database:       db.Name,
		User:           db.User,
		Password:       db.Password,
		ConnectTimeout: db.ConnectTimeout,
	}
}

// clampRowsPerPage bounds the page size to the configured window
func (s *ExportService) clampRowsPerPage(n int) int {
	if n < s.cfg.Export.MinRowsPerPage {
		return s.cfg.Export.MinRowsPerPage
	}
	if n > s.cfg.Export.MaxRowsPerPage {
		return s.cfg.Export.MaxRowsPerPage
	}
	return n
}

// TotalPages computes ceil(rows / rowsPerPage), minimum 1 so an empty
// table still renders a single page
func TotalPages(rows, rowsPerPage int) int {
	if rows <= 0 {
		return 1
	}
	return (rows + rowsPerPage - 1) / rowsPerPage
}
