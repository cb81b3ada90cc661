package spool

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	apperrors "dataspool/internal/errors"
)

// Extractor fetches date-filtered row sets from the relational store.
// Each Fetch opens exactly one connection for its own duration; the
// connection is released on every exit path.
type Extractor struct {
	tables TableMap
	logger *slog.Logger
}

// NewExtractor creates an extractor over the given closed table mapping
func NewExtractor(tables TableMap, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		tables: tables,
		logger: logger.With(slog.String("component", "extractor")),
	}
}

// Tables returns the friendly selections this extractor accepts
func (e *Extractor) Tables() TableMap {
	return e.tables
}

// Fetch runs one extraction and assembles the full result in memory.
//
// Date semantics: both bounds are inclusive, compared against
// transaction_date cast to a date. Start and end are bound as typed
// parameters; only the allow-listed table identifier is substituted
// into the query text.
//
// The fetch is all-or-nothing: any connectivity or query failure
// aborts the whole call with a DataAccessError and no partial table.
func (e *Extractor) Fetch(ctx context.Context, params Params, query Query) (*Table, error) {
	query = query.normalized()

	qualified, err := e.tables.Resolve(query.Selection)
	if err != nil {
		return nil, err
	}
	if err := query.validateRange(); err != nil {
		return nil, err
	}

	conn, err := pgx.Connect(ctx, params.DSN())
	if err != nil {
		return nil, apperrors.NewDataAccess("connect", err)
	}
	defer conn.Close(ctx)

	sql := fmt.Sprintf(
		`SELECT * FROM %s WHERE transaction_date::date BETWEEN $1 AND $2`,
		qualified)

	rows, err := conn.Query(ctx, sql, query.Start, query.End)
	if err != nil {
		return nil, apperrors.NewDataAccess("query", err)
	}
	defer rows.Close()

	table, batches, err := assemble(&pgxRowSource{rows: rows}, query.ChunkSize)
	if err != nil {
		return nil, apperrors.NewDataAccess("fetch", err)
	}

	e.logger.InfoContext(ctx, "fetch complete",
		slog.String("selection", query.Selection),
		slog.String("table", qualified),
		slog.String("start", query.Start.Format("2006-01-02")),
		slog.String("end", query.End.Format("2006-01-02")),
		slog.Int("rows", table.Len()),
		slog.Int("batches", len(batches)),
		slog.Int("chunk_size", query.ChunkSize))

	return table, nil
}

// rowSource is the narrow surface the assembler consumes. pgx rows
// satisfy it through pgxRowSource; tests supply fakes.
type rowSource interface {
	Columns() []string
	Next() bool
	Values() ([]any, error)
	Err() error
}

// assemble folds the row stream into one ordered table, draining it in
// batches of at most chunkSize rows. Batches are appended in arrival
// order, never reordered or deduplicated. The returned batch sizes
// describe retrieval granularity only.
func assemble(src rowSource, chunkSize int) (*Table, []int, error) {
	table := &Table{Columns: src.Columns()}

	var batchSizes []int
	batch := make([][]any, 0, chunkSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		table.Rows = append(table.Rows, batch...)
		batchSizes = append(batchSizes, len(batch))
		batch = batch[:0]
	}

	for src.Next() {
		values, err := src.Values()
		if err != nil {
			return nil, nil, err
		}
		row := make([]any, len(values))
		copy(row, values)
		batch = append(batch, row)
		if len(batch) == chunkSize {
			flush()
		}
	}
	if err := src.Err(); err != nil {
		return nil, nil, err
	}
	flush()

	return table, batchSizes, nil
}

// pgxRowSource adapts pgx.Rows to the assembler's row source. Field
// descriptions are available even for an empty result, so a zero-row
// fetch still reports the full column schema.
type pgxRowSource struct {
	rows pgx.Rows
}

func (s *pgxRowSource) Columns() []string {
	fields := s.rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, field := range fields {
		columns[i] = field.Name
	}
	return columns
}

func (s *pgxRowSource) Next() bool {
	return s.rows.Next()
}

func (s *pgxRowSource) Values() ([]any, error) {
	return s.rows.Values()
}

func (s *pgxRowSource) Err() error {
	return s.rows.Err()
}
