package exporter

import (
	"bytes"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"time"

	apperrors "dataspool/internal/errors"
	"dataspool/internal/spool"
)

// ToCompressedCSV serializes the table to UTF-8 comma-separated text
// (header row plus one line per record, standard quoting, no index
// column) and gzip-compresses it in a single pass. Decompressing and
// parsing the output yields the input table under each value's textual
// representation.
func ToCompressedCSV(table *spool.Table, selection string, start, end time.Time) (*Buffer, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	cw := csv.NewWriter(zw)

	if err := cw.Write(table.Columns); err != nil {
		return nil, apperrors.NewSerialization("csv.gz", err)
	}

	record := make([]string, len(table.Columns))
	for i, row := range table.Rows {
		if len(row) != len(table.Columns) {
			return nil, apperrors.NewSerialization("csv.gz",
				fmt.Errorf("row %d has %d values, want %d", i, len(row), len(table.Columns)))
		}
		for j, v := range row {
			record[j] = FormatValue(v)
		}
		if err := cw.Write(record); err != nil {
			return nil, apperrors.NewSerialization("csv.gz", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, apperrors.NewSerialization("csv.gz", err)
	}
	if err := zw.Close(); err != nil {
		return nil, apperrors.NewSerialization("csv.gz", err)
	}

	return &Buffer{
		Data:        buf.Bytes(),
		ContentType: ContentTypeGzip,
		Filename:    suggestedFilename(selection, start, end, ".csv.gz"),
	}, nil
}
