package exporter

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "dataspool/internal/errors"
	"dataspool/internal/spool"
)

// SheetName is the single sheet every spreadsheet export carries
const SheetName = "Data"

// ToSpreadsheet serializes the table into an xlsx workbook with one
// sheet named "Data": header row first, then one row per record with
// native cell types (numbers as numbers, text as text, nil as an empty
// cell). No index column is written. An empty table produces a valid
// header-only workbook.
func ToSpreadsheet(table *spool.Table, selection string, start, end time.Time) (*Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, apperrors.NewSerialization("xlsx", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return nil, apperrors.NewSerialization("xlsx", err)
	}

	header := make([]interface{}, len(table.Columns))
	for i, col := range table.Columns {
		header[i] = col
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, apperrors.NewSerialization("xlsx", err)
	}

	for i, row := range table.Rows {
		if len(row) != len(table.Columns) {
			return nil, apperrors.NewSerialization("xlsx",
				fmt.Errorf("row %d has %d values, want %d", i, len(row), len(table.Columns)))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, apperrors.NewSerialization("xlsx", err)
		}
		values := make([]interface{}, len(row))
		copy(values, row)
		if err := sw.SetRow(cell, values); err != nil {
			return nil, apperrors.NewSerialization("xlsx", err)
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, apperrors.NewSerialization("xlsx", err)
	}

	out, err := f.WriteToBuffer()
	if err != nil {
		return nil, apperrors.NewSerialization("xlsx", err)
	}

	return &Buffer{
		Data:        out.Bytes(),
		ContentType: ContentTypeXLSX,
		Filename:    suggestedFilename(selection, start, end, ".xlsx"),
	}, nil
}
