// Package exporter serializes an assembled spool table into downloadable
// byte buffers.
//
// Two formats are supported:
//
// Spreadsheet: a single-sheet xlsx workbook titled "Data" with the header
// row first and one row per record, written with native cell types.
//
// Compressed CSV: UTF-8 comma-separated text (header row plus one line
// per record) wrapped in a gzip container.
//
// Neither format writes a row-index column. Both are deterministic for a
// given input table, modulo the generation timestamps the xlsx container
// embeds.
//
// Example usage:
//
//	buf, err := exporter.ToSpreadsheet(table, "Deposit", start, end)
//	if err != nil {
//		return err
//	}
//	w.Header().Set("Content-Type", buf.ContentType)
//	w.Write(buf.Data)
package exporter
