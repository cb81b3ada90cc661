package exporter

import (
	"fmt"
	"time"
)

// Content types for the two export formats
const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeGzip = "application/gzip"
)

// Buffer is a finished, ready-to-transmit export: the encoded bytes, a
// content type, and a suggested download filename. Buffers are derived,
// stateless values; callers discard them after the download completes.
type Buffer struct {
	Data        []byte
	ContentType string
	Filename    string
}

// suggestedFilename builds the download name in the fixed
// {selection}_{start}_to_{end}{ext} shape with YYYY-MM-DD dates.
func suggestedFilename(selection string, start, end time.Time, ext string) string {
	return fmt.Sprintf("%s_%s_to_%s%s",
		selection,
		start.Format("2006-01-02"),
		end.Format("2006-01-02"),
		ext)
}
