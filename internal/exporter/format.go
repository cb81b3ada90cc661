package exporter

import (
	"fmt"
	"strconv"
	"time"
)

// timeLayout is the textual form for timestamp values in CSV output
const timeLayout = "2006-01-02 15:04:05"

// FormatValue renders one scalar cell value as text. The same mapping
// backs the CSV serializer and the preview layer, so a value's textual
// representation is stable across both.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case bool:
		return formatBool(val)
	case int:
		return strconv.Itoa(val)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return formatFloat(val)
	case time.Time:
		return formatTime(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// formatFloat formats a float64 without trailing zero padding so the
// textual form round-trips the value exactly
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatBool formats a boolean value for CSV output
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// formatTime renders a timestamp, dropping the clock part for pure
// dates
func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(timeLayout)
}
