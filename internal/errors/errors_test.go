package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvalidSelectionError(t *testing.T) {
	err := NewInvalidSelection("Refunds")
	assert.Equal(t, `unknown table selection "Refunds"`, err.Error())

	var target *InvalidSelectionError
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &target))
	assert.Equal(t, "Refunds", target.Selection)
}

func TestInvalidRangeError(t *testing.T) {
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := NewInvalidRange(start, end)
	assert.Equal(t, "invalid date range: start 2024-02-01 is after end 2024-01-01", err.Error())
}

func TestDataAccessError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewDataAccess("connect", cause)

	assert.Contains(t, err.Error(), "connect")
	assert.Contains(t, err.Error(), "connection refused")
	assert.True(t, errors.Is(err, cause), "the underlying cause stays inspectable")
}

func TestSerializationError_Unwrap(t *testing.T) {
	cause := errors.New("row 3 has 2 values, want 4")
	err := NewSerialization("xlsx", cause)

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "xlsx")
}
