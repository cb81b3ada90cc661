package services

import "errors"

// Export service errors
var (
	ErrPageOutOfRange = errors.New("page out of range")
	ErrInvalidFormat  = errors.New("invalid export format")
)
