package errors

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/render"

	"dataspool/internal/infrastructure"
)

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError converts any error to RFC 7807 format and responds
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	// Get request ID for tracing
	reqID := infrastructure.GetTraceID(r.Context())

	// Log the error with full context
	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("remote_addr", r.RemoteAddr),
	)

	// Convert to problem details
	problem := h.ErrorToProblem(err, r)
	problem.WithExtension("trace_id", reqID)

	// Add stack trace in development
	if h.includeStack {
		problem.WithExtension("stack", string(debug.Stack()))
	}

	// Render the error response
	render.Render(w, r, problem)
}

// ErrorToProblem converts an error to RFC 7807 Problem Details.
// Each of the four domain errors maps to a distinct problem type so
// callers can branch without parsing messages.
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	// Check for context errors first
	if errors.Is(err, context.DeadlineExceeded) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Request Timeout",
			"The request took too long to process",
			r.URL.Path,
		)
	}
	if errors.Is(err, context.Canceled) {
		return NewProblemDetails(
			499, // client closed request
			TypeTimeout,
			"Request Cancelled",
			"The request was cancelled by the client",
			r.URL.Path,
		)
	}

	var selErr *InvalidSelectionError
	if errors.As(err, &selErr) {
		return NewProblemDetails(
			http.StatusBadRequest,
			TypeInvalidSelection,
			"Unknown Table Selection",
			selErr.Error(),
			r.URL.Path,
		)
	}

	var rangeErr *InvalidRangeError
	if errors.As(err, &rangeErr) {
		return NewProblemDetails(
			http.StatusBadRequest,
			TypeInvalidRange,
			"Invalid Date Range",
			rangeErr.Error(),
			r.URL.Path,
		)
	}

	var accessErr *DataAccessError
	if errors.As(err, &accessErr) {
		return NewProblemDetails(
			http.StatusBadGateway,
			TypeDataAccess,
			"Data Access Failed",
			accessErr.Error(),
			r.URL.Path,
		)
	}

	var serErr *SerializationError
	if errors.As(err, &serErr) {
		return NewProblemDetails(
			http.StatusInternalServerError,
			TypeSerialization,
			"Export Serialization Failed",
			serErr.Error(),
			r.URL.Path,
		)
	}

	var problem *ProblemDetails
	if errors.As(err, &problem) {
		return problem
	}

	// Default to internal server error without leaking details
	return NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred",
		r.URL.Path,
	)
}

// ValidationProblem creates a 400 problem for a single invalid field
func ValidationProblem(field, message, instance string) *ProblemDetails {
	problem := NewProblemDetails(
		http.StatusBadRequest,
		TypeValidation,
		"Request Validation Failed",
		message,
		instance,
	)
	problem.WithExtension("field", field)
	return problem
}

// NotFoundProblem creates a 404 problem for a missing resource
func NotFoundProblem(resource, instance string) *ProblemDetails {
	return NewProblemDetails(
		http.StatusNotFound,
		TypeNotFound,
		"Resource Not Found",
		resource+" not found",
		instance,
	)
}
