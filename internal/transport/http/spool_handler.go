package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "dataspool/internal/errors"
	"dataspool/internal/middleware"
	"dataspool/internal/services"
)

// dateLayout is the wire format for start/end query parameters
const dateLayout = "2006-01-02"

// SpoolHandler handles spool preview and export HTTP requests
type SpoolHandler struct {
	service      SpoolServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
}

// NewSpoolHandler creates a new spool handler with RFC 7807 error
// handling
func NewSpoolHandler(service SpoolServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *SpoolHandler {
	return &SpoolHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "spool_handler")),
		errorHandler: errorHandler,
		validate:     validator.New(),
	}
}

// Routes returns the spool routes with proper Chi patterns
func (h *SpoolHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/tables", h.GetTables)

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/preview", h.GetPreview)
	})

	r.Get("/export/xlsx", h.ExportXLSX)
	r.Get("/export/csv", h.ExportCSV)

	return r
}

// GetTables handles GET /api/spool/tables
func (h *SpoolHandler) GetTables(w http.ResponseWriter, r *http.Request) {
	tables := h.service.Tables(r.Context())
	sort.Strings(tables)
	render.JSON(w, r, map[string]any{"tables": tables})
}

// rangeParams carries the validated query parameters shared by preview
// and export requests
type rangeParams struct {
	Table string `validate:"required"`
	Start string `validate:"required,datetime=2006-01-02"`
	End   string `validate:"required,datetime=2006-01-02"`
}

// parseRange extracts and validates table/start/end from the query
// string
func (h *SpoolHandler) parseRange(r *http.Request) (string, time.Time, time.Time, error) {
	params := rangeParams{
		Table: r.URL.Query().Get("table"),
		Start: r.URL.Query().Get("start"),
		End:   r.URL.Query().Get("end"),
	}

	if err := h.validate.Struct(params); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			field := fieldErrs[0].Field()
			return "", time.Time{}, time.Time{}, apierrors.ValidationProblem(
				field,
				fmt.Sprintf("parameter %q is missing or malformed (dates use YYYY-MM-DD)", field),
				r.URL.Path,
			)
		}
		return "", time.Time{}, time.Time{}, err
	}

	start, _ := time.Parse(dateLayout, params.Start)
	end, _ := time.Parse(dateLayout, params.End)
	return params.Table, start, end, nil
}

// GetPreview handles GET /api/spool/preview
func (h *SpoolHandler) GetPreview(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	table, start, end, err := h.parseRange(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	page := queryInt(r, "page", 1)
	rowsPerPage := queryInt(r, "rows_per_page", 25)

	h.logger.InfoContext(r.Context(), "preview requested",
		slog.String("request_id", reqID),
		slog.String("table", table),
		slog.Int("page", page),
		slog.Int("rows_per_page", rowsPerPage),
	)

	resp, err := h.service.Preview(r.Context(), services.PreviewRequest{
		Selection:   table,
		Start:       start,
		End:         end,
		Page:        page,
		RowsPerPage: rowsPerPage,
	})
	if err != nil {
		if errors.Is(err, services.ErrPageOutOfRange) {
			h.errorHandler.HandleError(w, r, apierrors.ValidationProblem("page", err.Error(), r.URL.Path))
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, resp)
}

// ExportXLSX handles GET /api/spool/export/xlsx
func (h *SpoolHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, services.FormatXLSX)
}

// ExportCSV handles GET /api/spool/export/csv
func (h *SpoolHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, services.FormatCSV)
}

// export runs one serialization and streams the buffer as an attachment
func (h *SpoolHandler) export(w http.ResponseWriter, r *http.Request, format string) {
	reqID := middleware.GetReqID(r.Context())

	table, start, end, err := h.parseRange(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "export requested",
		slog.String("request_id", reqID),
		slog.String("table", table),
		slog.String("format", format),
	)

	buf, err := h.service.Export(r.Context(), services.ExportRequest{
		Selection: table,
		Start:     start,
		End:       end,
		Format:    format,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", buf.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", buf.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(buf.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Data)
}

// queryInt reads an integer query parameter with a default
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
