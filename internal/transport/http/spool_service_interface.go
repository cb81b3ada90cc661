package http

import (
	"context"

	"dataspool/internal/exporter"
	"dataspool/internal/services"
)

// SpoolServiceInterface defines the service contract the spool handler
// depends on. Tests substitute fakes for the real ExportService.
type SpoolServiceInterface interface {
	Tables(ctx context.Context) []string
	Preview(ctx context.Context, req services.PreviewRequest) (*services.PreviewResponse, error)
	Export(ctx context.Context, req services.ExportRequest) (*exporter.Buffer, error)
}
