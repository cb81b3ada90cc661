// Package http is the presentation adapter surface: chi handlers that
// render paged previews and trigger spreadsheet / compressed CSV
// downloads. All errors are rendered as RFC 7807 problem documents.
package http
