package spool

import (
	"fmt"
	"net/url"
	"regexp"
	"time"

	apperrors "dataspool/internal/errors"
)

// DefaultChunkSize bounds a single retrieval batch when the caller does
// not choose one.
const DefaultChunkSize = 50000

// Params is the connection parameter bundle for one fetch. It is
// caller-supplied, fully populated, and never persisted by the
// pipeline.
type Params struct {
	Host           string
	Port           int
	Database       string
	User           string
	Password       string
	ConnectTimeout time.Duration
}

// DSN renders the PostgreSQL connection URL. The password is
// URL-escaped so credential characters never corrupt the DSN.
func (p Params) DSN() string {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		url.QueryEscape(p.User),
		url.QueryEscape(p.Password),
		p.Host, p.Port, p.Database)
	if p.ConnectTimeout > 0 {
		dsn += fmt.Sprintf("?connect_timeout=%d", int(p.ConnectTimeout.Seconds()))
	}
	return dsn
}

// Query describes one extraction: a friendly table selection, an
// inclusive date range, and the retrieval batch size. Chunk size
// affects retrieval granularity only, never the assembled result.
type Query struct {
	Selection string
	Start     time.Time
	End       time.Time
	ChunkSize int
}

// normalized returns the query with defaults applied
func (q Query) normalized() Query {
	if q.ChunkSize <= 0 {
		q.ChunkSize = DefaultChunkSize
	}
	return q
}

// validateRange rejects a start date after the end date before any I/O
func (q Query) validateRange() error {
	if q.Start.After(q.End) {
		return apperrors.NewInvalidRange(q.Start, q.End)
	}
	return nil
}

// identifierPattern matches a qualified PostgreSQL identifier
// (schema.table or bare table) in the unquoted form the spool mapping
// uses.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*(\.[A-Za-z_][A-Za-z0-9_$]*)?$`)

// TableMap is the closed friendly-name to qualified-identifier mapping.
// It is the allow-list: identifiers are substituted into query text
// only after resolving through it.
type TableMap map[string]string

// Resolve maps a friendly selection to its qualified table identifier.
// Unknown selections and malformed identifiers fail before any
// connection is opened.
func (m TableMap) Resolve(selection string) (string, error) {
	qualified, ok := m[selection]
	if !ok {
		return "", apperrors.NewInvalidSelection(selection)
	}
	if !identifierPattern.MatchString(qualified) {
		return "", apperrors.NewInvalidSelection(selection)
	}
	return qualified, nil
}

// Selections returns the friendly names in the mapping, unordered
func (m TableMap) Selections() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	return names
}
