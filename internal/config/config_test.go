package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 50000, cfg.Export.ChunkSize)
	assert.Equal(t, 10, cfg.Export.MinRowsPerPage)
	assert.Equal(t, 100, cfg.Export.MaxRowsPerPage)
	assert.Equal(t, 10*time.Minute, cfg.Export.CacheTTL)
	assert.Len(t, cfg.Tables, 7)
	assert.Equal(t, "data_spool.b2c_collections", cfg.Tables["Deposit"])
	assert.Equal(t, "data_spool.b2c_payouts", cfg.Tables["Withdrawals"])
}

func TestLoadFrom_FileOverlay(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
database:
  host: db.internal
  name: spooldb
  user: spool_reader
export:
  chunk_size: 1000
tables:
  Deposit: spool.collections
`)

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "spool_reader", cfg.Database.User)
	assert.Equal(t, 5432, cfg.Database.Port, "unset file fields keep defaults")
	assert.Equal(t, 1000, cfg.Export.ChunkSize)
	assert.Equal(t, map[string]string{"Deposit": "spool.collections"}, cfg.Tables,
		"the table mapping is replaced wholesale, not merged")
}

func TestLoadFrom_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
database:
  host: db.internal
  name: spooldb
  user: spool_reader
  password: from-file
`)

	t.Setenv("SPOOL_DATABASE_PASSWORD", "from-env")
	t.Setenv("SPOOL_EXPORT_CHUNK_SIZE", "250")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 250, cfg.Export.ChunkSize)
}

func TestLoadFrom_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative chunk size", "export:\n  chunk_size: -1\n"},
		{"inverted page bounds", "export:\n  min_rows_per_page: 50\n  max_rows_per_page: 10\n"},
		{"bad port", "server:\n  port: 70000\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(writeConfigFile(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_StringHidesPassword(t *testing.T) {
	db := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		Name:     "spooldb",
		User:     "spool_reader",
		Password: "hunter2",
	}

	rendered := db.String()
	assert.Equal(t, "spool_reader@db.internal:5432/spooldb", rendered)
	assert.NotContains(t, rendered, "hunter2")
}
