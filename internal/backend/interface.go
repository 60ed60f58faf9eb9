package backend

import (
	"context"

	"spesebot/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the record store and optional cleanup function
type BackendResult struct {
	Store   sheets.Store
	Cleanup CleanupFunc
}

// Close runs Cleanup when one is set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates record stores based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQL backends
	SQLiteDBPath string
	PostgresDSN  string

	// Google Sheets
	GoogleCredentialsPath string
	GoogleCredentialsJSON string
	GoogleSpreadsheetID   string
	GoogleSpreadsheetName string
}

// BackendType represents the type of backend
type BackendType string

const (
	SheetsBackend   BackendType = "sheets"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SheetsBackend, SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
