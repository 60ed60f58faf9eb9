package backend

import (
	"errors"
	"fmt"

	"spesebot/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		SQLiteDBPath: appConfig.SQLiteDBPath,
		PostgresDSN:  appConfig.PostgresDSN,

		GoogleCredentialsPath: appConfig.GoogleCredentialsPath,
		GoogleCredentialsJSON: appConfig.GoogleCredentialsJSON,
		GoogleSpreadsheetID:   appConfig.GoogleSpreadsheetID,
		GoogleSpreadsheetName: appConfig.GoogleSpreadsheetName,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.PostgresDSN == "" {
			return errors.New("Postgres DSN is required for postgres backend")
		}
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" && c.GoogleSpreadsheetName == "" {
			return errors.New("spreadsheet id or name is required for sheets backend")
		}
		if c.GoogleCredentialsPath == "" && c.GoogleCredentialsJSON == "" {
			return errors.New("either GoogleCredentialsPath or GoogleCredentialsJSON must be provided for sheets backend")
		}
	case MemoryBackend:
		// nothing to configure
	}

	return nil
}
