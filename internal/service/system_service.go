package service

import (
	"database/sql"
	"fmt"

	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/database"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Crypto-Price-Dashboard-Backend/internal/version"
)

// SystemService handles system-related operations.
// db is nil when the fetch history recorder is disabled.
type SystemService struct {
	db *sql.DB
}

// NewSystemService creates a new SystemService
func NewSystemService(db *sql.DB) *SystemService {
	return &SystemService{
		db: db,
	}
}

// CheckHealth checks the health of the system.
// Returns apperrors.ErrDatabaseDisabled when running without a database; the dashboard itself works without one.
func (s *SystemService) CheckHealth() error {
	if s.db == nil {
		return apperrors.ErrDatabaseDisabled
	}
	return database.HealthCheck(s.db)
}

// CheckVersion reports the application version, the applied schema version and feature flags.
func (s *SystemService) CheckVersion() (model.VersionInfo, error) {
	info := model.VersionInfo{
		AppVersion: version.Version,
		DbVersion:  "none",
		Features: map[string]bool{
			"fetch_history": s.db != nil,
			"stream":        true,
			"metrics":       true,
		},
	}
	if s.db == nil {
		return info, nil
	}

	current, err := database.SchemaVersion(s.db)
	if err != nil {
		return model.VersionInfo{}, fmt.Errorf("failed to read schema version: %w", err)
	}
	latest, err := database.LatestSchemaVersion()
	if err != nil {
		return model.VersionInfo{}, fmt.Errorf("failed to read migrations: %w", err)
	}

	info.DbVersion = fmt.Sprintf("%d", current)
	if current < latest {
		info.MigrationNeeded = true
		msg := fmt.Sprintf("database schema is at version %d, latest is %d", current, latest)
		info.MigrationMessage = &msg
	}
	return info, nil
}
