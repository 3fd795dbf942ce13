package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SettingRepository provides data access methods for the system_setting table.
// Settings are small key/value pairs such as the encrypted provider token and
// the last successful sync timestamp.
type SettingRepository struct {
	db *sql.DB
}

// NewSettingRepository creates a new SettingRepository with the provided database connection.
func NewSettingRepository(db *sql.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Setting keys.
const (
	SettingProviderToken = "marketdata_provider_token"
	SettingLastSync      = "marketdata_last_sync"
)

// GetSetting retrieves a setting value by key.
// Returns sql.ErrNoRows when the key does not exist.
func (s *SettingRepository) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM system_setting WHERE "key" = ?`, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("failed to query system_setting table: %w", err)
	}
	return value, nil
}

// SetSetting stores a setting value, replacing any existing value for the key.
func (s *SettingRepository) SetSetting(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO system_setting (id, "key", value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT("key") DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		uuid.New().String(),
		key,
		value,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to set system setting: %w", err)
	}

	return nil
}

// DeleteSetting removes a setting. Missing keys are not an error.
func (s *SettingRepository) DeleteSetting(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM system_setting WHERE "key" = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete system setting: %w", err)
	}
	return nil
}
