package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shiftstory/shiftstory/internal/services/onboarding/storage"
)

// PutProfile persists a finalized career profile.
func (s *Store) PutProfile(ctx context.Context, record storage.ProfileRecord) error {
	record.ID = strings.TrimSpace(record.ID)
	record.UserID = strings.TrimSpace(record.UserID)
	record.RoleID = strings.TrimSpace(record.RoleID)
	if record.ID == "" {
		return fmt.Errorf("profile id is required")
	}
	if record.UserID == "" {
		return fmt.Errorf("profile user id is required")
	}
	if record.RoleID == "" {
		return fmt.Errorf("profile role id is required")
	}
	if record.SignalsJSON == "" {
		record.SignalsJSON = "{}"
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO career_profiles (id, user_id, role_id, role_family, signals_json, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`,
		record.ID,
		record.UserID,
		record.RoleID,
		record.RoleFamily,
		record.SignalsJSON,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("insert career profile: %w", err)
	}
	return nil
}

// GetProfile returns the profile with the given id.
func (s *Store) GetProfile(ctx context.Context, id string) (storage.ProfileRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, user_id, role_id, role_family, signals_json, created_at, updated_at
FROM career_profiles
WHERE id = ?
`, strings.TrimSpace(id))
	record, err := scanProfile(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ProfileRecord{}, storage.ErrNotFound
		}
		return storage.ProfileRecord{}, fmt.Errorf("get career profile: %w", err)
	}
	return record, nil
}

// ListProfilesByUser returns the user's profiles, newest first.
func (s *Store) ListProfilesByUser(ctx context.Context, userID string) ([]storage.ProfileRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, user_id, role_id, role_family, signals_json, created_at, updated_at
FROM career_profiles
WHERE user_id = ?
ORDER BY created_at DESC, id ASC
`, strings.TrimSpace(userID))
	if err != nil {
		return nil, fmt.Errorf("list career profiles: %w", err)
	}
	defer rows.Close()

	var records []storage.ProfileRecord
	for rows.Next() {
		record, err := scanProfile(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan career profile: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate career profiles: %w", err)
	}
	return records, nil
}

func scanProfile(scan func(dest ...any) error) (storage.ProfileRecord, error) {
	var record storage.ProfileRecord
	var createdAt int64
	var updatedAt int64
	if err := scan(
		&record.ID,
		&record.UserID,
		&record.RoleID,
		&record.RoleFamily,
		&record.SignalsJSON,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.ProfileRecord{}, err
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}
