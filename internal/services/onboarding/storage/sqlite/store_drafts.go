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

// UpsertRemoteDraft replaces the user's remote draft snapshot.
func (s *Store) UpsertRemoteDraft(ctx context.Context, record storage.RemoteDraftRecord) error {
	record.UserID = strings.TrimSpace(record.UserID)
	if record.UserID == "" {
		return fmt.Errorf("draft user id is required")
	}
	if record.SignalsJSON == "" {
		record.SignalsJSON = "{}"
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO remote_drafts (user_id, signals_json, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
	signals_json = excluded.signals_json,
	updated_at = excluded.updated_at
`,
		record.UserID,
		record.SignalsJSON,
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert remote draft: %w", err)
	}
	return nil
}

// GetRemoteDraft returns the user's remote draft snapshot.
func (s *Store) GetRemoteDraft(ctx context.Context, userID string) (storage.RemoteDraftRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT user_id, signals_json, updated_at
FROM remote_drafts
WHERE user_id = ?
`, strings.TrimSpace(userID))

	var record storage.RemoteDraftRecord
	var updatedAt int64
	if err := row.Scan(&record.UserID, &record.SignalsJSON, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.RemoteDraftRecord{}, storage.ErrNotFound
		}
		return storage.RemoteDraftRecord{}, fmt.Errorf("get remote draft: %w", err)
	}
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

// DeleteRemoteDraft removes the user's remote draft snapshot. Deleting a
// missing draft is not an error.
func (s *Store) DeleteRemoteDraft(ctx context.Context, userID string) error {
	_, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM remote_drafts WHERE user_id = ?
`, strings.TrimSpace(userID))
	if err != nil {
		return fmt.Errorf("delete remote draft: %w", err)
	}
	return nil
}
