package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shiftstory/shiftstory/internal/onboarding/draft"
)

// GetBlob returns the blob stored for a session at key.
func (s *Store) GetBlob(ctx context.Context, sessionID string, key string) ([]byte, bool, error) {
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT value FROM session_blobs WHERE session_id = ? AND key = ?
`, strings.TrimSpace(sessionID), key)

	var value []byte
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get session blob: %w", err)
	}
	return value, true, nil
}

// SetBlob stores a blob for a session at key, overwriting any prior value.
func (s *Store) SetBlob(ctx context.Context, sessionID string, key string, value []byte) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if key == "" {
		return fmt.Errorf("blob key is required")
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO session_blobs (session_id, key, value, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(session_id, key) DO UPDATE SET
	value = excluded.value,
	updated_at = excluded.updated_at
`,
		sessionID,
		key,
		value,
		toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("set session blob: %w", err)
	}
	return nil
}

// DeleteBlob removes one blob. Deleting a missing key is not an error.
func (s *Store) DeleteBlob(ctx context.Context, sessionID string, key string) error {
	_, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM session_blobs WHERE session_id = ? AND key = ?
`, strings.TrimSpace(sessionID), key)
	if err != nil {
		return fmt.Errorf("delete session blob: %w", err)
	}
	return nil
}

// DeleteSessionBlobs removes every blob belonging to a session.
func (s *Store) DeleteSessionBlobs(ctx context.Context, sessionID string) error {
	_, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM session_blobs WHERE session_id = ?
`, strings.TrimSpace(sessionID))
	if err != nil {
		return fmt.Errorf("delete session blobs: %w", err)
	}
	return nil
}

// SessionBlobs adapts the store to a single session's keyed blob view.
type SessionBlobs struct {
	store     *Store
	sessionID string
}

// ForSession returns a session-scoped blob view over the store.
func (s *Store) ForSession(sessionID string) *SessionBlobs {
	return &SessionBlobs{store: s, sessionID: strings.TrimSpace(sessionID)}
}

// Get returns the value stored at key for this session.
func (b *SessionBlobs) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return b.store.GetBlob(ctx, b.sessionID, key)
}

// Set stores value at key for this session.
func (b *SessionBlobs) Set(ctx context.Context, key string, value []byte) error {
	return b.store.SetBlob(ctx, b.sessionID, key, value)
}

// Delete removes the value at key for this session.
func (b *SessionBlobs) Delete(ctx context.Context, key string) error {
	return b.store.DeleteBlob(ctx, b.sessionID, key)
}

var _ draft.BlobStore = (*SessionBlobs)(nil)
