// Package storage defines persistence contracts for the onboarding service.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a requested write conflicts with uniqueness constraints.
	ErrConflict = errors.New("record conflict")
)

// ProfileRecord stores one finalized career profile.
type ProfileRecord struct {
	ID          string
	UserID      string
	RoleID      string
	RoleFamily  string
	SignalsJSON string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RemoteDraftRecord stores the server-side copy of a user's in-progress
// signals, written best-effort after role selection.
type RemoteDraftRecord struct {
	UserID      string
	SignalsJSON string
	UpdatedAt   time.Time
}

// ProfileStore persists finalized career profiles.
type ProfileStore interface {
	PutProfile(ctx context.Context, record ProfileRecord) error
	GetProfile(ctx context.Context, id string) (ProfileRecord, error)
	ListProfilesByUser(ctx context.Context, userID string) ([]ProfileRecord, error)
}

// RemoteDraftStore persists per-user remote draft snapshots. Upserts
// replace the previous snapshot; one row exists per user.
type RemoteDraftStore interface {
	UpsertRemoteDraft(ctx context.Context, record RemoteDraftRecord) error
	GetRemoteDraft(ctx context.Context, userID string) (RemoteDraftRecord, error)
	DeleteRemoteDraft(ctx context.Context, userID string) error
}

// SessionBlobStore persists session-scoped keyed blobs, backing the
// per-session draft store.
type SessionBlobStore interface {
	GetBlob(ctx context.Context, sessionID string, key string) ([]byte, bool, error)
	SetBlob(ctx context.Context, sessionID string, key string, value []byte) error
	DeleteBlob(ctx context.Context, sessionID string, key string) error
	// DeleteSessionBlobs removes every blob for a session, used when a
	// session is evicted or expires.
	DeleteSessionBlobs(ctx context.Context, sessionID string) error
}
