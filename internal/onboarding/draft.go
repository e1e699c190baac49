package onboarding

import (
	"context"
	"time"
)

// CurrentSchemaVersion tags persisted drafts. A loaded draft carrying any
// other version is discarded whole, never partially migrated.
const CurrentSchemaVersion = 2

// Draft is the durable snapshot of in-progress onboarding state.
type Draft struct {
	SchemaVersion int
	Step          Step
	Signals       Signals
	SavedAt       time.Time
}

// Stale reports whether the draft is older than maxAge at the given time.
func (d Draft) Stale(now time.Time, maxAge time.Duration) bool {
	if d.SavedAt.IsZero() {
		return true
	}
	return now.Sub(d.SavedAt) > maxAge
}

// DraftStore persists onboarding drafts for one session.
//
// Read operations never fail: missing, corrupt, or version-mismatched
// values report absence, and implementations clear the stale value as a
// side effect. Save errors are returned so callers can log them, but
// progress saves are best-effort and must never block navigation.
type DraftStore interface {
	Save(ctx context.Context, draft Draft) error
	Load(ctx context.Context) (Draft, bool)
	Clear(ctx context.Context)
	// LastSignals returns the companion signals-only cache used for
	// cross-role prefill. It survives Save overwrites of the main draft
	// and is removed by Clear.
	LastSignals(ctx context.Context) (Signals, bool)
}
