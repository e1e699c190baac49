// Package draft persists onboarding snapshots over a keyed blob store.
//
// The store owns the wire shape and the schema version check: a value that
// is missing, fails to decode, or carries a version other than the current
// one reports absence and is cleared as a side effect. Storage failures are
// swallowed and logged; nothing here propagates to navigation.
package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/shiftstory/shiftstory/internal/onboarding"
)

// Well-known blob keys. The signals-only cache key feeds cross-role
// prefill and is cleared together with the draft.
const (
	draftKey   = "onboarding/draft"
	signalsKey = "onboarding/signals"
)

// BlobStore is the minimal keyed byte store the draft store writes through.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Store implements onboarding.DraftStore over a BlobStore.
type Store struct {
	blobs  BlobStore
	now    func() time.Time
	logf   func(format string, args ...any)
	maxAge time.Duration
}

// Option adjusts Store construction.
type Option func(*Store)

// WithClock overrides the clock for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogf overrides the diagnostics sink.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(s *Store) { s.logf = logf }
}

// WithMaxAge discards drafts older than maxAge on load. Zero disables the
// expiry check.
func WithMaxAge(maxAge time.Duration) Option {
	return func(s *Store) { s.maxAge = maxAge }
}

// New returns a draft store over the given blob store.
func New(blobs BlobStore, opts ...Option) *Store {
	s := &Store{
		blobs: blobs,
		now:   time.Now,
		logf:  log.Printf,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// draftWire is the persisted draft shape. The step travels as its wire
// label so stored drafts stay readable across binary versions.
type draftWire struct {
	SchemaVersion int                `json:"schema_version"`
	CurrentStep   string             `json:"current_step"`
	Signals       onboarding.Signals `json:"signals"`
	Timestamp     int64              `json:"timestamp"`
}

// Save writes the draft and the companion signals-only cache. The schema
// version is always stamped with the current value before writing.
func (s *Store) Save(ctx context.Context, draft onboarding.Draft) error {
	savedAt := draft.SavedAt
	if savedAt.IsZero() {
		savedAt = s.now().UTC()
	}
	wire := draftWire{
		SchemaVersion: onboarding.CurrentSchemaVersion,
		CurrentStep:   draft.Step.Label(),
		Signals:       draft.Signals,
		Timestamp:     savedAt.UnixMilli(),
	}
	raw, err := json.Marshal(wire)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.blobs.Set(ctx, draftKey, raw); err != nil {
		return fmt.Errorf("write draft: %w", err)
	}
	signalsRaw, err := json.Marshal(draft.Signals)
	if err != nil {
		return fmt.Errorf("encode signals cache: %w", err)
	}
	if err := s.blobs.Set(ctx, signalsKey, signalsRaw); err != nil {
		return fmt.Errorf("write signals cache: %w", err)
	}
	return nil
}

// Load returns the persisted draft. Missing values, decode failures, and
// schema mismatches all report absence and clear the stored value.
func (s *Store) Load(ctx context.Context) (onboarding.Draft, bool) {
	raw, ok, err := s.blobs.Get(ctx, draftKey)
	if err != nil {
		s.logf("draft: read: %v", err)
		return onboarding.Draft{}, false
	}
	if !ok {
		return onboarding.Draft{}, false
	}
	var wire draftWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		s.logf("draft: discard corrupt draft: %v", err)
		s.Clear(ctx)
		return onboarding.Draft{}, false
	}
	if wire.SchemaVersion != onboarding.CurrentSchemaVersion {
		s.logf("draft: discard schema version %d, want %d", wire.SchemaVersion, onboarding.CurrentSchemaVersion)
		s.Clear(ctx)
		return onboarding.Draft{}, false
	}
	step, err := onboarding.StepFromLabel(wire.CurrentStep)
	if err != nil {
		s.logf("draft: discard draft with bad step: %v", err)
		s.Clear(ctx)
		return onboarding.Draft{}, false
	}
	loaded := onboarding.Draft{
		SchemaVersion: wire.SchemaVersion,
		Step:          step,
		Signals:       wire.Signals,
		SavedAt:       time.UnixMilli(wire.Timestamp).UTC(),
	}
	if s.maxAge > 0 && loaded.Stale(s.now().UTC(), s.maxAge) {
		s.logf("draft: discard draft older than %s", s.maxAge)
		s.Clear(ctx)
		return onboarding.Draft{}, false
	}
	return loaded, true
}

// Clear removes the draft and the companion signals-only cache.
func (s *Store) Clear(ctx context.Context) {
	if err := s.blobs.Delete(ctx, draftKey); err != nil {
		s.logf("draft: clear draft: %v", err)
	}
	if err := s.blobs.Delete(ctx, signalsKey); err != nil {
		s.logf("draft: clear signals cache: %v", err)
	}
}

// CarrySignals copies the signals-only cache from one blob store into
// another, so a session starting a new role can prefill from the answers
// of a previous one. It reports whether a cache was found and copied.
func CarrySignals(ctx context.Context, from, to BlobStore) (bool, error) {
	value, ok, err := from.Get(ctx, signalsKey)
	if err != nil || !ok {
		return false, err
	}
	if err := to.Set(ctx, signalsKey, value); err != nil {
		return false, err
	}
	return true, nil
}

// SeedSignalsJSON writes an encoded signals snapshot into the
// signals-only cache. The value must decode as onboarding.Signals.
func SeedSignalsJSON(ctx context.Context, to BlobStore, raw []byte) error {
	var signals onboarding.Signals
	if err := json.Unmarshal(raw, &signals); err != nil {
		return fmt.Errorf("decode signals snapshot: %w", err)
	}
	return to.Set(ctx, signalsKey, raw)
}

// LastSignals returns the signals-only cache used for cross-role prefill.
func (s *Store) LastSignals(ctx context.Context) (onboarding.Signals, bool) {
	raw, ok, err := s.blobs.Get(ctx, signalsKey)
	if err != nil {
		s.logf("draft: read signals cache: %v", err)
		return onboarding.Signals{}, false
	}
	if !ok {
		return onboarding.Signals{}, false
	}
	var signals onboarding.Signals
	if err := json.Unmarshal(raw, &signals); err != nil {
		s.logf("draft: discard corrupt signals cache: %v", err)
		if err := s.blobs.Delete(ctx, signalsKey); err != nil {
			s.logf("draft: clear signals cache: %v", err)
		}
		return onboarding.Signals{}, false
	}
	return signals, true
}

var _ onboarding.DraftStore = (*Store)(nil)
