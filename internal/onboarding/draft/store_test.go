package draft

import (
	"context"
	"testing"
	"time"

	"github.com/shiftstory/shiftstory/internal/onboarding"
)

func testSignals() onboarding.Signals {
	signals := onboarding.NewSignals()
	signals.RoleID = "bartender-craft"
	signals.RoleFamily = "bar"
	signals.ShineKeys = []string{"creative"}
	signals.OrgName = "The Alembic"
	return signals
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New(NewMemory(), WithLogf(t.Logf))

	savedAt := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	err := store.Save(ctx, onboarding.Draft{
		Step:    onboarding.StepOrg,
		Signals: testSignals(),
		SavedAt: savedAt,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, ok := store.Load(ctx)
	if !ok {
		t.Fatal("expected a draft")
	}
	if loaded.SchemaVersion != onboarding.CurrentSchemaVersion {
		t.Fatalf("schema version = %d, want %d", loaded.SchemaVersion, onboarding.CurrentSchemaVersion)
	}
	if loaded.Step != onboarding.StepOrg {
		t.Fatalf("step = %s, want ORG", loaded.Step.Label())
	}
	if !loaded.SavedAt.Equal(savedAt) {
		t.Fatalf("saved at = %v, want %v", loaded.SavedAt, savedAt)
	}
	if loaded.Signals.OrgName != "The Alembic" {
		t.Fatalf("org = %q", loaded.Signals.OrgName)
	}
}

func TestSaveStampsClockWhenUnset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	store := New(NewMemory(), WithClock(func() time.Time { return now }), WithLogf(t.Logf))

	if err := store.Save(ctx, onboarding.Draft{Step: onboarding.StepShine, Signals: testSignals()}); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, ok := store.Load(ctx)
	if !ok {
		t.Fatal("expected a draft")
	}
	if !loaded.SavedAt.Equal(now) {
		t.Fatalf("saved at = %v, want %v", loaded.SavedAt, now)
	}
}

func TestLoadMissingReportsAbsence(t *testing.T) {
	t.Parallel()

	store := New(NewMemory(), WithLogf(t.Logf))
	if _, ok := store.Load(context.Background()); ok {
		t.Fatal("expected no draft")
	}
}

func TestLoadDiscardsSchemaMismatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	blobs := NewMemory()
	store := New(blobs, WithLogf(t.Logf))

	stale := []byte(`{"schema_version":1,"current_step":"ORG","signals":{},"timestamp":1700000000000}`)
	if err := blobs.Set(ctx, draftKey, stale); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := blobs.Set(ctx, signalsKey, []byte(`{}`)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, ok := store.Load(ctx); ok {
		t.Fatal("stale schema must report absence")
	}
	if _, ok, _ := blobs.Get(ctx, draftKey); ok {
		t.Fatal("stale draft must be cleared")
	}
	if _, ok, _ := blobs.Get(ctx, signalsKey); ok {
		t.Fatal("signals cache must be cleared with the draft")
	}
}

func TestLoadDiscardsCorruptValue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	blobs := NewMemory()
	store := New(blobs, WithLogf(t.Logf))

	if err := blobs.Set(ctx, draftKey, []byte("{not json")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, ok := store.Load(ctx); ok {
		t.Fatal("corrupt draft must report absence")
	}
	if _, ok, _ := blobs.Get(ctx, draftKey); ok {
		t.Fatal("corrupt draft must be cleared")
	}
}

func TestLoadDiscardsUnknownStep(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	blobs := NewMemory()
	store := New(blobs, WithLogf(t.Logf))

	bad := []byte(`{"schema_version":2,"current_step":"INTRO","signals":{},"timestamp":1700000000000}`)
	if err := blobs.Set(ctx, draftKey, bad); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, ok := store.Load(ctx); ok {
		t.Fatal("unknown step must report absence")
	}
	if _, ok, _ := blobs.Get(ctx, draftKey); ok {
		t.Fatal("draft with unknown step must be cleared")
	}
}

func TestLoadDiscardsExpiredDraft(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	blobs := NewMemory()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := New(blobs,
		WithClock(func() time.Time { return now }),
		WithMaxAge(7*24*time.Hour),
		WithLogf(t.Logf),
	)

	err := store.Save(ctx, onboarding.Draft{
		Step:    onboarding.StepOrg,
		Signals: testSignals(),
		SavedAt: now.Add(-8 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok := store.Load(ctx); ok {
		t.Fatal("expired draft must report absence")
	}
	if _, ok, _ := blobs.Get(ctx, draftKey); ok {
		t.Fatal("expired draft must be cleared")
	}
}

func TestCarrySignalsCopiesOnlyTheCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	from := NewMemory()
	to := NewMemory()
	source := New(from, WithLogf(t.Logf))
	if err := source.Save(ctx, onboarding.Draft{Step: onboarding.StepShine, Signals: testSignals()}); err != nil {
		t.Fatalf("save: %v", err)
	}

	carried, err := CarrySignals(ctx, from, to)
	if err != nil || !carried {
		t.Fatalf("carry: carried=%v err=%v", carried, err)
	}
	target := New(to, WithLogf(t.Logf))
	signals, ok := target.LastSignals(ctx)
	if !ok || signals.RoleID != "bartender-craft" {
		t.Fatalf("carried signals = %+v ok=%v", signals, ok)
	}
	if _, ok := target.Load(ctx); ok {
		t.Fatal("carry must not copy the draft itself")
	}

	carried, err = CarrySignals(ctx, NewMemory(), to)
	if err != nil || carried {
		t.Fatalf("empty source: carried=%v err=%v", carried, err)
	}
}

func TestSeedSignalsJSON(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	to := NewMemory()
	raw := []byte(`{"role_id":"barista","role_family":"coffee","shine_keys":["latte_art"]}`)
	if err := SeedSignalsJSON(ctx, to, raw); err != nil {
		t.Fatalf("seed: %v", err)
	}
	signals, ok := New(to, WithLogf(t.Logf)).LastSignals(ctx)
	if !ok || signals.RoleID != "barista" {
		t.Fatalf("seeded signals = %+v ok=%v", signals, ok)
	}

	if err := SeedSignalsJSON(ctx, NewMemory(), []byte("{not json")); err == nil {
		t.Fatal("expected error for a corrupt snapshot")
	}
}

func TestClearRemovesBothKeys(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	blobs := NewMemory()
	store := New(blobs, WithLogf(t.Logf))

	if err := store.Save(ctx, onboarding.Draft{Step: onboarding.StepOrg, Signals: testSignals()}); err != nil {
		t.Fatalf("save: %v", err)
	}
	store.Clear(ctx)
	if _, ok, _ := blobs.Get(ctx, draftKey); ok {
		t.Fatal("draft key must be removed")
	}
	if _, ok, _ := blobs.Get(ctx, signalsKey); ok {
		t.Fatal("signals key must be removed")
	}
}

func TestLastSignalsSurvivesDraftOverwrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New(NewMemory(), WithLogf(t.Logf))

	if err := store.Save(ctx, onboarding.Draft{Step: onboarding.StepShine, Signals: testSignals()}); err != nil {
		t.Fatalf("save: %v", err)
	}
	signals, ok := store.LastSignals(ctx)
	if !ok {
		t.Fatal("expected cached signals")
	}
	if signals.RoleID != "bartender-craft" {
		t.Fatalf("role = %q", signals.RoleID)
	}
}

func TestLastSignalsMissing(t *testing.T) {
	t.Parallel()

	store := New(NewMemory(), WithLogf(t.Logf))
	if _, ok := store.LastSignals(context.Background()); ok {
		t.Fatal("expected no cached signals")
	}
}

func TestMemoryCopiesOnReadAndWrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	blobs := NewMemory()
	value := []byte("original")
	if err := blobs.Set(ctx, "k", value); err != nil {
		t.Fatalf("set: %v", err)
	}
	value[0] = 'X'

	got, ok, err := blobs.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(got) != "original" {
		t.Fatalf("stored value aliased caller slice: %q", got)
	}
	got[0] = 'Y'

	again, _, _ := blobs.Get(ctx, "k")
	if string(again) != "original" {
		t.Fatalf("returned value aliased stored slice: %q", again)
	}
}

func TestDraftStale(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		savedAt time.Time
		want    bool
	}{
		{"zero time", time.Time{}, true},
		{"fresh", now.Add(-time.Hour), false},
		{"at the boundary", now.Add(-24 * time.Hour), false},
		{"expired", now.Add(-25 * time.Hour), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			draft := onboarding.Draft{SavedAt: tc.savedAt}
			if got := draft.Stale(now, 24*time.Hour); got != tc.want {
				t.Fatalf("stale = %v, want %v", got, tc.want)
			}
		})
	}
}
