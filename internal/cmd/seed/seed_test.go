package seed

import (
	"context"
	"flag"
	"path/filepath"
	"testing"

	"github.com/shiftstory/shiftstory/internal/services/onboarding/storage/sqlite"
)

func TestParseConfigFlags(t *testing.T) {
	t.Setenv("SHIFTSTORY_STORAGE_PATH", "/tmp/env.db")

	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-user", "alex"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.StoragePath != "/tmp/env.db" {
		t.Fatalf("storage path = %q", cfg.StoragePath)
	}
	if cfg.UserID != "alex" {
		t.Fatalf("user = %q", cfg.UserID)
	}
}

func TestRunSeedsOneProfilePerFamily(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seed.db")
	cfg := Config{StoragePath: path, UserID: "demo-user"}
	if err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("run: %v", err)
	}

	store, err := sqlite.Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer store.Close()

	records, err := store.ListProfilesByUser(context.Background(), "demo-user")
	if err != nil {
		t.Fatalf("list profiles: %v", err)
	}
	// Six active families, one sample profile each.
	if len(records) != 6 {
		t.Fatalf("profiles = %d, want 6", len(records))
	}
	families := make(map[string]bool)
	for _, record := range records {
		if families[record.RoleFamily] {
			t.Fatalf("family %s seeded twice", record.RoleFamily)
		}
		families[record.RoleFamily] = true
		if record.SignalsJSON == "" || record.SignalsJSON == "{}" {
			t.Fatalf("profile %s has empty signals", record.ID)
		}
	}
}
