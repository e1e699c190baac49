// Package seed populates a development database with sample career profiles.
package seed

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/shiftstory/shiftstory/internal/catalog"
	"github.com/shiftstory/shiftstory/internal/onboarding"
	entrypoint "github.com/shiftstory/shiftstory/internal/platform/cmd"
	"github.com/shiftstory/shiftstory/internal/platform/id"
	"github.com/shiftstory/shiftstory/internal/ranking"
	"github.com/shiftstory/shiftstory/internal/services/onboarding/storage"
	"github.com/shiftstory/shiftstory/internal/services/onboarding/storage/sqlite"
)

// envConfig holds environment defaults before flag layering.
type envConfig struct {
	StoragePath string `env:"SHIFTSTORY_STORAGE_PATH" envDefault:"shiftstory.db"`
}

// Config holds seed command configuration.
type Config struct {
	StoragePath string
	UserID      string
}

// ParseConfig resolves configuration from the environment, then flags.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var env envConfig
	if err := entrypoint.ParseConfig(&env); err != nil {
		return Config{}, err
	}
	cfg := Config{
		StoragePath: env.StoragePath,
		UserID:      "demo-user",
	}

	fs.StringVar(&cfg.StoragePath, "storage-path", cfg.StoragePath, "SQLite database file")
	fs.StringVar(&cfg.UserID, "user", cfg.UserID, "user id to attach the sample profiles to")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run seeds one sample profile per active role family.
func Run(ctx context.Context, cfg Config) error {
	registry, err := catalog.Load()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	store, err := sqlite.Open(cfg.StoragePath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("seed: close store: %v", err)
		}
	}()

	seeded := make(map[string]bool)
	for _, role := range registry.AvailableRoles() {
		family := role.Family.Label()
		if seeded[family] {
			continue
		}
		seeded[family] = true

		signals, err := sampleSignals(registry, role)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(signals)
		if err != nil {
			return fmt.Errorf("encode sample signals: %w", err)
		}
		profileID, err := id.NewID()
		if err != nil {
			return fmt.Errorf("generate profile id: %w", err)
		}
		record := storage.ProfileRecord{
			ID:          profileID,
			UserID:      cfg.UserID,
			RoleID:      role.ID,
			RoleFamily:  family,
			SignalsJSON: string(raw),
		}
		if err := store.PutProfile(ctx, record); err != nil {
			return fmt.Errorf("seed profile for %s: %w", role.ID, err)
		}
		log.Printf("seeded %s profile %s", role.ID, profileID)
	}
	return nil
}

// sampleSignals builds a plausible completed answer set for a role: the
// pack's leading selections plus the ranked recommended mix.
func sampleSignals(registry *catalog.Registry, role catalog.Role) (onboarding.Signals, error) {
	pack, ok := registry.Pack(role.ID, role.Family)
	if !ok {
		return onboarding.Signals{}, fmt.Errorf("no content pack for family %s", role.Family.Label())
	}

	signals := onboarding.NewSignals()
	signals.RoleID = role.ID
	signals.RoleFamily = role.Family.Label()
	for i, trait := range pack.Traits {
		if i == onboarding.MaxShineKeys {
			break
		}
		signals.ShineKeys = append(signals.ShineKeys, trait.ID)
	}
	for i, scenario := range pack.Scenarios {
		if i == onboarding.MaxBusyKeys {
			break
		}
		signals.BusyKeys = append(signals.BusyKeys, scenario.ID)
	}
	if len(pack.Vibes) > 0 {
		signals.VibeKey = pack.Vibes[0].ID
	}
	signals.OrgName = "Sample " + role.Label
	signals.StartDate = "2023-04"
	signals.EndDate = "2025-08"

	result := ranking.Rank(signals, pack)
	signals.Responsibilities = result.RecommendedMix

	suggestions, err := ranking.RankSuggestions(signals, 1)
	if err != nil {
		return onboarding.Signals{}, err
	}
	if len(suggestions) > 0 {
		signals.HighlightText = suggestions[0]
	}
	return signals, nil
}
