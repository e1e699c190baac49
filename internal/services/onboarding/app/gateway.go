package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/shiftstory/shiftstory/internal/onboarding"
	apperrors "github.com/shiftstory/shiftstory/internal/platform/errors"
	"github.com/shiftstory/shiftstory/internal/platform/id"
	"github.com/shiftstory/shiftstory/internal/platform/timeouts"
	"github.com/shiftstory/shiftstory/internal/services/onboarding/storage"
)

var tracer = otel.Tracer("shiftstory/onboarding")

// StorageGateway implements the persistence gateway over the profile and
// remote draft stores.
type StorageGateway struct {
	profiles storage.ProfileStore
	drafts   storage.RemoteDraftStore
	logf     func(format string, args ...any)
	now      func() time.Time
}

// NewStorageGateway returns a gateway backed by the given stores.
func NewStorageGateway(profiles storage.ProfileStore, drafts storage.RemoteDraftStore) *StorageGateway {
	return &StorageGateway{
		profiles: profiles,
		drafts:   drafts,
		logf:     log.Printf,
		now:      time.Now,
	}
}

// SaveDraft writes the user's remote draft snapshot.
func (g *StorageGateway) SaveDraft(ctx context.Context, userID string, signals onboarding.Signals) error {
	if strings.TrimSpace(userID) == "" {
		return onboarding.ErrAuthRequired
	}
	if g.drafts == nil {
		return onboarding.ErrBackendUnavailable
	}
	raw, err := json.Marshal(signals)
	if err != nil {
		return fmt.Errorf("encode draft signals: %w", err)
	}
	return g.drafts.UpsertRemoteDraft(ctx, storage.RemoteDraftRecord{
		UserID:      strings.TrimSpace(userID),
		SignalsJSON: string(raw),
		UpdatedAt:   g.now().UTC(),
	})
}

// Finalize persists the completed signals as a career profile and returns
// the new profile id. The user's remote draft is removed best-effort.
func (g *StorageGateway) Finalize(ctx context.Context, userID string, signals onboarding.Signals) (string, error) {
	ctx, span := tracer.Start(ctx, "gateway.finalize")
	defer span.End()
	span.SetAttributes(attribute.String("role.id", signals.RoleID))

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", onboarding.ErrAuthRequired
	}
	if g.profiles == nil {
		return "", onboarding.ErrBackendUnavailable
	}
	if signals.RoleID == "" {
		return "", apperrors.E(apperrors.KindInvalidInput, "a role must be selected before finalizing")
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Finalize)
	defer cancel()

	raw, err := json.Marshal(signals)
	if err != nil {
		return "", fmt.Errorf("encode profile signals: %w", err)
	}
	profileID, err := id.NewID()
	if err != nil {
		return "", fmt.Errorf("generate profile id: %w", err)
	}
	record := storage.ProfileRecord{
		ID:          profileID,
		UserID:      userID,
		RoleID:      signals.RoleID,
		RoleFamily:  signals.RoleFamily,
		SignalsJSON: string(raw),
		CreatedAt:   g.now().UTC(),
	}
	if err := g.profiles.PutProfile(ctx, record); err != nil {
		return "", apperrors.Wrap(apperrors.KindUnavailable, "store career profile", err)
	}

	if g.drafts != nil {
		if err := g.drafts.DeleteRemoteDraft(ctx, userID); err != nil {
			g.logf("onboarding: clear remote draft: %v", err)
		}
	}
	return profileID, nil
}

var _ onboarding.Gateway = (*StorageGateway)(nil)
