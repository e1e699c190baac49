package onboarding

import (
	"context"

	apperrors "github.com/shiftstory/shiftstory/internal/platform/errors"
)

// Gateway persists onboarding output to the backing role store.
//
// SaveDraft is best-effort: callers fire it after role selection and only
// log failures. Finalize is the terminal handoff; its errors are surfaced
// to the user and the local draft is preserved for retry.
type Gateway interface {
	SaveDraft(ctx context.Context, userID string, signals Signals) error
	Finalize(ctx context.Context, userID string, signals Signals) (string, error)
}

var (
	// ErrAuthRequired indicates no identified user; callers redirect to
	// sign-in carrying a return-to-preview hint.
	ErrAuthRequired = apperrors.EK(apperrors.KindUnauthorized, "auth_required", "sign in to save this role")
	// ErrBackendUnavailable indicates the role store is unreachable or
	// not configured.
	ErrBackendUnavailable = apperrors.EK(apperrors.KindUnavailable, "backend_unavailable", "role store is unavailable")
)
