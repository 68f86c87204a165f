package preference

import (
	"context"

	apperrors "github.com/hrygo/tripprefs/server/internal/errors"
	"github.com/hrygo/tripprefs/store"
)

// Service defines the preference-selection synchronization logic.
// Every method takes the caller's user id explicitly; 0 means there is no
// authenticated identity.
type Service interface {
	// SavePreferences replaces the user's selection, marks onboarding as
	// completed and rebuilds the cached profile in one transaction.
	// An empty selection is a valid "skip". Failures are reported in the result.
	SavePreferences(ctx context.Context, userID int32, selectedIDs []int32) *SaveResult

	// NeedsOnboarding reports whether the user still has to pick preferences.
	// A user with selections but no completion flag is healed on the way.
	NeedsOnboarding(ctx context.Context, userID int32) (bool, error)

	// GetUserPreferenceIDs returns the user's selected ids. Order is not significant.
	GetUserPreferenceIDs(ctx context.Context, userID int32) ([]int32, error)

	// GetUserPreferenceProfile returns the cached profile as stored, or nil.
	GetUserPreferenceProfile(ctx context.Context, userID int32) (*StoredProfile, error)

	// ListActivePreferences returns the active catalog ordered by category, sort order and label.
	ListActivePreferences(ctx context.Context) ([]*store.Preference, error)
}

// SaveResult is the outcome of SavePreferences.
type SaveResult struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Code    apperrors.ErrorCode `json:"code,omitempty"`
}

// StoredProfile is a cached profile row with its decoded summary.
type StoredProfile struct {
	Summary   *ProfileSummary `json:"summary"`
	Version   string          `json:"version"`
	UpdatedTs int64           `json:"updatedTs"`
}
