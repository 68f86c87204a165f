// Package preference keeps a user's travel preference selection, the
// onboarding completion flag and the cached preference profile consistent
// with each other.
//
// A save replaces the selection wholesale, sets the completion flag and
// rebuilds the profile from scratch inside one store transaction, so a
// failure at any step leaves the previously committed state in place.
// The profile is never patched incrementally.
package preference

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/hrygo/tripprefs/internal/metrics"
	apperrors "github.com/hrygo/tripprefs/server/internal/errors"
	"github.com/hrygo/tripprefs/server/internal/observability"
	"github.com/hrygo/tripprefs/store"
)

const (
	msgSaved            = "Preferences saved."
	msgNotAuthenticated = "Not authenticated."
)

// Store is the interface for store operations needed by the preference service.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error

	GetUser(ctx context.Context, find *store.FindUser) (*store.User, error)
	UpdateUser(ctx context.Context, update *store.UpdateUser) (*store.User, error)

	ListActivePreferences(ctx context.Context) ([]*store.Preference, error)
	ResolvePreferences(ctx context.Context, ids []int32) ([]*store.Preference, error)

	ListUserPreferenceIDs(ctx context.Context, userID int32) ([]int32, error)
	HasUserPreferences(ctx context.Context, userID int32) (bool, error)
	CreateUserPreferences(ctx context.Context, create *store.CreateUserPreferences) error
	DeleteUserPreferences(ctx context.Context, delete *store.DeleteUserPreferences) error

	UpsertUserPreferenceProfile(ctx context.Context, upsert *store.UpsertUserPreferenceProfile) (*store.UserPreferenceProfile, error)
	GetUserPreferenceProfile(ctx context.Context, find *store.FindUserPreferenceProfile) (*store.UserPreferenceProfile, error)
}

type service struct {
	store Store
	now   func() time.Time
}

// NewService creates a new preference service.
func NewService(store Store) Service {
	return &service{store: store, now: time.Now}
}

// SavePreferences implements Service.
func (s *service) SavePreferences(ctx context.Context, userID int32, selectedIDs []int32) *SaveResult {
	if userID == 0 {
		metrics.PreferenceSaves.WithLabelValues(string(apperrors.ErrCodeUnauthenticated)).Inc()
		return failedSave(apperrors.Unauthenticated(msgNotAuthenticated))
	}

	ids := normalizeSelection(selectedIDs)
	start := s.now()
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		// Locking the user row serializes concurrent saves of the same user,
		// so the profile always matches the selection that commits last.
		user, err := s.store.GetUser(ctx, &store.FindUser{ID: &userID, ForUpdate: true})
		if err != nil {
			return apperrors.StorageFailure("failed to load user", err)
		}
		if user == nil {
			return apperrors.Unauthenticated(msgNotAuthenticated)
		}

		if err := s.store.DeleteUserPreferences(ctx, &store.DeleteUserPreferences{UserID: userID}); err != nil {
			return apperrors.StorageFailure("failed to clear previous selection", err)
		}
		if err := s.store.CreateUserPreferences(ctx, &store.CreateUserPreferences{UserID: userID, PreferenceIDs: ids}); err != nil {
			return apperrors.StorageFailure("failed to store selection", err)
		}
		if err := s.markCompleted(ctx, userID, start); err != nil {
			return err
		}
		_, err = s.rebuildProfile(ctx, userID, start)
		return err
	})
	metrics.PreferenceSaveDuration.Observe(s.now().Sub(start).Seconds())

	if err != nil {
		code := apperrors.GetCodeFromError(err, apperrors.ErrCodeStorageFailure)
		metrics.PreferenceSaves.WithLabelValues(string(code)).Inc()
		observability.FromContext(ctx).Warn("failed to save preferences",
			slog.Int("userID", int(userID)),
			slog.Int("selected", len(ids)),
			slog.String("code", string(code)),
			slog.String("error", err.Error()),
		)
		return failedSave(err)
	}

	metrics.PreferenceSaves.WithLabelValues("ok").Inc()
	observability.FromContext(ctx).Debug("saved preferences", slog.Int("userID", int(userID)), slog.Int("selected", len(ids)))
	return &SaveResult{Success: true, Message: msgSaved}
}

// NeedsOnboarding implements Service.
func (s *service) NeedsOnboarding(ctx context.Context, userID int32) (bool, error) {
	state, err := resolveOnboardingState(ctx, s, userID)
	if err != nil {
		return false, apperrors.StorageFailure("failed to check onboarding state", err)
	}
	metrics.OnboardingChecks.WithLabelValues(state.String()).Inc()

	if state.needsHeal() {
		// The repair is opportunistic: the selection already proves setup was done.
		if err := s.markCompleted(ctx, userID, s.now()); err != nil {
			observability.FromContext(ctx).Warn("failed to heal completion flag",
				slog.Int("userID", int(userID)),
				slog.String("error", err.Error()),
			)
		} else {
			observability.FromContext(ctx).Info("healed completion flag for legacy user", slog.Int("userID", int(userID)))
		}
	}
	return state.needsOnboarding(), nil
}

// GetUserPreferenceIDs implements Service.
func (s *service) GetUserPreferenceIDs(ctx context.Context, userID int32) ([]int32, error) {
	if userID == 0 {
		return []int32{}, nil
	}
	ids, err := s.store.ListUserPreferenceIDs(ctx, userID)
	if err != nil {
		return nil, apperrors.StorageFailure("failed to list selected preferences", err)
	}
	return ids, nil
}

// GetUserPreferenceProfile implements Service.
func (s *service) GetUserPreferenceProfile(ctx context.Context, userID int32) (*StoredProfile, error) {
	if userID == 0 {
		return nil, nil
	}
	cached, err := s.store.GetUserPreferenceProfile(ctx, &store.FindUserPreferenceProfile{UserID: &userID})
	if err != nil {
		return nil, apperrors.StorageFailure("failed to get preference profile", err)
	}
	if cached == nil {
		return nil, nil
	}
	summary, err := decodeSummary(cached.SummaryJSON)
	if err != nil {
		return nil, apperrors.StorageFailure("stored preference profile is not valid JSON", err)
	}
	return &StoredProfile{
		Summary:   summary,
		Version:   cached.Version,
		UpdatedTs: cached.UpdatedTs,
	}, nil
}

// ListActivePreferences implements Service.
func (s *service) ListActivePreferences(ctx context.Context) ([]*store.Preference, error) {
	list, err := s.store.ListActivePreferences(ctx)
	if err != nil {
		return nil, apperrors.StorageFailure("failed to list preferences", err)
	}
	return list, nil
}

// completionFlag implements onboardingProbe. A missing user row reads as unset.
func (s *service) completionFlag(ctx context.Context, userID int32) (bool, error) {
	user, err := s.store.GetUser(ctx, &store.FindUser{ID: &userID})
	if err != nil {
		return false, err
	}
	return user != nil && user.PrefsCompleted, nil
}

// hasSelection implements onboardingProbe.
func (s *service) hasSelection(ctx context.Context, userID int32) (bool, error) {
	return s.store.HasUserPreferences(ctx, userID)
}

// markCompleted sets the completion flag. It never clears it.
func (s *service) markCompleted(ctx context.Context, userID int32, now time.Time) error {
	completed := true
	updatedTs := now.Unix()
	if _, err := s.store.UpdateUser(ctx, &store.UpdateUser{
		ID:             userID,
		PrefsCompleted: &completed,
		UpdatedTs:      &updatedTs,
	}); err != nil {
		return apperrors.StorageFailure("failed to mark preferences completed", err)
	}
	return nil
}

// rebuildProfile derives the profile from the stored selection and catalog and upserts it.
func (s *service) rebuildProfile(ctx context.Context, userID int32, now time.Time) (*ProfileSummary, error) {
	ids, err := s.store.ListUserPreferenceIDs(ctx, userID)
	if err != nil {
		return nil, apperrors.StorageFailure("failed to read selection", err)
	}
	resolved, err := s.store.ResolvePreferences(ctx, ids)
	if err != nil {
		return nil, apperrors.StorageFailure("failed to resolve selection", err)
	}

	summary := BuildSummary(ids, resolved, now)
	if dropped := len(ids) - len(summary.SelectedIDs); dropped > 0 {
		metrics.ProfileDroppedReferences.Add(float64(dropped))
		observability.FromContext(ctx).Debug("dropped unresolved preference ids", slog.Int("userID", int(userID)), slog.Int("dropped", dropped))
	}

	raw, err := encodeSummary(summary)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStorageFailure, "failed to encode preference profile")
	}
	if _, err := s.store.UpsertUserPreferenceProfile(ctx, &store.UpsertUserPreferenceProfile{
		UserID:      userID,
		SummaryJSON: raw,
		Version:     summary.Version,
	}); err != nil {
		return nil, apperrors.StorageFailure("failed to upsert preference profile", err)
	}
	return summary, nil
}

// normalizeSelection turns the requested ids into a sorted set.
func normalizeSelection(ids []int32) []int32 {
	seen := make(map[int32]bool, len(ids))
	set := make([]int32, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		set = append(set, id)
	}
	sort.Slice(set, func(i, j int) bool { return set[i] < set[j] })
	return set
}

func failedSave(err error) *SaveResult {
	result := &SaveResult{
		Success: false,
		Code:    apperrors.GetCodeFromError(err, apperrors.ErrCodeStorageFailure),
		Message: "Failed to save preferences.",
	}
	var e *apperrors.Error
	if errors.As(err, &e) {
		result.Message = e.Message
	}
	return result
}
