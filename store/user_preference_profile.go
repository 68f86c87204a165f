package store

import "context"

// UserPreferenceProfile is the cached, denormalized summary of a user's selection.
type UserPreferenceProfile struct {
	UserID      int32
	SummaryJSON string // JSON string
	Version     string
	UpdatedTs   int64
}

// FindUserPreferenceProfile specifies the conditions for finding a cached profile.
type FindUserPreferenceProfile struct {
	UserID *int32
}

// UpsertUserPreferenceProfile replaces the cached profile of a user.
type UpsertUserPreferenceProfile struct {
	UserID      int32
	SummaryJSON string // JSON string
	Version     string
}

func (s *Store) UpsertUserPreferenceProfile(ctx context.Context, upsert *UpsertUserPreferenceProfile) (*UserPreferenceProfile, error) {
	return s.driver.UpsertUserPreferenceProfile(ctx, upsert)
}

// GetUserPreferenceProfile returns the cached profile, or nil when none was built yet.
func (s *Store) GetUserPreferenceProfile(ctx context.Context, find *FindUserPreferenceProfile) (*UserPreferenceProfile, error) {
	return s.driver.GetUserPreferenceProfile(ctx, find)
}
