package store

import "context"

// UserPreference is one (user, catalog item) selection row.
type UserPreference struct {
	UserID       int32
	PreferenceID int32
	CreatedTs    int64
}

// FindUserPreference specifies the conditions for finding selection rows.
type FindUserPreference struct {
	UserID *int32
	Limit  *int
}

// CreateUserPreferences specifies a bulk insert of selection rows for one user.
type CreateUserPreferences struct {
	UserID        int32
	PreferenceIDs []int32
}

// DeleteUserPreferences removes every selection row of a user.
type DeleteUserPreferences struct {
	UserID int32
}

func (s *Store) CreateUserPreferences(ctx context.Context, create *CreateUserPreferences) error {
	if len(create.PreferenceIDs) == 0 {
		return nil
	}
	return s.driver.CreateUserPreferences(ctx, create)
}

func (s *Store) ListUserPreferences(ctx context.Context, find *FindUserPreference) ([]*UserPreference, error) {
	return s.driver.ListUserPreferences(ctx, find)
}

func (s *Store) DeleteUserPreferences(ctx context.Context, delete *DeleteUserPreferences) error {
	return s.driver.DeleteUserPreferences(ctx, delete)
}

// ListUserPreferenceIDs returns the selected catalog ids of a user.
func (s *Store) ListUserPreferenceIDs(ctx context.Context, userID int32) ([]int32, error) {
	list, err := s.driver.ListUserPreferences(ctx, &FindUserPreference{UserID: &userID})
	if err != nil {
		return nil, err
	}
	ids := make([]int32, 0, len(list))
	for _, item := range list {
		ids = append(ids, item.PreferenceID)
	}
	return ids, nil
}

// HasUserPreferences reports whether the user has at least one selection row.
func (s *Store) HasUserPreferences(ctx context.Context, userID int32) (bool, error) {
	limit := 1
	list, err := s.driver.ListUserPreferences(ctx, &FindUserPreference{UserID: &userID, Limit: &limit})
	if err != nil {
		return false, err
	}
	return len(list) > 0, nil
}
