package store

import "context"

// User is the identity record. The sync engine only owns PrefsCompleted.
type User struct {
	ID             int32
	Username       string
	PrefsCompleted bool
	CreatedTs      int64
	UpdatedTs      int64
}

// FindUser specifies the conditions for finding users.
type FindUser struct {
	ID       *int32
	Username *string

	// ForUpdate locks the matched rows until the surrounding transaction ends.
	// It is ignored outside RunInTx.
	ForUpdate bool
}

// UpdateUser specifies the fields of a user to update.
type UpdateUser struct {
	ID             int32
	PrefsCompleted *bool
	UpdatedTs      *int64
}

func (s *Store) CreateUser(ctx context.Context, create *User) (*User, error) {
	return s.driver.CreateUser(ctx, create)
}

func (s *Store) UpdateUser(ctx context.Context, update *UpdateUser) (*User, error) {
	return s.driver.UpdateUser(ctx, update)
}

func (s *Store) ListUsers(ctx context.Context, find *FindUser) ([]*User, error) {
	return s.driver.ListUsers(ctx, find)
}

// GetUser returns the first user matching find, or nil when there is none.
func (s *Store) GetUser(ctx context.Context, find *FindUser) (*User, error) {
	list, err := s.ListUsers(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}
