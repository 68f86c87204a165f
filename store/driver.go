package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// RunInTx runs fn inside a single database transaction. Driver calls made
	// with the context passed to fn join that transaction. The transaction is
	// committed when fn returns nil and rolled back otherwise.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error

	// User model related methods.
	CreateUser(ctx context.Context, create *User) (*User, error)
	UpdateUser(ctx context.Context, update *UpdateUser) (*User, error)
	ListUsers(ctx context.Context, find *FindUser) ([]*User, error)

	// Preference (catalog) model related methods.
	UpsertPreference(ctx context.Context, upsert *Preference) (*Preference, error)
	ListPreferences(ctx context.Context, find *FindPreference) ([]*Preference, error)

	// UserPreference (selection) model related methods.
	CreateUserPreferences(ctx context.Context, create *CreateUserPreferences) error
	ListUserPreferences(ctx context.Context, find *FindUserPreference) ([]*UserPreference, error)
	DeleteUserPreferences(ctx context.Context, delete *DeleteUserPreferences) error

	// UserPreferenceProfile model related methods.
	UpsertUserPreferenceProfile(ctx context.Context, upsert *UpsertUserPreferenceProfile) (*UserPreferenceProfile, error)
	GetUserPreferenceProfile(ctx context.Context, find *FindUserPreferenceProfile) (*UserPreferenceProfile, error)
}
