package store

import (
	"context"

	"github.com/hrygo/tripprefs/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetProfile() *profile.Profile {
	return s.profile
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// RunInTx runs fn inside one transaction of the underlying driver.
// Store calls made with the context handed to fn are part of the transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.driver.RunInTx(ctx, fn)
}
