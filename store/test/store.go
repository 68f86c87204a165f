package test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hrygo/tripprefs/internal/profile"
	"github.com/hrygo/tripprefs/store"
	"github.com/hrygo/tripprefs/store/db"
)

// NewTestingStore returns a migrated store backed by the driver selected with
// the DRIVER environment variable. SQLite (the default) uses a fresh file per
// test; PostgreSQL uses POSTGRES_TEST_DSN or a throwaway container.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()

	profile := getTestingProfile(t)
	dbDriver, err := db.NewDBDriver(profile)
	if err != nil {
		t.Fatalf("failed to create db driver: %v", err)
	}

	ts := store.New(dbDriver, profile)
	t.Cleanup(func() {
		if err := ts.Close(); err != nil {
			t.Logf("failed to close store: %v", err)
		}
	})
	if err := ts.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	return ts
}

func getDriverFromEnv() string {
	if driver := os.Getenv("DRIVER"); driver != "" {
		return driver
	}
	return "sqlite"
}

func getTestingProfile(t *testing.T) *profile.Profile {
	driver := getDriverFromEnv()
	dir := t.TempDir()

	p := &profile.Profile{
		Mode:   "dev",
		Port:   getUnusedPort(t),
		Data:   dir,
		Driver: driver,
		Secret: "test-secret",
	}
	switch driver {
	case "sqlite":
		p.DSN = filepath.Join(dir, fmt.Sprintf("tripprefs_%s.db", p.Mode))
	case "postgres":
		p.DSN = GetPostgresDSN(t)
	default:
		t.Fatalf("unsupported driver %q", driver)
	}
	return p
}

func createTestingUser(ctx context.Context, ts *store.Store, username string) (*store.User, error) {
	return ts.CreateUser(ctx, &store.User{Username: username})
}

func seedTestingCatalog(ctx context.Context, t *testing.T, ts *store.Store) map[string]*store.Preference {
	t.Helper()
	seeded, err := ts.SeedCatalog(ctx)
	if err != nil {
		t.Fatalf("failed to seed catalog: %v", err)
	}
	byKey := make(map[string]*store.Preference, len(seeded))
	for _, p := range seeded {
		byKey[p.Key] = p
	}
	return byKey
}
