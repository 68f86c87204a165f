package store

import "context"

// Preference is one selectable item of the travel preference catalog.
type Preference struct {
	ID int32
	// Key is the stable identifier, e.g. "tripType.beach".
	Key         string
	Label       string
	Category    string
	Description *string
	Active      bool
	SortOrder   int32
	CreatedTs   int64
}

// FindPreference specifies the conditions for finding catalog items.
// Results are ordered by category, sort order and label.
type FindPreference struct {
	// IDs restricts the result to the given ids. A non-nil empty slice matches nothing.
	IDs    []int32
	Active *bool
}

func (s *Store) UpsertPreference(ctx context.Context, upsert *Preference) (*Preference, error) {
	return s.driver.UpsertPreference(ctx, upsert)
}

func (s *Store) ListPreferences(ctx context.Context, find *FindPreference) ([]*Preference, error) {
	return s.driver.ListPreferences(ctx, find)
}

// ListActivePreferences returns the active catalog in display order.
func (s *Store) ListActivePreferences(ctx context.Context) ([]*Preference, error) {
	active := true
	return s.driver.ListPreferences(ctx, &FindPreference{Active: &active})
}

// ResolvePreferences returns the active catalog items among ids.
// Unknown and inactive ids are simply absent from the result.
func (s *Store) ResolvePreferences(ctx context.Context, ids []int32) ([]*Preference, error) {
	if len(ids) == 0 {
		return []*Preference{}, nil
	}
	active := true
	return s.driver.ListPreferences(ctx, &FindPreference{IDs: ids, Active: &active})
}
