package store

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
)

type catalogSeedItem struct {
	key         string
	label       string
	category    string
	description string
}

// catalogSeed is grouped and ordered for display. Sort orders are assigned
// per category from this order by buildCatalogSeed.
var catalogSeed = []catalogSeedItem{
	// Trip type
	{"tripType.city", "City Break", "tripType", "Museums, food, urban culture."},
	{"tripType.beach", "Beaches", "tripType", "Sun, sand, and sea."},
	{"tripType.mountain", "Mountains", "tripType", "Hiking and viewpoints."},
	{"tripType.roadtrip", "Road Trip", "tripType", "Flexible drives across regions."},

	// Activities
	{"activity.museums", "Museums & Galleries", "activity", "Art, history, science."},
	{"activity.foodtours", "Food Tours", "activity", "Street food and tastings."},
	{"activity.hiking", "Hiking", "activity", "Day hikes and short trails."},
	{"activity.nightlife", "Nightlife", "activity", "Bars, clubs, live music."},
	{"activity.watersports", "Water Sports", "activity", "Kayak, SUP, snorkel."},

	// Cuisine
	{"cuisine.local", "Local Cuisine", "cuisine", "Regional specialties."},
	{"cuisine.vegetarian", "Vegetarian-Friendly", "cuisine", "Plenty of veg options."},
	{"cuisine.streetfood", "Street Food", "cuisine", "Markets and hawkers."},
	{"cuisine.finedining", "Fine Dining", "cuisine", "Tasting menus and chef's picks."},

	// Budget
	{"budget.value", "Best Value", "budget", "Good deals over frills."},
	{"budget.midrange", "Mid-range", "budget", "Balanced comfort and cost."},
	{"budget.luxury", "Luxury", "budget", "Premium experiences."},

	// Pace / style
	{"pace.slow", "Slow & Relaxed", "pace", "Fewer stops, more time."},
	{"pace.balanced", "Balanced", "pace", "Mix of activity and downtime."},
}

func buildCatalogSeed() []*Preference {
	counters := map[string]int32{}
	list := make([]*Preference, 0, len(catalogSeed))
	for _, item := range catalogSeed {
		counters[item.category]++
		description := item.description
		list = append(list, &Preference{
			Key:         item.key,
			Label:       item.label,
			Category:    item.category,
			Description: &description,
			Active:      true,
			SortOrder:   counters[item.category],
		})
	}
	return list
}

// SeedCatalog upserts the built-in travel preference catalog by key.
// Running it again refreshes labels and sort orders without changing ids.
func (s *Store) SeedCatalog(ctx context.Context) ([]*Preference, error) {
	seeded := make([]*Preference, 0, len(catalogSeed))
	err := s.RunInTx(ctx, func(ctx context.Context) error {
		for _, item := range buildCatalogSeed() {
			preference, err := s.UpsertPreference(ctx, item)
			if err != nil {
				return errors.Wrapf(err, "failed to seed preference %s", item.Key)
			}
			seeded = append(seeded, preference)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slog.Info("seeded preference catalog", slog.Int("count", len(seeded)))
	return seeded, nil
}
