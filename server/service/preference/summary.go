package preference

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/hrygo/tripprefs/store"
)

// SummaryVersion is the version of the ProfileSummary document layout.
const SummaryVersion = "1"

// ProfileSummary is the denormalized view of a user's selection handed to
// downstream consumers such as itinerary generation.
//
// SelectedIDs, FlatKeys and FlatLabels are listed category by category in the
// order of ByCategory, not in the order the ids were submitted.
type ProfileSummary struct {
	SelectedIDs []int32             `json:"selectedIds"`
	ByCategory  map[string][]string `json:"byCategory"`
	FlatKeys    []string            `json:"flatKeys"`
	FlatLabels  []string            `json:"flatLabels"`
	GeneratedAt time.Time           `json:"generatedAt"`
	Version     string              `json:"version"`
}

// BuildSummary derives the profile of a selection from the catalog items it
// resolved to. Ids without an active item in resolved are dropped.
//
// Items are taken in id order; categories keep the order in which they first
// appear and items inside a category are ordered by sort order.
func BuildSummary(selectedIDs []int32, resolved []*store.Preference, now time.Time) *ProfileSummary {
	summary := &ProfileSummary{
		SelectedIDs: []int32{},
		ByCategory:  map[string][]string{},
		FlatKeys:    []string{},
		FlatLabels:  []string{},
		GeneratedAt: now.UTC(),
		Version:     SummaryVersion,
	}

	selected := make(map[int32]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = true
	}

	items := make([]*store.Preference, 0, len(resolved))
	seen := make(map[int32]bool, len(resolved))
	for _, item := range resolved {
		if item == nil || !item.Active || !selected[item.ID] || seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		items = append(items, item)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	var categories []string
	groups := map[string][]*store.Preference{}
	for _, item := range items {
		if _, ok := groups[item.Category]; !ok {
			categories = append(categories, item.Category)
		}
		groups[item.Category] = append(groups[item.Category], item)
	}

	for _, category := range categories {
		group := groups[category]
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].SortOrder != group[j].SortOrder {
				return group[i].SortOrder < group[j].SortOrder
			}
			return group[i].ID < group[j].ID
		})
		keys := make([]string, 0, len(group))
		for _, item := range group {
			keys = append(keys, item.Key)
			summary.SelectedIDs = append(summary.SelectedIDs, item.ID)
			summary.FlatKeys = append(summary.FlatKeys, item.Key)
			summary.FlatLabels = append(summary.FlatLabels, item.Label)
		}
		summary.ByCategory[category] = keys
	}

	return summary
}

func encodeSummary(summary *ProfileSummary) (string, error) {
	bytes, err := json.Marshal(summary)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func decodeSummary(raw string) (*ProfileSummary, error) {
	summary := &ProfileSummary{}
	if err := json.Unmarshal([]byte(raw), summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// CategoryGroup is a catalog category with its items, for presentation.
type CategoryGroup struct {
	Category string              `json:"category"`
	Items    []*store.Preference `json:"items"`
}

// GroupByCategory groups an ordered catalog listing by category, keeping the
// order of first appearance for categories and the input order for items.
func GroupByCategory(items []*store.Preference) []*CategoryGroup {
	groups := []*CategoryGroup{}
	index := map[string]*CategoryGroup{}
	for _, item := range items {
		group, ok := index[item.Category]
		if !ok {
			group = &CategoryGroup{Category: item.Category}
			index[item.Category] = group
			groups = append(groups, group)
		}
		group.Items = append(group.Items, item)
	}
	return groups
}
