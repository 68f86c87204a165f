package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/hrygo/tripprefs/store"
)

func (d *DB) UpsertPreference(ctx context.Context, upsert *store.Preference) (*store.Preference, error) {
	if upsert.CreatedTs == 0 {
		upsert.CreatedTs = time.Now().Unix()
	}

	stmt := `INSERT INTO preference (key, label, category, description, active, sort_order, created_ts)
		VALUES (` + placeholders(7) + `)
		ON CONFLICT (key) DO UPDATE SET
			label = EXCLUDED.label,
			category = EXCLUDED.category,
			description = EXCLUDED.description,
			active = EXCLUDED.active,
			sort_order = EXCLUDED.sort_order
		RETURNING id, created_ts`
	err := d.conn(ctx).QueryRowContext(ctx, stmt,
		upsert.Key, upsert.Label, upsert.Category, upsert.Description, upsert.Active, upsert.SortOrder, upsert.CreatedTs,
	).Scan(&upsert.ID, &upsert.CreatedTs)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert preference: %w", err)
	}
	return upsert, nil
}

func (d *DB) ListPreferences(ctx context.Context, find *store.FindPreference) ([]*store.Preference, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.IDs != nil {
		where, args = append(where, "id = ANY("+placeholder(len(args)+1)+")"), append(args, pq.Array(find.IDs))
	}
	if v := find.Active; v != nil {
		where, args = append(where, "active = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT id, key, label, category, description, active, sort_order, created_ts
		FROM preference
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY category ASC, sort_order ASC, label ASC`
	rows, err := d.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Preference, 0)
	for rows.Next() {
		p := &store.Preference{}
		if err := rows.Scan(&p.ID, &p.Key, &p.Label, &p.Category, &p.Description, &p.Active, &p.SortOrder, &p.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate preferences: %w", err)
	}
	return list, nil
}
