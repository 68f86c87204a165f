package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/tripprefs/store"
)

func (d *DB) CreateUserPreferences(ctx context.Context, create *store.CreateUserPreferences) error {
	if len(create.PreferenceIDs) == 0 {
		return nil
	}

	// The ids travel as one JSON array so the statement stays within
	// SQLite's bound parameter limit for any selection size.
	idList, err := json.Marshal(create.PreferenceIDs)
	if err != nil {
		return fmt.Errorf("failed to encode preference ids: %w", err)
	}
	args := []any{create.UserID, time.Now().Unix(), string(idList)}
	stmt := `INSERT INTO user_preference (user_id, preference_id, created_ts)
		SELECT ` + placeholder(1) + `, value, ` + placeholder(2) + ` FROM json_each(` + placeholder(3) + `)`
	if _, err := d.conn(ctx).ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to create user_preferences: %w", err)
	}
	return nil
}

func (d *DB) ListUserPreferences(ctx context.Context, find *store.FindUserPreference) ([]*store.UserPreference, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.UserID; v != nil {
		where, args = append(where, "user_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT user_id, preference_id, created_ts FROM user_preference WHERE ` + strings.Join(where, " AND ") + ` ORDER BY preference_id ASC`
	if v := find.Limit; v != nil {
		query += fmt.Sprintf(" LIMIT %d", *v)
	}
	rows, err := d.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list user_preferences: %w", err)
	}
	defer rows.Close()

	list := make([]*store.UserPreference, 0)
	for rows.Next() {
		up := &store.UserPreference{}
		if err := rows.Scan(&up.UserID, &up.PreferenceID, &up.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan user_preference: %w", err)
		}
		list = append(list, up)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user_preferences: %w", err)
	}
	return list, nil
}

func (d *DB) DeleteUserPreferences(ctx context.Context, delete *store.DeleteUserPreferences) error {
	if _, err := d.conn(ctx).ExecContext(ctx, `DELETE FROM user_preference WHERE user_id = ?`, delete.UserID); err != nil {
		return fmt.Errorf("failed to delete user_preferences: %w", err)
	}
	return nil
}
