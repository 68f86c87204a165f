package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hrygo/tripprefs/store"
)

func (d *DB) UpsertUserPreferenceProfile(ctx context.Context, upsert *store.UpsertUserPreferenceProfile) (*store.UserPreferenceProfile, error) {
	now := time.Now().Unix()

	stmt := `INSERT INTO user_preference_profile (user_id, summary_json, version, updated_ts)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			summary_json = excluded.summary_json,
			version = excluded.version,
			updated_ts = excluded.updated_ts
		RETURNING user_id, summary_json, version, updated_ts`

	result := &store.UserPreferenceProfile{}
	err := d.conn(ctx).QueryRowContext(ctx, stmt, upsert.UserID, upsert.SummaryJSON, upsert.Version, now).Scan(
		&result.UserID,
		&result.SummaryJSON,
		&result.Version,
		&result.UpdatedTs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user_preference_profile: %w", err)
	}
	return result, nil
}

func (d *DB) GetUserPreferenceProfile(ctx context.Context, find *store.FindUserPreferenceProfile) (*store.UserPreferenceProfile, error) {
	if find.UserID == nil {
		return nil, fmt.Errorf("user_id is required")
	}

	result := &store.UserPreferenceProfile{}
	err := d.conn(ctx).QueryRowContext(ctx, `SELECT user_id, summary_json, version, updated_ts FROM user_preference_profile WHERE user_id = ?`, *find.UserID).Scan(
		&result.UserID,
		&result.SummaryJSON,
		&result.Version,
		&result.UpdatedTs,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user_preference_profile: %w", err)
	}
	return result, nil
}
