package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hrygo/tripprefs/store"
)

func (d *DB) UpsertUserPreferenceProfile(ctx context.Context, upsert *store.UpsertUserPreferenceProfile) (*store.UserPreferenceProfile, error) {
	now := time.Now().Unix()

	stmt := `INSERT INTO user_preference_profile (user_id, summary_json, version, updated_ts)
		VALUES (` + placeholder(1) + `, ` + placeholder(2) + `, ` + placeholder(3) + `, ` + placeholder(4) + `)
		ON CONFLICT (user_id) DO UPDATE SET
			summary_json = EXCLUDED.summary_json,
			version = EXCLUDED.version,
			updated_ts = EXCLUDED.updated_ts
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

	query := `SELECT user_id, summary_json, version, updated_ts FROM user_preference_profile WHERE user_id = ` + placeholder(1)
	result := &store.UserPreferenceProfile{}
	err := d.conn(ctx).QueryRowContext(ctx, query, *find.UserID).Scan(
		&result.UserID,
		&result.SummaryJSON,
		&result.Version,
		&result.UpdatedTs,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found, return nil without error
		}
		return nil, fmt.Errorf("failed to get user_preference_profile: %w", err)
	}
	return result, nil
}
