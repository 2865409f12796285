package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/consignops/fulfillment-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
)

func (r *PostgresRepo) GetNotificationSettings(ctx context.Context, userID string) (entities.NotificationSettings, error) {
	query, args := r.qb.Select("type", "enabled").
		From("notification_settings").
		Where(sq.Eq{"user_id": userID}).
		MustSql()

	var rows []struct {
		Type    string `db:"type"`
		Enabled bool   `db:"enabled"`
	}
	if err := r.selectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select notification settings: %w", err)
	}

	settings := make(entities.NotificationSettings, len(rows))
	for _, row := range rows {
		settings[row.Type] = row.Enabled
	}
	return settings, nil
}

// ReadActivityIDs returns the ids of activities the user has marked read.
// Notification identity is the source activity id, so this is the whole
// read-state.
func (r *PostgresRepo) ReadActivityIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	query, args := r.qb.Select("activity_id").
		From("notification_reads").
		Where(sq.Eq{"user_id": userID}).
		MustSql()

	var ids []string
	if err := r.selectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select notification reads: %w", err)
	}

	read := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		read[id] = struct{}{}
	}
	return read, nil
}

func (r *PostgresRepo) MarkNotificationsRead(ctx context.Context, userID string, activityIDs []string) error {
	if len(activityIDs) == 0 {
		return nil
	}

	q := r.qb.Insert("notification_reads").
		Columns("user_id", "activity_id", "read_at").
		Suffix("ON CONFLICT (user_id, activity_id) DO NOTHING")

	now := time.Now()
	for _, id := range activityIDs {
		q = q.Values(userID, id, now)
	}

	query, args := q.MustSql()
	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}
