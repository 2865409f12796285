package repo

import (
	"context"
	"fmt"

	"github.com/consignops/fulfillment-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
)

var activityColumns = []string{
	"id", "type", "description", "user_id", "product_id", "order_id", "metadata", "created_at",
}

// AppendActivity writes one ledger entry. Entries are append-only: there is
// no update or delete path for them anywhere in the repo.
func (r *PostgresRepo) AppendActivity(ctx context.Context, a entities.Activity) error {
	query, args := r.qb.Insert("activities").
		Columns(activityColumns...).
		Values(
			a.ID, a.Type, a.Description, nullString(a.UserID),
			nullString(a.ProductID), nullString(a.OrderID),
			[]byte(a.Metadata), a.CreatedAt,
		).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}
	return nil
}

// ListOrderActivities returns an order's entries of the given types,
// newest first.
func (r *PostgresRepo) ListOrderActivities(ctx context.Context, orderID string, types []string) ([]entities.Activity, error) {
	where := sq.And{sq.Eq{"order_id": orderID}}
	if len(types) > 0 {
		where = append(where, sq.Eq{"type": types})
	}

	query, args := r.qb.Select(activityColumns...).
		From("activities").
		Where(where).
		OrderBy("created_at DESC").
		MustSql()

	return r.selectActivities(ctx, query, args...)
}

// RecentActivities returns the newest limit entries across the whole ledger.
func (r *PostgresRepo) RecentActivities(ctx context.Context, limit int) ([]entities.Activity, error) {
	query, args := r.qb.Select(activityColumns...).
		From("activities").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		MustSql()

	return r.selectActivities(ctx, query, args...)
}

type ActivityFilter struct {
	ProductID string
	OrderID   string
	Limit     int
	Offset    int
}

func (r *PostgresRepo) ListActivities(ctx context.Context, f ActivityFilter) ([]entities.Activity, error) {
	q := r.qb.Select(activityColumns...).
		From("activities").
		OrderBy("created_at DESC")

	if f.ProductID != "" {
		q = q.Where(sq.Eq{"product_id": f.ProductID})
	}
	if f.OrderID != "" {
		q = q.Where(sq.Eq{"order_id": f.OrderID})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	query, args := q.MustSql()
	return r.selectActivities(ctx, query, args...)
}

func (r *PostgresRepo) selectActivities(ctx context.Context, query string, args ...any) ([]entities.Activity, error) {
	var activities []Activity
	if err := r.selectContext(ctx, &activities, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select activities: %w", err)
	}

	result := make([]entities.Activity, 0, len(activities))
	for _, a := range activities {
		result = append(result, ActivityToEntity(a))
	}
	return result, nil
}
