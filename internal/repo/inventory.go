package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/consignops/fulfillment-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
)

var locationColumns = []string{"id", "code", "name"}

func (r *PostgresRepo) CreateMovement(ctx context.Context, m entities.InventoryMovement) error {
	query, args := r.qb.Insert("inventory_movements").
		Columns("id", "product_id", "from_location_id", "to_location_id", "moved_by", "notes", "created_at").
		Values(
			m.ID, m.ProductID, nullString(m.FromLocationID), m.ToLocationID,
			nullString(m.MovedBy), nullString(m.Notes), m.CreatedAt,
		).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create inventory movement: %w", err)
	}
	return nil
}

func (r *PostgresRepo) GetLocation(ctx context.Context, locationID string) (entities.Location, error) {
	return r.getLocation(ctx, sq.Eq{"id": locationID})
}

func (r *PostgresRepo) GetLocationByCode(ctx context.Context, code string) (entities.Location, error) {
	return r.getLocation(ctx, sq.Eq{"code": code})
}

func (r *PostgresRepo) getLocation(ctx context.Context, where sq.Eq) (entities.Location, error) {
	query, args := r.qb.Select(locationColumns...).
		From("locations").
		Where(where).
		MustSql()

	var location Location
	err := r.getContext(ctx, &location, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Location{}, entities.ErrLocationNotFound
	}
	if err != nil {
		return entities.Location{}, fmt.Errorf("failed to get location: %w", err)
	}
	return LocationToEntity(location), nil
}
