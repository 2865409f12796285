package repo

import (
	"context"
	"fmt"

	"github.com/consignops/fulfillment-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
)

var shipmentColumns = []string{
	"id", "order_id", "product_id", "status", "carrier", "method",
	"tracking_number", "deadline", "priority", "declared_value", "notes", "created_at",
}

func (r *PostgresRepo) CreateShipment(ctx context.Context, s entities.Shipment) error {
	query, args := r.qb.Insert("shipments").
		Columns(shipmentColumns...).
		Values(
			s.ID, s.OrderID, nullString(s.ProductID), string(s.Status),
			nullString(s.Carrier), nullString(s.Method), nullString(s.TrackingNumber),
			s.Deadline, nullString(s.Priority), s.DeclaredValue, nullString(s.Notes),
			s.CreatedAt,
		).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create shipment: %w", err)
	}
	return nil
}

func (r *PostgresRepo) ListShipmentsByOrder(ctx context.Context, orderID string) ([]entities.Shipment, error) {
	query, args := r.qb.Select(shipmentColumns...).
		From("shipments").
		Where(sq.Eq{"order_id": orderID}).
		OrderBy("created_at DESC").
		MustSql()

	var shipments []Shipment
	if err := r.selectContext(ctx, &shipments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select shipments: %w", err)
	}

	result := make([]entities.Shipment, 0, len(shipments))
	for _, s := range shipments {
		result = append(result, ShipmentToEntity(s))
	}
	return result, nil
}
