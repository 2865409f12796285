package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/consignops/fulfillment-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
)

var orderColumns = []string{
	"id", "order_number", "customer_id", "status", "total_amount",
	"shipping_address", "tracking_number", "carrier", "notes", "ordered_at",
}

var orderItemColumns = []string{"id", "order_id", "product_id", "quantity", "unit_price"}

func (r *PostgresRepo) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	return r.getOrder(ctx, sq.Eq{"id": orderID})
}

func (r *PostgresRepo) GetOrderByNumber(ctx context.Context, orderNumber string) (entities.Order, error) {
	return r.getOrder(ctx, sq.Eq{"order_number": orderNumber})
}

func (r *PostgresRepo) getOrder(ctx context.Context, where sq.Eq) (entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(where).
		MustSql()

	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	query, args = r.qb.Select(orderItemColumns...).
		From("order_items").
		Where(sq.Eq{"order_id": order.ID}).
		MustSql()

	var items []OrderItem
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return entities.Order{}, fmt.Errorf("failed to select order items: %w", err)
	}

	return OrderToEntity(order, items), nil
}

// UpdateOrderStatus applies the same optimistic guard as product updates:
// it only succeeds while the order is still in the from status.
func (r *PostgresRepo) UpdateOrderStatus(ctx context.Context, orderID string, from, to entities.OrderStatus) (bool, error) {
	query, args := r.qb.Update("orders").
		Set("status", string(to)).
		Where(sq.Eq{"id": orderID, "status": string(from)}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *PostgresRepo) SetOrderShipping(ctx context.Context, orderID, trackingNumber, carrier string) error {
	q := r.qb.Update("orders").Where(sq.Eq{"id": orderID})
	if trackingNumber != "" {
		q = q.Set("tracking_number", trackingNumber)
	}
	if carrier != "" {
		q = q.Set("carrier", carrier)
	}

	query, args := q.MustSql()
	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to set order shipping info: %w", err)
	}
	return nil
}

// SaveOrder inserts an order idempotently. The order number is the natural
// key of a marketplace order, so a redelivered message conflicts on it no
// matter what id the caller minted. Returns false when an order with the
// same order number already exists.
func (r *PostgresRepo) SaveOrder(ctx context.Context, o entities.Order) (bool, error) {
	query, args := r.qb.Insert("orders").
		Columns(orderColumns...).
		Values(
			o.ID, o.OrderNumber, o.CustomerID, string(o.Status), o.TotalAmount,
			nullString(o.ShippingAddress), nullString(o.TrackingNumber),
			nullString(o.Carrier), nullString(o.Notes), o.OrderedAt,
		).
		Suffix("ON CONFLICT (order_number) DO NOTHING").
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to save order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListOrderItemsWithSellers joins an order's items with each product's
// seller, for attributing sales to users.
func (r *PostgresRepo) ListOrderItemsWithSellers(ctx context.Context, orderID string) ([]entities.SoldItem, error) {
	query, args := r.qb.Select(
		"oi.product_id", "p.name AS product_name", "p.seller_id",
		"oi.quantity", "oi.unit_price",
	).
		From("order_items oi").
		Join("products p ON p.id = oi.product_id").
		Where(sq.Eq{"oi.order_id": orderID}).
		MustSql()

	var rows []struct {
		ProductID   string          `db:"product_id"`
		ProductName string          `db:"product_name"`
		SellerID    string          `db:"seller_id"`
		Quantity    int             `db:"quantity"`
		UnitPrice   decimal.Decimal `db:"unit_price"`
	}
	if err := r.selectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select order items with sellers: %w", err)
	}

	items := make([]entities.SoldItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.SoldItem{
			ProductID:   row.ProductID,
			ProductName: row.ProductName,
			SellerID:    row.SellerID,
			Quantity:    row.Quantity,
			UnitPrice:   row.UnitPrice,
		})
	}
	return items, nil
}

func (r *PostgresRepo) SaveOrderItems(ctx context.Context, orderID string, items []entities.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	q := r.qb.Insert("order_items").
		Columns(orderItemColumns...).
		Suffix("ON CONFLICT (id) DO NOTHING")

	for _, it := range items {
		q = q.Values(it.ID, orderID, it.ProductID, it.Quantity, it.UnitPrice)
	}

	query, args := q.MustSql()
	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save order items: %w", err)
	}
	return nil
}
