package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/consignops/fulfillment-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
)

var productColumns = []string{
	"id", "sku", "name", "category", "status", "seller_id", "current_location_id",
	"price", "condition", "inspected_by", "inspected_at", "inspection_notes",
	"created_at", "updated_at",
}

func (r *PostgresRepo) GetProduct(ctx context.Context, productID string) (entities.Product, error) {
	query, args := r.qb.Select(productColumns...).
		From("products").
		Where(sq.Eq{"id": productID}).
		MustSql()

	var product Product
	err := r.getContext(ctx, &product, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Product{}, entities.ErrProductNotFound
	}
	if err != nil {
		return entities.Product{}, fmt.Errorf("failed to get product: %w", err)
	}
	return ProductToEntity(product), nil
}

func (r *PostgresRepo) ListProducts(ctx context.Context, productIDs []string) ([]entities.Product, error) {
	if len(productIDs) == 0 {
		return []entities.Product{}, nil
	}

	query, args := r.qb.Select(productColumns...).
		From("products").
		Where(sq.Eq{"id": productIDs}).
		MustSql()

	var products []Product
	if err := r.selectContext(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select products: %w", err)
	}

	result := make([]entities.Product, 0, len(products))
	for _, p := range products {
		result = append(result, ProductToEntity(p))
	}
	return result, nil
}

// UpdateProductStatus moves a product from one status to another with an
// optimistic guard: the update applies only if the product is still in the
// from status. Returns false when a concurrent writer got there first.
// A non-nil locationID also overwrites current_location_id.
func (r *PostgresRepo) UpdateProductStatus(ctx context.Context, productID string, from, to entities.ProductStatus, locationID *string) (bool, error) {
	q := r.qb.Update("products").
		Set("status", string(to)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": productID, "status": string(from)})

	if locationID != nil {
		q = q.Set("current_location_id", nullString(*locationID))
	}

	query, args := q.MustSql()
	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update product status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *PostgresRepo) UpdateProductLocation(ctx context.Context, productID, locationID string) error {
	query, args := r.qb.Update("products").
		Set("current_location_id", nullString(locationID)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": productID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update product location: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return entities.ErrProductNotFound
	}
	return nil
}
