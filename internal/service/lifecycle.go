package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/consignops/fulfillment-service/internal/entities"
	"github.com/consignops/fulfillment-service/pkg/trm"

	"github.com/google/uuid"
)

type ProductRepo interface {
	GetProduct(ctx context.Context, productID string) (entities.Product, error)
	ListProducts(ctx context.Context, productIDs []string) ([]entities.Product, error)
	UpdateProductStatus(ctx context.Context, productID string, from, to entities.ProductStatus, locationID *string) (bool, error)
}

type ActivityAppender interface {
	AppendActivity(ctx context.Context, a entities.Activity) error
}

// TransitionOptions carries the optional side inputs of a status change.
type TransitionOptions struct {
	// LocationID is applied when transitioning into storage or ordered.
	LocationID string
	Notes      string
}

type lifecycleService struct {
	logger     *slog.Logger
	txManager  trm.Manager
	products   ProductRepo
	activities ActivityAppender
}

// NewLifecycleService builds the product lifecycle manager: it owns the
// product status graph and writes a ledger entry for every transition.
func NewLifecycleService(logger *slog.Logger, txManager trm.Manager, products ProductRepo, activities ActivityAppender) *lifecycleService {
	return &lifecycleService{
		logger:     logger.With(slog.String("service", "lifecycle")),
		txManager:  txManager,
		products:   products,
		activities: activities,
	}
}

// Transition moves a product into target. The move must be a legal edge of
// the lifecycle graph; re-returning an already returned product is a no-op
// so upstream retries stay safe. The status update and the activity entry
// commit together.
func (s *lifecycleService) Transition(ctx context.Context, productID string, target entities.ProductStatus, actorID string, opts TransitionOptions) (entities.Product, error) {
	if !target.Valid() {
		return entities.Product{}, fmt.Errorf("%w: unknown status %q", entities.ErrInvalidTransition, target)
	}

	var product entities.Product
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error
		product, err = s.products.GetProduct(ctx, productID)
		if err != nil {
			return err
		}

		if product.Status == entities.ProductReturned && target == entities.ProductReturned {
			return nil
		}

		if !product.Status.CanTransition(target) {
			return fmt.Errorf("%w: %s -> %s", entities.ErrInvalidTransition, product.Status, target)
		}

		var locationID *string
		switch target {
		case entities.ProductStorage, entities.ProductOrdered:
			if opts.LocationID != "" {
				locationID = &opts.LocationID
			}
		}

		updated, err := s.products.UpdateProductStatus(ctx, productID, product.Status, target, locationID)
		if err != nil {
			return err
		}
		if !updated {
			// the row moved on under us since the read above
			return fmt.Errorf("%w: %s -> %s", entities.ErrInvalidTransition, product.Status, target)
		}

		activity := entities.Activity{
			ID:          uuid.NewString(),
			Type:        entities.TransitionActivityType(target),
			Description: fmt.Sprintf("%s moved from %s to %s", product.Name, product.Status, target),
			UserID:      actorID,
			ProductID:   productID,
			Metadata: entities.EncodeMetadata(entities.StatusChangeMetadata{
				From:       string(product.Status),
				To:         string(target),
				LocationID: opts.LocationID,
				Notes:      opts.Notes,
			}),
			CreatedAt: time.Now(),
		}
		if err := s.activities.AppendActivity(ctx, activity); err != nil {
			return err
		}

		product.Status = target
		if locationID != nil {
			product.CurrentLocationID = *locationID
		}

		s.logger.DebugContext(ctx, "product transitioned",
			slog.String("product_id", productID),
			slog.String("status", string(target)),
		)
		return nil
	})
	if err != nil {
		return entities.Product{}, err
	}
	return product, nil
}
