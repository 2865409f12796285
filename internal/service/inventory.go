package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/consignops/fulfillment-service/internal/entities"
	"github.com/consignops/fulfillment-service/pkg/trm"

	"github.com/google/uuid"
)

type MovementRepo interface {
	CreateMovement(ctx context.Context, m entities.InventoryMovement) error
	UpdateProductLocation(ctx context.Context, productID, locationID string) error
	GetProduct(ctx context.Context, productID string) (entities.Product, error)
	GetLocation(ctx context.Context, locationID string) (entities.Location, error)
}

type MoveRequest struct {
	ProductID      string
	FromLocationID string
	ToLocationID   string
	MovedBy        string
	Notes          string
}

type inventoryService struct {
	logger    *slog.Logger
	txManager trm.Manager
	repo      MovementRepo
}

func NewInventoryService(logger *slog.Logger, txManager trm.Manager, repo MovementRepo) *inventoryService {
	return &inventoryService{
		logger:    logger.With(slog.String("service", "inventory")),
		txManager: txManager,
		repo:      repo,
	}
}

// Move relocates a product. Moving to the location it is already in is a
// successful no-op and writes nothing; otherwise exactly one movement row
// is recorded and the product's location updated in the same transaction.
func (s *inventoryService) Move(ctx context.Context, req MoveRequest) error {
	if req.FromLocationID == req.ToLocationID {
		return nil
	}

	if _, err := s.repo.GetLocation(ctx, req.ToLocationID); err != nil {
		return err
	}

	return s.txManager.Do(ctx, func(ctx context.Context) error {
		movement := entities.InventoryMovement{
			ID:             uuid.NewString(),
			ProductID:      req.ProductID,
			FromLocationID: req.FromLocationID,
			ToLocationID:   req.ToLocationID,
			MovedBy:        req.MovedBy,
			Notes:          req.Notes,
			CreatedAt:      time.Now(),
		}
		if err := s.repo.CreateMovement(ctx, movement); err != nil {
			return err
		}
		if err := s.repo.UpdateProductLocation(ctx, req.ProductID, req.ToLocationID); err != nil {
			return err
		}

		s.logger.DebugContext(ctx, "product moved",
			slog.String("product_id", req.ProductID),
			slog.String("to", req.ToLocationID),
		)
		return nil
	})
}

// CurrentLocation returns the product's last known location. A product in
// transit has none; that is reported as found=false, not an error.
func (s *inventoryService) CurrentLocation(ctx context.Context, productID string) (entities.Location, bool, error) {
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return entities.Location{}, false, err
	}
	if product.CurrentLocationID == "" {
		return entities.Location{}, false, nil
	}

	location, err := s.repo.GetLocation(ctx, product.CurrentLocationID)
	if err != nil {
		return entities.Location{}, false, err
	}
	return location, true, nil
}
