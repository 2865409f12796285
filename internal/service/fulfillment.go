package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/consignops/fulfillment-service/internal/entities"
	"github.com/consignops/fulfillment-service/pkg/trm"
	"github.com/consignops/fulfillment-service/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderRepo interface {
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (entities.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, from, to entities.OrderStatus) (bool, error)
	SetOrderShipping(ctx context.Context, orderID, trackingNumber, carrier string) error
	SaveOrder(ctx context.Context, o entities.Order) (bool, error)
	SaveOrderItems(ctx context.Context, orderID string, items []entities.OrderItem) error
}

type ShipmentCreator interface {
	CreateShipment(ctx context.Context, s entities.Shipment) error
}

type LocationResolver interface {
	GetLocationByCode(ctx context.Context, code string) (entities.Location, error)
}

// ProductTransitioner is the lifecycle manager as the coordinator sees it.
type ProductTransitioner interface {
	Transition(ctx context.Context, productID string, target entities.ProductStatus, actorID string, opts TransitionOptions) (entities.Product, error)
}

// ProductMover is the inventory tracker as the coordinator sees it.
type ProductMover interface {
	Move(ctx context.Context, req MoveRequest) error
}

// LabelStorage accepts a label file and returns its public URL. The actual
// storage backend (disk, object store) is an external collaborator.
type LabelStorage interface {
	Save(ctx context.Context, fileName string, r io.Reader) (string, error)
}

type FulfillmentConfig struct {
	MaxLabelBytes int64
}

type fulfillmentService struct {
	logger     *slog.Logger
	txManager  trm.Manager
	orders     OrderRepo
	products   ProductRepo
	shipments  ShipmentCreator
	locations  LocationResolver
	activities ActivityAppender
	lifecycle  ProductTransitioner
	inventory  ProductMover
	storage    LabelStorage
	cfg        FulfillmentConfig
}

func NewFulfillmentService(
	logger *slog.Logger,
	txManager trm.Manager,
	orders OrderRepo,
	products ProductRepo,
	shipments ShipmentCreator,
	locations LocationResolver,
	activities ActivityAppender,
	lifecycle ProductTransitioner,
	inventory ProductMover,
	storage LabelStorage,
	cfg FulfillmentConfig,
) *fulfillmentService {
	if cfg.MaxLabelBytes <= 0 {
		cfg.MaxLabelBytes = 10 << 20
	}
	return &fulfillmentService{
		logger:     logger.With(slog.String("service", "fulfillment")),
		txManager:  txManager,
		orders:     orders,
		products:   products,
		shipments:  shipments,
		locations:  locations,
		activities: activities,
		lifecycle:  lifecycle,
		inventory:  inventory,
		storage:    storage,
		cfg:        cfg,
	}
}

type ReturnRequest struct {
	OrderID      string
	ProductIDs   []string
	Reason       string
	RefundAmount decimal.Decimal
	Notes        string
	ActorID      string
}

type ReturnResult struct {
	Order        entities.Order
	ProductIDs   []string
	Reason       string
	RefundAmount decimal.Decimal
	IsFullReturn bool
	ProcessedAt  time.Time
}

// ProcessReturn registers a buyer return against a shipped or delivered
// order. A return covering every line item regresses the order to returned;
// a partial return leaves the order status alone and only the named
// products regress. One order-level ledger entry plus one per product keeps
// both histories queryable.
func (s *fulfillmentService) ProcessReturn(ctx context.Context, req ReturnRequest) (ReturnResult, error) {
	order, err := s.orders.GetOrderByID(ctx, req.OrderID)
	if err != nil {
		return ReturnResult{}, err
	}

	if !order.Status.Returnable() {
		return ReturnResult{}, fmt.Errorf("%w: status is %s", entities.ErrOrderNotReturnable, order.Status)
	}

	productIDs := dedupe(req.ProductIDs)
	if len(productIDs) == 0 {
		return ReturnResult{}, entities.ErrItemsNotInOrder
	}
	for _, id := range productIDs {
		if !order.HasProduct(id) {
			return ReturnResult{}, fmt.Errorf("%w: %s", entities.ErrItemsNotInOrder, id)
		}
	}

	isFullReturn := len(productIDs) == len(order.Items)
	processedAt := time.Now()

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		if isFullReturn {
			updated, err := s.orders.UpdateOrderStatus(ctx, order.ID, order.Status, entities.OrderReturned)
			if err != nil {
				return err
			}
			if !updated {
				return fmt.Errorf("%w: order status changed concurrently", entities.ErrOrderNotReturnable)
			}
			order.Status = entities.OrderReturned
		}

		for _, productID := range productIDs {
			if _, err := s.lifecycle.Transition(ctx, productID, entities.ProductReturned, req.ActorID, TransitionOptions{Notes: req.Reason}); err != nil {
				return err
			}
		}

		activity := entities.Activity{
			ID:          uuid.NewString(),
			Type:        entities.ActivityReturnCreated,
			Description: fmt.Sprintf("return created for order %s (%d of %d items)", order.OrderNumber, len(productIDs), len(order.Items)),
			UserID:      req.ActorID,
			OrderID:     order.ID,
			Metadata: entities.EncodeMetadata(entities.ReturnMetadata{
				Reason:       req.Reason,
				RefundAmount: req.RefundAmount,
				IsFullReturn: isFullReturn,
				ProductIDs:   productIDs,
			}),
			CreatedAt: processedAt,
		}
		return s.activities.AppendActivity(ctx, activity)
	})
	if err != nil {
		return ReturnResult{}, err
	}

	s.logger.InfoContext(ctx, "return processed",
		slog.String("order_id", order.ID),
		slog.Bool("full_return", isFullReturn),
		slog.Int("products", len(productIDs)),
	)

	return ReturnResult{
		Order:        order,
		ProductIDs:   productIDs,
		Reason:       req.Reason,
		RefundAmount: req.RefundAmount,
		IsFullReturn: isFullReturn,
		ProcessedAt:  processedAt,
	}, nil
}

type ReturnedIntakeRequest struct {
	ProductIDs []string
	Status     entities.ProductStatus
	LocationID string
	Notes      string
	ActorID    string
}

// ProcessReturnedInventory triages returned products back into the
// pipeline. Only inspection, storage and listing are legal re-entry points,
// and every product must currently be in returned status; a product mid-sale
// is never relocated through this path.
func (s *fulfillmentService) ProcessReturnedInventory(ctx context.Context, req ReturnedIntakeRequest) ([]entities.Product, error) {
	if !req.Status.IntakeStatus() {
		return nil, fmt.Errorf("%w: %s", entities.ErrInvalidIntakeStatus, req.Status)
	}

	productIDs := dedupe(req.ProductIDs)
	if len(productIDs) == 0 {
		return nil, entities.ErrProductNotFound
	}

	products, err := s.products.ListProducts(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	if len(products) != len(productIDs) {
		return nil, entities.ErrProductNotFound
	}
	for _, p := range products {
		if p.Status != entities.ProductReturned {
			return nil, fmt.Errorf("%w: %s is %s", entities.ErrProductsNotReturned, p.ID, p.Status)
		}
	}

	result := make([]entities.Product, 0, len(products))
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		for _, p := range products {
			if req.LocationID != "" && req.LocationID != p.CurrentLocationID {
				if err := s.inventory.Move(ctx, MoveRequest{
					ProductID:      p.ID,
					FromLocationID: p.CurrentLocationID,
					ToLocationID:   req.LocationID,
					MovedBy:        req.ActorID,
					Notes:          req.Notes,
				}); err != nil {
					return err
				}
				p.CurrentLocationID = req.LocationID
			}

			updated, err := s.products.UpdateProductStatus(ctx, p.ID, entities.ProductReturned, req.Status, nil)
			if err != nil {
				return err
			}
			if !updated {
				return fmt.Errorf("%w: %s", entities.ErrProductsNotReturned, p.ID)
			}
			p.Status = req.Status

			activity := entities.Activity{
				ID:          uuid.NewString(),
				Type:        entities.ActivityReturnIntake,
				Description: fmt.Sprintf("%s re-entered pipeline at %s", p.Name, req.Status),
				UserID:      req.ActorID,
				ProductID:   p.ID,
				Metadata: entities.EncodeMetadata(entities.StatusChangeMetadata{
					From:       string(entities.ProductReturned),
					To:         string(req.Status),
					LocationID: req.LocationID,
					Notes:      req.Notes,
				}),
				CreatedAt: time.Now(),
			}
			if err := s.activities.AppendActivity(ctx, activity); err != nil {
				return err
			}

			result = append(result, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

var allowedLabelTypes = map[string]struct{}{
	"application/pdf": {},
	"image/jpeg":      {},
	"image/png":       {},
}

type UploadLabelRequest struct {
	OrderRef       string // internal id or human order number
	FileName       string
	ContentType    string
	Size           int64
	File           io.Reader
	Provider       string
	TrackingNumber string
	Carrier        string
	ActorID        string
}

type UploadLabelResult struct {
	FileURL         string
	FileName        string
	Provider        string
	OrderID         string
	ProductsUpdated int
	// Warning and DBError are set when the file was accepted but the
	// bookkeeping transaction failed. The caller is told rather than the
	// upload being rolled back; availability of the accepted file wins
	// over strict consistency here.
	Warning string
	DBError string
}

// UploadShippingLabel accepts an externally produced label file for an
// order. Validation happens before anything is written; once the file is
// stored, a bookkeeping failure is reported as a warning on an otherwise
// successful response.
func (s *fulfillmentService) UploadShippingLabel(ctx context.Context, req UploadLabelRequest) (UploadLabelResult, error) {
	order, err := s.resolveOrder(ctx, req.OrderRef)
	if err != nil {
		return UploadLabelResult{}, err
	}

	if req.Size > s.cfg.MaxLabelBytes {
		return UploadLabelResult{}, fmt.Errorf("%w: %d bytes", entities.ErrFileTooLarge, req.Size)
	}
	if _, ok := allowedLabelTypes[req.ContentType]; !ok {
		return UploadLabelResult{}, fmt.Errorf("%w: %s", entities.ErrUnsupportedFileType, req.ContentType)
	}

	storedName := fmt.Sprintf("label_%d_%s", time.Now().UnixMilli(), filepath.Base(req.FileName))
	fileURL, err := s.storage.Save(ctx, storedName, io.LimitReader(req.File, s.cfg.MaxLabelBytes))
	if err != nil {
		return UploadLabelResult{}, fmt.Errorf("failed to store label file: %w", err)
	}

	result := UploadLabelResult{
		FileURL:  fileURL,
		FileName: storedName,
		Provider: req.Provider,
		OrderID:  order.ID,
	}

	if err := s.recordLabelUpload(ctx, order, req, storedName, fileURL, &result); err != nil {
		s.logger.ErrorContext(ctx, "label bookkeeping failed after file acceptance",
			slog.String("order_id", order.ID),
			slog.Any("error", err),
		)
		result.Warning = "label stored, but database updates failed"
		result.DBError = err.Error()
	}

	return result, nil
}

func (s *fulfillmentService) recordLabelUpload(ctx context.Context, order entities.Order, req UploadLabelRequest, storedName, fileURL string, result *UploadLabelResult) error {
	return s.txManager.Do(ctx, func(ctx context.Context) error {
		if order.Status != entities.OrderProcessing {
			updated, err := s.orders.UpdateOrderStatus(ctx, order.ID, order.Status, entities.OrderProcessing)
			if err != nil {
				return err
			}
			if !updated {
				return fmt.Errorf("order %s status changed concurrently", order.ID)
			}
		}

		if req.TrackingNumber != "" || req.Carrier != "" {
			if err := s.orders.SetOrderShipping(ctx, order.ID, req.TrackingNumber, req.Carrier); err != nil {
				return err
			}
		}

		triage, err := s.locations.GetLocationByCode(ctx, entities.LocationShippingTriage)
		if err != nil {
			return err
		}

		for _, item := range order.Items {
			product, err := s.products.GetProduct(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if product.Status == entities.ProductOrdered {
				continue
			}
			if !product.Status.CanTransition(entities.ProductOrdered) {
				s.logger.WarnContext(ctx, "skipping product not ready for fulfillment",
					slog.String("product_id", product.ID),
					slog.String("status", string(product.Status)),
				)
				continue
			}

			if err := s.inventory.Move(ctx, MoveRequest{
				ProductID:      product.ID,
				FromLocationID: product.CurrentLocationID,
				ToLocationID:   triage.ID,
				MovedBy:        req.ActorID,
				Notes:          "moved for shipping",
			}); err != nil {
				return err
			}
			if _, err := s.lifecycle.Transition(ctx, product.ID, entities.ProductOrdered, req.ActorID, TransitionOptions{LocationID: triage.ID}); err != nil {
				return err
			}
			result.ProductsUpdated++
		}

		notes := entities.ShipmentNotes{
			LabelFileURL: fileURL,
			FileName:     storedName,
			Provider:     req.Provider,
			Carrier:      req.Carrier,
		}
		shipment := entities.Shipment{
			ID:             uuid.NewString(),
			OrderID:        order.ID,
			ProductID:      firstProductID(order.Items),
			Status:         entities.ShipmentPending,
			Carrier:        req.Carrier,
			TrackingNumber: req.TrackingNumber,
			DeclaredValue:  order.TotalAmount,
			Notes:          string(entities.EncodeMetadata(notes)),
			CreatedAt:      time.Now(),
		}
		if err := s.shipments.CreateShipment(ctx, shipment); err != nil {
			return err
		}

		activity := entities.Activity{
			ID:          uuid.NewString(),
			Type:        entities.ActivityLabelUploaded,
			Description: fmt.Sprintf("shipping label uploaded for order %s", order.OrderNumber),
			UserID:      req.ActorID,
			OrderID:     order.ID,
			Metadata: entities.EncodeMetadata(entities.LabelMetadata{
				FileName:       storedName,
				FileURL:        fileURL,
				Provider:       req.Provider,
				Carrier:        req.Carrier,
				TrackingNumber: req.TrackingNumber,
				FileSize:       req.Size,
				ContentType:    req.ContentType,
			}),
			CreatedAt: time.Now(),
		}
		return s.activities.AppendActivity(ctx, activity)
	})
}

// AdvanceOrder moves an order one step along the fulfillment pipeline.
// Regression to returned is only possible through ProcessReturn.
func (s *fulfillmentService) AdvanceOrder(ctx context.Context, orderID string, target entities.OrderStatus, actorID string) (entities.Order, error) {
	if !target.Valid() {
		return entities.Order{}, fmt.Errorf("%w: unknown status %q", entities.ErrInvalidTransition, target)
	}

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}
	if !order.Status.CanAdvance(target) {
		return entities.Order{}, fmt.Errorf("%w: %s -> %s", entities.ErrInvalidTransition, order.Status, target)
	}

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		updated, err := s.orders.UpdateOrderStatus(ctx, order.ID, order.Status, target)
		if err != nil {
			return err
		}
		if !updated {
			return fmt.Errorf("%w: order status changed concurrently", entities.ErrInvalidTransition)
		}

		activity := entities.Activity{
			ID:          uuid.NewString(),
			Type:        entities.ActivityOrderStatusChanged,
			Description: fmt.Sprintf("order %s moved from %s to %s", order.OrderNumber, order.Status, target),
			UserID:      actorID,
			OrderID:     order.ID,
			Metadata: entities.EncodeMetadata(entities.StatusChangeMetadata{
				From: string(order.Status),
				To:   string(target),
			}),
			CreatedAt: time.Now(),
		}
		return s.activities.AppendActivity(ctx, activity)
	})
	if err != nil {
		return entities.Order{}, err
	}

	order.Status = target
	return order, nil
}

// CreateOrder ingests a marketplace order. Re-delivery of the same order
// number is a no-op even though each delivery mints a fresh id; the total is
// fixed to the sum of item subtotals at creation.
func (s *fulfillmentService) CreateOrder(ctx context.Context, order entities.Order) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.Status == "" {
		order.Status = entities.OrderPending
	}
	if order.OrderedAt.IsZero() {
		order.OrderedAt = time.Now()
	}

	total := decimal.Zero
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.NewString()
		}
		order.Items[i].OrderID = order.ID
		total = total.Add(order.Items[i].Subtotal())
	}
	order.TotalAmount = total

	fn := func() error {
		return s.txManager.Do(ctx, func(ctx context.Context) error {
			inserted, err := s.orders.SaveOrder(ctx, order)
			if err != nil {
				return err
			}
			if !inserted {
				s.logger.DebugContext(ctx, "order already ingested", slog.String("order_id", order.ID))
				return nil
			}
			if err := s.orders.SaveOrderItems(ctx, order.ID, order.Items); err != nil {
				return err
			}

			for _, item := range order.Items {
				_, err := s.lifecycle.Transition(ctx, item.ProductID, entities.ProductSold, "", TransitionOptions{})
				if err != nil && !errors.Is(err, entities.ErrInvalidTransition) {
					return err
				}
			}

			activity := entities.Activity{
				ID:          uuid.NewString(),
				Type:        entities.ActivityOrderCreated,
				Description: fmt.Sprintf("order %s created with %d items", order.OrderNumber, len(order.Items)),
				OrderID:     order.ID,
				Metadata: entities.EncodeMetadata(entities.OrderCreatedMetadata{
					OrderNumber: order.OrderNumber,
					TotalAmount: order.TotalAmount,
					ItemCount:   len(order.Items),
				}),
				CreatedAt: order.OrderedAt,
			}
			return s.activities.AppendActivity(ctx, activity)
		})
	}

	cfg := utils.RetryConfig{
		InitialDelay: 100 * time.Millisecond,
		MaxAttempts:  5,
		Multiplier:   2,
	}
	return utils.Retry(ctx, cfg, fn)
}

// resolveOrder accepts either an internal id or a marketplace order number.
// Id columns are text, so probing with a number misses cleanly and falls
// through to the number lookup.
func (s *fulfillmentService) resolveOrder(ctx context.Context, ref string) (entities.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, ref)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, entities.ErrOrderNotFound) {
		return entities.Order{}, err
	}
	return s.orders.GetOrderByNumber(ctx, ref)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

func firstProductID(items []entities.OrderItem) string {
	if len(items) == 0 {
		return ""
	}
	return items[0].ProductID
}
