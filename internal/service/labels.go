package service

import (
	"context"
	"errors"
	"log/slog"
	"path"

	"github.com/consignops/fulfillment-service/internal/entities"
)

type LabelActivityReader interface {
	ListOrderActivities(ctx context.Context, orderID string, types []string) ([]entities.Activity, error)
}

type ShipmentReader interface {
	ListShipmentsByOrder(ctx context.Context, orderID string) ([]entities.Shipment, error)
}

type OrderResolver interface {
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (entities.Order, error)
}

type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Delete(key string)
}

type labelService struct {
	logger     *slog.Logger
	orders     OrderResolver
	activities LabelActivityReader
	shipments  ShipmentReader
	cache      Cache
	baseURL    string
}

// NewLabelService builds the label resolver. Labels historically come from
// two upload paths (system generated vs. uploaded by staff), so resolution
// reconciles both; the activity-based path always wins. Consolidating to a
// single label table would break resolution for pre-migration data, so the
// search order is load-bearing.
func NewLabelService(logger *slog.Logger, orders OrderResolver, activities LabelActivityReader, shipments ShipmentReader, cache Cache, baseURL string) *labelService {
	return &labelService{
		logger:     logger.With(slog.String("service", "labels")),
		orders:     orders,
		activities: activities,
		shipments:  shipments,
		cache:      cache,
		baseURL:    baseURL,
	}
}

var labelActivityTypes = []string{entities.ActivityLabelGenerated, entities.ActivityLabelUploaded}

// carriers assumed when metadata does not name one
const (
	defaultGeneratedCarrier = "marketplace"
	defaultUploadedCarrier  = "other"
)

// ResolveLabel locates the newest label artifact for an order, given either
// its internal id or its human order number.
func (s *labelService) ResolveLabel(ctx context.Context, orderRef string) (entities.LabelRef, error) {
	order, err := s.resolveOrder(ctx, orderRef)
	if err != nil {
		return entities.LabelRef{}, err
	}

	if data, ok := s.cache.Get(order.ID); ok {
		var ref entities.LabelRef
		if err := ref.Unmarshal(data); err == nil {
			return ref, nil
		}
	}

	ref, err := s.resolve(ctx, order.ID)
	if err != nil {
		return entities.LabelRef{}, err
	}

	if data, err := ref.Marshal(); err == nil {
		s.cache.Set(order.ID, data)
	}
	return ref, nil
}

// InvalidateLabel drops the cached resolution for an order, typically
// right after a new label was uploaded for it.
func (s *labelService) InvalidateLabel(orderID string) {
	s.cache.Delete(orderID)
}

func (s *labelService) resolve(ctx context.Context, orderID string) (entities.LabelRef, error) {
	// first path: label activities, newest first
	activities, err := s.activities.ListOrderActivities(ctx, orderID, labelActivityTypes)
	if err != nil {
		return entities.LabelRef{}, err
	}
	for _, a := range activities {
		meta, ok := a.LabelMeta()
		if !ok {
			continue
		}
		carrier := meta.Carrier
		if carrier == "" {
			carrier = defaultUploadedCarrier
			if a.Type == entities.ActivityLabelGenerated {
				carrier = defaultGeneratedCarrier
			}
		}
		return entities.LabelRef{
			URL:      s.baseURL + "/" + meta.FileName,
			FileName: meta.FileName,
			Provider: meta.Provider,
			Carrier:  carrier,
		}, nil
	}

	// fallback path: label references embedded in shipment notes
	shipments, err := s.shipments.ListShipmentsByOrder(ctx, orderID)
	if err != nil {
		return entities.LabelRef{}, err
	}
	for _, sh := range shipments {
		notes, ok := sh.ParseNotes()
		if !ok {
			continue
		}
		fileName := notes.FileName
		if fileName == "" {
			fileName = path.Base(notes.LabelFileURL)
		}
		carrier := notes.Carrier
		if carrier == "" {
			carrier = nullStringOr(sh.Carrier, defaultUploadedCarrier)
		}
		return entities.LabelRef{
			URL:      notes.LabelFileURL,
			FileName: fileName,
			Provider: notes.Provider,
			Carrier:  carrier,
		}, nil
	}

	return entities.LabelRef{}, entities.ErrLabelNotFound
}

// resolveOrder accepts either an internal id or a marketplace order number.
// Id columns are text, so probing with a number misses cleanly and falls
// through to the number lookup.
func (s *labelService) resolveOrder(ctx context.Context, ref string) (entities.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, ref)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, entities.ErrOrderNotFound) {
		return entities.Order{}, err
	}
	return s.orders.GetOrderByNumber(ctx, ref)
}

func nullStringOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
