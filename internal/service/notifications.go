package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/consignops/fulfillment-service/internal/entities"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type ActivityReader interface {
	RecentActivities(ctx context.Context, limit int) ([]entities.Activity, error)
}

type NotificationStateRepo interface {
	GetNotificationSettings(ctx context.Context, userID string) (entities.NotificationSettings, error)
	ReadActivityIDs(ctx context.Context, userID string) (map[string]struct{}, error)
	MarkNotificationsRead(ctx context.Context, userID string, activityIDs []string) error
}

type ProductGetter interface {
	GetProduct(ctx context.Context, productID string) (entities.Product, error)
}

type SoldItemsReader interface {
	ListOrderItemsWithSellers(ctx context.Context, orderID string) ([]entities.SoldItem, error)
	GetOrderByID(ctx context.Context, orderID string) (entities.Order, error)
}

// activityMapper is the capability a recognized activity type carries:
// whether an entry concerns a given user, and how to render it. Types
// without a mapper never become notifications.
type activityMapper struct {
	relevant func(ctx context.Context, userID, role string, a entities.Activity) (bool, error)
	render   func(ctx context.Context, userID string, a entities.Activity) (entities.Notification, bool, error)
}

type notificationService struct {
	logger     *slog.Logger
	activities ActivityReader
	state      NotificationStateRepo
	products   ProductGetter
	orders     SoldItemsReader
	windowSize int

	mappers map[string]activityMapper
}

func NewNotificationService(logger *slog.Logger, activities ActivityReader, state NotificationStateRepo, products ProductGetter, orders SoldItemsReader, windowSize int) *notificationService {
	if windowSize <= 0 {
		windowSize = 50
	}
	s := &notificationService{
		logger:     logger.With(slog.String("service", "notifications")),
		activities: activities,
		state:      state,
		products:   products,
		orders:     orders,
		windowSize: windowSize,
	}
	s.mappers = map[string]activityMapper{
		entities.ActivityOrderCreated: {
			relevant: s.sellerOfOrderItem,
			render:   s.renderOrderCreated,
		},
		entities.ActivityInventoryCheck: {
			relevant: s.actorOrProductSeller,
			render:   s.renderInventoryCheck,
		},
		entities.ActivityReturnCreated: {
			relevant: s.sellerOfOrderItem,
			render:   s.renderReturnCreated,
		},
		entities.ActivityInspectionComplete: {
			relevant: s.actorOrProductSeller,
			render:   s.renderInspectionComplete,
		},
	}
	return s
}

// DeriveNotifications projects the recent activity window into the user's
// notification feed. It is a pure read: the same ledger and settings always
// produce the same ordered list, because notification identity is the
// source activity id.
func (s *notificationService) DeriveNotifications(ctx context.Context, userID, role string) ([]entities.Notification, error) {
	var (
		activities []entities.Activity
		settings   entities.NotificationSettings
		readIDs    map[string]struct{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		activities, err = s.activities.RecentActivities(gctx, s.windowSize)
		return err
	})
	g.Go(func() error {
		var err error
		settings, err = s.state.GetNotificationSettings(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		readIDs, err = s.state.ReadActivityIDs(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	notifications := make([]entities.Notification, 0, len(activities))
	seen := make(map[string]struct{}, len(activities))

	for _, a := range activities {
		if _, ok := seen[a.ID]; ok {
			continue
		}
		mapper, ok := s.mappers[a.Type]
		if !ok {
			continue // unknown or uninteresting type, not an error
		}

		relevant, err := mapper.relevant(ctx, userID, role, a)
		if err != nil {
			return nil, err
		}
		if !relevant {
			continue
		}

		n, ok, err := mapper.render(ctx, userID, a)
		if err != nil {
			return nil, err
		}
		if !ok || !settings.Allows(n.Type) {
			continue
		}

		n.UserID = userID
		_, n.Read = readIDs[a.ID]
		seen[a.ID] = struct{}{}
		notifications = append(notifications, n)
	}

	sort.SliceStable(notifications, func(i, j int) bool {
		if !notifications[i].Timestamp.Equal(notifications[j].Timestamp) {
			return notifications[i].Timestamp.After(notifications[j].Timestamp)
		}
		return notifications[i].ID > notifications[j].ID
	})

	return notifications, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.state.MarkNotificationsRead(ctx, userID, []string{notificationID})
}

// MarkAllRead marks everything in the user's current feed as read.
func (s *notificationService) MarkAllRead(ctx context.Context, userID, role string) error {
	notifications, err := s.DeriveNotifications(ctx, userID, role)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(notifications))
	for _, n := range notifications {
		ids = append(ids, n.ID)
	}
	return s.state.MarkNotificationsRead(ctx, userID, ids)
}

// relevance predicates

// sellerOfOrderItem: the user sells at least one item of the referenced
// order. Staff actors also see their own entries.
func (s *notificationService) sellerOfOrderItem(ctx context.Context, userID, role string, a entities.Activity) (bool, error) {
	if role == "staff" && a.UserID == userID {
		return true, nil
	}
	if a.OrderID == "" {
		return false, nil
	}
	items, err := s.orders.ListOrderItemsWithSellers(ctx, a.OrderID)
	if err != nil {
		return false, err
	}
	for _, it := range items {
		if it.SellerID == userID {
			return true, nil
		}
	}
	return false, nil
}

// actorOrProductSeller: the user performed the activity, or owns the
// referenced product.
func (s *notificationService) actorOrProductSeller(ctx context.Context, userID, _ string, a entities.Activity) (bool, error) {
	if a.UserID == userID {
		return true, nil
	}
	if a.ProductID == "" {
		return false, nil
	}
	product, err := s.products.GetProduct(ctx, a.ProductID)
	if err != nil {
		return false, err
	}
	return product.SellerID == userID, nil
}

// renderers

func (s *notificationService) renderOrderCreated(ctx context.Context, userID string, a entities.Activity) (entities.Notification, bool, error) {
	items, err := s.orders.ListOrderItemsWithSellers(ctx, a.OrderID)
	if err != nil {
		return entities.Notification{}, false, err
	}

	count := 0
	total := decimal.Zero
	for _, it := range items {
		if it.SellerID != userID {
			continue
		}
		count++
		total = total.Add(it.Subtotal())
	}
	if count == 0 {
		return entities.Notification{}, false, nil
	}

	meta, _ := a.OrderCreatedMeta()
	return entities.Notification{
		ID:        a.ID,
		Level:     entities.NotificationSuccess,
		Title:     "Items sold",
		Message:   fmt.Sprintf("%d of your items sold for %s in order %s", count, total.StringFixed(2), meta.OrderNumber),
		Type:      entities.NotificationTypeOrderUpdate,
		Timestamp: a.CreatedAt,
	}, true, nil
}

func (s *notificationService) renderInventoryCheck(_ context.Context, _ string, a entities.Activity) (entities.Notification, bool, error) {
	return entities.Notification{
		ID:        a.ID,
		Level:     entities.NotificationWarning,
		Title:     "Inventory check",
		Message:   a.Description,
		Type:      entities.NotificationTypeInventoryAlert,
		Timestamp: a.CreatedAt,
	}, true, nil
}

func (s *notificationService) renderReturnCreated(_ context.Context, _ string, a entities.Activity) (entities.Notification, bool, error) {
	message := a.Description
	if meta, ok := a.ReturnMeta(); ok && meta.Reason != "" {
		message = fmt.Sprintf("%s (reason: %s)", a.Description, meta.Reason)
	}
	return entities.Notification{
		ID:        a.ID,
		Level:     entities.NotificationError,
		Title:     "Return requested",
		Message:   message,
		Type:      entities.NotificationTypeReturnRequest,
		Timestamp: a.CreatedAt,
	}, true, nil
}

func (s *notificationService) renderInspectionComplete(_ context.Context, _ string, a entities.Activity) (entities.Notification, bool, error) {
	return entities.Notification{
		ID:        a.ID,
		Level:     entities.NotificationSuccess,
		Title:     "Inspection complete",
		Message:   a.Description,
		Type:      entities.NotificationTypeInspectionComplete,
		Timestamp: a.CreatedAt,
	}, true, nil
}
