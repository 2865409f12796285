package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/consignops/fulfillment-service/internal/entities"
	"github.com/consignops/fulfillment-service/internal/middleware"
	"github.com/consignops/fulfillment-service/internal/service"
	"github.com/consignops/fulfillment-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type FulfillmentService interface {
	ProcessReturn(ctx context.Context, req service.ReturnRequest) (service.ReturnResult, error)
	ProcessReturnedInventory(ctx context.Context, req service.ReturnedIntakeRequest) ([]entities.Product, error)
	UploadShippingLabel(ctx context.Context, req service.UploadLabelRequest) (service.UploadLabelResult, error)
	AdvanceOrder(ctx context.Context, orderID string, target entities.OrderStatus, actorID string) (entities.Order, error)
}

type LabelResolver interface {
	ResolveLabel(ctx context.Context, orderRef string) (entities.LabelRef, error)
	InvalidateLabel(orderID string)
}

type NotificationService interface {
	DeriveNotifications(ctx context.Context, userID, role string) ([]entities.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID, role string) error
}

type ActivityService interface {
	List(ctx context.Context, q service.ActivityQuery) ([]entities.Activity, error)
}

type HTTPHandler struct {
	logger        *slog.Logger
	validate      *validator.Validate
	fulfillment   FulfillmentService
	labels        LabelResolver
	notifications NotificationService
	activities    ActivityService
	jwtSecret     string
	maxLabelBytes int64
}

func NewHTTPHandler(
	logger *slog.Logger,
	fulfillment FulfillmentService,
	labels LabelResolver,
	notifications NotificationService,
	activities ActivityService,
	jwtSecret string,
	maxLabelBytes int64,
) *HTTPHandler {
	return &HTTPHandler{
		logger:        logger.With(slog.String("handler", "http")),
		validate:      validator.New(),
		fulfillment:   fulfillment,
		labels:        labels,
		notifications: notifications,
		activities:    activities,
		jwtSecret:     jwtSecret,
		maxLabelBytes: maxLabelBytes,
	}
}

func (h *HTTPHandler) Init(r chi.Router) {
	r.Get("/health", h.Health)

	// staff-only back-office operations
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(h.jwtSecret))
		r.Use(middleware.RequireRole("staff"))

		r.Post("/returns", h.ProcessReturn)
		r.Put("/returns", h.ProcessReturnedInventory)
		r.Post("/shipping/label/upload", h.UploadShippingLabel)
		r.Get("/shipping/label/get", h.GetShippingLabel)
		r.Post("/orders/{order_id}/status", h.AdvanceOrder)
		r.Get("/activities", h.ListActivities)
	})

	// the notification feed tolerates missing auth: polling UIs get an
	// empty list instead of an error
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(h.jwtSecret))

		r.Get("/notifications/dynamic", h.GetNotifications)
		r.Post("/notifications/dynamic", h.UpdateNotifications)
	})
}

// Health reports liveness.
// @Summary      Health check
// @Tags         system
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
