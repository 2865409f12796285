package handler

import (
	"log/slog"
	"net/http"

	"github.com/consignops/fulfillment-service/internal/middleware"
	"github.com/consignops/fulfillment-service/pkg/utils"
)

// GetNotifications derives the caller's notification feed.
// @Summary      Derive notifications
// @Description  Projects the recent activity log into the caller's feed. Always answers 200; failures degrade to an empty list so polling UIs keep working.
// @Tags         notifications
// @Produce      json
// @Param        role  query  string  false  "Role context"
// @Success      200  {array}  Notification
// @Router       /notifications/dynamic [get]
func (h *HTTPHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims := middleware.GetClaims(ctx)
	if claims == nil {
		utils.WriteJSON(w, []Notification{}, http.StatusOK)
		return
	}

	role := r.URL.Query().Get("role")
	if role == "" {
		role = claims.Role
	}

	notifications, err := h.notifications.DeriveNotifications(ctx, claims.UserID, role)
	if err != nil {
		// availability over correctness: the polling UI gets an empty
		// feed instead of an error
		h.logger.ErrorContext(ctx, "failed to derive notifications", slog.Any("error", err), slog.String("user_id", claims.UserID))
		utils.WriteJSON(w, []Notification{}, http.StatusOK)
		return
	}

	notificationsDerived.Observe(float64(len(notifications)))

	resp := make([]Notification, 0, len(notifications))
	for _, n := range notifications {
		resp = append(resp, NotificationEntityToJSON(n))
	}
	utils.WriteJSON(w, resp, http.StatusOK)
}

// UpdateNotifications persists read-state for the caller's feed.
// @Summary      Mark notifications read
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Param        request  body      UpdateNotificationsRequest  true  "Action"
// @Success      200  {object}  SuccessResponse
// @Failure      400  {object}  utils.ValidationErrorResponse "Unknown action"
// @Failure      401  {object}  utils.ErrorResponse "Not authenticated"
// @Router       /notifications/dynamic [post]
func (h *HTTPHandler) UpdateNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims := middleware.GetClaims(ctx)
	if claims == nil {
		utils.WriteError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	var body UpdateNotificationsRequest
	if err := utils.DecodeBody(r, &body); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(body); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	var err error
	switch body.Action {
	case "mark-read":
		if body.NotificationID == "" {
			utils.WriteError(w, "notificationId is required", http.StatusBadRequest)
			return
		}
		err = h.notifications.MarkRead(ctx, claims.UserID, body.NotificationID)
	case "mark-all-read":
		err = h.notifications.MarkAllRead(ctx, claims.UserID, claims.Role)
	}

	if err != nil {
		h.logger.ErrorContext(ctx, "failed to update notifications", slog.Any("error", err), slog.String("user_id", claims.UserID))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, SuccessResponse{Success: true}, http.StatusOK)
}
