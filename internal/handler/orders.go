package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/consignops/fulfillment-service/internal/entities"
	"github.com/consignops/fulfillment-service/internal/service"
	"github.com/consignops/fulfillment-service/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// AdvanceOrder moves an order one step along the fulfillment pipeline.
// @Summary      Advance an order's status
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        order_id  path   string               true  "Order id"
// @Param        request   body   AdvanceOrderRequest  true  "Target status"
// @Success      200  {object}  OrderResponse
// @Failure      400  {object}  utils.ErrorResponse "Illegal transition"
// @Failure      404  {object}  utils.ErrorResponse "Order not found"
// @Router       /orders/{order_id}/status [post]
func (h *HTTPHandler) AdvanceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID := chi.URLParam(r, "order_id")

	var body AdvanceOrderRequest
	if err := utils.DecodeBody(r, &body); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(body); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	order, err := h.fulfillment.AdvanceOrder(ctx, orderID, entities.OrderStatus(body.Status), actorID(ctx))

	switch {
	case errors.Is(err, entities.ErrOrderNotFound):
		utils.WriteError(w, "order not found", http.StatusNotFound)
		return
	case errors.Is(err, entities.ErrInvalidTransition):
		utils.WriteError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.logger.ErrorContext(ctx, "failed to advance order", slog.Any("error", err), slog.String("order_id", orderID))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, OrderResponse{Success: true, Order: OrderEntityToJSON(order)}, http.StatusOK)
}

// ListActivities pages through the activity ledger.
// @Summary      List activity entries
// @Tags         activities
// @Produce      json
// @Param        productId  query  string  false  "Filter by product"
// @Param        orderId    query  string  false  "Filter by order"
// @Param        limit      query  int     false  "Page size"
// @Param        offset     query  int     false  "Page offset"
// @Success      200  {array}  Activity
// @Router       /activities [get]
func (h *HTTPHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	activities, err := h.activities.List(ctx, service.ActivityQuery{
		ProductID: q.Get("productId"),
		OrderID:   q.Get("orderId"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list activities", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := make([]Activity, 0, len(activities))
	for _, a := range activities {
		resp = append(resp, ActivityEntityToJSON(a))
	}
	utils.WriteJSON(w, resp, http.StatusOK)
}
