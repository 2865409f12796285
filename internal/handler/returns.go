package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/consignops/fulfillment-service/internal/entities"
	"github.com/consignops/fulfillment-service/internal/middleware"
	"github.com/consignops/fulfillment-service/internal/service"
	"github.com/consignops/fulfillment-service/pkg/utils"
)

// ProcessReturn registers a return against a shipped or delivered order.
// @Summary      Process an order return
// @Description  Returns all or a subset of an order's items. A full return regresses the order to returned.
// @Tags         returns
// @Accept       json
// @Produce      json
// @Param        request  body      ProcessReturnRequest  true  "Return request"
// @Success      200  {object}  ReturnResponse
// @Failure      400  {object}  utils.ValidationErrorResponse "Invalid input or order state"
// @Failure      404  {object}  utils.ErrorResponse "Order not found"
// @Failure      500  {object}  utils.ErrorResponse "Internal error"
// @Router       /returns [post]
func (h *HTTPHandler) ProcessReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body ProcessReturnRequest
	if err := utils.DecodeBody(r, &body); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(body); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	result, err := h.fulfillment.ProcessReturn(ctx, service.ReturnRequest{
		OrderID:      body.OrderID,
		ProductIDs:   body.ProductIDs,
		Reason:       body.Reason,
		RefundAmount: body.RefundAmount,
		Notes:        body.Notes,
		ActorID:      actorID(ctx),
	})

	switch {
	case errors.Is(err, entities.ErrOrderNotFound):
		utils.WriteError(w, "order not found", http.StatusNotFound)
		return
	case errors.Is(err, entities.ErrOrderNotReturnable),
		errors.Is(err, entities.ErrItemsNotInOrder):
		utils.WriteError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.logger.ErrorContext(ctx, "failed to process return", slog.Any("error", err), slog.String("order_id", body.OrderID))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	returnsProcessed.WithLabelValues(returnKind(result.IsFullReturn)).Inc()

	utils.WriteJSON(w, ReturnResponse{
		Success: true,
		Order:   OrderEntityToJSON(result.Order),
		Return: ReturnDetails{
			ProductIDs:   result.ProductIDs,
			Reason:       result.Reason,
			RefundAmount: result.RefundAmount,
			IsFullReturn: result.IsFullReturn,
			ProcessedAt:  result.ProcessedAt,
		},
	}, http.StatusOK)
}

// ProcessReturnedInventory triages returned products back into the pipeline.
// @Summary      Triage returned inventory
// @Description  Moves returned products to a location and re-enters them at inspection, storage or listing.
// @Tags         returns
// @Accept       json
// @Produce      json
// @Param        request  body      ReturnedInventoryRequest  true  "Intake request"
// @Success      200  {object}  ProductsResponse
// @Failure      400  {object}  utils.ErrorResponse "Invalid status or products not returned"
// @Failure      404  {object}  utils.ErrorResponse "Product or location not found"
// @Router       /returns [put]
func (h *HTTPHandler) ProcessReturnedInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body ReturnedInventoryRequest
	if err := utils.DecodeBody(r, &body); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(body); err != nil {
		utils.WriteValidationError(w, err)
		return
	}

	products, err := h.fulfillment.ProcessReturnedInventory(ctx, service.ReturnedIntakeRequest{
		ProductIDs: body.ProductIDs,
		Status:     entities.ProductStatus(body.Status),
		LocationID: body.LocationID,
		Notes:      body.Notes,
		ActorID:    actorID(ctx),
	})

	switch {
	case errors.Is(err, entities.ErrProductNotFound),
		errors.Is(err, entities.ErrLocationNotFound):
		utils.WriteError(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, entities.ErrInvalidIntakeStatus),
		errors.Is(err, entities.ErrProductsNotReturned):
		utils.WriteError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.logger.ErrorContext(ctx, "failed to process returned inventory", slog.Any("error", err))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := ProductsResponse{Success: true, Products: make([]Product, 0, len(products))}
	for _, p := range products {
		resp.Products = append(resp.Products, ProductEntityToJSON(p))
	}
	utils.WriteJSON(w, resp, http.StatusOK)
}

func actorID(ctx context.Context) string {
	if claims := middleware.GetClaims(ctx); claims != nil {
		return claims.UserID
	}
	return ""
}

func returnKind(full bool) string {
	if full {
		return "full"
	}
	return "partial"
}
