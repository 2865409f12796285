package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/consignops/fulfillment-service/internal/entities"
	"github.com/consignops/fulfillment-service/internal/service"
	"github.com/consignops/fulfillment-service/pkg/utils"
)

// UploadShippingLabel accepts an externally produced label file.
// @Summary      Upload a shipping label
// @Description  Accepts a pdf/jpeg/png label up to 10 MB for an order. The response may carry a warning when bookkeeping failed after the file was stored.
// @Tags         shipping
// @Accept       multipart/form-data
// @Produce      json
// @Param        file            formData  file    true   "Label file"
// @Param        itemId          formData  string  true   "Order id or order number"
// @Param        provider        formData  string  false  "Label provider"
// @Param        trackingNumber  formData  string  false  "Tracking number"
// @Param        carrier         formData  string  false  "Carrier"
// @Success      200  {object}  UploadLabelResponse
// @Failure      400  {object}  utils.ErrorResponse "Missing or invalid file"
// @Failure      404  {object}  utils.ErrorResponse "Order not found"
// @Router       /shipping/label/upload [post]
func (h *HTTPHandler) UploadShippingLabel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(h.maxLabelBytes); err != nil {
		utils.WriteError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.WriteError(w, "label file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	orderRef := r.FormValue("itemId")
	if orderRef == "" {
		utils.WriteError(w, "itemId is required", http.StatusBadRequest)
		return
	}

	contentType := header.Header.Get("Content-Type")

	result, err := h.fulfillment.UploadShippingLabel(ctx, service.UploadLabelRequest{
		OrderRef:       orderRef,
		FileName:       header.Filename,
		ContentType:    contentType,
		Size:           header.Size,
		File:           file,
		Provider:       r.FormValue("provider"),
		TrackingNumber: r.FormValue("trackingNumber"),
		Carrier:        r.FormValue("carrier"),
		ActorID:        actorID(ctx),
	})

	switch {
	case errors.Is(err, entities.ErrOrderNotFound):
		utils.WriteError(w, "order not found", http.StatusNotFound)
		return
	case errors.Is(err, entities.ErrFileTooLarge),
		errors.Is(err, entities.ErrUnsupportedFileType):
		utils.WriteError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.logger.ErrorContext(ctx, "failed to upload label", slog.Any("error", err), slog.String("order_ref", orderRef))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	labelsUploaded.Inc()
	if result.Warning != "" {
		labelUploadWarnings.Inc()
	}

	// the next label lookup must see the new file
	h.labels.InvalidateLabel(result.OrderID)

	utils.WriteJSON(w, UploadLabelResponse{
		Success:         true,
		FileURL:         result.FileURL,
		FileName:        result.FileName,
		Provider:        result.Provider,
		OrderID:         result.OrderID,
		ProductsUpdated: result.ProductsUpdated,
		Message:         "shipping label uploaded",
		Warning:         result.Warning,
		DBError:         result.DBError,
	}, http.StatusOK)
}

// GetShippingLabel resolves the newest label artifact for an order.
// @Summary      Resolve an order's shipping label
// @Tags         shipping
// @Produce      json
// @Param        orderId  query  string  true  "Order id or order number"
// @Success      200  {object}  LabelResponse
// @Failure      404  {object}  utils.ErrorResponse "No label found"
// @Router       /shipping/label/get [get]
func (h *HTTPHandler) GetShippingLabel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderRef := r.URL.Query().Get("orderId")
	if orderRef == "" {
		utils.WriteError(w, "orderId is required", http.StatusBadRequest)
		return
	}

	ref, err := h.labels.ResolveLabel(ctx, orderRef)

	switch {
	case errors.Is(err, entities.ErrOrderNotFound),
		errors.Is(err, entities.ErrLabelNotFound):
		utils.WriteError(w, "label not found", http.StatusNotFound)
		return
	case err != nil:
		h.logger.ErrorContext(ctx, "failed to resolve label", slog.Any("error", err), slog.String("order_ref", orderRef))
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, LabelResponse{
		URL:      ref.URL,
		FileName: ref.FileName,
		Provider: ref.Provider,
		Carrier:  ref.Carrier,
	}, http.StatusOK)
}
