package handler

import (
	"time"

	"github.com/consignops/fulfillment-service/internal/entities"

	"github.com/shopspring/decimal"
)

// ProcessReturnRequest is the body of POST /returns.
type ProcessReturnRequest struct {
	OrderID      string          `json:"orderId" validate:"required"`
	ProductIDs   []string        `json:"productIds" validate:"required,min=1,dive,required"`
	Reason       string          `json:"reason" validate:"required"`
	RefundAmount decimal.Decimal `json:"refundAmount"`
	Notes        string          `json:"notes,omitempty"`
}

// ReturnedInventoryRequest is the body of PUT /returns.
type ReturnedInventoryRequest struct {
	ProductIDs []string `json:"productIds" validate:"required,min=1,dive,required"`
	Status     string   `json:"status" validate:"required"`
	LocationID string   `json:"locationId,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

// AdvanceOrderRequest is the body of POST /orders/{order_id}/status.
type AdvanceOrderRequest struct {
	Status string `json:"status" validate:"required"`
}

// UpdateNotificationsRequest is the body of POST /notifications/dynamic.
type UpdateNotificationsRequest struct {
	NotificationID string `json:"notificationId,omitempty"`
	Action         string `json:"action" validate:"required,oneof=mark-read mark-all-read"`
}

type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	CustomerID      string          `json:"customerId"`
	Status          string          `json:"status"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	ShippingAddress string          `json:"shippingAddress,omitempty"`
	TrackingNumber  string          `json:"trackingNumber,omitempty"`
	Carrier         string          `json:"carrier,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	OrderedAt       time.Time       `json:"orderedAt"`
	Items           []OrderItem     `json:"items,omitempty"`
}

type OrderItem struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type Product struct {
	ID                string          `json:"id"`
	SKU               string          `json:"sku"`
	Name              string          `json:"name"`
	Category          string          `json:"category,omitempty"`
	Status            string          `json:"status"`
	SellerID          string          `json:"sellerId"`
	CurrentLocationID string          `json:"currentLocationId,omitempty"`
	Price             decimal.Decimal `json:"price"`
	Condition         string          `json:"condition,omitempty"`
}

type ReturnDetails struct {
	ProductIDs   []string        `json:"productIds"`
	Reason       string          `json:"reason"`
	RefundAmount decimal.Decimal `json:"refundAmount"`
	IsFullReturn bool            `json:"isFullReturn"`
	ProcessedAt  time.Time       `json:"processedAt"`
}

// ReturnResponse is the success body of POST /returns.
type ReturnResponse struct {
	Success bool          `json:"success"`
	Order   Order         `json:"order"`
	Return  ReturnDetails `json:"return"`
}

// ProductsResponse is the success body of PUT /returns.
type ProductsResponse struct {
	Success  bool      `json:"success"`
	Products []Product `json:"products"`
}

// UploadLabelResponse is the body of POST /shipping/label/upload. Warning
// and DBError are set when the file was accepted but bookkeeping failed.
type UploadLabelResponse struct {
	Success         bool   `json:"success"`
	FileURL         string `json:"fileUrl"`
	FileName        string `json:"fileName"`
	Provider        string `json:"provider,omitempty"`
	OrderID         string `json:"orderId"`
	ProductsUpdated int    `json:"productsUpdated"`
	Message         string `json:"message,omitempty"`
	Warning         string `json:"warning,omitempty"`
	DBError         string `json:"dbError,omitempty"`
}

// LabelResponse is the body of GET /shipping/label/get.
type LabelResponse struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	Provider string `json:"provider,omitempty"`
	Carrier  string `json:"carrier,omitempty"`
}

type OrderResponse struct {
	Success bool  `json:"success"`
	Order   Order `json:"order"`
}

type Notification struct {
	ID        string    `json:"id"`
	Level     string    `json:"level"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"notificationType,omitempty"`
	Read      bool      `json:"read"`
	Timestamp time.Time `json:"timestamp"`
}

type Activity struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	UserID      string    `json:"userId,omitempty"`
	ProductID   string    `json:"productId,omitempty"`
	OrderID     string    `json:"orderId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

func OrderEntityToJSON(o entities.Order) Order {
	items := make([]OrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItem{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	return Order{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		Status:          string(o.Status),
		TotalAmount:     o.TotalAmount,
		ShippingAddress: o.ShippingAddress,
		TrackingNumber:  o.TrackingNumber,
		Carrier:         o.Carrier,
		Notes:           o.Notes,
		OrderedAt:       o.OrderedAt,
		Items:           items,
	}
}

func ProductEntityToJSON(p entities.Product) Product {
	return Product{
		ID:                p.ID,
		SKU:               p.SKU,
		Name:              p.Name,
		Category:          p.Category,
		Status:            string(p.Status),
		SellerID:          p.SellerID,
		CurrentLocationID: p.CurrentLocationID,
		Price:             p.Price,
		Condition:         p.Condition,
	}
}

func NotificationEntityToJSON(n entities.Notification) Notification {
	return Notification{
		ID:        n.ID,
		Level:     string(n.Level),
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		Read:      n.Read,
		Timestamp: n.Timestamp,
	}
}

func ActivityEntityToJSON(a entities.Activity) Activity {
	return Activity{
		ID:          a.ID,
		Type:        a.Type,
		Description: a.Description,
		UserID:      a.UserID,
		ProductID:   a.ProductID,
		OrderID:     a.OrderID,
		CreatedAt:   a.CreatedAt,
	}
}
