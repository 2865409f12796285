package entities

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Activity is one entry of the append-only event ledger. Entries are never
// mutated or deleted; every derived view (history, notifications) is
// recomputed from them.
//
// Type is an open string tag: unknown values are carried through storage
// untouched and skipped by consumers that do not recognize them.
type Activity struct {
	ID          string
	Type        string
	Description string
	UserID      string // empty for system-generated events
	ProductID   string
	OrderID     string
	Metadata    json.RawMessage
	CreatedAt   time.Time
}

// Activity types written by this service. The column itself is not
// constrained to this list.
const (
	ActivityOrderCreated       = "order_created"
	ActivityOrderStatusChanged = "order_status_changed"
	ActivityInspectionComplete = "inspection_complete"
	ActivityStorageComplete    = "storage_complete"
	ActivityProductListed      = "product_listed"
	ActivityProductSold        = "product_sold"
	ActivityFulfillmentStarted = "fulfillment_started"
	ActivityShippingStarted    = "shipping_started"
	ActivityProductShipped     = "product_shipped"
	ActivityProductDelivered   = "product_delivered"
	ActivityProductCancelled   = "product_cancelled"
	ActivityReturnCreated      = "return_created"
	ActivityProductReturned    = "product_returned"
	ActivityReturnIntake       = "return_intake"
	ActivityInventoryMoved     = "inventory_moved"
	ActivityInventoryCheck     = "inventory_check"
	ActivityInventoryAlert     = "inventory_alert"
	ActivityPaymentReceived    = "payment_received"
	ActivityLabelGenerated     = "label_generated"
	ActivityLabelUploaded      = "label_uploaded"
)

// transitionActivity maps the status a product transitions into to the
// activity type recorded for that step.
var transitionActivity = map[ProductStatus]string{
	ProductInspection: ActivityInspectionComplete,
	ProductStorage:    ActivityStorageComplete,
	ProductListing:    ActivityProductListed,
	ProductSold:       ActivityProductSold,
	ProductOrdered:    ActivityFulfillmentStarted,
	ProductShipping:   ActivityShippingStarted,
	ProductShipped:    ActivityProductShipped,
	ProductDelivered:  ActivityProductDelivered,
	ProductReturned:   ActivityProductReturned,
	ProductCancelled:  ActivityProductCancelled,
}

// TransitionActivityType returns the activity type recorded when a product
// enters target.
func TransitionActivityType(target ProductStatus) string {
	if t, ok := transitionActivity[target]; ok {
		return t
	}
	return "status_changed"
}

// Typed metadata payloads, one per activity type that carries structure.
// Anything that fails to decode is treated as absent rather than an error,
// so legacy rows with free-form blobs keep working.

type StatusChangeMetadata struct {
	From       string `json:"from"`
	To         string `json:"to"`
	LocationID string `json:"locationId,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

type LabelMetadata struct {
	FileName       string `json:"fileName"`
	FileURL        string `json:"fileUrl,omitempty"`
	Provider       string `json:"provider,omitempty"`
	Carrier        string `json:"carrier,omitempty"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
	FileSize       int64  `json:"fileSize,omitempty"`
	ContentType    string `json:"contentType,omitempty"`
}

type ReturnMetadata struct {
	Reason       string          `json:"reason"`
	RefundAmount decimal.Decimal `json:"refundAmount"`
	IsFullReturn bool            `json:"isFullReturn"`
	ProductIDs   []string        `json:"productIds"`
}

type OrderCreatedMetadata struct {
	OrderNumber string          `json:"orderNumber"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	ItemCount   int             `json:"itemCount"`
}

type MovementMetadata struct {
	FromLocationID string `json:"fromLocationId,omitempty"`
	ToLocationID   string `json:"toLocationId"`
}

func (a Activity) StatusChangeMeta() (StatusChangeMetadata, bool) {
	var m StatusChangeMetadata
	return m, decodeMeta(a.Metadata, &m)
}

func (a Activity) LabelMeta() (LabelMetadata, bool) {
	var m LabelMetadata
	if !decodeMeta(a.Metadata, &m) || m.FileName == "" {
		return LabelMetadata{}, false
	}
	return m, true
}

func (a Activity) ReturnMeta() (ReturnMetadata, bool) {
	var m ReturnMetadata
	return m, decodeMeta(a.Metadata, &m)
}

func (a Activity) OrderCreatedMeta() (OrderCreatedMetadata, bool) {
	var m OrderCreatedMetadata
	return m, decodeMeta(a.Metadata, &m)
}

func decodeMeta(raw json.RawMessage, dst any) bool {
	if len(raw) == 0 {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// EncodeMetadata marshals a typed payload for storage. A nil payload
// produces an empty metadata blob.
func EncodeMetadata(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
