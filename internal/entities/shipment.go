package entities

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type ShipmentStatus string

const (
	ShipmentPending   ShipmentStatus = "pending"
	ShipmentPacked    ShipmentStatus = "packed"
	ShipmentShipped   ShipmentStatus = "shipped"
	ShipmentDelivered ShipmentStatus = "delivered"
)

// Shipment is one fulfillment attempt for an order. For multi-item
// shipments ProductID is the first item, kept as the representative.
type Shipment struct {
	ID             string
	OrderID        string
	ProductID      string
	Status         ShipmentStatus
	Carrier        string
	Method         string
	TrackingNumber string
	Deadline       *time.Time
	Priority       string
	DeclaredValue  decimal.Decimal
	Notes          string // free text, may embed a ShipmentNotes JSON blob
	CreatedAt      time.Time
}

// ShipmentNotes is the structured payload historically embedded in
// Shipment.Notes by the external label upload path.
type ShipmentNotes struct {
	LabelFileURL string `json:"labelFileUrl"`
	FileName     string `json:"fileName,omitempty"`
	Provider     string `json:"provider,omitempty"`
	Carrier      string `json:"carrier,omitempty"`
}

// ParseNotes decodes the embedded notes blob. It returns false when notes
// is empty, not JSON, or carries no label reference.
func (s Shipment) ParseNotes() (ShipmentNotes, bool) {
	if s.Notes == "" {
		return ShipmentNotes{}, false
	}
	var n ShipmentNotes
	if err := json.Unmarshal([]byte(s.Notes), &n); err != nil || n.LabelFileURL == "" {
		return ShipmentNotes{}, false
	}
	return n, true
}
