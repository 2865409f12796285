package entities

import "time"

type Location struct {
	ID   string
	Code string
	Name string
}

// LocationShippingTriage is the code of the staging area products are moved
// to when fulfillment starts.
const LocationShippingTriage = "SHIP-TRIAGE"

// InventoryMovement is an immutable record of a product relocation.
// A movement is recorded only when the locations actually differ;
// FromLocationID is empty for a first placement.
type InventoryMovement struct {
	ID             string
	ProductID      string
	FromLocationID string
	ToLocationID   string
	MovedBy        string
	Notes          string
	CreatedAt      time.Time
}
