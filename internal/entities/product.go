package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductInbound    ProductStatus = "inbound"
	ProductInspection ProductStatus = "inspection"
	ProductStorage    ProductStatus = "storage"
	ProductListing    ProductStatus = "listing"
	ProductSold       ProductStatus = "sold"
	ProductOrdered    ProductStatus = "ordered"
	ProductShipping   ProductStatus = "shipping"
	ProductShipped    ProductStatus = "shipped"
	ProductDelivered  ProductStatus = "delivered"
	ProductReturned   ProductStatus = "returned"
	ProductCancelled  ProductStatus = "cancelled"
)

// productPipeline is the linear fulfillment order of the non-terminal states.
var productPipeline = []ProductStatus{
	ProductInbound, ProductInspection, ProductStorage, ProductListing,
	ProductSold, ProductOrdered, ProductShipping, ProductShipped, ProductDelivered,
}

var productSuccessors = buildProductSuccessors()

func buildProductSuccessors() map[ProductStatus][]ProductStatus {
	m := make(map[ProductStatus][]ProductStatus, len(productPipeline)+2)
	for i, s := range productPipeline {
		next := make([]ProductStatus, 0, 3)
		if i+1 < len(productPipeline) {
			next = append(next, productPipeline[i+1])
		}
		// returned and cancelled are reachable from any non-terminal state
		next = append(next, ProductReturned, ProductCancelled)
		m[s] = next
	}
	m[ProductReturned] = nil
	m[ProductCancelled] = nil
	return m
}

// CanTransition reports whether to is a legal successor of from.
func (from ProductStatus) CanTransition(to ProductStatus) bool {
	for _, s := range productSuccessors[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s ProductStatus) Terminal() bool {
	return s == ProductReturned || s == ProductCancelled
}

func (s ProductStatus) Valid() bool {
	_, ok := productSuccessors[s]
	return ok
}

// IntakeStatus reports whether s is a valid target of return-intake triage.
// Returned products re-enter the pipeline only at inspection, storage or listing.
func (s ProductStatus) IntakeStatus() bool {
	return s == ProductInspection || s == ProductStorage || s == ProductListing
}

type Product struct {
	ID                string
	SKU               string
	Name              string
	Category          string
	Status            ProductStatus
	SellerID          string
	CurrentLocationID string // empty while in transit
	Price             decimal.Decimal
	Condition         string
	InspectedBy       string
	InspectedAt       *time.Time
	InspectionNotes   string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
