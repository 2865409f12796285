package entities_test

import (
	"testing"

	"github.com/consignops/fulfillment-service/internal/entities"
	"github.com/stretchr/testify/assert"
)

func TestProductStatus_CanTransition(t *testing.T) {
	testCases := []struct {
		name string
		from entities.ProductStatus
		to   entities.ProductStatus
		want bool
	}{
		{name: "inbound to inspection", from: entities.ProductInbound, to: entities.ProductInspection, want: true},
		{name: "inspection to storage", from: entities.ProductInspection, to: entities.ProductStorage, want: true},
		{name: "storage to listing", from: entities.ProductStorage, to: entities.ProductListing, want: true},
		{name: "listing to sold", from: entities.ProductListing, to: entities.ProductSold, want: true},
		{name: "sold to ordered", from: entities.ProductSold, to: entities.ProductOrdered, want: true},
		{name: "ordered to shipping", from: entities.ProductOrdered, to: entities.ProductShipping, want: true},
		{name: "shipping to shipped", from: entities.ProductShipping, to: entities.ProductShipped, want: true},
		{name: "shipped to delivered", from: entities.ProductShipped, to: entities.ProductDelivered, want: true},
		{name: "no skipping ahead", from: entities.ProductInbound, to: entities.ProductStorage, want: false},
		{name: "no going back", from: entities.ProductListing, to: entities.ProductStorage, want: false},
		{name: "returned from early state", from: entities.ProductInspection, to: entities.ProductReturned, want: true},
		{name: "returned from late state", from: entities.ProductDelivered, to: entities.ProductReturned, want: true},
		{name: "cancelled from any state", from: entities.ProductSold, to: entities.ProductCancelled, want: true},
		{name: "returned is terminal", from: entities.ProductReturned, to: entities.ProductInspection, want: false},
		{name: "cancelled is terminal", from: entities.ProductCancelled, to: entities.ProductInbound, want: false},
		{name: "unknown status", from: entities.ProductStatus("bogus"), to: entities.ProductInbound, want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.from.CanTransition(tc.to))
		})
	}
}

func TestProductStatus_Terminal(t *testing.T) {
	assert.True(t, entities.ProductReturned.Terminal())
	assert.True(t, entities.ProductCancelled.Terminal())
	assert.False(t, entities.ProductDelivered.Terminal())
	assert.False(t, entities.ProductInbound.Terminal())
}

func TestProductStatus_Valid(t *testing.T) {
	assert.True(t, entities.ProductInbound.Valid())
	assert.True(t, entities.ProductReturned.Valid())
	assert.False(t, entities.ProductStatus("").Valid())
	assert.False(t, entities.ProductStatus("shippedd").Valid())
}

func TestProductStatus_IntakeStatus(t *testing.T) {
	assert.True(t, entities.ProductInspection.IntakeStatus())
	assert.True(t, entities.ProductStorage.IntakeStatus())
	assert.True(t, entities.ProductListing.IntakeStatus())
	assert.False(t, entities.ProductSold.IntakeStatus())
	assert.False(t, entities.ProductReturned.IntakeStatus())
}
