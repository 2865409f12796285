package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderReturned   OrderStatus = "returned"
)

var orderSuccessors = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderConfirmed},
	OrderConfirmed:  {OrderProcessing},
	OrderProcessing: {OrderShipped},
	OrderShipped:    {OrderDelivered, OrderCancelled},
	OrderDelivered:  {OrderCancelled},
	OrderCancelled:  nil,
	OrderReturned:   nil,
}

// CanAdvance reports whether to is a legal direct successor of from.
// The returned status is never a legal direct edge: orders regress to
// returned only through return processing.
func (from OrderStatus) CanAdvance(to OrderStatus) bool {
	for _, s := range orderSuccessors[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Returnable reports whether a return may be processed against an order
// in this status.
func (s OrderStatus) Returnable() bool {
	return s == OrderShipped || s == OrderDelivered
}

func (s OrderStatus) Valid() bool {
	_, ok := orderSuccessors[s]
	return ok
}

type Order struct {
	ID              string
	OrderNumber     string
	CustomerID      string
	Status          OrderStatus
	TotalAmount     decimal.Decimal
	ShippingAddress string
	TrackingNumber  string
	Carrier         string
	Notes           string
	OrderedAt       time.Time

	Items []OrderItem
}

// OrderItem fixes a product's price and quantity at the moment of sale.
// Immutable once created.
type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// SoldItem is an order item joined with its product's seller, used by the
// notification projector to attribute sales to users.
type SoldItem struct {
	ProductID   string
	ProductName string
	SellerID    string
	Quantity    int
	UnitPrice   decimal.Decimal
}

func (i SoldItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// HasProduct reports whether productID is among the order's items.
func (o Order) HasProduct(productID string) bool {
	for _, it := range o.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}
