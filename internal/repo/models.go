package repo

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/consignops/fulfillment-service/internal/entities"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID                string          `db:"id"`
	SKU               string          `db:"sku"`
	Name              string          `db:"name"`
	Category          sql.NullString  `db:"category"`
	Status            string          `db:"status"`
	SellerID          string          `db:"seller_id"`
	CurrentLocationID sql.NullString  `db:"current_location_id"`
	Price             decimal.Decimal `db:"price"`
	Condition         sql.NullString  `db:"condition"`
	InspectedBy       sql.NullString  `db:"inspected_by"`
	InspectedAt       sql.NullTime    `db:"inspected_at"`
	InspectionNotes   sql.NullString  `db:"inspection_notes"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

type Order struct {
	ID              string          `db:"id"`
	OrderNumber     string          `db:"order_number"`
	CustomerID      string          `db:"customer_id"`
	Status          string          `db:"status"`
	TotalAmount     decimal.Decimal `db:"total_amount"`
	ShippingAddress sql.NullString  `db:"shipping_address"`
	TrackingNumber  sql.NullString  `db:"tracking_number"`
	Carrier         sql.NullString  `db:"carrier"`
	Notes           sql.NullString  `db:"notes"`
	OrderedAt       time.Time       `db:"ordered_at"`
}

type OrderItem struct {
	ID        string          `db:"id"`
	OrderID   string          `db:"order_id"`
	ProductID string          `db:"product_id"`
	Quantity  int             `db:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price"`
}

type Shipment struct {
	ID             string          `db:"id"`
	OrderID        string          `db:"order_id"`
	ProductID      sql.NullString  `db:"product_id"`
	Status         string          `db:"status"`
	Carrier        sql.NullString  `db:"carrier"`
	Method         sql.NullString  `db:"method"`
	TrackingNumber sql.NullString  `db:"tracking_number"`
	Deadline       sql.NullTime    `db:"deadline"`
	Priority       sql.NullString  `db:"priority"`
	DeclaredValue  decimal.Decimal `db:"declared_value"`
	Notes          sql.NullString  `db:"notes"`
	CreatedAt      time.Time       `db:"created_at"`
}

type Activity struct {
	ID          string          `db:"id"`
	Type        string          `db:"type"`
	Description string          `db:"description"`
	UserID      sql.NullString  `db:"user_id"`
	ProductID   sql.NullString  `db:"product_id"`
	OrderID     sql.NullString  `db:"order_id"`
	Metadata    json.RawMessage `db:"metadata"`
	CreatedAt   time.Time       `db:"created_at"`
}

type InventoryMovement struct {
	ID             string         `db:"id"`
	ProductID      string         `db:"product_id"`
	FromLocationID sql.NullString `db:"from_location_id"`
	ToLocationID   string         `db:"to_location_id"`
	MovedBy        sql.NullString `db:"moved_by"`
	Notes          sql.NullString `db:"notes"`
	CreatedAt      time.Time      `db:"created_at"`
}

type Location struct {
	ID   string `db:"id"`
	Code string `db:"code"`
	Name string `db:"name"`
}

func ProductToEntity(p Product) entities.Product {
	var inspectedAt *time.Time
	if p.InspectedAt.Valid {
		t := p.InspectedAt.Time
		inspectedAt = &t
	}
	return entities.Product{
		ID:                p.ID,
		SKU:               p.SKU,
		Name:              p.Name,
		Category:          nullStringToString(p.Category),
		Status:            entities.ProductStatus(p.Status),
		SellerID:          p.SellerID,
		CurrentLocationID: nullStringToString(p.CurrentLocationID),
		Price:             p.Price,
		Condition:         nullStringToString(p.Condition),
		InspectedBy:       nullStringToString(p.InspectedBy),
		InspectedAt:       inspectedAt,
		InspectionNotes:   nullStringToString(p.InspectionNotes),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func OrderToEntity(o Order, items []OrderItem) entities.Order {
	order := entities.Order{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		Status:          entities.OrderStatus(o.Status),
		TotalAmount:     o.TotalAmount,
		ShippingAddress: nullStringToString(o.ShippingAddress),
		TrackingNumber:  nullStringToString(o.TrackingNumber),
		Carrier:         nullStringToString(o.Carrier),
		Notes:           nullStringToString(o.Notes),
		OrderedAt:       o.OrderedAt,
	}
	if len(items) > 0 {
		order.Items = make([]entities.OrderItem, 0, len(items))
		for _, it := range items {
			order.Items = append(order.Items, OrderItemToEntity(it))
		}
	}
	return order
}

func OrderItemToEntity(i OrderItem) entities.OrderItem {
	return entities.OrderItem{
		ID:        i.ID,
		OrderID:   i.OrderID,
		ProductID: i.ProductID,
		Quantity:  i.Quantity,
		UnitPrice: i.UnitPrice,
	}
}

func ShipmentToEntity(s Shipment) entities.Shipment {
	var deadline *time.Time
	if s.Deadline.Valid {
		t := s.Deadline.Time
		deadline = &t
	}
	return entities.Shipment{
		ID:             s.ID,
		OrderID:        s.OrderID,
		ProductID:      nullStringToString(s.ProductID),
		Status:         entities.ShipmentStatus(s.Status),
		Carrier:        nullStringToString(s.Carrier),
		Method:         nullStringToString(s.Method),
		TrackingNumber: nullStringToString(s.TrackingNumber),
		Deadline:       deadline,
		Priority:       nullStringToString(s.Priority),
		DeclaredValue:  s.DeclaredValue,
		Notes:          nullStringToString(s.Notes),
		CreatedAt:      s.CreatedAt,
	}
}

func ActivityToEntity(a Activity) entities.Activity {
	return entities.Activity{
		ID:          a.ID,
		Type:        a.Type,
		Description: a.Description,
		UserID:      nullStringToString(a.UserID),
		ProductID:   nullStringToString(a.ProductID),
		OrderID:     nullStringToString(a.OrderID),
		Metadata:    a.Metadata,
		CreatedAt:   a.CreatedAt,
	}
}

func MovementToEntity(m InventoryMovement) entities.InventoryMovement {
	return entities.InventoryMovement{
		ID:             m.ID,
		ProductID:      m.ProductID,
		FromLocationID: nullStringToString(m.FromLocationID),
		ToLocationID:   m.ToLocationID,
		MovedBy:        nullStringToString(m.MovedBy),
		Notes:          nullStringToString(m.Notes),
		CreatedAt:      m.CreatedAt,
	}
}

func LocationToEntity(l Location) entities.Location {
	return entities.Location{ID: l.ID, Code: l.Code, Name: l.Name}
}
