package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/consignops/fulfillment-service/internal/config"
	"github.com/consignops/fulfillment-service/internal/entities"

	"github.com/go-playground/validator/v10"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

type OrderIngester interface {
	CreateOrder(ctx context.Context, order entities.Order) error
}

// MarketplaceOrder is the message shape the storefront publishes when a
// buyer checks out.
type MarketplaceOrder struct {
	OrderNumber     string                 `json:"order_number" validate:"required"`
	CustomerID      string                 `json:"customer_id" validate:"required"`
	ShippingAddress string                 `json:"shipping_address,omitempty"`
	OrderedAt       int64                  `json:"ordered_at,omitempty"`
	Items           []MarketplaceOrderItem `json:"items" validate:"required,min=1,dive"`
}

type MarketplaceOrderItem struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"required"`
}

type kafkaHandler struct {
	dlq      *kafka.Writer
	reader   *kafka.Reader
	logger   *slog.Logger
	validate *validator.Validate
	ingester OrderIngester
}

func NewKafkaHandler(logger *slog.Logger, cfg config.Kafka, ingester OrderIngester) *kafkaHandler {
	return &kafkaHandler{
		logger: logger.With(slog.String("handler", "kafka")),
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: cfg.Brokers,
			GroupID: cfg.GroupID,
			Topic:   cfg.Topic,
			MaxWait: cfg.ReaderMaxWait,
		}),
		dlq: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: cfg.BatchTimeout,
		},
		validate: validator.New(),
		ingester: ingester,
	}
}

func (h *kafkaHandler) Consume(ctx context.Context) {
	for {
		m, err := h.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				break
			} else {
				h.logger.Error("failed to fetch message", slog.Any("error", err))
				continue
			}
		}

		// ingestion itself retries; anything still failing goes to the DLQ
		if err := h.handleOrderMessage(ctx, m); err != nil {
			h.logger.Error("failed to handle message", slog.Any("error", err))
			ordersFailed.Inc()

			if err := h.writeToDLQ(ctx, m); err != nil {
				h.logger.Error("failed to write message to DLQ", slog.Any("error", err))
				continue
			}
			ordersDLQ.Inc()
		} else {
			ordersIngested.Inc()
		}

		if err := h.reader.CommitMessages(ctx, m); err != nil {
			h.logger.Error("failed to commit message", slog.Any("error", err))
		}
	}
}

func (h *kafkaHandler) handleOrderMessage(ctx context.Context, m kafka.Message) error {
	var msg MarketplaceOrder
	if err := json.Unmarshal(m.Value, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal order: %w", err)
	}

	if err := h.validate.Struct(msg); err != nil {
		return fmt.Errorf("invalid order data: %w", err)
	}

	return h.ingester.CreateOrder(ctx, marketplaceOrderToEntity(msg))
}

func (h *kafkaHandler) writeToDLQ(ctx context.Context, m kafka.Message) error {
	m.Topic = fmt.Sprintf("%s-dlq", m.Topic)
	return h.dlq.WriteMessages(ctx, m)
}

func (h *kafkaHandler) Close() error {
	if err := h.reader.Close(); err != nil {
		return err
	}
	return h.dlq.Close()
}

func marketplaceOrderToEntity(msg MarketplaceOrder) entities.Order {
	items := make([]entities.OrderItem, 0, len(msg.Items))
	for _, it := range msg.Items {
		items = append(items, entities.OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	var orderedAt time.Time
	if msg.OrderedAt > 0 {
		orderedAt = time.Unix(msg.OrderedAt, 0)
	}

	return entities.Order{
		OrderNumber:     msg.OrderNumber,
		CustomerID:      msg.CustomerID,
		ShippingAddress: msg.ShippingAddress,
		Status:          entities.OrderPending,
		OrderedAt:       orderedAt,
		Items:           items,
	}
}
