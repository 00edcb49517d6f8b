package events

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/sirupsen/logrus"
	"catalog-service/internal/models"
)

const (
	StreamProducts = "PRODUCT_EVENTS"

	ProductCreated = "product.created"
	ProductUpdated = "product.updated"
	ProductDeleted = "product.deleted"
)

// ProductEvent is the envelope published for every product change.
type ProductEvent struct {
	EventID       string                 `json:"eventId"`
	EventType     string                 `json:"eventType"`
	Timestamp     time.Time              `json:"timestamp"`
	ProductID     string                 `json:"productId"`
	ProductCode   int64                  `json:"productCode,omitempty"`
	ProductName   string                 `json:"productName,omitempty"`
	SKU           string                 `json:"sku,omitempty"`
	ChangeType    string                 `json:"changeType"`
	ChangedFields []string               `json:"changedFields,omitempty"`
	OldValue      map[string]interface{} `json:"oldValue,omitempty"`
	NewValue      map[string]interface{} `json:"newValue,omitempty"`
}

// Publisher publishes product events to NATS JetStream
type Publisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *logrus.Entry
}

// NewPublisher creates a new product events publisher
func NewPublisher(logger *logrus.Logger) (*Publisher, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.InfoLevel)
	}

	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = nats.DefaultURL
	}

	nc, err := nats.Connect(natsURL,
		nats.Name("catalog-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	// Ensure the products stream exists
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamProducts,
		Subjects: []string{"product.>"},
		Storage:  jetstream.FileStorage,
	})
	if err != nil {
		logger.WithError(err).Warn("Failed to ensure products stream (may already exist)")
	}

	return &Publisher{
		nc:     nc,
		js:     js,
		logger: logger.WithField("component", "catalog-events"),
	}, nil
}

// Close closes the NATS connection
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}

// PublishProductCreated publishes a product.created event
func (p *Publisher) PublishProductCreated(ctx context.Context, product *models.Product) error {
	event := p.buildProductEvent(ProductCreated, product)
	event.ChangeType = "created"
	return p.publish(ctx, event)
}

// PublishProductUpdated publishes a product.updated event with the old and
// new values of the merged fields.
func (p *Publisher) PublishProductUpdated(ctx context.Context, product, oldProduct *models.Product, changedFields []string) error {
	event := p.buildProductEvent(ProductUpdated, product)
	event.ChangeType = "updated"
	event.ChangedFields = changedFields

	if oldProduct != nil {
		event.OldValue = productSnapshot(oldProduct)
	}
	event.NewValue = productSnapshot(product)

	return p.publish(ctx, event)
}

// PublishProductDeleted publishes a product.deleted event
func (p *Publisher) PublishProductDeleted(ctx context.Context, productID uuid.UUID) error {
	event := &ProductEvent{
		EventID:    uuid.New().String(),
		EventType:  ProductDeleted,
		Timestamp:  time.Now().UTC(),
		ProductID:  productID.String(),
		ChangeType: "deleted",
	}
	return p.publish(ctx, event)
}

func (p *Publisher) buildProductEvent(eventType string, product *models.Product) *ProductEvent {
	return &ProductEvent{
		EventID:     uuid.New().String(),
		EventType:   eventType,
		Timestamp:   time.Now().UTC(),
		ProductID:   product.ID.String(),
		ProductCode: product.ProductCode,
		ProductName: product.Name,
		SKU:         product.SKU,
	}
}

func productSnapshot(product *models.Product) map[string]interface{} {
	desc := ""
	if product.Description != nil {
		desc = *product.Description
	}
	return map[string]interface{}{
		"productCode": product.ProductCode,
		"name":        product.Name,
		"category":    product.Category,
		"price":       product.Price,
		"quantity":    product.Quantity,
		"sku":         product.SKU,
		"description": desc,
	}
}

// publish is a helper that logs and publishes events asynchronously
func (p *Publisher) publish(ctx context.Context, event *ProductEvent) error {
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		data, err := json.Marshal(event)
		if err != nil {
			p.logger.WithError(err).Error("Failed to marshal product event")
			return
		}

		if _, err := p.js.Publish(pubCtx, event.EventType, data); err != nil {
			p.logger.WithFields(logrus.Fields{
				"eventType": event.EventType,
				"productID": event.ProductID,
			}).WithError(err).Error("Failed to publish product event")
		} else {
			p.logger.WithFields(logrus.Fields{
				"eventType":   event.EventType,
				"productID":   event.ProductID,
				"productName": event.ProductName,
			}).Info("Product event published successfully")
		}
	}()

	return nil
}
