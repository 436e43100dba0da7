// Package events publishes order lifecycle events to a message broker.
// Publishing happens after the state change has committed and is best effort:
// a broker outage never rolls back an order.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"campusDelivery/internal/config"
	"campusDelivery/models"
)

// Event describes one order entering a status.
type Event struct {
	ID             string             `json:"id"`
	Type           string             `json:"type"`
	OrderID        string             `json:"order_id"`
	CustomerID     string             `json:"customer_id"`
	DelivererID    *string            `json:"deliverer_id,omitempty"`
	Status         models.OrderStatus `json:"status"`
	DeliveryPoints int64              `json:"delivery_points"`
	OccurredAt     time.Time          `json:"occurred_at"`
}

// ForOrder builds the event for o's current status.
func ForOrder(id string, o *models.Order, at time.Time) Event {
	return Event{
		ID:             id,
		Type:           TypeFor(o.Status),
		OrderID:        o.ID,
		CustomerID:     o.CustomerID,
		DelivererID:    o.DelivererID,
		Status:         o.Status,
		DeliveryPoints: o.DeliveryPoints,
		OccurredAt:     at.UTC(),
	}
}

// TypeFor returns the event type (also the AMQP routing key) for a status.
func TypeFor(s models.OrderStatus) string {
	if s == models.OrderStatusPending {
		return "order.created"
	}
	return "order." + string(s)
}

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Memory keeps published events in memory.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func (m *Memory) Publish(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *Memory) Close() error { return nil }

// Events returns a copy of everything published so far.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// FromConfig builds the publisher selected by cfg.Backend.
func FromConfig(cfg config.EventsConfig) (Publisher, error) {
	switch cfg.Backend {
	case "", "none":
		return Nop{}, nil
	case "kafka":
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	case "amqp":
		return DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
	default:
		return nil, fmt.Errorf("unsupported events backend %q", cfg.Backend)
	}
}
