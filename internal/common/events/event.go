package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// Event represents a domain event envelope
type Event struct {
	ID            string          `json:"event_id"`
	Type          string          `json:"type"`
	Version       int             `json:"version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	CorrelationID string          `json:"correlation_id"`
	CausationID   string          `json:"causation_id,omitempty"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event
func NewEvent(eventType, aggregateType, aggregateID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            ulid.Make().String(),
		Type:          eventType,
		Version:       1,
		OccurredAt:    time.Now().UTC(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Data:          dataBytes,
	}, nil
}

// WithCorrelation adds correlation and causation IDs
func (e *Event) WithCorrelation(correlationID, causationID string) *Event {
	e.CorrelationID = correlationID
	e.CausationID = causationID
	return e
}

// DecodeData decodes the event data into a struct
func (e *Event) DecodeData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Subject is the broker subject or topic key for the event.
func (e *Event) Subject() string {
	return "events." + e.Type
}

// EventPublisher publishes events to a message broker
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
}

// AggregateCheckoutSession is the aggregate type of checkout events.
const AggregateCheckoutSession = "checkout_session"

// Checkout event types
const (
	EventOrderPlaced = "checkout.order.placed"
	EventOrderFailed = "checkout.order.failed"
)

// OrderPlacedData is the data for checkout.order.placed events
type OrderPlacedData struct {
	SessionID      string    `json:"session_id"`
	OrderID        string    `json:"order_id,omitempty"`
	OrderNumber    string    `json:"order_number,omitempty"`
	CustomerEmail  string    `json:"customer_email"`
	ItemCount      int       `json:"item_count"`
	Subtotal       int64     `json:"subtotal"`
	ShippingFee    int64     `json:"shipping_fee"`
	Discount       int64     `json:"discount"`
	Total          int64     `json:"total"`
	Currency       string    `json:"currency"`
	PaymentMethod  string    `json:"payment_method"`
	DeliveryMethod string    `json:"delivery_method"`
	CouponCode     string    `json:"coupon_code,omitempty"`
	PlacedAt       time.Time `json:"placed_at"`
}

// OrderFailedData is the data for checkout.order.failed events
type OrderFailedData struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
	Total     int64  `json:"total"`
	Currency  string `json:"currency"`
}
