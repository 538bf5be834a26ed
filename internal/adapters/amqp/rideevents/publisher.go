package rideevents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/Overland-East-Bay/ride-booking-api/internal/domain"
	"github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/rideevents"
)

// DefaultExchange is the topic exchange ride events are published to.
const DefaultExchange = "rides"

// Channel is the subset of *amqp091.Channel the publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// Publisher publishes ride events as persistent JSON messages on a topic exchange,
// using the event type as routing key.
type Publisher struct {
	ch       Channel
	exchange string
	closer   func() error
}

func NewPublisher(ch Channel, exchange string) *Publisher {
	if exchange == "" {
		exchange = DefaultExchange
	}
	return &Publisher{ch: ch, exchange: exchange}
}

// Dial connects to url, declares the durable topic exchange and returns a publisher
// owning the connection. Call Close on shutdown.
func Dial(url, exchange string) (*Publisher, error) {
	if url == "" {
		return nil, errors.New("empty AMQP_URL")
	}
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", exchange, err)
	}

	p := NewPublisher(ch, exchange)
	p.closer = func() error {
		return errors.Join(ch.Close(), conn.Close())
	}
	return p, nil
}

// message is the wire shape of a ride event.
type message struct {
	EventID      string              `json:"event_id"`
	Type         rideevents.Type     `json:"type"`
	RideID       domain.RideID       `json:"ride_id"`
	UserID       domain.UserID       `json:"user_id"`
	FromStatus   *domain.RideStatus  `json:"from_status,omitempty"`
	ToStatus     domain.RideStatus   `json:"to_status"`
	VehicleClass domain.VehicleClass `json:"vehicle_class,omitempty"`
	Fare         domain.Money        `json:"fare"`
	OccurredAt   time.Time           `json:"occurred_at"`
}

func (p *Publisher) Publish(ctx context.Context, e rideevents.Event) error {
	body, err := json.Marshal(message{
		EventID:      e.ID,
		Type:         e.Type,
		RideID:       e.RideID,
		UserID:       e.UserID,
		FromStatus:   e.FromStatus,
		ToStatus:     e.ToStatus,
		VehicleClass: e.VehicleClass,
		Fare:         e.Fare,
		OccurredAt:   e.OccurredAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode ride event: %w", err)
	}
	err = p.ch.PublishWithContext(ctx,
		p.exchange,
		string(e.Type),
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    e.ID,
			Type:         string(e.Type),
			Timestamp:    e.OccurredAt.UTC(),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}
