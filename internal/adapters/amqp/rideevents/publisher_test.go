package rideevents

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/Overland-East-Bay/ride-booking-api/internal/domain"
	"github.com/Overland-East-Bay/ride-booking-api/internal/ports/out/rideevents"
)

type published struct {
	exchange string
	key      string
	msg      amqp091.Publishing
}

type fakeChannel struct {
	got []published
	err error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.got = append(f.got, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func TestPublisher_Publish_RoutesByTypeAndEncodesJSON(t *testing.T) {
	t.Parallel()

	ch := &fakeChannel{}
	p := NewPublisher(ch, "")

	from := domain.RideStatusPending
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	err := p.Publish(context.Background(), rideevents.Event{
		ID:           "evt-1",
		Type:         rideevents.TypeStatusChanged,
		RideID:       9,
		UserID:       3,
		FromStatus:   &from,
		ToStatus:     domain.RideStatusConfirmed,
		VehicleClass: domain.VehicleClassLuxury,
		Fare:         4500,
		OccurredAt:   at,
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(ch.got) != 1 {
		t.Fatalf("published=%d", len(ch.got))
	}
	got := ch.got[0]
	if got.exchange != DefaultExchange || got.key != "ride.status_changed" {
		t.Fatalf("exchange=%q key=%q", got.exchange, got.key)
	}
	if got.msg.MessageId != "evt-1" || got.msg.DeliveryMode != amqp091.Persistent || got.msg.ContentType != "application/json" {
		t.Fatalf("msg=%+v", got.msg)
	}

	var body map[string]any
	if err := json.Unmarshal(got.msg.Body, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["ride_id"] != float64(9) || body["from_status"] != "PENDING" || body["to_status"] != "CONFIRMED" || body["fare"] != float64(45) {
		t.Fatalf("body=%v", body)
	}
}

func TestPublisher_Publish_WrapsChannelError(t *testing.T) {
	t.Parallel()

	boom := errors.New("channel closed")
	p := NewPublisher(&fakeChannel{err: boom}, "custom")
	err := p.Publish(context.Background(), rideevents.Event{Type: rideevents.TypeCreated})
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
}
