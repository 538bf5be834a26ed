package rideevents

import (
	"context"
	"time"

	"github.com/Overland-East-Bay/ride-booking-api/internal/domain"
)

type Type string

const (
	TypeCreated       Type = "ride.created"
	TypeStatusChanged Type = "ride.status_changed"
	TypeSeeded        Type = "ride.seeded"
)

// Event describes a committed change to a ride. Events are emitted after the write
// succeeds; consumers must tolerate duplicates.
type Event struct {
	ID     string
	Type   Type
	RideID domain.RideID
	UserID domain.UserID

	FromStatus *domain.RideStatus
	ToStatus   domain.RideStatus

	VehicleClass domain.VehicleClass
	Fare         domain.Money

	OccurredAt time.Time
}

// Publisher delivers ride events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
