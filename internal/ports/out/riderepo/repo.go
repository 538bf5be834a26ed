package riderepo

import (
	"context"
	"time"

	"github.com/Overland-East-Bay/ride-booking-api/internal/domain"
)

// Ride is the persistence shape used by the ride repository.
type Ride struct {
	ID     domain.RideID
	UserID domain.UserID

	PickupLocation  string
	DropoffLocation string
	VehicleClass    domain.VehicleClass
	Fare            domain.Money
	Status          domain.RideStatus

	CreatedAt time.Time
}

// NewRide carries the fields of a ride that does not have an ID yet.
type NewRide struct {
	UserID          domain.UserID
	PickupLocation  string
	DropoffLocation string
	VehicleClass    domain.VehicleClass
	Fare            domain.Money
	Status          domain.RideStatus
	CreatedAt       time.Time
}

type SortField string

const (
	SortByCreatedAt SortField = "created_at"
	SortByFare      SortField = "fare"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ListQuery narrows and orders a user's rides.
//
// Ordering is by SortBy in Order, ties broken by ride ID ascending regardless of Order.
// Limit <= 0 means "no limit"; Offset is applied after ordering.
type ListQuery struct {
	Status *domain.RideStatus
	SortBy SortField
	Order  SortOrder
	Limit  int
	Offset int
}

// Repository provides access to persisted rides.
//
// Every single logical write is atomic: a failed call leaves prior state unchanged.
type Repository interface {
	Create(ctx context.Context, r NewRide) (Ride, error)
	// CreateMany stores all rides in one transaction, or none of them.
	CreateMany(ctx context.Context, rs []NewRide) ([]Ride, error)

	// GetForUser returns the ride only when it is owned by userID; otherwise ErrNotFound.
	GetForUser(ctx context.Context, id domain.RideID, userID domain.UserID) (Ride, error)

	// UpdateStatus sets status to `to` only if the ride is owned by userID and its
	// current status equals `from`. ErrStatusConflict is returned when the ride exists
	// but its status differs; ErrNotFound when it does not exist for the user.
	UpdateStatus(ctx context.Context, id domain.RideID, userID domain.UserID, from, to domain.RideStatus) (Ride, error)

	// List returns the page of rides selected by q and the total number of rides
	// matching the filter (ignoring Limit/Offset).
	List(ctx context.Context, userID domain.UserID, q ListQuery) ([]Ride, int, error)
}
