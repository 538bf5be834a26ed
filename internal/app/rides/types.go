package rides

import "github.com/Overland-East-Bay/ride-booking-api/internal/domain"

type CreateRideInput struct {
	PickupLocation  string
	DropoffLocation string
	VehicleClass    domain.VehicleClass
}

// ListRidesInput selects a page of the caller's rides. Zero values pick the
// defaults: newest first, every matching ride.
type ListRidesInput struct {
	Status    *domain.RideStatus
	SortBy    string
	SortOrder string
	// Page is 1-based and only meaningful together with Limit.
	Page  *int
	Limit *int
}

type RidePage struct {
	Rides []domain.Ride
	Total int
	Page  int
	// Limit is nil when the page holds every matching ride.
	Limit *int
}

type SeedResult struct {
	Message string
	Count   int
	Rides   []domain.Ride
}

const (
	MaxPageLimit = 100
	SeedCount    = 10
	// seedWindowDays bounds how far back seeded rides are dated.
	seedWindowDays = 30
)

// seedLocations are the landmarks sample rides travel between.
var seedLocations = []string{
	"Airport",
	"Train Station",
	"Shopping Mall",
	"City Center",
	"Beach",
	"Hotel",
	"Restaurant",
	"Park",
	"University",
	"Hospital",
}
