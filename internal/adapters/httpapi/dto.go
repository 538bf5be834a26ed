package httpapi

import (
	"time"

	"github.com/oapi-codegen/nullable"

	"github.com/Overland-East-Bay/ride-booking-api/internal/app/accounts"
	"github.com/Overland-East-Bay/ride-booking-api/internal/app/rides"
	"github.com/Overland-East-Bay/ride-booking-api/internal/domain"
)

type registerRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type createRideRequest struct {
	PickupLocation  string `json:"pickup_location"`
	DropoffLocation string `json:"dropoff_location"`
	CarType         string `json:"car_type"`
}

type updateRideStatusRequest struct {
	Status string `json:"status"`
}

type userResponse struct {
	UserID      domain.UserID `json:"user_id"`
	Email       string        `json:"email"`
	FirstName   string        `json:"first_name"`
	LastName    string        `json:"last_name"`
	PhoneNumber string        `json:"phone_number"`
	CreatedAt   time.Time     `json:"created_at"`
}

type registerResponse struct {
	User        userResponse `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

type loginResponse struct {
	User      userResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type riderResponse struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

type rideResponse struct {
	RideID          domain.RideID       `json:"ride_id"`
	UserID          domain.UserID       `json:"user_id"`
	PickupLocation  string              `json:"pickup_location"`
	DropoffLocation string              `json:"dropoff_location"`
	CarType         domain.VehicleClass `json:"car_type"`
	Fare            domain.Money        `json:"fare"`
	DistanceKM      float64             `json:"distance_km"`
	Status          domain.RideStatus   `json:"status"`
	User            *riderResponse      `json:"user,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

type listRidesResponse struct {
	Rides []rideResponse `json:"rides"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	// Limit is null when every matching ride is returned.
	Limit nullable.Nullable[int] `json:"limit"`
}

type seedRidesResponse struct {
	Message string         `json:"message"`
	Count   int            `json:"count"`
	Rides   []rideResponse `json:"rides"`
}

func userFromDomain(u domain.User) userResponse {
	return userResponse{
		UserID:      u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.PhoneNumber,
		CreatedAt:   u.CreatedAt.UTC(),
	}
}

func registerFromResult(res accounts.AuthResult) registerResponse {
	return registerResponse{User: userFromDomain(res.User), AccessToken: res.Token, ExpiresAt: res.ExpiresAt.UTC()}
}

func loginFromResult(res accounts.AuthResult) loginResponse {
	return loginResponse{User: userFromDomain(res.User), Token: res.Token, ExpiresAt: res.ExpiresAt.UTC()}
}

func rideFromDomain(r domain.Ride) rideResponse {
	out := rideResponse{
		RideID:          r.ID,
		UserID:          r.UserID,
		PickupLocation:  r.PickupLocation,
		DropoffLocation: r.DropoffLocation,
		CarType:         r.VehicleClass,
		Fare:            r.Fare,
		DistanceKM:      r.DistanceKM,
		Status:          r.Status,
		CreatedAt:       r.CreatedAt.UTC(),
	}
	if r.Rider != nil {
		out.User = &riderResponse{
			FirstName:   r.Rider.FirstName,
			LastName:    r.Rider.LastName,
			PhoneNumber: r.Rider.PhoneNumber,
		}
	}
	return out
}

func ridesFromDomain(rs []domain.Ride) []rideResponse {
	out := make([]rideResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, rideFromDomain(r))
	}
	return out
}

func listFromPage(p rides.RidePage) listRidesResponse {
	out := listRidesResponse{
		Rides: ridesFromDomain(p.Rides),
		Total: p.Total,
		Page:  p.Page,
		Limit: nullable.NewNullNullable[int](),
	}
	if p.Limit != nil {
		out.Limit = nullable.NewNullableWithValue(*p.Limit)
	}
	return out
}
