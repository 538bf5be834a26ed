package domain

// UserID is the numeric identifier of a registered rider. It is assigned by the
// user store at registration and never changes.
type UserID int64

// RideID is the numeric identifier of a ride, assigned by the ride store at creation.
type RideID int64
