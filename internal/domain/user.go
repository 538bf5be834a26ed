package domain

import "time"

// User is the domain representation of a registered rider.
// The password hash never leaves the persistence and accounts layers.
type User struct {
	ID          UserID
	Email       string
	FirstName   string
	LastName    string
	PhoneNumber string

	CreatedAt time.Time
}

// RiderSummary is the subset of a user embedded in ride responses.
type RiderSummary struct {
	FirstName   string
	LastName    string
	PhoneNumber string
}

func (u User) Summary() RiderSummary {
	return RiderSummary{FirstName: u.FirstName, LastName: u.LastName, PhoneNumber: u.PhoneNumber}
}
