package domain

import (
	"strings"
	"time"
)

type VehicleClass string

const (
	VehicleClassStandard VehicleClass = "STANDARD"
	VehicleClassPremium  VehicleClass = "PREMIUM"
	VehicleClassLuxury   VehicleClass = "LUXURY"
)

// VehicleClasses lists every vehicle class in a stable order.
var VehicleClasses = []VehicleClass{VehicleClassStandard, VehicleClassPremium, VehicleClassLuxury}

func (c VehicleClass) Valid() bool {
	_, ok := ratePerKM[c]
	return ok
}

type RideStatus string

const (
	RideStatusPending   RideStatus = "PENDING"
	RideStatusConfirmed RideStatus = "CONFIRMED"
	RideStatusCompleted RideStatus = "COMPLETED"
	RideStatusCancelled RideStatus = "CANCELLED"
)

// RideStatuses lists every ride status in a stable order.
var RideStatuses = []RideStatus{RideStatusPending, RideStatusConfirmed, RideStatusCompleted, RideStatusCancelled}

// rideTransitions is the ride state machine. COMPLETED and CANCELLED are terminal.
var rideTransitions = map[RideStatus][]RideStatus{
	RideStatusPending:   {RideStatusConfirmed, RideStatusCancelled},
	RideStatusConfirmed: {RideStatusCompleted, RideStatusCancelled},
	RideStatusCompleted: {},
	RideStatusCancelled: {},
}

func (s RideStatus) Valid() bool {
	_, ok := rideTransitions[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s RideStatus) Terminal() bool {
	return s.Valid() && len(rideTransitions[s]) == 0
}

// CanTransition reports whether the state machine has an edge from -> to.
func CanTransition(from, to RideStatus) bool {
	for _, s := range rideTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s in one step.
func NextStatuses(s RideStatus) []RideStatus {
	return append([]RideStatus(nil), rideTransitions[s]...)
}

// Ride is the domain read model of a trip.
type Ride struct {
	ID     RideID
	UserID UserID

	PickupLocation  string
	DropoffLocation string
	VehicleClass    VehicleClass
	Fare            Money
	DistanceKM      float64
	Status          RideStatus

	Rider *RiderSummary

	CreatedAt time.Time
}

// ParseRideStatus maps a client-supplied status token to the canonical enumeration.
// Matching ignores case and surrounding space; "ACCEPTED" is an alias of CONFIRMED
// used by older mobile clients.
func ParseRideStatus(s string) (RideStatus, bool) {
	st := RideStatus(strings.ToUpper(strings.TrimSpace(s)))
	if st == "ACCEPTED" {
		return RideStatusConfirmed, true
	}
	if !st.Valid() {
		return "", false
	}
	return st, true
}

// ParseVehicleClass maps a client-supplied class token to a VehicleClass, ignoring case.
func ParseVehicleClass(s string) (VehicleClass, bool) {
	c := VehicleClass(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", false
	}
	return c, true
}
