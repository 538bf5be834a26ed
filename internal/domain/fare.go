package domain

import "math"

// FixedDistanceKM is the distance charged for every ride. Real routing is out of scope.
const FixedDistanceKM = 10

// BookingFee is added to every fare.
const BookingFee Money = 500

// ratePerKM is the per-kilometer rate for each vehicle class.
var ratePerKM = map[VehicleClass]Money{
	VehicleClassStandard: 200,
	VehicleClassPremium:  300,
	VehicleClassLuxury:   400,
}

// Fare computes distanceKM * rate(class) + BookingFee, rounded to the cent.
// The class must be valid (see VehicleClass.Valid); the result depends only on
// its arguments.
func Fare(class VehicleClass, distanceKM float64) Money {
	rate := ratePerKM[class]
	return Money(math.Round(distanceKM*float64(rate))) + BookingFee
}
