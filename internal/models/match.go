package models

import "time"

type MatchQuery struct {
	RequesterID   string
	PickupZone    string
	Destination   string
	RequestedTime time.Time
}

type MatchResult struct {
	RideID               string    `json:"rideId"`
	DriverID             string    `json:"driverId"`
	DriverName           string    `json:"driverName"`
	PickupZone           string    `json:"pickupZone"`
	Destination          string    `json:"destination"`
	DepartureTime        time.Time `json:"departureTime"`
	AvailableSeats       int       `json:"availableSeats"`
	PricePerSeat         *float64  `json:"pricePerSeat,omitempty"`
	MatchScore           float64   `json:"matchScore"`
	TimeProximityScore   float64   `json:"timeProximityScore"`
	LocationScore        float64   `json:"locationScore"`
	TrustScore           int       `json:"trustScore"`
	DepartmentMatchBonus float64   `json:"departmentMatchBonus"`
	TrustBonus           float64   `json:"trustBonus"`
}
