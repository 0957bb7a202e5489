package models

import (
	"time"
)

// Ride status constants
const (
	RideStatusOpen      = "OPEN"
	RideStatusFull      = "FULL"
	RideStatusCompleted = "COMPLETED"
	RideStatusCancelled = "CANCELLED"
)

// Valid ride state transitions
var ValidRideTransitions = map[string][]string{
	RideStatusOpen:      {RideStatusFull, RideStatusCompleted, RideStatusCancelled},
	RideStatusFull:      {RideStatusOpen, RideStatusCompleted, RideStatusCancelled},
	RideStatusCompleted: {},
	RideStatusCancelled: {},
}

// Participant roles and statuses
const (
	RoleDriver    = "DRIVER"
	RolePassenger = "PASSENGER"

	ParticipantRequested = "REQUESTED"
	ParticipantConfirmed = "CONFIRMED"
	ParticipantCancelled = "CANCELLED"
)

type Ride struct {
	ID             string    `db:"id" json:"id"`
	DriverID       string    `db:"driver_id" json:"driver_id"`
	PickupZone     string    `db:"pickup_zone" json:"pickup_zone"`
	Destination    string    `db:"destination" json:"destination"`
	DepartureTime  time.Time `db:"departure_time" json:"departure_time"`
	TotalSeats     int       `db:"total_seats" json:"total_seats"`
	AvailableSeats int       `db:"available_seats" json:"available_seats"`
	Status         string    `db:"status" json:"status"`
	IsSubscription bool      `db:"is_subscription" json:"is_subscription"`
	PricePerSeat   *float64  `db:"price_per_seat" json:"price_per_seat,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type Participant struct {
	RideID    string    `db:"ride_id" json:"ride_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Role      string    `db:"role" json:"role"`
	Status    string    `db:"status" json:"status"`
	JoinedAt  time.Time `db:"joined_at" json:"joined_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// UserRide is a ride seen from one participant's seat.
type UserRide struct {
	Ride
	Role              string `db:"role"`
	ParticipantStatus string `db:"participant_status"`
	DriverName        string `db:"driver_name"`
}

type CreateRideRequest struct {
	PickupZone     string    `json:"pickupZone" validate:"required,max=50"`
	Destination    string    `json:"destination" validate:"required,max=100"`
	DepartureTime  time.Time `json:"departureTime" validate:"required"`
	AvailableSeats int       `json:"availableSeats" validate:"min=1,max=8"`
	IsSubscription bool      `json:"isSubscription"`
	PricePerSeat   *float64  `json:"pricePerSeat,omitempty" validate:"omitempty,gt=0"`
}

type RideResponse struct {
	ID             string    `json:"id"`
	DriverID       string    `json:"driverId"`
	DriverName     string    `json:"driverName"`
	PickupZone     string    `json:"pickupZone"`
	Destination    string    `json:"destination"`
	DepartureTime  time.Time `json:"departureTime"`
	AvailableSeats int       `json:"availableSeats"`
	Status         string    `json:"status"`
	IsSubscription bool      `json:"isSubscription"`
	PricePerSeat   *float64  `json:"pricePerSeat,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type MyRideResponse struct {
	RideID            string    `json:"rideId"`
	Role              string    `json:"role"`
	ParticipantStatus string    `json:"participantStatus"`
	DriverID          string    `json:"driverId"`
	DriverName        string    `json:"driverName"`
	PickupZone        string    `json:"pickupZone"`
	Destination       string    `json:"destination"`
	DepartureTime     time.Time `json:"departureTime"`
	AvailableSeats    int       `json:"availableSeats"`
	RideStatus        string    `json:"rideStatus"`
	PricePerSeat      *float64  `json:"pricePerSeat,omitempty"`
}

func (r *Ride) ToResponse(driverName string) *RideResponse {
	return &RideResponse{
		ID:             r.ID,
		DriverID:       r.DriverID,
		DriverName:     driverName,
		PickupZone:     r.PickupZone,
		Destination:    r.Destination,
		DepartureTime:  r.DepartureTime,
		AvailableSeats: r.AvailableSeats,
		Status:         r.Status,
		IsSubscription: r.IsSubscription,
		PricePerSeat:   r.PricePerSeat,
		CreatedAt:      r.CreatedAt,
	}
}

func (ur *UserRide) ToResponse() *MyRideResponse {
	return &MyRideResponse{
		RideID:            ur.ID,
		Role:              ur.Role,
		ParticipantStatus: ur.ParticipantStatus,
		DriverID:          ur.DriverID,
		DriverName:        ur.DriverName,
		PickupZone:        ur.PickupZone,
		Destination:       ur.Destination,
		DepartureTime:     ur.DepartureTime,
		AvailableSeats:    ur.AvailableSeats,
		RideStatus:        ur.Status,
		PricePerSeat:      ur.PricePerSeat,
	}
}

// CanTransitionTo checks if a ride can transition to a new status
func (r *Ride) CanTransitionTo(newStatus string) bool {
	validNextStates, exists := ValidRideTransitions[r.Status]
	if !exists {
		return false
	}

	for _, state := range validNextStates {
		if state == newStatus {
			return true
		}
	}
	return false
}

// IsActive returns true if the ride is not in a terminal state
func (r *Ride) IsActive() bool {
	return r.Status != RideStatusCompleted && r.Status != RideStatusCancelled
}

// IsJoinable reports whether a seat can still be reserved.
func (r *Ride) IsJoinable() bool {
	return r.Status == RideStatusOpen && r.AvailableSeats > 0
}

// UnavailableReason is the user-facing explanation for a failed join.
func (r *Ride) UnavailableReason() string {
	switch r.Status {
	case RideStatusFull:
		return "ride is full"
	case RideStatusCancelled:
		return "ride was cancelled"
	case RideStatusCompleted:
		return "ride has already completed"
	}
	if r.AvailableSeats <= 0 {
		return "ride is full"
	}
	return "ride is not open for joining"
}

// IsActive reports whether the participant still holds a seat.
func (p *Participant) IsActive() bool {
	return p.Status == ParticipantRequested || p.Status == ParticipantConfirmed
}
