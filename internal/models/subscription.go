package models

import "time"

type SubscriptionPool struct {
	ID            string    `db:"id" json:"id"`
	PickupZone    string    `db:"pickup_zone" json:"pickup_zone"`
	DepartureTime string    `db:"departure_time" json:"departure_time"` // HH:MM, local to the scheduler timezone
	DayOfWeek     int       `db:"day_of_week" json:"day_of_week"`       // 0 = Sunday
	CreatedBy     string    `db:"created_by" json:"created_by"`
	MemberCount   int       `db:"member_count" json:"member_count"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type PoolMember struct {
	PoolID   string    `db:"pool_id" json:"pool_id"`
	UserID   string    `db:"user_id" json:"user_id"`
	JoinedAt time.Time `db:"joined_at" json:"joined_at"`
}

// PoolOccurrence marks a pool as materialized for one calendar date.
type PoolOccurrence struct {
	PoolID         string    `db:"pool_id" json:"pool_id"`
	OccurrenceDate string    `db:"occurrence_date" json:"occurrence_date"` // YYYY-MM-DD
	RideID         *string   `db:"ride_id" json:"ride_id,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

type CreatePoolRequest struct {
	PickupZone    string `json:"pickupZone" validate:"required,max=50"`
	DepartureTime string `json:"departureTime" validate:"required,datetime=15:04"`
	DayOfWeek     *int   `json:"dayOfWeek" validate:"required,min=0,max=6"`
}

type SubscriptionResponse struct {
	ID            string `json:"id"`
	PickupZone    string `json:"pickupZone"`
	DepartureTime string `json:"departureTime"`
	DayOfWeek     int    `json:"dayOfWeek"`
	DayName       string `json:"dayName"`
	CreatedBy     string `json:"createdBy"`
	MemberCount   int    `json:"memberCount"`
}

func (p *SubscriptionPool) ToResponse() *SubscriptionResponse {
	return &SubscriptionResponse{
		ID:            p.ID,
		PickupZone:    p.PickupZone,
		DepartureTime: p.DepartureTime,
		DayOfWeek:     p.DayOfWeek,
		DayName:       time.Weekday(p.DayOfWeek).String(),
		CreatedBy:     p.CreatedBy,
		MemberCount:   p.MemberCount,
	}
}
