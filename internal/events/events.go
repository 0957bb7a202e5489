package events

import (
	"context"
	"errors"
	"time"
)

// Ride lifecycle event types.
const (
	RideCreated          = "ride.created"
	RideJoined           = "ride.joined"
	RideLeft             = "ride.left"
	RideFull             = "ride.full"
	RideCancelled        = "ride.cancelled"
	RideCompleted        = "ride.completed"
	ParticipantConfirmed = "ride.participant_confirmed"
)

type RideEvent struct {
	Type           string    `json:"type"`
	RideID         string    `json:"rideId"`
	UserID         string    `json:"userId,omitempty"`
	Status         string    `json:"status"`
	AvailableSeats int       `json:"availableSeats"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// Publisher delivers ride events after the state change has committed.
// Delivery is best effort; a failed publish never undoes the change.
type Publisher interface {
	Publish(ctx context.Context, event RideEvent) error
	Close() error
}

type nopPublisher struct{}

func NewNop() Publisher { return nopPublisher{} }

func (nopPublisher) Publish(context.Context, RideEvent) error { return nil }
func (nopPublisher) Close() error                             { return nil }

type multiPublisher []Publisher

// NewMulti fans every event out to all publishers and joins their errors.
func NewMulti(publishers ...Publisher) Publisher {
	return multiPublisher(publishers)
}

func (m multiPublisher) Publish(ctx context.Context, event RideEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multiPublisher) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
