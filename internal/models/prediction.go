package models

type Prediction struct {
	PickupZone             string `json:"pickupZone"`
	SuggestedDepartureTime string `json:"suggestedDepartureTime"`
	ConfidenceRideCount    int    `json:"confidenceRideCount"`
	DayOfWeek              string `json:"dayOfWeek"`
	Message                string `json:"message"`
}
