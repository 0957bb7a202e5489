package models

// Badge tiers, lowest first.
const (
	BadgeBronze   = "BRONZE"
	BadgeSilver   = "SILVER"
	BadgeGold     = "GOLD"
	BadgePlatinum = "PLATINUM"
)

// Connection is a co-rider aggregated from completed rides. It is never stored.
type Connection struct {
	UserID      string `db:"peer_id" json:"userId"`
	Name        string `db:"name" json:"name"`
	MutualRides int    `db:"mutual_rides" json:"mutualRides"`
}

type TrustProfile struct {
	UserID             string        `json:"userId"`
	Name               string        `json:"name"`
	TrustScore         int           `json:"trustScore"`
	RidesCompleted     int           `json:"ridesCompleted"`
	Badge              string        `json:"badge"`
	UniqueRidePartners int           `json:"uniqueRidePartners"`
	TopConnections     []*Connection `json:"topConnections"`
}
