package models

import "time"

type WalletTransaction struct {
	ID               string    `db:"id" json:"id"`
	UserID           string    `db:"user_id" json:"user_id"`
	RideID           string    `db:"ride_id" json:"ride_id"`
	CarbonSavedGrams int64     `db:"carbon_saved_grams" json:"carbon_saved_grams"`
	CreditsEarned    int64     `db:"credits_earned" json:"credits_earned"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// WalletTotals are running sums over a user's ledger.
type WalletTotals struct {
	TotalCredits          int64 `db:"total_credits"`
	TotalCarbonSavedGrams int64 `db:"total_carbon_saved_grams"`
}

type CampusSummary struct {
	TotalCarbonSavedGrams int64 `db:"total_carbon_saved_grams" json:"totalCarbonSavedGrams"`
	TotalCreditsIssued    int64 `db:"total_credits_issued" json:"totalCreditsIssued"`
	TotalRides            int64 `db:"total_rides" json:"totalRides"`
}

type TransactionResponse struct {
	RideID           string    `json:"rideId"`
	CarbonSavedGrams int64     `json:"carbonSavedGrams"`
	CreditsEarned    int64     `json:"creditsEarned"`
	CreatedAt        time.Time `json:"createdAt"`
}

type WalletResponse struct {
	TotalCredits          int64                  `json:"totalCredits"`
	TotalCarbonSavedGrams int64                  `json:"totalCarbonSavedGrams"`
	TotalCarbonSavedKg    float64                `json:"totalCarbonSavedKg"`
	RecentTransactions    []*TransactionResponse `json:"recentTransactions"`
}

func (t *WalletTransaction) ToResponse() *TransactionResponse {
	return &TransactionResponse{
		RideID:           t.RideID,
		CarbonSavedGrams: t.CarbonSavedGrams,
		CreditsEarned:    t.CreditsEarned,
		CreatedAt:        t.CreatedAt,
	}
}
