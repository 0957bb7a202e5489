package models

import (
	"time"
)

type User struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Email           string    `db:"email" json:"email"`
	PasswordHash    string    `db:"password_hash" json:"-"`
	Department      *string   `db:"department" json:"department,omitempty"`
	Year            *int      `db:"year" json:"year,omitempty"`
	TrustScore      float64   `db:"trust_score" json:"trust_score"`
	RidesCompleted  int       `db:"rides_completed" json:"rides_completed"`
	VehicleModel    *string   `db:"vehicle_model" json:"vehicle_model,omitempty"`
	VehicleNumber   *string   `db:"vehicle_number" json:"vehicle_number,omitempty"`
	Bio             *string   `db:"bio" json:"bio,omitempty"`
	Preferences     *string   `db:"preferences" json:"preferences,omitempty"`
	PhoneNumber     *string   `db:"phone_number" json:"phone_number,omitempty"`
	PhoneVerified   bool      `db:"phone_verified" json:"phone_verified"`
	LicenseVerified bool      `db:"license_verified" json:"license_verified"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

type RegisterRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=100"`
	Email      string `json:"email" validate:"required,email,max=150"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	Department string `json:"department,omitempty" validate:"omitempty,max=100"`
	Year       *int   `json:"year,omitempty" validate:"omitempty,min=1,max=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// UpdateUserRequest is a partial update: nil fields are left untouched.
// Trust score and completed ride count are not part of it.
type UpdateUserRequest struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Department      *string `json:"department,omitempty" validate:"omitempty,max=100"`
	Year            *int    `json:"year,omitempty" validate:"omitempty,min=1,max=6"`
	VehicleModel    *string `json:"vehicleModel,omitempty" validate:"omitempty,max=100"`
	VehicleNumber   *string `json:"vehicleNumber,omitempty" validate:"omitempty,max=30"`
	Bio             *string `json:"bio,omitempty" validate:"omitempty,max=500"`
	Preferences     *string `json:"preferences,omitempty" validate:"omitempty,max=200"`
	PhoneNumber     *string `json:"phoneNumber,omitempty" validate:"omitempty,max=20"`
	PhoneVerified   *bool   `json:"phoneVerified,omitempty"`
	LicenseVerified *bool   `json:"licenseVerified,omitempty"`
}

type UserProfile struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Department      *string   `json:"department"`
	Year            *int      `json:"year"`
	TrustScore      int       `json:"trustScore"`
	RidesCompleted  int       `json:"ridesCompleted"`
	CarbonCredits   int64     `json:"carbonCredits"`
	Badge           string    `json:"badge"`
	VehicleModel    *string   `json:"vehicleModel"`
	VehicleNumber   *string   `json:"vehicleNumber"`
	Bio             *string   `json:"bio"`
	Preferences     *string   `json:"preferences"`
	PhoneNumber     *string   `json:"phoneNumber"`
	PhoneVerified   bool      `json:"phoneVerified"`
	LicenseVerified bool      `json:"licenseVerified"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Apply copies the non-nil fields of req onto u.
func (req *UpdateUserRequest) Apply(u *User) {
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Department != nil {
		u.Department = req.Department
	}
	if req.Year != nil {
		u.Year = req.Year
	}
	if req.VehicleModel != nil {
		u.VehicleModel = req.VehicleModel
	}
	if req.VehicleNumber != nil {
		u.VehicleNumber = req.VehicleNumber
	}
	if req.Bio != nil {
		u.Bio = req.Bio
	}
	if req.Preferences != nil {
		u.Preferences = req.Preferences
	}
	if req.PhoneNumber != nil {
		u.PhoneNumber = req.PhoneNumber
	}
	if req.PhoneVerified != nil {
		u.PhoneVerified = *req.PhoneVerified
	}
	if req.LicenseVerified != nil {
		u.LicenseVerified = *req.LicenseVerified
	}
}

// ToProfile builds the profile view. Badge and credits are derived by the
// caller because they depend on the trust engine and the ledger.
func (u *User) ToProfile(badge string, carbonCredits int64) *UserProfile {
	return &UserProfile{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Department:      u.Department,
		Year:            u.Year,
		TrustScore:      DisplayTrust(u.TrustScore),
		RidesCompleted:  u.RidesCompleted,
		CarbonCredits:   carbonCredits,
		Badge:           badge,
		VehicleModel:    u.VehicleModel,
		VehicleNumber:   u.VehicleNumber,
		Bio:             u.Bio,
		Preferences:     u.Preferences,
		PhoneNumber:     u.PhoneNumber,
		PhoneVerified:   u.PhoneVerified,
		LicenseVerified: u.LicenseVerified,
		CreatedAt:       u.CreatedAt,
	}
}

// DisplayTrust truncates the stored score to the integer 0-100 scale used by clients.
func DisplayTrust(score float64) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return int(score)
}
