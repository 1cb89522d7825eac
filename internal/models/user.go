package models

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NullString wraps sql.NullString to provide proper JSON marshaling
type NullString struct {
	sql.NullString
}

// NewNullString returns a valid NullString for non-empty input
func NewNullString(s string) NullString {
	return NullString{sql.NullString{String: s, Valid: s != ""}}
}

// MarshalJSON implements json.Marshaler
func (ns NullString) MarshalJSON() ([]byte, error) {
	if ns.Valid {
		return json.Marshal(ns.String)
	}
	return json.Marshal(nil)
}

// UnmarshalJSON implements json.Unmarshaler
func (ns *NullString) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s != nil {
		ns.Valid = true
		ns.String = *s
	} else {
		ns.Valid = false
	}
	return nil
}

// UserRole is one of the three account kinds
type UserRole string

const (
	RoleUser          UserRole = "user"
	RoleFacilityOwner UserRole = "facility_owner"
	RoleAdmin         UserRole = "admin"
)

// IsValid reports whether r is a known role
func (r UserRole) IsValid() bool {
	switch r {
	case RoleUser, RoleFacilityOwner, RoleAdmin:
		return true
	}
	return false
}

// User represents a registered account
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	FullName     string     `json:"full_name" db:"full_name"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	AvatarURL    NullString `json:"avatar_url" db:"avatar_url"`
	Role         UserRole   `json:"role" db:"role"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// UserWithActivity is a user row annotated for the admin listing
type UserWithActivity struct {
	User
	TotalBookings   int     `json:"total_bookings" db:"total_bookings"`
	TotalSpent      float64 `json:"total_spent" db:"total_spent"`
	FacilitiesOwned int     `json:"facilities_owned" db:"facilities_owned"`
}

// PendingSignup holds the credentials of a signup until its OTP is verified
type PendingSignup struct {
	ID           uuid.UUID  `db:"id"`
	Email        string     `db:"email"`
	FullName     string     `db:"full_name"`
	PasswordHash string     `db:"password_hash"`
	Role         UserRole   `db:"role"`
	AvatarURL    NullString `db:"avatar_url"`
	OTPCode      string     `db:"otp_code"`
	ExpiresAt    time.Time  `db:"expires_at"`
	Attempts     int        `db:"attempts"`
	IsUsed       bool       `db:"is_used"`
	IPAddress    NullString `db:"ip_address"`
	CreatedAt    time.Time  `db:"created_at"`
}

// SignupRequest is the body of POST /auth/signup
type SignupRequest struct {
	FullName  string `json:"full_name" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatar_url"`
}

// Normalize trims input and applies the default role
func (r *SignupRequest) Normalize() {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.AvatarURL = strings.TrimSpace(r.AvatarURL)
	if r.Role == "" {
		r.Role = string(RoleUser)
	}
}

// Validate checks fields not covered by the email and password validators
func (r *SignupRequest) Validate() error {
	if r.FullName == "" {
		return errors.New("full_name is required")
	}
	role := UserRole(r.Role)
	if !role.IsValid() {
		return errors.New("role must be one of: user, facility_owner")
	}
	if role == RoleAdmin {
		return errors.New("admin accounts cannot be self-registered")
	}
	return nil
}

// VerifyOTPRequest is the body of POST /auth/verify-otp
type VerifyOTPRequest struct {
	Email   string `json:"email" binding:"required"`
	OTPCode string `json:"otp_code" binding:"required"`
}

// ResendOTPRequest is the body of POST /auth/resend-otp
type ResendOTPRequest struct {
	Email string `json:"email" binding:"required"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest is the body of POST /users/profile
type UpdateProfileRequest struct {
	FullName        *string `json:"full_name,omitempty"`
	Email           *string `json:"email,omitempty"`
	AvatarURL       *string `json:"avatar_url,omitempty"`
	NewPassword     *string `json:"new_password,omitempty"`
	CurrentPassword string  `json:"current_password,omitempty"`
}

// ChangePasswordRequest is the body of POST /users/change-password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}
