package models

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MinReviewLength is the shortest accepted review text
const MinReviewLength = 10

// Review is a user's rating of a facility. One per (user, facility).
type Review struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	FacilityID   uuid.UUID `json:"facility_id" db:"facility_id"`
	Rating       int       `json:"rating" db:"rating"`
	ReviewText   string    `json:"review_text" db:"review_text"`
	ReviewerName string    `json:"reviewer_name,omitempty" db:"reviewer_name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// CreateReviewRequest is the body of POST /reviews
type CreateReviewRequest struct {
	FacilityID uuid.UUID `json:"facility_id" binding:"required"`
	Rating     int       `json:"rating" binding:"required"`
	ReviewText string    `json:"review_text" binding:"required"`
}

// Validate checks the rating range and text length
func (r *CreateReviewRequest) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return errors.New("rating must be between 1 and 5")
	}
	r.ReviewText = strings.TrimSpace(r.ReviewText)
	if utf8.RuneCountInString(r.ReviewText) < MinReviewLength {
		return errors.New("review_text must be at least 10 characters long")
	}
	return nil
}
